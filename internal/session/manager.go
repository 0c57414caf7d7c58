// Package session owns the single "currently logged in" slot and the
// login, registration and logout flows around it.
package session

import (
	"context"
	"time"

	"go.uber.org/zap"

	"elevate-rewards/internal/core/kv"
	"elevate-rewards/internal/core/token"
	"elevate-rewards/internal/directory"
	"elevate-rewards/internal/domain"
)

type Manager struct {
	users  *directory.Users
	txs    *directory.Transactions
	issuer *token.Issuer
	store  kv.Store
	log    *zap.Logger
	// Now is swappable for tests; defaults to time.Now.
	Now func() time.Time
}

func NewManager(users *directory.Users, txs *directory.Transactions, issuer *token.Issuer, store kv.Store, log *zap.Logger) *Manager {
	return &Manager{users: users, txs: txs, issuer: issuer, store: store, log: log}
}

func (m *Manager) now() time.Time {
	if m.Now != nil {
		return m.Now()
	}
	return time.Now()
}

// Register creates the account, seeds its ledger and logs it in. An
// empty role keeps the original default (admin; see DESIGN.md).
func (m *Manager) Register(ctx context.Context, name, email, password string, role domain.Role) (domain.AuthResult, error) {
	if m.store == nil {
		return domain.AuthResult{}, domain.ErrStorageUnavailable
	}
	u, err := m.users.Create(ctx, name, email, password, role)
	if err != nil {
		return domain.AuthResult{}, err
	}
	if err := m.txs.EnsureSeeded(ctx, u); err != nil {
		return domain.AuthResult{}, err
	}
	return m.open(ctx, u)
}

// Login matches the normalized email and compares the password as a
// plain string, exactly like the program being replaced.
func (m *Manager) Login(ctx context.Context, email, password string) (domain.AuthResult, error) {
	if m.store == nil {
		return domain.AuthResult{}, domain.ErrStorageUnavailable
	}
	u, err := m.users.FindByEmail(ctx, email)
	if err != nil {
		return domain.AuthResult{}, err
	}
	if u == nil || u.Password != password {
		return domain.AuthResult{}, domain.ErrInvalidCredentials
	}
	return m.open(ctx, *u)
}

// open seeds the ledger if needed, mints a token and persists the slot.
func (m *Manager) open(ctx context.Context, u domain.User) (domain.AuthResult, error) {
	if err := m.txs.EnsureSeeded(ctx, u); err != nil {
		return domain.AuthResult{}, err
	}
	tok, err := m.issuer.Issue(u)
	if err != nil {
		return domain.AuthResult{}, err
	}
	sess := domain.Session{UserID: u.ID, Token: tok, CreatedAt: m.now()}
	if err := kv.WriteJSON(ctx, m.store, m.log, kv.KeySession, sess); err != nil {
		return domain.AuthResult{}, err
	}
	// Mirror keys the original UI reads directly.
	_ = kv.WriteJSON(ctx, m.store, m.log, kv.KeyCurrentUser, u)
	_ = m.store.Set(ctx, kv.KeyToken, tok)
	return domain.AuthResult{Token: tok, User: u}, nil
}

// Logout clears the slot and both mirror keys.
func (m *Manager) Logout(ctx context.Context) error {
	if m.store == nil {
		return nil
	}
	if err := m.store.Delete(ctx, kv.KeySession); err != nil {
		return err
	}
	_ = m.store.Delete(ctx, kv.KeyCurrentUser)
	return m.store.Delete(ctx, kv.KeyToken)
}

// Active resolves the persisted session against the user directory.
// A slot pointing at a user that no longer exists is purged and nil is
// returned (self-healing).
func (m *Manager) Active(ctx context.Context) (*domain.AuthResult, error) {
	if m.store == nil {
		return nil, nil
	}
	var empty domain.Session
	sess := kv.ReadJSON(ctx, m.store, m.log, kv.KeySession, empty)
	if sess.UserID == "" || sess.Token == "" {
		return nil, nil
	}
	u, err := m.users.FindByID(ctx, sess.UserID)
	if err != nil {
		return nil, err
	}
	if u == nil {
		if m.log != nil {
			m.log.Info("session referenced missing user, purging", zap.String("userId", sess.UserID))
		}
		_ = m.Logout(ctx)
		return nil, nil
	}
	return &domain.AuthResult{Token: sess.Token, User: *u}, nil
}

// CurrentUser reads the mirrored user snapshot.
func (m *Manager) CurrentUser(ctx context.Context) *domain.User {
	if m.store == nil {
		return nil
	}
	u := kv.ReadJSON[*domain.User](ctx, m.store, m.log, kv.KeyCurrentUser, nil)
	return u
}
