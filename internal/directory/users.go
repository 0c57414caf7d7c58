// Package directory holds the registered users and the per-user
// transaction ledgers on top of the kv store.
package directory

import (
	"context"
	"strings"
	"sync"

	"go.uber.org/zap"

	"elevate-rewards/internal/core/kv"
	"elevate-rewards/internal/domain"

	"elevate-rewards/pkg/utils"
)

// DefaultAdmin is seeded on bootstrap so a fresh store is usable
// without a registration step.
var DefaultAdmin = domain.User{
	ID:       "admin-0001",
	Name:     "Administrador Elevate",
	Email:    "admin@elevaterewards.com",
	Password: "admin123",
	Role:     domain.RoleAdmin,
}

type Users struct {
	store kv.Store
	log   *zap.Logger

	mu           sync.Mutex
	bootstrapped bool
}

func NewUsers(store kv.Store, log *zap.Logger) *Users {
	return &Users{store: store, log: log}
}

func normalizeEmail(email string) string {
	return strings.ToLower(strings.TrimSpace(email))
}

func (d *Users) read(ctx context.Context) []domain.User {
	return kv.ReadJSON(ctx, d.store, d.log, kv.KeyUsers, []domain.User{})
}

func (d *Users) write(ctx context.Context, users []domain.User) error {
	return kv.WriteJSON(ctx, d.store, d.log, kv.KeyUsers, users)
}

// Bootstrap repairs the stored user set: the default administrator is
// ensured, its role is forced to admin, and records with a missing role
// default to user. Idempotent, and runs at most once per process; the
// hosting application calls it explicitly at startup.
func (d *Users) Bootstrap(ctx context.Context) error {
	d.mu.Lock()
	defer d.mu.Unlock()
	if d.bootstrapped {
		return nil
	}
	if d.store == nil {
		return domain.ErrStorageUnavailable
	}

	users := d.read(ctx)
	mutated := false

	for i, u := range users {
		expected := u.Role
		if normalizeEmail(u.Email) == DefaultAdmin.Email {
			expected = domain.RoleAdmin
		} else if u.Role == "" {
			expected = domain.RoleUser
		}
		if u.Role != expected {
			users[i].Role = expected
			mutated = true
		}
	}

	hasAdmin := false
	for _, u := range users {
		if normalizeEmail(u.Email) == DefaultAdmin.Email {
			hasAdmin = true
			break
		}
	}
	if !hasAdmin {
		users = append(users, DefaultAdmin)
		mutated = true
	}

	if mutated {
		if err := d.write(ctx, users); err != nil {
			return err
		}
	}
	d.bootstrapped = true
	return nil
}

func (d *Users) List(ctx context.Context) ([]domain.User, error) {
	if d.store == nil {
		return nil, domain.ErrStorageUnavailable
	}
	users := d.read(ctx)
	out := make([]domain.User, len(users))
	copy(out, users)
	return out, nil
}

// FindByEmail matches case-insensitively on the trimmed address.
func (d *Users) FindByEmail(ctx context.Context, email string) (*domain.User, error) {
	if d.store == nil {
		return nil, domain.ErrStorageUnavailable
	}
	want := normalizeEmail(email)
	for _, u := range d.read(ctx) {
		if normalizeEmail(u.Email) == want {
			match := u
			return &match, nil
		}
	}
	return nil, nil
}

func (d *Users) FindByID(ctx context.Context, id string) (*domain.User, error) {
	if d.store == nil {
		return nil, domain.ErrStorageUnavailable
	}
	for _, u := range d.read(ctx) {
		if u.ID == id {
			match := u
			return &match, nil
		}
	}
	return nil, nil
}

// Create registers a user. An empty role defaults to admin — that is
// how the original program behaves; see DESIGN.md before "fixing" it.
func (d *Users) Create(ctx context.Context, name, email, password string, role domain.Role) (domain.User, error) {
	if d.store == nil {
		return domain.User{}, domain.ErrStorageUnavailable
	}

	normalized := normalizeEmail(email)
	users := d.read(ctx)
	for _, existing := range users {
		if normalizeEmail(existing.Email) == normalized {
			return domain.User{}, domain.ErrDuplicateEmail
		}
	}

	if role == "" {
		role = domain.RoleAdmin
	}
	u := domain.User{
		ID:       utils.NewID(),
		Name:     strings.TrimSpace(name),
		Email:    normalized,
		Password: password,
		Role:     role,
	}
	if err := d.write(ctx, append(users, u)); err != nil {
		return domain.User{}, err
	}
	return u, nil
}
