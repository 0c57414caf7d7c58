// Package rewards is the application facade: the four logical
// operations the UI consumes, with session and role checks in front of
// the directories and the filter engine.
package rewards

import (
	"context"
	"io"
	"time"

	"go.uber.org/zap"

	"elevate-rewards/internal/core/cache"
	"elevate-rewards/internal/directory"
	"elevate-rewards/internal/domain"
	"elevate-rewards/internal/report"
	"elevate-rewards/internal/session"
	"elevate-rewards/internal/upload"
)

// Simulation constants for uploads without a file: one fabricated entry
// per known user, statuses cycling, points stepping by 120, amount at
// 2.5x points, dates stepping two hours back per user.
var simulationStatuses = []domain.Status{
	domain.StatusApproved,
	domain.StatusPending,
	domain.StatusRejected,
}

const (
	simulationPointsStep  = 120
	simulationAmountRatio = 2.5
	simulationDateStep    = 2 * time.Hour
	simulationDescription = "Importação de pontos Elevate"
)

type Facade struct {
	users    *directory.Users
	txs      *directory.Transactions
	sessions *session.Manager
	cache    *cache.Cache // optional; nil disables wallet caching
	log      *zap.Logger

	walletTTL time.Duration
	// Now is swappable for tests; defaults to time.Now.
	Now func() time.Time
}

func New(users *directory.Users, txs *directory.Transactions, sessions *session.Manager, c *cache.Cache, walletTTL time.Duration, log *zap.Logger) *Facade {
	return &Facade{users: users, txs: txs, sessions: sessions, cache: c, walletTTL: walletTTL, log: log}
}

func (f *Facade) now() time.Time {
	if f.Now != nil {
		return f.Now()
	}
	return time.Now()
}

// Bootstrap repairs the user set and seeds every known user's ledger.
// Called once by the hosting application before serving.
func (f *Facade) Bootstrap(ctx context.Context) error {
	if err := f.users.Bootstrap(ctx); err != nil {
		return err
	}
	users, err := f.users.List(ctx)
	if err != nil {
		return err
	}
	for _, u := range users {
		if err := f.txs.EnsureSeeded(ctx, u); err != nil {
			return err
		}
	}
	return nil
}

func (f *Facade) requireSession(ctx context.Context) (*domain.AuthResult, error) {
	active, err := f.sessions.Active(ctx)
	if err != nil {
		return nil, err
	}
	if active == nil {
		return nil, domain.ErrNotAuthenticated
	}
	return active, nil
}

func (f *Facade) requireAdmin(ctx context.Context) (*domain.AuthResult, error) {
	active, err := f.requireSession(ctx)
	if err != nil {
		return nil, err
	}
	if active.User.Role != domain.RoleAdmin {
		return nil, domain.ErrForbidden
	}
	return active, nil
}

// UserStatement is the caller's own ledger, filtered in user scope.
func (f *Facade) UserStatement(ctx context.Context, p *report.Params) ([]domain.Transaction, error) {
	active, err := f.requireSession(ctx)
	if err != nil {
		return nil, err
	}
	list, err := f.txs.ForUser(ctx, active.User.ID)
	if err != nil {
		return nil, err
	}
	return report.Filter(list, p, report.ScopeUser), nil
}

type WalletSummary struct {
	TotalPoints int64 `json:"totalPoints"`
}

func walletCacheKey(userID string) string { return "er.cache.wallet:" + userID }

// Wallet is the caller's approved-points total, cached in redis when a
// cache is configured.
func (f *Facade) Wallet(ctx context.Context) (WalletSummary, error) {
	active, err := f.requireSession(ctx)
	if err != nil {
		return WalletSummary{}, err
	}
	if f.cache != nil {
		out, cerr := cache.GetOrLoadJSON(f.cache, ctx, walletCacheKey(active.User.ID), f.walletTTL,
			func(ctx context.Context) (*WalletSummary, error) {
				s, e := f.walletOf(ctx, active.User.ID)
				return &s, e
			})
		if cerr == nil && out != nil {
			return *out, nil
		}
		if f.log != nil && cerr != nil {
			f.log.Warn("wallet cache unavailable, computing directly", zap.Error(cerr))
		}
	}
	return f.walletOf(ctx, active.User.ID)
}

func (f *Facade) walletOf(ctx context.Context, userID string) (WalletSummary, error) {
	list, err := f.txs.ForUser(ctx, userID)
	if err != nil {
		return WalletSummary{}, err
	}
	return WalletSummary{TotalPoints: report.WalletTotal(list)}, nil
}

// AdminReport filters every user's entries in admin scope.
func (f *Facade) AdminReport(ctx context.Context, p *report.Params) ([]domain.Transaction, error) {
	if _, err := f.requireAdmin(ctx); err != nil {
		return nil, err
	}
	list, err := f.txs.All(ctx)
	if err != nil {
		return nil, err
	}
	return report.Filter(list, p, report.ScopeAdmin), nil
}

type UploadResult struct {
	Imported  int    `json:"imported"`
	Skipped   int    `json:"skipped"`
	Simulated bool   `json:"simulated"`
	Message   string `json:"message"`
}

// Upload ingests a statement spreadsheet, or fabricates a batch when no
// file was sent (the simulation mode of the original mock API).
func (f *Facade) Upload(ctx context.Context, file io.Reader) (UploadResult, error) {
	if _, err := f.requireAdmin(ctx); err != nil {
		return UploadResult{}, err
	}
	if file == nil {
		return f.simulate(ctx)
	}
	return f.ingest(ctx, file)
}

func (f *Facade) simulate(ctx context.Context) (UploadResult, error) {
	users, err := f.users.List(ctx)
	if err != nil {
		return UploadResult{}, err
	}
	now := f.now()
	imported := 0
	for i, u := range users {
		points := int64(simulationPointsStep * (i + 1))
		rec, err := f.txs.NewRecord(ctx, directory.Draft{
			UserID:          u.ID,
			Description:     simulationDescription,
			TransactionDate: now.Add(-time.Duration(i) * simulationDateStep),
			Points:          points,
			Amount:          simulationAmountRatio * float64(points),
			Status:          simulationStatuses[i%len(simulationStatuses)],
		})
		if err != nil {
			return UploadResult{}, err
		}
		if err := f.txs.Append(ctx, u.ID, rec); err != nil {
			return UploadResult{}, err
		}
		f.invalidateWallet(ctx, u.ID)
		imported++
	}
	if f.log != nil {
		f.log.Info("upload simulated", zap.Int("imported", imported))
	}
	return UploadResult{Imported: imported, Simulated: true, Message: "Transações simuladas com sucesso."}, nil
}

func (f *Facade) ingest(ctx context.Context, file io.Reader) (UploadResult, error) {
	rows, skipped, err := upload.ParseStatement(file)
	if err != nil {
		return UploadResult{}, err
	}

	owners, err := f.ownersByCPF(ctx)
	if err != nil {
		return UploadResult{}, err
	}

	batches := make(map[string][]domain.Transaction)
	for _, row := range rows {
		ownerID, ok := owners[upload.DigitsOnly(row.CPF)]
		if !ok {
			skipped++
			continue
		}
		rec, err := f.txs.NewRecord(ctx, directory.Draft{
			UserID:          ownerID,
			CPF:             row.CPF,
			Description:     row.Description,
			TransactionDate: row.Date,
			Points:          row.Points,
			Amount:          row.Amount,
			Status:          domain.Status(row.Status),
		})
		if err != nil {
			return UploadResult{}, err
		}
		batches[ownerID] = append(batches[ownerID], rec)
	}

	imported := 0
	for ownerID, batch := range batches {
		if err := f.txs.Append(ctx, ownerID, batch...); err != nil {
			return UploadResult{}, err
		}
		f.invalidateWallet(ctx, ownerID)
		imported += len(batch)
	}
	if f.log != nil {
		f.log.Info("upload ingested", zap.Int("imported", imported), zap.Int("skipped", skipped))
	}
	return UploadResult{Imported: imported, Skipped: skipped, Message: "Transações importadas com sucesso."}, nil
}

// ownersByCPF maps the digits of every CPF already on a ledger to its
// owner. Users have no CPF field of their own; the ledger is the only
// linkage, as in the original data model.
func (f *Facade) ownersByCPF(ctx context.Context) (map[string]string, error) {
	all, err := f.txs.All(ctx)
	if err != nil {
		return nil, err
	}
	owners := make(map[string]string)
	for _, t := range all {
		key := upload.DigitsOnly(t.CPF)
		if _, ok := owners[key]; !ok {
			owners[key] = t.UserID
		}
	}
	return owners, nil
}

func (f *Facade) invalidateWallet(ctx context.Context, userID string) {
	if f.cache != nil {
		f.cache.Invalidate(ctx, walletCacheKey(userID))
	}
}
