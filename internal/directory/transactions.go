package directory

import (
	"context"
	"fmt"
	"sort"
	"strconv"
	"time"

	"go.uber.org/zap"

	"elevate-rewards/internal/core/kv"
	"elevate-rewards/internal/domain"
)

// sequenceStart is where the persisted id counter begins on an empty
// store; ids hand out from sequenceStart+1.
const sequenceStart = 1000

type sampleTemplate struct {
	description string
	amount      float64
	points      int64
	status      domain.Status
	daysAgo     int
}

var sampleTemplates = []sampleTemplate{
	{description: "Compra em parceiros Elevate", amount: 3200, points: 1280, status: domain.StatusApproved, daysAgo: 6},
	{description: "Campanha interna - Bônus", amount: 1500, points: 900, status: domain.StatusPending, daysAgo: 3},
	{description: "Ajuste de performance", amount: 800, points: 0, status: domain.StatusRejected, daysAgo: 14},
	{description: "Venda consultiva", amount: 5400, points: 2160, status: domain.StatusApproved, daysAgo: 18},
}

// ledger is the stored shape: user id → entries.
type ledger map[string][]domain.Transaction

type Transactions struct {
	store kv.Store
	log   *zap.Logger
	// Now is swappable for tests; defaults to time.Now.
	Now func() time.Time
}

func NewTransactions(store kv.Store, log *zap.Logger) *Transactions {
	return &Transactions{store: store, log: log}
}

func (d *Transactions) now() time.Time {
	if d.Now != nil {
		return d.Now()
	}
	return time.Now()
}

func (d *Transactions) read(ctx context.Context) ledger {
	return kv.ReadJSON(ctx, d.store, d.log, kv.KeyTransacts, ledger{})
}

func (d *Transactions) write(ctx context.Context, l ledger) error {
	return kv.WriteJSON(ctx, d.store, d.log, kv.KeyTransacts, l)
}

func copyList(in []domain.Transaction) []domain.Transaction {
	out := make([]domain.Transaction, len(in))
	copy(out, in)
	return out
}

func sortNewestFirst(list []domain.Transaction) {
	sort.SliceStable(list, func(i, j int) bool {
		return list[i].TransactionDate.After(list[j].TransactionDate)
	})
}

// NextID allocates the next ledger id from the persisted counter. The
// read-increment-write is not safe against a second process writing the
// same store; this mirrors the single-writer design being replaced.
func (d *Transactions) NextID(ctx context.Context) (int64, error) {
	if d.store == nil {
		return 0, domain.ErrStorageUnavailable
	}
	current := int64(sequenceStart)
	if raw, ok, err := d.store.Get(ctx, kv.KeySequence); err == nil && ok {
		if parsed, perr := strconv.ParseInt(raw, 10, 64); perr == nil {
			current = parsed
		}
	}
	next := current + 1
	if err := d.store.Set(ctx, kv.KeySequence, strconv.FormatInt(next, 10)); err != nil {
		return 0, err
	}
	return next, nil
}

// ForUser returns a defensive copy of the user's entries, in stored order.
func (d *Transactions) ForUser(ctx context.Context, userID string) ([]domain.Transaction, error) {
	if d.store == nil {
		return nil, domain.ErrStorageUnavailable
	}
	return copyList(d.read(ctx)[userID]), nil
}

// ReplaceForUser overwrites the user's entries wholesale.
func (d *Transactions) ReplaceForUser(ctx context.Context, userID string, list []domain.Transaction) error {
	if d.store == nil {
		return domain.ErrStorageUnavailable
	}
	l := d.read(ctx)
	l[userID] = copyList(list)
	return d.write(ctx, l)
}

// Append merges entries into the user's list and re-sorts it newest
// first. Whole-collection read-modify-write: concurrent appends against
// the same store can lose entries (known, inherited limitation).
func (d *Transactions) Append(ctx context.Context, userID string, entries ...domain.Transaction) error {
	if d.store == nil {
		return domain.ErrStorageUnavailable
	}
	l := d.read(ctx)
	merged := append(copyList(l[userID]), entries...)
	sortNewestFirst(merged)
	l[userID] = merged
	return d.write(ctx, l)
}

// All returns every entry across all users, defensively copied.
func (d *Transactions) All(ctx context.Context) ([]domain.Transaction, error) {
	if d.store == nil {
		return nil, domain.ErrStorageUnavailable
	}
	l := d.read(ctx)
	var out []domain.Transaction
	for _, list := range l {
		out = append(out, list...)
	}
	return out, nil
}

// EnsureSeeded creates the four sample entries for a user that has no
// ledger yet, so every account shows movement on first access.
func (d *Transactions) EnsureSeeded(ctx context.Context, user domain.User) error {
	if d.store == nil {
		return domain.ErrStorageUnavailable
	}
	l := d.read(ctx)
	if _, ok := l[user.ID]; ok {
		return nil
	}
	samples := make([]domain.Transaction, 0, len(sampleTemplates))
	for i, tpl := range sampleTemplates {
		id, err := d.NextID(ctx)
		if err != nil {
			return err
		}
		samples = append(samples, domain.Transaction{
			ID:              id,
			UserID:          user.ID,
			CPF:             SynthesizeCPF(id + int64(i)),
			Description:     tpl.description,
			TransactionDate: d.daysAgo(tpl.daysAgo + i),
			Points:          tpl.points,
			Amount:          tpl.amount,
			Status:          tpl.status,
		})
	}
	// Re-read: NextID persisted through the same store.
	l = d.read(ctx)
	l[user.ID] = samples
	return d.write(ctx, l)
}

// Draft carries optional fields for NewRecord; zero values get the
// original program's defaults.
type Draft struct {
	UserID          string
	CPF             string
	Description     string
	TransactionDate time.Time
	Points          int64
	Amount          float64
	Status          domain.Status
}

// NewRecord allocates an id and materializes a transaction from a draft.
// The record is not persisted; pass it to Append.
func (d *Transactions) NewRecord(ctx context.Context, draft Draft) (domain.Transaction, error) {
	id, err := d.NextID(ctx)
	if err != nil {
		return domain.Transaction{}, err
	}
	t := domain.Transaction{
		ID:              id,
		UserID:          draft.UserID,
		CPF:             draft.CPF,
		Description:     draft.Description,
		TransactionDate: draft.TransactionDate,
		Points:          draft.Points,
		Amount:          draft.Amount,
		Status:          draft.Status,
	}
	if t.CPF == "" {
		t.CPF = SynthesizeCPF(id)
	}
	if t.Description == "" {
		t.Description = "Transação Elevate"
	}
	if t.TransactionDate.IsZero() {
		t.TransactionDate = d.now()
	}
	if t.Status == "" {
		t.Status = domain.StatusPending
	}
	return t, nil
}

// daysAgo returns local noon, the given number of days back. Noon keeps
// the seeded dates inside the same calendar day across timezones.
func (d *Transactions) daysAgo(days int) time.Time {
	n := d.now()
	noon := time.Date(n.Year(), n.Month(), n.Day(), 12, 0, 0, 0, n.Location())
	return noon.AddDate(0, 0, -days)
}

// SynthesizeCPF derives a display-formatted CPF from a numeric seed:
// the absolute value padded to 11 digits, last 11 kept.
func SynthesizeCPF(seed int64) string {
	if seed < 0 {
		seed = -seed
	}
	digits := fmt.Sprintf("%011d", seed)
	digits = digits[len(digits)-11:]
	return fmt.Sprintf("%s.%s.%s-%s", digits[0:3], digits[3:6], digits[6:9], digits[9:])
}
