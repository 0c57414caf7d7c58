package rewards

import (
	"bytes"
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/xuri/excelize/v2"
	"go.uber.org/zap"

	"elevate-rewards/internal/core/kv"
	"elevate-rewards/internal/core/token"
	"elevate-rewards/internal/directory"
	"elevate-rewards/internal/domain"
	"elevate-rewards/internal/report"
	"elevate-rewards/internal/session"
)

type fixture struct {
	store    kv.Store
	users    *directory.Users
	txs      *directory.Transactions
	sessions *session.Manager
	facade   *Facade
}

func newFixture(t *testing.T) *fixture {
	t.Helper()
	s := kv.NewMemory()
	log := zap.NewNop()
	users := directory.NewUsers(s, log)
	txs := directory.NewTransactions(s, log)
	sessions := session.NewManager(users, txs, &token.Issuer{}, s, log)
	f := New(users, txs, sessions, nil, 0, log)
	require.NoError(t, f.Bootstrap(context.Background()))
	return &fixture{store: s, users: users, txs: txs, sessions: sessions, facade: f}
}

func (fx *fixture) loginAdmin(t *testing.T, ctx context.Context) domain.AuthResult {
	t.Helper()
	res, err := fx.sessions.Login(ctx, directory.DefaultAdmin.Email, directory.DefaultAdmin.Password)
	require.NoError(t, err)
	return res
}

func (fx *fixture) registerUser(t *testing.T, ctx context.Context, email string) domain.AuthResult {
	t.Helper()
	res, err := fx.sessions.Register(ctx, "Pessoa", email, "pw", domain.RoleUser)
	require.NoError(t, err)
	return res
}

func TestBootstrapSeedsAdminLedger(t *testing.T) {
	t.Parallel()
	ctx := context.Background()
	fx := newFixture(t)

	list, err := fx.txs.ForUser(ctx, directory.DefaultAdmin.ID)
	require.NoError(t, err)
	assert.Len(t, list, 4)
}

func TestOperationsRequireSession(t *testing.T) {
	t.Parallel()
	ctx := context.Background()
	fx := newFixture(t)

	_, err := fx.facade.UserStatement(ctx, nil)
	assert.ErrorIs(t, err, domain.ErrNotAuthenticated)
	_, err = fx.facade.Wallet(ctx)
	assert.ErrorIs(t, err, domain.ErrNotAuthenticated)
	_, err = fx.facade.AdminReport(ctx, nil)
	assert.ErrorIs(t, err, domain.ErrNotAuthenticated)
	_, err = fx.facade.Upload(ctx, nil)
	assert.ErrorIs(t, err, domain.ErrNotAuthenticated)
}

func TestAdminOperationsForbiddenForUserRole(t *testing.T) {
	t.Parallel()
	ctx := context.Background()
	fx := newFixture(t)
	fx.registerUser(t, ctx, "user@example.com")

	_, err := fx.facade.AdminReport(ctx, nil)
	assert.ErrorIs(t, err, domain.ErrForbidden)
	_, err = fx.facade.Upload(ctx, nil)
	assert.ErrorIs(t, err, domain.ErrForbidden)
}

func TestUserStatementIsScopedToCaller(t *testing.T) {
	t.Parallel()
	ctx := context.Background()
	fx := newFixture(t)
	me := fx.registerUser(t, ctx, "me@example.com")

	list, err := fx.facade.UserStatement(ctx, nil)
	require.NoError(t, err)
	require.Len(t, list, 4)
	for _, tr := range list {
		assert.Equal(t, me.User.ID, tr.UserID)
	}
	for i := 1; i < len(list); i++ {
		assert.False(t, list[i-1].TransactionDate.Before(list[i].TransactionDate), "newest first")
	}
}

func TestWalletSumsApprovedSeeds(t *testing.T) {
	t.Parallel()
	ctx := context.Background()
	fx := newFixture(t)
	fx.registerUser(t, ctx, "me@example.com")

	// Seed templates carry 1280 + 2160 approved points.
	w, err := fx.facade.Wallet(ctx)
	require.NoError(t, err)
	assert.Equal(t, int64(3440), w.TotalPoints)
}

func TestAdminReportSpansAllUsersAndFilters(t *testing.T) {
	t.Parallel()
	ctx := context.Background()
	fx := newFixture(t)
	fx.registerUser(t, ctx, "one@example.com")
	fx.registerUser(t, ctx, "two@example.com")
	fx.loginAdmin(t, ctx)

	all, err := fx.facade.AdminReport(ctx, nil)
	require.NoError(t, err)
	assert.Len(t, all, 12, "4 seeds for admin plus each registered user")

	approved, err := fx.facade.AdminReport(ctx, &report.Params{Status: string(domain.StatusApproved)})
	require.NoError(t, err)
	assert.Len(t, approved, 6)
	for _, tr := range approved {
		assert.Equal(t, domain.StatusApproved, tr.Status)
	}
}

func buildStatement(t *testing.T, rows [][]string) *bytes.Reader {
	t.Helper()
	f := excelize.NewFile()
	defer f.Close()

	sheet := f.GetSheetName(0)
	header := []string{"CPF", "Descrição da transação", "Data da transação", "Valor em pontos", "Valor", "Status"}
	require.NoError(t, f.SetSheetRow(sheet, "A1", &header))
	for i, row := range rows {
		addr, err := excelize.CoordinatesToCellName(1, i+2)
		require.NoError(t, err)
		require.NoError(t, f.SetSheetRow(sheet, addr, &row))
	}

	var buf bytes.Buffer
	require.NoError(t, f.Write(&buf))
	return bytes.NewReader(buf.Bytes())
}

func TestUploadIngestKeepsStatusInEnum(t *testing.T) {
	t.Parallel()
	ctx := context.Background()
	fx := newFixture(t)
	me := fx.registerUser(t, ctx, "me@example.com")
	fx.loginAdmin(t, ctx)

	// Tie a real CPF to the user's ledger so uploaded rows find an owner.
	const cpf = "123.456.789-09"
	rec, err := fx.txs.NewRecord(ctx, directory.Draft{UserID: me.User.ID, CPF: cpf})
	require.NoError(t, err)
	require.NoError(t, fx.txs.Append(ctx, me.User.ID, rec))

	out, err := fx.facade.Upload(ctx, buildStatement(t, [][]string{
		{cpf, "Linha boa", "10-05-2026", "200", "500,00", "Aprovado"},
		{cpf, "Status de fora", "10-05-2026", "200", "500,00", "Pendente"},
	}))
	require.NoError(t, err)
	assert.Equal(t, 1, out.Imported)
	assert.Equal(t, 1, out.Skipped)

	list, err := fx.txs.ForUser(ctx, me.User.ID)
	require.NoError(t, err)
	valid := map[domain.Status]bool{
		domain.StatusApproved: true,
		domain.StatusRejected: true,
		domain.StatusPending:  true,
	}
	for _, tr := range list {
		assert.True(t, valid[tr.Status], "stored status %q must stay in the ledger enum", tr.Status)
	}
}

func TestUploadSimulationFabricatesOnePerUser(t *testing.T) {
	t.Parallel()
	ctx := context.Background()
	fx := newFixture(t)
	fx.registerUser(t, ctx, "one@example.com")
	fx.loginAdmin(t, ctx)

	now := time.Date(2026, 4, 1, 10, 0, 0, 0, time.UTC)
	fx.facade.Now = func() time.Time { return now }

	out, err := fx.facade.Upload(ctx, nil)
	require.NoError(t, err)
	assert.True(t, out.Simulated)
	assert.Equal(t, 2, out.Imported, "one fabricated entry per known user")
	assert.Zero(t, out.Skipped)
	assert.NotEmpty(t, out.Message)

	users, err := fx.users.List(ctx)
	require.NoError(t, err)
	require.Len(t, users, 2)

	for i, u := range users {
		list, err := fx.txs.ForUser(ctx, u.ID)
		require.NoError(t, err)
		require.Len(t, list, 5)

		var sim *domain.Transaction
		for j := range list {
			if list[j].Description == simulationDescription {
				sim = &list[j]
				break
			}
		}
		require.NotNil(t, sim, "user %s got a simulated entry", u.ID)
		wantPoints := int64(simulationPointsStep * (i + 1))
		assert.Equal(t, wantPoints, sim.Points)
		assert.Equal(t, simulationAmountRatio*float64(wantPoints), sim.Amount)
		assert.Equal(t, simulationStatuses[i%len(simulationStatuses)], sim.Status)
		assert.True(t, sim.TransactionDate.Equal(now.Add(-time.Duration(i)*simulationDateStep)))
	}
}
