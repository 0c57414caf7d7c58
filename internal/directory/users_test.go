package directory

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"elevate-rewards/internal/core/kv"
	"elevate-rewards/internal/domain"
)

func newUsers(t *testing.T) (*Users, kv.Store) {
	t.Helper()
	s := kv.NewMemory()
	return NewUsers(s, zap.NewNop()), s
}

func TestBootstrapSeedsDefaultAdmin(t *testing.T) {
	t.Parallel()
	ctx := context.Background()
	d, _ := newUsers(t)

	require.NoError(t, d.Bootstrap(ctx))

	u, err := d.FindByEmail(ctx, DefaultAdmin.Email)
	require.NoError(t, err)
	require.NotNil(t, u)
	assert.Equal(t, "admin-0001", u.ID)
	assert.Equal(t, domain.RoleAdmin, u.Role)
	assert.Equal(t, "admin123", u.Password)

	// Idempotent: a second bootstrap adds nothing.
	require.NoError(t, d.Bootstrap(ctx))
	list, err := d.List(ctx)
	require.NoError(t, err)
	assert.Len(t, list, 1)
}

func TestBootstrapRepairsRoles(t *testing.T) {
	t.Parallel()
	ctx := context.Background()
	s := kv.NewMemory()
	log := zap.NewNop()

	seed := []domain.User{
		{ID: "u-1", Email: "one@example.com", Role: ""},
		{ID: "u-2", Email: DefaultAdmin.Email, Role: domain.RoleUser},
	}
	require.NoError(t, kv.WriteJSON(ctx, s, log, kv.KeyUsers, seed))

	d := NewUsers(s, log)
	require.NoError(t, d.Bootstrap(ctx))

	one, err := d.FindByID(ctx, "u-1")
	require.NoError(t, err)
	require.NotNil(t, one)
	assert.Equal(t, domain.RoleUser, one.Role, "missing role defaults to user")

	adm, err := d.FindByID(ctx, "u-2")
	require.NoError(t, err)
	require.NotNil(t, adm)
	assert.Equal(t, domain.RoleAdmin, adm.Role, "default admin address is forced back to admin")

	// The pre-existing record satisfies the admin check; no extra seed row.
	list, err := d.List(ctx)
	require.NoError(t, err)
	assert.Len(t, list, 2)
}

func TestCreateRejectsDuplicateEmail(t *testing.T) {
	t.Parallel()
	ctx := context.Background()
	d, _ := newUsers(t)

	_, err := d.Create(ctx, "Ana", "ana@example.com", "pw", domain.RoleUser)
	require.NoError(t, err)

	// Case and whitespace do not dodge the check.
	_, err = d.Create(ctx, "Other", "  ANA@Example.COM ", "pw2", domain.RoleUser)
	assert.ErrorIs(t, err, domain.ErrDuplicateEmail)
}

func TestCreateDefaultsRoleToAdmin(t *testing.T) {
	t.Parallel()
	ctx := context.Background()
	d, _ := newUsers(t)

	u, err := d.Create(ctx, "Ana", "ana@example.com", "pw", "")
	require.NoError(t, err)
	assert.Equal(t, domain.RoleAdmin, u.Role)
	assert.NotEmpty(t, u.ID)
	assert.Equal(t, "ana@example.com", u.Email)
}

func TestFindByEmailNormalizes(t *testing.T) {
	t.Parallel()
	ctx := context.Background()
	d, _ := newUsers(t)

	created, err := d.Create(ctx, "Ana", "Ana@Example.com", "pw", domain.RoleUser)
	require.NoError(t, err)

	u, err := d.FindByEmail(ctx, " ana@EXAMPLE.com ")
	require.NoError(t, err)
	require.NotNil(t, u)
	assert.Equal(t, created.ID, u.ID)

	missing, err := d.FindByEmail(ctx, "nobody@example.com")
	require.NoError(t, err)
	assert.Nil(t, missing)
}

func TestNilStoreIsUnavailable(t *testing.T) {
	t.Parallel()
	ctx := context.Background()
	d := NewUsers(nil, zap.NewNop())

	assert.ErrorIs(t, d.Bootstrap(ctx), domain.ErrStorageUnavailable)
	_, err := d.Create(ctx, "n", "e@example.com", "p", domain.RoleUser)
	assert.ErrorIs(t, err, domain.ErrStorageUnavailable)
	_, err = d.List(ctx)
	assert.ErrorIs(t, err, domain.ErrStorageUnavailable)
}
