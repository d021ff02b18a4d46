package data

import (
	"context"
	"testing"

	domainauth "github.com/ssplaza/plaza-api/internal/domain/auth"
	"github.com/ssplaza/plaza-api/internal/ports"
	"github.com/ssplaza/plaza-api/internal/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestProfileRepo_Integration_InsertIsIdempotent(t *testing.T) {
	db := testutil.SetupAutoDB(t)
	repo := NewProfileRepoWithTimeProvider(db, NewFixedTimeProvider(testutil.TestTime()))
	ctx := context.Background()

	first, err := repo.Insert(ctx, testutil.NewProfile("user-1").Build())
	require.NoError(t, err)
	assert.Equal(t, string(domainauth.RoleTenantUser), first.Role)
	assert.Equal(t, domainauth.ApprovalPending, first.EffectiveApprovalStatus())

	_, err = repo.Insert(ctx, testutil.NewProfile("user-1").WithRole("admin").Build())
	require.ErrorIs(t, err, domainauth.ErrProfileExists)

	stored, err := repo.GetByUserID(ctx, "user-1")
	require.NoError(t, err)
	assert.Equal(t, string(domainauth.RoleTenantUser), stored.Role, "existing row wins")

	_, err = repo.GetByUserID(ctx, "missing")
	require.ErrorIs(t, err, domainauth.ErrProfileNotFound)
}

func TestProfileRepo_Integration_ChangesAreAudited(t *testing.T) {
	db := testutil.SetupAutoDB(t)
	clock := NewFixedTimeProvider(testutil.TestTime())
	repo := NewProfileRepoWithTimeProvider(db, clock)
	ctx := context.Background()

	spec := "hvac"
	_, err := repo.Insert(ctx, testutil.NewProfile("user-2").WithDepartment("maintenance", &spec).Build())
	require.NoError(t, err)

	clock.Advance(1)
	p, err := repo.SetApprovalStatus(ctx, ports.ProfileChange{
		UserID: "user-2", Actor: "ops", Status: domainauth.ApprovalApproved,
	})
	require.NoError(t, err)
	assert.Equal(t, domainauth.ApprovalApproved, p.EffectiveApprovalStatus())
	require.NotNil(t, p.DepartmentSpecialization)
	assert.Equal(t, "hvac", *p.DepartmentSpecialization)

	p, err = repo.SetRole(ctx, ports.ProfileChange{UserID: "user-2", Actor: "ops", Role: domainauth.RoleFieldStaff})
	require.NoError(t, err)
	assert.Equal(t, "field_staff", p.Role)

	var audits int
	require.NoError(t, db.QueryRowContext(ctx,
		`SELECT COUNT(*) FROM profile_audit WHERE user_id = $1`, "user-2").Scan(&audits))
	assert.Equal(t, 2, audits)

	_, err = repo.SetRole(ctx, ports.ProfileChange{UserID: "nobody", Actor: "ops", Role: domainauth.RoleVendor})
	require.ErrorIs(t, err, domainauth.ErrProfileNotFound)
}

func TestProfileRepo_Integration_ListFiltersByStatus(t *testing.T) {
	db := testutil.SetupAutoDB(t)
	repo := NewProfileRepo(db)
	ctx := context.Background()

	_, err := repo.Insert(ctx, testutil.NewProfile("pending-1").Build())
	require.NoError(t, err)
	_, err = repo.Insert(ctx, testutil.NewProfile("approved-1").Approved().Build())
	require.NoError(t, err)

	pending := domainauth.ApprovalPending
	got, err := repo.List(ctx, ports.ProfileListOptions{Status: &pending, Limit: 10})
	require.NoError(t, err)
	require.Len(t, got, 1)
	assert.Equal(t, "pending-1", got[0].UserID)

	all, err := repo.List(ctx, ports.ProfileListOptions{Limit: 10})
	require.NoError(t, err)
	assert.Len(t, all, 2)
}
