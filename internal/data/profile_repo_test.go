package data

import (
	"context"
	"database/sql"
	"errors"
	"regexp"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/jackc/pgerrcode"
	"github.com/jackc/pgx/v5/pgconn"
	domainauth "github.com/ssplaza/plaza-api/internal/domain/auth"
	apperrors "github.com/ssplaza/plaza-api/internal/errors"
	"github.com/ssplaza/plaza-api/internal/ports"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var repoNow = time.Date(2025, 3, 1, 9, 0, 0, 0, time.UTC)

func newProfileRepoMock(t *testing.T) (*ProfileRepo, sqlmock.Sqlmock) {
	t.Helper()
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	t.Cleanup(func() { _ = db.Close() })
	return NewProfileRepoWithTimeProvider(db, NewFixedTimeProvider(repoNow)), mock
}

func profileRows() *sqlmock.Rows {
	return sqlmock.NewRows(profileColumnList)
}

func TestProfileRepo_GetByUserID(t *testing.T) {
	repo, mock := newProfileRepoMock(t)

	mock.ExpectQuery(regexp.QuoteMeta(profileGetQuery)).WithArgs("u1").WillReturnRows(
		profileRows().AddRow("u1", "u1@example.com", "ops_supervisor", "facilities", nil, "approved", repoNow, repoNow),
	)

	p, err := repo.GetByUserID(context.Background(), "u1")
	require.NoError(t, err)
	assert.Equal(t, "ops_supervisor", p.Role)
	require.NotNil(t, p.Department)
	assert.Equal(t, "facilities", *p.Department)
	assert.Nil(t, p.DepartmentSpecialization)
	assert.Equal(t, domainauth.ApprovalApproved, p.EffectiveApprovalStatus())
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestProfileRepo_GetByUserID_NotFound(t *testing.T) {
	repo, mock := newProfileRepoMock(t)
	mock.ExpectQuery(regexp.QuoteMeta(profileGetQuery)).WithArgs("missing").WillReturnError(sql.ErrNoRows)

	_, err := repo.GetByUserID(context.Background(), "missing")
	assert.ErrorIs(t, err, domainauth.ErrProfileNotFound)
}

func TestProfileRepo_GetByUserID_NullStatus(t *testing.T) {
	repo, mock := newProfileRepoMock(t)
	mock.ExpectQuery(regexp.QuoteMeta(profileGetQuery)).WithArgs("u1").WillReturnRows(
		profileRows().AddRow("u1", "", "vendor", nil, nil, nil, repoNow, repoNow),
	)

	p, err := repo.GetByUserID(context.Background(), "u1")
	require.NoError(t, err)
	assert.Nil(t, p.ApprovalStatus)
	assert.Equal(t, domainauth.ApprovalPending, p.EffectiveApprovalStatus())
}

func TestProfileRepo_GetByUserID_Timeout(t *testing.T) {
	repo, mock := newProfileRepoMock(t)
	mock.ExpectQuery(regexp.QuoteMeta(profileGetQuery)).WillReturnError(context.DeadlineExceeded)

	_, err := repo.GetByUserID(context.Background(), "u1")
	require.Error(t, err)
	assert.True(t, apperrors.IsTimeout(err))
	assert.NotErrorIs(t, err, domainauth.ErrProfileNotFound)
}

func TestProfileRepo_InsertDefault(t *testing.T) {
	repo, mock := newProfileRepoMock(t)

	mock.ExpectQuery(regexp.QuoteMeta("INSERT INTO profiles")).
		WithArgs("u1", "u1@example.com", "tenant_user", sqlmock.AnyArg(), sqlmock.AnyArg(), "pending", repoNow).
		WillReturnRows(profileRows().AddRow("u1", "u1@example.com", "tenant_user", nil, nil, "pending", repoNow, repoNow))

	p, err := repo.Insert(context.Background(), domainauth.DefaultProfile("u1", "u1@example.com"))
	require.NoError(t, err)
	assert.Equal(t, "tenant_user", p.Role)
	assert.Equal(t, repoNow, p.CreatedAt)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestProfileRepo_InsertLosesRace(t *testing.T) {
	repo, mock := newProfileRepoMock(t)

	// ON CONFLICT DO NOTHING returns no row.
	mock.ExpectQuery(regexp.QuoteMeta("INSERT INTO profiles")).WillReturnRows(profileRows())

	p, err := repo.Insert(context.Background(), domainauth.DefaultProfile("u1", "u1@example.com"))
	assert.Nil(t, p)
	assert.ErrorIs(t, err, domainauth.ErrProfileExists)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestProfileRepo_InsertValidation(t *testing.T) {
	repo, _ := newProfileRepoMock(t)
	_, err := repo.Insert(context.Background(), domainauth.Profile{})
	assert.True(t, apperrors.IsValidation(err))
}

func TestProfileRepo_List(t *testing.T) {
	repo, mock := newProfileRepoMock(t)
	pending := domainauth.ApprovalPending

	mock.ExpectQuery(regexp.QuoteMeta(`FROM "profiles" WHERE "approval_status" = $1 ORDER BY "created_at" ASC LIMIT $2 OFFSET $3`)).
		WithArgs("pending", 50, 0).
		WillReturnRows(profileRows().
			AddRow("u1", "a@example.com", "tenant_user", nil, nil, "pending", repoNow, repoNow).
			AddRow("u2", "b@example.com", "tenant_user", nil, nil, "pending", repoNow, repoNow))

	out, err := repo.List(context.Background(), ports.ProfileListOptions{Status: &pending, Limit: 50, Offset: 0})
	require.NoError(t, err)
	require.Len(t, out, 2)
	assert.Equal(t, "u2", out[1].UserID)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestProfileRepo_SetApprovalStatus(t *testing.T) {
	repo, mock := newProfileRepoMock(t)

	mock.ExpectBegin()
	mock.ExpectQuery(regexp.QuoteMeta(profileLockQuery)).WithArgs("u1").
		WillReturnRows(sqlmock.NewRows([]string{"role", "approval_status"}).AddRow("tenant_user", "pending"))
	mock.ExpectQuery(regexp.QuoteMeta("UPDATE profiles SET approval_status")).WithArgs("u1", "approved", repoNow).
		WillReturnRows(profileRows().AddRow("u1", "u1@example.com", "tenant_user", nil, nil, "approved", repoNow, repoNow))
	mock.ExpectExec(regexp.QuoteMeta("INSERT INTO profile_audit")).
		WithArgs("u1", "admin-1", "approval_status", "pending", "approved", nil, repoNow).
		WillReturnResult(sqlmock.NewResult(1, 1))
	mock.ExpectCommit()

	p, err := repo.SetApprovalStatus(context.Background(), ports.ProfileChange{
		UserID: "u1", Actor: "admin-1", Status: domainauth.ApprovalApproved,
	})
	require.NoError(t, err)
	assert.Equal(t, domainauth.ApprovalApproved, p.EffectiveApprovalStatus())
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestProfileRepo_SetRole_RecordsReasonAndOldRole(t *testing.T) {
	repo, mock := newProfileRepoMock(t)

	mock.ExpectBegin()
	mock.ExpectQuery(regexp.QuoteMeta(profileLockQuery)).WithArgs("u1").
		WillReturnRows(sqlmock.NewRows([]string{"role", "approval_status"}).AddRow("tenant_user", nil))
	mock.ExpectQuery(regexp.QuoteMeta("UPDATE profiles SET role")).WithArgs("u1", "vendor", repoNow).
		WillReturnRows(profileRows().AddRow("u1", "u1@example.com", "vendor", nil, nil, nil, repoNow, repoNow))
	mock.ExpectExec(regexp.QuoteMeta("INSERT INTO profile_audit")).
		WithArgs("u1", "admin-1", "role", "tenant_user", "vendor", "contract signed", repoNow).
		WillReturnResult(sqlmock.NewResult(1, 1))
	mock.ExpectCommit()

	p, err := repo.SetRole(context.Background(), ports.ProfileChange{
		UserID: "u1", Actor: "admin-1", Role: domainauth.RoleVendor, Reason: "contract signed",
	})
	require.NoError(t, err)
	assert.Equal(t, "vendor", p.Role)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestProfileRepo_ChangeMissingProfileRollsBack(t *testing.T) {
	repo, mock := newProfileRepoMock(t)

	mock.ExpectBegin()
	mock.ExpectQuery(regexp.QuoteMeta(profileLockQuery)).WithArgs("ghost").WillReturnError(sql.ErrNoRows)
	mock.ExpectRollback()

	_, err := repo.SetRole(context.Background(), ports.ProfileChange{UserID: "ghost", Actor: "a", Role: domainauth.RoleAdmin})
	assert.ErrorIs(t, err, domainauth.ErrProfileNotFound)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestProfileRepo_AuditFailureRollsBack(t *testing.T) {
	repo, mock := newProfileRepoMock(t)

	mock.ExpectBegin()
	mock.ExpectQuery(regexp.QuoteMeta(profileLockQuery)).
		WillReturnRows(sqlmock.NewRows([]string{"role", "approval_status"}).AddRow("tenant_user", "pending"))
	mock.ExpectQuery(regexp.QuoteMeta("UPDATE profiles SET approval_status")).
		WillReturnRows(profileRows().AddRow("u1", "", "tenant_user", nil, nil, "rejected", repoNow, repoNow))
	mock.ExpectExec(regexp.QuoteMeta("INSERT INTO profile_audit")).
		WillReturnError(&pgconn.PgError{Code: pgerrcode.NotNullViolation, ColumnName: "actor"})
	mock.ExpectRollback()

	_, err := repo.SetApprovalStatus(context.Background(), ports.ProfileChange{
		UserID: "u1", Actor: "admin-1", Status: domainauth.ApprovalRejected,
	})
	require.Error(t, err)
	assert.Equal(t, "actor", apperrors.GetField(err))
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestProfileRepo_ChangeValidation(t *testing.T) {
	repo, _ := newProfileRepoMock(t)
	ctx := context.Background()

	_, err := repo.SetApprovalStatus(ctx, ports.ProfileChange{UserID: "u1", Actor: "a", Status: "maybe"})
	assert.True(t, apperrors.IsValidation(err))

	_, err = repo.SetRole(ctx, ports.ProfileChange{UserID: "u1", Actor: "a", Role: "superuser"})
	assert.True(t, apperrors.IsValidation(err))

	_, err = repo.SetRole(ctx, ports.ProfileChange{UserID: "u1", Role: domainauth.RoleAdmin})
	assert.Equal(t, "actor", apperrors.GetField(err))

	_, err = repo.SetRole(ctx, ports.ProfileChange{Actor: "a", Role: domainauth.RoleAdmin})
	assert.False(t, errors.Is(err, domainauth.ErrProfileNotFound))
}
