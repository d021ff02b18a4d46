package data

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/ssplaza/plaza-api/internal/data/database"
	"github.com/ssplaza/plaza-api/internal/data/dbutil"
	domainauth "github.com/ssplaza/plaza-api/internal/domain/auth"
	apperrors "github.com/ssplaza/plaza-api/internal/errors"
	"github.com/ssplaza/plaza-api/internal/ports"
)

const profileColumns = `user_id, email, role, department, department_specialization, approval_status, created_at, updated_at`

var profileColumnList = []string{
	"user_id", "email", "role", "department", "department_specialization",
	"approval_status", "created_at", "updated_at",
}

const (
	profileGetQuery = `SELECT ` + profileColumns + ` FROM profiles WHERE user_id = $1`

	profileInsertQuery = `
		INSERT INTO profiles (user_id, email, role, department, department_specialization, approval_status, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $7)
		ON CONFLICT (user_id) DO NOTHING
		RETURNING ` + profileColumns

	profileLockQuery = `SELECT role, approval_status FROM profiles WHERE user_id = $1 FOR UPDATE`

	profileSetStatusQuery = `
		UPDATE profiles SET approval_status = $2, updated_at = $3
		WHERE user_id = $1
		RETURNING ` + profileColumns

	profileSetRoleQuery = `
		UPDATE profiles SET role = $2, updated_at = $3
		WHERE user_id = $1
		RETURNING ` + profileColumns

	profileAuditInsertQuery = `
		INSERT INTO profile_audit (user_id, actor, field, old_value, new_value, reason, created_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7)`
)

// ProfileRepo provides database operations for profiles.
type ProfileRepo struct {
	DB           *sql.DB
	timeProvider TimeProvider
}

var _ ports.ProfileRepository = (*ProfileRepo)(nil)

// NewProfileRepo creates a new ProfileRepo with the real clock.
func NewProfileRepo(db *sql.DB) *ProfileRepo {
	return &ProfileRepo{DB: db, timeProvider: RealTimeProvider{}}
}

// NewProfileRepoWithTimeProvider creates a ProfileRepo with a custom clock (useful for tests).
func NewProfileRepoWithTimeProvider(db *sql.DB, tp TimeProvider) *ProfileRepo {
	return &ProfileRepo{DB: db, timeProvider: tp}
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanProfile(row rowScanner) (*domainauth.Profile, error) {
	var (
		p              domainauth.Profile
		dept, spec     sql.NullString
		approvalStatus sql.NullString
	)
	if err := row.Scan(
		&p.UserID, &p.Email, &p.Role, &dept, &spec, &approvalStatus, &p.CreatedAt, &p.UpdatedAt,
	); err != nil {
		return nil, err
	}
	if dept.Valid {
		p.Department = &dept.String
	}
	if spec.Valid {
		p.DepartmentSpecialization = &spec.String
	}
	if approvalStatus.Valid {
		s := domainauth.ApprovalStatus(approvalStatus.String)
		p.ApprovalStatus = &s
	}
	return &p, nil
}

// GetByUserID returns the profile or domainauth.ErrProfileNotFound.
func (r *ProfileRepo) GetByUserID(ctx context.Context, userID string) (*domainauth.Profile, error) {
	p, err := scanProfile(r.DB.QueryRowContext(ctx, profileGetQuery, userID))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, domainauth.ErrProfileNotFound
		}
		return nil, fmt.Errorf("get profile: %w", apperrors.MapDBError(err))
	}
	return p, nil
}

// Insert creates the profile. When another writer created the row first it
// returns domainauth.ErrProfileExists and leaves that row untouched.
func (r *ProfileRepo) Insert(ctx context.Context, in domainauth.Profile) (*domainauth.Profile, error) {
	if in.UserID == "" {
		return nil, apperrors.ValidationField("user_id", "user ID is required")
	}
	role := in.Role
	if role == "" {
		role = string(domainauth.RoleTenantUser)
	}
	var status any
	if in.ApprovalStatus != nil {
		status = string(*in.ApprovalStatus)
	}

	now := r.timeProvider.Now().UTC()
	p, err := scanProfile(r.DB.QueryRowContext(ctx, profileInsertQuery,
		in.UserID, in.Email, role, nullable(in.Department), nullable(in.DepartmentSpecialization), status, now,
	))
	if errors.Is(err, sql.ErrNoRows) {
		return nil, domainauth.ErrProfileExists
	}
	if err != nil {
		return nil, fmt.Errorf("insert profile: %w", apperrors.MapDBError(err))
	}
	return p, nil
}

// List returns profiles oldest first, optionally filtered by approval status.
func (r *ProfileRepo) List(ctx context.Context, opts ports.ProfileListOptions) ([]*domainauth.Profile, error) {
	queryOpts := []database.ListQueryOption{
		database.WithColumns(profileColumnList...),
		database.WithOrderBy("created_at", "ASC"),
		database.WithLimit(opts.Limit),
		database.WithOffset(opts.Offset),
	}
	if opts.Status != nil {
		queryOpts = append(queryOpts,
			database.WithCondition(database.WhereCond("approval_status", database.Equal, string(*opts.Status))))
	}
	query, args := database.BuildListQuery(database.NewListQueryOptions("profiles", queryOpts...))

	rows, err := r.DB.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("list profiles: %w", apperrors.MapDBError(err))
	}
	defer rows.Close()

	var out []*domainauth.Profile
	for rows.Next() {
		p, scanErr := scanProfile(rows)
		if scanErr != nil {
			return nil, fmt.Errorf("scan profile: %w", scanErr)
		}
		out = append(out, p)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("list profiles: %w", apperrors.MapDBError(err))
	}
	return out, nil
}

// SetApprovalStatus updates the approval status and records an audit row.
func (r *ProfileRepo) SetApprovalStatus(ctx context.Context, in ports.ProfileChange) (*domainauth.Profile, error) {
	if _, err := domainauth.ParseApprovalStatus(string(in.Status)); err != nil {
		return nil, apperrors.ValidationField("approval_status", err.Error())
	}
	return r.change(ctx, in, profileChange{
		field:    "approval_status",
		newValue: string(in.Status),
		query:    profileSetStatusQuery,
	})
}

// SetRole updates the role and records an audit row.
func (r *ProfileRepo) SetRole(ctx context.Context, in ports.ProfileChange) (*domainauth.Profile, error) {
	if !in.Role.IsKnown() {
		return nil, apperrors.ValidationField("role", fmt.Sprintf("unknown role %q", in.Role))
	}
	return r.change(ctx, in, profileChange{
		field:    "role",
		newValue: string(in.Role),
		query:    profileSetRoleQuery,
	})
}

type profileChange struct {
	field    string
	newValue string
	query    string
}

func (r *ProfileRepo) change(ctx context.Context, in ports.ProfileChange, c profileChange) (*domainauth.Profile, error) {
	if in.UserID == "" {
		return nil, apperrors.ValidationField("user_id", "user ID is required")
	}
	if in.Actor == "" {
		return nil, apperrors.ValidationField("actor", "actor is required")
	}

	now := r.timeProvider.Now().UTC()
	var out *domainauth.Profile
	err := dbutil.WithSQLTx(ctx, r.DB, nil, func(tx *sql.Tx) error {
		var oldRole string
		var oldStatus sql.NullString
		if err := tx.QueryRowContext(ctx, profileLockQuery, in.UserID).Scan(&oldRole, &oldStatus); err != nil {
			if errors.Is(err, sql.ErrNoRows) {
				return domainauth.ErrProfileNotFound
			}
			return apperrors.MapDBError(err)
		}
		oldValue := sql.NullString{String: oldRole, Valid: true}
		if c.field == "approval_status" {
			oldValue = oldStatus
		}

		p, err := scanProfile(tx.QueryRowContext(ctx, c.query, in.UserID, c.newValue, now))
		if err != nil {
			return apperrors.MapDBError(err)
		}
		if _, err := tx.ExecContext(ctx, profileAuditInsertQuery,
			in.UserID, in.Actor, c.field, oldValue, c.newValue, nullableString(in.Reason), now,
		); err != nil {
			return apperrors.MapDBError(err)
		}
		out = p
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("update profile %s: %w", c.field, err)
	}
	return out, nil
}

func nullable(s *string) sql.NullString {
	if s == nil {
		return sql.NullString{}
	}
	return sql.NullString{String: *s, Valid: true}
}

func nullableString(s string) sql.NullString {
	return sql.NullString{String: s, Valid: s != ""}
}
