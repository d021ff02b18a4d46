package auth

import (
	"errors"
	"fmt"
	"time"
)

var (
	// ErrProfileNotFound is returned when no profile row exists for a user.
	ErrProfileNotFound = errors.New("profile not found")
	// ErrProfileExists is returned by inserts that lost the race to another writer.
	ErrProfileExists = errors.New("profile already exists")
	// ErrSessionNotFound is returned when a session does not exist or has expired.
	ErrSessionNotFound = errors.New("session not found")
)

// Identity represents the authenticated principal returned by an IdP.
// Adapters map provider-specific claims into this shape.
type Identity struct {
	UserID    string // stable user identifier (sub)
	FirstName string
	LastName  string
	Email     string
	ExpiresAt time.Time // absolute expiry from IdP token
}

// Session is the server-side record we persist for an authenticated user.
// ID is an opaque session identifier (e.g., random URL-safe string).
type Session struct {
	ID        string    `json:"id"`
	UserID    string    `json:"user_id"`
	FirstName string    `json:"first_name"`
	LastName  string    `json:"last_name"`
	Email     string    `json:"email"`
	IssuedAt  time.Time `json:"issued_at"`
	ExpiresAt time.Time `json:"expires_at"`
}

// Expired reports whether the session is past its expiry at now.
func (s Session) Expired(now time.Time) bool { return now.After(s.ExpiresAt) }

// User is the backend identity attached to a session.
type User struct {
	ID    string `json:"id"`
	Email string `json:"email"`
}

// UserOf returns the user carried by a session.
func UserOf(s Session) User { return User{ID: s.UserID, Email: s.Email} }

// ApprovalStatus is the onboarding workflow flag on a profile.
type ApprovalStatus string

const (
	ApprovalPending  ApprovalStatus = "pending"
	ApprovalApproved ApprovalStatus = "approved"
	ApprovalRejected ApprovalStatus = "rejected"
)

// ParseApprovalStatus validates a raw approval status.
func ParseApprovalStatus(s string) (ApprovalStatus, error) {
	switch ApprovalStatus(s) {
	case ApprovalPending, ApprovalApproved, ApprovalRejected:
		return ApprovalStatus(s), nil
	default:
		return "", fmt.Errorf("invalid approval status: %q (valid options: pending, approved, rejected)", s)
	}
}

// Profile is the application-level user record keyed by user id.
type Profile struct {
	UserID                   string          `json:"user_id"`
	Email                    string          `json:"email"`
	Role                     string          `json:"role"`
	Department               *string         `json:"department"`
	DepartmentSpecialization *string         `json:"department_specialization"`
	ApprovalStatus           *ApprovalStatus `json:"approval_status"`
	CreatedAt                time.Time       `json:"created_at"`
	UpdatedAt                time.Time       `json:"updated_at"`
}

// EffectiveApprovalStatus returns the stored status, or pending when null.
func (p Profile) EffectiveApprovalStatus() ApprovalStatus {
	if p.ApprovalStatus == nil || *p.ApprovalStatus == "" {
		return ApprovalPending
	}
	return *p.ApprovalStatus
}

// DefaultProfile is the row created lazily on a user's first session.
func DefaultProfile(userID, email string) Profile {
	status := ApprovalPending
	return Profile{
		UserID:         userID,
		Email:          email,
		Role:           string(RoleTenantUser),
		ApprovalStatus: &status,
	}
}

// ProfileFailurePolicy decides what is published when a profile cannot be read or created.
type ProfileFailurePolicy string

const (
	// PolicyFailOpen publishes the least-privileged working state (tenant_user, pending).
	PolicyFailOpen ProfileFailurePolicy = "fail_open"
	// PolicyFailClosed publishes an authenticated state with no role and no capabilities.
	PolicyFailClosed ProfileFailurePolicy = "fail_closed"
)

// UnmarshalText implements encoding.TextUnmarshaler for ProfileFailurePolicy.
func (p *ProfileFailurePolicy) UnmarshalText(text []byte) error {
	switch v := ProfileFailurePolicy(text); v {
	case PolicyFailOpen, PolicyFailClosed:
		*p = v
		return nil
	default:
		return fmt.Errorf("invalid ProfileFailurePolicy: %q (valid options: fail_open, fail_closed)", string(text))
	}
}
