package ports

import (
	"context"

	domainauth "github.com/ssplaza/plaza-api/internal/domain/auth"
)

// ProfileRepository reads and writes the profiles table.
type ProfileRepository interface {
	// GetByUserID returns domainauth.ErrProfileNotFound when no row exists.
	GetByUserID(ctx context.Context, userID string) (*domainauth.Profile, error)
	// Insert creates a profile row and returns the stored record, or
	// domainauth.ErrProfileExists when the user already has one.
	Insert(ctx context.Context, p domainauth.Profile) (*domainauth.Profile, error)
	List(ctx context.Context, opts ProfileListOptions) ([]*domainauth.Profile, error)
	// SetApprovalStatus updates the status and appends an audit row in one transaction.
	SetApprovalStatus(ctx context.Context, in ProfileChange) (*domainauth.Profile, error)
	// SetRole updates the role and appends an audit row in one transaction.
	SetRole(ctx context.Context, in ProfileChange) (*domainauth.Profile, error)
}

// Page sizes for profile listings, shared by every caller.
const (
	DefaultProfileListLimit = 50
	MaxProfileListLimit     = 200
)

// ProfileListOptions filters profile listings.
type ProfileListOptions struct {
	Status *domainauth.ApprovalStatus
	Limit  int
	Offset int
}

// Normalized clamps Limit to [1, MaxProfileListLimit], defaulting a
// non-positive limit, and floors Offset at zero.
func (o ProfileListOptions) Normalized() ProfileListOptions {
	switch {
	case o.Limit <= 0:
		o.Limit = DefaultProfileListLimit
	case o.Limit > MaxProfileListLimit:
		o.Limit = MaxProfileListLimit
	}
	if o.Offset < 0 {
		o.Offset = 0
	}
	return o
}

// ProfileChange describes one admin mutation of a profile.
type ProfileChange struct {
	UserID string
	Actor  string
	Reason string
	Role   domainauth.Role
	Status domainauth.ApprovalStatus
}

// FlashStore holds short-lived user-facing messages per session.
type FlashStore interface {
	Push(ctx context.Context, sessionID string, n domainauth.Notification) error
	// Drain returns and removes all pending messages for the session, oldest first.
	Drain(ctx context.Context, sessionID string) ([]domainauth.Notification, error)
}

// ApprovalNotifier tells operators that a new profile is waiting for approval.
type ApprovalNotifier interface {
	NotifyPendingProfile(ctx context.Context, p domainauth.Profile) error
}
