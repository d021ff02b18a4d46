package service

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	domainauth "github.com/ssplaza/plaza-api/internal/domain/auth"
	apperrors "github.com/ssplaza/plaza-api/internal/errors"
	"github.com/ssplaza/plaza-api/internal/ports"
)

// UserUpdatePublisher announces that a user's profile changed.
type UserUpdatePublisher interface {
	PublishUserUpdated(ctx context.Context, userID string) error
}

// ProfileServiceOptions groups dependencies for ProfileService.
type ProfileServiceOptions struct {
	Repo      ports.ProfileRepository
	Publisher UserUpdatePublisher // Optional: without it sessions pick changes up on their next probe
	Logger    *slog.Logger        // Optional: structured logger
}

// ProfileService implements the admin mutations on profiles.
type ProfileService struct {
	repo      ports.ProfileRepository
	publisher UserUpdatePublisher
	logger    *slog.Logger
}

// ErrInvalidRole is returned when a role change names a role outside the table.
var ErrInvalidRole = errors.New("invalid role")

// NewProfileService constructs a new ProfileService.
func NewProfileService(opts ProfileServiceOptions) *ProfileService {
	logger := opts.Logger
	if logger == nil {
		logger = slog.Default()
	}
	return &ProfileService{
		repo:      opts.Repo,
		publisher: opts.Publisher,
		logger:    logger.With("component", "profile_service"),
	}
}

// Get returns one profile.
func (s *ProfileService) Get(ctx context.Context, userID string) (*domainauth.Profile, error) {
	if userID == "" {
		return nil, apperrors.ValidationField("user_id", "user ID is required")
	}
	p, err := s.repo.GetByUserID(ctx, userID)
	if err != nil {
		return nil, fmt.Errorf("get profile: %w", err)
	}
	return p, nil
}

// ListByStatus lists profiles, optionally filtered by approval status.
func (s *ProfileService) ListByStatus(
	ctx context.Context,
	status *domainauth.ApprovalStatus,
	limit, offset int,
) ([]*domainauth.Profile, error) {
	opts := ports.ProfileListOptions{Status: status, Limit: limit, Offset: offset}.Normalized()
	out, err := s.repo.List(ctx, opts)
	if err != nil {
		return nil, fmt.Errorf("list profiles: %w", err)
	}
	return out, nil
}

// Approve marks a profile approved.
func (s *ProfileService) Approve(ctx context.Context, userID, actor string) (*domainauth.Profile, error) {
	return s.setStatus(ctx, ports.ProfileChange{UserID: userID, Actor: actor, Status: domainauth.ApprovalApproved})
}

// Reject marks a profile rejected with an optional reason.
func (s *ProfileService) Reject(ctx context.Context, userID, actor, reason string) (*domainauth.Profile, error) {
	return s.setStatus(ctx, ports.ProfileChange{
		UserID: userID,
		Actor:  actor,
		Reason: reason,
		Status: domainauth.ApprovalRejected,
	})
}

func (s *ProfileService) setStatus(ctx context.Context, in ports.ProfileChange) (*domainauth.Profile, error) {
	if in.UserID == "" {
		return nil, apperrors.ValidationField("user_id", "user ID is required")
	}
	p, err := s.repo.SetApprovalStatus(ctx, in)
	if err != nil {
		return nil, fmt.Errorf("set approval status: %w", err)
	}
	s.logger.InfoContext(ctx, "profile approval changed",
		"user_id", in.UserID,
		"status", string(in.Status),
		"actor", in.Actor,
	)
	s.announce(ctx, in.UserID)
	return p, nil
}

// ChangeRole sets a new role. The role must be one of the known roles.
func (s *ProfileService) ChangeRole(ctx context.Context, userID, actor, role string) (*domainauth.Profile, error) {
	if userID == "" {
		return nil, apperrors.ValidationField("user_id", "user ID is required")
	}
	parsed := domainauth.NormalizeRoleInput(role)
	if !parsed.IsKnown() {
		return nil, fmt.Errorf("%w: %q", ErrInvalidRole, role)
	}

	p, err := s.repo.SetRole(ctx, ports.ProfileChange{UserID: userID, Actor: actor, Role: parsed})
	if err != nil {
		return nil, fmt.Errorf("set role: %w", err)
	}
	s.logger.InfoContext(ctx, "profile role changed",
		"user_id", userID,
		"role", parsed.String(),
		"actor", actor,
	)
	s.announce(ctx, userID)
	return p, nil
}

// announce is best effort: the write already committed.
func (s *ProfileService) announce(ctx context.Context, userID string) {
	if s.publisher == nil {
		return
	}
	if err := s.publisher.PublishUserUpdated(ctx, userID); err != nil {
		s.logger.WarnContext(ctx, "publish user updated failed", "user_id", userID, "error", err)
	}
}
