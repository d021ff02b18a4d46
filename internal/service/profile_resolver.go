package service

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	domainauth "github.com/ssplaza/plaza-api/internal/domain/auth"
	"github.com/ssplaza/plaza-api/internal/observability/metrics"
	"github.com/ssplaza/plaza-api/internal/ports"
)

// ProfileResolverOptions configures a ProfileResolver.
type ProfileResolverOptions struct {
	Profiles ports.ProfileRepository
	Policy   domainauth.ProfileFailurePolicy // Optional: defaults to fail_open
	Notifier ports.ApprovalNotifier          // Optional: told about newly created pending profiles
	Metrics  *metrics.Metrics                // Optional
	Logger   *slog.Logger                    // Optional: structured logger

	// NotifyTimeout bounds the background approval notification.
	NotifyTimeout time.Duration
}

// Resolution is the outcome of resolving one session into a published state.
// Err is set when the profile could not be read or created and the failure
// policy decided the state.
type Resolution struct {
	State   domainauth.AuthState
	Outcome string
	Err     error
}

// ProfileResolver turns a session into an AuthState by reading, or lazily
// creating, the user's profile.
type ProfileResolver struct {
	profiles      ports.ProfileRepository
	policy        domainauth.ProfileFailurePolicy
	notifier      ports.ApprovalNotifier
	metrics       *metrics.Metrics
	logger        *slog.Logger
	notifyTimeout time.Duration
}

// NewProfileResolver constructs a ProfileResolver.
func NewProfileResolver(opts ProfileResolverOptions) *ProfileResolver {
	logger := opts.Logger
	if logger == nil {
		logger = slog.Default()
	}
	policy := opts.Policy
	if policy == "" {
		policy = domainauth.PolicyFailOpen
	}
	timeout := opts.NotifyTimeout
	if timeout <= 0 {
		timeout = 10 * time.Second
	}
	return &ProfileResolver{
		profiles:      opts.Profiles,
		policy:        policy,
		notifier:      opts.Notifier,
		metrics:       opts.Metrics,
		logger:        logger.With("component", "profile_resolver"),
		notifyTimeout: timeout,
	}
}

// Policy returns the configured failure policy.
func (r *ProfileResolver) Policy() domainauth.ProfileFailurePolicy { return r.policy }

// Resolve never fails: lookup and insert errors are logged and folded into the
// policy's fallback state.
func (r *ProfileResolver) Resolve(ctx context.Context, sess domainauth.Session) Resolution {
	profile, err := r.profiles.GetByUserID(ctx, sess.UserID)
	switch {
	case err == nil:
		r.metrics.RecordProfileResolution(metrics.OutcomeFound, nil)
		return Resolution{State: domainauth.StateForProfile(sess, *profile), Outcome: metrics.OutcomeFound}

	case errors.Is(err, domainauth.ErrProfileNotFound):
		return r.create(ctx, sess)

	default:
		r.logger.ErrorContext(ctx, "profile lookup failed",
			"user_id", sess.UserID,
			"policy", string(r.policy),
			"error", err,
		)
		r.metrics.RecordProfileResolution(metrics.OutcomeLookupFailed, err)
		return Resolution{
			State:   r.fallback(sess),
			Outcome: metrics.OutcomeLookupFailed,
			Err:     fmt.Errorf("get profile: %w", err),
		}
	}
}

func (r *ProfileResolver) create(ctx context.Context, sess domainauth.Session) Resolution {
	created, err := r.profiles.Insert(ctx, domainauth.DefaultProfile(sess.UserID, sess.Email))
	if errors.Is(err, domainauth.ErrProfileExists) {
		return r.found(ctx, sess)
	}
	if err != nil {
		r.logger.WarnContext(ctx, "profile create failed",
			"user_id", sess.UserID,
			"policy", string(r.policy),
			"error", err,
		)
		r.metrics.RecordProfileResolution(metrics.OutcomeCreateFailed, err)
		return Resolution{
			State:   r.fallback(sess),
			Outcome: metrics.OutcomeCreateFailed,
			Err:     fmt.Errorf("create profile: %w", err),
		}
	}

	r.metrics.RecordProfileResolution(metrics.OutcomeCreated, nil)
	r.logger.InfoContext(ctx, "profile created", "user_id", sess.UserID)
	r.notifyPending(ctx, *created)

	// The published state is the default row whatever the insert returned.
	return Resolution{State: domainauth.FallbackState(sess), Outcome: metrics.OutcomeCreated}
}

// found publishes the row another writer created between lookup and insert.
// The approval request was that writer's to send.
func (r *ProfileResolver) found(ctx context.Context, sess domainauth.Session) Resolution {
	profile, err := r.profiles.GetByUserID(ctx, sess.UserID)
	if err != nil {
		r.logger.ErrorContext(ctx, "profile lookup after insert race failed",
			"user_id", sess.UserID,
			"error", err,
		)
		r.metrics.RecordProfileResolution(metrics.OutcomeLookupFailed, err)
		return Resolution{
			State:   r.fallback(sess),
			Outcome: metrics.OutcomeLookupFailed,
			Err:     fmt.Errorf("get profile: %w", err),
		}
	}
	r.metrics.RecordProfileResolution(metrics.OutcomeFound, nil)
	return Resolution{State: domainauth.StateForProfile(sess, *profile), Outcome: metrics.OutcomeFound}
}

func (r *ProfileResolver) fallback(sess domainauth.Session) domainauth.AuthState {
	if r.policy == domainauth.PolicyFailClosed {
		return domainauth.RolelessState(sess)
	}
	return domainauth.FallbackState(sess)
}

func (r *ProfileResolver) notifyPending(ctx context.Context, p domainauth.Profile) {
	if r.notifier == nil {
		return
	}
	go func() {
		nctx, cancel := context.WithTimeout(context.WithoutCancel(ctx), r.notifyTimeout)
		defer cancel()
		if err := r.notifier.NotifyPendingProfile(nctx, p); err != nil {
			r.logger.WarnContext(nctx, "approval request notification failed",
				"user_id", p.UserID,
				"error", err,
			)
		}
	}()
}
