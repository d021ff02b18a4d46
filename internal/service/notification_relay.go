package service

import (
	"context"
	"log/slog"

	"github.com/google/uuid"
	domainauth "github.com/ssplaza/plaza-api/internal/domain/auth"
	"github.com/ssplaza/plaza-api/internal/observability/metrics"
	"github.com/ssplaza/plaza-api/internal/ports"
)

// User-facing messages queued for auth transitions.
const (
	MessageWelcomeBack    = "Welcome back!"
	MessageSignedOut      = "You have been signed out."
	MessageSignOutFailed  = "Sign out failed. Please try again."
	defaultRelayBufferLen = 64
)

// TransitionSource is the subscription side of a SessionManager.
type TransitionSource interface {
	Subscribe(buffer int) (<-chan domainauth.Transition, func())
}

// NotificationRelayOptions configures a NotificationRelay.
type NotificationRelayOptions struct {
	Source  TransitionSource
	Flash   ports.FlashStore
	Metrics *metrics.Metrics // Optional
	Logger  *slog.Logger     // Optional: structured logger
	Buffer  int
}

// NotificationRelay listens to session manager transitions and decides which
// ones become user-facing flash messages.
type NotificationRelay struct {
	source  TransitionSource
	flash   ports.FlashStore
	metrics *metrics.Metrics
	logger  *slog.Logger
	buffer  int
}

// NewNotificationRelay constructs a NotificationRelay.
func NewNotificationRelay(opts NotificationRelayOptions) *NotificationRelay {
	logger := opts.Logger
	if logger == nil {
		logger = slog.Default()
	}
	buffer := opts.Buffer
	if buffer <= 0 {
		buffer = defaultRelayBufferLen
	}
	return &NotificationRelay{
		source:  opts.Source,
		flash:   opts.Flash,
		metrics: opts.Metrics,
		logger:  logger.With("component", "notification_relay"),
		buffer:  buffer,
	}
}

// Run consumes transitions until ctx ends or the source closes the channel.
func (r *NotificationRelay) Run(ctx context.Context) error {
	transitions, cancel := r.source.Subscribe(r.buffer)
	defer cancel()

	for {
		select {
		case <-ctx.Done():
			return nil
		case t, ok := <-transitions:
			if !ok {
				return nil
			}
			r.Handle(ctx, t)
		}
	}
}

// Handle queues the message for one transition, if any.
func (r *NotificationRelay) Handle(ctx context.Context, t domainauth.Transition) {
	n, ok := MessageFor(t)
	if !ok || t.SessionID == "" {
		return
	}
	if err := r.flash.Push(ctx, t.SessionID, n); err != nil {
		r.logger.WarnContext(ctx, "queue notification failed",
			"session_id", t.SessionID,
			"kind", string(t.Kind),
			"error", err,
		)
		return
	}
	r.metrics.RecordNotification(string(n.Level))
}

// MessageFor maps a transition to its user-facing notification.
// resolution_failed has no user message.
func MessageFor(t domainauth.Transition) (domainauth.Notification, bool) {
	n := domainauth.Notification{ID: notificationID(t), CreatedAt: t.At}
	switch t.Kind {
	case domainauth.TransitionSignedIn:
		n.Level, n.Message = domainauth.NotificationSuccess, MessageWelcomeBack
	case domainauth.TransitionSignedOut:
		n.Level, n.Message = domainauth.NotificationInfo, MessageSignedOut
	case domainauth.TransitionSignOutFailed:
		n.Level, n.Message = domainauth.NotificationError, MessageSignOutFailed
	default:
		return domainauth.Notification{}, false
	}
	return n, true
}

// notificationID is stable per originating event so several instances
// relaying the same event queue one message.
func notificationID(t domainauth.Transition) string {
	if t.EventID == "" {
		return uuid.New().String()
	}
	return string(t.Kind) + ":" + t.EventID
}
