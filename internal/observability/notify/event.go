package notify

import (
	"context"
	"errors"
	"fmt"
	"time"

	domainauth "github.com/ssplaza/plaza-api/internal/domain/auth"
	"github.com/ssplaza/plaza-api/internal/ports"
)

// PendingProfilePayload is what operators see when a new user waits for approval.
type PendingProfilePayload struct {
	UserID     string
	Email      string
	Role       string
	Department string
	OccurredAt time.Time
}

// PayloadFor builds the payload for a freshly created profile.
func PayloadFor(p domainauth.Profile) PendingProfilePayload {
	out := PendingProfilePayload{
		UserID:     p.UserID,
		Email:      p.Email,
		Role:       p.Role,
		OccurredAt: p.CreatedAt,
	}
	if p.Department != nil {
		out.Department = *p.Department
	}
	return out
}

// Sink describes a destination for pending-approval notifications.
type Sink interface {
	SendPendingProfile(ctx context.Context, payload PendingProfilePayload) error
}

// SinkFunc adapts a function to the Sink interface (useful for tests).
type SinkFunc func(ctx context.Context, payload PendingProfilePayload) error

// SendPendingProfile implements the Sink interface.
func (f SinkFunc) SendPendingProfile(ctx context.Context, payload PendingProfilePayload) error {
	if f == nil {
		return nil
	}
	return f(ctx, payload)
}

// Fanout delivers to every sink and reports all failures together.
type Fanout []Sink

var _ ports.ApprovalNotifier = Fanout(nil)

// NotifyPendingProfile implements ports.ApprovalNotifier.
func (f Fanout) NotifyPendingProfile(ctx context.Context, p domainauth.Profile) error {
	payload := PayloadFor(p)
	var errs []error
	for i, sink := range f {
		if sink == nil {
			continue
		}
		if err := sink.SendPendingProfile(ctx, payload); err != nil {
			errs = append(errs, fmt.Errorf("sink %d: %w", i, err))
		}
	}
	return errors.Join(errs...)
}
