package auth

import "time"

// AuthEventType names a change published by the auth backend.
type AuthEventType string

const (
	EventSignedIn       AuthEventType = "SIGNED_IN"
	EventSignedOut      AuthEventType = "SIGNED_OUT"
	EventTokenRefreshed AuthEventType = "TOKEN_REFRESHED"
	EventUserUpdated    AuthEventType = "USER_UPDATED"
	EventInitialSession AuthEventType = "INITIAL_SESSION"
)

// AuthEvent is one entry on the backend auth-change stream.
// Session is set for SIGNED_IN, TOKEN_REFRESHED and INITIAL_SESSION.
// UserUpdated events carry only UserID.
type AuthEvent struct {
	ID         string        `json:"id"`
	Type       AuthEventType `json:"type"`
	SessionID  string        `json:"session_id,omitempty"`
	UserID     string        `json:"user_id,omitempty"`
	Session    *Session      `json:"session,omitempty"`
	OccurredAt time.Time     `json:"occurred_at"`
}

// TransitionKind classifies a state change observed by the session manager.
type TransitionKind string

const (
	TransitionSignedIn         TransitionKind = "signed_in"
	TransitionSignedOut        TransitionKind = "signed_out"
	TransitionResolutionFailed TransitionKind = "resolution_failed"
	TransitionSignOutFailed    TransitionKind = "sign_out_failed"
)

// Transition is emitted by the session manager for presentation listeners.
// EventID is the originating AuthEvent id, empty for locally detected failures.
type Transition struct {
	Kind      TransitionKind
	EventID   string
	SessionID string
	UserID    string
	Err       error
	At        time.Time
}

// NotificationLevel is the severity of a user-facing message.
type NotificationLevel string

const (
	NotificationInfo    NotificationLevel = "info"
	NotificationSuccess NotificationLevel = "success"
	NotificationError   NotificationLevel = "error"
)

// Notification is a transient message shown to one browser session.
// ID deduplicates the same message queued by several instances.
type Notification struct {
	ID        string            `json:"id"`
	Level     NotificationLevel `json:"level"`
	Message   string            `json:"message"`
	CreatedAt time.Time         `json:"created_at"`
}
