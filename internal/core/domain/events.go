package domain

import "time"

// AuthEvent identifies a provider-pushed session change.
type AuthEvent string

const (
	AuthEventSignedIn       AuthEvent = "SIGNED_IN"
	AuthEventSignedOut      AuthEvent = "SIGNED_OUT"
	AuthEventTokenRefreshed AuthEvent = "TOKEN_REFRESHED"
)

// SignedInEvent represents the payload for learnhub.auth.signed_in messages.
type SignedInEvent struct {
	EventID    string
	UserID     string
	Email      string
	SignedInAt time.Time
	Metadata   map[string]any
}

// SignedOutEvent represents the payload for learnhub.auth.signed_out messages.
type SignedOutEvent struct {
	EventID     string
	UserID      string
	SignedOutAt time.Time
	Metadata    map[string]any
}

// ProfileProvisionedEvent represents the payload for learnhub.profile.provisioned
// messages emitted when a missing profile row is auto-created.
type ProfileProvisionedEvent struct {
	EventID       string
	UserID        string
	Email         string
	FullName      string
	Role          string
	ProvisionedAt time.Time
	Metadata      map[string]any
}
