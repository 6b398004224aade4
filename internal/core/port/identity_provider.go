package port

import (
	"context"

	"github.com/arklim/learnhub-client/internal/core/domain"
)

// SignUpParams carries the attributes for provider identity creation.
type SignUpParams struct {
	Email    string
	Password string
	Metadata map[string]any
}

// SessionChangeFunc receives provider-pushed session changes. The session is
// nil for SIGNED_OUT events.
type SessionChangeFunc func(event domain.AuthEvent, session *domain.Session)

// IdentityProvider is the contract of the external identity backend. It owns
// credential verification, token issuance, and token refresh; this client
// never reimplements any of it.
type IdentityProvider interface {
	// GetSession returns the current session, or (nil, nil) when none exists.
	GetSession(ctx context.Context) (*domain.Session, error)

	// OnSessionChange registers a callback for session lifecycle events and
	// returns a function releasing the registration.
	OnSessionChange(fn SessionChangeFunc) (unsubscribe func())

	// SignUp creates a new identity. The identity starts unverified; no
	// session is issued until the email is confirmed.
	SignUp(ctx context.Context, params SignUpParams) (*domain.Identity, error)

	// SignInWithPassword authenticates with email and password.
	SignInWithPassword(ctx context.Context, email, password string) (*domain.Identity, *domain.Session, error)

	// SignOut invalidates the current session with the provider.
	SignOut(ctx context.Context) error

	// GetUser returns the currently authenticated identity, or (nil, nil)
	// when no session exists.
	GetUser(ctx context.Context) (*domain.Identity, error)

	// ResetPassword dispatches a password-reset email.
	ResetPassword(ctx context.Context, email string) error
}
