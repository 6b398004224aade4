package domain

import "time"

// Session is the provider-issued proof of authentication held client-side:
// opaque tokens plus expiry. The provider remains the source of truth for
// session validity; this value is only the local projection.
type Session struct {
	AccessToken  string
	RefreshToken string
	TokenType    string
	ExpiresAt    time.Time
	Identity     *Identity
}

// IsExpired reports whether the access token has expired at the supplied moment.
func (s Session) IsExpired(at time.Time) bool {
	if s.ExpiresAt.IsZero() {
		return false
	}
	return !s.ExpiresAt.After(at)
}

// UserID returns the identity id bound to the session, or "" when the
// provider did not attach one.
func (s Session) UserID() string {
	if s.Identity == nil {
		return ""
	}
	return s.Identity.ID
}
