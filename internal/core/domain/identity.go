package domain

import "time"

// Role enumerates the platform roles a profile can hold.
type Role string

const (
	RoleStudent    Role = "student"
	RoleInstructor Role = "instructor"
	RoleAdmin      Role = "admin"
)

// Identity is the provider-issued authenticated identity. The ID is stable and
// immutable for the lifetime of the account; Metadata carries the free-form
// attributes attached at sign-up (full_name, role).
type Identity struct {
	ID               string
	Email            string
	EmailConfirmedAt *time.Time
	Metadata         map[string]any
	CreatedAt        time.Time
}

// FullName extracts the full_name metadata attribute, falling back to the
// supplied default when absent or empty.
func (i Identity) FullName(fallback string) string {
	if i.Metadata != nil {
		if name, ok := i.Metadata["full_name"].(string); ok && name != "" {
			return name
		}
	}
	return fallback
}

// Profile mirrors the persisted representation in the profiles table.
type Profile struct {
	ID          string
	Email       string
	FullName    string
	AvatarURL   *string
	Role        Role
	IsActive    bool
	Preferences map[string]any
	LastLogin   *time.Time
	CreatedAt   time.Time
	UpdatedAt   time.Time
}

// ProfileUpdate captures a partial profile mutation. Nil fields are left
// untouched by the store.
type ProfileUpdate struct {
	FullName    *string
	AvatarURL   *string
	Role        *Role
	Preferences map[string]any
}

// IsEmpty reports whether the update would change nothing.
func (u ProfileUpdate) IsEmpty() bool {
	return u.FullName == nil && u.AvatarURL == nil && u.Role == nil && u.Preferences == nil
}
