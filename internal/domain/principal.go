package domain

import "time"

// Principal is the authenticated identity returned by the backend's auth
// subsystem. It is distinct from the application-level Profile record.
type Principal struct {
	ID    string
	Email *string
}

// Profile is a row of the profiles collection. Every field except ID is
// nullable in the backend.
type Profile struct {
	ID        string     `json:"id"`
	Email     *string    `json:"email"`
	Username  *string    `json:"username"`
	FullName  *string    `json:"full_name"`
	AvatarURL *string    `json:"avatar_url"`
	Role      *string    `json:"role"`
	IsBlocked *bool      `json:"is_blocked"`
	CreatedAt *time.Time `json:"created_at"`
}

// Blocked reports whether the profile is blocked. A null flag counts as not blocked.
func (p Profile) Blocked() bool {
	return p.IsBlocked != nil && *p.IsBlocked
}

// DisplayName returns the best human label for the profile.
func (p Profile) DisplayName() string {
	switch {
	case p.FullName != nil && *p.FullName != "":
		return *p.FullName
	case p.Username != nil && *p.Username != "":
		return *p.Username
	case p.Email != nil && *p.Email != "":
		return *p.Email
	default:
		return p.ID
	}
}

// ProfileFields is the projection loaded for profiles.
var ProfileFields = []string{"id", "email", "username", "full_name", "avatar_url", "role", "is_blocked", "created_at"}

// SynthesizeProfile builds the minimal profile used when a principal has no
// profile row: only id and email are populated.
func SynthesizeProfile(p Principal) *Profile {
	return &Profile{ID: p.ID, Email: p.Email}
}

// MergePrincipal fills id and email from the principal when the profile row
// does not carry them.
func MergePrincipal(row Profile, p Principal) *Profile {
	out := row
	if out.ID == "" {
		out.ID = p.ID
	}
	if out.Email == nil || *out.Email == "" {
		out.Email = p.Email
	}
	return &out
}
