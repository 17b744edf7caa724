package domain

import "strings"

// Role names stored in profiles.role.
const (
	RoleUser  = "user"
	RoleAdmin = "admin"
)

// UserStats are the counts shown on the user management stat cards.
type UserStats struct {
	Users   int `json:"users"`
	Admins  int `json:"admins"`
	Active  int `json:"active"`
	Blocked int `json:"blocked"`
}

// CountProfiles derives the stat card counts. While loading, every count is
// zero regardless of any data already held.
func CountProfiles(profiles []Profile, loading bool) UserStats {
	var s UserStats
	if loading {
		return s
	}
	for _, p := range profiles {
		if p.Role == nil || strings.EqualFold(*p.Role, RoleUser) {
			s.Users++
		}
		if p.Role != nil && strings.EqualFold(*p.Role, RoleAdmin) {
			s.Admins++
		}
		if p.Blocked() {
			s.Blocked++
		} else {
			s.Active++
		}
	}
	return s
}

// profileSearchColumns are the columns matched by a profile search.
var profileSearchColumns = []string{"username", "full_name", "email"}

// ProfileSearch returns the row-store filter matching FilterProfiles for
// search. ok is false when search is blank.
func ProfileSearch(search string) (f Filter, ok bool) {
	search = strings.TrimSpace(search)
	if search == "" {
		return Filter{}, false
	}
	pattern := ContainsPattern(search)
	members := make([]Filter, 0, len(profileSearchColumns))
	for _, col := range profileSearchColumns {
		members = append(members, ILike(col, pattern))
	}
	return AnyOf(members...), true
}

// FilterProfiles keeps profiles whose username, full name, or email contains
// the search text, ignoring case. An empty search returns the input unchanged.
func FilterProfiles(profiles []Profile, search string) []Profile {
	search = strings.ToLower(strings.TrimSpace(search))
	if search == "" {
		return profiles
	}
	out := make([]Profile, 0, len(profiles))
	for _, p := range profiles {
		for _, v := range []*string{p.Username, p.FullName, p.Email} {
			if v != nil && strings.Contains(strings.ToLower(*v), search) {
				out = append(out, p)
				break
			}
		}
	}
	return out
}
