package ui

import (
	"strings"

	"admin-dashboard/internal/domain"

	. "maragu.dev/gomponents"
	data "maragu.dev/gomponents-datastar"
	. "maragu.dev/gomponents/html"
)

type usersPageData struct {
	User     pageUser
	CSRF     func() Node
	Stats    domain.UserStats
	Loading  bool
	Error    *string
	Search   string
	Profiles []domain.Profile
}

func usersPage(d usersPageData) Node {
	rows := make([]Node, 0, len(d.Profiles))
	for _, p := range d.Profiles {
		rows = append(rows, profileRow(p))
	}

	var table Node
	switch {
	case d.Loading:
		table = emptyStateCard("Loading users…")
	case len(d.Profiles) == 0 && d.Error == nil:
		table = emptyStateCard("No users match.")
	default:
		table = dataTable([]string{"User", "Email", "Role", "Status", "Joined"}, rows)
	}

	return appPage("Users", "users", d.User, d.CSRF,
		Div(
			Class("stat-grid mb-3"),
			statCard("Users", d.Stats.Users, d.Loading),
			statCard("Admins", d.Stats.Admins, d.Loading),
			statCard("Active", d.Stats.Active, d.Loading),
			statCard("Blocked", d.Stats.Blocked, d.Loading),
		),
		loadErrorCard(d.Error),
		filterScope(d.Search,
			quickFilterCard("Filter by username, name, or email", d.Search),
			table,
		),
	)
}

func profileRow(p domain.Profile) Node {
	filter := strings.Join([]string{strOrDash(p.Username), strOrDash(p.FullName), strOrDash(p.Email)}, " ")

	var avatar Node
	if p.AvatarURL != nil {
		avatar = Img(Class("avatar mr-2"), Src(*p.AvatarURL), Alt(""), Width("24"), Height("24"))
	}

	role := domain.RoleUser
	if p.Role != nil && *p.Role != "" {
		role = strings.ToLower(*p.Role)
	}
	roleTone := ""
	if role == domain.RoleAdmin {
		roleTone = "accent"
	}

	status := statusLabel("active", "success")
	if p.Blocked() {
		status = statusLabel("blocked", "danger")
	}

	return Tr(
		data.Show(containsExpr(filter)),
		Td(Class("d-flex flex-items-center"), avatar, Span(Text(p.DisplayName()))),
		Td(Text(strOrDash(p.Email))),
		Td(statusLabel(role, roleTone)),
		Td(status),
		Td(Text(formatTimePtr(p.CreatedAt))),
	)
}
