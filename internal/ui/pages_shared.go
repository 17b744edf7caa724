package ui

import (
	"strconv"
	"strings"
	"time"

	"admin-dashboard/internal/domain"

	. "maragu.dev/gomponents"
	data "maragu.dev/gomponents-datastar"
	. "maragu.dev/gomponents/html"
)

type navItem struct {
	Label string
	Href  string
	Key   string
	Icon  string
}

var navItems = []navItem{
	{Label: "Overview", Href: "/ui", Key: "home", Icon: "house"},
	{Label: "Users", Href: "/ui/users", Key: "users", Icon: "users"},
	{Label: "Cities", Href: "/ui/cities", Key: "cities", Icon: "building-2"},
	{Label: "States", Href: "/ui/states", Key: "states", Icon: "map"},
	{Label: "Billing", Href: "/ui/billing", Key: "billing", Icon: "receipt"},
	{Label: "Quizzes", Href: "/ui/quizzes", Key: "quizzes", Icon: "list-checks"},
}

// pageUser is the signed-in identity shown in the top bar.
type pageUser struct {
	Label   string
	Avatar  string
	IsAdmin bool
}

func userFromProfile(p *domain.Profile) pageUser {
	if p == nil {
		return pageUser{Label: "unknown"}
	}
	u := pageUser{Label: p.DisplayName()}
	if p.AvatarURL != nil {
		u.Avatar = *p.AvatarURL
	}
	u.IsAdmin = p.Role != nil && strings.EqualFold(*p.Role, domain.RoleAdmin)
	return u
}

func pageHead(title string) Node {
	return Head(
		Meta(Charset("utf-8")),
		Meta(Name("viewport"), Content("width=device-width, initial-scale=1")),
		TitleEl(Text(title+" | Admin Dashboard")),
		Link(Rel("icon"), Href("data:,")),
		Link(Rel("stylesheet"), Href("https://cdn.jsdelivr.net/npm/@primer/css@22.1.0/dist/primer.min.css")),
		Link(Rel("stylesheet"), Href(uiStylesheetHref())),
		Script(Raw(themeInitScript)),
		Script(Src("https://unpkg.com/lucide@latest/dist/umd/lucide.min.js")),
		Script(
			Type("module"),
			Src("https://cdn.jsdelivr.net/gh/starfederation/datastar@1.0.0-RC.7/bundles/datastar.js"),
		),
	)
}

func appPage(title, active string, user pageUser, csrf func() Node, body ...Node) Node {
	nav := make([]Node, 0, len(navItems))
	for _, item := range navItems {
		className := "app-nav-link Link--secondary d-flex flex-items-center"
		if item.Key == active {
			className += " active"
		}
		nav = append(nav, A(
			Href(item.Href),
			Class(className),
			I(Class("nav-icon"), Attr("data-lucide", item.Icon), Attr("aria-hidden", "true")),
			Span(Text(item.Label)),
		))
	}

	var avatar Node
	if user.Avatar != "" {
		avatar = Img(Class("avatar avatar-small mr-2"), Src(user.Avatar), Alt(""), Width("20"), Height("20"))
	}
	var adminLabel Node
	if user.IsAdmin {
		adminLabel = statusLabel("admin", "accent")
	}

	return HTML(
		Lang("en"),
		Attr("data-color-mode", "auto"),
		Attr("data-light-theme", "light"),
		Attr("data-dark-theme", "dark"),
		pageHead(title),
		Body(
			Main(Class("app-shell"),
				Aside(
					Class("app-sidebar"),
					Div(
						Class("brand"),
						Strong(Text("Admin Dashboard")),
						P(Class(mutedClass()+" mb-0"), Text("Users, reference data, billing")),
					),
					Nav(Class("app-nav"), Group(nav)),
				),
				Section(
					Class("app-main"),
					Div(
						Class("topbar"),
						H1(Class("page-title"), Text(title)),
						Div(
							Class("d-flex flex-items-center gap-2"),
							avatar,
							Span(Class(mutedClass()), Text("Signed in as "+user.Label)),
							adminLabel,
							Form(
								Method("post"),
								Action("/ui/logout"),
								csrf(),
								Button(Type("submit"), Class("btn btn-sm"), Text("Sign out")),
							),
						),
					),
					Div(Class("content"), Group(body)),
				),
			),
			Script(Raw("if (window.lucide) { window.lucide.createIcons(); }")),
		),
	)
}

func errorPage(title, message string) Node {
	return HTML(
		Lang("en"),
		pageHead(title),
		Body(
			Main(
				Class("layout"),
				H1(Class("page-title"), Text(title)),
				P(Text(message)),
				P(A(Href("/ui"), Text("Back to overview"))),
			),
		),
	)
}

func formatTimePtr(ts *time.Time) string {
	if ts == nil || ts.IsZero() {
		return "-"
	}
	return ts.Format("2006-01-02 15:04")
}

func strOrDash(v *string) string {
	if v == nil || strings.TrimSpace(*v) == "" {
		return "-"
	}
	return *v
}

func formatCoord(v *float64) string {
	if v == nil {
		return "-"
	}
	return strconv.FormatFloat(*v, 'f', 4, 64)
}

// containsExpr is the datastar expression that shows a row while the quick
// filter signal $q is empty or a substring of value.
func containsExpr(value string) string {
	lower := strings.ToLower(value)
	return "$q === '' || " + strconv.Quote(lower) + ".includes($q.toLowerCase())"
}

func cardClass(extra ...string) string {
	parts := []string{"Box", "p-3", "mb-3", "card"}
	parts = append(parts, extra...)
	return strings.Join(parts, " ")
}

func mutedClass() string {
	return "color-fg-muted text-small"
}

func quickFilterCard(placeholder, initial string) Node {
	return Div(
		Class(cardClass("toolbar")),
		Form(
			Method("get"),
			Class("d-flex flex-items-center gap-2"),
			Label(Class("sr-only"), For("q"), Text("Quick filter")),
			Input(ID("q"), Name("q"), Type("search"), Class("form-control flex-1"), Placeholder(placeholder), Value(initial), data.Bind("q"), AutoComplete("off")),
		),
	)
}

// filterScope wraps the quick filter and the table it controls in one
// datastar signal scope.
func filterScope(initial string, children ...Node) Node {
	return Div(data.Signals(map[string]any{"q": initial}), Group(children))
}

func statCard(label string, value int, loading bool) Node {
	shown := strconv.Itoa(value)
	if loading {
		shown = "…"
	}
	return Div(
		Class(cardClass("stat-card")),
		P(Class(mutedClass()+" mb-1"), Text(label)),
		Strong(Class("stat-value f2"), Text(shown)),
	)
}

func loadErrorCard(message *string) Node {
	if message == nil {
		return nil
	}
	return Div(Class("flash flash-error mb-3"), Role("alert"), Text(*message))
}

func emptyStateCard(message string) Node {
	return Div(
		Class(cardClass("blankslate")),
		P(Class("color-fg-muted mb-0"), Text(message)),
	)
}

func statusLabel(text, tone string) Node {
	className := "Label"
	if tone != "" {
		className += " Label--" + tone
	}
	return Span(Class(className), Text(text))
}

func dataTable(headers []string, rows []Node) Node {
	ths := make([]Node, 0, len(headers))
	for _, h := range headers {
		ths = append(ths, Th(Text(h)))
	}
	return Div(
		Class(cardClass("table-wrap")),
		Table(Class("data-table"), THead(Tr(Group(ths))), TBody(Group(rows))),
	)
}
