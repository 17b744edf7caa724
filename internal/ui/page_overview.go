package ui

import (
	"admin-dashboard/internal/domain"
	"admin-dashboard/internal/fetch"

	gomponents "maragu.dev/gomponents"
	html "maragu.dev/gomponents/html"
)

type overviewPageData struct {
	User     pageUser
	CSRF     func() gomponents.Node
	Stats    domain.UserStats
	Loading  bool
	Cities   fetch.State[domain.City]
	States   fetch.State[domain.State]
	Invoices fetch.State[domain.Invoice]
	Quizzes  fetch.State[domain.Quiz]
}

type overviewLink struct {
	Title       string
	Description string
	Href        string
}

var overviewLinks = []overviewLink{
	{Title: "Users", Description: "Browse profiles, roles, and blocked accounts.", Href: "/ui/users"},
	{Title: "Cities", Description: "Reference list of cities and their time zones.", Href: "/ui/cities"},
	{Title: "States", Description: "Reference list of states and countries.", Href: "/ui/states"},
	{Title: "Billing", Description: "Issued invoices and their status.", Href: "/ui/billing"},
	{Title: "Quizzes", Description: "Quiz catalog and publication state.", Href: "/ui/quizzes"},
}

func overviewPage(d overviewPageData) gomponents.Node {
	links := make([]gomponents.Node, 0, len(overviewLinks))
	for _, l := range overviewLinks {
		links = append(links, html.Div(
			html.Class(cardClass()),
			html.H2(html.Class("h4"), gomponents.Text(l.Title)),
			html.P(html.Class(mutedClass()), gomponents.Text(l.Description)),
			html.A(html.Href(l.Href), gomponents.Text("Open "+l.Title+" ->")),
		))
	}

	return appPage("Overview", "home", d.User, d.CSRF,
		html.Div(
			html.Class("stat-grid mb-3"),
			statCard("Users", d.Stats.Users, d.Loading),
			statCard("Admins", d.Stats.Admins, d.Loading),
			statCard("Cities", len(d.Cities.Data), d.Cities.Loading),
			statCard("States", len(d.States.Data), d.States.Loading),
			statCard("Invoices", len(d.Invoices.Data), d.Invoices.Loading),
			statCard("Quizzes", len(d.Quizzes.Data), d.Quizzes.Loading),
		),
		html.Div(html.Class("stat-grid"), gomponents.Group(links)),
	)
}
