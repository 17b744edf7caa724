package ui

import (
	"strconv"

	"admin-dashboard/internal/domain"
	"admin-dashboard/internal/fetch"

	gomponents "maragu.dev/gomponents"
	data "maragu.dev/gomponents-datastar"
	html "maragu.dev/gomponents/html"
)

func citiesPage(user pageUser, csrf func() gomponents.Node, cities fetch.State[domain.City], states fetch.State[domain.State]) gomponents.Node {
	stateNames := make(map[int64]string, len(states.Data))
	for _, s := range states.Data {
		stateNames[s.ID] = s.Name
	}

	rows := make([]gomponents.Node, 0, len(cities.Data))
	for _, c := range cities.Data {
		state := "-"
		if c.StateID != nil {
			if name, ok := stateNames[*c.StateID]; ok {
				state = name
			} else {
				state = "#" + strconv.FormatInt(*c.StateID, 10)
			}
		}
		rows = append(rows, html.Tr(
			data.Show(containsExpr(c.Name+" "+state)),
			html.Td(gomponents.Text(c.Name)),
			html.Td(gomponents.Text(state)),
			html.Td(html.Class("num"), gomponents.Text(formatCoord(c.Latitude))),
			html.Td(html.Class("num"), gomponents.Text(formatCoord(c.Longitude))),
			html.Td(gomponents.Text(strOrDash(c.Timezone))),
		))
	}

	return appPage("Cities", "cities", user, csrf,
		loadErrorCard(cities.Error),
		referenceBody(cities.Loading, len(rows), "Filter by city or state",
			dataTable([]string{"Name", "State", "Latitude", "Longitude", "Time zone"}, rows)),
	)
}

func statesPage(user pageUser, csrf func() gomponents.Node, states fetch.State[domain.State]) gomponents.Node {
	rows := make([]gomponents.Node, 0, len(states.Data))
	for _, s := range states.Data {
		rows = append(rows, html.Tr(
			data.Show(containsExpr(s.Name+" "+strOrDash(s.Code))),
			html.Td(gomponents.Text(s.Name)),
			html.Td(gomponents.Text(strOrDash(s.Code))),
			html.Td(gomponents.Text(strOrDash(s.Country))),
		))
	}

	return appPage("States", "states", user, csrf,
		loadErrorCard(states.Error),
		referenceBody(states.Loading, len(rows), "Filter by state or code",
			dataTable([]string{"Name", "Code", "Country"}, rows)),
	)
}

func referenceBody(loading bool, n int, placeholder string, table gomponents.Node) gomponents.Node {
	switch {
	case loading:
		return emptyStateCard("Loading…")
	case n == 0:
		return emptyStateCard("Nothing to show.")
	}
	return filterScope("", quickFilterCard(placeholder, ""), table)
}
