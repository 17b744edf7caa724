package ui

import (
	"strconv"

	"admin-dashboard/internal/domain"
	"admin-dashboard/internal/fetch"

	gomponents "maragu.dev/gomponents"
	data "maragu.dev/gomponents-datastar"
	html "maragu.dev/gomponents/html"
)

func invoiceTone(status string) string {
	switch status {
	case domain.InvoicePaid:
		return "success"
	case domain.InvoiceOpen:
		return "attention"
	case domain.InvoiceVoid:
		return "secondary"
	default:
		return ""
	}
}

func billingPage(user pageUser, csrf func() gomponents.Node, invoices fetch.State[domain.Invoice]) gomponents.Node {
	rows := make([]gomponents.Node, 0, len(invoices.Data))
	for _, inv := range invoices.Data {
		rows = append(rows, html.Tr(
			data.Show(containsExpr(inv.Number+" "+strOrDash(inv.CustomerEmail)+" "+inv.Status)),
			html.Td(gomponents.Text(inv.Number)),
			html.Td(gomponents.Text(strOrDash(inv.CustomerEmail))),
			html.Td(html.Class("num"), gomponents.Text(inv.FormatAmount())),
			html.Td(statusLabel(inv.Status, invoiceTone(inv.Status))),
			html.Td(gomponents.Text(formatTimePtr(inv.IssuedAt))),
		))
	}

	return appPage("Billing", "billing", user, csrf,
		loadErrorCard(invoices.Error),
		referenceBody(invoices.Loading, len(rows), "Filter by number, customer, or status",
			dataTable([]string{"Invoice", "Customer", "Amount", "Status", "Issued"}, rows)),
	)
}

func quizzesPage(user pageUser, csrf func() gomponents.Node, quizzes fetch.State[domain.Quiz]) gomponents.Node {
	rows := make([]gomponents.Node, 0, len(quizzes.Data))
	for _, q := range quizzes.Data {
		published := statusLabel("draft", "secondary")
		if q.IsPublished {
			published = statusLabel("published", "success")
		}
		rows = append(rows, html.Tr(
			data.Show(containsExpr(q.Title+" "+strOrDash(q.Category))),
			html.Td(gomponents.Text(q.Title)),
			html.Td(gomponents.Text(strOrDash(q.Category))),
			html.Td(html.Class("num"), gomponents.Text(strconv.Itoa(q.QuestionCount))),
			html.Td(published),
			html.Td(gomponents.Text(formatTimePtr(q.CreatedAt))),
		))
	}

	return appPage("Quizzes", "quizzes", user, csrf,
		loadErrorCard(quizzes.Error),
		referenceBody(quizzes.Loading, len(rows), "Filter by title or category",
			dataTable([]string{"Title", "Category", "Questions", "Status", "Created"}, rows)),
	)
}
