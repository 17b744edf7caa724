package fetch

import (
	"log/slog"

	"admin-dashboard/internal/domain"
)

// Resource names, used as metric labels and API paths.
const (
	Cities   = "cities"
	States   = "states"
	Profiles = "profiles"
	Invoices = "invoices"
	Quizzes  = "quizzes"
)

// CitiesQuery lists cities alphabetically.
var CitiesQuery = domain.Query{Collection: "cities", Fields: domain.CityFields, OrderBy: "name", Ascending: true}

// StatesQuery lists states alphabetically.
var StatesQuery = domain.Query{Collection: "states", Fields: domain.StateFields, OrderBy: "name", Ascending: true}

// ProfilesQuery lists profiles, newest first.
var ProfilesQuery = domain.Query{Collection: "profiles", Fields: domain.ProfileFields, OrderBy: "created_at"}

// InvoicesQuery lists invoices, most recently issued first.
var InvoicesQuery = domain.Query{Collection: "invoices", Fields: domain.InvoiceFields, OrderBy: "issued_at"}

// QuizzesQuery lists quizzes by title.
var QuizzesQuery = domain.Query{Collection: "quizzes", Fields: domain.QuizFields, OrderBy: "title", Ascending: true}

// NewCities returns the cities reference-data resource.
func NewCities(store domain.RowStore, logger *slog.Logger) *Resource[domain.City] {
	return New[domain.City](Cities, store, CitiesQuery, WithLogger(logger))
}

// NewStates returns the states reference-data resource.
func NewStates(store domain.RowStore, logger *slog.Logger) *Resource[domain.State] {
	return New[domain.State](States, store, StatesQuery, WithLogger(logger))
}

// NewProfiles returns the profiles resource used by user management.
func NewProfiles(store domain.RowStore, logger *slog.Logger) *Resource[domain.Profile] {
	return New[domain.Profile](Profiles, store, ProfilesQuery, WithLogger(logger))
}

// NewInvoices returns the billing resource.
func NewInvoices(store domain.RowStore, logger *slog.Logger) *Resource[domain.Invoice] {
	return New[domain.Invoice](Invoices, store, InvoicesQuery, WithLogger(logger))
}

// NewQuizzes returns the quiz management resource.
func NewQuizzes(store domain.RowStore, logger *slog.Logger) *Resource[domain.Quiz] {
	return New[domain.Quiz](Quizzes, store, QuizzesQuery, WithLogger(logger))
}
