package db

import (
	"context"
	"database/sql"
	"fmt"
)

type seedState struct {
	id         int64
	name, code string
	country    string
}

type seedCity struct {
	id       int64
	name     string
	stateID  int64
	lat, lon float64
	tz       string
}

var seedStates = []seedState{
	{1, "California", "CA", "US"},
	{2, "New York", "NY", "US"},
	{3, "Texas", "TX", "US"},
	{4, "Bavaria", "BY", "DE"},
}

var seedCities = []seedCity{
	{1, "San Francisco", 1, 37.7749, -122.4194, "America/Los_Angeles"},
	{2, "Los Angeles", 1, 34.0522, -118.2437, "America/Los_Angeles"},
	{3, "Buffalo", 2, 42.8864, -78.8784, "America/New_York"},
	{4, "Austin", 3, 30.2672, -97.7431, "America/Chicago"},
	{5, "Munich", 4, 48.1351, 11.5820, "Europe/Berlin"},
	{6, "Augsburg", 4, 48.3705, 10.8978, "Europe/Berlin"},
}

// Seed fills an empty row store with demo reference data, profiles, invoices,
// and quizzes. It is a no-op when states already has rows.
func Seed(ctx context.Context, db *sql.DB) error {
	var n int
	if err := db.QueryRowContext(ctx, `SELECT COUNT(*) FROM states`).Scan(&n); err != nil {
		return fmt.Errorf("count states: %w", err)
	}
	if n > 0 {
		return nil
	}

	tx, err := db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin seed: %w", err)
	}
	defer tx.Rollback() //nolint:errcheck

	for _, s := range seedStates {
		if _, err := tx.ExecContext(ctx,
			`INSERT INTO states (id, name, code, country) VALUES (?, ?, ?, ?)`,
			s.id, s.name, s.code, s.country); err != nil {
			return fmt.Errorf("insert state %s: %w", s.name, err)
		}
	}
	for _, c := range seedCities {
		if _, err := tx.ExecContext(ctx,
			`INSERT INTO cities (id, name, state_id, latitude, longitude, timezone) VALUES (?, ?, ?, ?, ?, ?)`,
			c.id, c.name, c.stateID, c.lat, c.lon, c.tz); err != nil {
			return fmt.Errorf("insert city %s: %w", c.name, err)
		}
	}

	profiles := []struct {
		id, email, username, fullName string
		role                          sql.NullString
		blocked                       bool
	}{
		{"7f3c2a10-0000-4000-8000-000000000001", "admin@example.com", "admin", "Ada Admin", sql.NullString{String: "admin", Valid: true}, false},
		{"7f3c2a10-0000-4000-8000-000000000002", "bob@example.com", "bob", "Bob Builder", sql.NullString{String: "user", Valid: true}, false},
		{"7f3c2a10-0000-4000-8000-000000000003", "carol@example.com", "carol", "Carol Chen", sql.NullString{}, false},
		{"7f3c2a10-0000-4000-8000-000000000004", "dan@example.com", "dan", "Dan Doe", sql.NullString{String: "USER", Valid: true}, true},
	}
	for _, p := range profiles {
		if _, err := tx.ExecContext(ctx,
			`INSERT INTO profiles (id, email, username, full_name, role, is_blocked, created_at) VALUES (?, ?, ?, ?, ?, ?, ?)`,
			p.id, p.email, p.username, p.fullName, p.role, p.blocked, "2025-01-15T09:30:00Z"); err != nil {
			return fmt.Errorf("insert profile %s: %w", p.username, err)
		}
	}

	invoices := []struct {
		number, email string
		cents         int64
		status        string
		issued        string
	}{
		{"INV-2025-0001", "bob@example.com", 1999, "paid", "2025-02-01T00:00:00Z"},
		{"INV-2025-0002", "carol@example.com", 4900, "open", "2025-02-15T00:00:00Z"},
		{"INV-2025-0003", "dan@example.com", 1999, "void", "2025-03-01T00:00:00Z"},
	}
	for _, inv := range invoices {
		if _, err := tx.ExecContext(ctx,
			`INSERT INTO invoices (number, customer_email, amount_cents, currency, status, issued_at) VALUES (?, ?, ?, 'USD', ?, ?)`,
			inv.number, inv.email, inv.cents, inv.status, inv.issued); err != nil {
			return fmt.Errorf("insert invoice %s: %w", inv.number, err)
		}
	}

	quizzes := []struct {
		title, category string
		questions       int
		published       bool
	}{
		{"State Capitals", "geography", 20, true},
		{"Time Zones", "geography", 12, false},
		{"Billing Basics", "onboarding", 8, true},
	}
	for _, q := range quizzes {
		if _, err := tx.ExecContext(ctx,
			`INSERT INTO quizzes (title, category, question_count, is_published, created_at) VALUES (?, ?, ?, ?, ?)`,
			q.title, q.category, q.questions, q.published, "2025-01-20T12:00:00Z"); err != nil {
			return fmt.Errorf("insert quiz %s: %w", q.title, err)
		}
	}

	return tx.Commit()
}
