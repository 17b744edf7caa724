package domain

import (
	"github.com/google/uuid"
)

// NewID generates a UUIDv7 string for dashboard-owned identifiers such as
// session ids.
func NewID() string {
	return uuid.Must(uuid.NewV7()).String()
}
