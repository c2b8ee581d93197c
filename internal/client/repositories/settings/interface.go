// Package settings persists the single logical settings row on the client.
package settings

import (
	"context"

	"github.com/mpopescu/autochecks/internal/client/models"
)

// Repository describes persistence operations for the Settings row.
type Repository interface {
	// Get returns the settings row, or a zero Settings when none exists yet.
	Get(ctx context.Context) (models.Settings, error)

	// Upsert writes s as the single settings row, inserting or updating as
	// needed. s.ID is ignored; the stored row keeps its own id.
	Upsert(ctx context.Context, s models.Settings) error

	// Clear removes the settings row.
	Clear(ctx context.Context) error
}
