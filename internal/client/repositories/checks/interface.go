// Package checks provides the client-side persistence layer for document
// verification events.
package checks

import (
	"context"

	"github.com/mpopescu/autochecks/internal/client/models"
)

// Repository describes persistence operations for Check rows.
type Repository interface {
	// Insert adds a new check and assigns c.ID.
	Insert(ctx context.Context, c *models.Check) error

	// GetAll returns every check ordered by checked_at.
	GetAll(ctx context.Context) ([]models.Check, error)

	// GetByVehicle returns the checks belonging to one vehicle, newest first.
	GetByVehicle(ctx context.Context, vehicleID int64) ([]models.Check, error)

	// Clear removes all rows. Used when applying a cloud snapshot.
	Clear(ctx context.Context) error

	// BulkInsert inserts rows preserving their ids.
	BulkInsert(ctx context.Context, items []models.Check) error
}
