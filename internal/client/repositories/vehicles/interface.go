package vehicles

import (
	"context"

	"github.com/mpopescu/autochecks/internal/client/models"
)

// Repository describes persistence operations for Vehicle rows.
type Repository interface {
	// Upsert inserts v when v.ID is zero (assigning the new id to v.ID) or
	// updates the existing row otherwise.
	Upsert(ctx context.Context, v *models.Vehicle) error

	// GetAll returns every vehicle, soft-deleted rows included.
	GetAll(ctx context.Context) ([]models.Vehicle, error)

	// GetActive returns vehicles without a soft-delete marker, ordered by plate.
	GetActive(ctx context.Context) ([]models.Vehicle, error)

	// GetByID returns one vehicle by its surrogate id.
	GetByID(ctx context.Context, id int64) (*models.Vehicle, error)

	// SoftDelete marks a vehicle deleted at the given time (unix millis).
	SoftDelete(ctx context.Context, id int64, deletedAt int64) error

	// Clear removes all rows. Used when applying a cloud snapshot.
	Clear(ctx context.Context) error

	// BulkInsert inserts rows preserving their ids. Used when applying a
	// merged snapshot whose ids were re-assigned deterministically.
	BulkInsert(ctx context.Context, items []models.Vehicle) error
}
