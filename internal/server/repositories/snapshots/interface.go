package snapshots

import (
	"context"
	"encoding/json"

	"github.com/mpopescu/autochecks/internal/server/models"
)

type Repository interface {
	// Get returns the account's snapshot row, or common.ErrorNotFound.
	Get(ctx context.Context, accountID string) (*models.SnapshotRow, error)

	// Upsert stores payload as the account's single snapshot row and returns
	// the resulting row with the server-set update time.
	Upsert(ctx context.Context, accountID string, payload json.RawMessage) (*models.SnapshotRow, error)
}
