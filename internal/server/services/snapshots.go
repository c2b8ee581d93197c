package services

import (
	"context"
	"encoding/json"

	"github.com/mpopescu/autochecks/internal/common"
	"github.com/mpopescu/autochecks/internal/server/models"
	"github.com/mpopescu/autochecks/internal/server/repositories/snapshots"
)

// maxSnapshotBytes bounds the accepted payload size. A fleet snapshot is a
// few kilobytes; anything near this limit is either abuse or a client bug.
const maxSnapshotBytes = 4 << 20

// SnapshotService stores and serves the per-account cloud snapshots. The
// payload stays opaque JSON: the devices own its semantics.
type SnapshotService struct {
	repo snapshots.Repository
}

func NewSnapshotService(repo snapshots.Repository) *SnapshotService {
	return &SnapshotService{repo: repo}
}

// Get returns the account's snapshot row, or common.ErrorNotFound when the
// account has never uploaded.
func (s *SnapshotService) Get(ctx context.Context, accountID string) (*models.SnapshotRow, error) {
	return s.repo.Get(ctx, accountID)
}

// Upsert validates that payload is well-formed JSON within the size limit and
// stores it as the account's single snapshot row.
func (s *SnapshotService) Upsert(ctx context.Context, accountID string, payload json.RawMessage) (*models.SnapshotRow, error) {
	if len(payload) == 0 || len(payload) > maxSnapshotBytes || !json.Valid(payload) {
		return nil, common.ErrMalformedPayload
	}
	return s.repo.Upsert(ctx, accountID, payload)
}
