// Package snapshots persists the one-snapshot-per-account cloud rows.
package snapshots

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/mpopescu/autochecks/internal/common"
	"github.com/mpopescu/autochecks/internal/server/models"
)

type PostgresRepository struct {
	db *sql.DB
}

func NewPostgresRepository(db *sql.DB) (*PostgresRepository, error) {
	return &PostgresRepository{db: db}, nil
}

func (r *PostgresRepository) Get(ctx context.Context, accountID string) (*models.SnapshotRow, error) {
	query :=
		`SELECT account_id, payload, updated_at FROM user_snapshots
		 WHERE account_id = $1
		 `

	row := &models.SnapshotRow{}
	err := r.db.QueryRowContext(ctx, query, accountID).Scan(
		&row.AccountID, &row.Payload, &row.UpdatedAt)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, common.ErrorNotFound
		}
		return nil, fmt.Errorf("error performing sql request: %w", err)
	}

	return row, nil
}

func (r *PostgresRepository) Upsert(ctx context.Context, accountID string, payload json.RawMessage) (*models.SnapshotRow, error) {
	query :=
		`INSERT INTO user_snapshots (account_id, payload, updated_at)
		 VALUES ($1, $2, now())
		 ON CONFLICT (account_id)
		 DO UPDATE SET payload = EXCLUDED.payload, updated_at = now()
		 RETURNING account_id, payload, updated_at
		 `

	row := &models.SnapshotRow{}
	err := r.db.QueryRowContext(ctx, query, accountID, []byte(payload)).Scan(
		&row.AccountID, &row.Payload, &row.UpdatedAt)
	if err != nil {
		return nil, fmt.Errorf("error performing sql request: %w", err)
	}

	return row, nil
}
