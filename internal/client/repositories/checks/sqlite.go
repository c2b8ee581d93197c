package checks

import (
	"context"
	"fmt"

	"github.com/mpopescu/autochecks/internal/client/models"
	"github.com/mpopescu/autochecks/internal/dbx"
)

// SQLiteRepository implements Repository using a DBTX (either *sql.DB or *sql.Tx).
type SQLiteRepository struct {
	db dbx.DBTX
}

func NewSQLiteRepository(db dbx.DBTX) *SQLiteRepository {
	return &SQLiteRepository{db: db}
}

const checkColumns = `id, vehicle_id, type, status, expiry_millis, checked_at, note, source_url`

func (r *SQLiteRepository) Insert(ctx context.Context, c *models.Check) error {
	query := `INSERT INTO checks (vehicle_id, type, status, expiry_millis, checked_at, note, source_url)
		VALUES (?, ?, ?, ?, ?, ?, ?)`
	res, err := r.db.ExecContext(ctx, query,
		c.VehicleID, string(c.Type), string(c.Status), c.ExpiryMillis, c.CheckedAt, c.Note, c.SourceURL)
	if err != nil {
		return fmt.Errorf("failed to insert check: %w", err)
	}
	id, err := res.LastInsertId()
	if err != nil {
		return fmt.Errorf("failed to get inserted check id: %w", err)
	}
	c.ID = id
	return nil
}

func (r *SQLiteRepository) GetAll(ctx context.Context) ([]models.Check, error) {
	return r.query(ctx, `SELECT `+checkColumns+` FROM checks ORDER BY checked_at`)
}

func (r *SQLiteRepository) GetByVehicle(ctx context.Context, vehicleID int64) ([]models.Check, error) {
	return r.query(ctx, `SELECT `+checkColumns+` FROM checks WHERE vehicle_id=? ORDER BY checked_at DESC`, vehicleID)
}

func (r *SQLiteRepository) query(ctx context.Context, query string, args ...any) ([]models.Check, error) {
	rows, err := r.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to select checks: %w", err)
	}
	defer rows.Close()

	var result []models.Check
	for rows.Next() {
		var c models.Check
		var typ, status string
		if err := rows.Scan(&c.ID, &c.VehicleID, &typ, &status, &c.ExpiryMillis, &c.CheckedAt, &c.Note, &c.SourceURL); err != nil {
			return nil, err
		}
		c.Type = models.CheckType(typ)
		c.Status = models.CheckStatus(status)
		result = append(result, c)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return result, nil
}

func (r *SQLiteRepository) Clear(ctx context.Context) error {
	if _, err := r.db.ExecContext(ctx, `DELETE FROM checks`); err != nil {
		return fmt.Errorf("failed to clear checks: %w", err)
	}
	return nil
}

func (r *SQLiteRepository) BulkInsert(ctx context.Context, items []models.Check) error {
	query := `INSERT INTO checks (` + checkColumns + `) VALUES (?, ?, ?, ?, ?, ?, ?, ?)`
	for _, c := range items {
		_, err := r.db.ExecContext(ctx, query,
			c.ID, c.VehicleID, string(c.Type), string(c.Status), c.ExpiryMillis, c.CheckedAt, c.Note, c.SourceURL)
		if err != nil {
			return fmt.Errorf("failed to bulk insert check: %w", err)
		}
	}
	return nil
}
