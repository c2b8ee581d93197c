package vehicles

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/mpopescu/autochecks/internal/client/models"
	"github.com/mpopescu/autochecks/internal/common"
	"github.com/mpopescu/autochecks/internal/dbx"
)

// SQLiteRepository implements Repository using a DBTX (either *sql.DB or *sql.Tx).
type SQLiteRepository struct {
	db dbx.DBTX
}

// NewSQLiteRepository returns a new SQLiteRepository bound to the given DBTX.
func NewSQLiteRepository(db dbx.DBTX) *SQLiteRepository {
	return &SQLiteRepository{db: db}
}

const vehicleColumns = `id, plate, vin, notes, itp_expiry_millis, rca_expiry_millis, vignette_expiry_millis, created_at, updated_at, deleted_at`

func scanVehicle(scan func(dest ...any) error) (models.Vehicle, error) {
	var v models.Vehicle
	err := scan(&v.ID, &v.Plate, &v.VIN, &v.Notes,
		&v.ITPExpiryMillis, &v.RCAExpiryMillis, &v.VignetteExpiryMillis,
		&v.CreatedAt, &v.UpdatedAt, &v.DeletedAt)
	return v, err
}

func (r *SQLiteRepository) Upsert(ctx context.Context, v *models.Vehicle) error {
	if v.ID == 0 {
		query := `INSERT INTO vehicles (plate, vin, notes, itp_expiry_millis, rca_expiry_millis, vignette_expiry_millis, created_at, updated_at, deleted_at)
			VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)`
		res, err := r.db.ExecContext(ctx, query,
			v.Plate, v.VIN, v.Notes,
			v.ITPExpiryMillis, v.RCAExpiryMillis, v.VignetteExpiryMillis,
			v.CreatedAt, v.UpdatedAt, v.DeletedAt)
		if err != nil {
			return fmt.Errorf("failed to insert vehicle: %w", err)
		}
		id, err := res.LastInsertId()
		if err != nil {
			return fmt.Errorf("failed to get inserted vehicle id: %w", err)
		}
		v.ID = id
		return nil
	}

	query := `UPDATE vehicles SET plate=?, vin=?, notes=?, itp_expiry_millis=?, rca_expiry_millis=?, vignette_expiry_millis=?, created_at=?, updated_at=?, deleted_at=? WHERE id=?`
	res, err := r.db.ExecContext(ctx, query,
		v.Plate, v.VIN, v.Notes,
		v.ITPExpiryMillis, v.RCAExpiryMillis, v.VignetteExpiryMillis,
		v.CreatedAt, v.UpdatedAt, v.DeletedAt, v.ID)
	if err != nil {
		return fmt.Errorf("failed to update vehicle: %w", err)
	}
	ra, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to get rows affected: %w", err)
	}
	if ra == 0 {
		return common.ErrorNotFound
	}
	return nil
}

func (r *SQLiteRepository) GetAll(ctx context.Context) ([]models.Vehicle, error) {
	return r.query(ctx, `SELECT `+vehicleColumns+` FROM vehicles ORDER BY id`)
}

func (r *SQLiteRepository) GetActive(ctx context.Context) ([]models.Vehicle, error) {
	return r.query(ctx, `SELECT `+vehicleColumns+` FROM vehicles WHERE deleted_at=0 ORDER BY plate`)
}

func (r *SQLiteRepository) query(ctx context.Context, query string) ([]models.Vehicle, error) {
	rows, err := r.db.QueryContext(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("failed to select vehicles: %w", err)
	}
	defer rows.Close()

	var result []models.Vehicle
	for rows.Next() {
		v, err := scanVehicle(rows.Scan)
		if err != nil {
			return nil, err
		}
		result = append(result, v)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return result, nil
}

func (r *SQLiteRepository) GetByID(ctx context.Context, id int64) (*models.Vehicle, error) {
	row := r.db.QueryRowContext(ctx, `SELECT `+vehicleColumns+` FROM vehicles WHERE id=?`, id)
	v, err := scanVehicle(row.Scan)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, common.ErrorNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("query row scan failed: %w", err)
	}
	return &v, nil
}

func (r *SQLiteRepository) SoftDelete(ctx context.Context, id int64, deletedAt int64) error {
	res, err := r.db.ExecContext(ctx, `UPDATE vehicles SET deleted_at=?, updated_at=? WHERE id=? AND deleted_at=0`, deletedAt, deletedAt, id)
	if err != nil {
		return fmt.Errorf("failed to delete vehicle: %w", err)
	}
	ra, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to get rows affected: %w", err)
	}
	if ra != 1 {
		return common.ErrorNotFound
	}
	return nil
}

func (r *SQLiteRepository) Clear(ctx context.Context) error {
	if _, err := r.db.ExecContext(ctx, `DELETE FROM vehicles`); err != nil {
		return fmt.Errorf("failed to clear vehicles: %w", err)
	}
	return nil
}

func (r *SQLiteRepository) BulkInsert(ctx context.Context, items []models.Vehicle) error {
	query := `INSERT INTO vehicles (` + vehicleColumns + `) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`
	for _, v := range items {
		_, err := r.db.ExecContext(ctx, query,
			v.ID, v.Plate, v.VIN, v.Notes,
			v.ITPExpiryMillis, v.RCAExpiryMillis, v.VignetteExpiryMillis,
			v.CreatedAt, v.UpdatedAt, v.DeletedAt)
		if err != nil {
			return fmt.Errorf("failed to bulk insert vehicle %q: %w", v.Plate, err)
		}
	}
	return nil
}
