package settings

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
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

const settingsColumns = `id, username, app_name, company_name, contact_email, timezone, reminder_lead_days, feature_flags, cloud_user_id, cloud_user_email, cloud_last_synced_at, cloud_auto_sync`

func (r *SQLiteRepository) Get(ctx context.Context) (models.Settings, error) {
	row := r.db.QueryRowContext(ctx, `SELECT `+settingsColumns+` FROM settings ORDER BY id LIMIT 1`)

	var s models.Settings
	var leadDays, flags string
	var autoSync int
	err := row.Scan(&s.ID, &s.Username, &s.AppName, &s.CompanyName, &s.ContactEmail, &s.Timezone,
		&leadDays, &flags, &s.CloudUserID, &s.CloudUserEmail, &s.CloudLastSyncedAt, &autoSync)
	if errors.Is(err, sql.ErrNoRows) {
		return models.Settings{}, nil
	}
	if err != nil {
		return models.Settings{}, fmt.Errorf("failed to select settings: %w", err)
	}

	if err := json.Unmarshal([]byte(leadDays), &s.ReminderLeadDays); err != nil {
		return models.Settings{}, fmt.Errorf("failed to decode reminder lead days: %w", err)
	}
	if err := json.Unmarshal([]byte(flags), &s.FeatureFlags); err != nil {
		return models.Settings{}, fmt.Errorf("failed to decode feature flags: %w", err)
	}
	s.CloudAutoSync = autoSync != 0
	return s, nil
}

func (r *SQLiteRepository) Upsert(ctx context.Context, s models.Settings) error {
	leadDays, err := json.Marshal(models.SanitizeLeadDays(s.ReminderLeadDays))
	if err != nil {
		return fmt.Errorf("failed to encode reminder lead days: %w", err)
	}
	flags := []byte("{}")
	if s.FeatureFlags != nil {
		if flags, err = json.Marshal(s.FeatureFlags); err != nil {
			return fmt.Errorf("failed to encode feature flags: %w", err)
		}
	}
	autoSync := 0
	if s.CloudAutoSync {
		autoSync = 1
	}

	var id int64
	err = r.db.QueryRowContext(ctx, `SELECT id FROM settings ORDER BY id LIMIT 1`).Scan(&id)
	if errors.Is(err, sql.ErrNoRows) {
		_, err = r.db.ExecContext(ctx, `INSERT INTO settings (username, app_name, company_name, contact_email, timezone, reminder_lead_days, feature_flags, cloud_user_id, cloud_user_email, cloud_last_synced_at, cloud_auto_sync)
			VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
			s.Username, s.AppName, s.CompanyName, s.ContactEmail, s.Timezone,
			string(leadDays), string(flags), s.CloudUserID, s.CloudUserEmail, s.CloudLastSyncedAt, autoSync)
		if err != nil {
			return fmt.Errorf("failed to insert settings: %w", err)
		}
		return nil
	}
	if err != nil {
		return fmt.Errorf("failed to look up settings row: %w", err)
	}

	_, err = r.db.ExecContext(ctx, `UPDATE settings SET username=?, app_name=?, company_name=?, contact_email=?, timezone=?, reminder_lead_days=?, feature_flags=?, cloud_user_id=?, cloud_user_email=?, cloud_last_synced_at=?, cloud_auto_sync=? WHERE id=?`,
		s.Username, s.AppName, s.CompanyName, s.ContactEmail, s.Timezone,
		string(leadDays), string(flags), s.CloudUserID, s.CloudUserEmail, s.CloudLastSyncedAt, autoSync, id)
	if err != nil {
		return fmt.Errorf("failed to update settings: %w", err)
	}
	return nil
}

func (r *SQLiteRepository) Clear(ctx context.Context) error {
	if _, err := r.db.ExecContext(ctx, `DELETE FROM settings`); err != nil {
		return fmt.Errorf("failed to clear settings: %w", err)
	}
	return nil
}
