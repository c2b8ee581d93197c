package settings_test

import (
	"context"
	"database/sql"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/mpopescu/autochecks/internal/client/models"
	"github.com/mpopescu/autochecks/internal/client/repositories/settings"
	"github.com/mpopescu/autochecks/internal/client/store"
)

func newTestDB(t *testing.T) *sql.DB {
	t.Helper()
	db, err := store.Open(context.Background(), filepath.Join(t.TempDir(), "test.db"))
	require.NoError(t, err)
	t.Cleanup(func() { _ = db.Close() })
	return db
}

func TestGetWithoutRowReturnsZeroValue(t *testing.T) {
	ctx := context.Background()
	r := settings.NewSQLiteRepository(newTestDB(t))

	got, err := r.Get(ctx)
	require.NoError(t, err)
	assert.Equal(t, models.Settings{}, got)
}

func TestUpsertRoundTrip(t *testing.T) {
	ctx := context.Background()
	r := settings.NewSQLiteRepository(newTestDB(t))

	s := models.Settings{
		Username:         "ana",
		CompanyName:      "Ana Trans SRL",
		Timezone:         "Europe/Bucharest",
		ReminderLeadDays: []int{30, 7, 1},
		FeatureFlags:     map[string]bool{"cloudSync": true},
		CloudUserID:      "u-1",
		CloudUserEmail:   "ana@example.com",
		CloudAutoSync:    true,
	}
	require.NoError(t, r.Upsert(ctx, s))

	got, err := r.Get(ctx)
	require.NoError(t, err)
	assert.Equal(t, "ana", got.Username)
	assert.Equal(t, "Europe/Bucharest", got.Timezone)
	// stored sanitized: sorted ascending
	assert.Equal(t, []int{1, 7, 30}, got.ReminderLeadDays)
	assert.Equal(t, map[string]bool{"cloudSync": true}, got.FeatureFlags)
	assert.Equal(t, "u-1", got.CloudUserID)
	assert.True(t, got.CloudAutoSync)
}

func TestUpsertKeepsSingleRow(t *testing.T) {
	ctx := context.Background()
	r := settings.NewSQLiteRepository(newTestDB(t))

	require.NoError(t, r.Upsert(ctx, models.Settings{Username: "first"}))
	require.NoError(t, r.Upsert(ctx, models.Settings{Username: "second"}))

	got, err := r.Get(ctx)
	require.NoError(t, err)
	assert.Equal(t, "second", got.Username)
}

func TestClear(t *testing.T) {
	ctx := context.Background()
	r := settings.NewSQLiteRepository(newTestDB(t))

	require.NoError(t, r.Upsert(ctx, models.Settings{Username: "ana"}))
	require.NoError(t, r.Clear(ctx))

	got, err := r.Get(ctx)
	require.NoError(t, err)
	assert.Equal(t, models.Settings{}, got)
}
