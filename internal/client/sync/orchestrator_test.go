package sync

import (
	"context"
	"encoding/json"
	"io"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/mpopescu/autochecks/internal/client/client"
	"github.com/mpopescu/autochecks/internal/client/models"
	"github.com/mpopescu/autochecks/internal/client/store"
	"github.com/mpopescu/autochecks/internal/client/syncstatus"
	"github.com/mpopescu/autochecks/internal/logging"
)

// fakeBackend is an in-memory client.Client holding the single snapshot row
// the way the server does.
type fakeBackend struct {
	accountID string
	row       *models.SnapshotRow
	uploads   int
	err       error
}

func (f *fakeBackend) Register(ctx context.Context, email, password string) error { return f.err }

func (f *fakeBackend) Login(ctx context.Context, email, password string) (*client.Session, error) {
	return &client.Session{AccountID: f.accountID, Email: email}, f.err
}

func (f *fakeBackend) Logout() {}

func (f *fakeBackend) CurrentAccountID(ctx context.Context) (string, error) {
	if f.err != nil {
		return "", f.err
	}
	return f.accountID, nil
}

func (f *fakeBackend) Ping(ctx context.Context) error { return f.err }

func (f *fakeBackend) FetchSnapshot(ctx context.Context) (*models.SnapshotRow, error) {
	if f.err != nil {
		return nil, f.err
	}
	if f.row == nil {
		return nil, nil
	}
	row := *f.row
	return &row, nil
}

func (f *fakeBackend) UploadSnapshot(ctx context.Context, payload json.RawMessage) (time.Time, error) {
	if f.err != nil {
		return time.Time{}, f.err
	}
	f.uploads++
	f.row = &models.SnapshotRow{AccountID: f.accountID, Payload: payload, UpdatedAt: time.Now()}
	return f.row.UpdatedAt, nil
}

func newTestStore(t *testing.T) *store.Store {
	t.Helper()
	ctx := context.Background()
	db, err := store.Open(ctx, filepath.Join(t.TempDir(), "test.db"))
	require.NoError(t, err)
	t.Cleanup(func() { _ = db.Close() })
	return store.New(db)
}

func newTestOrchestrator(t *testing.T, s *store.Store, backend *fakeBackend) (*Orchestrator, *syncstatus.Publisher) {
	t.Helper()
	logger := logging.NewText(io.Discard)
	status := syncstatus.NewPublisher()
	return NewOrchestrator(s, backend, NewCodec(logger), status, logger), status
}

func seedVehicle(t *testing.T, s *store.Store, plate string) {
	t.Helper()
	v := models.Vehicle{Plate: plate, CreatedAt: time.Now().UnixMilli(), UpdatedAt: time.Now().UnixMilli()}
	require.NoError(t, s.SaveVehicle(context.Background(), &v, store.OriginUser))
}

func TestSmartSync_FirstSyncPushesNew(t *testing.T) {
	ctx := context.Background()
	s := newTestStore(t)
	seedVehicle(t, s, "B-101-XYZ")
	backend := &fakeBackend{accountID: "acc-1"}
	orch, status := newTestOrchestrator(t, s, backend)

	res, err := orch.SmartSync(ctx)
	require.NoError(t, err)
	assert.Equal(t, ResultPushedNew, res)
	require.NotNil(t, backend.row)

	var uploaded models.Snapshot
	require.NoError(t, json.Unmarshal(backend.row.Payload, &uploaded))
	require.Len(t, uploaded.Vehicles, 1)
	assert.Equal(t, "B-101-XYZ", uploaded.Vehicles[0].Plate)

	snap := status.Get()
	assert.Equal(t, syncstatus.StateSynced, snap.State)
	assert.NotZero(t, snap.LastSyncedAt)

	settings, err := s.Settings(ctx)
	require.NoError(t, err)
	assert.NotZero(t, settings.CloudLastSyncedAt)
}

func TestSmartSync_TwoDevicesConverge(t *testing.T) {
	ctx := context.Background()
	backend := &fakeBackend{accountID: "acc-1"}

	deviceA := newTestStore(t)
	seedVehicle(t, deviceA, "B-101-XYZ")
	orchA, _ := newTestOrchestrator(t, deviceA, backend)

	deviceB := newTestStore(t)
	seedVehicle(t, deviceB, "CJ-22-ABC")
	orchB, _ := newTestOrchestrator(t, deviceB, backend)

	res, err := orchA.SmartSync(ctx)
	require.NoError(t, err)
	assert.Equal(t, ResultPushedNew, res)

	res, err = orchB.SmartSync(ctx)
	require.NoError(t, err)
	assert.Equal(t, ResultPulled, res)

	res, err = orchA.SmartSync(ctx)
	require.NoError(t, err)
	assert.Equal(t, ResultPulled, res)

	vehiclesA, err := deviceA.Vehicles(ctx)
	require.NoError(t, err)
	vehiclesB, err := deviceB.Vehicles(ctx)
	require.NoError(t, err)

	require.Len(t, vehiclesA, 2)
	require.Len(t, vehiclesB, 2)
	for i := range vehiclesA {
		assert.Equal(t, vehiclesA[i].Plate, vehiclesB[i].Plate)
		assert.Equal(t, vehiclesA[i].ID, vehiclesB[i].ID)
	}
}

func TestSmartSync_MergesInsteadOfOverwriting(t *testing.T) {
	ctx := context.Background()
	backend := &fakeBackend{accountID: "acc-1"}

	remote := models.Snapshot{
		SchemaVersion: models.SchemaVersion,
		Vehicles:      []models.Vehicle{{ID: 1, Plate: "TM-33-DEF", CreatedAt: 1000}},
	}
	payload, err := json.Marshal(remote)
	require.NoError(t, err)
	backend.row = &models.SnapshotRow{AccountID: "acc-1", Payload: payload, UpdatedAt: time.Now()}

	s := newTestStore(t)
	seedVehicle(t, s, "B-101-XYZ")
	orch, _ := newTestOrchestrator(t, s, backend)

	res, err := orch.SmartSync(ctx)
	require.NoError(t, err)
	assert.Equal(t, ResultPulled, res)

	vehicles, err := s.Vehicles(ctx)
	require.NoError(t, err)
	require.Len(t, vehicles, 2, "neither side's vehicle may be dropped")
	assert.Equal(t, 1, backend.uploads, "merged result is pushed back")
}

func TestPull(t *testing.T) {
	ctx := context.Background()
	backend := &fakeBackend{accountID: "acc-1"}
	s := newTestStore(t)
	orch, _ := newTestOrchestrator(t, s, backend)

	res, err := orch.Pull(ctx)
	require.NoError(t, err)
	assert.Equal(t, ResultEmpty, res)

	remote := models.Snapshot{
		SchemaVersion: models.SchemaVersion,
		Vehicles:      []models.Vehicle{{ID: 1, Plate: "TM-33-DEF", CreatedAt: 1000}},
	}
	payload, err := json.Marshal(remote)
	require.NoError(t, err)
	backend.row = &models.SnapshotRow{AccountID: "acc-1", Payload: payload, UpdatedAt: time.Now()}

	seedVehicle(t, s, "B-101-XYZ")

	res, err = orch.Pull(ctx)
	require.NoError(t, err)
	assert.Equal(t, ResultApplied, res)

	vehicles, err := s.Vehicles(ctx)
	require.NoError(t, err)
	require.Len(t, vehicles, 1, "pull replaces, it does not merge")
	assert.Equal(t, "TM-33-DEF", vehicles[0].Plate)
}

func TestPull_PreservesAccountLinkage(t *testing.T) {
	ctx := context.Background()
	backend := &fakeBackend{accountID: "acc-1"}
	s := newTestStore(t)

	settings, err := s.Settings(ctx)
	require.NoError(t, err)
	settings.CloudUserID = "acc-1"
	settings.CloudUserEmail = "ana@example.com"
	require.NoError(t, s.UpsertSettings(ctx, settings, store.OriginUser))

	remote := models.Snapshot{SchemaVersion: models.SchemaVersion, Settings: models.Settings{Username: "remote"}}
	payload, err := json.Marshal(remote)
	require.NoError(t, err)
	backend.row = &models.SnapshotRow{AccountID: "acc-1", Payload: payload, UpdatedAt: time.Now()}

	orch, _ := newTestOrchestrator(t, s, backend)
	_, err = orch.Pull(ctx)
	require.NoError(t, err)

	settings, err = s.Settings(ctx)
	require.NoError(t, err)
	assert.Equal(t, "remote", settings.Username)
	assert.Equal(t, "acc-1", settings.CloudUserID, "cloud identity is local bookkeeping")
	assert.Equal(t, "ana@example.com", settings.CloudUserEmail)
}

func TestHydrateForAccount_NoRemoteResetsToBlank(t *testing.T) {
	ctx := context.Background()
	backend := &fakeBackend{accountID: "acc-2"}
	s := newTestStore(t)
	seedVehicle(t, s, "B-101-XYZ") // previous account's data

	orch, _ := newTestOrchestrator(t, s, backend)
	res, err := orch.HydrateForAccount(ctx, "acc-2", "bob@example.com")
	require.NoError(t, err)
	assert.Equal(t, ResultEmpty, res)

	vehicles, err := s.Vehicles(ctx)
	require.NoError(t, err)
	assert.Empty(t, vehicles, "signing in to a fresh account must not inherit data")

	settings, err := s.Settings(ctx)
	require.NoError(t, err)
	assert.Equal(t, "acc-2", settings.CloudUserID)
	assert.Equal(t, "bob@example.com", settings.CloudUserEmail)
}

func TestHydrateForAccount_AppliesRemote(t *testing.T) {
	ctx := context.Background()
	backend := &fakeBackend{accountID: "acc-1"}
	remote := models.Snapshot{
		SchemaVersion: models.SchemaVersion,
		Vehicles:      []models.Vehicle{{ID: 1, Plate: "TM-33-DEF", CreatedAt: 1000}},
	}
	payload, err := json.Marshal(remote)
	require.NoError(t, err)
	backend.row = &models.SnapshotRow{AccountID: "acc-1", Payload: payload, UpdatedAt: time.Now()}

	s := newTestStore(t)
	orch, _ := newTestOrchestrator(t, s, backend)

	res, err := orch.HydrateForAccount(ctx, "acc-1", "ana@example.com")
	require.NoError(t, err)
	assert.Equal(t, ResultApplied, res)

	vehicles, err := s.Vehicles(ctx)
	require.NoError(t, err)
	require.Len(t, vehicles, 1)

	settings, err := s.Settings(ctx)
	require.NoError(t, err)
	assert.Equal(t, "acc-1", settings.CloudUserID)
}

func TestSync_OfflinePublishesOfflinePending(t *testing.T) {
	ctx := context.Background()
	backend := &fakeBackend{accountID: "acc-1", err: client.ErrOffline}
	s := newTestStore(t)
	orch, status := newTestOrchestrator(t, s, backend)

	_, err := orch.SmartSync(ctx)
	require.ErrorIs(t, err, client.ErrOffline)
	assert.Equal(t, syncstatus.StateOfflinePending, status.Get().State)
}

func TestSync_FailurePublishesError(t *testing.T) {
	ctx := context.Background()
	backend := &fakeBackend{accountID: "acc-1", err: client.ErrUnauthorized}
	s := newTestStore(t)
	orch, status := newTestOrchestrator(t, s, backend)

	err := orch.Push(ctx)
	require.ErrorIs(t, err, client.ErrUnauthorized)
	assert.Equal(t, syncstatus.StateError, status.Get().State)
}
