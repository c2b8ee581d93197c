package watch

import (
	"context"
	"io"
	"path/filepath"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/mpopescu/autochecks/internal/client/models"
	"github.com/mpopescu/autochecks/internal/client/store"
	"github.com/mpopescu/autochecks/internal/client/syncstatus"
	"github.com/mpopescu/autochecks/internal/logging"
	"github.com/mpopescu/autochecks/internal/netx"
)

const testDebounce = 40 * time.Millisecond

type countingPusher struct {
	pushes atomic.Int32
	err    error
}

func (p *countingPusher) Push(ctx context.Context) error {
	p.pushes.Add(1)
	return p.err
}

type countingFlusher struct {
	flushes atomic.Int32
	n       int
}

func (f *countingFlusher) Flush(ctx context.Context) (int, error) {
	f.flushes.Add(1)
	return f.n, nil
}

func newTestStore(t *testing.T) *store.Store {
	t.Helper()
	db, err := store.Open(context.Background(), filepath.Join(t.TempDir(), "test.db"))
	require.NoError(t, err)
	t.Cleanup(func() { _ = db.Close() })
	return store.New(db)
}

// enableAutoSync links an account and turns auto-sync on, before the watcher
// is started so the settings write itself does not schedule anything.
func enableAutoSync(t *testing.T, s *store.Store) {
	t.Helper()
	ctx := context.Background()
	settings, err := s.Settings(ctx)
	require.NoError(t, err)
	settings.CloudUserID = "acc-1"
	settings.CloudAutoSync = true
	require.NoError(t, s.UpsertSettings(ctx, settings, store.OriginSync))
}

func startWatcher(t *testing.T, s *store.Store, pusher *countingPusher, flusher *countingFlusher, online bool) (*Watcher, *syncstatus.Publisher) {
	t.Helper()
	status := syncstatus.NewPublisher()
	prober := netx.ProberFunc(func(ctx context.Context) bool { return online })
	w := NewWatcher(s, pusher, flusher, prober, status, logging.NewText(io.Discard), testDebounce)
	w.Start(context.Background())
	t.Cleanup(w.Stop)
	return w, status
}

func saveVehicle(t *testing.T, s *store.Store, plate string, origin store.Origin) {
	t.Helper()
	v := models.Vehicle{Plate: plate, CreatedAt: time.Now().UnixMilli()}
	require.NoError(t, s.SaveVehicle(context.Background(), &v, origin))
}

func waitForPushes(t *testing.T, p *countingPusher, want int32) {
	t.Helper()
	deadline := time.Now().Add(2 * time.Second)
	for time.Now().Before(deadline) {
		if p.pushes.Load() >= want {
			return
		}
		time.Sleep(5 * time.Millisecond)
	}
	t.Fatalf("expected %d pushes, got %d", want, p.pushes.Load())
}

func TestWatcher_BurstCollapsesToOnePush(t *testing.T) {
	s := newTestStore(t)
	enableAutoSync(t, s)
	pusher := &countingPusher{}
	startWatcher(t, s, pusher, &countingFlusher{}, true)

	saveVehicle(t, s, "B-101-XYZ", store.OriginUser)
	saveVehicle(t, s, "CJ-22-ABC", store.OriginUser)
	saveVehicle(t, s, "TM-33-DEF", store.OriginUser)

	waitForPushes(t, pusher, 1)
	time.Sleep(3 * testDebounce)
	assert.Equal(t, int32(1), pusher.pushes.Load(), "burst must collapse into one push")
}

func TestWatcher_IgnoresSyncOriginatedWrites(t *testing.T) {
	s := newTestStore(t)
	enableAutoSync(t, s)
	pusher := &countingPusher{}
	startWatcher(t, s, pusher, &countingFlusher{}, true)

	saveVehicle(t, s, "B-101-XYZ", store.OriginSync)

	time.Sleep(3 * testDebounce)
	assert.Zero(t, pusher.pushes.Load(), "sync-originated writes must not reschedule a push")
}

func TestWatcher_DisabledWithoutAccount(t *testing.T) {
	s := newTestStore(t)
	pusher := &countingPusher{}
	startWatcher(t, s, pusher, &countingFlusher{}, true)

	saveVehicle(t, s, "B-101-XYZ", store.OriginUser)

	time.Sleep(3 * testDebounce)
	assert.Zero(t, pusher.pushes.Load())
}

func TestWatcher_OfflineMarksPending(t *testing.T) {
	s := newTestStore(t)
	enableAutoSync(t, s)
	pusher := &countingPusher{}
	w, status := startWatcher(t, s, pusher, &countingFlusher{}, false)

	saveVehicle(t, s, "B-101-XYZ", store.OriginUser)

	time.Sleep(3 * testDebounce)
	assert.Zero(t, pusher.pushes.Load(), "no push attempt while offline")
	assert.True(t, w.Pending())
	assert.Equal(t, syncstatus.StateOfflinePending, status.Get().State)
}

func TestWatcher_ConnectivityRestored(t *testing.T) {
	s := newTestStore(t)
	enableAutoSync(t, s)
	pusher := &countingPusher{}
	flusher := &countingFlusher{n: 2}
	w, _ := startWatcher(t, s, pusher, flusher, false)

	// Several writes accumulate while offline.
	saveVehicle(t, s, "B-101-XYZ", store.OriginUser)
	saveVehicle(t, s, "CJ-22-ABC", store.OriginUser)
	time.Sleep(2 * testDebounce)
	require.True(t, w.Pending())

	w.ConnectivityRestored(context.Background())

	assert.Equal(t, int32(1), flusher.flushes.Load(), "offline queue replays first")
	assert.Equal(t, int32(1), pusher.pushes.Load(), "exactly one push regardless of offline write count")
	assert.False(t, w.Pending())
}

func TestWatcher_ConnectivityRestoredWithNothingPending(t *testing.T) {
	s := newTestStore(t)
	enableAutoSync(t, s)
	pusher := &countingPusher{}
	flusher := &countingFlusher{}
	w, _ := startWatcher(t, s, pusher, flusher, true)

	w.ConnectivityRestored(context.Background())

	assert.Equal(t, int32(1), flusher.flushes.Load())
	assert.Zero(t, pusher.pushes.Load(), "no pending change, no push")
}

func TestWatcher_StopCancelsScheduledPush(t *testing.T) {
	s := newTestStore(t)
	enableAutoSync(t, s)
	pusher := &countingPusher{}
	w, _ := startWatcher(t, s, pusher, &countingFlusher{}, true)

	saveVehicle(t, s, "B-101-XYZ", store.OriginUser)
	w.Stop()

	time.Sleep(3 * testDebounce)
	assert.Zero(t, pusher.pushes.Load())
}
