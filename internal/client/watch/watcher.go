// Package watch reacts to local data changes by scheduling cloud pushes.
// Writes coming back from the sync engine are tagged with their origin and
// never reschedule a push, which is what keeps the write-push loop from
// feeding itself.
package watch

import (
	"context"
	"sync"
	"time"

	"github.com/mpopescu/autochecks/internal/client/store"
	"github.com/mpopescu/autochecks/internal/client/syncstatus"
	"github.com/mpopescu/autochecks/internal/logging"
	"github.com/mpopescu/autochecks/internal/netx"
)

// DefaultDebounce is how long the watcher waits after the last user write
// before pushing. A burst of edits collapses into a single upload.
const DefaultDebounce = 900 * time.Millisecond

// Pusher uploads the local state to the cloud.
type Pusher interface {
	Push(ctx context.Context) error
}

// Flusher replays requests queued while offline.
type Flusher interface {
	Flush(ctx context.Context) (int, error)
}

// Watcher subscribes to store events and schedules debounced pushes for
// user-originated writes while auto-sync is enabled for a signed-in account.
type Watcher struct {
	store    *store.Store
	pusher   Pusher
	flusher  Flusher
	prober   netx.Prober
	status   *syncstatus.Publisher
	logger   logging.Logger
	debounce time.Duration

	ctx         context.Context
	unsubscribe func()

	mu      sync.Mutex
	timer   *time.Timer
	pending bool
}

func NewWatcher(s *store.Store, pusher Pusher, flusher Flusher, prober netx.Prober,
	status *syncstatus.Publisher, logger logging.Logger, debounce time.Duration) *Watcher {
	if debounce <= 0 {
		debounce = DefaultDebounce
	}
	return &Watcher{
		store:    s,
		pusher:   pusher,
		flusher:  flusher,
		prober:   prober,
		status:   status,
		logger:   logger,
		debounce: debounce,
	}
}

// Start begins watching store events. ctx bounds all pushes the watcher
// initiates.
func (w *Watcher) Start(ctx context.Context) {
	w.ctx = ctx
	w.unsubscribe = w.store.Subscribe(w.onEvent)
}

// Stop cancels any scheduled push and detaches from the store.
func (w *Watcher) Stop() {
	if w.unsubscribe != nil {
		w.unsubscribe()
		w.unsubscribe = nil
	}
	w.mu.Lock()
	defer w.mu.Unlock()
	if w.timer != nil {
		w.timer.Stop()
		w.timer = nil
	}
}

// Pending reports whether a push is waiting for connectivity.
func (w *Watcher) Pending() bool {
	w.mu.Lock()
	defer w.mu.Unlock()
	return w.pending
}

func (w *Watcher) onEvent(e store.Event) {
	if e.Origin == store.OriginSync {
		return
	}
	if !w.enabled() {
		return
	}
	w.schedule()
}

// enabled requires a signed-in account with auto-sync turned on.
func (w *Watcher) enabled() bool {
	st, err := w.store.Settings(w.ctx)
	if err != nil {
		w.logger.Warn(w.ctx, "watcher settings read failed", "error", err)
		return false
	}
	return st.CloudUserID != "" && st.CloudAutoSync
}

// schedule restarts the debounce window. Each user write within the window
// cancels the previous timer, so only the trailing edge fires. When the
// device is offline the push is not scheduled at all, just marked pending.
func (w *Watcher) schedule() {
	w.mu.Lock()
	defer w.mu.Unlock()

	if w.timer != nil {
		w.timer.Stop()
		w.timer = nil
	}

	if !w.prober.Online(w.ctx) {
		w.pending = true
		w.status.Set(syncstatus.Snapshot{
			State:   syncstatus.StateOfflinePending,
			Message: "Offline. Changes are waiting to sync.",
		})
		return
	}

	w.timer = time.AfterFunc(w.debounce, w.fire)
}

func (w *Watcher) fire() {
	w.mu.Lock()
	w.timer = nil
	w.mu.Unlock()

	if err := w.pusher.Push(w.ctx); err != nil {
		w.mu.Lock()
		w.pending = true
		w.mu.Unlock()
		w.logger.Warn(w.ctx, "debounced push failed", "error", err)
		return
	}

	w.mu.Lock()
	w.pending = false
	w.mu.Unlock()
}

// ConnectivityRestored is called when the device comes back online. It
// replays the offline queue first, then runs exactly one push if any change
// was pending, no matter how many writes accumulated offline.
func (w *Watcher) ConnectivityRestored(ctx context.Context) {
	if n, err := w.flusher.Flush(ctx); err != nil {
		w.logger.Warn(ctx, "offline queue flush failed", "delivered", n, "error", err)
	} else if n > 0 {
		w.logger.Info(ctx, "offline queue flushed", "delivered", n)
	}

	w.mu.Lock()
	pending := w.pending
	w.pending = false
	w.mu.Unlock()

	if !pending {
		return
	}
	if err := w.pusher.Push(ctx); err != nil {
		w.mu.Lock()
		w.pending = true
		w.mu.Unlock()
		w.logger.Warn(ctx, "pending push after reconnect failed", "error", err)
	}
}
