// Package syncstatus publishes the sync engine's observable state to the UI
// layer. It is a small pub/sub state holder, decoupled from the orchestrator:
// the orchestrator and watcher write states, any number of observers read
// them.
package syncstatus

import "sync"

// State is the sync engine's externally visible condition.
type State string

const (
	StateIdle           State = "idle"
	StateSyncing        State = "syncing"
	StateSynced         State = "synced"
	StateOfflinePending State = "offline-pending"
	StateError          State = "error"
)

// Snapshot is the full status value delivered to observers.
type Snapshot struct {
	State        State
	LastSyncedAt int64 // unix millis, 0 = never
	Message      string
}

// Listener receives status snapshots.
type Listener func(Snapshot)

// Publisher holds the current status snapshot and fans updates out to
// subscribers. Subscribing delivers the current snapshot immediately, so an
// observer attached after a transition still sees the latest state.
type Publisher struct {
	mu        sync.Mutex
	current   Snapshot
	listeners map[int]Listener
	nextID    int
}

func NewPublisher() *Publisher {
	return &Publisher{
		current:   Snapshot{State: StateIdle},
		listeners: map[int]Listener{},
	}
}

// Get returns the current snapshot.
func (p *Publisher) Get() Snapshot {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.current
}

// Set replaces the current snapshot and notifies all subscribers.
func (p *Publisher) Set(next Snapshot) {
	p.mu.Lock()
	if next.LastSyncedAt == 0 {
		// carry the last successful sync time across transitions
		next.LastSyncedAt = p.current.LastSyncedAt
	}
	p.current = next
	fns := make([]Listener, 0, len(p.listeners))
	for _, fn := range p.listeners {
		fns = append(fns, fn)
	}
	p.mu.Unlock()

	for _, fn := range fns {
		fn(next)
	}
}

// Subscribe registers fn, delivers the current snapshot to it immediately,
// and returns an unsubscribe func.
func (p *Publisher) Subscribe(fn Listener) func() {
	p.mu.Lock()
	id := p.nextID
	p.nextID++
	p.listeners[id] = fn
	cur := p.current
	p.mu.Unlock()

	fn(cur)

	return func() {
		p.mu.Lock()
		defer p.mu.Unlock()
		delete(p.listeners, id)
	}
}
