// Package store wires the three local collections (vehicles, checks,
// settings) into one transactional facade and exposes a hook mechanism for
// observing writes.
//
// Every write carries an Origin tag. User-originated writes come from the UI
// layer (the CLI); sync-originated writes come from the orchestrator applying
// a pulled or merged snapshot. The mutation watcher decides whether to trigger
// a push purely from that tag, so there is no global suppression flag.
package store

import (
	"context"
	"database/sql"
	"fmt"
	"sync"

	"github.com/mpopescu/autochecks/internal/client/models"
	"github.com/mpopescu/autochecks/internal/client/repositories/checks"
	"github.com/mpopescu/autochecks/internal/client/repositories/settings"
	"github.com/mpopescu/autochecks/internal/client/repositories/vehicles"
	"github.com/mpopescu/autochecks/internal/dbx"
)

// Origin tags who performed a local write.
type Origin string

const (
	OriginUser Origin = "user"
	OriginSync Origin = "sync"
)

// Op is the kind of mutation.
type Op string

const (
	OpCreate  Op = "create"
	OpUpdate  Op = "update"
	OpDelete  Op = "delete"
	OpReplace Op = "replace"
)

// Collection names as used in events.
const (
	CollectionVehicles = "vehicles"
	CollectionChecks   = "checks"
	CollectionSettings = "settings"
)

// Event describes one observed mutation.
type Event struct {
	Collection string
	Op         Op
	Origin     Origin
}

// Listener receives mutation events. Listeners are invoked synchronously on
// the writing goroutine and must not write back into the store.
type Listener func(Event)

// Store is the transactional facade over the local collections.
type Store struct {
	db *sql.DB

	vehicles vehicles.Repository
	checks   checks.Repository
	settings settings.Repository

	mu        sync.Mutex
	listeners map[int]Listener
	nextID    int
}

// New returns a Store over db. The repositories default to the SQLite
// implementations bound to db.
func New(db *sql.DB) *Store {
	return &Store{
		db:        db,
		vehicles:  vehicles.NewSQLiteRepository(db),
		checks:    checks.NewSQLiteRepository(db),
		settings:  settings.NewSQLiteRepository(db),
		listeners: map[int]Listener{},
	}
}

// Subscribe registers fn for mutation events and returns an unsubscribe func.
func (s *Store) Subscribe(fn Listener) func() {
	s.mu.Lock()
	defer s.mu.Unlock()
	id := s.nextID
	s.nextID++
	s.listeners[id] = fn
	return func() {
		s.mu.Lock()
		defer s.mu.Unlock()
		delete(s.listeners, id)
	}
}

func (s *Store) notify(e Event) {
	s.mu.Lock()
	fns := make([]Listener, 0, len(s.listeners))
	for _, fn := range s.listeners {
		fns = append(fns, fn)
	}
	s.mu.Unlock()
	for _, fn := range fns {
		fn(e)
	}
}

// SaveVehicle inserts or updates a vehicle and emits a mutation event.
func (s *Store) SaveVehicle(ctx context.Context, v *models.Vehicle, origin Origin) error {
	op := OpUpdate
	if v.ID == 0 {
		op = OpCreate
	}
	if err := s.vehicles.Upsert(ctx, v); err != nil {
		return err
	}
	s.notify(Event{Collection: CollectionVehicles, Op: op, Origin: origin})
	return nil
}

// DeleteVehicle soft-deletes a vehicle.
func (s *Store) DeleteVehicle(ctx context.Context, id int64, deletedAt int64, origin Origin) error {
	if err := s.vehicles.SoftDelete(ctx, id, deletedAt); err != nil {
		return err
	}
	s.notify(Event{Collection: CollectionVehicles, Op: OpDelete, Origin: origin})
	return nil
}

// AddCheck inserts a check.
func (s *Store) AddCheck(ctx context.Context, c *models.Check, origin Origin) error {
	if err := s.checks.Insert(ctx, c); err != nil {
		return err
	}
	s.notify(Event{Collection: CollectionChecks, Op: OpCreate, Origin: origin})
	return nil
}

// UpsertSettings writes the settings row.
func (s *Store) UpsertSettings(ctx context.Context, st models.Settings, origin Origin) error {
	if err := s.settings.Upsert(ctx, st); err != nil {
		return err
	}
	s.notify(Event{Collection: CollectionSettings, Op: OpUpdate, Origin: origin})
	return nil
}

// Vehicles returns every vehicle, including soft-deleted rows.
func (s *Store) Vehicles(ctx context.Context) ([]models.Vehicle, error) {
	return s.vehicles.GetAll(ctx)
}

// ActiveVehicles returns vehicles without a soft-delete marker.
func (s *Store) ActiveVehicles(ctx context.Context) ([]models.Vehicle, error) {
	return s.vehicles.GetActive(ctx)
}

// Vehicle returns one vehicle by id.
func (s *Store) Vehicle(ctx context.Context, id int64) (*models.Vehicle, error) {
	return s.vehicles.GetByID(ctx, id)
}

// Checks returns every check.
func (s *Store) Checks(ctx context.Context) ([]models.Check, error) {
	return s.checks.GetAll(ctx)
}

// ChecksForVehicle returns the checks of one vehicle, newest first.
func (s *Store) ChecksForVehicle(ctx context.Context, vehicleID int64) ([]models.Check, error) {
	return s.checks.GetByVehicle(ctx, vehicleID)
}

// Settings returns the settings row (zero value when none exists yet).
func (s *Store) Settings(ctx context.Context) (models.Settings, error) {
	return s.settings.Get(ctx)
}

// ReplaceAll atomically replaces the three collections with the snapshot
// contents: either all three are fully replaced or none are. A single
// OpReplace event per collection is emitted after commit.
func (s *Store) ReplaceAll(ctx context.Context, snap models.Snapshot, origin Origin) error {
	err := dbx.WithTx(ctx, s.db, nil, func(ctx context.Context, tx dbx.DBTX) error {
		vr := vehicles.NewSQLiteRepository(tx)
		cr := checks.NewSQLiteRepository(tx)
		sr := settings.NewSQLiteRepository(tx)

		if err := vr.Clear(ctx); err != nil {
			return err
		}
		if err := cr.Clear(ctx); err != nil {
			return err
		}
		if err := sr.Clear(ctx); err != nil {
			return err
		}

		if err := vr.BulkInsert(ctx, snap.Vehicles); err != nil {
			return err
		}
		if err := cr.BulkInsert(ctx, snap.Checks); err != nil {
			return err
		}
		return sr.Upsert(ctx, snap.Settings)
	})
	if err != nil {
		return fmt.Errorf("failed to replace local collections: %w", err)
	}

	for _, coll := range []string{CollectionVehicles, CollectionChecks, CollectionSettings} {
		s.notify(Event{Collection: coll, Op: OpReplace, Origin: origin})
	}
	return nil
}

// Reset clears the three collections and installs the given settings as the
// only row. Used right after sign-in when the new account has no cloud
// snapshot, so a previous account's data cannot leak into it.
func (s *Store) Reset(ctx context.Context, st models.Settings, origin Origin) error {
	return s.ReplaceAll(ctx, models.Snapshot{SchemaVersion: models.SchemaVersion, Settings: st}, origin)
}

// DB exposes the underlying handle for collaborators that keep their own
// tables in the client database (the network queue).
func (s *Store) DB() *sql.DB { return s.db }
