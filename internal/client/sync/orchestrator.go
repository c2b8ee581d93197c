package sync

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/mpopescu/autochecks/internal/client/client"
	"github.com/mpopescu/autochecks/internal/client/models"
	"github.com/mpopescu/autochecks/internal/client/store"
	"github.com/mpopescu/autochecks/internal/client/syncstatus"
	"github.com/mpopescu/autochecks/internal/logging"
)

// Result is the sync outcome vocabulary exposed to the UI layer.
type Result string

const (
	// ResultPushedNew means the first snapshot for this account was created.
	ResultPushedNew Result = "pushed-new"
	// ResultPulled means remote existed; merged state applied and pushed back.
	ResultPulled Result = "pulled"
	// ResultApplied means the remote snapshot was applied locally as-is.
	ResultApplied Result = "applied"
	// ResultEmpty means the account has no remote snapshot.
	ResultEmpty Result = "empty"
)

// Orchestrator drives the remote round trip: deciding between push, pull and
// merge, applying results locally, and recording sync metadata. Every
// operation publishes syncing and a terminal status.
//
// Operations serialize on an internal mutex: one round trip per account at a
// time, so a debounced auto-push firing during a manual sync queues behind it
// instead of racing on the local-collection replacement.
type Orchestrator struct {
	store  *store.Store
	client client.Client
	codec  *Codec
	status *syncstatus.Publisher
	logger logging.Logger

	mu sync.Mutex

	now func() time.Time // test seam
}

func NewOrchestrator(s *store.Store, c client.Client, codec *Codec, status *syncstatus.Publisher, logger logging.Logger) *Orchestrator {
	return &Orchestrator{
		store:  s,
		client: c,
		codec:  codec,
		status: status,
		logger: logger,
		now:    time.Now,
	}
}

func (o *Orchestrator) nowMillis() int64 { return o.now().UnixMilli() }

// begin publishes the syncing state; finish publishes the terminal state for
// err (with the offline case mapping to offline-pending, not error).
func (o *Orchestrator) begin() {
	o.status.Set(syncstatus.Snapshot{State: syncstatus.StateSyncing})
}

func (o *Orchestrator) finish(err error) {
	switch {
	case err == nil:
		o.status.Set(syncstatus.Snapshot{State: syncstatus.StateSynced, LastSyncedAt: o.nowMillis()})
	case errors.Is(err, client.ErrOffline):
		o.status.Set(syncstatus.Snapshot{State: syncstatus.StateOfflinePending, Message: "Offline. Changes are waiting to sync."})
	default:
		o.status.Set(syncstatus.Snapshot{State: syncstatus.StateError, Message: err.Error()})
	}
}

// Push builds the outgoing payload from the local collections, normalizes it
// (identity dedup, deterministic re-key), upserts it as the account's cloud
// row, and records the sync time locally.
func (o *Orchestrator) Push(ctx context.Context) error {
	o.mu.Lock()
	defer o.mu.Unlock()

	o.begin()
	err := o.push(ctx)
	o.finish(err)
	if err != nil {
		o.logger.Warn(ctx, "push failed", "error", err)
	}
	return err
}

func (o *Orchestrator) push(ctx context.Context) error {
	if _, err := o.client.CurrentAccountID(ctx); err != nil {
		return err
	}

	local, err := o.codec.BuildLocal(ctx, o.store)
	if err != nil {
		return err
	}
	return o.upload(ctx, Normalize(local))
}

// upload encodes and sends snap, then stamps cloudLastSyncedAt. The settings
// write is sync-originated so the watcher does not chase its own tail.
func (o *Orchestrator) upload(ctx context.Context, snap models.Snapshot) error {
	payload, err := o.codec.Encode(snap)
	if err != nil {
		return err
	}
	if _, err := o.client.UploadSnapshot(ctx, payload); err != nil {
		return err
	}

	settings, err := o.store.Settings(ctx)
	if err != nil {
		return err
	}
	settings.CloudLastSyncedAt = o.nowMillis()
	return o.store.UpsertSettings(ctx, settings, store.OriginSync)
}

// Pull fetches the remote snapshot and replaces the local collections with it.
// A missing remote snapshot is an explicit empty result, not an error.
func (o *Orchestrator) Pull(ctx context.Context) (Result, error) {
	o.mu.Lock()
	defer o.mu.Unlock()

	o.begin()
	res, err := o.pull(ctx)
	o.finish(err)
	return res, err
}

func (o *Orchestrator) pull(ctx context.Context) (Result, error) {
	if _, err := o.client.CurrentAccountID(ctx); err != nil {
		return "", err
	}

	row, err := o.client.FetchSnapshot(ctx)
	if err != nil {
		return "", err
	}
	if row == nil {
		return ResultEmpty, nil
	}

	snap, err := o.codec.Decode(ctx, row.Payload)
	if err != nil {
		return "", err
	}
	if err := o.apply(ctx, snap); err != nil {
		return "", err
	}
	return ResultApplied, nil
}

// apply atomically replaces the local collections with snap, preserving the
// local account linkage (cloud identity fields) in settings. The write is
// sync-originated, which is what suppresses the watcher.
func (o *Orchestrator) apply(ctx context.Context, snap models.Snapshot) error {
	current, err := o.store.Settings(ctx)
	if err != nil {
		return err
	}

	merged := snap.Settings
	merged.CloudUserID = current.CloudUserID
	merged.CloudUserEmail = current.CloudUserEmail
	merged.CloudAutoSync = current.CloudAutoSync || snap.Settings.CloudAutoSync
	merged.CloudLastSyncedAt = o.nowMillis()
	snap.Settings = merged

	return o.store.ReplaceAll(ctx, snap, store.OriginSync)
}

// SmartSync is the primary entry point. First sync for an account pushes the
// local state ("pushed-new"). Every subsequent sync runs the union merge
// regardless of which side looks newer: timestamp-based last-writer-wins
// would silently drop a device's edits whenever clocks or ordering were
// wrong, whereas unioning converges both sides by construction in this
// append-mostly domain.
func (o *Orchestrator) SmartSync(ctx context.Context) (Result, error) {
	o.mu.Lock()
	defer o.mu.Unlock()

	o.begin()
	res, err := o.smartSync(ctx)
	o.finish(err)
	if err != nil {
		o.logger.Warn(ctx, "sync failed", "error", err)
	} else {
		o.logger.Info(ctx, "sync finished", "result", string(res))
	}
	return res, err
}

func (o *Orchestrator) smartSync(ctx context.Context) (Result, error) {
	if _, err := o.client.CurrentAccountID(ctx); err != nil {
		return "", err
	}

	row, err := o.client.FetchSnapshot(ctx)
	if err != nil {
		return "", err
	}

	if row == nil {
		if err := o.push(ctx); err != nil {
			return "", err
		}
		return ResultPushedNew, nil
	}

	local, err := o.codec.BuildLocal(ctx, o.store)
	if err != nil {
		return "", err
	}
	remote, err := o.codec.Decode(ctx, row.Payload)
	if err != nil {
		return "", err
	}

	merged := Merge(local, remote)

	if err := o.apply(ctx, merged); err != nil {
		return "", err
	}
	if err := o.upload(ctx, merged); err != nil {
		return "", err
	}
	return ResultPulled, nil
}

// HydrateForAccount establishes local state right after sign-in. An account
// without a cloud snapshot gets a blank local state scoped to it, never the
// previous account's data; otherwise the remote snapshot is applied as-is.
func (o *Orchestrator) HydrateForAccount(ctx context.Context, accountID, email string) (Result, error) {
	o.mu.Lock()
	defer o.mu.Unlock()

	o.begin()
	res, err := o.hydrate(ctx, accountID, email)
	o.finish(err)
	return res, err
}

func (o *Orchestrator) hydrate(ctx context.Context, accountID, email string) (Result, error) {
	row, err := o.client.FetchSnapshot(ctx)
	if err != nil {
		return "", err
	}

	if row == nil {
		blank := models.Settings{
			CloudUserID:    accountID,
			CloudUserEmail: email,
			FeatureFlags:   models.DefaultFeatureFlags(),
		}
		if err := o.store.Reset(ctx, blank, store.OriginSync); err != nil {
			return "", err
		}
		return ResultEmpty, nil
	}

	snap, err := o.codec.Decode(ctx, row.Payload)
	if err != nil {
		return "", err
	}

	// Bind the incoming data to the just-signed-in account.
	current, err := o.store.Settings(ctx)
	if err != nil {
		return "", err
	}
	current.CloudUserID = accountID
	current.CloudUserEmail = email
	if err := o.store.UpsertSettings(ctx, current, store.OriginSync); err != nil {
		return "", err
	}

	if err := o.apply(ctx, snap); err != nil {
		return "", err
	}
	return ResultApplied, nil
}

// ResultMessage renders a result for user-facing surfaces.
func ResultMessage(r Result) string {
	switch r {
	case ResultPushedNew:
		return "Sync complete: created first cloud snapshot"
	case ResultPulled:
		return "Sync complete: merged with cloud snapshot"
	case ResultApplied:
		return "Downloaded cloud data to this device"
	case ResultEmpty:
		return "No cloud snapshot found for this account"
	default:
		return fmt.Sprintf("Sync finished: %s", r)
	}
}
