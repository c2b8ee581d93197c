package cli

import (
	"context"
	"errors"
	"fmt"

	"github.com/mpopescu/autochecks/internal/client/client"
	"github.com/mpopescu/autochecks/internal/client/sync"
)

// Sync runs the merge-based round trip with the cloud.
func (a *App) Sync(ctx context.Context) error {
	res, err := a.orch.SmartSync(ctx)
	if err != nil {
		a.printSyncError(err)
		return err
	}
	fmt.Fprintln(a.out, sync.ResultMessage(res))
	return nil
}

// Push uploads local state, overwriting the account's cloud snapshot.
func (a *App) Push(ctx context.Context) error {
	if err := a.orch.Push(ctx); err != nil {
		a.printSyncError(err)
		return err
	}
	fmt.Fprintln(a.out, "Uploaded local data to the cloud.")
	return nil
}

// Pull downloads the cloud snapshot, replacing local state.
func (a *App) Pull(ctx context.Context) error {
	res, err := a.orch.Pull(ctx)
	if err != nil {
		a.printSyncError(err)
		return err
	}
	fmt.Fprintln(a.out, sync.ResultMessage(res))
	return nil
}

// Status prints the current sync state and the size of the offline queue.
func (a *App) Status(ctx context.Context) error {
	snap := a.status.Get()
	fmt.Fprintln(a.out, "State:", string(snap.State))
	if snap.LastSyncedAt != 0 {
		fmt.Fprintln(a.out, "Last synced:", formatDate(snap.LastSyncedAt))
	}
	if snap.Message != "" {
		fmt.Fprintln(a.out, snap.Message)
	}

	if n, err := a.queue.Count(ctx); err == nil && n > 0 {
		fmt.Fprintf(a.out, "Queued requests waiting for connectivity: %d\n", n)
	}
	return nil
}

func (a *App) printSyncError(err error) {
	switch {
	case errors.Is(err, client.ErrOffline):
		fmt.Fprintln(a.out, "Offline. Changes are waiting to sync.")
	case errors.Is(err, client.ErrUnauthorized):
		fmt.Fprintln(a.out, "Session expired. Please log in again.")
	case errors.Is(err, client.ErrMalformedData):
		fmt.Fprintln(a.out, "Cloud snapshot is malformed; refusing to apply it.")
	default:
		fmt.Fprintln(a.out, "Sync failed:", err)
	}
}
