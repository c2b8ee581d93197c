// Package cli provides the interactive AutoChecks command-line client.
//
// It wires configuration, local storage, the backend API client, the sync
// engine and an interactive REPL. Typical flow: start the change watcher and
// a background connectivity watcher, then execute user commands.
//
// Key features:
//   - Register / Login / Logout against the cloud backend
//   - Manage vehicles and record document checks
//   - Reminder overview ordered by urgency
//   - Manual sync / push / pull, plus debounced auto-push of local edits
//
// The REPL is started via App.Run(ctx), which blocks until the user exits.
package cli
