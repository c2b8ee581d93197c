// Package client implements the transport to the AutoChecks cloud backend:
// a typed HTTP JSON client with session handling and a single place where
// transport failures are mapped onto the sync error taxonomy.
package client

import (
	"context"
	"encoding/json"
	"time"

	"github.com/mpopescu/autochecks/internal/client/models"
)

// Session is the authenticated account state held by the client.
type Session struct {
	AccountID    string
	Email        string
	AccessToken  string
	RefreshToken string
}

// Client is the remote backend collaborator consumed by the sync engine.
type Client interface {
	// Register creates a new account.
	Register(ctx context.Context, email, password string) error

	// Login authenticates and installs the session on the client.
	Login(ctx context.Context, email, password string) (*Session, error)

	// Logout discards the session.
	Logout()

	// CurrentAccountID validates the session against the backend and returns
	// the authenticated account id. Returns ErrUnauthorized when the session
	// identity claim is stale or missing.
	CurrentAccountID(ctx context.Context) (string, error)

	// Ping checks backend liveness.
	Ping(ctx context.Context) error

	// FetchSnapshot returns the account's cloud snapshot row, or nil when the
	// account has none yet (not an error).
	FetchSnapshot(ctx context.Context) (*models.SnapshotRow, error)

	// UploadSnapshot upserts the payload as the account's single snapshot row
	// and returns the server-set update time.
	UploadSnapshot(ctx context.Context, payload json.RawMessage) (time.Time, error)
}
