// Package db wires the PostgreSQL connection to the server repositories and
// runs migrations on startup.
package db

import (
	"context"
	"database/sql"

	"github.com/mpopescu/autochecks/internal/server/repositories/refreshtokens"
	"github.com/mpopescu/autochecks/internal/server/repositories/snapshots"
	"github.com/mpopescu/autochecks/internal/server/repositories/users"
)

// RepositoryManager hands out the repositories backed by one shared
// connection.
type RepositoryManager interface {
	Conn() *sql.DB
	Users() users.Repository
	RefreshTokens() refreshtokens.Repository
	Snapshots() snapshots.Repository
	RunMigrations(ctx context.Context) error
	Close() error
}
