// Package models defines the server-side persistence types.
package models

import (
	"encoding/json"
	"time"
)

// User is one registered account.
type User struct {
	ID           string
	Email        string
	PasswordHash string
	CreatedAt    time.Time
}

// RefreshToken is one issued refresh token. Tokens are single-use: a refresh
// deletes the presented token and issues a replacement.
type RefreshToken struct {
	Token     string
	UserID    string
	ExpiresAt time.Time
}

// SnapshotRow is the single cloud snapshot stored per account. The payload is
// kept opaque: the server validates only that it is well-formed JSON, all
// semantic validation happens on the devices.
type SnapshotRow struct {
	AccountID string
	Payload   json.RawMessage
	UpdatedAt time.Time
}
