package models

import (
	"encoding/json"
	"time"
)

// SchemaVersion is the current cloud payload schema. Payloads advertising a
// newer version are rejected rather than guessed at; version 0 is accepted as
// version 1 for rows written before the field existed.
const SchemaVersion = 1

// Snapshot is the full {vehicles, checks, settings} state of one side at a
// point in time. It is both the unit the merge engine operates on and the
// payload uploaded to the cloud.
type Snapshot struct {
	SchemaVersion int       `json:"schemaVersion"`
	Vehicles      []Vehicle `json:"vehicles"`
	Checks        []Check   `json:"checks"`
	Settings      Settings  `json:"settings"`
}

// SnapshotRow is the single cloud row stored per account: an opaque payload
// plus the server-set update time. Exactly 0 or 1 row exists per account.
type SnapshotRow struct {
	AccountID string          `json:"account_id"`
	Payload   json.RawMessage `json:"payload"`
	UpdatedAt time.Time       `json:"updated_at"`
}
