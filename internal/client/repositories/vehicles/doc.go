// Package vehicles provides the client-side persistence layer for vehicles.
//
// # Overview
//
// The package defines a Repository interface for CRUD and bulk operations on
// Vehicle models (see internal/client/models). A SQLite-backed implementation
// (SQLiteRepository) persists data using a dbx.DBTX (either *sql.DB or
// *sql.Tx), which lets the sync engine replace the whole collection inside a
// multi-collection transaction.
//
// # Data Model
//
// Each vehicle stores the normalized plate, optional VIN and notes, the three
// document expiry timestamps (unix millis, 0 = absent), and created/updated/
// deleted timestamps. Soft deletes set deleted_at; reads that list vehicles
// for display exclude soft-deleted rows, while GetAll returns everything so
// the snapshot builder sees tombstones too.
//
// # Concurrency
//
// Implementations are safe for concurrent use when backed by a properly
// configured *sql.DB. When using *sql.Tx, follow normal transaction scoping.
package vehicles
