package sync

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/go-playground/validator/v10"

	"github.com/mpopescu/autochecks/internal/client/client"
	"github.com/mpopescu/autochecks/internal/client/models"
	"github.com/mpopescu/autochecks/internal/client/store"
	"github.com/mpopescu/autochecks/internal/logging"
)

// Codec builds the payload exchanged with the cloud backend from the local
// collections and back. Incoming payloads go through strict, versioned schema
// validation: rows failing validation are skipped with a log line instead of
// aborting the whole sync.
type Codec struct {
	validate *validator.Validate
	logger   logging.Logger
}

func NewCodec(logger logging.Logger) *Codec {
	return &Codec{
		validate: validator.New(),
		logger:   logger,
	}
}

// BuildLocal reads the three collections and assembles the outgoing snapshot.
// Settings are sanitized: cloud bookkeeping fields never leave the device.
func (c *Codec) BuildLocal(ctx context.Context, s *store.Store) (models.Snapshot, error) {
	vehicles, err := s.Vehicles(ctx)
	if err != nil {
		return models.Snapshot{}, fmt.Errorf("failed to read vehicles: %w", err)
	}
	checks, err := s.Checks(ctx)
	if err != nil {
		return models.Snapshot{}, fmt.Errorf("failed to read checks: %w", err)
	}
	settings, err := s.Settings(ctx)
	if err != nil {
		return models.Snapshot{}, fmt.Errorf("failed to read settings: %w", err)
	}

	return models.Snapshot{
		SchemaVersion: models.SchemaVersion,
		Vehicles:      vehicles,
		Checks:        checks,
		Settings:      settings.SanitizeForCloud(),
	}, nil
}

// Encode serializes a snapshot as the cloud payload.
func (c *Codec) Encode(s models.Snapshot) (json.RawMessage, error) {
	b, err := json.Marshal(s)
	if err != nil {
		return nil, fmt.Errorf("failed to encode snapshot: %w", err)
	}
	return b, nil
}

// Decode parses and validates a cloud payload. An undecodable envelope or an
// unsupported schema version is ErrMalformedData; individual rows failing
// validation are dropped, not fatal.
func (c *Codec) Decode(ctx context.Context, raw json.RawMessage) (models.Snapshot, error) {
	var snap models.Snapshot
	if err := json.Unmarshal(raw, &snap); err != nil {
		return models.Snapshot{}, fmt.Errorf("%w: %v", client.ErrMalformedData, err)
	}
	// Version 0 predates the schemaVersion field and is read as version 1.
	if snap.SchemaVersion > models.SchemaVersion {
		return models.Snapshot{}, fmt.Errorf("%w: unsupported schema version %d", client.ErrMalformedData, snap.SchemaVersion)
	}
	snap.SchemaVersion = models.SchemaVersion

	vehicles := snap.Vehicles[:0]
	validIDs := make(map[int64]struct{}, len(snap.Vehicles))
	for _, v := range snap.Vehicles {
		if err := c.validate.Struct(v); err != nil {
			c.logger.Warn(ctx, "skipping invalid vehicle row in cloud payload", "plate", v.Plate, "err", err)
			continue
		}
		v.Plate = models.NormalizePlate(v.Plate)
		v.VIN = models.NormalizeVin(v.VIN)
		vehicles = append(vehicles, v)
		validIDs[v.ID] = struct{}{}
	}
	snap.Vehicles = vehicles

	checks := snap.Checks[:0]
	for _, ch := range snap.Checks {
		if err := c.validate.Struct(ch); err != nil {
			c.logger.Warn(ctx, "skipping invalid check row in cloud payload", "vehicleId", ch.VehicleID, "err", err)
			continue
		}
		if _, ok := validIDs[ch.VehicleID]; !ok {
			c.logger.Warn(ctx, "skipping orphan check row in cloud payload", "vehicleId", ch.VehicleID)
			continue
		}
		checks = append(checks, ch)
	}
	snap.Checks = checks

	snap.Settings.ReminderLeadDays = models.SanitizeLeadDays(snap.Settings.ReminderLeadDays)
	return snap, nil
}
