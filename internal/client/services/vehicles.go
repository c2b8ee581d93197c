// Package services holds the application logic between the REPL and the
// local store: input validation, timestamps, status derivation and the
// sign-in flow. Everything here writes user-originated events; only the sync
// engine writes sync-originated ones.
package services

import (
	"context"
	"fmt"
	"time"

	"github.com/mpopescu/autochecks/internal/client/models"
	"github.com/mpopescu/autochecks/internal/client/store"
	"github.com/mpopescu/autochecks/internal/logging"
)

// VehicleService manages the vehicle collection.
type VehicleService struct {
	store  *store.Store
	logger logging.Logger
	now    func() time.Time
}

func NewVehicleService(s *store.Store, logger logging.Logger) *VehicleService {
	return &VehicleService{store: s, logger: logger, now: time.Now}
}

// Add validates and persists a new vehicle. Plate and VIN are normalized
// before storage so identity matching during sync stays stable.
func (s *VehicleService) Add(ctx context.Context, v models.Vehicle) (*models.Vehicle, error) {
	v.Plate = models.NormalizePlate(v.Plate)
	v.VIN = models.NormalizeVin(v.VIN)

	if err := models.ValidatePlate(v.Plate); err != nil {
		return nil, err
	}
	if v.VIN != "" {
		if err := models.ValidateVin(v.VIN); err != nil {
			return nil, err
		}
	}

	existing, err := s.store.ActiveVehicles(ctx)
	if err != nil {
		return nil, err
	}
	for _, e := range existing {
		if models.CanonicalPlate(e.Plate) == models.CanonicalPlate(v.Plate) {
			return nil, fmt.Errorf("vehicle with plate %s already exists", v.Plate)
		}
	}

	now := s.now().UnixMilli()
	v.ID = 0
	v.CreatedAt = now
	v.UpdatedAt = now
	v.DeletedAt = 0

	if err := s.store.SaveVehicle(ctx, &v, store.OriginUser); err != nil {
		return nil, err
	}
	s.logger.Info(ctx, "vehicle added", "id", v.ID, "plate", v.Plate)
	return &v, nil
}

// Update rewrites an existing vehicle's editable fields.
func (s *VehicleService) Update(ctx context.Context, v models.Vehicle) error {
	current, err := s.store.Vehicle(ctx, v.ID)
	if err != nil {
		return err
	}

	v.Plate = models.NormalizePlate(v.Plate)
	v.VIN = models.NormalizeVin(v.VIN)
	if err := models.ValidatePlate(v.Plate); err != nil {
		return err
	}
	if v.VIN != "" {
		if err := models.ValidateVin(v.VIN); err != nil {
			return err
		}
	}

	v.CreatedAt = current.CreatedAt
	v.DeletedAt = current.DeletedAt
	v.UpdatedAt = s.now().UnixMilli()
	return s.store.SaveVehicle(ctx, &v, store.OriginUser)
}

// Remove soft-deletes a vehicle. The row stays in the database so the
// deletion survives merges until both sides have seen it.
func (s *VehicleService) Remove(ctx context.Context, id int64) error {
	return s.store.DeleteVehicle(ctx, id, s.now().UnixMilli(), store.OriginUser)
}

// List returns active vehicles ordered by plate.
func (s *VehicleService) List(ctx context.Context) ([]models.Vehicle, error) {
	return s.store.ActiveVehicles(ctx)
}

// Get returns one vehicle by id.
func (s *VehicleService) Get(ctx context.Context, id int64) (*models.Vehicle, error) {
	return s.store.Vehicle(ctx, id)
}

// Reminders computes the current expiry posture across active vehicles.
func (s *VehicleService) Reminders(ctx context.Context) ([]ReminderState, error) {
	vehicles, err := s.store.ActiveVehicles(ctx)
	if err != nil {
		return nil, err
	}
	return ReminderStates(vehicles, s.now()), nil
}
