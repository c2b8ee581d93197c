package services

import (
	"context"
	"fmt"
	"time"

	"github.com/mpopescu/autochecks/internal/client/models"
	"github.com/mpopescu/autochecks/internal/client/store"
	"github.com/mpopescu/autochecks/internal/logging"
)

// CheckService records verification events and keeps the owning vehicle's
// expiry columns in step with the latest known expiry per document.
type CheckService struct {
	store  *store.Store
	logger logging.Logger
	now    func() time.Time
}

func NewCheckService(s *store.Store, logger logging.Logger) *CheckService {
	return &CheckService{store: s, logger: logger, now: time.Now}
}

// Record validates and persists a check. The owning vehicle must exist and
// not be deleted. A missing CheckedAt defaults to now, and a missing Status
// is derived from the expiry.
func (s *CheckService) Record(ctx context.Context, c models.Check) (*models.Check, error) {
	if !c.Type.Valid() {
		return nil, fmt.Errorf("unknown check type %q", c.Type)
	}

	vehicle, err := s.store.Vehicle(ctx, c.VehicleID)
	if err != nil {
		return nil, err
	}
	if vehicle.Deleted() {
		return nil, fmt.Errorf("vehicle %d is deleted", vehicle.ID)
	}

	if c.CheckedAt == 0 {
		c.CheckedAt = s.now().UnixMilli()
	}
	if c.Status == "" {
		c.Status = DeriveStatus(c.ExpiryMillis, s.now())
	}
	if !c.Status.Valid() {
		return nil, fmt.Errorf("unknown check status %q", c.Status)
	}

	c.ID = 0
	if err := s.store.AddCheck(ctx, &c, store.OriginUser); err != nil {
		return nil, err
	}

	if c.ExpiryMillis != 0 {
		if err := s.bumpExpiry(ctx, vehicle, c); err != nil {
			return nil, err
		}
	}

	s.logger.Info(ctx, "check recorded",
		"vehicle", vehicle.Plate, "type", c.Type, "status", c.Status)
	return &c, nil
}

// bumpExpiry advances the vehicle's per-document expiry when the new check
// reports a later one. Expiries only move forward; a stale check never
// regresses the cached value.
func (s *CheckService) bumpExpiry(ctx context.Context, v *models.Vehicle, c models.Check) error {
	var slot *int64
	switch c.Type {
	case models.CheckTypeITP:
		slot = &v.ITPExpiryMillis
	case models.CheckTypeRCA:
		slot = &v.RCAExpiryMillis
	case models.CheckTypeVignette:
		slot = &v.VignetteExpiryMillis
	default:
		return nil
	}
	if c.ExpiryMillis <= *slot {
		return nil
	}
	*slot = c.ExpiryMillis
	v.UpdatedAt = s.now().UnixMilli()
	return s.store.SaveVehicle(ctx, v, store.OriginUser)
}

// List returns all checks ordered by check time.
func (s *CheckService) List(ctx context.Context) ([]models.Check, error) {
	return s.store.Checks(ctx)
}

// ForVehicle returns a vehicle's checks, newest first.
func (s *CheckService) ForVehicle(ctx context.Context, vehicleID int64) ([]models.Check, error) {
	return s.store.ChecksForVehicle(ctx, vehicleID)
}

// DeriveStatus classifies an expiry relative to now: FAIL when already
// expired, WARN inside the warning window, OK otherwise. A zero expiry means
// the check carried no expiry information and reads as OK.
func DeriveStatus(expiryMillis int64, now time.Time) models.CheckStatus {
	if expiryMillis == 0 {
		return models.CheckStatusOK
	}
	days := DaysUntil(expiryMillis, now)
	switch {
	case days < 0:
		return models.CheckStatusFail
	case days <= warningThresholdDays:
		return models.CheckStatusWarn
	default:
		return models.CheckStatusOK
	}
}
