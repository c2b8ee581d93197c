package services

import (
	"context"

	"github.com/mpopescu/autochecks/internal/client/models"
	"github.com/mpopescu/autochecks/internal/client/store"
	"github.com/mpopescu/autochecks/internal/logging"
)

// SettingsService edits device settings on behalf of the user.
type SettingsService struct {
	store  *store.Store
	logger logging.Logger
}

func NewSettingsService(s *store.Store, logger logging.Logger) *SettingsService {
	return &SettingsService{store: s, logger: logger}
}

func (s *SettingsService) Get(ctx context.Context) (models.Settings, error) {
	return s.store.Settings(ctx)
}

// UpdateProfile rewrites the user-editable profile fields, leaving the cloud
// linkage untouched.
func (s *SettingsService) UpdateProfile(ctx context.Context, username, companyName, contactEmail, timezone string) error {
	settings, err := s.store.Settings(ctx)
	if err != nil {
		return err
	}
	settings.Username = username
	settings.CompanyName = companyName
	settings.ContactEmail = contactEmail
	settings.Timezone = timezone
	return s.store.UpsertSettings(ctx, settings, store.OriginUser)
}

// SetLeadDays replaces the reminder lead days after sanitizing them.
func (s *SettingsService) SetLeadDays(ctx context.Context, days []int) error {
	settings, err := s.store.Settings(ctx)
	if err != nil {
		return err
	}
	settings.ReminderLeadDays = models.SanitizeLeadDays(days)
	return s.store.UpsertSettings(ctx, settings, store.OriginUser)
}

// SetAutoSync toggles background pushing of local changes.
func (s *SettingsService) SetAutoSync(ctx context.Context, enabled bool) error {
	settings, err := s.store.Settings(ctx)
	if err != nil {
		return err
	}
	settings.CloudAutoSync = enabled
	if err := s.store.UpsertSettings(ctx, settings, store.OriginUser); err != nil {
		return err
	}
	s.logger.Info(ctx, "auto-sync changed", "enabled", enabled)
	return nil
}

// SetFeatureFlag overrides one feature flag for this device.
func (s *SettingsService) SetFeatureFlag(ctx context.Context, name string, enabled bool) error {
	settings, err := s.store.Settings(ctx)
	if err != nil {
		return err
	}
	if settings.FeatureFlags == nil {
		settings.FeatureFlags = map[string]bool{}
	}
	settings.FeatureFlags[name] = enabled
	return s.store.UpsertSettings(ctx, settings, store.OriginUser)
}
