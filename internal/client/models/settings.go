package models

import (
	"sort"
	"strings"
)

func trimmed(s string) string { return strings.TrimSpace(s) }

// Settings is the single logical preferences row. Cloud* fields are local sync
// bookkeeping: they identify the linked account and the last successful sync,
// and are stripped from the payload uploaded to the backend (see
// SanitizeForCloud).
type Settings struct {
	ID               int64           `json:"id,omitempty"`
	Username         string          `json:"username,omitempty"`
	AppName          string          `json:"appName,omitempty"`
	CompanyName      string          `json:"companyName,omitempty"`
	ContactEmail     string          `json:"contactEmail,omitempty"`
	Timezone         string          `json:"timezone,omitempty"`
	ReminderLeadDays []int           `json:"reminderLeadDays,omitempty"`
	FeatureFlags     map[string]bool `json:"featureFlags,omitempty"`

	CloudUserID       string `json:"cloudUserId,omitempty"`
	CloudUserEmail    string `json:"cloudUserEmail,omitempty"`
	CloudLastSyncedAt int64  `json:"cloudLastSyncedAt,omitempty"`
	CloudAutoSync     bool   `json:"cloudAutoSync,omitempty"`
}

// Known feature flag names.
const (
	FlagReminderSnooze      = "reminderSnooze"
	FlagVehicleQuickActions = "vehicleQuickActions"
	FlagDashboardFilters    = "dashboardFilters"
	FlagStrictValidation    = "strictValidation"
)

// DefaultFeatureFlags returns the built-in flag values. Callers own the map.
func DefaultFeatureFlags() map[string]bool {
	return map[string]bool{
		FlagReminderSnooze:      true,
		FlagVehicleQuickActions: true,
		FlagDashboardFilters:    true,
		FlagStrictValidation:    true,
	}
}

// ResolveFeatureFlags overlays the settings' flags on the defaults.
func ResolveFeatureFlags(s Settings) map[string]bool {
	resolved := DefaultFeatureFlags()
	for k, v := range s.FeatureFlags {
		resolved[k] = v
	}
	return resolved
}

// CompanyDisplayName picks the user-facing product name: company name, then
// app name, then the stock default.
func CompanyDisplayName(s Settings) string {
	if name := trimmed(s.CompanyName); name != "" {
		return name
	}
	if name := trimmed(s.AppName); name != "" {
		return name
	}
	return "AutoChecks"
}

// SanitizeLeadDays drops negative values, dedups, and sorts ascending.
func SanitizeLeadDays(days []int) []int {
	seen := make(map[int]struct{}, len(days))
	out := make([]int, 0, len(days))
	for _, d := range days {
		if d < 0 {
			continue
		}
		if _, ok := seen[d]; ok {
			continue
		}
		seen[d] = struct{}{}
		out = append(out, d)
	}
	sort.Ints(out)
	return out
}

// SanitizeForCloud returns a copy of s with the local sync bookkeeping fields
// cleared. CloudAutoSync stays in the payload: it is a preference, not
// bookkeeping.
func (s Settings) SanitizeForCloud() Settings {
	out := s
	out.ID = 0
	out.CloudUserID = ""
	out.CloudUserEmail = ""
	out.CloudLastSyncedAt = 0
	out.ReminderLeadDays = SanitizeLeadDays(s.ReminderLeadDays)
	return out
}
