// Package models defines the client-side data model: vehicles, document
// checks, settings, and the snapshot payload exchanged with the cloud backend.
//
// All timestamps are unix milliseconds. Optional timestamps use 0 for
// "absent"; DeletedAt == 0 means "not deleted".
package models

import (
	"fmt"
	"regexp"
	"strings"
)

// Vehicle is one tracked vehicle with its document expiry dates.
//
// ID is a device-local surrogate key and is not portable across devices;
// cross-device identity is derived from the plate or VIN (see the sync
// package's IdentityKey).
type Vehicle struct {
	ID                   int64  `json:"id,omitempty"`
	Plate                string `json:"plate" validate:"required"`
	VIN                  string `json:"vin,omitempty"`
	Notes                string `json:"notes,omitempty"`
	ITPExpiryMillis      int64  `json:"itpExpiryMillis,omitempty"`
	RCAExpiryMillis      int64  `json:"rcaExpiryMillis,omitempty"`
	VignetteExpiryMillis int64  `json:"vignetteExpiryMillis,omitempty"`
	CreatedAt            int64  `json:"createdAt" validate:"gte=0"`
	UpdatedAt            int64  `json:"updatedAt,omitempty"`
	DeletedAt            int64  `json:"deletedAt,omitempty"`
}

// Deleted reports whether the vehicle carries a soft-delete marker.
func (v Vehicle) Deleted() bool { return v.DeletedAt != 0 }

var nonAlnumRe = regexp.MustCompile(`[^a-zA-Z0-9]`)

// CanonicalPlate strips every non-alphanumeric character and uppercases the
// rest. This is the matching form used for cross-device identity.
func CanonicalPlate(input string) string {
	return strings.ToUpper(nonAlnumRe.ReplaceAllString(input, ""))
}

// NormalizePlate trims and uppercases a plate for storage and display.
func NormalizePlate(input string) string {
	return strings.ToUpper(strings.TrimSpace(input))
}

// NormalizeVin trims and uppercases a VIN.
func NormalizeVin(input string) string {
	return strings.ToUpper(strings.TrimSpace(input))
}

var vinRe = regexp.MustCompile(`^[A-HJ-NPR-Z0-9]{17}$`)

// ValidatePlate returns nil when the plate canonicalizes to 4-10 alphanumeric
// characters.
func ValidatePlate(input string) error {
	canonical := CanonicalPlate(NormalizePlate(input))
	if canonical == "" {
		return fmt.Errorf("license plate is required")
	}
	if len(canonical) < 4 || len(canonical) > 10 {
		return fmt.Errorf("license plate must contain 4 to 10 alphanumeric characters")
	}
	return nil
}

// ValidateVin returns nil for an empty VIN (it is optional) or a 17-character
// canonical VIN. I, O and Q are not valid VIN characters.
func ValidateVin(input string) error {
	normalized := NormalizeVin(input)
	if normalized == "" {
		return nil
	}
	if !vinRe.MatchString(normalized) {
		return fmt.Errorf("VIN must be 17 characters and cannot contain I, O, or Q")
	}
	return nil
}
