// Package sync implements the convergent synchronization engine: cross-device
// vehicle identity, the pure union-merge of two snapshots, the snapshot codec,
// and the orchestrator driving the remote round trip.
package sync

import (
	"fmt"

	"github.com/mpopescu/autochecks/internal/client/models"
)

// Identity key prefixes. The prefix keeps plate- and VIN-derived keys in
// separate namespaces so a VIN can never collide with a plate of the same
// characters.
const (
	plateKeyPrefix   = "PLATE:"
	vinKeyPrefix     = "VIN:"
	unknownKeyPrefix = "UNKNOWN:"
)

// IdentityKey derives the cross-device-stable identity of a vehicle. Local
// surrogate ids are not portable between devices, so matching the "same"
// vehicle across snapshots goes through the canonical plate, falling back to
// the canonical VIN.
//
// A vehicle with neither plate nor VIN gets a locally-scoped UNKNOWN key built
// from its surrogate id and creation time: collision-free, but never matching
// a row from another device. Such a vehicle cannot be meaningfully
// deduplicated anyway.
//
// Pure and deterministic.
func IdentityKey(v models.Vehicle) string {
	if plate := models.CanonicalPlate(v.Plate); plate != "" {
		return plateKeyPrefix + plate
	}
	if vin := models.CanonicalPlate(v.VIN); vin != "" {
		return vinKeyPrefix + vin
	}
	return fmt.Sprintf("%s%d:%d", unknownKeyPrefix, v.ID, v.CreatedAt)
}
