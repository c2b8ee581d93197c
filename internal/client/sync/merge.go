package sync

import (
	"sort"
	"strings"

	"github.com/mpopescu/autochecks/internal/client/models"
)

// Merge combines two snapshots into one conflict-free snapshot. It is the
// convergence point of the sync design: both devices union-merge before
// writing, so even though the cloud row itself is last-writer-wins, no
// device's data is lost.
//
// Properties (see the tests):
//   - commutative and idempotent on the vehicle/check sets
//   - lossless for additive data: anything present in either input is present
//     in the output unless it is a true duplicate by identity
//   - deterministic: output ordering and surrogate ids depend only on content
//
// Soft-delete markers are cleared on every merge: a merge is a reconciliation
// event, and propagating deletes through it would invite
// resurrect-then-redelete races between devices. Deliberate policy, favoring
// availability over delete propagation.
//
// Merge never fails for well-formed input; rows missing identity on both
// sides are excluded rather than aborting.
func Merge(local, remote models.Snapshot) models.Snapshot {
	out := models.Snapshot{SchemaVersion: models.SchemaVersion}

	vehicles, keyOf := mergeVehicles(local.Vehicles, remote.Vehicles, true)
	out.Vehicles = vehicles

	localKeys := identityByID(local.Vehicles)
	remoteKeys := identityByID(remote.Vehicles)
	out.Checks = mergeChecks(
		[]checkSource{{checks: local.Checks, vehicleKey: localKeys}, {checks: remote.Checks, vehicleKey: remoteKeys}},
		keyOf,
	)

	out.Settings = mergeSettings(local.Settings, remote.Settings)
	return out
}

// Normalize applies the merge engine's re-keying and dedup step to a single
// snapshot: duplicate identities collapse, ids become deterministic, orphan
// checks drop. Run before every upload so the cloud row always satisfies the
// one-vehicle-per-identity invariant. Soft-delete markers survive; clearing
// them is merge policy, not a payload constraint.
func Normalize(s models.Snapshot) models.Snapshot {
	out := models.Snapshot{SchemaVersion: models.SchemaVersion, Settings: s.Settings}

	vehicles, keyOf := mergeVehicles(s.Vehicles, nil, false)
	out.Vehicles = vehicles
	out.Checks = mergeChecks(
		[]checkSource{{checks: s.Checks, vehicleKey: identityByID(s.Vehicles)}},
		keyOf,
	)
	return out
}

// identityByID maps a snapshot's local surrogate ids to identity keys. The
// pre-merge mapping is what ties each check to its owning vehicle's identity.
func identityByID(vehicles []models.Vehicle) map[int64]string {
	m := make(map[int64]string, len(vehicles))
	for _, v := range vehicles {
		if malformedVehicle(v) {
			continue
		}
		m[v.ID] = IdentityKey(v)
	}
	return m
}

// malformedVehicle reports rows with no usable identity at all: no plate, no
// VIN, and nothing to build a stable fallback key from. Such rows are
// excluded from merging.
func malformedVehicle(v models.Vehicle) bool {
	return models.CanonicalPlate(v.Plate) == "" &&
		models.CanonicalPlate(v.VIN) == "" &&
		v.ID == 0 && v.CreatedAt == 0
}

// mergeVehicles groups both inputs by identity key, merges within groups, and
// re-keys the result deterministically: sorted by plate (identity key as the
// tie-break), fresh sequential ids 1..N. resetDeleted selects the merge
// policy of clearing soft-delete markers.
func mergeVehicles(a, b []models.Vehicle, resetDeleted bool) ([]models.Vehicle, map[string]int64) {
	groups := make(map[string]models.Vehicle)
	for _, v := range append(append([]models.Vehicle(nil), a...), b...) {
		if malformedVehicle(v) {
			continue
		}
		key := IdentityKey(v)
		if existing, ok := groups[key]; ok {
			groups[key] = mergeVehiclePair(existing, v)
		} else {
			groups[key] = v
		}
	}

	merged := make([]models.Vehicle, 0, len(groups))
	for _, v := range groups {
		if resetDeleted {
			v.DeletedAt = 0
		}
		merged = append(merged, v)
	}

	sort.Slice(merged, func(i, j int) bool {
		pi, pj := merged[i].Plate, merged[j].Plate
		if pi != pj {
			return pi < pj
		}
		return IdentityKey(merged[i]) < IdentityKey(merged[j])
	})

	keyToID := make(map[string]int64, len(merged))
	for i := range merged {
		merged[i].ID = int64(i + 1)
		keyToID[IdentityKey(merged[i])] = merged[i].ID
	}
	return merged, keyToID
}

// mergeVehiclePair folds one duplicate pair. Field policy: first non-empty
// identity fields, max of each expiry (absent = 0 loses to any value), min of
// the creation times, union of the notes.
func mergeVehiclePair(existing, incoming models.Vehicle) models.Vehicle {
	out := existing

	if out.Plate == "" {
		out.Plate = incoming.Plate
	}
	if out.VIN == "" {
		out.VIN = incoming.VIN
	}
	out.Notes = unionText(existing.Notes, incoming.Notes)

	out.ITPExpiryMillis = maxInt64(existing.ITPExpiryMillis, incoming.ITPExpiryMillis)
	out.RCAExpiryMillis = maxInt64(existing.RCAExpiryMillis, incoming.RCAExpiryMillis)
	out.VignetteExpiryMillis = maxInt64(existing.VignetteExpiryMillis, incoming.VignetteExpiryMillis)

	out.CreatedAt = minNonZero(existing.CreatedAt, incoming.CreatedAt)
	out.UpdatedAt = maxInt64(existing.UpdatedAt, incoming.UpdatedAt)

	// Both copies deleted: keep the marker (relevant for Normalize only;
	// Merge clears it afterwards). One copy alive: the vehicle is alive.
	if existing.DeletedAt != 0 && incoming.DeletedAt != 0 {
		out.DeletedAt = maxInt64(existing.DeletedAt, incoming.DeletedAt)
	} else {
		out.DeletedAt = 0
	}
	return out
}

// checkSource pairs a snapshot's checks with that snapshot's own pre-merge
// id-to-identity mapping.
type checkSource struct {
	checks     []models.Check
	vehicleKey map[int64]string
}

// checkIdentity is the dedup tuple: one real-world check event.
type checkIdentity struct {
	vehicleKey string
	typ        models.CheckType
	checkedAt  int64
	expiry     int64
}

// mergeChecks dedups checks across sources by their identity tuple, re-keys
// them to the merged vehicles' new surrogate ids, and drops orphans whose
// vehicle id does not resolve in their own source snapshot.
func mergeChecks(sources []checkSource, mergedVehicleID map[string]int64) []models.Check {
	type slot struct {
		check models.Check
		key   string
	}
	seen := make(map[checkIdentity]*slot)
	order := make([]checkIdentity, 0)

	for _, src := range sources {
		for _, c := range src.checks {
			if !c.Type.Valid() {
				continue
			}
			vehicleKey, ok := src.vehicleKey[c.VehicleID]
			if !ok {
				continue // orphan
			}
			id := checkIdentity{vehicleKey: vehicleKey, typ: c.Type, checkedAt: c.CheckedAt, expiry: c.ExpiryMillis}
			if existing, ok := seen[id]; ok {
				existing.check.Note = unionText(existing.check.Note, c.Note)
				if existing.check.SourceURL == "" {
					existing.check.SourceURL = c.SourceURL
				}
				continue
			}
			seen[id] = &slot{check: c, key: vehicleKey}
			order = append(order, id)
		}
	}

	out := make([]models.Check, 0, len(order))
	for _, id := range order {
		s := seen[id]
		newVehicleID, ok := mergedVehicleID[s.key]
		if !ok {
			continue
		}
		c := s.check
		c.VehicleID = newVehicleID
		out = append(out, c)
	}

	sort.SliceStable(out, func(i, j int) bool {
		if out[i].CheckedAt != out[j].CheckedAt {
			return out[i].CheckedAt < out[j].CheckedAt
		}
		if out[i].VehicleID != out[j].VehicleID {
			return out[i].VehicleID < out[j].VehicleID
		}
		return out[i].Type < out[j].Type
	})
	for i := range out {
		out[i].ID = int64(i + 1)
	}
	return out
}

// mergeSettings reconciles preferences. Local wins for non-empty scalar
// preference fields, lead-day lists union, feature flags shallow-merge with
// local overriding per key. Cloud bookkeeping fields keep the local values:
// account linkage never travels through a merge.
func mergeSettings(local, remote models.Settings) models.Settings {
	out := local

	out.Username = firstNonEmpty(local.Username, remote.Username)
	out.AppName = firstNonEmpty(local.AppName, remote.AppName)
	out.CompanyName = firstNonEmpty(local.CompanyName, remote.CompanyName)
	out.ContactEmail = firstNonEmpty(local.ContactEmail, remote.ContactEmail)
	out.Timezone = firstNonEmpty(local.Timezone, remote.Timezone)

	out.ReminderLeadDays = models.SanitizeLeadDays(append(append([]int(nil), local.ReminderLeadDays...), remote.ReminderLeadDays...))

	if local.FeatureFlags != nil || remote.FeatureFlags != nil {
		flags := make(map[string]bool, len(local.FeatureFlags)+len(remote.FeatureFlags))
		for k, v := range remote.FeatureFlags {
			flags[k] = v
		}
		for k, v := range local.FeatureFlags {
			flags[k] = v
		}
		out.FeatureFlags = flags
	}

	out.CloudAutoSync = local.CloudAutoSync || remote.CloudAutoSync
	return out
}

const noteSeparator = "; "

// unionText merges two free-text fields without discarding information:
// empty sides drop out, identical text stays single, different text
// concatenates.
func unionText(a, b string) string {
	a, b = strings.TrimSpace(a), strings.TrimSpace(b)
	switch {
	case a == "":
		return b
	case b == "" || a == b:
		return a
	case strings.Contains(a, b):
		return a
	case strings.Contains(b, a):
		return b
	default:
		return a + noteSeparator + b
	}
}

func firstNonEmpty(a, b string) string {
	if strings.TrimSpace(a) != "" {
		return a
	}
	return b
}

func maxInt64(a, b int64) int64 {
	if a > b {
		return a
	}
	return b
}

func minNonZero(a, b int64) int64 {
	if a == 0 {
		return b
	}
	if b == 0 {
		return a
	}
	if a < b {
		return a
	}
	return b
}
