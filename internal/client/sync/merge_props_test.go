package sync

import (
	"testing"

	"github.com/leanovate/gopter"
	"github.com/leanovate/gopter/gen"
	"github.com/leanovate/gopter/prop"

	"github.com/mpopescu/autochecks/internal/client/models"
)

// genVehicle produces vehicles drawn from a small plate alphabet so that
// generated snapshots collide on identity often enough to exercise the
// pairwise merge path, not just the union path.
func genVehicle() gopter.Gen {
	plates := gen.OneConstOf("B101XYZ", "CJ22ABC", "TM33DEF", "IS44GHI")
	return gopter.CombineGens(
		plates,
		gen.Int64Range(1, 20),
		gen.Int64Range(1, 1_000_000),
		gen.Int64Range(0, 1_000_000),
	).Map(func(vals []interface{}) models.Vehicle {
		return models.Vehicle{
			ID:              vals[1].(int64),
			Plate:           vals[0].(string),
			ITPExpiryMillis: vals[3].(int64),
			CreatedAt:       vals[2].(int64),
		}
	})
}

func genSnapshot() gopter.Gen {
	return gen.SliceOf(genVehicle()).Map(func(vs []models.Vehicle) models.Snapshot {
		return models.Snapshot{Vehicles: vs}
	})
}

func identitySet(s models.Snapshot) map[string]struct{} {
	out := make(map[string]struct{}, len(s.Vehicles))
	for _, v := range s.Vehicles {
		out[IdentityKey(v)] = struct{}{}
	}
	return out
}

func setsEqual(a, b map[string]struct{}) bool {
	if len(a) != len(b) {
		return false
	}
	for k := range a {
		if _, ok := b[k]; !ok {
			return false
		}
	}
	return true
}

func TestMergeProperties(t *testing.T) {
	properties := gopter.NewProperties(nil)

	properties.Property("merge is idempotent", prop.ForAll(
		func(s models.Snapshot) bool {
			once := Merge(s, models.Snapshot{})
			twice := Merge(once, once)
			if len(once.Vehicles) != len(twice.Vehicles) {
				return false
			}
			for i := range once.Vehicles {
				if once.Vehicles[i] != twice.Vehicles[i] {
					return false
				}
			}
			return true
		},
		genSnapshot(),
	))

	properties.Property("no vehicle identity is ever lost", prop.ForAll(
		func(a, b models.Snapshot) bool {
			merged := identitySet(Merge(a, b))
			for k := range identitySet(a) {
				if _, ok := merged[k]; !ok {
					return false
				}
			}
			for k := range identitySet(b) {
				if _, ok := merged[k]; !ok {
					return false
				}
			}
			return true
		},
		genSnapshot(),
		genSnapshot(),
	))

	properties.Property("merge is commutative on identity sets", prop.ForAll(
		func(a, b models.Snapshot) bool {
			return setsEqual(identitySet(Merge(a, b)), identitySet(Merge(b, a)))
		},
		genSnapshot(),
		genSnapshot(),
	))

	properties.Property("merged expiry is the max of both sides", prop.ForAll(
		func(a, b models.Snapshot) bool {
			want := make(map[string]int64)
			for _, s := range []models.Snapshot{a, b} {
				for _, v := range s.Vehicles {
					k := IdentityKey(v)
					if v.ITPExpiryMillis > want[k] {
						want[k] = v.ITPExpiryMillis
					}
				}
			}
			for _, v := range Merge(a, b).Vehicles {
				if v.ITPExpiryMillis != want[IdentityKey(v)] {
					return false
				}
			}
			return true
		},
		genSnapshot(),
		genSnapshot(),
	))

	properties.Property("vehicle ids are dense and ordered", prop.ForAll(
		func(a, b models.Snapshot) bool {
			merged := Merge(a, b)
			for i, v := range merged.Vehicles {
				if v.ID != int64(i+1) {
					return false
				}
				if i > 0 && merged.Vehicles[i-1].Plate > v.Plate {
					return false
				}
			}
			return true
		},
		genSnapshot(),
		genSnapshot(),
	))

	properties.TestingRun(t)
}
