package services

import (
	"sort"
	"time"

	"github.com/mpopescu/autochecks/internal/client/models"
)

// Urgency classifies how close a document is to expiring.
type Urgency string

const (
	UrgencySafe     Urgency = "safe"
	UrgencyWarning  Urgency = "warning"
	UrgencyCritical Urgency = "critical"
	UrgencyExpired  Urgency = "expired"
)

const (
	warningThresholdDays  = 30
	criticalThresholdDays = 7
)

// ReminderState is the computed expiry posture for one document of one
// vehicle.
type ReminderState struct {
	VehicleID int64            `json:"vehicleId"`
	Plate     string           `json:"plate"`
	Type      models.CheckType `json:"type"`
	ExpiresAt int64            `json:"expiresAt"`
	DaysLeft  int              `json:"daysLeft"`
	Urgency   Urgency          `json:"urgency"`
}

// DaysUntil returns whole days between now and the expiry, rounding toward
// zero. A document expiring later today counts as 0 days left.
func DaysUntil(expiryMillis int64, now time.Time) int {
	diff := expiryMillis - now.UnixMilli()
	return int(diff / int64(24*time.Hour/time.Millisecond))
}

// UrgencyFor maps remaining days onto an urgency band.
func UrgencyFor(daysLeft int) Urgency {
	switch {
	case daysLeft < 0:
		return UrgencyExpired
	case daysLeft <= criticalThresholdDays:
		return UrgencyCritical
	case daysLeft <= warningThresholdDays:
		return UrgencyWarning
	default:
		return UrgencySafe
	}
}

// ReminderStates computes the expiry posture for every tracked document of
// the given vehicles, skipping documents with no recorded expiry. Results are
// ordered most urgent first, ties broken by plate.
func ReminderStates(vehicles []models.Vehicle, now time.Time) []ReminderState {
	var out []ReminderState
	for _, v := range vehicles {
		if v.Deleted() {
			continue
		}
		for _, doc := range []struct {
			t      models.CheckType
			expiry int64
		}{
			{models.CheckTypeITP, v.ITPExpiryMillis},
			{models.CheckTypeRCA, v.RCAExpiryMillis},
			{models.CheckTypeVignette, v.VignetteExpiryMillis},
		} {
			if doc.expiry == 0 {
				continue
			}
			days := DaysUntil(doc.expiry, now)
			out = append(out, ReminderState{
				VehicleID: v.ID,
				Plate:     v.Plate,
				Type:      doc.t,
				ExpiresAt: doc.expiry,
				DaysLeft:  days,
				Urgency:   UrgencyFor(days),
			})
		}
	}
	sortReminders(out)
	return out
}

var urgencyRank = map[Urgency]int{
	UrgencyExpired:  0,
	UrgencyCritical: 1,
	UrgencyWarning:  2,
	UrgencySafe:     3,
}

func sortReminders(rs []ReminderState) {
	sort.Slice(rs, func(i, j int) bool {
		a, b := rs[i], rs[j]
		if urgencyRank[a.Urgency] != urgencyRank[b.Urgency] {
			return urgencyRank[a.Urgency] < urgencyRank[b.Urgency]
		}
		if a.DaysLeft != b.DaysLeft {
			return a.DaysLeft < b.DaysLeft
		}
		return a.Plate < b.Plate
	})
}
