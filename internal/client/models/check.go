package models

// CheckType identifies which document a check verified.
type CheckType string

const (
	CheckTypeITP      CheckType = "ITP"
	CheckTypeRCA      CheckType = "RCA"
	CheckTypeVignette CheckType = "VIGNETTE"
)

// Valid reports whether t is one of the known check types.
func (t CheckType) Valid() bool {
	switch t {
	case CheckTypeITP, CheckTypeRCA, CheckTypeVignette:
		return true
	}
	return false
}

// CheckStatus is the verification outcome.
type CheckStatus string

const (
	CheckStatusOK   CheckStatus = "OK"
	CheckStatusWarn CheckStatus = "WARN"
	CheckStatusFail CheckStatus = "FAIL"
)

func (s CheckStatus) Valid() bool {
	switch s {
	case CheckStatusOK, CheckStatusWarn, CheckStatusFail:
		return true
	}
	return false
}

// Check is one verification event for a vehicle document. VehicleID refers to
// the device-local vehicle surrogate key within the same snapshot.
//
// During a merge a check is identified by the tuple
// (vehicle identity key, Type, CheckedAt, ExpiryMillis); that tuple is assumed
// unique per real-world check event.
type Check struct {
	ID           int64       `json:"id,omitempty"`
	VehicleID    int64       `json:"vehicleId" validate:"required"`
	Type         CheckType   `json:"type" validate:"required,oneof=ITP RCA VIGNETTE"`
	Status       CheckStatus `json:"status" validate:"required,oneof=OK WARN FAIL"`
	ExpiryMillis int64       `json:"expiryMillis,omitempty"`
	CheckedAt    int64       `json:"checkedAt" validate:"required,gte=0"`
	Note         string      `json:"note,omitempty"`
	SourceURL    string      `json:"sourceUrl,omitempty"`
}
