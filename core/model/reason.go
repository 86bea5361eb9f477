package model

import "errors"

// ReasonCode is the machine-readable classification of a rejection. UI and
// API layers map codes to user-facing explanations.
type ReasonCode string

const (
	ReasonNotActive          ReasonCode = "NOT_ACTIVE"
	ReasonNotQualified       ReasonCode = "NOT_QUALIFIED"
	ReasonStateExcluded      ReasonCode = "STATE_EXCLUDED"
	ReasonTimeOff            ReasonCode = "TIME_OFF"
	ReasonNoEligibleTech     ReasonCode = "NO_ELIGIBLE_TECH"
	ReasonCapacityExceeded   ReasonCode = "CAPACITY_EXCEEDED"
	ReasonMissingCoordinates ReasonCode = "MISSING_COORDINATES"
	ReasonMissingDuration    ReasonCode = "MISSING_DURATION"
	ReasonTimeOverlap        ReasonCode = "TIME_OVERLAP"
	ReasonPastDue            ReasonCode = "PAST_DUE"
	ReasonNightRestricted    ReasonCode = "NIGHT_RESTRICTED"
	ReasonNotAttempted       ReasonCode = "NOT_ATTEMPTED"
	ReasonConflict           ReasonCode = "CONFLICT"
)

// Reason pairs a code with a human-readable explanation.
type Reason struct {
	Code   ReasonCode `json:"code"`
	Detail string     `json:"detail"`
}

func (r Reason) Error() string {
	if r.Detail == "" {
		return string(r.Code)
	}
	return string(r.Code) + ": " + r.Detail
}

// NewReason builds a Reason with the given code and detail.
func NewReason(code ReasonCode, detail string) Reason {
	return Reason{Code: code, Detail: detail}
}

// Sentinel data errors. Jobs that trip these are skipped and flagged, never
// fatal to a run.
var (
	ErrMissingCoordinates = errors.New("missing coordinates")
	ErrMissingDuration    = errors.New("missing or malformed duration")
)
