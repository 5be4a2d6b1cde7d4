package models

import (
	"strings"
	"time"
)

// RunRecord is the canonical representation of one pipeline execution,
// normalized from whichever history source the deployment reads. Optional
// dimensional attributes are empty when the source does not carry them.
type RunRecord struct {
	RunID         string    `json:"run_id"`
	RunName       string    `json:"run_name"`
	StartTime     time.Time `json:"start_time"`
	EndTime       time.Time `json:"end_time"` // zero while the run is still in progress
	Status        RunStatus `json:"status"`
	UserName      string    `json:"user_name,omitempty"`
	DatabaseName  string    `json:"database_name,omitempty"`
	WarehouseName string    `json:"warehouse_name,omitempty"`
	QueryText     string    `json:"query_text,omitempty"`

	// DurationMinutes is derived from the timestamps; zero when the run has
	// no end time yet. See ComputeDuration.
	DurationMinutes float64 `json:"duration_minutes"`
}

// DurationKnown reports whether both timestamps were present in the source,
// i.e. whether DurationMinutes is meaningful.
func (r RunRecord) DurationKnown() bool {
	return !r.StartTime.IsZero() && !r.EndTime.IsZero()
}

// ComputeDuration derives DurationMinutes from the timestamps. The value is
// clamped at zero so clock skew between the two columns never produces a
// negative duration.
func (r *RunRecord) ComputeDuration() {
	if !r.DurationKnown() {
		r.DurationMinutes = 0
		return
	}
	d := r.EndTime.Sub(r.StartTime).Minutes()
	if d < 0 {
		d = 0
	}
	r.DurationMinutes = d
}

// RunStatus represents the execution status of a pipeline run
type RunStatus string

const (
	StatusSuccess   RunStatus = "SUCCESS"
	StatusError     RunStatus = "ERROR"
	StatusRunning   RunStatus = "RUNNING"
	StatusAborted   RunStatus = "ABORTED"
	StatusCancelled RunStatus = "CANCELLED"
	StatusUnknown   RunStatus = "UNKNOWN"
)

// nativeSpellings maps each canonical status to every source-side spelling
// that folds into it. ParseRunStatus and NativeSpellings both read this map
// so normalization and filter push-down can never disagree.
var nativeSpellings = map[RunStatus][]string{
	StatusSuccess:   {"SUCCESS", "SUCCEEDED", "COMPLETED"},
	StatusError:     {"ERROR", "FAILED", "FAIL", "FAILED_WITH_ERROR", "FAILED_WITH_INCIDENT"},
	StatusRunning:   {"RUNNING", "IN_PROGRESS", "RESUMING_WAREHOUSE"},
	StatusAborted:   {"ABORTED", "ABORTING"},
	StatusCancelled: {"CANCELLED", "CANCELED"},
	StatusUnknown:   {"UNKNOWN"},
}

// ParseRunStatus maps a warehouse-native status string onto the canonical
// set. Unrecognized values degrade to StatusUnknown instead of failing, so
// newly observed source-side spellings never break a load.
func ParseRunStatus(s string) RunStatus {
	v := strings.ToUpper(strings.TrimSpace(s))
	for status, spellings := range nativeSpellings {
		for _, spelling := range spellings {
			if v == spelling {
				return status
			}
		}
	}
	return StatusUnknown
}

// NativeSpellings returns every source-side spelling that normalizes to s.
// A status filter pushed down to a source that stores native values must
// match all of them, or filtered and unfiltered loads would disagree about
// the same rows.
func (s RunStatus) NativeSpellings() []string {
	if spellings, ok := nativeSpellings[s]; ok {
		return append([]string(nil), spellings...)
	}
	return []string{string(s)}
}

// KnownStatuses is the closed allow-list a requested status filter must
// pass before it is bound into any query.
func KnownStatuses() []RunStatus {
	return []RunStatus{
		StatusSuccess,
		StatusError,
		StatusRunning,
		StatusAborted,
		StatusCancelled,
		StatusUnknown,
	}
}

// IsKnownStatus reports whether s is one of the canonical status values.
func IsKnownStatus(s RunStatus) bool {
	for _, k := range KnownStatuses() {
		if s == k {
			return true
		}
	}
	return false
}
