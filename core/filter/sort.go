package filter

import (
	"sort"

	"pipeline-analytics/core/models"
)

// SortField names a sortable RunRecord column.
type SortField string

const (
	SortEndTime   SortField = "end_time"
	SortStartTime SortField = "start_time"
	SortDuration  SortField = "duration"
	SortStatus    SortField = "status"
	SortRunID     SortField = "run_id"
)

// ParseSortField resolves a request parameter to a sort field, falling back
// to end-time ordering for unknown values.
func ParseSortField(s string) SortField {
	switch SortField(s) {
	case SortStartTime, SortDuration, SortStatus, SortRunID:
		return SortField(s)
	default:
		return SortEndTime
	}
}

// Sort orders records by field without mutating the input. Ties always
// break ascending on RunID, so repeated calls on identical input yield
// identical sequences regardless of direction.
func Sort(records []models.RunRecord, field SortField, ascending bool) []models.RunRecord {
	out := make([]models.RunRecord, len(records))
	copy(out, records)

	less := lessFunc(field)
	sort.SliceStable(out, func(i, j int) bool {
		a, b := out[i], out[j]
		if ascending {
			if less(a, b) {
				return true
			}
			if less(b, a) {
				return false
			}
		} else {
			if less(b, a) {
				return true
			}
			if less(a, b) {
				return false
			}
		}
		return a.RunID < b.RunID
	})
	return out
}

func lessFunc(field SortField) func(a, b models.RunRecord) bool {
	switch field {
	case SortStartTime:
		return func(a, b models.RunRecord) bool { return a.StartTime.Before(b.StartTime) }
	case SortDuration:
		return func(a, b models.RunRecord) bool { return a.DurationMinutes < b.DurationMinutes }
	case SortStatus:
		return func(a, b models.RunRecord) bool { return a.Status < b.Status }
	case SortRunID:
		return func(a, b models.RunRecord) bool { return a.RunID < b.RunID }
	default:
		return func(a, b models.RunRecord) bool { return a.EndTime.Before(b.EndTime) }
	}
}

// Paginate returns the 1-based page of perPage records plus the total page
// count. Out-of-range pages clamp to the nearest valid page; a non-positive
// perPage disables pagination.
func Paginate(records []models.RunRecord, page, perPage int) ([]models.RunRecord, int) {
	if perPage <= 0 {
		return records, 1
	}
	totalPages := (len(records) + perPage - 1) / perPage
	if totalPages == 0 {
		totalPages = 1
	}
	if page < 1 {
		page = 1
	}
	if page > totalPages {
		page = totalPages
	}
	lo := (page - 1) * perPage
	hi := lo + perPage
	if hi > len(records) {
		hi = len(records)
	}
	return records[lo:hi], totalPages
}
