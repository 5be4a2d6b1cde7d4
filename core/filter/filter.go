// Package filter applies client-side predicates, sorting and pagination to
// an already-loaded run set. Filters compose as a logical AND; an absent
// criterion passes every record through, so empty criteria are a no-op.
package filter

import (
	"strings"
	"time"

	"pipeline-analytics/core/models"
)

// Apply filters records by every supplied criterion. The input slice is not
// mutated and relative order is preserved.
func Apply(records []models.RunRecord, c models.FilterCriteria) []models.RunRecord {
	out := make([]models.RunRecord, 0, len(records))
	for _, r := range records {
		if !matchDate(r, c.DateRange) {
			continue
		}
		if !matchStatus(r, c.Statuses) {
			continue
		}
		if !matchDuration(r, c.DurationRange) {
			continue
		}
		if !matchSearch(r, c.SearchText) {
			continue
		}
		out = append(out, r)
	}
	return out
}

// matchDate checks the date component of the run's end time. Runs without
// an end time pass rather than fail: missing optional fields never turn a
// filter into an error.
func matchDate(r models.RunRecord, dr *models.DateRange) bool {
	if dr == nil {
		return true
	}
	if r.EndTime.IsZero() {
		return true
	}
	d := dateOnly(r.EndTime)
	return !d.Before(dateOnly(dr.Start)) && !d.After(dateOnly(dr.End))
}

func matchStatus(r models.RunRecord, statuses []models.RunStatus) bool {
	if len(statuses) == 0 {
		return true
	}
	for _, s := range statuses {
		if r.Status == s {
			return true
		}
	}
	return false
}

// matchDuration is an inclusive numeric range check. Runs whose duration is
// undefined (no end time) always pass.
func matchDuration(r models.RunRecord, dr *models.DurationRange) bool {
	if dr == nil {
		return true
	}
	if !r.DurationKnown() {
		return true
	}
	return r.DurationMinutes >= dr.Min && r.DurationMinutes <= dr.Max
}

// matchSearch is a case-insensitive substring match, OR'd across the
// textual fields of the record.
func matchSearch(r models.RunRecord, q string) bool {
	if q == "" {
		return true
	}
	q = strings.ToLower(q)
	for _, field := range []string{r.RunID, r.RunName, r.DatabaseName, r.QueryText} {
		if strings.Contains(strings.ToLower(field), q) {
			return true
		}
	}
	return false
}

func dateOnly(t time.Time) time.Time {
	return time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, time.UTC)
}
