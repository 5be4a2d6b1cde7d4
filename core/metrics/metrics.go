// Package metrics computes derived summary statistics over normalized run
// records. Everything here is pure computation: no I/O, no mutation of the
// input, and results do not depend on record order.
package metrics

import (
	"fmt"
	"sort"

	"pipeline-analytics/core/models"
)

// Compute derives summary metrics from a set of run records. An empty input
// yields the zero Metrics value rather than an error; averages and rates
// guard against division by zero.
func Compute(records []models.RunRecord) models.Metrics {
	m := models.Metrics{Count: len(records)}
	if len(records) == 0 {
		return m
	}

	successes := 0
	withDuration := 0
	databases := make(map[string]struct{})
	warehouses := make(map[string]struct{})
	daily := make(map[string]*models.DayStat)

	for _, r := range records {
		if r.Status == models.StatusSuccess {
			successes++
		}
		if r.DurationKnown() {
			withDuration++
			m.TotalDurationMinutes += r.DurationMinutes
		}
		if r.DatabaseName != "" {
			databases[r.DatabaseName] = struct{}{}
		}
		if r.WarehouseName != "" {
			warehouses[r.WarehouseName] = struct{}{}
		}
		if !r.EndTime.IsZero() {
			day := r.EndTime.Format("2006-01-02")
			ds, ok := daily[day]
			if !ok {
				ds = &models.DayStat{Date: day, Counts: make(map[models.RunStatus]int)}
				daily[day] = ds
			}
			ds.Counts[r.Status]++
			ds.Total++
		}
	}

	if withDuration > 0 {
		m.AvgDurationMinutes = m.TotalDurationMinutes / float64(withDuration)
	}
	m.SuccessRatePct = 100 * float64(successes) / float64(len(records))
	m.UniqueDatabases = len(databases)
	m.UniqueWarehouses = len(warehouses)

	days := make([]string, 0, len(daily))
	for day := range daily {
		days = append(days, day)
	}
	sort.Strings(days)
	for _, day := range days {
		m.Daily = append(m.Daily, *daily[day])
	}

	return m
}

// FormatDuration renders minutes as a compact compound unit string such as
// "1hr2min30sec", omitting zero components. A zero or undefined duration
// renders as "0sec" rather than an empty string.
func FormatDuration(minutes float64) string {
	if minutes <= 0 {
		return "0sec"
	}

	totalSeconds := int(minutes * 60)
	hours := totalSeconds / 3600
	mins := (totalSeconds % 3600) / 60
	secs := totalSeconds % 60

	out := ""
	if hours > 0 {
		out += fmt.Sprintf("%dhr", hours)
	}
	if mins > 0 {
		out += fmt.Sprintf("%dmin", mins)
	}
	if secs > 0 || out == "" {
		out += fmt.Sprintf("%dsec", secs)
	}
	return out
}
