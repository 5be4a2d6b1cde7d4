package models

// Metrics summarizes a set of pipeline runs.
type Metrics struct {
	Count                int     `json:"count"`
	AvgDurationMinutes   float64 `json:"avg_duration_minutes"`
	SuccessRatePct       float64 `json:"success_rate_pct"`
	TotalDurationMinutes float64 `json:"total_duration_minutes"`

	UniqueDatabases  int `json:"unique_databases"`
	UniqueWarehouses int `json:"unique_warehouses"`

	// Daily holds per-day status counts for the execution trend chart,
	// ordered by date ascending.
	Daily []DayStat `json:"daily,omitempty"`
}

// DayStat counts runs by status for one calendar day.
type DayStat struct {
	Date   string            `json:"date"` // YYYY-MM-DD
	Counts map[RunStatus]int `json:"counts"`
	Total  int               `json:"total"`
}
