package models

import "time"

// DateRange bounds a filter on the date component of a run's end time.
// Both ends are inclusive at day granularity.
type DateRange struct {
	Start time.Time
	End   time.Time
}

// DurationRange is an inclusive bound on execution minutes.
type DurationRange struct {
	Min float64
	Max float64
}

// FilterCriteria carries one user query submission. Nil or empty members
// mean no restriction on that dimension. Criteria are built fresh per
// request and never persisted.
type FilterCriteria struct {
	DateRange     *DateRange
	Statuses      []RunStatus
	DurationRange *DurationRange
	SearchText    string
	Limit         int
}

// Empty reports whether no criterion is set, in which case applying the
// criteria must return the input untouched.
func (c FilterCriteria) Empty() bool {
	return c.DateRange == nil &&
		len(c.Statuses) == 0 &&
		c.DurationRange == nil &&
		c.SearchText == ""
}
