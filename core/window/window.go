// Package window translates user-chosen lookbacks or explicit date ranges
// into concrete query bounds, enforcing the history source's retention
// ceiling before any query is issued.
package window

import (
	"errors"
	"fmt"
	"time"
)

var (
	// ErrInvalidRange is returned when an explicit range has its start date
	// after its end date.
	ErrInvalidRange = errors.New("start date is after end date")

	// ErrRetentionExceeded is returned when the requested window reaches
	// past the source's lookback ceiling. Callers must surface this
	// distinctly from an empty result.
	ErrRetentionExceeded = errors.New("window exceeds history retention limit")
)

// Window is a half-open [Lower, Upper) timestamp pair ready for the
// run-history query.
type Window struct {
	Lower time.Time `json:"lower"`
	Upper time.Time `json:"upper"`
}

// Resolver produces query windows. RetentionDays is the source-side
// lookback ceiling; zero disables the check. Now is a clock hook for tests
// and defaults to time.Now.
type Resolver struct {
	RetentionDays int
	Now           func() time.Time
}

func (r Resolver) now() time.Time {
	if r.Now != nil {
		return r.Now()
	}
	return time.Now()
}

// ResolveLookback resolves a relative window ending now.
func (r Resolver) ResolveLookback(d time.Duration) (Window, error) {
	upper := r.now()
	w := Window{Lower: upper.Add(-d), Upper: upper}
	return w, r.checkRetention(w)
}

// ResolveRange resolves an explicit date pair. The upper bound is exclusive
// and set to end+1day so the end date stays fully inclusive at day
// granularity.
func (r Resolver) ResolveRange(start, end time.Time) (Window, error) {
	start = truncateDay(start)
	end = truncateDay(end)
	if start.After(end) {
		return Window{}, fmt.Errorf("range %s to %s: %w",
			start.Format("2006-01-02"), end.Format("2006-01-02"), ErrInvalidRange)
	}
	w := Window{Lower: start, Upper: end.AddDate(0, 0, 1)}
	return w, r.checkRetention(w)
}

func (r Resolver) checkRetention(w Window) error {
	if r.RetentionDays <= 0 {
		return nil
	}
	floor := r.now().AddDate(0, 0, -r.RetentionDays)
	if w.Lower.Before(floor) {
		return fmt.Errorf("window starts %s but history only reaches back %d days: %w",
			w.Lower.Format("2006-01-02"), r.RetentionDays, ErrRetentionExceeded)
	}
	return nil
}

func truncateDay(t time.Time) time.Time {
	return time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, t.Location())
}
