// Package history is the read-through front of the run-history source. It
// resolves the requested window, serves identical requests from a short-TTL
// cache, and discards results that a newer request has superseded.
package history

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"strings"
	"sync"
	"time"

	"pipeline-analytics/core/cache"
	"pipeline-analytics/core/models"
	"pipeline-analytics/core/window"
)

// QueryTTL bounds how long an identical load request is served from cache
// before the source is queried again.
const QueryTTL = 5 * time.Minute

// ErrSuperseded is returned when a newer request replaced this one while
// its query was in flight. The stale result is discarded, not applied.
var ErrSuperseded = errors.New("history load superseded by a newer request")

// RunLister is the slice of the repository the loader needs.
type RunLister interface {
	ListRuns(ctx context.Context, w window.Window, statuses []models.RunStatus, limit int) ([]models.RunRecord, error)
}

// LoadRequest identifies one history load: either a relative lookback or an
// explicit date range, plus the predicates pushed down to the source.
type LoadRequest struct {
	Lookback  time.Duration
	StartDate time.Time
	EndDate   time.Time
	Statuses  []models.RunStatus
	Limit     int
}

// Key is the request's cache key and its supersede identity.
func (r LoadRequest) Key() string {
	statuses := make([]string, 0, len(r.Statuses))
	for _, s := range r.Statuses {
		statuses = append(statuses, string(s))
	}
	sort.Strings(statuses)

	if r.Lookback > 0 {
		return fmt.Sprintf("lookback=%s|status=%s|limit=%d",
			r.Lookback, strings.Join(statuses, ","), r.Limit)
	}
	return fmt.Sprintf("range=%s..%s|status=%s|limit=%d",
		r.StartDate.Format("2006-01-02"), r.EndDate.Format("2006-01-02"),
		strings.Join(statuses, ","), r.Limit)
}

// LoadResult carries the loaded records together with the identity of the
// request that produced them.
type LoadResult struct {
	Key       string
	Window    window.Window
	Records   []models.RunRecord
	FromCache bool
	LoadedAt  time.Time
}

// Loader owns the history cache and the supersede bookkeeping. Safe for
// concurrent use, though the design assumes one active dashboard session.
type Loader struct {
	repo     RunLister
	resolver window.Resolver
	cache    *cache.Cache[[]models.RunRecord]

	mu         sync.Mutex
	currentKey string
}

// NewLoader creates a loader over the given repository and window resolver.
func NewLoader(repo RunLister, resolver window.Resolver) *Loader {
	return &Loader{
		repo:     repo,
		resolver: resolver,
		cache:    cache.New[[]models.RunRecord](QueryTTL),
	}
}

// Load resolves the window and returns the run set, from cache when an
// identical request was served within the TTL.
func (l *Loader) Load(ctx context.Context, req LoadRequest) (*LoadResult, error) {
	key := req.Key()
	l.mu.Lock()
	l.currentKey = key
	l.mu.Unlock()

	var w window.Window
	var err error
	if req.Lookback > 0 {
		w, err = l.resolver.ResolveLookback(req.Lookback)
	} else {
		w, err = l.resolver.ResolveRange(req.StartDate, req.EndDate)
	}
	if err != nil {
		return nil, err
	}

	if records, ok := l.cache.Get(key); ok {
		return &LoadResult{Key: key, Window: w, Records: records, FromCache: true, LoadedAt: time.Now()}, nil
	}

	records, err := l.repo.ListRuns(ctx, w, req.Statuses, req.Limit)
	if err != nil {
		return nil, err
	}

	// A newer request may have superseded this one while the query ran;
	// its result must not overwrite the newer state.
	l.mu.Lock()
	superseded := l.currentKey != key
	l.mu.Unlock()
	if superseded {
		return nil, ErrSuperseded
	}

	l.cache.Set(key, records)
	return &LoadResult{Key: key, Window: w, Records: records, LoadedAt: time.Now()}, nil
}

// Refresh invalidates the cached entry for req and reloads it. Wired to
// the user-triggered refresh action.
func (l *Loader) Refresh(ctx context.Context, req LoadRequest) (*LoadResult, error) {
	l.cache.Invalidate(req.Key())
	return l.Load(ctx, req)
}

// InvalidateAll drops every cached run set.
func (l *Loader) InvalidateAll() {
	l.cache.InvalidateAll()
}
