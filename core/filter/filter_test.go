package filter

import (
	"testing"
	"time"

	"pipeline-analytics/core/models"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func fixtureRuns() []models.RunRecord {
	mk := func(id, name string, status models.RunStatus, end time.Time, durationMin float64, db, text string) models.RunRecord {
		r := models.RunRecord{
			RunID:        id,
			RunName:      name,
			Status:       status,
			EndTime:      end,
			DatabaseName: db,
			QueryText:    text,
		}
		if !end.IsZero() {
			r.StartTime = end.Add(-time.Duration(durationMin * float64(time.Minute)))
		}
		r.ComputeDuration()
		return r
	}

	return []models.RunRecord{
		mk("q1", "amazing_turing", models.StatusSuccess, time.Date(2024, 5, 1, 10, 0, 0, 0, time.UTC), 10, "prod_db", "EXECUTE JOB"),
		mk("q2", "brave_curie", models.StatusError, time.Date(2024, 5, 2, 10, 0, 0, 0, time.UTC), 30, "dev_db", "EXECUTE JOB"),
		mk("q3", "calm_noyce", models.StatusSuccess, time.Date(2024, 5, 3, 10, 0, 0, 0, time.UTC), 90, "prod_db", "RNA_SEQ pipeline"),
		mk("q4", "dazzling_wing", models.StatusRunning, time.Time{}, 0, "prod_db", ""),
	}
}

func TestApplyEmptyCriteria(t *testing.T) {
	records := fixtureRuns()

	c := models.FilterCriteria{}
	require.True(t, c.Empty())

	out := Apply(records, c)

	// Empty criteria are a no-op: same records, same order.
	assert.Equal(t, records, out)

	assert.False(t, models.FilterCriteria{SearchText: "x"}.Empty())
}

func TestApplyComposition(t *testing.T) {
	records := fixtureRuns()

	out := Apply(records, models.FilterCriteria{
		Statuses:      []models.RunStatus{models.StatusSuccess},
		DurationRange: &models.DurationRange{Min: 5, Max: 15},
	})

	require.Len(t, out, 1)
	assert.Equal(t, "q1", out[0].RunID)
}

func TestApplyDateRange(t *testing.T) {
	records := fixtureRuns()

	out := Apply(records, models.FilterCriteria{
		DateRange: &models.DateRange{
			Start: time.Date(2024, 5, 2, 0, 0, 0, 0, time.UTC),
			End:   time.Date(2024, 5, 3, 0, 0, 0, 0, time.UTC),
		},
	})

	// q4 has no end time and passes the date filter rather than failing it.
	ids := make([]string, 0, len(out))
	for _, r := range out {
		ids = append(ids, r.RunID)
	}
	assert.Equal(t, []string{"q2", "q3", "q4"}, ids)
}

func TestApplyDurationToleratesUnknown(t *testing.T) {
	records := fixtureRuns()

	out := Apply(records, models.FilterCriteria{
		DurationRange: &models.DurationRange{Min: 0, Max: 60},
	})

	ids := make([]string, 0, len(out))
	for _, r := range out {
		ids = append(ids, r.RunID)
	}
	// q3 (90min) is excluded, the in-progress q4 is kept.
	assert.Equal(t, []string{"q1", "q2", "q4"}, ids)
}

func TestApplySearch(t *testing.T) {
	records := fixtureRuns()

	tests := []struct {
		query string
		want  []string
	}{
		{"curie", []string{"q2"}},          // run name, case-insensitive
		{"Q3", []string{"q3"}},             // run id
		{"dev_db", []string{"q2"}},         // database
		{"rna_seq", []string{"q3"}},        // query text
		{"nomatch", []string{}},            // no hits
		{"", []string{"q1", "q2", "q3", "q4"}}, // empty query passes all
	}

	for _, tt := range tests {
		out := Apply(records, models.FilterCriteria{SearchText: tt.query})
		ids := make([]string, 0, len(out))
		for _, r := range out {
			ids = append(ids, r.RunID)
		}
		assert.Equal(t, tt.want, ids, "query=%q", tt.query)
	}
}

func TestSortDeterministic(t *testing.T) {
	records := fixtureRuns()
	// Two records with identical durations force the RunID tie-break.
	records[1].DurationMinutes = records[0].DurationMinutes

	asc := Sort(records, SortDuration, true)
	again := Sort(records, SortDuration, true)
	assert.Equal(t, asc, again)

	// Ties break ascending on RunID in both directions.
	desc := Sort(records, SortDuration, false)
	for i := 1; i < len(asc); i++ {
		if asc[i-1].DurationMinutes == asc[i].DurationMinutes {
			assert.Less(t, asc[i-1].RunID, asc[i].RunID)
		}
	}
	for i := 1; i < len(desc); i++ {
		if desc[i-1].DurationMinutes == desc[i].DurationMinutes {
			assert.Less(t, desc[i-1].RunID, desc[i].RunID)
		}
	}

	// Input order is untouched.
	assert.Equal(t, "q1", records[0].RunID)
}

func TestParseSortField(t *testing.T) {
	assert.Equal(t, SortDuration, ParseSortField("duration"))
	assert.Equal(t, SortEndTime, ParseSortField(""))
	assert.Equal(t, SortEndTime, ParseSortField("bogus"))
}

func TestPaginate(t *testing.T) {
	records := fixtureRuns()

	page, total := Paginate(records, 1, 3)
	assert.Len(t, page, 3)
	assert.Equal(t, 2, total)

	page, _ = Paginate(records, 2, 3)
	require.Len(t, page, 1)
	assert.Equal(t, "q4", page[0].RunID)

	// Out-of-range pages clamp instead of erroring.
	page, _ = Paginate(records, 99, 3)
	assert.Len(t, page, 1)
	page, _ = Paginate(records, 0, 3)
	assert.Len(t, page, 3)

	// Non-positive perPage disables pagination.
	page, total = Paginate(records, 1, 0)
	assert.Len(t, page, len(records))
	assert.Equal(t, 1, total)

	page, total = Paginate(nil, 1, 10)
	assert.Empty(t, page)
	assert.Equal(t, 1, total)
}
