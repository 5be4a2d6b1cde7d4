package metrics

import (
	"testing"
	"time"

	"pipeline-analytics/core/models"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func run(id string, status models.RunStatus, end time.Time, durationMin float64, db, wh string) models.RunRecord {
	r := models.RunRecord{
		RunID:         id,
		Status:        status,
		EndTime:       end,
		StartTime:     end.Add(-time.Duration(durationMin * float64(time.Minute))),
		DatabaseName:  db,
		WarehouseName: wh,
	}
	r.ComputeDuration()
	return r
}

func TestComputeEmpty(t *testing.T) {
	m := Compute(nil)
	assert.Equal(t, 0, m.Count)
	assert.Zero(t, m.AvgDurationMinutes)
	assert.Zero(t, m.SuccessRatePct)
	assert.Empty(t, m.Daily)
}

func TestCompute(t *testing.T) {
	day1 := time.Date(2024, 5, 1, 10, 0, 0, 0, time.UTC)
	day2 := time.Date(2024, 5, 2, 10, 0, 0, 0, time.UTC)

	records := []models.RunRecord{
		run("r1", models.StatusSuccess, day1, 10, "prod_db", "wh_small"),
		run("r2", models.StatusSuccess, day1, 20, "prod_db", "wh_large"),
		run("r3", models.StatusError, day2, 30, "dev_db", "wh_small"),
	}

	m := Compute(records)

	assert.Equal(t, 3, m.Count)
	assert.InDelta(t, 20.0, m.AvgDurationMinutes, 0.001)
	assert.InDelta(t, 60.0, m.TotalDurationMinutes, 0.001)
	assert.InDelta(t, 100.0*2/3, m.SuccessRatePct, 0.001)
	assert.Equal(t, 2, m.UniqueDatabases)
	assert.Equal(t, 2, m.UniqueWarehouses)

	// Daily breakdown is sorted ascending by date.
	assert.Len(t, m.Daily, 2)
	assert.Equal(t, "2024-05-01", m.Daily[0].Date)
	assert.Equal(t, 2, m.Daily[0].Counts[models.StatusSuccess])
	assert.Equal(t, "2024-05-02", m.Daily[1].Date)
	assert.Equal(t, 1, m.Daily[1].Counts[models.StatusError])
}

func TestComputeZeroDurationInDenominator(t *testing.T) {
	end := time.Date(2024, 5, 1, 10, 0, 0, 0, time.UTC)

	// A completed run whose start and end coincide has a known duration of
	// zero and stays in the average's denominator.
	records := []models.RunRecord{
		run("r1", models.StatusSuccess, end, 10, "", ""),
		run("r2", models.StatusSuccess, end, 20, "", ""),
		run("r3", models.StatusError, end, 0, "", ""),
	}
	require.True(t, records[2].DurationKnown())

	m := Compute(records)

	assert.Equal(t, 3, m.Count)
	assert.InDelta(t, 10.0, m.AvgDurationMinutes, 0.001)
	assert.InDelta(t, 30.0, m.TotalDurationMinutes, 0.001)
	assert.InDelta(t, 66.7, m.SuccessRatePct, 0.1)
}

func TestComputeSkipsUnknownDurations(t *testing.T) {
	end := time.Date(2024, 5, 1, 10, 0, 0, 0, time.UTC)
	records := []models.RunRecord{
		run("r1", models.StatusSuccess, end, 10, "", ""),
		{RunID: "r2", Status: models.StatusRunning}, // in progress, no timestamps
	}

	m := Compute(records)

	// The running record contributes to the count but not the average.
	assert.Equal(t, 2, m.Count)
	assert.InDelta(t, 10.0, m.AvgDurationMinutes, 0.001)
	assert.Len(t, m.Daily, 1)
}

func TestComputeOrderIndependent(t *testing.T) {
	day := time.Date(2024, 5, 1, 10, 0, 0, 0, time.UTC)
	a := run("r1", models.StatusSuccess, day, 10, "db1", "wh1")
	b := run("r2", models.StatusError, day.Add(time.Hour), 20, "db2", "wh2")

	assert.Equal(t, Compute([]models.RunRecord{a, b}), Compute([]models.RunRecord{b, a}))
}

func TestFormatDuration(t *testing.T) {
	tests := []struct {
		minutes float64
		want    string
	}{
		{0, "0sec"},
		{-5, "0sec"},
		{0.5, "30sec"},
		{1, "1min"},
		{2.5, "2min30sec"},
		{62.5, "1hr2min30sec"},
		{60, "1hr"},
		{120, "2hr"},
		{61, "1hr1min"},
	}

	for _, tt := range tests {
		assert.Equal(t, tt.want, FormatDuration(tt.minutes), "minutes=%v", tt.minutes)
	}
}
