package handlers

import (
	"context"
	"encoding/csv"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"strconv"
	"strings"
	"time"

	"pipeline-analytics/core/filter"
	"pipeline-analytics/core/history"
	"pipeline-analytics/core/metrics"
	"pipeline-analytics/core/models"
	"pipeline-analytics/core/repository"
	"pipeline-analytics/core/window"
)

const dateLayout = "2006-01-02"

// HistoryLoader is the slice of the history loader the handler needs.
type HistoryLoader interface {
	Load(ctx context.Context, req history.LoadRequest) (*history.LoadResult, error)
	Refresh(ctx context.Context, req history.LoadRequest) (*history.LoadResult, error)
}

// RunHandler serves the run-history list, metrics and CSV export.
type RunHandler struct {
	loader HistoryLoader
}

// NewRunHandler creates a new run handler
func NewRunHandler(loader HistoryLoader) *RunHandler {
	return &RunHandler{loader: loader}
}

// runView is the JSON shape of one run row, with the duration pre-formatted
// for display.
type runView struct {
	RunID           string  `json:"run_id"`
	RunName         string  `json:"run_name,omitempty"`
	StartTime       string  `json:"start_time,omitempty"`
	EndTime         string  `json:"end_time,omitempty"`
	Status          string  `json:"status"`
	UserName        string  `json:"user_name,omitempty"`
	DatabaseName    string  `json:"database_name,omitempty"`
	WarehouseName   string  `json:"warehouse_name,omitempty"`
	DurationMinutes float64 `json:"duration_minutes"`
	Duration        string  `json:"duration"`
}

// ListRuns handles GET /v1/runs
func (h *RunHandler) ListRuns(w http.ResponseWriter, r *http.Request) {
	req, err := parseLoadRequest(r)
	if err != nil {
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}

	var result *history.LoadResult
	if r.URL.Query().Get("refresh") == "true" {
		result, err = h.loader.Refresh(r.Context(), req)
	} else {
		result, err = h.loader.Load(r.Context(), req)
	}
	if err != nil {
		writeLoadError(w, err)
		return
	}

	criteria, err := parseFilterCriteria(r)
	if err != nil {
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}

	filtered := filter.Apply(result.Records, criteria)
	sorted := filter.Sort(filtered, filter.ParseSortField(r.URL.Query().Get("sort_by")), r.URL.Query().Get("order") == "asc")

	page := intParam(r, "page", 1)
	perPage := intParam(r, "per_page", 50)
	pageRecords, totalPages := filter.Paginate(sorted, page, perPage)

	views := make([]runView, 0, len(pageRecords))
	for _, rec := range pageRecords {
		views = append(views, toRunView(rec))
	}

	response := map[string]interface{}{
		"window":         result.Window,
		"loaded_at":      result.LoadedAt,
		"from_cache":     result.FromCache,
		"total_loaded":   len(result.Records),
		"total_filtered": len(filtered),
		"metrics":        metrics.Compute(filtered),
		"page":           page,
		"total_pages":    totalPages,
		"runs":           views,
	}

	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(response)
}

// ExportRuns handles GET /v1/runs/export, serializing the filtered and
// sorted run set as CSV.
func (h *RunHandler) ExportRuns(w http.ResponseWriter, r *http.Request) {
	req, err := parseLoadRequest(r)
	if err != nil {
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}

	result, err := h.loader.Load(r.Context(), req)
	if err != nil {
		writeLoadError(w, err)
		return
	}

	criteria, err := parseFilterCriteria(r)
	if err != nil {
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}

	filtered := filter.Apply(result.Records, criteria)
	sorted := filter.Sort(filtered, filter.ParseSortField(r.URL.Query().Get("sort_by")), r.URL.Query().Get("order") == "asc")

	filename := fmt.Sprintf("pipeline_runs_%s.csv", time.Now().Format("20060102_150405"))
	w.Header().Set("Content-Type", "text/csv")
	w.Header().Set("Content-Disposition", "attachment; filename="+filename)

	cw := csv.NewWriter(w)
	cw.Write([]string{"Run ID", "Run Name", "End Time", "Status", "Database", "Warehouse", "Execution Time"})
	for _, rec := range sorted {
		endTime := ""
		if !rec.EndTime.IsZero() {
			endTime = rec.EndTime.Format("2006-01-02 15:04:05")
		}
		cw.Write([]string{
			rec.RunID,
			rec.RunName,
			endTime,
			string(rec.Status),
			rec.DatabaseName,
			rec.WarehouseName,
			metrics.FormatDuration(rec.DurationMinutes),
		})
	}
	cw.Flush()
}

// parseLoadRequest builds the server-side load request: the time window
// (relative hours or an explicit date pair), status set and row cap.
func parseLoadRequest(r *http.Request) (history.LoadRequest, error) {
	q := r.URL.Query()
	req := history.LoadRequest{Limit: intParam(r, "limit", 0)}

	switch {
	case q.Get("hours") != "":
		h, err := strconv.ParseFloat(q.Get("hours"), 64)
		if err != nil || h <= 0 {
			return req, fmt.Errorf("invalid hours parameter %q", q.Get("hours"))
		}
		req.Lookback = time.Duration(h * float64(time.Hour))
	case q.Get("start_date") != "" || q.Get("end_date") != "":
		start, err := time.Parse(dateLayout, q.Get("start_date"))
		if err != nil {
			return req, fmt.Errorf("invalid start_date %q", q.Get("start_date"))
		}
		end, err := time.Parse(dateLayout, q.Get("end_date"))
		if err != nil {
			return req, fmt.Errorf("invalid end_date %q", q.Get("end_date"))
		}
		req.StartDate = start
		req.EndDate = end
	default:
		req.Lookback = 24 * time.Hour
	}

	statuses, err := parseStatuses(q.Get("status"))
	if err != nil {
		return req, err
	}
	req.Statuses = statuses

	return req, nil
}

// parseFilterCriteria builds the client-side criteria applied to the
// already-loaded run set.
func parseFilterCriteria(r *http.Request) (models.FilterCriteria, error) {
	q := r.URL.Query()
	var c models.FilterCriteria

	if q.Get("filter_start") != "" || q.Get("filter_end") != "" {
		start, err := time.Parse(dateLayout, q.Get("filter_start"))
		if err != nil {
			return c, fmt.Errorf("invalid filter_start %q", q.Get("filter_start"))
		}
		end, err := time.Parse(dateLayout, q.Get("filter_end"))
		if err != nil {
			return c, fmt.Errorf("invalid filter_end %q", q.Get("filter_end"))
		}
		c.DateRange = &models.DateRange{Start: start, End: end}
	}

	if q.Get("min_minutes") != "" || q.Get("max_minutes") != "" {
		min, err := floatParam(q.Get("min_minutes"), 0)
		if err != nil {
			return c, err
		}
		max, err := floatParam(q.Get("max_minutes"), 48*60)
		if err != nil {
			return c, err
		}
		c.DurationRange = &models.DurationRange{Min: min, Max: max}
	}

	c.SearchText = q.Get("q")
	return c, nil
}

func parseStatuses(param string) ([]models.RunStatus, error) {
	if param == "" {
		return nil, nil
	}
	var statuses []models.RunStatus
	for _, part := range strings.Split(param, ",") {
		s := models.RunStatus(strings.ToUpper(strings.TrimSpace(part)))
		if !models.IsKnownStatus(s) {
			return nil, fmt.Errorf("unknown status %q", part)
		}
		statuses = append(statuses, s)
	}
	return statuses, nil
}

func intParam(r *http.Request, name string, defaultValue int) int {
	if v := r.URL.Query().Get(name); v != "" {
		if n, err := strconv.Atoi(v); err == nil {
			return n
		}
	}
	return defaultValue
}

func floatParam(value string, defaultValue float64) (float64, error) {
	if value == "" {
		return defaultValue, nil
	}
	f, err := strconv.ParseFloat(value, 64)
	if err != nil {
		return 0, fmt.Errorf("invalid duration bound %q", value)
	}
	return f, nil
}

func toRunView(rec models.RunRecord) runView {
	v := runView{
		RunID:           rec.RunID,
		RunName:         rec.RunName,
		Status:          string(rec.Status),
		UserName:        rec.UserName,
		DatabaseName:    rec.DatabaseName,
		WarehouseName:   rec.WarehouseName,
		DurationMinutes: rec.DurationMinutes,
		Duration:        metrics.FormatDuration(rec.DurationMinutes),
	}
	if !rec.StartTime.IsZero() {
		v.StartTime = rec.StartTime.Format(time.RFC3339)
	}
	if !rec.EndTime.IsZero() {
		v.EndTime = rec.EndTime.Format(time.RFC3339)
	}
	return v
}

// writeLoadError translates load failures into HTTP responses, keeping the
// error kind visible so the UI can explain retention limits and offer a
// retry instead of showing an empty table.
func writeLoadError(w http.ResponseWriter, err error) {
	kind := "unknown"
	status := http.StatusInternalServerError

	var qerr *repository.QueryError
	switch {
	case errors.Is(err, window.ErrInvalidRange):
		kind = "invalid_range"
		status = http.StatusBadRequest
	case errors.Is(err, window.ErrRetentionExceeded):
		kind = string(repository.KindRetentionExceeded)
		status = http.StatusUnprocessableEntity
	case errors.Is(err, history.ErrSuperseded):
		kind = "superseded"
		status = http.StatusConflict
	case errors.As(err, &qerr):
		kind = string(qerr.Kind)
		switch qerr.Kind {
		case repository.KindConnectionFailed:
			status = http.StatusBadGateway
		case repository.KindPermissionDenied:
			status = http.StatusForbidden
		case repository.KindRetentionExceeded:
			status = http.StatusUnprocessableEntity
		}
	}

	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(map[string]interface{}{
		"error": err.Error(),
		"kind":  kind,
	})
}
