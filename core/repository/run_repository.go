package repository

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"regexp"

	"pipeline-analytics/core/models"
	"pipeline-analytics/core/window"

	"github.com/lib/pq"
)

// HistorySource selects which upstream shape a deployment reads. The two
// sources carry different columns; normalization into RunRecord happens
// here so nothing downstream ever sees source-specific names.
type HistorySource string

const (
	// SourceQueryHistory is the warehouse's generic query-history view.
	// Run names are recovered from the JSON query tag.
	SourceQueryHistory HistorySource = "query_history"

	// SourceExecutionHistory is the dedicated execution-history table
	// written by the pipeline launcher.
	SourceExecutionHistory HistorySource = "execution_history"
)

// DefaultResultLimit caps a history query when the caller does not supply
// its own limit.
const DefaultResultLimit = 10000

// identPattern restricts interpolated table identifiers. Table names come
// from the startup-fixed configuration registry, never from request input,
// but they are revalidated here anyway.
var identPattern = regexp.MustCompile(`^[A-Za-z_][A-Za-z0-9_.]*$`)

// RunRepository builds and executes run-history queries and normalizes the
// returned rows into canonical RunRecords.
type RunRepository struct {
	db     *DB
	source HistorySource
	table  string
}

// NewRunRepository creates a repository over the configured history source.
func NewRunRepository(db *DB, source HistorySource, table string) (*RunRepository, error) {
	if !identPattern.MatchString(table) {
		return nil, fmt.Errorf("invalid history table identifier %q", table)
	}
	switch source {
	case SourceQueryHistory, SourceExecutionHistory:
	default:
		return nil, fmt.Errorf("unknown history source %q", source)
	}
	return &RunRepository{db: db, source: source, table: table}, nil
}

// ListRuns fetches runs whose end time falls inside the window, newest
// start first. Statuses are validated against the canonical allow-list
// before they reach the query; every value travels via parameter binding.
// Failures come back as a *QueryError, never a raw driver error.
func (r *RunRepository) ListRuns(ctx context.Context, w window.Window, statuses []models.RunStatus, limit int) ([]models.RunRecord, error) {
	if limit <= 0 {
		limit = DefaultResultLimit
	}
	for _, s := range statuses {
		if !models.IsKnownStatus(s) {
			return nil, &QueryError{
				Kind:    KindUnknown,
				Message: fmt.Sprintf("status %q is not in the allowed set", s),
			}
		}
	}

	query, args := r.buildQuery(w, statuses, limit)

	rows, err := r.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, classifyQueryError(err)
	}
	defer rows.Close()

	var records []models.RunRecord
	for rows.Next() {
		rec, err := r.scanRow(rows)
		if err != nil {
			return nil, &QueryError{Kind: KindUnknown, Message: err.Error()}
		}
		records = append(records, rec)
	}
	if err := rows.Err(); err != nil {
		return nil, classifyQueryError(err)
	}
	return records, nil
}

// buildQuery assembles the predicate conjunction: mandatory time bound,
// optional status membership, fixed descending order and a bound limit.
func (r *RunRepository) buildQuery(w window.Window, statuses []models.RunStatus, limit int) (string, []interface{}) {
	var cols, statusCol string
	switch r.source {
	case SourceExecutionHistory:
		cols = "run_id, run_name, user_name, start_time, end_time, status"
		statusCol = "status"
	default:
		cols = "query_id, query_tag, user_name, database_name, warehouse_name, query_text, start_time, end_time, execution_status"
		statusCol = "execution_status"
	}

	query := fmt.Sprintf("SELECT %s FROM %s WHERE end_time >= $1 AND end_time < $2", cols, r.table)
	args := []interface{}{w.Lower, w.Upper}
	argIndex := 3

	if r.source == SourceQueryHistory {
		// The view holds every statement the account ran; pipeline runs are
		// the job-service executions.
		query += " AND query_type = 'EXECUTE_JOB_SERVICE'"
	}

	if len(statuses) > 0 {
		var vals []string
		for _, s := range statuses {
			if r.source == SourceQueryHistory {
				// The view stores native spellings (FAILED, CANCELED, ...);
				// match every spelling that normalizes to the requested
				// status, or filtered loads would drop rows an unfiltered
				// load displays under that status.
				vals = append(vals, s.NativeSpellings()...)
			} else {
				vals = append(vals, string(s))
			}
		}
		query += fmt.Sprintf(" AND %s = ANY($%d)", statusCol, argIndex)
		args = append(args, pq.Array(vals))
		argIndex++
	}

	query += fmt.Sprintf(" ORDER BY start_time DESC LIMIT $%d", argIndex)
	args = append(args, limit)

	return query, args
}

// scanRow normalizes one source row into a RunRecord. NULL columns land as
// zero values; status strings go through the open-enum parser.
func (r *RunRepository) scanRow(rows *sql.Rows) (models.RunRecord, error) {
	var rec models.RunRecord

	switch r.source {
	case SourceExecutionHistory:
		var (
			runName  sql.NullString
			userName sql.NullString
			start    sql.NullTime
			end      sql.NullTime
			status   sql.NullString
		)
		if err := rows.Scan(&rec.RunID, &runName, &userName, &start, &end, &status); err != nil {
			return rec, err
		}
		rec.RunName = runName.String
		rec.UserName = userName.String
		if start.Valid {
			rec.StartTime = start.Time
		}
		if end.Valid {
			rec.EndTime = end.Time
		}
		rec.Status = models.ParseRunStatus(status.String)

	default:
		var (
			queryTag  sql.NullString
			userName  sql.NullString
			dbName    sql.NullString
			whName    sql.NullString
			queryText sql.NullString
			start     sql.NullTime
			end       sql.NullTime
			status    sql.NullString
		)
		if err := rows.Scan(&rec.RunID, &queryTag, &userName, &dbName, &whName, &queryText, &start, &end, &status); err != nil {
			return rec, err
		}
		rec.RunName = runNameFromTag(queryTag.String)
		rec.UserName = userName.String
		rec.DatabaseName = dbName.String
		rec.WarehouseName = whName.String
		rec.QueryText = queryText.String
		if start.Valid {
			rec.StartTime = start.Time
		}
		if end.Valid {
			rec.EndTime = end.Time
		}
		rec.Status = models.ParseRunStatus(status.String)
	}

	rec.ComputeDuration()
	return rec, nil
}

// runNameFromTag extracts the run name the launcher embeds in the JSON
// query tag. Tags that are not JSON are used as-is.
func runNameFromTag(tag string) string {
	if tag == "" {
		return ""
	}
	var parsed struct {
		RunName string `json:"NEXTFLOW_RUN_NAME"`
	}
	if err := json.Unmarshal([]byte(tag), &parsed); err == nil && parsed.RunName != "" {
		return parsed.RunName
	}
	return tag
}
