package repository

import (
	"database/sql/driver"
	"errors"
	"fmt"
	"strings"

	"github.com/lib/pq"
)

// QueryErrorKind tags a history-query failure so the presentation layer can
// render an actionable message instead of a generic empty result.
type QueryErrorKind string

const (
	KindConnectionFailed  QueryErrorKind = "connection_failed"
	KindPermissionDenied  QueryErrorKind = "permission_denied"
	KindRetentionExceeded QueryErrorKind = "retention_limit_exceeded"
	KindUnknown           QueryErrorKind = "unknown"
)

// QueryError is the structured failure every history query surfaces rather
// than letting a transport or permission fault escape uncaught.
type QueryError struct {
	Kind    QueryErrorKind
	Message string
}

func (e *QueryError) Error() string {
	return fmt.Sprintf("history query failed (%s): %s", e.Kind, e.Message)
}

// classifyQueryError maps driver errors onto the QueryError taxonomy.
// Retention-shaped messages are checked first: the warehouse reports its
// lookback ceiling as an ordinary query error, and users must not be told
// their pipelines produced nothing when the window was simply too old.
func classifyQueryError(err error) *QueryError {
	msg := err.Error()
	lower := strings.ToLower(msg)

	if strings.Contains(lower, "retention") ||
		(strings.Contains(lower, "more than") && strings.Contains(lower, "days ago")) ||
		strings.Contains(lower, "cannot retrieve data") {
		return &QueryError{Kind: KindRetentionExceeded, Message: msg}
	}

	var pqErr *pq.Error
	if errors.As(err, &pqErr) {
		switch {
		case pqErr.Code == "42501": // insufficient_privilege
			return &QueryError{Kind: KindPermissionDenied, Message: msg}
		case pqErr.Code.Class() == "08": // connection exceptions
			return &QueryError{Kind: KindConnectionFailed, Message: msg}
		}
		return &QueryError{Kind: KindUnknown, Message: msg}
	}

	if errors.Is(err, driver.ErrBadConn) ||
		strings.Contains(lower, "connection refused") ||
		strings.Contains(lower, "no such host") ||
		strings.Contains(lower, "connection reset") ||
		strings.Contains(lower, "i/o timeout") {
		return &QueryError{Kind: KindConnectionFailed, Message: msg}
	}

	return &QueryError{Kind: KindUnknown, Message: msg}
}
