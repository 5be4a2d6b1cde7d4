package handlers

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"pipeline-analytics/config"
	"pipeline-analytics/core/verify"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeChecker struct {
	checks      int
	invalidates int
	summary     verify.Summary
}

func (f *fakeChecker) CheckAll(ctx context.Context) verify.Summary {
	f.checks++
	return f.summary
}

func (f *fakeChecker) Invalidate() {
	f.invalidates++
}

func testConfigHandler(checker ResourceChecker) *ConfigHandler {
	registry := config.NewRegistry(&config.Config{
		HistoryTable: "nxf_execution_history",
		StageBucket:  "nxf-workdir",
	})
	return NewConfigHandler(registry, checker)
}

func TestGetConfig(t *testing.T) {
	h := testConfigHandler(&fakeChecker{})

	req := httptest.NewRequest("GET", "/v1/config", nil)
	w := httptest.NewRecorder()
	h.GetConfig(w, req)

	require.Equal(t, http.StatusOK, w.Code)

	var body struct {
		Resources []config.Entry `json:"resources"`
	}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &body))
	require.Len(t, body.Resources, 2)
	assert.Equal(t, config.KeyHistoryTable, body.Resources[0].Key)
	assert.Equal(t, "nxf_execution_history", body.Resources[0].Value)
}

func TestGetChecks(t *testing.T) {
	checker := &fakeChecker{summary: verify.Summary{
		Passed: 2,
		Checks: []verify.CheckResult{{Name: "a", OK: true}, {Name: "b", OK: true}},
	}}
	h := testConfigHandler(checker)

	req := httptest.NewRequest("GET", "/v1/config/checks", nil)
	w := httptest.NewRecorder()
	h.GetChecks(w, req)

	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, 0, checker.invalidates)

	var body verify.Summary
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &body))
	assert.Equal(t, 2, body.Passed)
	assert.Len(t, body.Checks, 2)
}

func TestGetChecksRefresh(t *testing.T) {
	checker := &fakeChecker{}
	h := testConfigHandler(checker)

	req := httptest.NewRequest("GET", "/v1/config/checks?refresh=true", nil)
	w := httptest.NewRecorder()
	h.GetChecks(w, req)

	assert.Equal(t, 1, checker.invalidates)
	assert.Equal(t, 1, checker.checks)
}
