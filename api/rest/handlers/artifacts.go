package handlers

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/http"

	"pipeline-analytics/core/models"
	"pipeline-analytics/storage"

	"github.com/gorilla/mux"
)

// ArtifactHandler serves per-run artifact downloads through scoped
// artifact-store sessions.
type ArtifactHandler struct {
	sessions *storage.SessionManager
}

// NewArtifactHandler creates a new artifact handler
func NewArtifactHandler(sessions *storage.SessionManager) *ArtifactHandler {
	return &ArtifactHandler{sessions: sessions}
}

// GetArtifact handles GET /v1/runs/{run_name}/artifacts/{kind}
func (h *ArtifactHandler) GetArtifact(w http.ResponseWriter, r *http.Request) {
	vars := mux.Vars(r)
	runName := vars["run_name"]

	// Reject malformed names before a session is opened for them: nothing
	// should be registered under a name no fetch can ever serve.
	if !storage.ValidRunName(runName) {
		http.Error(w, fmt.Sprintf("invalid run name %q", runName), http.StatusBadRequest)
		return
	}

	kind, ok := models.ParseArtifactKind(vars["kind"])
	if !ok {
		http.Error(w, fmt.Sprintf("unknown artifact kind %q", vars["kind"]), http.StatusBadRequest)
		return
	}

	session, err := h.sessions.ForRun(runName)
	if err != nil {
		writeArtifactError(w, err)
		return
	}

	data, err := session.Fetch(r.Context(), kind)
	if err != nil {
		writeArtifactError(w, err)
		return
	}

	filename, _ := kind.Filename()
	w.Header().Set("Content-Type", kind.ContentType())
	w.Header().Set("Content-Disposition", fmt.Sprintf("inline; filename=%s", filename))
	w.Write(data)
}

// ReleaseSession handles DELETE /v1/runs/{run_name}/session
func (h *ArtifactHandler) ReleaseSession(w http.ResponseWriter, r *http.Request) {
	runName := mux.Vars(r)["run_name"]
	h.sessions.Release(runName)

	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(map[string]interface{}{
		"run_name": runName,
		"released": true,
	})
}

// writeArtifactError maps artifact failures to HTTP responses, keeping the
// attempted path in the body so a missing report is diagnosable.
func writeArtifactError(w http.ResponseWriter, err error) {
	status := http.StatusInternalServerError
	kind := "unknown"
	path := ""

	var aerr *storage.ArtifactError
	if errors.As(err, &aerr) {
		kind = string(aerr.Kind)
		path = aerr.Path
		switch aerr.Kind {
		case storage.ArtifactNotFound:
			status = http.StatusNotFound
		case storage.ArtifactAccessDenied:
			status = http.StatusForbidden
		case storage.ArtifactConnectionFailed:
			status = http.StatusBadGateway
		case storage.ArtifactTooLarge:
			status = http.StatusInsufficientStorage
		}
	}

	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(map[string]interface{}{
		"error": err.Error(),
		"kind":  kind,
		"path":  path,
	})
}
