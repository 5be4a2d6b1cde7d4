package handlers

import (
	"context"
	"encoding/json"
	"net/http"

	"pipeline-analytics/config"
	"pipeline-analytics/core/verify"
)

// ResourceChecker runs existence checks against the configured resources.
type ResourceChecker interface {
	CheckAll(ctx context.Context) verify.Summary
	Invalidate()
}

// ConfigHandler exposes the resource registry and its health checks.
type ConfigHandler struct {
	registry *config.Registry
	checker  ResourceChecker
}

// NewConfigHandler creates a new config handler
func NewConfigHandler(registry *config.Registry, checker ResourceChecker) *ConfigHandler {
	return &ConfigHandler{registry: registry, checker: checker}
}

// GetConfig handles GET /v1/config
func (h *ConfigHandler) GetConfig(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(map[string]interface{}{
		"resources": h.registry.Entries(),
	})
}

// GetChecks handles GET /v1/config/checks
func (h *ConfigHandler) GetChecks(w http.ResponseWriter, r *http.Request) {
	if r.URL.Query().Get("refresh") == "true" {
		h.checker.Invalidate()
	}

	summary := h.checker.CheckAll(r.Context())

	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(summary)
}
