package routes

import (
	"pipeline-analytics/api/rest/handlers"

	"github.com/gorilla/mux"
)

// SetupRoutes configures all API routes
func SetupRoutes(r *mux.Router, runHandler *handlers.RunHandler, artifactHandler *handlers.ArtifactHandler, configHandler *handlers.ConfigHandler) {
	api := r.PathPrefix("/v1").Subrouter()

	// Run history endpoints
	api.HandleFunc("/runs", runHandler.ListRuns).Methods("GET")
	api.HandleFunc("/runs/export", runHandler.ExportRuns).Methods("GET")

	// Artifact endpoints
	api.HandleFunc("/runs/{run_name}/artifacts/{kind}", artifactHandler.GetArtifact).Methods("GET")
	api.HandleFunc("/runs/{run_name}/session", artifactHandler.ReleaseSession).Methods("DELETE")

	// Configuration endpoints
	api.HandleFunc("/config", configHandler.GetConfig).Methods("GET")
	api.HandleFunc("/config/checks", configHandler.GetChecks).Methods("GET")
}
