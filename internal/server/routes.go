package server

import (
	"log/slog"
	"net/http"

	"github.com/prdmaker/prdmaker/internal/store"
)

// NewMux wires every API route behind auth and CORS.
func NewMux(h *Handler, st store.Store, logger *slog.Logger) http.Handler {
	mux := http.NewServeMux()

	// AI pipeline
	mux.HandleFunc("POST /api/ai/analyze", h.handleAnalyze)
	mux.HandleFunc("POST /api/ai/generate-all", h.handleGenerateAll)

	// Projects and their artifacts
	mux.HandleFunc("POST /api/projects", h.handleCreateProject)
	mux.HandleFunc("GET /api/projects", h.handleListProjects)
	mux.HandleFunc("POST /api/projects/{id}/prd", h.handleSavePRD)
	mux.HandleFunc("GET /api/projects/{id}/prd", h.handleGetPRD)
	mux.HandleFunc("POST /api/projects/{id}/features", h.handleSaveFeatures)
	mux.HandleFunc("GET /api/projects/{id}/features", h.handleListFeatures)
	mux.HandleFunc("POST /api/features/{id}/tasks", h.handleSaveTasks)
	mux.HandleFunc("GET /api/features/{id}/tasks", h.handleListTasks)
	mux.HandleFunc("POST /api/projects/{id}/documents", h.handleSaveDocument)
	mux.HandleFunc("GET /api/projects/{id}/documents", h.handleGetDocument)

	// Credentials and trackers
	mux.HandleFunc("POST /api/keys", h.handleSaveKey)
	mux.HandleFunc("POST /api/integrations/jira", h.handlePushJira)
	mux.HandleFunc("DELETE /api/integrations/jira", h.handleDeleteIntegration("jira"))
	mux.HandleFunc("POST /api/integrations/notion", h.handlePushNotion)
	mux.HandleFunc("DELETE /api/integrations/notion", h.handleDeleteIntegration("notion"))

	return CORS(RequireAuth(st, logger, mux))
}
