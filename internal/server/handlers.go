package server

import (
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"
	"strconv"
	"strings"

	"github.com/prdmaker/prdmaker/internal/core"
	"github.com/prdmaker/prdmaker/internal/integrations"
	"github.com/prdmaker/prdmaker/internal/llm"
	"github.com/prdmaker/prdmaker/internal/store"
)

// Analyzer is the slice of the LLM pipeline the handlers depend on.
type Analyzer interface {
	Analyze(ctx context.Context, req llm.Request) (string, error)
	GenerateAll(ctx context.Context, apiKey, provider, sourceText string) []llm.StageResult
}

// Handler holds the dependencies for all API routes.
type Handler struct {
	store    store.Store
	analyzer Analyzer
	logger   *slog.Logger

	// Pusher factories, swapped in tests to point at local servers.
	newJira   func(domain, apiKey, projectKey string) integrations.Pusher
	newNotion func(apiKey, databaseID string) integrations.Pusher
}

func NewHandler(st store.Store, analyzer Analyzer, logger *slog.Logger) *Handler {
	return &Handler{
		store:    st,
		analyzer: analyzer,
		logger:   logger,
		newJira: func(domain, apiKey, projectKey string) integrations.Pusher {
			return integrations.NewJiraClient(domain, apiKey, projectKey)
		},
		newNotion: func(apiKey, databaseID string) integrations.Pusher {
			return integrations.NewNotionClient(apiKey, databaseID)
		},
	}
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

func writeError(w http.ResponseWriter, status int, code, message string) {
	writeJSON(w, status, map[string]string{"code": code, "error": message})
}

// writeLLMError maps pipeline sentinels onto HTTP responses. Quota errors get
// their own code so the UI can suggest switching providers.
func (h *Handler) writeLLMError(w http.ResponseWriter, err error) {
	switch {
	case errors.Is(err, llm.ErrUnsupportedProvider):
		writeError(w, http.StatusBadRequest, "unsupported_provider", err.Error())
	case errors.Is(err, llm.ErrQuotaExceeded):
		writeError(w, http.StatusTooManyRequests, "quota_exceeded", err.Error())
	case errors.Is(err, llm.ErrConnectionFailed):
		writeError(w, http.StatusInternalServerError, "connection_failed", err.Error())
	default:
		writeError(w, http.StatusInternalServerError, "provider_failure", err.Error())
	}
}

// providerKey loads the caller's stored credential for a provider.
func (h *Handler) providerKey(w http.ResponseWriter, r *http.Request, provider string) (string, bool) {
	user := userFrom(r.Context())
	apiKey, err := h.store.GetAPIKey(r.Context(), user.ID, provider)
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			writeError(w, http.StatusBadRequest, "missing_api_key", "no API key registered for provider "+provider)
			return "", false
		}
		h.logger.Error("api key lookup failed", "err", err)
		writeError(w, http.StatusInternalServerError, "internal_error", "could not load API key")
		return "", false
	}
	return apiKey, true
}

// ownedProject loads a project and verifies the caller owns it.
func (h *Handler) ownedProject(w http.ResponseWriter, r *http.Request, projectID string) (*store.Project, bool) {
	user := userFrom(r.Context())
	project, err := h.store.GetProject(r.Context(), projectID)
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			writeError(w, http.StatusNotFound, "not_found", "project not found")
			return nil, false
		}
		h.logger.Error("project lookup failed", "err", err)
		writeError(w, http.StatusInternalServerError, "internal_error", "could not load project")
		return nil, false
	}
	if project.UserID != user.ID {
		writeError(w, http.StatusNotFound, "not_found", "project not found")
		return nil, false
	}
	return project, true
}

func (h *Handler) handleAnalyze(w http.ResponseWriter, r *http.Request) {
	var req struct {
		Prompt   string `json:"prompt"`
		Type     string `json:"type"`
		Provider string `json:"provider"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "bad_request", "invalid JSON body")
		return
	}
	if strings.TrimSpace(req.Prompt) == "" || strings.TrimSpace(req.Provider) == "" {
		writeError(w, http.StatusBadRequest, "bad_request", "prompt and provider are required")
		return
	}

	apiKey, ok := h.providerKey(w, r, req.Provider)
	if !ok {
		return
	}

	result, err := h.analyzer.Analyze(r.Context(), llm.Request{
		APIKey:       apiKey,
		Provider:     req.Provider,
		Text:         req.Prompt,
		ArtifactType: core.ArtifactType(req.Type),
	})
	if err != nil {
		h.writeLLMError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]string{"result": result})
}

type stageStatus struct {
	Type   string `json:"type"`
	Status string `json:"status"`
	Error  string `json:"error,omitempty"`
}

func (h *Handler) handleGenerateAll(w http.ResponseWriter, r *http.Request) {
	var req struct {
		ProjectID string `json:"project_id"`
		Prompt    string `json:"prompt"`
		Provider  string `json:"provider"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "bad_request", "invalid JSON body")
		return
	}
	if req.ProjectID == "" || strings.TrimSpace(req.Prompt) == "" || req.Provider == "" {
		writeError(w, http.StatusBadRequest, "bad_request", "project_id, prompt and provider are required")
		return
	}
	if _, ok := h.ownedProject(w, r, req.ProjectID); !ok {
		return
	}
	apiKey, ok := h.providerKey(w, r, req.Provider)
	if !ok {
		return
	}

	if _, err := h.store.SavePRDDocument(r.Context(), req.ProjectID, req.Prompt); err != nil {
		h.logger.Error("saving PRD failed", "err", err)
		writeError(w, http.StatusInternalServerError, "internal_error", "could not save PRD")
		return
	}

	results := h.analyzer.GenerateAll(r.Context(), apiKey, req.Provider, req.Prompt)

	stages := make([]stageStatus, 0, len(results))
	var featureRecords []store.FeatureRecord
	for _, res := range results {
		status := stageStatus{Type: string(res.Type), Status: "ok"}
		if res.Err != nil {
			status.Status = "error"
			status.Error = res.Err.Error()
			stages = append(stages, status)
			continue
		}

		if err := h.persistStage(r.Context(), req.ProjectID, res, &featureRecords); err != nil {
			h.logger.Error("persisting stage failed", "type", res.Type, "err", err)
			status.Status = "error"
			status.Error = err.Error()
		}
		stages = append(stages, status)
	}

	writeJSON(w, http.StatusOK, map[string]any{
		"stages":   stages,
		"features": len(featureRecords),
	})
}

// persistStage stores one stage output: the analysis becomes feature rows, the
// task table becomes task rows keyed to those features, everything else is
// saved as a markdown document.
func (h *Handler) persistStage(ctx context.Context, projectID string, res llm.StageResult, featureRecords *[]store.FeatureRecord) error {
	switch res.Type {
	case core.ArtifactPRDAnalysis:
		features, err := core.ParseFeatures(res.Output)
		if err != nil {
			return err
		}
		records, err := h.store.SaveFeatures(ctx, projectID, features)
		if err != nil {
			return err
		}
		*featureRecords = records
		return nil

	case core.ArtifactTaskTable:
		return h.persistTasks(ctx, res.Output, *featureRecords)

	default:
		_, err := h.store.SaveGeneratedDocument(ctx, projectID, res.Type, res.Output)
		return err
	}
}

// persistTasks groups the generated task rows by their feature reference
// (a 1-based position into the extracted feature list) and stores each group
// under the matching feature record.
func (h *Handler) persistTasks(ctx context.Context, output string, features []store.FeatureRecord) error {
	if len(features) == 0 {
		return errors.New("no features to attach tasks to")
	}

	raw, err := core.ExtractRecords(output)
	if err != nil {
		return err
	}

	grouped := make(map[string][]core.Task)
	for _, record := range raw {
		idx := featureIndex(record, len(features))
		featureID := features[idx].ID
		grouped[featureID] = append(grouped[featureID], core.NormalizeTask(record))
	}

	for featureID, tasks := range grouped {
		if _, err := h.store.SaveTasks(ctx, featureID, tasks); err != nil {
			return err
		}
	}
	return nil
}

// featureIndex reads the model's feature_id reference, clamped into range.
// The prompt asks for a 1-based id; anything unreadable lands on the first
// feature.
func featureIndex(record map[string]any, count int) int {
	var n int
	switch v := record["feature_id"].(type) {
	case float64:
		n = int(v)
	case string:
		n, _ = strconv.Atoi(strings.TrimSpace(v))
	}
	idx := n - 1
	if idx < 0 || idx >= count {
		return 0
	}
	return idx
}

func (h *Handler) handleCreateProject(w http.ResponseWriter, r *http.Request) {
	var req struct {
		Name        string `json:"name"`
		Description string `json:"description"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "bad_request", "invalid JSON body")
		return
	}
	if strings.TrimSpace(req.Name) == "" {
		writeError(w, http.StatusBadRequest, "bad_request", "name is required")
		return
	}

	user := userFrom(r.Context())
	project, err := h.store.CreateProject(r.Context(), user.ID, req.Name, req.Description)
	if err != nil {
		h.logger.Error("creating project failed", "err", err)
		writeError(w, http.StatusInternalServerError, "internal_error", "could not create project")
		return
	}
	writeJSON(w, http.StatusCreated, project)
}

func (h *Handler) handleListProjects(w http.ResponseWriter, r *http.Request) {
	user := userFrom(r.Context())
	projects, err := h.store.ListProjects(r.Context(), user.ID)
	if err != nil {
		h.logger.Error("listing projects failed", "err", err)
		writeError(w, http.StatusInternalServerError, "internal_error", "could not list projects")
		return
	}
	writeJSON(w, http.StatusOK, projects)
}

func (h *Handler) handleSavePRD(w http.ResponseWriter, r *http.Request) {
	projectID := r.PathValue("id")
	if _, ok := h.ownedProject(w, r, projectID); !ok {
		return
	}

	var req struct {
		Content string `json:"content"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "bad_request", "invalid JSON body")
		return
	}
	if strings.TrimSpace(req.Content) == "" {
		writeError(w, http.StatusBadRequest, "bad_request", "content is required")
		return
	}

	doc, err := h.store.SavePRDDocument(r.Context(), projectID, req.Content)
	if err != nil {
		h.logger.Error("saving PRD failed", "err", err)
		writeError(w, http.StatusInternalServerError, "internal_error", "could not save PRD")
		return
	}
	writeJSON(w, http.StatusCreated, doc)
}

func (h *Handler) handleGetPRD(w http.ResponseWriter, r *http.Request) {
	projectID := r.PathValue("id")
	if _, ok := h.ownedProject(w, r, projectID); !ok {
		return
	}

	doc, err := h.store.GetPRDDocument(r.Context(), projectID)
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			writeError(w, http.StatusNotFound, "not_found", "no PRD saved for project")
			return
		}
		h.logger.Error("loading PRD failed", "err", err)
		writeError(w, http.StatusInternalServerError, "internal_error", "could not load PRD")
		return
	}
	writeJSON(w, http.StatusOK, doc)
}

func (h *Handler) handleSaveFeatures(w http.ResponseWriter, r *http.Request) {
	projectID := r.PathValue("id")
	if _, ok := h.ownedProject(w, r, projectID); !ok {
		return
	}

	var req struct {
		Features []map[string]any `json:"features"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "bad_request", "invalid JSON body")
		return
	}
	if len(req.Features) == 0 {
		writeError(w, http.StatusBadRequest, "bad_request", "features are required")
		return
	}

	features := make([]core.Feature, 0, len(req.Features))
	for _, record := range req.Features {
		features = append(features, core.NormalizeFeature(record))
	}

	records, err := h.store.SaveFeatures(r.Context(), projectID, features)
	if err != nil {
		h.logger.Error("saving features failed", "err", err)
		writeError(w, http.StatusInternalServerError, "internal_error", "could not save features")
		return
	}
	writeJSON(w, http.StatusCreated, records)
}

func (h *Handler) handleListFeatures(w http.ResponseWriter, r *http.Request) {
	projectID := r.PathValue("id")
	if _, ok := h.ownedProject(w, r, projectID); !ok {
		return
	}

	records, err := h.store.ListFeatures(r.Context(), projectID)
	if err != nil {
		h.logger.Error("listing features failed", "err", err)
		writeError(w, http.StatusInternalServerError, "internal_error", "could not list features")
		return
	}
	writeJSON(w, http.StatusOK, records)
}

func (h *Handler) handleSaveTasks(w http.ResponseWriter, r *http.Request) {
	featureID := r.PathValue("id")

	var req struct {
		Tasks []map[string]any `json:"tasks"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "bad_request", "invalid JSON body")
		return
	}
	if len(req.Tasks) == 0 {
		writeError(w, http.StatusBadRequest, "bad_request", "tasks are required")
		return
	}

	tasks := make([]core.Task, 0, len(req.Tasks))
	for _, record := range req.Tasks {
		tasks = append(tasks, core.NormalizeTask(record))
	}

	records, err := h.store.SaveTasks(r.Context(), featureID, tasks)
	if err != nil {
		h.logger.Error("saving tasks failed", "err", err)
		writeError(w, http.StatusInternalServerError, "internal_error", "could not save tasks")
		return
	}
	writeJSON(w, http.StatusCreated, records)
}

func (h *Handler) handleListTasks(w http.ResponseWriter, r *http.Request) {
	featureID := r.PathValue("id")
	records, err := h.store.ListTasks(r.Context(), featureID)
	if err != nil {
		h.logger.Error("listing tasks failed", "err", err)
		writeError(w, http.StatusInternalServerError, "internal_error", "could not list tasks")
		return
	}
	writeJSON(w, http.StatusOK, records)
}

func (h *Handler) handleSaveDocument(w http.ResponseWriter, r *http.Request) {
	projectID := r.PathValue("id")
	if _, ok := h.ownedProject(w, r, projectID); !ok {
		return
	}

	var req struct {
		Type    string `json:"type"`
		Content string `json:"content"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "bad_request", "invalid JSON body")
		return
	}
	if req.Type == "" || req.Content == "" {
		writeError(w, http.StatusBadRequest, "bad_request", "type and content are required")
		return
	}

	doc, err := h.store.SaveGeneratedDocument(r.Context(), projectID, core.ArtifactType(req.Type), req.Content)
	if err != nil {
		h.logger.Error("saving document failed", "err", err)
		writeError(w, http.StatusInternalServerError, "internal_error", "could not save document")
		return
	}
	writeJSON(w, http.StatusCreated, doc)
}

func (h *Handler) handleGetDocument(w http.ResponseWriter, r *http.Request) {
	projectID := r.PathValue("id")
	if _, ok := h.ownedProject(w, r, projectID); !ok {
		return
	}

	docType := r.URL.Query().Get("type")
	if docType == "" {
		writeError(w, http.StatusBadRequest, "bad_request", "type query parameter is required")
		return
	}

	doc, err := h.store.GetGeneratedDocument(r.Context(), projectID, core.ArtifactType(docType))
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			writeError(w, http.StatusNotFound, "not_found", "no document of that type")
			return
		}
		h.logger.Error("loading document failed", "err", err)
		writeError(w, http.StatusInternalServerError, "internal_error", "could not load document")
		return
	}
	writeJSON(w, http.StatusOK, doc)
}

func (h *Handler) handleSaveKey(w http.ResponseWriter, r *http.Request) {
	var req struct {
		Provider string `json:"provider"`
		APIKey   string `json:"api_key"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "bad_request", "invalid JSON body")
		return
	}
	if req.Provider == "" || req.APIKey == "" {
		writeError(w, http.StatusBadRequest, "bad_request", "provider and api_key are required")
		return
	}

	user := userFrom(r.Context())
	if err := h.store.SaveAPIKey(r.Context(), user.ID, req.Provider, req.APIKey); err != nil {
		h.logger.Error("saving api key failed", "err", err)
		writeError(w, http.StatusInternalServerError, "internal_error", "could not save API key")
		return
	}
	writeJSON(w, http.StatusCreated, map[string]string{"status": "saved"})
}

func (h *Handler) handlePushJira(w http.ResponseWriter, r *http.Request) {
	var req struct {
		ProjectID  string `json:"project_id"`
		APIKey     string `json:"api_key"`
		Domain     string `json:"domain"`
		ProjectKey string `json:"project_key"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "bad_request", "invalid JSON body")
		return
	}
	if req.ProjectID == "" || req.APIKey == "" || req.Domain == "" || req.ProjectKey == "" {
		writeError(w, http.StatusBadRequest, "bad_request", "project_id, api_key, domain and project_key are required")
		return
	}

	pusher := h.newJira(req.Domain, req.APIKey, req.ProjectKey)
	h.pushFeatures(w, r, req.ProjectID, pusher, integrations.ServiceJira, req.APIKey, req.Domain, req.ProjectKey)
}

func (h *Handler) handlePushNotion(w http.ResponseWriter, r *http.Request) {
	var req struct {
		ProjectID  string `json:"project_id"`
		APIKey     string `json:"api_key"`
		DatabaseID string `json:"database_id"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "bad_request", "invalid JSON body")
		return
	}
	if req.ProjectID == "" || req.APIKey == "" || req.DatabaseID == "" {
		writeError(w, http.StatusBadRequest, "bad_request", "project_id, api_key and database_id are required")
		return
	}

	pusher := h.newNotion(req.APIKey, req.DatabaseID)
	h.pushFeatures(w, r, req.ProjectID, pusher, integrations.ServiceNotion, req.APIKey, "", req.DatabaseID)
}

// pushFeatures saves the connection settings, loads the project's features and
// pushes each one. Partial failures come back in the response body; items
// created before a failure stay created.
func (h *Handler) pushFeatures(w http.ResponseWriter, r *http.Request, projectID string, pusher integrations.Pusher, service, apiKey, serviceURL, projectKey string) {
	if _, ok := h.ownedProject(w, r, projectID); !ok {
		return
	}
	user := userFrom(r.Context())

	if _, err := h.store.SaveIntegration(r.Context(), user.ID, service, apiKey, serviceURL, projectKey); err != nil {
		h.logger.Error("saving integration failed", "service", service, "err", err)
		writeError(w, http.StatusInternalServerError, "internal_error", "could not save integration settings")
		return
	}

	features, err := h.store.ListFeatures(r.Context(), projectID)
	if err != nil {
		h.logger.Error("listing features failed", "err", err)
		writeError(w, http.StatusInternalServerError, "internal_error", "could not list features")
		return
	}
	if len(features) == 0 {
		writeError(w, http.StatusBadRequest, "bad_request", "project has no features to push")
		return
	}

	result := pusher.PushFeatures(r.Context(), features)
	h.logger.Info("push finished", "service", service,
		"created", len(result.Created), "failed", len(result.Failed))
	writeJSON(w, http.StatusOK, result)
}

func (h *Handler) handleDeleteIntegration(service string) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		user := userFrom(r.Context())
		if err := h.store.DeleteIntegration(r.Context(), user.ID, service); err != nil {
			if errors.Is(err, store.ErrNotFound) {
				writeError(w, http.StatusNotFound, "not_found", "no "+service+" integration configured")
				return
			}
			h.logger.Error("deleting integration failed", "service", service, "err", err)
			writeError(w, http.StatusInternalServerError, "internal_error", "could not delete integration")
			return
		}
		writeJSON(w, http.StatusOK, map[string]string{"status": "deleted"})
	}
}
