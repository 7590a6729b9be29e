package handler

import (
	"encoding/json"
	"net/http"
	"strings"

	"go.uber.org/zap"

	"go-data-sentinel/internal/audit"
)

// Handler serves the audit trail captured by the recorder.
type Handler struct {
	recorder *audit.Recorder
	logger   *zap.Logger
}

func New(recorder *audit.Recorder, logger *zap.Logger) *Handler {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Handler{recorder: recorder, logger: logger}
}

// Health reports service liveness
// @Summary Health check
// @Tags health
// @Produce json
// @Success 200 {object} map[string]interface{} "Service is healthy"
// @Router /healthz [get]
func (h *Handler) Health(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, map[string]interface{}{"status": "ok"})
}

// ListRuns retrieves all recorded runs
// @Summary List runs
// @Description Get all pipeline and offline validation runs, newest first
// @Tags runs
// @Produce json
// @Success 200 {array} model.Run "List of runs"
// @Failure 500 {object} map[string]interface{} "Internal server error"
// @Router /runs [get]
func (h *Handler) ListRuns(w http.ResponseWriter, r *http.Request) {
	runs, err := h.recorder.Runs(r.Context())
	if err != nil {
		h.logger.Error("failed to list runs", zap.Error(err))
		http.Error(w, "Failed to fetch runs", http.StatusInternalServerError)
		return
	}
	writeJSON(w, runs)
}

// GetRun retrieves a specific run
// @Summary Get run
// @Description Retrieve one run record by its run ID
// @Tags runs
// @Produce json
// @Param id path string true "Run ID"
// @Success 200 {object} model.Run "Run details"
// @Failure 404 {object} map[string]interface{} "Run not found"
// @Router /runs/{id} [get]
func (h *Handler) GetRun(w http.ResponseWriter, r *http.Request) {
	runID := runIDFromPath(r.URL.Path)
	if runID == "" {
		http.Error(w, "Run ID is required", http.StatusBadRequest)
		return
	}
	run, err := h.recorder.Run(r.Context(), runID)
	if err != nil {
		http.Error(w, "Run not found", http.StatusNotFound)
		return
	}
	writeJSON(w, run)
}

// GetRunEvents retrieves a run's audit trail
// @Summary Get run events
// @Description Retrieve the ordered audit events recorded for a run
// @Tags runs
// @Produce json
// @Param id path string true "Run ID"
// @Success 200 {array} model.AuditEvent "Ordered audit events"
// @Failure 500 {object} map[string]interface{} "Internal server error"
// @Router /runs/{id}/events [get]
func (h *Handler) GetRunEvents(w http.ResponseWriter, r *http.Request) {
	runID := runIDFromPath(r.URL.Path)
	if runID == "" {
		http.Error(w, "Run ID is required", http.StatusBadRequest)
		return
	}
	events, err := h.recorder.Query(r.Context(), runID)
	if err != nil {
		h.logger.Error("failed to query events", zap.String("run_id", runID), zap.Error(err))
		http.Error(w, "Failed to fetch events", http.StatusInternalServerError)
		return
	}
	writeJSON(w, events)
}

// GetRunReports retrieves a run's validation reports
// @Summary Get run reports
// @Description Retrieve the validation reports captured for a run
// @Tags runs
// @Produce json
// @Param id path string true "Run ID"
// @Success 200 {array} model.ValidationReport "Validation reports"
// @Failure 500 {object} map[string]interface{} "Internal server error"
// @Router /runs/{id}/reports [get]
func (h *Handler) GetRunReports(w http.ResponseWriter, r *http.Request) {
	runID := runIDFromPath(r.URL.Path)
	if runID == "" {
		http.Error(w, "Run ID is required", http.StatusBadRequest)
		return
	}
	reports, err := h.recorder.Reports(r.Context(), runID)
	if err != nil {
		h.logger.Error("failed to query reports", zap.String("run_id", runID), zap.Error(err))
		http.Error(w, "Failed to fetch reports", http.StatusInternalServerError)
		return
	}
	writeJSON(w, reports)
}

// runIDFromPath extracts the run id segment from /api/v1/runs/{id}[/...]
func runIDFromPath(path string) string {
	const prefix = "/api/v1/runs/"
	if !strings.HasPrefix(path, prefix) {
		return ""
	}
	rest := strings.TrimPrefix(path, prefix)
	if i := strings.Index(rest, "/"); i >= 0 {
		rest = rest[:i]
	}
	return rest
}

func writeJSON(w http.ResponseWriter, v interface{}) {
	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(v)
}
