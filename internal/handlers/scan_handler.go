package handlers

import (
	"fmt"
	"net/http"
	"os"
	"path/filepath"

	"github.com/ternarybob/arbor"

	"github.com/flowsint/flowsint/internal/common"
	"github.com/flowsint/flowsint/internal/tasks"
)

// ScanHandler serves scan status and execution log endpoints
type ScanHandler struct {
	tasks  *tasks.Service
	config *common.Config
	logger arbor.ILogger
}

// NewScanHandler creates a new scan handler
func NewScanHandler(taskService *tasks.Service, config *common.Config, logger arbor.ILogger) *ScanHandler {
	return &ScanHandler{
		tasks:  taskService,
		config: config,
		logger: logger,
	}
}

// GetHandler handles GET /api/scans/{id}
func (h *ScanHandler) GetHandler(w http.ResponseWriter, r *http.Request, id string) {
	scan, err := h.tasks.GetScan(r.Context(), id)
	if err != nil {
		WriteServiceError(w, err)
		return
	}
	WriteJSON(w, http.StatusOK, scan)
}

// LogHandler handles GET /api/scans/{id}/log: serves the per-run execution
// log JSON the UI polls or tails.
func (h *ScanHandler) LogHandler(w http.ResponseWriter, r *http.Request, id string) {
	scan, err := h.tasks.GetScan(r.Context(), id)
	if err != nil {
		WriteServiceError(w, err)
		return
	}

	path := filepath.Join(h.config.Engine.LogDir, fmt.Sprintf("enricher_execution_%s_%s.json", scan.SketchID, scan.ID))
	data, err := os.ReadFile(path)
	if err != nil {
		WriteDetailError(w, http.StatusNotFound, "execution log not found for scan "+id)
		return
	}

	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusOK)
	w.Write(data)
}
