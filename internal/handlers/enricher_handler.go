package handlers

import (
	"net/http"
	"strings"

	"github.com/ternarybob/arbor"

	"github.com/flowsint/flowsint/internal/enrichers"
	"github.com/flowsint/flowsint/internal/graph"
	"github.com/flowsint/flowsint/internal/tasks"
	"github.com/flowsint/flowsint/internal/types"
)

// excludedEnrichers hides integration connectors from UI listings
var excludedEnrichers = []string{"n8n_connector"}

// launchPayload is the body of enricher and flow launch requests
type launchPayload struct {
	NodeIDs  []string `json:"node_ids"`
	SketchID string   `json:"sketch_id"`
}

// enricherView is a descriptor plus the wobblyType marker the UI reads
type enricherView struct {
	enrichers.Descriptor
	WobblyType bool `json:"wobblyType"`
}

// EnricherHandler serves enricher listing and launch endpoints
type EnricherHandler struct {
	tasks  *tasks.Service
	loader *graph.Loader
	logger arbor.ILogger
}

// NewEnricherHandler creates a new enricher handler
func NewEnricherHandler(taskService *tasks.Service, loader *graph.Loader, logger arbor.ILogger) *EnricherHandler {
	return &EnricherHandler{
		tasks:  taskService,
		loader: loader,
		logger: logger,
	}
}

func withWobbly(descriptors []enrichers.Descriptor, wobbly bool) []enricherView {
	out := make([]enricherView, len(descriptors))
	for i, desc := range descriptors {
		out[i] = enricherView{Descriptor: desc, WobblyType: wobbly}
	}
	return out
}

// ListHandler returns enricher descriptors. Without a category it lists
// everything; a known entity type filters by input type; any other category
// is treated as a user-owned custom type and returns all descriptors with
// wobblyType set.
func (h *EnricherHandler) ListHandler(w http.ResponseWriter, r *http.Request) {
	if !RequireMethod(w, r, http.MethodGet) {
		return
	}

	category := r.URL.Query().Get("category")
	if category == "" || strings.EqualFold(category, "undefined") {
		WriteJSON(w, http.StatusOK, withWobbly(enrichers.Registry.List(excludedEnrichers), false))
		return
	}

	if !types.Registry.Exists(category) && !strings.EqualFold(category, "any") {
		WriteJSON(w, http.StatusOK, withWobbly(enrichers.Registry.List(excludedEnrichers), true))
		return
	}

	WriteJSON(w, http.StatusOK, withWobbly(enrichers.Registry.ListByInputType(category, excludedEnrichers), false))
}

// LaunchHandler handles POST /api/enrichers/{name}/launch
func (h *EnricherHandler) LaunchHandler(w http.ResponseWriter, r *http.Request, enricherName string) {
	if !RequireMethod(w, r, http.MethodPost) {
		return
	}

	if !enrichers.Registry.Exists(enricherName) {
		WriteDetailError(w, http.StatusNotFound, "enricher not found: "+enricherName)
		return
	}

	var payload launchPayload
	if err := DecodeJSON(r, &payload); err != nil {
		WriteDetailError(w, http.StatusBadRequest, "invalid launch payload: "+err.Error())
		return
	}
	if len(payload.NodeIDs) == 0 || payload.SketchID == "" {
		WriteDetailError(w, http.StatusBadRequest, "node_ids and sketch_id are required")
		return
	}

	cleaned, err := h.loader.LoadSeeds(r.Context(), payload.NodeIDs, payload.SketchID)
	if err != nil {
		WriteServiceError(w, err)
		return
	}

	taskID, err := h.tasks.SubmitRunEnricher(r.Context(), enricherName, cleaned, payload.SketchID, userID(r))
	if err != nil {
		WriteServiceError(w, err)
		return
	}

	WriteJSON(w, http.StatusOK, map[string]string{"id": taskID})
}

// userID extracts the calling user from the request. Authentication is
// handled upstream; the header carries the resolved identity.
func userID(r *http.Request) string {
	return r.Header.Get("X-User-Id")
}
