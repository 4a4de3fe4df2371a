package handlers

import (
	"net/http"

	"github.com/ternarybob/arbor"

	"github.com/flowsint/flowsint/internal/enrichers"
	"github.com/flowsint/flowsint/internal/flows"
	"github.com/flowsint/flowsint/internal/graph"
	"github.com/flowsint/flowsint/internal/models"
	"github.com/flowsint/flowsint/internal/tasks"
	"github.com/flowsint/flowsint/internal/types"
)

// FlowHandler serves flow CRUD, compilation and launch endpoints
type FlowHandler struct {
	flows  *flows.Service
	tasks  *tasks.Service
	loader *graph.Loader
	logger arbor.ILogger
}

// NewFlowHandler creates a new flow handler
func NewFlowHandler(flowService *flows.Service, taskService *tasks.Service, loader *graph.Loader, logger arbor.ILogger) *FlowHandler {
	return &FlowHandler{
		flows:  flowService,
		tasks:  taskService,
		loader: loader,
		logger: logger,
	}
}

// ListHandler handles GET /api/flows
func (h *FlowHandler) ListHandler(w http.ResponseWriter, r *http.Request) {
	if !RequireMethod(w, r, http.MethodGet) {
		return
	}
	list, err := h.flows.List(r.Context(), r.URL.Query().Get("category"))
	if err != nil {
		WriteServiceError(w, err)
		return
	}
	WriteJSON(w, http.StatusOK, list)
}

type createFlowPayload struct {
	Name        string            `json:"name"`
	Description string            `json:"description"`
	Category    []string          `json:"category"`
	FlowSchema  models.FlowSchema `json:"flow_schema"`
}

// CreateHandler handles POST /api/flows/create
func (h *FlowHandler) CreateHandler(w http.ResponseWriter, r *http.Request) {
	if !RequireMethod(w, r, http.MethodPost) {
		return
	}

	var payload createFlowPayload
	if err := DecodeJSON(r, &payload); err != nil {
		WriteDetailError(w, http.StatusBadRequest, "invalid flow payload: "+err.Error())
		return
	}
	if payload.Name == "" {
		WriteDetailError(w, http.StatusBadRequest, "flow name is required")
		return
	}

	flow, err := h.flows.Create(r.Context(), payload.Name, payload.Description, payload.Category, payload.FlowSchema)
	if err != nil {
		WriteServiceError(w, err)
		return
	}
	WriteJSON(w, http.StatusCreated, flow)
}

// GetHandler handles GET /api/flows/{id}
func (h *FlowHandler) GetHandler(w http.ResponseWriter, r *http.Request, id string) {
	flow, err := h.flows.Get(r.Context(), id)
	if err != nil {
		WriteServiceError(w, err)
		return
	}
	WriteJSON(w, http.StatusOK, flow)
}

type updateFlowPayload struct {
	Name        *string            `json:"name,omitempty"`
	Description *string            `json:"description,omitempty"`
	Category    []string           `json:"category,omitempty"`
	FlowSchema  *models.FlowSchema `json:"flow_schema,omitempty"`
}

// UpdateHandler handles PUT /api/flows/{id}
func (h *FlowHandler) UpdateHandler(w http.ResponseWriter, r *http.Request, id string) {
	var payload updateFlowPayload
	if err := DecodeJSON(r, &payload); err != nil {
		WriteDetailError(w, http.StatusBadRequest, "invalid flow payload: "+err.Error())
		return
	}

	flow, err := h.flows.Update(r.Context(), id, payload.Name, payload.Description, payload.Category, payload.FlowSchema)
	if err != nil {
		WriteServiceError(w, err)
		return
	}
	WriteJSON(w, http.StatusOK, flow)
}

// DeleteHandler handles DELETE /api/flows/{id}
func (h *FlowHandler) DeleteHandler(w http.ResponseWriter, r *http.Request, id string) {
	if err := h.flows.Delete(r.Context(), id); err != nil {
		WriteServiceError(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// LaunchHandler handles POST /api/flows/{id}/launch: loads seeds, compiles
// the stored schema, and enqueues the run.
func (h *FlowHandler) LaunchHandler(w http.ResponseWriter, r *http.Request, id string) {
	var payload launchPayload
	if err := DecodeJSON(r, &payload); err != nil {
		WriteDetailError(w, http.StatusBadRequest, "invalid launch payload: "+err.Error())
		return
	}
	if len(payload.NodeIDs) == 0 || payload.SketchID == "" {
		WriteDetailError(w, http.StatusBadRequest, "node_ids and sketch_id are required")
		return
	}

	flow, err := h.flows.Get(r.Context(), id)
	if err != nil {
		WriteServiceError(w, err)
		return
	}

	cleaned, err := h.loader.LoadSeeds(r.Context(), payload.NodeIDs, payload.SketchID)
	if err != nil {
		WriteServiceError(w, err)
		return
	}

	// The compiler needs one sample value to thread through the placeholder
	// simulation; the first seed's label serves.
	sampleValue := interface{}("sample_value")
	if label, ok := cleaned[0]["label"]; ok {
		sampleValue = label
	}
	branches := flows.Compile(sampleValue, flow.FlowSchema.Nodes, flow.FlowSchema.Edges)

	taskID, err := h.tasks.SubmitRunFlow(r.Context(), branches, cleaned, payload.SketchID, userID(r))
	if err != nil {
		WriteServiceError(w, err)
		return
	}
	WriteJSON(w, http.StatusOK, map[string]string{"id": taskID})
}

type computePayload struct {
	Nodes     []models.FlowNode `json:"nodes"`
	Edges     []models.FlowEdge `json:"edges"`
	InputType string            `json:"inputType,omitempty"`
}

// ComputeHandler handles POST /api/flows/{id}/compute: compile-only, no
// execution.
func (h *FlowHandler) ComputeHandler(w http.ResponseWriter, r *http.Request) {
	var payload computePayload
	if err := DecodeJSON(r, &payload); err != nil {
		WriteDetailError(w, http.StatusBadRequest, "invalid compute payload: "+err.Error())
		return
	}

	branches, initialData := h.flows.Compute(payload.Nodes, payload.Edges, payload.InputType)
	WriteJSON(w, http.StatusOK, map[string]interface{}{
		"flowBranches": branches,
		"initialData":  initialData,
	})
}

// RawMaterialsHandler handles GET /api/flows/raw_materials: all type
// schemas under "types", plus one key per enricher category.
func (h *FlowHandler) RawMaterialsHandler(w http.ResponseWriter, r *http.Request) {
	if !RequireMethod(w, r, http.MethodGet) {
		return
	}

	items := map[string]interface{}{}

	typeSchemas := []map[string]interface{}{}
	for _, desc := range types.Registry.All() {
		typeSchemas = append(typeSchemas, desc.Schema())
	}
	items["types"] = typeSchemas

	for category, descriptors := range enrichers.Registry.ListByCategory() {
		items[category] = descriptors
	}

	WriteJSON(w, http.StatusOK, map[string]interface{}{"items": items})
}

// InputTypeHandler handles GET /api/flows/input_type/{t}
func (h *FlowHandler) InputTypeHandler(w http.ResponseWriter, r *http.Request, inputType string) {
	if !RequireMethod(w, r, http.MethodGet) {
		return
	}
	WriteJSON(w, http.StatusOK, map[string]interface{}{
		"items": enrichers.Registry.ListByInputType(inputType, excludedEnrichers),
	})
}
