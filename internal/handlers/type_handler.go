package handlers

import (
	"net/http"

	"github.com/ternarybob/arbor"

	"github.com/flowsint/flowsint/internal/types"
)

// TypeHandler serves entity type introspection
type TypeHandler struct {
	logger arbor.ILogger
}

// NewTypeHandler creates a new type handler
func NewTypeHandler(logger arbor.ILogger) *TypeHandler {
	return &TypeHandler{logger: logger}
}

// ListHandler handles GET /api/types: the categorized list of entity type
// schemas the sketch editor builds its palette from.
func (h *TypeHandler) ListHandler(w http.ResponseWriter, r *http.Request) {
	if !RequireMethod(w, r, http.MethodGet) {
		return
	}

	categories := []map[string]interface{}{}
	for category, descriptors := range types.Registry.ByCategory() {
		children := make([]map[string]interface{}, 0, len(descriptors))
		for _, desc := range descriptors {
			children = append(children, desc.Schema())
		}
		categories = append(categories, map[string]interface{}{
			"label":    category,
			"key":      category,
			"children": children,
		})
	}

	WriteJSON(w, http.StatusOK, map[string]interface{}{"items": categories})
}
