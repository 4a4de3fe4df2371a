package types

import (
	"fmt"
	"sort"
	"strings"
	"sync"

	"github.com/flowsint/flowsint/internal/interfaces"
)

// Field describes one field of an entity type for schema introspection
type Field struct {
	Name        string `json:"name"`
	Type        string `json:"type"` // "string", "number", "boolean", "url", "array<string>", or a nested type name
	Required    bool   `json:"required"`
	Description string `json:"description,omitempty"`
}

// Descriptor is the registered schema of an entity type
type Descriptor struct {
	Name     string  `json:"name"`
	Category string  `json:"category"`
	KeyField string  `json:"key"`
	Fields   []Field `json:"fields"`
	New      func() Entity `json:"-"`
}

// Schema returns a JSON-schema-compatible description of the type, used by
// the UI editor and API introspection.
func (d *Descriptor) Schema() map[string]interface{} {
	properties := make([]map[string]interface{}, 0, len(d.Fields))
	required := []string{}
	for _, f := range d.Fields {
		properties = append(properties, map[string]interface{}{
			"name":        f.Name,
			"type":        f.Type,
			"description": f.Description,
		})
		if f.Required {
			required = append(required, f.Name)
		}
	}
	return map[string]interface{}{
		"title":      d.Name,
		"type":       d.Name,
		"category":   d.Category,
		"key":        d.KeyField,
		"properties": properties,
		"required":   required,
	}
}

// typeRegistry maps type names to their descriptors.
// Double-keyed by exact class name and by its lower-case form; the graph
// database uses lower-case node labels.
type typeRegistry struct {
	mu        sync.RWMutex
	types     map[string]*Descriptor
	lowercase map[string]*Descriptor
}

// Registry is the global type registry, populated at package init
var Registry = &typeRegistry{
	types:     make(map[string]*Descriptor),
	lowercase: make(map[string]*Descriptor),
}

// Register adds a type descriptor to the registry. Registration is
// idempotent: re-registering the same name replaces the previous entry.
func (r *typeRegistry) Register(desc *Descriptor) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.types[desc.Name] = desc
	r.lowercase[strings.ToLower(desc.Name)] = desc
}

// Get looks up a type by exact name, falling back to the lower-case index.
// An unknown name returns ErrNotFound, never a best-effort guess.
func (r *typeRegistry) Get(name string) (*Descriptor, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	if desc, ok := r.types[name]; ok {
		return desc, nil
	}
	if desc, ok := r.lowercase[strings.ToLower(name)]; ok {
		return desc, nil
	}
	return nil, fmt.Errorf("type %q: %w", name, interfaces.ErrNotFound)
}

// Exists reports whether a type name is registered (either casing)
func (r *typeRegistry) Exists(name string) bool {
	_, err := r.Get(name)
	return err == nil
}

// All returns all registered descriptors sorted by name
func (r *typeRegistry) All() []*Descriptor {
	r.mu.RLock()
	defer r.mu.RUnlock()
	out := make([]*Descriptor, 0, len(r.types))
	for _, desc := range r.types {
		out = append(out, desc)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Name < out[j].Name })
	return out
}

// ByCategory returns all descriptors grouped by category
func (r *typeRegistry) ByCategory() map[string][]*Descriptor {
	grouped := map[string][]*Descriptor{}
	for _, desc := range r.All() {
		grouped[desc.Category] = append(grouped[desc.Category], desc)
	}
	return grouped
}
