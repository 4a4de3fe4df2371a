package enrichers

import (
	"context"
	"fmt"
	"sort"
	"strings"
	"sync"

	"github.com/ternarybob/arbor"

	"github.com/flowsint/flowsint/internal/graph"
	"github.com/flowsint/flowsint/internal/interfaces"
)

// Constructor builds an enricher instance around its per-run base state
type Constructor func(base *Base) Enricher

type registration struct {
	descriptor Descriptor
	build      Constructor
}

// registry catalogs all enrichers by name
type registry struct {
	mu       sync.RWMutex
	entries  map[string]*registration
	ordered  []string
}

// Registry is the global enricher registry, populated at package init by
// the explicit registration calls at the bottom of each enricher file.
var Registry = &registry{entries: make(map[string]*registration)}

// Register adds an enricher to the registry. Idempotent by name.
func (r *registry) Register(desc Descriptor, build Constructor) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, exists := r.entries[desc.Name]; !exists {
		r.ordered = append(r.ordered, desc.Name)
	}
	r.entries[desc.Name] = &registration{descriptor: desc, build: build}
}

// Exists reports whether an enricher name is registered
func (r *registry) Exists(name string) bool {
	r.mu.RLock()
	defer r.mu.RUnlock()
	_, ok := r.entries[name]
	return ok
}

// Describe returns the descriptor of a registered enricher
func (r *registry) Describe(name string) (Descriptor, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	reg, ok := r.entries[name]
	if !ok {
		return Descriptor{}, fmt.Errorf("enricher %q: %w", name, interfaces.ErrNotFound)
	}
	return reg.descriptor, nil
}

// BuildContext carries the scoped collaborators an enricher needs
type BuildContext struct {
	SketchID string
	ScanID   string
	UserID   string
	Writer   *graph.Writer
	Secrets  interfaces.SecretStore
	Params   map[string]interface{}
	Logger   arbor.ILogger
	Client   *Client
}

// Build constructs an enricher with validated parameters and resolved
// secrets. Every required vaultSecret parameter is resolved here, before
// any network call is attempted; a missing one fails construction with a
// ConfigError carrying the parameter name.
func (r *registry) Build(ctx context.Context, name string, bc BuildContext) (Enricher, error) {
	r.mu.RLock()
	reg, ok := r.entries[name]
	r.mu.RUnlock()
	if !ok {
		return nil, fmt.Errorf("enricher %q: %w", name, interfaces.ErrNotFound)
	}

	params := map[string]interface{}{}
	for k, v := range bc.Params {
		params[k] = v
	}

	base := &Base{
		SketchID: bc.SketchID,
		ScanID:   bc.ScanID,
		UserID:   bc.UserID,
		Writer:   bc.Writer,
		Logger:   bc.Logger,
		Client:   bc.Client,
		Params:   params,
		secrets:  map[string]string{},
	}

	for _, spec := range reg.descriptor.ParamsSchema {
		switch spec.Kind {
		case ParamVaultSecret:
			value := ""
			resolved := false
			if bc.Secrets != nil {
				value, resolved = bc.Secrets.GetSecret(ctx, bc.UserID, spec.Name, params)
			}
			if !resolved {
				if spec.Required {
					return nil, &interfaces.ConfigError{Enricher: name, Param: spec.Name}
				}
				continue
			}
			base.secrets[spec.Name] = value
		default:
			if _, present := params[spec.Name]; !present {
				if spec.Default != nil {
					params[spec.Name] = spec.Default
				} else if spec.Required {
					return nil, &interfaces.ConfigError{Enricher: name, Param: spec.Name}
				}
			}
		}
	}

	return reg.build(base), nil
}

// List returns all descriptors in registration order, honoring the
// exclusion list so the UI can hide integration connectors.
func (r *registry) List(exclude []string) []Descriptor {
	r.mu.RLock()
	defer r.mu.RUnlock()

	excluded := map[string]bool{}
	for _, name := range exclude {
		excluded[name] = true
	}

	out := make([]Descriptor, 0, len(r.ordered))
	for _, name := range r.ordered {
		if excluded[name] {
			continue
		}
		out = append(out, r.entries[name].descriptor)
	}
	return out
}

// ListByCategory returns all descriptors grouped by category
func (r *registry) ListByCategory() map[string][]Descriptor {
	grouped := map[string][]Descriptor{}
	for _, desc := range r.List(nil) {
		grouped[desc.Category] = append(grouped[desc.Category], desc)
	}
	return grouped
}

// ListByInputType returns descriptors whose input type equals the requested
// type or is "any". Requesting "any" returns everything.
func (r *registry) ListByInputType(inputType string, exclude []string) []Descriptor {
	requested := strings.ToLower(inputType)
	out := []Descriptor{}
	for _, desc := range r.List(exclude) {
		declared := strings.ToLower(desc.InputType)
		if requested == "any" || declared == "any" || declared == requested {
			out = append(out, desc)
		}
	}
	return out
}

// Categories returns the sorted list of known categories
func (r *registry) Categories() []string {
	grouped := r.ListByCategory()
	out := make([]string, 0, len(grouped))
	for category := range grouped {
		out = append(out, category)
	}
	sort.Strings(out)
	return out
}
