// Package enrichers catalogs the pluggable transforms of the engine and
// implements the four-phase runtime contract every enricher satisfies:
// preprocess (coerce raw inputs into validated typed entities), scan (the
// actual work, context-aware), postprocess (graph writes and progress
// messages), and execute (the convenience wrapper chaining the three).
package enrichers

import (
	"context"
	"fmt"

	"github.com/ternarybob/arbor"

	"github.com/flowsint/flowsint/internal/graph"
	"github.com/flowsint/flowsint/internal/interfaces"
	"github.com/flowsint/flowsint/internal/types"
)

// Parameter kinds accepted in a params schema
const (
	ParamString      = "string"
	ParamNumber      = "number"
	ParamURL         = "url"
	ParamSelect      = "select"
	ParamVaultSecret = "vaultSecret"
)

// ParamSpec declares one parameter of an enricher
type ParamSpec struct {
	Name        string        `json:"name"`
	Kind        string        `json:"type"`
	Required    bool          `json:"required"`
	Default     interface{}   `json:"default,omitempty"`
	Options     []string      `json:"options,omitempty"`
	Description string        `json:"description,omitempty"`
}

// Descriptor is the declared surface of an enricher
type Descriptor struct {
	Name           string      `json:"name"`
	Category       string      `json:"category"`
	Documentation  string      `json:"documentation"`
	Description    string      `json:"description"`
	InputType      string      `json:"input_type"`  // entity type name; "Any" permitted
	OutputType     string      `json:"output_type"` // entity type name
	Key            string      `json:"key"`         // primary input field
	ParamsSchema   []ParamSpec `json:"params_schema"`
	RequiredParams bool        `json:"required_params"`
	Icon           string      `json:"icon,omitempty"`
}

// Enricher is a named transform consuming entities of one semantic type and
// producing entities of another.
type Enricher interface {
	Descriptor() Descriptor
	// Preprocess coerces raw inputs (strings, records, already-typed
	// entities) into validated typed entities. Invalid items are dropped
	// with a warning; Execute fails the step only when no item survives.
	Preprocess(ctx context.Context, raw []interface{}) []types.Entity
	// Scan performs the actual work. It may suspend on network I/O.
	Scan(ctx context.Context, inputs []types.Entity) ([]types.Entity, error)
	// Postprocess emits graph writes and progress messages. Must be
	// idempotent.
	Postprocess(ctx context.Context, results, inputs []types.Entity) ([]types.Entity, error)
}

// Base carries the per-run state shared by all enrichers: sketch and scan
// scope, the graph writer, resolved secrets, and the validated parameter
// map. Instances are single-use; no in-flight state survives a run.
type Base struct {
	SketchID string
	ScanID   string
	UserID   string
	Writer   *graph.Writer
	Logger   arbor.ILogger
	Client   *Client
	Params   map[string]interface{}

	secrets  map[string]string
	messages []string
}

// Secret returns a secret resolved at construction time
func (b *Base) Secret(name string) string {
	return b.secrets[name]
}

// ParamString returns a string parameter, falling back to the schema default
func (b *Base) ParamString(name, fallback string) string {
	if raw, ok := b.Params[name]; ok {
		if s, ok := raw.(string); ok && s != "" {
			return s
		}
	}
	return fallback
}

// ParamInt returns a numeric parameter, falling back when absent
func (b *Base) ParamInt(name string, fallback int) int {
	switch v := b.Params[name].(type) {
	case int:
		return v
	case float64:
		return int(v)
	}
	return fallback
}

// CreateNode upserts an entity node into the sketch graph
func (b *Base) CreateNode(ctx context.Context, entity types.Entity) error {
	if b.Writer == nil {
		return nil
	}
	return b.Writer.UpsertNode(ctx, entity)
}

// CreateRelationship upserts a typed edge between two entities
func (b *Base) CreateRelationship(ctx context.Context, source, target types.Entity, relation string) error {
	if b.Writer == nil {
		return nil
	}
	return b.Writer.UpsertEdge(ctx, source, target, relation, nil)
}

// CreateRelationshipWithProps upserts an edge carrying scalar attributes of
// its own (used for transaction-like relations).
func (b *Base) CreateRelationshipWithProps(ctx context.Context, source, target types.Entity, relation string, props map[string]interface{}) error {
	if b.Writer == nil {
		return nil
	}
	return b.Writer.UpsertEdge(ctx, source, target, relation, props)
}

// LogGraphMessage attaches a human-readable progress message to the run
func (b *Base) LogGraphMessage(message string) {
	b.messages = append(b.messages, message)
	b.Logger.Info().Str("sketch_id", b.SketchID).Str("scan_id", b.ScanID).Msg(message)
}

// Messages returns the progress messages collected during postprocess
func (b *Base) Messages() []string {
	return b.messages
}

// PreprocessAs is the shared preprocess implementation. A raw string becomes
// a record bound to the type's primary-key field; a record is parsed and
// validated; invalid items are dropped with a warning.
func (b *Base) PreprocessAs(typeName string, raw []interface{}) []types.Entity {
	desc, err := types.Registry.Get(typeName)
	if err != nil {
		b.Logger.Warn().Str("type", typeName).Msg("Unknown input type in preprocess")
		return nil
	}

	entities := make([]types.Entity, 0, len(raw))
	for _, item := range raw {
		var record map[string]interface{}
		switch v := item.(type) {
		case types.Entity:
			if err := types.Validate(v); err != nil {
				b.Logger.Warn().Err(err).Msg("Dropping invalid typed input")
				continue
			}
			entities = append(entities, v)
			continue
		case string:
			record = map[string]interface{}{desc.KeyField: v}
		case map[string]interface{}:
			record = v
		default:
			b.Logger.Warn().Str("type", typeName).Msgf("Dropping unsupported input of type %T", item)
			continue
		}

		entity, err := types.Parse(typeName, record)
		if err != nil {
			b.Logger.Warn().Err(err).Str("type", typeName).Msg("Dropping input that failed validation")
			continue
		}
		entities = append(entities, entity)
	}
	return entities
}

// Execute chains preprocess, scan and postprocess and serializes the
// results. Scan failures surface as EnricherError; an empty preprocess
// result is a ValidationError since nothing valid reached the enricher.
func Execute(ctx context.Context, e Enricher, raw []interface{}) ([]map[string]interface{}, error) {
	desc := e.Descriptor()

	inputs := e.Preprocess(ctx, raw)
	if len(inputs) == 0 {
		return nil, &interfaces.ValidationError{
			TypeName: desc.InputType,
			Reason:   fmt.Sprintf("enricher %s received no valid inputs", desc.Name),
		}
	}

	results, err := e.Scan(ctx, inputs)
	if err != nil {
		return nil, &interfaces.EnricherError{Enricher: desc.Name, Err: err}
	}

	results, err = e.Postprocess(ctx, results, inputs)
	if err != nil {
		return nil, &interfaces.EnricherError{Enricher: desc.Name, Err: err}
	}

	serialized := make([]map[string]interface{}, 0, len(results))
	for _, entity := range results {
		record, err := types.ToRecord(entity)
		if err != nil {
			return nil, &interfaces.EnricherError{Enricher: desc.Name, Err: err}
		}
		record["type"] = entity.TypeName()
		serialized = append(serialized, record)
	}
	return serialized, nil
}
