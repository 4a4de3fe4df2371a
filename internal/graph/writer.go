// Package graph exposes the sketch-scoped write primitives of the engine.
// Both operations are idempotent: repeated calls with the same key and
// values yield identical graph state.
package graph

import (
	"context"
	"fmt"
	"strings"

	"github.com/ternarybob/arbor"

	"github.com/flowsint/flowsint/internal/interfaces"
	"github.com/flowsint/flowsint/internal/storage/badger"
	"github.com/flowsint/flowsint/internal/types"
)

// Writer merges typed nodes and relationships into the graph store,
// scoped to a single sketch.
type Writer struct {
	storage  interfaces.GraphStorage
	sketchID string
	logger   arbor.ILogger
}

// NewWriter creates a Writer bound to a sketch
func NewWriter(storage interfaces.GraphStorage, sketchID string, logger arbor.ILogger) *Writer {
	return &Writer{
		storage:  storage,
		sketchID: sketchID,
		logger:   logger,
	}
}

// SketchID returns the sketch this writer is bound to
func (w *Writer) SketchID() string {
	return w.sketchID
}

// UpsertNode merges an entity on (type, primary key) and sets all of its
// scalar fields. Nested entity fields are never stored as node properties;
// callers persist them through their own UpsertNode calls.
func (w *Writer) UpsertNode(ctx context.Context, entity types.Entity) error {
	if entity.KeyValue() == "" {
		return &interfaces.EngineError{Reason: fmt.Sprintf("cannot store %s with empty primary key", entity.TypeName())}
	}

	record, err := types.ToRecord(entity)
	if err != nil {
		return err
	}

	properties := map[string]interface{}{}
	for k, v := range record {
		if k == "label" {
			continue
		}
		// Nested entities (maps) and entity lists are hoisted into their own
		// nodes by the enricher's postprocess, not flattened onto this one.
		switch v.(type) {
		case map[string]interface{}, []interface{}:
			continue
		}
		properties[k] = v
	}

	node := &interfaces.GraphNode{
		SketchID:   w.sketchID,
		Type:       strings.ToLower(entity.TypeName()),
		Key:        entity.KeyValue(),
		Label:      entity.DisplayLabel(),
		Properties: properties,
	}

	if err := w.storage.UpsertNode(ctx, node); err != nil {
		return err
	}

	w.logger.Debug().
		Str("sketch_id", w.sketchID).
		Str("type", node.Type).
		Str("key", node.Key).
		Msg("Graph node upserted")
	return nil
}

// UpsertEdge merges a typed edge between the two nodes identified by their
// primary keys. Properties are overwritten on merge.
func (w *Writer) UpsertEdge(ctx context.Context, source, target types.Entity, relation string, properties map[string]interface{}) error {
	if relation == "" {
		return &interfaces.EngineError{Reason: "relation name is required"}
	}

	edge := &interfaces.GraphEdge{
		SketchID:   w.sketchID,
		SourceID:   badger.NodeID(w.sketchID, strings.ToLower(source.TypeName()), source.KeyValue()),
		TargetID:   badger.NodeID(w.sketchID, strings.ToLower(target.TypeName()), target.KeyValue()),
		Relation:   relation,
		Properties: properties,
	}

	if err := w.storage.UpsertEdge(ctx, edge); err != nil {
		return err
	}

	w.logger.Debug().
		Str("sketch_id", w.sketchID).
		Str("relation", relation).
		Msg("Graph edge upserted")
	return nil
}

// GetNodesByIDs returns raw node records scoped to the sketch. The record
// includes storage metadata; the Node Loader strips it before validation.
func (w *Writer) GetNodesByIDs(ctx context.Context, ids []string) ([]map[string]interface{}, error) {
	nodes, err := w.storage.GetNodesByIDs(ctx, ids, w.sketchID)
	if err != nil {
		return nil, err
	}

	records := make([]map[string]interface{}, 0, len(nodes))
	for _, node := range nodes {
		record := map[string]interface{}{}
		for k, v := range node.Properties {
			record[k] = v
		}
		record["sketch_id"] = node.SketchID
		record["created_at"] = node.CreatedAt.Format("2006-01-02T15:04:05Z07:00")
		record["type"] = node.Type
		record["label"] = node.Label
		records = append(records, record)
	}
	return records, nil
}
