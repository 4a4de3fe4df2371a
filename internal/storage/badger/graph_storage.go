package badger

import (
	"context"
	"fmt"
	"time"

	"github.com/ternarybob/arbor"
	"github.com/timshannon/badgerhold/v4"

	"github.com/flowsint/flowsint/internal/interfaces"
)

// GraphStorage implements the GraphStorage interface for Badger.
// Nodes merge on their composite ID (sketch|type|key) so repeated upserts
// with the same key and values yield identical graph state.
type GraphStorage struct {
	db     *BadgerDB
	logger arbor.ILogger
}

// NewGraphStorage creates a new GraphStorage instance
func NewGraphStorage(db *BadgerDB, logger arbor.ILogger) interfaces.GraphStorage {
	return &GraphStorage{
		db:     db,
		logger: logger,
	}
}

// NodeID builds the composite storage key of a node
func NodeID(sketchID, nodeType, key string) string {
	return fmt.Sprintf("%s|%s|%s", sketchID, nodeType, key)
}

// EdgeID builds the composite storage key of an edge
func EdgeID(sketchID, sourceID, relation, targetID string) string {
	return fmt.Sprintf("%s|%s|%s|%s", sketchID, sourceID, relation, targetID)
}

func (s *GraphStorage) UpsertNode(ctx context.Context, node *interfaces.GraphNode) error {
	if node.ID == "" {
		node.ID = NodeID(node.SketchID, node.Type, node.Key)
	}

	// Preserve the original creation timestamp on merge
	var existing interfaces.GraphNode
	if err := s.db.Store().Get(node.ID, &existing); err == nil {
		node.CreatedAt = existing.CreatedAt
	} else if node.CreatedAt.IsZero() {
		node.CreatedAt = time.Now()
	}

	if err := s.db.Store().Upsert(node.ID, *node); err != nil {
		return fmt.Errorf("failed to upsert node %s: %w", node.ID, err)
	}

	s.logger.Trace().
		Str("node_id", node.ID).
		Str("type", node.Type).
		Msg("BadgerDB: Node upserted")
	return nil
}

func (s *GraphStorage) UpsertEdge(ctx context.Context, edge *interfaces.GraphEdge) error {
	if edge.ID == "" {
		edge.ID = EdgeID(edge.SketchID, edge.SourceID, edge.Relation, edge.TargetID)
	}

	var existing interfaces.GraphEdge
	if err := s.db.Store().Get(edge.ID, &existing); err == nil {
		edge.CreatedAt = existing.CreatedAt
	} else if edge.CreatedAt.IsZero() {
		edge.CreatedAt = time.Now()
	}

	if err := s.db.Store().Upsert(edge.ID, *edge); err != nil {
		return fmt.Errorf("failed to upsert edge %s: %w", edge.ID, err)
	}

	s.logger.Trace().
		Str("edge_id", edge.ID).
		Str("relation", edge.Relation).
		Msg("BadgerDB: Edge upserted")
	return nil
}

func (s *GraphStorage) GetNodesByIDs(ctx context.Context, ids []string, sketchID string) ([]*interfaces.GraphNode, error) {
	nodes := make([]*interfaces.GraphNode, 0, len(ids))
	for _, id := range ids {
		var node interfaces.GraphNode
		if err := s.db.Store().Get(id, &node); err != nil {
			if err == badgerhold.ErrNotFound {
				continue
			}
			return nil, fmt.Errorf("failed to get node %s: %w", id, err)
		}
		if node.SketchID != sketchID {
			continue
		}
		nodes = append(nodes, &node)
	}
	return nodes, nil
}

func (s *GraphStorage) ListNodes(ctx context.Context, sketchID string) ([]*interfaces.GraphNode, error) {
	var records []interfaces.GraphNode
	if err := s.db.Store().Find(&records, badgerhold.Where("SketchID").Eq(sketchID)); err != nil {
		return nil, fmt.Errorf("failed to list nodes: %w", err)
	}
	nodes := make([]*interfaces.GraphNode, len(records))
	for i := range records {
		nodes[i] = &records[i]
	}
	return nodes, nil
}

func (s *GraphStorage) ListEdges(ctx context.Context, sketchID string) ([]*interfaces.GraphEdge, error) {
	var records []interfaces.GraphEdge
	if err := s.db.Store().Find(&records, badgerhold.Where("SketchID").Eq(sketchID)); err != nil {
		return nil, fmt.Errorf("failed to list edges: %w", err)
	}
	edges := make([]*interfaces.GraphEdge, len(records))
	for i := range records {
		edges[i] = &records[i]
	}
	return edges, nil
}
