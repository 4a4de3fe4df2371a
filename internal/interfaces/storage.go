package interfaces

import (
	"context"
	"time"

	"github.com/flowsint/flowsint/internal/models"
)

// GraphNode is a stored node record. Properties carries the entity's scalar
// fields; SketchID, CreatedAt, Label and Type are storage metadata and are
// not part of the entity's own fields.
type GraphNode struct {
	ID         string                 `json:"id" badgerhold:"key"` // composite: sketch|type|key
	SketchID   string                 `json:"sketch_id" badgerhold:"index"`
	Type       string                 `json:"type"` // lower-case node label
	Key        string                 `json:"key"`  // primary-key value
	Label      string                 `json:"label"`
	Properties map[string]interface{} `json:"properties"`
	CreatedAt  time.Time              `json:"created_at"`
}

// GraphEdge is a stored typed relationship between two nodes
type GraphEdge struct {
	ID         string                 `json:"id" badgerhold:"key"` // composite: sketch|src|relation|dst
	SketchID   string                 `json:"sketch_id" badgerhold:"index"`
	SourceID   string                 `json:"source_id"`
	TargetID   string                 `json:"target_id"`
	Relation   string                 `json:"relation"`
	Properties map[string]interface{} `json:"properties,omitempty"`
	CreatedAt  time.Time              `json:"created_at"`
}

// GraphStorage persists nodes and edges scoped to a sketch
type GraphStorage interface {
	UpsertNode(ctx context.Context, node *GraphNode) error
	UpsertEdge(ctx context.Context, edge *GraphEdge) error
	GetNodesByIDs(ctx context.Context, ids []string, sketchID string) ([]*GraphNode, error)
	ListNodes(ctx context.Context, sketchID string) ([]*GraphNode, error)
	ListEdges(ctx context.Context, sketchID string) ([]*GraphEdge, error)
}

// ScanStorage persists scan job rows
type ScanStorage interface {
	SaveScan(ctx context.Context, scan *models.Scan) error
	GetScan(ctx context.Context, id string) (*models.Scan, error)
	ListScans(ctx context.Context, sketchID string) ([]*models.Scan, error)
	DeleteScansBefore(ctx context.Context, cutoff time.Time) (int, error)
}

// FlowStorage persists user-authored flows
type FlowStorage interface {
	SaveFlow(ctx context.Context, flow *models.Flow) error
	GetFlow(ctx context.Context, id string) (*models.Flow, error)
	ListFlows(ctx context.Context) ([]*models.Flow, error)
	DeleteFlow(ctx context.Context, id string) error
}

// VaultStorage persists user-scoped secrets.
// Reads happen on the worker path; writes happen out of band.
type VaultStorage interface {
	GetEntryByID(ctx context.Context, id string) (*models.VaultEntry, error)
	GetEntryByName(ctx context.Context, ownerID, name string) (*models.VaultEntry, error)
	SaveEntry(ctx context.Context, entry *models.VaultEntry) error
	DeleteEntry(ctx context.Context, id string) error
}

// StorageManager aggregates the per-aggregate storages
type StorageManager interface {
	GraphStorage() GraphStorage
	ScanStorage() ScanStorage
	FlowStorage() FlowStorage
	VaultStorage() VaultStorage
	Close() error
}
