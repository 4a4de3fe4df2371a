package graph

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/ternarybob/arbor"

	"github.com/flowsint/flowsint/internal/common"
	"github.com/flowsint/flowsint/internal/interfaces"
	badgerstore "github.com/flowsint/flowsint/internal/storage/badger"
	"github.com/flowsint/flowsint/internal/types"
)

func newTestWriter(t *testing.T, sketchID string) (*Writer, interfaces.GraphStorage) {
	t.Helper()
	logger := arbor.NewLogger()
	manager, err := badgerstore.NewManager(logger, &common.BadgerConfig{Path: t.TempDir()})
	require.NoError(t, err)
	t.Cleanup(func() { manager.Close() })
	return NewWriter(manager.GraphStorage(), sketchID, logger), manager.GraphStorage()
}

// Executing the same upsert sequence twice yields identical graph state
func TestWriterIdempotence(t *testing.T) {
	ctx := context.Background()
	writer, storage := newTestWriter(t, "sketch-1")

	domain := &types.Domain{Domain: "example.com"}
	ip := &types.Ip{Address: "93.184.216.34"}

	apply := func() {
		require.NoError(t, writer.UpsertNode(ctx, domain))
		require.NoError(t, writer.UpsertNode(ctx, ip))
		require.NoError(t, writer.UpsertEdge(ctx, domain, ip, "RESOLVES_TO", nil))
	}

	apply()
	apply()

	nodes, err := storage.ListNodes(ctx, "sketch-1")
	require.NoError(t, err)
	assert.Len(t, nodes, 2)

	edges, err := storage.ListEdges(ctx, "sketch-1")
	require.NoError(t, err)
	assert.Len(t, edges, 1)
	assert.Equal(t, "RESOLVES_TO", edges[0].Relation)
}

func TestWriterSetsStorageMetadata(t *testing.T) {
	ctx := context.Background()
	writer, storage := newTestWriter(t, "sketch-2")

	require.NoError(t, writer.UpsertNode(ctx, &types.Domain{Domain: "example.com"}))

	nodes, err := storage.ListNodes(ctx, "sketch-2")
	require.NoError(t, err)
	require.Len(t, nodes, 1)

	node := nodes[0]
	assert.Equal(t, "domain", node.Type)
	assert.Equal(t, "example.com", node.Key)
	assert.Equal(t, "example.com", node.Label)
	assert.Equal(t, "sketch-2", node.SketchID)
	assert.False(t, node.CreatedAt.IsZero())

	// The entity's own fields carry neither label nor storage metadata
	assert.NotContains(t, node.Properties, "label")
	assert.NotContains(t, node.Properties, "sketch_id")
	assert.Equal(t, "example.com", node.Properties["domain"])
}

// Nested entity fields never land as node properties
func TestWriterSkipsNestedEntities(t *testing.T) {
	ctx := context.Background()
	writer, storage := newTestWriter(t, "sketch-3")

	whois := &types.Whois{
		Domain:    &types.Domain{Domain: "example.com"},
		Registrar: "Example Registrar",
		Organization: &types.Organization{
			Name: "Example Org",
		},
	}
	require.NoError(t, writer.UpsertNode(ctx, whois))

	nodes, err := storage.ListNodes(ctx, "sketch-3")
	require.NoError(t, err)
	require.Len(t, nodes, 1)

	props := nodes[0].Properties
	assert.NotContains(t, props, "domain")
	assert.NotContains(t, props, "organization")
	assert.Equal(t, "Example Registrar", props["registrar"])
}

func TestWriterMergeOverwritesScalarFields(t *testing.T) {
	ctx := context.Background()
	writer, storage := newTestWriter(t, "sketch-4")

	require.NoError(t, writer.UpsertNode(ctx, &types.Ip{Address: "10.0.0.1"}))
	require.NoError(t, writer.UpsertNode(ctx, &types.Ip{Address: "10.0.0.1", Country: "France", City: "Paris"}))

	nodes, err := storage.ListNodes(ctx, "sketch-4")
	require.NoError(t, err)
	require.Len(t, nodes, 1)
	assert.Equal(t, "France", nodes[0].Properties["country"])
}

func TestLoaderRoundTrip(t *testing.T) {
	ctx := context.Background()
	writer, storage := newTestWriter(t, "sketch-5")
	logger := arbor.NewLogger()

	require.NoError(t, writer.UpsertNode(ctx, &types.Domain{Domain: "example.com"}))

	nodeID := badgerstore.NodeID("sketch-5", "domain", "example.com")
	loader := NewLoader(storage, logger)

	cleaned, err := loader.LoadSeeds(ctx, []string{nodeID}, "sketch-5")
	require.NoError(t, err)
	require.Len(t, cleaned, 1)

	// Storage metadata stripped, entity fields preserved
	assert.Equal(t, "example.com", cleaned[0]["domain"])
	assert.NotContains(t, cleaned[0], "sketch_id")
	assert.NotContains(t, cleaned[0], "type")

	// The cleaned record parses back into the entity it came from
	entity, err := types.Parse("Domain", cleaned[0])
	require.NoError(t, err)
	assert.Equal(t, "example.com", entity.KeyValue())
}

func TestLoaderRejectsUnknownIDs(t *testing.T) {
	ctx := context.Background()
	_, storage := newTestWriter(t, "sketch-6")
	loader := NewLoader(storage, arbor.NewLogger())

	_, err := loader.LoadSeeds(ctx, []string{"missing"}, "sketch-6")
	require.Error(t, err)
	assert.ErrorIs(t, err, interfaces.ErrNotFound)
}

// Nodes from another sketch are invisible
func TestWriterSketchScoping(t *testing.T) {
	ctx := context.Background()
	writer, storage := newTestWriter(t, "sketch-a")

	require.NoError(t, writer.UpsertNode(ctx, &types.Domain{Domain: "example.com"}))

	other, err := storage.ListNodes(ctx, "sketch-b")
	require.NoError(t, err)
	assert.Empty(t, other)
}
