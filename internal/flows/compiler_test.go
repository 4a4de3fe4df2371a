package flows

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/flowsint/flowsint/internal/models"
)

func seedNode(id, typeName, firstOutput string) models.FlowNode {
	return models.FlowNode{
		ID: id,
		Data: models.FlowNodeData{
			Type: models.StepTypeSeed,
			Name: typeName,
			Outputs: models.OutputSchema{
				Properties: []models.OutputField{{Name: firstOutput, Type: "string"}},
			},
		},
	}
}

func enricherNode(id, name string, outputs ...string) models.FlowNode {
	props := make([]models.OutputField, len(outputs))
	for i, out := range outputs {
		props[i] = models.OutputField{Name: out, Type: "string"}
	}
	return models.FlowNode{
		ID: id,
		Data: models.FlowNodeData{
			Type:    models.StepTypeEnricher,
			Name:    name,
			Outputs: models.OutputSchema{Properties: props},
		},
	}
}

func edge(source, sourceHandle, target, targetHandle string) models.FlowEdge {
	return models.FlowEdge{Source: source, SourceHandle: sourceHandle, Target: target, TargetHandle: targetHandle}
}

// Linear chain: one branch with every node in graph order
func TestCompileLinearChain(t *testing.T) {
	nodes := []models.FlowNode{
		seedNode("seed-1", "Domain", "domain"),
		enricherNode("domain_to_ip-1", "domain_to_ip", "address"),
		enricherNode("ip_to_asn-1", "ip_to_asn", "number"),
	}
	edges := []models.FlowEdge{
		edge("seed-1", "domain", "domain_to_ip-1", "domain"),
		edge("domain_to_ip-1", "address", "ip_to_asn-1", "address"),
	}

	branches := Compile("example.com", nodes, edges)

	require.Len(t, branches, 1)
	branch := branches[0]
	assert.Equal(t, "branch-0", branch.ID)
	assert.Equal(t, "Main Flow", branch.Name)
	require.Len(t, branch.Steps, 3)

	assert.Equal(t, models.StepTypeSeed, branch.Steps[0].Type)
	assert.Equal(t, map[string]interface{}{"domain": "example.com"}, branch.Steps[0].Outputs)

	assert.Equal(t, models.StepTypeEnricher, branch.Steps[1].Type)
	assert.Equal(t, "domain_to_ip", branch.Steps[1].Enricher)
	assert.Equal(t, 1, branch.Steps[1].Depth)

	assert.Equal(t, "ip_to_asn", branch.Steps[2].Enricher)
	assert.Equal(t, 2, branch.Steps[2].Depth)

	for _, step := range branch.Steps {
		assert.Equal(t, models.StepStatusPending, step.Status)
		assert.Equal(t, "branch-0", step.BranchID)
	}
}

// Two compilations of the same graph produce byte-identical branch lists
func TestCompileDeterminism(t *testing.T) {
	nodes := []models.FlowNode{
		seedNode("seed-1", "Domain", "domain"),
		enricherNode("domain_to_ip-1", "domain_to_ip", "address"),
		enricherNode("domain_to_subdomains-1", "domain_to_subdomains", "domain"),
		enricherNode("ip_to_asn-1", "ip_to_asn", "number"),
	}
	edges := []models.FlowEdge{
		edge("seed-1", "domain", "domain_to_ip-1", "domain"),
		edge("seed-1", "domain", "domain_to_subdomains-1", "domain"),
		edge("domain_to_ip-1", "address", "ip_to_asn-1", "address"),
	}

	first, err := json.Marshal(Compile("example.com", nodes, edges))
	require.NoError(t, err)
	second, err := json.Marshal(Compile("example.com", nodes, edges))
	require.NoError(t, err)

	assert.Equal(t, string(first), string(second))
}

// Fork: each additional outgoing edge spawns a sibling branch with a copied
// prefix
func TestCompileFork(t *testing.T) {
	nodes := []models.FlowNode{
		seedNode("seed-1", "Domain", "domain"),
		enricherNode("domain_to_ip-1", "domain_to_ip", "address"),
		enricherNode("domain_to_whois-1", "domain_to_whois", "registrar"),
	}
	edges := []models.FlowEdge{
		edge("seed-1", "domain", "domain_to_ip-1", "domain"),
		edge("seed-1", "domain", "domain_to_whois-1", "domain"),
	}

	branches := Compile("example.com", nodes, edges)

	require.Len(t, branches, 2)
	assert.Equal(t, "branch-0", branches[0].ID)
	assert.Equal(t, "Main Flow", branches[0].Name)
	assert.Equal(t, "branch-0-1", branches[1].ID)
	assert.Equal(t, "Main Flow (Branch 1)", branches[1].Name)

	assert.Len(t, branches[0].Steps, 2)
	assert.Len(t, branches[1].Steps, 2)

	// Ties break by edge listing order
	assert.Equal(t, "domain_to_ip", branches[0].Steps[1].Enricher)
	assert.Equal(t, "domain_to_whois", branches[1].Steps[1].Enricher)

	// The shared prefix is a by-value copy, not an alias
	assert.Equal(t, branches[0].Steps[0].NodeID, branches[1].Steps[0].NodeID)
	assert.Equal(t, "branch-0", branches[0].Steps[0].BranchID)
}

// The main branch follows the edge whose target has the shortest distance
// to a leaf, regardless of listing order
func TestCompileShortestMainBranch(t *testing.T) {
	nodes := []models.FlowNode{
		seedNode("seed-1", "Domain", "domain"),
		enricherNode("domain_to_ip-1", "domain_to_ip", "address"),
		enricherNode("ip_to_asn-1", "ip_to_asn", "number"),
		enricherNode("domain_to_whois-1", "domain_to_whois", "registrar"),
	}
	edges := []models.FlowEdge{
		// Listed first but two hops from a leaf
		edge("seed-1", "domain", "domain_to_ip-1", "domain"),
		edge("domain_to_ip-1", "address", "ip_to_asn-1", "address"),
		// Listed last but adjacent to a leaf
		edge("seed-1", "domain", "domain_to_whois-1", "domain"),
	}

	branches := Compile("example.com", nodes, edges)

	require.Len(t, branches, 2)
	// Ascending by length: the whois leg is the main branch
	require.Len(t, branches[0].Steps, 2)
	assert.Equal(t, "domain_to_whois", branches[0].Steps[1].Enricher)
	assert.Equal(t, "branch-0", branches[0].ID)

	require.Len(t, branches[1].Steps, 3)
	assert.Equal(t, "domain_to_ip", branches[1].Steps[1].Enricher)
}

// A cycle terminates compilation and no branch revisits a node
func TestCompileCycleSafety(t *testing.T) {
	nodes := []models.FlowNode{
		seedNode("seed-1", "Domain", "domain"),
		enricherNode("domain_to_ip-1", "domain_to_ip", "address"),
		enricherNode("ip_to_domain-1", "ip_to_domain", "domain"),
	}
	edges := []models.FlowEdge{
		edge("seed-1", "domain", "domain_to_ip-1", "domain"),
		edge("domain_to_ip-1", "address", "ip_to_domain-1", "address"),
		edge("ip_to_domain-1", "domain", "domain_to_ip-1", "domain"), // cycle
	}

	branches := Compile("example.com", nodes, edges)

	require.NotEmpty(t, branches)
	longEnough := false
	for _, branch := range branches {
		seen := map[string]bool{}
		for _, step := range branch.Steps {
			assert.False(t, seen[step.NodeID], "branch %s visits %s twice", branch.ID, step.NodeID)
			seen[step.NodeID] = true
		}
		if len(branch.Steps) >= 2 {
			longEnough = true
		}
	}
	assert.True(t, longEnough, "expected at least one branch of length >= 2")
}

// The same enricher node reached through different branches yields the same
// placeholder outputs
func TestCompilePlaceholderConsistency(t *testing.T) {
	nodes := []models.FlowNode{
		seedNode("seed-1", "Domain", "domain"),
		enricherNode("domain_to_ip-1", "domain_to_ip", "address"),
		enricherNode("domain_to_subdomains-1", "domain_to_subdomains", "domain"),
		enricherNode("ip_to_asn-1", "ip_to_asn", "number"),
	}
	edges := []models.FlowEdge{
		edge("seed-1", "domain", "domain_to_ip-1", "domain"),
		edge("seed-1", "domain", "domain_to_subdomains-1", "domain"),
		edge("domain_to_ip-1", "address", "ip_to_asn-1", "address"),
		edge("domain_to_subdomains-1", "domain", "ip_to_asn-1", "address"),
	}

	branches := Compile("example.com", nodes, edges)

	outputsSeen := map[string]map[string]interface{}{}
	for _, branch := range branches {
		for _, step := range branch.Steps {
			if step.NodeID != "ip_to_asn-1" {
				continue
			}
			if prior, ok := outputsSeen[step.NodeID]; ok {
				assert.Equal(t, prior, step.Outputs)
			} else {
				outputsSeen[step.NodeID] = step.Outputs
			}
		}
	}
	assert.NotEmpty(t, outputsSeen)
}

func TestCompileWithoutSeedNodes(t *testing.T) {
	nodes := []models.FlowNode{
		enricherNode("domain_to_ip-1", "domain_to_ip", "address"),
	}

	branches := Compile("example.com", nodes, nil)

	require.Len(t, branches, 1)
	require.Len(t, branches[0].Steps, 1)
	assert.Equal(t, models.StepTypeError, branches[0].Steps[0].Type)
	assert.Equal(t, models.StepStatusError, branches[0].Steps[0].Status)
}

func TestCompileUnknownEnricher(t *testing.T) {
	nodes := []models.FlowNode{
		seedNode("seed-1", "Domain", "domain"),
		enricherNode("mystery-1", "mystery_enricher", "out"),
	}
	edges := []models.FlowEdge{
		edge("seed-1", "domain", "mystery-1", "input"),
	}

	branches := Compile("example.com", nodes, edges)

	require.Len(t, branches, 1)
	require.Len(t, branches[0].Steps, 1)
	assert.Equal(t, models.StepTypeError, branches[0].Steps[0].Type)
	assert.Contains(t, branches[0].Steps[0].Error, "mystery_enricher")
}

func TestCompileDanglingEdge(t *testing.T) {
	nodes := []models.FlowNode{
		seedNode("seed-1", "Domain", "domain"),
	}
	edges := []models.FlowEdge{
		edge("seed-1", "domain", "ghost-1", "input"),
	}

	branches := Compile("example.com", nodes, edges)

	require.Len(t, branches, 1)
	assert.Equal(t, models.StepTypeError, branches[0].Steps[0].Type)
	assert.Contains(t, branches[0].Steps[0].Error, "ghost-1")
}

func TestGenerateSampleData(t *testing.T) {
	assert.Equal(t, "example.com", GenerateSampleData("domain"))
	assert.Equal(t, "192.168.1.1", GenerateSampleData("ip"))
	assert.Equal(t, "user@example.com", GenerateSampleData("email"))
	assert.Equal(t, 42, GenerateSampleData("number"))
	assert.Equal(t, "sample_text", GenerateSampleData(""))
	assert.Equal(t, "sample_widget", GenerateSampleData("Widget"))
}
