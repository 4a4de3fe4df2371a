// Package flows compiles user-authored flow graphs into ordered lists of
// linear branches and manages flow persistence.
package flows

import (
	"fmt"
	"math"
	"sort"

	"github.com/flowsint/flowsint/internal/enrichers"
	"github.com/flowsint/flowsint/internal/models"
)

// compiler holds the traversal state of one compilation
type compiler struct {
	seed            interface{}
	edges           []models.FlowEdge
	nodeMap         map[string]*models.FlowNode
	inputNodes      []*models.FlowNode
	branches        []models.FlowBranch
	branchCounter   int
	enricherOutputs map[string]map[string]interface{} // placeholder cache keyed by nodeId
}

// errorBranch builds the synthetic single-step branch surfaced for flows the
// compiler cannot traverse. A malformed flow is not a crash.
func errorBranch(message string) []models.FlowBranch {
	return []models.FlowBranch{
		{
			ID:   "error",
			Name: "Error",
			Steps: []models.FlowStep{
				{
					NodeID:   "error",
					Type:     models.StepTypeError,
					Inputs:   map[string]interface{}{},
					Outputs:  map[string]interface{}{},
					Status:   models.StepStatusError,
					BranchID: "error",
					Depth:    0,
					Error:    message,
				},
			},
		},
	}
}

// Compile converts a flow (nodes + edges) plus one seed value into an
// ordered list of linear branches, each representing one simple path from a
// seed-type node to a terminal node of the flow.
func Compile(seed interface{}, nodes []models.FlowNode, edges []models.FlowEdge) []models.FlowBranch {
	c := &compiler{
		seed:            seed,
		edges:           edges,
		nodeMap:         map[string]*models.FlowNode{},
		enricherOutputs: map[string]map[string]interface{}{},
	}

	for i := range nodes {
		node := &nodes[i]
		c.nodeMap[node.ID] = node
		if node.Data.Type == models.StepTypeSeed {
			c.inputNodes = append(c.inputNodes, node)
		}
	}

	if len(c.inputNodes) == 0 {
		return errorBranch("flow has no seed-type nodes")
	}

	// Validate before traversing: unknown enrichers and dangling edges
	// surface as a descriptive error branch, not a crash.
	for i := range nodes {
		node := &nodes[i]
		if node.Data.Type == models.StepTypeEnricher && !enrichers.Registry.Exists(node.Data.Name) {
			return errorBranch(fmt.Sprintf("unknown enricher %q on node %s", node.Data.Name, node.ID))
		}
	}
	for _, edge := range edges {
		if _, ok := c.nodeMap[edge.Source]; !ok {
			return errorBranch(fmt.Sprintf("edge references absent source node %s", edge.Source))
		}
		if _, ok := c.nodeMap[edge.Target]; !ok {
			return errorBranch(fmt.Sprintf("edge references absent target node %s", edge.Target))
		}
	}

	// One primary branch per seed node, in listing order
	for index, inputNode := range c.inputNodes {
		branchID := fmt.Sprintf("branch-%d", index)
		branchName := "Main Flow"
		if len(c.inputNodes) > 1 {
			branchName = fmt.Sprintf("Flow %d", index+1)
		}
		c.explore(inputNode.ID, branchID, branchName, 0, map[string]interface{}{}, []string{}, map[string]bool{}, []models.FlowStep{}, nil)
	}

	// Ascending by length so the shortest completion is the main branch
	sort.SliceStable(c.branches, func(i, j int) bool {
		return len(c.branches[i].Steps) < len(c.branches[j].Steps)
	})
	return c.branches
}

// pathLength computes the shortest possible path length from a node to any
// leaf. Nodes already on the walk count as unreachable.
func (c *compiler) pathLength(nodeID string, visited map[string]bool) float64 {
	if visited[nodeID] {
		return math.Inf(1)
	}
	visited[nodeID] = true

	outEdges := c.outgoing(nodeID)
	if len(outEdges) == 0 {
		return 1
	}

	minLength := math.Inf(1)
	for _, edge := range outEdges {
		branchVisited := map[string]bool{}
		for k, v := range visited {
			branchVisited[k] = v
		}
		if length := c.pathLength(edge.Target, branchVisited); length < minLength {
			minLength = length
		}
	}
	return 1 + minLength
}

func (c *compiler) outgoing(nodeID string) []models.FlowEdge {
	out := []models.FlowEdge{}
	for _, edge := range c.edges {
		if edge.Source == nodeID {
			out = append(out, edge)
		}
	}
	return out
}

// sortedOutgoing returns a node's outgoing edges ascending by the shortest
// distance from the target to any leaf. The stable sort keeps the edge's
// original listing order on ties.
func (c *compiler) sortedOutgoing(nodeID string) []models.FlowEdge {
	out := c.outgoing(nodeID)
	sort.SliceStable(out, func(i, j int) bool {
		return c.pathLength(out[i].Target, map[string]bool{}) < c.pathLength(out[j].Target, map[string]bool{})
	})
	return out
}

// simulateOutputs produces placeholder values typed by the node's declared
// output schema. Compilation never runs enrichers; the same node visited
// twice returns the same placeholder so shared-prefix branches stay
// consistent.
func (c *compiler) simulateOutputs(node *models.FlowNode, inputData map[string]interface{}) map[string]interface{} {
	if cached, ok := c.enricherOutputs[node.ID]; ok {
		return cached
	}

	outputs := map[string]interface{}{}
	for _, field := range node.Data.Outputs.Properties {
		name := field.Name
		if name == "" {
			name = "output"
		}
		if passthrough, ok := inputData["input"]; ok && passthrough != nil {
			outputs[name] = passthrough
		} else {
			outputs[name] = GenerateSampleData(field.Type)
		}
	}
	if len(outputs) == 0 {
		outputs["output"] = GenerateSampleData("")
	}

	c.enricherOutputs[node.ID] = outputs
	return outputs
}

func (c *compiler) makeStep(node *models.FlowNode, branchID string, depth int, inputData, outputs map[string]interface{}) models.FlowStep {
	isSeed := node.Data.Type == models.StepTypeSeed

	step := models.FlowStep{
		NodeID:   node.ID,
		Type:     models.StepTypeEnricher,
		Params:   node.Data.Params,
		Inputs:   inputData,
		Outputs:  outputs,
		Status:   models.StepStatusPending,
		BranchID: branchID,
		Depth:    depth,
	}
	if isSeed {
		step.Type = models.StepTypeSeed
		step.Inputs = map[string]interface{}{}
	} else {
		step.Enricher = node.Data.Name
	}
	return step
}

// explore walks the graph depth-first. The first outgoing edge of a node
// extends the current branch; each additional edge spawns a new branch
// whose prefix is a by-value copy of the current steps and path.
func (c *compiler) explore(
	nodeID, branchID, branchName string,
	depth int,
	inputData map[string]interface{},
	path []string,
	visited map[string]bool,
	steps []models.FlowStep,
	parentOutputs map[string]interface{},
) {
	// Never revisit a node inside the same branch
	for _, visitedID := range path {
		if visitedID == nodeID {
			return
		}
	}

	node, ok := c.nodeMap[nodeID]
	if !ok {
		return
	}

	var outputs map[string]interface{}
	if node.Data.Type == models.StepTypeSeed {
		firstOutput := "output"
		if props := node.Data.Outputs.Properties; len(props) > 0 && props[0].Name != "" {
			firstOutput = props[0].Name
		}
		outputs = map[string]interface{}{firstOutput: c.seed}
	} else {
		outputs = c.simulateOutputs(node, inputData)
	}

	steps = append(steps, c.makeStep(node, branchID, depth, inputData, outputs))
	path = append(path, nodeID)
	visited[nodeID] = true

	outEdges := c.sortedOutgoing(nodeID)

	if len(outEdges) == 0 {
		// Leaf reached: emit a by-value snapshot of the branch
		snapshot := make([]models.FlowStep, len(steps))
		copy(snapshot, steps)
		c.branches = append(c.branches, models.FlowBranch{ID: branchID, Name: branchName, Steps: snapshot})
		return
	}

	followed := 0
	for _, edge := range outEdges {
		cycle := false
		for _, visitedID := range path {
			if visitedID == edge.Target {
				cycle = true
				break
			}
		}
		if cycle {
			continue
		}

		outputKey := edge.SourceHandle
		if outputKey == "" && len(outputs) > 0 {
			for _, field := range node.Data.Outputs.Properties {
				if _, ok := outputs[field.Name]; ok {
					outputKey = field.Name
					break
				}
			}
		}

		var outputValue interface{}
		if outputKey != "" {
			outputValue = outputs[outputKey]
			if outputValue == nil && parentOutputs != nil {
				outputValue = parentOutputs[outputKey]
			}
		}

		targetHandle := edge.TargetHandle
		if targetHandle == "" {
			targetHandle = "input"
		}
		nextInput := map[string]interface{}{targetHandle: outputValue}

		if followed == 0 {
			// Shortest continuation extends the current branch
			c.explore(edge.Target, branchID, branchName, depth+1, nextInput, path, visited, steps, outputs)
		} else {
			// Longer alternatives become sibling branches with copied prefixes
			c.branchCounter++
			newBranchID := fmt.Sprintf("%s-%d", branchID, c.branchCounter)
			newBranchName := fmt.Sprintf("%s (Branch %d)", branchName, c.branchCounter)

			newSteps := make([]models.FlowStep, len(steps))
			copy(newSteps, steps)
			newPath := make([]string, len(path))
			copy(newPath, path)
			newVisited := map[string]bool{}
			for k, v := range visited {
				newVisited[k] = v
			}

			c.explore(edge.Target, newBranchID, newBranchName, depth+1, nextInput, newPath, newVisited, newSteps, outputs)
		}
		followed++
	}

	if followed == 0 {
		// Every continuation would revisit the branch; treat as a leaf
		snapshot := make([]models.FlowStep, len(steps))
		copy(snapshot, steps)
		c.branches = append(c.branches, models.FlowBranch{ID: branchID, Name: branchName, Steps: snapshot})
	}
}
