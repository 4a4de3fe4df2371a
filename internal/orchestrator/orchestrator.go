// Package orchestrator executes a compiled branch list against one sketch.
//
// A single worker runs branches sequentially and steps within a branch
// sequentially, which keeps per-sketch write ordering deterministic for the
// graph writer. Parallelism across runs exists at the task-queue level, not
// inside a run.
package orchestrator

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"
	"time"

	"github.com/ternarybob/arbor"

	"github.com/flowsint/flowsint/internal/enrichers"
	"github.com/flowsint/flowsint/internal/graph"
	"github.com/flowsint/flowsint/internal/interfaces"
	"github.com/flowsint/flowsint/internal/models"
)

// StepResult is the per-step outcome surfaced in the run result
type StepResult struct {
	NodeID   string      `json:"nodeId"`
	Enricher string      `json:"enricher"`
	Status   string      `json:"status"`
	Outputs  interface{} `json:"outputs,omitempty"`
	Error    string      `json:"error,omitempty"`
}

// BranchResult groups step results per branch
type BranchResult struct {
	ID    string       `json:"id"`
	Name  string       `json:"name"`
	Steps []StepResult `json:"steps"`
}

// Result is the contract of one orchestrated run
type Result struct {
	InitialValues    []interface{}          `json:"initial_values"`
	Branches         []BranchResult         `json:"branches"`
	Results          map[string]interface{} `json:"results"`
	ReferenceMapping map[string]interface{} `json:"reference_mapping"`
}

// Options carries the collaborators the orchestrator wires into enrichers
type Options struct {
	SketchID string
	ScanID   string
	UserID   string
	LogDir   string
	Writer   *graph.Writer
	Secrets  interfaces.SecretStore
	Client   *enrichers.Client
	Logger   arbor.ILogger
}

// Orchestrator runs one sketch-scoped execution of a compiled branch list
type Orchestrator struct {
	opts      Options
	branches  []models.FlowBranch
	log       *LogWriter
	instances map[string]enrichers.Enricher // nodeId -> constructed enricher
}

// enricherName derives the enricher of a step: the compiled field when
// present, otherwise the nodeId prefix convention "enricher_name-123".
func enricherName(step *models.FlowStep) string {
	if step.Enricher != "" {
		return step.Enricher
	}
	if idx := strings.Index(step.NodeID, "-"); idx > 0 {
		return step.NodeID[:idx]
	}
	return step.NodeID
}

// New creates an orchestrator, writes the initial execution log and
// constructs every enricher the branches reference. Construction resolves
// required secrets up front: a missing one fails the run with a ConfigError
// before any step is attempted.
func New(ctx context.Context, branches []models.FlowBranch, opts Options) (*Orchestrator, error) {
	if len(branches) == 0 {
		return nil, &interfaces.EngineError{Reason: "no enricher branches provided"}
	}

	o := &Orchestrator{
		opts:      opts,
		branches:  branches,
		log:       NewLogWriter(opts.LogDir, opts.SketchID, opts.ScanID, branches, opts.Logger),
		instances: map[string]enrichers.Enricher{},
	}

	enricherSteps := 0
	for _, branch := range branches {
		for i := range branch.Steps {
			step := &branch.Steps[i]
			if step.Type == models.StepTypeSeed {
				continue
			}
			if step.Type == models.StepTypeError {
				return nil, &interfaces.EngineError{Reason: fmt.Sprintf("flow did not compile: %s", step.Error)}
			}
			enricherSteps++

			nodeID := step.NodeID
			if _, exists := o.instances[nodeID]; exists {
				continue
			}

			name := enricherName(step)
			instance, err := enrichers.Registry.Build(ctx, name, enrichers.BuildContext{
				SketchID: opts.SketchID,
				ScanID:   opts.ScanID,
				UserID:   opts.UserID,
				Writer:   opts.Writer,
				Secrets:  opts.Secrets,
				Params:   step.Params,
				Logger:   opts.Logger,
				Client:   opts.Client,
			})
			if err != nil {
				return nil, err
			}
			o.instances[nodeID] = instance
		}
	}

	if enricherSteps == 0 {
		return nil, &interfaces.EngineError{Reason: "no enricher nodes found in enricher branches"}
	}

	return o, nil
}

// LogPath returns the execution log file path
func (o *Orchestrator) LogPath() string {
	return o.log.Path()
}

// resolveInputs walks a step's declared inputs against the run's results
// mapping. A string value is a reference (dropped when unresolved); a list
// resolves element-wise with non-strings kept as literals; anything else is
// kept as-is.
func resolveInputs(declared map[string]interface{}, mapping map[string]interface{}) map[string]interface{} {
	resolved := map[string]interface{}{}
	for key, ref := range declared {
		switch v := ref.(type) {
		case string:
			if value, ok := mapping[v]; ok {
				resolved[key] = value
			}
		case []interface{}:
			items := make([]interface{}, 0, len(v))
			for _, item := range v {
				if s, ok := item.(string); ok {
					if value, ok := mapping[s]; ok {
						items = append(items, value)
						continue
					}
				}
				items = append(items, item)
			}
			resolved[key] = items
		default:
			resolved[key] = ref
		}
	}
	return resolved
}

// rawInputs flattens a resolved input record into the raw list handed to
// the enricher, preferring its primary key field.
func rawInputs(resolved map[string]interface{}, key string) []interface{} {
	flatten := func(v interface{}) []interface{} {
		if list, ok := v.([]interface{}); ok {
			return list
		}
		return []interface{}{v}
	}

	if v, ok := resolved[key]; ok {
		return flatten(v)
	}
	raw := []interface{}{}
	for _, v := range resolved {
		raw = append(raw, flatten(v)...)
	}
	return raw
}

// cacheKey builds the per-run cache key from the node and its inputs. The
// stable JSON serialization gives two calls with equal inputs the same slot.
func cacheKey(nodeID string, inputs []interface{}) string {
	data, err := json.Marshal(inputs)
	if err != nil {
		return nodeID + ":unserializable"
	}
	return nodeID + ":" + string(data)
}

// outputRecord builds the record view of serialized outputs used for
// reference propagation. A single result exposes its own fields.
func outputRecord(outputs []map[string]interface{}) map[string]interface{} {
	if len(outputs) == 1 {
		return outputs[0]
	}
	return map[string]interface{}{}
}

// Execute runs the compiled branches sequentially. The first step error
// aborts the whole run: enrichers may chain, so continuing after an
// upstream failure would mislead the user.
func (o *Orchestrator) Execute(ctx context.Context, seedValues []interface{}) (*Result, error) {
	o.log.Append(nil, models.LogStatusRunning)

	result := &Result{
		InitialValues:    seedValues,
		Branches:         []BranchResult{},
		Results:          map[string]interface{}{},
		ReferenceMapping: map[string]interface{}{},
	}

	resultsMapping := result.ReferenceMapping
	cache := map[string][]map[string]interface{}{}

	o.opts.Logger.Info().
		Str("sketch_id", o.opts.SketchID).
		Str("scan_id", o.opts.ScanID).
		Int("branches", len(o.branches)).
		Msg("Starting enricher run")

	for _, branch := range o.branches {
		branchResult := BranchResult{ID: branch.ID, Name: branch.Name, Steps: []StepResult{}}

		// The seed values feed the first enricher of the branch; after that
		// each step consumes the raw outputs of its predecessor.
		previousOutputs := seedValues
		firstStep := true

		for i := range branch.Steps {
			step := &branch.Steps[i]
			if step.Type == models.StepTypeSeed {
				continue
			}

			instance, ok := o.instances[step.NodeID]
			if !ok {
				return result, &interfaces.EngineError{Reason: fmt.Sprintf("enricher not found for node %s", step.NodeID)}
			}
			desc := instance.Descriptor()

			stepStart := time.Now()
			stepResult := StepResult{NodeID: step.NodeID, Enricher: desc.Name, Status: models.StepStatusError}
			entry := models.LogEntry{
				StepID:       fmt.Sprintf("%s_%s", branch.ID, step.NodeID),
				BranchID:     branch.ID,
				BranchName:   branch.Name,
				NodeID:       step.NodeID,
				EnricherName: desc.Name,
				Status:       models.StepStatusRunning,
				Timestamp:    timestamp(),
			}

			resolved := resolveInputs(step.Inputs, resultsMapping)
			var raw []interface{}
			if len(resolved) > 0 {
				raw = rawInputs(resolved, desc.Key)
			} else if firstStep {
				raw = seedValues
			} else {
				raw = previousOutputs
			}
			firstStep = false
			entry.Inputs = raw

			if len(raw) == 0 {
				errMsg := "no inputs available"
				stepResult.Error = errMsg
				entry.Status = models.StepStatusError
				entry.Error = errMsg
				entry.ExecutionTimeMs = time.Since(stepStart).Milliseconds()
				result.Results[step.NodeID] = map[string]interface{}{"error": errMsg}
				branchResult.Steps = append(branchResult.Steps, stepResult)
				result.Branches = append(result.Branches, branchResult)

				o.log.Append(&entry, "")
				o.log.Finalize(resultToMap(result), models.LogStatusFailed)
				return result, &interfaces.ValidationError{TypeName: desc.InputType, Reason: errMsg}
			}

			key := cacheKey(step.NodeID, raw)
			outputs, hit := cache[key]
			var err error
			if hit {
				entry.CacheHit = true
			} else {
				outputs, err = enrichers.Execute(ctx, instance, raw)
				if err == nil {
					cache[key] = outputs
				}
			}

			if err != nil {
				errMsg := err.Error()
				o.opts.Logger.Error().
					Str("sketch_id", o.opts.SketchID).
					Str("node_id", step.NodeID).
					Msg(errMsg)

				stepResult.Error = errMsg
				entry.Status = models.StepStatusError
				entry.Error = errMsg
				entry.ExecutionTimeMs = time.Since(stepStart).Milliseconds()
				result.Results[step.NodeID] = map[string]interface{}{"error": errMsg}
				branchResult.Steps = append(branchResult.Steps, stepResult)
				result.Branches = append(result.Branches, branchResult)

				o.log.Append(&entry, "")
				o.log.Finalize(resultToMap(result), models.LogStatusFailed)
				return result, err
			}

			serialized := make([]interface{}, len(outputs))
			for j, record := range outputs {
				serialized[j] = record
			}

			stepResult.Outputs = serialized
			stepResult.Status = models.StepStatusCompleted
			entry.Outputs = serialized
			entry.Status = models.StepStatusCompleted
			entry.ExecutionTimeMs = time.Since(stepStart).Milliseconds()

			// Propagate declared output references into the run mapping
			record := outputRecord(outputs)
			for outputField, alias := range step.Outputs {
				aliasName, ok := alias.(string)
				if !ok {
					continue
				}
				if value, ok := record[outputField]; ok {
					resultsMapping[aliasName] = value
				}
			}
			result.Results[step.NodeID] = serialized
			previousOutputs = serialized

			o.log.Append(&entry, "")
			branchResult.Steps = append(branchResult.Steps, stepResult)
		}

		result.Branches = append(result.Branches, branchResult)
	}

	o.opts.Logger.Info().
		Str("sketch_id", o.opts.SketchID).
		Str("scan_id", o.opts.ScanID).
		Msg("Enricher run completed")

	o.log.Finalize(resultToMap(result), models.LogStatusCompleted)
	return result, nil
}

// resultToMap serializes the run result for the execution log and the scan
// row.
func resultToMap(result *Result) map[string]interface{} {
	data, err := json.Marshal(result)
	if err != nil {
		return map[string]interface{}{}
	}
	out := map[string]interface{}{}
	if err := json.Unmarshal(data, &out); err != nil {
		return map[string]interface{}{}
	}
	return out
}
