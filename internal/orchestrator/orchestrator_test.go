package orchestrator

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"sync/atomic"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/ternarybob/arbor"

	"github.com/flowsint/flowsint/internal/enrichers"
	"github.com/flowsint/flowsint/internal/interfaces"
	"github.com/flowsint/flowsint/internal/models"
	"github.com/flowsint/flowsint/internal/types"
)

var (
	echoScanCalls atomic.Int64
	failScanCalls atomic.Int64
)

// echoEnricher prefixes each domain with "echo." - no network, no graph
type echoEnricher struct {
	*enrichers.Base
}

func (e *echoEnricher) Descriptor() enrichers.Descriptor {
	return enrichers.Descriptor{
		Name:       "test_echo_domain",
		Category:   "Test",
		InputType:  "Domain",
		OutputType: "Domain",
		Key:        "domain",
	}
}

func (e *echoEnricher) Preprocess(ctx context.Context, raw []interface{}) []types.Entity {
	return e.PreprocessAs("Domain", raw)
}

func (e *echoEnricher) Scan(ctx context.Context, inputs []types.Entity) ([]types.Entity, error) {
	echoScanCalls.Add(1)
	results := []types.Entity{}
	for _, input := range inputs {
		domain := input.(*types.Domain)
		results = append(results, &types.Domain{Domain: "echo." + domain.Domain})
	}
	return results, nil
}

func (e *echoEnricher) Postprocess(ctx context.Context, results, inputs []types.Entity) ([]types.Entity, error) {
	return results, nil
}

// failingEnricher always fails its scan
type failingEnricher struct {
	*enrichers.Base
}

func (e *failingEnricher) Descriptor() enrichers.Descriptor {
	return enrichers.Descriptor{
		Name:       "test_always_fails",
		Category:   "Test",
		InputType:  "Domain",
		OutputType: "Domain",
		Key:        "domain",
	}
}

func (e *failingEnricher) Preprocess(ctx context.Context, raw []interface{}) []types.Entity {
	return e.PreprocessAs("Domain", raw)
}

func (e *failingEnricher) Scan(ctx context.Context, inputs []types.Entity) ([]types.Entity, error) {
	failScanCalls.Add(1)
	return nil, fmt.Errorf("upstream API unavailable")
}

func (e *failingEnricher) Postprocess(ctx context.Context, results, inputs []types.Entity) ([]types.Entity, error) {
	return results, nil
}

// secretEnricher requires a vault secret nothing supplies
type secretEnricher struct {
	*enrichers.Base
}

func (e *secretEnricher) Descriptor() enrichers.Descriptor {
	return enrichers.Descriptor{
		Name:       "test_needs_secret",
		Category:   "Test",
		InputType:  "Domain",
		OutputType: "Domain",
		Key:        "domain",
		ParamsSchema: []enrichers.ParamSpec{
			{Name: "TEST_UNRESOLVABLE_KEY", Kind: enrichers.ParamVaultSecret, Required: true},
		},
		RequiredParams: true,
	}
}

func (e *secretEnricher) Preprocess(ctx context.Context, raw []interface{}) []types.Entity {
	return e.PreprocessAs("Domain", raw)
}

func (e *secretEnricher) Scan(ctx context.Context, inputs []types.Entity) ([]types.Entity, error) {
	return inputs, nil
}

func (e *secretEnricher) Postprocess(ctx context.Context, results, inputs []types.Entity) ([]types.Entity, error) {
	return results, nil
}

func init() {
	enrichers.Registry.Register((&echoEnricher{}).Descriptor(), func(base *enrichers.Base) enrichers.Enricher {
		return &echoEnricher{Base: base}
	})
	enrichers.Registry.Register((&failingEnricher{}).Descriptor(), func(base *enrichers.Base) enrichers.Enricher {
		return &failingEnricher{Base: base}
	})
	enrichers.Registry.Register((&secretEnricher{}).Descriptor(), func(base *enrichers.Base) enrichers.Enricher {
		return &secretEnricher{Base: base}
	})
}

func seedStep(branchID string) models.FlowStep {
	return models.FlowStep{
		NodeID:   "seed-1",
		Type:     models.StepTypeSeed,
		Inputs:   map[string]interface{}{},
		Outputs:  map[string]interface{}{"domain": "example.com"},
		Status:   models.StepStatusPending,
		BranchID: branchID,
	}
}

func enricherStep(nodeID, name, branchID string, depth int) models.FlowStep {
	return models.FlowStep{
		NodeID:   nodeID,
		Type:     models.StepTypeEnricher,
		Enricher: name,
		Inputs:   map[string]interface{}{},
		Outputs:  map[string]interface{}{},
		Status:   models.StepStatusPending,
		BranchID: branchID,
		Depth:    depth,
	}
}

func testOptions(t *testing.T) Options {
	t.Helper()
	return Options{
		SketchID: "sketch-test",
		ScanID:   "scan-" + t.Name(),
		LogDir:   t.TempDir(),
		Logger:   arbor.NewLogger(),
	}
}

func readLog(t *testing.T, path string) *models.ExecutionLog {
	t.Helper()
	data, err := os.ReadFile(path)
	require.NoError(t, err)
	var log models.ExecutionLog
	require.NoError(t, json.Unmarshal(data, &log))
	return &log
}

func TestExecuteLinearBranch(t *testing.T) {
	branches := []models.FlowBranch{
		{
			ID:   "branch-0",
			Name: "Main Flow",
			Steps: []models.FlowStep{
				seedStep("branch-0"),
				enricherStep("test_echo_domain-1", "test_echo_domain", "branch-0", 1),
			},
		},
	}

	orch, err := New(context.Background(), branches, testOptions(t))
	require.NoError(t, err)

	result, err := orch.Execute(context.Background(), []interface{}{"example.com"})
	require.NoError(t, err)

	require.Len(t, result.Branches, 1)
	require.Len(t, result.Branches[0].Steps, 1)
	assert.Equal(t, models.StepStatusCompleted, result.Branches[0].Steps[0].Status)

	outputs, ok := result.Results["test_echo_domain-1"].([]interface{})
	require.True(t, ok)
	require.Len(t, outputs, 1)
	record := outputs[0].(map[string]interface{})
	assert.Equal(t, "echo.example.com", record["domain"])

	log := readLog(t, orch.LogPath())
	assert.Equal(t, models.LogStatusCompleted, log.Status)
	assert.Equal(t, 1, log.Summary.CompletedSteps)
	assert.Equal(t, 0, log.Summary.FailedSteps)
	assert.NotEmpty(t, log.FinalResults)
}

// Two branches sharing a prefix reuse cached step results: scan runs once,
// the second branch's log entries show cache hits.
func TestExecuteCacheHitOnSharedPrefix(t *testing.T) {
	echoScanCalls.Store(0)

	shared := enricherStep("test_echo_domain-1", "test_echo_domain", "branch-0", 1)
	branches := []models.FlowBranch{
		{
			ID:    "branch-0",
			Name:  "Main Flow",
			Steps: []models.FlowStep{seedStep("branch-0"), shared},
		},
		{
			ID:    "branch-0-1",
			Name:  "Main Flow (Branch 1)",
			Steps: []models.FlowStep{seedStep("branch-0-1"), shared},
		},
	}

	orch, err := New(context.Background(), branches, testOptions(t))
	require.NoError(t, err)

	result, err := orch.Execute(context.Background(), []interface{}{"example.com"})
	require.NoError(t, err)

	assert.Equal(t, int64(1), echoScanCalls.Load(), "scan must run exactly once per distinct step+input")
	require.Len(t, result.Branches, 2)
	assert.Equal(t, models.StepStatusCompleted, result.Branches[1].Steps[0].Status)

	log := readLog(t, orch.LogPath())
	hits := 0
	for _, entry := range log.Entries {
		if entry.CacheHit {
			hits++
		}
	}
	assert.Equal(t, 1, hits)
}

// Identical runs produce identical results (side effects aside)
func TestExecuteDeterminism(t *testing.T) {
	build := func() []models.FlowBranch {
		return []models.FlowBranch{
			{
				ID:   "branch-0",
				Name: "Main Flow",
				Steps: []models.FlowStep{
					seedStep("branch-0"),
					enricherStep("test_echo_domain-1", "test_echo_domain", "branch-0", 1),
				},
			},
		}
	}

	run := func() *Result {
		orch, err := New(context.Background(), build(), testOptions(t))
		require.NoError(t, err)
		result, err := orch.Execute(context.Background(), []interface{}{"example.com"})
		require.NoError(t, err)
		return result
	}

	first, err := json.Marshal(run().Results)
	require.NoError(t, err)
	second, err := json.Marshal(run().Results)
	require.NoError(t, err)
	assert.JSONEq(t, string(first), string(second))
}

// The first step error aborts the whole run: subsequent branches are not
// attempted and the log is finalized as failed.
func TestExecuteAbortsOnStepError(t *testing.T) {
	echoScanCalls.Store(0)
	failScanCalls.Store(0)

	branches := []models.FlowBranch{
		{
			ID:   "branch-0",
			Name: "Main Flow",
			Steps: []models.FlowStep{
				seedStep("branch-0"),
				enricherStep("test_always_fails-1", "test_always_fails", "branch-0", 1),
			},
		},
		{
			ID:   "branch-0-1",
			Name: "Main Flow (Branch 1)",
			Steps: []models.FlowStep{
				seedStep("branch-0-1"),
				enricherStep("test_echo_domain-2", "test_echo_domain", "branch-0-1", 1),
			},
		},
	}

	orch, err := New(context.Background(), branches, testOptions(t))
	require.NoError(t, err)

	result, err := orch.Execute(context.Background(), []interface{}{"example.com"})
	require.Error(t, err)

	var enricherErr *interfaces.EnricherError
	assert.True(t, errors.As(err, &enricherErr))

	assert.Equal(t, int64(1), failScanCalls.Load())
	assert.Equal(t, int64(0), echoScanCalls.Load(), "second branch must not run after an abort")

	require.Len(t, result.Branches, 1)
	assert.Equal(t, models.StepStatusError, result.Branches[0].Steps[0].Status)
	assert.Contains(t, result.Branches[0].Steps[0].Error, "upstream API unavailable")

	errRecord, ok := result.Results["test_always_fails-1"].(map[string]interface{})
	require.True(t, ok)
	assert.Contains(t, errRecord["error"], "upstream API unavailable")

	log := readLog(t, orch.LogPath())
	assert.Equal(t, models.LogStatusFailed, log.Status)
	assert.Equal(t, 1, log.Summary.FailedSteps)
}

// A missing required secret fails orchestrator construction before any
// step is attempted.
func TestMissingRequiredSecretFailsConstruction(t *testing.T) {
	branches := []models.FlowBranch{
		{
			ID:   "branch-0",
			Name: "Main Flow",
			Steps: []models.FlowStep{
				seedStep("branch-0"),
				enricherStep("test_needs_secret-1", "test_needs_secret", "branch-0", 1),
			},
		},
	}

	_, err := New(context.Background(), branches, testOptions(t))
	require.Error(t, err)

	var configErr *interfaces.ConfigError
	require.True(t, errors.As(err, &configErr))
	assert.Equal(t, "TEST_UNRESOLVABLE_KEY", configErr.Param)
}

// Output references propagate through the results mapping so downstream
// steps can consume outputs of any earlier step.
func TestReferencePropagation(t *testing.T) {
	first := enricherStep("test_echo_domain-1", "test_echo_domain", "branch-0", 1)
	first.Outputs = map[string]interface{}{"domain": "echoed_domain"}

	second := enricherStep("test_echo_domain-2", "test_echo_domain", "branch-0", 2)
	second.Inputs = map[string]interface{}{"domain": "echoed_domain"}

	branches := []models.FlowBranch{
		{
			ID:    "branch-0",
			Name:  "Main Flow",
			Steps: []models.FlowStep{seedStep("branch-0"), first, second},
		},
	}

	orch, err := New(context.Background(), branches, testOptions(t))
	require.NoError(t, err)

	result, err := orch.Execute(context.Background(), []interface{}{"example.com"})
	require.NoError(t, err)

	assert.Equal(t, "echo.example.com", result.ReferenceMapping["echoed_domain"])

	outputs, ok := result.Results["test_echo_domain-2"].([]interface{})
	require.True(t, ok)
	record := outputs[0].(map[string]interface{})
	assert.Equal(t, "echo.echo.example.com", record["domain"])
}

func TestNewRejectsEmptyBranches(t *testing.T) {
	_, err := New(context.Background(), nil, testOptions(t))
	require.Error(t, err)

	var engineErr *interfaces.EngineError
	assert.True(t, errors.As(err, &engineErr))
}

func TestNewRejectsErrorBranches(t *testing.T) {
	branches := []models.FlowBranch{
		{
			ID:   "error",
			Name: "Error",
			Steps: []models.FlowStep{
				{NodeID: "error", Type: models.StepTypeError, Status: models.StepStatusError, BranchID: "error", Error: "flow has no seed-type nodes"},
			},
		},
	}

	_, err := New(context.Background(), branches, testOptions(t))
	require.Error(t, err)
	assert.Contains(t, err.Error(), "did not compile")
}
