package models

// Execution log status values
const (
	LogStatusInitialized = "initialized"
	LogStatusRunning     = "running"
	LogStatusCompleted   = "completed"
	LogStatusFailed      = "failed"
)

// LogEntry records one step execution inside the per-run log
type LogEntry struct {
	StepID          string      `json:"step_id"`
	BranchID        string      `json:"branch_id"`
	BranchName      string      `json:"branch_name"`
	NodeID          string      `json:"node_id"`
	EnricherName    string      `json:"enricher_name"`
	Inputs          interface{} `json:"inputs"`
	Outputs         interface{} `json:"outputs"`
	Status          string      `json:"status"`
	Error           string      `json:"error,omitempty"`
	Timestamp       string      `json:"timestamp"`
	ExecutionTimeMs int64       `json:"execution_time_ms"`
	CacheHit        bool        `json:"cache_hit"`
}

// LogSummary aggregates step counters for a run
type LogSummary struct {
	TotalSteps           int   `json:"total_steps"`
	CompletedSteps       int   `json:"completed_steps"`
	FailedSteps          int   `json:"failed_steps"`
	TotalExecutionTimeMs int64 `json:"total_execution_time_ms"`
}

// ExecutionLog is the per-run append-only record persisted as JSON.
// Once Status is "completed" or "failed", only UpdatedAt and FinalResults
// may still change.
type ExecutionLog struct {
	SketchID         string                 `json:"sketch_id"`
	ScanID           string                 `json:"scan_id"`
	CreatedAt        string                 `json:"created_at"`
	UpdatedAt        string                 `json:"updated_at"`
	Status           string                 `json:"status"`
	EnricherBranches []FlowBranch           `json:"enricher_branches"`
	Entries          []LogEntry             `json:"execution_log"`
	Summary          LogSummary             `json:"summary"`
	FinalResults     map[string]interface{} `json:"final_results"`
}
