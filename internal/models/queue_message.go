package models

import "encoding/json"

// Task types routed through the queue
const (
	TaskRunEnricher = "run_enricher"
	TaskRunFlow     = "run_flow"
)

// TaskMessage is the structure stored in the queue.
// Keep it simple - just enough to route the job.
type TaskMessage struct {
	ScanID  string          `json:"scan_id"` // References the Scan row; doubles as task ID
	Type    string          `json:"type"`    // Task type for worker routing
	Payload json.RawMessage `json:"payload"` // Task-specific data (passed through)
}

// RunEnricherPayload is the payload of a run_enricher task
type RunEnricherPayload struct {
	EnricherName string                   `json:"enricher_name"`
	Nodes        []map[string]interface{} `json:"nodes"` // cleaned seed records
	SketchID     string                   `json:"sketch_id"`
	UserID       string                   `json:"user_id,omitempty"`
}

// RunFlowPayload is the payload of a run_flow task
type RunFlowPayload struct {
	Branches []FlowBranch             `json:"branches"`
	Nodes    []map[string]interface{} `json:"nodes"` // cleaned seed records
	SketchID string                   `json:"sketch_id"`
	UserID   string                   `json:"user_id,omitempty"`
}
