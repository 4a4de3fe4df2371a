package models

import "time"

// ScanStatus is the lifecycle state of a persisted scan job
type ScanStatus string

const (
	ScanStatusPending   ScanStatus = "pending"
	ScanStatusCompleted ScanStatus = "completed"
	ScanStatusFailed    ScanStatus = "failed"
)

// Scan is a single execution of an enricher or a flow.
// The scan ID equals the task ID handed back to the API caller.
type Scan struct {
	ID        string                 `json:"id" badgerhold:"key"`
	SketchID  string                 `json:"sketch_id,omitempty" badgerhold:"index"`
	Status    ScanStatus             `json:"status" badgerhold:"index"`
	Results   map[string]interface{} `json:"results,omitempty"`
	CreatedAt time.Time              `json:"created_at" badgerhold:"index"`
	UpdatedAt time.Time              `json:"updated_at"`
}

// IsFinished reports whether the scan reached a terminal status
func (s *Scan) IsFinished() bool {
	return s.Status == ScanStatusCompleted || s.Status == ScanStatusFailed
}
