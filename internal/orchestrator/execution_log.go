package orchestrator

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"sync"
	"time"

	"github.com/ternarybob/arbor"

	"github.com/flowsint/flowsint/internal/models"
)

// LogWriter owns the per-run execution log file. Only the owning
// orchestrator writes it; consumers may poll or tail it. Every write is a
// full read-modify-write so a partial log stays readable after a crash.
type LogWriter struct {
	mu     sync.Mutex
	path   string
	logger arbor.ILogger
}

func timestamp() string {
	return time.Now().Format(time.RFC3339Nano)
}

// NewLogWriter creates the initial execution log JSON file.
// On failure the writer degrades to a no-op; a run never fails because its
// log could not be written.
func NewLogWriter(dir, sketchID, scanID string, branches []models.FlowBranch, logger arbor.ILogger) *LogWriter {
	w := &LogWriter{logger: logger}

	if err := os.MkdirAll(dir, 0755); err != nil {
		logger.Error().Err(err).Str("dir", dir).Msg("Failed to create execution log directory")
		return w
	}
	path := filepath.Join(dir, fmt.Sprintf("enricher_execution_%s_%s.json", sketchID, scanID))

	totalSteps := 0
	for _, branch := range branches {
		for _, step := range branch.Steps {
			if step.Type != models.StepTypeSeed {
				totalSteps++
			}
		}
	}

	now := timestamp()
	initial := models.ExecutionLog{
		SketchID:         sketchID,
		ScanID:           scanID,
		CreatedAt:        now,
		UpdatedAt:        now,
		Status:           models.LogStatusInitialized,
		EnricherBranches: branches,
		Entries:          []models.LogEntry{},
		Summary:          models.LogSummary{TotalSteps: totalSteps},
		FinalResults:     map[string]interface{}{},
	}

	if err := writeLogFile(path, &initial); err != nil {
		logger.Error().Err(err).Str("path", path).Msg("Failed to create execution log")
		return w
	}

	w.path = path
	logger.Info().Str("sketch_id", sketchID).Str("path", path).Msg("Enricher execution log created")
	return w
}

// Path returns the log file path, empty when logging is disabled
func (w *LogWriter) Path() string {
	return w.path
}

func writeLogFile(path string, log *models.ExecutionLog) error {
	data, err := json.MarshalIndent(log, "", "  ")
	if err != nil {
		return err
	}
	return os.WriteFile(path, data, 0644)
}

func (w *LogWriter) readLog() (*models.ExecutionLog, error) {
	data, err := os.ReadFile(w.path)
	if err != nil {
		return nil, err
	}
	var log models.ExecutionLog
	if err := json.Unmarshal(data, &log); err != nil {
		return nil, err
	}
	return &log, nil
}

// Append adds a step entry and updates the summary counters. An optional
// status transitions the run state (initialized -> running on first call).
func (w *LogWriter) Append(entry *models.LogEntry, status string) {
	if w.path == "" {
		return
	}
	w.mu.Lock()
	defer w.mu.Unlock()

	log, err := w.readLog()
	if err != nil {
		w.logger.Error().Err(err).Msg("Failed to read execution log")
		return
	}

	log.UpdatedAt = timestamp()
	if status != "" {
		log.Status = status
	}

	if entry != nil {
		log.Entries = append(log.Entries, *entry)
		switch entry.Status {
		case models.StepStatusCompleted:
			log.Summary.CompletedSteps++
		case models.StepStatusError:
			log.Summary.FailedSteps++
		}
		log.Summary.TotalExecutionTimeMs += entry.ExecutionTimeMs
	}

	if err := writeLogFile(w.path, log); err != nil {
		w.logger.Error().Err(err).Msg("Failed to update execution log")
	}
}

// Finalize writes the terminal status and the final results. After this,
// only UpdatedAt and FinalResults may still be modified.
func (w *LogWriter) Finalize(finalResults map[string]interface{}, status string) {
	if w.path == "" {
		return
	}
	w.mu.Lock()
	defer w.mu.Unlock()

	log, err := w.readLog()
	if err != nil {
		w.logger.Error().Err(err).Msg("Failed to read execution log")
		return
	}

	log.UpdatedAt = timestamp()
	log.Status = status
	if finalResults != nil {
		log.FinalResults = finalResults
	}

	if err := writeLogFile(w.path, log); err != nil {
		w.logger.Error().Err(err).Msg("Failed to finalize execution log")
		return
	}
	w.logger.Info().Str("path", w.path).Str("status", status).Msg("Enricher execution log finalized")
}
