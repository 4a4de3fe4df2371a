// Package tasks is the durable task runtime: it accepts run_enricher and
// run_flow submissions, persists job status as Scan rows, and runs the
// worker pool that drains the shared queue.
package tasks

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/ternarybob/arbor"

	"github.com/flowsint/flowsint/internal/common"
	"github.com/flowsint/flowsint/internal/interfaces"
	"github.com/flowsint/flowsint/internal/models"
)

// Service enqueues runs and exposes scan lookups
type Service struct {
	queue   interfaces.QueueManager
	storage interfaces.StorageManager
	logger  arbor.ILogger
}

// NewService creates a new task service
func NewService(queue interfaces.QueueManager, storage interfaces.StorageManager, logger arbor.ILogger) *Service {
	return &Service{
		queue:   queue,
		storage: storage,
		logger:  logger,
	}
}

// SubmitRunEnricher enqueues a single-enricher run and returns the task ID
func (s *Service) SubmitRunEnricher(ctx context.Context, enricherName string, nodes []map[string]interface{}, sketchID, userID string) (string, error) {
	payload, err := json.Marshal(models.RunEnricherPayload{
		EnricherName: enricherName,
		Nodes:        nodes,
		SketchID:     sketchID,
		UserID:       userID,
	})
	if err != nil {
		return "", fmt.Errorf("failed to serialize run_enricher payload: %w", err)
	}

	scanID := common.NewScanID()
	msg := models.TaskMessage{
		ScanID:  scanID,
		Type:    models.TaskRunEnricher,
		Payload: payload,
	}
	if err := s.queue.Enqueue(ctx, msg); err != nil {
		return "", fmt.Errorf("failed to enqueue run_enricher: %w", err)
	}

	s.logger.Info().
		Str("scan_id", scanID).
		Str("enricher", enricherName).
		Str("sketch_id", sketchID).
		Msg("run_enricher task enqueued")
	return scanID, nil
}

// SubmitRunFlow enqueues a compiled-flow run and returns the task ID
func (s *Service) SubmitRunFlow(ctx context.Context, branches []models.FlowBranch, nodes []map[string]interface{}, sketchID, userID string) (string, error) {
	payload, err := json.Marshal(models.RunFlowPayload{
		Branches: branches,
		Nodes:    nodes,
		SketchID: sketchID,
		UserID:   userID,
	})
	if err != nil {
		return "", fmt.Errorf("failed to serialize run_flow payload: %w", err)
	}

	scanID := common.NewScanID()
	msg := models.TaskMessage{
		ScanID:  scanID,
		Type:    models.TaskRunFlow,
		Payload: payload,
	}
	if err := s.queue.Enqueue(ctx, msg); err != nil {
		return "", fmt.Errorf("failed to enqueue run_flow: %w", err)
	}

	s.logger.Info().
		Str("scan_id", scanID).
		Int("branches", len(branches)).
		Str("sketch_id", sketchID).
		Msg("run_flow task enqueued")
	return scanID, nil
}

// GetScan returns a scan row by task ID
func (s *Service) GetScan(ctx context.Context, id string) (*models.Scan, error) {
	return s.storage.ScanStorage().GetScan(ctx, id)
}
