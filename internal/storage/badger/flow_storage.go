package badger

import (
	"context"
	"fmt"
	"sort"
	"time"

	"github.com/ternarybob/arbor"
	"github.com/timshannon/badgerhold/v4"

	"github.com/flowsint/flowsint/internal/interfaces"
	"github.com/flowsint/flowsint/internal/models"
)

// FlowStorage implements the FlowStorage interface for Badger
type FlowStorage struct {
	db     *BadgerDB
	logger arbor.ILogger
}

// NewFlowStorage creates a new FlowStorage instance
func NewFlowStorage(db *BadgerDB, logger arbor.ILogger) interfaces.FlowStorage {
	return &FlowStorage{
		db:     db,
		logger: logger,
	}
}

func (s *FlowStorage) SaveFlow(ctx context.Context, flow *models.Flow) error {
	if flow.ID == "" {
		return fmt.Errorf("flow ID is required")
	}
	flow.LastUpdatedAt = time.Now()
	if flow.CreatedAt.IsZero() {
		flow.CreatedAt = flow.LastUpdatedAt
	}

	if err := s.db.Store().Upsert(flow.ID, *flow); err != nil {
		return fmt.Errorf("failed to save flow %s: %w", flow.ID, err)
	}

	s.logger.Trace().Str("flow_id", flow.ID).Str("name", flow.Name).Msg("BadgerDB: Flow saved")
	return nil
}

func (s *FlowStorage) GetFlow(ctx context.Context, id string) (*models.Flow, error) {
	var flow models.Flow
	if err := s.db.Store().Get(id, &flow); err != nil {
		if err == badgerhold.ErrNotFound {
			return nil, fmt.Errorf("flow %s: %w", id, interfaces.ErrNotFound)
		}
		return nil, fmt.Errorf("failed to get flow %s: %w", id, err)
	}
	return &flow, nil
}

// ListFlows returns all flows ordered by last update, newest first
func (s *FlowStorage) ListFlows(ctx context.Context) ([]*models.Flow, error) {
	var records []models.Flow
	if err := s.db.Store().Find(&records, nil); err != nil {
		return nil, fmt.Errorf("failed to list flows: %w", err)
	}
	sort.Slice(records, func(i, j int) bool {
		return records[i].LastUpdatedAt.After(records[j].LastUpdatedAt)
	})
	flows := make([]*models.Flow, len(records))
	for i := range records {
		flows[i] = &records[i]
	}
	return flows, nil
}

func (s *FlowStorage) DeleteFlow(ctx context.Context, id string) error {
	if err := s.db.Store().Delete(id, &models.Flow{}); err != nil {
		if err == badgerhold.ErrNotFound {
			return fmt.Errorf("flow %s: %w", id, interfaces.ErrNotFound)
		}
		return fmt.Errorf("failed to delete flow %s: %w", id, err)
	}
	return nil
}
