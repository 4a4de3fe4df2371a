package badger

import (
	"context"
	"fmt"
	"time"

	"github.com/ternarybob/arbor"
	"github.com/timshannon/badgerhold/v4"

	"github.com/flowsint/flowsint/internal/interfaces"
	"github.com/flowsint/flowsint/internal/models"
)

// ScanStorage implements the ScanStorage interface for Badger
type ScanStorage struct {
	db     *BadgerDB
	logger arbor.ILogger
}

// NewScanStorage creates a new ScanStorage instance
func NewScanStorage(db *BadgerDB, logger arbor.ILogger) interfaces.ScanStorage {
	return &ScanStorage{
		db:     db,
		logger: logger,
	}
}

func (s *ScanStorage) SaveScan(ctx context.Context, scan *models.Scan) error {
	if scan.ID == "" {
		return fmt.Errorf("scan ID is required")
	}
	scan.UpdatedAt = time.Now()
	if scan.CreatedAt.IsZero() {
		scan.CreatedAt = scan.UpdatedAt
	}

	if err := s.db.Store().Upsert(scan.ID, *scan); err != nil {
		return fmt.Errorf("failed to save scan %s: %w", scan.ID, err)
	}

	s.logger.Trace().
		Str("scan_id", scan.ID).
		Str("status", string(scan.Status)).
		Msg("BadgerDB: Scan saved")
	return nil
}

func (s *ScanStorage) GetScan(ctx context.Context, id string) (*models.Scan, error) {
	var scan models.Scan
	if err := s.db.Store().Get(id, &scan); err != nil {
		if err == badgerhold.ErrNotFound {
			return nil, fmt.Errorf("scan %s: %w", id, interfaces.ErrNotFound)
		}
		return nil, fmt.Errorf("failed to get scan %s: %w", id, err)
	}
	return &scan, nil
}

func (s *ScanStorage) ListScans(ctx context.Context, sketchID string) ([]*models.Scan, error) {
	var records []models.Scan
	query := badgerhold.Where("SketchID").Eq(sketchID).SortBy("CreatedAt").Reverse()
	if err := s.db.Store().Find(&records, query); err != nil {
		return nil, fmt.Errorf("failed to list scans: %w", err)
	}
	scans := make([]*models.Scan, len(records))
	for i := range records {
		scans[i] = &records[i]
	}
	return scans, nil
}

// DeleteScansBefore removes finished scans older than the cutoff.
// Used by the retention scheduler.
func (s *ScanStorage) DeleteScansBefore(ctx context.Context, cutoff time.Time) (int, error) {
	var records []models.Scan
	if err := s.db.Store().Find(&records, badgerhold.Where("CreatedAt").Lt(cutoff)); err != nil {
		return 0, fmt.Errorf("failed to find stale scans: %w", err)
	}

	deleted := 0
	for _, scan := range records {
		if !scan.IsFinished() {
			continue
		}
		if err := s.db.Store().Delete(scan.ID, &models.Scan{}); err != nil {
			s.logger.Warn().Err(err).Str("scan_id", scan.ID).Msg("Failed to delete stale scan")
			continue
		}
		deleted++
	}
	return deleted, nil
}
