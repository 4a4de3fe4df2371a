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

// VaultStorage implements the VaultStorage interface for Badger.
// Secret values never appear in log output.
type VaultStorage struct {
	db     *BadgerDB
	logger arbor.ILogger
}

// NewVaultStorage creates a new VaultStorage instance
func NewVaultStorage(db *BadgerDB, logger arbor.ILogger) interfaces.VaultStorage {
	return &VaultStorage{
		db:     db,
		logger: logger,
	}
}

func (s *VaultStorage) GetEntryByID(ctx context.Context, id string) (*models.VaultEntry, error) {
	var entry models.VaultEntry
	if err := s.db.Store().Get(id, &entry); err != nil {
		if err == badgerhold.ErrNotFound {
			return nil, fmt.Errorf("vault entry %s: %w", id, interfaces.ErrNotFound)
		}
		return nil, fmt.Errorf("failed to get vault entry: %w", err)
	}
	return &entry, nil
}

func (s *VaultStorage) GetEntryByName(ctx context.Context, ownerID, name string) (*models.VaultEntry, error) {
	var records []models.VaultEntry
	query := badgerhold.Where("OwnerID").Eq(ownerID).And("Name").Eq(name).Limit(1)
	if err := s.db.Store().Find(&records, query); err != nil {
		return nil, fmt.Errorf("failed to find vault entry: %w", err)
	}
	if len(records) == 0 {
		return nil, fmt.Errorf("vault entry %s for user %s: %w", name, ownerID, interfaces.ErrNotFound)
	}
	return &records[0], nil
}

func (s *VaultStorage) SaveEntry(ctx context.Context, entry *models.VaultEntry) error {
	if entry.ID == "" {
		return fmt.Errorf("vault entry ID is required")
	}
	entry.UpdatedAt = time.Now()
	if entry.CreatedAt.IsZero() {
		entry.CreatedAt = entry.UpdatedAt
	}

	if err := s.db.Store().Upsert(entry.ID, *entry); err != nil {
		return fmt.Errorf("failed to save vault entry: %w", err)
	}

	s.logger.Trace().
		Str("entry_id", entry.ID).
		Str("name", entry.Name).
		Msg("BadgerDB: Vault entry saved")
	return nil
}

func (s *VaultStorage) DeleteEntry(ctx context.Context, id string) error {
	if err := s.db.Store().Delete(id, &models.VaultEntry{}); err != nil {
		if err == badgerhold.ErrNotFound {
			return fmt.Errorf("vault entry %s: %w", id, interfaces.ErrNotFound)
		}
		return fmt.Errorf("failed to delete vault entry: %w", err)
	}
	return nil
}
