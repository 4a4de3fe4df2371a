package badger

import (
	"github.com/ternarybob/arbor"

	"github.com/flowsint/flowsint/internal/common"
	"github.com/flowsint/flowsint/internal/interfaces"
)

// Manager implements the StorageManager interface for Badger
type Manager struct {
	db     *BadgerDB
	graph  interfaces.GraphStorage
	scan   interfaces.ScanStorage
	flow   interfaces.FlowStorage
	vault  interfaces.VaultStorage
	logger arbor.ILogger
}

// NewManager creates a new Badger storage manager
func NewManager(logger arbor.ILogger, config *common.BadgerConfig) (*Manager, error) {
	db, err := NewBadgerDB(logger, config)
	if err != nil {
		return nil, err
	}

	manager := &Manager{
		db:     db,
		graph:  NewGraphStorage(db, logger),
		scan:   NewScanStorage(db, logger),
		flow:   NewFlowStorage(db, logger),
		vault:  NewVaultStorage(db, logger),
		logger: logger,
	}

	logger.Info().Msg("Badger storage manager initialized")

	return manager, nil
}

// GraphStorage returns the graph storage interface
func (m *Manager) GraphStorage() interfaces.GraphStorage {
	return m.graph
}

// ScanStorage returns the scan storage interface
func (m *Manager) ScanStorage() interfaces.ScanStorage {
	return m.scan
}

// FlowStorage returns the flow storage interface
func (m *Manager) FlowStorage() interfaces.FlowStorage {
	return m.flow
}

// VaultStorage returns the vault storage interface
func (m *Manager) VaultStorage() interfaces.VaultStorage {
	return m.vault
}

// DB returns the underlying Badger database, whose store the queue manager
// shares.
func (m *Manager) DB() *BadgerDB {
	return m.db
}

// Close closes the database connection
func (m *Manager) Close() error {
	if m.db != nil {
		return m.db.Close()
	}
	return nil
}
