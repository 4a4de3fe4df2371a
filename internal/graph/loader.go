package graph

import (
	"context"
	"fmt"

	"github.com/ternarybob/arbor"

	"github.com/flowsint/flowsint/internal/interfaces"
)

// storageFields are stripped from raw node records before the cleaned record
// is handed off. Parsing into typed entities happens in the enricher's
// preprocess step, not here - the loader is deliberately schema-agnostic.
var storageFields = map[string]bool{
	"sketch_id":  true,
	"created_at": true,
	"type":       true,
	"x":          true,
	"y":          true,
	"caption":    true,
	"color":      true,
}

// CleanNodeRecord removes storage metadata and empty values from a raw node
// record.
func CleanNodeRecord(record map[string]interface{}) map[string]interface{} {
	cleaned := map[string]interface{}{}
	for k, v := range record {
		if storageFields[k] {
			continue
		}
		switch val := v.(type) {
		case nil:
			continue
		case string:
			if val == "" {
				continue
			}
		case []interface{}:
			if len(val) == 0 {
				continue
			}
		case map[string]interface{}:
			if len(val) == 0 {
				continue
			}
		}
		cleaned[k] = v
	}
	return cleaned
}

// Loader fetches seed nodes by identifier from the graph store
type Loader struct {
	storage interfaces.GraphStorage
	logger  arbor.ILogger
}

// NewLoader creates a new node loader
func NewLoader(storage interfaces.GraphStorage, logger arbor.ILogger) *Loader {
	return &Loader{
		storage: storage,
		logger:  logger,
	}
}

// LoadSeeds fetches the identified nodes scoped to the sketch and returns
// cleaned records. An empty result is a NotFound error - the HTTP layer
// rejects the launch before any job is created.
func (l *Loader) LoadSeeds(ctx context.Context, ids []string, sketchID string) ([]map[string]interface{}, error) {
	writer := NewWriter(l.storage, sketchID, l.logger)
	raw, err := writer.GetNodesByIDs(ctx, ids)
	if err != nil {
		return nil, err
	}
	if len(raw) == 0 {
		return nil, fmt.Errorf("no nodes found with provided IDs: %w", interfaces.ErrNotFound)
	}

	cleaned := make([]map[string]interface{}, 0, len(raw))
	for _, record := range raw {
		cleaned = append(cleaned, CleanNodeRecord(record))
	}

	l.logger.Debug().
		Str("sketch_id", sketchID).
		Int("count", len(cleaned)).
		Msg("Seed nodes loaded")
	return cleaned, nil
}
