// Package vault resolves named secrets for a given user.
//
// Resolution order for get_secret(user, name):
//  1. the enricher's parameters carry a value for name that is a valid vault
//     entry identifier - fetch by identifier
//  2. a vault entry with that logical name exists for the user - fetch it
//  3. fall back to the process environment variable of the same name
package vault

import (
	"context"
	"os"

	"github.com/ternarybob/arbor"

	"github.com/flowsint/flowsint/internal/common"
	"github.com/flowsint/flowsint/internal/interfaces"
)

// Service implements interfaces.SecretStore over vault storage
type Service struct {
	storage interfaces.VaultStorage
	logger  arbor.ILogger
}

// NewService creates a new secret store service
func NewService(storage interfaces.VaultStorage, logger arbor.ILogger) *Service {
	return &Service{
		storage: storage,
		logger:  logger,
	}
}

// GetSecret resolves a named secret for the user. The params map is the
// enricher's parameter map; when it carries a vault entry identifier for
// name, that entry wins over the logical-name lookup.
func (s *Service) GetSecret(ctx context.Context, userID, name string, params map[string]interface{}) (string, bool) {
	// 1. Vault entry by identifier from params
	if raw, ok := params[name]; ok {
		if id, ok := raw.(string); ok && common.IsVaultEntryID(id) {
			if entry, err := s.storage.GetEntryByID(ctx, id); err == nil {
				s.logger.Debug().Str("name", name).Msg("Secret resolved by vault entry ID")
				return entry.Value, true
			}
			s.logger.Warn().Str("name", name).Msg("Params carried a vault entry ID that does not resolve")
		}
	}

	// 2. Logical name scoped to the user
	if userID != "" {
		if entry, err := s.storage.GetEntryByName(ctx, userID, name); err == nil {
			s.logger.Debug().Str("name", name).Msg("Secret resolved by logical name")
			return entry.Value, true
		}
	}

	// 3. Process environment fallback
	if value, ok := os.LookupEnv(name); ok && value != "" {
		s.logger.Debug().Str("name", name).Msg("Secret resolved from environment")
		return value, true
	}

	return "", false
}

var _ interfaces.SecretStore = (*Service)(nil)
