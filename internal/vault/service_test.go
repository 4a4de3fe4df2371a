package vault

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/ternarybob/arbor"

	"github.com/flowsint/flowsint/internal/common"
	"github.com/flowsint/flowsint/internal/interfaces"
	badgerstore "github.com/flowsint/flowsint/internal/storage/badger"
	"github.com/flowsint/flowsint/internal/models"
)

func newTestVault(t *testing.T) (interfaces.VaultStorage, *Service) {
	t.Helper()
	logger := arbor.NewLogger()
	manager, err := badgerstore.NewManager(logger, &common.BadgerConfig{Path: t.TempDir()})
	require.NoError(t, err)
	t.Cleanup(func() { manager.Close() })
	return manager.VaultStorage(), NewService(manager.VaultStorage(), logger)
}

// Resolution precedence: vault entry by identifier, then logical name,
// then process environment.
func TestSecretResolutionPrecedence(t *testing.T) {
	ctx := context.Background()
	storage, service := newTestVault(t)

	const userID = "user-1"
	const name = "TEST_API_KEY"

	byID := &models.VaultEntry{
		ID:      common.NewVaultEntryID(),
		OwnerID: userID,
		Name:    "some_other_name",
		Value:   "value-by-id",
	}
	require.NoError(t, storage.SaveEntry(ctx, byID))

	byName := &models.VaultEntry{
		ID:      common.NewVaultEntryID(),
		OwnerID: userID,
		Name:    name,
		Value:   "value-by-name",
	}
	require.NoError(t, storage.SaveEntry(ctx, byName))

	t.Setenv(name, "value-from-env")

	// 1. Params carrying a vault entry identifier win
	value, ok := service.GetSecret(ctx, userID, name, map[string]interface{}{name: byID.ID})
	require.True(t, ok)
	assert.Equal(t, "value-by-id", value)

	// 2. Logical name scoped to the user
	value, ok = service.GetSecret(ctx, userID, name, nil)
	require.True(t, ok)
	assert.Equal(t, "value-by-name", value)

	// 3. Environment fallback when the user has no entry
	value, ok = service.GetSecret(ctx, "other-user", name, nil)
	require.True(t, ok)
	assert.Equal(t, "value-from-env", value)
}

func TestSecretEnvironmentFallback(t *testing.T) {
	ctx := context.Background()
	_, service := newTestVault(t)

	t.Setenv("ONLY_IN_ENV", "env-value")

	value, ok := service.GetSecret(ctx, "user-1", "ONLY_IN_ENV", nil)
	require.True(t, ok)
	assert.Equal(t, "env-value", value)
}

func TestSecretUnresolvable(t *testing.T) {
	ctx := context.Background()
	_, service := newTestVault(t)

	_, ok := service.GetSecret(ctx, "user-1", "DEFINITELY_NOT_SET_ANYWHERE_12345", nil)
	assert.False(t, ok)
}

// A params value that is not a vault identifier must not short-circuit the
// lookup chain.
func TestParamsValueThatIsNotAnIdentifier(t *testing.T) {
	ctx := context.Background()
	_, service := newTestVault(t)

	t.Setenv("PARAM_KEY", "env-value")

	value, ok := service.GetSecret(ctx, "user-1", "PARAM_KEY", map[string]interface{}{"PARAM_KEY": "just-a-literal"})
	require.True(t, ok)
	assert.Equal(t, "env-value", value)
}
