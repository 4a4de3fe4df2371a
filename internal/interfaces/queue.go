package interfaces

import (
	"context"
	"time"

	"github.com/flowsint/flowsint/internal/models"
)

// QueueManager manages the persistent task queue.
// Receive returns the next visible message plus a delete function the worker
// calls after processing; an unacknowledged message becomes visible again
// after the visibility timeout so retry policy can apply.
type QueueManager interface {
	Enqueue(ctx context.Context, msg models.TaskMessage) error
	Receive(ctx context.Context) (*models.TaskMessage, func() error, error)
	Extend(ctx context.Context, messageID string, duration time.Duration) error
	Close() error
}

// SecretStore resolves a named secret for a given user.
// Resolution order: vault entry by identifier (when the params value is a
// valid entry id), logical name scoped to the user, process environment.
type SecretStore interface {
	GetSecret(ctx context.Context, userID, name string, params map[string]interface{}) (string, bool)
}
