package queue

import (
	"context"
	"encoding/json"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/ternarybob/arbor"

	"github.com/flowsint/flowsint/internal/common"
	"github.com/flowsint/flowsint/internal/interfaces"
	"github.com/flowsint/flowsint/internal/models"
	badgerstore "github.com/flowsint/flowsint/internal/storage/badger"
)

func newTestQueue(t *testing.T, visibility time.Duration, maxReceive int) *BadgerManager {
	t.Helper()
	db, err := badgerstore.NewBadgerDB(arbor.NewLogger(), &common.BadgerConfig{Path: t.TempDir()})
	require.NoError(t, err)
	t.Cleanup(func() { db.Close() })

	manager, err := NewBadgerManager(db.Store(), "test_queue", visibility, maxReceive)
	require.NoError(t, err)
	return manager
}

func message(scanID string) models.TaskMessage {
	return models.TaskMessage{
		ScanID:  scanID,
		Type:    models.TaskRunEnricher,
		Payload: json.RawMessage(`{}`),
	}
}

func TestQueueFIFOOrdering(t *testing.T) {
	ctx := context.Background()
	q := newTestQueue(t, time.Minute, 3)

	require.NoError(t, q.Enqueue(ctx, message("scan-1")))
	require.NoError(t, q.Enqueue(ctx, message("scan-2")))
	require.NoError(t, q.Enqueue(ctx, message("scan-3")))

	for _, want := range []string{"scan-1", "scan-2", "scan-3"} {
		msg, ack, err := q.Receive(ctx)
		require.NoError(t, err)
		assert.Equal(t, want, msg.ScanID)
		require.NoError(t, ack())
	}

	_, _, err := q.Receive(ctx)
	assert.ErrorIs(t, err, interfaces.ErrNoMessage)
}

func TestQueueEmptyReceive(t *testing.T) {
	q := newTestQueue(t, time.Minute, 3)
	_, _, err := q.Receive(context.Background())
	assert.ErrorIs(t, err, interfaces.ErrNoMessage)
}

// An unacknowledged message becomes visible again after the visibility
// timeout so retry policy can apply.
func TestQueueRedelivery(t *testing.T) {
	ctx := context.Background()
	q := newTestQueue(t, 50*time.Millisecond, 3)

	require.NoError(t, q.Enqueue(ctx, message("scan-1")))

	msg, _, err := q.Receive(ctx)
	require.NoError(t, err)
	assert.Equal(t, "scan-1", msg.ScanID)

	// Invisible while in flight
	_, _, err = q.Receive(ctx)
	assert.ErrorIs(t, err, interfaces.ErrNoMessage)

	time.Sleep(80 * time.Millisecond)

	msg, ack, err := q.Receive(ctx)
	require.NoError(t, err)
	assert.Equal(t, "scan-1", msg.ScanID)
	require.NoError(t, ack())
}

// After maxReceive deliveries the message is dead-lettered
func TestQueueMaxReceive(t *testing.T) {
	ctx := context.Background()
	q := newTestQueue(t, time.Millisecond, 2)

	require.NoError(t, q.Enqueue(ctx, message("scan-1")))

	for i := 0; i < 2; i++ {
		time.Sleep(5 * time.Millisecond)
		_, _, err := q.Receive(ctx)
		require.NoError(t, err, "delivery %d", i+1)
	}

	time.Sleep(5 * time.Millisecond)
	_, _, err := q.Receive(ctx)
	assert.ErrorIs(t, err, interfaces.ErrNoMessage)
}

func TestQueueAckRemovesMessage(t *testing.T) {
	ctx := context.Background()
	q := newTestQueue(t, 50*time.Millisecond, 3)

	require.NoError(t, q.Enqueue(ctx, message("scan-1")))

	_, ack, err := q.Receive(ctx)
	require.NoError(t, err)
	require.NoError(t, ack())

	time.Sleep(80 * time.Millisecond)
	_, _, err = q.Receive(ctx)
	assert.ErrorIs(t, err, interfaces.ErrNoMessage)
}
