package tasks

import (
	"context"
	"encoding/json"
	"fmt"
	"sync"
	"time"

	"github.com/ternarybob/arbor"

	"github.com/flowsint/flowsint/internal/common"
	"github.com/flowsint/flowsint/internal/enrichers"
	"github.com/flowsint/flowsint/internal/graph"
	"github.com/flowsint/flowsint/internal/interfaces"
	"github.com/flowsint/flowsint/internal/models"
	"github.com/flowsint/flowsint/internal/orchestrator"
)

// WorkerPool drains the task queue. Each worker executes one run at a time;
// a failed run is not acknowledged, so the queue's visibility timeout and
// max-receive policy drive retries and dead-lettering.
type WorkerPool struct {
	queue   interfaces.QueueManager
	storage interfaces.StorageManager
	secrets interfaces.SecretStore
	config  *common.Config
	logger  arbor.ILogger

	wg     sync.WaitGroup
	cancel context.CancelFunc
}

// NewWorkerPool creates a worker pool over the shared queue
func NewWorkerPool(queue interfaces.QueueManager, storage interfaces.StorageManager, secrets interfaces.SecretStore, config *common.Config, logger arbor.ILogger) *WorkerPool {
	return &WorkerPool{
		queue:   queue,
		storage: storage,
		secrets: secrets,
		config:  config,
		logger:  logger,
	}
}

// Start launches the configured number of workers
func (p *WorkerPool) Start(ctx context.Context) {
	ctx, p.cancel = context.WithCancel(ctx)

	for i := 0; i < p.config.Queue.Concurrency; i++ {
		p.wg.Add(1)
		go p.run(ctx, i)
	}

	p.logger.Info().Int("workers", p.config.Queue.Concurrency).Msg("Task worker pool started")
}

// Stop signals all workers and waits for in-flight runs to finish
func (p *WorkerPool) Stop() {
	if p.cancel != nil {
		p.cancel()
	}
	p.wg.Wait()
	p.logger.Info().Msg("Task worker pool stopped")
}

func (p *WorkerPool) run(ctx context.Context, id int) {
	defer p.wg.Done()

	ticker := time.NewTicker(p.config.PollInterval())
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			p.drain(ctx, id)
		}
	}
}

// drain processes messages until the queue is empty
func (p *WorkerPool) drain(ctx context.Context, workerID int) {
	for {
		select {
		case <-ctx.Done():
			return
		default:
		}

		msg, ack, err := p.queue.Receive(ctx)
		if err == interfaces.ErrNoMessage {
			return
		}
		if err != nil {
			p.logger.Error().Err(err).Msg("Failed to receive task")
			return
		}

		if err := p.process(ctx, msg); err != nil {
			p.logger.Error().
				Err(err).
				Int("worker", workerID).
				Str("scan_id", msg.ScanID).
				Str("type", msg.Type).
				Msg("Task failed; message left for redelivery")
			continue
		}

		if err := ack(); err != nil {
			p.logger.Warn().Err(err).Str("scan_id", msg.ScanID).Msg("Failed to acknowledge task")
		}
	}
}

// process executes one task: creates the Scan row, builds the sketch-scoped
// collaborators, runs the enricher or orchestrator, and records the outcome.
// Any error marks the scan failed and propagates so retry policy can apply.
func (p *WorkerPool) process(ctx context.Context, msg *models.TaskMessage) error {
	scans := p.storage.ScanStorage()

	scan := &models.Scan{
		ID:     msg.ScanID,
		Status: models.ScanStatusPending,
	}

	var results map[string]interface{}
	var runErr error

	switch msg.Type {
	case models.TaskRunEnricher:
		var payload models.RunEnricherPayload
		if err := json.Unmarshal(msg.Payload, &payload); err != nil {
			runErr = fmt.Errorf("malformed run_enricher payload: %w", err)
			break
		}
		scan.SketchID = payload.SketchID
		if err := scans.SaveScan(ctx, scan); err != nil {
			return err
		}
		results, runErr = p.runEnricher(ctx, &payload, msg.ScanID)

	case models.TaskRunFlow:
		var payload models.RunFlowPayload
		if err := json.Unmarshal(msg.Payload, &payload); err != nil {
			runErr = fmt.Errorf("malformed run_flow payload: %w", err)
			break
		}
		scan.SketchID = payload.SketchID
		if err := scans.SaveScan(ctx, scan); err != nil {
			return err
		}
		results, runErr = p.runFlow(ctx, &payload, msg.ScanID)

	default:
		runErr = fmt.Errorf("unknown task type %q", msg.Type)
	}

	if runErr != nil {
		scan.Status = models.ScanStatusFailed
		scan.Results = map[string]interface{}{"error": runErr.Error()}
		if err := scans.SaveScan(ctx, scan); err != nil {
			p.logger.Error().Err(err).Str("scan_id", scan.ID).Msg("Failed to persist failed scan")
		}
		return runErr
	}

	scan.Status = models.ScanStatusCompleted
	scan.Results = results
	return scans.SaveScan(ctx, scan)
}

func (p *WorkerPool) newClient() *enrichers.Client {
	return enrichers.NewClient(p.config.RequestTimeout(), p.config.Engine.RateLimit)
}

func (p *WorkerPool) runEnricher(ctx context.Context, payload *models.RunEnricherPayload, scanID string) (map[string]interface{}, error) {
	writer := graph.NewWriter(p.storage.GraphStorage(), payload.SketchID, p.logger)

	instance, err := enrichers.Registry.Build(ctx, payload.EnricherName, enrichers.BuildContext{
		SketchID: payload.SketchID,
		ScanID:   scanID,
		UserID:   payload.UserID,
		Writer:   writer,
		Secrets:  p.secrets,
		Params:   nil,
		Logger:   p.logger,
		Client:   p.newClient(),
	})
	if err != nil {
		return nil, err
	}

	raw := make([]interface{}, len(payload.Nodes))
	for i, node := range payload.Nodes {
		raw[i] = node
	}

	outputs, err := enrichers.Execute(ctx, instance, raw)
	if err != nil {
		return nil, err
	}

	return map[string]interface{}{"result": outputs}, nil
}

func (p *WorkerPool) runFlow(ctx context.Context, payload *models.RunFlowPayload, scanID string) (map[string]interface{}, error) {
	writer := graph.NewWriter(p.storage.GraphStorage(), payload.SketchID, p.logger)

	orch, err := orchestrator.New(ctx, payload.Branches, orchestrator.Options{
		SketchID: payload.SketchID,
		ScanID:   scanID,
		UserID:   payload.UserID,
		LogDir:   p.config.Engine.LogDir,
		Writer:   writer,
		Secrets:  p.secrets,
		Client:   p.newClient(),
		Logger:   p.logger,
	})
	if err != nil {
		return nil, err
	}

	seeds := make([]interface{}, len(payload.Nodes))
	for i, node := range payload.Nodes {
		seeds[i] = node
	}

	result, err := orch.Execute(ctx, seeds)
	if err != nil {
		return nil, err
	}

	data, err := json.Marshal(result)
	if err != nil {
		return nil, fmt.Errorf("failed to serialize run result: %w", err)
	}
	out := map[string]interface{}{}
	if err := json.Unmarshal(data, &out); err != nil {
		return nil, fmt.Errorf("failed to rebuild run result: %w", err)
	}
	return out, nil
}
