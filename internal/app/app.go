// Package app wires the engine's services, storages and handlers together.
package app

import (
	"context"
	"fmt"

	"github.com/ternarybob/arbor"

	"github.com/flowsint/flowsint/internal/common"
	"github.com/flowsint/flowsint/internal/flows"
	"github.com/flowsint/flowsint/internal/graph"
	"github.com/flowsint/flowsint/internal/handlers"
	"github.com/flowsint/flowsint/internal/interfaces"
	"github.com/flowsint/flowsint/internal/queue"
	"github.com/flowsint/flowsint/internal/scheduler"
	badgerstore "github.com/flowsint/flowsint/internal/storage/badger"
	"github.com/flowsint/flowsint/internal/tasks"
	"github.com/flowsint/flowsint/internal/vault"
)

// App holds the wired application
type App struct {
	Config  *common.Config
	Logger  arbor.ILogger
	Storage interfaces.StorageManager
	Queue   interfaces.QueueManager
	Secrets interfaces.SecretStore

	FlowService *flows.Service
	TaskService *tasks.Service
	Workers     *tasks.WorkerPool
	Retention   *scheduler.Retention

	APIHandler      *handlers.APIHandler
	EnricherHandler *handlers.EnricherHandler
	FlowHandler     *handlers.FlowHandler
	TypeHandler     *handlers.TypeHandler
	ScanHandler     *handlers.ScanHandler
	WSHandler       *handlers.WebSocketHandler
}

// New builds the application from configuration
func New(config *common.Config, logger arbor.ILogger) (*App, error) {
	storage, err := badgerstore.NewManager(logger, &config.Storage.Badger)
	if err != nil {
		return nil, fmt.Errorf("failed to initialize storage: %w", err)
	}

	queueManager, err := queue.NewBadgerManager(storage.DB().Store(), config.Queue.QueueName, config.VisibilityTimeout(), config.Queue.MaxReceive)
	if err != nil {
		return nil, fmt.Errorf("failed to initialize queue: %w", err)
	}

	secrets := vault.NewService(storage.VaultStorage(), logger)
	loader := graph.NewLoader(storage.GraphStorage(), logger)

	flowService := flows.NewService(storage.FlowStorage(), logger)
	taskService := tasks.NewService(queueManager, storage, logger)
	workers := tasks.NewWorkerPool(queueManager, storage, secrets, config, logger)
	retention := scheduler.NewRetention(storage.ScanStorage(), config, logger)

	wsHandler := handlers.NewWebSocketHandler(logger)

	app := &App{
		Config:  config,
		Logger:  logger,
		Storage: storage,
		Queue:   queueManager,
		Secrets: secrets,

		FlowService: flowService,
		TaskService: taskService,
		Workers:     workers,
		Retention:   retention,

		APIHandler:      handlers.NewAPIHandler(logger),
		EnricherHandler: handlers.NewEnricherHandler(taskService, loader, logger),
		FlowHandler:     handlers.NewFlowHandler(flowService, taskService, loader, logger),
		TypeHandler:     handlers.NewTypeHandler(logger),
		ScanHandler:     handlers.NewScanHandler(taskService, config, logger),
		WSHandler:       wsHandler,
	}

	return app, nil
}

// Start launches the background machinery: worker pool and retention sweeps
func (a *App) Start(ctx context.Context) error {
	a.Workers.Start(ctx)
	if err := a.Retention.Start(); err != nil {
		return err
	}
	return nil
}

// Close shuts everything down in dependency order
func (a *App) Close() error {
	a.Retention.Stop()
	a.Workers.Stop()
	if err := a.Queue.Close(); err != nil {
		a.Logger.Warn().Err(err).Msg("Queue close failed")
	}
	return a.Storage.Close()
}
