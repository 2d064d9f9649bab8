package worker

import (
	"context"

	"bookstore-service/internal/broker"
	"bookstore-service/internal/service"
	"bookstore-service/internal/util"

	"go.uber.org/zap"
)

// StockCacheWorker consumes order events and refreshes the cached stock of
// the books they touched
type StockCacheWorker struct {
	consumer     *broker.Consumer
	eventHandler *broker.EventHandler
	logger       *zap.Logger
}

// NewStockCacheWorker creates a new stock cache worker
func NewStockCacheWorker(consumer *broker.Consumer, sync *service.InventorySync) *StockCacheWorker {
	eventHandler := broker.NewEventHandler()

	eventHandler.OnOrderPlaced(sync.HandleOrderPlaced)
	eventHandler.OnOrderCanceled(sync.HandleOrderCanceled)

	return &StockCacheWorker{
		consumer:     consumer,
		eventHandler: eventHandler,
		logger:       util.GetLogger(),
	}
}

// Start blocks consuming events until ctx is canceled
func (w *StockCacheWorker) Start(ctx context.Context) error {
	w.logger.Info("Starting stock cache worker")
	return w.consumer.StartConsuming(ctx, w.eventHandler.HandleMessage)
}

// Stop stops the worker
func (w *StockCacheWorker) Stop() error {
	w.logger.Info("Stopping stock cache worker")
	return w.consumer.Close()
}
