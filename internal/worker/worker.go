package worker

import (
	"context"
	"log"

	"roastery-service/internal/broker"
	"roastery-service/internal/models"
	"roastery-service/internal/store"
	"roastery-service/internal/util"

	"go.uber.org/zap"
)

// AnalyticsWorker consumes order events and maintains the daily rollup behind
// the admin dashboard. It is entirely off the request path.
type AnalyticsWorker struct {
	consumer     *broker.Consumer
	eventHandler *broker.EventHandler
	store        *store.Store
	logger       *zap.Logger
}

// NewAnalyticsWorker creates a new analytics worker
func NewAnalyticsWorker(consumer *broker.Consumer, st *store.Store) *AnalyticsWorker {
	w := &AnalyticsWorker{
		consumer: consumer,
		store:    st,
		logger:   util.GetLogger(),
	}

	eventHandler := broker.NewEventHandler()
	eventHandler.OnOrderPlaced(w.handleOrderPlaced)
	w.eventHandler = eventHandler

	return w
}

func (w *AnalyticsWorker) handleOrderPlaced(ctx context.Context, event *models.OrderPlacedEvent) error {
	if err := w.store.RecordOrderStat(ctx, event.PlacedAt, event.TotalAmount); err != nil {
		w.logger.Error("Failed to record order stat",
			zap.Int64("order_id", event.OrderID),
			zap.Error(err))
		return err
	}

	w.logger.Debug("Order stat recorded",
		zap.Int64("order_id", event.OrderID),
		zap.String("order_number", event.OrderNumber))
	return nil
}

// Start starts the worker
func (w *AnalyticsWorker) Start(ctx context.Context) error {
	log.Println("Starting analytics worker...")
	return w.consumer.StartConsuming(ctx, w.eventHandler.HandleMessage)
}

// Stop stops the worker
func (w *AnalyticsWorker) Stop() error {
	log.Println("Stopping analytics worker...")
	return w.consumer.Close()
}
