package workers

import (
	"context"
	"encoding/json"
	"errors"

	"zanzar-backend/internal/queue"
	"zanzar-backend/internal/services"
	zanzar_errors "zanzar-backend/pkg/errors"
	"zanzar-backend/pkg/logger"
)

// CancellationWorker consumes expired payment-window jobs and cancels
// the orders that are still pending. Jobs that can never succeed
// (malformed payload, vanished order) are dropped; only transient
// failures go back onto the queue.
type CancellationWorker struct {
	consumer *queue.Consumer
	orders   *services.OrderService
	log      *logger.Logger
}

func NewCancellationWorker(consumer *queue.Consumer, orders *services.OrderService, log *logger.Logger) *CancellationWorker {
	return &CancellationWorker{
		consumer: consumer,
		orders:   orders,
		log:      log,
	}
}

func (w *CancellationWorker) Run(ctx context.Context) error {
	return w.consumer.Consume(ctx, w.handle)
}

func (w *CancellationWorker) handle(ctx context.Context, body []byte) error {
	var job queue.CancelOrderJob
	if err := json.Unmarshal(body, &job); err != nil {
		w.log.Errorf("dropping malformed cancellation job: %v", err)
		return nil
	}

	err := w.orders.CancelExpired(ctx, job)
	if errors.Is(err, zanzar_errors.ErrNotFound) {
		w.log.Warnf("order %s no longer exists, dropping cancellation job", job.OrderID)
		return nil
	}
	return err
}
