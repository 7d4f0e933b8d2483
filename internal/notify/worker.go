package notify

import (
	"context"
	"encoding/json"
	"errors"
	"time"

	"github.com/wolfman30/clinic-scheduler/internal/bookings"
	"github.com/wolfman30/clinic-scheduler/pkg/logging"
)

const (
	receiveBatchSize = 10
	receiveWaitSecs  = 20
	maxBackoff       = 30 * time.Second
)

// Worker drains booking events and sends the confirmation email for each.
// A message is deleted only after a successful send, so failures are redelivered
// once the visibility timeout expires. Malformed messages are dropped.
type Worker struct {
	queue    *SQSQueue
	notifier bookings.Notifier
	logger   *logging.Logger
	waitSecs int
}

func NewWorker(queue *SQSQueue, notifier bookings.Notifier, logger *logging.Logger) *Worker {
	if queue == nil || notifier == nil {
		panic("notify: worker requires a queue and a notifier")
	}
	if logger == nil {
		logger = logging.Default()
	}
	return &Worker{queue: queue, notifier: notifier, logger: logger, waitSecs: receiveWaitSecs}
}

// Run polls until ctx is cancelled.
func (w *Worker) Run(ctx context.Context) {
	backoff := time.Second
	for {
		if ctx.Err() != nil {
			return
		}
		if _, err := w.ProcessOnce(ctx); err != nil {
			if errors.Is(err, context.Canceled) || ctx.Err() != nil {
				return
			}
			w.logger.Error("failed to receive booking events", "error", err)
			select {
			case <-ctx.Done():
				return
			case <-time.After(backoff):
			}
			if backoff < maxBackoff {
				backoff *= 2
			}
			continue
		}
		backoff = time.Second
	}
}

// ProcessOnce handles a single receive batch and reports how many emails were sent.
func (w *Worker) ProcessOnce(ctx context.Context) (int, error) {
	messages, err := w.queue.Receive(ctx, receiveBatchSize, w.waitSecs)
	if err != nil {
		return 0, err
	}
	sent := 0
	for _, msg := range messages {
		if w.handle(ctx, msg) {
			sent++
		}
	}
	return sent, nil
}

func (w *Worker) handle(ctx context.Context, msg queueMessage) bool {
	var event bookingEvent
	if err := json.Unmarshal([]byte(msg.Body), &event); err != nil || event.Type != EventBookingConfirmed {
		w.logger.Error("dropping malformed booking event", "message_id", msg.ID, "error", err, "type", event.Type)
		w.delete(msg)
		return false
	}

	if err := w.notifier.BookingConfirmed(ctx, event.Booking); err != nil {
		w.logger.Warn("booking confirmation failed, leaving for redelivery",
			"message_id", msg.ID, "booking_id", event.Booking.ID, "error", err)
		return false
	}
	w.delete(msg)
	w.logger.Info("booking confirmation sent", "booking_id", event.Booking.ID)
	return true
}

func (w *Worker) delete(msg queueMessage) {
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := w.queue.Delete(ctx, msg.ReceiptHandle); err != nil {
		w.logger.Error("failed to delete booking event", "message_id", msg.ID, "error", err)
	}
}
