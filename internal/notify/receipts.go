package notify

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"

	"github.com/rs/zerolog"

	"github.com/luxury-haiti/backend-payments/internal/common"
	"github.com/luxury-haiti/backend-payments/internal/obs"
	"github.com/luxury-haiti/backend-payments/internal/queue"
)

// TaskKindReceipt identifies payment receipt tasks on the queue.
const TaskKindReceipt = "payment-receipt"

type receiptTask struct {
	OrderIDs      []string `json:"order_ids"`
	TransactionID string   `json:"transaction_id"`
}

// ReceiptScheduler enqueues receipt notifications after settlement. The
// transaction id doubles as the deduplication key so one gateway payment
// produces at most one receipt task.
type ReceiptScheduler struct {
	Queue       queue.Enqueuer
	MaxAttempts int
}

// EnqueueReceipt schedules a receipt for the settled orders.
func (s ReceiptScheduler) EnqueueReceipt(ctx context.Context, orderIDs []string, transactionID string) error {
	if len(orderIDs) == 0 {
		return nil
	}
	payload, err := json.Marshal(receiptTask{OrderIDs: orderIDs, TransactionID: transactionID})
	if err != nil {
		return err
	}
	key := strings.TrimSpace(transactionID)
	if key == "" {
		key = common.Sha256Hex(strings.Join(orderIDs, ","))
	}
	return s.Queue.Enqueue(ctx, queue.Task{
		Kind:           TaskKindReceipt,
		Payload:        payload,
		IdempotencyKey: key,
		MaxAttempts:    s.MaxAttempts,
	})
}

// ReceiptWorker delivers receipts for settled orders. Email delivery is
// optional; without a sender and recipient the worker only records the
// settlement.
type ReceiptWorker struct {
	Email  common.EmailSender
	To     string
	Logger zerolog.Logger
}

// Handle processes one receipt task. Returning an error triggers the queue's
// retry schedule.
func (rw ReceiptWorker) Handle(ctx context.Context, t queue.Task) error {
	var task receiptTask
	if err := json.Unmarshal(t.Payload, &task); err != nil {
		// Malformed payloads can never succeed; count and drop.
		rw.count("malformed")
		rw.Logger.Error().Err(err).Str("kind", t.Kind).Msg("receipt task payload invalid")
		return nil
	}
	if len(task.OrderIDs) == 0 {
		rw.count("skipped")
		return nil
	}

	if rw.Email != nil && rw.To != "" {
		subject := "Luxury Haiti payment received"
		body := fmt.Sprintf("Payment %s confirmed for order(s) %s.",
			task.TransactionID, strings.Join(task.OrderIDs, ", "))
		if err := rw.Email.Send(rw.To, subject, body); err != nil {
			rw.count("retry")
			return err
		}
	}

	rw.Logger.Info().
		Strs("order_ids", task.OrderIDs).
		Str("transaction_id", task.TransactionID).
		Msg("payment receipt delivered")
	rw.count("delivered")
	return nil
}

func (rw ReceiptWorker) count(result string) {
	if obs.ReceiptTasksTotal != nil {
		obs.ReceiptTasksTotal.WithLabelValues(result).Inc()
	}
}
