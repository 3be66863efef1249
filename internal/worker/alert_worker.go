// Package worker holds the consumers that run outside the request path.
package worker

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"tally/internal/amqp"
	"tally/internal/core"
)

// AlertStore persists consumed budget alerts. *storage.SQLiteRepository
// implements it.
type AlertStore interface {
	RecordBudgetAlert(ctx context.Context, a core.BudgetAlert) (bool, error)
}

// AlertWorker records budget alerts delivered over AMQP.
type AlertWorker struct {
	store AlertStore
}

func NewAlertWorker(store AlertStore) *AlertWorker {
	return &AlertWorker{store: store}
}

// HandleBudgetAlert stores one alert. Redelivered messages are acknowledged
// without a second row; any returned error makes the consumer requeue.
func (w *AlertWorker) HandleBudgetAlert(ctx context.Context, msg *amqp.BudgetAlertMessage) error {
	month, err := core.ParseYearMonth(msg.Month)
	if err != nil {
		// Requeueing cannot fix a bad month; drop the alert.
		slog.ErrorContext(ctx, "Discarding budget alert with invalid month",
			"message_id", msg.ID,
			"month", msg.Month)
		return nil
	}

	received := msg.Timestamp
	if received.IsZero() {
		received = time.Now()
	}

	added, err := w.store.RecordBudgetAlert(ctx, core.BudgetAlert{
		MessageID:   msg.ID,
		CategoryID:  msg.CategoryID,
		Category:    msg.CategoryName,
		Month:       month,
		Planned:     core.Money{Cents: msg.PlannedCents},
		Spent:       core.Money{Cents: msg.SpentCents},
		Utilization: msg.Utilization,
		Status:      msg.Status,
		ReceivedAt:  received,
	})
	if err != nil {
		return fmt.Errorf("record budget alert: %w", err)
	}

	if !added {
		slog.InfoContext(ctx, "Duplicate budget alert ignored", "message_id", msg.ID)
		return nil
	}
	slog.WarnContext(ctx, "Budget alert",
		"category", msg.CategoryName,
		"month", msg.Month,
		"status", msg.Status,
		"utilization", msg.Utilization,
		"planned_cents", msg.PlannedCents,
		"spent_cents", msg.SpentCents)
	return nil
}
