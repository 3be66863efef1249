package services

import (
	"context"
	"fmt"
	"log/slog"

	"tally/internal/core"
	"tally/internal/storage"
)

// RecurringProcessor creates transactions from due recurring templates.
type RecurringProcessor struct {
	storage *storage.SQLiteRepository
	ledger  *LedgerService
}

func NewRecurringProcessor(storage *storage.SQLiteRepository, ledger *LedgerService) *RecurringProcessor {
	return &RecurringProcessor{
		storage: storage,
		ledger:  ledger,
	}
}

// ProcessDue executes every active template that is due on today and
// returns how many transactions were created. A failing template is logged
// and skipped so the others still run.
func (p *RecurringProcessor) ProcessDue(ctx context.Context, today core.Date) (int, error) {
	if p.storage == nil || p.ledger == nil {
		return 0, fmt.Errorf("processor not properly initialized")
	}

	templates, err := p.storage.ListActiveRecurring(ctx)
	if err != nil {
		return 0, fmt.Errorf("failed to get active recurring transactions: %w", err)
	}

	slog.InfoContext(ctx, "Processing recurring transactions",
		"total_active", len(templates),
		"processing_date", today.String())

	processed := 0
	for _, rt := range templates {
		if rt.StartDate.After(today.Time) {
			continue
		}

		checker, err := GetDuenessChecker(rt.Every)
		if err != nil {
			slog.ErrorContext(ctx, "Failed to check if template is due",
				"id", rt.ID,
				"error", err)
			continue
		}
		if !checker.IsDue(rt.LastExecuted, today, rt.StartDate) {
			continue
		}

		t, err := p.ledger.RecordRecurring(ctx, rt, today)
		if err != nil {
			slog.ErrorContext(ctx, "Failed to create transaction from recurring template",
				"recurring_id", rt.ID,
				"description", rt.Description,
				"error", err)
			continue
		}

		processed++
		slog.InfoContext(ctx, "Created transaction from recurring template",
			"recurring_id", rt.ID,
			"transaction_id", t.ID,
			"amount_cents", rt.Amount.Cents,
			"frequency", rt.Every)
	}

	slog.InfoContext(ctx, "Recurring processing complete",
		"processed", processed,
		"total_checked", len(templates))

	return processed, nil
}
