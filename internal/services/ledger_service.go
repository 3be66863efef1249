package services

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"

	"tally/internal/amqp"
	"tally/internal/analytics"
	"tally/internal/apperr"
	"tally/internal/core"
	"tally/internal/storage"
)

// AlertPublisher delivers budget alerts. *amqp.Client implements it.
type AlertPublisher interface {
	PublishBudgetAlert(ctx context.Context, msg *amqp.BudgetAlertMessage) error
	Close() error
}

type CategoryInput struct {
	Name        string `validate:"required,max=100"`
	Type        string `validate:"required,category_type"`
	ParentID    *int64 `validate:"omitempty,gt=0"`
	Description string `validate:"max=500"`
}

type TransactionInput struct {
	CategoryID  int64  `validate:"required,gt=0"`
	Amount      string `validate:"required,amount"`
	Date        string `validate:"required,datetime=2006-01-02"`
	Description string `validate:"max=500"`
}

type BudgetInput struct {
	CategoryID int64  `validate:"required,gt=0"`
	Month      string `validate:"required,datetime=2006-01"`
	Amount     string `validate:"required,amount"`
}

type RecurringInput struct {
	CategoryID  int64  `validate:"required,gt=0"`
	Amount      string `validate:"required,amount"`
	Description string `validate:"required,max=200"`
	Every       string `validate:"required,frequency"`
	StartDate   string `validate:"required,datetime=2006-01-02"`
}

// LedgerService orchestrates category, transaction, budget and recurring
// template writes across SQLite and AMQP.
type LedgerService struct {
	storage   *storage.SQLiteRepository
	publisher AlertPublisher
}

// NewLedgerService wires the service. publisher may be nil, in which case
// budget alerts are skipped.
func NewLedgerService(storage *storage.SQLiteRepository, publisher AlertPublisher) *LedgerService {
	return &LedgerService{
		storage:   storage,
		publisher: publisher,
	}
}

func (s *LedgerService) CreateCategory(ctx context.Context, in CategoryInput) (core.Category, error) {
	if err := validateInput(in); err != nil {
		return core.Category{}, err
	}
	if in.ParentID != nil {
		if _, err := s.storage.GetCategory(ctx, *in.ParentID); err != nil {
			return core.Category{}, fmt.Errorf("check parent: %w", err)
		}
	}
	c := core.Category{
		Name:        strings.TrimSpace(in.Name),
		ParentID:    in.ParentID,
		Type:        core.CategoryType(in.Type),
		Description: in.Description,
	}
	return s.storage.CreateCategory(ctx, c)
}

// UpdateCategory applies a partial update. Moving a category under itself or
// under one of its descendants is rejected.
func (s *LedgerService) UpdateCategory(ctx context.Context, id int64, u storage.CategoryUpdate) error {
	if u.ParentID != nil {
		if *u.ParentID == id {
			return apperr.ErrSelfParentCategory
		}
		if _, err := s.storage.GetCategory(ctx, *u.ParentID); err != nil {
			return fmt.Errorf("check parent: %w", err)
		}
		all, err := s.storage.ListCategories(ctx, "")
		if err != nil {
			return fmt.Errorf("list categories: %w", err)
		}
		if analytics.CreatesCycle(all, id, *u.ParentID) {
			return apperr.ErrCategoryCycle
		}
	}
	if u.Name != nil && strings.TrimSpace(*u.Name) == "" {
		return core.ErrEmptyName
	}
	return s.storage.UpdateCategory(ctx, id, u)
}

// DeleteCategory removes a category together with its children, budgets and
// transactions.
func (s *LedgerService) DeleteCategory(ctx context.Context, id int64) error {
	return s.storage.DeleteCategory(ctx, id)
}

func (s *LedgerService) ListCategories(ctx context.Context, typ core.CategoryType) ([]core.Category, error) {
	return s.storage.ListCategories(ctx, typ)
}

// RecordTransaction saves a transaction. For expense categories it then
// checks the month's budget and publishes an alert once spend leaves the
// within band.
func (s *LedgerService) RecordTransaction(ctx context.Context, in TransactionInput) (core.Transaction, error) {
	if err := validateInput(in); err != nil {
		return core.Transaction{}, err
	}
	amount, err := parseAmount(in.Amount)
	if err != nil {
		return core.Transaction{}, err
	}
	date, err := core.ParseDate(in.Date)
	if err != nil {
		return core.Transaction{}, err
	}

	cat, err := s.storage.GetCategory(ctx, in.CategoryID)
	if err != nil {
		return core.Transaction{}, fmt.Errorf("check category: %w", err)
	}

	t, err := s.storage.CreateTransaction(ctx, core.Transaction{
		CategoryID:  in.CategoryID,
		Amount:      amount,
		Date:        date,
		Description: strings.TrimSpace(in.Description),
	})
	if err != nil {
		return core.Transaction{}, fmt.Errorf("save transaction: %w", err)
	}

	if cat.Type == core.Expense {
		// The transaction is already saved; alert problems never fail the request.
		if err := s.checkBudget(ctx, cat, date.YearMonth()); err != nil {
			slog.ErrorContext(ctx, "Failed to check budget",
				"category_id", cat.ID,
				"month", date.YearMonth().String(),
				"error", err)
		}
	}
	return t, nil
}

func (s *LedgerService) checkBudget(ctx context.Context, cat core.Category, month core.YearMonth) error {
	budget, err := s.storage.GetBudget(ctx, cat.ID, month)
	if errors.Is(err, apperr.ErrBudgetNotFound) {
		return nil
	}
	if err != nil {
		return err
	}
	spent, err := s.storage.SpentInMonth(ctx, cat.ID, month)
	if err != nil {
		return err
	}

	status := analytics.ClassifyUtilization(budget.Planned, spent)
	if status == analytics.StatusWithin {
		return nil
	}

	msg := amqp.NewBudgetAlertMessage(cat.ID, cat.Name, month.String(),
		budget.Planned.Cents, spent.Cents,
		analytics.UtilizationPercent(budget.Planned, spent), string(status))
	return s.publishAlert(ctx, msg)
}

func (s *LedgerService) publishAlert(ctx context.Context, msg *amqp.BudgetAlertMessage) error {
	if s.publisher == nil {
		slog.WarnContext(ctx, "AMQP client not available, skipping budget alert",
			"category_id", msg.CategoryID,
			"status", msg.Status)
		return nil
	}
	return s.publisher.PublishBudgetAlert(ctx, msg)
}

func (s *LedgerService) UpdateTransaction(ctx context.Context, id int64, u storage.TransactionUpdate) error {
	if u.Amount != nil {
		if err := u.Amount.Validate(); err != nil {
			return err
		}
	}
	if u.Date != nil {
		if err := u.Date.Validate(); err != nil {
			return err
		}
	}
	return s.storage.UpdateTransaction(ctx, id, u)
}

func (s *LedgerService) DeleteTransaction(ctx context.Context, id int64) error {
	return s.storage.DeleteTransaction(ctx, id)
}

// SetBudget creates or replaces the planned amount for a category and month.
func (s *LedgerService) SetBudget(ctx context.Context, in BudgetInput) (core.Budget, error) {
	if err := validateInput(in); err != nil {
		return core.Budget{}, err
	}
	amount, err := parseAmount(in.Amount)
	if err != nil {
		return core.Budget{}, err
	}
	month, err := core.ParseYearMonth(in.Month)
	if err != nil {
		return core.Budget{}, err
	}
	if _, err := s.storage.GetCategory(ctx, in.CategoryID); err != nil {
		return core.Budget{}, fmt.Errorf("check category: %w", err)
	}

	b, err := s.storage.UpsertBudget(ctx, core.Budget{CategoryID: in.CategoryID, Month: month, Planned: amount})
	if err != nil {
		return core.Budget{}, err
	}
	slog.InfoContext(ctx, "Budget set",
		"category_id", b.CategoryID,
		"month", b.Month.String(),
		"planned_cents", b.Planned.Cents)
	return b, nil
}

func (s *LedgerService) DeleteBudget(ctx context.Context, categoryID int64, month core.YearMonth) error {
	return s.storage.DeleteBudget(ctx, categoryID, month)
}

func (s *LedgerService) CreateRecurring(ctx context.Context, in RecurringInput) (core.RecurringTransaction, error) {
	if err := validateInput(in); err != nil {
		return core.RecurringTransaction{}, err
	}
	amount, err := parseAmount(in.Amount)
	if err != nil {
		return core.RecurringTransaction{}, err
	}
	start, err := core.ParseDate(in.StartDate)
	if err != nil {
		return core.RecurringTransaction{}, err
	}
	rt := core.RecurringTransaction{
		CategoryID:  in.CategoryID,
		Amount:      amount,
		Description: strings.TrimSpace(in.Description),
		Every:       core.RepetitionTypes(in.Every),
		StartDate:   start,
		Active:      true,
	}
	if err := rt.Validate(); err != nil {
		return core.RecurringTransaction{}, err
	}
	if _, err := s.storage.GetCategory(ctx, in.CategoryID); err != nil {
		return core.RecurringTransaction{}, fmt.Errorf("check category: %w", err)
	}
	return s.storage.CreateRecurring(ctx, rt)
}

func (s *LedgerService) ListRecurring(ctx context.Context) ([]core.RecurringTransaction, error) {
	return s.storage.ListActiveRecurring(ctx)
}

func (s *LedgerService) SetRecurringActive(ctx context.Context, id int64, active bool) error {
	return s.storage.SetRecurringActive(ctx, id, active)
}

func (s *LedgerService) DeleteRecurring(ctx context.Context, id int64) error {
	return s.storage.DeleteRecurring(ctx, id)
}

// RecordRecurring executes one occurrence of a template on date. Expense
// templates go through the same budget check as manual transactions.
func (s *LedgerService) RecordRecurring(ctx context.Context, rt core.RecurringTransaction, date core.Date) (core.Transaction, error) {
	t, err := s.storage.ExecuteRecurring(ctx, rt, date)
	if err != nil {
		return core.Transaction{}, err
	}
	cat, err := s.storage.GetCategory(ctx, rt.CategoryID)
	if err != nil {
		return t, nil
	}
	if cat.Type == core.Expense {
		if err := s.checkBudget(ctx, cat, date.YearMonth()); err != nil {
			slog.ErrorContext(ctx, "Failed to check budget",
				"category_id", cat.ID,
				"error", err)
		}
	}
	return t, nil
}

// Close closes both storage and AMQP connections
func (s *LedgerService) Close() error {
	var errs []error

	if s.storage != nil {
		if err := s.storage.Close(); err != nil {
			errs = append(errs, fmt.Errorf("storage: %w", err))
		}
	}

	if s.publisher != nil {
		if err := s.publisher.Close(); err != nil {
			errs = append(errs, fmt.Errorf("amqp: %w", err))
		}
	}

	if len(errs) > 0 {
		return fmt.Errorf("close ledger service: %w", errors.Join(errs...))
	}

	return nil
}
