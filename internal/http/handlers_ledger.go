package http

import (
	"net/http"
	"strings"

	"tally/internal/core"
	"tally/internal/log"
	"tally/internal/services"
)

type transactionRequest struct {
	CategoryID  int64  `json:"category_id"`
	Amount      string `json:"amount"`
	Date        string `json:"date"`
	Description string `json:"description"`
}

type transactionResponse struct {
	ID          int64      `json:"id"`
	CategoryID  int64      `json:"category_id"`
	Amount      core.Money `json:"amount"`
	Date        core.Date  `json:"date"`
	Description string     `json:"description,omitempty"`
}

type budgetRequest struct {
	CategoryID int64  `json:"category_id"`
	Month      string `json:"month"`
	Amount     string `json:"amount"`
}

type budgetResponse struct {
	ID         int64          `json:"id"`
	CategoryID int64          `json:"category_id"`
	Month      core.YearMonth `json:"month"`
	Planned    core.Money     `json:"planned"`
}

// handleRecordTransaction records a transaction. The date defaults to today.
func (s *Server) handleRecordTransaction(w http.ResponseWriter, r *http.Request) {
	var req transactionRequest
	if err := decodeBody(r, &req); err != nil {
		writeError(w, r, err)
		return
	}
	if strings.TrimSpace(req.Date) == "" {
		req.Date = s.today().String()
	}

	tx, err := s.ledger.RecordTransaction(r.Context(), services.TransactionInput{
		CategoryID:  req.CategoryID,
		Amount:      req.Amount,
		Date:        req.Date,
		Description: req.Description,
	})
	if err != nil {
		writeError(w, r, err)
		return
	}

	log.NewStructuredLogger(log.FromContext(r.Context())).
		LogTransactionRecorded(r.Context(), tx.ID, tx.CategoryID, tx.Amount.Cents, tx.Date.String())

	writeJSON(w, http.StatusCreated, transactionResponse{
		ID:          tx.ID,
		CategoryID:  tx.CategoryID,
		Amount:      tx.Amount,
		Date:        tx.Date,
		Description: tx.Description,
	})
}

// handleSetBudget creates or replaces the budget of a category for a month.
func (s *Server) handleSetBudget(w http.ResponseWriter, r *http.Request) {
	var req budgetRequest
	if err := decodeBody(r, &req); err != nil {
		writeError(w, r, err)
		return
	}

	b, err := s.ledger.SetBudget(r.Context(), services.BudgetInput{
		CategoryID: req.CategoryID,
		Month:      req.Month,
		Amount:     req.Amount,
	})
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, budgetResponse{
		ID:         b.ID,
		CategoryID: b.CategoryID,
		Month:      b.Month,
		Planned:    b.Planned,
	})
}
