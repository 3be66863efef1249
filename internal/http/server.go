// Package http exposes the reporting engine and a few ledger writes as a
// JSON API.
package http

import (
	"context"
	"net/http"
	"sync"
	"time"

	"tally/internal/analytics"
	"tally/internal/core"
	"tally/internal/log"
	"tally/internal/services"
)

// DefaultWritesPerMinute is the POST budget per client IP.
const DefaultWritesPerMinute = 60

// Reports is the read side served by the API. *services.ReportService
// implements it.
type Reports interface {
	CategoryHierarchy(ctx context.Context) ([]analytics.CategoryNode, error)
	PeriodReport(ctx context.Context, from, to core.Date) (analytics.PeriodReport, error)
	MonthlyDynamics(ctx context.Context, year int) ([]analytics.BucketTotal, error)
	Compare(ctx context.Context, g core.Granularity, anchor core.Date) (analytics.Comparison, error)
	BudgetAnalysis(ctx context.Context, month core.YearMonth) (analytics.BudgetAnalysis, error)
	Forecast(ctx context.Context, goalID int64) (analytics.Forecast, error)
	GoalsProgress(ctx context.Context) ([]services.GoalStatus, error)
	LongestStreak(ctx context.Context, habitID int64) (analytics.Streak, bool, error)
	HabitStats(ctx context.Context, habitID int64, days int) (analytics.CompletionStats, error)
	Reminders(ctx context.Context) ([]analytics.Reminder, error)
}

// Ledger is the write side served by the API. *services.LedgerService
// implements it.
type Ledger interface {
	RecordTransaction(ctx context.Context, in services.TransactionInput) (core.Transaction, error)
	SetBudget(ctx context.Context, in services.BudgetInput) (core.Budget, error)
}

// Habits records habit completions. *services.HabitService implements it.
type Habits interface {
	LogCompletion(ctx context.Context, habitID int64, date core.Date, note string) ([]analytics.Badge, error)
}

// Options configures NewServer.
type Options struct {
	Addr            string
	Reports         Reports
	Ledger          Ledger
	Habits          Habits
	Logger          *log.Logger
	WritesPerMinute int
	// Now is the clock used for default query values. Defaults to time.Now.
	Now func() time.Time
}

// Server is the JSON API server.
type Server struct {
	http.Server

	reports Reports
	ledger  Ledger
	habits  Habits
	logger  *log.Logger
	access  *log.StructuredLogger
	limiter *rateLimiter
	now     func() time.Time

	shutdownOnce sync.Once
}

// NewServer configures routes and middleware, returning a ready-to-run server.
func NewServer(opts Options) *Server {
	logger := opts.Logger
	if logger == nil {
		logger = log.New(log.DefaultConfig())
	}
	logger = logger.WithComponent(log.ComponentHTTP)

	now := opts.Now
	if now == nil {
		now = time.Now
	}

	s := &Server{
		reports: opts.Reports,
		ledger:  opts.Ledger,
		habits:  opts.Habits,
		logger:  logger,
		access:  log.NewStructuredLogger(logger),
		limiter: newRateLimiter(opts.WritesPerMinute),
		now:     now,
	}

	mux := http.NewServeMux()
	mux.HandleFunc("GET /healthz", handleHealth)

	mux.HandleFunc("GET /api/categories/tree", s.handleCategoryTree)
	mux.HandleFunc("GET /api/reports/period", s.handlePeriodReport)
	mux.HandleFunc("GET /api/reports/dynamics", s.handleDynamics)
	mux.HandleFunc("GET /api/reports/compare", s.handleCompare)
	mux.HandleFunc("GET /api/reports/budget", s.handleBudgetAnalysis)

	mux.HandleFunc("GET /api/goals", s.handleGoals)
	mux.HandleFunc("GET /api/goals/{id}/forecast", s.handleForecast)

	mux.HandleFunc("GET /api/habits/reminders", s.handleReminders)
	mux.HandleFunc("GET /api/habits/{id}/streak", s.handleStreak)
	mux.HandleFunc("GET /api/habits/{id}/stats", s.handleHabitStats)
	mux.HandleFunc("POST /api/habits/{id}/logs", s.handleLogHabit)

	mux.HandleFunc("POST /api/transactions", s.handleRecordTransaction)
	mux.HandleFunc("POST /api/budgets", s.handleSetBudget)

	s.Server = http.Server{
		Addr:              opts.Addr,
		Handler:           securityHeaders(s.trace(s.limitWrites(mux))),
		ReadHeaderTimeout: 5 * time.Second,
		ReadTimeout:       15 * time.Second,
		WriteTimeout:      30 * time.Second,
		IdleTimeout:       60 * time.Second,
	}
	return s
}

// Shutdown stops the limiter cleanup and drains in-flight requests.
func (s *Server) Shutdown(ctx context.Context) error {
	var shutdownErr error
	s.shutdownOnce.Do(func() {
		s.limiter.stop()
		shutdownErr = s.Server.Shutdown(ctx)
	})
	return shutdownErr
}

func handleHealth(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}
