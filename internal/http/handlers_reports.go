package http

import (
	"net/http"
	"strings"

	"tally/internal/analytics"
	"tally/internal/core"
	"tally/internal/services"
)

func (s *Server) today() core.Date {
	return core.DateOf(s.now())
}

func (s *Server) handleCategoryTree(w http.ResponseWriter, r *http.Request) {
	nodes, err := s.reports.CategoryHierarchy(r.Context())
	if err != nil {
		writeError(w, r, err)
		return
	}
	if nodes == nil {
		nodes = []analytics.CategoryNode{}
	}
	writeJSON(w, http.StatusOK, nodes)
}

// handlePeriodReport defaults to the current month when from or to is omitted.
func (s *Server) handlePeriodReport(w http.ResponseWriter, r *http.Request) {
	month := s.today().YearMonth()
	from, err := queryDate(r, "from", month.First())
	if err != nil {
		writeError(w, r, err)
		return
	}
	to, err := queryDate(r, "to", month.Last())
	if err != nil {
		writeError(w, r, err)
		return
	}

	report, err := s.reports.PeriodReport(r.Context(), from, to)
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, report)
}

func (s *Server) handleDynamics(w http.ResponseWriter, r *http.Request) {
	year, err := queryInt(r, "year", s.today().Year())
	if err != nil {
		writeError(w, r, err)
		return
	}
	if year < 1 || year > 9999 {
		writeError(w, r, invalidParam("year %d is out of range", year))
		return
	}

	buckets, err := s.reports.MonthlyDynamics(r.Context(), year)
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"year": year, "months": buckets})
}

func (s *Server) handleCompare(w http.ResponseWriter, r *http.Request) {
	g := core.Granularity(strings.ToLower(strings.TrimSpace(r.URL.Query().Get("by"))))
	if g == "" {
		g = core.ByMonth
	}
	if !g.Valid() {
		writeError(w, r, invalidParam("by must be one of day, week, month, year"))
		return
	}
	anchor, err := queryDate(r, "date", s.today())
	if err != nil {
		writeError(w, r, err)
		return
	}

	cmp, err := s.reports.Compare(r.Context(), g, anchor)
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, cmp)
}

func (s *Server) handleBudgetAnalysis(w http.ResponseWriter, r *http.Request) {
	month := s.today().YearMonth()
	if v := strings.TrimSpace(r.URL.Query().Get("month")); v != "" {
		m, err := core.ParseYearMonth(v)
		if err != nil {
			writeError(w, r, err)
			return
		}
		month = m
	}

	analysis, err := s.reports.BudgetAnalysis(r.Context(), month)
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, analysis)
}

type goalResponse struct {
	ID          int64         `json:"id"`
	Name        string        `json:"name"`
	Target      core.Money    `json:"target"`
	Current     core.Money    `json:"current"`
	TargetDate  core.Date     `json:"target_date"`
	Priority    core.Priority `json:"priority"`
	Description string        `json:"description,omitempty"`
	Progress    float64       `json:"progress"`
}

func newGoalResponse(st services.GoalStatus) goalResponse {
	g := st.Goal
	return goalResponse{
		ID:          g.ID,
		Name:        g.Name,
		Target:      g.Target,
		Current:     g.Current,
		TargetDate:  g.TargetDate,
		Priority:    g.Priority,
		Description: g.Description,
		Progress:    st.Progress,
	}
}

func (s *Server) handleGoals(w http.ResponseWriter, r *http.Request) {
	statuses, err := s.reports.GoalsProgress(r.Context())
	if err != nil {
		writeError(w, r, err)
		return
	}
	out := make([]goalResponse, 0, len(statuses))
	for _, st := range statuses {
		out = append(out, newGoalResponse(st))
	}
	writeJSON(w, http.StatusOK, out)
}

func (s *Server) handleForecast(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r)
	if err != nil {
		writeError(w, r, err)
		return
	}
	f, err := s.reports.Forecast(r.Context(), id)
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, f)
}
