package http

import (
	"net/http"

	"tally/internal/analytics"
	"tally/internal/services"
)

type habitLogRequest struct {
	Date string `json:"date"`
	Note string `json:"note"`
}

type streakResponse struct {
	HabitID int64             `json:"habit_id"`
	Streak  *analytics.Streak `json:"longest_streak"`
}

// handleStreak returns a null streak for a habit that was never completed.
func (s *Server) handleStreak(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r)
	if err != nil {
		writeError(w, r, err)
		return
	}
	streak, ok, err := s.reports.LongestStreak(r.Context(), id)
	if err != nil {
		writeError(w, r, err)
		return
	}
	resp := streakResponse{HabitID: id}
	if ok {
		resp.Streak = &streak
	}
	writeJSON(w, http.StatusOK, resp)
}

func (s *Server) handleHabitStats(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r)
	if err != nil {
		writeError(w, r, err)
		return
	}
	days, err := queryInt(r, "days", services.MonthlyWindowDays)
	if err != nil {
		writeError(w, r, err)
		return
	}
	if days < 1 || days > 3660 {
		writeError(w, r, invalidParam("days must be between 1 and 3660"))
		return
	}

	stats, err := s.reports.HabitStats(r.Context(), id, days)
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, stats)
}

func (s *Server) handleReminders(w http.ResponseWriter, r *http.Request) {
	reminders, err := s.reports.Reminders(r.Context())
	if err != nil {
		writeError(w, r, err)
		return
	}
	if reminders == nil {
		reminders = []analytics.Reminder{}
	}
	writeJSON(w, http.StatusOK, reminders)
}

// handleLogHabit marks a habit completed for a day, today by default, and
// returns any badge the completion unlocked.
func (s *Server) handleLogHabit(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r)
	if err != nil {
		writeError(w, r, err)
		return
	}
	var req habitLogRequest
	if r.ContentLength != 0 {
		if err := decodeBody(r, &req); err != nil {
			writeError(w, r, err)
			return
		}
	}

	date := s.today()
	if req.Date != "" {
		if date, err = queryDateValue("date", req.Date); err != nil {
			writeError(w, r, err)
			return
		}
	}

	badges, err := s.habits.LogCompletion(r.Context(), id, date, req.Note)
	if err != nil {
		writeError(w, r, err)
		return
	}
	if badges == nil {
		badges = []analytics.Badge{}
	}
	writeJSON(w, http.StatusCreated, map[string]any{
		"habit_id":   id,
		"date":       date,
		"new_badges": badges,
	})
}
