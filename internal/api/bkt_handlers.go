package api

import (
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"

	"github.com/kyuwon/physioprep/internal/errors"
	"github.com/kyuwon/physioprep/internal/models"
)

type updateRequest struct {
	UserID       string              `json:"user_id"`
	QuestionData models.QuestionInfo `json:"question_data"`
	IsCorrect    bool                `json:"is_correct"`
}

func (s *Server) handleUpdateWithAnswer(w http.ResponseWriter, r *http.Request) {
	var req updateRequest
	if err := decodeJSON(r, &req); err != nil {
		handleError(w, r, err)
		return
	}

	result, err := s.Mastery.UpdateWithAnswer(r.Context(), req.UserID, req.QuestionData, req.IsCorrect)
	if err != nil {
		handleError(w, r, err)
		return
	}
	respondJSON(w, r, http.StatusOK, result)
}

func (s *Server) handleMasteryReport(w http.ResponseWriter, r *http.Request) {
	report, err := s.Mastery.MasteryReport(r.Context(), chi.URLParam(r, "userID"))
	if err != nil {
		handleError(w, r, err)
		return
	}
	respondJSON(w, r, http.StatusOK, report)
}

func (s *Server) handleTypeSummary(w http.ResponseWriter, r *http.Request) {
	summary, err := s.Mastery.TypeSummary(r.Context(), chi.URLParam(r, "userID"))
	if err != nil {
		handleError(w, r, err)
		return
	}
	respondJSON(w, r, http.StatusOK, summary)
}

func (s *Server) handleWeakTypes(w http.ResponseWriter, r *http.Request) {
	threshold := 0.6
	if raw := r.URL.Query().Get("threshold"); raw != "" {
		parsed, err := strconv.ParseFloat(raw, 64)
		if err != nil || parsed <= 0 || parsed > 1 {
			handleError(w, r, errors.NewValidationError("threshold", "must be a number in (0, 1]"))
			return
		}
		threshold = parsed
	}

	weak, err := s.Mastery.WeakTypes(r.Context(), chi.URLParam(r, "userID"), threshold)
	if err != nil {
		handleError(w, r, err)
		return
	}
	respondJSON(w, r, http.StatusOK, map[string]any{"weak_types": weak})
}

func (s *Server) handleAdaptiveQuestions(w http.ResponseWriter, r *http.Request) {
	count := 10
	if raw := r.URL.Query().Get("count"); raw != "" {
		parsed, err := strconv.Atoi(raw)
		if err != nil || parsed <= 0 || parsed > 100 {
			handleError(w, r, errors.NewValidationError("count", "must be an integer in [1, 100]"))
			return
		}
		count = parsed
	}

	questions, err := s.Adaptive.AdaptiveQuestions(r.Context(), chi.URLParam(r, "userID"), count)
	if err != nil {
		handleError(w, r, err)
		return
	}
	respondJSON(w, r, http.StatusOK, map[string]any{"questions": questions})
}

func (s *Server) handleTypePerformance(w http.ResponseWriter, r *http.Request) {
	perf, err := s.Mastery.TypePerformance(r.Context(), chi.URLParam(r, "userID"), chi.URLParam(r, "type"))
	if err != nil {
		handleError(w, r, err)
		return
	}
	respondJSON(w, r, http.StatusOK, perf)
}

func (s *Server) handleAvailableTypes(w http.ResponseWriter, r *http.Request) {
	types, err := s.Mastery.AvailableTypes(r.Context())
	if err != nil {
		handleError(w, r, err)
		return
	}
	if types == nil {
		types = []string{}
	}
	respondJSON(w, r, http.StatusOK, map[string]any{"types": types})
}

func (s *Server) handleReset(w http.ResponseWriter, r *http.Request) {
	userID := chi.URLParam(r, "userID")
	deleted, err := s.Mastery.Reset(r.Context(), userID)
	if err != nil {
		handleError(w, r, err)
		return
	}
	if !deleted {
		handleError(w, r, errors.NewNotFoundError("mastery record", userID))
		return
	}
	respondJSON(w, r, http.StatusOK, map[string]any{"reset": true, "user_id": userID})
}
