package api

import (
	"encoding/json"
	"net/http"
	"strconv"
	"time"

	"github.com/go-chi/chi/v5"

	"github.com/matea/trainer/internal/challenge"
	"github.com/matea/trainer/internal/errors"
	"github.com/matea/trainer/internal/logger"
	"github.com/matea/trainer/internal/models"
	"github.com/matea/trainer/internal/services"
)

type Server struct {
	TrainingService  *services.TrainingService
	ChallengeService *services.ChallengeService
}

func respondJSON(w http.ResponseWriter, r *http.Request, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		logger.FromContext(r.Context()).Error("failed to encode response: %v", err)
	}
}

func decodeJSON(r *http.Request, v any) error {
	dec := json.NewDecoder(r.Body)
	dec.DisallowUnknownFields()
	if err := dec.Decode(v); err != nil {
		return errors.NewBadRequestError("invalid JSON body: " + err.Error())
	}
	return nil
}

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	respondJSON(w, r, http.StatusOK, map[string]string{"status": "ok"})
}

func (s *Server) handleTraining(w http.ResponseWriter, r *http.Request) {
	respondJSON(w, r, http.StatusOK, s.TrainingService.Overview(r.Context()))
}

func (s *Server) handleTrainingHistory(w http.ResponseWriter, r *http.Request) {
	filter, err := sessionFilterFromQuery(r)
	if err != nil {
		handleError(w, r, err)
		return
	}

	sessions, total, err := s.TrainingService.History(r.Context(), filter)
	if err != nil {
		handleError(w, r, err)
		return
	}
	if sessions == nil {
		sessions = []models.Session{}
	}
	respondJSON(w, r, http.StatusOK, map[string]any{
		"sessions": sessions,
		"total":    total,
	})
}

func sessionFilterFromQuery(r *http.Request) (models.SessionFilter, error) {
	q := r.URL.Query()
	filter := models.SessionFilter{
		ChallengeID: models.ChallengeID(q.Get("type")),
		OrderDir:    q.Get("order"),
	}

	if filter.ChallengeID != "" && !filter.ChallengeID.Valid() {
		return filter, errors.NewValidationError("type", "must be one of memory, spatial, numerical")
	}
	if raw := q.Get("since"); raw != "" {
		since, err := time.Parse(time.RFC3339, raw)
		if err != nil {
			// Bare dates are accepted too.
			since, err = time.Parse("2006-01-02", raw)
		}
		if err != nil {
			return filter, errors.NewValidationError("since", "must be an RFC 3339 timestamp or YYYY-MM-DD date")
		}
		filter.Since = &since
	}
	if raw := q.Get("limit"); raw != "" {
		n, err := strconv.Atoi(raw)
		if err != nil || n < 0 {
			return filter, errors.NewValidationError("limit", "must be a non-negative integer")
		}
		filter.Limit = n
	}
	if raw := q.Get("offset"); raw != "" {
		n, err := strconv.Atoi(raw)
		if err != nil || n < 0 {
			return filter, errors.NewValidationError("offset", "must be a non-negative integer")
		}
		filter.Offset = n
	}
	return filter, nil
}

func (s *Server) handleRecordSession(w http.ResponseWriter, r *http.Request) {
	var payload models.SessionPayload
	if err := decodeJSON(r, &payload); err != nil {
		handleError(w, r, err)
		return
	}

	session, gained, err := s.TrainingService.RecordSession(r.Context(), payload)
	if err != nil {
		handleError(w, r, err)
		return
	}
	respondJSON(w, r, http.StatusCreated, map[string]any{
		"session":  session,
		"gainedXp": gained,
	})
}

type startChallengeRequest struct {
	Type       models.ChallengeID `json:"type"`
	Difficulty string             `json:"difficulty"`
}

func (s *Server) handleStartChallenge(w http.ResponseWriter, r *http.Request) {
	var req startChallengeRequest
	if err := decodeJSON(r, &req); err != nil {
		handleError(w, r, err)
		return
	}

	state, err := s.ChallengeService.StartSession(r.Context(), req.Type, req.Difficulty)
	if err != nil {
		handleError(w, r, err)
		return
	}
	respondJSON(w, r, http.StatusCreated, state)
}

func (s *Server) handleChallengeState(w http.ResponseWriter, r *http.Request) {
	state, err := s.ChallengeService.SessionState(chi.URLParam(r, "id"))
	if err != nil {
		handleError(w, r, err)
		return
	}
	respondJSON(w, r, http.StatusOK, state)
}

func (s *Server) handleSubmitAnswer(w http.ResponseWriter, r *http.Request) {
	var ans challenge.Answer
	if err := decodeJSON(r, &ans); err != nil {
		handleError(w, r, err)
		return
	}

	state, err := s.ChallengeService.SubmitAnswer(chi.URLParam(r, "id"), ans)
	if err != nil {
		handleError(w, r, err)
		return
	}
	respondJSON(w, r, http.StatusOK, state)
}

func (s *Server) handleSkipItem(w http.ResponseWriter, r *http.Request) {
	state, err := s.ChallengeService.SkipItem(chi.URLParam(r, "id"))
	if err != nil {
		handleError(w, r, err)
		return
	}
	respondJSON(w, r, http.StatusOK, state)
}

func (s *Server) handleExitChallenge(w http.ResponseWriter, r *http.Request) {
	report := r.URL.Query().Get("report") == "true"
	if err := s.ChallengeService.ExitSession(chi.URLParam(r, "id"), report); err != nil {
		handleError(w, r, err)
		return
	}
	respondJSON(w, r, http.StatusOK, map[string]string{"status": "exited"})
}
