package api

import (
	"net/http"

	"github.com/go-chi/chi/v5"
)

func (s *Server) Routes() http.Handler {
	r := chi.NewRouter()
	r.Use(recoveryMiddleware)
	r.Use(loggingMiddleware)

	r.Get("/healthz", s.handleHealth)

	r.Route("/api/v1", func(r chi.Router) {
		r.Get("/training", s.handleTraining)
		r.Get("/training/history", s.handleTrainingHistory)
		r.Post("/training/sessions", s.handleRecordSession)

		r.Post("/challenges/sessions", s.handleStartChallenge)
		r.Get("/challenges/sessions/{id}", s.handleChallengeState)
		r.Post("/challenges/sessions/{id}/answer", s.handleSubmitAnswer)
		r.Post("/challenges/sessions/{id}/skip", s.handleSkipItem)
		r.Post("/challenges/sessions/{id}/exit", s.handleExitChallenge)
	})

	return r
}
