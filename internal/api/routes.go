package api

import (
	"net/http"

	"github.com/go-chi/chi/v5"
)

func (s *Server) Routes() http.Handler {
	r := chi.NewRouter()
	r.Use(recoveryMiddleware)
	r.Use(loggingMiddleware)
	r.Use(securityHeadersMiddleware)

	r.Get("/healthz", s.handleHealth)
	r.Get("/readyz", s.handleReady)

	r.Route("/api/bkt", func(r chi.Router) {
		r.Post("/update", s.handleUpdateWithAnswer)
		r.Get("/mastery-report/{userID}", s.handleMasteryReport)
		r.Get("/type-summary/{userID}", s.handleTypeSummary)
		r.Get("/weak-types/{userID}", s.handleWeakTypes)
		r.Get("/adaptive-questions/{userID}", s.handleAdaptiveQuestions)
		r.Get("/type-performance/{userID}/{type}", s.handleTypePerformance)
		r.Get("/available-types", s.handleAvailableTypes)
		r.Delete("/reset/{userID}", s.handleReset)
	})

	r.Route("/api/exam", func(r chi.Router) {
		r.Get("/level-test", s.handleLevelTest)
		r.Post("/submit-test", s.handleSubmitTest)
		r.Get("/test-history/{userID}", s.handleTestHistory)
		r.Get("/test-history/{userID}/{recordID}", s.handleTestDetails)
		r.Get("/user-level/{userID}", s.handleUserLevel)
		r.Get("/practice-question", s.handlePracticeQuestion)
		r.Post("/practice-answer", s.handlePracticeAnswer)
		r.Get("/collections", s.handleCollections)
		r.Get("/questions", s.handleListQuestions)
		r.Post("/ingest", s.handleIngest)
	})

	return r
}
