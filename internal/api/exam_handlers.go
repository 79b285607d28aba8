package api

import (
	"io"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"

	"github.com/kyuwon/physioprep/internal/errors"
	"github.com/kyuwon/physioprep/internal/models"
)

const maxUploadBytes = 32 << 20

func (s *Server) handleLevelTest(w http.ResponseWriter, r *http.Request) {
	test, err := s.Exam.LevelTest(r.Context())
	if err != nil {
		handleError(w, r, err)
		return
	}
	respondJSON(w, r, http.StatusOK, test)
}

func (s *Server) handleSubmitTest(w http.ResponseWriter, r *http.Request) {
	var submission models.TestSubmission
	if err := decodeJSON(r, &submission); err != nil {
		handleError(w, r, err)
		return
	}

	result, err := s.Exam.SubmitTest(r.Context(), submission)
	if err != nil {
		handleError(w, r, err)
		return
	}
	respondJSON(w, r, http.StatusOK, result)
}

func (s *Server) handleTestHistory(w http.ResponseWriter, r *http.Request) {
	records, err := s.Exam.TestHistory(r.Context(), chi.URLParam(r, "userID"))
	if err != nil {
		handleError(w, r, err)
		return
	}
	if records == nil {
		records = []models.TestRecord{}
	}
	respondJSON(w, r, http.StatusOK, map[string]any{"history": records})
}

func (s *Server) handleTestDetails(w http.ResponseWriter, r *http.Request) {
	recordID, err := strconv.ParseInt(chi.URLParam(r, "recordID"), 10, 64)
	if err != nil {
		handleError(w, r, errors.NewValidationError("recordID", "must be an integer"))
		return
	}

	record, err := s.Exam.TestDetails(r.Context(), chi.URLParam(r, "userID"), recordID)
	if err != nil {
		handleError(w, r, err)
		return
	}
	respondJSON(w, r, http.StatusOK, record)
}

func (s *Server) handleUserLevel(w http.ResponseWriter, r *http.Request) {
	level, err := s.Exam.UserLevel(r.Context(), chi.URLParam(r, "userID"))
	if err != nil {
		handleError(w, r, err)
		return
	}
	respondJSON(w, r, http.StatusOK, level)
}

func (s *Server) handlePracticeQuestion(w http.ResponseWriter, r *http.Request) {
	question, err := s.Exam.PracticeQuestion(r.Context(), r.URL.Query().Get("difficulty"))
	if err != nil {
		handleError(w, r, err)
		return
	}
	respondJSON(w, r, http.StatusOK, question)
}

type practiceAnswerRequest struct {
	UserID     string `json:"user_id"`
	QuestionID int64  `json:"question_id"`
	Answer     int    `json:"answer"`
}

func (s *Server) handlePracticeAnswer(w http.ResponseWriter, r *http.Request) {
	var req practiceAnswerRequest
	if err := decodeJSON(r, &req); err != nil {
		handleError(w, r, err)
		return
	}

	result, err := s.Exam.SubmitPracticeAnswer(r.Context(), req.UserID, req.QuestionID, req.Answer)
	if err != nil {
		handleError(w, r, err)
		return
	}
	respondJSON(w, r, http.StatusOK, result)
}

func (s *Server) handleCollections(w http.ResponseWriter, r *http.Request) {
	collections, err := s.Questions.Collections(r.Context())
	if err != nil {
		handleError(w, r, errors.NewStorageError("list collections", err))
		return
	}
	if collections == nil {
		collections = []string{}
	}
	respondJSON(w, r, http.StatusOK, map[string]any{"collections": collections})
}

func (s *Server) handleListQuestions(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	filter := models.QuestionFilter{
		Collection: q.Get("collection"),
		Type:       q.Get("type"),
		Difficulty: q.Get("difficulty"),
	}
	if raw := q.Get("limit"); raw != "" {
		parsed, err := strconv.Atoi(raw)
		if err != nil || parsed <= 0 {
			handleError(w, r, errors.NewValidationError("limit", "must be a positive integer"))
			return
		}
		filter.Limit = parsed
	}
	if raw := q.Get("offset"); raw != "" {
		parsed, err := strconv.Atoi(raw)
		if err != nil || parsed < 0 {
			handleError(w, r, errors.NewValidationError("offset", "must be a non-negative integer"))
			return
		}
		filter.Offset = parsed
	}

	questions, err := s.Questions.List(r.Context(), filter)
	if err != nil {
		handleError(w, r, errors.NewStorageError("list questions", err))
		return
	}
	total, err := s.Questions.Count(r.Context(), filter)
	if err != nil {
		handleError(w, r, errors.NewStorageError("count questions", err))
		return
	}
	if questions == nil {
		questions = []models.Question{}
	}
	respondJSON(w, r, http.StatusOK, map[string]any{"questions": questions, "total": total})
}

func (s *Server) handleIngest(w http.ResponseWriter, r *http.Request) {
	if err := r.ParseMultipartForm(maxUploadBytes); err != nil {
		handleError(w, r, errors.NewBadRequestError("invalid multipart form"))
		return
	}

	collection := r.FormValue("collection")

	questionsFile, questionsHeader, err := r.FormFile("questions_pdf")
	if err != nil {
		handleError(w, r, errors.NewValidationError("questions_pdf", "file is required"))
		return
	}
	defer questionsFile.Close()

	answersFile, answersHeader, err := r.FormFile("answers_pdf")
	if err != nil {
		handleError(w, r, errors.NewValidationError("answers_pdf", "file is required"))
		return
	}
	defer answersFile.Close()

	questionsPDF, err := io.ReadAll(questionsFile)
	if err != nil {
		handleError(w, r, errors.NewBadRequestError("failed to read questions_pdf"))
		return
	}
	answersPDF, err := io.ReadAll(answersFile)
	if err != nil {
		handleError(w, r, errors.NewBadRequestError("failed to read answers_pdf"))
		return
	}

	queued, err := s.Ingest.IngestQuestionBank(r.Context(), collection,
		questionsHeader.Filename, questionsPDF, answersHeader.Filename, answersPDF)
	if err != nil {
		handleError(w, r, err)
		return
	}
	respondJSON(w, r, http.StatusAccepted, map[string]any{"queued": queued, "collection": collection})
}
