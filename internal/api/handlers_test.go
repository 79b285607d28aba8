package api_test

import (
	"bytes"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"github.com/kyuwon/physioprep/internal/api"
	apperrors "github.com/kyuwon/physioprep/internal/errors"
	"github.com/kyuwon/physioprep/internal/models"
	"github.com/kyuwon/physioprep/internal/testutil/mocks"
)

func newTestServer() (*api.Server, *mocks.MockMasteryService, *mocks.MockQuestionRepository) {
	mastery := new(mocks.MockMasteryService)
	questions := new(mocks.MockQuestionRepository)
	return &api.Server{Mastery: mastery, Questions: questions}, mastery, questions
}

func TestHandleUpdateWithAnswer(t *testing.T) {
	srv, mastery, _ := newTestServer()

	mastery.On("UpdateWithAnswer", mock.Anything, "student1",
		models.QuestionInfo{Type: "gait_analysis", Difficulty: "easy"}, true).
		Return(&models.UpdateResult{
			Type:           "gait_analysis",
			Difficulty:     "easy",
			UpdatedMastery: 0.5886,
			AttemptsInType: 1,
		}, nil)

	body, _ := json.Marshal(map[string]any{
		"user_id":       "student1",
		"question_data": map[string]string{"type": "gait_analysis", "difficulty": "easy"},
		"is_correct":    true,
	})
	req := httptest.NewRequest(http.MethodPost, "/api/bkt/update", bytes.NewReader(body))
	rec := httptest.NewRecorder()

	srv.Routes().ServeHTTP(rec, req)

	require.Equal(t, http.StatusOK, rec.Code)
	var result models.UpdateResult
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &result))
	assert.Equal(t, "gait_analysis", result.Type)
	assert.InDelta(t, 0.5886, result.UpdatedMastery, 1e-9)
}

func TestHandleUpdateWithAnswer_InvalidBody(t *testing.T) {
	srv, _, _ := newTestServer()

	req := httptest.NewRequest(http.MethodPost, "/api/bkt/update", bytes.NewReader([]byte("not json")))
	rec := httptest.NewRecorder()

	srv.Routes().ServeHTTP(rec, req)

	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestHandleWeakTypes_InvalidThreshold(t *testing.T) {
	srv, _, _ := newTestServer()

	req := httptest.NewRequest(http.MethodGet, "/api/bkt/weak-types/student1?threshold=2", nil)
	rec := httptest.NewRecorder()

	srv.Routes().ServeHTTP(rec, req)

	assert.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Contains(t, rec.Body.String(), "VALIDATION_ERROR")
}

func TestHandleWeakTypes(t *testing.T) {
	srv, mastery, _ := newTestServer()

	mastery.On("WeakTypes", mock.Anything, "student1", 0.5).Return([]models.WeakType{
		{Type: "orthopedics", Mastery: 0.3, Attempts: 6},
	}, nil)

	req := httptest.NewRequest(http.MethodGet, "/api/bkt/weak-types/student1?threshold=0.5", nil)
	rec := httptest.NewRecorder()

	srv.Routes().ServeHTTP(rec, req)

	require.Equal(t, http.StatusOK, rec.Code)
	var payload struct {
		WeakTypes []models.WeakType `json:"weak_types"`
	}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &payload))
	require.Len(t, payload.WeakTypes, 1)
	assert.Equal(t, "orthopedics", payload.WeakTypes[0].Type)
}

func TestHandleTypePerformance_NotFound(t *testing.T) {
	srv, mastery, _ := newTestServer()

	mastery.On("TypePerformance", mock.Anything, "student1", "nonexistent").
		Return(nil, apperrors.NewNotFoundError("question type", "nonexistent"))

	req := httptest.NewRequest(http.MethodGet, "/api/bkt/type-performance/student1/nonexistent", nil)
	rec := httptest.NewRecorder()

	srv.Routes().ServeHTTP(rec, req)

	assert.Equal(t, http.StatusNotFound, rec.Code)
	assert.Contains(t, rec.Body.String(), "NOT_FOUND")
}

func TestHandleReset_MissingRecord(t *testing.T) {
	srv, mastery, _ := newTestServer()

	mastery.On("Reset", mock.Anything, "ghost").Return(false, nil)

	req := httptest.NewRequest(http.MethodDelete, "/api/bkt/reset/ghost", nil)
	rec := httptest.NewRecorder()

	srv.Routes().ServeHTTP(rec, req)

	assert.Equal(t, http.StatusNotFound, rec.Code)
}

func TestHandleAvailableTypes_EmptyCorpus(t *testing.T) {
	srv, mastery, _ := newTestServer()

	mastery.On("AvailableTypes", mock.Anything).Return([]string{}, nil)

	req := httptest.NewRequest(http.MethodGet, "/api/bkt/available-types", nil)
	rec := httptest.NewRecorder()

	srv.Routes().ServeHTTP(rec, req)

	require.Equal(t, http.StatusOK, rec.Code)
	assert.JSONEq(t, `{"types":[]}`, rec.Body.String())
}

func TestHandleListQuestions(t *testing.T) {
	srv, _, questions := newTestServer()

	questions.On("List", mock.Anything, models.QuestionFilter{Collection: "diagnosis_test", Limit: 5}).
		Return([]models.Question{{ID: 1, Collection: "diagnosis_test"}}, nil)
	questions.On("Count", mock.Anything, models.QuestionFilter{Collection: "diagnosis_test", Limit: 5}).
		Return(12, nil)

	req := httptest.NewRequest(http.MethodGet, "/api/exam/questions?collection=diagnosis_test&limit=5", nil)
	rec := httptest.NewRecorder()

	srv.Routes().ServeHTTP(rec, req)

	require.Equal(t, http.StatusOK, rec.Code)
	var payload struct {
		Questions []models.Question `json:"questions"`
		Total     int               `json:"total"`
	}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &payload))
	assert.Len(t, payload.Questions, 1)
	assert.Equal(t, 12, payload.Total)
}

func TestHealthz(t *testing.T) {
	srv, _, _ := newTestServer()

	req := httptest.NewRequest(http.MethodGet, "/healthz", nil)
	rec := httptest.NewRecorder()

	srv.Routes().ServeHTTP(rec, req)

	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "OK", rec.Body.String())
}
