package services_test

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"github.com/kyuwon/physioprep/internal/models"
	"github.com/kyuwon/physioprep/internal/services"
	"github.com/kyuwon/physioprep/internal/testutil/mocks"
)

func newAdaptiveService() (services.AdaptiveService, *mocks.MockMasteryService, *mocks.MockQuestionRepository) {
	mastery := new(mocks.MockMasteryService)
	questions := new(mocks.MockQuestionRepository)
	return services.NewAdaptiveService(mastery, questions), mastery, questions
}

// A user with zero weak types falls back to a balanced random sample, each
// entry tagged as fallback.
func TestAdaptiveQuestions_FallbackWhenNoWeakTypes(t *testing.T) {
	svc, mastery, questions := newAdaptiveService()

	mastery.On("WeakTypes", mock.Anything, "student1", 0.0).Return([]models.WeakType{}, nil)
	questions.On("RandomSample", mock.Anything, 5).Return([]models.Question{
		{ID: 1, Type: "a", Difficulty: "easy"},
		{ID: 2, Type: "b", Difficulty: "medium"},
		{ID: 3, Type: "c", Difficulty: "hard"},
	}, nil)

	selected, err := svc.AdaptiveQuestions(context.Background(), "student1", 5)
	require.NoError(t, err)

	// Corpus smaller than n: fewer than n come back.
	require.Len(t, selected, 3)
	for _, rec := range selected {
		assert.Contains(t, rec.Reason, "balanced random sample")
	}
}

func TestAdaptiveQuestions_TargetsWeakTypes(t *testing.T) {
	svc, mastery, questions := newAdaptiveService()

	mastery.On("WeakTypes", mock.Anything, "student1", 0.0).Return([]models.WeakType{
		{Type: "orthopedics", Mastery: 0.25, Attempts: 6},
	}, nil)
	questions.On("Collections", mock.Anything).Return([]string{"diagnosis_test"}, nil)
	// Mastery below 0.3 targets easy material.
	questions.On("RandomByTypeAndDifficulty", mock.Anything, "diagnosis_test", "orthopedics", "easy", 3).Return([]models.Question{
		{ID: 10, Type: "orthopedics", Difficulty: "easy"},
		{ID: 11, Type: "orthopedics", Difficulty: "easy"},
	}, nil)
	questions.On("RandomExcludingTypes", mock.Anything, []string{"orthopedics"}, 1).Return([]models.Question{
		{ID: 20, Type: "neurology", Difficulty: "medium"},
	}, nil)

	selected, err := svc.AdaptiveQuestions(context.Background(), "student1", 3)
	require.NoError(t, err)
	require.Len(t, selected, 3)

	var weakCount, backfillCount int
	for _, rec := range selected {
		switch rec.Type {
		case "orthopedics":
			weakCount++
			assert.InDelta(t, 0.25, rec.CurrentMastery, 1e-9)
			assert.Contains(t, rec.Reason, "weak type")
		default:
			backfillCount++
			assert.Contains(t, rec.Reason, "broadening coverage")
		}
	}
	assert.Equal(t, 2, weakCount)
	assert.Equal(t, 1, backfillCount)
}

func TestAdaptiveQuestions_MediumBandTargetsMedium(t *testing.T) {
	svc, mastery, questions := newAdaptiveService()

	mastery.On("WeakTypes", mock.Anything, "student1", 0.0).Return([]models.WeakType{
		{Type: "neurology", Mastery: 0.45, Attempts: 8},
	}, nil)
	questions.On("Collections", mock.Anything).Return([]string{"c1"}, nil)
	questions.On("RandomByTypeAndDifficulty", mock.Anything, "c1", "neurology", "medium", 3).Return([]models.Question{
		{ID: 1, Type: "neurology", Difficulty: "medium"},
		{ID: 2, Type: "neurology", Difficulty: "medium"},
	}, nil)

	selected, err := svc.AdaptiveQuestions(context.Background(), "student1", 2)
	require.NoError(t, err)
	assert.Len(t, selected, 2)
	questions.AssertNotCalled(t, "RandomExcludingTypes", mock.Anything, mock.Anything, mock.Anything)
}

func TestAdaptiveQuestions_CapsAtN(t *testing.T) {
	svc, mastery, questions := newAdaptiveService()

	mastery.On("WeakTypes", mock.Anything, "student1", 0.0).Return([]models.WeakType{
		{Type: "a", Mastery: 0.55, Attempts: 6},
	}, nil)
	questions.On("Collections", mock.Anything).Return([]string{"c1"}, nil)
	questions.On("RandomByTypeAndDifficulty", mock.Anything, "c1", "a", "hard", 3).Return([]models.Question{
		{ID: 1, Type: "a", Difficulty: "hard"},
		{ID: 2, Type: "a", Difficulty: "hard"},
		{ID: 3, Type: "a", Difficulty: "hard"},
	}, nil)

	selected, err := svc.AdaptiveQuestions(context.Background(), "student1", 2)
	require.NoError(t, err)
	assert.Len(t, selected, 2)
}

func TestAdaptiveQuestions_OnlyTopThreeWeakTypesTargeted(t *testing.T) {
	svc, mastery, questions := newAdaptiveService()

	mastery.On("WeakTypes", mock.Anything, "student1", 0.0).Return([]models.WeakType{
		{Type: "w1", Mastery: 0.1, Attempts: 6},
		{Type: "w2", Mastery: 0.2, Attempts: 6},
		{Type: "w3", Mastery: 0.25, Attempts: 6},
		{Type: "w4", Mastery: 0.3, Attempts: 6},
	}, nil)
	questions.On("Collections", mock.Anything).Return([]string{"c1"}, nil)
	for _, w := range []string{"w1", "w2", "w3"} {
		questions.On("RandomByTypeAndDifficulty", mock.Anything, "c1", w, "easy", 3).Return([]models.Question{
			{ID: 1, Type: w, Difficulty: "easy"},
		}, nil)
	}
	questions.On("RandomExcludingTypes", mock.Anything, []string{"w1", "w2", "w3"}, 7).Return([]models.Question{}, nil)

	selected, err := svc.AdaptiveQuestions(context.Background(), "student1", 10)
	require.NoError(t, err)
	assert.Len(t, selected, 3)
	questions.AssertNotCalled(t, "RandomByTypeAndDifficulty", mock.Anything, "c1", "w4", mock.Anything, mock.Anything)
}
