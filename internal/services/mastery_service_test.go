package services_test

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	apperrors "github.com/kyuwon/physioprep/internal/errors"
	"github.com/kyuwon/physioprep/internal/models"
	"github.com/kyuwon/physioprep/internal/services"
	"github.com/kyuwon/physioprep/internal/testutil/mocks"
)

func newMasteryService() (services.MasteryService, *mocks.MockMasteryRepository, *mocks.MockQuestionRepository) {
	masteryRepo := new(mocks.MockMasteryRepository)
	questionRepo := new(mocks.MockQuestionRepository)
	return services.NewMasteryService(masteryRepo, questionRepo), masteryRepo, questionRepo
}

func recordWithType(userID, qtype string, mastery float64, attempts, correct int) *models.MasteryRecord {
	now := time.Now().UTC()
	return &models.MasteryRecord{
		UserID: userID,
		TypeMastery: map[string]*models.TypeMastery{
			qtype: {
				MasteryProbability:    mastery,
				TotalAttempts:         attempts,
				CorrectAnswers:        correct,
				LastUpdated:           now,
				DifficultyPerformance: map[string]*models.DifficultyPerformance{},
			},
		},
		TotalAttempts:  attempts,
		TotalCorrect:   correct,
		OverallMastery: mastery,
		CreatedAt:      now,
		UpdatedAt:      now,
	}
}

func TestGetOrCreate_SeedsKnownTypes(t *testing.T) {
	svc, masteryRepo, questionRepo := newMasteryService()

	masteryRepo.On("Get", mock.Anything, "student1").Return(nil, nil)
	questionRepo.On("DistinctTypes", mock.Anything).Return([]string{"gait_analysis", "  orthopedics ", ""}, nil)
	masteryRepo.On("Upsert", mock.Anything, mock.Anything).Return(nil)

	record, err := svc.GetOrCreate(context.Background(), "student1")
	require.NoError(t, err)

	assert.Equal(t, "student1", record.UserID)
	assert.Len(t, record.TypeMastery, 2)
	assert.Contains(t, record.TypeMastery, "gait_analysis")
	assert.Contains(t, record.TypeMastery, "orthopedics")
	assert.InDelta(t, 0.4, record.TypeMastery["gait_analysis"].MasteryProbability, 1e-9)
	assert.InDelta(t, 0.4, record.OverallMastery, 1e-9)
	masteryRepo.AssertExpectations(t)
}

func TestGetOrCreate_ReturnsExisting(t *testing.T) {
	svc, masteryRepo, _ := newMasteryService()
	existing := recordWithType("student1", "gait_analysis", 0.7, 6, 5)

	masteryRepo.On("Get", mock.Anything, "student1").Return(existing, nil)

	record, err := svc.GetOrCreate(context.Background(), "student1")
	require.NoError(t, err)
	assert.Same(t, existing, record)
	masteryRepo.AssertNotCalled(t, "Upsert", mock.Anything, mock.Anything)
}

// New user answers an easy question correctly. The type is unseen, so it
// seeds at the easy prior 0.20 and the update lands on 0.5886.
func TestUpdateWithAnswer_NewUserFirstAnswer(t *testing.T) {
	svc, masteryRepo, questionRepo := newMasteryService()

	masteryRepo.On("Get", mock.Anything, "student1").Return(nil, nil)
	questionRepo.On("DistinctTypes", mock.Anything).Return([]string{}, nil)
	masteryRepo.On("Upsert", mock.Anything, mock.Anything).Return(nil)

	result, err := svc.UpdateWithAnswer(context.Background(), "student1",
		models.QuestionInfo{Type: "gait_analysis", Difficulty: "easy"}, true)
	require.NoError(t, err)

	assert.Equal(t, "gait_analysis", result.Type)
	assert.Equal(t, "easy", result.Difficulty)
	assert.InDelta(t, 0.20, result.PreviousMastery, 1e-9)
	assert.InDelta(t, 0.5886, result.UpdatedMastery, 0.0001)
	assert.Equal(t, 1, result.AttemptsInType)
	assert.InDelta(t, 0.5886, result.OverallMastery, 0.0001)
}

func TestUpdateWithAnswer_BlankTypeUsesGeneralSentinel(t *testing.T) {
	svc, masteryRepo, _ := newMasteryService()
	record := recordWithType("student1", "gait_analysis", 0.5, 2, 1)

	masteryRepo.On("Get", mock.Anything, "student1").Return(record, nil)
	masteryRepo.On("Upsert", mock.Anything, mock.Anything).Return(nil)

	result, err := svc.UpdateWithAnswer(context.Background(), "student1",
		models.QuestionInfo{Type: "   ", Difficulty: "medium"}, true)
	require.NoError(t, err)

	assert.Equal(t, "general", result.Type)
	assert.Contains(t, record.TypeMastery, "general")
	// Seeded at the medium prior before the update.
	assert.InDelta(t, 0.15, result.PreviousMastery, 1e-9)
}

func TestUpdateWithAnswer_UnknownDifficultyDefaultsToMedium(t *testing.T) {
	svc, masteryRepo, _ := newMasteryService()
	record := recordWithType("student1", "gait_analysis", 0.5, 2, 1)

	masteryRepo.On("Get", mock.Anything, "student1").Return(record, nil)
	masteryRepo.On("Upsert", mock.Anything, mock.Anything).Return(nil)

	result, err := svc.UpdateWithAnswer(context.Background(), "student1",
		models.QuestionInfo{Type: "gait_analysis", Difficulty: "impossible"}, false)
	require.NoError(t, err)
	assert.Equal(t, "medium", result.Difficulty)
}

func TestUpdateWithAnswer_CountersMonotone(t *testing.T) {
	svc, masteryRepo, _ := newMasteryService()
	record := recordWithType("student1", "gait_analysis", 0.5, 2, 1)

	masteryRepo.On("Get", mock.Anything, "student1").Return(record, nil)
	masteryRepo.On("Upsert", mock.Anything, mock.Anything).Return(nil)

	_, err := svc.UpdateWithAnswer(context.Background(), "student1",
		models.QuestionInfo{Type: "gait_analysis", Difficulty: "easy"}, true)
	require.NoError(t, err)
	_, err = svc.UpdateWithAnswer(context.Background(), "student1",
		models.QuestionInfo{Type: "gait_analysis", Difficulty: "easy"}, false)
	require.NoError(t, err)

	tm := record.TypeMastery["gait_analysis"]
	assert.Equal(t, 4, tm.TotalAttempts)
	assert.Equal(t, 2, tm.CorrectAnswers)
	assert.Equal(t, 4, record.TotalAttempts)
	assert.Equal(t, 2, record.TotalCorrect)

	dp := tm.DifficultyPerformance["easy"]
	require.NotNil(t, dp)
	assert.Equal(t, 2, dp.Attempts)
	assert.Equal(t, 1, dp.Correct)
}

func TestUpdateWithAnswer_EmptyUserID(t *testing.T) {
	svc, _, _ := newMasteryService()

	_, err := svc.UpdateWithAnswer(context.Background(), "",
		models.QuestionInfo{Type: "gait_analysis", Difficulty: "easy"}, true)

	var appErr *apperrors.AppError
	require.ErrorAs(t, err, &appErr)
	assert.Equal(t, apperrors.ErrCodeValidation, appErr.Code)
}

func TestUpdateWithAnswer_StorageErrorPropagates(t *testing.T) {
	svc, masteryRepo, _ := newMasteryService()

	masteryRepo.On("Get", mock.Anything, "student1").Return(nil, assert.AnError)

	_, err := svc.UpdateWithAnswer(context.Background(), "student1",
		models.QuestionInfo{Type: "gait_analysis", Difficulty: "easy"}, true)

	var appErr *apperrors.AppError
	require.ErrorAs(t, err, &appErr)
	assert.Equal(t, apperrors.ErrCodeStorage, appErr.Code)
}

// A type with 4 attempts never reports as weak; a 5th attempt makes it
// eligible.
func TestWeakTypes_ReliabilityFloor(t *testing.T) {
	svc, masteryRepo, _ := newMasteryService()
	record := recordWithType("student1", "X", 0.3, 4, 1)

	masteryRepo.On("Get", mock.Anything, "student1").Return(record, nil).Once()

	weak, err := svc.WeakTypes(context.Background(), "student1", 0.6)
	require.NoError(t, err)
	assert.Empty(t, weak)

	record.TypeMastery["X"].TotalAttempts = 5
	masteryRepo.On("Get", mock.Anything, "student1").Return(record, nil).Once()

	weak, err = svc.WeakTypes(context.Background(), "student1", 0.6)
	require.NoError(t, err)
	require.Len(t, weak, 1)
	assert.Equal(t, "X", weak[0].Type)
	assert.InDelta(t, 0.3, weak[0].Mastery, 1e-9)
	assert.Equal(t, "medium", weak[0].ConfidenceLevel)
}

func TestWeakTypes_SortedWeakestFirst(t *testing.T) {
	svc, masteryRepo, _ := newMasteryService()
	record := recordWithType("student1", "a", 0.5, 6, 3)
	record.TypeMastery["b"] = &models.TypeMastery{MasteryProbability: 0.2, TotalAttempts: 7, CorrectAnswers: 1}
	record.TypeMastery["c"] = &models.TypeMastery{MasteryProbability: 0.35, TotalAttempts: 9, CorrectAnswers: 3}

	masteryRepo.On("Get", mock.Anything, "student1").Return(record, nil)

	weak, err := svc.WeakTypes(context.Background(), "student1", 0.6)
	require.NoError(t, err)
	require.Len(t, weak, 3)
	assert.Equal(t, "b", weak[0].Type)
	assert.Equal(t, "c", weak[1].Type)
	assert.Equal(t, "a", weak[2].Type)
}

func TestWeakTypes_MissingUserIsEmpty(t *testing.T) {
	svc, masteryRepo, _ := newMasteryService()
	masteryRepo.On("Get", mock.Anything, "ghost").Return(nil, nil)

	weak, err := svc.WeakTypes(context.Background(), "ghost", 0.6)
	require.NoError(t, err)
	assert.Empty(t, weak)
}

// A user whose record exists but has no tested types gets a zeroed report
// carrying the stored overall mastery.
func TestMasteryReport_NoTestedTypes(t *testing.T) {
	svc, masteryRepo, _ := newMasteryService()
	record := recordWithType("student1", "gait_analysis", 0.4, 0, 0)
	record.TypeMastery["orthopedics"] = &models.TypeMastery{MasteryProbability: 0.4}
	record.OverallMastery = 0.4

	masteryRepo.On("Get", mock.Anything, "student1").Return(record, nil)

	report, err := svc.MasteryReport(context.Background(), "student1")
	require.NoError(t, err)

	assert.InDelta(t, 0.4, report.OverallMastery, 1e-9)
	assert.Equal(t, 0, report.TotalTypesTracked)
	assert.Empty(t, report.StrongTypes)
	assert.Empty(t, report.WeakTypes)
	assert.Equal(t, 0.0, report.ReliabilitySummary.ReliabilityPercentage)
}

func TestMasteryReport_MissingUserIsZeroed(t *testing.T) {
	svc, masteryRepo, _ := newMasteryService()
	masteryRepo.On("Get", mock.Anything, "ghost").Return(nil, nil)

	report, err := svc.MasteryReport(context.Background(), "ghost")
	require.NoError(t, err)
	assert.Equal(t, "ghost", report.UserID)
	assert.InDelta(t, 0.4, report.OverallMastery, 1e-9)
	assert.Equal(t, 0, report.TotalTypesTracked)
}

func TestMasteryReport_ReliableAggregation(t *testing.T) {
	svc, masteryRepo, _ := newMasteryService()
	record := recordWithType("student1", "a", 0.8, 10, 8)
	record.TypeMastery["b"] = &models.TypeMastery{MasteryProbability: 0.4, TotalAttempts: 5, CorrectAnswers: 2}
	record.TypeMastery["c"] = &models.TypeMastery{MasteryProbability: 0.9, TotalAttempts: 2, CorrectAnswers: 2}
	record.TotalAttempts = 17
	record.TotalCorrect = 12

	masteryRepo.On("Get", mock.Anything, "student1").Return(record, nil)

	report, err := svc.MasteryReport(context.Background(), "student1")
	require.NoError(t, err)

	// Only the reliable types a and b drive the overall estimate.
	assert.InDelta(t, (0.8*10+0.4*5)/15, report.OverallMastery, 1e-9)
	assert.Equal(t, 3, report.TotalTypesTracked)
	assert.Equal(t, 2, report.ReliableTypesCount)
	assert.Equal(t, 1, report.UnreliableTypesCount)

	require.Len(t, report.StrongTypes, 1)
	assert.Equal(t, "a", report.StrongTypes[0].Type)
	require.Len(t, report.WeakTypes, 1)
	assert.Equal(t, "b", report.WeakTypes[0].Type)

	// High mastery on 2 attempts is not mastered.
	assert.Equal(t, "learning", report.TypeAnalysis["c"].Level)
	assert.InDelta(t, 100.0*2/3, report.ReliabilitySummary.ReliabilityPercentage, 1e-9)
}

func TestMasteryReport_CapsRankedListsAtFive(t *testing.T) {
	svc, masteryRepo, _ := newMasteryService()
	record := recordWithType("student1", "t0", 0.2, 6, 1)
	for i := 1; i < 7; i++ {
		record.TypeMastery[string(rune('a'+i))] = &models.TypeMastery{
			MasteryProbability: 0.2 + float64(i)*0.01,
			TotalAttempts:      6,
			CorrectAnswers:     1,
		}
	}

	masteryRepo.On("Get", mock.Anything, "student1").Return(record, nil)

	report, err := svc.MasteryReport(context.Background(), "student1")
	require.NoError(t, err)
	assert.Len(t, report.WeakTypes, 5)
	assert.Equal(t, "t0", report.WeakTypes[0].Type)
}

func TestTypeSummary(t *testing.T) {
	svc, masteryRepo, _ := newMasteryService()
	record := recordWithType("student1", "mastered", 0.85, 10, 9)
	record.TypeMastery["learning"] = &models.TypeMastery{MasteryProbability: 0.5, TotalAttempts: 4, CorrectAnswers: 2}
	record.TypeMastery["weak"] = &models.TypeMastery{MasteryProbability: 0.2, TotalAttempts: 6, CorrectAnswers: 1}
	record.TypeMastery["untested"] = &models.TypeMastery{MasteryProbability: 0.4}
	record.OverallMastery = 0.55

	masteryRepo.On("Get", mock.Anything, "student1").Return(record, nil)

	summary, err := svc.TypeSummary(context.Background(), "student1")
	require.NoError(t, err)

	assert.Equal(t, 3, summary.TotalTypes)
	assert.Equal(t, 1, summary.MasteredTypes)
	assert.Equal(t, 1, summary.LearningTypes)
	assert.Equal(t, 1, summary.WeakTypes)
	assert.InDelta(t, 0.55, summary.OverallMastery, 1e-9)
}

func TestTypePerformance(t *testing.T) {
	svc, masteryRepo, _ := newMasteryService()
	record := recordWithType("student1", "gait_analysis", 0.6, 5, 4)

	masteryRepo.On("Get", mock.Anything, "student1").Return(record, nil)

	perf, err := svc.TypePerformance(context.Background(), "student1", "gait_analysis")
	require.NoError(t, err)
	assert.Equal(t, "gait_analysis", perf.Type)
	assert.InDelta(t, 0.8, perf.Accuracy, 1e-9)
}

func TestTypePerformance_UnknownType(t *testing.T) {
	svc, masteryRepo, _ := newMasteryService()
	record := recordWithType("student1", "gait_analysis", 0.6, 5, 4)

	masteryRepo.On("Get", mock.Anything, "student1").Return(record, nil)

	_, err := svc.TypePerformance(context.Background(), "student1", "nonexistent")
	var appErr *apperrors.AppError
	require.ErrorAs(t, err, &appErr)
	assert.Equal(t, apperrors.ErrCodeNotFound, appErr.Code)
}

func TestReset(t *testing.T) {
	svc, masteryRepo, _ := newMasteryService()
	masteryRepo.On("Delete", mock.Anything, "student1").Return(true, nil)

	deleted, err := svc.Reset(context.Background(), "student1")
	require.NoError(t, err)
	assert.True(t, deleted)
}

func TestAvailableTypes_TrimsAndSkipsBlank(t *testing.T) {
	svc, _, questionRepo := newMasteryService()
	questionRepo.On("DistinctTypes", mock.Anything).Return([]string{" gait_analysis ", "", "orthopedics"}, nil)

	types, err := svc.AvailableTypes(context.Background())
	require.NoError(t, err)
	assert.Equal(t, []string{"gait_analysis", "orthopedics"}, types)
}
