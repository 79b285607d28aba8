package services

import (
	"context"

	"github.com/kyuwon/physioprep/internal/bkt"
	"github.com/kyuwon/physioprep/internal/errors"
	"github.com/kyuwon/physioprep/internal/grading"
	"github.com/kyuwon/physioprep/internal/logger"
	"github.com/kyuwon/physioprep/internal/models"
	"github.com/kyuwon/physioprep/internal/repository"
)

// ExamService handles level tests, practice questions, and test history.
type ExamService interface {
	LevelTest(ctx context.Context) (*models.LevelTest, error)
	SubmitTest(ctx context.Context, submission models.TestSubmission) (*models.TestResult, error)
	TestHistory(ctx context.Context, userID string) ([]models.TestRecord, error)
	TestDetails(ctx context.Context, userID string, recordID int64) (*models.TestRecord, error)
	UserLevel(ctx context.Context, userID string) (*models.UserLevel, error)
	PracticeQuestion(ctx context.Context, difficulty string) (*models.Question, error)
	SubmitPracticeAnswer(ctx context.Context, userID string, questionID int64, answer int) (*models.PracticeResult, error)
}

type examService struct {
	questions repository.QuestionRepository
	exams     repository.ExamRepository
	mastery   MasteryService

	perTier      int
	historyLimit int
}

// NewExamService creates a new ExamService
func NewExamService(questions repository.QuestionRepository, exams repository.ExamRepository, mastery MasteryService, perTier, historyLimit int) ExamService {
	return &examService{
		questions:    questions,
		exams:        exams,
		mastery:      mastery,
		perTier:      perTier,
		historyLimit: historyLimit,
	}
}

func (s *examService) LevelTest(ctx context.Context) (*models.LevelTest, error) {
	log := logger.FromContext(ctx)

	test := &models.LevelTest{Questions: []models.Question{}}
	for _, tier := range []bkt.Difficulty{bkt.Easy, bkt.Medium, bkt.Hard} {
		questions, err := s.questions.RandomByDifficulty(ctx, string(tier), s.perTier)
		if err != nil {
			return nil, errors.NewStorageError("sample level test questions", err)
		}
		switch tier {
		case bkt.Easy:
			test.Info.EasyQuestions = len(questions)
		case bkt.Medium:
			test.Info.MediumQuestions = len(questions)
		case bkt.Hard:
			test.Info.HardQuestions = len(questions)
		}
		test.Questions = append(test.Questions, questions...)
	}
	test.Info.TotalQuestions = len(test.Questions)

	if test.Info.TotalQuestions == 0 {
		return nil, errors.NewNotFoundError("level test questions", "question corpus is empty")
	}

	log.Debug("assembled level test: total=%d (easy=%d, medium=%d, hard=%d)",
		test.Info.TotalQuestions, test.Info.EasyQuestions, test.Info.MediumQuestions, test.Info.HardQuestions)
	return test, nil
}

func (s *examService) SubmitTest(ctx context.Context, submission models.TestSubmission) (*models.TestResult, error) {
	log := logger.FromContext(ctx)

	if submission.UserID == "" {
		return nil, errors.NewValidationError("user_id", "cannot be empty")
	}
	if len(submission.Answers) == 0 {
		return nil, errors.NewValidationError("answers", "cannot be empty")
	}

	ids := make([]int64, 0, len(submission.Answers))
	for id := range submission.Answers {
		ids = append(ids, id)
	}
	questions, err := s.questions.GetByIDs(ctx, ids)
	if err != nil {
		return nil, errors.NewStorageError("load submitted questions", err)
	}
	if len(questions) == 0 {
		return nil, errors.NewNotFoundError("questions", "no submitted question ids exist")
	}

	score, results := grading.Grade(questions, submission.Answers)

	// Knowledge tracking is best-effort relative to scoring: one failed
	// update never fails the submission.
	for _, q := range questions {
		_, err := s.mastery.UpdateWithAnswer(ctx, submission.UserID,
			models.QuestionInfo{Type: q.Type, Difficulty: q.Difficulty},
			submission.Answers[q.ID] == q.AnswerKey)
		if err != nil {
			log.Warn("knowledge update failed for question %d: %v", q.ID, err)
		}
	}

	overall := bkt.DefaultInitialMastery
	if record, err := s.mastery.GetOrCreate(ctx, submission.UserID); err != nil {
		log.Warn("failed to load mastery for level adjustment: %v", err)
	} else {
		overall = record.OverallMastery
	}
	combined, level := grading.CombinedScore(float64(score), overall)

	record := models.TestRecord{
		UserID:         submission.UserID,
		TestType:       "level_test",
		TotalScore:     score,
		Level:          level,
		CombinedScore:  combined,
		CorrectCount:   countCorrect(results),
		TotalQuestions: len(results),
		Details:        results,
	}
	if _, err := s.exams.InsertTestRecord(ctx, record); err != nil {
		return nil, errors.NewStorageError("save test record", err)
	}
	if err := s.exams.TrimTestRecords(ctx, submission.UserID, s.historyLimit); err != nil {
		return nil, errors.NewStorageError("trim test history", err)
	}
	if err := s.exams.UpsertUserLevel(ctx, models.UserLevel{
		UserID:        submission.UserID,
		Level:         level,
		TestScore:     score,
		CombinedScore: combined,
	}); err != nil {
		return nil, errors.NewStorageError("save user level", err)
	}

	log.Info("test submitted: user_id=%s, score=%d, level=%s", submission.UserID, score, level)

	return &models.TestResult{
		Score:          score,
		Level:          level,
		CombinedScore:  combined,
		CorrectCount:   record.CorrectCount,
		TotalQuestions: record.TotalQuestions,
		Results:        results,
	}, nil
}

func (s *examService) TestHistory(ctx context.Context, userID string) ([]models.TestRecord, error) {
	records, err := s.exams.TestRecords(ctx, userID, s.historyLimit)
	if err != nil {
		return nil, errors.NewStorageError("list test records", err)
	}
	return records, nil
}

func (s *examService) TestDetails(ctx context.Context, userID string, recordID int64) (*models.TestRecord, error) {
	records, err := s.exams.TestRecords(ctx, userID, s.historyLimit)
	if err != nil {
		return nil, errors.NewStorageError("list test records", err)
	}
	for i := range records {
		if records[i].ID == recordID {
			return &records[i], nil
		}
	}
	return nil, errors.NewNotFoundError("test record", recordID)
}

func (s *examService) UserLevel(ctx context.Context, userID string) (*models.UserLevel, error) {
	level, err := s.exams.GetUserLevel(ctx, userID)
	if err != nil {
		return nil, errors.NewStorageError("get user level", err)
	}
	if level == nil {
		return nil, errors.NewNotFoundError("user level", userID)
	}
	return level, nil
}

func (s *examService) PracticeQuestion(ctx context.Context, difficulty string) (*models.Question, error) {
	tier := bkt.ParseDifficulty(difficulty)
	questions, err := s.questions.RandomByDifficulty(ctx, string(tier), 1)
	if err != nil {
		return nil, errors.NewStorageError("sample practice question", err)
	}
	if len(questions) == 0 {
		return nil, errors.NewNotFoundError("practice question", string(tier))
	}
	return &questions[0], nil
}

func (s *examService) SubmitPracticeAnswer(ctx context.Context, userID string, questionID int64, answer int) (*models.PracticeResult, error) {
	log := logger.FromContext(ctx)

	if userID == "" {
		return nil, errors.NewValidationError("user_id", "cannot be empty")
	}

	question, err := s.questions.Get(ctx, questionID)
	if err != nil {
		return nil, errors.NewStorageError("get question", err)
	}
	if question == nil {
		return nil, errors.NewNotFoundError("question", questionID)
	}

	result := &models.PracticeResult{
		QuestionID:    questionID,
		IsCorrect:     answer == question.AnswerKey,
		CorrectAnswer: question.AnswerKey,
		StudentAnswer: answer,
	}

	update, err := s.mastery.UpdateWithAnswer(ctx, userID,
		models.QuestionInfo{Type: question.Type, Difficulty: question.Difficulty}, result.IsCorrect)
	if err != nil {
		log.Warn("knowledge update failed for practice answer: %v", err)
	} else {
		result.KnowledgeUpdate = update
	}
	return result, nil
}

func countCorrect(results []models.QuestionResult) int {
	var n int
	for _, r := range results {
		if r.IsCorrect {
			n++
		}
	}
	return n
}
