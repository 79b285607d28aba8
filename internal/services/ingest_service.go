package services

import (
	"context"
	"sort"
	"strings"

	"github.com/kyuwon/physioprep/internal/errors"
	"github.com/kyuwon/physioprep/internal/extraction"
	"github.com/kyuwon/physioprep/internal/logger"
	"github.com/kyuwon/physioprep/internal/models"
	"github.com/kyuwon/physioprep/internal/repository"
	"github.com/kyuwon/physioprep/internal/worker"
)

// IngestService turns uploaded exam PDFs into stored questions. Extraction
// runs synchronously against the external service; the storage write is
// queued on the worker pool.
type IngestService interface {
	IngestQuestionBank(ctx context.Context, collection, questionsFile string, questionsPDF []byte, answersFile string, answersPDF []byte) (int, error)
}

type ingestService struct {
	extractor extraction.ClientInterface
	questions repository.QuestionRepository
	pool      *worker.Pool
}

// NewIngestService creates a new IngestService
func NewIngestService(extractor extraction.ClientInterface, questions repository.QuestionRepository, pool *worker.Pool) IngestService {
	return &ingestService{extractor: extractor, questions: questions, pool: pool}
}

func (s *ingestService) IngestQuestionBank(ctx context.Context, collection, questionsFile string, questionsPDF []byte, answersFile string, answersPDF []byte) (int, error) {
	log := logger.FromContext(ctx)

	collection = strings.TrimSpace(collection)
	if collection == "" {
		return 0, errors.NewValidationError("collection", "cannot be empty")
	}
	if len(questionsPDF) == 0 {
		return 0, errors.NewValidationError("questions_pdf", "cannot be empty")
	}
	if len(answersPDF) == 0 {
		return 0, errors.NewValidationError("answers_pdf", "cannot be empty")
	}

	parsed, err := s.extractor.ParseQuestions(ctx, questionsFile, questionsPDF)
	if err != nil {
		return 0, errors.NewInternalError(err)
	}
	answers, err := s.extractor.ParseAnswerKeys(ctx, answersFile, answersPDF)
	if err != nil {
		return 0, errors.NewInternalError(err)
	}

	batch := MergeExtracted(parsed, answers)
	if len(batch) == 0 {
		return 0, errors.NewValidationError("questions_pdf", "no questions with matching answer keys extracted")
	}

	job := &worker.IngestQuestionBankJob{
		Questions:  s.questions,
		Collection: collection,
		Batch:      batch,
	}
	if err := s.pool.TrySubmit(job); err != nil {
		return 0, errors.NewInternalError(err)
	}

	log.Info("queued %d questions for collection %s", len(batch), collection)
	return len(batch), nil
}

// MergeExtracted joins extracted questions with their answer keys by problem
// number. Questions without a matching answer key are dropped.
func MergeExtracted(questions []extraction.ParsedQuestion, answers []extraction.ParsedAnswer) []models.Question {
	keys := make(map[int]int, len(answers))
	for _, a := range answers {
		keys[a.ProblemID] = a.AnswerKey
	}

	var merged []models.Question
	for _, q := range questions {
		key, ok := keys[q.ProblemID]
		if !ok {
			continue
		}
		merged = append(merged, models.Question{
			ProblemID:  q.ProblemID,
			Type:       strings.TrimSpace(q.Type),
			Difficulty: q.Difficulty,
			Problem:    q.Problem,
			Choices:    q.Choices,
			AnswerKey:  key,
		})
	}
	sort.Slice(merged, func(i, j int) bool { return merged[i].ProblemID < merged[j].ProblemID })
	return merged
}
