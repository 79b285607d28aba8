package worker

import (
	"context"
	"fmt"

	"github.com/kyuwon/physioprep/internal/logger"
	"github.com/kyuwon/physioprep/internal/models"
	"github.com/kyuwon/physioprep/internal/repository"
)

// IngestQuestionBankJob persists a batch of extracted questions into a
// collection. Extraction already happened in the request handler; this job
// only does the storage work.
type IngestQuestionBankJob struct {
	Questions  repository.QuestionRepository
	Collection string
	Batch      []models.Question
}

func (j *IngestQuestionBankJob) Name() string {
	return fmt.Sprintf("ingest-question-bank[%s]", j.Collection)
}

func (j *IngestQuestionBankJob) Run(ctx context.Context) error {
	log := logger.FromContext(ctx)

	for i := range j.Batch {
		j.Batch[i].Collection = j.Collection
	}

	ids, err := j.Questions.InsertBatch(ctx, j.Batch)
	if err != nil {
		return fmt.Errorf("insert question batch: %w", err)
	}
	log.Info("ingested %d questions into collection %s", len(ids), j.Collection)
	return nil
}
