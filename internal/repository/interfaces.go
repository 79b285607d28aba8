package repository

import (
	"context"

	"github.com/kyuwon/physioprep/internal/models"
)

// MasteryRepository handles per-user knowledge-state persistence. Records are
// stored and rewritten as whole documents keyed by user ID.
type MasteryRepository interface {
	// Get returns the record for a user, or (nil, nil) when none exists.
	Get(ctx context.Context, userID string) (*models.MasteryRecord, error)
	Upsert(ctx context.Context, record *models.MasteryRecord) error
	// Delete reports whether a record existed.
	Delete(ctx context.Context, userID string) (bool, error)
}

// QuestionRepository handles question corpus access.
type QuestionRepository interface {
	Get(ctx context.Context, id int64) (*models.Question, error)
	GetByIDs(ctx context.Context, ids []int64) ([]models.Question, error)
	List(ctx context.Context, filter models.QuestionFilter) ([]models.Question, error)
	Count(ctx context.Context, filter models.QuestionFilter) (int, error)
	// DistinctTypes returns the current question-type vocabulary across the
	// whole corpus.
	DistinctTypes(ctx context.Context) ([]string, error)
	Collections(ctx context.Context) ([]string, error)
	// RandomByTypeAndDifficulty samples up to limit questions matching the
	// type and difficulty. An empty collection means any collection.
	RandomByTypeAndDifficulty(ctx context.Context, collection, qtype, difficulty string, limit int) ([]models.Question, error)
	// RandomExcludingTypes samples up to limit questions whose type is not in
	// the excluded set.
	RandomExcludingTypes(ctx context.Context, excluded []string, limit int) ([]models.Question, error)
	// RandomByDifficulty samples up to limit questions from one tier.
	RandomByDifficulty(ctx context.Context, difficulty string, limit int) ([]models.Question, error)
	// RandomSample draws up to limit questions from the whole corpus.
	RandomSample(ctx context.Context, limit int) ([]models.Question, error)
	InsertBatch(ctx context.Context, questions []models.Question) ([]int64, error)
}

// ExamRepository handles stored test outcomes and level placements.
type ExamRepository interface {
	InsertTestRecord(ctx context.Context, record models.TestRecord) (int64, error)
	TestRecords(ctx context.Context, userID string, limit int) ([]models.TestRecord, error)
	// TrimTestRecords deletes all but the newest keep records for a user.
	TrimTestRecords(ctx context.Context, userID string, keep int) error
	UpsertUserLevel(ctx context.Context, level models.UserLevel) error
	// GetUserLevel returns (nil, nil) when the user has no placement yet.
	GetUserLevel(ctx context.Context, userID string) (*models.UserLevel, error)
}
