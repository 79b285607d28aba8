package sqlite

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"

	"github.com/kyuwon/physioprep/internal/logger"
	"github.com/kyuwon/physioprep/internal/models"
	"github.com/kyuwon/physioprep/internal/repository"
)

type examRepository struct {
	db *sql.DB
}

// NewExamRepository creates a new ExamRepository implementation
func NewExamRepository(db *sql.DB) repository.ExamRepository {
	return &examRepository{db: db}
}

func (r *examRepository) InsertTestRecord(ctx context.Context, record models.TestRecord) (int64, error) {
	log := logger.FromContext(ctx).WithPrefix("exam_repo")
	log.Debug("inserting test record: user_id=%s, score=%d", record.UserID, record.TotalScore)

	details, err := json.Marshal(record.Details)
	if err != nil {
		log.Error("failed to encode test details: %v", err)
		return 0, err
	}

	res, err := r.db.ExecContext(ctx, `
INSERT INTO test_records (user_id, test_type, total_score, level, combined_score, correct_count, total_questions, details)
VALUES (?, ?, ?, ?, ?, ?, ?, ?)
`, record.UserID, record.TestType, record.TotalScore, record.Level, record.CombinedScore, record.CorrectCount, record.TotalQuestions, string(details))
	if err != nil {
		log.Error("failed to insert test record: %v", err)
		return 0, err
	}
	id, err := res.LastInsertId()
	if err != nil {
		log.Error("failed to get test record id: %v", err)
		return 0, err
	}
	log.Debug("test record inserted: id=%d", id)
	return id, nil
}

func (r *examRepository) TestRecords(ctx context.Context, userID string, limit int) ([]models.TestRecord, error) {
	log := logger.FromContext(ctx).WithPrefix("exam_repo")
	log.Debug("listing test records: user_id=%s, limit=%d", userID, limit)

	if limit <= 0 {
		limit = 10
	}
	rows, err := r.db.QueryContext(ctx, `
SELECT id, user_id, test_type, total_score, level, combined_score, correct_count, total_questions, details, created_at
FROM test_records
WHERE user_id = ?
ORDER BY created_at DESC, id DESC
LIMIT ?
`, userID, limit)
	if err != nil {
		log.Error("failed to query test records: %v", err)
		return nil, err
	}
	defer rows.Close()

	var records []models.TestRecord
	for rows.Next() {
		var rec models.TestRecord
		var details string
		if err := rows.Scan(&rec.ID, &rec.UserID, &rec.TestType, &rec.TotalScore, &rec.Level, &rec.CombinedScore, &rec.CorrectCount, &rec.TotalQuestions, &details, &rec.CreatedAt); err != nil {
			log.Error("failed to scan test record row: %v", err)
			return nil, err
		}
		if err := json.Unmarshal([]byte(details), &rec.Details); err != nil {
			log.Error("failed to decode test details: %v", err)
			return nil, err
		}
		records = append(records, rec)
	}
	log.Debug("found %d test records", len(records))
	return records, rows.Err()
}

func (r *examRepository) TrimTestRecords(ctx context.Context, userID string, keep int) error {
	log := logger.FromContext(ctx).WithPrefix("exam_repo")
	log.Debug("trimming test records: user_id=%s, keep=%d", userID, keep)

	_, err := r.db.ExecContext(ctx, `
DELETE FROM test_records
WHERE user_id = ?
AND id NOT IN (
    SELECT id FROM test_records
    WHERE user_id = ?
    ORDER BY created_at DESC, id DESC
    LIMIT ?
)
`, userID, userID, keep)
	if err != nil {
		log.Error("failed to trim test records: %v", err)
	}
	return err
}

func (r *examRepository) UpsertUserLevel(ctx context.Context, level models.UserLevel) error {
	log := logger.FromContext(ctx).WithPrefix("exam_repo")
	log.Debug("upserting user level: user_id=%s, level=%s", level.UserID, level.Level)

	_, err := r.db.ExecContext(ctx, `
INSERT INTO user_levels (user_id, level, test_score, combined_score, updated_at)
VALUES (?, ?, ?, ?, CURRENT_TIMESTAMP)
ON CONFLICT (user_id) DO UPDATE SET
    level = excluded.level,
    test_score = excluded.test_score,
    combined_score = excluded.combined_score,
    updated_at = CURRENT_TIMESTAMP
`, level.UserID, level.Level, level.TestScore, level.CombinedScore)
	if err != nil {
		log.Error("failed to upsert user level: %v", err)
	}
	return err
}

func (r *examRepository) GetUserLevel(ctx context.Context, userID string) (*models.UserLevel, error) {
	log := logger.FromContext(ctx).WithPrefix("exam_repo")
	log.Debug("getting user level: user_id=%s", userID)

	var lvl models.UserLevel
	err := r.db.QueryRowContext(ctx, `
SELECT user_id, level, test_score, combined_score, updated_at
FROM user_levels
WHERE user_id = ?
`, userID).Scan(&lvl.UserID, &lvl.Level, &lvl.TestScore, &lvl.CombinedScore, &lvl.UpdatedAt)
	if errors.Is(err, sql.ErrNoRows) {
		log.Debug("user level not found: user_id=%s", userID)
		return nil, nil
	}
	if err != nil {
		log.Error("failed to get user level: %v", err)
		return nil, err
	}
	return &lvl, nil
}
