package sqlite

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"time"

	"github.com/kyuwon/physioprep/internal/logger"
	"github.com/kyuwon/physioprep/internal/models"
	"github.com/kyuwon/physioprep/internal/repository"
)

type masteryRepository struct {
	db *sql.DB
}

// NewMasteryRepository creates a new MasteryRepository implementation
func NewMasteryRepository(db *sql.DB) repository.MasteryRepository {
	return &masteryRepository{db: db}
}

func (r *masteryRepository) Get(ctx context.Context, userID string) (*models.MasteryRecord, error) {
	log := logger.FromContext(ctx).WithPrefix("mastery_repo")
	log.Debug("getting mastery record: user_id=%s", userID)

	var doc string
	err := r.db.QueryRowContext(ctx, `
SELECT record FROM mastery_records WHERE user_id = ?
`, userID).Scan(&doc)
	if errors.Is(err, sql.ErrNoRows) {
		log.Debug("mastery record not found: user_id=%s", userID)
		return nil, nil
	}
	if err != nil {
		log.Error("failed to get mastery record: %v", err)
		return nil, err
	}

	var record models.MasteryRecord
	if err := json.Unmarshal([]byte(doc), &record); err != nil {
		log.Error("failed to decode mastery record: %v", err)
		return nil, err
	}
	log.Debug("mastery record found: user_id=%s, types=%d", userID, len(record.TypeMastery))
	return &record, nil
}

func (r *masteryRepository) Upsert(ctx context.Context, record *models.MasteryRecord) error {
	log := logger.FromContext(ctx).WithPrefix("mastery_repo")
	log.Debug("upserting mastery record: user_id=%s, attempts=%d", record.UserID, record.TotalAttempts)

	doc, err := json.Marshal(record)
	if err != nil {
		log.Error("failed to encode mastery record: %v", err)
		return err
	}

	_, err = r.db.ExecContext(ctx, `
INSERT INTO mastery_records (user_id, record, created_at, updated_at)
VALUES (?, ?, ?, ?)
ON CONFLICT (user_id) DO UPDATE SET record = excluded.record, updated_at = excluded.updated_at
`, record.UserID, string(doc), record.CreatedAt, time.Now().UTC())
	if err != nil {
		log.Error("failed to upsert mastery record: %v", err)
	}
	return err
}

func (r *masteryRepository) Delete(ctx context.Context, userID string) (bool, error) {
	log := logger.FromContext(ctx).WithPrefix("mastery_repo")
	log.Debug("deleting mastery record: user_id=%s", userID)

	res, err := r.db.ExecContext(ctx, `DELETE FROM mastery_records WHERE user_id = ?`, userID)
	if err != nil {
		log.Error("failed to delete mastery record: %v", err)
		return false, err
	}
	n, err := res.RowsAffected()
	if err != nil {
		return false, err
	}
	return n > 0, nil
}
