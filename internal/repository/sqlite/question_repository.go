package sqlite

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"

	"github.com/Masterminds/squirrel"

	"github.com/kyuwon/physioprep/internal/logger"
	"github.com/kyuwon/physioprep/internal/models"
	"github.com/kyuwon/physioprep/internal/repository"
)

var sqlBuilder = squirrel.StatementBuilder.PlaceholderFormat(squirrel.Question)

const questionColumns = "id, collection, problem_id, type, difficulty, problem, choices, answer_key, created_at"

type questionRepository struct {
	db *sql.DB
}

// NewQuestionRepository creates a new QuestionRepository implementation
func NewQuestionRepository(db *sql.DB) repository.QuestionRepository {
	return &questionRepository{db: db}
}

func scanQuestion(scan func(...any) error) (models.Question, error) {
	var q models.Question
	var choices string
	if err := scan(&q.ID, &q.Collection, &q.ProblemID, &q.Type, &q.Difficulty, &q.Problem, &choices, &q.AnswerKey, &q.CreatedAt); err != nil {
		return q, err
	}
	if err := json.Unmarshal([]byte(choices), &q.Choices); err != nil {
		return q, err
	}
	return q, nil
}

func (r *questionRepository) Get(ctx context.Context, id int64) (*models.Question, error) {
	log := logger.FromContext(ctx).WithPrefix("question_repo")
	log.Debug("getting question: id=%d", id)

	row := r.db.QueryRowContext(ctx, `SELECT `+questionColumns+` FROM questions WHERE id = ?`, id)
	q, err := scanQuestion(row.Scan)
	if errors.Is(err, sql.ErrNoRows) {
		log.Debug("question not found: id=%d", id)
		return nil, nil
	}
	if err != nil {
		log.Error("failed to get question: %v", err)
		return nil, err
	}
	return &q, nil
}

func (r *questionRepository) GetByIDs(ctx context.Context, ids []int64) ([]models.Question, error) {
	log := logger.FromContext(ctx).WithPrefix("question_repo")
	log.Debug("getting questions: ids=%d", len(ids))

	if len(ids) == 0 {
		return nil, nil
	}

	query := sqlBuilder.Select(questionColumns).From("questions").Where(squirrel.Eq{"id": ids})
	return r.queryQuestions(ctx, query)
}

func (r *questionRepository) List(ctx context.Context, filter models.QuestionFilter) ([]models.Question, error) {
	log := logger.FromContext(ctx).WithPrefix("question_repo")
	log.Debug("listing questions: collection=%s, type=%s, difficulty=%s", filter.Collection, filter.Type, filter.Difficulty)

	query := sqlBuilder.Select(questionColumns).From("questions")
	query = applyFilter(query, filter)
	query = query.OrderBy("id ASC")

	limit := filter.Limit
	if limit <= 0 {
		limit = 200
	}
	offset := filter.Offset
	if offset < 0 {
		offset = 0
	}
	query = query.Limit(uint64(limit)).Offset(uint64(offset))

	return r.queryQuestions(ctx, query)
}

func (r *questionRepository) Count(ctx context.Context, filter models.QuestionFilter) (int, error) {
	log := logger.FromContext(ctx).WithPrefix("question_repo")

	query := sqlBuilder.Select("COUNT(*)").From("questions")
	query = applyFilter(query, filter)

	sqlStr, args, err := query.ToSql()
	if err != nil {
		log.Error("failed to build count query: %v", err)
		return 0, err
	}

	var count int
	if err := r.db.QueryRowContext(ctx, sqlStr, args...).Scan(&count); err != nil {
		log.Error("failed to count questions: %v", err)
		return 0, err
	}
	return count, nil
}

func (r *questionRepository) DistinctTypes(ctx context.Context) ([]string, error) {
	log := logger.FromContext(ctx).WithPrefix("question_repo")
	log.Debug("listing distinct question types")

	rows, err := r.db.QueryContext(ctx, `SELECT DISTINCT type FROM questions ORDER BY type`)
	if err != nil {
		log.Error("failed to query question types: %v", err)
		return nil, err
	}
	defer rows.Close()

	var types []string
	for rows.Next() {
		var t string
		if err := rows.Scan(&t); err != nil {
			log.Error("failed to scan type row: %v", err)
			return nil, err
		}
		types = append(types, t)
	}
	log.Debug("found %d question types", len(types))
	return types, rows.Err()
}

func (r *questionRepository) Collections(ctx context.Context) ([]string, error) {
	log := logger.FromContext(ctx).WithPrefix("question_repo")

	rows, err := r.db.QueryContext(ctx, `SELECT DISTINCT collection FROM questions ORDER BY collection`)
	if err != nil {
		log.Error("failed to query collections: %v", err)
		return nil, err
	}
	defer rows.Close()

	var collections []string
	for rows.Next() {
		var c string
		if err := rows.Scan(&c); err != nil {
			log.Error("failed to scan collection row: %v", err)
			return nil, err
		}
		collections = append(collections, c)
	}
	return collections, rows.Err()
}

func (r *questionRepository) RandomByTypeAndDifficulty(ctx context.Context, collection, qtype, difficulty string, limit int) ([]models.Question, error) {
	log := logger.FromContext(ctx).WithPrefix("question_repo")
	log.Debug("sampling questions: collection=%s, type=%s, difficulty=%s, limit=%d", collection, qtype, difficulty, limit)

	query := sqlBuilder.Select(questionColumns).From("questions").
		Where(squirrel.Eq{"type": qtype, "difficulty": difficulty}).
		OrderBy("RANDOM()").
		Limit(uint64(limit))
	if collection != "" {
		query = query.Where(squirrel.Eq{"collection": collection})
	}
	return r.queryQuestions(ctx, query)
}

func (r *questionRepository) RandomExcludingTypes(ctx context.Context, excluded []string, limit int) ([]models.Question, error) {
	log := logger.FromContext(ctx).WithPrefix("question_repo")
	log.Debug("sampling questions excluding %d types, limit=%d", len(excluded), limit)

	query := sqlBuilder.Select(questionColumns).From("questions").
		OrderBy("RANDOM()").
		Limit(uint64(limit))
	if len(excluded) > 0 {
		query = query.Where(squirrel.NotEq{"type": excluded})
	}
	return r.queryQuestions(ctx, query)
}

func (r *questionRepository) RandomByDifficulty(ctx context.Context, difficulty string, limit int) ([]models.Question, error) {
	log := logger.FromContext(ctx).WithPrefix("question_repo")
	log.Debug("sampling questions: difficulty=%s, limit=%d", difficulty, limit)

	query := sqlBuilder.Select(questionColumns).From("questions").
		Where(squirrel.Eq{"difficulty": difficulty}).
		OrderBy("RANDOM()").
		Limit(uint64(limit))
	return r.queryQuestions(ctx, query)
}

func (r *questionRepository) RandomSample(ctx context.Context, limit int) ([]models.Question, error) {
	log := logger.FromContext(ctx).WithPrefix("question_repo")
	log.Debug("sampling questions: limit=%d", limit)

	query := sqlBuilder.Select(questionColumns).From("questions").
		OrderBy("RANDOM()").
		Limit(uint64(limit))
	return r.queryQuestions(ctx, query)
}

func (r *questionRepository) InsertBatch(ctx context.Context, questions []models.Question) ([]int64, error) {
	log := logger.FromContext(ctx).WithPrefix("question_repo")
	log.Debug("inserting question batch: count=%d", len(questions))

	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		log.Error("failed to begin transaction: %v", err)
		return nil, err
	}
	defer tx.Rollback()

	stmt, err := tx.PrepareContext(ctx, `
INSERT INTO questions (collection, problem_id, type, difficulty, problem, choices, answer_key)
VALUES (?, ?, ?, ?, ?, ?, ?)
`)
	if err != nil {
		log.Error("failed to prepare insert: %v", err)
		return nil, err
	}
	defer stmt.Close()

	ids := make([]int64, 0, len(questions))
	for _, q := range questions {
		choices, err := json.Marshal(q.Choices)
		if err != nil {
			return nil, err
		}
		res, err := stmt.ExecContext(ctx, q.Collection, q.ProblemID, q.Type, q.Difficulty, q.Problem, string(choices), q.AnswerKey)
		if err != nil {
			log.Error("failed to insert question: %v", err)
			return nil, err
		}
		id, err := res.LastInsertId()
		if err != nil {
			return nil, err
		}
		ids = append(ids, id)
	}

	if err := tx.Commit(); err != nil {
		log.Error("failed to commit question batch: %v", err)
		return nil, err
	}
	log.Debug("question batch inserted: count=%d", len(ids))
	return ids, nil
}

func applyFilter(query squirrel.SelectBuilder, filter models.QuestionFilter) squirrel.SelectBuilder {
	if filter.Collection != "" {
		query = query.Where(squirrel.Eq{"collection": filter.Collection})
	}
	if filter.Type != "" {
		query = query.Where(squirrel.Eq{"type": filter.Type})
	}
	if filter.Difficulty != "" {
		query = query.Where(squirrel.Eq{"difficulty": filter.Difficulty})
	}
	return query
}

func (r *questionRepository) queryQuestions(ctx context.Context, query squirrel.SelectBuilder) ([]models.Question, error) {
	log := logger.FromContext(ctx).WithPrefix("question_repo")

	sqlStr, args, err := query.ToSql()
	if err != nil {
		log.Error("failed to build query: %v", err)
		return nil, err
	}

	rows, err := r.db.QueryContext(ctx, sqlStr, args...)
	if err != nil {
		log.Error("failed to query questions: %v", err)
		return nil, err
	}
	defer rows.Close()

	var questions []models.Question
	for rows.Next() {
		q, err := scanQuestion(rows.Scan)
		if err != nil {
			log.Error("failed to scan question row: %v", err)
			return nil, err
		}
		questions = append(questions, q)
	}
	return questions, rows.Err()
}
