package repository

import (
	"context"
	"fmt"

	"github.com/google/uuid"
	"github.com/iexsys/iexsys-backend/internal/model"
	"github.com/jackc/pgx/v5/pgxpool"
)

// QuestionRepository handles question data access. The exam room and paper
// assembly services only read through it — questions are mutated exclusively
// by the authoring endpoints.
type QuestionRepository struct {
	pool *pgxpool.Pool
}

// NewQuestionRepository creates a new QuestionRepository.
func NewQuestionRepository(pool *pgxpool.Pool) *QuestionRepository {
	return &QuestionRepository{pool: pool}
}

// GetByID retrieves a question by id, tags included.
func (r *QuestionRepository) GetByID(ctx context.Context, id uuid.UUID) (*model.Question, error) {
	q := &model.Question{}
	err := r.pool.QueryRow(ctx,
		`SELECT id, type, title, options, correct_answer, analysis, score, difficulty, creator_id, created_at, updated_at
		 FROM questions WHERE id = $1`, id,
	).Scan(&q.ID, &q.Type, &q.Title, &q.Options, &q.CorrectAnswer, &q.Analysis, &q.Score, &q.Difficulty, &q.CreatorID, &q.CreatedAt, &q.UpdatedAt)
	if err != nil {
		return nil, err
	}

	tagIDs, err := r.listTagIDs(ctx, id)
	if err != nil {
		return nil, err
	}
	q.TagIDs = tagIDs
	return q, nil
}

// ListByType retrieves questions of the given type. A limit <= 0 means no limit;
// the assembler passes 0 so it can shuffle the full candidate pool itself.
func (r *QuestionRepository) ListByType(ctx context.Context, qt model.QuestionType, limit int) ([]model.Question, error) {
	rows, err := r.pool.Query(ctx,
		`SELECT id, type, title, options, correct_answer, analysis, score, difficulty, creator_id, created_at, updated_at
		 FROM questions WHERE type = $1
		 ORDER BY created_at
		 LIMIT NULLIF($2, 0)`, qt, limit,
	)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	return scanQuestions(rows)
}

// List retrieves questions with pagination and an optional type filter.
func (r *QuestionRepository) List(ctx context.Context, qt *model.QuestionType, limit, offset int) ([]model.Question, int, error) {
	where := ""
	args := []any{}
	if qt != nil {
		args = append(args, *qt)
		where = fmt.Sprintf(" WHERE type = $%d", len(args))
	}

	var total int
	if err := r.pool.QueryRow(ctx, "SELECT COUNT(*) FROM questions"+where, args...).Scan(&total); err != nil {
		return nil, 0, err
	}

	query := `SELECT id, type, title, options, correct_answer, analysis, score, difficulty, creator_id, created_at, updated_at
		 FROM questions` + where + fmt.Sprintf(` ORDER BY created_at DESC LIMIT $%d OFFSET $%d`, len(args)+1, len(args)+2)
	args = append(args, limit, offset)

	rows, err := r.pool.Query(ctx, query, args...)
	if err != nil {
		return nil, 0, err
	}
	defer rows.Close()

	questions, err := scanQuestions(rows)
	if err != nil {
		return nil, 0, err
	}
	return questions, total, nil
}

// Create inserts a question and its tag links in one transaction.
func (r *QuestionRepository) Create(ctx context.Context, q *model.Question) error {
	tx, err := r.pool.Begin(ctx)
	if err != nil {
		return fmt.Errorf("begin: %w", err)
	}
	defer tx.Rollback(ctx)

	err = tx.QueryRow(ctx,
		`INSERT INTO questions (type, title, options, correct_answer, analysis, score, difficulty, creator_id)
		 VALUES ($1, $2, $3, $4, $5, $6, $7, $8)
		 RETURNING id, created_at, updated_at`,
		q.Type, q.Title, q.Options, q.CorrectAnswer, q.Analysis, q.Score, q.Difficulty, q.CreatorID,
	).Scan(&q.ID, &q.CreatedAt, &q.UpdatedAt)
	if err != nil {
		return err
	}

	for _, tagID := range q.TagIDs {
		if _, err := tx.Exec(ctx,
			`INSERT INTO question_tags (question_id, tag_id) VALUES ($1, $2)`,
			q.ID, tagID,
		); err != nil {
			return err
		}
	}

	return tx.Commit(ctx)
}

// Update modifies a question and replaces its tag links.
func (r *QuestionRepository) Update(ctx context.Context, q *model.Question) error {
	tx, err := r.pool.Begin(ctx)
	if err != nil {
		return fmt.Errorf("begin: %w", err)
	}
	defer tx.Rollback(ctx)

	tag, err := tx.Exec(ctx,
		`UPDATE questions
		 SET title = $1, options = $2, correct_answer = $3, analysis = $4, score = $5, difficulty = $6, updated_at = NOW()
		 WHERE id = $7`,
		q.Title, q.Options, q.CorrectAnswer, q.Analysis, q.Score, q.Difficulty, q.ID)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return ErrNoRowsAffected
	}

	if _, err := tx.Exec(ctx, `DELETE FROM question_tags WHERE question_id = $1`, q.ID); err != nil {
		return err
	}
	for _, tagID := range q.TagIDs {
		if _, err := tx.Exec(ctx,
			`INSERT INTO question_tags (question_id, tag_id) VALUES ($1, $2)`,
			q.ID, tagID,
		); err != nil {
			return err
		}
	}

	return tx.Commit(ctx)
}

// Delete removes a question. Fails if the question is referenced by a paper
// (restricted by FK).
func (r *QuestionRepository) Delete(ctx context.Context, id uuid.UUID) error {
	tag, err := r.pool.Exec(ctx, `DELETE FROM questions WHERE id = $1`, id)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return ErrNoRowsAffected
	}
	return nil
}

func (r *QuestionRepository) listTagIDs(ctx context.Context, questionID uuid.UUID) ([]int, error) {
	rows, err := r.pool.Query(ctx,
		`SELECT tag_id FROM question_tags WHERE question_id = $1 ORDER BY tag_id`, questionID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var ids []int
	for rows.Next() {
		var id int
		if err := rows.Scan(&id); err != nil {
			return nil, err
		}
		ids = append(ids, id)
	}
	return ids, rows.Err()
}
