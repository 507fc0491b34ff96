package repository

import (
	"context"
	"fmt"

	"github.com/google/uuid"
	"github.com/iexsys/iexsys-backend/internal/model"
	"github.com/jackc/pgx/v5/pgxpool"
)

// PaperRepository handles paper and paper-question data access.
type PaperRepository struct {
	pool *pgxpool.Pool
}

// NewPaperRepository creates a new PaperRepository.
func NewPaperRepository(pool *pgxpool.Pool) *PaperRepository {
	return &PaperRepository{pool: pool}
}

// GetByID retrieves a paper by id.
func (r *PaperRepository) GetByID(ctx context.Context, id uuid.UUID) (*model.Paper, error) {
	p := &model.Paper{}
	err := r.pool.QueryRow(ctx,
		`SELECT id, name, creator_id, total_score, draft, created_at, updated_at
		 FROM papers WHERE id = $1`, id,
	).Scan(&p.ID, &p.Name, &p.CreatorID, &p.TotalScore, &p.Draft, &p.CreatedAt, &p.UpdatedAt)
	if err != nil {
		return nil, err
	}
	return p, nil
}

// Create inserts a new paper with no entries.
func (r *PaperRepository) Create(ctx context.Context, p *model.Paper) error {
	return r.pool.QueryRow(ctx,
		`INSERT INTO papers (name, creator_id, total_score, draft)
		 VALUES ($1, $2, 0, $3)
		 RETURNING id, total_score, created_at, updated_at`,
		p.Name, p.CreatorID, p.Draft,
	).Scan(&p.ID, &p.TotalScore, &p.CreatedAt, &p.UpdatedAt)
}

// ListByCreator retrieves all papers authored by one teacher.
func (r *PaperRepository) ListByCreator(ctx context.Context, creatorID int) ([]model.Paper, error) {
	rows, err := r.pool.Query(ctx,
		`SELECT id, name, creator_id, total_score, draft, created_at, updated_at
		 FROM papers WHERE creator_id = $1
		 ORDER BY created_at DESC`, creatorID,
	)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var papers []model.Paper
	for rows.Next() {
		var p model.Paper
		if err := rows.Scan(&p.ID, &p.Name, &p.CreatorID, &p.TotalScore, &p.Draft, &p.CreatedAt, &p.UpdatedAt); err != nil {
			return nil, err
		}
		papers = append(papers, p)
	}
	return papers, rows.Err()
}

// ListEntries retrieves a paper's entries ordered by sequence number.
func (r *PaperRepository) ListEntries(ctx context.Context, paperID uuid.UUID) ([]model.PaperQuestionEntry, error) {
	rows, err := r.pool.Query(ctx,
		`SELECT paper_id, question_id, score, sequence_num
		 FROM paper_questions WHERE paper_id = $1
		 ORDER BY sequence_num`, paperID,
	)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var entries []model.PaperQuestionEntry
	for rows.Next() {
		var e model.PaperQuestionEntry
		if err := rows.Scan(&e.PaperID, &e.QuestionID, &e.Score, &e.SequenceNum); err != nil {
			return nil, err
		}
		entries = append(entries, e)
	}
	return entries, rows.Err()
}

// ReplaceEntries atomically replaces a paper's entire entry set and updates its
// total score (and draft flag when provided). Delete-then-insert in a single
// transaction: a failure leaves the previous entries untouched.
func (r *PaperRepository) ReplaceEntries(ctx context.Context, paperID uuid.UUID, entries []model.PaperQuestionEntry, totalScore float64, draft *bool) error {
	tx, err := r.pool.Begin(ctx)
	if err != nil {
		return fmt.Errorf("begin: %w", err)
	}
	defer tx.Rollback(ctx)

	if _, err := tx.Exec(ctx, `DELETE FROM paper_questions WHERE paper_id = $1`, paperID); err != nil {
		return fmt.Errorf("delete entries: %w", err)
	}

	// Bulk insert via UNNEST keeps this one round trip regardless of size.
	n := len(entries)
	questionIDs := make([]uuid.UUID, 0, n)
	scores := make([]float64, 0, n)
	sequences := make([]int, 0, n)
	for _, e := range entries {
		questionIDs = append(questionIDs, e.QuestionID)
		scores = append(scores, e.Score)
		sequences = append(sequences, e.SequenceNum)
	}

	if _, err := tx.Exec(ctx,
		`INSERT INTO paper_questions (paper_id, question_id, score, sequence_num)
		 SELECT $1, u.question_id, u.score, u.sequence_num
		 FROM UNNEST($2::uuid[], $3::float8[], $4::int[]) AS u (question_id, score, sequence_num)`,
		paperID, questionIDs, scores, sequences,
	); err != nil {
		return fmt.Errorf("insert entries: %w", err)
	}

	if draft != nil {
		_, err = tx.Exec(ctx,
			`UPDATE papers SET total_score = $1, draft = $2, updated_at = NOW() WHERE id = $3`,
			totalScore, *draft, paperID)
	} else {
		_, err = tx.Exec(ctx,
			`UPDATE papers SET total_score = $1, updated_at = NOW() WHERE id = $2`,
			totalScore, paperID)
	}
	if err != nil {
		return fmt.Errorf("update paper: %w", err)
	}

	return tx.Commit(ctx)
}
