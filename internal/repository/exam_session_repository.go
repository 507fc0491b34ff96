package repository

import (
	"context"
	"fmt"

	"github.com/google/uuid"
	"github.com/iexsys/iexsys-backend/internal/model"
	"github.com/jackc/pgx/v5/pgxpool"
)

// ExamSessionRepository handles exam session ("exam room") and answer record
// data access.
type ExamSessionRepository struct {
	pool *pgxpool.Pool
}

// NewExamSessionRepository creates a new ExamSessionRepository.
func NewExamSessionRepository(pool *pgxpool.Pool) *ExamSessionRepository {
	return &ExamSessionRepository{pool: pool}
}

const sessionColumns = `id, paper_id, student_id, status, started_at, submitted_at, final_score, created_at`

// GetByID retrieves a session by id.
func (r *ExamSessionRepository) GetByID(ctx context.Context, id uuid.UUID) (*model.ExamSession, error) {
	s := &model.ExamSession{}
	err := r.pool.QueryRow(ctx,
		`SELECT `+sessionColumns+` FROM exam_sessions WHERE id = $1`, id,
	).Scan(&s.ID, &s.PaperID, &s.StudentID, &s.Status, &s.StartedAt, &s.SubmittedAt, &s.FinalScore, &s.CreatedAt)
	if err != nil {
		return nil, err
	}
	return s, nil
}

// GetByPaperAndStudent retrieves the session for a specific paper-student pair.
func (r *ExamSessionRepository) GetByPaperAndStudent(ctx context.Context, paperID uuid.UUID, studentID int) (*model.ExamSession, error) {
	s := &model.ExamSession{}
	err := r.pool.QueryRow(ctx,
		`SELECT `+sessionColumns+` FROM exam_sessions
		 WHERE paper_id = $1 AND student_id = $2`, paperID, studentID,
	).Scan(&s.ID, &s.PaperID, &s.StudentID, &s.Status, &s.StartedAt, &s.SubmittedAt, &s.FinalScore, &s.CreatedAt)
	if err != nil {
		return nil, err
	}
	return s, nil
}

// Create inserts a new session in NOT_STARTED. The unique (paper_id, student_id)
// constraint plus ON CONFLICT DO NOTHING makes a concurrent duplicate join
// surface as pgx.ErrNoRows, which the caller resolves by re-fetching.
func (r *ExamSessionRepository) Create(ctx context.Context, s *model.ExamSession) error {
	return r.pool.QueryRow(ctx,
		`INSERT INTO exam_sessions (paper_id, student_id, status)
		 VALUES ($1, $2, $3)
		 ON CONFLICT (paper_id, student_id) DO NOTHING
		 RETURNING id, status, created_at`,
		s.PaperID, s.StudentID, model.SessionStatusNotStarted,
	).Scan(&s.ID, &s.Status, &s.CreatedAt)
}

// Start transitions NOT_STARTED → IN_PROGRESS and stamps started_at. Returns
// false when the session is missing or not in NOT_STARTED — the check and the
// transition are one conditional update.
func (r *ExamSessionRepository) Start(ctx context.Context, id uuid.UUID) (bool, error) {
	tag, err := r.pool.Exec(ctx,
		`UPDATE exam_sessions
		 SET status = $1, started_at = NOW()
		 WHERE id = $2 AND status = $3`,
		model.SessionStatusInProgress, id, model.SessionStatusNotStarted)
	if err != nil {
		return false, err
	}
	return tag.RowsAffected() > 0, nil
}

// UpsertAnswer records or overwrites a student's answer for one question.
// The INSERT source row only exists while the session is IN_PROGRESS, so
// answers against submitted (or unstarted) sessions match nothing and return
// false. This same guard protects the async flush path in the worker.
func (r *ExamSessionRepository) UpsertAnswer(ctx context.Context, sessionID, questionID uuid.UUID, answer string) (bool, error) {
	tag, err := r.pool.Exec(ctx,
		`INSERT INTO answer_records (session_id, question_id, student_answer)
		 SELECT s.id, $2, $3 FROM exam_sessions s
		 WHERE s.id = $1 AND s.status = $4
		 ON CONFLICT (session_id, question_id)
		 DO UPDATE SET student_answer = EXCLUDED.student_answer, answered_at = NOW()`,
		sessionID, questionID, answer, model.SessionStatusInProgress)
	if err != nil {
		return false, err
	}
	return tag.RowsAffected() > 0, nil
}

// ListAnswers retrieves all answer records for a session.
func (r *ExamSessionRepository) ListAnswers(ctx context.Context, sessionID uuid.UUID) ([]model.AnswerRecord, error) {
	rows, err := r.pool.Query(ctx,
		`SELECT session_id, question_id, student_answer, awarded_score, answered_at
		 FROM answer_records WHERE session_id = $1
		 ORDER BY answered_at`, sessionID,
	)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var records []model.AnswerRecord
	for rows.Next() {
		var a model.AnswerRecord
		if err := rows.Scan(&a.SessionID, &a.QuestionID, &a.StudentAnswer, &a.AwardedScore, &a.AnsweredAt); err != nil {
			return nil, err
		}
		records = append(records, a)
	}
	return records, rows.Err()
}

// FinalizeSubmission claims the session (anything but SUBMITTED → SUBMITTED,
// stamping submitted_at and final_score) and writes the awarded per-question
// scores, all in one transaction. Returns false without side effects when the
// claim is lost — the session was already submitted by a concurrent call or
// does not exist. Losing the claim rolls back everything, so grading runs at
// most once per session.
func (r *ExamSessionRepository) FinalizeSubmission(ctx context.Context, sessionID uuid.UUID, graded []model.AnswerRecord, finalScore float64) (bool, error) {
	tx, err := r.pool.Begin(ctx)
	if err != nil {
		return false, fmt.Errorf("begin: %w", err)
	}
	defer tx.Rollback(ctx)

	tag, err := tx.Exec(ctx,
		`UPDATE exam_sessions
		 SET status = $1, submitted_at = NOW(), final_score = $2
		 WHERE id = $3 AND status <> $1`,
		model.SessionStatusSubmitted, finalScore, sessionID)
	if err != nil {
		return false, fmt.Errorf("claim session: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return false, nil
	}

	if len(graded) > 0 {
		n := len(graded)
		questionIDs := make([]uuid.UUID, 0, n)
		scores := make([]float64, 0, n)
		for _, g := range graded {
			questionIDs = append(questionIDs, g.QuestionID)
			if g.AwardedScore != nil {
				scores = append(scores, *g.AwardedScore)
			} else {
				scores = append(scores, 0)
			}
		}

		if _, err := tx.Exec(ctx,
			`UPDATE answer_records AS a
			 SET awarded_score = t.score
			 FROM (
				SELECT u.question_id, u.score
				FROM UNNEST($2::uuid[], $3::float8[]) AS u (question_id, score)
			 ) AS t
			 WHERE a.session_id = $1 AND a.question_id = t.question_id`,
			sessionID, questionIDs, scores,
		); err != nil {
			return false, fmt.Errorf("write awarded scores: %w", err)
		}
	}

	if err := tx.Commit(ctx); err != nil {
		return false, err
	}
	return true, nil
}

// ListByStudent retrieves all sessions for a given student, newest first.
func (r *ExamSessionRepository) ListByStudent(ctx context.Context, studentID int) ([]model.ExamSession, error) {
	rows, err := r.pool.Query(ctx,
		`SELECT `+sessionColumns+` FROM exam_sessions
		 WHERE student_id = $1
		 ORDER BY created_at DESC`, studentID,
	)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var sessions []model.ExamSession
	for rows.Next() {
		var s model.ExamSession
		if err := rows.Scan(&s.ID, &s.PaperID, &s.StudentID, &s.Status, &s.StartedAt, &s.SubmittedAt, &s.FinalScore, &s.CreatedAt); err != nil {
			return nil, err
		}
		sessions = append(sessions, s)
	}
	return sessions, rows.Err()
}
