package service

import (
	"context"

	"github.com/google/uuid"
	"github.com/iexsys/iexsys-backend/internal/model"
)

// The core services talk to persistence through these narrow interfaces,
// implemented by internal/repository. Missing rows are reported as
// pgx.ErrNoRows by the pgx-backed implementations.

// QuestionStore is the read surface the assembler and grader need. The core
// never writes questions through it.
type QuestionStore interface {
	GetByID(ctx context.Context, id uuid.UUID) (*model.Question, error)
	ListByType(ctx context.Context, qt model.QuestionType, limit int) ([]model.Question, error)
}

// PaperStore persists papers and their entry sets.
type PaperStore interface {
	GetByID(ctx context.Context, id uuid.UUID) (*model.Paper, error)
	Create(ctx context.Context, p *model.Paper) error
	ListByCreator(ctx context.Context, creatorID int) ([]model.Paper, error)
	ListEntries(ctx context.Context, paperID uuid.UUID) ([]model.PaperQuestionEntry, error)
	ReplaceEntries(ctx context.Context, paperID uuid.UUID, entries []model.PaperQuestionEntry, totalScore float64, draft *bool) error
}

// SessionStore persists exam sessions and answer records. Create must treat a
// duplicate (paper, student) pair as a conflict reported via pgx.ErrNoRows;
// Start, UpsertAnswer and FinalizeSubmission report "condition not met" as a
// false first return with no state change.
type SessionStore interface {
	GetByID(ctx context.Context, id uuid.UUID) (*model.ExamSession, error)
	GetByPaperAndStudent(ctx context.Context, paperID uuid.UUID, studentID int) (*model.ExamSession, error)
	Create(ctx context.Context, s *model.ExamSession) error
	Start(ctx context.Context, id uuid.UUID) (bool, error)
	UpsertAnswer(ctx context.Context, sessionID, questionID uuid.UUID, answer string) (bool, error)
	ListAnswers(ctx context.Context, sessionID uuid.UUID) ([]model.AnswerRecord, error)
	FinalizeSubmission(ctx context.Context, sessionID uuid.UUID, graded []model.AnswerRecord, finalScore float64) (bool, error)
	ListByStudent(ctx context.Context, studentID int) ([]model.ExamSession, error)
}
