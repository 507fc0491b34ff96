package service

import (
	"context"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"github.com/iexsys/iexsys-backend/internal/model"
	"github.com/iexsys/iexsys-backend/internal/repository"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/rs/zerolog"
)

var (
	ErrQuestionNotFound = errors.New("question not found")
	ErrQuestionInUse    = errors.New("question is referenced by a paper and cannot be deleted")
)

// QuestionService handles question and tag authoring for teachers.
type QuestionService struct {
	questions *repository.QuestionRepository
	tags      *repository.TagRepository
	log       zerolog.Logger
}

// NewQuestionService creates a new QuestionService.
func NewQuestionService(questions *repository.QuestionRepository, tags *repository.TagRepository, log zerolog.Logger) *QuestionService {
	return &QuestionService{
		questions: questions,
		tags:      tags,
		log:       log.With().Str("component", "question_service").Logger(),
	}
}

// GetByID retrieves a question with its answer key. Teacher-only callers.
func (s *QuestionService) GetByID(ctx context.Context, id uuid.UUID) (*model.Question, error) {
	q, err := s.questions.GetByID(ctx, id)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrQuestionNotFound
		}
		return nil, fmt.Errorf("get question: %w", err)
	}
	return q, nil
}

// List retrieves a page of questions, optionally filtered by type.
func (s *QuestionService) List(ctx context.Context, qtFilter string, page, limit int) ([]model.Question, int, error) {
	if page < 1 {
		page = 1
	}
	if limit < 1 {
		limit = 20
	}
	if limit > 100 {
		limit = 100
	}

	var qt *model.QuestionType
	if qtFilter != "" {
		t := model.QuestionType(qtFilter)
		if !t.Valid() {
			return nil, 0, fmt.Errorf("%w: %q", ErrUnknownQuestionType, qtFilter)
		}
		qt = &t
	}

	offset := (page - 1) * limit
	return s.questions.List(ctx, qt, limit, offset)
}

// Create authors a new question.
func (s *QuestionService) Create(ctx context.Context, creatorID int, req *model.CreateQuestionRequest) (*model.Question, error) {
	q := &model.Question{
		Type:          model.QuestionType(req.Type),
		Title:         req.Title,
		Options:       req.Options,
		CorrectAnswer: req.CorrectAnswer,
		Analysis:      req.Analysis,
		Score:         req.Score,
		Difficulty:    req.Difficulty,
		CreatorID:     creatorID,
		TagIDs:        req.TagIDs,
	}
	if q.Difficulty == 0 {
		q.Difficulty = 1
	}
	if err := s.questions.Create(ctx, q); err != nil {
		return nil, fmt.Errorf("create question: %w", err)
	}

	s.log.Info().
		Str("question_id", q.ID.String()).
		Str("type", string(q.Type)).
		Int("creator_id", creatorID).
		Msg("Question created")

	return q, nil
}

// Update edits an existing question. The type is immutable after creation so
// that assembled papers keep their rule semantics.
func (s *QuestionService) Update(ctx context.Context, id uuid.UUID, req *model.UpdateQuestionRequest) (*model.Question, error) {
	q, err := s.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}

	if req.Title != "" {
		q.Title = req.Title
	}
	if req.Options != nil {
		q.Options = req.Options
	}
	if req.CorrectAnswer != "" {
		q.CorrectAnswer = req.CorrectAnswer
	}
	if req.Analysis != "" {
		q.Analysis = req.Analysis
	}
	if req.Score > 0 {
		q.Score = req.Score
	}
	if req.Difficulty > 0 {
		q.Difficulty = req.Difficulty
	}
	if req.TagIDs != nil {
		q.TagIDs = req.TagIDs
	}

	if err := s.questions.Update(ctx, q); err != nil {
		if errors.Is(err, repository.ErrNoRowsAffected) {
			return nil, ErrQuestionNotFound
		}
		return nil, fmt.Errorf("update question: %w", err)
	}
	return q, nil
}

// Delete removes a question. Questions already placed on a paper are protected
// by a restrictive foreign key and surface as ErrQuestionInUse.
func (s *QuestionService) Delete(ctx context.Context, id uuid.UUID) error {
	if err := s.questions.Delete(ctx, id); err != nil {
		if errors.Is(err, repository.ErrNoRowsAffected) {
			return ErrQuestionNotFound
		}
		var pgErr *pgconn.PgError
		if errors.As(err, &pgErr) && pgErr.Code == "23503" { // foreign_key_violation
			return ErrQuestionInUse
		}
		return fmt.Errorf("delete question: %w", err)
	}
	return nil
}

// ListTags retrieves all tags.
func (s *QuestionService) ListTags(ctx context.Context) ([]model.Tag, error) {
	return s.tags.List(ctx)
}

// CreateTag creates a new tag.
func (s *QuestionService) CreateTag(ctx context.Context, req *model.CreateTagRequest) (*model.Tag, error) {
	tag := &model.Tag{Name: req.Name}
	if err := s.tags.Create(ctx, tag); err != nil {
		var pgErr *pgconn.PgError
		if errors.As(err, &pgErr) && pgErr.Code == "23505" { // unique_violation
			return nil, fmt.Errorf("tag %q already exists", req.Name)
		}
		return nil, fmt.Errorf("create tag: %w", err)
	}
	return tag, nil
}
