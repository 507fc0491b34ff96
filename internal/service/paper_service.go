package service

import (
	"context"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"github.com/iexsys/iexsys-backend/internal/model"
	"github.com/jackc/pgx/v5"
	"github.com/rs/zerolog"
)

// Domain errors.
var (
	ErrPaperNotFound       = errors.New("paper not found")
	ErrEmptyRules          = errors.New("assembly rules must not be empty")
	ErrEmptyEntries        = errors.New("paper entries must not be empty")
	ErrUnknownQuestionType = errors.New("unknown question type")
	ErrInvalidRuleCount    = errors.New("rule count must be at least 1")
	ErrDuplicatePaperEntry = errors.New("duplicate question in paper entries")
)

// InsufficientQuestionsError reports that an assembly rule asked for more
// questions of a type than the pool can supply.
type InsufficientQuestionsError struct {
	QuestionType model.QuestionType
	Requested    int
	Available    int
}

func (e *InsufficientQuestionsError) Error() string {
	return fmt.Sprintf("insufficient questions of type %q: requested %d, available %d",
		e.QuestionType, e.Requested, e.Available)
}

// PaperService assembles and adjusts papers. Assembly is all-or-nothing: the
// previously persisted entry set survives any failure.
type PaperService struct {
	papers    PaperStore
	questions QuestionStore
	sampler   Sampler
	log       zerolog.Logger
}

// NewPaperService creates a new PaperService.
func NewPaperService(papers PaperStore, questions QuestionStore, sampler Sampler, log zerolog.Logger) *PaperService {
	return &PaperService{
		papers:    papers,
		questions: questions,
		sampler:   sampler,
		log:       log.With().Str("component", "paper_service").Logger(),
	}
}

// Create inserts a new paper, optionally assembling it from rules in the same
// call.
func (s *PaperService) Create(ctx context.Context, creatorID int, req *model.CreatePaperRequest) (*model.PaperWithQuestions, error) {
	paper := &model.Paper{
		Name:      req.Name,
		CreatorID: creatorID,
		Draft:     true,
	}
	if req.Draft != nil {
		paper.Draft = *req.Draft
	}
	if err := s.papers.Create(ctx, paper); err != nil {
		return nil, fmt.Errorf("create paper: %w", err)
	}

	if len(req.Rules) > 0 {
		return s.Assemble(ctx, paper.ID, req.Rules)
	}
	return &model.PaperWithQuestions{Paper: *paper}, nil
}

// Assemble translates an ordered rule list into a concrete, scored, ordered
// entry set and replaces the paper's previous set with it. Selection within a
// rule is random; a question never appears twice on the same paper, even when
// later rules request the same type.
func (s *PaperService) Assemble(ctx context.Context, paperID uuid.UUID, rules []model.AssemblyRule) (*model.PaperWithQuestions, error) {
	if len(rules) == 0 {
		return nil, ErrEmptyRules
	}
	for _, rule := range rules {
		if !rule.QuestionType.Valid() {
			return nil, fmt.Errorf("%w: %q", ErrUnknownQuestionType, rule.QuestionType)
		}
		if rule.Count < 1 {
			return nil, ErrInvalidRuleCount
		}
	}

	if _, err := s.getPaper(ctx, paperID); err != nil {
		return nil, err
	}

	picked := make(map[uuid.UUID]bool)
	var entries []model.PaperQuestionEntry
	var totalScore float64
	sequence := 1

	for _, rule := range rules {
		candidates, err := s.questions.ListByType(ctx, rule.QuestionType, 0)
		if err != nil {
			return nil, fmt.Errorf("list questions by type: %w", err)
		}

		// Drop questions already selected by an earlier rule in this call.
		eligible := candidates[:0:0]
		for _, q := range candidates {
			if !picked[q.ID] {
				eligible = append(eligible, q)
			}
		}

		if len(eligible) < rule.Count {
			return nil, &InsufficientQuestionsError{
				QuestionType: rule.QuestionType,
				Requested:    rule.Count,
				Available:    len(eligible),
			}
		}

		for _, q := range s.sampler.Sample(eligible, rule.Count) {
			score := q.Score
			if rule.ScorePerQuestion != nil {
				score = *rule.ScorePerQuestion
			}
			entries = append(entries, model.PaperQuestionEntry{
				PaperID:     paperID,
				QuestionID:  q.ID,
				Score:       score,
				SequenceNum: sequence,
			})
			totalScore += score
			picked[q.ID] = true
			sequence++
		}
	}

	if err := s.papers.ReplaceEntries(ctx, paperID, entries, totalScore, nil); err != nil {
		return nil, fmt.Errorf("replace entries: %w", err)
	}

	s.log.Info().
		Str("paper_id", paperID.String()).
		Int("questions", len(entries)).
		Float64("total_score", totalScore).
		Msg("Paper assembled")

	return s.GetWithQuestions(ctx, paperID)
}

// AdjustQuestions replaces the entry set with caller-supplied entries and
// recomputes the total score. Duplicate question ids are rejected; existence
// of the referenced questions is enforced by the storage layer.
func (s *PaperService) AdjustQuestions(ctx context.Context, paperID uuid.UUID, items []model.AdjustItem, draft *bool) (*model.PaperWithQuestions, error) {
	if len(items) == 0 {
		return nil, ErrEmptyEntries
	}

	if _, err := s.getPaper(ctx, paperID); err != nil {
		return nil, err
	}

	seen := make(map[uuid.UUID]bool, len(items))
	entries := make([]model.PaperQuestionEntry, 0, len(items))
	var totalScore float64
	for _, item := range items {
		if seen[item.QuestionID] {
			return nil, fmt.Errorf("%w: %s", ErrDuplicatePaperEntry, item.QuestionID)
		}
		seen[item.QuestionID] = true
		entries = append(entries, model.PaperQuestionEntry{
			PaperID:     paperID,
			QuestionID:  item.QuestionID,
			Score:       item.Score,
			SequenceNum: item.SequenceNum,
		})
		totalScore += item.Score
	}

	if err := s.papers.ReplaceEntries(ctx, paperID, entries, totalScore, draft); err != nil {
		return nil, fmt.Errorf("replace entries: %w", err)
	}

	return s.GetWithQuestions(ctx, paperID)
}

// GetWithQuestions retrieves a paper together with its ordered entry set.
func (s *PaperService) GetWithQuestions(ctx context.Context, paperID uuid.UUID) (*model.PaperWithQuestions, error) {
	paper, err := s.getPaper(ctx, paperID)
	if err != nil {
		return nil, err
	}
	entries, err := s.papers.ListEntries(ctx, paperID)
	if err != nil {
		return nil, fmt.Errorf("list entries: %w", err)
	}
	return &model.PaperWithQuestions{Paper: *paper, Entries: entries}, nil
}

// ListByCreator retrieves all papers authored by a teacher.
func (s *PaperService) ListByCreator(ctx context.Context, creatorID int) ([]model.Paper, error) {
	return s.papers.ListByCreator(ctx, creatorID)
}

func (s *PaperService) getPaper(ctx context.Context, paperID uuid.UUID) (*model.Paper, error) {
	paper, err := s.papers.GetByID(ctx, paperID)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrPaperNotFound
		}
		return nil, fmt.Errorf("get paper: %w", err)
	}
	return paper, nil
}
