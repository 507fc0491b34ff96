package service

import (
	"context"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"github.com/iexsys/iexsys-backend/internal/config"
	"github.com/iexsys/iexsys-backend/internal/model"
	"github.com/jackc/pgx/v5"
	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog"
)

// Domain errors.
var (
	ErrSessionNotFound   = errors.New("exam session not found")
	ErrInvalidState      = errors.New("exam session is not in a state that allows this operation")
	ErrAlreadySubmitted  = errors.New("exam session has already been submitted")
	ErrPaperNotPublished = errors.New("paper is still a draft and cannot be joined")
)

// ExamRoomService drives the per-student exam lifecycle:
// join → start → answer* → submit. SUBMITTED is terminal; submission grades
// every recorded answer exactly once.
type ExamRoomService struct {
	sessions  SessionStore
	papers    PaperStore
	questions QuestionStore
	rdb       *redis.Client
	log       zerolog.Logger
}

// NewExamRoomService creates a new ExamRoomService.
func NewExamRoomService(
	sessions SessionStore,
	papers PaperStore,
	questions QuestionStore,
	rdb *redis.Client,
	log zerolog.Logger,
) *ExamRoomService {
	return &ExamRoomService{
		sessions:  sessions,
		papers:    papers,
		questions: questions,
		rdb:       rdb,
		log:       log.With().Str("component", "exam_room_service").Logger(),
	}
}

// Join returns the student's session for the paper, creating it in NOT_STARTED
// on first join. Idempotent: repeated joins return the existing session, and a
// race between two concurrent joins resolves through the storage uniqueness
// constraint — the loser re-fetches the winner's session.
func (s *ExamRoomService) Join(ctx context.Context, paperID uuid.UUID, studentID int) (*model.ExamSession, error) {
	paper, err := s.papers.GetByID(ctx, paperID)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrPaperNotFound
		}
		return nil, fmt.Errorf("get paper: %w", err)
	}
	if paper.Draft {
		return nil, ErrPaperNotPublished
	}

	existing, err := s.sessions.GetByPaperAndStudent(ctx, paperID, studentID)
	if err != nil && !errors.Is(err, pgx.ErrNoRows) {
		return nil, fmt.Errorf("check existing session: %w", err)
	}
	if existing != nil {
		return existing, nil
	}

	session := &model.ExamSession{
		PaperID:   paperID,
		StudentID: studentID,
	}
	if err := s.sessions.Create(ctx, session); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			// Concurrent join won the insert; return its session.
			winner, fetchErr := s.sessions.GetByPaperAndStudent(ctx, paperID, studentID)
			if fetchErr != nil {
				return nil, fmt.Errorf("concurrent join detected, but fetch failed: %w", fetchErr)
			}
			return winner, nil
		}
		return nil, fmt.Errorf("create session: %w", err)
	}

	s.log.Info().
		Str("session_id", session.ID.String()).
		Str("paper_id", paperID.String()).
		Int("student_id", studentID).
		Msg("Student joined exam")

	return session, nil
}

// Start transitions the session from NOT_STARTED to IN_PROGRESS. Starting
// twice is rejected, not idempotent.
func (s *ExamRoomService) Start(ctx context.Context, sessionID uuid.UUID) error {
	ok, err := s.sessions.Start(ctx, sessionID)
	if err != nil {
		return fmt.Errorf("start session: %w", err)
	}
	if ok {
		return nil
	}

	// The conditional update matched nothing: tell missing from wrong-state.
	if _, err := s.getSession(ctx, sessionID); err != nil {
		return err
	}
	return ErrInvalidState
}

// RecordAnswer upserts the student's answer for one question. Only sessions in
// IN_PROGRESS accept answers; submitted records are immutable.
func (s *ExamRoomService) RecordAnswer(ctx context.Context, sessionID, questionID uuid.UUID, answer string) error {
	ok, err := s.sessions.UpsertAnswer(ctx, sessionID, questionID, answer)
	if err != nil {
		return fmt.Errorf("upsert answer: %w", err)
	}
	if !ok {
		if _, err := s.getSession(ctx, sessionID); err != nil {
			return err
		}
		return ErrInvalidState
	}

	// Mirror to Redis so a reloading client can recover its answers fast.
	if s.rdb != nil {
		key := config.CacheKey.RoomAnswersKey(sessionID.String())
		if err := s.rdb.HSet(ctx, key, questionID.String(), answer).Err(); err != nil {
			s.log.Warn().Err(err).Str("session_id", sessionID.String()).Msg("Answer cache write failed")
		}
	}
	return nil
}

// Submit grades every recorded answer and finalizes the session. The state
// claim and the score writes happen in one storage transaction, so concurrent
// submissions cannot double-grade: exactly one caller gets the final score,
// the rest get ErrAlreadySubmitted.
func (s *ExamRoomService) Submit(ctx context.Context, sessionID uuid.UUID) (float64, error) {
	session, err := s.getSession(ctx, sessionID)
	if err != nil {
		return 0, err
	}
	if session.Status == model.SessionStatusSubmitted {
		return 0, ErrAlreadySubmitted
	}

	records, err := s.sessions.ListAnswers(ctx, sessionID)
	if err != nil {
		return 0, fmt.Errorf("list answers: %w", err)
	}

	var finalScore float64
	for i := range records {
		awarded := s.gradeRecord(ctx, &records[i])
		records[i].AwardedScore = &awarded
		finalScore += awarded
	}

	claimed, err := s.sessions.FinalizeSubmission(ctx, sessionID, records, finalScore)
	if err != nil {
		return 0, fmt.Errorf("finalize submission: %w", err)
	}
	if !claimed {
		// Lost the claim: a concurrent submit finished first (or the session
		// vanished, which the earlier read rules out in practice).
		return 0, ErrAlreadySubmitted
	}

	if s.rdb != nil {
		_ = s.rdb.Del(ctx, config.CacheKey.RoomAnswersKey(sessionID.String())).Err()
	}

	s.log.Info().
		Str("session_id", sessionID.String()).
		Float64("final_score", finalScore).
		Int("answers", len(records)).
		Msg("Exam submitted and graded")

	return finalScore, nil
}

// gradeRecord scores one answer record. A dangling question reference awards
// zero rather than failing the whole submission.
func (s *ExamRoomService) gradeRecord(ctx context.Context, record *model.AnswerRecord) float64 {
	question, err := s.questions.GetByID(ctx, record.QuestionID)
	if err != nil {
		if !errors.Is(err, pgx.ErrNoRows) {
			s.log.Warn().Err(err).
				Str("question_id", record.QuestionID.String()).
				Msg("Question lookup failed during grading, awarding zero")
		}
		return 0
	}
	return gradeAnswer(question, record.StudentAnswer)
}

// GetQuestions returns the session paper's questions in sequence order as
// student-facing projections — the answer key never leaves this method.
func (s *ExamRoomService) GetQuestions(ctx context.Context, sessionID uuid.UUID) ([]model.QuestionPublic, error) {
	session, err := s.getSession(ctx, sessionID)
	if err != nil {
		return nil, err
	}

	entries, err := s.papers.ListEntries(ctx, session.PaperID)
	if err != nil {
		return nil, fmt.Errorf("list paper entries: %w", err)
	}

	public := make([]model.QuestionPublic, 0, len(entries))
	for _, entry := range entries {
		question, err := s.questions.GetByID(ctx, entry.QuestionID)
		if err != nil {
			if errors.Is(err, pgx.ErrNoRows) {
				continue // Question deleted after assembly; skip it.
			}
			return nil, fmt.Errorf("get question: %w", err)
		}
		public = append(public, model.QuestionPublic{
			ID:          question.ID,
			Type:        question.Type,
			Title:       question.Title,
			Options:     question.Options,
			Score:       entry.Score,
			SequenceNum: entry.SequenceNum,
		})
	}
	return public, nil
}

// GetState returns what a reconnecting client needs to resume: status, the
// answers given so far, and the final score once submitted. Answers come from
// the Redis buffer with a PostgreSQL fallback that re-heals the cache.
func (s *ExamRoomService) GetState(ctx context.Context, sessionID uuid.UUID) (*model.RoomState, error) {
	session, err := s.getSession(ctx, sessionID)
	if err != nil {
		return nil, err
	}

	answers := map[string]string{}
	key := config.CacheKey.RoomAnswersKey(sessionID.String())

	cacheHealthy := false
	if s.rdb != nil {
		cached, err := s.rdb.HGetAll(ctx, key).Result()
		cacheHealthy = err == nil
		if cacheHealthy && len(cached) > 0 {
			answers = cached
		}
	}

	if len(answers) == 0 {
		// Cache miss or Redis trouble: fall back to the source of truth.
		records, err := s.sessions.ListAnswers(ctx, sessionID)
		if err != nil {
			return nil, fmt.Errorf("list answers: %w", err)
		}
		for _, r := range records {
			answers[r.QuestionID.String()] = r.StudentAnswer
		}
		if cacheHealthy && len(answers) > 0 && session.Status == model.SessionStatusInProgress {
			// Self-heal so the next reload is served from cache.
			_ = s.rdb.HSet(ctx, key, answers).Err()
		}
	}

	return &model.RoomState{
		SessionID:  session.ID,
		Status:     session.Status,
		Answers:    answers,
		FinalScore: session.FinalScore,
	}, nil
}

// ListByStudent returns all of a student's sessions, newest first.
func (s *ExamRoomService) ListByStudent(ctx context.Context, studentID int) ([]model.ExamSession, error) {
	return s.sessions.ListByStudent(ctx, studentID)
}

// VerifySessionOwner checks that a session exists and belongs to the student.
func (s *ExamRoomService) VerifySessionOwner(ctx context.Context, sessionID uuid.UUID, studentID int) error {
	session, err := s.getSession(ctx, sessionID)
	if err != nil {
		return err
	}
	if session.StudentID != studentID {
		return ErrSessionNotFound
	}
	return nil
}

func (s *ExamRoomService) getSession(ctx context.Context, sessionID uuid.UUID) (*model.ExamSession, error) {
	session, err := s.sessions.GetByID(ctx, sessionID)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrSessionNotFound
		}
		return nil, fmt.Errorf("get session: %w", err)
	}
	return session, nil
}
