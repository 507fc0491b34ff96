package service

import (
	"context"
	"sort"
	"time"

	"github.com/google/uuid"
	"github.com/iexsys/iexsys-backend/internal/model"
	"github.com/jackc/pgx/v5"
)

// In-memory store fakes mirroring the repository contracts: missing rows are
// pgx.ErrNoRows, conditional writes report "condition not met" as false.

type fakeQuestionStore struct {
	questions map[uuid.UUID]model.Question
}

func newFakeQuestionStore(qs ...model.Question) *fakeQuestionStore {
	s := &fakeQuestionStore{questions: make(map[uuid.UUID]model.Question)}
	for _, q := range qs {
		s.questions[q.ID] = q
	}
	return s
}

func (s *fakeQuestionStore) GetByID(_ context.Context, id uuid.UUID) (*model.Question, error) {
	q, ok := s.questions[id]
	if !ok {
		return nil, pgx.ErrNoRows
	}
	return &q, nil
}

func (s *fakeQuestionStore) ListByType(_ context.Context, qt model.QuestionType, limit int) ([]model.Question, error) {
	var out []model.Question
	for _, q := range s.questions {
		if q.Type == qt {
			out = append(out, q)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Title < out[j].Title })
	if limit > 0 && len(out) > limit {
		out = out[:limit]
	}
	return out, nil
}

type fakePaperStore struct {
	papers  map[uuid.UUID]model.Paper
	entries map[uuid.UUID][]model.PaperQuestionEntry

	replaceCalls int
}

func newFakePaperStore(papers ...model.Paper) *fakePaperStore {
	s := &fakePaperStore{
		papers:  make(map[uuid.UUID]model.Paper),
		entries: make(map[uuid.UUID][]model.PaperQuestionEntry),
	}
	for _, p := range papers {
		s.papers[p.ID] = p
	}
	return s
}

func (s *fakePaperStore) GetByID(_ context.Context, id uuid.UUID) (*model.Paper, error) {
	p, ok := s.papers[id]
	if !ok {
		return nil, pgx.ErrNoRows
	}
	return &p, nil
}

func (s *fakePaperStore) Create(_ context.Context, p *model.Paper) error {
	p.ID = uuid.New()
	p.CreatedAt = time.Now()
	s.papers[p.ID] = *p
	return nil
}

func (s *fakePaperStore) ListByCreator(_ context.Context, creatorID int) ([]model.Paper, error) {
	var out []model.Paper
	for _, p := range s.papers {
		if p.CreatorID == creatorID {
			out = append(out, p)
		}
	}
	return out, nil
}

func (s *fakePaperStore) ListEntries(_ context.Context, paperID uuid.UUID) ([]model.PaperQuestionEntry, error) {
	entries := append([]model.PaperQuestionEntry(nil), s.entries[paperID]...)
	sort.Slice(entries, func(i, j int) bool { return entries[i].SequenceNum < entries[j].SequenceNum })
	return entries, nil
}

func (s *fakePaperStore) ReplaceEntries(_ context.Context, paperID uuid.UUID, entries []model.PaperQuestionEntry, totalScore float64, draft *bool) error {
	s.replaceCalls++
	s.entries[paperID] = append([]model.PaperQuestionEntry(nil), entries...)
	p := s.papers[paperID]
	p.TotalScore = totalScore
	if draft != nil {
		p.Draft = *draft
	}
	s.papers[paperID] = p
	return nil
}

type fakeSessionStore struct {
	sessions map[uuid.UUID]model.ExamSession
	answers  map[uuid.UUID]map[uuid.UUID]model.AnswerRecord

	finalizeCalls int
	// hideOnNextLookup makes the next GetByPaperAndStudent miss, simulating
	// a concurrent insert landing between the existence check and Create.
	hideOnNextLookup bool
}

func newFakeSessionStore() *fakeSessionStore {
	return &fakeSessionStore{
		sessions: make(map[uuid.UUID]model.ExamSession),
		answers:  make(map[uuid.UUID]map[uuid.UUID]model.AnswerRecord),
	}
}

func (s *fakeSessionStore) GetByID(_ context.Context, id uuid.UUID) (*model.ExamSession, error) {
	sess, ok := s.sessions[id]
	if !ok {
		return nil, pgx.ErrNoRows
	}
	return &sess, nil
}

func (s *fakeSessionStore) GetByPaperAndStudent(_ context.Context, paperID uuid.UUID, studentID int) (*model.ExamSession, error) {
	if s.hideOnNextLookup {
		s.hideOnNextLookup = false
		return nil, pgx.ErrNoRows
	}
	for _, sess := range s.sessions {
		if sess.PaperID == paperID && sess.StudentID == studentID {
			return &sess, nil
		}
	}
	return nil, pgx.ErrNoRows
}

func (s *fakeSessionStore) Create(ctx context.Context, sess *model.ExamSession) error {
	if _, err := s.GetByPaperAndStudent(ctx, sess.PaperID, sess.StudentID); err == nil {
		return pgx.ErrNoRows // uniqueness conflict, per the store contract
	}
	sess.ID = uuid.New()
	sess.Status = model.SessionStatusNotStarted
	sess.CreatedAt = time.Now()
	s.sessions[sess.ID] = *sess
	return nil
}

func (s *fakeSessionStore) Start(_ context.Context, id uuid.UUID) (bool, error) {
	sess, ok := s.sessions[id]
	if !ok || sess.Status != model.SessionStatusNotStarted {
		return false, nil
	}
	now := time.Now()
	sess.Status = model.SessionStatusInProgress
	sess.StartedAt = &now
	s.sessions[id] = sess
	return true, nil
}

func (s *fakeSessionStore) UpsertAnswer(_ context.Context, sessionID, questionID uuid.UUID, answer string) (bool, error) {
	sess, ok := s.sessions[sessionID]
	if !ok || sess.Status != model.SessionStatusInProgress {
		return false, nil
	}
	if s.answers[sessionID] == nil {
		s.answers[sessionID] = make(map[uuid.UUID]model.AnswerRecord)
	}
	s.answers[sessionID][questionID] = model.AnswerRecord{
		SessionID:     sessionID,
		QuestionID:    questionID,
		StudentAnswer: answer,
		AnsweredAt:    time.Now(),
	}
	return true, nil
}

func (s *fakeSessionStore) ListAnswers(_ context.Context, sessionID uuid.UUID) ([]model.AnswerRecord, error) {
	var out []model.AnswerRecord
	for _, r := range s.answers[sessionID] {
		out = append(out, r)
	}
	sort.Slice(out, func(i, j int) bool {
		return out[i].QuestionID.String() < out[j].QuestionID.String()
	})
	return out, nil
}

func (s *fakeSessionStore) FinalizeSubmission(_ context.Context, sessionID uuid.UUID, graded []model.AnswerRecord, finalScore float64) (bool, error) {
	s.finalizeCalls++
	sess, ok := s.sessions[sessionID]
	if !ok || sess.Status == model.SessionStatusSubmitted {
		return false, nil
	}
	now := time.Now()
	sess.Status = model.SessionStatusSubmitted
	sess.SubmittedAt = &now
	sess.FinalScore = &finalScore
	s.sessions[sessionID] = sess
	for _, r := range graded {
		s.answers[sessionID][r.QuestionID] = r
	}
	return true, nil
}

func (s *fakeSessionStore) ListByStudent(_ context.Context, studentID int) ([]model.ExamSession, error) {
	var out []model.ExamSession
	for _, sess := range s.sessions {
		if sess.StudentID == studentID {
			out = append(out, sess)
		}
	}
	return out, nil
}

// firstNSampler makes assembly deterministic in tests: it keeps pool order and
// takes the first n candidates.
type firstNSampler struct{}

func (firstNSampler) Sample(candidates []model.Question, n int) []model.Question {
	return candidates[:n]
}
