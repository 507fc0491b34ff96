package service

import (
	"context"
	"errors"
	"testing"

	"github.com/google/uuid"
	"github.com/iexsys/iexsys-backend/internal/model"
	"github.com/rs/zerolog"
)

func newTestRoomService(sessions *fakeSessionStore, papers *fakePaperStore, questions *fakeQuestionStore) *ExamRoomService {
	return NewExamRoomService(sessions, papers, questions, nil, zerolog.Nop())
}

func TestJoinIsIdempotent(t *testing.T) {
	paper := model.Paper{ID: uuid.New(), Name: "quiz", CreatorID: 1}
	papers := newFakePaperStore(paper)
	sessions := newFakeSessionStore()
	svc := newTestRoomService(sessions, papers, newFakeQuestionStore())

	first, err := svc.Join(context.Background(), paper.ID, 42)
	if err != nil {
		t.Fatalf("first Join() error = %v", err)
	}
	if first.Status != model.SessionStatusNotStarted {
		t.Errorf("new session status = %s, want NOT_STARTED", first.Status)
	}

	second, err := svc.Join(context.Background(), paper.ID, 42)
	if err != nil {
		t.Fatalf("second Join() error = %v", err)
	}
	if second.ID != first.ID {
		t.Errorf("repeated join created a new session: %s vs %s", second.ID, first.ID)
	}
	if len(sessions.sessions) != 1 {
		t.Errorf("store holds %d sessions, want 1", len(sessions.sessions))
	}
}

func TestJoinResolvesInsertRace(t *testing.T) {
	paper := model.Paper{ID: uuid.New(), Name: "quiz", CreatorID: 1}
	papers := newFakePaperStore(paper)
	sessions := newFakeSessionStore()
	svc := newTestRoomService(sessions, papers, newFakeQuestionStore())

	// Simulate losing the insert race: a session appears between the
	// existence check and the insert. The fake's Create reports the conflict
	// the same way the pgx implementation does.
	winner := &model.ExamSession{PaperID: paper.ID, StudentID: 42}
	if err := sessions.Create(context.Background(), winner); err != nil {
		t.Fatalf("seed winner: %v", err)
	}
	sessions.hideOnNextLookup = true

	got, err := svc.Join(context.Background(), paper.ID, 42)
	if err != nil {
		t.Fatalf("Join() error = %v", err)
	}
	if got.ID != winner.ID {
		t.Errorf("join returned session %s, want the winner's %s", got.ID, winner.ID)
	}
}

func TestJoinRejectsDraftAndMissingPapers(t *testing.T) {
	draft := model.Paper{ID: uuid.New(), Name: "wip", CreatorID: 1, Draft: true}
	svc := newTestRoomService(newFakeSessionStore(), newFakePaperStore(draft), newFakeQuestionStore())

	if _, err := svc.Join(context.Background(), draft.ID, 42); !errors.Is(err, ErrPaperNotPublished) {
		t.Errorf("draft join error = %v, want ErrPaperNotPublished", err)
	}
	if _, err := svc.Join(context.Background(), uuid.New(), 42); !errors.Is(err, ErrPaperNotFound) {
		t.Errorf("missing paper join error = %v, want ErrPaperNotFound", err)
	}
}

func TestStartIsNotIdempotent(t *testing.T) {
	paper := model.Paper{ID: uuid.New(), Name: "quiz", CreatorID: 1}
	sessions := newFakeSessionStore()
	svc := newTestRoomService(sessions, newFakePaperStore(paper), newFakeQuestionStore())

	session, err := svc.Join(context.Background(), paper.ID, 42)
	if err != nil {
		t.Fatalf("Join() error = %v", err)
	}

	if err := svc.Start(context.Background(), session.ID); err != nil {
		t.Fatalf("first Start() error = %v", err)
	}
	if err := svc.Start(context.Background(), session.ID); !errors.Is(err, ErrInvalidState) {
		t.Errorf("second Start() error = %v, want ErrInvalidState", err)
	}
	if err := svc.Start(context.Background(), uuid.New()); !errors.Is(err, ErrSessionNotFound) {
		t.Errorf("missing session Start() error = %v, want ErrSessionNotFound", err)
	}
}

func TestRecordAnswerRequiresInProgress(t *testing.T) {
	paper := model.Paper{ID: uuid.New(), Name: "quiz", CreatorID: 1}
	sessions := newFakeSessionStore()
	svc := newTestRoomService(sessions, newFakePaperStore(paper), newFakeQuestionStore())

	session, _ := svc.Join(context.Background(), paper.ID, 42)
	questionID := uuid.New()

	err := svc.RecordAnswer(context.Background(), session.ID, questionID, "A")
	if !errors.Is(err, ErrInvalidState) {
		t.Fatalf("answer before start error = %v, want ErrInvalidState", err)
	}

	if err := svc.Start(context.Background(), session.ID); err != nil {
		t.Fatalf("Start() error = %v", err)
	}
	if err := svc.RecordAnswer(context.Background(), session.ID, questionID, "A"); err != nil {
		t.Fatalf("RecordAnswer() error = %v", err)
	}

	// Re-answering overwrites, not duplicates.
	if err := svc.RecordAnswer(context.Background(), session.ID, questionID, "B"); err != nil {
		t.Fatalf("overwrite RecordAnswer() error = %v", err)
	}
	records, _ := sessions.ListAnswers(context.Background(), session.ID)
	if len(records) != 1 {
		t.Fatalf("got %d answer records, want 1", len(records))
	}
	if records[0].StudentAnswer != "B" {
		t.Errorf("stored answer = %q, want %q", records[0].StudentAnswer, "B")
	}
}

func TestSubmitGradesAllAnswers(t *testing.T) {
	q1 := model.Question{ID: uuid.New(), Type: model.QuestionTypeSingle, CorrectAnswer: "A", Score: 10}
	q2 := model.Question{ID: uuid.New(), Type: model.QuestionTypeJudge, CorrectAnswer: "B", Score: 5}
	questions := newFakeQuestionStore(q1, q2)

	paper := model.Paper{ID: uuid.New(), Name: "quiz", CreatorID: 1}
	sessions := newFakeSessionStore()
	svc := newTestRoomService(sessions, newFakePaperStore(paper), questions)

	session, _ := svc.Join(context.Background(), paper.ID, 42)
	if err := svc.Start(context.Background(), session.ID); err != nil {
		t.Fatalf("Start() error = %v", err)
	}
	if err := svc.RecordAnswer(context.Background(), session.ID, q1.ID, "A"); err != nil {
		t.Fatalf("RecordAnswer(q1) error = %v", err)
	}
	if err := svc.RecordAnswer(context.Background(), session.ID, q2.ID, "C"); err != nil {
		t.Fatalf("RecordAnswer(q2) error = %v", err)
	}

	finalScore, err := svc.Submit(context.Background(), session.ID)
	if err != nil {
		t.Fatalf("Submit() error = %v", err)
	}
	if finalScore != 10 {
		t.Errorf("final score = %v, want 10", finalScore)
	}

	got, _ := sessions.GetByID(context.Background(), session.ID)
	if got.Status != model.SessionStatusSubmitted {
		t.Errorf("status = %s, want SUBMITTED", got.Status)
	}
	if got.FinalScore == nil || *got.FinalScore != 10 {
		t.Errorf("stored final score = %v, want 10", got.FinalScore)
	}

	records, _ := sessions.ListAnswers(context.Background(), session.ID)
	for _, r := range records {
		if r.AwardedScore == nil {
			t.Errorf("record %s has no awarded score", r.QuestionID)
		}
	}
}

func TestSubmitIsTerminal(t *testing.T) {
	paper := model.Paper{ID: uuid.New(), Name: "quiz", CreatorID: 1}
	sessions := newFakeSessionStore()
	svc := newTestRoomService(sessions, newFakePaperStore(paper), newFakeQuestionStore())

	session, _ := svc.Join(context.Background(), paper.ID, 42)
	if _, err := svc.Submit(context.Background(), session.ID); err != nil {
		t.Fatalf("Submit() error = %v", err)
	}

	if _, err := svc.Submit(context.Background(), session.ID); !errors.Is(err, ErrAlreadySubmitted) {
		t.Errorf("second Submit() error = %v, want ErrAlreadySubmitted", err)
	}
	if sessions.finalizeCalls != 1 {
		t.Errorf("finalize ran %d times, want 1", sessions.finalizeCalls)
	}

	// Submitted sessions accept no further answers.
	err := svc.RecordAnswer(context.Background(), session.ID, uuid.New(), "A")
	if !errors.Is(err, ErrInvalidState) {
		t.Errorf("answer after submit error = %v, want ErrInvalidState", err)
	}
}

func TestSubmitAwardsZeroForDanglingQuestion(t *testing.T) {
	q1 := model.Question{ID: uuid.New(), Type: model.QuestionTypeSingle, CorrectAnswer: "A", Score: 10}
	questions := newFakeQuestionStore(q1)

	paper := model.Paper{ID: uuid.New(), Name: "quiz", CreatorID: 1}
	sessions := newFakeSessionStore()
	svc := newTestRoomService(sessions, newFakePaperStore(paper), questions)

	session, _ := svc.Join(context.Background(), paper.ID, 42)
	if err := svc.Start(context.Background(), session.ID); err != nil {
		t.Fatalf("Start() error = %v", err)
	}
	if err := svc.RecordAnswer(context.Background(), session.ID, q1.ID, "A"); err != nil {
		t.Fatalf("RecordAnswer() error = %v", err)
	}
	// Answer pointing at a question that no longer exists.
	dangling := uuid.New()
	if err := svc.RecordAnswer(context.Background(), session.ID, dangling, "A"); err != nil {
		t.Fatalf("RecordAnswer(dangling) error = %v", err)
	}

	finalScore, err := svc.Submit(context.Background(), session.ID)
	if err != nil {
		t.Fatalf("Submit() error = %v", err)
	}
	if finalScore != 10 {
		t.Errorf("final score = %v, want 10 (dangling answer scores zero)", finalScore)
	}
}

func TestGetQuestionsStripsAnswerKey(t *testing.T) {
	q := model.Question{
		ID:            uuid.New(),
		Type:          model.QuestionTypeSingle,
		Title:         "capital of France",
		CorrectAnswer: "Paris",
		Analysis:      "geography basics",
		Score:         10,
	}
	questions := newFakeQuestionStore(q)

	paper := model.Paper{ID: uuid.New(), Name: "quiz", CreatorID: 1}
	papers := newFakePaperStore(paper)
	papers.entries[paper.ID] = []model.PaperQuestionEntry{
		{PaperID: paper.ID, QuestionID: q.ID, Score: 7, SequenceNum: 1},
	}
	sessions := newFakeSessionStore()
	svc := newTestRoomService(sessions, papers, questions)

	session, _ := svc.Join(context.Background(), paper.ID, 42)
	got, err := svc.GetQuestions(context.Background(), session.ID)
	if err != nil {
		t.Fatalf("GetQuestions() error = %v", err)
	}
	if len(got) != 1 {
		t.Fatalf("got %d questions, want 1", len(got))
	}
	if got[0].Score != 7 {
		t.Errorf("question score = %v, want the paper entry score 7", got[0].Score)
	}
	if got[0].SequenceNum != 1 {
		t.Errorf("sequence = %d, want 1", got[0].SequenceNum)
	}
	// QuestionPublic carries no key or analysis fields at all; this asserts
	// the projection copies what it should and nothing else leaks via Title.
	if got[0].Title != q.Title {
		t.Errorf("title = %q, want %q", got[0].Title, q.Title)
	}
}

func TestGetStateFallsBackToStore(t *testing.T) {
	q := uuid.New()
	paper := model.Paper{ID: uuid.New(), Name: "quiz", CreatorID: 1}
	sessions := newFakeSessionStore()
	svc := newTestRoomService(sessions, newFakePaperStore(paper), newFakeQuestionStore())

	session, _ := svc.Join(context.Background(), paper.ID, 42)
	if err := svc.Start(context.Background(), session.ID); err != nil {
		t.Fatalf("Start() error = %v", err)
	}
	if err := svc.RecordAnswer(context.Background(), session.ID, q, "A"); err != nil {
		t.Fatalf("RecordAnswer() error = %v", err)
	}

	state, err := svc.GetState(context.Background(), session.ID)
	if err != nil {
		t.Fatalf("GetState() error = %v", err)
	}
	if state.Status != model.SessionStatusInProgress {
		t.Errorf("status = %s, want IN_PROGRESS", state.Status)
	}
	if state.Answers[q.String()] != "A" {
		t.Errorf("answers = %v, want %s -> A", state.Answers, q)
	}
}

func TestVerifySessionOwner(t *testing.T) {
	paper := model.Paper{ID: uuid.New(), Name: "quiz", CreatorID: 1}
	sessions := newFakeSessionStore()
	svc := newTestRoomService(sessions, newFakePaperStore(paper), newFakeQuestionStore())

	session, _ := svc.Join(context.Background(), paper.ID, 42)

	if err := svc.VerifySessionOwner(context.Background(), session.ID, 42); err != nil {
		t.Errorf("owner check failed: %v", err)
	}
	if err := svc.VerifySessionOwner(context.Background(), session.ID, 99); !errors.Is(err, ErrSessionNotFound) {
		t.Errorf("foreign session error = %v, want ErrSessionNotFound", err)
	}
}
