package service

import (
	"context"
	"errors"
	"fmt"
	"testing"

	"github.com/google/uuid"
	"github.com/iexsys/iexsys-backend/internal/model"
	"github.com/rs/zerolog"
)

func newTestPaperService(papers *fakePaperStore, questions *fakeQuestionStore) *PaperService {
	return NewPaperService(papers, questions, firstNSampler{}, zerolog.Nop())
}

func seedQuestions(qt model.QuestionType, score float64, n int) []model.Question {
	qs := make([]model.Question, n)
	for i := range qs {
		qs[i] = model.Question{
			ID:    uuid.New(),
			Type:  qt,
			Title: fmt.Sprintf("%s-%02d", qt, i),
			Score: score,
		}
	}
	return qs
}

func TestAssembleBuildsOrderedEntries(t *testing.T) {
	singles := seedQuestions(model.QuestionTypeSingle, 2, 5)
	judges := seedQuestions(model.QuestionTypeJudge, 1, 4)
	questions := newFakeQuestionStore(append(singles, judges...)...)

	paper := model.Paper{ID: uuid.New(), Name: "midterm", CreatorID: 1}
	papers := newFakePaperStore(paper)
	svc := newTestPaperService(papers, questions)

	override := 5.0
	got, err := svc.Assemble(context.Background(), paper.ID, []model.AssemblyRule{
		{QuestionType: model.QuestionTypeSingle, Count: 3, ScorePerQuestion: &override},
		{QuestionType: model.QuestionTypeJudge, Count: 2},
	})
	if err != nil {
		t.Fatalf("Assemble() error = %v", err)
	}

	if len(got.Entries) != 5 {
		t.Fatalf("got %d entries, want 5", len(got.Entries))
	}
	for i, entry := range got.Entries {
		if entry.SequenceNum != i+1 {
			t.Errorf("entry %d has sequence %d, want %d", i, entry.SequenceNum, i+1)
		}
	}

	// First rule overrides scores, second uses the question defaults.
	for _, entry := range got.Entries[:3] {
		if entry.Score != 5 {
			t.Errorf("overridden entry score = %v, want 5", entry.Score)
		}
	}
	for _, entry := range got.Entries[3:] {
		if entry.Score != 1 {
			t.Errorf("default entry score = %v, want 1", entry.Score)
		}
	}
	if got.Paper.TotalScore != 17 {
		t.Errorf("total score = %v, want 17", got.Paper.TotalScore)
	}
}

func TestAssembleNeverRepeatsQuestions(t *testing.T) {
	singles := seedQuestions(model.QuestionTypeSingle, 2, 6)
	questions := newFakeQuestionStore(singles...)

	paper := model.Paper{ID: uuid.New(), Name: "quiz", CreatorID: 1}
	papers := newFakePaperStore(paper)
	svc := newTestPaperService(papers, questions)

	got, err := svc.Assemble(context.Background(), paper.ID, []model.AssemblyRule{
		{QuestionType: model.QuestionTypeSingle, Count: 3},
		{QuestionType: model.QuestionTypeSingle, Count: 3},
	})
	if err != nil {
		t.Fatalf("Assemble() error = %v", err)
	}

	seen := make(map[uuid.UUID]bool)
	for _, entry := range got.Entries {
		if seen[entry.QuestionID] {
			t.Fatalf("question %s appears twice", entry.QuestionID)
		}
		seen[entry.QuestionID] = true
	}
}

func TestAssembleInsufficientQuestionsLeavesPaperUntouched(t *testing.T) {
	singles := seedQuestions(model.QuestionTypeSingle, 2, 2)
	questions := newFakeQuestionStore(singles...)

	paper := model.Paper{ID: uuid.New(), Name: "quiz", CreatorID: 1}
	papers := newFakePaperStore(paper)
	papers.entries[paper.ID] = []model.PaperQuestionEntry{
		{PaperID: paper.ID, QuestionID: singles[0].ID, Score: 2, SequenceNum: 1},
	}
	svc := newTestPaperService(papers, questions)

	_, err := svc.Assemble(context.Background(), paper.ID, []model.AssemblyRule{
		{QuestionType: model.QuestionTypeSingle, Count: 5},
	})

	var insufficientErr *InsufficientQuestionsError
	if !errors.As(err, &insufficientErr) {
		t.Fatalf("Assemble() error = %v, want InsufficientQuestionsError", err)
	}
	if insufficientErr.Requested != 5 || insufficientErr.Available != 2 {
		t.Errorf("error reports requested=%d available=%d, want 5 and 2",
			insufficientErr.Requested, insufficientErr.Available)
	}
	if papers.replaceCalls != 0 {
		t.Errorf("entries were written despite failed assembly")
	}
	if len(papers.entries[paper.ID]) != 1 {
		t.Errorf("previous entry set was modified")
	}
}

func TestAssembleRejectsBadRules(t *testing.T) {
	paper := model.Paper{ID: uuid.New(), Name: "quiz", CreatorID: 1}
	papers := newFakePaperStore(paper)
	svc := newTestPaperService(papers, newFakeQuestionStore())

	if _, err := svc.Assemble(context.Background(), paper.ID, nil); !errors.Is(err, ErrEmptyRules) {
		t.Errorf("empty rules error = %v, want ErrEmptyRules", err)
	}

	_, err := svc.Assemble(context.Background(), paper.ID, []model.AssemblyRule{
		{QuestionType: "cloze", Count: 1},
	})
	if !errors.Is(err, ErrUnknownQuestionType) {
		t.Errorf("unknown type error = %v, want ErrUnknownQuestionType", err)
	}

	_, err = svc.Assemble(context.Background(), paper.ID, []model.AssemblyRule{
		{QuestionType: model.QuestionTypeSingle, Count: 0},
	})
	if !errors.Is(err, ErrInvalidRuleCount) {
		t.Errorf("zero count error = %v, want ErrInvalidRuleCount", err)
	}
}

func TestAssembleMissingPaper(t *testing.T) {
	svc := newTestPaperService(newFakePaperStore(), newFakeQuestionStore())

	_, err := svc.Assemble(context.Background(), uuid.New(), []model.AssemblyRule{
		{QuestionType: model.QuestionTypeSingle, Count: 1},
	})
	if !errors.Is(err, ErrPaperNotFound) {
		t.Errorf("Assemble() error = %v, want ErrPaperNotFound", err)
	}
}

func TestAdjustQuestionsReplacesEntriesAndTotal(t *testing.T) {
	q1, q2 := uuid.New(), uuid.New()
	paper := model.Paper{ID: uuid.New(), Name: "quiz", CreatorID: 1, Draft: true}
	papers := newFakePaperStore(paper)
	svc := newTestPaperService(papers, newFakeQuestionStore())

	publish := false
	got, err := svc.AdjustQuestions(context.Background(), paper.ID, []model.AdjustItem{
		{QuestionID: q1, Score: 4, SequenceNum: 1},
		{QuestionID: q2, Score: 6, SequenceNum: 2},
	}, &publish)
	if err != nil {
		t.Fatalf("AdjustQuestions() error = %v", err)
	}

	if got.Paper.TotalScore != 10 {
		t.Errorf("total score = %v, want 10", got.Paper.TotalScore)
	}
	if got.Paper.Draft {
		t.Errorf("paper still draft after publish")
	}
	if len(got.Entries) != 2 {
		t.Fatalf("got %d entries, want 2", len(got.Entries))
	}
}

func TestAdjustQuestionsRejectsDuplicates(t *testing.T) {
	q := uuid.New()
	paper := model.Paper{ID: uuid.New(), Name: "quiz", CreatorID: 1}
	papers := newFakePaperStore(paper)
	svc := newTestPaperService(papers, newFakeQuestionStore())

	_, err := svc.AdjustQuestions(context.Background(), paper.ID, []model.AdjustItem{
		{QuestionID: q, Score: 4, SequenceNum: 1},
		{QuestionID: q, Score: 6, SequenceNum: 2},
	}, nil)
	if !errors.Is(err, ErrDuplicatePaperEntry) {
		t.Errorf("AdjustQuestions() error = %v, want ErrDuplicatePaperEntry", err)
	}
	if papers.replaceCalls != 0 {
		t.Errorf("entries were written despite duplicate rejection")
	}
}

func TestAdjustQuestionsRejectsEmpty(t *testing.T) {
	paper := model.Paper{ID: uuid.New(), Name: "quiz", CreatorID: 1}
	svc := newTestPaperService(newFakePaperStore(paper), newFakeQuestionStore())

	if _, err := svc.AdjustQuestions(context.Background(), paper.ID, nil, nil); !errors.Is(err, ErrEmptyEntries) {
		t.Errorf("AdjustQuestions() error = %v, want ErrEmptyEntries", err)
	}
}
