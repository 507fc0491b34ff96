package service

import (
	"github.com/iexsys/iexsys-backend/internal/model"
)

// gradeAnswer scores one student answer against the question's key. Full marks
// on a match, zero otherwise — there is no partial credit.
//
// Every variant compares the stored key verbatim: choice and judge keys are
// canonical option strings, and essay answers are intentionally graded by
// exact match as well (free-text similarity scoring is out of scope).
func gradeAnswer(q *model.Question, studentAnswer string) float64 {
	if answerMatches(q.Type, q.CorrectAnswer, studentAnswer) {
		return q.Score
	}
	return 0
}

// answerMatches is the per-variant equality rule. Kept as the single branching
// point on question type so variant-specific grading (e.g. partial credit for
// multiple choice) would change exactly one place.
func answerMatches(t model.QuestionType, key, answer string) bool {
	switch t {
	case model.QuestionTypeSingle, model.QuestionTypeMultiple, model.QuestionTypeJudge, model.QuestionTypeEssay:
		return key == answer
	default:
		return false
	}
}
