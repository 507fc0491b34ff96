package service

import (
	"testing"

	"github.com/google/uuid"
	"github.com/iexsys/iexsys-backend/internal/model"
)

func TestGradeAnswer(t *testing.T) {
	tests := []struct {
		name    string
		qtype   model.QuestionType
		key     string
		answer  string
		score   float64
		awarded float64
	}{
		{"single correct", model.QuestionTypeSingle, "A", "A", 10, 10},
		{"single wrong", model.QuestionTypeSingle, "A", "B", 10, 0},
		{"multiple exact match", model.QuestionTypeMultiple, "A,C", "A,C", 5, 5},
		{"multiple different order", model.QuestionTypeMultiple, "A,C", "C,A", 5, 0},
		{"judge correct", model.QuestionTypeJudge, "true", "true", 2, 2},
		{"judge wrong", model.QuestionTypeJudge, "true", "false", 2, 0},
		{"essay verbatim match", model.QuestionTypeEssay, "gravity", "gravity", 8, 8},
		{"essay near miss", model.QuestionTypeEssay, "gravity", "Gravity", 8, 0},
		{"empty answer", model.QuestionTypeSingle, "A", "", 10, 0},
		{"unknown type never scores", model.QuestionType("cloze"), "A", "A", 10, 0},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			q := &model.Question{
				ID:            uuid.New(),
				Type:          tt.qtype,
				CorrectAnswer: tt.key,
				Score:         tt.score,
			}
			if got := gradeAnswer(q, tt.answer); got != tt.awarded {
				t.Errorf("gradeAnswer() = %v, want %v", got, tt.awarded)
			}
		})
	}
}
