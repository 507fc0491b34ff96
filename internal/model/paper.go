package model

import (
	"time"

	"github.com/google/uuid"
)

// Paper is a named, scored collection of selected questions. TotalScore is
// always recomputed from the current entry set, never stored independently.
type Paper struct {
	ID         uuid.UUID `json:"id"`
	Name       string    `json:"name"`
	CreatorID  int       `json:"creator_id"`
	TotalScore float64   `json:"total_score"`
	Draft      bool      `json:"draft"`
	CreatedAt  time.Time `json:"created_at"`
	UpdatedAt  time.Time `json:"updated_at"`
}

// PaperQuestionEntry places one question on a paper with an assigned score and
// position. Question ids are unique within a paper.
type PaperQuestionEntry struct {
	PaperID     uuid.UUID `json:"paper_id"`
	QuestionID  uuid.UUID `json:"question_id"`
	Score       float64   `json:"score"`
	SequenceNum int       `json:"sequence_num"`
}

// AssemblyRule directs the assembler to pick a number of questions of one type,
// optionally overriding each picked question's default score.
type AssemblyRule struct {
	QuestionType     QuestionType `json:"question_type" binding:"required"`
	Count            int          `json:"count" binding:"required,min=1"`
	ScorePerQuestion *float64     `json:"score_per_question" binding:"omitempty,gt=0"`
}

// CreatePaperRequest creates a paper, optionally assembling it in the same call.
type CreatePaperRequest struct {
	Name  string         `json:"name" binding:"required,min=1,max=255"`
	Draft *bool          `json:"draft" binding:"omitempty"`
	Rules []AssemblyRule `json:"rules" binding:"omitempty,dive"`
}

// AssembleRequest is the payload for rule-driven paper assembly.
type AssembleRequest struct {
	Rules []AssemblyRule `json:"rules" binding:"required,min=1,dive"`
}

// AdjustItem is one caller-supplied paper entry for manual adjustment.
type AdjustItem struct {
	QuestionID  uuid.UUID `json:"question_id" binding:"required"`
	Score       float64   `json:"score" binding:"required,gt=0"`
	SequenceNum int       `json:"sequence_num" binding:"required,min=1"`
}

// AdjustRequest replaces a paper's entry set with explicit entries.
type AdjustRequest struct {
	Items []AdjustItem `json:"items" binding:"required,min=1,dive"`
	Draft *bool        `json:"draft" binding:"omitempty"`
}

// PaperWithQuestions bundles a paper with its ordered entry set.
type PaperWithQuestions struct {
	Paper   Paper                `json:"paper"`
	Entries []PaperQuestionEntry `json:"entries"`
}
