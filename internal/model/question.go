package model

import (
	"encoding/json"
	"time"

	"github.com/google/uuid"
)

// QuestionType enumerates the supported question variants.
type QuestionType string

const (
	QuestionTypeSingle   QuestionType = "single"   // single choice
	QuestionTypeMultiple QuestionType = "multiple" // multiple choice
	QuestionTypeJudge    QuestionType = "judge"    // true/false
	QuestionTypeEssay    QuestionType = "essay"    // short answer, graded verbatim
)

// Valid reports whether t is a recognized question type.
func (t QuestionType) Valid() bool {
	switch t {
	case QuestionTypeSingle, QuestionTypeMultiple, QuestionTypeJudge, QuestionTypeEssay:
		return true
	}
	return false
}

// Question is the full internal projection, answer key included. It must never
// be serialized to students — use QuestionPublic for anything student-facing.
type Question struct {
	ID            uuid.UUID       `json:"id"`
	Type          QuestionType    `json:"type"`
	Title         string          `json:"title"`
	Options       json.RawMessage `json:"options,omitempty"`
	CorrectAnswer string          `json:"correct_answer"`
	Analysis      string          `json:"analysis,omitempty"`
	Score         float64         `json:"score"`
	Difficulty    int             `json:"difficulty"`
	CreatorID     int             `json:"creator_id"`
	TagIDs        []int           `json:"tag_ids,omitempty"`
	CreatedAt     time.Time       `json:"created_at"`
	UpdatedAt     time.Time       `json:"updated_at"`
}

// QuestionPublic is the student-facing projection. The answer key and analysis
// do not exist on this type, so stripping them is guaranteed at compile time.
type QuestionPublic struct {
	ID          uuid.UUID       `json:"id"`
	Type        QuestionType    `json:"type"`
	Title       string          `json:"title"`
	Options     json.RawMessage `json:"options,omitempty"`
	Score       float64         `json:"score"`
	SequenceNum int             `json:"sequence_num"`
}

// CreateQuestionRequest is the payload for authoring a question.
type CreateQuestionRequest struct {
	Type          string          `json:"type" binding:"required,oneof=single multiple judge essay"`
	Title         string          `json:"title" binding:"required,min=1,max=2000"`
	Options       json.RawMessage `json:"options" binding:"omitempty"`
	CorrectAnswer string          `json:"correct_answer" binding:"required,max=2000"`
	Analysis      string          `json:"analysis" binding:"omitempty,max=4000"`
	Score         float64         `json:"score" binding:"required,gt=0"`
	Difficulty    int             `json:"difficulty" binding:"omitempty,min=1,max=3"`
	TagIDs        []int           `json:"tag_ids" binding:"omitempty,dive,min=1"`
}

// UpdateQuestionRequest is the payload for editing a question.
type UpdateQuestionRequest struct {
	Title         string          `json:"title" binding:"omitempty,min=1,max=2000"`
	Options       json.RawMessage `json:"options" binding:"omitempty"`
	CorrectAnswer string          `json:"correct_answer" binding:"omitempty,max=2000"`
	Analysis      string          `json:"analysis" binding:"omitempty,max=4000"`
	Score         float64         `json:"score" binding:"omitempty,gt=0"`
	Difficulty    int             `json:"difficulty" binding:"omitempty,min=1,max=3"`
	TagIDs        []int           `json:"tag_ids" binding:"omitempty,dive,min=1"`
}
