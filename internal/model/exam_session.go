package model

import (
	"time"

	"github.com/google/uuid"
)

// SessionStatus enumerates exam room states. SUBMITTED is terminal — no
// transition is reversible and a session is never deleted.
type SessionStatus string

const (
	SessionStatusNotStarted SessionStatus = "NOT_STARTED"
	SessionStatusInProgress SessionStatus = "IN_PROGRESS"
	SessionStatusSubmitted  SessionStatus = "SUBMITTED"
)

// ExamSession is one student's attempt at one paper ("exam room"). At most one
// session exists per (paper, student) pair.
type ExamSession struct {
	ID          uuid.UUID     `json:"id"`
	PaperID     uuid.UUID     `json:"paper_id"`
	StudentID   int           `json:"student_id"`
	Status      SessionStatus `json:"status"`
	StartedAt   *time.Time    `json:"started_at,omitempty"`
	SubmittedAt *time.Time    `json:"submitted_at,omitempty"`
	FinalScore  *float64      `json:"final_score,omitempty"`
	CreatedAt   time.Time     `json:"created_at"`
}

// AnswerRecord is one student answer within a session. Re-answering before
// submission overwrites the record; after submission records are immutable.
type AnswerRecord struct {
	SessionID     uuid.UUID `json:"session_id"`
	QuestionID    uuid.UUID `json:"question_id"`
	StudentAnswer string    `json:"student_answer"`
	AwardedScore  *float64  `json:"awarded_score,omitempty"`
	AnsweredAt    time.Time `json:"answered_at"`
}

// SubmitAnswerRequest is the payload for recording a single answer.
type SubmitAnswerRequest struct {
	QuestionID uuid.UUID `json:"question_id" binding:"required"`
	Answer     string    `json:"answer" binding:"required,max=4000"`
}

// RoomState is what a reconnecting client needs to resume an attempt.
type RoomState struct {
	SessionID  uuid.UUID         `json:"session_id"`
	Status     SessionStatus     `json:"status"`
	Answers    map[string]string `json:"answers"`
	FinalScore *float64          `json:"final_score,omitempty"`
}
