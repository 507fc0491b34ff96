package handler

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/iexsys/iexsys-backend/internal/middleware"
	"github.com/iexsys/iexsys-backend/internal/model"
	"github.com/iexsys/iexsys-backend/internal/response"
	"github.com/iexsys/iexsys-backend/internal/service"
	"github.com/iexsys/iexsys-backend/internal/validator"
)

// ExamRoomHandler handles student-facing exam session endpoints.
type ExamRoomHandler struct {
	roomService *service.ExamRoomService
}

// NewExamRoomHandler creates a new ExamRoomHandler.
func NewExamRoomHandler(roomService *service.ExamRoomService) *ExamRoomHandler {
	return &ExamRoomHandler{roomService: roomService}
}

// JoinExam godoc
// POST /api/v1/student/papers/:paper_id/join
// Creates or returns the student's session for the paper.
func (h *ExamRoomHandler) JoinExam(c *gin.Context) {
	claims := middleware.GetClaims(c)
	if claims == nil {
		response.Fail(c, http.StatusUnauthorized, response.ErrTokenRequired)
		return
	}

	paperID, err := uuid.Parse(c.Param("paper_id"))
	if err != nil {
		response.Fail(c, http.StatusBadRequest, response.ErrInvalidID)
		return
	}

	session, err := h.roomService.Join(c.Request.Context(), paperID, claims.UserID)
	if err != nil {
		failRoom(c, err)
		return
	}

	response.Success(c, http.StatusOK, gin.H{"session": session})
}

// StartExam godoc
// POST /api/v1/student/rooms/:room_id/start
func (h *ExamRoomHandler) StartExam(c *gin.Context) {
	sessionID, ok := h.ownedSession(c)
	if !ok {
		return
	}

	if err := h.roomService.Start(c.Request.Context(), sessionID); err != nil {
		failRoom(c, err)
		return
	}

	response.Success(c, http.StatusOK, gin.H{})
}

// SubmitAnswer godoc
// PUT /api/v1/student/rooms/:room_id/answers
// Records (or overwrites) the answer to one question.
func (h *ExamRoomHandler) SubmitAnswer(c *gin.Context) {
	sessionID, ok := h.ownedSession(c)
	if !ok {
		return
	}

	var req model.SubmitAnswerRequest
	if fields := validator.Bind(c, &req); fields != nil {
		response.FailWithFields(c, http.StatusBadRequest, response.ErrValidation, fields)
		return
	}

	if err := h.roomService.RecordAnswer(c.Request.Context(), sessionID, req.QuestionID, req.Answer); err != nil {
		failRoom(c, err)
		return
	}

	response.Success(c, http.StatusOK, gin.H{})
}

// SubmitExam godoc
// POST /api/v1/student/rooms/:room_id/submit
// Finalizes the session, grades every answer, and returns the final score.
func (h *ExamRoomHandler) SubmitExam(c *gin.Context) {
	sessionID, ok := h.ownedSession(c)
	if !ok {
		return
	}

	finalScore, err := h.roomService.Submit(c.Request.Context(), sessionID)
	if err != nil {
		failRoom(c, err)
		return
	}

	response.Success(c, http.StatusOK, gin.H{"final_score": finalScore})
}

// GetQuestions godoc
// GET /api/v1/student/rooms/:room_id/questions
// Returns the paper's questions without answer keys.
func (h *ExamRoomHandler) GetQuestions(c *gin.Context) {
	sessionID, ok := h.ownedSession(c)
	if !ok {
		return
	}

	questions, err := h.roomService.GetQuestions(c.Request.Context(), sessionID)
	if err != nil {
		failRoom(c, err)
		return
	}
	if questions == nil {
		questions = []model.QuestionPublic{}
	}

	response.Success(c, http.StatusOK, gin.H{"questions": questions})
}

// GetState godoc
// GET /api/v1/student/rooms/:room_id/state
// Returns session status, recorded answers, and the final score once submitted.
func (h *ExamRoomHandler) GetState(c *gin.Context) {
	sessionID, ok := h.ownedSession(c)
	if !ok {
		return
	}

	state, err := h.roomService.GetState(c.Request.Context(), sessionID)
	if err != nil {
		failRoom(c, err)
		return
	}

	response.Success(c, http.StatusOK, gin.H{"state": state})
}

// ListSessions godoc
// GET /api/v1/student/rooms
// Lists the student's sessions across all papers.
func (h *ExamRoomHandler) ListSessions(c *gin.Context) {
	claims := middleware.GetClaims(c)
	if claims == nil {
		response.Fail(c, http.StatusUnauthorized, response.ErrTokenRequired)
		return
	}

	sessions, err := h.roomService.ListByStudent(c.Request.Context(), claims.UserID)
	if err != nil {
		response.Fail(c, http.StatusInternalServerError, response.ErrInternal)
		return
	}
	if sessions == nil {
		sessions = []model.ExamSession{}
	}

	response.Success(c, http.StatusOK, gin.H{"sessions": sessions})
}

// ownedSession parses the room id and verifies it belongs to the caller.
func (h *ExamRoomHandler) ownedSession(c *gin.Context) (uuid.UUID, bool) {
	claims := middleware.GetClaims(c)
	if claims == nil {
		response.Fail(c, http.StatusUnauthorized, response.ErrTokenRequired)
		return uuid.Nil, false
	}

	sessionID, err := uuid.Parse(c.Param("room_id"))
	if err != nil {
		response.Fail(c, http.StatusBadRequest, response.ErrInvalidID)
		return uuid.Nil, false
	}

	if err := h.roomService.VerifySessionOwner(c.Request.Context(), sessionID, claims.UserID); err != nil {
		failRoom(c, err)
		return uuid.Nil, false
	}
	return sessionID, true
}

// failRoom maps exam room service errors onto API error codes.
func failRoom(c *gin.Context, err error) {
	switch {
	case errors.Is(err, service.ErrSessionNotFound):
		response.Fail(c, http.StatusNotFound, response.ErrNotFound)
	case errors.Is(err, service.ErrPaperNotFound):
		response.Fail(c, http.StatusNotFound, response.ErrPaperNotFound)
	case errors.Is(err, service.ErrPaperNotPublished):
		response.Fail(c, http.StatusForbidden, response.ErrPaperIsDraft)
	case errors.Is(err, service.ErrInvalidState):
		response.Fail(c, http.StatusConflict, response.ErrInvalidState)
	case errors.Is(err, service.ErrAlreadySubmitted):
		response.Fail(c, http.StatusConflict, response.ErrAlreadySubmitted)
	default:
		response.Fail(c, http.StatusInternalServerError, response.ErrInternal)
	}
}
