package handler

import (
	"errors"
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/iexsys/iexsys-backend/internal/middleware"
	"github.com/iexsys/iexsys-backend/internal/model"
	"github.com/iexsys/iexsys-backend/internal/response"
	"github.com/iexsys/iexsys-backend/internal/service"
	"github.com/iexsys/iexsys-backend/internal/validator"
)

// PaperHandler handles paper management and assembly endpoints.
type PaperHandler struct {
	paperService *service.PaperService
}

// NewPaperHandler creates a new PaperHandler.
func NewPaperHandler(paperService *service.PaperService) *PaperHandler {
	return &PaperHandler{paperService: paperService}
}

// ListPapers godoc
// GET /api/v1/teacher/papers
func (h *PaperHandler) ListPapers(c *gin.Context) {
	claims := middleware.GetClaims(c)
	if claims == nil {
		response.Fail(c, http.StatusUnauthorized, response.ErrTokenRequired)
		return
	}

	papers, err := h.paperService.ListByCreator(c.Request.Context(), claims.UserID)
	if err != nil {
		response.Fail(c, http.StatusInternalServerError, response.ErrInternal)
		return
	}
	if papers == nil {
		papers = []model.Paper{}
	}
	response.Success(c, http.StatusOK, gin.H{"papers": papers})
}

// GetPaper godoc
// GET /api/v1/teacher/papers/:paper_id
func (h *PaperHandler) GetPaper(c *gin.Context) {
	id, err := uuid.Parse(c.Param("paper_id"))
	if err != nil {
		response.Fail(c, http.StatusBadRequest, response.ErrInvalidID)
		return
	}

	paper, err := h.paperService.GetWithQuestions(c.Request.Context(), id)
	if err != nil {
		if errors.Is(err, service.ErrPaperNotFound) {
			response.Fail(c, http.StatusNotFound, response.ErrPaperNotFound)
			return
		}
		response.Fail(c, http.StatusInternalServerError, response.ErrInternal)
		return
	}

	response.Success(c, http.StatusOK, gin.H{"paper": paper})
}

// CreatePaper godoc
// POST /api/v1/teacher/papers
// Creates a paper, optionally assembling it from rules in the same request.
func (h *PaperHandler) CreatePaper(c *gin.Context) {
	claims := middleware.GetClaims(c)
	if claims == nil {
		response.Fail(c, http.StatusUnauthorized, response.ErrTokenRequired)
		return
	}

	var req model.CreatePaperRequest
	if fields := validator.Bind(c, &req); fields != nil {
		response.FailWithFields(c, http.StatusBadRequest, response.ErrValidation, fields)
		return
	}

	paper, err := h.paperService.Create(c.Request.Context(), claims.UserID, &req)
	if err != nil {
		failAssembly(c, err)
		return
	}

	response.Success(c, http.StatusCreated, gin.H{"paper": paper})
}

// AssemblePaper godoc
// POST /api/v1/teacher/papers/:paper_id/assemble
// Replaces the paper's entry set with a rule-driven random selection.
func (h *PaperHandler) AssemblePaper(c *gin.Context) {
	id, err := uuid.Parse(c.Param("paper_id"))
	if err != nil {
		response.Fail(c, http.StatusBadRequest, response.ErrInvalidID)
		return
	}

	var req model.AssembleRequest
	if fields := validator.Bind(c, &req); fields != nil {
		response.FailWithFields(c, http.StatusBadRequest, response.ErrValidation, fields)
		return
	}

	paper, err := h.paperService.Assemble(c.Request.Context(), id, req.Rules)
	if err != nil {
		failAssembly(c, err)
		return
	}

	response.Success(c, http.StatusOK, gin.H{"paper": paper})
}

// AdjustPaper godoc
// PUT /api/v1/teacher/papers/:paper_id/questions
// Replaces the paper's entry set with explicit entries (manual adjustment).
func (h *PaperHandler) AdjustPaper(c *gin.Context) {
	id, err := uuid.Parse(c.Param("paper_id"))
	if err != nil {
		response.Fail(c, http.StatusBadRequest, response.ErrInvalidID)
		return
	}

	var req model.AdjustRequest
	if fields := validator.Bind(c, &req); fields != nil {
		response.FailWithFields(c, http.StatusBadRequest, response.ErrValidation, fields)
		return
	}

	paper, err := h.paperService.AdjustQuestions(c.Request.Context(), id, req.Items, req.Draft)
	if err != nil {
		failAssembly(c, err)
		return
	}

	response.Success(c, http.StatusOK, gin.H{"paper": paper})
}

// failAssembly maps paper service errors onto API error codes.
func failAssembly(c *gin.Context, err error) {
	var insufficientErr *service.InsufficientQuestionsError
	switch {
	case errors.Is(err, service.ErrPaperNotFound):
		response.Fail(c, http.StatusNotFound, response.ErrPaperNotFound)
	case errors.Is(err, service.ErrEmptyRules):
		response.Fail(c, http.StatusBadRequest, response.ErrEmptyRules)
	case errors.Is(err, service.ErrEmptyEntries):
		response.Fail(c, http.StatusBadRequest, response.ErrEmptyEntries)
	case errors.Is(err, service.ErrUnknownQuestionType):
		response.Fail(c, http.StatusBadRequest, response.ErrUnknownQuestionType)
	case errors.Is(err, service.ErrInvalidRuleCount):
		response.Fail(c, http.StatusBadRequest, response.ErrValidation)
	case errors.Is(err, service.ErrDuplicatePaperEntry):
		response.Fail(c, http.StatusBadRequest, response.ErrDuplicateEntry)
	case errors.As(err, &insufficientErr):
		response.FailWithFields(c, http.StatusUnprocessableEntity, response.ErrInsufficientQuestions, map[string]string{
			"question_type": string(insufficientErr.QuestionType),
			"requested":     strconv.Itoa(insufficientErr.Requested),
			"available":     strconv.Itoa(insufficientErr.Available),
		})
	default:
		response.Fail(c, http.StatusInternalServerError, response.ErrInternal)
	}
}
