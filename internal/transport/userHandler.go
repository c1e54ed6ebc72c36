package transport

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/ds124wfegd/WB_L3/interview/internal/service"
)

type UserHandler struct {
	candidateService   service.CandidateService
	interviewerService service.InterviewerService
}

func NewUserHandler(candidates service.CandidateService, interviewers service.InterviewerService) *UserHandler {
	return &UserHandler{candidateService: candidates, interviewerService: interviewers}
}

// RegisterCandidate answers 201 for a new candidate and 200 with the latest
// booking when the email is already registered.
func (h *UserHandler) RegisterCandidate(c *gin.Context) {
	var req service.RegisterCandidateRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, err.Error())
		return
	}

	reg, err := h.candidateService.Register(c.Request.Context(), &req)
	if err != nil {
		errorResponse(c, err)
		return
	}

	status := http.StatusCreated
	if reg.Existing {
		status = http.StatusOK
	}
	c.JSON(status, reg)
}

func (h *UserHandler) GetCandidate(c *gin.Context) {
	id, ok := paramID(c, "id")
	if !ok {
		return
	}

	candidate, err := h.candidateService.GetCandidate(c.Request.Context(), id)
	if err != nil {
		errorResponse(c, err)
		return
	}

	c.JSON(http.StatusOK, candidate)
}

func (h *UserHandler) UpdateContact(c *gin.Context) {
	id, ok := paramID(c, "id")
	if !ok {
		return
	}

	var req service.UpdateContactRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, err.Error())
		return
	}

	candidate, err := h.candidateService.UpdateContact(c.Request.Context(), id, &req)
	if err != nil {
		errorResponse(c, err)
		return
	}

	c.JSON(http.StatusOK, candidate)
}

func (h *UserHandler) CreateInterviewer(c *gin.Context) {
	var req service.CreateInterviewerRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, err.Error())
		return
	}

	interviewer, err := h.interviewerService.CreateInterviewer(c.Request.Context(), &req)
	if err != nil {
		errorResponse(c, err)
		return
	}

	c.JSON(http.StatusCreated, interviewer)
}

func (h *UserHandler) GetInterviewer(c *gin.Context) {
	id, ok := paramID(c, "id")
	if !ok {
		return
	}

	interviewer, err := h.interviewerService.GetInterviewer(c.Request.Context(), id)
	if err != nil {
		errorResponse(c, err)
		return
	}

	c.JSON(http.StatusOK, interviewer)
}

func (h *UserHandler) ListInterviewers(c *gin.Context) {
	interviewers, err := h.interviewerService.ListInterviewers(c.Request.Context())
	if err != nil {
		errorResponse(c, err)
		return
	}

	c.JSON(http.StatusOK, interviewers)
}
