package transport

import (
	"net/http"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/ds124wfegd/WB_L3/interview/internal/service"
)

type SlotHandler struct {
	slotService service.SlotService
}

func NewSlotHandler(slotService service.SlotService) *SlotHandler {
	return &SlotHandler{slotService: slotService}
}

func (h *SlotHandler) GenerateSlots(c *gin.Context) {
	id, ok := paramID(c, "id")
	if !ok {
		return
	}

	var req service.GenerateSlotsRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, err.Error())
		return
	}
	req.InterviewerID = id

	slots, err := h.slotService.GenerateSlots(c.Request.Context(), &req)
	if err != nil {
		errorResponse(c, err)
		return
	}

	c.JSON(http.StatusCreated, slots)
}

func (h *SlotHandler) ListAvailable(c *gin.Context) {
	slots, err := h.slotService.ListAvailable(c.Request.Context())
	if err != nil {
		errorResponse(c, err)
		return
	}

	c.JSON(http.StatusOK, slots)
}

// ListForInterviewer takes optional RFC 3339 from and to query parameters.
func (h *SlotHandler) ListForInterviewer(c *gin.Context) {
	id, ok := paramID(c, "id")
	if !ok {
		return
	}

	from, err := queryTime(c, "from")
	if err != nil {
		badRequest(c, "invalid from, expected RFC 3339")
		return
	}
	to, err := queryTime(c, "to")
	if err != nil {
		badRequest(c, "invalid to, expected RFC 3339")
		return
	}

	slots, err := h.slotService.ListForInterviewer(c.Request.Context(), id, from, to)
	if err != nil {
		errorResponse(c, err)
		return
	}

	c.JSON(http.StatusOK, slots)
}

func queryTime(c *gin.Context, name string) (time.Time, error) {
	raw := c.Query(name)
	if raw == "" {
		return time.Time{}, nil
	}
	return time.Parse(time.RFC3339, raw)
}
