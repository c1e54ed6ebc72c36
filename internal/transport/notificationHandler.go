package transport

import (
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"

	"github.com/ds124wfegd/WB_L3/interview/internal/entity"
	"github.com/ds124wfegd/WB_L3/interview/internal/service"
)

type NotificationHandler struct {
	notificationService service.NotificationService
}

func NewNotificationHandler(notificationService service.NotificationService) *NotificationHandler {
	return &NotificationHandler{notificationService: notificationService}
}

// List serves one page of an interviewer's notifications. read=true selects
// the read ones, anything else the unread ones.
func (h *NotificationHandler) List(c *gin.Context) {
	id, ok := paramID(c, "id")
	if !ok {
		return
	}

	page, err := strconv.Atoi(c.DefaultQuery("page", "0"))
	if err != nil {
		badRequest(c, "invalid page")
		return
	}

	var result *entity.NotificationPage
	if c.Query("read") == "true" {
		result, err = h.notificationService.ListRead(c.Request.Context(), id, page)
	} else {
		result, err = h.notificationService.ListUnread(c.Request.Context(), id, page)
	}
	if err != nil {
		errorResponse(c, err)
		return
	}

	c.JSON(http.StatusOK, result)
}

func (h *NotificationHandler) CountUnread(c *gin.Context) {
	id, ok := paramID(c, "id")
	if !ok {
		return
	}

	count, err := h.notificationService.CountUnread(c.Request.Context(), id)
	if err != nil {
		errorResponse(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"unread": count})
}

func (h *NotificationHandler) MarkRead(c *gin.Context) {
	id, ok := paramID(c, "id")
	if !ok {
		return
	}

	n, err := h.notificationService.MarkRead(c.Request.Context(), id)
	if err != nil {
		errorResponse(c, err)
		return
	}

	c.JSON(http.StatusOK, n)
}
