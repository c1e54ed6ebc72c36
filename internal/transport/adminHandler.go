package transport

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/ds124wfegd/WB_L3/interview/internal/service"
)

type AdminHandler struct {
	adminService service.AdminService
}

func NewAdminHandler(adminService service.AdminService) *AdminHandler {
	return &AdminHandler{adminService: adminService}
}

func (h *AdminHandler) Stats(c *gin.Context) {
	stats, err := h.adminService.Stats(c.Request.Context())
	if err != nil {
		errorResponse(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"stats":         stats,
		"total_records": stats.TotalRecords(),
	})
}

// Reset wipes all data and reports what was removed.
func (h *AdminHandler) Reset(c *gin.Context) {
	deleted, err := h.adminService.Reset(c.Request.Context())
	if err != nil {
		errorResponse(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"message":       "database reset",
		"deleted":       deleted,
		"total_records": deleted.TotalRecords(),
	})
}
