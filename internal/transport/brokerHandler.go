package transport

import (
	"net/http"
	"strconv"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/sirupsen/logrus"

	"github.com/ds124wfegd/WB_L3/interview/internal/service"
)

type BrokerHandler struct {
	deliveryService service.DeliveryService
}

func NewBrokerHandler(deliveryService service.DeliveryService) *BrokerHandler {
	return &BrokerHandler{deliveryService: deliveryService}
}

func (h *BrokerHandler) QueueStats(c *gin.Context) {
	stats, err := h.deliveryService.QueueStats(c.Request.Context())
	if err != nil {
		errorResponse(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"broker": h.deliveryService.Broker(),
		"stats":  stats,
	})
}

func (h *BrokerHandler) FailedTasks(c *gin.Context) {
	limit, err := strconv.Atoi(c.DefaultQuery("limit", "0"))
	if err != nil || limit < 0 {
		badRequest(c, "invalid limit")
		return
	}

	tasks, err := h.deliveryService.FailedTasks(c.Request.Context(), limit)
	if err != nil {
		errorResponse(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"tasks": tasks,
		"count": len(tasks),
	})
}

func (h *BrokerHandler) Requeue(c *gin.Context) {
	taskID := c.Param("taskId")
	if err := h.deliveryService.Requeue(c.Request.Context(), taskID); err != nil {
		errorResponse(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"message": "task requeued",
		"task_id": taskID,
	})
}

// Health reports the service as up even when delivery is down; bookings do
// not depend on the broker.
func (h *BrokerHandler) Health(version string) gin.HandlerFunc {
	return func(c *gin.Context) {
		body := gin.H{
			"status":    "ok",
			"version":   version,
			"timestamp": time.Now().UTC(),
		}

		if h != nil {
			delivery := gin.H{"broker": h.deliveryService.Broker(), "status": "ok"}
			if err := h.deliveryService.Health(c.Request.Context()); err != nil {
				logrus.WithError(err).Warn("Delivery broker health check failed")
				delivery["status"] = "unavailable"
				body["status"] = "degraded"
			}
			body["delivery"] = delivery
		}

		c.JSON(http.StatusOK, body)
	}
}
