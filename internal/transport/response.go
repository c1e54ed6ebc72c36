package transport

import (
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"
	"github.com/sirupsen/logrus"

	"github.com/ds124wfegd/WB_L3/interview/internal/entity"
)

// statusFor maps a service error to an HTTP status.
func statusFor(err error) int {
	switch {
	case entity.IsNotFound(err):
		return http.StatusNotFound
	case entity.IsValidation(err):
		return http.StatusBadRequest
	case entity.IsConflict(err):
		return http.StatusConflict
	case entity.IsTimeout(err):
		return http.StatusServiceUnavailable
	default:
		return http.StatusInternalServerError
	}
}

func errorResponse(c *gin.Context, err error) {
	status := statusFor(err)
	c.Error(err)

	msg := err.Error()
	if status == http.StatusInternalServerError {
		logrus.WithField("path", c.FullPath()).WithError(err).Error("Request failed with internal error")
		msg = "internal server error"
	}
	c.JSON(status, gin.H{"error": msg})
}

func badRequest(c *gin.Context, msg string) {
	c.JSON(http.StatusBadRequest, gin.H{"error": msg})
}

func paramID(c *gin.Context, name string) (int64, bool) {
	id, err := strconv.ParseInt(c.Param(name), 10, 64)
	if err != nil || id <= 0 {
		badRequest(c, "invalid "+name)
		return 0, false
	}
	return id, true
}
