package transport

import (
	"net/http"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/ds124wfegd/WB_L3/interview/internal/service"
)

type BookingHandler struct {
	bookingService service.BookingService
}

func NewBookingHandler(bookingService service.BookingService) *BookingHandler {
	return &BookingHandler{bookingService: bookingService}
}

func (h *BookingHandler) Book(c *gin.Context) {
	var req service.BookRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, err.Error())
		return
	}

	booking, err := h.bookingService.Book(c.Request.Context(), &req)
	if err != nil {
		errorResponse(c, err)
		return
	}

	c.JSON(http.StatusCreated, booking)
}

func (h *BookingHandler) Reschedule(c *gin.Context) {
	id, ok := paramID(c, "id")
	if !ok {
		return
	}

	var req service.RescheduleRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, err.Error())
		return
	}

	booking, err := h.bookingService.Reschedule(c.Request.Context(), id, req.NewSlotID)
	if err != nil {
		errorResponse(c, err)
		return
	}

	c.JSON(http.StatusOK, booking)
}

func (h *BookingHandler) Cancel(c *gin.Context) {
	id, ok := paramID(c, "id")
	if !ok {
		return
	}

	if err := h.bookingService.Cancel(c.Request.Context(), id); err != nil {
		errorResponse(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"message": "booking cancelled"})
}

func (h *BookingHandler) GetBooking(c *gin.Context) {
	id, ok := paramID(c, "id")
	if !ok {
		return
	}

	booking, err := h.bookingService.GetBooking(c.Request.Context(), id)
	if err != nil {
		errorResponse(c, err)
		return
	}

	c.JSON(http.StatusOK, booking)
}

func (h *BookingHandler) ListActiveForCandidate(c *gin.Context) {
	id, ok := paramID(c, "id")
	if !ok {
		return
	}

	bookings, err := h.bookingService.ListActiveBookingsForCandidate(c.Request.Context(), id, time.Now())
	if err != nil {
		errorResponse(c, err)
		return
	}

	c.JSON(http.StatusOK, bookings)
}

func (h *BookingHandler) ListForInterviewer(c *gin.Context) {
	id, ok := paramID(c, "id")
	if !ok {
		return
	}

	bookings, err := h.bookingService.ListBookingsForInterviewer(c.Request.Context(), id)
	if err != nil {
		errorResponse(c, err)
		return
	}

	c.JSON(http.StatusOK, bookings)
}
