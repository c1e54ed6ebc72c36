package transport

import (
	"time"

	"github.com/gin-gonic/gin"

	"github.com/ds124wfegd/WB_L3/interview/internal/transport/middleware"
)

type Handlers struct {
	Booking      *BookingHandler
	Slot         *SlotHandler
	User         *UserHandler
	Notification *NotificationHandler
	Admin        *AdminHandler
	// Broker is optional. Without it the delivery admin routes are not mounted.
	Broker *BrokerHandler
}

type RouterOptions struct {
	AppVersion     string
	AllowedOrigins []string
	RequestTimeout time.Duration
	// Limiter guards booking writes. Nil disables rate limiting.
	Limiter *middleware.LimiterStore
}

func InitRoutes(h *Handlers, opts RouterOptions) *gin.Engine {
	router := gin.New()

	router.Use(gin.Recovery())
	router.Use(middleware.RequestID())
	router.Use(middleware.CORS(opts.AllowedOrigins))
	router.Use(middleware.Logger())
	router.Use(middleware.Timeout(opts.RequestTimeout))

	api := router.Group("/api/v1")
	{
		bookings := api.Group("/bookings")
		{
			writes := bookings.Group("", middleware.RateLimit(opts.Limiter))
			writes.POST("", h.Booking.Book)
			writes.PUT("/:id/reschedule", h.Booking.Reschedule)
			writes.DELETE("/:id", h.Booking.Cancel)

			bookings.GET("/:id", h.Booking.GetBooking)
		}

		candidates := api.Group("/candidates")
		{
			candidates.POST("", h.User.RegisterCandidate)
			candidates.GET("/:id", h.User.GetCandidate)
			candidates.PUT("/:id/contact", h.User.UpdateContact)
			candidates.GET("/:id/bookings/active", h.Booking.ListActiveForCandidate)
		}

		interviewers := api.Group("/interviewers")
		{
			interviewers.POST("", h.User.CreateInterviewer)
			interviewers.GET("", h.User.ListInterviewers)
			interviewers.GET("/:id", h.User.GetInterviewer)
			interviewers.POST("/:id/slots", h.Slot.GenerateSlots)
			interviewers.GET("/:id/slots", h.Slot.ListForInterviewer)
			interviewers.GET("/:id/bookings", h.Booking.ListForInterviewer)
			interviewers.GET("/:id/notifications", h.Notification.List)
			interviewers.GET("/:id/notifications/unread/count", h.Notification.CountUnread)
		}

		api.GET("/slots/available", h.Slot.ListAvailable)
		api.PUT("/notifications/:id/read", h.Notification.MarkRead)

		admin := api.Group("/admin")
		{
			admin.GET("/stats", h.Admin.Stats)
			admin.POST("/reset", h.Admin.Reset)

			if h.Broker != nil {
				admin.GET("/delivery", h.Broker.QueueStats)
				admin.GET("/delivery/dlq", h.Broker.FailedTasks)
				admin.POST("/delivery/dlq/:taskId/requeue", h.Broker.Requeue)
			}
		}
	}

	router.GET("/health", h.Broker.Health(opts.AppVersion))

	return router
}
