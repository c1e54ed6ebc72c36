package appServer

import (
	"context"
	"crypto/tls"
	"errors"
	"fmt"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/sirupsen/logrus"
	"golang.org/x/sync/errgroup"

	"github.com/ds124wfegd/WB_L3/interview/config"
	"github.com/ds124wfegd/WB_L3/interview/internal/database"
	"github.com/ds124wfegd/WB_L3/interview/internal/database/memory"
	repository "github.com/ds124wfegd/WB_L3/interview/internal/database/postgres"
	"github.com/ds124wfegd/WB_L3/interview/internal/service"
	"github.com/ds124wfegd/WB_L3/interview/internal/transport"
	"github.com/ds124wfegd/WB_L3/interview/internal/transport/middleware"
	"github.com/ds124wfegd/WB_L3/interview/internal/worker"
	"github.com/ds124wfegd/WB_L3/interview/pkg/postgres"
	"github.com/ds124wfegd/WB_L3/interview/pkg/telegram"
)

const shutdownTimeout = 10 * time.Second

type Server struct {
	httpServer *http.Server
}

func newHTTPServer(cfg *config.Config, handler http.Handler) *Server {
	return &Server{httpServer: &http.Server{
		Addr:              cfg.ServerAddress(),
		Handler:           handler,
		MaxHeaderBytes:    1 << 20,
		ReadTimeout:       10 * time.Second,
		WriteTimeout:      cfg.Server.Timeout,
		IdleTimeout:       cfg.Server.IdleTimeout,
		ReadHeaderTimeout: 3 * time.Second,
		TLSConfig:         &tls.Config{MinVersion: tls.VersionTLS12},
		ErrorLog:          log.New(os.Stderr, "SERVER ERROR: ", log.LstdFlags),
	}}
}

func (s *Server) Run() error {
	return s.httpServer.ListenAndServe()
}

// Shutdown also stops a server whose Run has not started yet.
func (s *Server) Shutdown(ctx context.Context) error {
	return s.httpServer.Shutdown(ctx)
}

// NewServer wires the application and blocks until SIGINT or SIGTERM.
func NewServer(cfg *config.Config) error {
	setupLogging(cfg.Log.Level)

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	storage, err := openStorage(ctx, cfg)
	if err != nil {
		return err
	}
	defer func() {
		if err := storage.Close(); err != nil {
			logrus.WithError(err).Error("Failed to close storage")
		}
	}()

	delivery := openDelivery(ctx, cfg)
	defer delivery.close()

	sink := service.NewNotificationSink(storage.Notifications, delivery.publisher)
	bookingService := service.NewBookingService(storage, sink, service.BookingOptions{TxTimeout: cfg.Booking.TxTimeout})
	slotService := service.NewSlotService(storage.Slots, storage.Interviewers, cfg.Booking.SlotGenerationWeeks)

	handlers := &transport.Handlers{
		Booking: transport.NewBookingHandler(bookingService),
		Slot:    transport.NewSlotHandler(slotService),
		User: transport.NewUserHandler(
			service.NewCandidateService(storage.Candidates, storage.Bookings),
			service.NewInterviewerService(storage.Interviewers),
		),
		Notification: transport.NewNotificationHandler(service.NewNotificationService(storage.Notifications, cfg.Booking.NotificationPageSize)),
		Admin:        transport.NewAdminHandler(service.NewAdminService(storage.Admin)),
		Broker:       transport.NewBrokerHandler(delivery.inspection()),
	}

	var limiter *middleware.LimiterStore
	if cfg.Server.RateLimitRPS > 0 {
		limiter = middleware.NewLimiterStore(cfg.Server.RateLimitRPS, cfg.Server.RateLimitBurst)
		limiter.StartJanitor(ctx, 2*time.Minute)
	}

	if cfg.Server.Mode == "release" || cfg.Server.Env == "production" {
		gin.SetMode(gin.ReleaseMode)
	}
	router := transport.InitRoutes(handlers, transport.RouterOptions{
		AppVersion:     cfg.Server.AppVersion,
		AllowedOrigins: cfg.Server.AllowedOrigins,
		RequestTimeout: cfg.Server.RequestTimeout,
		Limiter:        limiter,
	})

	g, gctx := errgroup.WithContext(ctx)

	retireWorker := worker.NewSlotRetireWorker(slotService, cfg.Worker.SlotRetireInterval, cfg.Worker.BatchSize)
	g.Go(func() error {
		retireWorker.Start(gctx)
		return nil
	})

	if cfg.Worker.DeliveryEnabled && delivery.consume != nil {
		handler := worker.NewDeliveryHandler(newMessenger(cfg), cfg.Telegram.ChatID)
		g.Go(func() error {
			return delivery.consume(gctx, handler)
		})
	}

	srv := newHTTPServer(cfg, router)
	g.Go(func() error {
		logrus.WithField("addr", cfg.ServerAddress()).Info("HTTP server started")
		if err := srv.Run(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return fmt.Errorf("http server: %w", err)
		}
		return nil
	})

	g.Go(func() error {
		<-gctx.Done()
		logrus.Info("App shutting down")

		shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
		defer cancel()
		return srv.Shutdown(shutdownCtx)
	})

	logrus.WithFields(logrus.Fields{
		"storage":  cfg.Storage.Driver,
		"delivery": delivery.name,
	}).Info("App started")

	return g.Wait()
}

func setupLogging(level string) {
	logrus.SetFormatter(&logrus.JSONFormatter{})
	logrus.SetOutput(os.Stdout)

	lvl, err := logrus.ParseLevel(level)
	if err != nil {
		logrus.WithField("level", level).Warn("Unknown log level, using info")
		lvl = logrus.InfoLevel
	}
	logrus.SetLevel(lvl)
}

func openStorage(ctx context.Context, cfg *config.Config) (*database.Storage, error) {
	switch cfg.Storage.Driver {
	case "memory":
		logrus.Warn("Using in-memory storage, data is lost on restart")
		storage, _ := memory.NewStorage()
		return storage, nil
	case "postgres", "":
		db, err := postgres.NewPostgresDB(&cfg.Database)
		if err != nil {
			return nil, fmt.Errorf("failed to initialize database: %w", err)
		}
		if err := postgres.RunMigrations(ctx, db); err != nil {
			db.Close()
			return nil, fmt.Errorf("failed to run migrations: %w", err)
		}
		return repository.NewStorage(db), nil
	default:
		return nil, fmt.Errorf("unknown storage driver %q", cfg.Storage.Driver)
	}
}

func newMessenger(cfg *config.Config) worker.Messenger {
	if !cfg.Telegram.Enabled || cfg.Telegram.BotToken == "" {
		logrus.Warn("Telegram delivery disabled, notifications are delivered to the log")
		return nil
	}
	logrus.Info("Telegram bot initialized")
	return telegram.NewBot(cfg.Telegram.BotToken)
}
