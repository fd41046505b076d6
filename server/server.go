package server

import (
	"context"
	"fmt"
	"io"
	"log"
	"net/http"
	"os"
	"os/signal"
	"runtime/debug"
	"syscall"
	"time"

	gosmtp "github.com/emersion/go-smtp"
	"github.com/gin-gonic/gin"
	"github.com/opentracing/opentracing-go"
	"github.com/opentracing/opentracing-go/ext"
	"gorm.io/gorm"

	"github.com/receiptops/receiptstack/api"
	"github.com/receiptops/receiptstack/config"
	"github.com/receiptops/receiptstack/internal/cron"
	"github.com/receiptops/receiptstack/internal/logger"
	"github.com/receiptops/receiptstack/internal/repository"
	"github.com/receiptops/receiptstack/internal/tracing"
	"github.com/receiptops/receiptstack/services"
	"github.com/receiptops/receiptstack/services/smtp"
)

type Server struct {
	config       *config.Config
	log          logger.Logger
	httpServer   *http.Server
	smtpServer   *gosmtp.Server
	router       *gin.Engine
	services     *services.Services
	repositories *repository.Repositories
	cronManager  *cron.CronManager
	tracerCloser io.Closer
}

func NewServer(cfg *config.Config, db *gorm.DB) (*Server, error) {
	// Initialize logger
	appLogger := logger.NewAppLogger(cfg.Logger)
	appLogger.InitLogger()

	// Initialize tracing
	tracer, closer, err := tracing.NewJaegerTracer(cfg.Tracing, appLogger)
	if err != nil {
		log.Fatalf("Could not initialize jaeger tracer: %s", err.Error())
	}
	opentracing.SetGlobalTracer(tracer)

	// Initialize repositories
	repos := repository.InitRepositories(db)

	// Initialize services
	svcs, err := services.InitServices(cfg, appLogger, repos)
	if err != nil {
		return nil, err
	}

	// Inbound SMTP listener feeding the processing pipeline
	smtpBackend := smtp.NewBackend(appLogger, cfg.SMTPServerConfig, repos.AllowedSenderRepository, svcs.EmailProcessor)
	smtpServer := smtp.NewServer(smtpBackend, cfg.SMTPServerConfig)

	cronManager := cron.NewCronManager(cfg.CronConfig, appLogger, svcs.FixFlowService)

	// Initialize Gin
	gin.SetMode(gin.ReleaseMode)
	router := gin.Default()

	return &Server{
		config:       cfg,
		log:          appLogger,
		router:       router,
		services:     svcs,
		repositories: repos,
		smtpServer:   smtpServer,
		cronManager:  cronManager,
		tracerCloser: closer,
		httpServer: &http.Server{
			Addr:    ":" + cfg.AppConfig.APIPort,
			Handler: router,
		},
	}, nil
}

func (s *Server) Initialize(ctx context.Context) error {
	api.RegisterRoutes(ctx, s.router, s.services, s.repositories, s.log, s.config.AppConfig.APIKey)
	return nil
}

func (s *Server) recoverWithJaeger(name string) {
	if r := recover(); r != nil {
		span := opentracing.GlobalTracer().StartSpan(
			fmt.Sprintf("panic.%s", name),
		)
		defer span.Finish()

		ext.Error.Set(span, true)

		span.LogKV(
			"event", "panic",
			"process", name,
			"error", fmt.Sprintf("%v", r),
			"stack", string(debug.Stack()),
		)

		log.Printf("❌ Panic in %s: %v\n%s", name, r, debug.Stack())
	}
}

func (s *Server) wrapGoroutine(name string, fn func()) {
	defer s.recoverWithJaeger(name)
	fn()
}

func (s *Server) Run() error {
	// Create root context for the application
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	// Initialize server components
	if err := s.Initialize(ctx); err != nil {
		return err
	}

	// Start the SMTP listener with panic recovery
	go s.wrapGoroutine("smtp_server", func() {
		log.Printf("Starting SMTP server on %s", s.smtpServer.Addr)
		if err := s.smtpServer.ListenAndServe(); err != nil {
			log.Printf("❌ SMTP server error: %v", err)
		}
	})
	log.Println("✅ SMTP server started successfully")

	// Start the IMAP poller with panic recovery
	s.wrapGoroutine("imap_poller", func() {
		if err := s.services.IMAPPoller.Start(ctx); err != nil {
			log.Printf("❌ IMAP poller error: %v", err)
		}
	})
	log.Println("✅ IMAP poller started successfully")

	// Start scheduled jobs
	s.cronManager.Start()
	log.Println("✅ Cron manager started successfully")

	// Start HTTP server in a goroutine with panic recovery
	go s.wrapGoroutine("http_server", func() {
		log.Println("Starting HTTP server")
		if err := s.httpServer.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Printf("❌ HTTP server error: %v", err)
		}
	})
	log.Println("✅ HTTP server started successfully")
	log.Println("ReceiptStack is now running. Press Ctrl+C to exit.")

	return s.waitForShutdown()
}

func (s *Server) waitForShutdown() error {
	defer s.recoverWithJaeger("shutdown")

	// Set up signal handling for graceful shutdown
	stop := make(chan os.Signal, 1)
	signal.Notify(stop, os.Interrupt, syscall.SIGTERM)

	// Wait for termination signal
	<-stop
	log.Println("Shutting down...")

	// Create a context with timeout for shutdown
	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 15*time.Second)
	defer shutdownCancel()

	// Stop accepting inbound mail first so nothing new enters the pipeline
	log.Println("Shutting down SMTP server...")
	if err := s.smtpServer.Shutdown(shutdownCtx); err != nil {
		log.Printf("❌ SMTP server shutdown error: %v", err)
	} else {
		log.Println("✅ SMTP server shut down successfully")
	}

	log.Println("Shutting down HTTP server...")
	if s.tracerCloser != nil {
		s.tracerCloser.Close()
	}

	if err := s.httpServer.Shutdown(shutdownCtx); err != nil {
		log.Printf("❌ HTTP server shutdown error: %v", err)
	} else {
		log.Println("✅ HTTP server shut down successfully")
	}

	// Stop IMAP poller with timeout and panic recovery
	log.Println("Stopping IMAP poller...")
	stopDone := make(chan struct{})
	go s.wrapGoroutine("imap_poller_shutdown", func() {
		defer close(stopDone)
		if err := s.services.IMAPPoller.Stop(); err != nil {
			log.Printf("❌ IMAP poller shutdown error: %v", err)
		} else {
			log.Println("✅ IMAP poller stopped successfully")
		}
	})

	// Wait for IMAP poller to stop with timeout
	select {
	case <-stopDone:
		log.Println("IMAP poller stopped gracefully")
	case <-time.After(10 * time.Second):
		log.Println("⚠️ IMAP poller stop timed out, forcing exit")
	}

	// Let running cron jobs finish
	s.cronManager.Stop()

	return nil
}
