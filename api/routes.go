package api

import (
	"context"

	"github.com/gin-gonic/gin"
	"github.com/opentracing/opentracing-go"

	"github.com/receiptops/receiptstack/api/handlers"
	"github.com/receiptops/receiptstack/api/middleware"
	"github.com/receiptops/receiptstack/internal/logger"
	"github.com/receiptops/receiptstack/internal/repository"
	"github.com/receiptops/receiptstack/internal/tracing"
	"github.com/receiptops/receiptstack/services"
)

// RegisterRoutes sets up all API endpoints
func RegisterRoutes(ctx context.Context, r *gin.Engine, s *services.Services, repos *repository.Repositories, log logger.Logger, apikey string) {
	if s == nil {
		panic("Services cannot be nil")
	}
	if repos == nil {
		panic("Repositories cannot be nil")
	}

	r.Use(gin.Recovery())
	r.Use(tracing.RecoveryWithJaeger(opentracing.GlobalTracer()))

	apiHandlers := handlers.InitHandlers(log, repos, s)

	r.GET("/health", handlers.HealthCheck)

	// Tokenized public endpoints: the edit token is the credential, so no API
	// key on these. Paths match the links embedded in outgoing emails.
	r.GET("/fix/:token", apiHandlers.Fix.Get)
	r.POST("/fix/:token", apiHandlers.Fix.Submit)
	r.GET("/api/track/:token", apiHandlers.Fix.TrackOpen)

	apiKeyMiddleware := middleware.APIKeyMiddleware(middleware.APIKeyConfig{
		HeaderName:  "X-RECEIPTS-API-KEY",
		ValidAPIKey: apikey,
	})

	api := r.Group("/v1")
	api.Use(apiKeyMiddleware)
	api.Use(middleware.TracingMiddleware())
	{
		senders := api.Group("/senders")
		{
			senders.GET("", apiHandlers.Senders.List)
			senders.POST("", apiHandlers.Senders.Add)
			senders.DELETE("/:id", apiHandlers.Senders.Remove)
		}

		inbox := api.Group("/inbox")
		{
			inbox.GET("", apiHandlers.Inbox.List)
			inbox.GET("/:id", apiHandlers.Inbox.Get)
			inbox.DELETE("/:id", apiHandlers.Inbox.Delete)
			inbox.POST("/:id/reprocess", apiHandlers.Inbox.Reprocess)
		}

		receipts := api.Group("/receipts")
		{
			receipts.GET("", apiHandlers.Receipts.List)
			receipts.POST("", apiHandlers.Receipts.Upload)
			receipts.POST("/reprocess", apiHandlers.Receipts.Reprocess)
			receipts.POST("/notify", apiHandlers.Receipts.Notify)
		}

		settings := api.Group("/settings")
		{
			settings.GET("", apiHandlers.Settings.Get)
			settings.PUT("", apiHandlers.Settings.Update)
		}
	}
}
