package app

import (
	"github.com/yungbote/coursemarket-backend/internal/http"
	"github.com/yungbote/coursemarket-backend/internal/observability"
	"github.com/yungbote/coursemarket-backend/internal/platform/logger"
)

func wireServer(log *logger.Logger, cfg Config, metrics *observability.Metrics, handlers Handlers, middleware Middleware) *http.Server {
	return http.NewServer(http.RouterConfig{
		Log:             log,
		Metrics:         metrics,
		TracingEnabled:  cfg.TracingEnabled,
		CORSOrigins:     cfg.CORSOrigins,
		WebhookTimeout:  cfg.WebhookTimeout,
		AuthMiddleware:  middleware.Auth,
		WebhookHandler:  handlers.Webhook,
		CheckoutHandler: handlers.Checkout,
		ProgressHandler: handlers.Progress,
		CourseHandler:   handlers.Course,
		UserHandler:     handlers.User,
		EducatorHandler: handlers.Educator,
		HealthHandler:   handlers.Health,
	})
}
