package http

import (
	"time"

	"github.com/gin-gonic/gin"
	"go.opentelemetry.io/contrib/instrumentation/github.com/gin-gonic/gin/otelgin"

	httpH "github.com/yungbote/coursemarket-backend/internal/http/handlers"
	httpMW "github.com/yungbote/coursemarket-backend/internal/http/middleware"
	"github.com/yungbote/coursemarket-backend/internal/observability"
	"github.com/yungbote/coursemarket-backend/internal/platform/logger"
)

type RouterConfig struct {
	Log            *logger.Logger
	Metrics        *observability.Metrics
	TracingEnabled bool
	CORSOrigins    []string
	WebhookTimeout time.Duration

	AuthMiddleware *httpMW.AuthMiddleware

	WebhookHandler  *httpH.WebhookHandler
	CheckoutHandler *httpH.CheckoutHandler
	ProgressHandler *httpH.ProgressHandler
	CourseHandler   *httpH.CourseHandler
	UserHandler     *httpH.UserHandler
	EducatorHandler *httpH.EducatorHandler
	HealthHandler   *httpH.HealthHandler
}

func NewRouter(cfg RouterConfig) *gin.Engine {
	r := gin.New()
	r.Use(gin.Recovery())
	if cfg.TracingEnabled {
		r.Use(otelgin.Middleware("coursemarket"))
	}
	r.Use(httpMW.RequestID())
	r.Use(httpMW.RequestLogger(cfg.Log))
	r.Use(httpMW.Metrics(cfg.Metrics))
	r.Use(httpMW.CORS(cfg.CORSOrigins))

	// Health
	if cfg.HealthHandler != nil {
		r.GET("/healthcheck", cfg.HealthHandler.HealthCheck)
	}
	if cfg.Metrics != nil {
		r.GET("/metrics", gin.WrapF(cfg.Metrics.WriteHTTP))
	}

	// Webhooks authenticate by signature, not bearer token.
	if cfg.WebhookHandler != nil {
		hooks := r.Group("/webhooks", httpMW.RequestTimeout(cfg.WebhookTimeout))
		hooks.POST("/identity", cfg.WebhookHandler.Identity)
		hooks.POST("/payment", cfg.WebhookHandler.Payment)
	}

	api := r.Group("/api")

	public := api.Group("/")
	{
		if cfg.AuthMiddleware != nil {
			public.Use(cfg.AuthMiddleware.OptionalAuth())
		}
		if cfg.CourseHandler != nil {
			public.GET("/courses", cfg.CourseHandler.List)
			public.GET("/courses/:id", cfg.CourseHandler.Get)
			public.GET("/courses/:id/rating", cfg.CourseHandler.Rating)
		}
	}

	protected := api.Group("/")
	{
		if cfg.AuthMiddleware != nil {
			protected.Use(cfg.AuthMiddleware.RequireAuth())
		}

		// User (Me)
		if cfg.UserHandler != nil {
			protected.GET("/me", cfg.UserHandler.GetMe)
			protected.GET("/me/enrollments", cfg.UserHandler.ListEnrollments)
			protected.POST("/me/sync", cfg.UserHandler.Sync)
			protected.POST("/me/educator", cfg.UserHandler.BecomeEducator)
		}

		// Checkout
		if cfg.CheckoutHandler != nil {
			protected.POST("/checkout", cfg.CheckoutHandler.Checkout)
			protected.GET("/purchases/:id", cfg.CheckoutHandler.GetPurchase)
		}

		// Progress
		if cfg.ProgressHandler != nil {
			protected.POST("/progress", cfg.ProgressHandler.MarkComplete)
			protected.GET("/progress/:courseId", cfg.ProgressHandler.Get)
		}

		// Rating
		if cfg.CourseHandler != nil {
			protected.POST("/courses/:id/rating", cfg.CourseHandler.Rate)
		}

		// Educator
		if cfg.EducatorHandler != nil {
			protected.POST("/educator/courses", cfg.EducatorHandler.CreateCourse)
			protected.GET("/educator/courses", cfg.EducatorHandler.ListCourses)
			protected.PATCH("/educator/courses/:id/publish", cfg.EducatorHandler.SetPublished)
			protected.GET("/educator/dashboard", cfg.EducatorHandler.Dashboard)
			protected.GET("/educator/students", cfg.EducatorHandler.Students)
		}
	}

	return r
}
