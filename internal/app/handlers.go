package app

import (
	"context"

	"gorm.io/gorm"

	httpH "github.com/yungbote/coursemarket-backend/internal/http/handlers"
	"github.com/yungbote/coursemarket-backend/internal/platform/logger"
)

type Handlers struct {
	Health   *httpH.HealthHandler
	Webhook  *httpH.WebhookHandler
	Checkout *httpH.CheckoutHandler
	Progress *httpH.ProgressHandler
	Course   *httpH.CourseHandler
	User     *httpH.UserHandler
	Educator *httpH.EducatorHandler
}

func wireHandlers(log *logger.Logger, db *gorm.DB, services Services) Handlers {
	log.Info("Wiring handlers...")
	return Handlers{
		Health:   httpH.NewHealthHandler(pingDB(db)),
		Webhook:  httpH.NewWebhookHandler(log, services.IdentitySync, services.Reconciliation),
		Checkout: httpH.NewCheckoutHandler(services.Enrollment),
		Progress: httpH.NewProgressHandler(services.Progress),
		Course:   httpH.NewCourseHandler(services.Catalog, services.Rating),
		User:     httpH.NewUserHandler(services.User),
		Educator: httpH.NewEducatorHandler(services.Educator),
	}
}

func pingDB(db *gorm.DB) func(ctx context.Context) error {
	if db == nil {
		return nil
	}
	return func(ctx context.Context) error {
		sqlDB, err := db.DB()
		if err != nil {
			return err
		}
		return sqlDB.PingContext(ctx)
	}
}
