package app

import (
	"fmt"

	"gorm.io/gorm"

	dataagg "github.com/yungbote/coursemarket-backend/internal/data/aggregates"
	domainagg "github.com/yungbote/coursemarket-backend/internal/domain/aggregates"
	"github.com/yungbote/coursemarket-backend/internal/observability"
	"github.com/yungbote/coursemarket-backend/internal/platform/logger"
	"github.com/yungbote/coursemarket-backend/internal/services"
)

type Services struct {
	// Auth
	Auth services.AuthService

	// Write paths
	Settlement      domainagg.PurchaseSettlementAggregate
	LectureProgress domainagg.LectureProgressAggregate

	// Webhooks
	IdentitySync   services.IdentitySyncService
	Reconciliation services.PaymentReconciliationService

	// Domain
	Enrollment services.EnrollmentService
	Progress   services.ProgressService
	Rating     services.RatingService
	Catalog    services.CatalogService
	Educator   services.EducatorService
	User       services.UserService
	Notifier   services.EnrollmentNotifier
}

func wireServices(db *gorm.DB, log *logger.Logger, cfg Config, repos Repos, clients Clients, metrics *observability.Metrics) (Services, error) {
	log.Info("Wiring services...")

	auth, err := services.NewAuthService(log, cfg.Auth)
	if err != nil {
		return Services{}, fmt.Errorf("init auth service: %w", err)
	}

	base := dataagg.BaseDeps{
		DB:    db,
		Log:   log,
		Hooks: dataagg.NewObservabilityHooks(metrics),
	}
	settlement := dataagg.NewPurchaseSettlementAggregate(dataagg.PurchaseSettlementAggregateDeps{
		Base:        base,
		Purchases:   repos.Purchase,
		Enrollments: repos.Enrollment,
	})
	lectureProgress := dataagg.NewLectureProgressAggregate(dataagg.LectureProgressAggregateDeps{
		Base:     base,
		Progress: repos.Progress,
	})

	notifier := services.NewMailNotifier(log, clients.Mail, repos.User, repos.Course)

	identitySync := services.NewIdentitySyncService(db, log, clients.Verifier, repos.User, repos.WebhookEvents, clients.Replay)
	reconciliation := services.NewPaymentReconciliationService(
		db, log,
		clients.Gateway,
		repos.Purchase,
		repos.WebhookEvents,
		settlement,
		notifier,
		clients.Replay,
	)

	enrollment := services.NewEnrollmentService(
		db, log,
		repos.User,
		repos.Course,
		repos.Enrollment,
		repos.Purchase,
		clients.Gateway,
		settlement,
		cfg.Checkout,
	)
	progress := services.NewProgressService(
		db, log,
		repos.Course,
		repos.Progress,
		lectureProgress,
		services.NewEnrollmentAccessPolicy(repos.Enrollment),
	)

	return Services{
		Auth:            auth,
		Settlement:      settlement,
		LectureProgress: lectureProgress,
		IdentitySync:    identitySync,
		Reconciliation:  reconciliation,
		Enrollment:      enrollment,
		Progress:        progress,
		Rating:          services.NewRatingService(db, log, repos.Course, repos.Rating),
		Catalog:         services.NewCatalogService(db, log, repos.User, repos.Course, repos.Enrollment),
		Educator:        services.NewEducatorService(db, log, repos.User, repos.Course, repos.Enrollment, repos.Purchase),
		User:            services.NewUserService(db, log, repos.User, repos.Course, repos.Enrollment, clients.Identity, identitySync),
		Notifier:        notifier,
	}, nil
}
