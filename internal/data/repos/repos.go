package repos

import (
	"gorm.io/gorm"

	"github.com/yungbote/coursemarket-backend/internal/data/repos/billing"
	"github.com/yungbote/coursemarket-backend/internal/data/repos/catalog"
	"github.com/yungbote/coursemarket-backend/internal/data/repos/learning"
	"github.com/yungbote/coursemarket-backend/internal/data/repos/user"
	"github.com/yungbote/coursemarket-backend/internal/data/repos/webhook"
	"github.com/yungbote/coursemarket-backend/internal/platform/logger"
)

type UserRepo = user.UserRepo

type CourseRepo = catalog.CourseRepo
type EnrollmentRepo = catalog.EnrollmentRepo
type RatingRepo = catalog.RatingRepo
type RatingSummary = catalog.RatingSummary

type PurchaseRepo = billing.PurchaseRepo

type CourseProgressRepo = learning.CourseProgressRepo

type WebhookEventRepo = webhook.EventRepo
type WebhookEventKey = webhook.EventKey

func NewUserRepo(db *gorm.DB, log *logger.Logger) UserRepo { return user.NewUserRepo(db, log) }

func NewCourseRepo(db *gorm.DB, log *logger.Logger) CourseRepo { return catalog.NewCourseRepo(db, log) }

func NewEnrollmentRepo(db *gorm.DB, log *logger.Logger) EnrollmentRepo {
	return catalog.NewEnrollmentRepo(db, log)
}

func NewRatingRepo(db *gorm.DB, log *logger.Logger) RatingRepo { return catalog.NewRatingRepo(db, log) }

func NewPurchaseRepo(db *gorm.DB, log *logger.Logger) PurchaseRepo {
	return billing.NewPurchaseRepo(db, log)
}

func NewCourseProgressRepo(db *gorm.DB, log *logger.Logger) CourseProgressRepo {
	return learning.NewCourseProgressRepo(db, log)
}

func NewWebhookEventRepo(db *gorm.DB, log *logger.Logger) WebhookEventRepo {
	return webhook.NewEventRepo(db, log)
}
