package app

import (
	"gorm.io/gorm"

	"github.com/yungbote/coursemarket-backend/internal/data/repos"
	"github.com/yungbote/coursemarket-backend/internal/platform/logger"
)

type Repos struct {
	User          repos.UserRepo
	Course        repos.CourseRepo
	Enrollment    repos.EnrollmentRepo
	Rating        repos.RatingRepo
	Purchase      repos.PurchaseRepo
	Progress      repos.CourseProgressRepo
	WebhookEvents repos.WebhookEventRepo
}

func wireRepos(db *gorm.DB, log *logger.Logger) Repos {
	log.Info("Wiring repos...")
	return Repos{
		User:          repos.NewUserRepo(db, log),
		Course:        repos.NewCourseRepo(db, log),
		Enrollment:    repos.NewEnrollmentRepo(db, log),
		Rating:        repos.NewRatingRepo(db, log),
		Purchase:      repos.NewPurchaseRepo(db, log),
		Progress:      repos.NewCourseProgressRepo(db, log),
		WebhookEvents: repos.NewWebhookEventRepo(db, log),
	}
}
