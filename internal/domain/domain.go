package domain

import (
	"github.com/yungbote/coursemarket-backend/internal/domain/billing"
	"github.com/yungbote/coursemarket-backend/internal/domain/catalog"
	"github.com/yungbote/coursemarket-backend/internal/domain/learning"
	"github.com/yungbote/coursemarket-backend/internal/domain/user"
	"github.com/yungbote/coursemarket-backend/internal/domain/webhook"
)

const (
	RoleLearner  = user.RoleLearner
	RoleEducator = user.RoleEducator

	PurchaseStatusPending   = billing.PurchaseStatusPending
	PurchaseStatusCompleted = billing.PurchaseStatusCompleted
	PurchaseStatusFailed    = billing.PurchaseStatusFailed
	AmountScale             = billing.AmountScale

	MinRating = catalog.MinRating
	MaxRating = catalog.MaxRating
)

var NormalizeRole = user.NormalizeRole

type User = user.User

type Course = catalog.Course
type Chapter = catalog.Chapter
type Lecture = catalog.Lecture
type UserCourse = catalog.UserCourse
type CourseStudent = catalog.CourseStudent
type CourseRating = catalog.CourseRating

type Purchase = billing.Purchase

type CourseProgress = learning.CourseProgress
type CompletedLecture = learning.CompletedLecture

type WebhookEvent = webhook.Event

// Models lists every persisted type in migration order.
func Models() []any {
	return []any{
		&User{},
		&Course{},
		&UserCourse{},
		&CourseStudent{},
		&CourseRating{},
		&Purchase{},
		&CourseProgress{},
		&CompletedLecture{},
		&WebhookEvent{},
	}
}

const (
	WebhookProviderIdentity = webhook.ProviderIdentity
	WebhookProviderPayment  = webhook.ProviderPayment

	WebhookStatusReceived  = webhook.StatusReceived
	WebhookStatusProcessed = webhook.StatusProcessed
	WebhookStatusIgnored   = webhook.StatusIgnored
	WebhookStatusFailed    = webhook.StatusFailed
)
