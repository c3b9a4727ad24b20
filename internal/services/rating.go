package services

import (
	"context"
	"strings"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/yungbote/coursemarket-backend/internal/data/repos"
	types "github.com/yungbote/coursemarket-backend/internal/domain"
	"github.com/yungbote/coursemarket-backend/internal/platform/dbctx"
	"github.com/yungbote/coursemarket-backend/internal/platform/logger"
)

type RatingView struct {
	CourseID uuid.UUID `json:"course_id"`
	Average  float64   `json:"average"`
	Count    int64     `json:"count"`
	// Mine is the caller's own rating, 0 when they have not rated.
	Mine int `json:"mine,omitempty"`
}

type RatingService interface {
	Rate(ctx context.Context, userID string, courseID uuid.UUID, rating int) (*RatingView, error)
	Average(ctx context.Context, viewerID string, courseID uuid.UUID) (*RatingView, error)
}

type ratingService struct {
	db      *gorm.DB
	log     *logger.Logger
	courses repos.CourseRepo
	ratings repos.RatingRepo
}

func NewRatingService(db *gorm.DB, log *logger.Logger, courses repos.CourseRepo, ratings repos.RatingRepo) RatingService {
	return &ratingService{
		db:      db,
		log:     log.With("service", "RatingService"),
		courses: courses,
		ratings: ratings,
	}
}

func (s *ratingService) Rate(ctx context.Context, userID string, courseID uuid.UUID, rating int) (*RatingView, error) {
	const op = "Rating.Rate"
	userID = strings.TrimSpace(userID)
	if userID == "" || courseID == uuid.Nil {
		return nil, errValidation(op, "course_id is required")
	}
	if rating < types.MinRating || rating > types.MaxRating {
		return nil, errValidation(op, "rating must be between 1 and 5")
	}
	dbc := dbctx.Context{Ctx: ctx}
	course, err := s.courses.GetByID(dbc, courseID)
	if err != nil {
		return nil, errStore(op, err)
	}
	if course == nil {
		return nil, errNotFound(op, "course not found")
	}
	if err := s.ratings.Upsert(dbc, &types.CourseRating{CourseID: courseID, UserID: userID, Rating: rating}); err != nil {
		return nil, errStore(op, err)
	}
	return s.Average(ctx, userID, courseID)
}

func (s *ratingService) Average(ctx context.Context, viewerID string, courseID uuid.UUID) (*RatingView, error) {
	const op = "Rating.Average"
	if courseID == uuid.Nil {
		return nil, errValidation(op, "course_id is required")
	}
	dbc := dbctx.Context{Ctx: ctx}
	sum, err := s.ratings.Summary(dbc, courseID)
	if err != nil {
		return nil, errStore(op, err)
	}
	out := &RatingView{CourseID: courseID, Average: sum.Average, Count: sum.Count}
	if viewerID = strings.TrimSpace(viewerID); viewerID != "" {
		mine, err := s.ratings.GetForUser(dbc, courseID, viewerID)
		if err != nil {
			return nil, errStore(op, err)
		}
		if mine != nil {
			out.Mine = mine.Rating
		}
	}
	return out, nil
}
