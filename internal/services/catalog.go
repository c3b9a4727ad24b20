package services

import (
	"context"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"

	"github.com/yungbote/coursemarket-backend/internal/data/repos"
	types "github.com/yungbote/coursemarket-backend/internal/domain"
	"github.com/yungbote/coursemarket-backend/internal/platform/dbctx"
	"github.com/yungbote/coursemarket-backend/internal/platform/logger"
)

type CourseView struct {
	ID              uuid.UUID       `json:"id"`
	Title           string          `json:"title"`
	Description     string          `json:"description"`
	ThumbnailURL    string          `json:"thumbnail_url"`
	Price           decimal.Decimal `json:"price"`
	DiscountPercent int             `json:"discount_percent"`
	IsPublished     bool            `json:"is_published"`
	EducatorID      string          `json:"educator_id"`
	EducatorName    string          `json:"educator_name,omitempty"`
	Chapters        []types.Chapter `json:"chapters"`
	// Unlocked reports whether every lecture URL is visible to the viewer.
	Unlocked  bool      `json:"unlocked"`
	CreatedAt time.Time `json:"created_at"`
}

type CatalogService interface {
	ListPublished(ctx context.Context) ([]*CourseView, error)
	GetCourse(ctx context.Context, viewerID string, courseID uuid.UUID) (*CourseView, error)
}

type catalogService struct {
	db          *gorm.DB
	log         *logger.Logger
	users       repos.UserRepo
	courses     repos.CourseRepo
	enrollments repos.EnrollmentRepo
}

func NewCatalogService(db *gorm.DB, log *logger.Logger, users repos.UserRepo, courses repos.CourseRepo, enrollments repos.EnrollmentRepo) CatalogService {
	return &catalogService{
		db:          db,
		log:         log.With("service", "CatalogService"),
		users:       users,
		courses:     courses,
		enrollments: enrollments,
	}
}

func (s *catalogService) ListPublished(ctx context.Context) ([]*CourseView, error) {
	const op = "Catalog.ListPublished"
	dbc := dbctx.Context{Ctx: ctx}
	rows, err := s.courses.ListPublished(dbc)
	if err != nil {
		return nil, errStore(op, err)
	}
	names, err := s.educatorNames(dbc, rows)
	if err != nil {
		return nil, errStore(op, err)
	}
	out := make([]*CourseView, 0, len(rows))
	for _, c := range rows {
		v, err := newCourseView(c, false)
		if err != nil {
			s.log.Warn("skipping course with unreadable content", "course_id", c.ID.String(), "error", err)
			continue
		}
		v.EducatorName = names[c.EducatorID]
		out = append(out, v)
	}
	return out, nil
}

func (s *catalogService) GetCourse(ctx context.Context, viewerID string, courseID uuid.UUID) (*CourseView, error) {
	const op = "Catalog.GetCourse"
	if courseID == uuid.Nil {
		return nil, errValidation(op, "course id is required")
	}
	viewerID = strings.TrimSpace(viewerID)
	dbc := dbctx.Context{Ctx: ctx}
	c, err := s.courses.GetByID(dbc, courseID)
	if err != nil {
		return nil, errStore(op, err)
	}
	owner := viewerID != "" && c != nil && c.EducatorID == viewerID
	if c == nil || (!c.IsPublished && !owner) {
		return nil, errNotFound(op, "course not found")
	}
	unlocked := owner
	if !unlocked && viewerID != "" {
		unlocked, err = s.enrollments.HasCourse(dbc, viewerID, c.ID)
		if err != nil {
			return nil, errStore(op, err)
		}
	}
	v, err := newCourseView(c, unlocked)
	if err != nil {
		return nil, domainInternal(op, err)
	}
	names, err := s.educatorNames(dbc, []*types.Course{c})
	if err != nil {
		return nil, errStore(op, err)
	}
	v.EducatorName = names[c.EducatorID]
	return v, nil
}

func (s *catalogService) educatorNames(dbc dbctx.Context, courses []*types.Course) (map[string]string, error) {
	seen := map[string]bool{}
	ids := make([]string, 0, len(courses))
	for _, c := range courses {
		if c == nil || seen[c.EducatorID] {
			continue
		}
		seen[c.EducatorID] = true
		ids = append(ids, c.EducatorID)
	}
	out := make(map[string]string, len(ids))
	if len(ids) == 0 {
		return out, nil
	}
	users, err := s.users.GetByIDs(dbc, ids)
	if err != nil {
		return nil, err
	}
	for _, u := range users {
		out[u.ID] = u.Name
	}
	return out, nil
}

// newCourseView blanks the URL of every non-preview lecture unless unlocked.
func newCourseView(c *types.Course, unlocked bool) (*CourseView, error) {
	chapters, err := c.Chapters()
	if err != nil {
		return nil, err
	}
	if !unlocked {
		for i := range chapters {
			for j := range chapters[i].Lectures {
				if !chapters[i].Lectures[j].IsPreviewFree {
					chapters[i].Lectures[j].URL = ""
				}
			}
		}
	}
	return &CourseView{
		ID:              c.ID,
		Title:           c.Title,
		Description:     c.Description,
		ThumbnailURL:    c.ThumbnailURL,
		Price:           c.Price,
		DiscountPercent: c.DiscountPercent,
		IsPublished:     c.IsPublished,
		EducatorID:      c.EducatorID,
		Chapters:        chapters,
		Unlocked:        unlocked,
		CreatedAt:       c.CreatedAt,
	}, nil
}
