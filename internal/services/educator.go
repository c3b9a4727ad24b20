package services

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"golang.org/x/sync/errgroup"
	"gorm.io/gorm"

	"github.com/yungbote/coursemarket-backend/internal/data/repos"
	types "github.com/yungbote/coursemarket-backend/internal/domain"
	"github.com/yungbote/coursemarket-backend/internal/platform/dbctx"
	"github.com/yungbote/coursemarket-backend/internal/platform/logger"
)

var validate = validator.New()

type CourseInput struct {
	Title           string          `json:"title" yaml:"title" validate:"required,max=200"`
	Description     string          `json:"description" yaml:"description"`
	ThumbnailURL    string          `json:"thumbnail_url" yaml:"thumbnail_url" validate:"omitempty,url"`
	Price           string          `json:"price" yaml:"price" validate:"required,numeric"`
	DiscountPercent int             `json:"discount_percent" yaml:"discount_percent" validate:"gte=0,lte=100"`
	Published       bool            `json:"is_published" yaml:"is_published"`
	Chapters        []types.Chapter `json:"chapters" yaml:"chapters" validate:"dive"`
}

// Build validates the input and returns an unsaved course owned by educatorID.
func (in CourseInput) Build(educatorID string) (*types.Course, error) {
	const op = "Educator.CourseInput"
	if err := validate.Struct(in); err != nil {
		return nil, errValidation(op, describeValidation(err))
	}
	price, err := decimal.NewFromString(strings.TrimSpace(in.Price))
	if err != nil || price.IsNegative() {
		return nil, errValidation(op, "price must be a non-negative number")
	}
	c := &types.Course{
		Title:           strings.TrimSpace(in.Title),
		Description:     in.Description,
		ThumbnailURL:    strings.TrimSpace(in.ThumbnailURL),
		Price:           price,
		DiscountPercent: in.DiscountPercent,
		IsPublished:     in.Published,
		EducatorID:      educatorID,
	}
	if err := c.SetChapters(in.Chapters); err != nil {
		return nil, errValidation(op, "chapters are not serializable")
	}
	return c, nil
}

func describeValidation(err error) string {
	var ve validator.ValidationErrors
	if !errors.As(err, &ve) {
		return err.Error()
	}
	parts := make([]string, 0, len(ve))
	for _, fe := range ve {
		parts = append(parts, fmt.Sprintf("%s: %s", fe.Namespace(), fe.Tag()))
	}
	return "invalid course: " + strings.Join(parts, ", ")
}

type DashboardStudent struct {
	CourseTitle  string `json:"course_title"`
	StudentID    string `json:"student_id"`
	StudentName  string `json:"student_name"`
	StudentImage string `json:"student_image"`
}

type Dashboard struct {
	TotalCourses     int                `json:"total_courses"`
	TotalEarnings    decimal.Decimal    `json:"total_earnings"`
	EnrolledStudents []DashboardStudent `json:"enrolled_students"`
}

type EnrolledStudent struct {
	StudentID    string    `json:"student_id"`
	StudentName  string    `json:"student_name"`
	StudentImage string    `json:"student_image"`
	CourseID     uuid.UUID `json:"course_id"`
	CourseTitle  string    `json:"course_title"`
	PurchaseID   uuid.UUID `json:"purchase_id"`
	PurchaseDate time.Time `json:"purchase_date"`
}

type EducatorService interface {
	CreateCourse(ctx context.Context, educatorID string, in CourseInput) (*types.Course, error)
	ListCourses(ctx context.Context, educatorID string) ([]*types.Course, error)
	SetPublished(ctx context.Context, educatorID string, courseID uuid.UUID, published bool) error
	Dashboard(ctx context.Context, educatorID string) (*Dashboard, error)
	EnrolledStudents(ctx context.Context, educatorID string) ([]EnrolledStudent, error)
}

type educatorService struct {
	db          *gorm.DB
	log         *logger.Logger
	users       repos.UserRepo
	courses     repos.CourseRepo
	enrollments repos.EnrollmentRepo
	purchases   repos.PurchaseRepo
}

func NewEducatorService(
	db *gorm.DB,
	log *logger.Logger,
	users repos.UserRepo,
	courses repos.CourseRepo,
	enrollments repos.EnrollmentRepo,
	purchases repos.PurchaseRepo,
) EducatorService {
	return &educatorService{
		db:          db,
		log:         log.With("service", "EducatorService"),
		users:       users,
		courses:     courses,
		enrollments: enrollments,
		purchases:   purchases,
	}
}

func (s *educatorService) requireEducator(ctx context.Context, op, educatorID string) error {
	educatorID = strings.TrimSpace(educatorID)
	if educatorID == "" {
		return errValidation(op, "educator id is required")
	}
	u, err := s.users.GetByID(dbctx.Context{Ctx: ctx}, educatorID)
	if err != nil {
		return errStore(op, err)
	}
	if u == nil {
		return errNotFound(op, "user not found")
	}
	if !u.IsEducator() {
		return errForbidden(op, "educator role required")
	}
	return nil
}

func (s *educatorService) CreateCourse(ctx context.Context, educatorID string, in CourseInput) (*types.Course, error) {
	const op = "Educator.CreateCourse"
	if err := s.requireEducator(ctx, op, educatorID); err != nil {
		return nil, err
	}
	c, err := in.Build(strings.TrimSpace(educatorID))
	if err != nil {
		return nil, err
	}
	created, err := s.courses.Create(dbctx.Context{Ctx: ctx}, []*types.Course{c})
	if err != nil {
		return nil, errStore(op, err)
	}
	s.log.Info("course created", "course_id", c.ID.String(), "educator_id", educatorID)
	return created[0], nil
}

func (s *educatorService) ListCourses(ctx context.Context, educatorID string) ([]*types.Course, error) {
	const op = "Educator.ListCourses"
	if err := s.requireEducator(ctx, op, educatorID); err != nil {
		return nil, err
	}
	out, err := s.courses.ListByEducator(dbctx.Context{Ctx: ctx}, strings.TrimSpace(educatorID))
	if err != nil {
		return nil, errStore(op, err)
	}
	return out, nil
}

func (s *educatorService) SetPublished(ctx context.Context, educatorID string, courseID uuid.UUID, published bool) error {
	const op = "Educator.SetPublished"
	if courseID == uuid.Nil {
		return errValidation(op, "course id is required")
	}
	if err := s.requireEducator(ctx, op, educatorID); err != nil {
		return err
	}
	dbc := dbctx.Context{Ctx: ctx}
	ok, err := s.courses.SetPublished(dbc, courseID, strings.TrimSpace(educatorID), published)
	if err != nil {
		return errStore(op, err)
	}
	if ok {
		return nil
	}
	c, err := s.courses.GetByID(dbc, courseID)
	if err != nil {
		return errStore(op, err)
	}
	if c == nil {
		return errNotFound(op, "course not found")
	}
	return errForbidden(op, "only the course owner may change publication")
}

func (s *educatorService) Dashboard(ctx context.Context, educatorID string) (*Dashboard, error) {
	const op = "Educator.Dashboard"
	if err := s.requireEducator(ctx, op, educatorID); err != nil {
		return nil, err
	}
	dbc := dbctx.Context{Ctx: ctx}
	courses, err := s.courses.ListByEducator(dbc, strings.TrimSpace(educatorID))
	if err != nil {
		return nil, errStore(op, err)
	}
	out := &Dashboard{TotalCourses: len(courses), TotalEarnings: decimal.Zero, EnrolledStudents: []DashboardStudent{}}
	if len(courses) == 0 {
		return out, nil
	}
	ids, titles := courseIndex(courses)

	var (
		completed []*types.Purchase
		members   []*types.CourseStudent
	)
	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		rows, err := s.purchases.ListCompletedForCourses(dbctx.Context{Ctx: gctx}, ids)
		completed = rows
		return err
	})
	g.Go(func() error {
		rows, err := s.enrollments.ListCourseStudents(dbctx.Context{Ctx: gctx}, ids)
		members = rows
		return err
	})
	if err := g.Wait(); err != nil {
		return nil, errStore(op, err)
	}

	for _, p := range completed {
		out.TotalEarnings = out.TotalEarnings.Add(p.Amount)
	}
	studentIDs := make([]string, 0, len(members))
	for _, m := range members {
		studentIDs = append(studentIDs, m.UserID)
	}
	people, err := s.userIndex(dbc, studentIDs)
	if err != nil {
		return nil, errStore(op, err)
	}
	for _, m := range members {
		u := people[m.UserID]
		row := DashboardStudent{CourseTitle: titles[m.CourseID], StudentID: m.UserID}
		if u != nil {
			row.StudentName = u.Name
			row.StudentImage = u.ImageURL
		}
		out.EnrolledStudents = append(out.EnrolledStudents, row)
	}
	return out, nil
}

func (s *educatorService) EnrolledStudents(ctx context.Context, educatorID string) ([]EnrolledStudent, error) {
	const op = "Educator.EnrolledStudents"
	if err := s.requireEducator(ctx, op, educatorID); err != nil {
		return nil, err
	}
	dbc := dbctx.Context{Ctx: ctx}
	courses, err := s.courses.ListByEducator(dbc, strings.TrimSpace(educatorID))
	if err != nil {
		return nil, errStore(op, err)
	}
	out := []EnrolledStudent{}
	if len(courses) == 0 {
		return out, nil
	}
	ids, titles := courseIndex(courses)
	completed, err := s.purchases.ListCompletedForCourses(dbc, ids)
	if err != nil {
		return nil, errStore(op, err)
	}
	buyerIDs := make([]string, 0, len(completed))
	for _, p := range completed {
		buyerIDs = append(buyerIDs, p.UserID)
	}
	people, err := s.userIndex(dbc, buyerIDs)
	if err != nil {
		return nil, errStore(op, err)
	}
	for _, p := range completed {
		row := EnrolledStudent{
			StudentID:    p.UserID,
			CourseID:     p.CourseID,
			CourseTitle:  titles[p.CourseID],
			PurchaseID:   p.ID,
			PurchaseDate: p.CreatedAt,
		}
		if u := people[p.UserID]; u != nil {
			row.StudentName = u.Name
			row.StudentImage = u.ImageURL
		}
		out = append(out, row)
	}
	sort.SliceStable(out, func(i, j int) bool { return out[i].PurchaseDate.After(out[j].PurchaseDate) })
	return out, nil
}

func (s *educatorService) userIndex(dbc dbctx.Context, ids []string) (map[string]*types.User, error) {
	out := map[string]*types.User{}
	if len(ids) == 0 {
		return out, nil
	}
	users, err := s.users.GetByIDs(dbc, ids)
	if err != nil {
		return nil, err
	}
	for _, u := range users {
		out[u.ID] = u
	}
	return out, nil
}

func courseIndex(courses []*types.Course) ([]uuid.UUID, map[uuid.UUID]string) {
	ids := make([]uuid.UUID, 0, len(courses))
	titles := make(map[uuid.UUID]string, len(courses))
	for _, c := range courses {
		ids = append(ids, c.ID)
		titles[c.ID] = c.Title
	}
	return ids, titles
}
