package testutil

import (
	"context"
	"testing"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"

	types "github.com/yungbote/coursemarket-backend/internal/domain"
)

func SeedUser(tb testing.TB, ctx context.Context, tx *gorm.DB, id, role string) *types.User {
	tb.Helper()
	if role == "" {
		role = types.RoleLearner
	}
	u := &types.User{
		ID:       id,
		Name:     "User " + id,
		Email:    id + "@example.com",
		ImageURL: "https://img.example.com/" + id + ".png",
		Role:     role,
	}
	if err := tx.WithContext(ctx).Create(u).Error; err != nil {
		tb.Fatalf("seed user: %v", err)
	}
	return u
}

type CourseSeed struct {
	EducatorID string
	Title      string
	Price      string
	Discount   int
	Published  bool
	Chapters   []types.Chapter
}

func DefaultChapters() []types.Chapter {
	return []types.Chapter{{
		ChapterID: "ch-1",
		Order:     1,
		Title:     "Getting started",
		Lectures: []types.Lecture{
			{LectureID: "lec-1", Title: "Welcome", DurationMinutes: 3, URL: "https://video.example.com/1", IsPreviewFree: true, Order: 1},
			{LectureID: "lec-2", Title: "Tooling", DurationMinutes: 12, URL: "https://video.example.com/2", Order: 2},
		},
	}}
}

func SeedCourse(tb testing.TB, ctx context.Context, tx *gorm.DB, seed CourseSeed) *types.Course {
	tb.Helper()
	if seed.Price == "" {
		seed.Price = "1000"
	}
	if seed.Title == "" {
		seed.Title = "Course"
	}
	if seed.Chapters == nil {
		seed.Chapters = DefaultChapters()
	}
	c := &types.Course{
		ID:              uuid.New(),
		Title:           seed.Title,
		Description:     "<p>desc</p>",
		Price:           decimal.RequireFromString(seed.Price),
		DiscountPercent: seed.Discount,
		IsPublished:     seed.Published,
		EducatorID:      seed.EducatorID,
	}
	if err := c.SetChapters(seed.Chapters); err != nil {
		tb.Fatalf("seed chapters: %v", err)
	}
	if err := tx.WithContext(ctx).Create(c).Error; err != nil {
		tb.Fatalf("seed course: %v", err)
	}
	return c
}
