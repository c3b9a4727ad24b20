package aggregates

import (
	"context"
	"time"

	"github.com/google/uuid"
)

var LectureProgressAggregateContract = Contract{
	Name:   "learning.lecture_progress",
	Writes: []string{"course_progress", "course_progress_lecture"},
	Notes:  "Lazily creates the per-(user, course) progress record and adds completed lectures as a monotonic set.",
}

type LectureProgressAggregate interface {
	Aggregate

	// MarkLectureComplete is idempotent; repeating it only refreshes last access.
	MarkLectureComplete(ctx context.Context, in MarkLectureCompleteInput) (MarkLectureCompleteResult, error)
}

type MarkLectureCompleteInput struct {
	UserID    string
	CourseID  uuid.UUID
	LectureID string
	At        time.Time
}

type MarkLectureCompleteResult struct {
	ProgressCreated bool
	LectureAdded    bool
}
