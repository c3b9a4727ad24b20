package aggregates

import (
	"context"
	"testing"

	"github.com/google/uuid"

	"github.com/yungbote/coursemarket-backend/internal/data/repos"
	repotest "github.com/yungbote/coursemarket-backend/internal/data/repos/testutil"
	domainagg "github.com/yungbote/coursemarket-backend/internal/domain/aggregates"
	"github.com/yungbote/coursemarket-backend/internal/platform/dbctx"
)

func TestMarkLectureCompleteIsIdempotent(t *testing.T) {
	ctx := context.Background()
	db := repotest.DB(t)
	progress := repos.NewCourseProgressRepo(db, repotest.Logger(t))
	agg := NewLectureProgressAggregate(LectureProgressAggregateDeps{
		Base:     BaseDeps{DB: db},
		Progress: progress,
	})
	courseID := uuid.New()
	in := domainagg.MarkLectureCompleteInput{UserID: "u1", CourseID: courseID, LectureID: "lec-1"}

	res, err := agg.MarkLectureComplete(ctx, in)
	if err != nil {
		t.Fatalf("first mark: %v", err)
	}
	if !res.ProgressCreated || !res.LectureAdded {
		t.Fatalf("first mark result: %+v", res)
	}
	res, err = agg.MarkLectureComplete(ctx, in)
	if err != nil {
		t.Fatalf("second mark: %v", err)
	}
	if res.ProgressCreated || res.LectureAdded {
		t.Fatalf("second mark should be a no-op: %+v", res)
	}
	in.LectureID = "lec-2"
	if _, err := agg.MarkLectureComplete(ctx, in); err != nil {
		t.Fatalf("third mark: %v", err)
	}

	got, err := progress.Get(dbctx.Context{Ctx: ctx}, "u1", courseID)
	if err != nil || got == nil {
		t.Fatalf("Get: %+v %v", got, err)
	}
	if len(got.CompletedLectures) != 2 {
		t.Fatalf("completed lectures: %v", got.CompletedLectures)
	}
}

func TestMarkLectureCompleteValidatesInput(t *testing.T) {
	agg := NewLectureProgressAggregate(LectureProgressAggregateDeps{Base: BaseDeps{Runner: spyTxRunner{}}})
	_, err := agg.MarkLectureComplete(context.Background(), domainagg.MarkLectureCompleteInput{UserID: "u1"})
	if !domainagg.IsCode(err, domainagg.CodeValidation) {
		t.Fatalf("expected validation, got %v", err)
	}
}
