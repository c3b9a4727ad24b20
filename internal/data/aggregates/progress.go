package aggregates

import (
	"context"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/yungbote/coursemarket-backend/internal/data/repos"
	domainagg "github.com/yungbote/coursemarket-backend/internal/domain/aggregates"
	"github.com/yungbote/coursemarket-backend/internal/platform/dbctx"
)

type LectureProgressAggregateDeps struct {
	Base     BaseDeps
	Progress repos.CourseProgressRepo
}

type lectureProgressAggregate struct {
	deps LectureProgressAggregateDeps
}

func NewLectureProgressAggregate(deps LectureProgressAggregateDeps) domainagg.LectureProgressAggregate {
	deps.Base = deps.Base.filled()
	return &lectureProgressAggregate{deps: deps}
}

func (a *lectureProgressAggregate) Contract() domainagg.Contract {
	return domainagg.LectureProgressAggregateContract
}

func (a *lectureProgressAggregate) MarkLectureComplete(ctx context.Context, in domainagg.MarkLectureCompleteInput) (domainagg.MarkLectureCompleteResult, error) {
	const op = "Learning.LectureProgress.MarkLectureComplete"
	out := domainagg.MarkLectureCompleteResult{}
	userID := strings.TrimSpace(in.UserID)
	lectureID := strings.TrimSpace(in.LectureID)
	if userID == "" || in.CourseID == uuid.Nil || lectureID == "" {
		return out, domainagg.NewError(domainagg.CodeValidation, op, "user_id, course_id and lecture_id are required", nil)
	}
	if a.deps.Progress == nil {
		return out, domainagg.NewError(domainagg.CodeInternal, op, "progress aggregate not configured", nil)
	}
	at := in.At.UTC()
	if in.At.IsZero() {
		at = time.Now().UTC()
	}

	err := executeWrite(ctx, a.deps.Base, op, func(dbc dbctx.Context) error {
		created, err := a.deps.Progress.Touch(dbc, userID, in.CourseID, at)
		if err != nil {
			return err
		}
		added, err := a.deps.Progress.AddCompletedLecture(dbc, userID, in.CourseID, lectureID, at)
		if err != nil {
			return err
		}
		out.ProgressCreated = created
		out.LectureAdded = added
		return nil
	})
	if err != nil {
		return domainagg.MarkLectureCompleteResult{}, err
	}
	return out, nil
}
