package catalog

import (
	"context"
	"testing"
	"time"

	"github.com/yungbote/coursemarket-backend/internal/data/repos/testutil"
	types "github.com/yungbote/coursemarket-backend/internal/domain"
	"github.com/yungbote/coursemarket-backend/internal/platform/dbctx"
)

func TestEnrollmentRepoSetAddIsConditional(t *testing.T) {
	db := testutil.DB(t)
	ctx := context.Background()
	repo := NewEnrollmentRepo(db, testutil.Logger(t))
	dbc := dbctx.Context{Ctx: ctx}
	course := testutil.SeedCourse(t, ctx, db, testutil.CourseSeed{EducatorID: "edu", Published: true})

	now := time.Now()
	added, err := repo.AddUserCourse(dbc, "u1", course.ID, now)
	if err != nil || !added {
		t.Fatalf("AddUserCourse: added=%v err=%v", added, err)
	}
	added, err = repo.AddUserCourse(dbc, "u1", course.ID, now)
	if err != nil || added {
		t.Fatalf("AddUserCourse (dup): added=%v err=%v", added, err)
	}
	added, err = repo.AddCourseStudent(dbc, course.ID, "u1", now)
	if err != nil || !added {
		t.Fatalf("AddCourseStudent: added=%v err=%v", added, err)
	}

	ok, err := repo.IsStudent(dbc, course.ID, "u1")
	if err != nil || !ok {
		t.Fatalf("IsStudent: %v %v", ok, err)
	}
	ok, err = repo.HasCourse(dbc, "u2", course.ID)
	if err != nil || ok {
		t.Fatalf("HasCourse (u2): %v %v", ok, err)
	}

	list, err := repo.ListUserCourses(dbc, "u1")
	if err != nil || len(list) != 1 || list[0].CourseID != course.ID {
		t.Fatalf("ListUserCourses: %+v %v", list, err)
	}
}

func TestRatingRepoOverwritesAndAverages(t *testing.T) {
	db := testutil.DB(t)
	ctx := context.Background()
	repo := NewRatingRepo(db, testutil.Logger(t))
	dbc := dbctx.Context{Ctx: ctx}
	course := testutil.SeedCourse(t, ctx, db, testutil.CourseSeed{EducatorID: "edu", Published: true})

	summary, err := repo.Summary(dbc, course.ID)
	if err != nil || summary.Average != 0 || summary.Count != 0 {
		t.Fatalf("empty summary: %+v %v", summary, err)
	}

	for _, r := range []*types.CourseRating{
		{CourseID: course.ID, UserID: "a", Rating: 2},
		{CourseID: course.ID, UserID: "b", Rating: 5},
		{CourseID: course.ID, UserID: "a", Rating: 4},
	} {
		if err := repo.Upsert(dbc, r); err != nil {
			t.Fatalf("Upsert: %v", err)
		}
	}
	summary, err = repo.Summary(dbc, course.ID)
	if err != nil {
		t.Fatalf("Summary: %v", err)
	}
	if summary.Count != 2 || summary.Average != 4.5 {
		t.Fatalf("unexpected summary: %+v", summary)
	}
	mine, err := repo.GetForUser(dbc, course.ID, "a")
	if err != nil || mine == nil || mine.Rating != 4 {
		t.Fatalf("GetForUser: %+v %v", mine, err)
	}
}

func TestCourseRepoPublishIsOwnerScoped(t *testing.T) {
	db := testutil.DB(t)
	ctx := context.Background()
	repo := NewCourseRepo(db, testutil.Logger(t))
	dbc := dbctx.Context{Ctx: ctx}
	course := testutil.SeedCourse(t, ctx, db, testutil.CourseSeed{EducatorID: "edu"})

	ok, err := repo.SetPublished(dbc, course.ID, "someone-else", true)
	if err != nil || ok {
		t.Fatalf("SetPublished (non-owner): %v %v", ok, err)
	}
	ok, err = repo.SetPublished(dbc, course.ID, "edu", true)
	if err != nil || !ok {
		t.Fatalf("SetPublished (owner): %v %v", ok, err)
	}
	published, err := repo.ListPublished(dbc)
	if err != nil || len(published) != 1 {
		t.Fatalf("ListPublished: %d %v", len(published), err)
	}
	got, err := repo.GetByID(dbc, course.ID)
	if err != nil || got == nil || !got.Price.Equal(course.Price) {
		t.Fatalf("GetByID: %+v %v", got, err)
	}
}
