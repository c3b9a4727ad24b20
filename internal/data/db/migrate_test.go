package db

import (
	"fmt"
	"testing"
)

func TestOpenSQLiteMigratesAllTables(t *testing.T) {
	db, err := OpenSQLite(fmt.Sprintf("file:%s?mode=memory&cache=shared", t.Name()), true)
	if err != nil {
		t.Fatalf("open: %v", err)
	}
	for _, table := range []string{
		"user", "course", "user_course", "course_student", "course_rating",
		"purchase", "course_progress", "course_progress_lecture", "webhook_event",
	} {
		if !db.Migrator().HasTable(table) {
			t.Fatalf("missing table %s", table)
		}
	}
	// running twice must be a no-op
	if err := AutoMigrateAll(db); err != nil {
		t.Fatalf("second migrate: %v", err)
	}
}
