package db

import (
	"fmt"

	"gorm.io/gorm"

	types "github.com/yungbote/coursemarket-backend/internal/domain"
)

func AutoMigrateAll(db *gorm.DB) error {
	if err := db.AutoMigrate(types.Models()...); err != nil {
		return err
	}
	return EnsureIndexes(db)
}

// EnsureIndexes creates indexes GORM tags can't express. Both statements are
// portable between Postgres and SQLite.
func EnsureIndexes(db *gorm.DB) error {
	stmts := []struct{ name, sql string }{
		{"idx_course_student_user", `CREATE INDEX IF NOT EXISTS idx_course_student_user ON course_student(user_id);`},
		{"idx_purchase_pending_sweep", `CREATE INDEX IF NOT EXISTS idx_purchase_pending_sweep ON purchase(status, created_at);`},
	}
	for _, s := range stmts {
		if err := db.Exec(s.sql).Error; err != nil {
			return fmt.Errorf("create %s: %w", s.name, err)
		}
	}
	return nil
}
