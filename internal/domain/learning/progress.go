package learning

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

type CourseProgress struct {
	ID             uuid.UUID `gorm:"type:uuid;primaryKey" json:"id"`
	UserID         string    `gorm:"column:user_id;type:text;not null;uniqueIndex:idx_course_progress_user_course" json:"user_id"`
	CourseID       uuid.UUID `gorm:"column:course_id;type:uuid;not null;uniqueIndex:idx_course_progress_user_course" json:"course_id"`
	LastAccessedAt time.Time `gorm:"column:last_accessed_at;not null" json:"last_accessed_at"`
	CreatedAt      time.Time `gorm:"autoCreateTime" json:"created_at"`
	UpdatedAt      time.Time `gorm:"autoUpdateTime" json:"updated_at"`

	CompletedLectures []string `gorm:"-" json:"completed_lectures"`
}

func (CourseProgress) TableName() string { return "course_progress" }

func (p *CourseProgress) BeforeCreate(_ *gorm.DB) error {
	if p.ID == uuid.Nil {
		p.ID = uuid.New()
	}
	return nil
}

// CompletedLecture is one member of a progress record's completed set.
type CompletedLecture struct {
	UserID      string    `gorm:"type:text;primaryKey" json:"user_id"`
	CourseID    uuid.UUID `gorm:"type:uuid;primaryKey" json:"course_id"`
	LectureID   string    `gorm:"type:text;primaryKey" json:"lecture_id"`
	CompletedAt time.Time `gorm:"not null" json:"completed_at"`
}

func (CompletedLecture) TableName() string { return "course_progress_lecture" }
