package catalog

import (
	"time"

	"github.com/google/uuid"
)

// UserCourse and CourseStudent are the two mirrored views of enrollment.
// They are written together, always in the same transaction, and
// reference each side by id only.
type UserCourse struct {
	UserID     string    `gorm:"type:text;primaryKey" json:"user_id"`
	CourseID   uuid.UUID `gorm:"type:uuid;primaryKey" json:"course_id"`
	EnrolledAt time.Time `gorm:"not null;index" json:"enrolled_at"`
}

func (UserCourse) TableName() string { return "user_course" }

type CourseStudent struct {
	CourseID   uuid.UUID `gorm:"type:uuid;primaryKey" json:"course_id"`
	UserID     string    `gorm:"type:text;primaryKey" json:"user_id"`
	EnrolledAt time.Time `gorm:"not null" json:"enrolled_at"`
}

func (CourseStudent) TableName() string { return "course_student" }

type CourseRating struct {
	CourseID  uuid.UUID `gorm:"type:uuid;primaryKey" json:"course_id"`
	UserID    string    `gorm:"type:text;primaryKey" json:"user_id"`
	Rating    int       `gorm:"not null" json:"rating"`
	CreatedAt time.Time `gorm:"autoCreateTime" json:"created_at"`
	UpdatedAt time.Time `gorm:"autoUpdateTime" json:"updated_at"`
}

func (CourseRating) TableName() string { return "course_rating" }

const (
	MinRating = 1
	MaxRating = 5
)
