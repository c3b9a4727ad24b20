package catalog

import (
	"encoding/json"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"gorm.io/datatypes"
	"gorm.io/gorm"
)

type Lecture struct {
	LectureID       string  `json:"lecture_id" yaml:"lecture_id" validate:"required"`
	Title           string  `json:"title" yaml:"title" validate:"required"`
	DurationMinutes float64 `json:"duration_minutes" yaml:"duration_minutes" validate:"gte=0"`
	URL             string  `json:"url" yaml:"url"`
	IsPreviewFree   bool    `json:"is_preview_free" yaml:"is_preview_free"`
	Order           int     `json:"order" yaml:"order"`
}

type Chapter struct {
	ChapterID string    `json:"chapter_id" yaml:"chapter_id" validate:"required"`
	Order     int       `json:"order" yaml:"order"`
	Title     string    `json:"title" yaml:"title" validate:"required"`
	Lectures  []Lecture `json:"lectures" yaml:"lectures" validate:"dive"`
}

type Course struct {
	ID              uuid.UUID       `gorm:"type:uuid;primaryKey" json:"id"`
	Title           string          `gorm:"column:title;not null" json:"title"`
	Description     string          `gorm:"column:description;type:text" json:"description"`
	ThumbnailURL    string          `gorm:"column:thumbnail_url" json:"thumbnail_url"`
	Price           decimal.Decimal `gorm:"column:price;type:numeric(12,2);not null" json:"price"`
	DiscountPercent int             `gorm:"column:discount_percent;not null" json:"discount_percent"`
	Content         datatypes.JSON  `gorm:"column:content;type:jsonb" json:"content"`
	IsPublished     bool            `gorm:"column:is_published;not null;index" json:"is_published"`
	EducatorID      string          `gorm:"column:educator_id;type:text;not null;index" json:"educator_id"`
	CreatedAt       time.Time       `gorm:"autoCreateTime" json:"created_at"`
	UpdatedAt       time.Time       `gorm:"autoUpdateTime" json:"updated_at"`
}

func (Course) TableName() string { return "course" }

func (c *Course) BeforeCreate(_ *gorm.DB) error {
	if c.ID == uuid.Nil {
		c.ID = uuid.New()
	}
	return nil
}

func (c *Course) Chapters() ([]Chapter, error) {
	if c == nil || len(c.Content) == 0 {
		return []Chapter{}, nil
	}
	var out []Chapter
	if err := json.Unmarshal(c.Content, &out); err != nil {
		return nil, err
	}
	return out, nil
}

func (c *Course) SetChapters(chapters []Chapter) error {
	if chapters == nil {
		chapters = []Chapter{}
	}
	raw, err := json.Marshal(chapters)
	if err != nil {
		return err
	}
	c.Content = datatypes.JSON(raw)
	return nil
}

// Lecture looks a lecture up by id across all chapters.
func (c *Course) Lecture(lectureID string) (Lecture, bool) {
	chapters, err := c.Chapters()
	if err != nil {
		return Lecture{}, false
	}
	for _, ch := range chapters {
		for _, l := range ch.Lectures {
			if l.LectureID == lectureID {
				return l, true
			}
		}
	}
	return Lecture{}, false
}
