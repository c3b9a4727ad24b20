package services

import (
	"context"
	"errors"
	"fmt"
	"io"
	"strings"

	"github.com/google/uuid"
	"gopkg.in/yaml.v3"
	"gorm.io/gorm"

	"github.com/yungbote/coursemarket-backend/internal/data/repos"
	types "github.com/yungbote/coursemarket-backend/internal/domain"
	"github.com/yungbote/coursemarket-backend/internal/platform/dbctx"
)

// seedNamespace keys generated course ids so reseeding the same file
// updates rows instead of duplicating them.
var seedNamespace = uuid.MustParse("5b0f4a8e-3c1d-4e57-9a61-0c2f1d6b7e90")

type CatalogSeed struct {
	Educators []SeedEducator `yaml:"educators"`
	Courses   []SeedCourse   `yaml:"courses"`
}

type SeedEducator struct {
	ID       string `yaml:"id"`
	Name     string `yaml:"name"`
	Email    string `yaml:"email"`
	ImageURL string `yaml:"image_url"`
}

type SeedCourse struct {
	ID          string `yaml:"id"`
	EducatorID  string `yaml:"educator_id"`
	CourseInput `yaml:",inline"`
}

type SeedReport struct {
	Educators int
	Courses   int
}

func ParseCatalogSeed(r io.Reader) (*CatalogSeed, error) {
	dec := yaml.NewDecoder(r)
	dec.KnownFields(true)
	var seed CatalogSeed
	if err := dec.Decode(&seed); err != nil {
		if errors.Is(err, io.EOF) {
			return &seed, nil
		}
		return nil, fmt.Errorf("parse catalog seed: %w", err)
	}
	return &seed, nil
}

// ApplyCatalogSeed upserts educators and their courses in one transaction.
// Every course is validated before anything is written.
func ApplyCatalogSeed(ctx context.Context, db *gorm.DB, users repos.UserRepo, courses repos.CourseRepo, seed *CatalogSeed) (SeedReport, error) {
	const op = "Catalog.Seed"
	var report SeedReport
	if seed == nil {
		return report, nil
	}

	educators := make([]*types.User, 0, len(seed.Educators))
	known := map[string]bool{}
	for i, e := range seed.Educators {
		id := strings.TrimSpace(e.ID)
		if id == "" {
			return report, errValidation(op, fmt.Sprintf("educators[%d]: id is required", i))
		}
		known[id] = true
		educators = append(educators, &types.User{
			ID:       id,
			Name:     firstNonEmpty(e.Name, id),
			Email:    strings.TrimSpace(e.Email),
			ImageURL: strings.TrimSpace(e.ImageURL),
			Role:     types.RoleEducator,
		})
	}

	built := make([]*types.Course, 0, len(seed.Courses))
	for i, sc := range seed.Courses {
		educatorID := strings.TrimSpace(sc.EducatorID)
		if !known[educatorID] {
			return report, errValidation(op, fmt.Sprintf("courses[%d]: educator %q is not declared", i, educatorID))
		}
		c, err := sc.CourseInput.Build(educatorID)
		if err != nil {
			return report, fmt.Errorf("courses[%d]: %w", i, err)
		}
		if raw := strings.TrimSpace(sc.ID); raw != "" {
			if c.ID, err = uuid.Parse(raw); err != nil {
				return report, errValidation(op, fmt.Sprintf("courses[%d]: id must be a uuid", i))
			}
		} else {
			c.ID = uuid.NewSHA1(seedNamespace, []byte(educatorID+"/"+strings.TrimSpace(sc.Title)))
		}
		built = append(built, c)
	}

	err := db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		dbc := dbctx.Context{Ctx: ctx, Tx: tx}
		for _, u := range educators {
			if err := users.Upsert(dbc, u); err != nil {
				return fmt.Errorf("upsert educator %s: %w", u.ID, err)
			}
		}
		return courses.Upsert(dbc, built)
	})
	if err != nil {
		return report, err
	}
	report.Educators = len(educators)
	report.Courses = len(built)
	return report, nil
}
