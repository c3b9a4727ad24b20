package aggregates

import (
	"strings"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/yungbote/coursemarket-backend/internal/platform/dbctx"
)

// CASGuard performs status-conditioned updates. Exactly one of any set of
// concurrent transitions out of the same status observes won == true.
type CASGuard struct {
	db *gorm.DB
}

func NewCASGuard(db *gorm.DB) CASGuard {
	return CASGuard{db: db}
}

// TransitionFrom applies updates to table row id only while its status is
// one of from.
func (g CASGuard) TransitionFrom(dbc dbctx.Context, table string, id uuid.UUID, from []string, updates map[string]any) (won bool, err error) {
	db := dbc.DB(g.db)
	if db == nil {
		return false, ValidationError("missing db transaction context")
	}
	switch {
	case strings.TrimSpace(table) == "" || id == uuid.Nil:
		return false, ValidationError("table and id are required")
	case len(from) == 0:
		return false, ValidationError("at least one source status is required")
	case len(updates) == 0:
		return false, ValidationError("updates must not be empty")
	}
	res := db.Table(table).Where("id = ? AND status IN ?", id, from).Updates(updates)
	if res.Error != nil {
		return false, res.Error
	}
	return res.RowsAffected == 1, nil
}
