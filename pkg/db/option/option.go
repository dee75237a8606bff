package option

import (
	"strconv"
	"strings"
	"time"

	"github.com/notifybiz/console/pkg/db/pagination"
	"gorm.io/gorm"
)

type Option interface {
	Apply(stmt *gorm.DB) *gorm.DB
}

type paginationOption struct {
	page pagination.Pagination
}

// ApplyPagination translates a cursor page request into query constraints.
// It fetches one extra row so callers can detect whether more pages exist.
func ApplyPagination(page pagination.Pagination) Option {
	return paginationOption{page: page}
}

func (o paginationOption) Apply(stmt *gorm.DB) *gorm.DB {
	size := o.page.PageSize
	if size <= 0 {
		size = 10
	}
	if size > 250 {
		size = 250
	}

	if token := strings.TrimSpace(o.page.PageToken); token != "" {
		cursor, err := pagination.DecodeCursor(token)
		if err == nil && cursor != nil && cursor.CreatedAt != "" && cursor.ID != "" {
			createdAt, timeErr := parseCursorTime(cursor.CreatedAt)
			id, idErr := strconv.ParseInt(cursor.ID, 10, 64)
			if timeErr == nil && idErr == nil {
				stmt = stmt.Where(
					"(created_at < ?) OR (created_at = ? AND id < ?)",
					createdAt, createdAt, id,
				)
			}
		}
	}

	return stmt.Limit(size + 1)
}

func parseCursorTime(raw string) (time.Time, error) {
	t, err := time.Parse(time.RFC3339Nano, raw)
	if err == nil {
		return t, nil
	}
	return time.Parse(time.RFC3339, raw)
}
