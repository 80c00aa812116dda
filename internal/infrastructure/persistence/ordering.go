package persistence

import (
	"strings"

	"gorm.io/gorm/clause"
)

// requestSortColumns are the columns the request listing may be ordered by
var requestSortColumns = map[string]bool{
	"created_at":  true,
	"updated_at":  true,
	"worker_name": true,
	"worker_area": true,
	"status":      true,
}

// orderBy turns caller supplied ordering into a quoted ORDER BY column.
// Columns outside allowed fall back to fallback; any direction but asc
// sorts descending.
func orderBy(field, dir string, allowed map[string]bool, fallback string) clause.OrderByColumn {
	col := strings.TrimSpace(field)
	if !allowed[col] {
		col = fallback
	}
	return clause.OrderByColumn{
		Column: clause.Column{Name: col},
		Desc:   !strings.EqualFold(strings.TrimSpace(dir), "asc"),
	}
}
