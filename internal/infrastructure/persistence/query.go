package persistence

import (
	"strings"

	"github.com/ecomt/storefront/internal/domain/shared"
	"gorm.io/gorm"
)

// applyOrder adds a whitelisted ORDER BY to the query
func applyOrder(query *gorm.DB, filter shared.Filter, allowed map[string]bool, defaultField string) *gorm.DB {
	field := ValidateSortField(filter.OrderBy, allowed, defaultField)
	return query.Order(field + " " + ValidateSortOrder(filter.OrderDir))
}

// applyPaging adds LIMIT/OFFSET when the filter requests a page
func applyPaging(query *gorm.DB, filter shared.Filter) *gorm.DB {
	if !filter.Paged() {
		return query
	}
	return query.Offset(filter.Offset()).Limit(filter.PageSize)
}

// likeEscape makes the backslash escape portable across postgres and sqlite
const likeEscape = ` ESCAPE '\'`

// containsPattern builds a case-insensitive LIKE pattern, to be compared with LOWER(column)
func containsPattern(s string) string {
	s = strings.ToLower(strings.TrimSpace(s))
	s = strings.NewReplacer(`\`, `\\`, "%", `\%`, "_", `\_`).Replace(s)
	return "%" + s + "%"
}
