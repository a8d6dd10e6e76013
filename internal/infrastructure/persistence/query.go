package persistence

import (
	"strings"

	"github.com/shopfront/backend/internal/domain/shared"
	"gorm.io/gorm"
)

// Allowed sort columns per resource
var (
	UserSortFields = map[string]bool{
		"created_at": true, "name": true, "email": true, "role": true, "last_login_at": true,
	}
	CategorySortFields = map[string]bool{
		"created_at": true, "name": true,
	}
	ProductSortFields = map[string]bool{
		"price": true, "created_at": true, "rating": true, "sold_count": true, "name": true,
	}
	OrderSortFields = map[string]bool{
		"created_at": true, "total_price": true, "status": true,
	}
	ReviewSortFields = map[string]bool{
		"created_at": true, "rating": true,
	}
	ConversationSortFields = map[string]bool{
		"created_at": true, "last_message_at": true,
	}
)

// ValidateSortOrder normalizes a direction to ASC or DESC, defaulting to DESC
func ValidateSortOrder(orderDir string) string {
	if strings.EqualFold(strings.TrimSpace(orderDir), "asc") {
		return "ASC"
	}
	return "DESC"
}

// ValidateSortField returns sortField if whitelisted, else defaultField
func ValidateSortField(sortField string, allowed map[string]bool, defaultField string) string {
	f := strings.TrimSpace(sortField)
	if allowed[f] {
		return f
	}
	return defaultField
}

// orderBy applies a whitelisted ORDER BY with id as tie breaker
func orderBy(q *gorm.DB, f shared.Filter, allowed map[string]bool, defaultField string) *gorm.DB {
	field := ValidateSortField(f.OrderBy, allowed, defaultField)
	return q.Order(field + " " + ValidateSortOrder(f.OrderDir)).Order("id")
}

// paginate applies LIMIT/OFFSET from a normalized filter
func paginate(q *gorm.DB, f shared.Filter) *gorm.DB {
	f = f.Normalize()
	return q.Offset(f.Offset()).Limit(f.PageSize)
}

// searchAny matches term case-insensitively against any of columns.
// LOWER/LIKE keeps the query portable between postgres and sqlite.
func searchAny(q *gorm.DB, term string, columns ...string) *gorm.DB {
	term = strings.TrimSpace(term)
	if term == "" || len(columns) == 0 {
		return q
	}
	pattern := "%" + escapeLike(strings.ToLower(term)) + "%"
	clauses := make([]string, len(columns))
	args := make([]any, len(columns))
	for i, c := range columns {
		clauses[i] = "LOWER(" + c + ") LIKE ? ESCAPE '\\'"
		args[i] = pattern
	}
	return q.Where("("+strings.Join(clauses, " OR ")+")", args...)
}

func escapeLike(s string) string {
	r := strings.NewReplacer(`\`, `\\`, `%`, `\%`, `_`, `\_`)
	return r.Replace(s)
}
