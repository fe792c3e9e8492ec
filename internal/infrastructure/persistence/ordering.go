package persistence

import (
	"strings"

	"github.com/reimburse/backend/internal/domain/shared"
)

// sortColumns whitelists the columns a listing may be ordered by.
// Anything else coming from a query string is replaced by the fallback.
type sortColumns struct {
	allowed map[string]bool
	// key breaks ties so page boundaries stay stable when rows share a timestamp
	key string
}

var (
	requestSortColumns = sortColumns{key: "id", allowed: map[string]bool{
		"created_at": true, "updated_at": true, "date": true,
		"payee": true, "status": true, "total_amount": true,
	}}
	settlementSortColumns = sortColumns{key: "id", allowed: map[string]bool{
		"created_at": true, "updated_at": true, "payee": true, "total_amount": true,
	}}
	projectSortColumns = sortColumns{key: "id", allowed: map[string]bool{
		"created_at": true, "updated_at": true, "name": true,
	}}
	userSortColumns = sortColumns{key: "uid", allowed: map[string]bool{
		"created_at": true, "updated_at": true, "email": true,
		"name": true, "display_name": true, "role": true,
	}}
)

// orderClause renders "column DIR, key DIR" for the filter
func (c sortColumns) orderClause(f shared.Filter, fallback string) string {
	column := strings.TrimSpace(f.OrderBy)
	if !c.allowed[column] {
		column = fallback
	}
	dir := "DESC"
	if strings.EqualFold(strings.TrimSpace(f.OrderDir), "asc") {
		dir = "ASC"
	}
	return column + " " + dir + ", " + c.key + " " + dir
}
