// Package sqlite provides the SQLite-backed implementation of
// repository.NewsRepository: the unified news database spec §4.4
// describes, with idempotent insert, filtered query, and health checks.
package sqlite

import (
	"strings"

	"newslook/internal/repository"
)

// NewsQueryBuilder builds the WHERE clause shared by Query and Count so
// filtering logic lives in exactly one place.
type NewsQueryBuilder struct{}

// NewNewsQueryBuilder creates a query builder instance.
func NewNewsQueryBuilder() *NewsQueryBuilder {
	return &NewsQueryBuilder{}
}

// BuildWhereClause turns filter into a "WHERE ..." clause (or "" when
// filter is empty) and its positional arguments.
func (qb *NewsQueryBuilder) BuildWhereClause(filter repository.NewsFilter) (string, []interface{}) {
	var conditions []string
	var args []interface{}

	if filter.Source != "" {
		conditions = append(conditions, "source = ?")
		args = append(args, string(filter.Source))
	}
	if filter.Category != "" {
		conditions = append(conditions, "category = ?")
		args = append(args, filter.Category)
	}
	if filter.From != nil {
		conditions = append(conditions, "publish_time >= ?")
		args = append(args, *filter.From)
	}
	if filter.To != nil {
		conditions = append(conditions, "publish_time <= ?")
		args = append(args, *filter.To)
	}
	if filter.Keyword != "" {
		conditions = append(conditions, "keywords LIKE ?")
		args = append(args, "%"+filter.Keyword+"%")
	}
	if filter.Text != "" {
		pattern := "%" + filter.Text + "%"
		conditions = append(conditions, "(title LIKE ? OR content LIKE ?)")
		args = append(args, pattern, pattern)
	}

	if len(conditions) == 0 {
		return "", args
	}
	return "WHERE " + strings.Join(conditions, " AND "), args
}
