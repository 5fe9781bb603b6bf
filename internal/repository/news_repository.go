// Package repository declares the storage-facing interfaces the usecase
// layer depends on, decoupled from the SQLite implementation in
// internal/infra/adapter/persistence/sqlite.
package repository

import (
	"context"
	"time"

	"newslook/internal/domain/entity"
)

// InsertOutcome reports whether insert_article created a new row.
type InsertOutcome string

const (
	Inserted  InsertOutcome = "inserted"
	Duplicate InsertOutcome = "duplicate"
)

// NewsFilter narrows Query/Count to a subset of stored articles. Zero
// values mean "no restriction" for that field.
type NewsFilter struct {
	Source   entity.Source
	Category string
	From     *time.Time
	To       *time.Time
	Keyword  string // matches against the stored keywords list
	Text     string // substring match against title/content
}

// OrderBy is the stable sort spec.Query supports.
type OrderBy string

const (
	OrderPublishTimeDesc OrderBy = "publish_time_desc"
)

// TrendPoint is one day's article count, as returned by Trends.
type TrendPoint struct {
	Date  string // YYYY-MM-DD
	Count int64
}

// HealthReport is the result of NewsRepository.Health.
type HealthReport struct {
	SizeBytes     int64
	NewsCount     int64
	LastInsertAt  *time.Time
	IntegrityOK   bool
	IntegrityAge  time.Duration
}

// NewsRepository is the storage layer's public contract, implementing
// spec §4.4's operations over the unified SQLite database.
type NewsRepository interface {
	// InsertArticle inserts a in a single transaction, upserting its
	// keyword/stock reference rows. Returns Duplicate (not an error) when
	// a.URL already exists.
	InsertArticle(ctx context.Context, a *entity.Article) (InsertOutcome, error)

	// Query returns one page of articles matching filter, stably ordered,
	// plus the exact total row count under that filter.
	Query(ctx context.Context, filter NewsFilter, page, pageSize int, order OrderBy) ([]*entity.Article, int64, error)

	GetByID(ctx context.Context, id string) (*entity.Article, error)
	ListSources(ctx context.Context) ([]entity.Source, error)
	ListCategories(ctx context.Context) ([]string, error)
	Count(ctx context.Context, filter NewsFilter) (int64, error)

	// TopKeywords returns the n most frequent keywords by count.
	TopKeywords(ctx context.Context, n int) ([]entity.Keyword, error)

	// Trends returns one article count per calendar day in [from, to],
	// ordered ascending by date, days with zero articles omitted.
	Trends(ctx context.Context, from, to time.Time) ([]TrendPoint, error)

	// ReclassifySource rewrites the source column for every row currently
	// flagged needs_reclass and matching oldSource, idempotently.
	ReclassifySource(ctx context.Context, oldSource entity.Source, newSource entity.Source) (int64, error)

	Health(ctx context.Context) (HealthReport, error)
}
