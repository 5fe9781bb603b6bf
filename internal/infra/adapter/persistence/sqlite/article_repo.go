package sqlite

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"time"

	"newslook/internal/domain/entity"
	"newslook/internal/repository"
)

// NewsRepo implements repository.NewsRepository against the unified
// SQLite news/keywords/stocks schema. Reads go through reader, writes
// through writer — callers construct both from the same db.DB so writes
// serialize behind a single connection.
type NewsRepo struct {
	writer       *sql.DB
	reader       *sql.DB
	queryBuilder *NewsQueryBuilder
}

// NewNewsRepo builds a NewsRepo. writer must have MaxOpenConns(1).
func NewNewsRepo(writer, reader *sql.DB) repository.NewsRepository {
	return &NewsRepo{writer: writer, reader: reader, queryBuilder: NewNewsQueryBuilder()}
}

// InsertArticle inserts a within one transaction: the news row via
// INSERT OR IGNORE on url, then keyword/stock upserts and join rows —
// skipped entirely when the news row already existed.
func (r *NewsRepo) InsertArticle(ctx context.Context, a *entity.Article) (repository.InsertOutcome, error) {
	tx, err := r.writer.BeginTx(ctx, nil)
	if err != nil {
		return "", fmt.Errorf("InsertArticle: begin: %w", err)
	}
	defer func() { _ = tx.Rollback() }()

	keywordsJSON, err := json.Marshal(a.Keywords)
	if err != nil {
		return "", fmt.Errorf("InsertArticle: marshal keywords: %w", err)
	}
	imagesJSON, err := json.Marshal(a.Images)
	if err != nil {
		return "", fmt.Errorf("InsertArticle: marshal images: %w", err)
	}
	stocksJSON, err := json.Marshal(a.RelatedStocks)
	if err != nil {
		return "", fmt.Errorf("InsertArticle: marshal stocks: %w", err)
	}

	res, err := tx.ExecContext(ctx, `
INSERT OR IGNORE INTO news
(id, url, title, content, content_html, publish_time, crawl_time, author, source, category, sentiment, needs_reclass, keywords, images, related_stocks)
VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		a.ID, a.URL, a.Title, a.Content, a.ContentHTML, a.PublishTime, a.CrawlTime,
		a.Author, string(a.Source), a.Category, string(a.Sentiment), boolToInt(a.NeedsReclass),
		string(keywordsJSON), string(imagesJSON), string(stocksJSON),
	)
	if err != nil {
		return "", fmt.Errorf("InsertArticle: insert news: %w", err)
	}
	affected, err := res.RowsAffected()
	if err != nil {
		return "", fmt.Errorf("InsertArticle: rows affected: %w", err)
	}
	if affected == 0 {
		return repository.Duplicate, nil
	}

	for _, kw := range a.Keywords {
		if err := upsertKeyword(ctx, tx, a.ID, kw, a.CrawlTime); err != nil {
			return "", fmt.Errorf("InsertArticle: upsert keyword %q: %w", kw, err)
		}
	}
	for _, st := range a.RelatedStocks {
		if err := upsertStock(ctx, tx, a.ID, st, a.CrawlTime); err != nil {
			return "", fmt.Errorf("InsertArticle: upsert stock %q: %w", st.Code, err)
		}
	}

	if err := tx.Commit(); err != nil {
		return "", fmt.Errorf("InsertArticle: commit: %w", err)
	}
	return repository.Inserted, nil
}

func upsertKeyword(ctx context.Context, tx *sql.Tx, newsID, keyword string, at time.Time) error {
	if _, err := tx.ExecContext(ctx, `
INSERT INTO keywords (keyword, count, last_updated) VALUES (?, 1, ?)
ON CONFLICT(keyword) DO UPDATE SET count = count + 1, last_updated = excluded.last_updated`,
		keyword, at); err != nil {
		return err
	}
	var keywordID int64
	if err := tx.QueryRowContext(ctx, `SELECT id FROM keywords WHERE keyword = ?`, keyword).Scan(&keywordID); err != nil {
		return err
	}
	_, err := tx.ExecContext(ctx, `INSERT OR IGNORE INTO news_keywords (news_id, keyword_id) VALUES (?, ?)`, newsID, keywordID)
	return err
}

func upsertStock(ctx context.Context, tx *sql.Tx, newsID string, st entity.Stock, at time.Time) error {
	if _, err := tx.ExecContext(ctx, `
INSERT INTO stocks (code, name, count, last_updated) VALUES (?, ?, 1, ?)
ON CONFLICT(code) DO UPDATE SET count = count + 1, last_updated = excluded.last_updated, name = excluded.name`,
		st.Code, st.Name, at); err != nil {
		return err
	}
	_, err := tx.ExecContext(ctx, `INSERT OR IGNORE INTO news_stocks (news_id, stock_code) VALUES (?, ?)`, newsID, st.Code)
	return err
}

func boolToInt(b bool) int {
	if b {
		return 1
	}
	return 0
}

const newsColumns = `id, url, title, content, content_html, publish_time, crawl_time, author, source, category, sentiment, needs_reclass, keywords, images, related_stocks`

func scanArticle(row interface {
	Scan(dest ...interface{}) error
}) (*entity.Article, error) {
	var a entity.Article
	var publishTime sql.NullTime
	var source, sentiment string
	var needsReclass int
	var keywordsJSON, imagesJSON, stocksJSON sql.NullString

	err := row.Scan(&a.ID, &a.URL, &a.Title, &a.Content, &a.ContentHTML, &publishTime, &a.CrawlTime,
		&a.Author, &source, &a.Category, &sentiment, &needsReclass, &keywordsJSON, &imagesJSON, &stocksJSON)
	if err != nil {
		return nil, err
	}

	if publishTime.Valid {
		t := publishTime.Time
		a.PublishTime = &t
	}
	a.Source = entity.Source(source)
	a.Sentiment = entity.Sentiment(sentiment)
	a.NeedsReclass = needsReclass != 0

	if keywordsJSON.Valid && keywordsJSON.String != "" {
		_ = json.Unmarshal([]byte(keywordsJSON.String), &a.Keywords)
	}
	if imagesJSON.Valid && imagesJSON.String != "" {
		_ = json.Unmarshal([]byte(imagesJSON.String), &a.Images)
	}
	if stocksJSON.Valid && stocksJSON.String != "" {
		_ = json.Unmarshal([]byte(stocksJSON.String), &a.RelatedStocks)
	}
	return &a, nil
}

// GetByID returns the article with the given id, or nil if absent.
func (r *NewsRepo) GetByID(ctx context.Context, id string) (*entity.Article, error) {
	row := r.reader.QueryRowContext(ctx, `SELECT `+newsColumns+` FROM news WHERE id = ?`, id)
	a, err := scanArticle(row)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("GetByID: %w", err)
	}
	return a, nil
}

// Query returns one page of articles under filter, ordered by
// publish_time (falling back to crawl_time when null) descending, with
// id as a stable tiebreaker, plus the exact total row count.
func (r *NewsRepo) Query(ctx context.Context, filter repository.NewsFilter, page, pageSize int, order repository.OrderBy) ([]*entity.Article, int64, error) {
	if page < 1 {
		page = 1
	}
	if pageSize < 1 {
		pageSize = 20
	}

	whereClause, args := r.queryBuilder.BuildWhereClause(filter)

	total, err := r.Count(ctx, filter)
	if err != nil {
		return nil, 0, fmt.Errorf("Query: count: %w", err)
	}
	if total == 0 {
		return []*entity.Article{}, 0, nil
	}

	query := `SELECT ` + newsColumns + ` FROM news ` + whereClause + `
ORDER BY COALESCE(publish_time, crawl_time) DESC, id DESC
LIMIT ? OFFSET ?`
	args = append(args, pageSize, (page-1)*pageSize)

	rows, err := r.reader.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, 0, fmt.Errorf("Query: %w", err)
	}
	defer func() { _ = rows.Close() }()

	articles := make([]*entity.Article, 0, pageSize)
	for rows.Next() {
		a, err := scanArticle(rows)
		if err != nil {
			return nil, 0, fmt.Errorf("Query: scan: %w", err)
		}
		articles = append(articles, a)
	}
	if err := rows.Err(); err != nil {
		return nil, 0, fmt.Errorf("Query: rows.Err: %w", err)
	}
	return articles, total, nil
}

// Count returns the exact row count under filter.
func (r *NewsRepo) Count(ctx context.Context, filter repository.NewsFilter) (int64, error) {
	whereClause, args := r.queryBuilder.BuildWhereClause(filter)
	query := "SELECT COUNT(*) FROM news " + whereClause
	var count int64
	if err := r.reader.QueryRowContext(ctx, query, args...).Scan(&count); err != nil {
		return 0, fmt.Errorf("Count: %w", err)
	}
	return count, nil
}

// ListSources returns the distinct sources currently stored.
func (r *NewsRepo) ListSources(ctx context.Context) ([]entity.Source, error) {
	rows, err := r.reader.QueryContext(ctx, `SELECT DISTINCT source FROM news ORDER BY source`)
	if err != nil {
		return nil, fmt.Errorf("ListSources: %w", err)
	}
	defer func() { _ = rows.Close() }()

	var sources []entity.Source
	for rows.Next() {
		var s string
		if err := rows.Scan(&s); err != nil {
			return nil, fmt.Errorf("ListSources: scan: %w", err)
		}
		sources = append(sources, entity.Source(s))
	}
	return sources, rows.Err()
}

// ListCategories returns the distinct non-empty categories currently
// stored.
func (r *NewsRepo) ListCategories(ctx context.Context) ([]string, error) {
	rows, err := r.reader.QueryContext(ctx, `SELECT DISTINCT category FROM news WHERE category IS NOT NULL AND category != '' ORDER BY category`)
	if err != nil {
		return nil, fmt.Errorf("ListCategories: %w", err)
	}
	defer func() { _ = rows.Close() }()

	var categories []string
	for rows.Next() {
		var c string
		if err := rows.Scan(&c); err != nil {
			return nil, fmt.Errorf("ListCategories: scan: %w", err)
		}
		categories = append(categories, c)
	}
	return categories, rows.Err()
}

// TopKeywords returns the n most frequent keywords.
func (r *NewsRepo) TopKeywords(ctx context.Context, n int) ([]entity.Keyword, error) {
	rows, err := r.reader.QueryContext(ctx, `SELECT keyword, count, last_updated FROM keywords ORDER BY count DESC LIMIT ?`, n)
	if err != nil {
		return nil, fmt.Errorf("TopKeywords: %w", err)
	}
	defer func() { _ = rows.Close() }()

	var keywords []entity.Keyword
	for rows.Next() {
		var k entity.Keyword
		if err := rows.Scan(&k.Keyword, &k.Count, &k.LastUpdated); err != nil {
			return nil, fmt.Errorf("TopKeywords: scan: %w", err)
		}
		keywords = append(keywords, k)
	}
	return keywords, rows.Err()
}

// Trends returns one row count per calendar day of COALESCE(publish_time,
// crawl_time) within [from, to], days with zero rows omitted.
func (r *NewsRepo) Trends(ctx context.Context, from, to time.Time) ([]repository.TrendPoint, error) {
	rows, err := r.reader.QueryContext(ctx, `
SELECT date(COALESCE(publish_time, crawl_time)) AS d, COUNT(*)
FROM news
WHERE COALESCE(publish_time, crawl_time) BETWEEN ? AND ?
GROUP BY d
ORDER BY d ASC`, from, to)
	if err != nil {
		return nil, fmt.Errorf("Trends: %w", err)
	}
	defer func() { _ = rows.Close() }()

	var points []repository.TrendPoint
	for rows.Next() {
		var p repository.TrendPoint
		if err := rows.Scan(&p.Date, &p.Count); err != nil {
			return nil, fmt.Errorf("Trends: scan: %w", err)
		}
		points = append(points, p)
	}
	return points, rows.Err()
}

// ReclassifySource rewrites source for every row flagged needs_reclass
// matching oldSource, clearing the flag. Idempotent: a second call with
// the same arguments affects zero rows.
func (r *NewsRepo) ReclassifySource(ctx context.Context, oldSource, newSource entity.Source) (int64, error) {
	res, err := r.writer.ExecContext(ctx, `
UPDATE news SET source = ?, needs_reclass = 0
WHERE source = ? AND needs_reclass = 1`, string(newSource), string(oldSource))
	if err != nil {
		return 0, fmt.Errorf("ReclassifySource: %w", err)
	}
	affected, err := res.RowsAffected()
	if err != nil {
		return 0, fmt.Errorf("ReclassifySource: rows affected: %w", err)
	}
	return affected, nil
}

// Health reports store size, row count, and a cheap integrity check.
func (r *NewsRepo) Health(ctx context.Context) (repository.HealthReport, error) {
	var report repository.HealthReport

	if err := r.reader.QueryRowContext(ctx, `SELECT COUNT(*) FROM news`).Scan(&report.NewsCount); err != nil {
		return report, fmt.Errorf("Health: count: %w", err)
	}

	var lastInsert sql.NullTime
	if err := r.reader.QueryRowContext(ctx, `SELECT MAX(crawl_time) FROM news`).Scan(&lastInsert); err != nil {
		return report, fmt.Errorf("Health: last insert: %w", err)
	}
	if lastInsert.Valid {
		t := lastInsert.Time
		report.LastInsertAt = &t
	}

	var pageCount, pageSize int64
	if err := r.reader.QueryRowContext(ctx, `PRAGMA page_count`).Scan(&pageCount); err != nil {
		return report, fmt.Errorf("Health: page_count: %w", err)
	}
	if err := r.reader.QueryRowContext(ctx, `PRAGMA page_size`).Scan(&pageSize); err != nil {
		return report, fmt.Errorf("Health: page_size: %w", err)
	}
	report.SizeBytes = pageCount * pageSize

	var integrityResult string
	if err := r.reader.QueryRowContext(ctx, `PRAGMA quick_check`).Scan(&integrityResult); err != nil {
		return report, fmt.Errorf("Health: quick_check: %w", err)
	}
	report.IntegrityOK = integrityResult == "ok"

	return report, nil
}
