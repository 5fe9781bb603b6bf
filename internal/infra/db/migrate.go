package db

import "database/sql"

// MigrateUp creates the unified news schema described in spec §4.4:
// news plus the keyword/stock reference tables and their join tables.
// It is idempotent — every statement is IF NOT EXISTS.
func MigrateUp(writer *sql.DB) error {
	statements := []string{
		`CREATE TABLE IF NOT EXISTS news (
			id             TEXT PRIMARY KEY,
			url            TEXT NOT NULL UNIQUE,
			title          TEXT NOT NULL,
			content        TEXT NOT NULL,
			content_html   TEXT,
			publish_time   DATETIME,
			crawl_time     DATETIME NOT NULL,
			author         TEXT,
			source         TEXT NOT NULL,
			category       TEXT,
			sentiment      TEXT,
			needs_reclass  INTEGER NOT NULL DEFAULT 0,
			keywords       TEXT,
			images         TEXT,
			related_stocks TEXT
		)`,
		`CREATE TABLE IF NOT EXISTS keywords (
			id           INTEGER PRIMARY KEY AUTOINCREMENT,
			keyword      TEXT NOT NULL UNIQUE,
			count        INTEGER NOT NULL DEFAULT 0,
			last_updated DATETIME NOT NULL
		)`,
		`CREATE TABLE IF NOT EXISTS news_keywords (
			news_id    TEXT NOT NULL REFERENCES news(id) ON DELETE CASCADE,
			keyword_id INTEGER NOT NULL REFERENCES keywords(id) ON DELETE CASCADE,
			PRIMARY KEY (news_id, keyword_id)
		)`,
		`CREATE TABLE IF NOT EXISTS stocks (
			code         TEXT PRIMARY KEY,
			name         TEXT NOT NULL,
			count        INTEGER NOT NULL DEFAULT 0,
			last_updated DATETIME NOT NULL
		)`,
		`CREATE TABLE IF NOT EXISTS news_stocks (
			news_id    TEXT NOT NULL REFERENCES news(id) ON DELETE CASCADE,
			stock_code TEXT NOT NULL REFERENCES stocks(code) ON DELETE CASCADE,
			PRIMARY KEY (news_id, stock_code)
		)`,
		`CREATE INDEX IF NOT EXISTS idx_news_publish_time ON news(publish_time DESC)`,
		`CREATE INDEX IF NOT EXISTS idx_news_crawl_time ON news(crawl_time DESC)`,
		`CREATE INDEX IF NOT EXISTS idx_news_source ON news(source)`,
		`CREATE INDEX IF NOT EXISTS idx_news_category ON news(category)`,
		`CREATE INDEX IF NOT EXISTS idx_news_needs_reclass ON news(needs_reclass) WHERE needs_reclass = 1`,
	}

	for _, stmt := range statements {
		if _, err := writer.Exec(stmt); err != nil {
			return err
		}
	}
	return nil
}
