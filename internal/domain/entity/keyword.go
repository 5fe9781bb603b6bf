package entity

import "time"

// Keyword is a derived, non-authoritative reference row: the running count
// of articles an extracted keyword has appeared in, and when it was last
// seen. Joined to Article many-to-many via (article_id, keyword).
type Keyword struct {
	Keyword     string
	Count       int64
	LastUpdated time.Time
}

// StockRef is the storage-side counterpart of Stock: a running count of
// articles that mention the stock, analogous to Keyword.
type StockRef struct {
	Code        string
	Name        string
	Count       int64
	LastUpdated time.Time
}
