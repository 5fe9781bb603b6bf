// Package entity defines the core domain entities for NewsLook's ingestion
// subsystem: articles, their derived reference data, per-source crawl
// status, and per-fetch lineage events.
package entity

import "time"

// Source identifies one of the fixed set of publisher websites NewsLook
// crawls. Unknown sources are stored as SourceUnknown and flagged for
// later re-classification rather than rejected outright.
type Source string

const (
	SourceSina      Source = "sina"
	SourceEastmoney Source = "eastmoney"
	SourceTencent   Source = "tencent"
	SourceNetease   Source = "netease"
	SourceIfeng     Source = "ifeng"
	SourceUnknown   Source = "unknown"
)

// KnownSources lists the closed enum of publishers the core crawls.
var KnownSources = []Source{SourceSina, SourceEastmoney, SourceTencent, SourceNetease, SourceIfeng}

// IsKnown reports whether s is one of the declared publishers.
func (s Source) IsKnown() bool {
	for _, k := range KnownSources {
		if s == k {
			return true
		}
	}
	return false
}

// Sentiment is a coarse, lexicon-derived label for an article's tone.
type Sentiment string

const (
	SentimentPositive Sentiment = "positive"
	SentimentNeutral  Sentiment = "neutral"
	SentimentNegative Sentiment = "negative"
)

// Stock is a related-stock reference derived from article content.
type Stock struct {
	Code string
	Name string
}

// Article is NewsLook's primary persisted entity. ID is a stable hash of
// the canonical URL and never changes once assigned; Source and the
// derived fields may be refreshed by out-of-band re-classification but the
// row is otherwise immutable after first insert.
type Article struct {
	ID            string
	URL           string
	Title         string
	Content       string
	ContentHTML   string
	Author        string
	Category      string
	Source        Source
	PublishTime   *time.Time // nil when the source page has no parseable date
	CrawlTime     time.Time
	Keywords      []string
	RelatedStocks []Stock
	Sentiment     Sentiment
	Images        []string
	NeedsReclass  bool // set when Source was unknown at insert time
}

// Validate checks the invariants insertion depends on: URL, Title and
// Content must be non-empty, and CrawlTime must not precede PublishTime.
func (a *Article) Validate() error {
	if a.URL == "" {
		return &ValidationError{Field: "url", Message: "url is required"}
	}
	if a.Title == "" {
		return &ValidationError{Field: "title", Message: "title is required"}
	}
	if a.Content == "" {
		return &ValidationError{Field: "content", Message: "content is required"}
	}
	if a.PublishTime != nil && a.CrawlTime.Before(*a.PublishTime) {
		return &ValidationError{Field: "crawl_time", Message: "crawl_time must not precede publish_time"}
	}
	return nil
}
