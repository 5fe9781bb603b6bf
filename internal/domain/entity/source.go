package entity

import (
	"errors"
	"fmt"
)

// Selectors holds the CSS selectors a DeclarativeExtractor uses to pull
// fields out of a source's article page.
type Selectors struct {
	Title         string `yaml:"title"`
	PublishTime   string `yaml:"publish_time"`
	Author        string `yaml:"author"`
	Content       string `yaml:"content"`
	Images        string `yaml:"images"`
	CategoryCrumb string `yaml:"category_crumb"`
	ArticleLink   string `yaml:"article_link"` // anchor selector on a category list page
}

// URLSelector returns the selector used to find article links on a
// category list page, defaulting to any anchor with an href.
func (s Selectors) URLSelector() string {
	if s.ArticleLink != "" {
		return s.ArticleLink
	}
	return "a[href]"
}

// AdFilter is one advisory or hard ad/paywall filter rule for a source.
// Matches are always logged to the monitor; only Hard filters cause the
// extractor to return Skip(ad).
type AdFilter struct {
	URLPattern      string `yaml:"url_pattern,omitempty"`
	ContentKeyword  string `yaml:"content_keyword,omitempty"`
	Hard            bool   `yaml:"hard"`
}

// SourceConfig is the declared (not embedded) per-source configuration
// that parametrizes the one generic DeclarativeExtractor. Hand-written
// sub-extractors may override any step but still carry a SourceConfig for
// its base URL, category list and ad filters.
type SourceConfig struct {
	Source           Source            `yaml:"source"`
	DisplayName      string            `yaml:"display_name"`
	BaseURL          string            `yaml:"base_url"`
	CategoryListURLs map[string]string `yaml:"category_list_urls"`
	Selectors        Selectors         `yaml:"selectors"`
	URLPattern       string            `yaml:"url_pattern"` // regex a candidate article URL must match
	AdFilters        []AdFilter        `yaml:"ad_filters,omitempty"`
	FeedURL          string            `yaml:"feed_url,omitempty"` // optional RSS/Atom list path
	Active           bool              `yaml:"active"`
}

// Validate checks that a SourceConfig is well-formed enough to drive an
// extractor: a known source name, a base URL, and at least one category
// list URL or a feed URL.
func (c *SourceConfig) Validate() error {
	if c.Source == "" {
		return errors.New("source is required")
	}
	if c.BaseURL == "" {
		return &ValidationError{Field: "base_url", Message: "base_url is required"}
	}
	if len(c.CategoryListURLs) == 0 && c.FeedURL == "" {
		return fmt.Errorf("source %s: at least one category_list_urls entry or a feed_url is required", c.Source)
	}
	return nil
}
