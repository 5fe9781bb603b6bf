package extractor

import (
	"context"
	"fmt"
	"strings"
	"time"

	"newslook/internal/domain/entity"
	"newslook/internal/infra/httpclient"
	"newslook/internal/pkg/textnorm"

	"net/url"
	"regexp"

	"github.com/PuerkitoBio/goquery"
	readability "github.com/go-shiori/go-readability"
	"github.com/mmcdole/gofeed"
)

// Fetcher is the subset of httpclient.Client a DeclarativeExtractor
// needs; declared as an interface so tests can supply a stub.
type Fetcher interface {
	Fetch(ctx context.Context, src entity.Source, rawURL string) (*httpclient.Result, error)
}

// DeclarativeExtractor is the one generic extractor implementation
// parametrized by a entity.SourceConfig, per §4.3 and §9's "dynamic
// dispatch across source extractors" design note.
type DeclarativeExtractor struct {
	cfg        entity.SourceConfig
	fetcher    Fetcher
	adFilters  *adFilterEngine
	adSink     AdFilterSink
	urlPattern *regexp.Regexp
	now        func() time.Time
}

// New builds a DeclarativeExtractor for cfg.
func New(cfg entity.SourceConfig, fetcher Fetcher, adSink AdFilterSink) *DeclarativeExtractor {
	var urlPattern *regexp.Regexp
	if cfg.URLPattern != "" {
		urlPattern = regexp.MustCompile(cfg.URLPattern)
	}
	return &DeclarativeExtractor{
		cfg:        cfg,
		fetcher:    fetcher,
		adFilters:  newAdFilterEngine(),
		adSink:     adSink,
		urlPattern: urlPattern,
		now:        time.Now,
	}
}

// ListURLs yields candidate article URLs from every configured category
// list page (or the feed, when FeedURL is set), deduplicated within this
// call.
func (e *DeclarativeExtractor) ListURLs(ctx context.Context, days int, maxPerCategory int) ([]string, error) {
	seen := make(map[string]bool)
	var urls []string

	add := func(candidate string) {
		abs := e.absoluteURL(candidate)
		if abs == "" || seen[abs] {
			return
		}
		if e.urlPattern != nil && !e.urlPattern.MatchString(abs) {
			return
		}
		seen[abs] = true
		urls = append(urls, abs)
	}

	if e.cfg.FeedURL != "" {
		items, err := e.listFromFeed(ctx, maxPerCategory)
		if err != nil {
			return nil, err
		}
		for _, u := range items {
			add(u)
		}
	}

	for category, listURL := range e.cfg.CategoryListURLs {
		items, err := e.listFromPage(ctx, listURL, maxPerCategory)
		if err != nil {
			return nil, fmt.Errorf("list category %s: %w", category, err)
		}
		for _, u := range items {
			add(u)
		}
	}

	return urls, nil
}

func (e *DeclarativeExtractor) listFromFeed(ctx context.Context, maxItems int) ([]string, error) {
	res, err := e.fetcher.Fetch(ctx, e.cfg.Source, e.cfg.FeedURL)
	if err != nil {
		return nil, err
	}
	fp := gofeed.NewParser()
	feed, err := fp.ParseString(string(res.Body))
	if err != nil {
		return nil, fmt.Errorf("parse feed: %w", err)
	}
	var urls []string
	for i, item := range feed.Items {
		if maxItems > 0 && i >= maxItems {
			break
		}
		if item.Link != "" {
			urls = append(urls, item.Link)
		}
	}
	return urls, nil
}

func (e *DeclarativeExtractor) listFromPage(ctx context.Context, listURL string, maxItems int) ([]string, error) {
	res, err := e.fetcher.Fetch(ctx, e.cfg.Source, listURL)
	if err != nil {
		return nil, err
	}
	text, err := httpclient.DecodeBody(res.Body, res.Headers.Get("Content-Type"))
	if err != nil {
		return nil, err
	}

	doc, err := goquery.NewDocumentFromReader(strings.NewReader(text))
	if err != nil {
		return nil, fmt.Errorf("parse list page: %w", err)
	}

	var urls []string
	selector := e.cfg.Selectors.URLSelector()
	doc.Find(selector).Each(func(i int, sel *goquery.Selection) {
		if maxItems > 0 && len(urls) >= maxItems {
			return
		}
		if href, ok := sel.Attr("href"); ok && href != "" {
			urls = append(urls, href)
		}
	})
	return urls, nil
}

func (e *DeclarativeExtractor) absoluteURL(candidate string) string {
	if strings.HasPrefix(candidate, "http://") || strings.HasPrefix(candidate, "https://") {
		return candidate
	}
	base, err := url.Parse(e.cfg.BaseURL)
	if err != nil {
		return candidate
	}
	ref, err := url.Parse(candidate)
	if err != nil {
		return ""
	}
	return base.ResolveReference(ref).String()
}

// FetchArticle fetches articleURL, extracts fields via the configured
// selectors (falling back to go-shiori/go-readability when the content
// selector misses), applies ad filtering, and returns a populated
// Article or a *Skip.
func (e *DeclarativeExtractor) FetchArticle(ctx context.Context, articleURL string) (*entity.Article, error) {
	res, err := e.fetcher.Fetch(ctx, e.cfg.Source, articleURL)
	if err != nil {
		return nil, err
	}

	rawHTML, err := httpclient.DecodeBody(res.Body, res.Headers.Get("Content-Type"))
	if err != nil {
		return nil, &Skip{Reason: SkipUnparsable, Detail: err.Error()}
	}
	rawHTML = textnorm.RepairMojibake(rawHTML)

	doc, err := goquery.NewDocumentFromReader(strings.NewReader(rawHTML))
	if err != nil {
		return nil, &Skip{Reason: SkipUnparsable, Detail: err.Error()}
	}

	title := strings.TrimSpace(doc.Find(e.cfg.Selectors.Title).First().Text())
	author := strings.TrimSpace(doc.Find(e.cfg.Selectors.Author).First().Text())
	category := strings.TrimSpace(doc.Find(e.cfg.Selectors.CategoryCrumb).First().Text())
	dateText := strings.TrimSpace(doc.Find(e.cfg.Selectors.PublishTime).First().Text())

	contentHTML, _ := doc.Find(e.cfg.Selectors.Content).First().Html()
	content := textnorm.HTMLToText(contentHTML)
	if strings.TrimSpace(content) == "" {
		content = e.readabilityFallback(rawHTML, articleURL)
	}
	if strings.TrimSpace(content) == "" {
		return nil, &Skip{Reason: SkipEmpty}
	}

	if e.adFilters.evaluate(e.cfg.Source, articleURL, content, e.cfg.AdFilters, e.adSink) {
		return nil, &Skip{Reason: SkipAd}
	}

	var images []string
	doc.Find(e.cfg.Selectors.Images).Each(func(_ int, sel *goquery.Selection) {
		if src, ok := sel.Attr("src"); ok && src != "" {
			images = append(images, src)
		}
	})

	now := e.now()
	var publishTime *time.Time
	if t, ok := ParsePublishTime(dateText, articleURL, now); ok {
		publishTime = &t
	}

	if title == "" {
		return nil, &Skip{Reason: SkipUnparsable, Detail: "no title"}
	}

	article := &entity.Article{
		URL:         articleURL,
		Title:       textnorm.NormalizeText(title),
		Content:     content,
		ContentHTML: contentHTML,
		Author:      textnorm.NormalizeText(author),
		Category:    textnorm.NormalizeText(category),
		Source:      e.cfg.Source,
		PublishTime: publishTime,
		CrawlTime:   now,
		Images:      images,
	}
	return article, nil
}

func (e *DeclarativeExtractor) readabilityFallback(rawHTML, articleURL string) string {
	parsedURL, err := url.Parse(articleURL)
	if err != nil {
		parsedURL = nil
	}
	article, err := readability.FromReader(strings.NewReader(rawHTML), parsedURL)
	if err != nil {
		return ""
	}
	if article.TextContent != "" {
		return textnorm.NormalizeText(article.TextContent)
	}
	return textnorm.HTMLToText(article.Content)
}
