// Package ingest implements NewsLook's Ingestion Pipeline (spec
// component C5): the fixed Validate -> Canonicalize -> Dedup probe ->
// Enrich -> Persist -> Emit sequence a Worker's candidate Articles pass
// through before they reach Storage.
package ingest

import (
	"context"
	"net/url"
	"time"

	"newslook/internal/domain/apperr"
	"newslook/internal/domain/entity"
	"newslook/internal/pkg/textnorm"
	"newslook/internal/repository"
)

const defaultKeywordCount = 8

// Monitor receives one IngestOutcome per pipeline pass, win or lose. It
// is the narrow slice of the Lineage & Health Monitor (C8) this package
// depends on, kept local to avoid an import cycle with observability.
type Monitor interface {
	RecordIngest(outcome entity.IngestOutcome)
}

// NopMonitor discards every outcome; useful in tests and as a safe
// default when no monitor is wired yet.
type NopMonitor struct{}

func (NopMonitor) RecordIngest(entity.IngestOutcome) {}

// Service runs the ingestion pipeline against one Storage backend.
type Service struct {
	storage repository.NewsRepository
	monitor Monitor
	now     func() time.Time
}

// NewService builds a Service. monitor may be nil, in which case
// outcomes are discarded.
func NewService(storage repository.NewsRepository, monitor Monitor) *Service {
	if monitor == nil {
		monitor = NopMonitor{}
	}
	return &Service{storage: storage, monitor: monitor, now: time.Now}
}

// Ingest runs one candidate Article through the full pipeline. It
// mutates candidate in place (canonical URL, id, keywords, sentiment,
// crawl_time) and returns the terminal IngestResult. The pipeline never
// returns an error for a merely-invalid or merely-duplicate candidate —
// those are reported through Result, not err; err is reserved for
// storage/canonicalization failures the caller should treat as a crawl
// fault, not a per-article outcome.
func (s *Service) Ingest(ctx context.Context, candidate *entity.Article, base *url.URL) (entity.IngestResult, error) {
	if candidate.CrawlTime.IsZero() {
		candidate.CrawlTime = s.now()
	}

	if err := candidate.Validate(); err != nil {
		s.emit(candidate, entity.IngestInvalid, err.Error())
		return entity.IngestInvalid, nil
	}

	canonicalURL, id, err := canonicalize(candidate.URL, base)
	if err != nil {
		s.emit(candidate, entity.IngestInvalid, err.Error())
		return entity.IngestInvalid, nil
	}
	candidate.URL = canonicalURL
	candidate.ID = id

	existing, err := s.storage.GetByID(ctx, id)
	if err != nil {
		return "", apperr.Storage("dedup probe failed", err)
	}
	if existing != nil {
		s.emit(candidate, entity.IngestDuplicate, "id already present")
		return entity.IngestDuplicate, nil
	}

	s.enrich(candidate)

	outcome, err := s.storage.InsertArticle(ctx, candidate)
	if err != nil {
		return "", apperr.Storage("insert_article failed", err)
	}
	if outcome == repository.Duplicate {
		s.emit(candidate, entity.IngestDuplicate, "url already present")
		return entity.IngestDuplicate, nil
	}

	s.emit(candidate, entity.IngestStored, "")
	return entity.IngestStored, nil
}

// enrich fills the fields only Storage-bound persistence needs:
// keywords and sentiment. Source and category are the Extractor's
// responsibility and are assumed already set on candidate; crawl_time is
// stamped once, up front, in Ingest.
func (s *Service) enrich(candidate *entity.Article) {
	if len(candidate.Keywords) == 0 {
		candidate.Keywords = textnorm.ExtractKeywords(candidate.Content, defaultKeywordCount)
	}
	if candidate.Sentiment == "" {
		candidate.Sentiment = entity.Sentiment(textnorm.ClassifySentiment(candidate.Content))
	}
	if !candidate.Source.IsKnown() {
		candidate.Source = entity.SourceUnknown
		candidate.NeedsReclass = true
	}
}

func (s *Service) emit(candidate *entity.Article, result entity.IngestResult, reason string) {
	s.monitor.RecordIngest(entity.IngestOutcome{
		URL:       candidate.URL,
		Source:    candidate.Source,
		ArticleID: candidate.ID,
		Result:    result,
		Reason:    reason,
		Timestamp: s.now(),
	})
}
