// Package monitor implements NewsLook's Lineage & Health Monitor (spec
// component C8): in-memory rolling metrics per source and globally,
// fed by the HTTP Client's FetchOutcome stream (C1), the Ingestion
// Pipeline's IngestOutcome stream (C5), and the Source Extractor's
// ad-filter-match events (C3). Writes are single-writer per source (the
// owning Worker's goroutine funnels all three streams here); reads are
// lock-free copy-on-read snapshots so the Control/Query Facade (C9)
// never blocks ingestion.
package monitor

import (
	"sync"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"

	"newslook/internal/domain/entity"
	"newslook/internal/infra/extractor"
	"newslook/internal/observability/slo"
)

const maxErrorLogSize = 20

// latencyBucketBoundsMS are the exponential latency buckets (milliseconds)
// the rolling histogram tracks, chosen to span a typical fetch from
// "fast cache hit" to "about to time out".
var latencyBucketBoundsMS = []float64{10, 50, 100, 250, 500, 1000, 2500, 5000, 10000}

// ErrorRecord is one entry in a source's bounded recent-error log.
type ErrorRecord struct {
	Timestamp time.Time
	Message   string
}

// sourceStats is the mutable rolling state for one source. All fields
// are guarded by mu; only Snapshot copies them out for a reader.
type sourceStats struct {
	mu sync.Mutex

	requestsAttempted int64
	requestsOK        int64
	requestsFailed    int64
	requestsRetried   int64
	bytesDownloaded   int64

	articlesScanned    int64
	articlesStored     int64
	articlesDuplicate  int64
	adFilterMatches    int64

	latencyBuckets []int64 // parallel to latencyBucketBoundsMS, plus one overflow bucket

	lastErrors  []ErrorRecord
	lastSuccess time.Time
	startedAt   time.Time
}

func newSourceStats() *sourceStats {
	return &sourceStats{
		latencyBuckets: make([]int64, len(latencyBucketBoundsMS)+1),
		startedAt:      time.Now(),
	}
}

func (s *sourceStats) observeLatency(ms int64) {
	for i, bound := range latencyBucketBoundsMS {
		if float64(ms) <= bound {
			s.latencyBuckets[i]++
			return
		}
	}
	s.latencyBuckets[len(s.latencyBuckets)-1]++
}

func (s *sourceStats) appendError(ts time.Time, msg string) {
	s.lastErrors = append(s.lastErrors, ErrorRecord{Timestamp: ts, Message: msg})
	if len(s.lastErrors) > maxErrorLogSize {
		s.lastErrors = s.lastErrors[len(s.lastErrors)-maxErrorLogSize:]
	}
}

// SourceSnapshot is a copy-on-read view of one source's rolling stats.
type SourceSnapshot struct {
	Source             entity.Source
	RequestsAttempted  int64
	RequestsOK         int64
	RequestsFailed     int64
	RequestsRetried    int64
	BytesDownloaded    int64
	ArticlesScanned    int64
	ArticlesStored     int64
	ArticlesDuplicate  int64
	AdFilterMatches    int64
	LatencyBucketsMS   map[float64]int64
	LastErrors         []ErrorRecord
	LastSuccess        *time.Time
	UptimeSeconds      float64
}

// Snapshot is the global copy-on-read view returned by Monitor.Snapshot.
type Snapshot struct {
	Sources       map[entity.Source]SourceSnapshot
	StartedAt     time.Time
	UptimeSeconds float64
}

// Monitor accumulates per-source rolling metrics and exports a subset
// to Prometheus. It is safe for concurrent use.
type Monitor struct {
	mu        sync.RWMutex
	perSource map[entity.Source]*sourceStats
	startedAt time.Time

	requestsTotal   *prometheus.CounterVec
	bytesTotal      *prometheus.CounterVec
	articlesTotal   *prometheus.CounterVec
	latencySeconds  *prometheus.HistogramVec
	adFilterTotal   *prometheus.CounterVec
}

// New builds an empty Monitor. Prometheus collectors are registered via
// promauto at construction.
func New() *Monitor {
	return &Monitor{
		perSource: make(map[entity.Source]*sourceStats),
		startedAt: time.Now(),

		requestsTotal: promauto.NewCounterVec(prometheus.CounterOpts{
			Name: "crawler_monitor_requests_total",
			Help: "Total HTTP fetch attempts observed by the lineage monitor, by source and result",
		}, []string{"source", "result"}),

		bytesTotal: promauto.NewCounterVec(prometheus.CounterOpts{
			Name: "crawler_monitor_bytes_downloaded_total",
			Help: "Total response bytes downloaded, by source",
		}, []string{"source"}),

		articlesTotal: promauto.NewCounterVec(prometheus.CounterOpts{
			Name: "crawler_monitor_articles_total",
			Help: "Total articles observed by the ingestion pipeline, by source and result",
		}, []string{"source", "result"}),

		latencySeconds: promauto.NewHistogramVec(prometheus.HistogramOpts{
			Name:    "crawler_monitor_fetch_latency_seconds",
			Help:    "Fetch latency observed by the lineage monitor, by source",
			Buckets: prometheus.ExponentialBuckets(0.01, 2, 10),
		}, []string{"source"}),

		adFilterTotal: promauto.NewCounterVec(prometheus.CounterOpts{
			Name: "crawler_monitor_ad_filter_matches_total",
			Help: "Total ad/paywall filter matches, by source and hardness",
		}, []string{"source", "hard"}),
	}
}

func (m *Monitor) statsFor(source entity.Source) *sourceStats {
	m.mu.RLock()
	s, ok := m.perSource[source]
	m.mu.RUnlock()
	if ok {
		return s
	}

	m.mu.Lock()
	defer m.mu.Unlock()
	if s, ok := m.perSource[source]; ok {
		return s
	}
	s = newSourceStats()
	m.perSource[source] = s
	return s
}

// Record implements httpclient.OutcomeSink, consuming one FetchOutcome
// per attempt (including retries) from the HTTP Client (C1).
func (m *Monitor) Record(outcome entity.FetchOutcome) {
	s := m.statsFor(outcome.Source)
	s.mu.Lock()
	defer s.mu.Unlock()

	s.requestsAttempted++
	switch outcome.Result {
	case entity.FetchOK:
		s.requestsOK++
		s.bytesDownloaded += outcome.Bytes
		s.lastSuccess = outcome.Timestamp
	case entity.FetchRetry:
		s.requestsRetried++
	case entity.FetchFail:
		s.requestsFailed++
		s.appendError(outcome.Timestamp, outcome.URL)
	}
	s.observeLatency(outcome.ElapsedMS)

	m.requestsTotal.WithLabelValues(string(outcome.Source), string(outcome.Result)).Inc()
	m.bytesTotal.WithLabelValues(string(outcome.Source)).Add(float64(outcome.Bytes))
	m.latencySeconds.WithLabelValues(string(outcome.Source)).Observe(float64(outcome.ElapsedMS) / 1000)
}

// RecordIngest implements ingest.Monitor, consuming one IngestOutcome
// per pipeline pass from the Ingestion Pipeline (C5).
func (m *Monitor) RecordIngest(outcome entity.IngestOutcome) {
	s := m.statsFor(outcome.Source)
	s.mu.Lock()
	s.articlesScanned++
	switch outcome.Result {
	case entity.IngestStored:
		s.articlesStored++
	case entity.IngestDuplicate:
		s.articlesDuplicate++
	}
	s.mu.Unlock()

	m.articlesTotal.WithLabelValues(string(outcome.Source), string(outcome.Result)).Inc()
}

// RecordAdFilterMatch implements extractor.AdFilterSink, consuming one
// AdFilterEvent per ad/paywall rule match from the Source Extractor (C3).
func (m *Monitor) RecordAdFilterMatch(ev extractor.AdFilterEvent) {
	s := m.statsFor(ev.Source)
	s.mu.Lock()
	s.adFilterMatches++
	s.mu.Unlock()

	m.adFilterTotal.WithLabelValues(string(ev.Source), boolLabel(ev.Hard)).Inc()
}

func boolLabel(b bool) string {
	if b {
		return "true"
	}
	return "false"
}

// Snapshot returns a copy-on-read view of every source's rolling state
// plus the global uptime.
func (m *Monitor) Snapshot() Snapshot {
	m.mu.RLock()
	defer m.mu.RUnlock()

	out := Snapshot{
		Sources:       make(map[entity.Source]SourceSnapshot, len(m.perSource)),
		StartedAt:     m.startedAt,
		UptimeSeconds: time.Since(m.startedAt).Seconds(),
	}

	for source, s := range m.perSource {
		s.mu.Lock()
		buckets := make(map[float64]int64, len(latencyBucketBoundsMS)+1)
		for i, bound := range latencyBucketBoundsMS {
			buckets[bound] = s.latencyBuckets[i]
		}
		buckets[0] = s.latencyBuckets[len(s.latencyBuckets)-1] // 0 keys the "+Inf" overflow bucket

		errs := make([]ErrorRecord, len(s.lastErrors))
		copy(errs, s.lastErrors)

		var lastSuccess *time.Time
		if !s.lastSuccess.IsZero() {
			ts := s.lastSuccess
			lastSuccess = &ts
		}

		out.Sources[source] = SourceSnapshot{
			Source:            source,
			RequestsAttempted: s.requestsAttempted,
			RequestsOK:        s.requestsOK,
			RequestsFailed:    s.requestsFailed,
			RequestsRetried:   s.requestsRetried,
			BytesDownloaded:   s.bytesDownloaded,
			ArticlesScanned:   s.articlesScanned,
			ArticlesStored:    s.articlesStored,
			ArticlesDuplicate: s.articlesDuplicate,
			AdFilterMatches:   s.adFilterMatches,
			LatencyBucketsMS:  buckets,
			LastErrors:        errs,
			LastSuccess:       lastSuccess,
			UptimeSeconds:     time.Since(s.startedAt).Seconds(),
		}
		s.mu.Unlock()
	}

	m.updateSLOGauges(out)
	return out
}

// updateSLOGauges aggregates every source's rolling counters and latency
// histogram into the global SLO gauges (spec component C8's reliability
// targets), exported alongside the rest of the monitor's Prometheus
// metrics. It runs on every Snapshot, so GET /health and GET /stats both
// keep the gauges current without a separate ticker.
func (m *Monitor) updateSLOGauges(out Snapshot) {
	var totalAttempted, totalFailed int64
	merged := make([]int64, len(latencyBucketBoundsMS)+1)
	for _, s := range out.Sources {
		totalAttempted += s.RequestsAttempted
		totalFailed += s.RequestsFailed
		for i, bound := range latencyBucketBoundsMS {
			merged[i] += s.LatencyBucketsMS[bound]
		}
		merged[len(merged)-1] += s.LatencyBucketsMS[0]
	}
	if totalAttempted == 0 {
		return
	}

	slo.UpdateAvailability(float64(totalAttempted-totalFailed) / float64(totalAttempted))
	slo.UpdateErrorRate(float64(totalFailed) / float64(totalAttempted))
	slo.UpdateLatencyP95(latencyPercentileSeconds(merged, 0.95))
	slo.UpdateLatencyP99(latencyPercentileSeconds(merged, 0.99))
}

// latencyPercentileSeconds estimates a percentile from the cumulative
// bucket counts, reporting the upper bound (in seconds) of the first
// bucket that contains it. The last entry in buckets is the overflow
// bucket past latencyBucketBoundsMS's final bound.
func latencyPercentileSeconds(buckets []int64, p float64) float64 {
	var total int64
	for _, c := range buckets {
		total += c
	}
	if total == 0 {
		return 0
	}
	threshold := float64(total) * p
	var cumulative int64
	for i, c := range buckets {
		cumulative += c
		if float64(cumulative) >= threshold {
			if i < len(latencyBucketBoundsMS) {
				return latencyBucketBoundsMS[i] / 1000
			}
			break
		}
	}
	return latencyBucketBoundsMS[len(latencyBucketBoundsMS)-1] / 1000
}
