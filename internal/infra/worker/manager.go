// Package worker implements NewsLook's Crawler Manager (spec component
// C6): one Worker per known source, each an independently schedulable
// task that runs one crawl cycle end-to-end when triggered, bounded
// concurrent article fetches, and exponential cooldown after repeated
// hard failures.
package worker

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/url"
	"sync"
	"sync/atomic"
	"time"

	"golang.org/x/sync/errgroup"

	"newslook/internal/domain/apperr"
	"newslook/internal/domain/entity"
	"newslook/internal/infra/extractor"
	"newslook/internal/usecase/ingest"
)

// ErrAlreadyRunning is returned by Start when the named source's Worker
// is already in the running state.
var ErrAlreadyRunning = errors.New("worker: source already running")

// ErrUnknownSource is returned when source has no registered extractor.
var ErrUnknownSource = errors.New("worker: unknown source")

// StartParams are the caller-supplied parameters for one crawl cycle,
// matching the Manager's public start() contract.
type StartParams struct {
	MaxItems   int
	Days       int
	UseProxy   bool
	Categories []string
}

func (p StartParams) withDefaults() StartParams {
	if p.MaxItems <= 0 {
		p.MaxItems = 200
	}
	if p.Days <= 0 {
		p.Days = 3
	}
	return p
}

// CrawlEvent is a lifecycle notification pushed to Subscribe()
// listeners on every Worker state transition.
type CrawlEvent struct {
	Source    entity.Source
	State     entity.WorkerState
	Detail    string
	Timestamp time.Time
}

// sourceHandle is the Manager's private bookkeeping for one source,
// guarding entity.SourceStatus mutation behind a mutex so readers via
// Status() always see a consistent snapshot.
type sourceHandle struct {
	mu            sync.Mutex
	status        entity.SourceStatus
	cancel        context.CancelFunc
	cooldownUntil time.Time
	cooldownStep  int
}

// Manager owns one Worker per known source. It is safe for concurrent
// use.
type Manager struct {
	cfg      ManagerConfig
	metrics  *ManagerMetrics
	logger   *slog.Logger
	registry *extractor.Registry
	ingest   *ingest.Service
	baseURLs map[entity.Source]*url.URL
	now      func() time.Time

	mu       sync.RWMutex
	handles  map[entity.Source]*sourceHandle
	subs     []chan CrawlEvent
}

// NewManager builds a Manager with one idle Worker per source known to
// configs. registry must already have an Extractor registered for each
// configs entry's Source.
func NewManager(registry *extractor.Registry, ingestSvc *ingest.Service, configs []entity.SourceConfig, cfg ManagerConfig, metrics *ManagerMetrics, logger *slog.Logger) *Manager {
	m := &Manager{
		cfg:      cfg,
		metrics:  metrics,
		logger:   logger,
		registry: registry,
		ingest:   ingestSvc,
		baseURLs: make(map[entity.Source]*url.URL, len(configs)),
		now:      time.Now,
		handles:  make(map[entity.Source]*sourceHandle, len(configs)),
	}
	for _, c := range configs {
		if base, err := url.Parse(c.BaseURL); err == nil {
			m.baseURLs[c.Source] = base
		}
		m.handles[c.Source] = &sourceHandle{status: entity.SourceStatus{Source: c.Source, State: entity.WorkerIdle}}
	}
	return m
}

// Sources returns every source the Manager knows about.
func (m *Manager) Sources() []entity.Source {
	m.mu.RLock()
	defer m.mu.RUnlock()
	out := make([]entity.Source, 0, len(m.handles))
	for src := range m.handles {
		out = append(out, src)
	}
	return out
}

// Start transitions source from idle to running and begins one crawl
// cycle in the background, returning immediately. An explicit Start
// clears any pending cooldown, per §4.6: a Worker in error "stays in
// error until an explicit start."
func (m *Manager) Start(ctx context.Context, source entity.Source, params StartParams) error {
	m.mu.RLock()
	h, ok := m.handles[source]
	m.mu.RUnlock()
	if !ok {
		return ErrUnknownSource
	}

	h.mu.Lock()
	if h.status.State == entity.WorkerRunning {
		h.mu.Unlock()
		return ErrAlreadyRunning
	}
	h.cooldownUntil = time.Time{}
	h.cooldownStep = 0
	now := m.now()
	h.status.State = entity.WorkerRunning
	h.status.LastRunStarted = &now
	h.status.ConsecutiveFailures = 0
	h.status.LastError = ""
	runCtx, cancel := context.WithCancel(context.Background())
	h.cancel = cancel
	h.mu.Unlock()

	m.emit(CrawlEvent{Source: source, State: entity.WorkerRunning, Timestamp: now})
	m.metrics.SetConsecutiveFailures(string(source), 0)

	go m.runCycle(runCtx, source, h, params.withDefaults())
	return nil
}

// StartAll starts every known source whose Worker is not already
// running. Per-source AlreadyRunning errors are swallowed; the sources
// actually started are returned.
func (m *Manager) StartAll(ctx context.Context, params StartParams) []entity.Source {
	var started []entity.Source
	for _, src := range m.Sources() {
		if err := m.Start(ctx, src, params); err == nil {
			started = append(started, src)
		}
	}
	return started
}

// Stop requests a cooperative stop of source's Worker. The Worker
// observes cancellation at its next safe point (between article
// fetches) and transitions to idle within cfg.StopGracePeriod.
func (m *Manager) Stop(source entity.Source) error {
	m.mu.RLock()
	h, ok := m.handles[source]
	m.mu.RUnlock()
	if !ok {
		return ErrUnknownSource
	}

	h.mu.Lock()
	if h.status.State != entity.WorkerRunning {
		h.mu.Unlock()
		return nil
	}
	h.status.State = entity.WorkerStopping
	cancel := h.cancel
	h.mu.Unlock()

	if cancel != nil {
		cancel()
	}
	m.emit(CrawlEvent{Source: source, State: entity.WorkerStopping, Timestamp: m.now()})
	return nil
}

// StopAll requests a cooperative stop of every running Worker.
func (m *Manager) StopAll() {
	for _, src := range m.Sources() {
		_ = m.Stop(src)
	}
}

// Status returns a point-in-time snapshot of every known source.
func (m *Manager) Status() map[entity.Source]entity.SourceStatus {
	m.mu.RLock()
	defer m.mu.RUnlock()
	out := make(map[entity.Source]entity.SourceStatus, len(m.handles))
	for src, h := range m.handles {
		h.mu.Lock()
		out[src] = h.status.Snapshot()
		h.mu.Unlock()
	}
	return out
}

// Subscribe returns a channel of CrawlEvents. The channel is buffered;
// a slow consumer drops events rather than blocking the Manager.
func (m *Manager) Subscribe() <-chan CrawlEvent {
	ch := make(chan CrawlEvent, 64)
	m.mu.Lock()
	m.subs = append(m.subs, ch)
	m.mu.Unlock()
	return ch
}

func (m *Manager) emit(ev CrawlEvent) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	for _, ch := range m.subs {
		select {
		case ch <- ev:
		default:
		}
	}
}

// runCycle lists candidate URLs for source, fetches up to
// cfg.MaxConcurrentFetches articles concurrently, and hands each
// successfully fetched article to the ingestion pipeline. Per-article
// errors are caught and counted; the cycle continues. Reaching
// cfg.MaxConsecutiveFailures trips an exponential cooldown.
func (m *Manager) runCycle(ctx context.Context, source entity.Source, h *sourceHandle, params StartParams) {
	start := time.Now()
	ext, err := m.registry.Get(source)
	if err != nil {
		m.finishCycle(source, h, fmt.Sprintf("no extractor registered: %v", err), true)
		m.metrics.RecordRun(string(source), "error", time.Since(start).Seconds())
		return
	}

	maxPerCategory := params.MaxItems
	urls, err := ext.ListURLs(ctx, params.Days, maxPerCategory)
	if err != nil {
		tripped := m.recordFailure(h)
		m.finishCycle(source, h, fmt.Sprintf("list_urls failed: %v", err), tripped)
		m.metrics.RecordRun(string(source), "failure", time.Since(start).Seconds())
		return
	}

	base := m.baseURLs[source]
	sem := make(chan struct{}, m.cfg.MaxConcurrentFetches)
	eg, egCtx := errgroup.WithContext(ctx)
	var cooldownTripped atomic.Bool

urlLoop:
	for _, articleURL := range urls {
		select {
		case <-egCtx.Done():
			break urlLoop
		default:
		}

		select {
		case sem <- struct{}{}:
		case <-egCtx.Done():
			break urlLoop
		}

		rawURL := articleURL
		eg.Go(func() error {
			defer func() { <-sem }()
			m.processOne(egCtx, ext, source, base, rawURL, h, &cooldownTripped)
			return nil
		})
	}
	_ = eg.Wait()

	m.finishCycle(source, h, "", cooldownTripped.Load())
	m.metrics.RecordRun(string(source), "success", time.Since(start).Seconds())
}

// processOne fetches and ingests one candidate URL, updating h's
// counters. It never returns an error: every failure mode is recorded
// on h and in the metrics instead.
func (m *Manager) processOne(ctx context.Context, ext extractor.Extractor, source entity.Source, base *url.URL, rawURL string, h *sourceHandle, cooldownTripped *atomic.Bool) {
	h.mu.Lock()
	h.status.ItemsScanned++
	h.mu.Unlock()

	article, err := ext.FetchArticle(ctx, rawURL)
	if err != nil {
		var skip *extractor.Skip
		if errors.As(err, &skip) {
			// Declined by design (ad, paywall, too old, ...); not a failure.
			return
		}
		if apperr.Is(err, apperr.KindCancelled) {
			return
		}
		if m.recordFailure(h) {
			cooldownTripped.Store(true)
		}
		h.mu.Lock()
		h.status.LastError = err.Error()
		h.mu.Unlock()
		return
	}

	result, err := m.ingest.Ingest(ctx, article, base)
	if err != nil {
		if m.recordFailure(h) {
			cooldownTripped.Store(true)
		}
		h.mu.Lock()
		h.status.LastError = err.Error()
		h.mu.Unlock()
		return
	}

	h.mu.Lock()
	h.status.ConsecutiveFailures = 0
	switch result {
	case entity.IngestStored:
		h.status.ItemsStored++
	case entity.IngestDuplicate:
		h.status.ItemsSkippedDuplicate++
	}
	h.mu.Unlock()
	m.metrics.RecordIngestResult(string(source), string(result))
}

// recordFailure increments h's consecutive failure count and reports
// whether it just tripped cfg.MaxConsecutiveFailures.
func (m *Manager) recordFailure(h *sourceHandle) bool {
	h.mu.Lock()
	h.status.ConsecutiveFailures++
	tripped := h.status.ConsecutiveFailures >= m.cfg.MaxConsecutiveFailures
	count := h.status.ConsecutiveFailures
	h.mu.Unlock()
	m.metrics.SetConsecutiveFailures(string(h.status.Source), count)
	return tripped
}

// finishCycle transitions h out of running. If cooldown tripped it
// enters error with an exponentially growing cooldown window;
// otherwise it returns to idle.
func (m *Manager) finishCycle(source entity.Source, h *sourceHandle, detail string, cooldownTripped bool) {
	now := m.now()
	h.mu.Lock()
	h.status.LastRunFinished = &now
	if detail != "" {
		h.status.LastError = detail
	}
	state := entity.WorkerIdle
	if cooldownTripped {
		state = entity.WorkerError
		cooldown := m.cfg.CooldownBase << h.cooldownStep
		if cooldown > m.cfg.CooldownMax || cooldown <= 0 {
			cooldown = m.cfg.CooldownMax
		}
		h.cooldownUntil = now.Add(cooldown)
		h.cooldownStep++
	}
	h.status.State = state
	h.cancel = nil
	h.mu.Unlock()

	if cooldownTripped {
		m.metrics.RecordCooldownTransition(string(source))
	}
	m.emit(CrawlEvent{Source: source, State: state, Detail: detail, Timestamp: now})
}
