// Package scheduler implements NewsLook's Scheduler (spec component
// C7): it drives the Crawler Manager on a cron-like schedule, one entry
// per {name, cron_expr, source, params, enabled}, and records run
// history. Missed ticks during downtime are not backfilled; at most one
// invocation per source runs at a time, enforced by querying the
// Manager's status before firing.
package scheduler

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/robfig/cron/v3"

	"newslook/internal/domain/entity"
	"newslook/internal/infra/worker"
)

// ErrNotFound is returned by Remove when no entry with the given name
// exists.
var ErrNotFound = errors.New("scheduler: schedule entry not found")

// ErrDuplicateName is returned by Add when name is already registered.
var ErrDuplicateName = errors.New("scheduler: schedule name already exists")

const defaultHistorySize = 200

// Entry is one stored schedule: a cron expression, the source it
// drives, and the start params passed to Manager.Start.
type Entry struct {
	Name     string
	CronExpr string
	Source   entity.Source
	Params   worker.StartParams
	Enabled  bool
}

// RunRecord is one completed (or in-flight) invocation of an Entry,
// kept in the Scheduler's bounded run-history ring buffer.
type RunRecord struct {
	ScheduleName  string
	Source        entity.Source
	StartedAt     time.Time
	FinishedAt    time.Time
	TerminalState entity.WorkerState
	ItemsScanned  int64
	ItemsStored   int64
}

type registeredEntry struct {
	entry   Entry
	cronID  cron.EntryID
}

// Scheduler drives a worker.Manager on cron schedules and keeps a
// bounded history of run outcomes.
type Scheduler struct {
	manager *worker.Manager
	logger  *slog.Logger
	cron    *cron.Cron

	mu      sync.Mutex
	entries map[string]*registeredEntry
	pending map[entity.Source]*RunRecord

	historyMu sync.Mutex
	history   []RunRecord

	events <-chan worker.CrawlEvent
	done   chan struct{}
}

// New builds a Scheduler driving manager, running in loc (time.UTC if
// nil).
func New(manager *worker.Manager, loc *time.Location, logger *slog.Logger) *Scheduler {
	if loc == nil {
		loc = time.UTC
	}
	s := &Scheduler{
		manager: manager,
		logger:  logger,
		cron:    cron.New(cron.WithLocation(loc)),
		entries: make(map[string]*registeredEntry),
		pending: make(map[entity.Source]*RunRecord),
		events:  manager.Subscribe(),
		done:    make(chan struct{}),
	}
	return s
}

// Start begins cron evaluation and the lifecycle-event consumer that
// finalizes run history. Both run until Stop is called.
func (s *Scheduler) Start() {
	s.cron.Start()
	go s.consumeEvents()
}

// Stop halts cron evaluation and the event consumer, waiting up to ctx's
// deadline for in-flight cron jobs to return.
func (s *Scheduler) Stop(ctx context.Context) {
	stopCtx := s.cron.Stop()
	select {
	case <-stopCtx.Done():
	case <-ctx.Done():
	}
	close(s.done)
}

// Add registers a new schedule entry and, if enabled, schedules it with
// the cron engine.
func (s *Scheduler) Add(entry Entry) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, exists := s.entries[entry.Name]; exists {
		return ErrDuplicateName
	}

	reg := &registeredEntry{entry: entry}
	if entry.Enabled {
		id, err := s.cron.AddFunc(entry.CronExpr, s.fireFunc(entry))
		if err != nil {
			return fmt.Errorf("invalid cron expression %q: %w", entry.CronExpr, err)
		}
		reg.cronID = id
	}
	s.entries[entry.Name] = reg
	return nil
}

// Remove unregisters a schedule entry, removing it from the cron engine
// if it was enabled.
func (s *Scheduler) Remove(name string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	reg, ok := s.entries[name]
	if !ok {
		return ErrNotFound
	}
	if reg.entry.Enabled {
		s.cron.Remove(reg.cronID)
	}
	delete(s.entries, name)
	return nil
}

// List returns every registered schedule entry.
func (s *Scheduler) List() []Entry {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([]Entry, 0, len(s.entries))
	for _, reg := range s.entries {
		out = append(out, reg.entry)
	}
	return out
}

// History returns up to limit most recent run records, newest first.
func (s *Scheduler) History(limit int) []RunRecord {
	s.historyMu.Lock()
	defer s.historyMu.Unlock()
	if limit <= 0 || limit > len(s.history) {
		limit = len(s.history)
	}
	out := make([]RunRecord, limit)
	for i := 0; i < limit; i++ {
		out[i] = s.history[len(s.history)-1-i]
	}
	return out
}

// fireFunc returns the cron callback for entry: it skips the tick
// entirely if the source is already running, otherwise starts it and
// records a pending RunRecord.
func (s *Scheduler) fireFunc(entry Entry) func() {
	return func() {
		status := s.manager.Status()[entry.Source]
		if status.State == entity.WorkerRunning {
			s.logger.Info("scheduler skipped tick, source already running",
				slog.String("schedule", entry.Name), slog.String("source", string(entry.Source)))
			return
		}

		if err := s.manager.Start(context.Background(), entry.Source, entry.Params); err != nil {
			s.logger.Warn("scheduler failed to start source",
				slog.String("schedule", entry.Name), slog.String("source", string(entry.Source)), slog.Any("error", err))
			return
		}

		s.mu.Lock()
		s.pending[entry.Source] = &RunRecord{
			ScheduleName: entry.Name,
			Source:       entry.Source,
			StartedAt:    time.Now(),
		}
		s.mu.Unlock()
	}
}

// consumeEvents finalizes pending RunRecords as Manager lifecycle
// events arrive, pushing completed runs onto the history ring buffer.
func (s *Scheduler) consumeEvents() {
	for {
		select {
		case ev, ok := <-s.events:
			if !ok {
				return
			}
			if ev.State != entity.WorkerIdle && ev.State != entity.WorkerError {
				continue
			}
			s.mu.Lock()
			record, ok := s.pending[ev.Source]
			if ok {
				delete(s.pending, ev.Source)
			}
			s.mu.Unlock()
			if !ok {
				continue
			}

			status := s.manager.Status()[ev.Source]
			record.FinishedAt = ev.Timestamp
			record.TerminalState = ev.State
			record.ItemsScanned = status.ItemsScanned
			record.ItemsStored = status.ItemsStored
			s.appendHistory(*record)
		case <-s.done:
			return
		}
	}
}

func (s *Scheduler) appendHistory(record RunRecord) {
	s.historyMu.Lock()
	defer s.historyMu.Unlock()
	s.history = append(s.history, record)
	if len(s.history) > defaultHistorySize {
		s.history = s.history[len(s.history)-defaultHistorySize:]
	}
}
