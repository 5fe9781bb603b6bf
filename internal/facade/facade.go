// Package facade implements NewsLook's Control/Query Facade (spec
// component C9): the single stable surface the HTTP/JSON API layer (and
// any future CLI) calls into. It fans out to the Storage layer for
// queries, the Crawler Manager for control, the Scheduler for schedule
// management, and the Lineage & Health Monitor for health/metrics,
// validating every input and returning typed §7 errors rather than
// letting storage or worker internals leak through.
package facade

import (
	"context"
	"errors"
	"time"

	"newslook/internal/common/pagination"
	"newslook/internal/domain/apperr"
	"newslook/internal/domain/entity"
	"newslook/internal/infra/worker"
	"newslook/internal/observability/monitor"
	"newslook/internal/repository"
	"newslook/internal/scheduler"
)

const (
	maxTopKeywords = 100
	maxTrendDays   = 365
)

// newsPageConfig is the pagination bound spec §6 gives for `query_news`:
// page_size defaults to 20 and is capped at 100 rather than rejected.
var newsPageConfig = pagination.Config{DefaultPage: 1, DefaultLimit: 20, MaxLimit: 100}

// Facade is the Control/Query entry point. All of its methods are safe
// for concurrent use, since everything they touch already is.
type Facade struct {
	storage   repository.NewsRepository
	manager   *worker.Manager
	scheduler *scheduler.Scheduler
	monitor   *monitor.Monitor
	now       func() time.Time
}

// New builds a Facade wiring the four subsystems it fronts.
func New(storage repository.NewsRepository, manager *worker.Manager, sched *scheduler.Scheduler, mon *monitor.Monitor) *Facade {
	return &Facade{storage: storage, manager: manager, scheduler: sched, monitor: mon, now: time.Now}
}

// NewsPage is the result of QueryNews: one page of matching articles plus
// the exact total row count under the filter and the page's metadata.
type NewsPage struct {
	Articles   []*entity.Article
	Total      int64
	Page       int
	PageSize   int
	TotalPages int
}

// QueryNews implements the `query_news` operation. page/pageSize are
// clamped to sane bounds rather than rejected, matching the `page_size
// <= 100` contract in spec §6.
func (f *Facade) QueryNews(ctx context.Context, filter repository.NewsFilter, page, pageSize int) (NewsPage, error) {
	params := pagination.Params{Page: page, Limit: pageSize}.WithDefaults(newsPageConfig)

	articles, total, err := f.storage.Query(ctx, filter, params.Page, params.Limit, repository.OrderPublishTimeDesc)
	if err != nil {
		pagination.RecordError("database")
		return NewsPage{}, apperr.Storage("query_news failed", err)
	}
	pagination.UpdateTotalCount(total)
	meta := pagination.OffsetStrategy{}.BuildMetadata(params, total, false)
	return NewsPage{
		Articles:   articles,
		Total:      total,
		Page:       params.Page,
		PageSize:   params.Limit,
		TotalPages: meta.TotalPages,
	}, nil
}

// GetNews implements `get_news`. Returns (nil, nil) when id is unknown;
// callers map that to HTTP 404.
func (f *Facade) GetNews(ctx context.Context, id string) (*entity.Article, error) {
	if id == "" {
		return nil, apperr.Validation("id is required")
	}
	a, err := f.storage.GetByID(ctx, id)
	if err != nil {
		return nil, apperr.Storage("get_news failed", err)
	}
	return a, nil
}

// ListSources implements `list_sources`.
func (f *Facade) ListSources(ctx context.Context) ([]entity.Source, error) {
	sources, err := f.storage.ListSources(ctx)
	if err != nil {
		return nil, apperr.Storage("list_sources failed", err)
	}
	return sources, nil
}

// ListCategories implements `list_categories`.
func (f *Facade) ListCategories(ctx context.Context) ([]string, error) {
	categories, err := f.storage.ListCategories(ctx)
	if err != nil {
		return nil, apperr.Storage("list_categories failed", err)
	}
	return categories, nil
}

// Count implements `count`.
func (f *Facade) Count(ctx context.Context, filter repository.NewsFilter) (int64, error) {
	n, err := f.storage.Count(ctx, filter)
	if err != nil {
		return 0, apperr.Storage("count failed", err)
	}
	return n, nil
}

// Trends implements `trends(by=day, range)`. days is clamped to
// [1, maxTrendDays]; the range runs from (now - days) to now.
func (f *Facade) Trends(ctx context.Context, days int) ([]repository.TrendPoint, error) {
	if days < 1 {
		days = 7
	}
	if days > maxTrendDays {
		days = maxTrendDays
	}
	to := f.now()
	from := to.AddDate(0, 0, -days)

	points, err := f.storage.Trends(ctx, from, to)
	if err != nil {
		return nil, apperr.Storage("trends failed", err)
	}
	return points, nil
}

// TopKeywords implements `top_keywords(range,k)`. k is clamped to
// [1, maxTopKeywords]. The "range" half of the operation is left to the
// keyword table's own running counts (spec §4.4's keywords table is
// already a lifetime rollup, not a windowed one).
func (f *Facade) TopKeywords(ctx context.Context, k int) ([]entity.Keyword, error) {
	if k < 1 {
		k = 10
	}
	if k > maxTopKeywords {
		k = maxTopKeywords
	}
	keywords, err := f.storage.TopKeywords(ctx, k)
	if err != nil {
		return nil, apperr.Storage("top_keywords failed", err)
	}
	return keywords, nil
}

// Start implements the `start` control operation for one source.
func (f *Facade) Start(ctx context.Context, source entity.Source, params worker.StartParams) error {
	if err := f.manager.Start(ctx, source, params); err != nil {
		return mapManagerErr(err)
	}
	return nil
}

// StartAll implements `start` over every known source.
func (f *Facade) StartAll(ctx context.Context, params worker.StartParams) []entity.Source {
	return f.manager.StartAll(ctx, params)
}

// Stop implements the `stop` control operation for one source.
func (f *Facade) Stop(source entity.Source) error {
	if err := f.manager.Stop(source); err != nil {
		return mapManagerErr(err)
	}
	return nil
}

// StopAll implements `stop` over every known source.
func (f *Facade) StopAll() { f.manager.StopAll() }

// Status implements `status`: the per-source lifecycle snapshot.
func (f *Facade) Status() map[entity.Source]entity.SourceStatus {
	return f.manager.Status()
}

// ScheduleList implements `schedule_list`.
func (f *Facade) ScheduleList() []scheduler.Entry {
	return f.scheduler.List()
}

// ScheduleAdd implements `schedule_add`.
func (f *Facade) ScheduleAdd(entry scheduler.Entry) error {
	if entry.Name == "" {
		return apperr.Validation("schedule name is required")
	}
	if entry.CronExpr == "" {
		return apperr.Validation("cron_expr is required")
	}
	if err := f.scheduler.Add(entry); err != nil {
		return mapSchedulerErr(err)
	}
	return nil
}

// ScheduleRemove implements `schedule_remove`.
func (f *Facade) ScheduleRemove(name string) error {
	if err := f.scheduler.Remove(name); err != nil {
		return mapSchedulerErr(err)
	}
	return nil
}

// ScheduleHistory is a read beyond the spec's named operations, exposing
// the Scheduler's bounded run-history ring buffer for a dashboard.
func (f *Facade) ScheduleHistory(limit int) []scheduler.RunRecord {
	return f.scheduler.History(limit)
}

// HealthReport is the result of Health: storage health plus process
// uptime, matching `GET /health`'s `{status, uptime_s, db:{...}}` shape.
type HealthReport struct {
	Status        string
	UptimeSeconds float64
	Storage       repository.HealthReport
}

// Health implements `health()`.
func (f *Facade) Health(ctx context.Context) (HealthReport, error) {
	storageHealth, err := f.storage.Health(ctx)
	if err != nil {
		return HealthReport{}, apperr.Storage("health check failed", err)
	}

	status := "healthy"
	if !storageHealth.IntegrityOK {
		status = "unhealthy"
	}

	snap := f.monitor.Snapshot()
	return HealthReport{
		Status:        status,
		UptimeSeconds: snap.UptimeSeconds,
		Storage:       storageHealth,
	}, nil
}

// MetricsSnapshot implements `metrics_snapshot()`: the Monitor's full
// copy-on-read rolling-metrics view.
func (f *Facade) MetricsSnapshot() monitor.Snapshot {
	return f.monitor.Snapshot()
}

func mapManagerErr(err error) error {
	if errors.Is(err, worker.ErrUnknownSource) || errors.Is(err, worker.ErrAlreadyRunning) {
		return apperr.Validation(err.Error())
	}
	return apperr.Storage("crawler manager operation failed", err)
}

func mapSchedulerErr(err error) error {
	if errors.Is(err, scheduler.ErrNotFound) || errors.Is(err, scheduler.ErrDuplicateName) {
		return apperr.Validation(err.Error())
	}
	return apperr.Config("schedule operation failed", err)
}
