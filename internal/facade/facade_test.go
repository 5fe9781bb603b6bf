package facade

import (
	"context"
	"io"
	"log/slog"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"newslook/internal/domain/apperr"
	"newslook/internal/domain/entity"
	"newslook/internal/infra/extractor"
	"newslook/internal/infra/worker"
	"newslook/internal/observability/monitor"
	"newslook/internal/repository"
	"newslook/internal/scheduler"
	"newslook/internal/usecase/ingest"
)

type fakeStorage struct {
	byID   map[string]*entity.Article
	total  int64
	health repository.HealthReport
}

func newFakeStorage() *fakeStorage {
	return &fakeStorage{byID: make(map[string]*entity.Article), health: repository.HealthReport{IntegrityOK: true}}
}

func (f *fakeStorage) InsertArticle(ctx context.Context, a *entity.Article) (repository.InsertOutcome, error) {
	f.byID[a.ID] = a
	return repository.Inserted, nil
}
func (f *fakeStorage) GetByID(ctx context.Context, id string) (*entity.Article, error) {
	return f.byID[id], nil
}
func (f *fakeStorage) Query(ctx context.Context, filter repository.NewsFilter, page, pageSize int, order repository.OrderBy) ([]*entity.Article, int64, error) {
	return nil, f.total, nil
}
func (f *fakeStorage) ListSources(ctx context.Context) ([]entity.Source, error) {
	return []entity.Source{entity.SourceSina}, nil
}
func (f *fakeStorage) ListCategories(ctx context.Context) ([]string, error) {
	return []string{"macro"}, nil
}
func (f *fakeStorage) Count(ctx context.Context, filter repository.NewsFilter) (int64, error) {
	return f.total, nil
}
func (f *fakeStorage) TopKeywords(ctx context.Context, n int) ([]entity.Keyword, error) {
	return []entity.Keyword{{Keyword: "央行", Count: 5}}, nil
}
func (f *fakeStorage) ReclassifySource(ctx context.Context, oldSource, newSource entity.Source) (int64, error) {
	return 0, nil
}
func (f *fakeStorage) Trends(ctx context.Context, from, to time.Time) ([]repository.TrendPoint, error) {
	return []repository.TrendPoint{{Date: "2026-07-30", Count: 3}}, nil
}
func (f *fakeStorage) Health(ctx context.Context) (repository.HealthReport, error) {
	return f.health, nil
}

type stubExtractor struct{ urls []string }

func (s *stubExtractor) ListURLs(ctx context.Context, days, maxPerCategory int) ([]string, error) {
	return s.urls, nil
}
func (s *stubExtractor) FetchArticle(ctx context.Context, articleURL string) (*entity.Article, error) {
	return &entity.Article{URL: articleURL, Title: "t", Content: "央行降息", Source: entity.SourceSina}, nil
}

func testLogger() *slog.Logger { return slog.New(slog.NewTextHandler(io.Discard, nil)) }

func newTestFacade(t *testing.T, storage *fakeStorage) *Facade {
	t.Helper()
	reg := extractor.NewRegistry()
	reg.Register(entity.SourceSina, &stubExtractor{urls: []string{"https://sina.com/1"}})
	configs := []entity.SourceConfig{{Source: entity.SourceSina, BaseURL: "https://sina.com", Active: true}}
	ingestSvc := ingest.NewService(storage, nil)
	manager := worker.NewManager(reg, ingestSvc, configs, worker.DefaultConfig(), worker.NewManagerMetrics(), testLogger())
	sched := scheduler.New(manager, nil, testLogger())
	mon := monitor.New()
	return New(storage, manager, sched, mon)
}

func TestFacade_QueryNews_ClampsPageSize(t *testing.T) {
	storage := newFakeStorage()
	storage.total = 5
	f := newTestFacade(t, storage)

	page, err := f.QueryNews(context.Background(), repository.NewsFilter{}, 0, 1000)
	require.NoError(t, err)
	assert.Equal(t, 1, page.Page)
	assert.Equal(t, newsPageConfig.MaxLimit, page.PageSize)
	assert.EqualValues(t, 5, page.Total)
}

func TestFacade_GetNews_EmptyIDIsValidationError(t *testing.T) {
	f := newTestFacade(t, newFakeStorage())
	_, err := f.GetNews(context.Background(), "")
	assert.True(t, apperr.Is(err, apperr.KindValidation))
}

func TestFacade_ListSourcesAndCategories(t *testing.T) {
	f := newTestFacade(t, newFakeStorage())
	sources, err := f.ListSources(context.Background())
	require.NoError(t, err)
	assert.Equal(t, []entity.Source{entity.SourceSina}, sources)

	categories, err := f.ListCategories(context.Background())
	require.NoError(t, err)
	assert.Equal(t, []string{"macro"}, categories)
}

func TestFacade_Trends_ClampsDays(t *testing.T) {
	f := newTestFacade(t, newFakeStorage())
	points, err := f.Trends(context.Background(), -1)
	require.NoError(t, err)
	require.Len(t, points, 1)
	assert.Equal(t, "2026-07-30", points[0].Date)
}

func TestFacade_TopKeywords(t *testing.T) {
	f := newTestFacade(t, newFakeStorage())
	keywords, err := f.TopKeywords(context.Background(), 0)
	require.NoError(t, err)
	require.Len(t, keywords, 1)
	assert.Equal(t, "央行", keywords[0].Keyword)
}

func TestFacade_Start_UnknownSourceReturnsValidationError(t *testing.T) {
	f := newTestFacade(t, newFakeStorage())
	err := f.Start(context.Background(), entity.Source("nope"), worker.StartParams{})
	assert.True(t, apperr.Is(err, apperr.KindValidation))
}

func TestFacade_Status_ReportsKnownSource(t *testing.T) {
	f := newTestFacade(t, newFakeStorage())
	status := f.Status()
	require.Contains(t, status, entity.SourceSina)
}

func TestFacade_ScheduleAdd_RejectsEmptyName(t *testing.T) {
	f := newTestFacade(t, newFakeStorage())
	err := f.ScheduleAdd(scheduler.Entry{CronExpr: "@every 1h", Source: entity.SourceSina})
	assert.True(t, apperr.Is(err, apperr.KindValidation))
}

func TestFacade_ScheduleAddAndList(t *testing.T) {
	f := newTestFacade(t, newFakeStorage())
	require.NoError(t, f.ScheduleAdd(scheduler.Entry{Name: "sina-daily", CronExpr: "@every 1h", Source: entity.SourceSina}))
	list := f.ScheduleList()
	require.Len(t, list, 1)
	assert.Equal(t, "sina-daily", list[0].Name)
}

func TestFacade_Health_ReportsHealthyWhenIntegrityOK(t *testing.T) {
	f := newTestFacade(t, newFakeStorage())
	report, err := f.Health(context.Background())
	require.NoError(t, err)
	assert.Equal(t, "healthy", report.Status)
}

func TestFacade_Health_ReportsUnhealthyWhenIntegrityFails(t *testing.T) {
	storage := newFakeStorage()
	storage.health = repository.HealthReport{IntegrityOK: false}
	f := newTestFacade(t, storage)
	report, err := f.Health(context.Background())
	require.NoError(t, err)
	assert.Equal(t, "unhealthy", report.Status)
}

func TestFacade_MetricsSnapshot_ReturnsMonitorSnapshot(t *testing.T) {
	f := newTestFacade(t, newFakeStorage())
	snap := f.MetricsSnapshot()
	assert.GreaterOrEqual(t, snap.UptimeSeconds, 0.0)
}
