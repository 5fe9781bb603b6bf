package http

import (
	"context"
	"encoding/json"
	"log/slog"
	"net/http"
	"strconv"
	"strings"
	"time"

	"newslook/internal/common/pagination"
	"newslook/internal/domain/apperr"
	"newslook/internal/domain/entity"
	"newslook/internal/facade"
	"newslook/internal/handler/http/requestid"
	"newslook/internal/handler/http/respond"
	"newslook/internal/infra/worker"
	"newslook/internal/observability/logging"
	"newslook/internal/repository"
)

// NewsHandler exposes the Control/Query Facade over HTTP/JSON, matching
// the operation table in spec §6: health, stats, news query/get,
// sources, crawler status/start/stop, and trends.
type NewsHandler struct {
	Facade *facade.Facade
	Logger *slog.Logger
}

// loggerFor returns h's logger enriched with ctx's request ID, falling
// back to the process default if no per-handler logger was configured.
func (h *NewsHandler) loggerFor(ctx context.Context) *slog.Logger {
	base := h.Logger
	if base == nil {
		base = slog.Default()
	}
	return logging.WithRequestID(ctx, base)
}

func writeAPIError(w http.ResponseWriter, err error) {
	status := http.StatusInternalServerError
	code := "internal_error"
	if apperr.Is(err, apperr.KindValidation) {
		status, code = http.StatusBadRequest, "validation_error"
	} else if apperr.Is(err, apperr.KindDuplicate) {
		status, code = http.StatusConflict, "duplicate"
	} else if apperr.Is(err, apperr.KindConfig) {
		status, code = http.StatusBadRequest, "config_error"
	}
	respond.JSON(w, status, map[string]any{"code": code, "message": err.Error()})
}

// HandleHealth serves GET /health: {status, uptime_s, db:{ok, news_count}, sources:{...}}.
func (h *NewsHandler) HandleHealth(w http.ResponseWriter, r *http.Request) {
	report, err := h.Facade.Health(r.Context())
	if err != nil {
		writeAPIError(w, err)
		return
	}
	status := h.Facade.Status()
	sources := make(map[string]string, len(status))
	for src, st := range status {
		sources[string(src)] = string(st.State)
	}

	respond.JSON(w, http.StatusOK, map[string]any{
		"status":   report.Status,
		"uptime_s": report.UptimeSeconds,
		"db": map[string]any{
			"ok":         report.Storage.IntegrityOK,
			"news_count": report.Storage.NewsCount,
		},
		"sources": sources,
	})
}

// HandleStats serves GET /stats: per-source counters from the Lineage &
// Health Monitor plus the top keyword table.
func (h *NewsHandler) HandleStats(w http.ResponseWriter, r *http.Request) {
	snap := h.Facade.MetricsSnapshot()
	keywords, err := h.Facade.TopKeywords(r.Context(), 10)
	if err != nil {
		writeAPIError(w, err)
		return
	}

	bySource := make(map[string]any, len(snap.Sources))
	for src, s := range snap.Sources {
		bySource[string(src)] = map[string]any{
			"requests_attempted": s.RequestsAttempted,
			"requests_ok":        s.RequestsOK,
			"requests_failed":    s.RequestsFailed,
			"articles_stored":    s.ArticlesStored,
			"articles_duplicate": s.ArticlesDuplicate,
			"ad_filter_matches":  s.AdFilterMatches,
		}
	}

	respond.JSON(w, http.StatusOK, map[string]any{
		"uptime_s":     snap.UptimeSeconds,
		"sources":      bySource,
		"top_keywords": keywords,
	})
}

// HandleListNews serves GET /news: page, page_size, source, category,
// date_from, date_to, q.
func (h *NewsHandler) HandleListNews(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()

	page, _ := strconv.Atoi(q.Get("page"))
	pageSize, _ := strconv.Atoi(q.Get("page_size"))

	filter := repository.NewsFilter{
		Source:   entity.Source(q.Get("source")),
		Category: q.Get("category"),
		Keyword:  q.Get("q"),
		Text:     q.Get("q"),
	}
	if raw := q.Get("date_from"); raw != "" {
		if t, err := time.Parse(time.RFC3339, raw); err == nil {
			filter.From = &t
		}
	}
	if raw := q.Get("date_to"); raw != "" {
		if t, err := time.Parse(time.RFC3339, raw); err == nil {
			filter.To = &t
		}
	}

	start := time.Now()
	requestID := requestid.FromContext(r.Context())
	logger := h.loggerFor(r.Context())
	result, err := h.Facade.QueryNews(r.Context(), filter, page, pageSize)
	if err != nil {
		pagination.LogError(logger, requestID, pagination.Params{Page: page, Limit: pageSize}, err, "database")
		writeAPIError(w, err)
		return
	}
	pagination.RecordRequest(http.StatusOK, result.Page)
	pagination.RecordDuration("handler", time.Since(start).Seconds())
	pagination.LogResponse(logger, requestID, pagination.Params{Page: result.Page, Limit: result.PageSize}, len(result.Articles), time.Since(start), http.StatusOK)

	respond.JSON(w, http.StatusOK, map[string]any{
		"articles":    result.Articles,
		"total":       result.Total,
		"page":        result.Page,
		"page_size":   result.PageSize,
		"total_pages": result.TotalPages,
	})
}

// HandleGetNews serves GET /news/{id}.
func (h *NewsHandler) HandleGetNews(w http.ResponseWriter, r *http.Request) {
	id := strings.TrimPrefix(r.URL.Path, "/news/")
	article, err := h.Facade.GetNews(r.Context(), id)
	if err != nil {
		writeAPIError(w, err)
		return
	}
	if article == nil {
		respond.JSON(w, http.StatusNotFound, map[string]string{"code": "not_found", "message": "article not found"})
		return
	}
	respond.JSON(w, http.StatusOK, article)
}

// HandleSources serves GET /sources: known sources with article counts.
func (h *NewsHandler) HandleSources(w http.ResponseWriter, r *http.Request) {
	sources, err := h.Facade.ListSources(r.Context())
	if err != nil {
		writeAPIError(w, err)
		return
	}
	status := h.Facade.Status()

	out := make([]map[string]any, 0, len(sources))
	for _, src := range sources {
		count, err := h.Facade.Count(r.Context(), repository.NewsFilter{Source: src})
		if err != nil {
			writeAPIError(w, err)
			return
		}
		entry := map[string]any{"source": src, "news_count": count}
		if st, ok := status[src]; ok {
			entry["state"] = st.State
		}
		out = append(out, entry)
	}
	respond.JSON(w, http.StatusOK, out)
}

// HandleCrawlerStatus serves GET /crawler/status: per-source status map.
func (h *NewsHandler) HandleCrawlerStatus(w http.ResponseWriter, r *http.Request) {
	respond.JSON(w, http.StatusOK, h.Facade.Status())
}

type crawlerStartRequest struct {
	Sources    []string `json:"sources"`
	MaxItems   int      `json:"max_items"`
	Days       int      `json:"days"`
	Concurrent int      `json:"concurrent"`
}

// HandleCrawlerStart serves POST /crawler/start: {sources?, max_items?, days?, concurrent?}.
func (h *NewsHandler) HandleCrawlerStart(w http.ResponseWriter, r *http.Request) {
	var req crawlerStartRequest
	if r.ContentLength != 0 {
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			respond.JSON(w, http.StatusBadRequest, map[string]string{"code": "validation_error", "message": "malformed request body"})
			return
		}
	}

	params := worker.StartParams{MaxItems: req.MaxItems, Days: req.Days}

	if len(req.Sources) == 0 {
		started := h.Facade.StartAll(r.Context(), params)
		respond.JSON(w, http.StatusAccepted, map[string]any{"started": started})
		return
	}

	var started []entity.Source
	for _, s := range req.Sources {
		src := entity.Source(s)
		if err := h.Facade.Start(r.Context(), src, params); err != nil {
			if !apperr.Is(err, apperr.KindValidation) {
				writeAPIError(w, err)
				return
			}
			continue
		}
		started = append(started, src)
	}
	respond.JSON(w, http.StatusAccepted, map[string]any{"started": started})
}

type crawlerStopRequest struct {
	Sources []string `json:"sources"`
}

// HandleCrawlerStop serves POST /crawler/stop: {sources?}.
func (h *NewsHandler) HandleCrawlerStop(w http.ResponseWriter, r *http.Request) {
	var req crawlerStopRequest
	if r.ContentLength != 0 {
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			respond.JSON(w, http.StatusBadRequest, map[string]string{"code": "validation_error", "message": "malformed request body"})
			return
		}
	}

	if len(req.Sources) == 0 {
		h.Facade.StopAll()
		respond.JSON(w, http.StatusAccepted, map[string]string{"status": "stopping all"})
		return
	}

	var stopped []entity.Source
	for _, s := range req.Sources {
		src := entity.Source(s)
		if err := h.Facade.Stop(src); err == nil {
			stopped = append(stopped, src)
		}
	}
	respond.JSON(w, http.StatusAccepted, map[string]any{"stopped": stopped})
}

// HandleTrends serves GET /trends: `days` or `date_from,date_to` ->
// {dates[], counts[]}.
func (h *NewsHandler) HandleTrends(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	days, _ := strconv.Atoi(q.Get("days"))
	if days == 0 {
		if from, to := q.Get("date_from"), q.Get("date_to"); from != "" && to != "" {
			if t1, err1 := time.Parse("2006-01-02", from); err1 == nil {
				if t2, err2 := time.Parse("2006-01-02", to); err2 == nil {
					days = int(t2.Sub(t1).Hours()/24) + 1
				}
			}
		}
	}

	points, err := h.Facade.Trends(r.Context(), days)
	if err != nil {
		writeAPIError(w, err)
		return
	}

	dates := make([]string, len(points))
	counts := make([]int64, len(points))
	for i, p := range points {
		dates[i] = p.Date
		counts[i] = p.Count
	}
	respond.JSON(w, http.StatusOK, map[string]any{"dates": dates, "counts": counts})
}

// NewRouter assembles the full HTTP/JSON API surface: the Control/Query
// Facade's operations under the request-id/logging/recover/metrics
// middleware chain, plus the generic liveness/readiness probes and the
// Prometheus scrape endpoint.
func NewRouter(h *NewsHandler) http.Handler {
	mux := http.NewServeMux()

	mux.HandleFunc("GET /health", h.HandleHealth)
	mux.HandleFunc("GET /stats", h.HandleStats)
	mux.HandleFunc("GET /news", h.HandleListNews)
	mux.HandleFunc("GET /news/{id}", h.HandleGetNews)
	mux.HandleFunc("GET /sources", h.HandleSources)
	mux.HandleFunc("GET /crawler/status", h.HandleCrawlerStatus)
	mux.HandleFunc("POST /crawler/start", h.HandleCrawlerStart)
	mux.HandleFunc("POST /crawler/stop", h.HandleCrawlerStop)
	mux.HandleFunc("GET /trends", h.HandleTrends)

	mux.Handle("GET /metrics", MetricsHandler())
	mux.Handle("GET /livez", &LiveHandler{})

	return mux
}
