// Package httpclient implements NewsLook's resilient HTTP GET: retries
// with full jitter, a circuit breaker per host, User-Agent rotation, and
// charset-aware body decoding. It is the sole entry point workers use to
// reach publisher sites.
package httpclient

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"math/rand"
	"net/http"
	"strconv"
	"sync"
	"time"

	"newslook/internal/domain/apperr"
	"newslook/internal/domain/entity"
	"newslook/internal/resilience/circuitbreaker"
	"newslook/internal/resilience/retry"

	"github.com/sony/gobreaker"
)

// defaultUserAgents is the rotation pool used when Config.UserAgents is
// empty.
var defaultUserAgents = []string{
	"Mozilla/5.0 (Windows NT 10.0; Win64; x64) AppleWebKit/537.36 (KHTML, like Gecko) Chrome/124.0 Safari/537.36",
	"Mozilla/5.0 (Macintosh; Intel Mac OS X 10_15_7) AppleWebKit/605.1.15 (KHTML, like Gecko) Version/17.0 Safari/605.1.15",
	"Mozilla/5.0 (X11; Linux x86_64) AppleWebKit/537.36 (KHTML, like Gecko) Chrome/124.0 Safari/537.36",
}

// Config configures a Client.
type Config struct {
	AttemptTimeout time.Duration
	RetryConfig    retry.Config
	UserAgents     []string
	AcceptLanguage string
	ProxyURL       string // optional, applied to every request made by this Client
}

// DefaultConfig returns the ingestion HTTP client defaults: 10s per
// attempt, 3 attempts with full jitter base=1s cap=30s.
func DefaultConfig() Config {
	return Config{
		AttemptTimeout: 10 * time.Second,
		RetryConfig:    retry.CrawlConfig(),
		UserAgents:     defaultUserAgents,
		AcceptLanguage: "zh-CN,zh;q=0.9",
	}
}

// Result is the successful outcome of Fetch.
type Result struct {
	Body     []byte
	FinalURL string
	Status   int
	Headers  http.Header
}

// OutcomeSink receives a FetchOutcome for every attempt (including
// retries), matching §4.1's "emits a FetchOutcome for every attempt".
type OutcomeSink interface {
	Record(entity.FetchOutcome)
}

// Client performs GET requests with retry, jitter, UA rotation, and a
// circuit breaker scoped per source.
type Client struct {
	cfg     Config
	http    *http.Client
	sink    OutcomeSink
	mu      sync.Mutex
	cbBySrc map[entity.Source]*circuitbreaker.CircuitBreaker
}

// New builds a Client. sink may be nil to discard FetchOutcome events.
func New(cfg Config, sink OutcomeSink) *Client {
	transport := &http.Transport{
		MaxIdleConns:        100,
		MaxIdleConnsPerHost: 10,
		IdleConnTimeout:     90 * time.Second,
	}
	if cfg.ProxyURL != "" {
		if proxyFn, err := proxyFunc(cfg.ProxyURL); err == nil {
			transport.Proxy = proxyFn
		}
	}
	return &Client{
		cfg:     cfg,
		http:    &http.Client{Transport: transport},
		sink:    sink,
		cbBySrc: make(map[entity.Source]*circuitbreaker.CircuitBreaker),
	}
}

func (c *Client) breakerFor(src entity.Source) *circuitbreaker.CircuitBreaker {
	c.mu.Lock()
	defer c.mu.Unlock()
	cb, ok := c.cbBySrc[src]
	if !ok {
		bcfg := circuitbreaker.FeedFetchConfig()
		bcfg.Name = "http-client-" + string(src)
		cb = circuitbreaker.New(bcfg)
		c.cbBySrc[src] = cb
	}
	return cb
}

// Fetch performs a GET against rawURL, attributing events to src. It
// retries on NetworkError/TimeoutError/5xx/429 with full jitter, honoring
// Retry-After on 429/503, and trips the per-source circuit breaker
// independently of the retry loop.
func (c *Client) Fetch(ctx context.Context, src entity.Source, rawURL string) (*Result, error) {
	cb := c.breakerFor(src)
	ua := c.userAgent()
	var result *Result

	err := retry.WithFullJitterBackoff(ctx, c.cfg.RetryConfig, func(attempt int) (time.Duration, error) {
		start := time.Now()
		cbResult, cbErr := cb.Execute(func() (interface{}, error) {
			return c.doRequest(ctx, rawURL, ua)
		})

		if cbErr != nil {
			if cbErr == gobreaker.ErrOpenState {
				slog.Warn("http client circuit breaker open",
					slog.String("source", string(src)), slog.String("url", rawURL))
				c.emit(src, rawURL, 0, 0, time.Since(start), attempt+1, entity.FetchFail)
				return 0, apperr.Network("circuit breaker open", cbErr)
			}
			c.emit(src, rawURL, 0, 0, time.Since(start), attempt+1, entity.FetchRetry)
			return 0, cbErr
		}

		res := cbResult.(*Result)
		elapsed := time.Since(start)

		if res.Status >= 500 || res.Status == http.StatusTooManyRequests || res.Status == http.StatusRequestTimeout {
			c.emit(src, rawURL, res.Status, int64(len(res.Body)), elapsed, attempt+1, entity.FetchRetry)
			return retryAfterDelay(res.Headers), &retry.HTTPError{StatusCode: res.Status, Message: http.StatusText(res.Status)}
		}
		if res.Status >= 400 {
			c.emit(src, rawURL, res.Status, int64(len(res.Body)), elapsed, attempt+1, entity.FetchFail)
			return 0, apperr.HTTP(res.Status, fmt.Sprintf("non-retriable status for %s", rawURL))
		}

		c.emit(src, rawURL, res.Status, int64(len(res.Body)), elapsed, attempt+1, entity.FetchOK)
		result = res
		return 0, nil
	})

	if err != nil {
		return nil, classifyFinalError(err)
	}
	return result, nil
}

func (c *Client) doRequest(ctx context.Context, rawURL, ua string) (*Result, error) {
	reqCtx, cancel := context.WithTimeout(ctx, c.cfg.AttemptTimeout)
	defer cancel()

	req, err := http.NewRequestWithContext(reqCtx, http.MethodGet, rawURL, nil)
	if err != nil {
		return nil, apperr.Network("build request", err)
	}
	req.Header.Set("User-Agent", ua)
	req.Header.Set("Accept-Language", c.cfg.AcceptLanguage)

	resp, err := c.http.Do(req)
	if err != nil {
		if reqCtx.Err() != nil {
			return nil, apperr.Timeout("request deadline exceeded", err)
		}
		return nil, apperr.Network("transport failure", err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, apperr.Network("read body", err)
	}

	return &Result{
		Body:     body,
		FinalURL: resp.Request.URL.String(),
		Status:   resp.StatusCode,
		Headers:  resp.Header,
	}, nil
}

func (c *Client) userAgent() string {
	pool := c.cfg.UserAgents
	if len(pool) == 0 {
		pool = defaultUserAgents
	}
	// #nosec G404 -- UA rotation does not need cryptographic randomness.
	return pool[rand.Intn(len(pool))]
}

func (c *Client) emit(src entity.Source, url string, status int, bytes int64, elapsed time.Duration, attempt int, result entity.FetchResult) {
	if c.sink == nil {
		return
	}
	c.sink.Record(entity.FetchOutcome{
		URL:        url,
		Source:     src,
		HTTPStatus: status,
		Bytes:      bytes,
		ElapsedMS:  elapsed.Milliseconds(),
		Attempt:    attempt,
		Result:     result,
		Timestamp:  time.Now(),
	})
}

func retryAfterDelay(h http.Header) time.Duration {
	v := h.Get("Retry-After")
	if v == "" {
		return 0
	}
	if secs, err := strconv.Atoi(v); err == nil {
		return time.Duration(secs) * time.Second
	}
	if at, err := http.ParseTime(v); err == nil {
		if d := time.Until(at); d > 0 {
			return d
		}
	}
	return 0
}

func classifyFinalError(err error) error {
	var httpErr *retry.HTTPError
	if ok := asHTTPError(err, &httpErr); ok {
		return apperr.HTTP(httpErr.StatusCode, httpErr.Message)
	}
	return err
}

func asHTTPError(err error, target **retry.HTTPError) bool {
	for err != nil {
		if he, ok := err.(*retry.HTTPError); ok {
			*target = he
			return true
		}
		u, ok := err.(interface{ Unwrap() error })
		if !ok {
			return false
		}
		err = u.Unwrap()
	}
	return false
}
