package scraper

import (
	"context"
	"fmt"
	"net"
	"net/http"
	"time"

	"github.com/gocolly/colly/v2"

	"github.com/aluiziolira/go-scrape-products/config"
)

const acceptHeader = "text/html,application/xhtml+xml,application/xml;q=0.9,image/webp,*/*;q=0.8"

// Fetcher retrieves raw product pages with a colly collector.
type Fetcher struct {
	cfg     *config.Config
	base    *colly.Collector
	cache   *responseCache
	retry   retryPolicy
	metrics *Metrics
}

// NewFetcher builds a Fetcher configured from cfg. metrics may be nil.
func NewFetcher(cfg *config.Config, metrics *Metrics) (*Fetcher, error) {
	if cfg == nil {
		return nil, fmt.Errorf("config is required")
	}

	base := colly.NewCollector(
		colly.Async(false),
		colly.AllowURLRevisit(),
		colly.UserAgent(cfg.UserAgent),
	)
	base.SetRequestTimeout(cfg.Timeout)
	base.WithTransport(&http.Transport{
		Proxy: http.ProxyFromEnvironment,
		DialContext: (&net.Dialer{
			Timeout:   cfg.Timeout,
			KeepAlive: 30 * time.Second,
		}).DialContext,
		MaxIdleConns:        10,
		IdleConnTimeout:     90 * time.Second,
		TLSHandshakeTimeout: 10 * time.Second,
	})

	cache, err := newResponseCache(cfg.CacheSize)
	if err != nil {
		return nil, err
	}

	return &Fetcher{
		cfg:     cfg,
		base:    base,
		cache:   cache,
		retry:   newRetryPolicy(cfg),
		metrics: metrics,
	}, nil
}

// WithTransport swaps the HTTP transport used for every fetch.
func (f *Fetcher) WithTransport(rt http.RoundTripper) {
	f.base.WithTransport(rt)
}

// Fetch returns the body of url. Non-2xx statuses, transport failures and
// timeouts come back as ErrHTTPStatus, ErrConnection and ErrTimeout.
func (f *Fetcher) Fetch(ctx context.Context, url string) ([]byte, error) {
	if ctx == nil {
		ctx = context.Background()
	}
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	if body, ok := f.cache.get(url); ok {
		f.metrics.IncCacheHit()
		return body, nil
	}

	for attempt := 0; ; attempt++ {
		body, err := f.fetchOnce(ctx, url)
		if err == nil {
			f.cache.put(url, body)
			return body, nil
		}
		if attempt >= f.retry.max || !retryable(err) {
			return nil, err
		}
		f.metrics.IncRetry()
		if werr := f.retry.wait(ctx, attempt+1); werr != nil {
			return nil, err
		}
	}
}

func (f *Fetcher) fetchOnce(ctx context.Context, url string) ([]byte, error) {
	var (
		body       []byte
		statusCode int
		received   bool
		fetchErr   error
	)
	collector := f.base.Clone()
	collector.AllowURLRevisit = true

	collector.OnRequest(func(r *colly.Request) {
		r.Headers.Set("Accept", acceptHeader)
		if f.cfg.AcceptLanguage != "" {
			r.Headers.Set("Accept-Language", f.cfg.AcceptLanguage)
		}
		r.Headers.Set("Cache-Control", "no-cache")
		f.metrics.IncRequest("started")
	})
	collector.OnResponse(func(r *colly.Response) {
		statusCode = r.StatusCode
		body = append([]byte(nil), r.Body...)
		received = true
	})
	collector.OnError(func(r *colly.Response, err error) {
		if r != nil {
			statusCode = r.StatusCode
		}
		fetchErr = err
	})

	start := time.Now()
	done := make(chan error, 1)
	go func() {
		done <- collector.Visit(url)
	}()

	var visitErr error
	select {
	case <-ctx.Done():
		f.metrics.IncRequest("canceled")
		return nil, fmt.Errorf("fetch %s: %w", url, ctx.Err())
	case visitErr = <-done:
	}
	f.metrics.ObserveDuration(time.Since(start))

	if fetchErr == nil {
		fetchErr = visitErr
	}
	if err := classifyError(fetchErr, statusCode); err != nil {
		f.metrics.IncRequest("failed")
		return nil, fmt.Errorf("fetch %s: %w", url, err)
	}
	if !received {
		f.metrics.IncRequest("failed")
		return nil, fmt.Errorf("fetch %s: %w", url, ErrConnection{Err: fmt.Errorf("no response received")})
	}

	f.metrics.IncRequest("completed")
	return body, nil
}
