package scrape

import (
	"context"
	"errors"
	"fmt"
	"io"
	"math"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/rs/zerolog"
	"github.com/sony/gobreaker"

	"github.com/lindaliu1/endangered-ocean/internal/cache"
	"github.com/lindaliu1/endangered-ocean/internal/observability"
	"github.com/lindaliu1/endangered-ocean/internal/util"
	"github.com/lindaliu1/endangered-ocean/internal/worker"
)

const (
	// DefaultUserAgent identifies the scraper to NOAA.
	DefaultUserAgent = "endangered-ocean/0.1 (local dev)"

	// DefaultDelay is the pause after each network fetch.
	DefaultDelay = 600 * time.Millisecond

	DefaultTimeout  = 30 * time.Second
	DefaultMaxBytes = 10 * 1024 * 1024

	maxFetchAttempts = 3
)

// fetchSleepFunc is swapped out in tests to avoid real backoff sleeps.
var fetchSleepFunc = time.Sleep

// FetchResult carries one fetched page.
type FetchResult struct {
	HTML       string
	FinalURL   string
	StatusCode int
	Cached     bool
}

// FetcherOptions configures a Fetcher. Zero values fall back to the
// pipeline defaults.
type FetcherOptions struct {
	Timeout   time.Duration
	UserAgent string
	MaxBytes  int64

	// Delay pauses after each live fetch. Negative disables the pause.
	Delay time.Duration

	HTTPProxy  string
	HTTPSProxy string

	// Pages, when set, is consulted before the network. Hits skip the
	// robots check, the rate limit and the post-fetch delay.
	Pages cache.Cache

	// CheckRobots enables robots.txt enforcement for live fetches.
	CheckRobots bool

	Metrics *observability.Metrics
	Logger  zerolog.Logger
}

// Fetcher downloads pages politely. Cached copies are served without
// touching the network; live fetches honor robots.txt, a per-domain
// rate limit, and a circuit breaker that opens after repeated server
// failures.
type Fetcher struct {
	client    *http.Client
	userAgent string
	maxBytes  int64
	delay     time.Duration
	pages     cache.Cache
	limiter   *worker.Limiter
	robots    *util.RobotsChecker
	breaker   *gobreaker.CircuitBreaker
	metrics   *observability.Metrics
	logger    zerolog.Logger
}

// NewFetcher builds a Fetcher from opts.
func NewFetcher(opts FetcherOptions) *Fetcher {
	if opts.Timeout <= 0 {
		opts.Timeout = DefaultTimeout
	}
	if opts.UserAgent == "" {
		opts.UserAgent = DefaultUserAgent
	}
	if opts.MaxBytes <= 0 {
		opts.MaxBytes = DefaultMaxBytes
	}
	if opts.Delay == 0 {
		opts.Delay = DefaultDelay
	}
	if opts.Delay < 0 {
		opts.Delay = 0
	}
	if opts.Metrics == nil {
		opts.Metrics = observability.NewMetricsForTesting()
	}

	f := &Fetcher{
		client:    util.NewHTTPClient(opts.Timeout, opts.HTTPProxy, opts.HTTPSProxy),
		userAgent: opts.UserAgent,
		maxBytes:  opts.MaxBytes,
		delay:     opts.Delay,
		pages:     opts.Pages,
		limiter:   worker.NewLimiter(rateForDelay(opts.Delay), 1),
		metrics:   opts.Metrics,
		logger:    opts.Logger,
	}
	if opts.CheckRobots {
		f.robots = util.NewRobotsChecker(opts.UserAgent, opts.Timeout)
	}

	f.breaker = gobreaker.NewCircuitBreaker(gobreaker.Settings{
		Name:        "page-fetch",
		MaxRequests: 3,
		Interval:    60 * time.Second,
		Timeout:     30 * time.Second,
		ReadyToTrip: func(counts gobreaker.Counts) bool {
			failureRatio := float64(counts.TotalFailures) / float64(counts.Requests)
			return counts.ConsecutiveFailures > 5 ||
				(counts.Requests >= 10 && failureRatio >= 0.6)
		},
		IsSuccessful: func(err error) bool {
			if err == nil {
				return true
			}
			var nte *nonTripError
			return errors.As(err, &nte)
		},
		OnStateChange: func(name string, from, to gobreaker.State) {
			f.logger.Warn().
				Str("breaker", name).
				Str("from", from.String()).
				Str("to", to.String()).
				Msg("circuit breaker state change")
		},
	})

	return f
}

// rateForDelay converts the inter-request delay into a requests-per-
// second limit. A zero delay leaves the limiter unthrottled.
func rateForDelay(delay time.Duration) float64 {
	if delay <= 0 {
		return math.MaxFloat64
	}
	return float64(time.Second) / float64(delay)
}

// Fetch returns the page at rawURL, serving from cache when possible.
func (f *Fetcher) Fetch(ctx context.Context, rawURL string) (*FetchResult, error) {
	if f.pages != nil {
		if data, ok := f.pages.Get(cache.Key(rawURL)); ok {
			f.metrics.PageCache.WithLabelValues("hit").Inc()
			return &FetchResult{
				HTML:       string(data),
				FinalURL:   rawURL,
				StatusCode: http.StatusOK,
				Cached:     true,
			}, nil
		}
		f.metrics.PageCache.WithLabelValues("miss").Inc()
	}

	delay := f.delay
	if f.robots != nil {
		allowed, crawlDelay, err := f.robots.CanFetch(ctx, rawURL)
		if err == nil && !allowed {
			return nil, fmt.Errorf("robots.txt disallows %s", rawURL)
		}
		if crawlDelay > delay {
			delay = crawlDelay
		}
	}

	if err := f.limiter.Wait(ctx, rawURL); err != nil {
		return nil, fmt.Errorf("rate limit: %w", err)
	}

	start := time.Now()
	out, err := f.breaker.Execute(func() (interface{}, error) {
		res, ferr := f.doFetch(ctx, rawURL)
		if ferr != nil && !isRetryableFetchError(ferr) {
			// Page-level failures must not open the breaker.
			return nil, &nonTripError{err: ferr}
		}
		return res, ferr
	})
	f.metrics.FetchDuration.Observe(time.Since(start).Seconds())
	if err != nil {
		var nte *nonTripError
		if errors.As(err, &nte) {
			return nil, nte.err
		}
		return nil, err
	}

	res := out.(*FetchResult)
	f.metrics.PagesFetched.Inc()

	if f.pages != nil {
		if cerr := f.pages.Set(cache.Key(rawURL), []byte(res.HTML), 0); cerr != nil {
			f.logger.Warn().Err(cerr).Str("url", rawURL).Msg("page cache write failed")
		}
	}

	f.pause(ctx, delay)
	return res, nil
}

// FetchWithRetry retries transient failures with linear backoff.
// Permanent failures return immediately.
func (f *Fetcher) FetchWithRetry(ctx context.Context, rawURL string) (*FetchResult, error) {
	var lastErr error
	for attempt := 1; attempt <= maxFetchAttempts; attempt++ {
		res, err := f.Fetch(ctx, rawURL)
		if err == nil {
			return res, nil
		}
		lastErr = err
		if !isRetryableFetchError(err) {
			f.metrics.FetchErrors.Inc()
			return nil, err
		}
		if attempt < maxFetchAttempts {
			f.logger.Debug().
				Str("url", rawURL).
				Int("attempt", attempt).
				Err(err).
				Msg("retrying fetch")
			fetchSleepFunc(time.Duration(attempt) * time.Second)
		}
	}
	f.metrics.FetchErrors.Inc()
	return nil, fmt.Errorf("fetch failed after %d attempts: %w", maxFetchAttempts, lastErr)
}

func (f *Fetcher) doFetch(ctx context.Context, rawURL string) (*FetchResult, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, rawURL, nil)
	if err != nil {
		return nil, fmt.Errorf("create request: %w", err)
	}
	req.Header.Set("User-Agent", f.userAgent)
	req.Header.Set("Accept", "text/html,application/xhtml+xml")
	req.Header.Set("Accept-Language", "en-US,en;q=0.9")

	resp, err := f.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("fetch: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("unexpected status: %d %s", resp.StatusCode, http.StatusText(resp.StatusCode))
	}

	body, err := io.ReadAll(io.LimitReader(resp.Body, f.maxBytes))
	if err != nil {
		return nil, fmt.Errorf("read body: %w", err)
	}

	return &FetchResult{
		HTML:       string(body),
		FinalURL:   resp.Request.URL.String(),
		StatusCode: resp.StatusCode,
	}, nil
}

// pause sleeps for d unless the context ends first.
func (f *Fetcher) pause(ctx context.Context, d time.Duration) {
	if d <= 0 {
		return
	}
	t := time.NewTimer(d)
	defer t.Stop()
	select {
	case <-ctx.Done():
	case <-t.C:
	}
}

// isRetryableFetchError reports whether another attempt could succeed.
// Rate limiting and server errors are retryable, client errors are not,
// and an open circuit breaker fails fast.
func isRetryableFetchError(err error) bool {
	if err == nil {
		return false
	}
	if errors.Is(err, gobreaker.ErrOpenState) || errors.Is(err, gobreaker.ErrTooManyRequests) {
		return false
	}
	msg := err.Error()
	if strings.Contains(msg, "unexpected status: ") {
		code := statusFromError(msg)
		return code == http.StatusTooManyRequests || code >= 500
	}
	if strings.Contains(msg, "fetch: ") {
		return true
	}
	return false
}

// statusFromError recovers the status code from an unexpected-status
// error message.
func statusFromError(msg string) int {
	rest := msg[strings.Index(msg, "unexpected status: ")+len("unexpected status: "):]
	fields := strings.Fields(rest)
	if len(fields) == 0 {
		return 0
	}
	code, err := strconv.Atoi(fields[0])
	if err != nil {
		return 0
	}
	return code
}

// nonTripError wraps errors that should not trip the circuit breaker.
type nonTripError struct {
	err error
}

func (e *nonTripError) Error() string {
	return e.err.Error()
}
