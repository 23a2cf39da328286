package nse

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/url"
	"strconv"
	"sync"
	"time"

	"github.com/go-resty/resty/v2"
	"github.com/zeromicro/go-zero/core/logx"
	"golang.org/x/sync/semaphore"
	"golang.org/x/time/rate"
)

const (
	expiryPath = "/api/historicalOR/meta/foCPV/expireDts"
	quotesPath = "/api/historicalOR/foCPV"

	instrumentOptions = "OPTSTK"
)

// Client issues JSON GET requests against the NSE historical API. The
// concurrency cap is shared by every caller of one Client; build a single
// Client per process.
type Client struct {
	cfg       *Config
	policy    RetryPolicy
	transport http.RoundTripper

	slots   *semaphore.Weighted
	limiter *rate.Limiter

	mu   sync.RWMutex
	http *resty.Client
}

// Option configures a new Client.
type Option func(*Client)

// WithRetryPolicy overrides the retry policy derived from config.
func WithRetryPolicy(p RetryPolicy) Option {
	return func(c *Client) {
		c.policy = p
	}
}

// WithTransport injects a custom round tripper (tests, recorders).
func WithTransport(rt http.RoundTripper) Option {
	return func(c *Client) {
		if rt != nil {
			c.transport = rt
		}
	}
}

// NewClient constructs a closed client; call Open before issuing requests.
func NewClient(cfg *Config, opts ...Option) *Client {
	if cfg == nil {
		cfg = DefaultConfig()
	}
	c := &Client{
		cfg:    cfg,
		policy: cfg.RetryPolicy(),
		slots:  semaphore.NewWeighted(int64(max(cfg.MaxConcurrency, 1))),
	}
	if cfg.RequestsPerSecond > 0 {
		c.limiter = rate.NewLimiter(rate.Limit(cfg.RequestsPerSecond), 1)
	}
	for _, opt := range opts {
		opt(c)
	}
	c.policy = c.policy.withDefaults()
	return c
}

// Open builds the HTTP session and, when a prime URL is configured, visits it
// once so the upstream cookies are present on later API calls.
func (c *Client) Open(ctx context.Context) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.http != nil {
		return nil
	}

	session := resty.New().
		SetBaseURL(c.cfg.BaseURL).
		SetTimeout(c.cfg.Timeout).
		SetHeaders(c.cfg.Headers).
		SetLogger(restyLogger{})
	if c.transport != nil {
		session.SetTransport(c.transport)
	}

	if c.cfg.PrimeURL != "" {
		resp, err := session.R().SetContext(ctx).Get(c.cfg.PrimeURL)
		switch {
		case err != nil:
			logx.WithContext(ctx).Slowf("nse: prime session %s failed: %v", c.cfg.PrimeURL, err)
		case resp.IsError():
			logx.WithContext(ctx).Slowf("nse: prime session %s returned HTTP %d", c.cfg.PrimeURL, resp.StatusCode())
		default:
			logx.WithContext(ctx).Infof("nse: session primed, %d cookies", len(resp.Cookies()))
		}
	}

	c.http = session
	return nil
}

// Close releases pooled connections. It is safe to call more than once.
func (c *Client) Close() error {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.http == nil {
		return nil
	}
	c.http.GetClient().CloseIdleConnections()
	c.http = nil
	return nil
}

func (c *Client) session() (*resty.Client, error) {
	c.mu.RLock()
	defer c.mu.RUnlock()
	if c.http == nil {
		return nil, ErrClientClosed
	}
	return c.http, nil
}

// FetchJSON GETs path with query and decodes a 2xx body into out.
// A non-2xx status is "no data": found is false and err is nil.
// Transient failures are retried by the policy; once exhausted a
// *TransportError is returned. A malformed body yields *DecodeError.
func (c *Client) FetchJSON(ctx context.Context, path string, query url.Values, out any) (bool, error) {
	session, err := c.session()
	if err != nil {
		return false, err
	}

	var (
		found bool
		start = time.Now()
	)
	err = c.policy.Do(ctx, func(attempt int) error {
		ok, err := c.attempt(ctx, session, path, query, out)
		found = ok
		return err
	}, func(err error, wait time.Duration) {
		metricRetries.Inc(path)
		logx.WithContext(ctx).Slowf("nse: GET %s failed, retrying in %s: %v", path, wait.Round(time.Millisecond), err)
	})
	metricDuration.Observe(time.Since(start).Milliseconds(), path)

	switch {
	case err == nil && found:
		metricRequests.Inc(path, outcomeOK)
		return true, nil
	case err == nil:
		metricRequests.Inc(path, outcomeNoData)
		return false, nil
	}

	var decodeErr *DecodeError
	if errors.As(err, &decodeErr) {
		metricRequests.Inc(path, outcomeDecode)
	} else {
		metricRequests.Inc(path, outcomeTransport)
	}
	logx.WithContext(ctx).Errorf("nse: GET %s?%s: %v", path, query.Encode(), err)
	return false, err
}

// attempt performs one request while holding a concurrency slot.
func (c *Client) attempt(ctx context.Context, session *resty.Client, path string, query url.Values, out any) (bool, error) {
	if c.limiter != nil {
		if err := c.limiter.Wait(ctx); err != nil {
			return false, err
		}
	}
	if err := c.slots.Acquire(ctx, 1); err != nil {
		return false, err
	}
	defer c.slots.Release(1)

	resp, err := session.R().
		SetContext(ctx).
		SetQueryParamsFromValues(query).
		Get(path)
	if err != nil {
		return false, err
	}
	if !resp.IsSuccess() {
		logx.WithContext(ctx).Slowf("nse: HTTP %d for %s", resp.StatusCode(), resp.Request.URL)
		return false, nil
	}
	if out == nil {
		return true, nil
	}
	if err := json.Unmarshal(resp.Body(), out); err != nil {
		return false, &DecodeError{URL: resp.Request.URL, Err: err}
	}
	return true, nil
}

// ExpiryDates lists contract expiries (DD-Mon-YYYY strings) for a symbol and year.
func (c *Client) ExpiryDates(ctx context.Context, symbol string, year int) ([]string, error) {
	query := url.Values{}
	query.Set("instrument", instrumentOptions)
	query.Set("symbol", symbol)
	query.Set("year", strconv.Itoa(year))

	var payload ExpiryResponse
	found, err := c.FetchJSON(ctx, expiryPath, query, &payload)
	if err != nil {
		return nil, fmt.Errorf("expiry dates %s/%d: %w", symbol, year, err)
	}
	if !found {
		return nil, nil
	}
	return payload.ExpiryDates, nil
}

// Quotes returns the rows for one query slice. Absent data is an empty slice.
func (c *Client) Quotes(ctx context.Context, q QuoteQuery) ([]QuoteRow, error) {
	query := url.Values{}
	query.Set("from", q.From.Format(QueryDateLayout))
	query.Set("to", q.To.Format(QueryDateLayout))
	query.Set("instrumentType", instrumentOptions)
	query.Set("symbol", q.Symbol)
	query.Set("year", strconv.Itoa(q.Year))
	query.Set("expiryDate", q.Expiry)
	query.Set("optionType", q.OptionType)
	if q.Strike != "" {
		query.Set("strikePrice", q.Strike)
	}

	var payload QuoteResponse
	found, err := c.FetchJSON(ctx, quotesPath, query, &payload)
	if err != nil {
		return nil, fmt.Errorf("quotes %s %s %s %s: %w", q.Symbol, q.Expiry, q.OptionType, q.Strike, err)
	}
	if !found {
		return nil, nil
	}
	return payload.Data, nil
}

// restyLogger routes resty's internal logging through logx.
type restyLogger struct{}

func (restyLogger) Errorf(format string, v ...any) { logx.Errorf("resty: "+format, v...) }
func (restyLogger) Warnf(format string, v ...any)  { logx.Slowf("resty: "+format, v...) }
func (restyLogger) Debugf(format string, v ...any) { logx.Debugf("resty: "+format, v...) }
