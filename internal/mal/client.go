package mal

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/rs/zerolog"
	"github.com/sony/gobreaker/v2"
	"golang.org/x/time/rate"

	"github.com/keshon/plankboat/internal/metrics"
	"github.com/keshon/plankboat/pkg/cmd"
	"github.com/keshon/plankboat/pkg/retrylimit"
)

// DefaultBaseURL is the XML search API root.
const DefaultBaseURL = "https://myanimelist.net/api"

// Config configures a Client.
type Config struct {
	Username        string
	Password        string
	BaseURL         string
	Timeout         time.Duration
	RateLimit       float64 // requests per second
	MaxAttempts     int
	SynopsisLimit   int
	BreakerFailures uint32
	BreakerTimeout  time.Duration
}

// Client searches MyAnimeList. Safe for concurrent use.
type Client struct {
	cfg     Config
	http    *http.Client
	limiter *retrylimit.AdaptiveLimiter
	breaker *gobreaker.CircuitBreaker[*Entry]
	cache   Cache
	metrics *metrics.Metrics
	log     zerolog.Logger
}

type Option func(*Client)

// WithHTTPClient replaces the HTTP client; its timeout is left untouched.
func WithHTTPClient(hc *http.Client) Option {
	return func(c *Client) { c.http = hc }
}

func WithCache(cache Cache) Option {
	return func(c *Client) {
		if cache != nil {
			c.cache = cache
		}
	}
}

func WithMetrics(m *metrics.Metrics) Option {
	return func(c *Client) { c.metrics = m }
}

func WithLogger(log zerolog.Logger) Option {
	return func(c *Client) { c.log = log }
}

func NewClient(cfg Config, opts ...Option) *Client {
	if cfg.BaseURL == "" {
		cfg.BaseURL = DefaultBaseURL
	}
	cfg.BaseURL = strings.TrimRight(cfg.BaseURL, "/")
	if cfg.Timeout <= 0 {
		cfg.Timeout = 10 * time.Second
	}
	if cfg.RateLimit <= 0 {
		cfg.RateLimit = 2
	}
	if cfg.MaxAttempts <= 0 {
		cfg.MaxAttempts = 1
	}
	if cfg.BreakerFailures == 0 {
		cfg.BreakerFailures = 5
	}
	if cfg.BreakerTimeout <= 0 {
		cfg.BreakerTimeout = 30 * time.Second
	}

	c := &Client{
		cfg:   cfg,
		http:  &http.Client{Timeout: cfg.Timeout},
		cache: NopCache{},
		log:   zerolog.Nop(),
	}
	for _, opt := range opts {
		opt(c)
	}

	r := rate.Limit(cfg.RateLimit)
	c.limiter = retrylimit.NewAdaptiveLimiter(r, r/4, r*2, r/4, 0.5)
	c.breaker = gobreaker.NewCircuitBreaker[*Entry](gobreaker.Settings{
		Name:        "myanimelist",
		MaxRequests: 1,
		Interval:    60 * time.Second,
		Timeout:     cfg.BreakerTimeout,
		ReadyToTrip: func(counts gobreaker.Counts) bool {
			return counts.ConsecutiveFailures >= cfg.BreakerFailures
		},
		IsSuccessful: func(err error) bool {
			return err == nil || errors.Is(err, ErrNotFound)
		},
		OnStateChange: func(name string, from, to gobreaker.State) {
			c.log.Warn().Str("breaker", name).Stringer("from", from).Stringer("to", to).Msg("circuit breaker state changed")
		},
	})
	return c
}

// Search returns the first result for query. A query without results yields
// a KindArgument error reading "could not find <kind>: <query>"; transport,
// status and decoding failures are KindExternal.
func (c *Client) Search(ctx context.Context, kind Kind, query string) (*Entry, error) {
	if cached, err := c.cache.Get(ctx, kind, query); err != nil {
		c.log.Warn().Err(err).Str("kind", string(kind)).Msg("lookup cache read failed")
	} else if cached != nil {
		c.metrics.MALRequest(string(kind), "hit")
		return cached, nil
	}

	entry, err := c.breaker.Execute(func() (*Entry, error) {
		var e *Entry
		rc := retrylimit.DefaultRetryConfig()
		rc.MaxAttempts = c.cfg.MaxAttempts
		rc.Logger = &c.log
		err := retrylimit.WithRetryConfig(ctx, func() error {
			var err error
			e, err = c.fetch(ctx, kind, query)
			return err
		}, c.limiter, rc)
		return e, err
	})

	switch {
	case err == nil:
		c.metrics.MALRequest(string(kind), "ok")
		if serr := c.cache.Set(ctx, kind, query, entry); serr != nil {
			c.log.Warn().Err(serr).Str("kind", string(kind)).Msg("lookup cache write failed")
		}
		return entry, nil
	case errors.Is(err, ErrNotFound):
		c.metrics.MALRequest(string(kind), "not_found")
		return nil, cmd.Argument("could not find %s: %s", kind, query)
	default:
		c.metrics.MALRequest(string(kind), "error")
		return nil, cmd.External(fmt.Errorf("%s search: %w", kind, err))
	}
}

func (c *Client) fetch(ctx context.Context, kind Kind, query string) (*Entry, error) {
	u := fmt.Sprintf("%s/%s/search.xml?%s", c.cfg.BaseURL, kind, url.Values{"q": {query}}.Encode())
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, u, nil)
	if err != nil {
		return nil, retrylimit.Fatal(err)
	}
	req.SetBasicAuth(c.cfg.Username, c.cfg.Password)
	req.Header.Set("Accept", "application/xml")

	resp, err := c.http.Do(req)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	switch {
	case resp.StatusCode == http.StatusNoContent:
		return nil, retrylimit.Fatal(ErrNotFound)
	case resp.StatusCode >= 200 && resp.StatusCode < 300:
	case resp.StatusCode == http.StatusTooManyRequests || resp.StatusCode >= 500:
		return nil, &retrylimit.StatusError{Code: resp.StatusCode, Status: resp.Status}
	default:
		return nil, retrylimit.Fatal(&retrylimit.StatusError{Code: resp.StatusCode, Status: resp.Status})
	}

	entry, err := Parse(resp.Body, c.cfg.SynopsisLimit)
	if err != nil {
		return nil, retrylimit.Fatal(err)
	}
	return entry, nil
}

// BreakerState reports the circuit breaker state for the status endpoint.
func (c *Client) BreakerState() string {
	return c.breaker.State().String()
}
