package mal

import (
	"context"
	"net/http"
	"net/http/httptest"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/keshon/plankboat/internal/metrics"
	"github.com/keshon/plankboat/pkg/cmd"
)

type memoryCache struct {
	mu      sync.Mutex
	entries map[string]*Entry
}

func (m *memoryCache) Get(_ context.Context, kind Kind, q string) (*Entry, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.entries[string(kind)+q], nil
}

func (m *memoryCache) Set(_ context.Context, kind Kind, q string, e *Entry) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.entries == nil {
		m.entries = map[string]*Entry{}
	}
	m.entries[string(kind)+q] = e
	return nil
}

func testClient(url string, opts ...Option) *Client {
	return NewClient(Config{
		Username:    "user",
		Password:    "pass",
		BaseURL:     url,
		RateLimit:   1000,
		MaxAttempts: 2,
	}, opts...)
}

func TestSearch_RequestShape(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/api/anime/search.xml", r.URL.Path)
		assert.Equal(t, "cowboy bebop", r.URL.Query().Get("q"))
		user, pass, ok := r.BasicAuth()
		assert.True(t, ok)
		assert.Equal(t, "user", user)
		assert.Equal(t, "pass", pass)
		w.Write([]byte(animeXML))
	}))
	defer srv.Close()

	e, err := testClient(srv.URL+"/api/").Search(context.Background(), Anime, "cowboy bebop")
	require.NoError(t, err)
	assert.Equal(t, "Cowboy Bebop", e.Title)
}

func TestSearch_NotFound(t *testing.T) {
	for name, handler := range map[string]http.HandlerFunc{
		"no content": func(w http.ResponseWriter, r *http.Request) { w.WriteHeader(http.StatusNoContent) },
		"empty list": func(w http.ResponseWriter, r *http.Request) { w.Write([]byte(`<manga></manga>`)) },
	} {
		t.Run(name, func(t *testing.T) {
			srv := httptest.NewServer(handler)
			defer srv.Close()

			_, err := testClient(srv.URL).Search(context.Background(), Manga, "nothing here")
			assert.Equal(t, cmd.KindArgument, cmd.KindOf(err))
			assert.Equal(t, "invalid arguments to a command: could not find manga: nothing here", err.Error())
		})
	}
}

func TestSearch_RetriesServerErrors(t *testing.T) {
	var calls atomic.Int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if calls.Add(1) == 1 {
			w.WriteHeader(http.StatusBadGateway)
			return
		}
		w.Write([]byte(animeXML))
	}))
	defer srv.Close()

	e, err := testClient(srv.URL).Search(context.Background(), Anime, "bebop")
	require.NoError(t, err)
	assert.Equal(t, "1", e.ID)
	assert.EqualValues(t, 2, calls.Load())
}

func TestSearch_ClientErrorsAreNotRetried(t *testing.T) {
	var calls atomic.Int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		calls.Add(1)
		w.WriteHeader(http.StatusUnauthorized)
	}))
	defer srv.Close()

	_, err := testClient(srv.URL).Search(context.Background(), Anime, "bebop")
	assert.Equal(t, cmd.KindExternal, cmd.KindOf(err))
	assert.Contains(t, err.Error(), "401")
	assert.EqualValues(t, 1, calls.Load())
}

func TestSearch_MalformedIsExternal(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(`<anime><entry><id>1</entry>`))
	}))
	defer srv.Close()

	_, err := testClient(srv.URL).Search(context.Background(), Anime, "bebop")
	assert.Equal(t, cmd.KindExternal, cmd.KindOf(err))
}

func TestSearch_BreakerOpens(t *testing.T) {
	var calls atomic.Int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		calls.Add(1)
		w.WriteHeader(http.StatusForbidden)
	}))
	defer srv.Close()

	c := NewClient(Config{BaseURL: srv.URL, RateLimit: 1000, MaxAttempts: 1, BreakerFailures: 2, BreakerTimeout: time.Minute})
	for i := 0; i < 4; i++ {
		_, err := c.Search(context.Background(), Anime, "x")
		assert.Equal(t, cmd.KindExternal, cmd.KindOf(err))
	}
	assert.EqualValues(t, 2, calls.Load())
	assert.Equal(t, "open", c.BreakerState())
}

func TestSearch_NotFoundDoesNotTripBreaker(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusNoContent)
	}))
	defer srv.Close()

	c := NewClient(Config{BaseURL: srv.URL, RateLimit: 1000, BreakerFailures: 1})
	for i := 0; i < 3; i++ {
		_, _ = c.Search(context.Background(), Anime, "x")
	}
	assert.Equal(t, "closed", c.BreakerState())
}

func TestSearch_Cache(t *testing.T) {
	var calls atomic.Int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		calls.Add(1)
		w.Write([]byte(animeXML))
	}))
	defer srv.Close()

	reg := prometheus.NewRegistry()
	m := metrics.New(reg)
	c := testClient(srv.URL, WithCache(&memoryCache{}), WithMetrics(m))

	for i := 0; i < 3; i++ {
		e, err := c.Search(context.Background(), Anime, "bebop")
		require.NoError(t, err)
		assert.Equal(t, "1", e.ID)
	}
	assert.EqualValues(t, 1, calls.Load())
	assert.Equal(t, 1.0, testutil.ToFloat64(m.MALRequestsTotal.WithLabelValues("anime", "ok")))
	assert.Equal(t, 2.0, testutil.ToFloat64(m.MALRequestsTotal.WithLabelValues("anime", "hit")))
}

func TestRedisCache_Key(t *testing.T) {
	c := NewRedisCache(nil, time.Minute)
	assert.Equal(t, "plankboat:mal:anime:cowboy bebop", c.key(Anime, "  Cowboy   BEBOP "))
}
