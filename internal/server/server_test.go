package server

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"net/http/httptest"
	"path/filepath"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/tartampluch/go-astrology/internal/config"
	"github.com/tartampluch/go-astrology/internal/store"
)

// -----------------------------------------------------------------------------
// Unit Tests (Handler Logic through the router)
// -----------------------------------------------------------------------------

func serve(srv *JournalServer, req *http.Request) *http.Response {
	w := httptest.NewRecorder()
	srv.Handler().ServeHTTP(w, req)
	return w.Result()
}

// TestHandler_ServingContent verifies that the handler correctly writes
// the standard HTTP headers and body content when data is available.
func TestHandler_ServingContent(t *testing.T) {
	srv := NewJournalServer("0")
	expectedICS := []byte(config.StubVCalendar)
	srv.Update(expectedICS)

	resp := serve(srv, httptest.NewRequest(http.MethodGet, config.RouteJournal, nil))
	defer func() { _ = resp.Body.Close() }()

	assert.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Equal(t, config.MimeTextCalendar, resp.Header.Get(config.HeaderContentType))
	assert.Equal(t, config.MimeNoSniff, resp.Header.Get(config.HeaderXContentType))
	assert.Contains(t, resp.Header.Get(config.HeaderCacheControl), "no-cache")
	assert.NotEmpty(t, resp.Header.Get(config.HeaderETag))

	body, _ := io.ReadAll(resp.Body)
	assert.Equal(t, expectedICS, body)
}

func TestHandler_HeadHasNoBody(t *testing.T) {
	srv := NewJournalServer("0")
	srv.Update([]byte(config.StubVCalendar))

	resp := serve(srv, httptest.NewRequest(http.MethodHead, config.RouteJournal, nil))
	defer func() { _ = resp.Body.Close() }()

	assert.Equal(t, http.StatusOK, resp.StatusCode)
	body, _ := io.ReadAll(resp.Body)
	assert.Empty(t, body)
}

// TestHandler_Caching verifies that the server respects ETag headers (If-None-Match)
// and returns 304 Not Modified.
func TestHandler_Caching(t *testing.T) {
	srv := NewJournalServer("0")
	srv.Update([]byte("DATA_VERSION_1"))

	resp1 := serve(srv, httptest.NewRequest(http.MethodGet, config.RouteJournal, nil))
	etag := resp1.Header.Get(config.HeaderETag)
	_ = resp1.Body.Close()
	require.NotEmpty(t, etag, "Server must provide an ETag")

	req2 := httptest.NewRequest(http.MethodGet, config.RouteJournal, nil)
	req2.Header.Set(config.HeaderIfNoneMatch, etag)
	resp2 := serve(srv, req2)
	defer func() { _ = resp2.Body.Close() }()

	assert.Equal(t, http.StatusNotModified, resp2.StatusCode)
	body, _ := io.ReadAll(resp2.Body)
	assert.Empty(t, body, "Body must be empty on 304 Not Modified")

	// A new snapshot changes the ETag.
	srv.Update([]byte("DATA_VERSION_2"))
	resp3 := serve(srv, req2)
	defer func() { _ = resp3.Body.Close() }()
	assert.Equal(t, http.StatusOK, resp3.StatusCode)
}

func TestHandler_ConditionalRequests(t *testing.T) {
	srv := NewJournalServer("0")
	written := time.Date(2026, 10, 17, 9, 30, 15, 500, time.UTC)
	srv.Publish([]byte(config.StubVCalendar), written)

	resp := serve(srv, httptest.NewRequest(http.MethodGet, config.RouteJournal, nil))
	etag := resp.Header.Get(config.HeaderETag)
	_ = resp.Body.Close()
	assert.Equal(t, written.Format(http.TimeFormat), resp.Header.Get(config.HeaderLastModified))

	tests := []struct {
		name   string
		header string
		value  string
		want   int
	}{
		{"Etag in list", config.HeaderIfNoneMatch, `"stale", ` + etag, http.StatusNotModified},
		{"Any etag", config.HeaderIfNoneMatch, "*", http.StatusNotModified},
		{"Stale etag", config.HeaderIfNoneMatch, `"stale"`, http.StatusOK},
		{"Same time", config.HeaderIfModifiedSince, written.Format(http.TimeFormat), http.StatusNotModified},
		{"Later time", config.HeaderIfModifiedSince, written.Add(time.Hour).Format(http.TimeFormat), http.StatusNotModified},
		{"Earlier time", config.HeaderIfModifiedSince, written.Add(-time.Hour).Format(http.TimeFormat), http.StatusOK},
		{"Garbage time", config.HeaderIfModifiedSince, "yesterday", http.StatusOK},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req := httptest.NewRequest(http.MethodGet, config.RouteJournal, nil)
			req.Header.Set(tt.header, tt.value)
			resp := serve(srv, req)
			defer func() { _ = resp.Body.Close() }()
			assert.Equal(t, tt.want, resp.StatusCode)
		})
	}
}

func TestHandler_Range(t *testing.T) {
	srv := NewJournalServer("0")
	srv.Update([]byte(config.StubVCalendar))

	req := httptest.NewRequest(http.MethodGet, config.RouteJournal, nil)
	req.Header.Set("Range", "bytes=0-14")
	resp := serve(srv, req)
	defer func() { _ = resp.Body.Close() }()

	assert.Equal(t, http.StatusPartialContent, resp.StatusCode)
	body, _ := io.ReadAll(resp.Body)
	assert.Equal(t, config.StubVCalendar[:15], string(body))
}

// TestHandler_MethodNotAllowed ensures strictly GET and HEAD are accepted.
func TestHandler_MethodNotAllowed(t *testing.T) {
	srv := NewJournalServer("0")

	resp := serve(srv, httptest.NewRequest(http.MethodPost, config.RouteJournal, nil))
	defer func() { _ = resp.Body.Close() }()

	assert.Equal(t, http.StatusMethodNotAllowed, resp.StatusCode)
	assert.Equal(t, config.AllowedMethods, resp.Header.Get(config.HeaderAllow))
}

func TestHandler_UnknownRoute(t *testing.T) {
	srv := NewJournalServer("0")
	srv.Update([]byte(config.StubVCalendar))

	resp := serve(srv, httptest.NewRequest(http.MethodGet, "/other.ics", nil))
	defer func() { _ = resp.Body.Close() }()

	assert.Equal(t, http.StatusNotFound, resp.StatusCode)
}

// TestHandler_Initializing verifies the 503 behavior when data is not yet ready.
func TestHandler_Initializing(t *testing.T) {
	srv := NewJournalServer("0")

	resp := serve(srv, httptest.NewRequest(http.MethodGet, config.RouteJournal, nil))
	defer func() { _ = resp.Body.Close() }()

	assert.Equal(t, http.StatusServiceUnavailable, resp.StatusCode)
	assert.Equal(t, config.RetryAfterSeconds, resp.Header.Get(config.HeaderRetryAfter))
}

// TestHandler_FollowsJournal wires the journal update hook to the server.
func TestHandler_FollowsJournal(t *testing.T) {
	srv := NewJournalServer("0")
	j, err := store.OpenJournal(filepath.Join(t.TempDir(), "journal.ics"))
	require.NoError(t, err)
	j.OnUpdate = srv.Update

	require.NoError(t, j.Append(context.Background(), store.Row{
		Sheet:  store.SheetHoroscope,
		Fields: []string{"Gerry", "20/06/1990", "Cancer", "Daily", "A good day."},
	}))

	resp := serve(srv, httptest.NewRequest(http.MethodGet, config.RouteJournal, nil))
	defer func() { _ = resp.Body.Close() }()

	require.Equal(t, http.StatusOK, resp.StatusCode)
	body, _ := io.ReadAll(resp.Body)
	assert.True(t, strings.Contains(string(body), "SUMMARY:Horoscope: Gerry"))
}

// -----------------------------------------------------------------------------
// Concurrency Tests (Race Detection)
// -----------------------------------------------------------------------------

// TestServer_RaceCondition validates the thread-safety of atomic.Pointer usage.
// Run this with `go test -race`.
func TestServer_RaceCondition(t *testing.T) {
	srv := NewJournalServer("0")
	handler := srv.Handler()
	var wg sync.WaitGroup

	end := time.Now().Add(300 * time.Millisecond)

	for w := 0; w < 3; w++ {
		wg.Add(1)
		go func(id int) {
			defer wg.Done()
			i := 0
			for time.Now().Before(end) {
				srv.Update([]byte(fmt.Sprintf("VERSION:%d-%d", id, i)))
				i++
				time.Sleep(1 * time.Microsecond)
			}
		}(w)
	}

	for r := 0; r < 10; r++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for time.Now().Before(end) {
				w := httptest.NewRecorder()
				handler.ServeHTTP(w, httptest.NewRequest(http.MethodGet, config.RouteJournal, nil))

				if code := w.Code; code != http.StatusOK && code != http.StatusServiceUnavailable {
					t.Errorf("Unexpected status code during race test: %d", code)
				}
			}
		}()
	}

	wg.Wait()
}

// -----------------------------------------------------------------------------
// Integration Tests (Real TCP Lifecycle)
// -----------------------------------------------------------------------------

// TestServer_Lifecycle spins up the actual TCP listener to verify network binding
// and graceful shutdown logic.
func TestServer_Lifecycle(t *testing.T) {
	const port = "18099"

	srv := NewJournalServer(port)
	ctx, cancel := context.WithCancel(context.Background())
	errChan := make(chan error, 1)

	go func() {
		errChan <- srv.Start(ctx)
	}()

	url := "http://127.0.0.1:" + port + config.RouteJournal

	require.Eventually(t, func() bool {
		resp, err := http.Get(url)
		if err != nil {
			return false
		}
		_ = resp.Body.Close()
		return true
	}, 2*time.Second, 50*time.Millisecond, "Server failed to bind/listen in time")

	resp, err := http.Get(url)
	require.NoError(t, err)
	assert.Equal(t, http.StatusServiceUnavailable, resp.StatusCode)
	_ = resp.Body.Close()

	srv.Update([]byte(config.StubVCalendar))

	resp, err = http.Get(url)
	require.NoError(t, err)
	defer func() { _ = resp.Body.Close() }()

	assert.Equal(t, http.StatusOK, resp.StatusCode)
	body, err := io.ReadAll(resp.Body)
	assert.NoError(t, err)
	assert.Contains(t, string(body), "BEGIN:VCALENDAR")

	cancel()

	select {
	case err := <-errChan:
		assert.NoError(t, err, "Server should shutdown gracefully without error")
	case <-time.After(5 * time.Second):
		t.Fatal("Server shutdown timed out")
	}
}

func TestServer_PortRequired(t *testing.T) {
	err := NewJournalServer("").Start(context.Background())
	assert.EqualError(t, err, config.ErrPortRequired)
}
