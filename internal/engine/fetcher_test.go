package engine_test

import (
	"context"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/tartampluch/go-astrology/internal/config"
	"github.com/tartampluch/go-astrology/internal/engine"
)

// TestHTTPFetcher_Fetch_Success verifies a complete successful download flow.
// It checks the User-Agent header and response body integrity.
func TestHTTPFetcher_Fetch_Success(t *testing.T) {
	expectedBody := `<div class="main-horoscope"><p>Stay curious.</p></div>`

	ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, config.UserAgent, r.Header.Get("User-Agent"), "User-Agent mismatch")
		assert.Equal(t, http.MethodGet, r.Method)

		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte(expectedBody))
	}))
	defer ts.Close()

	fetcher := engine.NewHTTPFetcher(time.Second)
	rc, err := fetcher.Fetch(context.Background(), ts.URL)

	require.NoError(t, err)
	defer func() { _ = rc.Close() }()

	body, err := io.ReadAll(rc)
	require.NoError(t, err)
	assert.Equal(t, expectedBody, string(body))
}

// TestHTTPFetcher_Fetch_Errors verifies proper error handling for non-200 statuses.
func TestHTTPFetcher_Fetch_Errors(t *testing.T) {
	tests := []struct {
		name       string
		statusCode int
		wantErr    string
	}{
		{"NotFound", http.StatusNotFound, "404"},
		{"ServerError", http.StatusInternalServerError, "500"},
		{"Redirected", http.StatusNoContent, "204"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
				w.WriteHeader(tt.statusCode)
			}))
			defer ts.Close()

			fetcher := engine.NewHTTPFetcher(time.Second)
			rc, err := fetcher.Fetch(context.Background(), ts.URL)

			assert.Error(t, err)
			assert.Nil(t, rc)
			assert.Contains(t, err.Error(), tt.wantErr)
		})
	}
}

// TestHTTPFetcher_Fetch_Timeout ensures the client respects context deadlines.
func TestHTTPFetcher_Fetch_Timeout(t *testing.T) {
	ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		time.Sleep(200 * time.Millisecond)
		w.WriteHeader(http.StatusOK)
	}))
	defer ts.Close()

	fetcher := engine.NewHTTPFetcher(time.Second)

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Millisecond)
	defer cancel()

	_, err := fetcher.Fetch(ctx, ts.URL)

	require.Error(t, err)
	assert.ErrorIs(t, err, context.DeadlineExceeded, "Should return context deadline exceeded error")
}

// TestHTTPFetcher_Fetch_SizeCap checks that bodies are truncated at the limit.
func TestHTTPFetcher_Fetch_SizeCap(t *testing.T) {
	ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte(strings.Repeat("a", config.MaxHTTPResponseSize+1024)))
	}))
	defer ts.Close()

	rc, err := engine.NewHTTPFetcher(5 * time.Second).Fetch(context.Background(), ts.URL)
	require.NoError(t, err)
	defer func() { _ = rc.Close() }()

	body, err := io.ReadAll(rc)
	require.NoError(t, err)
	assert.Len(t, body, config.MaxHTTPResponseSize)
}

// TestHTTPFetcher_Fetch_InvalidURL ensures malformed URLs are caught early.
func TestHTTPFetcher_Fetch_InvalidURL(t *testing.T) {
	fetcher := engine.NewHTTPFetcher(0)

	_, err := fetcher.Fetch(context.Background(), string([]byte{0x7f}))

	require.Error(t, err)
	assert.Contains(t, err.Error(), config.ErrInvalidURL)
}

// TestHTTPFetcher_Fetch_ProtocolSecurity enforces HTTP/HTTPS only.
func TestHTTPFetcher_Fetch_ProtocolSecurity(t *testing.T) {
	fetcher := engine.NewHTTPFetcher(0)

	_, err := fetcher.Fetch(context.Background(), "ftp://example.com/horoscope.html")

	require.Error(t, err)
	assert.Contains(t, err.Error(), config.ErrProtocol)
}

func TestNewHTTPFetcher_DefaultTimeout(t *testing.T) {
	assert.Equal(t, config.HTTPTimeout, engine.NewHTTPFetcher(0).Client.Timeout)
	assert.Equal(t, 3*time.Second, engine.NewHTTPFetcher(3*time.Second).Client.Timeout)
}
