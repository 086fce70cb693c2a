package engine

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/url"
	"time"

	"github.com/tartampluch/go-astrology/internal/config"
)

// PageFetcher retrieves a web page.
// This interface allows for mocking in tests and decoupling from the network layer.
type PageFetcher interface {
	Fetch(ctx context.Context, url string) (io.ReadCloser, error)
}

// HTTPFetcher implements PageFetcher using the standard net/http library.
type HTTPFetcher struct {
	Client *http.Client
}

// NewHTTPFetcher creates an HTTPFetcher. A non-positive timeout falls back
// to config.HTTPTimeout.
func NewHTTPFetcher(timeout time.Duration) *HTTPFetcher {
	if timeout <= 0 {
		timeout = config.HTTPTimeout
	}
	return &HTTPFetcher{
		Client: &http.Client{
			Timeout: timeout,
		},
	}
}

// Fetch performs a GET on targetURL and returns the body when the server
// answers 200. The body is capped at config.MaxHTTPResponseSize.
func (f *HTTPFetcher) Fetch(ctx context.Context, targetURL string) (io.ReadCloser, error) {
	u, err := url.Parse(targetURL)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", config.ErrInvalidURL, err)
	}

	if u.Scheme != config.SchemeHTTP && u.Scheme != config.SchemeHTTPS {
		return nil, fmt.Errorf("%s: %s", config.ErrProtocol, u.Scheme)
	}

	log := slog.With(
		slog.String(config.LogKeyComponent, config.CompFetcher),
		slog.String(config.LogKeyURL, u.Scheme+"://"+u.Host+u.Path),
	)
	log.Debug("Initiating page download")

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, targetURL, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to create request: %w", err)
	}
	req.Header.Set(config.HeaderUserAgent, config.UserAgent)

	resp, err := f.Client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("network error during fetch: %w", err)
	}

	if resp.StatusCode != http.StatusOK {
		_ = resp.Body.Close()
		log.Warn("Server returned error status",
			slog.Int(config.LogKeyStatus, resp.StatusCode),
		)
		return nil, fmt.Errorf("server returned unexpected status: %d %s", resp.StatusCode, resp.Status)
	}

	return &limitedReadCloser{
		Reader: io.LimitReader(resp.Body, config.MaxHTTPResponseSize),
		Closer: resp.Body,
	}, nil
}

// limitedReadCloser pairs a size-limited reader with the original body closer.
type limitedReadCloser struct {
	io.Reader
	io.Closer
}
