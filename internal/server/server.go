// Package server publishes the reading journal as a subscribable iCalendar feed.
package server

import (
	"bytes"
	"context"
	"crypto/sha256"
	"encoding/hex"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"sync/atomic"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/tartampluch/go-astrology/internal/config"
)

// cacheItem is one published journal snapshot.
type cacheItem struct {
	data    []byte
	etag    string
	modTime time.Time // second precision, as sent in Last-Modified
}

// JournalServer serves the latest journal snapshot on config.RouteJournal.
type JournalServer struct {
	// cache uses atomic.Pointer for lock-free reads. The menu loop writes
	// it after each stored reading while feed clients read it.
	cache atomic.Pointer[cacheItem]
	Port  string
}

// NewJournalServer creates a new instance of the server.
func NewJournalServer(port string) *JournalServer {
	return &JournalServer{
		Port: port,
	}
}

// Handler returns the chi router serving the feed.
func (s *JournalServer) Handler() http.Handler {
	r := chi.NewRouter()
	r.Use(middleware.Recoverer)
	r.MethodNotAllowed(s.handleMethodNotAllowed)
	r.Get(config.RouteJournal, s.handleJournalRequest)
	r.Head(config.RouteJournal, s.handleJournalRequest)
	return r
}

// Start initializes the HTTP server and blocks until the context is cancelled.
func (s *JournalServer) Start(ctx context.Context) error {
	if s.Port == "" {
		return errors.New(config.ErrPortRequired)
	}

	srv := &http.Server{
		Addr:         config.LocalhostBindAddr + config.AddrSeparator + s.Port,
		Handler:      s.Handler(),
		ReadTimeout:  config.ServerReadTimeout,
		WriteTimeout: config.ServerWriteTimeout,
		IdleTimeout:  config.ServerIdleTimeout,
	}

	serverError := make(chan error, config.ChannelBufferSize)

	go func() {
		slog.Info(config.MsgServerListen,
			config.LogKeyComponent, config.CompServer,
			config.LogKeyPort, s.Port,
		)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			serverError <- err
		}
	}()

	select {
	case <-ctx.Done():
		slog.Info(config.MsgServerStop, config.LogKeyComponent, config.CompServer)
		shutdownCtx, cancel := context.WithTimeout(context.Background(), config.ShutdownTimeout)
		defer cancel()

		if err := srv.Shutdown(shutdownCtx); err != nil {
			return fmt.Errorf("%s: %w", config.ErrServerShutdown, err)
		}
		return nil

	case err := <-serverError:
		return fmt.Errorf("%s: %w", config.ErrServerStartup, err)
	}
}

// Update publishes a snapshot written just now. It matches the signature of
// store.Journal.OnUpdate, which fires once per appended reading.
func (s *JournalServer) Update(data []byte) {
	s.Publish(data, time.Now())
}

// Publish replaces the served snapshot. modTime is when the journal last
// changed; a zero value means unknown and is replaced by the current time.
func (s *JournalServer) Publish(data []byte, modTime time.Time) {
	if modTime.IsZero() {
		modTime = time.Now()
	}
	hash := sha256.Sum256(data)
	item := &cacheItem{
		data:    data,
		etag:    fmt.Sprintf(config.FormatETag, hex.EncodeToString(hash[:])),
		modTime: modTime.UTC().Truncate(time.Second),
	}
	s.cache.Store(item)

	slog.Debug(config.MsgCacheUpdated,
		config.LogKeyComponent, config.CompServer,
		config.LogKeySizeBytes, len(data),
		config.LogKeyETag, item.etag,
	)
}

func (s *JournalServer) handleMethodNotAllowed(w http.ResponseWriter, _ *http.Request) {
	w.Header().Set(config.HeaderAllow, config.AllowedMethods)
	http.Error(w, config.HTTPMsgMethodNotAll, http.StatusMethodNotAllowed)
}

// handleJournalRequest serves the current snapshot. Conditional requests,
// HEAD and Range go through http.ServeContent; If-None-Match wins over
// If-Modified-Since. Between two stored readings every poll is a 304.
func (s *JournalServer) handleJournalRequest(w http.ResponseWriter, r *http.Request) {
	item := s.cache.Load()
	if item == nil {
		w.Header().Set(config.HeaderRetryAfter, config.RetryAfterSeconds)
		http.Error(w, config.HTTPMsgInitializing, http.StatusServiceUnavailable)
		return
	}

	h := w.Header()
	h.Set(config.HeaderContentType, config.MimeTextCalendar)
	h.Set(config.HeaderXContentType, config.MimeNoSniff)
	h.Set(config.HeaderCacheControl, config.CacheControlPrivate)
	h.Set(config.HeaderETag, item.etag)

	http.ServeContent(w, r, config.JournalFileName, item.modTime, bytes.NewReader(item.data))
}
