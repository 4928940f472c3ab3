// file: jsbridge/pkg/x_api/rest.go

// Package x_api exposes the running isolate and the snapshot store over HTTP.
package x_api

import (
	"context"
	"errors"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/rs/zerolog"

	"github.com/rskv-p/jsbridge/pkg/x_host"
	"github.com/rskv-p/jsbridge/pkg/x_log"
	"github.com/rskv-p/jsbridge/snapshot"
)

// API holds the dependencies of the HTTP handlers.
type API struct {
	Host    *x_host.Host
	Store   snapshot.Store
	MaxBody int64      // POST /send body limit, 0 = unlimited
	Stats   func() any // GET /stats source, optional
	Log     zerolog.Logger
}

// NewRouter builds the chi router.
func NewRouter(a *API) http.Handler {
	r := chi.NewRouter()
	r.Use(middleware.RequestID)
	r.Use(middleware.Recoverer)
	r.Use(requestLogger(a.Log))

	r.Get("/healthz", handleHealth(a))
	r.Get("/exception", handleException(a))
	r.Get("/stats", handleStats(a))
	r.Post("/send", handleSend(a))

	r.Route("/snapshots", func(r chi.Router) {
		r.Get("/", handleList(a))
		r.Get("/{name}", handleGet(a))
		r.Post("/{name}", handleCapture(a))
		r.Delete("/{name}", handleDelete(a))
	})
	return r
}

// Serve listens on addr until ctx ends, then shuts down gracefully.
func Serve(ctx context.Context, addr string, h http.Handler) error {
	srv := &http.Server{
		Addr:              addr,
		Handler:           h,
		ReadHeaderTimeout: 10 * time.Second,
	}

	errc := make(chan error, 1)
	go func() { errc <- srv.ListenAndServe() }()
	x_log.Info().Str("addr", addr).Msg("REST API listening")

	select {
	case err := <-errc:
		return err
	case <-ctx.Done():
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		return err
	}
	if err := <-errc; !errors.Is(err, http.ErrServerClosed) {
		return err
	}
	return nil
}

// requestLogger logs one line per request at debug level.
func requestLogger(l zerolog.Logger) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			ww := middleware.NewWrapResponseWriter(w, r.ProtoMajor)
			start := time.Now()
			next.ServeHTTP(ww, r)
			l.Debug().
				Str("method", r.Method).
				Str("path", r.URL.Path).
				Int("status", ww.Status()).
				Int("bytes", ww.BytesWritten()).
				Dur("elapsed", time.Since(start)).
				Str("request_id", middleware.GetReqID(r.Context())).
				Msg("http request")
		})
	}
}
