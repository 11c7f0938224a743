package server

import (
	"bytes"
	"context"
	"fmt"
	"log/slog"
	"net/http"
	"runtime/debug"
	"strconv"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/gorilla/mux"
	"github.com/pkg/errors"
	"github.com/ulule/limiter/v3"
	limiterhttp "github.com/ulule/limiter/v3/drivers/middleware/stdlib"

	"github.com/UnknownOlympus/athena/internal/apperror"
)

const requestIDHeader = "X-Request-ID"

type loggerKey struct{}

func loggerFrom(ctx context.Context) *slog.Logger {
	if log, ok := ctx.Value(loggerKey{}).(*slog.Logger); ok {
		return log
	}

	return slog.Default()
}

// statusRecorder remembers the status code written by the wrapped handler.
type statusRecorder struct {
	http.ResponseWriter
	status int
}

func (w *statusRecorder) WriteHeader(code int) {
	if w.status == 0 {
		w.status = code
	}
	w.ResponseWriter.WriteHeader(code)
}

func (w *statusRecorder) Write(b []byte) (int, error) {
	if w.status == 0 {
		w.status = http.StatusOK
	}
	return w.ResponseWriter.Write(b)
}

func (w *statusRecorder) Status() int {
	if w.status == 0 {
		return http.StatusOK
	}
	return w.status
}

// withRequestLogger tags every request with a request id, stores a request scoped logger in
// the context and logs the completed request.
func (a *API) withRequestLogger(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()

		requestID := r.Header.Get(requestIDHeader)
		if requestID == "" {
			requestID = uuid.NewString()
		}
		w.Header().Set(requestIDHeader, requestID)

		log := a.log.With(
			slog.String("request_id", requestID),
			slog.String("method", r.Method),
			slog.String("path", r.URL.RequestURI()),
		)

		rec := &statusRecorder{ResponseWriter: w}
		next.ServeHTTP(rec, r.WithContext(context.WithValue(r.Context(), loggerKey{}, log)))

		log.InfoContext(r.Context(), "Request completed",
			slog.Int("status", rec.Status()),
			slog.Duration("latency", time.Since(start)),
		)
	})
}

// withMetrics records request counts and durations per route template.
func (a *API) withMetrics(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if a.metrics == nil {
			next.ServeHTTP(w, r)
			return
		}

		start := time.Now()
		rec := &statusRecorder{ResponseWriter: w}
		next.ServeHTTP(rec, r)

		route := "unmatched"
		if current := mux.CurrentRoute(r); current != nil {
			if tmpl, err := current.GetPathTemplate(); err == nil {
				route = tmpl
			}
		}

		a.metrics.HTTPRequests.WithLabelValues(r.Method, route, strconv.Itoa(rec.Status())).Inc()
		a.metrics.HTTPDuration.WithLabelValues(r.Method, route).Observe(time.Since(start).Seconds())
	})
}

// contentSecurityPolicy allows same-origin resources, inline styles and data/https images.
const contentSecurityPolicy = "default-src 'self'; style-src 'self' 'unsafe-inline'; script-src 'self'; " +
	"img-src 'self' data: https:; base-uri 'self'; font-src 'self' https: data:; form-action 'self'; " +
	"frame-ancestors 'self'; object-src 'none'; script-src-attr 'none'; upgrade-insecure-requests"

func withSecurityHeaders(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		header := w.Header()
		header.Set("Content-Security-Policy", contentSecurityPolicy)
		header.Set("Cross-Origin-Opener-Policy", "same-origin")
		header.Set("Cross-Origin-Resource-Policy", "same-origin")
		header.Set("Referrer-Policy", "no-referrer")
		header.Set("Strict-Transport-Security", "max-age=15552000; includeSubDomains")
		header.Set("X-Content-Type-Options", "nosniff")
		header.Set("X-DNS-Prefetch-Control", "off")
		header.Set("X-Download-Options", "noopen")
		header.Set("X-Frame-Options", "SAMEORIGIN")
		header.Set("X-Permitted-Cross-Domain-Policies", "none")
		header.Set("X-XSS-Protection", "0")

		next.ServeHTTP(w, r)
	})
}

// withRecovery turns a handler panic into a classified 500. The panic stack travels in the
// error trace and is logged once by writeError.
func (a *API) withRecovery(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		defer func() {
			if p := recover(); p != nil {
				if p == http.ErrAbortHandler {
					panic(p)
				}
				appErr := apperror.Upstream(errors.New(fmt.Sprint(p)), http.StatusInternalServerError)
				appErr.Detail = "panic: " + fmt.Sprint(p) + "\n" + string(debug.Stack())
				a.writeError(w, r, appErr)
			}
		}()

		next.ServeHTTP(w, r)
	})
}

// withBodyLimit caps the request body; reading past the limit fails with *http.MaxBytesError.
func (a *API) withBodyLimit(next http.Handler) http.Handler {
	if a.opts.BodyLimit <= 0 {
		return next
	}

	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.Body != nil {
			r.Body = http.MaxBytesReader(w, r.Body, a.opts.BodyLimit)
		}
		next.ServeHTTP(w, r)
	})
}

// withRateLimit applies the inbound rate limiter when one is configured.
func (a *API) withRateLimit(next http.Handler) http.Handler {
	if a.opts.Limiter == nil {
		return next
	}

	return limiterhttp.NewMiddleware(a.opts.Limiter,
		limiterhttp.WithLimitReachedHandler(func(w http.ResponseWriter, r *http.Request) {
			a.writeError(w, r, apperror.WithStatus(http.StatusTooManyRequests, "Too many requests"))
		}),
		limiterhttp.WithErrorHandler(func(w http.ResponseWriter, r *http.Request, err error) {
			a.writeError(w, r, apperror.Upstream(err, http.StatusInternalServerError))
		}),
	).Handler(next)
}

// NewLimiter builds an in-memory rate limiter from a "<limit>-<period>" rate such as 1000-M.
func NewLimiter(rate string, store limiter.Store) (*limiter.Limiter, error) {
	parsed, err := limiter.NewRateFromFormatted(rate)
	if err != nil {
		return nil, fmt.Errorf("failed to parse rate %q: %w", rate, err)
	}

	return limiter.New(store, parsed), nil
}

// timeoutWriter buffers the response so that it can be discarded if the deadline passes first.
type timeoutWriter struct {
	mu       sync.Mutex
	header   http.Header
	buf      bytes.Buffer
	code     int
	timedOut bool
}

func (tw *timeoutWriter) Header() http.Header { return tw.header }

func (tw *timeoutWriter) Write(b []byte) (int, error) {
	tw.mu.Lock()
	defer tw.mu.Unlock()

	if tw.timedOut {
		return 0, http.ErrHandlerTimeout
	}
	if tw.code == 0 {
		tw.code = http.StatusOK
	}
	return tw.buf.Write(b)
}

func (tw *timeoutWriter) WriteHeader(code int) {
	tw.mu.Lock()
	defer tw.mu.Unlock()

	if tw.timedOut || tw.code != 0 {
		return
	}
	tw.code = code
}

// withTimeout bounds request handling. A handler still running at the deadline has its output
// discarded and the client receives 408 "Request timeout".
func (a *API) withTimeout(next http.Handler) http.Handler {
	if a.opts.RequestTimeout <= 0 {
		return next
	}

	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		ctx, cancel := context.WithTimeout(r.Context(), a.opts.RequestTimeout)
		defer cancel()

		tw := &timeoutWriter{header: make(http.Header)}
		done := make(chan struct{})
		panicChan := make(chan any, 1)

		go func() {
			defer func() {
				if p := recover(); p != nil {
					panicChan <- p
				}
			}()
			next.ServeHTTP(tw, r.WithContext(ctx))
			close(done)
		}()

		select {
		case p := <-panicChan:
			panic(p)
		case <-done:
			tw.mu.Lock()
			defer tw.mu.Unlock()

			// A handler that gave up because the deadline passed still reports a timeout.
			if errors.Is(ctx.Err(), context.DeadlineExceeded) {
				a.writeTimeout(w, r, tw)
				return
			}

			dst := w.Header()
			for key, values := range tw.header {
				dst[key] = values
			}
			if tw.code == 0 {
				tw.code = http.StatusOK
			}
			w.WriteHeader(tw.code)
			_, _ = w.Write(tw.buf.Bytes())
		case <-ctx.Done():
			tw.mu.Lock()
			defer tw.mu.Unlock()

			a.writeTimeout(w, r, tw)
		}
	})
}

// writeTimeout must be called with tw.mu held.
func (a *API) writeTimeout(w http.ResponseWriter, r *http.Request, tw *timeoutWriter) {
	tw.timedOut = true
	loggerFrom(r.Context()).WarnContext(r.Context(), "Request timed out",
		slog.Duration("timeout", a.opts.RequestTimeout))
	writeJSON(r.Context(), w, http.StatusRequestTimeout, envelope{
		Success: false,
		Message: "Request timeout",
	})
}
