package server

import (
	"context"
	"encoding/json"
	"log/slog"
	"net/http"
	"sort"
	"time"
)

type Pinger interface {
	Ping(ctx context.Context) error
}

// PingFunc adapts a function to the Pinger interface.
type PingFunc func(ctx context.Context) error

func (f PingFunc) Ping(ctx context.Context) error { return f(ctx) }

// HealthChecker reports the reachability of every registered dependency.
type HealthChecker struct {
	deps    map[string]Pinger
	timeout time.Duration
	log     *slog.Logger
}

func NewHealthChecker(deps map[string]Pinger, log *slog.Logger) *HealthChecker {
	checkTO := 5
	return &HealthChecker{
		deps:    deps,
		timeout: time.Duration(checkTO) * time.Second,
		log:     log,
	}
}

func (h *HealthChecker) ServeHTTP(writer http.ResponseWriter, req *http.Request) {
	h.log.DebugContext(req.Context(), "Performing health checks...")

	ctx, cancel := context.WithTimeout(req.Context(), h.timeout)
	defer cancel()

	names := make([]string, 0, len(h.deps))
	for name := range h.deps {
		names = append(names, name)
	}
	sort.Strings(names)

	status := make(map[string]string, len(names))
	overallStatus := http.StatusOK

	for _, name := range names {
		if err := h.deps[name].Ping(ctx); err != nil {
			status[name] = "unavailable"
			overallStatus = http.StatusServiceUnavailable
			h.log.WarnContext(req.Context(), "Health check failed", "dependency", name, "error", err)
			continue
		}
		status[name] = "ok"
	}

	writer.Header().Set("Content-Type", "application/json")
	writer.WriteHeader(overallStatus)
	if err := json.NewEncoder(writer).Encode(status); err != nil {
		h.log.ErrorContext(req.Context(), "Failed to write health check response", "error", err)
	}

	h.log.DebugContext(req.Context(), "Health checks completed", "status", overallStatus)
}
