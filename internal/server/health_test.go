package server_test

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"os"
	"strings"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/UnknownOlympus/athena/internal/metrics"
	"github.com/UnknownOlympus/athena/internal/server"
)

type MockPinger struct {
	ShouldFail bool
}

func (m *MockPinger) Ping(_ context.Context) error {
	if m.ShouldFail {
		return errors.New("mock ping error")
	}
	return nil
}

func TestHealthChecker(t *testing.T) {
	logger := slog.New(slog.NewTextHandler(os.Stdout, nil))

	t.Run("all systems ok", func(t *testing.T) {
		healthChecker := server.NewHealthChecker(map[string]server.Pinger{
			"database":       &MockPinger{},
			"document_store": &MockPinger{},
		}, logger)

		rr := httptest.NewRecorder()
		healthChecker.ServeHTTP(rr, httptest.NewRequest(http.MethodGet, "/healthz", nil))

		require.Equal(t, http.StatusOK, rr.Code)
		require.JSONEq(t, `{"database":"ok","document_store":"ok"}`, rr.Body.String())
	})

	t.Run("database unavailable", func(t *testing.T) {
		healthChecker := server.NewHealthChecker(map[string]server.Pinger{
			"database":       &MockPinger{ShouldFail: true},
			"document_store": &MockPinger{},
		}, logger)

		rr := httptest.NewRecorder()
		healthChecker.ServeHTTP(rr, httptest.NewRequest(http.MethodGet, "/healthz", nil))

		require.Equal(t, http.StatusServiceUnavailable, rr.Code)
		require.JSONEq(t, `{"database":"unavailable","document_store":"ok"}`, rr.Body.String())
	})

	t.Run("ping func", func(t *testing.T) {
		healthChecker := server.NewHealthChecker(map[string]server.Pinger{
			"document_store": server.PingFunc(func(context.Context) error { return errors.New("refused") }),
		}, logger)

		rr := httptest.NewRecorder()
		healthChecker.ServeHTTP(rr, httptest.NewRequest(http.MethodGet, "/healthz", nil))

		require.Equal(t, http.StatusServiceUnavailable, rr.Code)
		require.JSONEq(t, `{"document_store":"unavailable"}`, rr.Body.String())
	})
}

func TestMonitoringServer(t *testing.T) {
	t.Parallel()

	reg := prometheus.NewRegistry()
	appMetrics := metrics.NewMetrics(reg)
	appMetrics.ErrorsClassified.WithLabelValues("validation").Inc()

	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	srv := server.NewMonitoringServer(reg, server.NewHealthChecker(map[string]server.Pinger{}, logger), 0)
	assert.Equal(t, ":0", srv.Addr)

	ts := httptest.NewServer(srv.Handler)
	defer ts.Close()

	resp, err := http.Get(ts.URL + "/metrics")
	require.NoError(t, err)
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	require.NoError(t, err)
	assert.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Contains(t, string(body), `athena_errors_total{kind="validation"} 1`)

	healthResp, err := http.Get(ts.URL + "/healthz")
	require.NoError(t, err)
	defer healthResp.Body.Close()
	assert.Equal(t, http.StatusOK, healthResp.StatusCode)
}

func TestServe(t *testing.T) {
	t.Parallel()

	logger := slog.New(slog.NewTextHandler(io.Discard, nil))

	t.Run("stops on cancel", func(t *testing.T) {
		t.Parallel()

		ctx, cancel := context.WithCancel(context.Background())
		srv := &http.Server{Addr: "127.0.0.1:0", Handler: http.NotFoundHandler()} //nolint:gosec // test server

		errCh := make(chan error, 1)
		go func() { errCh <- server.Serve(ctx, logger, srv, time.Second) }()

		cancel()
		require.NoError(t, <-errCh)
	})

	t.Run("listen failure", func(t *testing.T) {
		t.Parallel()

		srv := &http.Server{Addr: "invalid-address", Handler: http.NotFoundHandler()} //nolint:gosec // test server

		err := server.Serve(context.Background(), logger, srv, time.Second)

		require.Error(t, err)
		assert.True(t, strings.Contains(err.Error(), "invalid-address") || strings.Contains(err.Error(), "missing port"))
	})
}
