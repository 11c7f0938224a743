package repository_test

import (
	"io"
	"log/slog"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/UnknownOlympus/athena/internal/config"
	"github.com/UnknownOlympus/athena/internal/repository"
)

func TestOpen(t *testing.T) {
	t.Parallel()

	logger := slog.New(slog.NewTextHandler(io.Discard, nil))

	t.Run("document store", func(t *testing.T) {
		t.Parallel()

		srv := httptest.NewServer(newFakeDocumentStore())
		defer srv.Close()

		cfg := &config.Config{Store: config.StoreConfig{
			Driver: config.DriverJSONServer, URL: srv.URL, Timeout: time.Second,
		}}

		store, err := repository.Open(cfg, logger, nil)
		require.NoError(t, err)
		defer store.Close()

		assert.IsType(t, &repository.DocumentStore{}, store.Employees)
		require.Contains(t, store.Health, "document_store")
		require.NoError(t, store.Health["document_store"].Ping(t.Context()))
	})

	t.Run("unreachable database", func(t *testing.T) {
		t.Parallel()

		cfg := &config.Config{
			Store:    config.StoreConfig{Driver: config.DriverPostgres},
			Postgres: config.PostgresConfig{Host: "127.0.0.1", Port: "1", User: "u", Password: "p", Dbname: "d"},
		}

		_, err := repository.Open(cfg, logger, nil)
		require.ErrorContains(t, err, "failed to connect to DB")
	})

	t.Run("unknown driver", func(t *testing.T) {
		t.Parallel()

		_, err := repository.Open(&config.Config{Store: config.StoreConfig{Driver: "mongo"}}, logger, nil)
		require.EqualError(t, err, `unknown store driver: "mongo"`)
	})
}
