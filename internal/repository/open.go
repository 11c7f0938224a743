package repository

import (
	"fmt"
	"log/slog"

	"github.com/UnknownOlympus/athena/internal/client"
	"github.com/UnknownOlympus/athena/internal/config"
	"github.com/UnknownOlympus/athena/internal/metrics"
)

// Store is an opened record store together with the dependencies that back it.
type Store struct {
	Employees EmployeeRepoIface
	// Health lists the dependencies of the store by name for health checking.
	Health map[string]Pinger
	Close  func()
}

// Open connects the record store selected by cfg.Store.Driver.
func Open(cfg *config.Config, log *slog.Logger, metrics *metrics.Metrics) (*Store, error) {
	switch cfg.Store.Driver {
	case config.DriverPostgres:
		dtb, err := NewDatabase(
			cfg.Postgres.Host, cfg.Postgres.Port, cfg.Postgres.User, cfg.Postgres.Password, cfg.Postgres.Dbname)
		if err != nil {
			return nil, fmt.Errorf("failed to connect to DB: %w", err)
		}

		return &Store{
			Employees: NewEmployeeRepository(dtb, metrics),
			Health:    map[string]Pinger{"database": dtb},
			Close:     dtb.Close,
		}, nil
	case config.DriverJSONServer:
		httpClient := client.CreateHTTPClient(log, cfg.Store.Timeout)
		store := NewDocumentStore(httpClient, cfg.Store.URL, metrics)

		return &Store{
			Employees: store,
			Health:    map[string]Pinger{"document_store": store},
			Close:     func() {},
		}, nil
	default:
		return nil, fmt.Errorf("unknown store driver: %q", cfg.Store.Driver)
	}
}
