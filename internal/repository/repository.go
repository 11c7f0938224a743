package repository

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/UnknownOlympus/athena/internal/apperror"
	"github.com/UnknownOlympus/athena/internal/metrics"
	"github.com/UnknownOlympus/athena/internal/models"
)

// ErrNotFound is returned when the record store holds no employee with the requested id.
var ErrNotFound = errors.New("employee not found")

// EmployeeRepoIface represents the interface for interacting with employee data in the record store.
type EmployeeRepoIface interface {
	ListEmployees(ctx context.Context, filters map[string]string, page, limit int) (models.Page, error)
	GetEmployeeByID(ctx context.Context, identifier string) (models.Employee, error)
	CreateEmployee(ctx context.Context, employee models.Employee) (models.Employee, error)
	UpdateEmployee(ctx context.Context, identifier string, patch models.Record) (models.Employee, error)
	// DeleteEmployee reports false when no employee with the identifier exists.
	DeleteEmployee(ctx context.Context, identifier string) (bool, error)
}

// Pinger is implemented by record stores that can report their reachability.
type Pinger interface {
	Ping(ctx context.Context) error
}

// upstreamError converts a store failure into the generic upstream failure reported to clients.
// The document store's response body, if any, goes to the trace only.
func upstreamError(action string, err error) error {
	appErr := apperror.Upstream(fmt.Errorf("Failed to %s: %w", action, err), 0) //nolint:staticcheck // user-facing message

	var se *statusError
	if errors.As(err, &se) && se.body != "" {
		appErr.Detail = "store response: " + se.body
	}

	return appErr
}

func observe(m *metrics.Metrics, driver, operation string) func() {
	startTime := time.Now()

	return func() {
		if m == nil {
			return
		}
		m.StoreQueryDuration.WithLabelValues(driver, operation).Observe(time.Since(startTime).Seconds())
	}
}

var (
	_ EmployeeRepoIface = (*Repository)(nil)
	_ EmployeeRepoIface = (*DocumentStore)(nil)
	_ Pinger            = (*DocumentStore)(nil)
)
