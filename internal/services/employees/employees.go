package employees

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"net/url"
	"strconv"

	"github.com/UnknownOlympus/athena/internal/apperror"
	"github.com/UnknownOlympus/athena/internal/metrics"
	"github.com/UnknownOlympus/athena/internal/models"
	"github.com/UnknownOlympus/athena/internal/repository"
	"github.com/UnknownOlympus/athena/internal/validation"
)

const (
	DefaultPage  = 1
	DefaultLimit = 10

	resourceName = "Employee"
)

// Staff validates employee payloads and forwards them to the record store.
type Staff struct {
	log     *slog.Logger
	repo    repository.EmployeeRepoIface
	metrics *metrics.Metrics
}

func NewStaff(log *slog.Logger, repo repository.EmployeeRepoIface, metrics *metrics.Metrics) *Staff {
	return &Staff{log: log, repo: repo, metrics: metrics}
}

func (s *Staff) initLogger(opn string) *slog.Logger {
	return s.log.With(
		slog.String("op", opn),
		slog.String("division", "employee"),
	)
}

// ListQuery holds the pagination and filter parameters of a list request.
type ListQuery struct {
	Page       int
	Limit      int
	Department string
	Status     string
}

// ParseListQuery reads page, limit, department and status from query parameters.
// Missing, malformed or non-positive page and limit values fall back to their defaults.
func ParseListQuery(values url.Values) ListQuery {
	return ListQuery{
		Page:       positiveInt(values.Get("page"), DefaultPage),
		Limit:      positiveInt(values.Get("limit"), DefaultLimit),
		Department: values.Get("department"),
		Status:     values.Get("status"),
	}
}

func positiveInt(raw string, fallback int) int {
	value, err := strconv.Atoi(raw)
	if err != nil || value < 1 {
		return fallback
	}

	return value
}

// Filters returns the non-empty equality filters of the query.
func (q ListQuery) Filters() map[string]string {
	filters := make(map[string]string, 2) //nolint:mnd // department and status
	if q.Department != "" {
		filters["department"] = q.Department
	}
	if q.Status != "" {
		filters["status"] = q.Status
	}

	return filters
}

// List returns one page of employees and its pagination block.
func (s *Staff) List(ctx context.Context, query ListQuery) ([]models.Employee, models.Pagination, error) {
	const opn = "Employee.List"
	log := s.initLogger(opn)

	page, err := s.repo.ListEmployees(ctx, query.Filters(), query.Page, query.Limit)
	if err != nil {
		return nil, models.Pagination{}, err
	}

	log.DebugContext(ctx, "Employees listed",
		"page", query.Page, "limit", query.Limit, "count", len(page.Employees), "total", page.TotalCount)

	return page.Employees, models.NewPagination(query.Page, query.Limit, page.TotalCount), nil
}

// Get returns a single employee.
func (s *Staff) Get(ctx context.Context, identifier string) (models.Employee, error) {
	employee, err := s.repo.GetEmployeeByID(ctx, identifier)
	if err != nil {
		return models.Employee{}, notFound(err)
	}

	return employee, nil
}

// Create validates record against the create rules, fills defaults and stores the employee.
// An invalid record never reaches the store.
func (s *Staff) Create(ctx context.Context, record models.Record) (models.Employee, error) {
	const opn = "Employee.Create"
	log := s.initLogger(opn)

	if fieldErrs := validation.Validate(record, validation.CreateRules); len(fieldErrs) > 0 {
		s.rejected(ctx, log, "create", fieldErrs)
		return models.Employee{}, apperror.Validation(fieldErrs)
	}

	employee, err := toEmployee(validation.ApplyDefaults(record, validation.CreateRules))
	if err != nil {
		return models.Employee{}, err
	}

	created, err := s.repo.CreateEmployee(ctx, employee)
	if err != nil {
		return models.Employee{}, err
	}

	log.InfoContext(ctx, "Employee created", "id", created.ID)

	return created, nil
}

// Update validates record against the update rules and merges it into the stored employee.
// Fields absent from record are left untouched.
func (s *Staff) Update(ctx context.Context, identifier string, record models.Record) (models.Employee, error) {
	const opn = "Employee.Update"
	log := s.initLogger(opn)

	if fieldErrs := validation.Validate(record, validation.UpdateRules); len(fieldErrs) > 0 {
		s.rejected(ctx, log, "update", fieldErrs)
		return models.Employee{}, apperror.Validation(fieldErrs)
	}

	updated, err := s.repo.UpdateEmployee(ctx, identifier, record)
	if err != nil {
		return models.Employee{}, notFound(err)
	}

	log.InfoContext(ctx, "Employee updated", "id", updated.ID, "fields", len(record))

	return updated, nil
}

// Delete removes an employee.
func (s *Staff) Delete(ctx context.Context, identifier string) error {
	const opn = "Employee.Delete"
	log := s.initLogger(opn)

	deleted, err := s.repo.DeleteEmployee(ctx, identifier)
	if err != nil {
		return notFound(err)
	}
	if !deleted {
		return apperror.NotFound(resourceName)
	}

	log.InfoContext(ctx, "Employee deleted", "id", identifier)

	return nil
}

func (s *Staff) rejected(ctx context.Context, log *slog.Logger, operation string, fieldErrs []models.FieldError) {
	if s.metrics != nil {
		s.metrics.ValidationFailures.WithLabelValues(operation).Inc()
	}

	log.DebugContext(ctx, "Payload rejected", "violations", len(fieldErrs))
}

// notFound turns the store's not-found sentinel into the classified not-found failure.
func notFound(err error) error {
	if errors.Is(err, repository.ErrNotFound) {
		return apperror.NotFound(resourceName)
	}

	return err
}

func toEmployee(record models.Record) (models.Employee, error) {
	raw, err := json.Marshal(record)
	if err != nil {
		return models.Employee{}, fmt.Errorf("failed to encode employee: %w", err)
	}

	var employee models.Employee
	if err = json.Unmarshal(raw, &employee); err != nil {
		return models.Employee{}, fmt.Errorf("failed to decode employee: %w", err)
	}

	return employee, nil
}
