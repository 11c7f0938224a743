package repository

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"sort"
	"strings"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"

	"github.com/UnknownOlympus/athena/internal/apperror"
	"github.com/UnknownOlympus/athena/internal/metrics"
	"github.com/UnknownOlympus/athena/internal/models"
)

const driverPostgres = "postgres"

// PostgreSQL error codes the store maps onto dedicated failure kinds.
const (
	pgUniqueViolation           = "23505"
	pgCheckViolation            = "23514"
	pgInvalidTextRepresentation = "22P02"
)

// Repository keeps employee documents as JSONB rows in PostgreSQL.
type Repository struct {
	db      Database
	metrics *metrics.Metrics
	newID   func() string
}

// NewEmployeeRepository returns the PostgreSQL-backed record store.
func NewEmployeeRepository(db Database, metrics *metrics.Metrics) *Repository {
	return &Repository{db: db, metrics: metrics, newID: uuid.NewString}
}

// whereClause renders equality filters on document keys. Keys are bound as parameters,
// starting at placeholder $1, in sorted order.
func whereClause(filters map[string]string) (string, []any) {
	keys := make([]string, 0, len(filters))
	for key := range filters {
		keys = append(keys, key)
	}
	sort.Strings(keys)

	conds := make([]string, 0, len(keys))
	args := make([]any, 0, 2*len(keys))
	for _, key := range keys {
		conds = append(conds, fmt.Sprintf("doc->>$%d = $%d", len(args)+1, len(args)+2))
		args = append(args, key, filters[key])
	}

	if len(conds) == 0 {
		return "", args
	}

	return " WHERE " + strings.Join(conds, " AND "), args
}

// ListEmployees returns one page of employees matching filters together with the total match count.
func (r *Repository) ListEmployees(
	ctx context.Context,
	filters map[string]string,
	page, limit int,
) (models.Page, error) {
	defer observe(r.metrics, driverPostgres, "list")()

	where, args := whereClause(filters)

	var total int
	if err := r.db.QueryRow(ctx, "SELECT COUNT(*) FROM employees"+where, args...).Scan(&total); err != nil {
		return models.Page{}, upstreamError("fetch employees", err)
	}

	query := fmt.Sprintf(
		"SELECT id::text, doc FROM employees%s ORDER BY created_at, id LIMIT $%d OFFSET $%d",
		where, len(args)+1, len(args)+2,
	)
	rows, err := r.db.Query(ctx, query, append(args, limit, (page-1)*limit)...)
	if err != nil {
		return models.Page{}, upstreamError("fetch employees", err)
	}
	defer rows.Close()

	employees := make([]models.Employee, 0, limit)
	for rows.Next() {
		employee, scanErr := scanEmployee(rows)
		if scanErr != nil {
			return models.Page{}, upstreamError("fetch employees", scanErr)
		}
		employees = append(employees, employee)
	}
	if err = rows.Err(); err != nil {
		return models.Page{}, upstreamError("fetch employees", err)
	}

	return models.Page{Employees: employees, TotalCount: total}, nil
}

// GetEmployeeByID retrieves an employee by its id.
func (r *Repository) GetEmployeeByID(ctx context.Context, identifier string) (models.Employee, error) {
	defer observe(r.metrics, driverPostgres, "get")()

	query := `SELECT id::text, doc FROM employees WHERE id = $1`

	employee, err := scanEmployee(r.db.QueryRow(ctx, query, identifier))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) || isMalformedID(err) {
			return models.Employee{}, ErrNotFound
		}
		return models.Employee{}, storeError("fetch employee", err)
	}

	return employee, nil
}

// CreateEmployee stores a new employee under a freshly generated id.
func (r *Repository) CreateEmployee(ctx context.Context, employee models.Employee) (models.Employee, error) {
	defer observe(r.metrics, driverPostgres, "create")()

	employee.ID = ""
	doc, err := json.Marshal(employee)
	if err != nil {
		return models.Employee{}, upstreamError("create employee", err)
	}

	query := `
		INSERT INTO employees (id, doc)
		VALUES ($1, $2)
		RETURNING id::text, doc;
	`

	created, err := scanEmployee(r.db.QueryRow(ctx, query, r.newID(), doc))
	if err != nil {
		return models.Employee{}, storeError("create employee", err)
	}

	return created, nil
}

// UpdateEmployee merges patch into the stored document. Keys absent from patch are untouched.
func (r *Repository) UpdateEmployee(
	ctx context.Context,
	identifier string,
	patch models.Record,
) (models.Employee, error) {
	defer observe(r.metrics, driverPostgres, "update")()

	doc, err := json.Marshal(patch)
	if err != nil {
		return models.Employee{}, upstreamError("update employee", err)
	}

	query := `
		UPDATE employees
		SET doc = doc || $2::jsonb, updated_at = CURRENT_TIMESTAMP
		WHERE id = $1
		RETURNING id::text, doc;
	`

	updated, err := scanEmployee(r.db.QueryRow(ctx, query, identifier, doc))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) || isMalformedID(err) {
			return models.Employee{}, ErrNotFound
		}
		return models.Employee{}, storeError("update employee", err)
	}

	return updated, nil
}

// DeleteEmployee removes an employee and reports whether it existed.
func (r *Repository) DeleteEmployee(ctx context.Context, identifier string) (bool, error) {
	defer observe(r.metrics, driverPostgres, "delete")()

	tag, err := r.db.Exec(ctx, `DELETE FROM employees WHERE id = $1`, identifier)
	if err != nil {
		if isMalformedID(err) {
			return false, nil
		}
		return false, storeError("delete employee", err)
	}

	return tag.RowsAffected() > 0, nil
}

func scanEmployee(row pgx.Row) (models.Employee, error) {
	var (
		identifier string
		doc        []byte
		employee   models.Employee
	)

	if err := row.Scan(&identifier, &doc); err != nil {
		return models.Employee{}, fmt.Errorf("failed to scan employee: %w", err)
	}
	if err := json.Unmarshal(doc, &employee); err != nil {
		return models.Employee{}, fmt.Errorf("failed to decode employee document %s: %w", identifier, err)
	}
	employee.ID = models.ID(identifier)

	return employee, nil
}

// isMalformedID reports whether PostgreSQL rejected an identifier that is not a UUID.
// No employee can exist under such an id.
func isMalformedID(err error) bool {
	var pgErr *pgconn.PgError
	return errors.As(err, &pgErr) && pgErr.Code == pgInvalidTextRepresentation
}

// storeError maps PostgreSQL failures with a known shape onto their failure kinds and
// everything else onto the generic upstream failure.
func storeError(action string, err error) error {
	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) {
		switch pgErr.Code {
		case pgUniqueViolation:
			return apperror.DuplicateKey(err)
		case pgInvalidTextRepresentation:
			return apperror.Cast(err)
		case pgCheckViolation:
			return apperror.AggregateValidation([]apperror.SubError{
				{Path: pgErr.ConstraintName, Message: pgErr.Message},
			})
		}
	}

	return upstreamError(action, err)
}
