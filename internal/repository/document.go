package repository

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"strings"

	"github.com/UnknownOlympus/athena/internal/metrics"
	"github.com/UnknownOlympus/athena/internal/models"
)

const (
	driverDocument = "jsonserver"
	// totalCountHeader carries the number of records matching a paginated list query.
	totalCountHeader = "X-Total-Count"
	maxErrorBody     = 512
)

// DocumentStore forwards employee operations to a json-server style REST document store.
type DocumentStore struct {
	client  *http.Client
	baseURL string
	metrics *metrics.Metrics
}

// NewDocumentStore returns a record store backed by the REST document store at baseURL.
// Employees are kept in its `employees` collection.
func NewDocumentStore(client *http.Client, baseURL string, metrics *metrics.Metrics) *DocumentStore {
	return &DocumentStore{
		client:  client,
		baseURL: strings.TrimRight(baseURL, "/"),
		metrics: metrics,
	}
}

// statusError is a non-2xx answer of the document store. The response body is kept for
// diagnostics only and is not part of the error text.
type statusError struct {
	code int
	body string
}

func (e *statusError) Error() string {
	return fmt.Sprintf("request failed with status code %d", e.code)
}

func isNotFound(err error) bool {
	se, ok := err.(*statusError) //nolint:errorlint // returned unwrapped by do
	return ok && se.code == http.StatusNotFound
}

func (s *DocumentStore) collectionURL() string {
	return s.baseURL + "/employees"
}

func (s *DocumentStore) itemURL(identifier string) string {
	return s.collectionURL() + "/" + url.PathEscape(identifier)
}

// do performs a request and decodes a JSON answer into out, if out is not nil.
func (s *DocumentStore) do(ctx context.Context, method, target string, body, out any) (http.Header, error) {
	var reader io.Reader
	if body != nil {
		payload, err := json.Marshal(body)
		if err != nil {
			return nil, fmt.Errorf("failed to encode request body: %w", err)
		}
		reader = bytes.NewReader(payload)
	}

	req, err := http.NewRequestWithContext(ctx, method, target, reader)
	if err != nil {
		return nil, fmt.Errorf("failed to create new request %s: %w", target, err)
	}
	req.Header.Set("Accept", "application/json")
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}

	resp, err := s.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("failed to request %s: %w", target, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < http.StatusOK || resp.StatusCode >= http.StatusMultipleChoices {
		snippet, _ := io.ReadAll(io.LimitReader(resp.Body, maxErrorBody))
		return nil, &statusError{code: resp.StatusCode, body: strings.TrimSpace(string(snippet))}
	}

	if out != nil {
		if err = json.NewDecoder(resp.Body).Decode(out); err != nil {
			return nil, fmt.Errorf("failed to decode response body: %w", err)
		}
	}

	return resp.Header, nil
}

// ListEmployees returns one page of employees matching filters. The total count comes from
// the X-Total-Count header, falling back to the length of the returned page.
func (s *DocumentStore) ListEmployees(
	ctx context.Context,
	filters map[string]string,
	page, limit int,
) (models.Page, error) {
	defer observe(s.metrics, driverDocument, "list")()

	params := url.Values{}
	for key, value := range filters {
		if value != "" {
			params.Set(key, value)
		}
	}
	params.Set("_page", strconv.Itoa(page))
	params.Set("_limit", strconv.Itoa(limit))

	var employees []models.Employee
	header, err := s.do(ctx, http.MethodGet, s.collectionURL()+"?"+params.Encode(), nil, &employees)
	if err != nil {
		return models.Page{}, upstreamError("fetch employees", err)
	}
	if employees == nil {
		employees = []models.Employee{}
	}

	total := len(employees)
	if raw := header.Get(totalCountHeader); raw != "" {
		if parsed, convErr := strconv.Atoi(raw); convErr == nil {
			total = parsed
		}
	}

	return models.Page{Employees: employees, TotalCount: total}, nil
}

// GetEmployeeByID retrieves an employee by its id.
func (s *DocumentStore) GetEmployeeByID(ctx context.Context, identifier string) (models.Employee, error) {
	defer observe(s.metrics, driverDocument, "get")()

	var employee models.Employee
	if _, err := s.do(ctx, http.MethodGet, s.itemURL(identifier), nil, &employee); err != nil {
		if isNotFound(err) {
			return models.Employee{}, ErrNotFound
		}
		return models.Employee{}, upstreamError("fetch employee", err)
	}

	return employee, nil
}

// CreateEmployee stores a new employee; the document store assigns its id.
func (s *DocumentStore) CreateEmployee(ctx context.Context, employee models.Employee) (models.Employee, error) {
	defer observe(s.metrics, driverDocument, "create")()

	employee.ID = ""

	var created models.Employee
	if _, err := s.do(ctx, http.MethodPost, s.collectionURL(), employee, &created); err != nil {
		return models.Employee{}, upstreamError("create employee", err)
	}

	return created, nil
}

// UpdateEmployee merges patch into the stored employee with a PATCH request.
func (s *DocumentStore) UpdateEmployee(
	ctx context.Context,
	identifier string,
	patch models.Record,
) (models.Employee, error) {
	defer observe(s.metrics, driverDocument, "update")()

	var updated models.Employee
	if _, err := s.do(ctx, http.MethodPatch, s.itemURL(identifier), patch, &updated); err != nil {
		if isNotFound(err) {
			return models.Employee{}, ErrNotFound
		}
		return models.Employee{}, upstreamError("update employee", err)
	}

	return updated, nil
}

// DeleteEmployee removes an employee and reports whether it existed.
func (s *DocumentStore) DeleteEmployee(ctx context.Context, identifier string) (bool, error) {
	defer observe(s.metrics, driverDocument, "delete")()

	if _, err := s.do(ctx, http.MethodDelete, s.itemURL(identifier), nil, nil); err != nil {
		if isNotFound(err) {
			return false, nil
		}
		return false, upstreamError("delete employee", err)
	}

	return true, nil
}

// Ping checks that the document store answers on its employees collection.
func (s *DocumentStore) Ping(ctx context.Context) error {
	params := url.Values{}
	params.Set("_limit", "1")

	if _, err := s.do(ctx, http.MethodGet, s.collectionURL()+"?"+params.Encode(), nil, nil); err != nil {
		return fmt.Errorf("document store unavailable: %w", err)
	}

	return nil
}
