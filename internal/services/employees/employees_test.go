package employees_test

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"net/url"
	"testing"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"github.com/UnknownOlympus/athena/internal/apperror"
	"github.com/UnknownOlympus/athena/internal/metrics"
	"github.com/UnknownOlympus/athena/internal/models"
	"github.com/UnknownOlympus/athena/internal/repository"
	"github.com/UnknownOlympus/athena/internal/services/employees"
)

func newStaff(t *testing.T) (*employees.Staff, *EmployeeRepoIface, *metrics.Metrics) {
	t.Helper()

	repo := new(EmployeeRepoIface)
	t.Cleanup(func() { repo.AssertExpectations(t) })

	appMetrics := metrics.NewMetrics(prometheus.NewRegistry())
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))

	return employees.NewStaff(logger, repo, appMetrics), repo, appMetrics
}

func validRecord() models.Record {
	return models.Record{
		"firstName":  "John",
		"lastName":   "Doe",
		"email":      "john.doe@example.com",
		"phone":      "+15551234567",
		"department": "Engineering",
		"position":   "Software Engineer",
		"salary":     75000.0,
		"hireDate":   "2023-01-15",
	}
}

func storedEmployee() models.Employee {
	return models.Employee{
		ID:         "1",
		FirstName:  "John",
		LastName:   "Doe",
		Email:      "john.doe@example.com",
		Phone:      "+15551234567",
		Department: models.DepartmentEngineering,
		Position:   "Software Engineer",
		Salary:     75000,
		HireDate:   "2023-01-15",
		Status:     models.StatusActive,
	}
}

func classify(err error) apperror.Response {
	return apperror.Classify(err, apperror.Options{})
}

func TestParseListQuery(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name  string
		query string
		want  employees.ListQuery
	}{
		{"defaults", "", employees.ListQuery{Page: 1, Limit: 10}},
		{"explicit", "page=3&limit=25", employees.ListQuery{Page: 3, Limit: 25}},
		{"malformed", "page=abc&limit=1.5", employees.ListQuery{Page: 1, Limit: 10}},
		{"non-positive", "page=0&limit=-4", employees.ListQuery{Page: 1, Limit: 10}},
		{
			"filters",
			"department=Engineering&status=active",
			employees.ListQuery{Page: 1, Limit: 10, Department: "Engineering", Status: "active"},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			values, err := url.ParseQuery(tt.query)
			require.NoError(t, err)
			assert.Equal(t, tt.want, employees.ParseListQuery(values))
		})
	}
}

func TestListQuery_Filters(t *testing.T) {
	t.Parallel()

	assert.Empty(t, employees.ListQuery{}.Filters())
	assert.Equal(t,
		map[string]string{"department": "Sales", "status": "inactive"},
		employees.ListQuery{Department: "Sales", Status: "inactive"}.Filters(),
	)
}

func TestStaff_List(t *testing.T) {
	t.Parallel()

	t.Run("pagination", func(t *testing.T) {
		t.Parallel()
		staff, repo, _ := newStaff(t)

		ctx := context.Background()
		repo.On("ListEmployees", ctx, map[string]string{"department": "Engineering"}, 2, 5).
			Return(models.Page{Employees: []models.Employee{storedEmployee()}, TotalCount: 11}, nil)

		list, pagination, err := staff.List(ctx, employees.ListQuery{Page: 2, Limit: 5, Department: "Engineering"})

		require.NoError(t, err)
		assert.Len(t, list, 1)
		assert.Equal(t, models.Pagination{
			CurrentPage: 2, TotalPages: 3, TotalCount: 11, HasNext: true, HasPrev: true,
		}, pagination)
	})

	t.Run("upstream failure", func(t *testing.T) {
		t.Parallel()
		staff, repo, _ := newStaff(t)

		ctx := context.Background()
		upstream := apperror.Upstream(errors.New("Failed to fetch employees: connection refused"), 0)
		repo.On("ListEmployees", ctx, map[string]string{}, 1, 10).Return(models.Page{}, upstream)

		_, _, err := staff.List(ctx, employees.ListQuery{Page: 1, Limit: 10})

		resp := classify(err)
		assert.Equal(t, 500, resp.Status)
		assert.Equal(t, "Failed to fetch employees: connection refused", resp.Message)
	})
}

func TestStaff_Get(t *testing.T) {
	t.Parallel()

	t.Run("found", func(t *testing.T) {
		t.Parallel()
		staff, repo, _ := newStaff(t)

		ctx := context.Background()
		repo.On("GetEmployeeByID", ctx, "1").Return(storedEmployee(), nil)

		employee, err := staff.Get(ctx, "1")

		require.NoError(t, err)
		assert.Equal(t, storedEmployee(), employee)
	})

	t.Run("not found", func(t *testing.T) {
		t.Parallel()
		staff, repo, _ := newStaff(t)

		ctx := context.Background()
		repo.On("GetEmployeeByID", ctx, "999").Return(models.Employee{}, repository.ErrNotFound)

		_, err := staff.Get(ctx, "999")

		resp := classify(err)
		assert.Equal(t, 404, resp.Status)
		assert.Equal(t, "Employee not found", resp.Message)
	})
}

func TestStaff_Create(t *testing.T) {
	t.Parallel()

	t.Run("applies defaults and stores", func(t *testing.T) {
		t.Parallel()
		staff, repo, _ := newStaff(t)

		ctx := context.Background()
		want := storedEmployee()
		want.ID = ""
		repo.On("CreateEmployee", ctx, want).Return(storedEmployee(), nil)

		created, err := staff.Create(ctx, validRecord())

		require.NoError(t, err)
		assert.Equal(t, models.ID("1"), created.ID)
		assert.Equal(t, models.StatusActive, created.Status)
	})

	t.Run("invalid payload never reaches the store", func(t *testing.T) {
		t.Parallel()
		staff, repo, appMetrics := newStaff(t)

		record := models.Record{"firstName": "J", "email": "bad", "salary": -1.0, "department": "X"}

		_, err := staff.Create(context.Background(), record)

		resp := classify(err)
		assert.Equal(t, 400, resp.Status)
		assert.Equal(t, "Validation failed", resp.Message)
		require.Len(t, resp.Errors, 8)
		repo.AssertNotCalled(t, "CreateEmployee", mock.Anything, mock.Anything)
		assert.InDelta(t, 1.0, testutil.ToFloat64(appMetrics.ValidationFailures.WithLabelValues("create")), 0)
	})

	t.Run("missing fields", func(t *testing.T) {
		t.Parallel()
		staff, _, _ := newStaff(t)

		record := validRecord()
		delete(record, "email")

		_, err := staff.Create(context.Background(), record)

		resp := classify(err)
		require.Len(t, resp.Errors, 1)
		assert.Equal(t, models.FieldError{Field: "email", Message: "Email is required"}, resp.Errors[0])
	})

	t.Run("store failure", func(t *testing.T) {
		t.Parallel()
		staff, repo, _ := newStaff(t)

		repo.On("CreateEmployee", mock.Anything, mock.Anything).
			Return(models.Employee{}, apperror.Upstream(errors.New("Failed to create employee: timeout"), 0))

		_, err := staff.Create(context.Background(), validRecord())

		assert.Equal(t, 500, classify(err).Status)
	})
}

func TestStaff_Update(t *testing.T) {
	t.Parallel()

	t.Run("partial", func(t *testing.T) {
		t.Parallel()
		staff, repo, _ := newStaff(t)

		ctx := context.Background()
		patch := models.Record{"position": "Staff Engineer"}
		updated := storedEmployee()
		updated.Position = "Staff Engineer"
		repo.On("UpdateEmployee", ctx, "1", patch).Return(updated, nil)

		employee, err := staff.Update(ctx, "1", patch)

		require.NoError(t, err)
		assert.Equal(t, "Staff Engineer", employee.Position)
		assert.Equal(t, "john.doe@example.com", employee.Email)
	})

	t.Run("empty payload", func(t *testing.T) {
		t.Parallel()
		staff, repo, _ := newStaff(t)

		ctx := context.Background()
		repo.On("UpdateEmployee", ctx, "1", models.Record{}).Return(storedEmployee(), nil)

		employee, err := staff.Update(ctx, "1", models.Record{})

		require.NoError(t, err)
		assert.Equal(t, storedEmployee(), employee)
	})

	t.Run("invalid field", func(t *testing.T) {
		t.Parallel()
		staff, _, appMetrics := newStaff(t)

		_, err := staff.Update(context.Background(), "1", models.Record{"salary": 0.0})

		resp := classify(err)
		require.Len(t, resp.Errors, 1)
		assert.Equal(t, "salary", resp.Errors[0].Field)
		assert.InDelta(t, 1.0, testutil.ToFloat64(appMetrics.ValidationFailures.WithLabelValues("update")), 0)
	})

	t.Run("id is immutable", func(t *testing.T) {
		t.Parallel()
		staff, _, _ := newStaff(t)

		_, err := staff.Update(context.Background(), "1", models.Record{"id": "2"})

		resp := classify(err)
		require.Len(t, resp.Errors, 1)
		assert.Equal(t, models.FieldError{Field: "id", Message: "id is not allowed"}, resp.Errors[0])
	})

	t.Run("not found", func(t *testing.T) {
		t.Parallel()
		staff, repo, _ := newStaff(t)

		repo.On("UpdateEmployee", mock.Anything, "999", mock.Anything).
			Return(models.Employee{}, repository.ErrNotFound)

		_, err := staff.Update(context.Background(), "999", models.Record{"position": "Lead"})

		assert.Equal(t, "Employee not found", classify(err).Message)
	})
}

func TestStaff_Delete(t *testing.T) {
	t.Parallel()

	t.Run("deleted", func(t *testing.T) {
		t.Parallel()
		staff, repo, _ := newStaff(t)

		repo.On("DeleteEmployee", mock.Anything, "1").Return(true, nil)

		require.NoError(t, staff.Delete(context.Background(), "1"))
	})

	t.Run("missing", func(t *testing.T) {
		t.Parallel()
		staff, repo, _ := newStaff(t)

		repo.On("DeleteEmployee", mock.Anything, "999").Return(false, nil)

		err := staff.Delete(context.Background(), "999")

		resp := classify(err)
		assert.Equal(t, 404, resp.Status)
		assert.Equal(t, "Employee not found", resp.Message)
	})

	t.Run("store failure", func(t *testing.T) {
		t.Parallel()
		staff, repo, _ := newStaff(t)

		repo.On("DeleteEmployee", mock.Anything, "1").Return(false, assert.AnError)

		err := staff.Delete(context.Background(), "1")

		require.ErrorIs(t, err, assert.AnError)
	})
}
