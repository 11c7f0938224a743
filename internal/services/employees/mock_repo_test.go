package employees_test

import (
	"context"

	"github.com/stretchr/testify/mock"

	"github.com/UnknownOlympus/athena/internal/models"
)

// EmployeeRepoIface is a testify mock of repository.EmployeeRepoIface.
type EmployeeRepoIface struct {
	mock.Mock
}

func (m *EmployeeRepoIface) ListEmployees(
	ctx context.Context,
	filters map[string]string,
	page, limit int,
) (models.Page, error) {
	args := m.Called(ctx, filters, page, limit)
	return args.Get(0).(models.Page), args.Error(1)
}

func (m *EmployeeRepoIface) GetEmployeeByID(ctx context.Context, identifier string) (models.Employee, error) {
	args := m.Called(ctx, identifier)
	return args.Get(0).(models.Employee), args.Error(1)
}

func (m *EmployeeRepoIface) CreateEmployee(ctx context.Context, employee models.Employee) (models.Employee, error) {
	args := m.Called(ctx, employee)
	return args.Get(0).(models.Employee), args.Error(1)
}

func (m *EmployeeRepoIface) UpdateEmployee(
	ctx context.Context,
	identifier string,
	patch models.Record,
) (models.Employee, error) {
	args := m.Called(ctx, identifier, patch)
	return args.Get(0).(models.Employee), args.Error(1)
}

func (m *EmployeeRepoIface) DeleteEmployee(ctx context.Context, identifier string) (bool, error) {
	args := m.Called(ctx, identifier)
	return args.Bool(0), args.Error(1)
}
