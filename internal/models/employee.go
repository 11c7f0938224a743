package models

import (
	"bytes"
	"encoding/json"
	"fmt"
)

// Department is the organisational unit an employee belongs to.
type Department string

const (
	DepartmentEngineering Department = "Engineering"
	DepartmentMarketing   Department = "Marketing"
	DepartmentSales       Department = "Sales"
	DepartmentHR          Department = "HR"
	DepartmentFinance     Department = "Finance"
	DepartmentOperations  Department = "Operations"
)

// Departments lists every accepted department in the order they are reported to clients.
func Departments() []Department {
	return []Department{
		DepartmentEngineering, DepartmentMarketing, DepartmentSales,
		DepartmentHR, DepartmentFinance, DepartmentOperations,
	}
}

// Status is the employment status of an employee.
type Status string

const (
	StatusActive     Status = "active"
	StatusInactive   Status = "inactive"
	StatusTerminated Status = "terminated"
)

// Statuses lists every accepted employment status.
func Statuses() []Status {
	return []Status{StatusActive, StatusInactive, StatusTerminated}
}

// ID is the opaque identifier assigned by the record store.
// Stores may hand it out as a JSON number or a JSON string; it is always rendered as a string.
type ID string

// UnmarshalJSON accepts both string and numeric identifiers.
func (id *ID) UnmarshalJSON(data []byte) error {
	if bytes.Equal(data, []byte("null")) {
		*id = ""
		return nil
	}

	var str string
	if err := json.Unmarshal(data, &str); err == nil {
		*id = ID(str)
		return nil
	}

	var num json.Number
	if err := json.Unmarshal(data, &num); err != nil {
		return fmt.Errorf("identifier must be a string or a number: %w", err)
	}
	*id = ID(num.String())

	return nil
}

// Employee represents a stored employee record.
type Employee struct {
	ID         ID         `json:"id,omitempty"`
	FirstName  string     `json:"firstName"`
	LastName   string     `json:"lastName"`
	Email      string     `json:"email"`
	Phone      string     `json:"phone"`
	Department Department `json:"department"`
	Position   string     `json:"position"`
	Salary     float64    `json:"salary"`
	HireDate   string     `json:"hireDate"`
	Status     Status     `json:"status"`
}

// Record is an untyped employee payload as received at the API boundary.
type Record map[string]any

// FieldError describes a single violated constraint.
type FieldError struct {
	Field   string `json:"field"`
	Message string `json:"message"`
}

// Pagination describes the page of a list response.
type Pagination struct {
	CurrentPage int  `json:"currentPage"`
	TotalPages  int  `json:"totalPages"`
	TotalCount  int  `json:"totalCount"`
	HasNext     bool `json:"hasNext"`
	HasPrev     bool `json:"hasPrev"`
}

// NewPagination computes the pagination block for the given page, page size and total count.
func NewPagination(page, limit, totalCount int) Pagination {
	totalPages := 0
	if limit > 0 {
		totalPages = (totalCount + limit - 1) / limit
	}

	return Pagination{
		CurrentPage: page,
		TotalPages:  totalPages,
		TotalCount:  totalCount,
		HasNext:     page < totalPages,
		HasPrev:     page > 1,
	}
}

// Page is one page of employees together with the total count of matching records.
type Page struct {
	Employees  []Employee
	TotalCount int
}
