package server

import (
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"runtime"
	"time"

	"github.com/gorilla/mux"

	"github.com/UnknownOlympus/athena/internal/apperror"
	"github.com/UnknownOlympus/athena/internal/models"
	"github.com/UnknownOlympus/athena/internal/services/employees"
)

const apiVersion = "1.0.0"

var errTrailingData = errors.New("unexpected data after the JSON object")

func (a *API) listEmployees(w http.ResponseWriter, r *http.Request) {
	list, pagination, err := a.staff.List(r.Context(), employees.ParseListQuery(r.URL.Query()))
	if err != nil {
		a.writeError(w, r, err)
		return
	}

	writeJSON(r.Context(), w, http.StatusOK, envelope{
		Success:    true,
		Data:       list,
		Pagination: &pagination,
		Message:    "Employees retrieved successfully",
	})
}

func (a *API) getEmployee(w http.ResponseWriter, r *http.Request) {
	employee, err := a.staff.Get(r.Context(), mux.Vars(r)["id"])
	if err != nil {
		a.writeError(w, r, err)
		return
	}

	writeJSON(r.Context(), w, http.StatusOK, envelope{
		Success: true,
		Data:    employee,
		Message: "Employee retrieved successfully",
	})
}

func (a *API) createEmployee(w http.ResponseWriter, r *http.Request) {
	record, err := decodeRecord(r)
	if err != nil {
		a.writeError(w, r, err)
		return
	}

	employee, err := a.staff.Create(r.Context(), record)
	if err != nil {
		a.writeError(w, r, err)
		return
	}

	writeJSON(r.Context(), w, http.StatusCreated, envelope{
		Success: true,
		Data:    employee,
		Message: "Employee created successfully",
	})
}

func (a *API) updateEmployee(w http.ResponseWriter, r *http.Request) {
	record, err := decodeRecord(r)
	if err != nil {
		a.writeError(w, r, err)
		return
	}

	employee, err := a.staff.Update(r.Context(), mux.Vars(r)["id"], record)
	if err != nil {
		a.writeError(w, r, err)
		return
	}

	writeJSON(r.Context(), w, http.StatusOK, envelope{
		Success: true,
		Data:    employee,
		Message: "Employee updated successfully",
	})
}

func (a *API) deleteEmployee(w http.ResponseWriter, r *http.Request) {
	if err := a.staff.Delete(r.Context(), mux.Vars(r)["id"]); err != nil {
		a.writeError(w, r, err)
		return
	}

	writeJSON(r.Context(), w, http.StatusOK, envelope{
		Success: true,
		Message: "Employee deleted successfully",
	})
}

// decodeRecord reads the JSON object in the request body. An empty body is an empty record.
func decodeRecord(r *http.Request) (models.Record, error) {
	record := models.Record{}
	if r.Body == nil {
		return record, nil
	}

	dec := json.NewDecoder(r.Body)
	err := dec.Decode(&record)
	if err == nil {
		// The body must hold exactly one JSON value.
		if err = dec.Decode(&struct{}{}); errors.Is(err, io.EOF) {
			err = nil
		} else if err == nil {
			err = errTrailingData
		}
	}

	var maxBytesErr *http.MaxBytesError
	switch {
	case err == nil:
	case errors.Is(err, io.EOF):
	case errors.As(err, &maxBytesErr):
		return nil, apperror.WithStatus(http.StatusRequestEntityTooLarge, "Request entity too large")
	default:
		return nil, apperror.Upstream(errors.New("Invalid JSON payload: "+err.Error()), http.StatusBadRequest)
	}

	if record == nil {
		record = models.Record{}
	}

	return record, nil
}

func (a *API) health(w http.ResponseWriter, r *http.Request) {
	env := a.opts.Env
	if env == "" {
		env = envDevelopment
	}

	writeJSON(r.Context(), w, http.StatusOK, map[string]any{
		"success":     true,
		"message":     "Server is healthy",
		"timestamp":   time.Now().UTC().Format(time.RFC3339Nano),
		"uptime":      time.Since(a.startedAt).Seconds(),
		"environment": env,
	})
}

func (a *API) info(w http.ResponseWriter, r *http.Request) {
	writeJSON(r.Context(), w, http.StatusOK, map[string]any{
		"message":     "Employee REST API",
		"version":     apiVersion,
		"description": "A comprehensive REST API for Employee Management System",
		"documentation": map[string]any{
			"endpoints": map[string]string{
				"GET /":                      "API information and documentation",
				"GET /health":                "Health check endpoint",
				"GET /api/employees":         "Get all employees (supports pagination and filtering)",
				"GET /api/employees/{id}":    "Get employee by ID",
				"POST /api/employees":        "Create new employee",
				"PUT /api/employees/{id}":    "Update employee by ID (supports partial updates)",
				"DELETE /api/employees/{id}": "Delete employee by ID",
			},
			"queryParameters": map[string]string{
				"page":       "Page number for pagination (default: 1)",
				"limit":      "Number of records per page (default: 10)",
				"department": "Filter by department (Engineering, Marketing, Sales, HR, Finance, Operations)",
				"status":     "Filter by status (active, inactive, terminated)",
			},
			"responseFormat": map[string]string{
				"success":    "boolean",
				"data":       "object|array",
				"message":    "string",
				"pagination": "object (for list endpoints)",
				"errors":     "array (for validation errors)",
			},
		},
		"dependencies": map[string]string{
			"documentStore": a.opts.StoreURL,
			"goVersion":     runtime.Version(),
			"platform":      runtime.GOOS + "/" + runtime.GOARCH,
		},
	})
}
