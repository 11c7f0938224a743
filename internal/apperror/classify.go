package apperror

import (
	"errors"
	"fmt"
	"net/http"
	"strings"

	"github.com/UnknownOlympus/athena/internal/models"
)

const (
	msgValidationFailed = "Validation failed"
	msgDuplicateKey     = "Duplicate field value entered"
	msgResourceNotFound = "Resource not found"
	msgServerError      = "Server Error"
)

// Options control how much diagnostic detail a classified response carries.
type Options struct {
	// ExposeStack includes the diagnostic trace in the response body.
	ExposeStack bool
}

// Response is the HTTP rendering of a classified failure.
type Response struct {
	Status  int
	Kind    Kind
	Message string
	Errors  []models.FieldError
	// Trace is the full diagnostic trace; always populated for logging.
	Trace string
	// Stack is Trace when Options.ExposeStack is set, empty otherwise.
	Stack string
}

// Classify maps any error onto a status and message. Errors that are not *Error are
// treated as generic failures.
func Classify(err error, opts Options) Response {
	var appErr *Error
	if !errors.As(err, &appErr) {
		appErr = &Error{Kind: KindGeneric, cause: err}
		if err != nil {
			appErr.Message = err.Error()
		}
	}

	resp := Response{Kind: appErr.Kind, Trace: Trace(err)}

	switch appErr.Kind {
	case KindValidation:
		resp.Status = http.StatusBadRequest
		resp.Message = msgValidationFailed
		resp.Errors = appErr.Fields
	case KindNotFound:
		resp.Status = http.StatusNotFound
		resp.Message = appErr.Resource + " not found"
	case KindDuplicateKey:
		resp.Status = http.StatusBadRequest
		resp.Message = msgDuplicateKey
	case KindCast:
		resp.Status = http.StatusNotFound
		resp.Message = msgResourceNotFound
	case KindAggregateValidation:
		messages := make([]string, 0, len(appErr.SubErrors))
		for _, sub := range appErr.SubErrors {
			messages = append(messages, sub.Message)
		}
		resp.Status = http.StatusBadRequest
		resp.Message = "Validation Error: " + strings.Join(messages, ", ")
	case KindRouteNotFound:
		resp.Status = http.StatusNotFound
		resp.Message = "Not found - " + appErr.Path
	default:
		resp.Kind = KindGeneric
		resp.Status = http.StatusInternalServerError
		if appErr.Status >= http.StatusBadRequest && appErr.Status <= 599 {
			resp.Status = appErr.Status
		}
		resp.Message = appErr.Message
		if resp.Message == "" {
			resp.Message = msgServerError
		}
	}

	if opts.ExposeStack {
		resp.Stack = resp.Trace
	}

	return resp
}

// Trace renders the diagnostic trace of err, including stack frames when err carries them.
func Trace(err error) string {
	if err == nil {
		return ""
	}

	return fmt.Sprintf("%+v", err)
}
