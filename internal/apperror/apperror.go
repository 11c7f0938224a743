// Package apperror defines the failure kinds the API can report and maps them onto
// HTTP responses.
package apperror

import (
	"fmt"

	"github.com/pkg/errors"

	"github.com/UnknownOlympus/athena/internal/models"
)

// Kind discriminates the failure shapes handled by Classify.
type Kind int

const (
	// KindGeneric is any failure without a more specific shape, including upstream store failures.
	KindGeneric Kind = iota
	KindValidation
	KindNotFound
	KindDuplicateKey
	KindCast
	KindAggregateValidation
	KindRouteNotFound
)

func (k Kind) String() string {
	switch k {
	case KindGeneric:
		return "generic"
	case KindValidation:
		return "validation"
	case KindNotFound:
		return "not_found"
	case KindDuplicateKey:
		return "duplicate_key"
	case KindCast:
		return "cast"
	case KindAggregateValidation:
		return "aggregate_validation"
	case KindRouteNotFound:
		return "route_not_found"
	default:
		return fmt.Sprintf("kind(%d)", int(k))
	}
}

// SubError is one entry of an aggregate validation failure reported by the record store.
type SubError struct {
	Path    string
	Message string
}

// Error is a classified failure. Only the fields relevant to its Kind are set.
type Error struct {
	Kind Kind
	// Status is the HTTP status the failure declares for itself; 0 means none.
	Status    int
	Message   string
	Resource  string
	Path      string
	Fields    []models.FieldError
	SubErrors []SubError
	// Detail is diagnostic text that appears only in the %+v trace, never in the message.
	Detail string

	cause error
}

func (e *Error) Error() string {
	if e.Message != "" {
		return e.Message
	}
	if e.cause != nil {
		return e.cause.Error()
	}

	return e.Kind.String()
}

func (e *Error) Unwrap() error {
	return e.cause
}

// Format renders the stack trace of the underlying cause with %+v.
func (e *Error) Format(s fmt.State, verb rune) {
	switch verb {
	case 'v':
		if s.Flag('+') && e.cause != nil {
			fmt.Fprintf(s, "%s: %+v", e.Kind, e.cause)
			if e.Detail != "" {
				fmt.Fprintf(s, "\ndetail: %s", e.Detail)
			}
			return
		}
		fmt.Fprint(s, e.Error())
	case 's':
		fmt.Fprint(s, e.Error())
	case 'q':
		fmt.Fprintf(s, "%q", e.Error())
	}
}

// Validation reports request fields that violate their rules.
func Validation(fields []models.FieldError) *Error {
	return &Error{
		Kind:   KindValidation,
		Fields: fields,
		cause:  errors.Errorf("validation failed on %d field(s)", len(fields)),
	}
}

// NotFound reports that the named resource does not exist.
func NotFound(resource string) *Error {
	return &Error{
		Kind:     KindNotFound,
		Resource: resource,
		cause:    errors.Errorf("%s not found", resource),
	}
}

// RouteNotFound reports a request for a path no route serves.
func RouteNotFound(path string) *Error {
	return &Error{
		Kind:  KindRouteNotFound,
		Path:  path,
		cause: errors.Errorf("no route for %s", path),
	}
}

// Upstream wraps a failure of a collaborator. status is the HTTP status the failure
// declares for itself, or 0 to let Classify pick the default.
func Upstream(err error, status int) *Error {
	return &Error{
		Kind:    KindGeneric,
		Status:  status,
		Message: err.Error(),
		cause:   errors.WithStack(err),
	}
}

// WithStatus creates a generic failure with a declared status and message.
func WithStatus(status int, message string) *Error {
	return &Error{
		Kind:    KindGeneric,
		Status:  status,
		Message: message,
		cause:   errors.New(message),
	}
}

// DuplicateKey reports a uniqueness violation raised by the record store.
func DuplicateKey(err error) *Error {
	return &Error{Kind: KindDuplicateKey, cause: errors.WithStack(err)}
}

// Cast reports an identifier or value the record store could not convert.
func Cast(err error) *Error {
	return &Error{Kind: KindCast, cause: errors.WithStack(err)}
}

// AggregateValidation reports a validation failure raised by the record store itself.
func AggregateValidation(subErrors []SubError) *Error {
	return &Error{
		Kind:      KindAggregateValidation,
		SubErrors: subErrors,
		cause:     errors.Errorf("record store rejected %d field(s)", len(subErrors)),
	}
}
