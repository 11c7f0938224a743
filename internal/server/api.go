package server

import (
	"context"
	"log/slog"
	"net/http"
	"time"

	"github.com/NYTimes/gziphandler"
	"github.com/gorilla/mux"
	"github.com/rs/cors"
	"github.com/ulule/limiter/v3"

	"github.com/UnknownOlympus/athena/internal/apperror"
	"github.com/UnknownOlympus/athena/internal/metrics"
	"github.com/UnknownOlympus/athena/internal/models"
	"github.com/UnknownOlympus/athena/internal/services/employees"
)

const envDevelopment = "development"

// EmployeeService is the employee use-case layer the API delegates to.
type EmployeeService interface {
	List(ctx context.Context, query employees.ListQuery) ([]models.Employee, models.Pagination, error)
	Get(ctx context.Context, identifier string) (models.Employee, error)
	Create(ctx context.Context, record models.Record) (models.Employee, error)
	Update(ctx context.Context, identifier string, record models.Record) (models.Employee, error)
	Delete(ctx context.Context, identifier string) error
}

// Options configure the public API.
type Options struct {
	// Env selects the error detail level; "development" exposes stack traces.
	Env            string
	RequestTimeout time.Duration
	BodyLimit      int64
	CORSOrigin     string
	// StoreURL is reported by the API information document.
	StoreURL string
	// Limiter is optional; nil disables rate limiting.
	Limiter *limiter.Limiter
}

// API serves the employee REST endpoints.
type API struct {
	log       *slog.Logger
	staff     EmployeeService
	metrics   *metrics.Metrics
	opts      Options
	startedAt time.Time
}

func NewAPI(log *slog.Logger, staff EmployeeService, metrics *metrics.Metrics, opts Options) *API {
	return &API{
		log: log.With(
			slog.String("op", "API"),
			slog.String("division", "http"),
		),
		staff:     staff,
		metrics:   metrics,
		opts:      opts,
		startedAt: time.Now(),
	}
}

// Router builds the route table. Unmatched paths and methods pass through the same
// middleware chain as matched routes and end in the route-not-found error.
func (a *API) Router() *mux.Router {
	middlewares := []mux.MiddlewareFunc{
		a.withRequestLogger,
		a.withMetrics,
		withSecurityHeaders,
		a.withRateLimit,
		a.withTimeout,
		a.withBodyLimit,
		a.withRecovery,
	}

	router := mux.NewRouter()
	router.Use(middlewares...)

	router.HandleFunc("/", a.info).Methods(http.MethodGet)
	router.HandleFunc("/health", a.health).Methods(http.MethodGet)

	api := router.PathPrefix("/api/employees").Subrouter()
	// The collection answers with and without a trailing slash.
	for _, path := range []string{"", "/"} {
		api.HandleFunc(path, a.listEmployees).Methods(http.MethodGet)
		api.HandleFunc(path, a.createEmployee).Methods(http.MethodPost)
	}
	api.HandleFunc("/{id}", a.getEmployee).Methods(http.MethodGet)
	api.HandleFunc("/{id}", a.updateEmployee).Methods(http.MethodPut)
	api.HandleFunc("/{id}", a.deleteEmployee).Methods(http.MethodDelete)

	var notFound http.Handler = http.HandlerFunc(a.routeNotFound)
	for i := len(middlewares) - 1; i >= 0; i-- {
		notFound = middlewares[i](notFound)
	}
	router.NotFoundHandler = notFound
	router.MethodNotAllowedHandler = notFound

	return router
}

// Handler wraps the router with CORS and response compression.
func (a *API) Handler() http.Handler {
	origin := a.opts.CORSOrigin
	if origin == "" {
		origin = "*"
	}

	corsHandler := cors.New(cors.Options{
		AllowedOrigins:   []string{origin},
		AllowedMethods:   []string{http.MethodGet, http.MethodPost, http.MethodPut, http.MethodDelete, http.MethodOptions},
		AllowedHeaders:   []string{"Content-Type", "Authorization"},
		ExposedHeaders:   []string{requestIDHeader},
		AllowCredentials: true,
	})

	return corsHandler.Handler(gziphandler.GzipHandler(a.Router()))
}

func (a *API) routeNotFound(w http.ResponseWriter, r *http.Request) {
	a.writeError(w, r, apperror.RouteNotFound(r.URL.RequestURI()))
}
