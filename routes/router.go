package routes

import (
	"net/http"

	"github.com/aidenappl/tracequery/middleware"
	"github.com/gorilla/mux"
)

// NewRouter wires every route and its middleware. A nil limiter disables rate limiting.
func NewRouter(limiter *middleware.RateLimiter) *mux.Router {
	r := mux.NewRouter()
	r.Use(middleware.RequestIDMiddleware)
	r.Use(middleware.LoggingMiddleware)

	r.HandleFunc("/health", HealthHandler).Methods(http.MethodGet)

	// V1 API routes (with auth middleware)
	v1 := r.PathPrefix("/v1").Subrouter()
	v1.Use(middleware.AuthMiddleware)
	if limiter != nil {
		v1.Use(limiter.Middleware)
	}

	v1.HandleFunc("/tables", TablesHandler).Methods(http.MethodGet)

	project := v1.PathPrefix("/projects/{projectId}").Subrouter()
	project.HandleFunc("/query", QueryHandler).Methods(http.MethodPost)
	project.HandleFunc("/query/batch", BatchQueryHandler).Methods(http.MethodPost)
	project.HandleFunc("/query/sql", CompileHandler).Methods(http.MethodPost)

	return r
}
