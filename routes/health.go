package routes

import (
	"net/http"

	"github.com/aidenappl/tracequery/responder"
)

// HealthHandler handles GET /health requests
func HealthHandler(w http.ResponseWriter, r *http.Request) {
	responder.New(w, map[string]string{"status": "ok"})
}
