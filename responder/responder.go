package responder

import (
	"encoding/json"
	"net/http"

	"github.com/sirupsen/logrus"
)

type dataResponse struct {
	Data any `json:"data"`
}

type errorResponse struct {
	Error string `json:"error"`
	Cause string `json:"cause,omitempty"`
}

// New writes data as a 200 JSON response
func New(w http.ResponseWriter, data any) {
	write(w, http.StatusOK, dataResponse{Data: data})
}

// Error writes an error message with the given status
func Error(w http.ResponseWriter, status int, message string) {
	write(w, status, errorResponse{Error: message})
}

// ErrorWithCause writes an error message and the underlying error
func ErrorWithCause(w http.ResponseWriter, status int, message string, err error) {
	resp := errorResponse{Error: message}
	if err != nil {
		resp.Cause = err.Error()
	}
	write(w, status, resp)
}

func write(w http.ResponseWriter, status int, body any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(body); err != nil {
		logrus.WithError(err).Error("failed to encode response")
	}
}
