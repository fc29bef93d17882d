// internal/httpx/respond.go
package httpx

import (
	"log"
	"net/http"

	jsoniter "github.com/json-iterator/go"

	"bibliocore/internal/fault"
)

var json = jsoniter.ConfigCompatibleWithStandardLibrary

// Envelope is the uniform result shape every operation answers with:
// a success flag, a human-readable message, and the entity or derived
// value when there is one.
type Envelope struct {
	Success bool   `json:"success"`
	Message string `json:"message"`
	Data    any    `json:"data,omitempty"`
}

// OK writes a success envelope.
func OK(w http.ResponseWriter, status int, message string, data any) {
	write(w, status, Envelope{Success: true, Message: message, Data: data})
}

// Fail classifies err and writes a failure envelope. Infrastructure
// detail is logged here and never leaves the process.
func Fail(w http.ResponseWriter, err error) {
	status := http.StatusInternalServerError
	switch fault.KindOf(err) {
	case fault.KindValidation:
		status = http.StatusBadRequest
	case fault.KindNotFound:
		status = http.StatusNotFound
	case fault.KindRejected:
		status = http.StatusUnprocessableEntity
	case fault.KindInfrastructure:
		status = http.StatusServiceUnavailable
		log.Printf("infrastructure failure: %v", err)
	default:
		log.Printf("unclassified failure: %v", err)
	}
	write(w, status, Envelope{Success: false, Message: fault.MessageOf(err)})
}

// Decode reads a JSON request body into dst.
func Decode(r *http.Request, dst any) error {
	return json.NewDecoder(r.Body).Decode(dst)
}

func write(w http.ResponseWriter, status int, body Envelope) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(body); err != nil {
		log.Printf("failed to encode response: %v", err)
	}
}
