// Package response writes the JSON envelope every endpoint returns:
// {"status":..., "message":..., "reason":..., "data":..., "errors":...}.
//
// The reason field is a stable machine-readable code the SPA switches on
// (e.g. "order_limit_reached", "wrong_role"); message is for humans.
package response

import (
	"encoding/json"
	"net/http"

	"github.com/pizzanova/backend/pkg/paginate"
)

type envelope struct {
	Status  int         `json:"status"`
	Message string      `json:"message,omitempty"`
	Reason  string      `json:"reason,omitempty"`
	Data    interface{} `json:"data,omitempty"`
	Errors  interface{} `json:"errors,omitempty"`
}

func write(w http.ResponseWriter, status int, body envelope) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(body) //nolint:errcheck
}

// Success sends a 200 JSON response with data.
func Success(w http.ResponseWriter, data interface{}) {
	write(w, http.StatusOK, envelope{Status: http.StatusOK, Data: data})
}

// Created sends a 201 JSON response with data.
func Created(w http.ResponseWriter, data interface{}) {
	write(w, http.StatusCreated, envelope{Status: http.StatusCreated, Data: data})
}

// Error sends a JSON error response.
func Error(w http.ResponseWriter, status int, message string) {
	write(w, status, envelope{Status: status, Message: message})
}

// Fail sends a JSON error response with a machine-readable reason code.
func Fail(w http.ResponseWriter, status int, message, reason string) {
	write(w, status, envelope{Status: status, Message: message, Reason: reason})
}

// FailData sends a reason-coded error with an attached data payload
// (e.g. the itemized price-validation error list, or the active order count).
func FailData(w http.ResponseWriter, status int, message, reason string, data interface{}) {
	write(w, status, envelope{Status: status, Message: message, Reason: reason, Data: data})
}

// ValidationError sends a 400 with a field-level error map. Schema failures
// and business-rule failures share the same status so the SPA keys on the
// reason code, not the status.
func ValidationError(w http.ResponseWriter, errs map[string]string) {
	write(w, http.StatusBadRequest, envelope{
		Status:  http.StatusBadRequest,
		Message: "Validation failed",
		Reason:  "validation_failed",
		Errors:  errs,
	})
}

// Paginated sends a 200 response with items and pagination metadata.
func Paginated(w http.ResponseWriter, data interface{}, pagination paginate.Pagination) {
	body := map[string]interface{}{
		"items":      data,
		"pagination": pagination,
	}
	write(w, http.StatusOK, envelope{Status: http.StatusOK, Data: body})
}

// Unauthorized sends a 401.
func Unauthorized(w http.ResponseWriter, reason string) {
	write(w, http.StatusUnauthorized, envelope{
		Status:  http.StatusUnauthorized,
		Message: "Unauthorized",
		Reason:  reason,
	})
}

// Forbidden sends a 403 with a role hint for the SPA.
func Forbidden(w http.ResponseWriter, message, reason string) {
	write(w, http.StatusForbidden, envelope{
		Status:  http.StatusForbidden,
		Message: message,
		Reason:  reason,
	})
}

// NotFound sends a 404.
func NotFound(w http.ResponseWriter) {
	Error(w, http.StatusNotFound, "Not found")
}

// Internal sends a 500 without leaking internals to the client.
func Internal(w http.ResponseWriter) {
	Error(w, http.StatusInternalServerError, "Internal Server Error")
}
