package handlers

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/benvon/tasklist/internal/models"
	"github.com/benvon/tasklist/internal/services/categories"
	"github.com/benvon/tasklist/internal/services/todos"
	"github.com/benvon/tasklist/internal/validation"
)

// maxErrorMessageLength caps messages echoed back to clients
const maxErrorMessageLength = 200

// envelope wraps every response body. Error responses leave Data empty
// unless the failure carries a partial result.
type envelope struct {
	Success   bool   `json:"success"`
	Data      any    `json:"data,omitempty"`
	Error     string `json:"error,omitempty"`
	Message   string `json:"message,omitempty"`
	Timestamp string `json:"timestamp"`
}

func writeEnvelope(w http.ResponseWriter, status int, body envelope) {
	body.Timestamp = time.Now().UTC().Format(time.RFC3339)
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(body); err != nil {
		http.Error(w, "Failed to encode response", http.StatusInternalServerError)
	}
}

func respondJSON(w http.ResponseWriter, status int, data any) {
	writeEnvelope(w, status, envelope{Success: true, Data: data})
}

// sanitizeErrorMessage cuts message to maxErrorMessageLength runes
func sanitizeErrorMessage(message string) string {
	runes := []rune(message)
	if len(runes) <= maxErrorMessageLength {
		return message
	}
	return string(runes[:maxErrorMessageLength]) + "..."
}

func respondJSONError(w http.ResponseWriter, status int, errorType, message string) {
	respondJSONErrorWithData(w, status, errorType, message, nil)
}

func respondJSONErrorWithData(w http.ResponseWriter, status int, errorType, message string, data any) {
	writeEnvelope(w, status, envelope{
		Error:   errorType,
		Message: sanitizeErrorMessage(message),
		Data:    data,
	})
}

// decodeAndValidate decodes a JSON body into dst and runs the struct
// validators. On failure it writes the error response and returns false.
func decodeAndValidate(w http.ResponseWriter, r *http.Request, dst any) bool {
	decoder := json.NewDecoder(r.Body)
	decoder.DisallowUnknownFields()
	if err := decoder.Decode(dst); err != nil {
		var maxBytesErr *http.MaxBytesError
		if errors.As(err, &maxBytesErr) {
			respondJSONError(w, http.StatusRequestEntityTooLarge, "Request Entity Too Large", fmt.Sprintf("Request body exceeds maximum size of %d bytes", maxBytesErr.Limit))
			return false
		}
		respondJSONError(w, http.StatusBadRequest, "Bad Request", "Invalid request body")
		return false
	}

	if err := validation.Validate.Struct(dst); err != nil {
		respondJSONError(w, http.StatusBadRequest, "Bad Request", validation.Message(err))
		return false
	}
	return true
}

// respondStoreError maps a todo store error onto an HTTP response
func respondStoreError(w http.ResponseWriter, err error) {
	switch {
	case errors.Is(err, todos.ErrTodoNotFound):
		respondJSONError(w, http.StatusNotFound, "Not Found", "Todo not found")
	case errors.Is(err, todos.ErrNoSession):
		respondJSONError(w, http.StatusUnauthorized, "Unauthorized", "No signed-in user")
	case errors.Is(err, todos.ErrEmptyText),
		errors.Is(err, todos.ErrEmptyCategoryName),
		errors.Is(err, models.ErrInvalidPriority),
		errors.Is(err, models.ErrInvalidColor),
		errors.Is(err, categories.ErrEmptyName),
		errors.Is(err, categories.ErrNameTooLong),
		errors.Is(err, categories.ErrDuplicateName):
		respondJSONError(w, http.StatusBadRequest, "Bad Request", err.Error())
	case errors.Is(err, categories.ErrTooManyCategories):
		respondJSONError(w, http.StatusUnprocessableEntity, "Unprocessable Entity", err.Error())
	case errors.Is(err, todos.ErrPartialPropagation):
		respondJSONError(w, http.StatusBadGateway, "Bad Gateway", "Category color was not applied to every todo")
	case errors.Is(err, context.DeadlineExceeded):
		respondJSONError(w, http.StatusGatewayTimeout, "Gateway Timeout", "The todo store did not respond in time")
	default:
		respondJSONError(w, http.StatusBadGateway, "Bad Gateway", "The todo store rejected the change")
	}
}
