package middleware

import (
	"encoding/json"
	"net/http"

	"github.com/leslieo2/go-proxy-select/internal/constants"
)

// ErrorResponse is the body of every error answer.
type ErrorResponse struct {
	Error string `json:"error"`
}

// WriteJSON sends body encoded as JSON with the given status.
func WriteJSON(w http.ResponseWriter, statusCode int, body any) {
	w.Header().Set(constants.HeaderContentType, constants.ContentTypeJSON)
	w.WriteHeader(statusCode)
	_ = json.NewEncoder(w).Encode(body)
}

// WriteError sends a JSON error message.
func WriteError(w http.ResponseWriter, statusCode int, message string) {
	WriteJSON(w, statusCode, ErrorResponse{Error: message})
}
