package api

import (
	"encoding/json"
	"io"
	"net/http"
)

// WriteJSON encodes data without HTML escaping.
func WriteJSON(w io.Writer, data interface{}) error {
	encoder := json.NewEncoder(w)
	encoder.SetEscapeHTML(false)
	return encoder.Encode(data)
}

// Respond writes data as JSON with the given status code.
func Respond(w http.ResponseWriter, statusCode int, data interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(statusCode)
	_ = WriteJSON(w, data)
}

// WriteError writes err as an ErrorResponse. Non-API errors become 500s.
func WriteError(w http.ResponseWriter, err error) {
	apiErr := AsAPIError(err)
	Respond(w, apiErr.StatusCode, apiErr.Response())
}
