// Package httputil holds the JSON response helpers and request decoding shared by the handlers.
// Every error response has the shape {"message": "..."}.
package httputil

import (
	"encoding/json"
	"net/http"
)

// InternalErrorMessage is the only text a client ever sees for a 5xx.
const InternalErrorMessage = "internal server error"

// MessageResponse is the body of every error response.
type MessageResponse struct {
	Message string `json:"message"`
}

// WriteJSON writes a JSON response with the given status code.
func WriteJSON(w http.ResponseWriter, status int, v interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(v)
}

// WriteMessage writes {"message": msg} with the given status code.
func WriteMessage(w http.ResponseWriter, status int, msg string) {
	WriteJSON(w, status, MessageResponse{Message: msg})
}

// WriteBadRequest writes a 400.
func WriteBadRequest(w http.ResponseWriter, msg string) {
	WriteMessage(w, http.StatusBadRequest, msg)
}

// WriteUnauthorized writes a 401 with a Bearer challenge.
func WriteUnauthorized(w http.ResponseWriter, msg string) {
	w.Header().Set("WWW-Authenticate", `Bearer realm="myflix"`)
	WriteMessage(w, http.StatusUnauthorized, msg)
}

// WriteForbidden writes a 403.
func WriteForbidden(w http.ResponseWriter, msg string) {
	WriteMessage(w, http.StatusForbidden, msg)
}

// WriteNotFound writes a 404.
func WriteNotFound(w http.ResponseWriter, msg string) {
	WriteMessage(w, http.StatusNotFound, msg)
}

// WriteInternalError writes a 500 without exposing the cause; callers log it.
func WriteInternalError(w http.ResponseWriter) {
	WriteMessage(w, http.StatusInternalServerError, InternalErrorMessage)
}
