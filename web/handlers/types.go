// Package handlers provides HTTP handlers and middleware for the Eve API.
package handlers

import (
	"encoding/json"
	"errors"
	"log"
	"net/http"

	"github.com/tailored-ai/eve/internal/storage"
)

// Tenant and user scoping headers. Missing headers fall back to "default"
// so single-user deployments work without any header plumbing.
const (
	headerTenantID = "X-Tenant-ID"
	headerUserID   = "X-User-ID"

	defaultTenantID = "default"
	defaultUserID   = "default"
)

// errorResponse is the uniform error envelope.
type errorResponse struct {
	Error string `json:"error"`
	Code  string `json:"code"`
}

// writeJSON writes a JSON response with the given status code.
func writeJSON(w http.ResponseWriter, status int, v interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		log.Printf("handlers: failed to encode response: %v", err)
	}
}

// writeError writes a JSON error envelope.
func writeError(w http.ResponseWriter, status int, code, message string) {
	writeJSON(w, status, errorResponse{Error: message, Code: code})
}

// writeStorageError maps storage sentinel errors onto HTTP statuses.
func writeStorageError(w http.ResponseWriter, err error) {
	switch {
	case errors.Is(err, storage.ErrNotFound):
		writeError(w, http.StatusNotFound, "NOT_FOUND", "resource not found")
	case errors.Is(err, storage.ErrInvalidInput):
		writeError(w, http.StatusBadRequest, "INVALID_INPUT", err.Error())
	default:
		log.Printf("handlers: internal error: %v", err)
		writeError(w, http.StatusInternalServerError, "INTERNAL", "internal error")
	}
}

// decodeBody parses a JSON request body into v.
func decodeBody(r *http.Request, v interface{}) error {
	defer r.Body.Close()
	dec := json.NewDecoder(r.Body)
	dec.DisallowUnknownFields()
	return dec.Decode(v)
}

// scope returns the tenant and user IDs for a request.
func scope(r *http.Request) (tenantID, userID string) {
	tenantID = r.Header.Get(headerTenantID)
	if tenantID == "" {
		tenantID = defaultTenantID
	}
	userID = r.Header.Get(headerUserID)
	if userID == "" {
		userID = defaultUserID
	}
	return tenantID, userID
}
