package handler

import (
	"encoding/json"
	"errors"
	"net/http"

	"github.com/evyataryagoni/geolegacy/internal/models"
	"github.com/evyataryagoni/geolegacy/internal/service"
)

// LookupHandler handles HTTP requests for IP lookups
// This is the handler layer - it deals with HTTP concerns only
//
// Responsibilities:
//   - Parse HTTP requests (query parameters)
//   - Call service methods
//   - Format HTTP responses (JSON)
//   - Map service errors to status codes
type LookupHandler struct {
	service *service.LookupService
}

// NewLookupHandler creates a new lookup handler with the given service
func NewLookupHandler(service *service.LookupService) *LookupHandler {
	return &LookupHandler{
		service: service,
	}
}

// Lookup handles GET /v1/lookup?ip=<ip>[&db=<name>]
//
//	200 normalized result
//	400 missing or invalid ip
//	404 address not found, or unknown database
//	500 anything else
func (h *LookupHandler) Lookup(w http.ResponseWriter, r *http.Request) {
	ip := r.URL.Query().Get("ip")
	if ip == "" {
		h.respondError(w, http.StatusBadRequest, "Missing 'ip' query parameter")
		return
	}

	result, err := h.service.Lookup(ip, r.URL.Query().Get("db"))
	if err != nil {
		switch {
		case errors.Is(err, service.ErrInvalidIP):
			h.respondError(w, http.StatusBadRequest, err.Error())
		case errors.Is(err, service.ErrNotFound), errors.Is(err, service.ErrUnknownDatabase):
			h.respondError(w, http.StatusNotFound, err.Error())
		default:
			h.respondError(w, http.StatusInternalServerError, "Internal server error")
		}
		return
	}

	h.respondJSON(w, http.StatusOK, result)
}

// Databases handles GET /v1/databases
func (h *LookupHandler) Databases(w http.ResponseWriter, r *http.Request) {
	h.respondJSON(w, http.StatusOK, h.service.Databases())
}

// respondJSON writes a JSON response with the given status code
func (h *LookupHandler) respondJSON(w http.ResponseWriter, statusCode int, data interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(statusCode)

	if err := json.NewEncoder(w).Encode(data); err != nil {
		// headers are already sent
		http.Error(w, "Failed to encode response", http.StatusInternalServerError)
	}
}

// respondError writes an error response with consistent formatting
func (h *LookupHandler) respondError(w http.ResponseWriter, statusCode int, message string) {
	h.respondJSON(w, statusCode, models.ErrorResponse{Error: message})
}
