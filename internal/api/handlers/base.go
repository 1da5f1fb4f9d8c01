package handlers

import (
	"encoding/json"
	"errors"
	"net/http"
	"strconv"

	"github.com/ren-perez/saldo-backend/internal/api/dto"
	"github.com/ren-perez/saldo-backend/internal/application/service"
)

// UserHeader carries the caller identity. Authentication itself happens
// upstream; the API trusts this header and services enforce ownership.
const UserHeader = "X-User-ID"

// Base provides shared functionality for all handlers.
type Base struct{}

// WriteJSON writes a JSON response with the given status code.
func (b *Base) WriteJSON(w http.ResponseWriter, status int, data interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(data)
}

// WriteError writes an error response with the given status code.
func (b *Base) WriteError(w http.ResponseWriter, status int, err dto.APIError) {
	b.WriteJSON(w, status, err)
}

// WriteServiceError maps the service error taxonomy onto HTTP statuses:
// validation 400, ownership 403, not found 404, state conflict 409,
// anything else 500.
func (b *Base) WriteServiceError(w http.ResponseWriter, err error) {
	var verr *service.ValidationError
	var oerr *service.OwnershipError
	var nferr *service.NotFoundError
	var serr *service.StateConflictError

	switch {
	case errors.As(err, &verr):
		b.WriteError(w, http.StatusBadRequest, dto.ValidationError(verr.Error()))
	case errors.As(err, &oerr):
		b.WriteError(w, http.StatusForbidden, dto.ForbiddenError(oerr.Error()))
	case errors.As(err, &nferr):
		b.WriteError(w, http.StatusNotFound, dto.NewAPIError(dto.ErrCodeNotFound, nferr.Error()))
	case errors.As(err, &serr):
		b.WriteError(w, http.StatusConflict, dto.ConflictError(serr.Error()))
	default:
		b.WriteError(w, http.StatusInternalServerError, dto.InternalError())
	}
}

// RequireUser extracts the caller identity, writing a 400 when missing.
func (b *Base) RequireUser(w http.ResponseWriter, r *http.Request) (string, bool) {
	userID := r.Header.Get(UserHeader)
	if userID == "" {
		b.WriteError(w, http.StatusBadRequest, dto.BadRequestError(UserHeader+" header is required"))
		return "", false
	}
	return userID, true
}

// DecodeJSON parses the request body into dst, writing a 400 on failure.
func (b *Base) DecodeJSON(w http.ResponseWriter, r *http.Request, dst interface{}) bool {
	if err := json.NewDecoder(r.Body).Decode(dst); err != nil {
		b.WriteError(w, http.StatusBadRequest, dto.BadRequestError("invalid JSON body"))
		return false
	}
	return true
}

// ParseIntParam parses an integer query parameter with a default value.
func ParseIntParam(r *http.Request, name string, defaultVal int) int {
	val := r.URL.Query().Get(name)
	if val == "" {
		return defaultVal
	}
	parsed, err := strconv.Atoi(val)
	if err != nil {
		return defaultVal
	}
	return parsed
}

// ParseFloatParam parses a float query parameter with a default value.
func ParseFloatParam(r *http.Request, name string, defaultVal float64) float64 {
	val := r.URL.Query().Get(name)
	if val == "" {
		return defaultVal
	}
	parsed, err := strconv.ParseFloat(val, 64)
	if err != nil {
		return defaultVal
	}
	return parsed
}

// ParseBoolParam parses a boolean query parameter with a default value.
func ParseBoolParam(r *http.Request, name string, defaultVal bool) bool {
	val := r.URL.Query().Get(name)
	if val == "" {
		return defaultVal
	}
	return val == "true" || val == "1"
}
