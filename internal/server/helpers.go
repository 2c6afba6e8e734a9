package server

import (
	"encoding/json"
	"errors"
	"net/http"
	"strings"

	"github.com/go-playground/validator/v10"
)

// Error codes carried in ErrorResponse.Code
const (
	CodeBadRequest   = "bad_request"
	CodeNotFound     = "not_found"
	CodeUpstream     = "upstream_error"
	CodeUnavailable  = "unavailable"
	CodeInternal     = "internal_error"
	CodeMethod       = "method_not_allowed"
	CodeInsufficient = "insufficient_history"
	CodeValidation   = "validation_failed"
	CodeReadOnly     = "read_only"
)

// ErrorResponse is the standard error format for REST API responses.
type ErrorResponse struct {
	Error string `json:"error"`
	Code  string `json:"code,omitempty"`
}

var validate = validator.New()

// maxBodyBytes caps request bodies accepted by DecodeJSON
const maxBodyBytes = 1 << 20

// WriteJSON encodes data as the response body.
func WriteJSON(w http.ResponseWriter, statusCode int, data interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(statusCode)
	_ = json.NewEncoder(w).Encode(data)
}

// WriteError sends an ErrorResponse.
func WriteError(w http.ResponseWriter, statusCode int, message, code string) {
	WriteJSON(w, statusCode, ErrorResponse{Error: message, Code: code})
}

// RequireMethod reports whether r uses one of methods, answering 405 with
// an Allow header when it does not.
func RequireMethod(w http.ResponseWriter, r *http.Request, methods ...string) bool {
	for _, allowed := range methods {
		if allowed == r.Method {
			return true
		}
	}
	w.Header().Set("Allow", strings.Join(methods, ", "))
	WriteError(w, http.StatusMethodNotAllowed, r.Method+" not allowed", CodeMethod)
	return false
}

// DecodeJSON decodes the body into v and validates it. On failure a 400
// has already been written.
func DecodeJSON(w http.ResponseWriter, r *http.Request, v interface{}) bool {
	if r.Body == nil || r.Body == http.NoBody {
		WriteError(w, http.StatusBadRequest, "Request body is required", CodeBadRequest)
		return false
	}
	dec := json.NewDecoder(http.MaxBytesReader(w, r.Body, maxBodyBytes))
	if err := dec.Decode(v); err != nil {
		WriteError(w, http.StatusBadRequest, "Invalid JSON: "+err.Error(), CodeBadRequest)
		return false
	}
	if err := validate.Struct(v); err != nil {
		WriteError(w, http.StatusBadRequest, validationMessage(err), CodeValidation)
		return false
	}
	return true
}

// validationMessage flattens validator errors into "field: rule" pairs
func validationMessage(err error) string {
	var verrs validator.ValidationErrors
	if !errors.As(err, &verrs) {
		return err.Error()
	}
	parts := make([]string, len(verrs))
	for i, fe := range verrs {
		parts[i] = strings.ToLower(fe.Field()) + ": " + fe.Tag()
	}
	return "Invalid request: " + strings.Join(parts, ", ")
}

// PathParam returns the path segment between prefix and suffix, e.g.
// PathParam(r, "/api/metrics/", "") on /api/metrics/NVDA yields "NVDA".
// With no suffix the value stops at the next slash.
func PathParam(r *http.Request, prefix, suffix string) string {
	rest, ok := strings.CutPrefix(r.URL.Path, prefix)
	if !ok {
		return ""
	}
	if suffix != "" {
		if value, _, found := strings.Cut(rest, suffix); found {
			return value
		}
		return rest
	}
	value, _, _ := strings.Cut(rest, "/")
	return value
}
