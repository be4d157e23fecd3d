// Package http provides the JSON API over the ledger.
//
// This file implements a small builder for JSON responses and the mapping
// from ledger errors to status codes, so every handler answers failures with
// the same envelope.

package http

import (
	"encoding/json"
	"errors"
	"net/http"

	"cashflow/internal/core"
)

// Error codes carried in the error envelope.
const (
	CodeValidation       = "validation_failed"
	CodeNotFound         = "not_found"
	CodeNotInitialized   = "balance_not_initialized"
	CodeStorage          = "storage_unavailable"
	CodeInternal         = "internal_error"
	CodeBadRequest       = "invalid_request"
	CodeRateLimited      = "rate_limited"
	CodeMethodNotAllowed = "method_not_allowed"
)

// ErrorBody is the payload of every failed request.
type ErrorBody struct {
	Code    string `json:"code"`
	Message string `json:"message"`
	Field   string `json:"field,omitempty"`
}

type errorEnvelope struct {
	Error ErrorBody `json:"error"`
}

// JSONResponseBuilder provides a fluent API for building JSON responses.
type JSONResponseBuilder struct {
	statusCode int
	body       any
	headers    map[string]string
}

// NewJSONResponse creates a new response builder with default 200 status.
func NewJSONResponse() *JSONResponseBuilder {
	return &JSONResponseBuilder{
		statusCode: http.StatusOK,
		headers:    make(map[string]string),
	}
}

// Status sets the HTTP status code for the response.
func (b *JSONResponseBuilder) Status(code int) *JSONResponseBuilder {
	b.statusCode = code
	return b
}

// Header adds a custom header to the response.
func (b *JSONResponseBuilder) Header(name, value string) *JSONResponseBuilder {
	b.headers[name] = value
	return b
}

// Body sets the value encoded as the response body.
func (b *JSONResponseBuilder) Body(v any) *JSONResponseBuilder {
	b.body = v
	return b
}

// Write sends the built response to the http.ResponseWriter.
func (b *JSONResponseBuilder) Write(w http.ResponseWriter) {
	for name, value := range b.headers {
		w.Header().Set(name, value)
	}

	if b.body == nil {
		w.WriteHeader(b.statusCode)
		return
	}

	w.Header().Set("Content-Type", "application/json; charset=utf-8")
	w.WriteHeader(b.statusCode)
	_ = json.NewEncoder(w).Encode(b.body)
}

// ErrorResponse creates a response carrying the error envelope.
func ErrorResponse(statusCode int, code, message, field string) *JSONResponseBuilder {
	return NewJSONResponse().
		Status(statusCode).
		Body(errorEnvelope{Error: ErrorBody{Code: code, Message: message, Field: field}})
}

// BadRequestError is used for bodies and parameters that cannot be decoded.
func BadRequestError(message string) *JSONResponseBuilder {
	return ErrorResponse(http.StatusBadRequest, CodeBadRequest, message, "")
}

// ErrorFromLedger maps a ledger error onto a response. Storage and unknown
// failures never expose the underlying message.
func ErrorFromLedger(err error) *JSONResponseBuilder {
	var ve *core.ValidationError
	var nf *core.NotFoundError

	switch {
	case errors.As(err, &ve):
		return ErrorResponse(http.StatusUnprocessableEntity, CodeValidation, ve.Reason, ve.Field)
	case errors.As(err, &nf):
		return ErrorResponse(http.StatusNotFound, CodeNotFound, nf.Error(), "")
	case errors.Is(err, core.ErrBalanceNotInitialized):
		return ErrorResponse(http.StatusConflict, CodeNotInitialized, err.Error(), "")
	case core.IsStorage(err):
		return ErrorResponse(http.StatusServiceUnavailable, CodeStorage, "The ledger storage is unavailable, please retry", "")
	default:
		return ErrorResponse(http.StatusInternalServerError, CodeInternal, "Internal server error", "")
	}
}
