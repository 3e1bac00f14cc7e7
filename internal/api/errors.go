package api

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-playground/validator/v10"

	"github.com/MJE43/rune-ration-replay-go/internal/battle"
	"github.com/MJE43/rune-ration-replay-go/internal/scan"
	"github.com/MJE43/rune-ration-replay-go/internal/signing"
	"github.com/MJE43/rune-ration-replay-go/internal/store"
	"github.com/MJE43/rune-ration-replay-go/internal/version"
)

// ErrorBuilder helps construct structured errors with context
type ErrorBuilder struct {
	errType   string
	message   string
	context   map[string]any
	requestID string
}

// NewError creates a new error builder
func NewError(errType, message string) *ErrorBuilder {
	return &ErrorBuilder{
		errType: errType,
		message: message,
		context: make(map[string]any),
	}
}

// WithContext adds context information to the error
func (eb *ErrorBuilder) WithContext(key string, value any) *ErrorBuilder {
	eb.context[key] = value
	return eb
}

// WithRequestID adds request ID to the error
func (eb *ErrorBuilder) WithRequestID(requestID string) *ErrorBuilder {
	eb.requestID = requestID
	return eb
}

// WithCause records the underlying cause
func (eb *ErrorBuilder) WithCause(err error) *ErrorBuilder {
	if err != nil {
		eb.context["cause"] = err.Error()
	}
	return eb
}

// Build creates the final EngineError
func (eb *ErrorBuilder) Build() EngineError {
	var ctx map[string]any
	if len(eb.context) > 0 {
		ctx = eb.context
	}
	return EngineError{
		Type:      eb.errType,
		Message:   eb.message,
		Context:   ctx,
		RequestID: eb.requestID,
		Timestamp: time.Now().UTC().Format(time.RFC3339),
	}
}

// ErrorHandler provides centralized error handling with logging
type ErrorHandler struct {
	logger         *slog.Logger
	requestTimeout time.Duration
}

// NewErrorHandler creates a new error handler. requestTimeout is reported for
// requests cut off by the router deadline.
func NewErrorHandler(logger *slog.Logger, requestTimeout time.Duration) *ErrorHandler {
	if logger == nil {
		logger = slog.Default()
	}
	return &ErrorHandler{logger: logger, requestTimeout: requestTimeout}
}

// HandleTypedError builds and writes an error of the given type.
func (eh *ErrorHandler) HandleTypedError(w http.ResponseWriter, r *http.Request, status int, errType, message string, cause error) {
	engineErr := NewError(errType, message).
		WithRequestID(middleware.GetReqID(r.Context())).
		WithContext("path", r.URL.Path).
		WithCause(cause).
		Build()
	eh.logError(r, engineErr, status)
	eh.writeErrorResponse(w, status, engineErr)
}

// HandleValidationError handles validation-specific errors
func (eh *ErrorHandler) HandleValidationError(w http.ResponseWriter, r *http.Request, field, message string) {
	engineErr := NewError(ErrTypeValidation, fmt.Sprintf("Validation failed: %s", message)).
		WithRequestID(middleware.GetReqID(r.Context())).
		WithContext("field", field).
		WithContext("path", r.URL.Path).
		WithContext("method", r.Method).
		Build()

	eh.logError(r, engineErr, http.StatusBadRequest)
	eh.writeErrorResponse(w, http.StatusBadRequest, engineErr)
}

// HandleTimeoutError handles timeout-specific errors
func (eh *ErrorHandler) HandleTimeoutError(w http.ResponseWriter, r *http.Request, operation string, timeout time.Duration) {
	engineErr := NewError(ErrTypeTimeout, fmt.Sprintf("Operation timed out: %s", operation)).
		WithRequestID(middleware.GetReqID(r.Context())).
		WithContext("operation", operation).
		WithContext("timeout_ms", timeout.Milliseconds()).
		WithContext("path", r.URL.Path).
		Build()

	eh.logError(r, engineErr, http.StatusRequestTimeout)
	eh.writeErrorResponse(w, http.StatusRequestTimeout, engineErr)
}

// HandleServiceError maps errors from the engine packages onto responses.
func (eh *ErrorHandler) HandleServiceError(w http.ResponseWriter, r *http.Request, operation string, err error) {
	var validationErrs validator.ValidationErrors
	switch {
	case errors.As(err, &validationErrs):
		fe := validationErrs[0]
		eh.HandleValidationError(w, r, fe.Namespace(), fmt.Sprintf("%s failed on %s", fe.Field(), fe.Tag()))
	case errors.Is(err, store.ErrNotFound):
		eh.HandleTypedError(w, r, http.StatusNotFound, ErrTypeNotFound, operation+": not found", err)
	case errors.Is(err, battle.ErrUnknownEvent), errors.Is(err, battle.ErrUnknownRelic):
		eh.HandleTypedError(w, r, http.StatusBadRequest, ErrTypeInvalidParams, err.Error(), nil)
	case errors.Is(err, scan.ErrInvalidRange), errors.Is(err, scan.ErrInvalidMetric), errors.Is(err, scan.ErrInvalidTarget):
		eh.HandleValidationError(w, r, "scan", err.Error())
	case errors.Is(err, signing.ErrSignatureMismatch):
		eh.HandleTypedError(w, r, http.StatusUnprocessableEntity, ErrTypeVerification, err.Error(), nil)
	case errors.Is(err, scan.ErrTimeout), errors.Is(err, context.DeadlineExceeded):
		eh.HandleTimeoutError(w, r, operation, eh.timeoutOf(err))
	default:
		eh.HandleTypedError(w, r, http.StatusInternalServerError, ErrTypeInternal, operation+" failed", err)
	}
}

// timeoutOf returns the deadline that produced err.
func (eh *ErrorHandler) timeoutOf(err error) time.Duration {
	var scanTimeout *scan.TimeoutError
	if errors.As(err, &scanTimeout) {
		return scanTimeout.Timeout
	}
	return eh.requestTimeout
}

// logError logs the error at a level chosen by its category
func (eh *ErrorHandler) logError(r *http.Request, engineErr EngineError, status int) {
	category := GetErrorCategory(engineErr.Type)
	level := slog.LevelError
	if category == CategoryValidation || status < http.StatusInternalServerError {
		level = slog.LevelWarn
	}

	attrs := []any{
		"type", engineErr.Type,
		"category", category,
		"status", status,
		"request_id", engineErr.RequestID,
		"method", r.Method,
		"path", r.URL.Path,
		"remote_ip", r.RemoteAddr,
	}
	for key, value := range engineErr.Context {
		if key == "path" || key == "method" {
			continue
		}
		attrs = append(attrs, key, value)
	}
	eh.logger.Log(r.Context(), level, "error_occurred: "+engineErr.Message, attrs...)
}

// writeErrorResponse writes the error response as JSON
func (eh *ErrorHandler) writeErrorResponse(w http.ResponseWriter, status int, engineErr EngineError) {
	w.Header().Set("Content-Type", "application/json")
	w.Header().Set("X-Engine-Version", version.EngineVersion)
	w.Header().Set("X-Error-Type", engineErr.Type)
	w.Header().Set("X-Error-Category", string(GetErrorCategory(engineErr.Type)))
	w.WriteHeader(status)

	if err := json.NewEncoder(w).Encode(engineErr); err != nil {
		eh.logger.Error("error_response_encode_failed", "error", err)
	}
}

// RecoveryHandler provides panic recovery with structured error logging
func (eh *ErrorHandler) RecoveryHandler(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		defer func() {
			rvr := recover()
			if rvr == nil || rvr == http.ErrAbortHandler {
				if rvr != nil {
					panic(rvr)
				}
				return
			}
			requestID := middleware.GetReqID(r.Context())
			eh.logger.Error("panic_recovered",
				"request_id", requestID,
				"path", r.URL.Path,
				"method", r.Method,
				"panic", fmt.Sprint(rvr),
			)

			engineErr := NewError(ErrTypeInternal, "Internal server error").
				WithRequestID(requestID).
				WithContext("path", r.URL.Path).
				WithContext("method", r.Method).
				Build()
			eh.writeErrorResponse(w, http.StatusInternalServerError, engineErr)
		}()

		next.ServeHTTP(w, r)
	})
}
