package commons

import (
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5/middleware"
	"github.com/google/uuid"
	"go.uber.org/zap"

	"repuestos/internal/dto"
	apperrors "repuestos/internal/errors"
)

const maxBodyBytes = 1 << 20

// StatusClientClosedRequest is the nginx convention for a client that went
// away before the response was ready.
const StatusClientClosedRequest = 499

// NewTraceID returns the request id set by the router middleware, or a fresh
// UUID when there is none.
func NewTraceID(r *http.Request) string {
	if id := middleware.GetReqID(r.Context()); id != "" {
		return id
	}
	return uuid.New().String()
}

func WriteJSON(w http.ResponseWriter, status int, data any, logger *zap.Logger) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(data); err != nil {
		logger.Error("failed to encode response", zap.Error(err))
	}
}

// DecodeJSON reads a single JSON document into dst, rejecting unknown fields.
func DecodeJSON(r *http.Request, dst any) error {
	dec := json.NewDecoder(io.LimitReader(r.Body, maxBodyBytes))
	dec.DisallowUnknownFields()

	if err := dec.Decode(dst); err != nil {
		message := "request body must be valid JSON"
		var typeErr *json.UnmarshalTypeError
		if errors.As(err, &typeErr) && typeErr.Field != "" {
			return apperrors.NewValidationError("invalid JSON body", apperrors.ValidationDetail{
				Field:   typeErr.Field,
				Message: typeErr.Field + " has the wrong type",
			})
		}
		return apperrors.NewValidationError("invalid JSON body", apperrors.ValidationDetail{
			Field:   "body",
			Message: message,
		})
	}

	return nil
}

// WriteError maps an application error to its HTTP status. Unclassified
// errors are logged and answered with an opaque message.
func WriteError(w http.ResponseWriter, traceID string, err error, logger *zap.Logger) {
	status, code, message := http.StatusInternalServerError, "INTERNAL_ERROR", "an unexpected error occurred"
	var details []apperrors.ValidationDetail

	if ve, ok := apperrors.IsValidationError(err); ok {
		status, code, message, details = http.StatusBadRequest, "VALIDATION_ERROR", ve.Message, ve.Details
	} else if nf, ok := apperrors.IsNotFoundError(err); ok {
		status, code, message = http.StatusNotFound, "NOT_FOUND", nf.Message
	} else if iv, ok := apperrors.IsInvariantViolationError(err); ok {
		status, code, message = http.StatusUnprocessableEntity, "INVARIANT_VIOLATION", iv.Message
	} else if de, ok := apperrors.IsDeadlockError(err); ok {
		status, code, message = http.StatusConflict, "DEADLOCK", de.Message
	} else if ce, ok := apperrors.IsConflictError(err); ok {
		status, code, message = http.StatusConflict, "CONFLICT", ce.Message
	} else if ce, ok := apperrors.IsCanceledError(err); ok {
		status, code, message = StatusClientClosedRequest, "CANCELED", ce.Message
		logger.Debug("request canceled", zap.String("traceId", traceID), zap.Error(err))
	} else {
		logger.Error("unexpected error", zap.String("traceId", traceID), zap.Error(err))
	}

	WriteJSON(w, status, dto.ErrorResponse{
		TraceID:   traceID,
		Status:    status,
		Error:     code,
		Message:   message,
		Details:   details,
		Timestamp: time.Now().UTC(),
	}, logger)
}
