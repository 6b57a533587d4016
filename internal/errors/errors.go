package errors

import (
	"context"
	"encoding/json"
	"net/http"

	"github.com/earnbuzz/earnbuzz/internal/metrics"
	"github.com/earnbuzz/earnbuzz/internal/observability"
	"github.com/earnbuzz/earnbuzz/internal/server/middleware"
	"github.com/fulmenhq/gofulmen/errors"
	"github.com/google/uuid"
	"go.uber.org/zap"
)

// Error codes carried by API error envelopes.
const (
	CodeInvalidInput     = "INVALID_INPUT"
	CodeNotFound         = "NOT_FOUND"
	CodeMethodNotAllowed = "METHOD_NOT_ALLOWED"
	CodeInternal         = "INTERNAL_ERROR"
	CodeDatabase         = "DATABASE_ERROR"
	CodeTimeout          = "TIMEOUT"
	CodeConfigInvalid    = "CONFIG_INVALID"
	CodeExternalService  = "EXTERNAL_SERVICE_ERROR"
	CodeUnavailable      = "SERVICE_UNAVAILABLE"
)

type severityLevel int

const (
	severityNone severityLevel = iota
	severityMedium
	severityHigh
)

type codeSpec struct {
	status int
	level  severityLevel
}

// Codes missing from this table map to 500 and are logged at info level.
var codeSpecs = map[string]codeSpec{
	CodeInvalidInput:     {status: http.StatusBadRequest},
	CodeNotFound:         {status: http.StatusNotFound},
	CodeMethodNotAllowed: {status: http.StatusMethodNotAllowed},
	CodeInternal:         {status: http.StatusInternalServerError, level: severityHigh},
	CodeDatabase:         {status: http.StatusInternalServerError, level: severityHigh},
	CodeTimeout:          {status: http.StatusGatewayTimeout, level: severityMedium},
	CodeConfigInvalid:    {status: http.StatusInternalServerError, level: severityHigh},
	CodeExternalService:  {status: http.StatusBadGateway, level: severityMedium},
	CodeUnavailable:      {status: http.StatusServiceUnavailable, level: severityMedium},
}

// HTTPErrorResponse is the JSON body written for enveloped errors.
type HTTPErrorResponse = middleware.ErrorResponse

func NewInvalidInputError(message string) *errors.ErrorEnvelope {
	return newEnvelope(CodeInvalidInput, message)
}

func NewNotFoundError(message string) *errors.ErrorEnvelope {
	return newEnvelope(CodeNotFound, message)
}

func NewMethodNotAllowedError(message string) *errors.ErrorEnvelope {
	return newEnvelope(CodeMethodNotAllowed, message)
}

func NewInternalError(message string) *errors.ErrorEnvelope {
	return newEnvelope(CodeInternal, message)
}

func NewConfigInvalidError(message string) *errors.ErrorEnvelope {
	return newEnvelope(CodeConfigInvalid, message)
}

func NewExternalServiceError(message string) *errors.ErrorEnvelope {
	return newEnvelope(CodeExternalService, message)
}

func NewUnavailableError(message string) *errors.ErrorEnvelope {
	return newEnvelope(CodeUnavailable, message)
}

// The Wrap helpers pull the request ID out of ctx so log lines and response
// bodies share a correlation ID.

func WrapInvalidInput(ctx context.Context, err error, message string) *errors.ErrorEnvelope {
	return wrap(ctx, CodeInvalidInput, err, message)
}

func WrapNotFound(ctx context.Context, err error, message string) *errors.ErrorEnvelope {
	return wrap(ctx, CodeNotFound, err, message)
}

func WrapInternal(ctx context.Context, err error, message string) *errors.ErrorEnvelope {
	return wrap(ctx, CodeInternal, err, message)
}

func WrapDatabaseError(ctx context.Context, err error, message string) *errors.ErrorEnvelope {
	return wrap(ctx, CodeDatabase, err, message)
}

func WrapTimeout(ctx context.Context, err error, message string) *errors.ErrorEnvelope {
	return wrap(ctx, CodeTimeout, err, message)
}

func WrapExternalService(ctx context.Context, err error, message string) *errors.ErrorEnvelope {
	return wrap(ctx, CodeExternalService, err, message)
}

func WrapConfigInvalid(ctx context.Context, err error, message string) *errors.ErrorEnvelope {
	return wrap(ctx, CodeConfigInvalid, err, message)
}

// StatusFor resolves the HTTP status for an error code.
func StatusFor(code string) int {
	if spec, ok := codeSpecs[code]; ok {
		return spec.status
	}
	return http.StatusInternalServerError
}

func newEnvelope(code, message string) *errors.ErrorEnvelope {
	envelope := errors.NewErrorEnvelope(code, message)
	var (
		updated *errors.ErrorEnvelope
		err     error
	)
	switch codeSpecs[code].level {
	case severityHigh:
		updated, err = envelope.WithSeverity(errors.SeverityHigh)
	case severityMedium:
		updated, err = envelope.WithSeverity(errors.SeverityMedium)
	default:
		return envelope
	}
	if err != nil {
		return envelope
	}
	return updated
}

func wrap(ctx context.Context, code string, err error, message string) *errors.ErrorEnvelope {
	correlationID := correlationIDFrom(ctx)
	envelope := newEnvelope(code, message).
		WithCorrelationID(correlationID).
		WithTraceID(correlationID)
	if err == nil {
		return envelope
	}
	updated, updateErr := envelope.WithContext(map[string]interface{}{
		"wrapped_error": err.Error(),
	})
	if updateErr != nil {
		return envelope
	}
	return updated
}

func correlationIDFrom(ctx context.Context) string {
	if ctx != nil {
		if requestID := middleware.GetRequestID(ctx); requestID != "" {
			return requestID
		}
	}
	return uuid.New().String()
}

// ensureEnvelope normalizes any error into an envelope. Plain errors are
// reported as INTERNAL_ERROR with the original message kept in context.
func ensureEnvelope(err error) *errors.ErrorEnvelope {
	if err == nil {
		env := errors.NewErrorEnvelope(CodeInternal, "unexpected nil error")
		env, _ = env.WithSeverity(errors.SeverityCritical)
		return env
	}
	if envelope, ok := err.(*errors.ErrorEnvelope); ok && envelope != nil {
		return envelope
	}
	env := newEnvelope(CodeInternal, "unexpected error")
	env, _ = env.WithContext(map[string]interface{}{
		"wrapped_error": err.Error(),
	})
	return env
}

// responseDetails merges envelope details and context, details taking precedence.
func responseDetails(envelope *errors.ErrorEnvelope) map[string]interface{} {
	details := make(map[string]interface{}, len(envelope.Details)+len(envelope.Context))
	for key, value := range envelope.Context {
		details[key] = value
	}
	for key, value := range envelope.Details {
		details[key] = value
	}
	if len(details) == 0 {
		return nil
	}
	return details
}

// RespondWithError writes err as a JSON error body, logging it and recording
// error metrics on the way out.
func RespondWithError(w http.ResponseWriter, r *http.Request, err error) {
	if w == nil {
		return
	}

	envelope := ensureEnvelope(err)
	if envelope.CorrelationID == "" {
		var ctx context.Context
		if r != nil {
			ctx = r.Context()
		}
		envelope = envelope.WithCorrelationID(correlationIDFrom(ctx))
	}

	statusCode := StatusFor(envelope.Code)
	response := HTTPErrorResponse{
		Error: middleware.ErrorDetail{
			Code:      envelope.Code,
			Message:   envelope.Message,
			Details:   responseDetails(envelope),
			RequestID: envelope.CorrelationID,
		},
	}

	logHTTPError(envelope, statusCode)
	metrics.RecordError(envelope.Code, statusCode)
	if r != nil {
		metrics.RecordErrorByEndpoint(r.URL.Path, envelope.Code)
	}

	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(statusCode)
	_ = json.NewEncoder(w).Encode(response)
}

func logHTTPError(envelope *errors.ErrorEnvelope, statusCode int) {
	if observability.ServerLogger == nil {
		return
	}

	fields := []zap.Field{
		zap.String("error_code", envelope.Code),
		zap.Int("http_status", statusCode),
		zap.String("request_id", envelope.CorrelationID),
	}
	if envelope.Severity != "" {
		fields = append(fields, zap.String("severity", string(envelope.Severity)))
	}
	for key, value := range envelope.Context {
		fields = append(fields, zap.Any(key, value))
	}

	switch envelope.Severity {
	case errors.SeverityCritical, errors.SeverityHigh:
		observability.ServerLogger.Error(envelope.Message, fields...)
	case errors.SeverityMedium:
		observability.ServerLogger.Warn(envelope.Message, fields...)
	default:
		observability.ServerLogger.Info(envelope.Message, fields...)
	}
}
