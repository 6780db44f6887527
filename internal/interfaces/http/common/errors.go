package common

import (
	"errors"
	"net/http"

	"github.com/go-chi/chi/v5/middleware"
	"github.com/sirupsen/logrus"

	"github.com/sngm3741/survey-manager-api/internal/survey/domain"
)

// ErrorResponse is the single error body every failing request receives.
type ErrorResponse struct {
	Error   string              `json:"error"`
	Message string              `json:"message"`
	Fields  []domain.FieldError `json:"fields,omitempty"`
}

const internalErrorMessage = "an internal error occurred"

// TranslateError maps err onto a status code and a client-safe body.
// Errors of unknown type are treated as store failures.
func TranslateError(err error) (int, ErrorResponse) {
	var (
		message string
		fields  []domain.FieldError
	)
	if e, ok := asDomainError(err); ok {
		message = e.Message
		fields = e.Fields
	}

	switch domain.KindOf(err) {
	case domain.KindValidation:
		return http.StatusBadRequest, ErrorResponse{Error: "validation_error", Message: orDefault(message, "request validation failed"), Fields: fields}
	case domain.KindTokenMissing:
		return http.StatusUnauthorized, ErrorResponse{Error: "token_missing", Message: domain.MissingTokenMessage}
	case domain.KindTokenExpired:
		return http.StatusUnauthorized, ErrorResponse{Error: "token_expired", Message: orDefault(message, "the supplied token has expired")}
	case domain.KindTokenMalformed:
		return http.StatusUnauthorized, ErrorResponse{Error: "token_invalid", Message: orDefault(message, "the supplied token is invalid")}
	case domain.KindNotFound:
		return http.StatusNotFound, ErrorResponse{Error: "not_found", Message: orDefault(message, "resource not found")}
	default:
		return http.StatusInternalServerError, ErrorResponse{Error: "internal_error", Message: internalErrorMessage}
	}
}

// WriteError translates err and writes exactly one response. Store failures are logged with their cause.
func WriteError(logger logrus.FieldLogger, w http.ResponseWriter, r *http.Request, err error) {
	status, body := TranslateError(err)
	if logger != nil {
		entry := logger.WithFields(logrus.Fields{
			"request_id": middleware.GetReqID(r.Context()),
			"method":     r.Method,
			"path":       r.URL.Path,
			"status":     status,
		})
		if status >= http.StatusInternalServerError {
			entry.WithError(err).Error("request failed")
		} else {
			entry.WithField("kind", domain.KindOf(err)).Debug(body.Message)
		}
	}
	WriteJSON(logger, w, status, body)
}

func asDomainError(err error) (*domain.Error, bool) {
	var e *domain.Error
	if errors.As(err, &e) && e != nil {
		return e, true
	}
	return nil, false
}

func orDefault(v, fallback string) string {
	if v == "" {
		return fallback
	}
	return v
}
