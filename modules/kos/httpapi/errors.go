package httpapi

import (
	"errors"
	"log/slog"
	"net/http"

	"github.com/dmitrymomot/koskit/modules/kos"
	"github.com/dmitrymomot/koskit/pkg/validator"
)

// HTTPError is a transport failure with a status code and a stable key.
type HTTPError struct {
	Code int
	Key  string
}

func (e HTTPError) Error() string { return e.Key }

var (
	ErrBadRequest          = HTTPError{Code: http.StatusBadRequest, Key: "bad_request"}
	ErrUnauthorized        = HTTPError{Code: http.StatusUnauthorized, Key: "unauthorized"}
	ErrUnsupportedMedia    = HTTPError{Code: http.StatusUnsupportedMediaType, Key: "unsupported_media_type"}
	ErrRequestTooLarge     = HTTPError{Code: http.StatusRequestEntityTooLarge, Key: "request_entity_too_large"}
	ErrInternalServerError = HTTPError{Code: http.StatusInternalServerError, Key: "internal_error"}
)

// errorInfo is an error classified for the response and the log.
type errorInfo struct {
	status  int
	code    string
	message string
	details map[string][]string
	meta    map[string]any
	level   slog.Level
}

func classifyError(err error) errorInfo {
	info := errorInfo{
		status:  http.StatusInternalServerError,
		code:    ErrInternalServerError.Key,
		message: "an error occurred processing your request",
		level:   slog.LevelError,
	}

	var (
		httpErr  HTTPError
		quotaErr *kos.QuotaExceededError
	)
	switch {
	case errors.As(err, &httpErr):
		info.status, info.code, info.message = httpErr.Code, httpErr.Key, err.Error()
	case errors.As(err, &quotaErr):
		info.status, info.code, info.message = http.StatusForbidden, "quota_exceeded", quotaErr.Error()
		info.meta = map[string]any{
			"resource": quotaErr.Resource,
			"limit":    quotaErr.Limit,
			"current":  quotaErr.Current,
		}
	case errors.Is(err, kos.ErrValidation):
		info.status, info.code, info.message = http.StatusUnprocessableEntity, "validation_error", "validation failed"
		if fields := validator.ExtractValidationErrors(err); len(fields) > 0 {
			info.details = fields.Map()
		}
	case errors.Is(err, kos.ErrNotFound):
		info.status, info.code, info.message = http.StatusNotFound, "not_found", "resource not found"
	case errors.Is(err, kos.ErrForbidden):
		info.status, info.code, info.message = http.StatusForbidden, "forbidden", "operation not permitted"
	case errors.Is(err, kos.ErrInvalidStateTransition):
		info.status, info.code, info.message = http.StatusConflict, "invalid_state_transition", transitionMessage(err)
	case errors.Is(err, kos.ErrReferentialConflict):
		info.status, info.code, info.message = http.StatusConflict, "referential_conflict", conflictMessage(err)
	}

	if info.status < http.StatusInternalServerError {
		info.level = slog.LevelWarn
	}
	return info
}

func transitionMessage(err error) string {
	var te *kos.TransitionError
	if errors.As(err, &te) {
		return te.Error()
	}
	return kos.ErrInvalidStateTransition.Error()
}

func conflictMessage(err error) string {
	var ce *kos.ConflictError
	if errors.As(err, &ce) {
		return ce.Error()
	}
	return kos.ErrReferentialConflict.Error()
}

func errorResponse(info errorInfo, requestID string) Response {
	r := &jsonResponse{
		status: info.status,
		body: Envelope{
			Meta: info.meta,
			Error: &ErrorDetail{
				Code:    info.code,
				Message: info.message,
				Details: info.details,
			},
		},
	}
	if requestID != "" {
		WithMeta("request_id", requestID)(r)
	}
	return r
}
