package middleware

import (
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"

	apperrors "calciumcli/internal/errors"
)

// Problem represents an RFC 7807 problem details object
type Problem struct {
	Type   string `json:"type"`
	Title  string `json:"title"`
	Status int    `json:"status"`
	Detail string `json:"detail,omitempty"`
	Trace  string `json:"trace_id,omitempty"`
}

// WriteProblem writes p as an application/problem+json response
func WriteProblem(w http.ResponseWriter, p Problem) {
	w.Header().Set("Content-Type", "application/problem+json")
	w.WriteHeader(p.Status)
	json.NewEncoder(w).Encode(p)
}

// Error makes a Problem usable as an error value
func (p Problem) Error() string {
	return p.Title + ": " + p.Detail
}

// ProblemFromError maps application errors to problem details. Client
// errors keep their message; server errors are reported generically.
func ProblemFromError(err error, traceID string) Problem {
	var problem Problem
	var appErr *apperrors.AppError

	switch {
	case errors.As(err, &problem):
		if problem.Trace == "" {
			problem.Trace = traceID
		}
		return problem
	case errors.Is(err, context.DeadlineExceeded):
		return ProblemFromStatus(http.StatusGatewayTimeout, "The request took too long to process", traceID)
	case errors.As(err, &appErr):
		switch appErr.Type {
		case apperrors.ErrTypeMalformedInput:
			p := ProblemFromStatus(http.StatusUnprocessableEntity, appErr.Message, traceID)
			p.Type = "/errors/malformed-input"
			p.Title = "Malformed Input"
			return p
		case apperrors.ErrTypeInvalidParameters, apperrors.ErrTypeValidation:
			p := ProblemFromStatus(http.StatusBadRequest, appErr.Message, traceID)
			p.Type = "/errors/validation-failed"
			p.Title = "Validation Failed"
			return p
		case apperrors.ErrTypeNotFound:
			return ProblemFromStatus(http.StatusNotFound, appErr.Message, traceID)
		}
	}

	return ProblemFromStatus(http.StatusInternalServerError, "An unexpected error occurred", traceID)
}

// ProblemFromStatus creates a Problem from an HTTP status code
func ProblemFromStatus(status int, detail string, traceID string) Problem {
	var title, problemType string

	switch status {
	case http.StatusBadRequest:
		title = "Bad Request"
		problemType = "/errors/bad-request"
	case http.StatusNotFound:
		title = "Not Found"
		problemType = "/errors/not-found"
	case http.StatusMethodNotAllowed:
		title = "Method Not Allowed"
		problemType = "/errors/method-not-allowed"
	case http.StatusRequestEntityTooLarge:
		title = "Request Entity Too Large"
		problemType = "/errors/too-large"
	case http.StatusUnprocessableEntity:
		title = "Unprocessable Entity"
		problemType = "/errors/unprocessable-entity"
	case http.StatusTooManyRequests:
		title = "Too Many Requests"
		problemType = "/errors/rate-limit-exceeded"
	case http.StatusInternalServerError:
		title = "Internal Server Error"
		problemType = "/errors/internal-server-error"
	case http.StatusServiceUnavailable:
		title = "Service Unavailable"
		problemType = "/errors/service-unavailable"
	case http.StatusGatewayTimeout:
		title = "Gateway Timeout"
		problemType = "/errors/gateway-timeout"
	default:
		title = http.StatusText(status)
		problemType = "/errors/unknown"
	}

	return Problem{
		Type:   problemType,
		Title:  title,
		Status: status,
		Detail: detail,
		Trace:  traceID,
	}
}

// NewErrorResponder creates a function that logs err and writes it as an
// RFC 7807 response
func NewErrorResponder(logger *slog.Logger) func(w http.ResponseWriter, r *http.Request, err error) {
	return func(w http.ResponseWriter, r *http.Request, err error) {
		ctx := r.Context()
		problem := ProblemFromError(err, traceID(ctx))

		level := slog.LevelWarn
		if problem.Status >= http.StatusInternalServerError {
			level = slog.LevelError
		}
		logger.Log(ctx, level, "request error",
			slog.String("error", err.Error()),
			slog.Int("status", problem.Status),
			slog.String("method", r.Method),
			slog.String("path", r.URL.Path))

		WriteProblem(w, problem)
	}
}
