package httpapi

import (
	"errors"
	"log/slog"
	"net/http"

	"github.com/labstack/echo/v4"

	"github.com/roach88/lotetrace/internal/trace"
)

// ErrorBody is the JSON body of every error response.
type ErrorBody struct {
	Error ErrorDetail `json:"error"`
}

// ErrorDetail carries the error code and message.
type ErrorDetail struct {
	Code    string `json:"code"`
	Message string `json:"message"`
}

// StatusFor maps a store error to an HTTP status.
func StatusFor(err error) int {
	switch trace.CodeOf(err) {
	case trace.CodeNotFound:
		return http.StatusNotFound
	case trace.CodeAlreadyExists:
		return http.StatusConflict
	case trace.CodeInvalidArgument:
		return http.StatusBadRequest
	case trace.CodeBackendUnavailable:
		return http.StatusServiceUnavailable
	default:
		return http.StatusInternalServerError
	}
}

func errorHandler(logger *slog.Logger) echo.HTTPErrorHandler {
	return func(err error, c echo.Context) {
		if c.Response().Committed {
			return
		}

		status := StatusFor(err)
		detail := ErrorDetail{Code: string(trace.CodeOf(err)), Message: err.Error()}

		var he *echo.HTTPError
		if errors.As(err, &he) {
			status = he.Code
			detail = ErrorDetail{Code: http.StatusText(he.Code), Message: http.StatusText(he.Code)}
			if msg, ok := he.Message.(string); ok {
				detail.Message = msg
			}
		}
		if detail.Code == "" {
			detail.Code = "INTERNAL"
		}
		if status >= http.StatusInternalServerError {
			logger.Error("request error", "path", c.Path(), "status", status, "error", err)
		}

		var writeErr error
		if c.Request().Method == http.MethodHead {
			writeErr = c.NoContent(status)
		} else {
			writeErr = c.JSON(status, ErrorBody{Error: detail})
		}
		if writeErr != nil {
			logger.Error("write error response", "error", writeErr)
		}
	}
}
