package handler

import (
	"errors"
	"fmt"
	"log/slog"
	"net/http"

	"github.com/labstack/echo/v4"

	"github.com/iliyamo/knowledgehub/internal/apperr"
)

const hiddenDetail = "Something went wrong on our side"

var kindStatus = map[apperr.Kind]int{
	apperr.KindValidation:         http.StatusBadRequest,
	apperr.KindInvalidCredentials: http.StatusUnauthorized,
	apperr.KindInvalidToken:       http.StatusUnauthorized,
	apperr.KindRevokedToken:       http.StatusUnauthorized,
	apperr.KindForbidden:          http.StatusForbidden,
	apperr.KindNotFound:           http.StatusNotFound,
	apperr.KindConflict:           http.StatusConflict,
	apperr.KindInternal:           http.StatusInternalServerError,
}

// ErrorHandler is installed as echo's HTTPErrorHandler. It is the only place
// domain error kinds are turned into status codes. In production the detail
// of a 500 is replaced with a generic sentence.
func ErrorHandler(production bool, log *slog.Logger) echo.HTTPErrorHandler {
	return func(err error, c echo.Context) {
		if c.Response().Committed {
			return
		}
		status, message, detail := classify(err, production)

		req := c.Request()
		if status >= http.StatusInternalServerError {
			log.ErrorContext(req.Context(), "request failed",
				"method", req.Method, "path", req.URL.Path, "status", status, "err", err)
		} else {
			log.DebugContext(req.Context(), "request rejected",
				"method", req.Method, "path", req.URL.Path, "status", status, "err", err)
		}

		var werr error
		if req.Method == http.MethodHead {
			werr = c.NoContent(status)
		} else {
			werr = fail(c, status, message, detail)
		}
		if werr != nil {
			log.ErrorContext(req.Context(), "write error response", "err", werr)
		}
	}
}

func classify(err error, production bool) (int, string, any) {
	var ae *apperr.Error
	if errors.As(err, &ae) {
		status, ok := kindStatus[ae.Kind]
		if !ok {
			status = http.StatusInternalServerError
		}
		switch ae.Kind {
		case apperr.KindValidation:
			return status, ae.Message, ae.Fields
		case apperr.KindInvalidToken, apperr.KindRevokedToken:
			return status, ae.Message, nil
		case apperr.KindInternal:
			return status, "Internal Server Error", internalDetail(err, production)
		default:
			return status, ae.Message, ae.Message
		}
	}

	var he *echo.HTTPError
	if errors.As(err, &he) {
		switch he.Code {
		case http.StatusNotFound, http.StatusMethodNotAllowed:
			return http.StatusNotFound, "Route not found", nil
		}
		msg := http.StatusText(he.Code)
		if m, ok := he.Message.(string); ok && m != "" {
			msg = m
		} else if he.Message != nil {
			msg = fmt.Sprint(he.Message)
		}
		if he.Code >= http.StatusInternalServerError {
			return he.Code, msg, internalDetail(err, production)
		}
		return he.Code, msg, msg
	}

	return http.StatusInternalServerError, "Internal Server Error", internalDetail(err, production)
}

func internalDetail(err error, production bool) string {
	if production {
		return hiddenDetail
	}
	return err.Error()
}
