package middleware

import (
	"fmt"
	"net/http"
	"strings"

	"github.com/labstack/echo/v4"
	"github.com/rs/zerolog"

	"github.com/carepanel/carepanel/pkg/apperrors"
)

const internalErrorMessage = "internal server error"

// ErrorResponse is the body of every failed request.
type ErrorResponse struct {
	Detail string `json:"detail"`
	Kind   string `json:"kind"`
}

// Render resolves the status and body for err. Internal causes are never
// exposed.
func Render(err error) (int, ErrorResponse) {
	// A framework error wins over any application error it wraps.
	if he, ok := err.(*echo.HTTPError); ok {
		msg := fmt.Sprint(he.Message)
		if he.Code == http.StatusInternalServerError {
			msg = internalErrorMessage
		}
		return he.Code, ErrorResponse{Detail: msg, Kind: kindForStatus(he.Code)}
	}

	if appErr, ok := apperrors.As(err); ok {
		status := appErr.HTTPStatus()
		msg := appErr.Message
		if status >= http.StatusInternalServerError {
			msg = internalErrorMessage
		}
		return status, ErrorResponse{Detail: msg, Kind: string(appErr.Type)}
	}

	return http.StatusInternalServerError, ErrorResponse{
		Detail: internalErrorMessage,
		Kind:   string(apperrors.ErrorTypeInternal),
	}
}

// StatusOf returns the response status err will be rendered with.
func StatusOf(err error) int {
	status, _ := Render(err)
	return status
}

func kindForStatus(status int) string {
	switch status {
	case http.StatusUnauthorized:
		return string(apperrors.ErrorTypeUnauthorized)
	case http.StatusForbidden:
		return string(apperrors.ErrorTypePermissionDenied)
	case http.StatusNotFound:
		return string(apperrors.ErrorTypeNotFound)
	case http.StatusConflict:
		return string(apperrors.ErrorTypeConflict)
	case http.StatusUnprocessableEntity:
		return string(apperrors.ErrorTypeValidation)
	case http.StatusInternalServerError:
		return string(apperrors.ErrorTypeInternal)
	}
	text := http.StatusText(status)
	if text == "" {
		return "ERROR"
	}
	return strings.ToUpper(strings.ReplaceAll(text, " ", "_"))
}

// HTTPErrorHandler renders errors as {"detail", "kind"} JSON. 5xx causes
// are logged with the request id.
func HTTPErrorHandler(logger zerolog.Logger) echo.HTTPErrorHandler {
	return func(err error, c echo.Context) {
		if c.Response().Committed {
			return
		}

		status, body := Render(err)
		if status >= http.StatusInternalServerError {
			rid, _ := c.Get("request_id").(string)
			logger.Error().Err(err).
				Str("request_id", rid).
				Str("path", c.Request().URL.Path).
				Msg("request failed")
		}
		if status == http.StatusUnauthorized {
			c.Response().Header().Set(echo.HeaderWWWAuthenticate, "Bearer")
		}

		var werr error
		if c.Request().Method == http.MethodHead {
			werr = c.NoContent(status)
		} else {
			werr = c.JSON(status, body)
		}
		if werr != nil {
			logger.Error().Err(werr).Msg("failed to write error response")
		}
	}
}
