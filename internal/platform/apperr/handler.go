package apperr

import (
	"errors"
	"net/http"

	"github.com/labstack/echo/v4"
	"github.com/rs/zerolog"
)

type errorBody struct {
	Error  string `json:"error"`
	Reason string `json:"reason,omitempty"`
}

// EchoErrorHandler returns an echo.HTTPErrorHandler that maps taxonomy
// errors to JSON responses. Gate and validation failures are surfaced
// verbatim (reason code plus message); everything unclassified becomes an
// opaque 500 so internal detail never leaks.
func EchoErrorHandler(logger zerolog.Logger) echo.HTTPErrorHandler {
	return func(err error, c echo.Context) {
		if c.Response().Committed {
			return
		}

		var he *echo.HTTPError
		if errors.As(err, &he) {
			msg, _ := he.Message.(string)
			if msg == "" {
				msg = http.StatusText(he.Code)
			}
			_ = c.JSON(he.Code, errorBody{Error: msg})
			return
		}

		status := HTTPStatus(err)
		body := errorBody{Error: err.Error(), Reason: ReasonOf(err)}
		if status == http.StatusInternalServerError {
			logger.Error().Err(err).
				Str("method", c.Request().Method).
				Str("path", c.Request().URL.Path).
				Msg("unhandled error")
			body = errorBody{Error: "internal server error"}
		}
		_ = c.JSON(status, body)
	}
}
