package middleware

import (
	"errors"
	"net/http"

	"github.com/labstack/echo/v4"
	"github.com/rs/zerolog"
)

// errorBody is the JSON error envelope shared with the domain handlers.
type errorBody struct {
	Error string `json:"error"`
}

func writeError(c echo.Context, status int, msg string) error {
	if c.Response().Committed {
		return nil
	}
	return c.JSON(status, errorBody{Error: msg})
}

// ErrorHandler renders every error as the JSON envelope. Structured
// HTTPError messages are written as they are; anything that is not an
// HTTPError becomes an opaque 500.
func ErrorHandler(logger zerolog.Logger) echo.HTTPErrorHandler {
	return func(err error, c echo.Context) {
		if c.Response().Committed {
			return
		}

		var he *echo.HTTPError
		if !errors.As(err, &he) {
			rid, _ := c.Get("request_id").(string)
			logger.Error().Err(err).
				Str("request_id", rid).
				Str("method", c.Request().Method).
				Str("path", c.Request().URL.Path).
				Msg("unhandled error")
			he = &echo.HTTPError{Code: http.StatusInternalServerError, Message: "internal server error"}
		}

		var body interface{}
		switch m := he.Message.(type) {
		case string:
			body = errorBody{Error: m}
		case error:
			body = errorBody{Error: m.Error()}
		case nil:
			body = errorBody{Error: http.StatusText(he.Code)}
		default:
			body = m
		}

		var werr error
		if c.Request().Method == http.MethodHead {
			werr = c.NoContent(he.Code)
		} else {
			werr = c.JSON(he.Code, body)
		}
		if werr != nil {
			logger.Error().Err(werr).Msg("write error response")
		}
	}
}
