package middleware

import (
	"context"
	"errors"
	"net/http"
	"time"

	"github.com/labstack/echo/v4"
	echomw "github.com/labstack/echo/v4/middleware"
	"github.com/rs/zerolog"
)

type TimeoutConfig struct {
	Timeout time.Duration
	// Skipper selects requests that run without a deadline.
	Skipper echomw.Skipper
	Logger  zerolog.Logger
}

// RequestTimeout puts a deadline on the request context. A handler that
// has not returned by then gets a 504 written on its behalf; repository
// calls observe the cancelled context and abort their queries.
func RequestTimeout(cfg TimeoutConfig) echo.MiddlewareFunc {
	if cfg.Skipper == nil {
		cfg.Skipper = echomw.DefaultSkipper
	}
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			if cfg.Skipper(c) {
				return next(c)
			}

			ctx, cancel := context.WithTimeout(c.Request().Context(), cfg.Timeout)
			defer cancel()
			c.SetRequest(c.Request().WithContext(ctx))

			done := make(chan error, 1)
			go func() { done <- next(c) }()

			select {
			case err := <-done:
				return err
			case <-ctx.Done():
				if !errors.Is(ctx.Err(), context.DeadlineExceeded) {
					return ctx.Err()
				}
				cfg.Logger.Warn().
					Str("request_id", c.Response().Header().Get(RequestIDHeader)).
					Str("path", c.Request().URL.Path).
					Dur("timeout", cfg.Timeout).
					Msg("request timed out")
				return writeError(c, http.StatusGatewayTimeout, "request took too long")
			}
		}
	}
}
