package middleware

import (
	"strconv"

	"github.com/deppfellow/booking-api/internal/metrics"
	"github.com/labstack/echo/v4"
)

// Metrics counts requests per route template, method and final status.
func Metrics() echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			err := next(c)

			path := c.Path()
			if path == "" {
				path = "unmatched"
			}

			metrics.HTTPRequestsTotal.
				WithLabelValues(path, c.Request().Method, strconv.Itoa(responseStatus(c, err))).
				Inc()

			return err
		}
	}
}
