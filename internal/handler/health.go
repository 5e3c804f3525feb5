package handler

import (
	"context"
	"net/http"
	"time"

	"github.com/labstack/echo/v4"
)

// Pinger reports whether a backing service is reachable.
type Pinger interface {
	Ping(ctx context.Context) error
}

// Health reports liveness. It returns "ok" while the process serves
// requests.
func Health(c echo.Context) error {
	return c.String(http.StatusOK, "ok")
}

// Ready returns a readiness check that pings the store.
func Ready(store Pinger) echo.HandlerFunc {
	return func(c echo.Context) error {
		ctx, cancel := context.WithTimeout(c.Request().Context(), 2*time.Second)
		defer cancel()
		if err := store.Ping(ctx); err != nil {
			return c.JSON(http.StatusServiceUnavailable, echo.Map{"status": "unavailable", "error": err.Error()})
		}
		return c.JSON(http.StatusOK, echo.Map{"status": "ready"})
	}
}
