// Prometheus compatible telemetry endpoint
package telemetry

import (
	"context"
	"log/slog"
	"net/http"
	"time"

	"github.com/labstack/echo/v4"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/scenecap/scenecap/internal/logging"
)

const metricsPath = "/metrics"

// Endpoint serves capture metrics and a liveness probe over HTTP.
type Endpoint struct {
	echo          *echo.Echo
	ListenAddress string
	logger        *slog.Logger
}

// NewEndpoint creates a telemetry endpoint backed by the given registry.
func NewEndpoint(listenAddress string, registry *prometheus.Registry) *Endpoint {
	e := echo.New()
	e.HideBanner = true
	e.HidePort = true

	e.GET(metricsPath, echo.WrapHandler(
		promhttp.HandlerFor(registry, promhttp.HandlerOpts{Registry: registry})))
	e.GET("/healthz", func(c echo.Context) error {
		return c.JSON(http.StatusOK, map[string]string{"status": "ok"})
	})

	return &Endpoint{
		echo:          e,
		ListenAddress: listenAddress,
		logger:        logging.ForService("telemetry"),
	}
}

// Start runs the HTTP server until ctx is cancelled, then shuts it down
// gracefully. The returned error is nil on a clean shutdown.
func (e *Endpoint) Start(ctx context.Context) error {
	errChan := make(chan error, 1)
	go func() {
		e.logger.Info("telemetry endpoint starting", "listen", e.ListenAddress)
		if err := e.echo.Start(e.ListenAddress); err != nil && err != http.ErrServerClosed {
			errChan <- err
			return
		}
		errChan <- nil
	}()

	select {
	case <-ctx.Done():
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		if err := e.echo.Shutdown(shutdownCtx); err != nil {
			e.logger.Warn("telemetry shutdown failed", "error", err)
			return err
		}
		return nil
	case err := <-errChan:
		return err
	}
}
