// Package api exposes the narrow operational HTTP surface every teacher
// service carries: health probe, swagger UI, and an explicit snapshot
// endpoint. It is not the user-facing DDS query API, which stays an
// external collaborator.
package api

import (
	"context"
	"net/http"

	"github.com/labstack/echo/v4"
	"github.com/labstack/echo/v4/middleware"
	echoSwagger "github.com/swaggo/echo-swagger"
	"go.opentelemetry.io/contrib/instrumentation/github.com/labstack/echo/otelecho"
	"go.uber.org/zap"

	"github.com/arc-self/dds-statsbackend/internal/graph"
)

// Server is the operational HTTP surface wrapping an echo.Echo instance.
type Server struct {
	echo   *echo.Echo
	graph  *graph.Graph
	logger *zap.Logger
}

// New builds a Server bound to g, instrumented with otelecho tracing and
// the same request-logging/recover middleware chain as every teacher
// service's main.go.
func New(g *graph.Graph, logger *zap.Logger, serviceName string) *Server {
	e := echo.New()
	e.HideBanner = true

	e.Use(otelecho.Middleware(serviceName))
	e.Use(middleware.RequestLoggerWithConfig(middleware.RequestLoggerConfig{
		LogURI:    true,
		LogStatus: true,
		LogValuesFunc: func(c echo.Context, v middleware.RequestLoggerValues) error {
			logger.Info("HTTP request",
				zap.String("URI", v.URI),
				zap.Int("status", v.Status),
			)
			return nil
		},
	}))
	e.Use(middleware.Recover())
	e.Use(nullToEmptyObject())

	s := &Server{echo: e, graph: g, logger: logger}

	e.GET("/healthz", s.handleHealthz)
	e.GET("/snapshot", s.handleSnapshot)
	e.GET("/metrics", s.handleMetrics)
	e.GET("/swagger/*", echoSwagger.WrapHandler)

	return s
}

// Start begins serving on addr. It blocks until the server stops, returning
// nil after a Shutdown; the caller runs it in a goroutine the way every
// teacher main.go does.
func (s *Server) Start(addr string) error {
	if err := s.echo.Start(addr); err != nil && err != http.ErrServerClosed {
		return err
	}
	return nil
}

// Shutdown gracefully stops the server, delegating to echo.Echo.Shutdown.
func (s *Server) Shutdown(ctx context.Context) error {
	return s.echo.Shutdown(ctx)
}

// Router exposes the underlying http.Handler for testing without binding
// a real listener.
func (s *Server) Router() http.Handler {
	return s.echo
}

func (s *Server) handleHealthz(c echo.Context) error {
	return c.JSON(http.StatusOK, map[string]string{"status": "ok"})
}

// handleSnapshot returns the full EntityGraph dump as JSON, the HTTP
// equivalent of calling Graph.Dump directly: useful for ops inspection
// without going through cmd/statsbackend dump-inspect.
func (s *Server) handleSnapshot(c echo.Context) error {
	return c.JSON(http.StatusOK, s.graph.Dump())
}

// handleMetrics reports a handful of cheap graph-size gauges. Full metric
// export goes through the OTel meter provider (internal/platform/telemetry);
// this endpoint is a lightweight operational sanity check, not a Prometheus
// scrape target.
func (s *Server) handleMetrics(c echo.Context) error {
	snap := s.graph.Dump()
	return c.JSON(http.StatusOK, map[string]int{
		"hosts":        len(snap.Hosts),
		"users":        len(snap.Users),
		"processes":    len(snap.Processes),
		"domains":      len(snap.Domains),
		"topics":       len(snap.Topics),
		"participants": len(snap.Participants),
		"data_readers": len(snap.DataReaders),
		"data_writers": len(snap.DataWriters),
		"locators":     len(snap.Locators),
	})
}
