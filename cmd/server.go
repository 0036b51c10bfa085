package cmd

import (
	"time"

	"github.com/google/uuid"
	"github.com/labstack/echo/v4"
	"github.com/labstack/echo/v4/middleware"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/sirupsen/logrus"

	"evalgo.org/featureinfo/internal/operations"
)

// newServer registers the public and protected routes on a new echo instance
func newServer(ops *operations.Registry, authCfg authConfig, gatherer prometheus.Gatherer, logger logrus.FieldLogger) *echo.Echo {
	e := echo.New()
	e.HideBanner = true
	e.HidePort = true
	e.HTTPErrorHandler = errorHandler(logger)

	e.Use(middleware.Recover())
	e.Use(middleware.RequestIDWithConfig(middleware.RequestIDConfig{
		Generator: uuid.NewString,
	}))
	e.Use(requestLogger(logger))

	// Public endpoints
	e.GET("/health", healthHandler)
	e.GET("/status", routeHandler(ops, operations.RouteStatus))
	e.GET("/metrics", echo.WrapHandler(promhttp.HandlerFor(gatherer, promhttp.HandlerOpts{})))

	// Protected endpoints
	api := e.Group("", AuthMiddleware(authCfg))
	api.GET("/get", routeHandler(ops, operations.RouteGet))
	api.POST("/get", routeHandler(ops, operations.RouteGet))
	api.POST("/refresh", routeHandler(ops, operations.RouteRefresh), AdminOnlyMiddleware(authCfg.Mode))

	e.Any("/*", unsupportedHandler(ops))

	return e
}

// requestLogger logs one line per request with its correlation id
func requestLogger(logger logrus.FieldLogger) echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			start := time.Now()
			err := next(c)
			if err != nil {
				c.Error(err)
			}

			logger.WithFields(logrus.Fields{
				"request_id": c.Response().Header().Get(echo.HeaderXRequestID),
				"method":     c.Request().Method,
				"path":       c.Path(),
				"status":     c.Response().Status,
				"latency_ms": time.Since(start).Milliseconds(),
			}).Info("Request handled")
			return nil
		}
	}
}
