package operations

import (
	"context"
	"strings"

	"github.com/sirupsen/logrus"

	"evalgo.org/featureinfo/internal/domain"
)

// DescriptionUnsupportedRoute is returned for every unknown route
const DescriptionUnsupportedRoute = "Unsupported route."

// Registry manages route handlers
type Registry struct {
	handlers map[string]Handler
	logger   logrus.FieldLogger
}

// NewRegistry creates a registry with the get, status and refresh routes
func NewRegistry(svc Service, logger logrus.FieldLogger) *Registry {
	reg := &Registry{
		handlers: make(map[string]Handler),
		logger:   logger,
	}

	reg.Register(RouteGet, NewGetHandler(svc))
	reg.Register(RouteStatus, NewStatusHandler(svc, logger))
	reg.Register(RouteRefresh, NewRefreshHandler(svc, logger))

	return reg
}

// Register registers a handler for a route
func (r *Registry) Register(route string, handler Handler) {
	r.handlers[route] = handler
}

// Handle routes the request to the handler of route.
// Unknown routes yield UNSUPPORTED_ROUTE.
func (r *Registry) Handle(ctx context.Context, route string, req domain.Request) Response {
	handler, exists := r.handlers[normalizeRoute(route)]
	if !exists {
		r.logger.WithField("route", route).Info("Unsupported route requested")
		return Describe(domain.CodeUnsupportedRoute, DescriptionUnsupportedRoute)
	}

	return handler.Handle(ctx, req)
}

// Unsupported answers a request for a path no route is registered on.
// It never dispatches, so paths that merely resemble a route name cannot
// bypass the middleware of the real route.
func (r *Registry) Unsupported(method, path string) Response {
	r.logger.WithFields(logrus.Fields{"method": method, "path": path}).Info("Unsupported route requested")
	return Describe(domain.CodeUnsupportedRoute, DescriptionUnsupportedRoute)
}

// GetHandler returns the handler for a route (useful for testing)
func (r *Registry) GetHandler(route string) (Handler, bool) {
	handler, exists := r.handlers[normalizeRoute(route)]
	return handler, exists
}

func normalizeRoute(route string) string {
	return strings.ToLower(strings.Trim(route, "/ "))
}
