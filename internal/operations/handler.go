// Package operations routes named feature info operations to their handlers.
package operations

import (
	"context"

	"evalgo.org/featureinfo/internal/domain"
)

// Route names
const (
	RouteGet     = "get"
	RouteStatus  = "status"
	RouteRefresh = "refresh"
)

// Service is the feature info pipeline the handlers delegate to
type Service interface {
	Handle(ctx context.Context, req domain.Request) domain.Outcome
	Status(ctx context.Context) error
	Refresh(ctx context.Context) error
}

// Handler defines the interface for route handlers
type Handler interface {
	// Handle executes the route and returns its response
	Handle(ctx context.Context, req domain.Request) Response
}

// Response is the result of one route. Outcome is set by routes that run the pipeline.
type Response struct {
	Code        domain.Code
	Description string
	Outcome     *domain.Outcome
}

// BaseHandler provides common functionality for all handlers
type BaseHandler struct {
	Service Service
}

// Describe builds a response that only carries a description
func Describe(code domain.Code, description string) Response {
	return Response{Code: code, Description: description}
}
