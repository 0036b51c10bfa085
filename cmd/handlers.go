package cmd

import (
	"errors"
	"net/http"

	"github.com/labstack/echo/v4"
	"github.com/sirupsen/logrus"

	"evalgo.org/featureinfo/internal/domain"
	"evalgo.org/featureinfo/internal/federation"
	"evalgo.org/featureinfo/internal/operations"
)

// HeaderDescription carries the description of bodiless responses
const HeaderDescription = "X-Description"

// successBody is the JSON body of a successful get
type successBody struct {
	Meta     domain.MetadataRecord `json:"meta"`
	Time     any                   `json:"time,omitempty"`
	Warnings []string              `json:"warnings,omitempty"`
}

// descriptionBody is the JSON body of every other response
type descriptionBody struct {
	Description string `json:"description"`
}

// statusFor maps an outcome code to its HTTP status
func statusFor(code domain.Code) int {
	switch code {
	case domain.CodeOK:
		return http.StatusOK
	case domain.CodeBadInput:
		return http.StatusBadRequest
	case domain.CodeNoContent:
		return http.StatusNoContent
	case domain.CodeUnsupportedRoute:
		return http.StatusNotImplemented
	default:
		return http.StatusInternalServerError
	}
}

// routeHandler binds the request and dispatches it to a named route
func routeHandler(ops *operations.Registry, route string) echo.HandlerFunc {
	return func(c echo.Context) error {
		var req domain.Request
		if route == operations.RouteGet {
			if err := c.Bind(&req); err != nil {
				return writeResponse(c, operations.Describe(domain.CodeBadInput, federation.DescriptionBadInput))
			}
		}
		return writeResponse(c, ops.Handle(c.Request().Context(), route, req))
	}
}

// unsupportedHandler answers every path or method without a registered route
func unsupportedHandler(ops *operations.Registry) echo.HandlerFunc {
	return func(c echo.Context) error {
		return writeResponse(c, ops.Unsupported(c.Request().Method, c.Request().URL.Path))
	}
}

func writeResponse(c echo.Context, resp operations.Response) error {
	status := statusFor(resp.Code)

	if status == http.StatusNoContent {
		if resp.Description != "" {
			c.Response().Header().Set(HeaderDescription, resp.Description)
		}
		return c.NoContent(status)
	}

	if resp.Code == domain.CodeOK && resp.Outcome != nil {
		o := resp.Outcome
		body := successBody{Meta: o.Meta, Warnings: o.Warnings}
		if body.Meta == nil {
			body.Meta = domain.MetadataRecord{}
		}
		if o.HasTime {
			samples := o.Time
			if samples == nil {
				samples = []domain.TaggedSample{}
			}
			body.Time = samples
		}
		return c.JSON(status, body)
	}

	return c.JSON(status, descriptionBody{Description: resp.Description})
}

// healthHandler reports liveness and the build version
func healthHandler(c echo.Context) error {
	return c.JSON(http.StatusOK, map[string]string{"status": "healthy", "version": version})
}

// errorHandler renders echo errors with the description body used by all routes
func errorHandler(logger logrus.FieldLogger) echo.HTTPErrorHandler {
	return func(err error, c echo.Context) {
		if c.Response().Committed {
			return
		}

		status := http.StatusInternalServerError
		description := "Internal server error."
		var he *echo.HTTPError
		if errors.As(err, &he) {
			status = he.Code
			if msg, ok := he.Message.(string); ok {
				description = msg
			} else {
				description = http.StatusText(status)
			}
		} else {
			logger.WithError(err).Error("Unhandled request error")
		}

		if c.Request().Method == http.MethodHead {
			_ = c.NoContent(status)
			return
		}
		_ = c.JSON(status, descriptionBody{Description: description})
	}
}
