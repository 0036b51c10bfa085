package operations

import (
	"context"

	"github.com/sirupsen/logrus"

	"evalgo.org/featureinfo/internal/domain"
)

// Status route descriptions
const (
	DescriptionReady     = "Ready to serve."
	DescriptionNotReady  = "Could not initialise the service."
	DescriptionRefreshed = "Endpoint discovery complete."
	DescriptionRefreshNo = "Endpoint discovery failed."
)

// GetHandler runs the feature info pipeline
type GetHandler struct {
	BaseHandler
}

func NewGetHandler(svc Service) Handler {
	return &GetHandler{BaseHandler: BaseHandler{Service: svc}}
}

func (h *GetHandler) Handle(ctx context.Context, req domain.Request) Response {
	outcome := h.Service.Handle(ctx, req)
	return Response{
		Code:        outcome.Code(),
		Description: outcome.Description,
		Outcome:     &outcome,
	}
}

// StatusHandler reports readiness
type StatusHandler struct {
	BaseHandler
	logger logrus.FieldLogger
}

func NewStatusHandler(svc Service, logger logrus.FieldLogger) Handler {
	return &StatusHandler{BaseHandler: BaseHandler{Service: svc}, logger: logger}
}

func (h *StatusHandler) Handle(ctx context.Context, req domain.Request) Response {
	if err := h.Service.Status(ctx); err != nil {
		h.logger.WithError(err).Error("Service is not ready")
		return Describe(domain.CodeInternalError, DescriptionNotReady)
	}
	return Describe(domain.CodeOK, DescriptionReady)
}

// RefreshHandler re-runs endpoint discovery
type RefreshHandler struct {
	BaseHandler
	logger logrus.FieldLogger
}

func NewRefreshHandler(svc Service, logger logrus.FieldLogger) Handler {
	return &RefreshHandler{BaseHandler: BaseHandler{Service: svc}, logger: logger}
}

func (h *RefreshHandler) Handle(ctx context.Context, req domain.Request) Response {
	if err := h.Service.Refresh(ctx); err != nil {
		h.logger.WithError(err).Error("Endpoint refresh failed")
		return Describe(domain.CodeInternalError, DescriptionRefreshNo)
	}
	return Describe(domain.CodeOK, DescriptionRefreshed)
}
