package operations

import (
	"context"
	"errors"
	"testing"

	"github.com/sirupsen/logrus"

	"evalgo.org/featureinfo/internal/domain"
)

type fakeService struct {
	outcome   domain.Outcome
	statusErr error
	refreshes int
}

func (f *fakeService) Handle(ctx context.Context, req domain.Request) domain.Outcome {
	return f.outcome
}

func (f *fakeService) Status(ctx context.Context) error { return f.statusErr }

func (f *fakeService) Refresh(ctx context.Context) error {
	f.refreshes++
	return f.statusErr
}

func newTestRegistry(svc Service) *Registry {
	logger := logrus.New()
	logger.SetLevel(logrus.PanicLevel)
	return NewRegistry(svc, logger)
}

func TestRegistryRoutes(t *testing.T) {
	svc := &fakeService{outcome: domain.Outcome{Kind: domain.OutcomeNoClassFound, Description: "none"}}
	reg := newTestRegistry(svc)

	tests := []struct {
		route string
		want  domain.Code
	}{
		{"get", domain.CodeNoContent},
		{"/GET/", domain.CodeNoContent},
		{"status", domain.CodeOK},
		{"refresh", domain.CodeOK},
		{"delete", domain.CodeUnsupportedRoute},
		{"", domain.CodeUnsupportedRoute},
	}

	for _, tt := range tests {
		t.Run(tt.route, func(t *testing.T) {
			resp := reg.Handle(context.Background(), tt.route, domain.Request{Identifier: "urn:x"})
			if resp.Code != tt.want {
				t.Errorf("route %q: expected %s, got %s", tt.route, tt.want, resp.Code)
			}
		})
	}

	if svc.refreshes != 1 {
		t.Errorf("expected one refresh, got %d", svc.refreshes)
	}
}

func TestGetHandlerCarriesOutcome(t *testing.T) {
	svc := &fakeService{outcome: domain.Outcome{Kind: domain.OutcomeSuccess, Meta: domain.MetadataRecord{}}}
	resp := newTestRegistry(svc).Handle(context.Background(), RouteGet, domain.Request{})

	if resp.Outcome == nil || resp.Outcome.Kind != domain.OutcomeSuccess {
		t.Fatalf("expected success outcome, got %+v", resp)
	}
}

func TestStatusNotReady(t *testing.T) {
	svc := &fakeService{statusErr: errors.New("root namespace not found")}
	reg := newTestRegistry(svc)

	resp := reg.Handle(context.Background(), RouteStatus, domain.Request{})
	if resp.Code != domain.CodeInternalError || resp.Description != DescriptionNotReady {
		t.Errorf("unexpected status response %+v", resp)
	}

	resp = reg.Handle(context.Background(), RouteRefresh, domain.Request{})
	if resp.Code != domain.CodeInternalError {
		t.Errorf("expected refresh failure, got %+v", resp)
	}
}

func TestGetHandlerLookup(t *testing.T) {
	reg := newTestRegistry(&fakeService{})
	for _, route := range []string{RouteGet, RouteStatus, RouteRefresh} {
		if _, ok := reg.GetHandler(route); !ok {
			t.Errorf("expected handler for %s", route)
		}
	}
	if _, ok := reg.GetHandler("migrate"); ok {
		t.Error("unexpected handler for migrate")
	}
}

func TestUnsupportedNeverDispatches(t *testing.T) {
	svc := &fakeService{}
	reg := newTestRegistry(svc)

	for _, path := range []string{"/refresh", "/REFRESH", "/get", "/status"} {
		resp := reg.Unsupported("PUT", path)
		if resp.Code != domain.CodeUnsupportedRoute || resp.Description != DescriptionUnsupportedRoute {
			t.Errorf("%s: expected unsupported route, got %s %q", path, resp.Code, resp.Description)
		}
	}
	if svc.refreshes != 0 {
		t.Errorf("expected no refresh, got %d", svc.refreshes)
	}
}
