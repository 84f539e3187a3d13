package controllers

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/angelmondragon/backoffice-backend/internal/policy"
	"github.com/angelmondragon/backoffice-backend/internal/reports"
	"github.com/angelmondragon/backoffice-backend/pkg/enums"
)

type stubReportService struct {
	query *reports.TopProductsQuery
	actor policy.Actor
}

func (s *stubReportService) TopProducts(_ context.Context, actor policy.Actor, query reports.TopProductsQuery) (*reports.TopProductsDTO, error) {
	s.actor = actor
	s.query = &query
	return &reports.TopProductsDTO{}, nil
}

func (s *stubReportService) Dashboard(_ context.Context, actor policy.Actor) (*reports.DashboardDTO, error) {
	s.actor = actor
	return &reports.DashboardDTO{}, nil
}

func TestReportTopProductsDefaultsAndBounds(t *testing.T) {
	stub := &stubReportService{}
	req := withActor(httptest.NewRequest(http.MethodGet, "/api/v1/reports/top-products", nil), actorWithRole(enums.UserRoleManager), nil)
	rec := httptest.NewRecorder()

	ReportTopProducts(stub, testLogger()).ServeHTTP(rec, req)

	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", rec.Code)
	}
	if stub.query == nil || stub.query.Days != reports.DefaultDays || stub.query.Limit != reports.DefaultLimit {
		t.Fatalf("unexpected query %+v", stub.query)
	}

	for _, raw := range []string{"days=0", "days=366", "limit=101", "days=abc"} {
		stub := &stubReportService{}
		req := withActor(httptest.NewRequest(http.MethodGet, "/api/v1/reports/top-products?"+raw, nil), actorWithRole(enums.UserRoleManager), nil)
		rec := httptest.NewRecorder()

		ReportTopProducts(stub, testLogger()).ServeHTTP(rec, req)

		if rec.Code != http.StatusBadRequest {
			t.Fatalf("%s: expected 400, got %d", raw, rec.Code)
		}
		if stub.query != nil {
			t.Fatalf("%s: service should not be called", raw)
		}
	}
}

func TestReportDashboardForwardsActor(t *testing.T) {
	stub := &stubReportService{}
	actor := actorWithRole(enums.UserRoleSalesperson)
	req := withActor(httptest.NewRequest(http.MethodGet, "/api/v1/reports/dashboard", nil), actor, nil)
	rec := httptest.NewRecorder()

	ReportDashboard(stub, testLogger()).ServeHTTP(rec, req)

	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", rec.Code)
	}
	if stub.actor != actor {
		t.Fatalf("expected actor %+v, got %+v", actor, stub.actor)
	}
}
