package controllers

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/angelmondragon/backoffice-backend/internal/configurations"
	"github.com/angelmondragon/backoffice-backend/pkg/cache"
	"github.com/angelmondragon/backoffice-backend/pkg/db/dbtest"
	"github.com/angelmondragon/backoffice-backend/pkg/enums"
)

func newConfigurationService(t *testing.T) *configurations.Service {
	t.Helper()
	conn := dbtest.Open(t)
	svc, err := configurations.NewService(configurations.NewRepository(conn), cache.NewMemory(time.Minute), testLogger())
	if err != nil {
		t.Fatalf("new service: %v", err)
	}
	return svc
}

func upsertConfiguration(t *testing.T, svc *configurations.Service, role enums.UserRole, body string) *httptest.ResponseRecorder {
	t.Helper()
	req := httptest.NewRequest(http.MethodPost, "/api/v1/configurations", strings.NewReader(body))
	req = withActor(req, actorWithRole(role), nil)
	rec := httptest.NewRecorder()
	ConfigurationUpsert(svc, testLogger()).ServeHTTP(rec, req)
	return rec
}

func TestConfigurationUpsertAcceptsRawAndQuotedValues(t *testing.T) {
	svc := newConfigurationService(t)

	rec := upsertConfiguration(t, svc, enums.UserRoleAdmin, `{"key":"feature_quotes","value":false,"type":"boolean","category":"features"}`)
	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d: %s", rec.Code, rec.Body.String())
	}
	var resp struct {
		Data configurations.ConfigurationDTO `json:"data"`
	}
	if err := json.Unmarshal(rec.Body.Bytes(), &resp); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if resp.Data.Value != "false" || resp.Data.Type != enums.ConfigTypeBoolean {
		t.Fatalf("unexpected configuration %+v", resp.Data)
	}

	rec = upsertConfiguration(t, svc, enums.UserRoleAdmin, `{"key":"company_name","value":"Casa do Construtor","category":"company"}`)
	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d: %s", rec.Code, rec.Body.String())
	}
	if !strings.Contains(rec.Body.String(), `"value":"Casa do Construtor"`) {
		t.Fatalf("expected unquoted value, got %s", rec.Body.String())
	}
}

func TestConfigurationUpsertRejections(t *testing.T) {
	svc := newConfigurationService(t)

	if rec := upsertConfiguration(t, svc, enums.UserRoleManager, `{"key":"company_name","value":"X"}`); rec.Code != http.StatusForbidden {
		t.Fatalf("expected 403 for manager, got %d", rec.Code)
	}

	rec := upsertConfiguration(t, svc, enums.UserRoleAdmin, `{"key":"Bad Key","value":"x","type":"color"}`)
	if rec.Code != http.StatusBadRequest {
		t.Fatalf("expected 400, got %d", rec.Code)
	}
	env := decodeError(t, rec)
	if len(env.Details) != 2 {
		t.Fatalf("expected key and type details, got %v", env.Details)
	}

	if rec := upsertConfiguration(t, svc, enums.UserRoleAdmin, `{"key":"company_name"}`); rec.Code != http.StatusBadRequest {
		t.Fatalf("expected 400 without value, got %d", rec.Code)
	}
}

func TestConfigurationListAndDelete(t *testing.T) {
	svc := newConfigurationService(t)
	admin := actorWithRole(enums.UserRoleAdmin)
	if rec := upsertConfiguration(t, svc, enums.UserRoleAdmin, `{"key":"company_phone","value":"1133334444","category":"company"}`); rec.Code != http.StatusOK {
		t.Fatalf("seed failed: %d", rec.Code)
	}

	rec := httptest.NewRecorder()
	ConfigurationList(svc, testLogger()).ServeHTTP(rec, withActor(httptest.NewRequest(http.MethodGet, "/api/v1/configurations?category=company", nil), admin, nil))
	if rec.Code != http.StatusOK || !strings.Contains(rec.Body.String(), "company_phone") {
		t.Fatalf("unexpected list response %d: %s", rec.Code, rec.Body.String())
	}

	rec = httptest.NewRecorder()
	ConfigurationList(svc, testLogger()).ServeHTTP(rec, withActor(httptest.NewRequest(http.MethodGet, "/api/v1/configurations?category=colors", nil), admin, nil))
	if rec.Code != http.StatusBadRequest {
		t.Fatalf("expected 400 for unknown category, got %d", rec.Code)
	}

	del := func() int {
		rec := httptest.NewRecorder()
		req := withActor(httptest.NewRequest(http.MethodDelete, "/api/v1/configurations/company_phone", nil), admin, map[string]string{"key": "company_phone"})
		ConfigurationDelete(svc, testLogger()).ServeHTTP(rec, req)
		return rec.Code
	}
	if code := del(); code != http.StatusNoContent {
		t.Fatalf("expected 204, got %d", code)
	}
	if code := del(); code != http.StatusNotFound {
		t.Fatalf("expected 404 on second delete, got %d", code)
	}

	rec = httptest.NewRecorder()
	req := withActor(httptest.NewRequest(http.MethodGet, "/api/v1/configurations/company_phone", nil), admin, map[string]string{"key": "company_phone"})
	ConfigurationDetail(svc, testLogger()).ServeHTTP(rec, req)
	if rec.Code != http.StatusNotFound {
		t.Fatalf("expected 404 after delete, got %d", rec.Code)
	}
}
