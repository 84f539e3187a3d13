package controllers

import (
	"context"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/angelmondragon/backoffice-backend/internal/policy"
	productsvc "github.com/angelmondragon/backoffice-backend/internal/products"
	"github.com/angelmondragon/backoffice-backend/pkg/enums"
	pkgerrors "github.com/angelmondragon/backoffice-backend/pkg/errors"
	"github.com/angelmondragon/backoffice-backend/pkg/pagination"
)

type stubProductService struct {
	filters   productsvc.ListFilters
	params    pagination.Params
	created   *productsvc.CreateInput
	actor     policy.Actor
	deletedID uuid.UUID
	err       error
}

func (s *stubProductService) List(_ context.Context, filters productsvc.ListFilters, params pagination.Params) (pagination.Page[productsvc.ProductDTO], error) {
	s.filters = filters
	s.params = params
	return pagination.NewPage([]productsvc.ProductDTO{{ID: uuid.New(), Name: "Cimento"}}, params, 1), s.err
}

func (s *stubProductService) Get(_ context.Context, id uuid.UUID) (*productsvc.ProductDTO, error) {
	if s.err != nil {
		return nil, s.err
	}
	return &productsvc.ProductDTO{ID: id}, nil
}

func (s *stubProductService) Categories(context.Context) ([]string, error) {
	return []string{"Básico"}, s.err
}

func (s *stubProductService) Create(_ context.Context, actor policy.Actor, input productsvc.CreateInput) (*productsvc.ProductDTO, error) {
	s.actor = actor
	s.created = &input
	if s.err != nil {
		return nil, s.err
	}
	return &productsvc.ProductDTO{ID: uuid.New(), Code: input.Code, Name: input.Name, Price: input.Price}, nil
}

func (s *stubProductService) Update(_ context.Context, actor policy.Actor, id uuid.UUID, _ productsvc.UpdateInput) (*productsvc.ProductDTO, error) {
	s.actor = actor
	return &productsvc.ProductDTO{ID: id}, s.err
}

func (s *stubProductService) Delete(_ context.Context, actor policy.Actor, id uuid.UUID) error {
	s.actor = actor
	s.deletedID = id
	return s.err
}

func TestProductListParsesFilters(t *testing.T) {
	stub := &stubProductService{}
	req := httptest.NewRequest(http.MethodGet, "/api/v1/products?active=true&category=%20Basico%20&search=cim&page=2&limit=10", nil)
	req = withActor(req, actorWithRole(enums.UserRoleSalesperson), nil)
	rec := httptest.NewRecorder()

	ProductList(stub, testLogger()).ServeHTTP(rec, req)

	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d: %s", rec.Code, rec.Body.String())
	}
	if stub.filters.Active == nil || !*stub.filters.Active {
		t.Fatalf("expected active filter true, got %v", stub.filters.Active)
	}
	if stub.filters.Category != "Basico" || stub.filters.Search != "cim" {
		t.Fatalf("unexpected filters %+v", stub.filters)
	}
	if stub.params.Page != 2 || stub.params.Limit != 10 {
		t.Fatalf("unexpected pagination %+v", stub.params)
	}
	if !strings.Contains(rec.Body.String(), `"total_pages":1`) {
		t.Fatalf("expected page metadata, got %s", rec.Body.String())
	}
}

func TestProductListRejectsInvalidActiveFilter(t *testing.T) {
	req := httptest.NewRequest(http.MethodGet, "/api/v1/products?active=sometimes", nil)
	rec := httptest.NewRecorder()

	ProductList(&stubProductService{}, testLogger()).ServeHTTP(rec, req)

	if rec.Code != http.StatusBadRequest {
		t.Fatalf("expected 400, got %d", rec.Code)
	}
	if env := decodeError(t, rec); env.Code != string(pkgerrors.CodeValidation) {
		t.Fatalf("unexpected code %s", env.Code)
	}
}

func TestProductCreate(t *testing.T) {
	t.Run("validation details", func(t *testing.T) {
		req := httptest.NewRequest(http.MethodPost, "/api/v1/products", strings.NewReader(`{"code":"","name":"Cimento","price":"-1"}`))
		req = withActor(req, actorWithRole(enums.UserRoleManager), nil)
		rec := httptest.NewRecorder()

		ProductCreate(&stubProductService{}, testLogger()).ServeHTTP(rec, req)

		if rec.Code != http.StatusBadRequest {
			t.Fatalf("expected 400, got %d", rec.Code)
		}
		env := decodeError(t, rec)
		if len(env.Details) != 2 || env.Details[0] != "code: is required" || env.Details[1] != "price: must be at least 0" {
			t.Fatalf("unexpected details %v", env.Details)
		}
	})

	t.Run("forwards actor and input", func(t *testing.T) {
		stub := &stubProductService{}
		actor := actorWithRole(enums.UserRoleManager)
		req := httptest.NewRequest(http.MethodPost, "/api/v1/products", strings.NewReader(`{"code":"CIM-50","name":"Cimento","price":"32.5","unit":"sc"}`))
		req = withActor(req, actor, nil)
		rec := httptest.NewRecorder()

		ProductCreate(stub, testLogger()).ServeHTTP(rec, req)

		if rec.Code != http.StatusCreated {
			t.Fatalf("expected 201, got %d: %s", rec.Code, rec.Body.String())
		}
		if stub.actor != actor {
			t.Fatalf("expected actor %+v, got %+v", actor, stub.actor)
		}
		if stub.created == nil || !stub.created.Price.Equal(decimal.RequireFromString("32.5")) || stub.created.Unit != "sc" {
			t.Fatalf("unexpected input %+v", stub.created)
		}
	})

	t.Run("service denial", func(t *testing.T) {
		stub := &stubProductService{err: pkgerrors.New(pkgerrors.CodeForbidden, "only admins and managers manage products")}
		req := httptest.NewRequest(http.MethodPost, "/api/v1/products", strings.NewReader(`{"code":"X","name":"Y","price":"1"}`))
		req = withActor(req, actorWithRole(enums.UserRoleSalesperson), nil)
		rec := httptest.NewRecorder()

		ProductCreate(stub, testLogger()).ServeHTTP(rec, req)

		if rec.Code != http.StatusForbidden {
			t.Fatalf("expected 403, got %d", rec.Code)
		}
	})
}

func TestProductDelete(t *testing.T) {
	t.Run("invalid id", func(t *testing.T) {
		req := httptest.NewRequest(http.MethodDelete, "/api/v1/products/nope", nil)
		req = withActor(req, actorWithRole(enums.UserRoleAdmin), map[string]string{"id": "nope"})
		rec := httptest.NewRecorder()

		ProductDelete(&stubProductService{}, testLogger()).ServeHTTP(rec, req)

		if rec.Code != http.StatusBadRequest {
			t.Fatalf("expected 400, got %d", rec.Code)
		}
	})

	t.Run("referenced product conflicts", func(t *testing.T) {
		id := uuid.New()
		stub := &stubProductService{err: pkgerrors.New(pkgerrors.CodeConflict, "product is referenced by orders")}
		req := httptest.NewRequest(http.MethodDelete, "/api/v1/products/"+id.String(), nil)
		req = withActor(req, actorWithRole(enums.UserRoleAdmin), map[string]string{"id": id.String()})
		rec := httptest.NewRecorder()

		ProductDelete(stub, testLogger()).ServeHTTP(rec, req)

		if rec.Code != http.StatusConflict {
			t.Fatalf("expected 409, got %d", rec.Code)
		}
	})

	t.Run("success", func(t *testing.T) {
		id := uuid.New()
		stub := &stubProductService{}
		req := httptest.NewRequest(http.MethodDelete, "/api/v1/products/"+id.String(), nil)
		req = withActor(req, actorWithRole(enums.UserRoleAdmin), map[string]string{"id": id.String()})
		rec := httptest.NewRecorder()

		ProductDelete(stub, testLogger()).ServeHTTP(rec, req)

		if rec.Code != http.StatusNoContent {
			t.Fatalf("expected 204, got %d", rec.Code)
		}
		if stub.deletedID != id {
			t.Fatalf("expected delete of %s, got %s", id, stub.deletedID)
		}
	})
}

func TestProductHandlersWithoutService(t *testing.T) {
	rec := httptest.NewRecorder()
	ProductCategories(nil, testLogger()).ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/api/v1/products/categories", nil))
	if rec.Code != http.StatusInternalServerError {
		t.Fatalf("expected 500, got %d", rec.Code)
	}
}
