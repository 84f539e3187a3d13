package orders

import (
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/go-chi/chi/v5"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"

	"github.com/angelmondragon/backoffice-backend/api/middleware"
	internalorders "github.com/angelmondragon/backoffice-backend/internal/orders"
	"github.com/angelmondragon/backoffice-backend/internal/policy"
	"github.com/angelmondragon/backoffice-backend/internal/products"
	"github.com/angelmondragon/backoffice-backend/internal/sequence"
	"github.com/angelmondragon/backoffice-backend/pkg/db"
	"github.com/angelmondragon/backoffice-backend/pkg/db/dbtest"
	"github.com/angelmondragon/backoffice-backend/pkg/enums"
	"github.com/angelmondragon/backoffice-backend/pkg/logger"
)

type allFeatures struct{}

func (allFeatures) FeatureEnabled(context.Context, string) (bool, error) { return true, nil }

func newService(t *testing.T) (internalorders.Service, *gorm.DB) {
	t.Helper()
	conn := dbtest.Open(t)
	svc, err := internalorders.NewService(
		internalorders.NewRepository(conn),
		db.NewFromGorm(conn),
		products.NewRepository(conn),
		sequence.NewGenerator(),
		allFeatures{},
		nil,
	)
	require.NoError(t, err)
	return svc, conn
}

func serve(t *testing.T, h http.HandlerFunc, actor policy.Actor, method, target, body string, params map[string]string) *httptest.ResponseRecorder {
	t.Helper()
	var reader io.Reader
	if body != "" {
		reader = strings.NewReader(body)
	}
	req := httptest.NewRequest(method, target, reader)
	ctx := middleware.WithActor(req.Context(), actor, "sess")
	rctx := chi.NewRouteContext()
	for k, v := range params {
		rctx.URLParams.Add(k, v)
	}
	req = req.WithContext(context.WithValue(ctx, chi.RouteCtxKey, rctx))
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, req)
	return rec
}

func TestOrderCrudThroughHandlers(t *testing.T) {
	svc, conn := newService(t)
	logg := logger.New(logger.Options{ServiceName: "test", Output: io.Discard})
	user := dbtest.SeedUser(t, conn, enums.UserRoleSalesperson)
	actor := policy.Actor{UserID: user.ID, Role: user.Role}
	product := dbtest.SeedProduct(t, conn, "Tijolo", "1.20", true)

	body := `{"customer":"Obra Centro","delivery_date":"2026-07-01","items":[{"product_id":"` + product.ID.String() + `","quantity":1000}]}`
	rec := serve(t, Create(svc, logg), actor, http.MethodPost, "/api/v1/orders", body, nil)
	require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())

	var created struct {
		Data internalorders.OrderDTO `json:"data"`
	}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &created))
	require.Equal(t, "1200", created.Data.TotalValue.String())
	require.Equal(t, enums.OrderStatusNew, created.Data.Status)
	id := created.Data.ID.String()

	rec = serve(t, Update(svc, logg), actor, http.MethodPut, "/api/v1/orders/"+id, `{"status":"in_production"}`, map[string]string{"id": id})
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	require.Contains(t, rec.Body.String(), `"status":"in_production"`)

	rec = serve(t, List(svc, logg), actor, http.MethodGet, "/api/v1/orders?status=in_production", "", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	require.Contains(t, rec.Body.String(), id)

	rec = serve(t, List(svc, logg), actor, http.MethodGet, "/api/v1/orders?status=shipped", "", nil)
	require.Equal(t, http.StatusBadRequest, rec.Code)

	other := dbtest.SeedUser(t, conn, enums.UserRoleSalesperson)
	rec = serve(t, Detail(svc, logg), policy.Actor{UserID: other.ID, Role: other.Role}, http.MethodGet, "/api/v1/orders/"+id, "", map[string]string{"id": id})
	require.Equal(t, http.StatusNotFound, rec.Code)

	rec = serve(t, Delete(svc, logg), actor, http.MethodDelete, "/api/v1/orders/"+id, "", map[string]string{"id": id})
	require.Equal(t, http.StatusNoContent, rec.Code)

	rec = serve(t, Detail(svc, logg), actor, http.MethodGet, "/api/v1/orders/"+id, "", map[string]string{"id": id})
	require.Equal(t, http.StatusNotFound, rec.Code)
}

func TestCreateOrderRejectsUnknownFields(t *testing.T) {
	svc, conn := newService(t)
	logg := logger.New(logger.Options{ServiceName: "test", Output: io.Discard})
	user := dbtest.SeedUser(t, conn, enums.UserRoleSalesperson)

	rec := serve(t, Create(svc, logg), policy.Actor{UserID: user.ID, Role: user.Role}, http.MethodPost, "/api/v1/orders", `{"customer":"X","discount":10}`, nil)
	require.Equal(t, http.StatusBadRequest, rec.Code)
}
