package validators

import (
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/shopspring/decimal"

	pkgerrors "github.com/angelmondragon/backoffice-backend/pkg/errors"
)

type lineRequest struct {
	Quantity int              `json:"quantity" validate:"gt=0"`
	Price    *decimal.Decimal `json:"price,omitempty" validate:"omitempty,gte=0"`
}

type documentRequest struct {
	Name   string          `json:"name" validate:"required,max=10"`
	TaxID  string          `json:"tax_id,omitempty" validate:"cpf"`
	Amount decimal.Decimal `json:"amount" validate:"gt=0"`
	Lines  []lineRequest   `json:"lines" validate:"dive"`
	Due    *Date           `json:"due,omitempty"`
}

func decode(t *testing.T, body string) (documentRequest, *pkgerrors.Error) {
	t.Helper()
	var dest documentRequest
	req := httptest.NewRequest(http.MethodPost, "/", strings.NewReader(body))
	err := DecodeJSONBody(req, &dest)
	if err == nil {
		return dest, nil
	}
	typed := pkgerrors.As(err)
	if typed == nil {
		t.Fatalf("expected typed error, got %v", err)
	}
	return dest, typed
}

func TestDecodeJSONBodyAcceptsValidPayload(t *testing.T) {
	dest, err := decode(t, `{"name":"Recibo","tax_id":"529.982.247-25","amount":"10.50","lines":[{"quantity":2,"price":"3"}],"due":"2026-05-01"}`)
	if err != nil {
		t.Fatalf("unexpected error %v (details %v)", err, err.DetailList())
	}
	if !dest.Amount.Equal(decimal.RequireFromString("10.5")) {
		t.Fatalf("unexpected amount %s", dest.Amount)
	}
	if dest.Due.Ptr() == nil || dest.Due.Format("2006-01-02") != "2026-05-01" {
		t.Fatalf("unexpected due date %v", dest.Due)
	}
}

func TestDecodeJSONBodyReportsFieldPaths(t *testing.T) {
	_, err := decode(t, `{"name":"","tax_id":"111.111.111-11","amount":"0","lines":[{"quantity":0,"price":"-1"}]}`)
	if err == nil || err.Code() != pkgerrors.CodeValidation {
		t.Fatalf("expected validation error, got %v", err)
	}

	want := map[string]bool{
		"amount: must be greater than 0":            false,
		"lines[0].price: must be at least 0":        false,
		"lines[0].quantity: must be greater than 0": false,
		"name: is required":                         false,
		"tax_id: must be a valid CPF":               false,
	}
	for _, detail := range err.DetailList() {
		if _, ok := want[detail]; ok {
			want[detail] = true
		}
	}
	for detail, seen := range want {
		if !seen {
			t.Fatalf("missing detail %q in %v", detail, err.DetailList())
		}
	}
}

func TestDecodeJSONBodyRejectsEmptyAndUnknownFields(t *testing.T) {
	if _, err := decode(t, ``); err == nil || err.Message() != "request body is required" {
		t.Fatalf("expected empty body error, got %v", err)
	}
	if _, err := decode(t, `{"name":"x","amount":"1","surprise":true}`); err == nil || err.Code() != pkgerrors.CodeValidation {
		t.Fatalf("expected unknown field to be rejected, got %v", err)
	}
}

func TestDateAcceptsTimestampsAndNull(t *testing.T) {
	var d Date
	if err := d.UnmarshalJSON([]byte(`"2026-05-01T10:30:00Z"`)); err != nil {
		t.Fatalf("unexpected error %v", err)
	}
	if d.Hour() != 10 {
		t.Fatalf("unexpected hour %d", d.Hour())
	}

	var empty Date
	if err := empty.UnmarshalJSON([]byte(`null`)); err != nil || empty.Ptr() != nil {
		t.Fatalf("expected null to decode as missing date")
	}
	if err := empty.UnmarshalJSON([]byte(`"01/05/2026"`)); err == nil {
		t.Fatal("expected unsupported layout to fail")
	}
}
