package errors

import (
	stdErrors "errors"
	"fmt"
	"net/http"
	"testing"

	"github.com/jackc/pgx/v5/pgconn"
	"github.com/lib/pq"
)

func TestMetadataForKnownCodes(t *testing.T) {
	tests := []struct {
		code      Code
		status    int
		publicMsg string
		retryable bool
		detailsOK bool
	}{
		{code: CodeValidation, status: http.StatusBadRequest, publicMsg: "validation failed", detailsOK: true},
		{code: CodeUnauthorized, status: http.StatusUnauthorized, publicMsg: "authentication required"},
		{code: CodeForbidden, status: http.StatusForbidden, publicMsg: "access denied"},
		{code: CodeNotFound, status: http.StatusNotFound, publicMsg: "resource not found"},
		{code: CodeConflict, status: http.StatusConflict, publicMsg: "conflict detected", detailsOK: true},
		{code: CodeRateLimit, status: http.StatusTooManyRequests, publicMsg: "rate limit exceeded"},
		{code: CodeInternal, status: http.StatusInternalServerError, publicMsg: "internal server error", retryable: true},
		{code: CodeDependency, status: http.StatusServiceUnavailable, publicMsg: "dependency unavailable", retryable: true, detailsOK: true},
	}

	for _, tt := range tests {
		meta := MetadataFor(tt.code)
		if meta.HTTPStatus != tt.status {
			t.Fatalf("code %s expected status %d got %d", tt.code, tt.status, meta.HTTPStatus)
		}
		if meta.PublicMessage != tt.publicMsg {
			t.Fatalf("code %s expected public message %q got %q", tt.code, tt.publicMsg, meta.PublicMessage)
		}
		if meta.Retryable != tt.retryable {
			t.Fatalf("code %s expected retryable %v got %v", tt.code, tt.retryable, meta.Retryable)
		}
		if meta.DetailsAllowed != tt.detailsOK {
			t.Fatalf("code %s expected details allowed %v got %v", tt.code, tt.detailsOK, meta.DetailsAllowed)
		}
	}
}

func TestMetadataForUnknownCodeDefaultsToInternal(t *testing.T) {
	meta := MetadataFor("SOMETHING_UNKNOWN")
	if meta.HTTPStatus != http.StatusInternalServerError {
		t.Fatalf("expected internal status, got %d", meta.HTTPStatus)
	}
}

func TestErrorConstructors(t *testing.T) {
	base := New(CodeValidation, "missing foo")
	if base.Code() != CodeValidation {
		t.Fatalf("expected validation code, got %s", base.Code())
	}
	if base.Message() != "missing foo" {
		t.Fatalf("unexpected message %q", base.Message())
	}
	if base.Details() != nil {
		t.Fatalf("details should be nil by default")
	}

	base.WithDetails(map[string]string{"foo": "is required"})
	if base.Details() == nil {
		t.Fatalf("details should be preserved")
	}

	cause := stdErrors.New("boom")
	wrapped := Wrap(CodeConflict, cause, "ctx")
	if !stdErrors.Is(wrapped, cause) {
		t.Fatalf("Wrap did not preserve cause")
	}
	if wrapped.Code() != CodeConflict {
		t.Fatalf("unexpected code %s", wrapped.Code())
	}
}

func TestDetailListFlattensShapes(t *testing.T) {
	fromMap := New(CodeValidation, "bad").WithDetails(map[string]string{"b": "is invalid", "a": "is required"})
	got := fromMap.DetailList()
	if len(got) != 2 || got[0] != "a: is required" || got[1] != "b: is invalid" {
		t.Fatalf("unexpected detail list %v", got)
	}

	fromSlice := New(CodeValidation, "bad").WithDetails([]string{"items[0]: product inactive"})
	if got := fromSlice.DetailList(); len(got) != 1 || got[0] != "items[0]: product inactive" {
		t.Fatalf("unexpected detail list %v", got)
	}

	if got := New(CodeValidation, "bad").DetailList(); got != nil {
		t.Fatalf("expected nil details, got %v", got)
	}
}

func TestPublicMessageHidesInternalText(t *testing.T) {
	if got := New(CodeNotFound, "quote not found").PublicMessage(); got != "quote not found" {
		t.Fatalf("expected exposed message, got %q", got)
	}
	if got := Wrap(CodeInternal, stdErrors.New("pq: relation missing"), "load quote").PublicMessage(); got != "internal server error" {
		t.Fatalf("expected generic message, got %q", got)
	}
	if got := New(CodeConflict, "").PublicMessage(); got != "conflict detected" {
		t.Fatalf("expected fallback message, got %q", got)
	}
}

func TestAsReturnsTypedError(t *testing.T) {
	err := fmt.Errorf("outer: %w", New(CodeForbidden, "no entry"))
	if got := As(err); got == nil || got.Code() != CodeForbidden {
		t.Fatalf("As failed to return typed error")
	}
	if As(nil) != nil {
		t.Fatalf("As(nil) should return nil")
	}
}

func TestDumpExtractsPostgresFields(t *testing.T) {
	pgErr := &pgconn.PgError{Code: "23505", ConstraintName: "products_code_key", TableName: "products"}
	dump := Dump(Wrap(CodeConflict, pgErr, "duplicate product code"))
	if dump.Code != CodeConflict || dump.HTTPStatus != http.StatusConflict {
		t.Fatalf("unexpected dump header %+v", dump)
	}
	if dump.PG.Code != "23505" || dump.PG.Constraint != "products_code_key" {
		t.Fatalf("unexpected pg fields %+v", dump.PG)
	}
	if len(dump.Chain) != 2 {
		t.Fatalf("expected chain of 2, got %v", dump.Chain)
	}

	pqErr := &pq.Error{Code: "23503", Table: "order_line_items"}
	if fields, ok := ExtractPG(pqErr); !ok || fields.Code != "23503" || fields.Table != "order_line_items" {
		t.Fatalf("unexpected pq extraction %+v", fields)
	}

	if _, ok := ExtractPG(stdErrors.New("plain")); ok {
		t.Fatal("plain error should not expose pg fields")
	}
}
