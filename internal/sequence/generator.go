// Package sequence issues human readable document numbers from atomic per-scope counters.
package sequence

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/angelmondragon/backoffice-backend/pkg/enums"
	pkgerrors "github.com/angelmondragon/backoffice-backend/pkg/errors"
)

const incrementQuery = `
INSERT INTO document_counters (scope, value) VALUES (?, 1)
ON CONFLICT (scope) DO UPDATE SET value = document_counters.value + 1
RETURNING value
`

// Generator hands out document numbers. The counter increment runs on the
// caller's transaction so a rolled back document also releases its number.
type Generator struct {
	now func() time.Time
}

// NewGenerator returns a generator using the wall clock.
func NewGenerator() *Generator {
	return &Generator{now: time.Now}
}

// WithClock swaps the time source; used by tests.
func (g *Generator) WithClock(now func() time.Time) *Generator {
	g.now = now
	return g
}

// Next reserves the next number for kind. Receipts are counted per owner and
// require ownerID; quotes and orders share one counter per year.
func (g *Generator) Next(ctx context.Context, tx *gorm.DB, kind enums.DocumentKind, ownerID uuid.UUID) (string, error) {
	if tx == nil {
		return "", pkgerrors.New(pkgerrors.CodeInternal, "sequence requires a db handle")
	}
	if !kind.IsValid() {
		return "", pkgerrors.New(pkgerrors.CodeInternal, fmt.Sprintf("unknown document kind %q", kind))
	}
	if kind == enums.DocumentKindReceipt && ownerID == uuid.Nil {
		return "", pkgerrors.New(pkgerrors.CodeInternal, "receipt numbers require an owner")
	}

	now := g.now()
	scope := Scope(kind, now.Year(), ownerID)

	var value int64
	if err := tx.WithContext(ctx).Raw(incrementQuery, scope).Scan(&value).Error; err != nil {
		return "", pkgerrors.Wrap(pkgerrors.CodeInternal, err, "increment document counter")
	}
	if value < 1 {
		return "", pkgerrors.New(pkgerrors.CodeInternal, "document counter returned no value")
	}
	return Format(kind, now, value), nil
}

// Scope names the counter row for a kind and year.
func Scope(kind enums.DocumentKind, year int, ownerID uuid.UUID) string {
	if kind == enums.DocumentKindReceipt {
		return fmt.Sprintf("%s:%s:%d", kind, ownerID, year)
	}
	return fmt.Sprintf("%s:%d", kind, year)
}

// Format renders PREFIX-YYYY-NNN-suffix, where suffix is the tail of the
// epoch-millisecond clock: 3 digits for quotes and orders, 4 for receipts.
func Format(kind enums.DocumentKind, at time.Time, seq int64) string {
	ms := at.UnixMilli()
	suffix := fmt.Sprintf("%03d", ms%1000)
	if kind == enums.DocumentKindReceipt {
		suffix = fmt.Sprintf("%04d", ms%10000)
	}
	return fmt.Sprintf("%s-%d-%03d-%s", kind.Prefix(), at.Year(), seq, suffix)
}
