package repo

import (
	"context"
	"strings"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/angelmondragon/backoffice-backend/pkg/pagination"
)

// Base provides a shared foundation for domain repositories.
type Base struct {
	db *gorm.DB
}

// NewBase constructs a Base repository backed by the provided GORM connection.
func NewBase(db *gorm.DB) Base {
	return Base{db: db}
}

// DB returns the GORM connection bound to the supplied context (if any).
func (b Base) DB(ctx context.Context) *gorm.DB {
	if ctx == nil {
		return b.db
	}
	return b.db.WithContext(ctx)
}

// Search ORs a case-insensitive substring match over columns. Blank terms are ignored.
func Search(db *gorm.DB, term string, columns ...string) *gorm.DB {
	term = strings.ToLower(strings.TrimSpace(term))
	if term == "" || len(columns) == 0 {
		return db
	}
	pattern := "%" + escapeLike(term) + "%"

	clauses := make([]string, 0, len(columns))
	args := make([]any, 0, len(columns))
	for _, col := range columns {
		clauses = append(clauses, "LOWER("+col+") LIKE ? ESCAPE '\\'")
		args = append(args, pattern)
	}
	return db.Where("("+strings.Join(clauses, " OR ")+")", args...)
}

// OwnedBy restricts rows to ownerID when set; nil means unrestricted.
func OwnedBy(db *gorm.DB, column string, ownerID *uuid.UUID) *gorm.DB {
	if ownerID == nil {
		return db
	}
	return db.Where(column+" = ?", *ownerID)
}

// FindPage counts the filtered query then loads one page into dest ordered by
// order. Preloads are attached after counting.
func FindPage(query *gorm.DB, params pagination.Params, order string, dest any, preloads ...string) (int64, error) {
	var total int64
	if err := query.Session(&gorm.Session{}).Count(&total).Error; err != nil {
		return 0, err
	}
	if total == 0 {
		return 0, nil
	}
	if order != "" {
		query = query.Order(order)
	}
	for _, assoc := range preloads {
		query = query.Preload(assoc)
	}
	if err := params.Apply(query).Find(dest).Error; err != nil {
		return 0, err
	}
	return total, nil
}

func escapeLike(term string) string {
	r := strings.NewReplacer(`\`, `\\`, `%`, `\%`, `_`, `\_`)
	return r.Replace(term)
}
