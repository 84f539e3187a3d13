package reports

import (
	"context"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"

	"github.com/angelmondragon/backoffice-backend/internal/repo"
	"github.com/angelmondragon/backoffice-backend/pkg/db/models"
	"github.com/angelmondragon/backoffice-backend/pkg/enums"
)

// ProductSales is one product's aggregate over a window.
type ProductSales struct {
	ProductID     uuid.UUID
	Name          string
	Code          string
	Category      *string
	Price         decimal.Decimal
	Unit          string
	TotalQuantity int64
	TotalRevenue  decimal.Decimal
	OrderCount    int64
}

// SalesTotals covers every product sold in a window.
type SalesTotals struct {
	ProductCount  int64
	TotalQuantity int64
	TotalRevenue  decimal.Decimal
	OrderCount    int64
}

type statusCount struct {
	Status string
	Total  int64
}

// Repository runs the read-only report aggregations.
type Repository struct {
	repo.Base
}

func NewRepository(db *gorm.DB) *Repository {
	return &Repository{Base: repo.NewBase(db)}
}

// soldItems joins line items to their non-cancelled orders created since.
func (r *Repository) soldItems(ctx context.Context, since time.Time) *gorm.DB {
	return r.DB(ctx).
		Table("order_line_items AS oli").
		Joins("JOIN orders o ON o.id = oli.order_id").
		Where("o.created_at >= ?", since).
		Where("o.status <> ?", enums.OrderStatusCancelled)
}

// TopProducts returns the best sellers by quantity since the given time.
func (r *Repository) TopProducts(ctx context.Context, since time.Time, limit int) ([]ProductSales, error) {
	var rows []ProductSales
	err := r.soldItems(ctx, since).
		Joins("JOIN products p ON p.id = oli.product_id").
		Select(`oli.product_id AS product_id,
			p.name AS name,
			p.code AS code,
			p.category AS category,
			p.price AS price,
			p.unit AS unit,
			SUM(oli.quantity) AS total_quantity,
			SUM(oli.line_total) AS total_revenue,
			COUNT(DISTINCT oli.order_id) AS order_count`).
		Group("oli.product_id, p.name, p.code, p.category, p.price, p.unit").
		Order("total_quantity DESC, total_revenue DESC, p.name ASC").
		Limit(limit).
		Scan(&rows).Error
	return rows, err
}

// Totals aggregates every line sold since the given time.
func (r *Repository) Totals(ctx context.Context, since time.Time) (SalesTotals, error) {
	var totals SalesTotals
	err := r.soldItems(ctx, since).
		Select(`COUNT(DISTINCT oli.product_id) AS product_count,
			COALESCE(SUM(oli.quantity), 0) AS total_quantity,
			COALESCE(SUM(oli.line_total), 0) AS total_revenue,
			COUNT(DISTINCT oli.order_id) AS order_count`).
		Scan(&totals).Error
	return totals, err
}

// QuoteStatusCounts counts quotes by status, optionally for one owner.
func (r *Repository) QuoteStatusCounts(ctx context.Context, ownerID *uuid.UUID) (map[string]int64, error) {
	return r.statusCounts(ctx, &models.Quote{}, ownerID)
}

// OrderStatusCounts counts orders by status, optionally for one owner.
func (r *Repository) OrderStatusCounts(ctx context.Context, ownerID *uuid.UUID) (map[string]int64, error) {
	return r.statusCounts(ctx, &models.Order{}, ownerID)
}

func (r *Repository) statusCounts(ctx context.Context, model any, ownerID *uuid.UUID) (map[string]int64, error) {
	var rows []statusCount
	query := repo.OwnedBy(r.DB(ctx).Model(model), "owner_id", ownerID)
	if err := query.Select("status, COUNT(*) AS total").Group("status").Scan(&rows).Error; err != nil {
		return nil, err
	}
	out := make(map[string]int64, len(rows))
	for _, row := range rows {
		out[row.Status] = row.Total
	}
	return out, nil
}

// OrderRevenue sums the totals of non-cancelled orders.
func (r *Repository) OrderRevenue(ctx context.Context, ownerID *uuid.UUID) (decimal.Decimal, error) {
	var out struct {
		Total decimal.Decimal
	}
	query := repo.OwnedBy(r.DB(ctx).Model(&models.Order{}), "owner_id", ownerID)
	err := query.
		Where("status <> ?", enums.OrderStatusCancelled).
		Select("COALESCE(SUM(total_value), 0) AS total").
		Scan(&out).Error
	return out.Total, err
}

// ReceiptTotals counts and sums the receipts of one owner.
func (r *Repository) ReceiptTotals(ctx context.Context, ownerID uuid.UUID) (int64, decimal.Decimal, error) {
	var out struct {
		Count int64
		Total decimal.Decimal
	}
	err := r.DB(ctx).Model(&models.Receipt{}).
		Where("owner_id = ?", ownerID).
		Select("COUNT(*) AS count, COALESCE(SUM(amount), 0) AS total").
		Scan(&out).Error
	return out.Count, out.Total, err
}
