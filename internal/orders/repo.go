package orders

import (
	"context"

	"github.com/google/uuid"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"github.com/angelmondragon/backoffice-backend/internal/repo"
	"github.com/angelmondragon/backoffice-backend/pkg/db/models"
	"github.com/angelmondragon/backoffice-backend/pkg/pagination"
)

type repository struct {
	repo.Base
}

// NewRepository builds the gorm-backed order repository.
func NewRepository(db *gorm.DB) Repository {
	return &repository{Base: repo.NewBase(db)}
}

func (r *repository) WithTx(tx *gorm.DB) Repository {
	return &repository{Base: repo.NewBase(tx)}
}

// Create inserts the order together with its line items.
func (r *repository) Create(ctx context.Context, order *models.Order) error {
	return r.DB(ctx).Omit("Owner").Create(order).Error
}

func (r *repository) FindByID(ctx context.Context, id uuid.UUID) (*models.Order, error) {
	var order models.Order
	err := r.DB(ctx).
		Preload("Owner").
		Preload("Items", func(db *gorm.DB) *gorm.DB {
			return db.Order("created_at ASC, id ASC")
		}).
		Preload("Items.Product").
		First(&order, "id = ?", id).
		Error
	if err != nil {
		return nil, err
	}
	return &order, nil
}

// List returns one page of orders, newest first, with owners and items loaded.
func (r *repository) List(ctx context.Context, filters ListFilters, params pagination.Params) ([]models.Order, int64, error) {
	query := r.DB(ctx).Model(&models.Order{})
	query = repo.OwnedBy(query, "owner_id", filters.OwnerID)
	if filters.Status != nil {
		query = query.Where("status = ?", *filters.Status)
	}
	query = repo.Search(query, filters.Search, "number", "customer")

	var rows []models.Order
	total, err := repo.FindPage(query, params, "created_at DESC, id DESC", &rows, "Owner", "Items", "Items.Product")
	if err != nil {
		return nil, 0, err
	}
	return rows, total, nil
}

// Update saves the order header; line items are left untouched.
func (r *repository) Update(ctx context.Context, order *models.Order) error {
	return r.DB(ctx).Omit(clause.Associations).Save(order).Error
}

func (r *repository) ReplaceItems(ctx context.Context, orderID uuid.UUID, items []models.OrderLineItem) error {
	tx := r.DB(ctx)
	if err := tx.Where("order_id = ?", orderID).Delete(&models.OrderLineItem{}).Error; err != nil {
		return err
	}
	if len(items) == 0 {
		return nil
	}
	for i := range items {
		items[i].OrderID = orderID
	}
	return tx.Omit("Product").Create(&items).Error
}

func (r *repository) Delete(ctx context.Context, id uuid.UUID) error {
	tx := r.DB(ctx)
	if err := tx.Where("order_id = ?", id).Delete(&models.OrderLineItem{}).Error; err != nil {
		return err
	}
	return tx.Where("id = ?", id).Delete(&models.Order{}).Error
}

func (r *repository) ExistsForQuote(ctx context.Context, quoteID uuid.UUID) (bool, error) {
	var count int64
	if err := r.DB(ctx).Model(&models.Order{}).Where("source_quote_id = ?", quoteID).Count(&count).Error; err != nil {
		return false, err
	}
	return count > 0, nil
}
