package products

import (
	"context"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/angelmondragon/backoffice-backend/internal/repo"
	"github.com/angelmondragon/backoffice-backend/pkg/db/models"
	"github.com/angelmondragon/backoffice-backend/pkg/pagination"
)

// ListFilters narrows the catalog listing.
type ListFilters struct {
	Active   *bool
	Category string
	Search   string
}

// Repository persists catalog products.
type Repository struct {
	repo.Base
}

// NewRepository builds a repository tied to the provided GORM DB.
func NewRepository(db *gorm.DB) *Repository {
	return &Repository{Base: repo.NewBase(db)}
}

// WithTx returns a repository bound to the provided transaction.
func (r *Repository) WithTx(tx *gorm.DB) *Repository {
	return &Repository{Base: repo.NewBase(tx)}
}

// FindByID loads a product by primary key.
func (r *Repository) FindByID(ctx context.Context, id uuid.UUID) (*models.Product, error) {
	var product models.Product
	if err := r.DB(ctx).First(&product, "id = ?", id).Error; err != nil {
		return nil, err
	}
	return &product, nil
}

// FindByIDs loads every product in ids keyed by id. Missing ids are absent from the map.
func (r *Repository) FindByIDs(ctx context.Context, ids []uuid.UUID) (map[uuid.UUID]models.Product, error) {
	out := make(map[uuid.UUID]models.Product, len(ids))
	if len(ids) == 0 {
		return out, nil
	}
	var rows []models.Product
	if err := r.DB(ctx).Where("id IN ?", ids).Find(&rows).Error; err != nil {
		return nil, err
	}
	for _, row := range rows {
		out[row.ID] = row
	}
	return out, nil
}

// FindActiveByName resolves an active product by exact name. Ties go to the oldest row.
func (r *Repository) FindActiveByName(ctx context.Context, name string) (*models.Product, error) {
	var product models.Product
	err := r.DB(ctx).
		Where("name = ? AND active = ?", name, true).
		Order("created_at ASC").
		First(&product).
		Error
	if err != nil {
		return nil, err
	}
	return &product, nil
}

// List returns one page of products matching filters, ordered by name.
func (r *Repository) List(ctx context.Context, filters ListFilters, params pagination.Params) ([]models.Product, int64, error) {
	query := r.DB(ctx).Model(&models.Product{})
	if filters.Active != nil {
		query = query.Where("active = ?", *filters.Active)
	}
	if filters.Category != "" {
		query = query.Where("category = ?", filters.Category)
	}
	query = repo.Search(query, filters.Search, "code", "name", "description")

	var rows []models.Product
	total, err := repo.FindPage(query, params, "name ASC", &rows)
	if err != nil {
		return nil, 0, err
	}
	return rows, total, nil
}

// Categories returns the distinct non-empty categories in alphabetical order.
func (r *Repository) Categories(ctx context.Context) ([]string, error) {
	var categories []string
	err := r.DB(ctx).
		Model(&models.Product{}).
		Where("category IS NOT NULL AND category <> ''").
		Distinct("category").
		Order("category ASC").
		Pluck("category", &categories).
		Error
	return categories, err
}

// Create inserts a new product row.
func (r *Repository) Create(ctx context.Context, product *models.Product) error {
	return r.DB(ctx).Create(product).Error
}

// Update saves every column of product.
func (r *Repository) Update(ctx context.Context, product *models.Product) error {
	return r.DB(ctx).Save(product).Error
}

// Delete removes a product by ID.
func (r *Repository) Delete(ctx context.Context, id uuid.UUID) error {
	return r.DB(ctx).Where("id = ?", id).Delete(&models.Product{}).Error
}

// CountReferences counts quote and order line items pointing at the product.
func (r *Repository) CountReferences(ctx context.Context, id uuid.UUID) (int64, error) {
	var quoteRefs, orderRefs int64
	if err := r.DB(ctx).Model(&models.QuoteLineItem{}).Where("product_id = ?", id).Count(&quoteRefs).Error; err != nil {
		return 0, err
	}
	if err := r.DB(ctx).Model(&models.OrderLineItem{}).Where("product_id = ?", id).Count(&orderRefs).Error; err != nil {
		return 0, err
	}
	return quoteRefs + orderRefs, nil
}
