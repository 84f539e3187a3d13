package quotes

import (
	"context"

	"github.com/google/uuid"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"github.com/angelmondragon/backoffice-backend/internal/repo"
	"github.com/angelmondragon/backoffice-backend/pkg/db/models"
	"github.com/angelmondragon/backoffice-backend/pkg/enums"
	"github.com/angelmondragon/backoffice-backend/pkg/pagination"
)

type repository struct {
	repo.Base
}

// NewRepository builds the gorm-backed quote repository.
func NewRepository(db *gorm.DB) Repository {
	return &repository{Base: repo.NewBase(db)}
}

func (r *repository) WithTx(tx *gorm.DB) Repository {
	return &repository{Base: repo.NewBase(tx)}
}

// Create inserts the quote together with its line items.
func (r *repository) Create(ctx context.Context, quote *models.Quote) error {
	return r.DB(ctx).Omit("Owner").Create(quote).Error
}

func (r *repository) FindByID(ctx context.Context, id uuid.UUID) (*models.Quote, error) {
	return r.find(r.DB(ctx), id)
}

// FindForUpdate adds SELECT ... FOR UPDATE on postgres; sqlite already
// serializes writers and ignores the clause.
func (r *repository) FindForUpdate(ctx context.Context, id uuid.UUID) (*models.Quote, error) {
	return r.find(r.DB(ctx).Clauses(clause.Locking{Strength: clause.LockingStrengthUpdate}), id)
}

func (r *repository) find(query *gorm.DB, id uuid.UUID) (*models.Quote, error) {
	var quote models.Quote
	err := query.
		Preload("Owner").
		Preload("Items", func(db *gorm.DB) *gorm.DB {
			return db.Order("created_at ASC, id ASC")
		}).
		First(&quote, "id = ?", id).
		Error
	if err != nil {
		return nil, err
	}
	return &quote, nil
}

// List returns one page of quotes, newest first, with owners and items loaded.
func (r *repository) List(ctx context.Context, filters ListFilters, params pagination.Params) ([]models.Quote, int64, error) {
	query := r.DB(ctx).Model(&models.Quote{})
	query = repo.OwnedBy(query, "owner_id", filters.OwnerID)
	if filters.Status != nil {
		query = query.Where("status = ?", *filters.Status)
	}
	query = repo.Search(query, filters.Search, "number", "customer")

	var rows []models.Quote
	total, err := repo.FindPage(query, params, "created_at DESC, id DESC", &rows, "Owner", "Items")
	if err != nil {
		return nil, 0, err
	}
	return rows, total, nil
}

// Update saves the quote header; line items are left untouched.
func (r *repository) Update(ctx context.Context, quote *models.Quote) error {
	return r.DB(ctx).Omit(clause.Associations).Save(quote).Error
}

func (r *repository) MarkConverted(ctx context.Context, id uuid.UUID) (bool, error) {
	res := r.DB(ctx).
		Model(&models.Quote{}).
		Where("id = ? AND status = ?", id, enums.QuoteStatusApproved).
		Update("status", enums.QuoteStatusConverted)
	if res.Error != nil {
		return false, res.Error
	}
	return res.RowsAffected == 1, nil
}

// ReplaceItems deletes every line of the quote and inserts items in their place.
func (r *repository) ReplaceItems(ctx context.Context, quoteID uuid.UUID, items []models.QuoteLineItem) error {
	tx := r.DB(ctx)
	if err := tx.Where("quote_id = ?", quoteID).Delete(&models.QuoteLineItem{}).Error; err != nil {
		return err
	}
	if len(items) == 0 {
		return nil
	}
	for i := range items {
		items[i].QuoteID = quoteID
	}
	return tx.Create(&items).Error
}

func (r *repository) Delete(ctx context.Context, id uuid.UUID) error {
	tx := r.DB(ctx)
	if err := tx.Where("quote_id = ?", id).Delete(&models.QuoteLineItem{}).Error; err != nil {
		return err
	}
	return tx.Where("id = ?", id).Delete(&models.Quote{}).Error
}
