package receipts

import (
	"context"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/angelmondragon/backoffice-backend/internal/repo"
	"github.com/angelmondragon/backoffice-backend/pkg/db/models"
	"github.com/angelmondragon/backoffice-backend/pkg/pagination"
)

// ListFilters narrows receipt listings; OwnerID is always set by the service.
type ListFilters struct {
	OwnerID *uuid.UUID
	Search  string
}

// Repository persists receipts.
type Repository struct {
	repo.Base
}

func NewRepository(db *gorm.DB) *Repository {
	return &Repository{Base: repo.NewBase(db)}
}

func (r *Repository) WithTx(tx *gorm.DB) *Repository {
	return &Repository{Base: repo.NewBase(tx)}
}

func (r *Repository) FindByID(ctx context.Context, id uuid.UUID) (*models.Receipt, error) {
	var receipt models.Receipt
	if err := r.DB(ctx).First(&receipt, "id = ?", id).Error; err != nil {
		return nil, err
	}
	return &receipt, nil
}

// NumberTaken reports whether ownerID already has a receipt numbered number,
// ignoring the receipt excludeID.
func (r *Repository) NumberTaken(ctx context.Context, ownerID uuid.UUID, number string, excludeID *uuid.UUID) (bool, error) {
	query := r.DB(ctx).Model(&models.Receipt{}).Where("owner_id = ? AND number = ?", ownerID, number)
	if excludeID != nil {
		query = query.Where("id <> ?", *excludeID)
	}
	var count int64
	if err := query.Count(&count).Error; err != nil {
		return false, err
	}
	return count > 0, nil
}

func (r *Repository) List(ctx context.Context, filters ListFilters, params pagination.Params) ([]models.Receipt, int64, error) {
	query := r.DB(ctx).Model(&models.Receipt{})
	query = repo.OwnedBy(query, "owner_id", filters.OwnerID)
	query = repo.Search(query, filters.Search, "number", "payer_name", "payee_name", "description")

	var rows []models.Receipt
	total, err := repo.FindPage(query, params, "created_at DESC, id DESC", &rows)
	if err != nil {
		return nil, 0, err
	}
	return rows, total, nil
}

func (r *Repository) Create(ctx context.Context, receipt *models.Receipt) error {
	return r.DB(ctx).Create(receipt).Error
}

func (r *Repository) Update(ctx context.Context, receipt *models.Receipt) error {
	return r.DB(ctx).Save(receipt).Error
}

func (r *Repository) Delete(ctx context.Context, id uuid.UUID) error {
	return r.DB(ctx).Where("id = ?", id).Delete(&models.Receipt{}).Error
}
