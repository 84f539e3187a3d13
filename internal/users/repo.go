package users

import (
	"context"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/angelmondragon/backoffice-backend/internal/repo"
	"github.com/angelmondragon/backoffice-backend/pkg/db/models"
	"github.com/angelmondragon/backoffice-backend/pkg/enums"
	"github.com/angelmondragon/backoffice-backend/pkg/pagination"
)

// ListFilters narrows user listings.
type ListFilters struct {
	Role   *enums.UserRole
	Active *bool
	Search string
}

// DocumentCounts is how many quotes and orders a user owns.
type DocumentCounts struct {
	Quotes int64
	Orders int64
}

// Repository exposes user-related persistence operations.
type Repository struct {
	repo.Base
}

// NewRepository constructs a users repo bound to the provided GORM DB.
func NewRepository(db *gorm.DB) *Repository {
	return &Repository{Base: repo.NewBase(db)}
}

// Create inserts a new user.
func (r *Repository) Create(ctx context.Context, user *models.User) error {
	return r.DB(ctx).Create(user).Error
}

// FindByEmail retrieves the user matching the provided email.
func (r *Repository) FindByEmail(ctx context.Context, email string) (*models.User, error) {
	var user models.User
	if err := r.DB(ctx).Where("email = ?", email).First(&user).Error; err != nil {
		return nil, err
	}
	return &user, nil
}

// FindByID loads a user by their UUID.
func (r *Repository) FindByID(ctx context.Context, id uuid.UUID) (*models.User, error) {
	var user models.User
	if err := r.DB(ctx).First(&user, "id = ?", id).Error; err != nil {
		return nil, err
	}
	return &user, nil
}

// Count returns the number of users.
func (r *Repository) Count(ctx context.Context) (int64, error) {
	var count int64
	err := r.DB(ctx).Model(&models.User{}).Count(&count).Error
	return count, err
}

// List returns one page of users ordered by name.
func (r *Repository) List(ctx context.Context, filters ListFilters, params pagination.Params) ([]models.User, int64, error) {
	query := r.DB(ctx).Model(&models.User{})
	if filters.Role != nil {
		query = query.Where("role = ?", *filters.Role)
	}
	if filters.Active != nil {
		query = query.Where("active = ?", *filters.Active)
	}
	query = repo.Search(query, filters.Search, "name", "email")

	var rows []models.User
	total, err := repo.FindPage(query, params, "name ASC, id ASC", &rows)
	if err != nil {
		return nil, 0, err
	}
	return rows, total, nil
}

// CountDocuments returns quote and order counts keyed by owner.
func (r *Repository) CountDocuments(ctx context.Context, ids []uuid.UUID) (map[uuid.UUID]DocumentCounts, error) {
	out := make(map[uuid.UUID]DocumentCounts, len(ids))
	if len(ids) == 0 {
		return out, nil
	}

	type ownerCount struct {
		OwnerID uuid.UUID
		Total   int64
	}
	var quotes, orders []ownerCount
	if err := r.DB(ctx).Model(&models.Quote{}).
		Select("owner_id, COUNT(*) AS total").
		Where("owner_id IN ?", ids).
		Group("owner_id").
		Scan(&quotes).Error; err != nil {
		return nil, err
	}
	if err := r.DB(ctx).Model(&models.Order{}).
		Select("owner_id, COUNT(*) AS total").
		Where("owner_id IN ?", ids).
		Group("owner_id").
		Scan(&orders).Error; err != nil {
		return nil, err
	}

	for _, row := range quotes {
		counts := out[row.OwnerID]
		counts.Quotes = row.Total
		out[row.OwnerID] = counts
	}
	for _, row := range orders {
		counts := out[row.OwnerID]
		counts.Orders = row.Total
		out[row.OwnerID] = counts
	}
	return out, nil
}

// Update saves every column of the user.
func (r *Repository) Update(ctx context.Context, user *models.User) error {
	return r.DB(ctx).Save(user).Error
}

func (r *Repository) Delete(ctx context.Context, id uuid.UUID) error {
	return r.DB(ctx).Where("id = ?", id).Delete(&models.User{}).Error
}

// UpdateLastLogin refreshes the user's last_login_at timestamp.
func (r *Repository) UpdateLastLogin(ctx context.Context, id uuid.UUID, at time.Time) error {
	return r.DB(ctx).
		Model(&models.User{}).
		Where("id = ?", id).
		UpdateColumn("last_login_at", at).Error
}
