package configurations

import (
	"context"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"github.com/angelmondragon/backoffice-backend/internal/repo"
	"github.com/angelmondragon/backoffice-backend/pkg/db/models"
	"github.com/angelmondragon/backoffice-backend/pkg/enums"
)

// Repository persists configuration rows.
type Repository struct {
	repo.Base
}

func NewRepository(db *gorm.DB) *Repository {
	return &Repository{Base: repo.NewBase(db)}
}

func (r *Repository) FindByKey(ctx context.Context, key string) (*models.Configuration, error) {
	var cfg models.Configuration
	if err := r.DB(ctx).Where("config_key = ?", key).First(&cfg).Error; err != nil {
		return nil, err
	}
	return &cfg, nil
}

// List returns rows ordered by category then key, optionally for one category.
func (r *Repository) List(ctx context.Context, category *enums.ConfigCategory) ([]models.Configuration, error) {
	query := r.DB(ctx).Model(&models.Configuration{})
	if category != nil {
		query = query.Where("category = ?", *category)
	}
	var rows []models.Configuration
	if err := query.Order("category ASC, config_key ASC").Find(&rows).Error; err != nil {
		return nil, err
	}
	return rows, nil
}

// Upsert inserts cfg or overwrites value, type, description and category of
// the row holding the same key.
func (r *Repository) Upsert(ctx context.Context, cfg *models.Configuration) error {
	return r.DB(ctx).Clauses(clause.OnConflict{
		Columns:   []clause.Column{{Name: "config_key"}},
		DoUpdates: clause.AssignmentColumns([]string{"value", "type", "description", "category", "updated_at"}),
	}).Create(cfg).Error
}

// InsertMissing inserts rows whose key does not exist yet and leaves the rest untouched.
func (r *Repository) InsertMissing(ctx context.Context, rows []models.Configuration) error {
	if len(rows) == 0 {
		return nil
	}
	return r.DB(ctx).Clauses(clause.OnConflict{
		Columns:   []clause.Column{{Name: "config_key"}},
		DoNothing: true,
	}).Create(&rows).Error
}

// Delete removes the row for key and reports whether one existed.
func (r *Repository) Delete(ctx context.Context, key string) (bool, error) {
	res := r.DB(ctx).Where("config_key = ?", key).Delete(&models.Configuration{})
	if res.Error != nil {
		return false, res.Error
	}
	return res.RowsAffected > 0, nil
}
