package models

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/angelmondragon/backoffice-backend/pkg/enums"
)

// Configuration is a key/value application setting.
type Configuration struct {
	ID          uuid.UUID            `gorm:"column:id;type:uuid;primaryKey"`
	Key         string               `gorm:"column:config_key;not null;uniqueIndex"`
	Value       string               `gorm:"column:value;not null"`
	Type        enums.ConfigType     `gorm:"column:type;type:varchar(20);not null;default:string"`
	Description *string              `gorm:"column:description"`
	Category    enums.ConfigCategory `gorm:"column:category;type:varchar(20);not null;default:general;index"`
	CreatedAt   time.Time            `gorm:"column:created_at;autoCreateTime"`
	UpdatedAt   time.Time            `gorm:"column:updated_at;autoUpdateTime"`
}

func (c *Configuration) BeforeCreate(*gorm.DB) error {
	ensureID(&c.ID)
	return nil
}
