package configurations

import (
	"time"

	"github.com/google/uuid"

	"github.com/angelmondragon/backoffice-backend/pkg/db/models"
	"github.com/angelmondragon/backoffice-backend/pkg/enums"
)

// ConfigurationDTO is the API view of a setting.
type ConfigurationDTO struct {
	ID          uuid.UUID            `json:"id"`
	Key         string               `json:"key"`
	Value       string               `json:"value"`
	Type        enums.ConfigType     `json:"type"`
	Description *string              `json:"description,omitempty"`
	Category    enums.ConfigCategory `json:"category"`
	UpdatedAt   time.Time            `json:"updated_at"`
}

// Grouped maps each category to its settings, ordered by key.
type Grouped map[enums.ConfigCategory][]ConfigurationDTO

func NewConfigurationDTO(cfg *models.Configuration) ConfigurationDTO {
	return ConfigurationDTO{
		ID:          cfg.ID,
		Key:         cfg.Key,
		Value:       cfg.Value,
		Type:        cfg.Type,
		Description: cfg.Description,
		Category:    cfg.Category,
		UpdatedAt:   cfg.UpdatedAt,
	}
}
