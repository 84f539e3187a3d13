package orders

import (
	"context"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/angelmondragon/backoffice-backend/pkg/db/models"
	"github.com/angelmondragon/backoffice-backend/pkg/enums"
	"github.com/angelmondragon/backoffice-backend/pkg/pagination"
)

// ListFilters narrows order listings. OwnerID nil means every owner.
type ListFilters struct {
	OwnerID *uuid.UUID
	Status  *enums.OrderStatus
	Search  string
}

// Repository defines persistence for orders and their line items.
type Repository interface {
	WithTx(tx *gorm.DB) Repository
	Create(ctx context.Context, order *models.Order) error
	FindByID(ctx context.Context, id uuid.UUID) (*models.Order, error)
	List(ctx context.Context, filters ListFilters, params pagination.Params) ([]models.Order, int64, error)
	Update(ctx context.Context, order *models.Order) error
	ReplaceItems(ctx context.Context, orderID uuid.UUID, items []models.OrderLineItem) error
	Delete(ctx context.Context, id uuid.UUID) error
	ExistsForQuote(ctx context.Context, quoteID uuid.UUID) (bool, error)
}

// FeatureGate reports whether an operator-controlled feature is switched on.
type FeatureGate interface {
	FeatureEnabled(ctx context.Context, key string) (bool, error)
}

// DocumentRecorder counts issued documents.
type DocumentRecorder interface {
	IncCreated(kind string)
}

type txRunner interface {
	WithTx(ctx context.Context, fn func(tx *gorm.DB) error) error
}

type numberer interface {
	Next(ctx context.Context, tx *gorm.DB, kind enums.DocumentKind, ownerID uuid.UUID) (string, error)
}

type productReader interface {
	FindByIDs(ctx context.Context, ids []uuid.UUID) (map[uuid.UUID]models.Product, error)
}
