package quotes

import (
	"context"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/angelmondragon/backoffice-backend/pkg/db/models"
	"github.com/angelmondragon/backoffice-backend/pkg/enums"
	"github.com/angelmondragon/backoffice-backend/pkg/pagination"
)

// ListFilters narrows quote listings. OwnerID nil means every owner.
type ListFilters struct {
	OwnerID *uuid.UUID
	Status  *enums.QuoteStatus
	Search  string
}

// Repository defines persistence for quotes and their line items.
type Repository interface {
	WithTx(tx *gorm.DB) Repository
	Create(ctx context.Context, quote *models.Quote) error
	FindByID(ctx context.Context, id uuid.UUID) (*models.Quote, error)
	// FindForUpdate loads the quote and holds its row lock until the
	// surrounding transaction ends.
	FindForUpdate(ctx context.Context, id uuid.UUID) (*models.Quote, error)
	List(ctx context.Context, filters ListFilters, params pagination.Params) ([]models.Quote, int64, error)
	Update(ctx context.Context, quote *models.Quote) error
	// MarkConverted moves an approved quote to converted and reports whether
	// the row was still approved.
	MarkConverted(ctx context.Context, id uuid.UUID) (bool, error)
	ReplaceItems(ctx context.Context, quoteID uuid.UUID, items []models.QuoteLineItem) error
	Delete(ctx context.Context, id uuid.UUID) error
}

// FeatureGate reports whether an operator-controlled feature is switched on.
type FeatureGate interface {
	FeatureEnabled(ctx context.Context, key string) (bool, error)
}

// DocumentRecorder counts issued and converted documents.
type DocumentRecorder interface {
	IncCreated(kind string)
	IncConverted()
}

type txRunner interface {
	WithTx(ctx context.Context, fn func(tx *gorm.DB) error) error
}

type numberer interface {
	Next(ctx context.Context, tx *gorm.DB, kind enums.DocumentKind, ownerID uuid.UUID) (string, error)
}
