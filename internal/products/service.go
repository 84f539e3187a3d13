package products

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"

	"github.com/angelmondragon/backoffice-backend/internal/policy"
	"github.com/angelmondragon/backoffice-backend/pkg/db"
	"github.com/angelmondragon/backoffice-backend/pkg/db/models"
	pkgerrors "github.com/angelmondragon/backoffice-backend/pkg/errors"
	"github.com/angelmondragon/backoffice-backend/pkg/pagination"
)

const defaultUnit = "un"

// Service exposes catalog management operations.
type Service interface {
	List(ctx context.Context, filters ListFilters, params pagination.Params) (pagination.Page[ProductDTO], error)
	Get(ctx context.Context, id uuid.UUID) (*ProductDTO, error)
	Categories(ctx context.Context) ([]string, error)
	Create(ctx context.Context, actor policy.Actor, input CreateInput) (*ProductDTO, error)
	Update(ctx context.Context, actor policy.Actor, id uuid.UUID, input UpdateInput) (*ProductDTO, error)
	Delete(ctx context.Context, actor policy.Actor, id uuid.UUID) error
}

// CreateInput holds the validated payload to create a product.
type CreateInput struct {
	Code        string
	Name        string
	Description *string
	Price       decimal.Decimal
	Category    *string
	Unit        string
	Active      *bool
}

// UpdateInput holds optional mutation values for a product.
type UpdateInput struct {
	Code        *string
	Name        *string
	Description *string
	Price       *decimal.Decimal
	Category    *string
	Unit        *string
	Active      *bool
}

type service struct {
	repo     *Repository
	dbClient *db.Client
}

// NewService constructs a product service instance.
func NewService(repo *Repository, dbClient *db.Client) (Service, error) {
	if repo == nil {
		return nil, fmt.Errorf("product repository required")
	}
	if dbClient == nil {
		return nil, fmt.Errorf("db client required")
	}
	return &service{repo: repo, dbClient: dbClient}, nil
}

func (s *service) List(ctx context.Context, filters ListFilters, params pagination.Params) (pagination.Page[ProductDTO], error) {
	rows, total, err := s.repo.List(ctx, filters, params)
	if err != nil {
		return pagination.Page[ProductDTO]{}, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "list products")
	}
	items := make([]ProductDTO, 0, len(rows))
	for i := range rows {
		items = append(items, NewProductDTO(&rows[i]))
	}
	return pagination.NewPage(items, params, total), nil
}

func (s *service) Get(ctx context.Context, id uuid.UUID) (*ProductDTO, error) {
	product, err := s.load(ctx, id)
	if err != nil {
		return nil, err
	}
	dto := NewProductDTO(product)
	return &dto, nil
}

func (s *service) Categories(ctx context.Context) ([]string, error) {
	categories, err := s.repo.Categories(ctx)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "list categories")
	}
	if categories == nil {
		categories = []string{}
	}
	return categories, nil
}

func (s *service) Create(ctx context.Context, actor policy.Actor, input CreateInput) (*ProductDTO, error) {
	if err := policy.Authorize(actor, policy.ActionCreate, policy.Collection(policy.KindProduct)); err != nil {
		return nil, err
	}

	code := strings.TrimSpace(input.Code)
	name := strings.TrimSpace(input.Name)
	details := map[string]string{}
	if code == "" {
		details["code"] = "is required"
	}
	if name == "" {
		details["name"] = "is required"
	}
	if input.Price.IsNegative() {
		details["price"] = "must be greater than or equal to 0"
	}
	if len(details) > 0 {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "invalid product").WithDetails(details)
	}

	unit := strings.TrimSpace(input.Unit)
	if unit == "" {
		unit = defaultUnit
	}
	active := true
	if input.Active != nil {
		active = *input.Active
	}

	product := &models.Product{
		Code:        code,
		Name:        name,
		Description: trimOptional(input.Description),
		Price:       input.Price.Round(2),
		Category:    trimOptional(input.Category),
		Unit:        unit,
		Active:      active,
	}
	if err := s.repo.Create(ctx, product); err != nil {
		return nil, mapWriteError(err, "insert product")
	}

	dto := NewProductDTO(product)
	return &dto, nil
}

func (s *service) Update(ctx context.Context, actor policy.Actor, id uuid.UUID, input UpdateInput) (*ProductDTO, error) {
	if err := policy.Authorize(actor, policy.ActionUpdate, policy.Collection(policy.KindProduct)); err != nil {
		return nil, err
	}

	product, err := s.load(ctx, id)
	if err != nil {
		return nil, err
	}

	details := map[string]string{}
	if input.Code != nil {
		if code := strings.TrimSpace(*input.Code); code == "" {
			details["code"] = "cannot be blank"
		} else {
			product.Code = code
		}
	}
	if input.Name != nil {
		if name := strings.TrimSpace(*input.Name); name == "" {
			details["name"] = "cannot be blank"
		} else {
			product.Name = name
		}
	}
	if input.Price != nil {
		if input.Price.IsNegative() {
			details["price"] = "must be greater than or equal to 0"
		} else {
			product.Price = input.Price.Round(2)
		}
	}
	if len(details) > 0 {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "invalid product").WithDetails(details)
	}
	if input.Description != nil {
		product.Description = trimOptional(input.Description)
	}
	if input.Category != nil {
		product.Category = trimOptional(input.Category)
	}
	if input.Unit != nil {
		if unit := strings.TrimSpace(*input.Unit); unit != "" {
			product.Unit = unit
		}
	}
	if input.Active != nil {
		product.Active = *input.Active
	}

	if err := s.repo.Update(ctx, product); err != nil {
		return nil, mapWriteError(err, "update product")
	}
	dto := NewProductDTO(product)
	return &dto, nil
}

// Delete refuses to remove products still referenced by quote or order lines.
func (s *service) Delete(ctx context.Context, actor policy.Actor, id uuid.UUID) error {
	if err := policy.Authorize(actor, policy.ActionDelete, policy.Collection(policy.KindProduct)); err != nil {
		return err
	}

	return s.dbClient.WithTx(ctx, func(tx *gorm.DB) error {
		txRepo := s.repo.WithTx(tx)
		if _, err := txRepo.FindByID(ctx, id); err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return pkgerrors.New(pkgerrors.CodeNotFound, "product not found")
			}
			return pkgerrors.Wrap(pkgerrors.CodeInternal, err, "load product")
		}

		refs, err := txRepo.CountReferences(ctx, id)
		if err != nil {
			return pkgerrors.Wrap(pkgerrors.CodeInternal, err, "count product references")
		}
		if refs > 0 {
			return pkgerrors.New(pkgerrors.CodeConflict, "product is referenced by quotes or orders")
		}

		if err := txRepo.Delete(ctx, id); err != nil {
			if db.IsForeignKeyViolation(err) {
				return pkgerrors.Wrap(pkgerrors.CodeConflict, err, "product is referenced by quotes or orders")
			}
			return pkgerrors.Wrap(pkgerrors.CodeInternal, err, "delete product")
		}
		return nil
	})
}

func (s *service) load(ctx context.Context, id uuid.UUID) (*models.Product, error) {
	product, err := s.repo.FindByID(ctx, id)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, pkgerrors.New(pkgerrors.CodeNotFound, "product not found")
		}
		return nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "load product")
	}
	return product, nil
}

func mapWriteError(err error, action string) error {
	if db.IsUniqueViolation(err, "") {
		return pkgerrors.Wrap(pkgerrors.CodeConflict, err, "product code already exists")
	}
	return pkgerrors.Wrap(pkgerrors.CodeInternal, err, action)
}

func trimOptional(value *string) *string {
	if value == nil {
		return nil
	}
	trimmed := strings.TrimSpace(*value)
	if trimmed == "" {
		return nil
	}
	return &trimmed
}
