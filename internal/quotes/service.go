package quotes

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"

	"github.com/angelmondragon/backoffice-backend/internal/orders"
	"github.com/angelmondragon/backoffice-backend/internal/policy"
	"github.com/angelmondragon/backoffice-backend/internal/products"
	"github.com/angelmondragon/backoffice-backend/pkg/db"
	"github.com/angelmondragon/backoffice-backend/pkg/db/models"
	"github.com/angelmondragon/backoffice-backend/pkg/enums"
	pkgerrors "github.com/angelmondragon/backoffice-backend/pkg/errors"
	"github.com/angelmondragon/backoffice-backend/pkg/pagination"
)

// FeatureKey gates quote creation.
const FeatureKey = "allow_quotes"

// Service defines quote management and conversion.
type Service interface {
	List(ctx context.Context, actor policy.Actor, filters ListFilters, params pagination.Params) (pagination.Page[QuoteDTO], error)
	Get(ctx context.Context, actor policy.Actor, id uuid.UUID) (*QuoteDTO, error)
	Create(ctx context.Context, actor policy.Actor, input CreateInput) (*QuoteDTO, error)
	Update(ctx context.Context, actor policy.Actor, id uuid.UUID, input UpdateInput) (*QuoteDTO, error)
	Delete(ctx context.Context, actor policy.Actor, id uuid.UUID) error
	Convert(ctx context.Context, actor policy.Actor, id uuid.UUID) (*orders.OrderDTO, error)
}

// ItemInput is one requested quote line. ProductName may be left blank when
// ProductID is set; UnitPrice nil then falls back to the catalog price.
type ItemInput struct {
	ProductID   *uuid.UUID
	ProductName string
	Quantity    int
	UnitPrice   *decimal.Decimal
}

// CreateInput holds the validated payload to create a quote.
type CreateInput struct {
	Customer string
	Address  *string
	DueDate  *time.Time
	Notes    *string
	Items    []ItemInput
}

// UpdateInput holds optional mutation values. Items replace every existing line.
type UpdateInput struct {
	Customer *string
	Address  *string
	DueDate  *time.Time
	Notes    *string
	Status   *enums.QuoteStatus
	Items    *[]ItemInput
}

type service struct {
	repo      Repository
	orderRepo orders.Repository
	catalog   *products.Repository
	tx        txRunner
	numbers   numberer
	features  FeatureGate
	metrics   DocumentRecorder
}

// NewService constructs the quote service.
func NewService(repo Repository, orderRepo orders.Repository, catalog *products.Repository, tx txRunner, numbers numberer, features FeatureGate, metrics DocumentRecorder) (Service, error) {
	if repo == nil {
		return nil, fmt.Errorf("quote repository required")
	}
	if orderRepo == nil {
		return nil, fmt.Errorf("order repository required")
	}
	if catalog == nil {
		return nil, fmt.Errorf("product repository required")
	}
	if tx == nil {
		return nil, fmt.Errorf("transaction runner required")
	}
	if numbers == nil {
		return nil, fmt.Errorf("number generator required")
	}
	if features == nil {
		return nil, fmt.Errorf("feature gate required")
	}
	if metrics == nil {
		metrics = noopRecorder{}
	}
	return &service{
		repo:      repo,
		orderRepo: orderRepo,
		catalog:   catalog,
		tx:        tx,
		numbers:   numbers,
		features:  features,
		metrics:   metrics,
	}, nil
}

func (s *service) List(ctx context.Context, actor policy.Actor, filters ListFilters, params pagination.Params) (pagination.Page[QuoteDTO], error) {
	if err := policy.Authorize(actor, policy.ActionList, policy.Collection(policy.KindQuote)); err != nil {
		return pagination.Page[QuoteDTO]{}, err
	}
	filters.OwnerID = policy.OwnerScope(actor, policy.KindQuote)

	rows, total, err := s.repo.List(ctx, filters, params)
	if err != nil {
		return pagination.Page[QuoteDTO]{}, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "list quotes")
	}
	items := make([]QuoteDTO, 0, len(rows))
	for i := range rows {
		items = append(items, NewQuoteDTO(&rows[i]))
	}
	return pagination.NewPage(items, params, total), nil
}

func (s *service) Get(ctx context.Context, actor policy.Actor, id uuid.UUID) (*QuoteDTO, error) {
	quote, err := s.loadAuthorized(ctx, s.repo, actor, policy.ActionRead, id)
	if err != nil {
		return nil, err
	}
	dto := NewQuoteDTO(quote)
	return &dto, nil
}

func (s *service) Create(ctx context.Context, actor policy.Actor, input CreateInput) (*QuoteDTO, error) {
	if err := policy.Authorize(actor, policy.ActionCreate, policy.Collection(policy.KindQuote)); err != nil {
		return nil, err
	}
	enabled, err := s.features.FeatureEnabled(ctx, FeatureKey)
	if err != nil {
		return nil, err
	}
	if !enabled {
		return nil, pkgerrors.New(pkgerrors.CodeForbidden, "quote creation is disabled")
	}

	customer := strings.TrimSpace(input.Customer)
	if customer == "" {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "invalid quote").WithDetails([]string{pkgerrors.Detail("customer", "is required")})
	}
	lines, total, err := s.buildLines(ctx, input.Items)
	if err != nil {
		return nil, err
	}

	var quoteID uuid.UUID
	err = s.tx.WithTx(ctx, func(tx *gorm.DB) error {
		number, err := s.numbers.Next(ctx, tx, enums.DocumentKindQuote, actor.UserID)
		if err != nil {
			return err
		}
		quote := &models.Quote{
			Number:     number,
			Customer:   customer,
			Address:    trimOptional(input.Address),
			TotalValue: total,
			Status:     enums.QuoteStatusPending,
			DueDate:    input.DueDate,
			Notes:      trimOptional(input.Notes),
			OwnerID:    actor.UserID,
			Items:      lines,
		}
		if err := s.repo.WithTx(tx).Create(ctx, quote); err != nil {
			if db.IsUniqueViolation(err, "") {
				return pkgerrors.Wrap(pkgerrors.CodeConflict, err, "quote number already exists")
			}
			return pkgerrors.Wrap(pkgerrors.CodeInternal, err, "insert quote")
		}
		quoteID = quote.ID
		return nil
	})
	if err != nil {
		return nil, asTyped(err, "create quote")
	}
	s.metrics.IncCreated(string(enums.DocumentKindQuote))

	return s.reload(ctx, quoteID)
}

func (s *service) Update(ctx context.Context, actor policy.Actor, id uuid.UUID, input UpdateInput) (*QuoteDTO, error) {
	if input.Status != nil {
		if !input.Status.IsValid() {
			return nil, pkgerrors.New(pkgerrors.CodeValidation, fmt.Sprintf("invalid quote status %q", *input.Status))
		}
		if *input.Status == enums.QuoteStatusConverted {
			return nil, pkgerrors.New(pkgerrors.CodeValidation, "quotes become converted only through conversion")
		}
	}

	var (
		lines []models.QuoteLineItem
		total decimal.Decimal
	)
	if input.Items != nil {
		var err error
		if lines, total, err = s.buildLines(ctx, *input.Items); err != nil {
			return nil, err
		}
	}

	err := s.tx.WithTx(ctx, func(tx *gorm.DB) error {
		txRepo := s.repo.WithTx(tx)
		quote, err := s.loadAuthorized(ctx, txRepo, actor, policy.ActionUpdate, id)
		if err != nil {
			return err
		}
		if quote.Status == enums.QuoteStatusConverted {
			return pkgerrors.New(pkgerrors.CodeConflict, "converted quotes cannot be edited")
		}

		if input.Customer != nil {
			customer := strings.TrimSpace(*input.Customer)
			if customer == "" {
				return pkgerrors.New(pkgerrors.CodeValidation, "invalid quote").WithDetails([]string{pkgerrors.Detail("customer", "cannot be blank")})
			}
			quote.Customer = customer
		}
		if input.Address != nil {
			quote.Address = trimOptional(input.Address)
		}
		if input.DueDate != nil {
			quote.DueDate = input.DueDate
		}
		if input.Notes != nil {
			quote.Notes = trimOptional(input.Notes)
		}
		if input.Status != nil && *input.Status != quote.Status {
			if !quote.Status.CanTransitionTo(*input.Status) {
				return pkgerrors.New(pkgerrors.CodeValidation, fmt.Sprintf("cannot change quote status from %s to %s", quote.Status, *input.Status))
			}
			quote.Status = *input.Status
		}

		if input.Items != nil {
			if err := txRepo.ReplaceItems(ctx, quote.ID, lines); err != nil {
				return pkgerrors.Wrap(pkgerrors.CodeInternal, err, "replace quote items")
			}
			quote.TotalValue = total
		}

		quote.Items = nil
		quote.Owner = nil
		if err := txRepo.Update(ctx, quote); err != nil {
			return pkgerrors.Wrap(pkgerrors.CodeInternal, err, "update quote")
		}
		return nil
	})
	if err != nil {
		return nil, asTyped(err, "update quote")
	}
	return s.reload(ctx, id)
}

func (s *service) Delete(ctx context.Context, actor policy.Actor, id uuid.UUID) error {
	err := s.tx.WithTx(ctx, func(tx *gorm.DB) error {
		txRepo := s.repo.WithTx(tx)
		if _, err := s.loadAuthorized(ctx, txRepo, actor, policy.ActionDelete, id); err != nil {
			return err
		}
		referenced, err := s.orderRepo.WithTx(tx).ExistsForQuote(ctx, id)
		if err != nil {
			return pkgerrors.Wrap(pkgerrors.CodeInternal, err, "check quote orders")
		}
		if referenced {
			return pkgerrors.New(pkgerrors.CodeConflict, "quote is referenced by an order")
		}
		if err := txRepo.Delete(ctx, id); err != nil {
			if db.IsForeignKeyViolation(err) {
				return pkgerrors.Wrap(pkgerrors.CodeConflict, err, "quote is referenced by an order")
			}
			return pkgerrors.Wrap(pkgerrors.CodeInternal, err, "delete quote")
		}
		return nil
	})
	return asTyped(err, "delete quote")
}

// buildLines validates requested lines and fills names and prices from the
// catalog for lines that reference a product.
func (s *service) buildLines(ctx context.Context, items []ItemInput) ([]models.QuoteLineItem, decimal.Decimal, error) {
	if len(items) == 0 {
		return nil, decimal.Zero, pkgerrors.New(pkgerrors.CodeValidation, "invalid quote").WithDetails([]string{pkgerrors.Detail("items", "at least one item is required")})
	}

	ids := make([]uuid.UUID, 0, len(items))
	for _, item := range items {
		if item.ProductID != nil {
			ids = append(ids, *item.ProductID)
		}
	}
	catalog, err := s.catalog.FindByIDs(ctx, ids)
	if err != nil {
		return nil, decimal.Zero, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "load products")
	}

	var details []string
	lines := make([]models.QuoteLineItem, 0, len(items))
	total := decimal.Zero
	for i, item := range items {
		field := fmt.Sprintf("items[%d]", i)
		name := strings.TrimSpace(item.ProductName)
		price := item.UnitPrice

		var productID *uuid.UUID
		if item.ProductID != nil {
			product, ok := catalog[*item.ProductID]
			if !ok {
				details = append(details, pkgerrors.Detail(field, "product not found"))
				continue
			}
			id := product.ID
			productID = &id
			if name == "" {
				name = product.Name
			}
			if price == nil {
				catalogPrice := product.Price
				price = &catalogPrice
			}
		}

		switch {
		case name == "":
			details = append(details, pkgerrors.Detail(field, "product_name is required"))
			continue
		case item.Quantity < 1:
			details = append(details, pkgerrors.Detail(field, "quantity must be at least 1"))
			continue
		case price == nil:
			details = append(details, pkgerrors.Detail(field, "unit_price is required"))
			continue
		case price.IsNegative():
			details = append(details, pkgerrors.Detail(field, "unit_price must be greater than or equal to 0"))
			continue
		}

		unitPrice := price.Round(2)
		lineTotal := unitPrice.Mul(decimal.NewFromInt(int64(item.Quantity))).Round(2)
		total = total.Add(lineTotal)
		lines = append(lines, models.QuoteLineItem{
			ProductID:   productID,
			ProductName: name,
			Quantity:    item.Quantity,
			UnitPrice:   unitPrice,
			LineTotal:   lineTotal,
		})
	}
	if len(details) > 0 {
		return nil, decimal.Zero, pkgerrors.New(pkgerrors.CodeValidation, "invalid quote items").WithDetails(details)
	}
	return lines, total, nil
}

// loadAuthorized loads the quote and checks action against it. Every action
// but read locks the row, so edits, deletes and conversion of one quote run
// one after another.
func (s *service) loadAuthorized(ctx context.Context, repo Repository, actor policy.Actor, action policy.Action, id uuid.UUID) (*models.Quote, error) {
	find := repo.FindForUpdate
	if action == policy.ActionRead {
		find = repo.FindByID
	}
	quote, err := find(ctx, id)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, pkgerrors.New(pkgerrors.CodeNotFound, "quote not found")
		}
		return nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "load quote")
	}
	if err := policy.Authorize(actor, action, policy.Owned(policy.KindQuote, quote.OwnerID)); err != nil {
		return nil, err
	}
	return quote, nil
}

func (s *service) reload(ctx context.Context, id uuid.UUID) (*QuoteDTO, error) {
	quote, err := s.repo.FindByID(ctx, id)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "reload quote")
	}
	dto := NewQuoteDTO(quote)
	return &dto, nil
}

type noopRecorder struct{}

func (noopRecorder) IncCreated(string) {}
func (noopRecorder) IncConverted()     {}

func asTyped(err error, action string) error {
	if err == nil || pkgerrors.As(err) != nil {
		return err
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
