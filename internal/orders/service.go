package orders

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"

	"github.com/angelmondragon/backoffice-backend/internal/policy"
	"github.com/angelmondragon/backoffice-backend/pkg/db"
	"github.com/angelmondragon/backoffice-backend/pkg/db/models"
	"github.com/angelmondragon/backoffice-backend/pkg/enums"
	pkgerrors "github.com/angelmondragon/backoffice-backend/pkg/errors"
	"github.com/angelmondragon/backoffice-backend/pkg/pagination"
)

// FeatureKey gates order creation.
const FeatureKey = "allow_orders"

// Service defines order management operations.
type Service interface {
	List(ctx context.Context, actor policy.Actor, filters ListFilters, params pagination.Params) (pagination.Page[OrderDTO], error)
	Get(ctx context.Context, actor policy.Actor, id uuid.UUID) (*OrderDTO, error)
	Create(ctx context.Context, actor policy.Actor, input CreateInput) (*OrderDTO, error)
	Update(ctx context.Context, actor policy.Actor, id uuid.UUID, input UpdateInput) (*OrderDTO, error)
	Delete(ctx context.Context, actor policy.Actor, id uuid.UUID) error
}

// ItemInput is one requested order line. UnitPrice nil means the catalog price.
type ItemInput struct {
	ProductID uuid.UUID
	Quantity  int
	UnitPrice *decimal.Decimal
}

// CreateInput holds the validated payload to create an order.
type CreateInput struct {
	Customer     string
	Address      *string
	DeliveryDate *time.Time
	Notes        *string
	Items        []ItemInput
}

// UpdateInput holds optional mutation values for an order. Items replace the
// existing lines and are only accepted while the order is new.
type UpdateInput struct {
	Customer     *string
	Address      *string
	DeliveryDate *time.Time
	Notes        *string
	Status       *enums.OrderStatus
	Items        *[]ItemInput
}

type service struct {
	repo     Repository
	tx       txRunner
	products productReader
	numbers  numberer
	features FeatureGate
	metrics  DocumentRecorder
}

// NewService constructs the order service.
func NewService(repo Repository, tx txRunner, products productReader, numbers numberer, features FeatureGate, metrics DocumentRecorder) (Service, error) {
	if repo == nil {
		return nil, fmt.Errorf("order repository required")
	}
	if tx == nil {
		return nil, fmt.Errorf("transaction runner required")
	}
	if products == nil {
		return nil, fmt.Errorf("product reader required")
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
		repo:     repo,
		tx:       tx,
		products: products,
		numbers:  numbers,
		features: features,
		metrics:  metrics,
	}, nil
}

func (s *service) List(ctx context.Context, actor policy.Actor, filters ListFilters, params pagination.Params) (pagination.Page[OrderDTO], error) {
	if err := policy.Authorize(actor, policy.ActionList, policy.Collection(policy.KindOrder)); err != nil {
		return pagination.Page[OrderDTO]{}, err
	}
	filters.OwnerID = policy.OwnerScope(actor, policy.KindOrder)

	rows, total, err := s.repo.List(ctx, filters, params)
	if err != nil {
		return pagination.Page[OrderDTO]{}, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "list orders")
	}
	items := make([]OrderDTO, 0, len(rows))
	for i := range rows {
		items = append(items, NewOrderDTO(&rows[i]))
	}
	return pagination.NewPage(items, params, total), nil
}

func (s *service) Get(ctx context.Context, actor policy.Actor, id uuid.UUID) (*OrderDTO, error) {
	order, err := s.loadAuthorized(ctx, s.repo, actor, policy.ActionRead, id)
	if err != nil {
		return nil, err
	}
	dto := NewOrderDTO(order)
	return &dto, nil
}

func (s *service) Create(ctx context.Context, actor policy.Actor, input CreateInput) (*OrderDTO, error) {
	if err := policy.Authorize(actor, policy.ActionCreate, policy.Collection(policy.KindOrder)); err != nil {
		return nil, err
	}
	enabled, err := s.features.FeatureEnabled(ctx, FeatureKey)
	if err != nil {
		return nil, err
	}
	if !enabled {
		return nil, pkgerrors.New(pkgerrors.CodeForbidden, "order creation is disabled")
	}

	customer := strings.TrimSpace(input.Customer)
	if customer == "" {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "invalid order").WithDetails([]string{pkgerrors.Detail("customer", "is required")})
	}
	lines, total, err := s.buildLines(ctx, input.Items)
	if err != nil {
		return nil, err
	}

	var orderID uuid.UUID
	err = s.tx.WithTx(ctx, func(tx *gorm.DB) error {
		number, err := s.numbers.Next(ctx, tx, enums.DocumentKindOrder, actor.UserID)
		if err != nil {
			return err
		}
		order := &models.Order{
			Number:       number,
			Customer:     customer,
			Address:      trimOptional(input.Address),
			TotalValue:   total,
			Status:       enums.OrderStatusNew,
			DeliveryDate: input.DeliveryDate,
			Notes:        trimOptional(input.Notes),
			OwnerID:      actor.UserID,
			Items:        lines,
		}
		if err := s.repo.WithTx(tx).Create(ctx, order); err != nil {
			if db.IsUniqueViolation(err, "") {
				return pkgerrors.Wrap(pkgerrors.CodeConflict, err, "order number already exists")
			}
			return pkgerrors.Wrap(pkgerrors.CodeInternal, err, "insert order")
		}
		orderID = order.ID
		return nil
	})
	if err != nil {
		return nil, asTyped(err, "create order")
	}
	s.metrics.IncCreated(string(enums.DocumentKindOrder))

	return s.reload(ctx, orderID)
}

func (s *service) Update(ctx context.Context, actor policy.Actor, id uuid.UUID, input UpdateInput) (*OrderDTO, error) {
	var (
		lines []models.OrderLineItem
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
		order, err := s.loadAuthorized(ctx, txRepo, actor, policy.ActionUpdate, id)
		if err != nil {
			return err
		}

		if input.Customer != nil {
			customer := strings.TrimSpace(*input.Customer)
			if customer == "" {
				return pkgerrors.New(pkgerrors.CodeValidation, "invalid order").WithDetails([]string{pkgerrors.Detail("customer", "cannot be blank")})
			}
			order.Customer = customer
		}
		if input.Address != nil {
			order.Address = trimOptional(input.Address)
		}
		if input.DeliveryDate != nil {
			order.DeliveryDate = input.DeliveryDate
		}
		if input.Notes != nil {
			order.Notes = trimOptional(input.Notes)
		}

		if input.Items != nil {
			if order.Status != enums.OrderStatusNew {
				return pkgerrors.New(pkgerrors.CodeConflict, "items can only be changed while the order is new")
			}
			if err := txRepo.ReplaceItems(ctx, order.ID, lines); err != nil {
				return pkgerrors.Wrap(pkgerrors.CodeInternal, err, "replace order items")
			}
			order.TotalValue = total
		}

		if input.Status != nil && *input.Status != order.Status {
			if !order.Status.CanTransitionTo(*input.Status) {
				return pkgerrors.New(pkgerrors.CodeValidation, fmt.Sprintf("cannot change order status from %s to %s", order.Status, *input.Status))
			}
			order.Status = *input.Status
		}

		order.Items = nil
		order.Owner = nil
		if err := txRepo.Update(ctx, order); err != nil {
			return pkgerrors.Wrap(pkgerrors.CodeInternal, err, "update order")
		}
		return nil
	})
	if err != nil {
		return nil, asTyped(err, "update order")
	}
	return s.reload(ctx, id)
}

func (s *service) Delete(ctx context.Context, actor policy.Actor, id uuid.UUID) error {
	err := s.tx.WithTx(ctx, func(tx *gorm.DB) error {
		txRepo := s.repo.WithTx(tx)
		if _, err := s.loadAuthorized(ctx, txRepo, actor, policy.ActionDelete, id); err != nil {
			return err
		}
		if err := txRepo.Delete(ctx, id); err != nil {
			return pkgerrors.Wrap(pkgerrors.CodeInternal, err, "delete order")
		}
		return nil
	})
	return asTyped(err, "delete order")
}

// buildLines validates requested items against the catalog: every product must
// exist and be active. Prices default to the catalog price.
func (s *service) buildLines(ctx context.Context, items []ItemInput) ([]models.OrderLineItem, decimal.Decimal, error) {
	if len(items) == 0 {
		return nil, decimal.Zero, pkgerrors.New(pkgerrors.CodeValidation, "invalid order").WithDetails([]string{pkgerrors.Detail("items", "at least one item is required")})
	}

	ids := make([]uuid.UUID, 0, len(items))
	for _, item := range items {
		ids = append(ids, item.ProductID)
	}
	catalog, err := s.products.FindByIDs(ctx, ids)
	if err != nil {
		return nil, decimal.Zero, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "load products")
	}

	var details []string
	lines := make([]models.OrderLineItem, 0, len(items))
	total := decimal.Zero
	for i, item := range items {
		field := fmt.Sprintf("items[%d]", i)
		product, ok := catalog[item.ProductID]
		switch {
		case item.ProductID == uuid.Nil:
			details = append(details, pkgerrors.Detail(field, "product_id is required"))
			continue
		case !ok:
			details = append(details, pkgerrors.Detail(field, "product not found"))
			continue
		case !product.Active:
			details = append(details, pkgerrors.Detail(field, fmt.Sprintf("product %s is inactive", product.Code)))
			continue
		}
		if item.Quantity < 1 {
			details = append(details, pkgerrors.Detail(field, "quantity must be at least 1"))
			continue
		}

		price := product.Price
		if item.UnitPrice != nil {
			if item.UnitPrice.IsNegative() {
				details = append(details, pkgerrors.Detail(field, "unit_price must be greater than or equal to 0"))
				continue
			}
			price = item.UnitPrice.Round(2)
		}
		lineTotal := price.Mul(decimal.NewFromInt(int64(item.Quantity))).Round(2)
		total = total.Add(lineTotal)
		lines = append(lines, models.OrderLineItem{
			ProductID: product.ID,
			Quantity:  item.Quantity,
			UnitPrice: price,
			LineTotal: lineTotal,
		})
	}
	if len(details) > 0 {
		return nil, decimal.Zero, pkgerrors.New(pkgerrors.CodeValidation, "invalid order items").WithDetails(details)
	}
	return lines, total, nil
}

func (s *service) loadAuthorized(ctx context.Context, repo Repository, actor policy.Actor, action policy.Action, id uuid.UUID) (*models.Order, error) {
	order, err := repo.FindByID(ctx, id)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, pkgerrors.New(pkgerrors.CodeNotFound, "order not found")
		}
		return nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "load order")
	}
	if err := policy.Authorize(actor, action, policy.Owned(policy.KindOrder, order.OwnerID)); err != nil {
		return nil, err
	}
	return order, nil
}

func (s *service) reload(ctx context.Context, id uuid.UUID) (*OrderDTO, error) {
	order, err := s.repo.FindByID(ctx, id)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "reload order")
	}
	dto := NewOrderDTO(order)
	return &dto, nil
}

type noopRecorder struct{}

func (noopRecorder) IncCreated(string) {}

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
