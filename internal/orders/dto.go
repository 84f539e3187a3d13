package orders

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/angelmondragon/backoffice-backend/pkg/db/models"
	"github.com/angelmondragon/backoffice-backend/pkg/enums"
)

// OrderDTO is the order payload returned to clients.
type OrderDTO struct {
	ID            uuid.UUID         `json:"id"`
	Number        string            `json:"number"`
	Customer      string            `json:"customer"`
	Address       *string           `json:"address,omitempty"`
	TotalValue    decimal.Decimal   `json:"total_value"`
	Status        enums.OrderStatus `json:"status"`
	DeliveryDate  *time.Time        `json:"delivery_date,omitempty"`
	Notes         *string           `json:"notes,omitempty"`
	OwnerID       uuid.UUID         `json:"owner_id"`
	Owner         *OwnerDTO         `json:"owner,omitempty"`
	SourceQuoteID *uuid.UUID        `json:"source_quote_id,omitempty"`
	Items         []OrderItemDTO    `json:"items"`
	CreatedAt     time.Time         `json:"created_at"`
	UpdatedAt     time.Time         `json:"updated_at"`
}

// OwnerDTO is the short user reference embedded in documents.
type OwnerDTO struct {
	ID    uuid.UUID `json:"id"`
	Name  string    `json:"name"`
	Email string    `json:"email"`
}

// OrderItemDTO is one order line.
type OrderItemDTO struct {
	ID        uuid.UUID          `json:"id"`
	ProductID uuid.UUID          `json:"product_id"`
	Product   *ProductSummaryDTO `json:"product,omitempty"`
	Quantity  int                `json:"quantity"`
	UnitPrice decimal.Decimal    `json:"unit_price"`
	LineTotal decimal.Decimal    `json:"line_total"`
}

// ProductSummaryDTO is the catalog reference shown on an order line.
type ProductSummaryDTO struct {
	Code string `json:"code"`
	Name string `json:"name"`
	Unit string `json:"unit"`
}

// NewOwnerDTO maps a loaded owner; nil when the association was not loaded.
func NewOwnerDTO(user *models.User) *OwnerDTO {
	if user == nil {
		return nil
	}
	return &OwnerDTO{ID: user.ID, Name: user.Name, Email: user.Email}
}

// NewOrderDTO maps the model and its loaded associations.
func NewOrderDTO(order *models.Order) OrderDTO {
	items := make([]OrderItemDTO, 0, len(order.Items))
	for _, item := range order.Items {
		dto := OrderItemDTO{
			ID:        item.ID,
			ProductID: item.ProductID,
			Quantity:  item.Quantity,
			UnitPrice: item.UnitPrice,
			LineTotal: item.LineTotal,
		}
		if item.Product != nil {
			dto.Product = &ProductSummaryDTO{Code: item.Product.Code, Name: item.Product.Name, Unit: item.Product.Unit}
		}
		items = append(items, dto)
	}
	return OrderDTO{
		ID:            order.ID,
		Number:        order.Number,
		Customer:      order.Customer,
		Address:       order.Address,
		TotalValue:    order.TotalValue,
		Status:        order.Status,
		DeliveryDate:  order.DeliveryDate,
		Notes:         order.Notes,
		OwnerID:       order.OwnerID,
		Owner:         NewOwnerDTO(order.Owner),
		SourceQuoteID: order.SourceQuoteID,
		Items:         items,
		CreatedAt:     order.CreatedAt,
		UpdatedAt:     order.UpdatedAt,
	}
}
