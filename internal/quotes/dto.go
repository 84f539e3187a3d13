package quotes

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/angelmondragon/backoffice-backend/internal/orders"
	"github.com/angelmondragon/backoffice-backend/pkg/db/models"
	"github.com/angelmondragon/backoffice-backend/pkg/enums"
)

// QuoteDTO is the quote payload returned to clients.
type QuoteDTO struct {
	ID         uuid.UUID         `json:"id"`
	Number     string            `json:"number"`
	Customer   string            `json:"customer"`
	Address    *string           `json:"address,omitempty"`
	TotalValue decimal.Decimal   `json:"total_value"`
	Status     enums.QuoteStatus `json:"status"`
	DueDate    *time.Time        `json:"due_date,omitempty"`
	Notes      *string           `json:"notes,omitempty"`
	OwnerID    uuid.UUID         `json:"owner_id"`
	Owner      *orders.OwnerDTO  `json:"owner,omitempty"`
	Items      []QuoteItemDTO    `json:"items"`
	CreatedAt  time.Time         `json:"created_at"`
	UpdatedAt  time.Time         `json:"updated_at"`
}

// QuoteItemDTO is one quote line.
type QuoteItemDTO struct {
	ID          uuid.UUID       `json:"id"`
	ProductID   *uuid.UUID      `json:"product_id,omitempty"`
	ProductName string          `json:"product_name"`
	Quantity    int             `json:"quantity"`
	UnitPrice   decimal.Decimal `json:"unit_price"`
	LineTotal   decimal.Decimal `json:"line_total"`
}

func NewQuoteDTO(quote *models.Quote) QuoteDTO {
	items := make([]QuoteItemDTO, 0, len(quote.Items))
	for _, item := range quote.Items {
		items = append(items, QuoteItemDTO{
			ID:          item.ID,
			ProductID:   item.ProductID,
			ProductName: item.ProductName,
			Quantity:    item.Quantity,
			UnitPrice:   item.UnitPrice,
			LineTotal:   item.LineTotal,
		})
	}
	return QuoteDTO{
		ID:         quote.ID,
		Number:     quote.Number,
		Customer:   quote.Customer,
		Address:    quote.Address,
		TotalValue: quote.TotalValue,
		Status:     quote.Status,
		DueDate:    quote.DueDate,
		Notes:      quote.Notes,
		OwnerID:    quote.OwnerID,
		Owner:      orders.NewOwnerDTO(quote.Owner),
		Items:      items,
		CreatedAt:  quote.CreatedAt,
		UpdatedAt:  quote.UpdatedAt,
	}
}
