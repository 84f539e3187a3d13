package quotes

import (
	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/angelmondragon/backoffice-backend/api/validators"
	internalquotes "github.com/angelmondragon/backoffice-backend/internal/quotes"
	"github.com/angelmondragon/backoffice-backend/pkg/enums"
)

type itemRequest struct {
	ProductID   *uuid.UUID       `json:"product_id,omitempty"`
	ProductName string           `json:"product_name,omitempty" validate:"max=255"`
	Quantity    int              `json:"quantity"`
	UnitPrice   *decimal.Decimal `json:"unit_price,omitempty"`
}

type createRequest struct {
	Customer string           `json:"customer" validate:"max=255"`
	Address  *string          `json:"address,omitempty"`
	DueDate  *validators.Date `json:"due_date,omitempty"`
	Notes    *string          `json:"notes,omitempty"`
	Items    []itemRequest    `json:"items" validate:"dive"`
}

type updateRequest struct {
	Customer *string            `json:"customer,omitempty" validate:"omitempty,max=255"`
	Address  *string            `json:"address,omitempty"`
	DueDate  *validators.Date   `json:"due_date,omitempty"`
	Notes    *string            `json:"notes,omitempty"`
	Status   *enums.QuoteStatus `json:"status,omitempty"`
	Items    *[]itemRequest     `json:"items,omitempty" validate:"omitempty,dive"`
}

func toItems(items []itemRequest) []internalquotes.ItemInput {
	out := make([]internalquotes.ItemInput, 0, len(items))
	for _, item := range items {
		out = append(out, internalquotes.ItemInput{
			ProductID:   item.ProductID,
			ProductName: item.ProductName,
			Quantity:    item.Quantity,
			UnitPrice:   item.UnitPrice,
		})
	}
	return out
}

func (r createRequest) toInput() internalquotes.CreateInput {
	return internalquotes.CreateInput{
		Customer: r.Customer,
		Address:  r.Address,
		DueDate:  r.DueDate.Ptr(),
		Notes:    r.Notes,
		Items:    toItems(r.Items),
	}
}

func (r updateRequest) toInput() internalquotes.UpdateInput {
	input := internalquotes.UpdateInput{
		Customer: r.Customer,
		Address:  r.Address,
		DueDate:  r.DueDate.Ptr(),
		Notes:    r.Notes,
		Status:   r.Status,
	}
	if r.Items != nil {
		items := toItems(*r.Items)
		input.Items = &items
	}
	return input
}
