package orders

import (
	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/angelmondragon/backoffice-backend/api/validators"
	internalorders "github.com/angelmondragon/backoffice-backend/internal/orders"
	"github.com/angelmondragon/backoffice-backend/pkg/enums"
)

type itemRequest struct {
	ProductID uuid.UUID        `json:"product_id"`
	Quantity  int              `json:"quantity"`
	UnitPrice *decimal.Decimal `json:"unit_price,omitempty"`
}

type createRequest struct {
	Customer     string           `json:"customer" validate:"max=255"`
	Address      *string          `json:"address,omitempty"`
	DeliveryDate *validators.Date `json:"delivery_date,omitempty"`
	Notes        *string          `json:"notes,omitempty"`
	Items        []itemRequest    `json:"items"`
}

type updateRequest struct {
	Customer     *string            `json:"customer,omitempty" validate:"omitempty,max=255"`
	Address      *string            `json:"address,omitempty"`
	DeliveryDate *validators.Date   `json:"delivery_date,omitempty"`
	Notes        *string            `json:"notes,omitempty"`
	Status       *enums.OrderStatus `json:"status,omitempty"`
	Items        *[]itemRequest     `json:"items,omitempty"`
}

func toItems(items []itemRequest) []internalorders.ItemInput {
	out := make([]internalorders.ItemInput, 0, len(items))
	for _, item := range items {
		out = append(out, internalorders.ItemInput{
			ProductID: item.ProductID,
			Quantity:  item.Quantity,
			UnitPrice: item.UnitPrice,
		})
	}
	return out
}

func (r createRequest) toInput() internalorders.CreateInput {
	return internalorders.CreateInput{
		Customer:     r.Customer,
		Address:      r.Address,
		DeliveryDate: r.DeliveryDate.Ptr(),
		Notes:        r.Notes,
		Items:        toItems(r.Items),
	}
}

func (r updateRequest) toInput() internalorders.UpdateInput {
	input := internalorders.UpdateInput{
		Customer:     r.Customer,
		Address:      r.Address,
		DeliveryDate: r.DeliveryDate.Ptr(),
		Notes:        r.Notes,
		Status:       r.Status,
	}
	if r.Items != nil {
		items := toItems(*r.Items)
		input.Items = &items
	}
	return input
}
