package quotes

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/angelmondragon/backoffice-backend/internal/orders"
	"github.com/angelmondragon/backoffice-backend/internal/policy"
	"github.com/angelmondragon/backoffice-backend/pkg/db/models"
	"github.com/angelmondragon/backoffice-backend/pkg/enums"
	pkgerrors "github.com/angelmondragon/backoffice-backend/pkg/errors"
)

// deliveryLeadDays is added to the quote creation date to set the order delivery date.
const deliveryLeadDays = 7

// Convert turns an approved quote into a new order owned by the caller and
// marks the quote converted, all in one transaction.
//
// Quote lines are matched to active catalog products by exact name. Lines
// without a match are skipped and the order keeps the quote's total, so the
// order total can exceed the sum of its items.
func (s *service) Convert(ctx context.Context, actor policy.Actor, id uuid.UUID) (*orders.OrderDTO, error) {
	var orderID uuid.UUID
	err := s.tx.WithTx(ctx, func(tx *gorm.DB) error {
		quoteRepo := s.repo.WithTx(tx)
		orderRepo := s.orderRepo.WithTx(tx)
		catalog := s.catalog.WithTx(tx)

		quote, err := s.loadAuthorized(ctx, quoteRepo, actor, policy.ActionConvert, id)
		if err != nil {
			return err
		}
		if quote.Status != enums.QuoteStatusApproved {
			return pkgerrors.New(pkgerrors.CodeValidation, "only approved quotes may be converted")
		}
		converted, err := orderRepo.ExistsForQuote(ctx, quote.ID)
		if err != nil {
			return pkgerrors.Wrap(pkgerrors.CodeInternal, err, "check existing order")
		}
		if converted {
			return pkgerrors.New(pkgerrors.CodeConflict, "quote already converted")
		}

		number, err := s.numbers.Next(ctx, tx, enums.DocumentKindOrder, actor.UserID)
		if err != nil {
			return err
		}

		items := make([]models.OrderLineItem, 0, len(quote.Items))
		for _, line := range quote.Items {
			product, err := catalog.FindActiveByName(ctx, line.ProductName)
			if errors.Is(err, gorm.ErrRecordNotFound) {
				continue
			}
			if err != nil {
				return pkgerrors.Wrap(pkgerrors.CodeInternal, err, "resolve product by name")
			}
			items = append(items, models.OrderLineItem{
				ProductID: product.ID,
				Quantity:  line.Quantity,
				UnitPrice: line.UnitPrice,
				LineTotal: line.LineTotal,
			})
		}

		delivery := quote.CreatedAt.AddDate(0, 0, deliveryLeadDays)
		sourceID := quote.ID
		order := &models.Order{
			Number:        number,
			Customer:      quote.Customer,
			Address:       quote.Address,
			TotalValue:    quote.TotalValue,
			Status:        enums.OrderStatusNew,
			DeliveryDate:  &delivery,
			Notes:         conversionNote(quote),
			OwnerID:       actor.UserID,
			SourceQuoteID: &sourceID,
			Items:         items,
		}
		if err := orderRepo.Create(ctx, order); err != nil {
			return pkgerrors.Wrap(pkgerrors.CodeInternal, err, "insert order")
		}

		flipped, err := quoteRepo.MarkConverted(ctx, quote.ID)
		if err != nil {
			return pkgerrors.Wrap(pkgerrors.CodeInternal, err, "mark quote converted")
		}
		if !flipped {
			return pkgerrors.New(pkgerrors.CodeConflict, "quote already converted")
		}
		orderID = order.ID
		return nil
	})
	if err != nil {
		return nil, asTyped(err, "convert quote")
	}
	s.metrics.IncCreated(string(enums.DocumentKindOrder))
	s.metrics.IncConverted()

	order, err := s.orderRepo.FindByID(ctx, orderID)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "reload order")
	}
	dto := orders.NewOrderDTO(order)
	return &dto, nil
}

func conversionNote(quote *models.Quote) *string {
	note := fmt.Sprintf("Converted from quote %s.", quote.Number)
	if quote.Notes != nil {
		note = strings.TrimSpace(note + " " + *quote.Notes)
	}
	return &note
}
