// Package reports aggregates sales and document statistics.
package reports

import (
	"context"
	"fmt"
	"time"

	"github.com/shopspring/decimal"

	"github.com/angelmondragon/backoffice-backend/internal/policy"
	"github.com/angelmondragon/backoffice-backend/pkg/enums"
	pkgerrors "github.com/angelmondragon/backoffice-backend/pkg/errors"
)

const (
	DefaultDays  = 30
	MaxDays      = 365
	DefaultLimit = 10
	MaxLimit     = 100
)

var hundred = decimal.NewFromInt(100)

// TopProductsQuery selects the report window. Zero values take the defaults.
type TopProductsQuery struct {
	Days  int
	Limit int
}

type Service interface {
	TopProducts(ctx context.Context, actor policy.Actor, query TopProductsQuery) (*TopProductsDTO, error)
	Dashboard(ctx context.Context, actor policy.Actor) (*DashboardDTO, error)
}

type service struct {
	repo *Repository
	now  func() time.Time
}

func NewService(repo *Repository, now func() time.Time) (Service, error) {
	if repo == nil {
		return nil, fmt.Errorf("reports repository required")
	}
	if now == nil {
		now = time.Now
	}
	return &service{repo: repo, now: now}, nil
}

func (s *service) TopProducts(ctx context.Context, actor policy.Actor, query TopProductsQuery) (*TopProductsDTO, error) {
	if err := policy.Authorize(actor, policy.ActionRead, policy.Collection(policy.KindReport)); err != nil {
		return nil, err
	}
	query, err := normalizeQuery(query)
	if err != nil {
		return nil, err
	}

	end := s.now()
	start := end.AddDate(0, 0, -query.Days)

	rows, err := s.repo.TopProducts(ctx, start, query.Limit)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "aggregate top products")
	}
	totals, err := s.repo.Totals(ctx, start)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "aggregate sales totals")
	}

	products := make([]TopProductDTO, 0, len(rows))
	for _, row := range rows {
		dto := TopProductDTO{
			ID:            row.ProductID,
			Name:          row.Name,
			Code:          row.Code,
			Category:      row.Category,
			BasePrice:     row.Price.Round(2),
			Unit:          row.Unit,
			TotalQuantity: row.TotalQuantity,
			TotalRevenue:  row.TotalRevenue.Round(2),
			OrderCount:    row.OrderCount,
			AveragePrice:  decimal.Zero,
			RevenueShare:  decimal.Zero,
		}
		if row.TotalQuantity > 0 {
			dto.AveragePrice = row.TotalRevenue.Div(decimal.NewFromInt(row.TotalQuantity)).Round(2)
		}
		if totals.TotalRevenue.IsPositive() {
			dto.RevenueShare = row.TotalRevenue.Mul(hundred).Div(totals.TotalRevenue).Round(2)
		}
		products = append(products, dto)
	}

	return &TopProductsDTO{
		Products: products,
		Stats: SalesStatsDTO{
			TotalProducts: totals.ProductCount,
			TotalQuantity: totals.TotalQuantity,
			TotalRevenue:  totals.TotalRevenue.Round(2),
			TotalOrders:   totals.OrderCount,
			PeriodDays:    query.Days,
			Start:         start.UTC(),
			End:           end.UTC(),
		},
	}, nil
}

func (s *service) Dashboard(ctx context.Context, actor policy.Actor) (*DashboardDTO, error) {
	if err := policy.Authorize(actor, policy.ActionRead, policy.Collection(policy.KindReport)); err != nil {
		return nil, err
	}
	owner := policy.OwnerScope(actor, policy.KindReport)

	quotes, err := s.repo.QuoteStatusCounts(ctx, owner)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "count quotes")
	}
	orders, err := s.repo.OrderStatusCounts(ctx, owner)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "count orders")
	}
	revenue, err := s.repo.OrderRevenue(ctx, owner)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "sum order revenue")
	}
	receiptCount, receiptTotal, err := s.repo.ReceiptTotals(ctx, actor.UserID)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "sum receipts")
	}

	dashboard := &DashboardDTO{
		Quotes:         newStatusCounts(quotes),
		Orders:         newStatusCounts(orders),
		Revenue:        revenue.Round(2),
		ConversionRate: decimal.Zero,
		Receipts:       ReceiptSummaryDTO{Count: receiptCount, Total: receiptTotal.Round(2)},
	}
	if dashboard.Quotes.Total > 0 {
		converted := decimal.NewFromInt(quotes[string(enums.QuoteStatusConverted)])
		dashboard.ConversionRate = converted.Mul(hundred).Div(decimal.NewFromInt(dashboard.Quotes.Total)).Round(2)
	}
	return dashboard, nil
}

func normalizeQuery(query TopProductsQuery) (TopProductsQuery, error) {
	if query.Days == 0 {
		query.Days = DefaultDays
	}
	if query.Limit == 0 {
		query.Limit = DefaultLimit
	}

	details := map[string]string{}
	if query.Days < 1 || query.Days > MaxDays {
		details["days"] = fmt.Sprintf("must be between 1 and %d", MaxDays)
	}
	if query.Limit < 1 || query.Limit > MaxLimit {
		details["limit"] = fmt.Sprintf("must be between 1 and %d", MaxLimit)
	}
	if len(details) > 0 {
		return query, pkgerrors.New(pkgerrors.CodeValidation, "invalid report window").WithDetails(details)
	}
	return query, nil
}
