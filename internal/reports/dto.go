package reports

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// TopProductDTO is one row of the best sellers report.
type TopProductDTO struct {
	ID            uuid.UUID       `json:"id"`
	Name          string          `json:"name"`
	Code          string          `json:"code"`
	Category      *string         `json:"category,omitempty"`
	BasePrice     decimal.Decimal `json:"base_price"`
	Unit          string          `json:"unit"`
	TotalQuantity int64           `json:"total_quantity"`
	TotalRevenue  decimal.Decimal `json:"total_revenue"`
	OrderCount    int64           `json:"order_count"`
	AveragePrice  decimal.Decimal `json:"average_price"`
	RevenueShare  decimal.Decimal `json:"revenue_share"`
}

// SalesStatsDTO summarizes the whole report window.
type SalesStatsDTO struct {
	TotalProducts int64           `json:"total_products"`
	TotalQuantity int64           `json:"total_quantity"`
	TotalRevenue  decimal.Decimal `json:"total_revenue"`
	TotalOrders   int64           `json:"total_orders"`
	PeriodDays    int             `json:"period_days"`
	Start         time.Time       `json:"start"`
	End           time.Time       `json:"end"`
}

// TopProductsDTO is the best sellers report.
type TopProductsDTO struct {
	Products []TopProductDTO `json:"products"`
	Stats    SalesStatsDTO   `json:"stats"`
}

// StatusCountsDTO counts documents overall and per status.
type StatusCountsDTO struct {
	Total    int64            `json:"total"`
	ByStatus map[string]int64 `json:"by_status"`
}

// ReceiptSummaryDTO totals the caller's receipts.
type ReceiptSummaryDTO struct {
	Count int64           `json:"count"`
	Total decimal.Decimal `json:"total"`
}

// DashboardDTO is the landing page summary.
type DashboardDTO struct {
	Quotes         StatusCountsDTO   `json:"quotes"`
	Orders         StatusCountsDTO   `json:"orders"`
	Revenue        decimal.Decimal   `json:"revenue"`
	ConversionRate decimal.Decimal   `json:"conversion_rate"`
	Receipts       ReceiptSummaryDTO `json:"receipts"`
}

func newStatusCounts(counts map[string]int64) StatusCountsDTO {
	out := StatusCountsDTO{ByStatus: counts}
	for _, n := range counts {
		out.Total += n
	}
	return out
}
