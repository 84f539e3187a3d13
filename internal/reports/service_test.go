package reports

import (
	"context"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"

	"github.com/angelmondragon/backoffice-backend/internal/policy"
	"github.com/angelmondragon/backoffice-backend/pkg/db/dbtest"
	"github.com/angelmondragon/backoffice-backend/pkg/db/models"
	"github.com/angelmondragon/backoffice-backend/pkg/enums"
	pkgerrors "github.com/angelmondragon/backoffice-backend/pkg/errors"
)

type line struct {
	product *models.Product
	qty     int
	price   string
}

type fixture struct {
	svc    Service
	conn   *gorm.DB
	now    time.Time
	admin  *models.User
	seller *models.User
	paint  *models.Product
	brush  *models.Product
	roller *models.Product
}

func newFixture(t *testing.T) fixture {
	t.Helper()
	conn := dbtest.Open(t)
	now := time.Now()
	svc, err := NewService(NewRepository(conn), func() time.Time { return now })
	require.NoError(t, err)

	f := fixture{
		svc:    svc,
		conn:   conn,
		now:    now,
		admin:  dbtest.SeedUser(t, conn, enums.UserRoleAdmin),
		seller: dbtest.SeedUser(t, conn, enums.UserRoleSalesperson),
		paint:  dbtest.SeedProduct(t, conn, "Tinta", "10", true),
		brush:  dbtest.SeedProduct(t, conn, "Pincel", "5", true),
		roller: dbtest.SeedProduct(t, conn, "Rolo", "1", true),
	}

	recent := now.Add(-time.Hour)
	f.seedOrder(t, f.seller, enums.OrderStatusNew, recent, line{f.paint, 3, "10"}, line{f.brush, 1, "5"})
	f.seedOrder(t, f.admin, enums.OrderStatusDelivered, recent, line{f.paint, 2, "12"}, line{f.brush, 10, "5"})
	f.seedOrder(t, f.seller, enums.OrderStatusCancelled, recent, line{f.roller, 100, "1"})
	f.seedOrder(t, f.seller, enums.OrderStatusNew, now.AddDate(0, 0, -40), line{f.roller, 50, "1"})
	return f
}

func (f fixture) seedOrder(t *testing.T, owner *models.User, status enums.OrderStatus, createdAt time.Time, lines ...line) {
	t.Helper()
	order := &models.Order{
		Number:    "PED-" + uuid.NewString()[:8],
		Customer:  "ACME",
		Status:    status,
		OwnerID:   owner.ID,
		CreatedAt: createdAt,
	}
	total := decimal.Zero
	for _, l := range lines {
		price := decimal.RequireFromString(l.price)
		lineTotal := price.Mul(decimal.NewFromInt(int64(l.qty)))
		total = total.Add(lineTotal)
		order.Items = append(order.Items, models.OrderLineItem{
			ProductID: l.product.ID,
			Quantity:  l.qty,
			UnitPrice: price,
			LineTotal: lineTotal,
		})
	}
	order.TotalValue = total
	require.NoError(t, f.conn.Omit("Owner").Create(order).Error)
}

func (f fixture) seedQuote(t *testing.T, owner *models.User, status enums.QuoteStatus) {
	t.Helper()
	quote := &models.Quote{
		Number:     "ORC-" + uuid.NewString()[:8],
		Customer:   "ACME",
		TotalValue: decimal.Zero,
		Status:     status,
		OwnerID:    owner.ID,
	}
	require.NoError(t, f.conn.Omit("Owner").Create(quote).Error)
}

func (f fixture) seedReceipt(t *testing.T, owner *models.User, amount string) {
	t.Helper()
	receipt := &models.Receipt{
		Number:      "REC-" + uuid.NewString()[:8],
		Amount:      decimal.RequireFromString(amount),
		PayerName:   "João",
		PayeeName:   "Maria",
		Description: "Serviço",
		Date:        f.now,
		OwnerID:     owner.ID,
	}
	require.NoError(t, f.conn.Create(receipt).Error)
}

func actorFor(user *models.User) policy.Actor {
	return policy.Actor{UserID: user.ID, Role: user.Role}
}

func requireDecimal(t *testing.T, want string, got decimal.Decimal) {
	t.Helper()
	require.True(t, decimal.RequireFromString(want).Equal(got), "want %s got %s", want, got)
}

func TestTopProductsAggregatesWindow(t *testing.T) {
	f := newFixture(t)

	report, err := f.svc.TopProducts(context.Background(), actorFor(f.seller), TopProductsQuery{})
	require.NoError(t, err)
	require.Len(t, report.Products, 2)

	first := report.Products[0]
	require.Equal(t, f.brush.ID, first.ID)
	require.Equal(t, "Pincel", first.Name)
	require.EqualValues(t, 11, first.TotalQuantity)
	require.EqualValues(t, 2, first.OrderCount)
	requireDecimal(t, "55", first.TotalRevenue)
	requireDecimal(t, "5", first.AveragePrice)
	requireDecimal(t, "50.46", first.RevenueShare)

	second := report.Products[1]
	require.Equal(t, f.paint.ID, second.ID)
	require.EqualValues(t, 5, second.TotalQuantity)
	requireDecimal(t, "54", second.TotalRevenue)
	requireDecimal(t, "10.8", second.AveragePrice)
	requireDecimal(t, "49.54", second.RevenueShare)

	stats := report.Stats
	require.EqualValues(t, 2, stats.TotalProducts)
	require.EqualValues(t, 16, stats.TotalQuantity)
	require.EqualValues(t, 2, stats.TotalOrders)
	requireDecimal(t, "109", stats.TotalRevenue)
	require.Equal(t, DefaultDays, stats.PeriodDays)
	require.WithinDuration(t, f.now.AddDate(0, 0, -DefaultDays), stats.Start, time.Second)
}

func TestTopProductsLimitAndWiderWindow(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	limited, err := f.svc.TopProducts(ctx, actorFor(f.admin), TopProductsQuery{Limit: 1})
	require.NoError(t, err)
	require.Len(t, limited.Products, 1)
	require.EqualValues(t, 16, limited.Stats.TotalQuantity)

	wide, err := f.svc.TopProducts(ctx, actorFor(f.admin), TopProductsQuery{Days: 60})
	require.NoError(t, err)
	require.Len(t, wide.Products, 3)
	require.Equal(t, f.roller.ID, wide.Products[0].ID)
	require.EqualValues(t, 50, wide.Products[0].TotalQuantity)
	require.EqualValues(t, 3, wide.Stats.TotalOrders)
}

func TestTopProductsValidatesWindow(t *testing.T) {
	f := newFixture(t)

	_, err := f.svc.TopProducts(context.Background(), actorFor(f.seller), TopProductsQuery{Days: 400, Limit: -1})
	require.Error(t, err)
	typed := pkgerrors.As(err)
	require.NotNil(t, typed)
	require.Equal(t, pkgerrors.CodeValidation, typed.Code())
	require.Equal(t, []string{"days: must be between 1 and 365", "limit: must be between 1 and 100"}, typed.DetailList())
}

func TestDashboardScopesToOwnerUnlessAdmin(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	f.seedQuote(t, f.seller, enums.QuoteStatusConverted)
	f.seedQuote(t, f.seller, enums.QuoteStatusPending)
	f.seedQuote(t, f.seller, enums.QuoteStatusPending)
	f.seedQuote(t, f.seller, enums.QuoteStatusApproved)
	f.seedQuote(t, f.admin, enums.QuoteStatusPending)
	f.seedReceipt(t, f.seller, "100.50")
	f.seedReceipt(t, f.seller, "20")
	f.seedReceipt(t, f.admin, "999")

	mine, err := f.svc.Dashboard(ctx, actorFor(f.seller))
	require.NoError(t, err)
	require.EqualValues(t, 4, mine.Quotes.Total)
	require.EqualValues(t, 2, mine.Quotes.ByStatus[string(enums.QuoteStatusPending)])
	require.EqualValues(t, 3, mine.Orders.Total)
	require.EqualValues(t, 1, mine.Orders.ByStatus[string(enums.OrderStatusCancelled)])
	requireDecimal(t, "85", mine.Revenue)
	requireDecimal(t, "25", mine.ConversionRate)
	require.EqualValues(t, 2, mine.Receipts.Count)
	requireDecimal(t, "120.5", mine.Receipts.Total)

	all, err := f.svc.Dashboard(ctx, actorFor(f.admin))
	require.NoError(t, err)
	require.EqualValues(t, 5, all.Quotes.Total)
	require.EqualValues(t, 4, all.Orders.Total)
	requireDecimal(t, "159", all.Revenue)
	requireDecimal(t, "20", all.ConversionRate)
	require.EqualValues(t, 1, all.Receipts.Count)
	requireDecimal(t, "999", all.Receipts.Total)
}

func TestDashboardWithoutQuotesHasZeroConversion(t *testing.T) {
	conn := dbtest.Open(t)
	svc, err := NewService(NewRepository(conn), nil)
	require.NoError(t, err)
	user := dbtest.SeedUser(t, conn, enums.UserRoleManager)

	dashboard, err := svc.Dashboard(context.Background(), actorFor(user))
	require.NoError(t, err)
	require.Zero(t, dashboard.Quotes.Total)
	require.True(t, dashboard.ConversionRate.IsZero())
	require.True(t, dashboard.Revenue.IsZero())
}
