package quotes

import (
	"context"
	"errors"
	"net/http"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"

	"github.com/angelmondragon/backoffice-backend/internal/orders"
	"github.com/angelmondragon/backoffice-backend/internal/policy"
	"github.com/angelmondragon/backoffice-backend/internal/products"
	"github.com/angelmondragon/backoffice-backend/internal/sequence"
	"github.com/angelmondragon/backoffice-backend/pkg/db"
	"github.com/angelmondragon/backoffice-backend/pkg/db/dbtest"
	"github.com/angelmondragon/backoffice-backend/pkg/db/models"
	"github.com/angelmondragon/backoffice-backend/pkg/enums"
	pkgerrors "github.com/angelmondragon/backoffice-backend/pkg/errors"
	"github.com/angelmondragon/backoffice-backend/pkg/pagination"
)

type stubFeatures map[string]bool

func (s stubFeatures) FeatureEnabled(_ context.Context, key string) (bool, error) {
	enabled, ok := s[key]
	if !ok {
		return true, nil
	}
	return enabled, nil
}

type countingRecorder struct {
	created   map[string]int
	converted int
}

func (c *countingRecorder) IncCreated(kind string) {
	if c.created == nil {
		c.created = map[string]int{}
	}
	c.created[kind]++
}

func (c *countingRecorder) IncConverted() { c.converted++ }

type fixture struct {
	svc      Service
	conn     *gorm.DB
	recorder *countingRecorder
}

func newFixture(t *testing.T, features stubFeatures, wrap func(Repository) Repository) fixture {
	t.Helper()
	return newFixtureOn(t, dbtest.Open(t), features, wrap)
}

func newFixtureOn(t *testing.T, conn *gorm.DB, features stubFeatures, wrap func(Repository) Repository) fixture {
	t.Helper()
	recorder := &countingRecorder{}
	quoteRepo := NewRepository(conn)
	if wrap != nil {
		quoteRepo = wrap(quoteRepo)
	}
	svc, err := NewService(
		quoteRepo,
		orders.NewRepository(conn),
		products.NewRepository(conn),
		db.NewFromGorm(conn),
		sequence.NewGenerator(),
		features,
		recorder,
	)
	require.NoError(t, err)
	return fixture{svc: svc, conn: conn, recorder: recorder}
}

func actorFor(user *models.User) policy.Actor {
	return policy.Actor{UserID: user.ID, Role: user.Role}
}

func requireCode(t *testing.T, err error, code pkgerrors.Code) {
	t.Helper()
	require.Error(t, err)
	typed := pkgerrors.As(err)
	require.NotNil(t, typed, "expected typed error, got %v", err)
	require.Equal(t, code, typed.Code(), err.Error())
}

func price(value string) *decimal.Decimal {
	d := decimal.RequireFromString(value)
	return &d
}

func countOrders(t *testing.T, conn *gorm.DB) int64 {
	t.Helper()
	var count int64
	require.NoError(t, conn.Model(&models.Order{}).Count(&count).Error)
	return count
}

// approvedQuote creates a quote with one line for productName and approves it.
func approvedQuote(t *testing.T, f fixture, actor policy.Actor, productName string) *QuoteDTO {
	t.Helper()
	ctx := context.Background()
	notes := "deliver to dock 3"
	quote, err := f.svc.Create(ctx, actor, CreateInput{
		Customer: "ACME",
		Notes:    &notes,
		Items:    []ItemInput{{ProductName: productName, Quantity: 10, UnitPrice: price("1000")}},
	})
	require.NoError(t, err)
	approved := enums.QuoteStatusApproved
	quote, err = f.svc.Update(ctx, actor, quote.ID, UpdateInput{Status: &approved})
	require.NoError(t, err)
	return quote
}

func TestCreateQuoteRoundTripTotals(t *testing.T) {
	f := newFixture(t, stubFeatures{}, nil)
	seller := dbtest.SeedUser(t, f.conn, enums.UserRoleSalesperson)

	quote, err := f.svc.Create(context.Background(), actorFor(seller), CreateInput{
		Customer: "ACME",
		Items:    []ItemInput{{ProductName: "Produto A", Quantity: 2, UnitPrice: price("5000")}},
	})
	require.NoError(t, err)
	require.True(t, quote.TotalValue.Equal(decimal.NewFromInt(10000)), quote.TotalValue.String())
	require.Len(t, quote.Items, 1)
	require.True(t, quote.Items[0].LineTotal.Equal(decimal.NewFromInt(10000)))
	require.Equal(t, enums.QuoteStatusPending, quote.Status)
	require.Regexp(t, `^ORC-\d{4}-\d{3}-\d{3}$`, quote.Number)
	require.Equal(t, 1, f.recorder.created["quote"])
}

func TestCreateQuoteFillsFromCatalog(t *testing.T) {
	f := newFixture(t, stubFeatures{}, nil)
	seller := dbtest.SeedUser(t, f.conn, enums.UserRoleSalesperson)
	product := dbtest.SeedProduct(t, f.conn, "Parafuso", "0.35", true)
	missing := uuid.New()

	quote, err := f.svc.Create(context.Background(), actorFor(seller), CreateInput{
		Customer: "ACME",
		Items:    []ItemInput{{ProductID: &product.ID, Quantity: 100}},
	})
	require.NoError(t, err)
	require.Equal(t, "Parafuso", quote.Items[0].ProductName)
	require.NotNil(t, quote.Items[0].ProductID)
	require.True(t, quote.TotalValue.Equal(decimal.RequireFromString("35")))

	_, err = f.svc.Create(context.Background(), actorFor(seller), CreateInput{
		Customer: "ACME",
		Items: []ItemInput{
			{ProductID: &missing, Quantity: 1},
			{ProductName: "Free text", Quantity: 1},
			{ProductName: "Zero", Quantity: 0, UnitPrice: price("1")},
		},
	})
	requireCode(t, err, pkgerrors.CodeValidation)
	require.Equal(t, []string{
		"items[0]: product not found",
		"items[1]: unit_price is required",
		"items[2]: quantity must be at least 1",
	}, pkgerrors.As(err).DetailList())
}

func TestCreateQuoteDisabledFeature(t *testing.T) {
	f := newFixture(t, stubFeatures{FeatureKey: false}, nil)
	seller := dbtest.SeedUser(t, f.conn, enums.UserRoleSalesperson)

	_, err := f.svc.Create(context.Background(), actorFor(seller), CreateInput{
		Customer: "ACME",
		Items:    []ItemInput{{ProductName: "A", Quantity: 1, UnitPrice: price("1")}},
	})
	requireCode(t, err, pkgerrors.CodeForbidden)
}

func TestUpdateQuoteReplacesItemsAndGuardsStatus(t *testing.T) {
	f := newFixture(t, stubFeatures{}, nil)
	ctx := context.Background()
	seller := dbtest.SeedUser(t, f.conn, enums.UserRoleSalesperson)
	actor := actorFor(seller)

	quote, err := f.svc.Create(ctx, actor, CreateInput{
		Customer: "ACME",
		Items: []ItemInput{
			{ProductName: "A", Quantity: 1, UnitPrice: price("10")},
			{ProductName: "B", Quantity: 1, UnitPrice: price("20")},
		},
	})
	require.NoError(t, err)

	items := []ItemInput{{ProductName: "C", Quantity: 3, UnitPrice: price("2.5")}}
	updated, err := f.svc.Update(ctx, actor, quote.ID, UpdateInput{Items: &items})
	require.NoError(t, err)
	require.Len(t, updated.Items, 1)
	require.Equal(t, "C", updated.Items[0].ProductName)
	require.True(t, updated.TotalValue.Equal(decimal.RequireFromString("7.5")))

	var stored int64
	require.NoError(t, f.conn.Model(&models.QuoteLineItem{}).Where("quote_id = ?", quote.ID).Count(&stored).Error)
	require.EqualValues(t, 1, stored)

	converted := enums.QuoteStatusConverted
	_, err = f.svc.Update(ctx, actor, quote.ID, UpdateInput{Status: &converted})
	requireCode(t, err, pkgerrors.CodeValidation)

	rejected := enums.QuoteStatusRejected
	_, err = f.svc.Update(ctx, actor, quote.ID, UpdateInput{Status: &rejected})
	require.NoError(t, err)
	approved := enums.QuoteStatusApproved
	_, err = f.svc.Update(ctx, actor, quote.ID, UpdateInput{Status: &approved})
	requireCode(t, err, pkgerrors.CodeValidation)
}

func TestQuoteVisibility(t *testing.T) {
	f := newFixture(t, stubFeatures{}, nil)
	ctx := context.Background()
	alice := dbtest.SeedUser(t, f.conn, enums.UserRoleSalesperson)
	bob := dbtest.SeedUser(t, f.conn, enums.UserRoleManager)
	admin := dbtest.SeedUser(t, f.conn, enums.UserRoleAdmin)

	quote := approvedQuote(t, f, actorFor(alice), "Produto A")

	_, err := f.svc.Get(ctx, actorFor(bob), quote.ID)
	requireCode(t, err, pkgerrors.CodeNotFound)
	_, err = f.svc.Convert(ctx, actorFor(bob), quote.ID)
	requireCode(t, err, pkgerrors.CodeNotFound)

	got, err := f.svc.Get(ctx, actorFor(admin), quote.ID)
	require.NoError(t, err)
	require.Equal(t, alice.ID, got.OwnerID)

	page, err := f.svc.List(ctx, actorFor(bob), ListFilters{}, pagination.Params{})
	require.NoError(t, err)
	require.Zero(t, page.Total)
	require.Empty(t, page.Items)

	status := enums.QuoteStatusApproved
	page, err = f.svc.List(ctx, actorFor(admin), ListFilters{Status: &status}, pagination.Params{})
	require.NoError(t, err)
	require.EqualValues(t, 1, page.Total)
}

func TestConvertRejectsNonApprovedQuote(t *testing.T) {
	f := newFixture(t, stubFeatures{}, nil)
	ctx := context.Background()
	seller := dbtest.SeedUser(t, f.conn, enums.UserRoleSalesperson)
	dbtest.SeedProduct(t, f.conn, "Produto A", "1000", true)

	quote, err := f.svc.Create(ctx, actorFor(seller), CreateInput{
		Customer: "ACME",
		Items:    []ItemInput{{ProductName: "Produto A", Quantity: 1, UnitPrice: price("1000")}},
	})
	require.NoError(t, err)

	_, err = f.svc.Convert(ctx, actorFor(seller), quote.ID)
	requireCode(t, err, pkgerrors.CodeValidation)
	require.Equal(t, "only approved quotes may be converted", pkgerrors.As(err).Message())
	require.Zero(t, countOrders(t, f.conn))

	_, err = f.svc.Convert(ctx, actorFor(seller), uuid.New())
	requireCode(t, err, pkgerrors.CodeNotFound)
}

func TestConvertApprovedQuoteMatchesCatalogProduct(t *testing.T) {
	f := newFixture(t, stubFeatures{}, nil)
	ctx := context.Background()
	seller := dbtest.SeedUser(t, f.conn, enums.UserRoleSalesperson)
	admin := dbtest.SeedUser(t, f.conn, enums.UserRoleAdmin)
	product := dbtest.SeedProduct(t, f.conn, "Produto A", "999", true)

	quote := approvedQuote(t, f, actorFor(seller), "Produto A")

	order, err := f.svc.Convert(ctx, actorFor(admin), quote.ID)
	require.NoError(t, err)
	require.NotNil(t, order.SourceQuoteID)
	require.Equal(t, quote.ID, *order.SourceQuoteID)
	require.Equal(t, admin.ID, order.OwnerID)
	require.Equal(t, enums.OrderStatusNew, order.Status)
	require.Equal(t, "ACME", order.Customer)
	require.True(t, order.TotalValue.Equal(decimal.NewFromInt(10000)))
	require.Regexp(t, `^PED-\d{4}-\d{3}-\d{3}$`, order.Number)
	require.NotNil(t, order.DeliveryDate)
	require.WithinDuration(t, quote.CreatedAt.AddDate(0, 0, 7), *order.DeliveryDate, time.Second)
	require.NotNil(t, order.Notes)
	require.Equal(t, "Converted from quote "+quote.Number+". deliver to dock 3", *order.Notes)

	require.Len(t, order.Items, 1)
	require.Equal(t, product.ID, order.Items[0].ProductID)
	require.Equal(t, 10, order.Items[0].Quantity)
	require.True(t, order.Items[0].LineTotal.Equal(decimal.NewFromInt(10000)))
	require.True(t, order.Items[0].UnitPrice.Equal(decimal.NewFromInt(1000)))

	converted, err := f.svc.Get(ctx, actorFor(seller), quote.ID)
	require.NoError(t, err)
	require.Equal(t, enums.QuoteStatusConverted, converted.Status)
	require.EqualValues(t, 1, countOrders(t, f.conn))
	require.Equal(t, 1, f.recorder.converted)
}

// Lines whose name matches no active product are dropped without error and
// the order keeps the quote total.
func TestConvertDropsUnmatchedLines(t *testing.T) {
	f := newFixture(t, stubFeatures{}, nil)
	ctx := context.Background()
	seller := dbtest.SeedUser(t, f.conn, enums.UserRoleSalesperson)
	dbtest.SeedProduct(t, f.conn, "Produto A", "1000", false)

	quote := approvedQuote(t, f, actorFor(seller), "Produto A")

	order, err := f.svc.Convert(ctx, actorFor(seller), quote.ID)
	require.NoError(t, err)
	require.Empty(t, order.Items)
	require.True(t, order.TotalValue.Equal(decimal.NewFromInt(10000)))

	var items int64
	require.NoError(t, f.conn.Model(&models.OrderLineItem{}).Count(&items).Error)
	require.Zero(t, items)
}

func TestConvertTwiceIsRejected(t *testing.T) {
	f := newFixture(t, stubFeatures{}, nil)
	ctx := context.Background()
	seller := dbtest.SeedUser(t, f.conn, enums.UserRoleSalesperson)
	dbtest.SeedProduct(t, f.conn, "Produto A", "1000", true)

	quote := approvedQuote(t, f, actorFor(seller), "Produto A")
	_, err := f.svc.Convert(ctx, actorFor(seller), quote.ID)
	require.NoError(t, err)

	_, err = f.svc.Convert(ctx, actorFor(seller), quote.ID)
	require.Error(t, err)
	require.EqualValues(t, 1, countOrders(t, f.conn))

	// An approved quote already referenced by an order is a conflict.
	require.NoError(t, f.conn.Model(&models.Quote{}).Where("id = ?", quote.ID).Update("status", enums.QuoteStatusApproved).Error)
	_, err = f.svc.Convert(ctx, actorFor(seller), quote.ID)
	requireCode(t, err, pkgerrors.CodeConflict)
	require.Equal(t, "quote already converted", pkgerrors.As(err).Message())
	require.EqualValues(t, 1, countOrders(t, f.conn))

	pending := enums.QuoteStatusPending
	require.NoError(t, f.conn.Model(&models.Quote{}).Where("id = ?", quote.ID).Update("status", enums.QuoteStatusConverted).Error)
	_, err = f.svc.Update(ctx, actorFor(seller), quote.ID, UpdateInput{Status: &pending})
	requireCode(t, err, pkgerrors.CodeConflict)

	err = f.svc.Delete(ctx, actorFor(seller), quote.ID)
	requireCode(t, err, pkgerrors.CodeConflict)
}

type failingConvertRepo struct {
	Repository
}

func (r failingConvertRepo) WithTx(tx *gorm.DB) Repository {
	return failingConvertRepo{Repository: r.Repository.WithTx(tx)}
}

func (r failingConvertRepo) MarkConverted(context.Context, uuid.UUID) (bool, error) {
	return false, errors.New("disk full")
}

// staleQuoteRepo hands conversion an approved copy of the quote while the
// stored row has already moved on, as a concurrent writer would leave it.
type staleQuoteRepo struct {
	Repository
}

func (r staleQuoteRepo) WithTx(tx *gorm.DB) Repository {
	return staleQuoteRepo{Repository: r.Repository.WithTx(tx)}
}

func (r staleQuoteRepo) FindForUpdate(ctx context.Context, id uuid.UUID) (*models.Quote, error) {
	quote, err := r.Repository.FindForUpdate(ctx, id)
	if err != nil {
		return nil, err
	}
	quote.Status = enums.QuoteStatusApproved
	return quote, nil
}

func TestConvertOnlyFlipsApprovedQuote(t *testing.T) {
	f := newFixture(t, stubFeatures{}, nil)
	ctx := context.Background()
	seller := dbtest.SeedUser(t, f.conn, enums.UserRoleSalesperson)
	dbtest.SeedProduct(t, f.conn, "Produto A", "1000", true)

	quote := approvedQuote(t, f, actorFor(seller), "Produto A")
	require.NoError(t, f.conn.Model(&models.Quote{}).Where("id = ?", quote.ID).Update("status", enums.QuoteStatusCancelled).Error)

	racing := newFixtureOn(t, f.conn, stubFeatures{}, func(r Repository) Repository { return staleQuoteRepo{Repository: r} })
	_, err := racing.svc.Convert(ctx, actorFor(seller), quote.ID)
	requireCode(t, err, pkgerrors.CodeConflict)
	require.Equal(t, "quote already converted", pkgerrors.As(err).Message())

	require.Zero(t, countOrders(t, f.conn))
	got, err := f.svc.Get(ctx, actorFor(seller), quote.ID)
	require.NoError(t, err)
	require.Equal(t, enums.QuoteStatusCancelled, got.Status)
	require.Zero(t, racing.recorder.converted)
}

func TestRepositoryMarkConvertedIsConditional(t *testing.T) {
	f := newFixture(t, stubFeatures{}, nil)
	ctx := context.Background()
	seller := dbtest.SeedUser(t, f.conn, enums.UserRoleSalesperson)
	quote := approvedQuote(t, f, actorFor(seller), "Produto A")
	repo := NewRepository(f.conn)

	flipped, err := repo.MarkConverted(ctx, quote.ID)
	require.NoError(t, err)
	require.True(t, flipped)

	flipped, err = repo.MarkConverted(ctx, quote.ID)
	require.NoError(t, err)
	require.False(t, flipped)

	locked, err := repo.FindForUpdate(ctx, quote.ID)
	require.NoError(t, err)
	require.Equal(t, enums.QuoteStatusConverted, locked.Status)
	require.Len(t, locked.Items, 1)
}

func TestConvertRollsBackOnFailure(t *testing.T) {
	f := newFixture(t, stubFeatures{}, func(r Repository) Repository { return failingConvertRepo{Repository: r} })
	ctx := context.Background()
	seller := dbtest.SeedUser(t, f.conn, enums.UserRoleSalesperson)
	dbtest.SeedProduct(t, f.conn, "Produto A", "1000", true)

	quote := approvedQuote(t, f, actorFor(seller), "Produto A")

	_, err := f.svc.Convert(ctx, actorFor(seller), quote.ID)
	requireCode(t, err, pkgerrors.CodeInternal)
	require.Equal(t, http.StatusInternalServerError, pkgerrors.MetadataFor(pkgerrors.CodeInternal).HTTPStatus)
	require.NotContains(t, pkgerrors.As(err).PublicMessage(), "disk full")

	require.Zero(t, countOrders(t, f.conn))
	var items int64
	require.NoError(t, f.conn.Model(&models.OrderLineItem{}).Count(&items).Error)
	require.Zero(t, items)

	got, err := f.svc.Get(ctx, actorFor(seller), quote.ID)
	require.NoError(t, err)
	require.Equal(t, enums.QuoteStatusApproved, got.Status)
	require.Zero(t, f.recorder.converted)
}

func TestDeleteQuote(t *testing.T) {
	f := newFixture(t, stubFeatures{}, nil)
	ctx := context.Background()
	seller := dbtest.SeedUser(t, f.conn, enums.UserRoleSalesperson)

	quote, err := f.svc.Create(ctx, actorFor(seller), CreateInput{
		Customer: "ACME",
		Items:    []ItemInput{{ProductName: "A", Quantity: 1, UnitPrice: price("1")}},
	})
	require.NoError(t, err)

	require.NoError(t, f.svc.Delete(ctx, actorFor(seller), quote.ID))
	_, err = f.svc.Get(ctx, actorFor(seller), quote.ID)
	requireCode(t, err, pkgerrors.CodeNotFound)
}
