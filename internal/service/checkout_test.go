package service

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"

	"github.com/Skotchmaster/go_outdoor/internal/db/dbtest"
	"github.com/Skotchmaster/go_outdoor/internal/events"
	"github.com/Skotchmaster/go_outdoor/internal/lock"
	"github.com/Skotchmaster/go_outdoor/internal/models"
	"github.com/Skotchmaster/go_outdoor/internal/repo"
)

type checkoutFixture struct {
	svc     *CheckoutService
	cart    *CartService
	gateway *fakeGateway
	events  *events.Recorder
	user    *models.User
}

func newCheckoutFixture(t *testing.T) *checkoutFixture {
	t.Helper()

	r := newTestRepo(t)
	f := &checkoutFixture{
		gateway: &fakeGateway{},
		events:  &events.Recorder{},
		cart:    &CartService{Repo: r},
		user:    seedUser(t, r, "ana@x.com", "pw123456", true),
	}
	f.svc = &CheckoutService{Repo: r, Gateway: f.gateway, Events: f.events}
	return f
}

func (f *checkoutFixture) input(days int) CheckoutInput {
	return CheckoutInput{UserID: f.user.ID, CustomerName: "Ana", CustomerEmail: "ana@x.com", RentDays: days}
}

func countRows(t *testing.T, r *repo.GormRepo, model any) int64 {
	t.Helper()
	var n int64
	require.NoError(t, r.DB.Model(model).Count(&n).Error)
	return n
}

func TestTotals(t *testing.T) {
	t.Parallel()

	lines := []repo.CartLine{
		{Price: decimal.NewFromInt(100000), Quantity: 2},
		{Price: decimal.RequireFromString("12500.50"), Quantity: 1},
	}
	total, gross := Totals(lines, 3)
	assert.Equal(t, "212500.5", total.String())
	// 12500.50 x 3 days is charged as 37502
	assert.Equal(t, "637502", gross.String())
}

func TestTotals_GrossMatchesChargedItems(t *testing.T) {
	t.Parallel()

	lines := []repo.CartLine{
		{ProductID: 1, Price: decimal.RequireFromString("33333.33"), Quantity: 3},
		{ProductID: 2, Price: decimal.RequireFromString("0.5"), Quantity: 1},
	}
	_, gross := Totals(lines, 1)
	req := chargeRequest("GO-x", CheckoutInput{RentDays: 1}, lines)

	var sum int64
	for _, it := range req.Items {
		sum += it.Price * int64(it.Qty)
	}
	assert.Equal(t, req.GrossAmount, sum)
	assert.True(t, gross.Equal(decimal.NewFromInt(req.GrossAmount)), gross.String())
}

func TestCheckoutService_EmptyCart(t *testing.T) {
	t.Parallel()

	f := newCheckoutFixture(t)

	_, err := f.svc.ProcessOrder(context.Background(), f.input(1))
	assert.ErrorIs(t, err, ErrEmptyCart)
	assert.Zero(t, countRows(t, f.svc.Repo, &models.Order{}))
	assert.Empty(t, f.gateway.requests)
}

func TestCheckoutService_InvalidRentDays(t *testing.T) {
	t.Parallel()

	f := newCheckoutFixture(t)

	_, err := f.svc.ProcessOrder(context.Background(), f.input(0))
	assert.ErrorIs(t, err, ErrValidation)
}

func TestCheckoutService_Success(t *testing.T) {
	t.Parallel()

	f := newCheckoutFixture(t)
	ctx := context.Background()
	tent := dbtest.SeedProduct(t, f.svc.Repo.DB, "tenda", 100000, 5)
	stove := dbtest.SeedProduct(t, f.svc.Repo.DB, "kompor", 25000, 5)
	_, _, err := f.cart.AddToCart(ctx, f.user.ID, tent.ID, 2)
	require.NoError(t, err)
	_, _, err = f.cart.AddToCart(ctx, f.user.ID, stove.ID, 1)
	require.NoError(t, err)

	res, err := f.svc.ProcessOrder(ctx, f.input(3))
	require.NoError(t, err)
	assert.Regexp(t, `^GO-[0-9a-f-]{36}$`, res.OrderID)
	assert.Equal(t, "snap-"+res.OrderID, res.Token)
	assert.True(t, res.TotalAmount.Equal(decimal.NewFromInt(225000)))
	assert.True(t, res.GrossAmount.Equal(decimal.NewFromInt(675000)))

	assert.EqualValues(t, 1, countRows(t, f.svc.Repo, &models.Order{}))
	assert.EqualValues(t, 2, countRows(t, f.svc.Repo, &models.OrderItem{}))
	assert.Zero(t, countRows(t, f.svc.Repo, &models.CartItem{}))

	order, err := f.svc.Repo.OrderByOrderID(ctx, res.OrderID)
	require.NoError(t, err)
	assert.Equal(t, models.OrderStatusPending, order.Status)
	assert.Equal(t, 3, order.RentDays)
	assert.Equal(t, res.Token, order.SnapToken)

	require.Len(t, f.gateway.requests, 1)
	req := f.gateway.requests[0]
	assert.EqualValues(t, 675000, req.GrossAmount)
	require.Len(t, req.Items, 2)
	assert.EqualValues(t, 300000, req.Items[0].Price)
	assert.EqualValues(t, 2, req.Items[0].Qty)

	// stock is untouched unless enforcement is on
	p, err := f.svc.Repo.ProductByID(ctx, tent.ID)
	require.NoError(t, err)
	assert.Equal(t, 5, p.Stock)

	evs := f.events.Events()
	require.Len(t, evs, 1)
	assert.Equal(t, events.TopicOrders, evs[0].Topic)
	assert.Equal(t, res.OrderID, evs[0].Key)
	assert.Equal(t, events.TypeOrderCreated, evs[0].Event.Type)
}

func TestCheckoutService_SingleLineAmounts(t *testing.T) {
	t.Parallel()

	f := newCheckoutFixture(t)
	ctx := context.Background()
	p := dbtest.SeedProduct(t, f.svc.Repo.DB, "tenda", 100000, 5)
	_, _, err := f.cart.AddToCart(ctx, f.user.ID, p.ID, 2)
	require.NoError(t, err)

	res, err := f.svc.ProcessOrder(ctx, f.input(3))
	require.NoError(t, err)
	assert.True(t, res.TotalAmount.Equal(decimal.NewFromInt(200000)))
	assert.True(t, res.GrossAmount.Equal(decimal.NewFromInt(600000)))
}

func TestCheckoutService_CustomerDefaultsToAccount(t *testing.T) {
	t.Parallel()

	f := newCheckoutFixture(t)
	ctx := context.Background()
	p := dbtest.SeedProduct(t, f.svc.Repo.DB, "tenda", 100000, 5)
	_, _, err := f.cart.AddToCart(ctx, f.user.ID, p.ID, 1)
	require.NoError(t, err)

	_, err = f.svc.ProcessOrder(ctx, CheckoutInput{UserID: f.user.ID, RentDays: 1})
	require.NoError(t, err)

	require.Len(t, f.gateway.requests, 1)
	assert.Equal(t, "Test User", f.gateway.requests[0].Customer.Name)
	assert.Equal(t, "ana@x.com", f.gateway.requests[0].Customer.Email)
}

func TestCheckoutService_GatewayFailureRollsBack(t *testing.T) {
	t.Parallel()

	f := newCheckoutFixture(t)
	ctx := context.Background()
	p := dbtest.SeedProduct(t, f.svc.Repo.DB, "tenda", 100000, 5)
	_, _, err := f.cart.AddToCart(ctx, f.user.ID, p.ID, 1)
	require.NoError(t, err)
	f.gateway.chargeErr = errors.New("gateway unavailable")

	_, err = f.svc.ProcessOrder(ctx, f.input(2))
	require.Error(t, err)

	assert.Zero(t, countRows(t, f.svc.Repo, &models.Order{}))
	assert.Zero(t, countRows(t, f.svc.Repo, &models.OrderItem{}))
	assert.EqualValues(t, 1, countRows(t, f.svc.Repo, &models.CartItem{}))
	assert.Empty(t, f.events.Events())
}

func TestCheckoutService_EnforceStock(t *testing.T) {
	t.Parallel()

	f := newCheckoutFixture(t)
	f.svc.EnforceStock = true
	ctx := context.Background()
	p := dbtest.SeedProduct(t, f.svc.Repo.DB, "tenda", 100000, 2)
	_, _, err := f.cart.AddToCart(ctx, f.user.ID, p.ID, 3)
	require.NoError(t, err)

	_, err = f.svc.ProcessOrder(ctx, f.input(1))
	var stockErr *StockError
	require.ErrorAs(t, err, &stockErr)
	assert.Equal(t, "tenda", stockErr.Product)
	assert.ErrorIs(t, err, ErrInsufficientStock)

	_, err = f.cart.UpdateQuantity(ctx, f.user.ID, firstCartID(t, f), 2)
	require.NoError(t, err)

	_, err = f.svc.ProcessOrder(ctx, f.input(1))
	require.NoError(t, err)

	got, err := f.svc.Repo.ProductByID(ctx, p.ID)
	require.NoError(t, err)
	assert.Zero(t, got.Stock)
}

func firstCartID(t *testing.T, f *checkoutFixture) uint {
	t.Helper()
	lines, err := f.cart.GetCart(context.Background(), f.user.ID)
	require.NoError(t, err)
	require.NotEmpty(t, lines)
	return lines[0].CartID
}

func TestCheckoutService_LockHeld(t *testing.T) {
	t.Parallel()

	f := newCheckoutFixture(t)
	ctx := context.Background()
	mr := miniredis.RunT(t)
	rdb := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { _ = rdb.Close() })
	locker := lock.NewRedisLocker(rdb)
	f.svc.Locker = locker

	p := dbtest.SeedProduct(t, f.svc.Repo.DB, "tenda", 100000, 5)
	_, _, err := f.cart.AddToCart(ctx, f.user.ID, p.ID, 1)
	require.NoError(t, err)

	release, err := locker.Acquire(ctx, "checkout:"+f.user.ID.String(), time.Minute)
	require.NoError(t, err)

	_, err = f.svc.ProcessOrder(ctx, f.input(1))
	assert.ErrorIs(t, err, ErrCheckoutInProgress)
	assert.Zero(t, countRows(t, f.svc.Repo, &models.Order{}))

	require.NoError(t, release(ctx))

	_, err = f.svc.ProcessOrder(ctx, f.input(1))
	require.NoError(t, err)
	assert.False(t, mr.Exists("lock:checkout:"+f.user.ID.String()))
}

func TestCheckoutService_ListOrders(t *testing.T) {
	t.Parallel()

	f := newCheckoutFixture(t)
	ctx := context.Background()
	p := dbtest.SeedProduct(t, f.svc.Repo.DB, "tenda", 100000, 5)
	_, _, err := f.cart.AddToCart(ctx, f.user.ID, p.ID, 2)
	require.NoError(t, err)

	res, err := f.svc.ProcessOrder(ctx, f.input(2))
	require.NoError(t, err)

	orders, err := f.svc.ListOrders(ctx, f.user.ID)
	require.NoError(t, err)
	require.Len(t, orders, 1)
	assert.Equal(t, res.OrderID, orders[0].OrderID)
	require.Len(t, orders[0].Items, 1)
	assert.Equal(t, "tenda", orders[0].Items[0].ProductName)
	assert.Equal(t, 2, orders[0].Items[0].Quantity)
}

func TestCheckoutService_CartChangedRollsBack(t *testing.T) {
	t.Parallel()

	f := newCheckoutFixture(t)
	ctx := context.Background()
	tent := dbtest.SeedProduct(t, f.svc.Repo.DB, "tenda", 100000, 5)
	stove := dbtest.SeedProduct(t, f.svc.Repo.DB, "kompor", 25000, 5)
	_, first, err := f.cart.AddToCart(ctx, f.user.ID, tent.ID, 1)
	require.NoError(t, err)
	_, _, err = f.cart.AddToCart(ctx, f.user.ID, stove.ID, 1)
	require.NoError(t, err)

	// a snapshotted row disappears after the cart was read
	dbtest.AfterCreate(t, f.svc.Repo.DB, "orders", func(tx *gorm.DB) {
		require.NoError(t, tx.Delete(&models.CartItem{}, first.ID).Error)
	})

	_, err = f.svc.ProcessOrder(ctx, f.input(1))
	assert.ErrorIs(t, err, ErrCartChanged)

	assert.Zero(t, countRows(t, f.svc.Repo, &models.Order{}))
	assert.Zero(t, countRows(t, f.svc.Repo, &models.OrderItem{}))
	assert.EqualValues(t, 2, countRows(t, f.svc.Repo, &models.CartItem{}))
	assert.Empty(t, f.gateway.requests)
	assert.Empty(t, f.events.Events())
}

func TestCheckoutService_RejectsOversizedQuantity(t *testing.T) {
	t.Parallel()

	f := newCheckoutFixture(t)
	ctx := context.Background()
	p := dbtest.SeedProduct(t, f.svc.Repo.DB, "tenda", 100000, 5)
	// each add is within bounds, the sum is not
	_, _, err := f.cart.AddToCart(ctx, f.user.ID, p.ID, MaxQuantity)
	require.NoError(t, err)
	_, _, err = f.cart.AddToCart(ctx, f.user.ID, p.ID, 1)
	require.NoError(t, err)

	_, err = f.svc.ProcessOrder(ctx, f.input(1))
	assert.ErrorIs(t, err, ErrValidation)
	assert.Zero(t, countRows(t, f.svc.Repo, &models.Order{}))
	assert.Empty(t, f.gateway.requests)
}
