package service

import (
	"context"
	"errors"
	"testing"
	"time"

	"asur-wears/internal/models"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.mongodb.org/mongo-driver/bson/primitive"
)

type orderFixture struct {
	svc       *OrderService
	products  *fakeProducts
	orders    *fakeOrders
	redis     *fakeRedis
	publisher *fakePublisher
	recorded  []float64
	tee       models.Product
	hoodie    models.Product
}

func newOrderFixture(t *testing.T) *orderFixture {
	t.Helper()

	f := &orderFixture{
		orders:    &fakeOrders{},
		redis:     newFakeRedis(),
		publisher: &fakePublisher{},
		tee: models.Product{
			ID: primitive.NewObjectID(), Name: "Asur Oversized Tee", Price: 599,
			Category: models.CategoryOversized, Sizes: []models.Size{models.SizeM, models.SizeL}, InStock: true,
		},
		hoodie: models.Product{
			ID: primitive.NewObjectID(), Name: "Sold Out Graphic Tee", Price: 799,
			Category: models.CategoryGraphic, Sizes: []models.Size{models.SizeL}, InStock: false,
		},
	}
	f.products = newFakeProducts(f.tee, f.hoodie)

	recorder := recorderFunc(func(_ context.Context, amount float64) error {
		f.recorded = append(f.recorded, amount)
		return nil
	})
	f.svc = NewOrderService(f.products, f.orders, DefaultPricing(), f.redis, f.redis, f.publisher, recorder)
	f.svc.now = func() time.Time { return time.Date(2026, 10, 19, 9, 30, 0, 0, time.UTC) }
	return f
}

func (f *orderFixture) checkout(items ...CartItemRequest) *CreateOrderRequest {
	return &CreateOrderRequest{
		Customer: models.Customer{
			Name:  "Riya Sharma",
			Phone: "+91 98765 43210",
			Email: "Riya@Example.com",
			Address: models.Address{
				Line1: "12 MG Road", City: "Bengaluru", State: "Karnataka", Pincode: "560001",
			},
		},
		Items: items,
	}
}

func TestCreateOrder(t *testing.T) {
	f := newOrderFixture(t)
	ctx := context.Background()

	order, err := f.svc.CreateOrder(ctx, f.checkout(
		CartItemRequest{ProductID: f.tee.ID.Hex(), Quantity: 1, Size: models.SizeM},
	))
	require.NoError(t, err)

	assert.Equal(t, "AW2610190001", order.OrderNumber)
	assert.Equal(t, models.OrderStatusPending, order.Status)
	assert.Equal(t, models.PaymentStatusPending, order.PaymentStatus)
	assert.Equal(t, 599.0, order.Subtotal)
	assert.Equal(t, 49.0, order.ShippingCost)
	assert.Equal(t, 648.0, order.TotalAmount)
	assert.Equal(t, "riya@example.com", order.Customer.Email)
	assert.Equal(t, time.Date(2026, 10, 22, 9, 30, 0, 0, time.UTC), order.EstimatedDelivery)
	require.Len(t, order.Items, 1)
	assert.Equal(t, "Asur Oversized Tee", order.Items[0].Name)
	require.Len(t, order.StatusHistory, 1)

	stored, _ := f.products.GetProduct(ctx, f.tee.ID)
	assert.Equal(t, int64(1), stored.Sales)
	assert.Equal(t, []float64{648}, f.recorded)
	require.Len(t, f.publisher.created, 1)
	assert.Equal(t, order.OrderNumber, f.publisher.created[0].OrderNumber)
	require.Len(t, f.publisher.notifications, 1)
	assert.Equal(t, models.NotificationOrderConfirmation, f.publisher.notifications[0].Kind)
	assert.Equal(t, "riya@example.com", f.publisher.notifications[0].To)
}

func TestCreateOrderSequenceIncrements(t *testing.T) {
	f := newOrderFixture(t)
	ctx := context.Background()
	item := CartItemRequest{ProductID: f.tee.ID.Hex(), Quantity: 2, Size: models.SizeL}

	first, err := f.svc.CreateOrder(ctx, f.checkout(item))
	require.NoError(t, err)
	second, err := f.svc.CreateOrder(ctx, f.checkout(item))
	require.NoError(t, err)

	assert.Equal(t, "AW2610190001", first.OrderNumber)
	assert.Equal(t, "AW2610190002", second.OrderNumber)
	assert.Equal(t, 1198.0, second.TotalAmount, "free shipping above the threshold")
}

func TestCreateOrderWithoutEmailSkipsNotification(t *testing.T) {
	f := newOrderFixture(t)
	req := f.checkout(CartItemRequest{ProductID: f.tee.ID.Hex(), Quantity: 1, Size: models.SizeM})
	req.Customer.Email = ""

	_, err := f.svc.CreateOrder(context.Background(), req)
	require.NoError(t, err)
	assert.Empty(t, f.publisher.notifications)
}

func TestCreateOrderIdempotent(t *testing.T) {
	f := newOrderFixture(t)
	ctx := context.Background()

	req := f.checkout(CartItemRequest{ProductID: f.tee.ID.Hex(), Quantity: 1, Size: models.SizeM})
	req.IdempotencyKey = "4d7e1c"

	first, err := f.svc.CreateOrder(ctx, req)
	require.NoError(t, err)
	replay, err := f.svc.CreateOrder(ctx, req)
	require.NoError(t, err)

	assert.Equal(t, first.ID, replay.ID)
	assert.Len(t, f.orders.orders, 1)
	assert.Empty(t, f.redis.locks, "lock released after checkout")
}

func TestCreateOrderInFlightKeyConflicts(t *testing.T) {
	f := newOrderFixture(t)
	f.redis.locks["checkout:busy"] = "held-by-another-request"

	req := f.checkout(CartItemRequest{ProductID: f.tee.ID.Hex(), Quantity: 1, Size: models.SizeM})
	req.IdempotencyKey = "busy"

	_, err := f.svc.CreateOrder(context.Background(), req)
	assert.True(t, errors.Is(err, ErrConflict))
}

func TestCreateOrderRejectsBadItems(t *testing.T) {
	f := newOrderFixture(t)

	tests := []struct {
		name string
		item CartItemRequest
	}{
		{"malformed id", CartItemRequest{ProductID: "nope", Quantity: 1, Size: models.SizeM}},
		{"unknown product", CartItemRequest{ProductID: primitive.NewObjectID().Hex(), Quantity: 1, Size: models.SizeM}},
		{"out of stock", CartItemRequest{ProductID: f.hoodie.ID.Hex(), Quantity: 1, Size: models.SizeL}},
		{"size not offered", CartItemRequest{ProductID: f.tee.ID.Hex(), Quantity: 1, Size: models.SizeXXL}},
		{"quantity too high", CartItemRequest{ProductID: f.tee.ID.Hex(), Quantity: 11, Size: models.SizeM}},
		{"quantity zero", CartItemRequest{ProductID: f.tee.ID.Hex(), Quantity: 0, Size: models.SizeM}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := f.svc.CreateOrder(context.Background(), f.checkout(tt.item))
			assert.True(t, errors.Is(err, ErrInvalidInput), "got %v", err)
		})
	}
	assert.Empty(t, f.orders.orders)
}

func TestCreateOrderPricingErrors(t *testing.T) {
	f := newOrderFixture(t)
	item := CartItemRequest{ProductID: f.tee.ID.Hex(), Quantity: 1, Size: models.SizeM}

	req := f.checkout(item)
	req.CouponCode = "BOGUS"
	_, err := f.svc.CreateOrder(context.Background(), req)
	assert.True(t, errors.Is(err, ErrInvalidCoupon))

	req = f.checkout(item)
	req.Customer.Address.Pincode = "999999"
	_, err = f.svc.CreateOrder(context.Background(), req)
	assert.True(t, errors.Is(err, ErrNotServiceable))
}

func TestQuote(t *testing.T) {
	f := newOrderFixture(t)

	quote, err := f.svc.Quote(context.Background(), &QuoteRequest{
		Items:      []CartItemRequest{{ProductID: f.tee.ID.Hex(), Quantity: 2, Size: models.SizeM}},
		CouponCode: "asurfree",
		Pincode:    "400001",
	})
	require.NoError(t, err)
	assert.Equal(t, 1198.0, quote.Subtotal)
	assert.Equal(t, 0.0, quote.TotalAmount)
	assert.Equal(t, "ASURFREE", quote.CouponCode)
}

func TestTrackOrder(t *testing.T) {
	f := newOrderFixture(t)
	ctx := context.Background()

	order, err := f.svc.CreateOrder(ctx, f.checkout(
		CartItemRequest{ProductID: f.tee.ID.Hex(), Quantity: 1, Size: models.SizeM},
	))
	require.NoError(t, err)

	found, err := f.svc.TrackOrder(ctx, "aw2610190001", "9876543210")
	require.NoError(t, err)
	assert.Equal(t, order.ID, found.ID)

	_, err = f.svc.TrackOrder(ctx, order.OrderNumber, "9000000000")
	assert.True(t, errors.Is(err, ErrNotFound))

	_, err = f.svc.TrackOrder(ctx, "AW0000000000", "9876543210")
	assert.True(t, errors.Is(err, ErrNotFound))
}

func TestUpdateStatus(t *testing.T) {
	f := newOrderFixture(t)
	ctx := context.Background()

	order, err := f.svc.CreateOrder(ctx, f.checkout(
		CartItemRequest{ProductID: f.tee.ID.Hex(), Quantity: 1, Size: models.SizeM},
	))
	require.NoError(t, err)
	id := order.ID.Hex()

	updated, err := f.svc.UpdateStatus(ctx, id, models.OrderStatusShipped)
	require.NoError(t, err)
	assert.Equal(t, models.OrderStatusShipped, updated.Status)
	assert.Len(t, updated.StatusHistory, 2)
	require.Len(t, f.publisher.statusChanges, 1)
	assert.Equal(t, models.OrderStatusPending, f.publisher.statusChanges[0].From)
	assert.Equal(t, models.NotificationOrderStatus, f.publisher.notifications[1].Kind)

	_, err = f.svc.UpdateStatus(ctx, id, models.OrderStatusCancelled)
	assert.True(t, errors.Is(err, ErrInvalidTransition))

	_, err = f.svc.UpdateStatus(ctx, id, "lost")
	assert.True(t, errors.Is(err, ErrInvalidInput))

	_, err = f.svc.UpdateStatus(ctx, primitive.NewObjectID().Hex(), models.OrderStatusConfirmed)
	assert.True(t, errors.Is(err, ErrNotFound))
}

func TestUpdatePaymentStatus(t *testing.T) {
	f := newOrderFixture(t)
	ctx := context.Background()

	order, err := f.svc.CreateOrder(ctx, f.checkout(
		CartItemRequest{ProductID: f.tee.ID.Hex(), Quantity: 1, Size: models.SizeM},
	))
	require.NoError(t, err)

	updated, err := f.svc.UpdatePaymentStatus(ctx, order.ID.Hex(), models.PaymentStatusPaid)
	require.NoError(t, err)
	assert.Equal(t, models.PaymentStatusPaid, updated.PaymentStatus)
	require.Len(t, f.publisher.payments, 1)

	_, err = f.svc.UpdatePaymentStatus(ctx, order.ID.Hex(), "bartered")
	assert.True(t, errors.Is(err, ErrInvalidInput))
}

func TestListOrders(t *testing.T) {
	f := newOrderFixture(t)
	ctx := context.Background()
	for i := 0; i < 3; i++ {
		_, err := f.svc.CreateOrder(ctx, f.checkout(
			CartItemRequest{ProductID: f.tee.ID.Hex(), Quantity: 1, Size: models.SizeM},
		))
		require.NoError(t, err)
	}

	page, err := f.svc.ListOrders(ctx, "PENDING", 2, 2)
	require.NoError(t, err)
	assert.Equal(t, int64(3), page.Total)
	assert.Equal(t, 2, page.TotalPages)
	assert.Len(t, page.Orders, 1)

	_, err = f.svc.ListOrders(ctx, "teleported", 1, 10)
	assert.True(t, errors.Is(err, ErrInvalidInput))
}

func TestFormatOrderNumber(t *testing.T) {
	day := time.Date(2026, 1, 5, 23, 0, 0, 0, time.UTC)
	assert.Equal(t, "AW2601050007", FormatOrderNumber(day, 7))
	assert.Equal(t, "AW2601051234", FormatOrderNumber(day, 1234))
}

func TestNormalizePhone(t *testing.T) {
	assert.Equal(t, "9876543210", NormalizePhone("+91 98765-43210"))
	assert.Equal(t, "9876543210", NormalizePhone("09876543210"))
	assert.Equal(t, "9876543210", NormalizePhone("9876543210"))
}

func TestValidPhone(t *testing.T) {
	for _, ok := range []string{"9876543210", "+91 98765 43210", "+919876543210", "09876543210", "6123456789"} {
		assert.True(t, ValidPhone(ok), ok)
	}
	for _, bad := range []string{"", "12345", "5876543210", "+1 415 555 0100", "98765432100"} {
		assert.False(t, ValidPhone(bad), bad)
	}
}
