package service

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"asur-wears/internal/broker"
	"asur-wears/internal/models"
	"asur-wears/internal/notify"
	"asur-wears/internal/store"
	"asur-wears/internal/util"

	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.uber.org/zap"
)

// Checkout limits
const (
	MaxItemQuantity  = 10
	MaxOrderLines    = 20
	checkoutLockTTL  = 30 * time.Second
	orderNumberDigit = 4
)

// OrderService handles checkout and order management
type OrderService struct {
	products  ProductStore
	orders    OrderStore
	pricing   *Pricing
	sequencer OrderSequencer
	locker    Locker
	publisher Publisher
	analytics OrderRecorder
	logger    *zap.Logger
	now       func() time.Time
}

// NewOrderService creates a new order service
func NewOrderService(
	products ProductStore,
	orders OrderStore,
	pricing *Pricing,
	sequencer OrderSequencer,
	locker Locker,
	publisher Publisher,
	analytics OrderRecorder,
) *OrderService {
	return &OrderService{
		products:  products,
		orders:    orders,
		pricing:   pricing,
		sequencer: sequencer,
		locker:    locker,
		publisher: publisher,
		analytics: analytics,
		logger:    util.Named("orders"),
		now:       func() time.Time { return time.Now().UTC() },
	}
}

// CartItemRequest is one line of a cart or checkout
type CartItemRequest struct {
	ProductID string      `json:"productId" binding:"required"`
	Quantity  int         `json:"quantity" binding:"required,min=1,max=10"`
	Size      models.Size `json:"size" binding:"required"`
}

// QuoteRequest prices a cart before checkout
type QuoteRequest struct {
	Items      []CartItemRequest `json:"items" binding:"required,min=1,max=20,dive"`
	CouponCode string            `json:"couponCode"`
	Pincode    string            `json:"pincode" binding:"omitempty,pincode"`
}

// CreateOrderRequest represents a checkout
type CreateOrderRequest struct {
	Customer       models.Customer   `json:"customer" binding:"required"`
	Items          []CartItemRequest `json:"items" binding:"required,min=1,max=20,dive"`
	CouponCode     string            `json:"couponCode"`
	IdempotencyKey string            `json:"-"`
}

// OrderPage is one page of the staff order listing
type OrderPage struct {
	Orders     []models.Order `json:"orders"`
	Total      int64          `json:"total"`
	Page       int            `json:"page"`
	Limit      int            `json:"limit"`
	TotalPages int            `json:"totalPages"`
}

// Quote prices a cart with store prices
func (s *OrderService) Quote(ctx context.Context, req *QuoteRequest) (*Quote, error) {
	ctx, span := util.StartSpan(ctx, "OrderService.Quote")
	defer span.End()

	_, lines, err := s.resolveItems(ctx, req.Items)
	if err != nil {
		return nil, err
	}
	return s.pricing.Price(lines, req.CouponCode, req.Pincode)
}

// ValidateCoupon reports the coupon behind a code
func (s *OrderService) ValidateCoupon(code string) (*Coupon, error) {
	if strings.TrimSpace(code) == "" {
		return nil, invalid("coupon code is required")
	}
	return s.pricing.Coupon(code)
}

// ShippingEstimate returns the delivery rate for a pincode
func (s *OrderService) ShippingEstimate(pincode string) (*ShippingRate, error) {
	return s.pricing.ShippingFor(pincode)
}

// CreateOrder validates a checkout, prices it and stores the order
func (s *OrderService) CreateOrder(ctx context.Context, req *CreateOrderRequest) (*models.Order, error) {
	ctx, span := util.StartSpan(ctx, "OrderService.CreateOrder")
	defer span.End()

	if req.IdempotencyKey != "" {
		existing, err := s.orders.GetOrderByIdempotencyKey(ctx, req.IdempotencyKey)
		if err != nil {
			return nil, fmt.Errorf("failed to check idempotency: %w", err)
		}
		if existing != nil {
			s.logger.Info("Duplicate order request detected",
				zap.String("idempotency_key", req.IdempotencyKey),
				zap.String("order_number", existing.OrderNumber))
			return existing, nil
		}

		lockKey := "checkout:" + req.IdempotencyKey
		token, acquired, err := s.locker.AcquireLock(ctx, lockKey, checkoutLockTTL)
		if err != nil {
			return nil, fmt.Errorf("failed to lock checkout: %w", err)
		}
		if !acquired {
			return nil, fmt.Errorf("%w: checkout already in progress", ErrConflict)
		}
		defer func() {
			if err := s.locker.ReleaseLock(context.Background(), lockKey, token); err != nil {
				s.logger.Warn("Failed to release checkout lock", zap.Error(err))
			}
		}()
	}

	items, lines, err := s.resolveItems(ctx, req.Items)
	if err != nil {
		util.OrdersFailedTotal.WithLabelValues("invalid_items").Inc()
		return nil, err
	}

	quote, err := s.pricing.Price(lines, req.CouponCode, req.Customer.Address.Pincode)
	if err != nil {
		util.OrdersFailedTotal.WithLabelValues("pricing").Inc()
		return nil, err
	}

	now := s.now()
	seq, err := s.sequencer.NextOrderSequence(ctx, now.Format("060102"))
	if err != nil {
		util.OrdersFailedTotal.WithLabelValues("sequence").Inc()
		return nil, fmt.Errorf("failed to allocate order number: %w", err)
	}

	customer := req.Customer
	customer.Email = strings.ToLower(strings.TrimSpace(customer.Email))

	order := &models.Order{
		OrderNumber:       FormatOrderNumber(now, seq),
		Customer:          customer,
		Items:             items,
		Subtotal:          quote.Subtotal,
		Discount:          quote.Discount,
		ShippingCost:      quote.ShippingCost,
		TotalAmount:       quote.TotalAmount,
		CouponCode:        quote.CouponCode,
		Status:            models.OrderStatusPending,
		PaymentStatus:     models.PaymentStatusPending,
		EstimatedDelivery: now.AddDate(0, 0, quote.DeliveryDays),
		StatusHistory:     []models.StatusChange{{Status: models.OrderStatusPending, At: now}},
		IdempotencyKey:    req.IdempotencyKey,
		CreatedAt:         now,
		UpdatedAt:         now,
	}

	if err := s.orders.CreateOrder(ctx, order); err != nil {
		util.OrdersFailedTotal.WithLabelValues("db_error").Inc()
		if errors.Is(err, store.ErrDuplicate) && req.IdempotencyKey != "" {
			if existing, lookupErr := s.orders.GetOrderByIdempotencyKey(ctx, req.IdempotencyKey); lookupErr == nil && existing != nil {
				return existing, nil
			}
		}
		return nil, fromStore(err, "order")
	}

	util.OrdersCreatedTotal.Inc()
	util.RevenueTotal.Add(order.TotalAmount)
	s.logger.Info("Order created",
		zap.String("order_number", order.OrderNumber),
		zap.Float64("total", order.TotalAmount))

	s.afterCreate(ctx, order)
	return order, nil
}

// afterCreate runs the side effects of a stored order. None of them can
// undo the checkout, so failures are logged.
func (s *OrderService) afterCreate(ctx context.Context, order *models.Order) {
	eventItems := make([]models.OrderItemData, 0, len(order.Items))
	for _, item := range order.Items {
		if err := s.products.IncrementSales(ctx, item.ProductID, item.Quantity); err != nil {
			s.logger.Warn("Failed to count product sales",
				zap.String("product_id", item.ProductID.Hex()), zap.Error(err))
		}
		eventItems = append(eventItems, models.OrderItemData{
			ProductID: item.ProductID.Hex(),
			Size:      item.Size,
			Quantity:  item.Quantity,
			UnitPrice: item.Price,
		})
	}

	if err := s.analytics.RecordOrder(ctx, order.TotalAmount); err != nil {
		s.logger.Warn("Failed to record order analytics", zap.Error(err))
	}

	event := &models.OrderCreatedEvent{
		BaseEvent:   broker.NewBaseEvent(models.EventTypeOrderCreated),
		OrderID:     order.ID.Hex(),
		OrderNumber: order.OrderNumber,
		TotalAmount: order.TotalAmount,
		CouponCode:  order.CouponCode,
		Items:       eventItems,
	}
	if err := s.publisher.PublishOrderCreated(ctx, event); err != nil {
		s.logger.Error("Failed to publish OrderCreated event", zap.Error(err))
	}

	if order.Customer.Email != "" {
		s.notify(ctx, models.NotificationOrderConfirmation, notify.OrderConfirmationMessage(order))
	}
}

// resolveItems loads the products behind cart lines and checks that each
// can be sold as requested
func (s *OrderService) resolveItems(ctx context.Context, reqItems []CartItemRequest) ([]models.OrderItem, []QuoteLine, error) {
	if len(reqItems) == 0 {
		return nil, nil, invalid("cart is empty")
	}
	if len(reqItems) > MaxOrderLines {
		return nil, nil, invalid("at most %d lines per order", MaxOrderLines)
	}

	ids := make([]primitive.ObjectID, 0, len(reqItems))
	for _, item := range reqItems {
		id, err := parseID(item.ProductID, "product")
		if err != nil {
			return nil, nil, err
		}
		if item.Quantity < 1 || item.Quantity > MaxItemQuantity {
			return nil, nil, invalid("quantity must be between 1 and %d", MaxItemQuantity)
		}
		ids = append(ids, id)
	}

	found, err := s.products.GetProductsByIDs(ctx, ids)
	if err != nil {
		return nil, nil, fromStore(err, "products")
	}
	byID := make(map[primitive.ObjectID]*models.Product, len(found))
	for i := range found {
		byID[found[i].ID] = &found[i]
	}

	items := make([]models.OrderItem, 0, len(reqItems))
	lines := make([]QuoteLine, 0, len(reqItems))
	for i, item := range reqItems {
		product, ok := byID[ids[i]]
		if !ok {
			return nil, nil, invalid("product %s not found", item.ProductID)
		}
		if !product.InStock {
			return nil, nil, invalid("%s is out of stock", product.Name)
		}
		if !product.HasSize(item.Size) {
			return nil, nil, invalid("%s is not available in size %s", product.Name, item.Size)
		}

		items = append(items, models.OrderItem{
			ProductID: product.ID,
			Name:      product.Name,
			Quantity:  item.Quantity,
			Size:      item.Size,
			Price:     product.Price,
		})
		lines = append(lines, QuoteLine{Price: product.Price, Quantity: item.Quantity})
	}
	return items, lines, nil
}

// TrackOrder returns an order to a shopper who knows its number and the
// phone it was placed with. A mismatch looks the same as a missing order.
func (s *OrderService) TrackOrder(ctx context.Context, orderNumber, phone string) (*models.Order, error) {
	orderNumber = strings.ToUpper(strings.TrimSpace(orderNumber))
	if orderNumber == "" || phone == "" {
		return nil, invalid("order number and phone are required")
	}

	order, err := s.orders.GetOrderByNumber(ctx, orderNumber)
	if err != nil {
		return nil, fromStore(err, "order")
	}
	if NormalizePhone(order.Customer.Phone) != NormalizePhone(phone) {
		return nil, fmt.Errorf("%w: order", ErrNotFound)
	}
	return order, nil
}

// GetOrder returns an order by ID
func (s *OrderService) GetOrder(ctx context.Context, id string) (*models.Order, error) {
	oid, err := parseID(id, "order")
	if err != nil {
		return nil, err
	}
	order, err := s.orders.GetOrderByID(ctx, oid)
	if err != nil {
		return nil, fromStore(err, "order")
	}
	return order, nil
}

// ListOrders returns a page of orders, newest first
func (s *OrderService) ListOrders(ctx context.Context, status string, page, limit int) (*OrderPage, error) {
	st := models.OrderStatus(strings.ToLower(status))
	if st != "" && !KnownStatus(st) {
		return nil, invalid("unknown status %q", status)
	}

	page, limit = pageBounds(page, limit)
	orders, total, err := s.orders.ListOrders(ctx, st, int64((page-1)*limit), int64(limit))
	if err != nil {
		return nil, fromStore(err, "orders")
	}
	return &OrderPage{
		Orders:     orders,
		Total:      total,
		Page:       page,
		Limit:      limit,
		TotalPages: totalPages(total, limit),
	}, nil
}

// UpdateStatus moves an order along its lifecycle
func (s *OrderService) UpdateStatus(ctx context.Context, id string, to models.OrderStatus) (*models.Order, error) {
	ctx, span := util.StartSpan(ctx, "OrderService.UpdateStatus")
	defer span.End()

	if !KnownStatus(to) {
		return nil, invalid("unknown status %q", to)
	}
	current, err := s.GetOrder(ctx, id)
	if err != nil {
		return nil, err
	}
	if !CanTransition(current.Status, to) {
		return nil, fmt.Errorf("%w: %s to %s", ErrInvalidTransition, current.Status, to)
	}

	order, err := s.orders.UpdateOrderStatus(ctx, current.ID, current.Status, to)
	if errors.Is(err, store.ErrNotFound) {
		return nil, fmt.Errorf("%w: order changed concurrently, reload and retry", ErrConflict)
	}
	if err != nil {
		return nil, fromStore(err, "order")
	}

	util.OrderStatusChangesTotal.WithLabelValues(string(to)).Inc()
	s.logger.Info("Order status changed",
		zap.String("order_number", order.OrderNumber),
		zap.String("from", string(current.Status)),
		zap.String("to", string(to)))

	event := &models.OrderStatusChangedEvent{
		BaseEvent:   broker.NewBaseEvent(models.EventTypeOrderStatusChanged),
		OrderID:     order.ID.Hex(),
		OrderNumber: order.OrderNumber,
		From:        current.Status,
		To:          to,
	}
	if err := s.publisher.PublishOrderStatusChanged(ctx, event); err != nil {
		s.logger.Error("Failed to publish OrderStatusChanged event", zap.Error(err))
	}
	if order.Customer.Email != "" {
		s.notify(ctx, models.NotificationOrderStatus, notify.OrderStatusMessage(order))
	}
	return order, nil
}

// UpdatePaymentStatus records the payment outcome of an order
func (s *OrderService) UpdatePaymentStatus(ctx context.Context, id string, status models.PaymentStatus) (*models.Order, error) {
	if !status.Valid() {
		return nil, invalid("unknown payment status %q", status)
	}
	oid, err := parseID(id, "order")
	if err != nil {
		return nil, err
	}

	order, err := s.orders.UpdatePaymentStatus(ctx, oid, status)
	if err != nil {
		return nil, fromStore(err, "order")
	}

	event := &models.PaymentUpdatedEvent{
		BaseEvent:     broker.NewBaseEvent(models.EventTypePaymentUpdated),
		OrderID:       order.ID.Hex(),
		OrderNumber:   order.OrderNumber,
		PaymentStatus: status,
	}
	if err := s.publisher.PublishPaymentUpdated(ctx, event); err != nil {
		s.logger.Error("Failed to publish PaymentUpdated event", zap.Error(err))
	}
	return order, nil
}

func (s *OrderService) notify(ctx context.Context, kind string, msg notify.Message) {
	if err := s.publisher.PublishNotification(ctx, notificationEvent(kind, msg)); err != nil {
		s.logger.Error("Failed to queue notification",
			zap.String("kind", kind),
			zap.Error(err))
	}
}

func notificationEvent(kind string, msg notify.Message) *models.NotificationEvent {
	return &models.NotificationEvent{
		BaseEvent: broker.NewBaseEvent(models.EventTypeNotification),
		Kind:      kind,
		To:        msg.To,
		Subject:   msg.Subject,
		Body:      msg.Body,
	}
}

// FormatOrderNumber renders "AW" + YYMMDD + a zero-padded daily sequence
func FormatOrderNumber(day time.Time, seq int64) string {
	return fmt.Sprintf("AW%s%0*d", day.Format("060102"), orderNumberDigit, seq)
}
