package service

import (
	"context"
	"io"
	"time"

	"asur-wears/internal/models"
	"asur-wears/internal/store"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

// ProductStore persists the catalogue
type ProductStore interface {
	CreateProduct(ctx context.Context, product *models.Product) error
	GetProduct(ctx context.Context, id primitive.ObjectID) (*models.Product, error)
	GetProductAndCountView(ctx context.Context, id primitive.ObjectID) (*models.Product, error)
	GetProductsByIDs(ctx context.Context, ids []primitive.ObjectID) ([]models.Product, error)
	ListProducts(ctx context.Context, q store.ProductQuery) ([]models.Product, int64, error)
	UpdateProduct(ctx context.Context, id primitive.ObjectID, patch store.ProductPatch) (*models.Product, error)
	DeleteProduct(ctx context.Context, id primitive.ObjectID) (*models.Product, error)
	IncrementSales(ctx context.Context, id primitive.ObjectID, quantity int) error
}

// OrderStore persists orders
type OrderStore interface {
	CreateOrder(ctx context.Context, order *models.Order) error
	GetOrderByID(ctx context.Context, id primitive.ObjectID) (*models.Order, error)
	GetOrderByNumber(ctx context.Context, orderNumber string) (*models.Order, error)
	GetOrderByIdempotencyKey(ctx context.Context, key string) (*models.Order, error)
	ListOrders(ctx context.Context, status models.OrderStatus, skip, limit int64) ([]models.Order, int64, error)
	UpdateOrderStatus(ctx context.Context, id primitive.ObjectID, from, to models.OrderStatus) (*models.Order, error)
	UpdatePaymentStatus(ctx context.Context, id primitive.ObjectID, status models.PaymentStatus) (*models.Order, error)
}

// UserStore persists accounts
type UserStore interface {
	CreateUser(ctx context.Context, user *models.User) error
	GetUserByEmail(ctx context.Context, email string) (*models.User, error)
	GetUserByID(ctx context.Context, id primitive.ObjectID) (*models.User, error)
	UpdatePassword(ctx context.Context, id primitive.ObjectID, hash string) error
}

// OTPStore persists one-time codes
type OTPStore interface {
	CreateOTP(ctx context.Context, otp *models.OTP) error
	InvalidateOTPs(ctx context.Context, email string, otpType models.OTPType) error
	ConsumeOTP(ctx context.Context, email string, otpType models.OTPType, code string, now time.Time, maxAttempts int) (*models.OTP, error)
}

// AnalyticsStore persists daily counters
type AnalyticsStore interface {
	IncrementDay(ctx context.Context, date string, inc map[string]interface{}) error
	AnalyticsRange(ctx context.Context, from, to string) ([]models.DailyAnalytics, error)
}

// DashboardStore answers the admin overview queries
type DashboardStore interface {
	CountProducts(ctx context.Context) (int64, error)
	CountOrders(ctx context.Context, status models.OrderStatus) (int64, error)
	CountUsers(ctx context.Context) (int64, error)
	Revenue(ctx context.Context) (float64, error)
	RecentOrders(ctx context.Context, n int64) ([]models.Order, error)
	TopSellingProducts(ctx context.Context, n int64) ([]models.Product, error)
}

// CampaignStore persists campaigns and resolves audiences
type CampaignStore interface {
	CreateCampaign(ctx context.Context, campaign *models.Campaign) error
	ListCampaigns(ctx context.Context, limit int64) ([]models.Campaign, error)
	UserEmails(ctx context.Context) ([]string, error)
	CustomerEmails(ctx context.Context) ([]string, error)
}

// Publisher emits domain events and queues notifications
type Publisher interface {
	PublishOrderCreated(ctx context.Context, event *models.OrderCreatedEvent) error
	PublishOrderStatusChanged(ctx context.Context, event *models.OrderStatusChangedEvent) error
	PublishPaymentUpdated(ctx context.Context, event *models.PaymentUpdatedEvent) error
	PublishNotification(ctx context.Context, event *models.NotificationEvent) error
}

// RateLimiter counts hits per key in a fixed window
type RateLimiter interface {
	Allow(ctx context.Context, key string, limit int, window time.Duration) (bool, error)
}

// OrderSequencer hands out per-day order sequence numbers
type OrderSequencer interface {
	NextOrderSequence(ctx context.Context, day string) (int64, error)
}

// Locker guards a critical section across processes. ReleaseLock only
// removes the lock while it still holds the token AcquireLock returned.
type Locker interface {
	AcquireLock(ctx context.Context, lockKey string, ttl time.Duration) (token string, ok bool, err error)
	ReleaseLock(ctx context.Context, lockKey, token string) error
}

// ImageStore keeps uploaded product photos
type ImageStore interface {
	Save(ctx context.Context, r io.Reader) (*models.ProductImage, error)
	Delete(ctx context.Context, publicID string) error
}

// OrderRecorder accumulates order analytics
type OrderRecorder interface {
	RecordOrder(ctx context.Context, amount float64) error
}

func parseID(hex, what string) (primitive.ObjectID, error) {
	id, err := primitive.ObjectIDFromHex(hex)
	if err != nil {
		return primitive.NilObjectID, invalid("malformed %s id", what)
	}
	return id, nil
}
