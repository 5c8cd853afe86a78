package models

import (
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

// Collection names
const (
	CollectionProducts  = "products"
	CollectionOrders    = "orders"
	CollectionUsers     = "users"
	CollectionOTPs      = "otps"
	CollectionAnalytics = "analytics"
	CollectionCampaigns = "campaigns"
)

type Category string

const (
	CategoryOversized Category = "oversized"
	CategoryRegular   Category = "regular"
	CategoryGraphic   Category = "graphic"
	CategoryPlain     Category = "plain"
	CategoryLimited   Category = "limited"
)

// Categories lists every category in display order.
var Categories = []Category{CategoryOversized, CategoryRegular, CategoryGraphic, CategoryPlain, CategoryLimited}

func (c Category) Valid() bool {
	for _, known := range Categories {
		if c == known {
			return true
		}
	}
	return false
}

type Size string

const (
	SizeS   Size = "S"
	SizeM   Size = "M"
	SizeL   Size = "L"
	SizeXL  Size = "XL"
	SizeXXL Size = "XXL"
)

var Sizes = []Size{SizeS, SizeM, SizeL, SizeXL, SizeXXL}

func (s Size) Valid() bool {
	for _, known := range Sizes {
		if s == known {
			return true
		}
	}
	return false
}

// ProductImage is a stored product photo. CDNURL keeps the legacy JSON
// name the storefront frontend reads.
type ProductImage struct {
	URL      string `bson:"url" json:"url"`
	PublicID string `bson:"publicId" json:"publicId"`
	CDNURL   string `bson:"cloudinaryUrl" json:"cloudinaryUrl"`
}

// Product represents a t-shirt in the catalogue
type Product struct {
	ID            primitive.ObjectID `bson:"_id,omitempty" json:"id"`
	Name          string             `bson:"name" json:"name"`
	Price         float64            `bson:"price" json:"price"`
	OriginalPrice float64            `bson:"originalPrice,omitempty" json:"originalPrice,omitempty"`
	Category      Category           `bson:"category" json:"category"`
	Description   string             `bson:"description" json:"description"`
	Images        []ProductImage     `bson:"images" json:"images"`
	Sizes         []Size             `bson:"sizes" json:"sizes"`
	InStock       bool               `bson:"inStock" json:"inStock"`
	Featured      bool               `bson:"featured" json:"featured"`
	Views         int64              `bson:"views" json:"views"`
	Sales         int64              `bson:"sales" json:"sales"`
	CreatedAt     time.Time          `bson:"createdAt" json:"createdAt"`
	UpdatedAt     time.Time          `bson:"updatedAt" json:"updatedAt"`
}

// HasSize reports whether the product is offered in size s.
func (p *Product) HasSize(s Size) bool {
	for _, size := range p.Sizes {
		if size == s {
			return true
		}
	}
	return false
}

type OrderStatus string

const (
	OrderStatusPending    OrderStatus = "pending"
	OrderStatusConfirmed  OrderStatus = "confirmed"
	OrderStatusProcessing OrderStatus = "processing"
	OrderStatusShipped    OrderStatus = "shipped"
	OrderStatusDelivered  OrderStatus = "delivered"
	OrderStatusCancelled  OrderStatus = "cancelled"
)

type PaymentStatus string

const (
	PaymentStatusPending  PaymentStatus = "pending"
	PaymentStatusPaid     PaymentStatus = "paid"
	PaymentStatusFailed   PaymentStatus = "failed"
	PaymentStatusRefunded PaymentStatus = "refunded"
)

func (s PaymentStatus) Valid() bool {
	switch s {
	case PaymentStatusPending, PaymentStatusPaid, PaymentStatusFailed, PaymentStatusRefunded:
		return true
	}
	return false
}

type Address struct {
	Line1   string `bson:"line1" json:"line1" binding:"required,max=200"`
	Line2   string `bson:"line2,omitempty" json:"line2,omitempty" binding:"max=200"`
	City    string `bson:"city" json:"city" binding:"required,max=100"`
	State   string `bson:"state" json:"state" binding:"required,max=100"`
	Pincode string `bson:"pincode" json:"pincode" binding:"required,pincode"`
}

type Customer struct {
	Name    string  `bson:"name" json:"name" binding:"required,max=100"`
	Phone   string  `bson:"phone" json:"phone" binding:"required,phone"`
	Email   string  `bson:"email,omitempty" json:"email,omitempty" binding:"omitempty,email"`
	Address Address `bson:"address" json:"address" binding:"required"`
}

type OrderItem struct {
	ProductID primitive.ObjectID `bson:"productId" json:"productId"`
	Name      string             `bson:"name" json:"name"`
	Quantity  int                `bson:"quantity" json:"quantity"`
	Size      Size               `bson:"size" json:"size"`
	Price     float64            `bson:"price" json:"price"`
}

type StatusChange struct {
	Status OrderStatus `bson:"status" json:"status"`
	At     time.Time   `bson:"at" json:"at"`
}

// Order represents a checkout
type Order struct {
	ID                primitive.ObjectID `bson:"_id,omitempty" json:"id"`
	OrderNumber       string             `bson:"orderNumber" json:"orderNumber"`
	Customer          Customer           `bson:"customer" json:"customer"`
	Items             []OrderItem        `bson:"items" json:"items"`
	Subtotal          float64            `bson:"subtotal" json:"subtotal"`
	Discount          float64            `bson:"discount" json:"discount"`
	ShippingCost      float64            `bson:"shippingCost" json:"shippingCost"`
	TotalAmount       float64            `bson:"totalAmount" json:"totalAmount"`
	CouponCode        string             `bson:"couponCode,omitempty" json:"couponCode,omitempty"`
	Status            OrderStatus        `bson:"status" json:"status"`
	PaymentStatus     PaymentStatus      `bson:"paymentStatus" json:"paymentStatus"`
	EstimatedDelivery time.Time          `bson:"estimatedDelivery" json:"estimatedDelivery"`
	StatusHistory     []StatusChange     `bson:"statusHistory" json:"statusHistory"`
	IdempotencyKey    string             `bson:"idempotencyKey,omitempty" json:"-"`
	CreatedAt         time.Time          `bson:"createdAt" json:"createdAt"`
	UpdatedAt         time.Time          `bson:"updatedAt" json:"updatedAt"`
}

// User is a shopper or a staff account
type User struct {
	ID        primitive.ObjectID `bson:"_id,omitempty" json:"id"`
	Name      string             `bson:"name" json:"name"`
	Email     string             `bson:"email" json:"email"`
	Password  string             `bson:"password,omitempty" json:"-"`
	IsAdmin   bool               `bson:"isAdmin" json:"isAdmin"`
	IsManager bool               `bson:"isManager" json:"isManager"`
	CreatedAt time.Time          `bson:"createdAt" json:"createdAt"`
	UpdatedAt time.Time          `bson:"updatedAt" json:"updatedAt"`
}

func (u *User) IsStaff() bool {
	return u.IsAdmin || u.IsManager
}

type OTPType string

const (
	OTPTypeLogin  OTPType = "login"
	OTPTypeSignup OTPType = "signup"
	OTPTypeReset  OTPType = "reset"
)

func (t OTPType) Valid() bool {
	switch t {
	case OTPTypeLogin, OTPTypeSignup, OTPTypeReset:
		return true
	}
	return false
}

// OTP is a single-use email verification code
type OTP struct {
	ID        primitive.ObjectID `bson:"_id,omitempty" json:"id"`
	Email     string             `bson:"email" json:"email"`
	Code      string             `bson:"otp" json:"-"`
	Type      OTPType            `bson:"type" json:"type"`
	ExpiresAt time.Time          `bson:"expiresAt" json:"expiresAt"`
	IsUsed    bool               `bson:"isUsed" json:"isUsed"`
	Attempts  int                `bson:"attempts" json:"attempts"`
	CreatedAt time.Time          `bson:"createdAt" json:"createdAt"`
}

// DailyAnalytics accumulates counters for one calendar day (UTC).
type DailyAnalytics struct {
	Date      string           `bson:"date" json:"date"`
	PageViews int64            `bson:"pageViews" json:"pageViews"`
	Actions   map[string]int64 `bson:"actions,omitempty" json:"actions"`
	Orders    int64            `bson:"orders" json:"orders"`
	Revenue   float64          `bson:"revenue" json:"revenue"`
	UpdatedAt time.Time        `bson:"updatedAt" json:"updatedAt"`
}

type Audience string

const (
	AudienceAll       Audience = "all"
	AudienceCustomers Audience = "customers"
)

// Campaign records a marketing email sent to an audience
type Campaign struct {
	ID         primitive.ObjectID `bson:"_id,omitempty" json:"id"`
	Subject    string             `bson:"subject" json:"subject"`
	Body       string             `bson:"body" json:"body"`
	Audience   Audience           `bson:"audience" json:"audience"`
	Recipients int                `bson:"recipients" json:"recipients"`
	CreatedBy  string             `bson:"createdBy" json:"createdBy"`
	CreatedAt  time.Time          `bson:"createdAt" json:"createdAt"`
}
