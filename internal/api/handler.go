package api

import (
	"context"
	"io"
	"net/http"
	"time"

	"asur-wears/internal/auth"
	"asur-wears/internal/media"
	"asur-wears/internal/models"
	"asur-wears/internal/service"
	"asur-wears/internal/util"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.uber.org/zap"
)

// ProductService is the catalogue surface used by handlers
type ProductService interface {
	ListProducts(ctx context.Context, req service.ListProductsRequest) (*service.ProductPage, error)
	GetProduct(ctx context.Context, id string) (*models.Product, error)
	CreateProduct(ctx context.Context, req *service.ProductRequest) (*models.Product, error)
	UpdateProduct(ctx context.Context, id string, req *service.ProductUpdateRequest) (*models.Product, error)
	DeleteProduct(ctx context.Context, id string) error
	UploadImage(ctx context.Context, r io.Reader) (*models.ProductImage, error)
	DeleteImage(ctx context.Context, publicID string) error
}

// OrderService is the checkout and order surface used by handlers
type OrderService interface {
	Quote(ctx context.Context, req *service.QuoteRequest) (*service.Quote, error)
	ValidateCoupon(code string) (*service.Coupon, error)
	ShippingEstimate(pincode string) (*service.ShippingRate, error)
	CreateOrder(ctx context.Context, req *service.CreateOrderRequest) (*models.Order, error)
	TrackOrder(ctx context.Context, orderNumber, phone string) (*models.Order, error)
	GetOrder(ctx context.Context, id string) (*models.Order, error)
	ListOrders(ctx context.Context, status string, page, limit int) (*service.OrderPage, error)
	UpdateStatus(ctx context.Context, id string, to models.OrderStatus) (*models.Order, error)
	UpdatePaymentStatus(ctx context.Context, id string, status models.PaymentStatus) (*models.Order, error)
}

// AuthService is the account surface used by handlers
type AuthService interface {
	Signup(ctx context.Context, req *service.SignupRequest) (*service.Session, error)
	Login(ctx context.Context, req *service.LoginRequest) (*service.Session, error)
	AdminLogin(ctx context.Context, req *service.LoginRequest) (*service.Session, error)
	Me(ctx context.Context, userID string) (*models.User, error)
}

// OTPService is the one-time code surface used by handlers
type OTPService interface {
	SendOTP(ctx context.Context, req *service.SendOTPRequest) error
	VerifyOTP(ctx context.Context, req *service.VerifyOTPRequest) (*service.Session, error)
}

// AnalyticsService is the tracking surface used by handlers
type AnalyticsService interface {
	Track(ctx context.Context, req *service.TrackRequest) error
	Range(ctx context.Context, days int) ([]models.DailyAnalytics, error)
}

// DashboardService builds the admin overview
type DashboardService interface {
	Dashboard(ctx context.Context) (*service.Dashboard, error)
}

// CampaignService sends and lists marketing campaigns
type CampaignService interface {
	Send(ctx context.Context, req *service.CampaignRequest, createdBy string) (*models.Campaign, error)
	List(ctx context.Context, limit int) ([]models.Campaign, error)
}

// TokenParser verifies bearer tokens
type TokenParser interface {
	Parse(token string) (*auth.Claims, error)
}

// Pinger is a dependency checked by the readiness probe
type Pinger interface {
	Ping(ctx context.Context) error
}

// Options configures the router
type Options struct {
	UploadDir      string
	MaxUploadBytes int64
	CORSOrigins    []string
	// Dependencies checked by /ready, by name
	Readiness map[string]Pinger
}

// Handler contains HTTP handlers
type Handler struct {
	products  ProductService
	orders    OrderService
	auth      AuthService
	otp       OTPService
	analytics AnalyticsService
	dashboard DashboardService
	campaigns CampaignService
	tokens    TokenParser
	opts      Options
	logger    *zap.Logger
}

// Services groups the handler dependencies
type Services struct {
	Products  ProductService
	Orders    OrderService
	Auth      AuthService
	OTP       OTPService
	Analytics AnalyticsService
	Dashboard DashboardService
	Campaigns CampaignService
	Tokens    TokenParser
}

// NewHandler creates a new HTTP handler
func NewHandler(svc Services, opts Options) *Handler {
	if opts.MaxUploadBytes <= 0 {
		opts.MaxUploadBytes = 5 << 20
	}
	return &Handler{
		products:  svc.Products,
		orders:    svc.Orders,
		auth:      svc.Auth,
		otp:       svc.OTP,
		analytics: svc.Analytics,
		dashboard: svc.Dashboard,
		campaigns: svc.Campaigns,
		tokens:    svc.Tokens,
		opts:      opts,
		logger:    util.Named("http"),
	}
}

// SetupRoutes sets up HTTP routes
func (h *Handler) SetupRoutes(router *gin.Engine) {
	mustRegisterValidators()

	router.Use(gin.Recovery())
	router.Use(prometheusMiddleware())
	router.Use(requestLogger(h.logger))
	router.Use(cors.New(corsConfig(h.opts.CORSOrigins)))

	router.GET("/health", h.healthCheck)
	router.GET("/ready", h.readinessCheck)
	router.GET("/metrics", gin.WrapH(promhttp.Handler()))
	if h.opts.UploadDir != "" {
		router.Static(media.PublicPrefix, h.opts.UploadDir)
	}

	api := router.Group("/api")
	{
		api.GET("/categories", h.listCategories)
		api.GET("/products", h.listProducts)
		api.GET("/products/featured", h.listFeaturedProducts)
		api.GET("/products/:id", h.getProduct)

		api.POST("/cart/quote", h.quoteCart)
		api.POST("/coupons/validate", h.validateCoupon)
		api.GET("/shipping/:pincode", h.shippingEstimate)

		api.POST("/orders/create", h.createOrder)
		api.GET("/orders/:orderNumber", h.trackOrder)

		api.POST("/analytics/track", h.trackEvent)
	}

	authGroup := api.Group("/auth")
	{
		authGroup.POST("/signup", h.signup)
		authGroup.POST("/login", h.login)
		authGroup.POST("/send-otp", h.sendOTP)
		authGroup.POST("/verify-otp", h.verifyOTP)
		authGroup.GET("/me", h.RequireAuth(), h.me)
	}

	api.POST("/admin/login", h.adminLogin)

	staff := api.Group("/admin", h.RequireAuth(), h.RequireStaff())
	{
		staff.POST("/upload-image", h.uploadImage)
		staff.DELETE("/images/:publicId", h.deleteImage)

		staff.POST("/products", h.createProduct)
		staff.PUT("/products/:id", h.updateProduct)
		staff.DELETE("/products/:id", h.deleteProduct)

		staff.GET("/orders", h.listOrders)
		staff.GET("/orders/:id", h.getOrder)
		staff.PUT("/orders/:id/status", h.updateOrderStatus)
		staff.PUT("/orders/:id/payment", h.updatePaymentStatus)

		staff.GET("/dashboard", h.getDashboard)
		staff.GET("/analytics", h.getAnalytics)
	}

	admin := api.Group("/admin", h.RequireAuth(), h.RequireAdmin())
	{
		admin.GET("/campaigns", h.listCampaigns)
		admin.POST("/campaigns", h.sendCampaign)
	}

	doc := newOpenAPIDoc(router.Routes())
	api.GET("/openapi.json", func(c *gin.Context) {
		c.JSON(http.StatusOK, doc)
	})
}

func corsConfig(origins []string) cors.Config {
	cfg := cors.Config{
		AllowMethods:  []string{"GET", "POST", "PUT", "DELETE", "OPTIONS"},
		AllowHeaders:  []string{"Origin", "Content-Type", "Authorization", "Idempotency-Key"},
		ExposeHeaders: []string{"Content-Length"},
		MaxAge:        12 * time.Hour,
	}
	for _, o := range origins {
		if o == "*" {
			cfg.AllowAllOrigins = true
			return cfg
		}
	}
	if len(origins) == 0 {
		cfg.AllowAllOrigins = true
		return cfg
	}
	cfg.AllowOrigins = origins
	cfg.AllowCredentials = true
	return cfg
}

// healthCheck handles health check requests
func (h *Handler) healthCheck(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{
		"status": "healthy",
		"time":   time.Now().Unix(),
	})
}

// readinessCheck pings every backing service
func (h *Handler) readinessCheck(c *gin.Context) {
	ctx, cancel := context.WithTimeout(c.Request.Context(), 2*time.Second)
	defer cancel()

	checks := gin.H{}
	ready := true
	for name, dep := range h.opts.Readiness {
		if err := dep.Ping(ctx); err != nil {
			h.logger.Warn("Readiness check failed", zap.String("dependency", name), zap.Error(err))
			checks[name] = "unavailable"
			ready = false
			continue
		}
		checks[name] = "ok"
	}

	status, code := "ready", http.StatusOK
	if !ready {
		status, code = "not ready", http.StatusServiceUnavailable
	}
	c.JSON(code, gin.H{
		"status": status,
		"checks": checks,
		"time":   time.Now().Unix(),
	})
}
