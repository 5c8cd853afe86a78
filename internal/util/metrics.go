package util

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	OrdersCreatedTotal = promauto.NewCounter(prometheus.CounterOpts{
		Name: "storefront_orders_created_total",
		Help: "Total number of orders placed at checkout",
	})

	OrdersFailedTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "storefront_orders_failed_total",
		Help: "Total number of rejected checkouts",
	}, []string{"reason"})

	OrderStatusChangesTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "storefront_order_status_changes_total",
		Help: "Order status transitions by target status",
	}, []string{"status"})

	RevenueTotal = promauto.NewCounter(prometheus.CounterOpts{
		Name: "storefront_revenue_rupees_total",
		Help: "Sum of order totals at checkout, in rupees",
	})

	OTPSentTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "storefront_otp_sent_total",
		Help: "OTP codes issued by type",
	}, []string{"type"})

	OTPVerifyTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "storefront_otp_verify_total",
		Help: "OTP verification attempts by result",
	}, []string{"result"})

	ImageUploadsTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "storefront_image_uploads_total",
		Help: "Image uploads by result",
	}, []string{"result"})

	NotificationsTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "storefront_notifications_total",
		Help: "Notification emails by kind and result",
	}, []string{"kind", "result"})

	NotificationLatency = promauto.NewHistogram(prometheus.HistogramOpts{
		Name:    "storefront_notification_send_seconds",
		Help:    "Latency of sending one notification email",
		Buckets: prometheus.DefBuckets,
	})

	HTTPRequestDuration = promauto.NewHistogramVec(prometheus.HistogramOpts{
		Name:    "http_request_duration_seconds",
		Help:    "HTTP request latency",
		Buckets: prometheus.DefBuckets,
	}, []string{"method", "path", "status"})

	HTTPRequestsTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "http_requests_total",
		Help: "Total number of HTTP requests",
	}, []string{"method", "path", "status"})
)
