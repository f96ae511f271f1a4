// Package metrics holds the Prometheus collectors of the kiosk backend.
package metrics

import (
	"strconv"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
)

// Metrics groups every collector the services and router record to.
type Metrics struct {
	Registry *prometheus.Registry

	OrdersCommitted  *prometheus.CounterVec
	Revenue          *prometheus.CounterVec
	CheckoutFailures *prometheus.CounterVec
	CommitDuration   prometheus.Histogram
	CartRejections   *prometheus.CounterVec
	StockAdjustments prometheus.Counter
	ActiveSessions   prometheus.GaugeFunc
	HTTPRequests     *prometheus.CounterVec
	HTTPDuration     *prometheus.HistogramVec
}

// New registers all collectors on a fresh registry. sessionCount may be nil.
func New(sessionCount func() float64) *Metrics {
	reg := prometheus.NewRegistry()
	reg.MustRegister(collectors.NewGoCollector(), collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}))

	if sessionCount == nil {
		sessionCount = func() float64 { return 0 }
	}

	m := &Metrics{
		Registry: reg,
		OrdersCommitted: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "kiosk", Name: "orders_committed_total",
			Help: "Orders durably committed, by payment method.",
		}, []string{"payment_method"}),
		Revenue: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "kiosk", Name: "revenue_total",
			Help: "Sum of committed order totals including VAT, by payment method.",
		}, []string{"payment_method"}),
		CheckoutFailures: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "kiosk", Name: "checkout_failures_total",
			Help: "Checkout attempts that did not produce an order, by reason.",
		}, []string{"reason"}),
		CommitDuration: prometheus.NewHistogram(prometheus.HistogramOpts{
			Namespace: "kiosk", Name: "order_commit_duration_seconds",
			Help:    "Duration of the order commit transaction including retries.",
			Buckets: prometheus.ExponentialBuckets(0.001, 2, 12),
		}),
		CartRejections: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "kiosk", Name: "cart_rejections_total",
			Help: "Cart mutations refused, by reason.",
		}, []string{"reason"}),
		StockAdjustments: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: "kiosk", Name: "stock_adjustments_total",
			Help: "Manual stock adjustments applied by operators.",
		}),
		ActiveSessions: prometheus.NewGaugeFunc(prometheus.GaugeOpts{
			Namespace: "kiosk", Name: "sessions_active",
			Help: "Kiosk sessions currently held in memory.",
		}, sessionCount),
		HTTPRequests: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "kiosk", Name: "http_requests_total",
			Help: "HTTP requests by route and status code.",
		}, []string{"method", "route", "status"}),
		HTTPDuration: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: "kiosk", Name: "http_request_duration_seconds",
			Help:    "HTTP request latency by route.",
			Buckets: prometheus.DefBuckets,
		}, []string{"method", "route"}),
	}

	reg.MustRegister(
		m.OrdersCommitted, m.Revenue, m.CheckoutFailures, m.CommitDuration,
		m.CartRejections, m.StockAdjustments, m.ActiveSessions,
		m.HTTPRequests, m.HTTPDuration,
	)
	return m
}

// GinMiddleware records request count and latency per matched route.
func (m *Metrics) GinMiddleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()
		c.Next()

		route := c.FullPath()
		if route == "" {
			route = "unmatched"
		}
		m.HTTPRequests.WithLabelValues(c.Request.Method, route, strconv.Itoa(c.Writer.Status())).Inc()
		m.HTTPDuration.WithLabelValues(c.Request.Method, route).Observe(time.Since(start).Seconds())
	}
}
