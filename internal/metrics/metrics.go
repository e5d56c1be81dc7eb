package metrics

import (
	"strconv"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	RequestDuration = promauto.NewHistogramVec(prometheus.HistogramOpts{
		Namespace: "grocery",
		Subsystem: "http",
		Name:      "request_duration_seconds",
		Help:      "HTTP request latency by route and status.",
		Buckets:   prometheus.DefBuckets,
	}, []string{"method", "route", "status"})

	OrdersPlaced = promauto.NewCounter(prometheus.CounterOpts{
		Namespace: "grocery",
		Subsystem: "checkout",
		Name:      "orders_placed_total",
		Help:      "Orders successfully persisted.",
	})

	CheckoutRejections = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: "grocery",
		Subsystem: "checkout",
		Name:      "rejections_total",
		Help:      "Checkout attempts rejected, by reason.",
	}, []string{"reason"})

	CouponRedemptions = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: "grocery",
		Subsystem: "coupon",
		Name:      "redemptions_total",
		Help:      "Coupon redemption outcomes.",
	}, []string{"result"}) // redeemed / replayed / rejected / error

	OrderWindowRefreshes = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: "grocery",
		Subsystem: "order_window",
		Name:      "refreshes_total",
		Help:      "Order window cache refreshes.",
	}, []string{"result"})

	CartOperations = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: "grocery",
		Subsystem: "cart",
		Name:      "operations_total",
		Help:      "Cart mutations by operation.",
	}, []string{"operation"})

	Notifications = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: "grocery",
		Subsystem: "notify",
		Name:      "deliveries_total",
		Help:      "Notification fan-out results by channel.",
	}, []string{"channel", "result"})

	NotifyQueueDepth = promauto.NewGauge(prometheus.GaugeOpts{
		Namespace: "grocery",
		Subsystem: "notify",
		Name:      "queue_depth",
		Help:      "Jobs waiting in the notification outbox.",
	})
)

// ObserveRequest records one HTTP request.
func ObserveRequest(method, route string, status int, d time.Duration) {
	RequestDuration.WithLabelValues(method, route, strconv.Itoa(status)).Observe(d.Seconds())
}
