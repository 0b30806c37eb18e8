package metrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
)

// ShopMetrics records order flow, snapshot persistence and push delivery.
// A nil *ShopMetrics is a valid no-op recorder.
type ShopMetrics struct {
	ordersPlaced    *prometheus.CounterVec
	ordersCancelled *prometheus.CounterVec
	ordersAdjusted  prometheus.Counter
	persistDuration *prometheus.HistogramVec
	persistFailures *prometheus.CounterVec
	pushDeliveries  *prometheus.CounterVec
}

// NewShopMetrics registers the shop metrics on the provided registerer.
func NewShopMetrics(reg prometheus.Registerer) *ShopMetrics {
	if reg == nil {
		return &ShopMetrics{}
	}
	ordersPlaced := prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "orders_placed_total",
		Help: "Orders settled, by delivery mode.",
	}, []string{"mode"})
	ordersCancelled := prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "orders_cancelled_total",
		Help: "Orders cancelled, by who cancelled them.",
	}, []string{"source"})
	ordersAdjusted := prometheus.NewCounter(prometheus.CounterOpts{
		Name: "orders_adjusted_total",
		Help: "Partial quantity adjustments that reduced an order.",
	})
	persistDuration := prometheus.NewHistogramVec(prometheus.HistogramOpts{
		Name:    "snapshot_persist_duration_seconds",
		Help:    "Duration of snapshot writes in seconds.",
		Buckets: prometheus.DefBuckets,
	}, []string{"backend"})
	persistFailures := prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "snapshot_persist_failures_total",
		Help: "Snapshot writes that failed.",
	}, []string{"backend"})
	pushDeliveries := prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "push_deliveries_total",
		Help: "Web push deliveries, by result.",
	}, []string{"result"})
	reg.MustRegister(ordersPlaced, ordersCancelled, ordersAdjusted, persistDuration, persistFailures, pushDeliveries)
	return &ShopMetrics{
		ordersPlaced:    ordersPlaced,
		ordersCancelled: ordersCancelled,
		ordersAdjusted:  ordersAdjusted,
		persistDuration: persistDuration,
		persistFailures: persistFailures,
		pushDeliveries:  pushDeliveries,
	}
}

// IncOrderPlaced counts a settled order.
func (m *ShopMetrics) IncOrderPlaced(mode string) {
	if m == nil || m.ordersPlaced == nil {
		return
	}
	m.ordersPlaced.WithLabelValues(normalizeLabel(mode)).Inc()
}

// IncOrderCancelled counts a cancellation; source is customer, admin or adjustment.
func (m *ShopMetrics) IncOrderCancelled(source string) {
	if m == nil || m.ordersCancelled == nil {
		return
	}
	m.ordersCancelled.WithLabelValues(normalizeLabel(source)).Inc()
}

// IncOrderAdjusted counts a reducing adjustment.
func (m *ShopMetrics) IncOrderAdjusted() {
	if m == nil || m.ordersAdjusted == nil {
		return
	}
	m.ordersAdjusted.Inc()
}

// ObservePersist records a snapshot write and counts it as failed when err is set.
func (m *ShopMetrics) ObservePersist(backend string, duration time.Duration, err error) {
	if m == nil || m.persistDuration == nil {
		return
	}
	backend = normalizeLabel(backend)
	m.persistDuration.WithLabelValues(backend).Observe(duration.Seconds())
	if err != nil {
		m.persistFailures.WithLabelValues(backend).Inc()
	}
}

// IncPushDelivery counts a push attempt; result is sent, pruned or failed.
func (m *ShopMetrics) IncPushDelivery(result string) {
	if m == nil || m.pushDeliveries == nil {
		return
	}
	m.pushDeliveries.WithLabelValues(normalizeLabel(result)).Inc()
}

func normalizeLabel(value string) string {
	if value == "" {
		return "unknown"
	}
	return value
}
