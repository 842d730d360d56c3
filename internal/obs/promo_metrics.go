package obs

import (
	"github.com/prometheus/client_golang/prometheus"

	"github.com/noah-isme/toko-promo/internal/promo"
)

// PromoMetrics counts pricing outcomes. It satisfies the recorder interfaces
// of the promo, coupon and catalog packages and observes the catalog breaker.
type PromoMetrics struct {
	Rejected  *prometheus.CounterVec
	Fallbacks prometheus.Counter
	Applied   *prometheus.CounterVec
	Coupons   *prometheus.CounterVec
	Snapshots *prometheus.CounterVec
	Breaker   *prometheus.GaugeVec
	Trips     *prometheus.CounterVec
}

// NewPromoMetrics registers and returns the pricing collectors.
func NewPromoMetrics(namespace string, reg prometheus.Registerer) *PromoMetrics {
	if reg == nil {
		reg = prometheus.DefaultRegisterer
	}
	m := &PromoMetrics{
		Rejected: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "promotion_records_rejected_total",
			Help:      "Promotion records dropped during validation, by reason.",
		}, []string{"reason"}),
		Fallbacks: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "promotion_evaluation_fallbacks_total",
			Help:      "Product evaluations that failed and served the base price.",
		}),
		Applied: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "promotions_applied_total",
			Help:      "Winning promotions by kind.",
		}, []string{"kind"}),
		Coupons: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "coupon_evaluations_total",
			Help:      "Coupon evaluations by result.",
		}, []string{"result"}),
		Snapshots: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "promotion_snapshots_total",
			Help:      "Promotion snapshots served, by source.",
		}, []string{"source"}),
		Breaker: prometheus.NewGaugeVec(prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "breaker_state",
			Help:      "Current breaker state: 0=closed,1=open,2=half-open.",
		}, []string{"target"}),
		Trips: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "breaker_transitions_total",
			Help:      "Breaker state transitions.",
		}, []string{"target", "from", "to"}),
	}
	register(reg, &m.Rejected)
	register(reg, &m.Fallbacks)
	register(reg, &m.Applied)
	register(reg, &m.Coupons)
	register(reg, &m.Snapshots)
	register(reg, &m.Breaker)
	register(reg, &m.Trips)
	return m
}

// RecordRejected counts a dropped promotion record.
func (m *PromoMetrics) RecordRejected(reason string) {
	m.Rejected.WithLabelValues(reason).Inc()
}

// RecordFallback counts a product priced at base after an evaluation failure.
func (m *PromoMetrics) RecordFallback() {
	m.Fallbacks.Inc()
}

// RecordApplied counts a winning promotion.
func (m *PromoMetrics) RecordApplied(kind promo.Kind) {
	m.Applied.WithLabelValues(string(kind)).Inc()
}

// RecordCoupon counts a coupon evaluation.
func (m *PromoMetrics) RecordCoupon(result string) {
	m.Coupons.WithLabelValues(result).Inc()
}

// RecordSnapshot counts where a promotion snapshot came from.
func (m *PromoMetrics) RecordSnapshot(source string) {
	m.Snapshots.WithLabelValues(source).Inc()
}

// RecordBreakerState sets the gauge for a breaker target.
func (m *PromoMetrics) RecordBreakerState(target string, state float64) {
	m.Breaker.WithLabelValues(target).Set(state)
}

// RecordBreakerTransition counts a breaker state change.
func (m *PromoMetrics) RecordBreakerTransition(target, from, to string) {
	m.Trips.WithLabelValues(target, from, to).Inc()
}
