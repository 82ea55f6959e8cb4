package metrics

import "github.com/prometheus/client_golang/prometheus"

const namespace = "hatchery"

// CommerceMetrics counts storefront events: cart mutations, cache lookups,
// order creation and lifecycle transitions, and outbox publishing.
type CommerceMetrics struct {
	cartMutations    *prometheus.CounterVec
	cartCache        *prometheus.CounterVec
	ordersCreated    prometheus.Counter
	numberCollisions prometheus.Counter
	transitions      *prometheus.CounterVec
	outboxPublished  *prometheus.CounterVec
}

// NewCommerceMetrics registers the storefront metrics on reg. A nil registerer
// yields a no-op instance.
func NewCommerceMetrics(reg prometheus.Registerer) *CommerceMetrics {
	if reg == nil {
		return &CommerceMetrics{}
	}
	m := &CommerceMetrics{
		cartMutations: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "cart_mutations_total",
			Help:      "Cart mutations by operation.",
		}, []string{"op"}),
		cartCache: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "cart_cache_lookups_total",
			Help:      "Cart cache lookups by result.",
		}, []string{"result"}),
		ordersCreated: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "orders_created_total",
			Help:      "Orders persisted by the snapshot builder.",
		}),
		numberCollisions: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "order_number_collisions_total",
			Help:      "Order number unique-constraint collisions.",
		}),
		transitions: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "order_transitions_total",
			Help:      "Accepted order status transitions.",
		}, []string{"from", "to"}),
		outboxPublished: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "outbox_publish_total",
			Help:      "Outbox publish attempts by sink and result.",
		}, []string{"sink", "result"}),
	}
	reg.MustRegister(m.cartMutations, m.cartCache, m.ordersCreated, m.numberCollisions, m.transitions, m.outboxPublished)
	return m
}

func (m *CommerceMetrics) IncCartMutation(op string) {
	if m == nil || m.cartMutations == nil {
		return
	}
	m.cartMutations.WithLabelValues(normalizeLabel(op)).Inc()
}

// IncCartCache records a lookup result: hit, miss or error.
func (m *CommerceMetrics) IncCartCache(result string) {
	if m == nil || m.cartCache == nil {
		return
	}
	m.cartCache.WithLabelValues(normalizeLabel(result)).Inc()
}

func (m *CommerceMetrics) IncOrdersCreated() {
	if m == nil || m.ordersCreated == nil {
		return
	}
	m.ordersCreated.Inc()
}

func (m *CommerceMetrics) IncOrderNumberCollision() {
	if m == nil || m.numberCollisions == nil {
		return
	}
	m.numberCollisions.Inc()
}

func (m *CommerceMetrics) IncOrderTransition(from, to string) {
	if m == nil || m.transitions == nil {
		return
	}
	m.transitions.WithLabelValues(normalizeLabel(from), normalizeLabel(to)).Inc()
}

func (m *CommerceMetrics) IncOutboxPublish(sink, result string) {
	if m == nil || m.outboxPublished == nil {
		return
	}
	m.outboxPublished.WithLabelValues(normalizeLabel(sink), normalizeLabel(result)).Inc()
}
