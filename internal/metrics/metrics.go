package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Metrics — метрики движка синхронизации корзины. Все методы безопасны для nil-получателя.
type Metrics struct {
	// Запросы к сервису корзины по операции и результату
	RemoteCalls *prometheus.CounterVec

	// Откаты оптимистичных изменений по операции
	Rollbacks *prometheus.CounterVec

	// Правки количества, поглощённые debounce (таймер перезаведён)
	CoalescedEdits prometheus.Counter

	// Ответы на запись, отброшенные как устаревшие
	StaleResponses prometheus.Counter

	// Сверки с сервером по режиму и исходу
	Reconciliations *prometheus.CounterVec

	// Товары, ожидающие подтверждения сервером
	PendingItems prometheus.Gauge
}

// New регистрирует метрики в reg. Если reg == nil, метрики создаются без регистрации.
func New(reg prometheus.Registerer) *Metrics {
	factory := promauto.With(reg)

	return &Metrics{
		RemoteCalls: factory.NewCounterVec(prometheus.CounterOpts{
			Name: "cart_sync_remote_calls_total",
			Help: "Cart service calls by operation and result",
		}, []string{"op", "result"}),

		Rollbacks: factory.NewCounterVec(prometheus.CounterOpts{
			Name: "cart_sync_rollbacks_total",
			Help: "Optimistic cart changes restored from snapshot after a failed write",
		}, []string{"op"}),

		CoalescedEdits: factory.NewCounter(prometheus.CounterOpts{
			Name: "cart_sync_coalesced_edits_total",
			Help: "Quantity edits folded into a later write by the debounce window",
		}),

		StaleResponses: factory.NewCounter(prometheus.CounterOpts{
			Name: "cart_sync_stale_responses_total",
			Help: "Write responses ignored because a newer edit of the same item exists",
		}),

		Reconciliations: factory.NewCounterVec(prometheus.CounterOpts{
			Name: "cart_sync_reconciliations_total",
			Help: "Cart fetches by mode (loud, silent) and outcome (merged, discarded, failed)",
		}, []string{"mode", "outcome"}),

		PendingItems: factory.NewGauge(prometheus.GaugeOpts{
			Name: "cart_sync_pending_items",
			Help: "Cart items with an unconfirmed local change",
		}),
	}
}

// ObserveRemoteCall фиксирует результат запроса к сервису корзины.
func (m *Metrics) ObserveRemoteCall(op string, err error) {
	if m == nil {
		return
	}

	result := "ok"
	if err != nil {
		result = "error"
	}
	m.RemoteCalls.WithLabelValues(op, result).Inc()
}

func (m *Metrics) IncRollback(op string) {
	if m != nil {
		m.Rollbacks.WithLabelValues(op).Inc()
	}
}

func (m *Metrics) IncCoalesced() {
	if m != nil {
		m.CoalescedEdits.Inc()
	}
}

func (m *Metrics) IncStale() {
	if m != nil {
		m.StaleResponses.Inc()
	}
}

func (m *Metrics) IncReconciliation(mode, outcome string) {
	if m != nil {
		m.Reconciliations.WithLabelValues(mode, outcome).Inc()
	}
}

func (m *Metrics) SetPending(n int) {
	if m != nil {
		m.PendingItems.Set(float64(n))
	}
}
