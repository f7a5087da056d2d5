package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
)

// OrderMetrics agrupa os contadores do ciclo de vida dos pedidos e do gerador de sequência.
// Um *OrderMetrics nil é válido e não registra nada.
type OrderMetrics struct {
	created           prometheus.Counter
	transitions       *prometheus.CounterVec
	sequenceConflicts prometheus.Counter
	sequenceExhausted prometheus.Counter
	orphanedNumbers   prometheus.Counter
}

// NewOrderMetrics registra as métricas no registerer informado.
func NewOrderMetrics(reg prometheus.Registerer) *OrderMetrics {
	if reg == nil {
		return nil
	}
	m := &OrderMetrics{
		created: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "orders_created_total",
			Help: "Pedidos criados (inclui duplicações).",
		}),
		transitions: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "order_status_transitions_total",
			Help: "Transições de status aplicadas.",
		}, []string{"from", "to"}),
		sequenceConflicts: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "order_sequence_conflicts_total",
			Help: "Tentativas de incremento do contador perdidas por concorrência.",
		}),
		sequenceExhausted: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "order_sequence_exhausted_total",
			Help: "Reservas de número abortadas após esgotar as tentativas.",
		}),
		orphanedNumbers: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "order_numbers_orphaned_total",
			Help: "Números reservados cujo pedido não foi gravado (lacuna para reconciliação).",
		}),
	}
	reg.MustRegister(m.created, m.transitions, m.sequenceConflicts, m.sequenceExhausted, m.orphanedNumbers)
	return m
}

func (m *OrderMetrics) IncCreated() {
	if m == nil {
		return
	}
	m.created.Inc()
}

func (m *OrderMetrics) IncTransition(from, to string) {
	if m == nil {
		return
	}
	m.transitions.WithLabelValues(from, to).Inc()
}

func (m *OrderMetrics) IncSequenceConflict() {
	if m == nil {
		return
	}
	m.sequenceConflicts.Inc()
}

func (m *OrderMetrics) IncSequenceExhausted() {
	if m == nil {
		return
	}
	m.sequenceExhausted.Inc()
}

func (m *OrderMetrics) IncOrphanedNumber() {
	if m == nil {
		return
	}
	m.orphanedNumbers.Inc()
}

// Created expõe o contador de pedidos criados.
func (m *OrderMetrics) Created() prometheus.Counter { return m.created }

// Transitions expõe o contador de transições por from/to.
func (m *OrderMetrics) Transitions() *prometheus.CounterVec { return m.transitions }

// SequenceConflicts expõe o contador de CAS perdidos.
func (m *OrderMetrics) SequenceConflicts() prometheus.Counter { return m.sequenceConflicts }

// OrphanedNumbers expõe o contador de números órfãos.
func (m *OrderMetrics) OrphanedNumbers() prometheus.Counter { return m.orphanedNumbers }
