// Package metrics — счётчики Prometheus для воронки и платежей.
// Методы безопасно вызываются на nil *Metrics.
package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
)

// Metrics набор счётчиков сервиса.
type Metrics struct {
	events           *prometheus.CounterVec
	duplicates       prometheus.Counter
	commands         *prometheus.CounterVec
	stageTransitions *prometheus.CounterVec
	quotaDenied      *prometheus.CounterVec
	initiations      *prometheus.CounterVec
	callbacks        *prometheus.CounterVec
	assistantCalls   *prometheus.CounterVec
	conflicts        prometheus.Counter
}

// New регистрирует счётчики в reg.
func New(reg prometheus.Registerer) *Metrics {
	m := &Metrics{
		events: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "bot_inbound_events_total",
			Help: "Inbound webhook events by kind.",
		}, []string{"kind"}),
		duplicates: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "bot_inbound_duplicates_total",
			Help: "Redelivered webhook events dropped by message id.",
		}),
		commands: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "bot_commands_total",
			Help: "Recognized commands.",
		}, []string{"command"}),
		stageTransitions: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "bot_stage_transitions_total",
			Help: "User stage transitions.",
		}, []string{"from", "to"}),
		quotaDenied: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "bot_quota_denied_total",
			Help: "Messages rejected by the daily quota.",
		}, []string{"tier"}),
		initiations: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "bot_payment_initiations_total",
			Help: "Payment initiations by plan and result.",
		}, []string{"plan", "result"}),
		callbacks: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "bot_payment_callbacks_total",
			Help: "Settled payment outcomes by status and resolution.",
		}, []string{"status", "result"}),
		assistantCalls: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "bot_assistant_calls_total",
			Help: "Assistant completions by result.",
		}, []string{"result"}),
		conflicts: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "bot_user_write_conflicts_total",
			Help: "User writes rejected because of a stale version.",
		}),
	}
	reg.MustRegister(
		m.events, m.duplicates, m.commands, m.stageTransitions, m.quotaDenied,
		m.initiations, m.callbacks, m.assistantCalls, m.conflicts,
	)
	return m
}

// Event учитывает входящее событие.
func (m *Metrics) Event(kind string) {
	if m == nil {
		return
	}
	m.events.WithLabelValues(kind).Inc()
}

// Duplicate учитывает отброшенную повторную доставку.
func (m *Metrics) Duplicate() {
	if m == nil {
		return
	}
	m.duplicates.Inc()
}

// Command учитывает распознанную команду.
func (m *Metrics) Command(name string) {
	if m == nil {
		return
	}
	m.commands.WithLabelValues(name).Inc()
}

// StageTransition учитывает смену стадии.
func (m *Metrics) StageTransition(from, to string) {
	if m == nil || from == to {
		return
	}
	m.stageTransitions.WithLabelValues(from, to).Inc()
}

// QuotaDenied учитывает отказ по квоте.
func (m *Metrics) QuotaDenied(tier string) {
	if m == nil {
		return
	}
	m.quotaDenied.WithLabelValues(tier).Inc()
}

// Initiation учитывает попытку оплаты.
func (m *Metrics) Initiation(plan, result string) {
	if m == nil {
		return
	}
	m.initiations.WithLabelValues(plan, result).Inc()
}

// Callback учитывает обработанный исход платежа.
func (m *Metrics) Callback(status, result string) {
	if m == nil {
		return
	}
	m.callbacks.WithLabelValues(status, result).Inc()
}

// AssistantCall учитывает вызов модели.
func (m *Metrics) AssistantCall(result string) {
	if m == nil {
		return
	}
	m.assistantCalls.WithLabelValues(result).Inc()
}

// Conflict учитывает отклонённую устаревшую запись.
func (m *Metrics) Conflict() {
	if m == nil {
		return
	}
	m.conflicts.Inc()
}
