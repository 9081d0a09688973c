// Package metrics exposes workflow and notification counters to Prometheus.
package metrics

import (
	"context"
	"net/http"
	"strconv"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/garyjia/travel-approval/internal/application/dispatcher"
	"github.com/garyjia/travel-approval/internal/application/port"
	"github.com/garyjia/travel-approval/internal/domain/event"
)

const namespace = "travel_approval"

// Metrics owns a private registry so tests and multiple servers never collide
type Metrics struct {
	registry      *prometheus.Registry
	requests      prometheus.Counter
	transitions   *prometheus.CounterVec
	optionsPurged *prometheus.CounterVec
	auditFailures *prometheus.CounterVec
	notifications *prometheus.CounterVec
	httpRequests  *prometheus.CounterVec
}

// New creates and registers the collectors
func New() *Metrics {
	m := &Metrics{
		registry: prometheus.NewRegistry(),
		requests: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "requests_created_total",
			Help:      "Travel requests created.",
		}),
		transitions: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "transitions_total",
			Help:      "Audited workflow actions broken down by action and resulting status.",
		}, []string{"action", "status"}),
		optionsPurged: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "ticket_option_deletions_total",
			Help:      "Ticket option deletions broken down by action.",
		}, []string{"action"}),
		auditFailures: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "audit_write_failures_total",
			Help:      "Actions that committed without their audit entry.",
		}, []string{"action"}),
		notifications: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "email",
			Name:      "notifications_total",
			Help:      "Notification emails broken down by triggering status and outcome.",
		}, []string{"status", "outcome"}),
		httpRequests: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "http",
			Name:      "requests_total",
			Help:      "HTTP requests broken down by route and status code.",
		}, []string{"method", "route", "code"}),
	}

	m.registry.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
		m.requests,
		m.transitions,
		m.optionsPurged,
		m.auditFailures,
		m.notifications,
		m.httpRequests,
	)
	return m
}

// Subscribe registers the counting handlers on d
func (m *Metrics) Subscribe(d dispatcher.Dispatcher) {
	d.SubscribeNamed(event.TypeRequestCreated, "metrics", m.onRequestCreated)
	d.SubscribeNamed(event.TypeTransitionRecorded, "metrics", m.onTransition)
	d.SubscribeNamed(event.TypeOptionsRemoved, "metrics", m.onOptionsRemoved)
	d.SubscribeNamed(event.TypeAuditWriteFailed, "metrics", m.onAuditFailure)
}

func (m *Metrics) onRequestCreated(context.Context, *event.Event) error {
	m.requests.Inc()
	return nil
}

func (m *Metrics) onTransition(_ context.Context, evt *event.Event) error {
	status := strconv.FormatInt(evt.GetPayloadInt(event.KeyNewStatus), 10)
	m.transitions.WithLabelValues(actionLabel(evt), status).Inc()
	return nil
}

func (m *Metrics) onOptionsRemoved(_ context.Context, evt *event.Event) error {
	m.optionsPurged.WithLabelValues(actionLabel(evt)).Inc()
	return nil
}

func (m *Metrics) onAuditFailure(_ context.Context, evt *event.Event) error {
	m.auditFailures.WithLabelValues(actionLabel(evt)).Inc()
	return nil
}

// NotificationSent implements port.NotificationRecorder
func (m *Metrics) NotificationSent(statusID int, outcome string) {
	m.notifications.WithLabelValues(strconv.Itoa(statusID), outcome).Inc()
}

// ObserveHTTP counts one served request
func (m *Metrics) ObserveHTTP(method, route string, code int) {
	if route == "" {
		route = "unmatched"
	}
	m.httpRequests.WithLabelValues(method, route, strconv.Itoa(code)).Inc()
}

// Handler serves the registry in the Prometheus text format
func (m *Metrics) Handler() http.Handler {
	return promhttp.HandlerFor(m.registry, promhttp.HandlerOpts{})
}

// Registry exposes the underlying registry for tests and extra collectors
func (m *Metrics) Registry() *prometheus.Registry {
	return m.registry
}

func actionLabel(evt *event.Event) string {
	if action := evt.GetPayloadString(event.KeyAction); action != "" {
		return action
	}
	return "unknown"
}

var _ port.NotificationRecorder = (*Metrics)(nil)
