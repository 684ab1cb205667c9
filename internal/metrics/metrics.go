package metrics

import (
	"net/http"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Registry holds the service's collectors. A private registry keeps tests
// independent of the global default.
type Registry struct {
	reg *prometheus.Registry

	MenuSnapshotsServed *prometheus.CounterVec
	WebhookEvents       *prometheus.CounterVec
	SubscriptionChecks  *prometheus.CounterVec
}

func New() *Registry {
	reg := prometheus.NewRegistry()
	r := &Registry{
		reg: reg,
		MenuSnapshotsServed: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "menu_snapshots_served_total",
			Help: "Menu snapshots served, by source (network or cache).",
		}, []string{"source"}),
		WebhookEvents: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "billing_webhook_events_total",
			Help: "Billing webhook deliveries, by event type and outcome.",
		}, []string{"type", "outcome"}),
		SubscriptionChecks: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "subscription_checks_total",
			Help: "Live subscription checks against the billing provider, by outcome.",
		}, []string{"outcome"}),
	}
	reg.MustRegister(
		prometheus.NewGoCollector(),
		prometheus.NewProcessCollector(prometheus.ProcessCollectorOpts{}),
		r.MenuSnapshotsServed,
		r.WebhookEvents,
		r.SubscriptionChecks,
	)
	return r
}

func (r *Registry) Handler() http.Handler {
	return promhttp.HandlerFor(r.reg, promhttp.HandlerOpts{})
}

// The helpers below accept a nil registry so callers built without metrics
// need no guards.

func (r *Registry) MenuServed(source string) {
	if r == nil {
		return
	}
	r.MenuSnapshotsServed.WithLabelValues(source).Inc()
}

func (r *Registry) Webhook(eventType, outcome string) {
	if r == nil {
		return
	}
	r.WebhookEvents.WithLabelValues(eventType, outcome).Inc()
}

func (r *Registry) SubscriptionCheck(outcome string) {
	if r == nil {
		return
	}
	r.SubscriptionChecks.WithLabelValues(outcome).Inc()
}
