// Package metrics exposes Prometheus counters for the exchange lifecycle,
// fed by the event bus rather than instrumented call sites.
package metrics

import (
	"context"

	"github.com/prometheus/client_golang/prometheus"

	"github.com/amirasaad/kapital/pkg/domain"
	"github.com/amirasaad/kapital/pkg/eventbus"
	"github.com/amirasaad/kapital/pkg/exchange"
)

// Collector holds the wallet's exchange lifecycle metrics.
type Collector struct {
	quotesReceived     *prometheus.CounterVec
	exchangesCompleted *prometheus.CounterVec
	exchangesFailed    *prometheus.CounterVec
}

// NewCollector builds and registers the collectors on the given registerer.
func NewCollector(reg prometheus.Registerer) *Collector {
	c := &Collector{
		quotesReceived: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "kapital",
			Subsystem: "exchange",
			Name:      "quotes_received_total",
			Help:      "Quotes received from providers.",
		}, []string{"provider"}),
		exchangesCompleted: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "kapital",
			Subsystem: "exchange",
			Name:      "completed_total",
			Help:      "Exchanges closed successfully.",
		}, []string{"provider"}),
		exchangesFailed: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "kapital",
			Subsystem: "exchange",
			Name:      "failed_total",
			Help:      "Exchanges that ended without success: provider failure close, close before quote, or polling timeout.",
		}, []string{"provider"}),
	}
	reg.MustRegister(c.quotesReceived, c.exchangesCompleted, c.exchangesFailed)
	return c
}

// Observe subscribes the collector to the exchange lifecycle events.
func (c *Collector) Observe(bus eventbus.Bus) {
	bus.Subscribe("ExchangeQuotedEvent", func(ctx context.Context, event domain.Event) {
		if e, ok := event.(exchange.QuoteReceivedEvent); ok {
			c.quotesReceived.WithLabelValues(e.ProviderURI).Inc()
		}
	})
	bus.Subscribe("ExchangeCompletedEvent", func(ctx context.Context, event domain.Event) {
		if e, ok := event.(exchange.CompletedEvent); ok {
			c.exchangesCompleted.WithLabelValues(e.ProviderURI).Inc()
		}
	})
	bus.Subscribe("ExchangeFailedEvent", func(ctx context.Context, event domain.Event) {
		if e, ok := event.(exchange.FailedEvent); ok {
			c.exchangesFailed.WithLabelValues(e.ProviderURI).Inc()
		}
	})
}
