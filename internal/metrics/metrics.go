package metrics

import (
	"sync"

	"github.com/prometheus/client_golang/prometheus"
)

var (
	EventsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "shopnotify_events_total",
			Help: "Handled shop events by topic and outcome",
		},
		[]string{"topic", "outcome"},
	)

	MessagesTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "shopnotify_messages_total",
			Help: "WhatsApp send attempts by template kind and result",
		},
		[]string{"kind", "result"}, // order_confirmation|fulfillment , sent|failed
	)

	registerOnce sync.Once
)

// MustRegister registers the collectors once; serve and worker may both call it.
func MustRegister(r prometheus.Registerer) {
	registerOnce.Do(func() {
		r.MustRegister(
			EventsTotal,
			MessagesTotal,
		)
	})
}
