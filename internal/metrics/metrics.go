package metrics

import (
	"net/http"

	"github.com/EchoPBX/activity-gateway/internal/activity"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

const namespace = "activity"

// Metrics mirrors the aggregator into Prometheus. Each instance owns its
// registry so tests can build as many as they like.
type Metrics struct {
	reg    *prometheus.Registry
	events *prometheus.CounterVec
	resets prometheus.Counter
}

// New registers the collectors. logLen feeds the log size gauge; it may be nil.
func New(logLen func() int) *Metrics {
	m := &Metrics{
		reg: prometheus.NewRegistry(),
		events: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Name:      "events_total",
				Help:      "Count of user action events published, by kind.",
			},
			[]string{"kind"},
		),
		resets: prometheus.NewCounter(
			prometheus.CounterOpts{
				Namespace: namespace,
				Name:      "resets_total",
				Help:      "Count of clear operations.",
			},
		),
	}
	m.reg.MustRegister(m.events, m.resets)
	if logLen != nil {
		m.reg.MustRegister(prometheus.NewGaugeFunc(
			prometheus.GaugeOpts{
				Namespace: namespace,
				Name:      "log_records",
				Help:      "Number of records currently held in the event log.",
			},
			func() float64 { return float64(logLen()) },
		))
	}
	for _, k := range activity.Kinds() {
		m.events.WithLabelValues(k.String())
	}
	return m
}

// Attach subscribes a counting handler for every kind.
func (m *Metrics) Attach(bus *activity.Bus) {
	for _, k := range activity.Kinds() {
		c := m.events.WithLabelValues(k.String())
		bus.Subscribe(k, func(activity.Payload) error {
			c.Inc()
			return nil
		})
	}
}

func (m *Metrics) IncReset() { m.resets.Inc() }

func (m *Metrics) Handler() http.Handler {
	return promhttp.HandlerFor(m.reg, promhttp.HandlerOpts{Registry: m.reg})
}
