package observability

import (
	"context"
	"net/http"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/scrm/trolley/pkg/domain"
	"github.com/scrm/trolley/pkg/video"
)

// Metrics holds the simulator collectors on a private registry.
type Metrics struct {
	registry *prometheus.Registry

	transitions    *prometheus.CounterVec
	faults         *prometheus.CounterVec
	events         *prometheus.CounterVec
	playerCommands *prometheus.CounterVec
	tickDelta      prometheus.Histogram
	speed          prometheus.Gauge
	position       prometheus.Gauge
	runLevel       prometheus.Gauge
}

// NewMetrics creates and registers the collectors.
func NewMetrics() *Metrics {
	m := &Metrics{
		registry: prometheus.NewRegistry(),
		transitions: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "trolley_transitions_total",
				Help: "Operating state transitions",
			},
			[]string{"from", "to"},
		),
		faults: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "trolley_faults_total",
				Help: "Faults raised, by kind",
			},
			[]string{"kind"},
		),
		events: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "trolley_events_total",
				Help: "Events written to the event log, by kind",
			},
			[]string{"kind"},
		),
		playerCommands: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "trolley_player_commands_total",
				Help: "Commands sent to the video player",
			},
			[]string{"command", "result"},
		),
		tickDelta: prometheus.NewHistogram(prometheus.HistogramOpts{
			Name:    "trolley_tick_delta_seconds",
			Help:    "Wall time integrated per tick",
			Buckets: []float64{0.05, 0.1, 0.15, 0.25, 0.5, 1},
		}),
		speed: prometheus.NewGauge(prometheus.GaugeOpts{
			Name: "trolley_speed",
			Help: "Simulated speed as a playback rate multiplier",
		}),
		position: prometheus.NewGauge(prometheus.GaugeOpts{
			Name: "trolley_position",
			Help: "Normalized position along the route",
		}),
		runLevel: prometheus.NewGauge(prometheus.GaugeOpts{
			Name: "trolley_run_level",
			Help: "Accepted run level",
		}),
	}
	m.registry.MustRegister(
		m.transitions, m.faults, m.events, m.playerCommands,
		m.tickDelta, m.speed, m.position, m.runLevel,
	)
	return m
}

// Registry exposes the private registry.
func (m *Metrics) Registry() *prometheus.Registry {
	return m.registry
}

// Handler serves the metrics in the Prometheus exposition format.
func (m *Metrics) Handler() http.Handler {
	return promhttp.HandlerFor(m.registry, promhttp.HandlerOpts{})
}

// Hooks returns lifecycle hooks that feed the collectors.
func (m *Metrics) Hooks() domain.LifecycleHooks {
	return domain.LifecycleHooks{
		OnTransition: func(_ context.Context, e *domain.TransitionEvent) {
			m.transitions.WithLabelValues(string(e.From), string(e.To)).Inc()
		},
		OnFault: func(_ context.Context, f *domain.Fault) {
			m.faults.WithLabelValues(string(f.Kind)).Inc()
		},
		OnEvent: func(_ context.Context, e *domain.Event) {
			m.events.WithLabelValues(string(e.Kind)).Inc()
		},
		OnTick: func(_ context.Context, e *domain.TickEvent) {
			m.tickDelta.Observe(e.Delta.Seconds())
			m.speed.Set(e.Status.Speed)
			m.position.Set(e.Status.Position)
			m.runLevel.Set(float64(e.Status.RunLevel))
		},
	}
}

// ObservePlayerCommand counts a player command. It matches the signature of
// video.WithCommandObserver.
func (m *Metrics) ObservePlayerCommand(cmd video.Command, err error) {
	result := "ok"
	if err != nil {
		result = "error"
	}
	m.playerCommands.WithLabelValues(string(cmd.Kind), result).Inc()
}
