package engine

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/wfunc/jewel-duel/internal/game"
)

const namespace = "jewel_duel"

// Metrics 对局驱动指标
type Metrics struct {
	Ticks          prometheus.Counter
	TicksRejected  prometheus.Counter
	TicksDropped   prometheus.Counter
	LayoutAttempts prometheus.Histogram
	Matches        *prometheus.CounterVec
	State          *prometheus.GaugeVec

	registry *prometheus.Registry
}

// NewMetrics 创建指标并注册到独立的registry
func NewMetrics() *Metrics {
	m := &Metrics{
		Ticks: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "ticks_total",
			Help:      "Simulation ticks applied to the game.",
		}),
		TicksRejected: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "ticks_rejected_total",
			Help:      "Ticks rejected because of an invalid delta.",
		}),
		TicksDropped: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "ticks_dropped_total",
			Help:      "Fixed steps skipped after exceeding the per-frame catch-up limit.",
		}),
		LayoutAttempts: prometheus.NewHistogram(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "layout_attempts",
			Help:      "Resampling attempts needed to generate a starting layout.",
			Buckets:   []float64{1, 2, 5, 10, 20, 50, 100, 250, 500, 1000},
		}),
		Matches: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "matches_total",
			Help:      "Finished matches by result.",
		}, []string{"result"}),
		State: prometheus.NewGaugeVec(prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "game_state",
			Help:      "Current game state, 1 for the active state.",
		}, []string{"state"}),
		registry: prometheus.NewRegistry(),
	}

	m.registry.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
		m.Ticks,
		m.TicksRejected,
		m.TicksDropped,
		m.LayoutAttempts,
		m.Matches,
		m.State,
	)
	m.SetState(game.StateIdle)
	return m
}

// Registry 指标registry，供/metrics导出
func (m *Metrics) Registry() *prometheus.Registry {
	return m.registry
}

// SetState 将当前状态置1，其余置0
func (m *Metrics) SetState(current game.GameState) {
	for _, s := range game.AllStates() {
		v := 0.0
		if s == current {
			v = 1
		}
		m.State.WithLabelValues(string(s)).Set(v)
	}
}
