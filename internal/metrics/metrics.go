package metrics

import (
	"strconv"

	"mines_webapp/internal/game"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Metrics - счетчики игровых сессий для Prometheus
type Metrics struct {
	SessionsStarted  *prometheus.CounterVec
	SessionsFinished *prometheus.CounterVec
	Reveals          *prometheus.CounterVec
	RejectedCalls    *prometheus.CounterVec
	FinalMultiplier  prometheus.Histogram
	ActiveSessions   prometheus.Gauge
}

// New регистрирует метрики в reg (nil - prometheus.DefaultRegisterer)
func New(reg prometheus.Registerer) *Metrics {
	if reg == nil {
		reg = prometheus.DefaultRegisterer
	}
	f := promauto.With(reg)

	return &Metrics{
		SessionsStarted: f.NewCounterVec(prometheus.CounterOpts{
			Namespace: "mines",
			Name:      "sessions_started_total",
			Help:      "Rounds started, by mine count.",
		}, []string{"mine_count"}),
		SessionsFinished: f.NewCounterVec(prometheus.CounterOpts{
			Namespace: "mines",
			Name:      "sessions_finished_total",
			Help:      "Rounds finished, by outcome (cashed_out, cleared, lost).",
		}, []string{"outcome"}),
		Reveals: f.NewCounterVec(prometheus.CounterOpts{
			Namespace: "mines",
			Name:      "reveals_total",
			Help:      "Cell reveals, by outcome.",
		}, []string{"outcome"}),
		RejectedCalls: f.NewCounterVec(prometheus.CounterOpts{
			Namespace: "mines",
			Name:      "rejected_calls_total",
			Help:      "Engine calls rejected with a caller error, by error code.",
		}, []string{"code"}),
		FinalMultiplier: f.NewHistogram(prometheus.HistogramOpts{
			Namespace: "mines",
			Name:      "final_multiplier",
			Help:      "Multiplier of won rounds.",
			Buckets:   []float64{1.25, 1.5, 2, 3, 5, 8, 13, 21},
		}),
		ActiveSessions: f.NewGauge(prometheus.GaugeOpts{
			Namespace: "mines",
			Name:      "active_sessions",
			Help:      "Sessions currently held in the registry.",
		}),
	}
}

func (m *Metrics) ObserveStart(mineCount int) {
	m.SessionsStarted.WithLabelValues(strconv.Itoa(mineCount)).Inc()
}

func (m *Metrics) ObserveReveal(res game.RevealResult) {
	m.Reveals.WithLabelValues(string(res.Outcome)).Inc()
	switch res.Outcome {
	case game.OutcomeMine:
		m.SessionsFinished.WithLabelValues("lost").Inc()
	case game.OutcomeGemAndWon:
		m.SessionsFinished.WithLabelValues("cleared").Inc()
		m.FinalMultiplier.Observe(res.Multiplier.InexactFloat64())
	}
}

func (m *Metrics) ObserveCashOut(v game.View) {
	m.SessionsFinished.WithLabelValues("cashed_out").Inc()
	m.FinalMultiplier.Observe(v.Multiplier.InexactFloat64())
}

// ObserveRejected учитывает отклоненный вызов по коду ошибки
func (m *Metrics) ObserveRejected(code string) {
	if code == "" {
		code = "other"
	}
	m.RejectedCalls.WithLabelValues(code).Inc()
}
