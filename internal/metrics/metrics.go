// Package metrics exposes Prometheus instruments for bot runs.
//
//   - daybot_runs_total{result}                 runs by result (success|failure)
//   - daybot_signals_total{strategy,decision}   signals by decision (trade|skip|error)
//   - daybot_orders_total{mode,class,result}    orders by mode (dry_run|live) and result
//   - daybot_run_duration_seconds               wall time of a run
//   - daybot_buying_power_usd                   buying power seen by the last run
package metrics

import (
	"strings"
	"time"

	"github.com/prometheus/client_golang/prometheus"

	"equityDayBot/internal/domain"
)

// Metrics holds the collectors updated by the trading service.
type Metrics struct {
	runs        *prometheus.CounterVec
	signals     *prometheus.CounterVec
	orders      *prometheus.CounterVec
	runDuration prometheus.Histogram
	buyingPower prometheus.Gauge
}

// New creates the collectors and registers them with reg.
func New(reg prometheus.Registerer) (*Metrics, error) {
	m := &Metrics{
		runs: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "daybot_runs_total",
				Help: "Bot runs by result",
			},
			[]string{"result"},
		),
		signals: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "daybot_signals_total",
				Help: "Signals produced, by strategy and decision",
			},
			[]string{"strategy", "decision"},
		),
		orders: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "daybot_orders_total",
				Help: "Orders handled, by mode, class and result",
			},
			[]string{"mode", "class", "result"},
		),
		runDuration: prometheus.NewHistogram(
			prometheus.HistogramOpts{
				Name:    "daybot_run_duration_seconds",
				Help:    "Wall time of a bot run",
				Buckets: []float64{0.5, 1, 2.5, 5, 10, 20, 30, 60, 120},
			},
		),
		buyingPower: prometheus.NewGauge(
			prometheus.GaugeOpts{
				Name: "daybot_buying_power_usd",
				Help: "Buying power reported by the broker at the start of the last run",
			},
		),
	}

	for _, c := range []prometheus.Collector{m.runs, m.signals, m.orders, m.runDuration, m.buyingPower} {
		if err := reg.Register(c); err != nil {
			return nil, err
		}
	}
	return m, nil
}

// ObserveRun records a finished run.
func (m *Metrics) ObserveRun(result domain.RunResult, elapsed time.Duration) {
	if m == nil {
		return
	}
	label := "success"
	if result.Failed() {
		label = "failure"
	}
	m.runs.WithLabelValues(label).Inc()
	m.runDuration.Observe(elapsed.Seconds())

	for _, sig := range result.Signals {
		m.signals.WithLabelValues(result.Strategy, decision(sig)).Inc()
	}
	for _, o := range result.Orders {
		mode := "live"
		if o.DryRun {
			mode = "dry_run"
		}
		outcome := "submitted"
		switch {
		case o.Failed():
			outcome = "failed"
		case o.DryRun:
			outcome = "simulated"
		}
		m.orders.WithLabelValues(mode, strings.ToLower(string(o.Class)), outcome).Inc()
	}
}

// SetBuyingPower records the buying power seen by the current run.
func (m *Metrics) SetBuyingPower(v float64) {
	if m == nil {
		return
	}
	m.buyingPower.Set(v)
}

func decision(sig domain.TradeSignal) string {
	switch {
	case sig.ShouldTrade:
		return "trade"
	case strings.HasPrefix(sig.Reason, "Error: "):
		return "error"
	default:
		return "skip"
	}
}
