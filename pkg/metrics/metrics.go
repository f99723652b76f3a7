package metrics

import (
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Registry holds all Prometheus metrics of the rebalancing strategy
// ⭐ SSOT: 메트릭 이름/라벨은 여기서만 정의
type Registry struct {
	reg *prometheus.Registry

	// Cycle metrics
	Cycles        *prometheus.CounterVec   // result: rebalanced | skipped | aborted | dry_run
	CycleAborts   *prometheus.CounterVec   // stage, reason
	StageDuration *prometheus.HistogramVec // stage

	// Screening metrics
	ScreenPassed   *prometheus.GaugeVec   // screen
	ScreenExcluded *prometheus.CounterVec // screen, reason
	Candidates     prometheus.Gauge

	// Portfolio metrics
	Targets      prometheus.Gauge
	Liquidations prometheus.Gauge
	Month        prometheus.Gauge
}

// New creates a registry with all strategy metrics registered
// 프로세스 전역 레지스트리를 사용하지 않음 (테스트 격리)
func New() *Registry {
	r := &Registry{
		reg: prometheus.NewRegistry(),

		Cycles: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "aegis_value_cycles_total",
				Help: "Total number of strategy ticks by result",
			},
			[]string{"result"},
		),

		CycleAborts: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "aegis_value_cycle_aborts_total",
				Help: "Total number of aborted cycles by stage and reason",
			},
			[]string{"stage", "reason"},
		),

		StageDuration: prometheus.NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    "aegis_value_stage_duration_seconds",
				Help:    "Duration of each pipeline stage in seconds",
				Buckets: []float64{0.01, 0.05, 0.1, 0.25, 0.5, 1, 2.5, 5, 10, 30, 60},
			},
			[]string{"stage"},
		),

		ScreenPassed: prometheus.NewGaugeVec(
			prometheus.GaugeOpts{
				Name: "aegis_value_screen_passed",
				Help: "Number of stocks passing each screen in the last cycle",
			},
			[]string{"screen"},
		),

		ScreenExcluded: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "aegis_value_screen_excluded_total",
				Help: "Stocks excluded by undefined ratios or missing data",
			},
			[]string{"screen", "reason"},
		),

		Candidates: prometheus.NewGauge(prometheus.GaugeOpts{
			Name: "aegis_value_candidates",
			Help: "Number of candidates after composition in the last cycle",
		}),

		Targets: prometheus.NewGauge(prometheus.GaugeOpts{
			Name: "aegis_value_targets",
			Help: "Number of target positions in the last plan",
		}),

		Liquidations: prometheus.NewGauge(prometheus.GaugeOpts{
			Name: "aegis_value_liquidations",
			Help: "Number of liquidations in the last plan",
		}),

		Month: prometheus.NewGauge(prometheus.GaugeOpts{
			Name: "aegis_value_month_counter",
			Help: "Current cadence counter",
		}),
	}

	r.reg.MustRegister(
		r.Cycles, r.CycleAborts, r.StageDuration,
		r.ScreenPassed, r.ScreenExcluded, r.Candidates,
		r.Targets, r.Liquidations, r.Month,
	)
	return r
}

// ObserveStage records a stage duration since start
func (r *Registry) ObserveStage(stage string, start time.Time) {
	if r == nil {
		return
	}
	r.StageDuration.WithLabelValues(stage).Observe(time.Since(start).Seconds())
}

// RecordCycle counts one tick result
func (r *Registry) RecordCycle(result string) {
	if r == nil {
		return
	}
	r.Cycles.WithLabelValues(result).Inc()
}

// RecordAbort counts an aborted cycle
func (r *Registry) RecordAbort(stage, reason string) {
	if r == nil {
		return
	}
	r.Cycles.WithLabelValues("aborted").Inc()
	r.CycleAborts.WithLabelValues(stage, reason).Inc()
}

// RecordScreen sets pass count and adds exclusion counts
func (r *Registry) RecordScreen(screen string, passed int, excluded map[string]int) {
	if r == nil {
		return
	}
	r.ScreenPassed.WithLabelValues(screen).Set(float64(passed))
	for reason, n := range excluded {
		r.ScreenExcluded.WithLabelValues(screen, reason).Add(float64(n))
	}
}

// SetMonth sets the cadence counter gauge
func (r *Registry) SetMonth(month int) {
	if r == nil {
		return
	}
	r.Month.Set(float64(month))
}

// SetCandidates sets the composed candidate count
func (r *Registry) SetCandidates(n int) {
	if r == nil {
		return
	}
	r.Candidates.Set(float64(n))
}

// SetPlan sets the target and liquidation counts of the last plan
func (r *Registry) SetPlan(targets, liquidations int) {
	if r == nil {
		return
	}
	r.Targets.Set(float64(targets))
	r.Liquidations.Set(float64(liquidations))
}

// Gatherer exposes the underlying registry
func (r *Registry) Gatherer() prometheus.Gatherer {
	return r.reg
}

// Handler serves /metrics for this registry
func (r *Registry) Handler() http.Handler {
	return promhttp.HandlerFor(r.reg, promhttp.HandlerOpts{})
}
