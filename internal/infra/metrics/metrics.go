// Package metrics holds the Prometheus collectors for planning runs.
package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

const namespace = "card_float"

// PlanRuns counts planning runs by outcome (safe, unsafe, config_error, failed).
var PlanRuns = promauto.NewCounterVec(prometheus.CounterOpts{
	Namespace: namespace,
	Subsystem: "planner",
	Name:      "runs_total",
	Help:      "Total planning runs by outcome.",
}, []string{"outcome"})

// PlanDuration tracks wall time of a run.
var PlanDuration = promauto.NewHistogram(prometheus.HistogramOpts{
	Namespace: namespace,
	Subsystem: "planner",
	Name:      "run_duration_seconds",
	Help:      "Wall time of a planning run.",
	Buckets:   []float64{.001, .005, .01, .05, .1, .5, 1},
})

// Allocations counts committed allocations by pass.
var Allocations = promauto.NewCounterVec(prometheus.CounterOpts{
	Namespace: namespace,
	Subsystem: "allocation",
	Name:      "committed_total",
	Help:      "Total allocations committed, by allocation pass.",
}, []string{"pass"})

// AllocatedAmount counts the placed amount per card, in the smallest currency unit.
var AllocatedAmount = promauto.NewCounterVec(prometheus.CounterOpts{
	Namespace: namespace,
	Subsystem: "allocation",
	Name:      "amount_total",
	Help:      "Total amount placed on each card.",
}, []string{"card_id"})

// CapacityFailures counts payments that could not be fully placed.
var CapacityFailures = promauto.NewCounter(prometheus.CounterOpts{
	Namespace: namespace,
	Subsystem: "allocation",
	Name:      "capacity_failures_total",
	Help:      "Total payments (or remainders) that no eligible card could take.",
})

// TimelineViolations counts overdraw violations found by the simulator.
var TimelineViolations = promauto.NewCounterVec(prometheus.CounterOpts{
	Namespace: namespace,
	Subsystem: "timeline",
	Name:      "violations_total",
	Help:      "Total negative-balance violations found on replay.",
}, []string{"card_id"})

// CardBalanceAfterPlan is each card's committed balance after the last run.
var CardBalanceAfterPlan = promauto.NewGaugeVec(prometheus.GaugeOpts{
	Namespace: namespace,
	Subsystem: "card",
	Name:      "balance_after_plan",
	Help:      "Available balance left on each card after the latest plan.",
}, []string{"card_id"})
