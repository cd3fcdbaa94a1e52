package engine

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	instancesStarted = promauto.NewCounter(prometheus.CounterOpts{
		Name: "flowline_instances_started_total",
		Help: "Total number of workflow instances started",
	})

	instancesFinished = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "flowline_instances_finished_total",
		Help: "Total number of workflow instances reaching a terminal status",
	}, []string{"status"})

	stepsExecuted = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "flowline_steps_executed_total",
		Help: "Total number of step executions by type and outcome",
	}, []string{"step_type", "outcome"})

	stepDuration = promauto.NewHistogramVec(prometheus.HistogramOpts{
		Name:    "flowline_step_duration_seconds",
		Help:    "Step handler execution duration in seconds",
		Buckets: prometheus.DefBuckets,
	}, []string{"step_type"})
)
