package scheduler

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Task outcomes.
const (
	outcomeScheduled = "scheduled"
	outcomeFired     = "fired"
	outcomeCancelled = "cancelled"
	outcomeStale     = "stale"
)

// tasksTotal counts scheduled tasks by what happened to them.
var tasksTotal = promauto.NewCounterVec(prometheus.CounterOpts{
	Name: "gamecore_scheduler_tasks_total",
	Help: "Total number of scheduler tasks by outcome (scheduled, fired, cancelled, stale)",
}, []string{"outcome"})
