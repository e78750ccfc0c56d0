package sim

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Entity outcomes.
const (
	outcomeAlive     = "alive"
	outcomeDead      = "dead"
	outcomeCancelled = "cancelled"
	outcomeError     = "error"
)

var entitiesTotal = promauto.NewCounterVec(prometheus.CounterOpts{
	Name: "gamecore_sim_entities_total",
	Help: "Total number of simulated entities by outcome (alive, dead, cancelled, error)",
}, []string{"outcome"})
