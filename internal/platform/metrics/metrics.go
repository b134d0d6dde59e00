package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// ProviderFetches counts provider fetch attempts by source and outcome.
var ProviderFetches = promauto.NewCounterVec(prometheus.CounterOpts{
	Namespace: "valutatrade",
	Subsystem: "aggregator",
	Name:      "provider_fetches_total",
	Help:      "Rate provider fetch attempts, labelled by source and outcome.",
}, []string{"source", "outcome"})

// RefreshCycles counts aggregation passes by result (updated / empty).
var RefreshCycles = promauto.NewCounterVec(prometheus.CounterOpts{
	Namespace: "valutatrade",
	Subsystem: "aggregator",
	Name:      "refresh_cycles_total",
	Help:      "Aggregation passes, labelled by whether the snapshot was updated.",
}, []string{"result"})

// RatesInSnapshot tracks how many pairs the last snapshot overwrite carried.
var RatesInSnapshot = promauto.NewGauge(prometheus.GaugeOpts{
	Namespace: "valutatrade",
	Subsystem: "aggregator",
	Name:      "snapshot_pairs",
	Help:      "Number of currency pairs written in the most recent snapshot.",
})

// Trades counts trade executions by side and outcome.
var Trades = promauto.NewCounterVec(prometheus.CounterOpts{
	Namespace: "valutatrade",
	Subsystem: "trades",
	Name:      "executions_total",
	Help:      "Trade executions, labelled by side and outcome.",
}, []string{"side", "outcome"})
