// Package metrics exposes the prometheus collectors the driver and
// orderbook binaries register, grounded on the teacher's GetMetrics
// snapshot shape but reworked as live prometheus collectors instead of
// a polled struct.
package metrics

import "github.com/prometheus/client_golang/prometheus"

var (
	DroppedOrders = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "cowbatch",
			Subsystem: "cache",
			Name:      "dropped_orders_total",
			Help:      "Orders removed from the solvable-orders cache during a rebuild, by reason.",
		},
		[]string{"reason"},
	)

	CacheBlock = prometheus.NewGauge(
		prometheus.GaugeOpts{
			Namespace: "cowbatch",
			Subsystem: "cache",
			Name:      "block",
			Help:      "Block number the current solvable-orders snapshot was built against.",
		},
	)

	SettlementsSubmitted = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "cowbatch",
			Subsystem: "submitter",
			Name:      "transactions_total",
			Help:      "Settlement transactions submitted, by outcome.",
		},
		[]string{"outcome"},
	)

	GasPriceEscalations = prometheus.NewCounter(
		prometheus.CounterOpts{
			Namespace: "cowbatch",
			Subsystem: "submitter",
			Name:      "gas_escalations_total",
			Help:      "Number of times a pending settlement transaction was replaced with a higher gas price.",
		},
	)
)

func init() {
	prometheus.MustRegister(DroppedOrders, CacheBlock, SettlementsSubmitted, GasPriceEscalations)
}
