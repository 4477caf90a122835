package identity

import "github.com/prometheus/client_golang/prometheus"

func init() {
	prometheus.MustRegister(resolutionsMetric, sweptMetric)
}

var (
	resolutionsMetric = prometheus.NewCounterVec(prometheus.CounterOpts{
		Namespace: "stitch",
		Subsystem: "identity",
		Name:      "resolutions_total",
		Help:      "Total identifier resolutions by outcome",
	}, []string{"outcome"})

	sweptMetric = prometheus.NewCounter(prometheus.CounterOpts{
		Namespace: "stitch",
		Subsystem: "identity",
		Name:      "swept_mappings_total",
		Help:      "Total expired mappings removed by sweeps",
	})
)
