package metrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	clusterQueryDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Namespace: "cardsheet",
			Name:      "cluster_query_duration_seconds",
			Help:      "Clustering query duration in seconds.",
			Buckets:   []float64{.00001, .0001, .0005, .001, .005, .01, .05, .1, .5},
		},
		[]string{"op"},
	)
	clustersFound = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "cardsheet",
			Name:      "clusters_found_total",
			Help:      "Total number of clusters produced by layer partitions, by operation.",
		},
		[]string{"op"},
	)
	invalidLayers = promauto.NewCounter(
		prometheus.CounterOpts{
			Namespace: "cardsheet",
			Name:      "cluster_invalid_layers_total",
			Help:      "Clustering queries rejected because two cards shared a position.",
		},
	)
	cardsTotal = promauto.NewGaugeVec(
		prometheus.GaugeOpts{
			Namespace: "cardsheet",
			Name:      "cards",
			Help:      "Number of cards currently placed, by dataset.",
		},
		[]string{"dataset"},
	)
)

// ObserveClusterQuery records the duration of one clustering operation.
func ObserveClusterQuery(op string, d time.Duration) {
	clusterQueryDuration.WithLabelValues(op).Observe(d.Seconds())
}

// AddClusters counts clusters produced by one clustering operation. op is
// one of the fixed operation names, never a caller-supplied ID.
func AddClusters(op string, n int) {
	clustersFound.WithLabelValues(op).Add(float64(n))
}

// InvalidLayer counts a query that failed its position precondition.
func InvalidLayer() {
	invalidLayers.Inc()
}

// CardPlaced and CardRemoved track the live card count per dataset.
func CardPlaced(datasetID string) { cardsTotal.WithLabelValues(datasetID).Inc() }
func CardRemoved(datasetID string) { cardsTotal.WithLabelValues(datasetID).Dec() }
