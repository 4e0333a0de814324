package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

func NewCounter() *prometheus.CounterVec {
	return promauto.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "filedrive",
			Name:      "general_counters",
		},
		[]string{"result"})
}

// NewStoredBytes tracks bytes accepted and released by the blob store.
func NewStoredBytes() *prometheus.CounterVec {
	return promauto.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "filedrive",
			Name:      "stored_bytes_total",
		},
		[]string{"op"})
}
