package bytesrc

import "github.com/prometheus/client_golang/prometheus"

var (
	chunkCacheHits = prometheus.NewCounter(prometheus.CounterOpts{
		Namespace: "cogtile",
		Subsystem: "bytesrc",
		Name:      "chunk_cache_hits_total",
		Help:      "Chunk cache hits across all ByteSources.",
	})
	chunkCacheMisses = prometheus.NewCounter(prometheus.CounterOpts{
		Namespace: "cogtile",
		Subsystem: "bytesrc",
		Name:      "chunk_cache_misses_total",
		Help:      "Chunk cache misses across all ByteSources.",
	})
	fetchBytes = prometheus.NewCounter(prometheus.CounterOpts{
		Namespace: "cogtile",
		Subsystem: "bytesrc",
		Name:      "fetched_bytes_total",
		Help:      "Bytes fetched from backends (excluding cache hits).",
	})
	fetchLatency = prometheus.NewHistogram(prometheus.HistogramOpts{
		Namespace: "cogtile",
		Subsystem: "bytesrc",
		Name:      "fetch_latency_seconds",
		Help:      "Latency of backend range fetches.",
		Buckets:   prometheus.DefBuckets,
	})
)

func init() {
	prometheus.MustRegister(chunkCacheHits, chunkCacheMisses, fetchBytes, fetchLatency)
}
