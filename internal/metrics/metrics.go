// Package metrics exposes landscape streaming and meshing counters to Prometheus.
package metrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
)

const namespace = "voxelscape"

// Collector groups every metric. A nil *Collector is valid and records nothing.
type Collector struct {
	ChunksLoaded    *prometheus.CounterVec
	LoadFailures    prometheus.Counter
	ChunksEvicted   prometheus.Counter
	ChunksSaved     prometheus.Counter
	ResidentChunks  prometheus.Gauge
	RealizedChunks  prometheus.Gauge
	VertexBytes     prometheus.Gauge
	ExposedFaces    *prometheus.GaugeVec
	HitTests        *prometheus.CounterVec
	OperationTiming *prometheus.HistogramVec
}

// New creates the collectors and registers them on reg.
func New(reg prometheus.Registerer) *Collector {
	c := &Collector{
		ChunksLoaded: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "chunks_loaded_total",
			Help:      "Chunks integrated into the chunk table, by source.",
		}, []string{"source"}),
		LoadFailures: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "chunk_load_failures_total",
			Help:      "Chunk loads that failed and were replaced by a placeholder.",
		}),
		ChunksEvicted: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "chunks_evicted_total",
			Help:      "Chunks removed from memory.",
		}),
		ChunksSaved: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "chunks_saved_total",
			Help:      "Modified chunks written to persistence.",
		}),
		ResidentChunks: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "resident_chunks",
			Help:      "Chunks currently held in the chunk table.",
		}),
		RealizedChunks: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "realized_chunks",
			Help:      "Chunks whose surface lists are uploaded.",
		}),
		VertexBytes: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "vertex_bytes",
			Help:      "CPU-side vertex data held by resident chunks.",
		}),
		ExposedFaces: prometheus.NewGaugeVec(prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "draw_region_exposed_faces",
			Help:      "Exposed faces inside the draw region, by surface.",
		}, []string{"surface"}),
		HitTests: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "hit_tests_total",
			Help:      "Hit-test queries, by outcome.",
		}, []string{"outcome"}),
		OperationTiming: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "operation_seconds",
			Help:      "Duration of tracked core operations.",
			Buckets:   prometheus.ExponentialBuckets(0.00005, 2, 14),
		}, []string{"op"}),
	}
	if reg != nil {
		reg.MustRegister(
			c.ChunksLoaded, c.LoadFailures, c.ChunksEvicted, c.ChunksSaved,
			c.ResidentChunks, c.RealizedChunks, c.VertexBytes, c.ExposedFaces,
			c.HitTests, c.OperationTiming,
		)
	}
	return c
}

func (c *Collector) ChunkLoaded(source string) {
	if c == nil {
		return
	}
	c.ChunksLoaded.WithLabelValues(source).Inc()
}

func (c *Collector) ChunkLoadFailed() {
	if c == nil {
		return
	}
	c.LoadFailures.Inc()
}

func (c *Collector) ChunkEvicted() {
	if c == nil {
		return
	}
	c.ChunksEvicted.Inc()
}

func (c *Collector) ChunkSaved() {
	if c == nil {
		return
	}
	c.ChunksSaved.Inc()
}

// Residency publishes table-wide gauges.
func (c *Collector) Residency(resident, realized, vertexBytes int) {
	if c == nil {
		return
	}
	c.ResidentChunks.Set(float64(resident))
	c.RealizedChunks.Set(float64(realized))
	c.VertexBytes.Set(float64(vertexBytes))
}

// Exposed publishes the exposed-face count of one surface.
func (c *Collector) Exposed(surface string, faces int) {
	if c == nil {
		return
	}
	c.ExposedFaces.WithLabelValues(surface).Set(float64(faces))
}

func (c *Collector) HitTest(hit bool) {
	if c == nil {
		return
	}
	outcome := "miss"
	if hit {
		outcome = "hit"
	}
	c.HitTests.WithLabelValues(outcome).Inc()
}

// Observe records one operation duration; it matches profiling.SetObserver.
func (c *Collector) Observe(op string, d time.Duration) {
	if c == nil {
		return
	}
	c.OperationTiming.WithLabelValues(op).Observe(d.Seconds())
}
