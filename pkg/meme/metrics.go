package meme

import (
	"expvar"
	"sync/atomic"
	"time"
)

// Metrics collects generator counters and latencies. It is exposed through
// expvar after RegisterExpvar, at /debug/vars when an HTTP server runs.
//
// Thread-safe for concurrent use.
type Metrics struct {
	renders       atomic.Int64
	exports       atomic.Int64
	imageLoads    atomic.Int64
	cacheHits     atomic.Int64
	configReloads atomic.Int64
	errorsTotal   atomic.Int64
	eventsEmitted atomic.Int64
	bytesExported atomic.Int64

	renderLatency latency
	loadLatency   latency
	exportLatency latency

	imageLoaded atomic.Int32

	registered atomic.Bool
}

// latency accumulates durations for an average.
type latency struct {
	totalNs atomic.Int64
	count   atomic.Int64
}

func (l *latency) record(d time.Duration) {
	l.totalNs.Add(d.Nanoseconds())
	l.count.Add(1)
}

func (l *latency) avg() time.Duration {
	return safeDivide(l.totalNs.Load(), l.count.Load())
}

func (l *latency) reset() {
	l.totalNs.Store(0)
	l.count.Store(0)
}

// NewMetrics creates a new Metrics instance.
func NewMetrics() *Metrics {
	return &Metrics{}
}

// RegisterExpvar publishes the metrics under the "meme_" prefix.
// Safe to call multiple times; subsequent calls are no-ops. expvar names are
// global, so only one Metrics per process can be registered.
func (m *Metrics) RegisterExpvar() {
	if m.registered.Swap(true) {
		return
	}

	counter := func(name string, v *atomic.Int64) {
		expvar.Publish(name, expvar.Func(func() any { return v.Load() }))
	}
	counter("meme_renders_total", &m.renders)
	counter("meme_exports_total", &m.exports)
	counter("meme_image_loads_total", &m.imageLoads)
	counter("meme_image_cache_hits_total", &m.cacheHits)
	counter("meme_config_reloads_total", &m.configReloads)
	counter("meme_errors_total", &m.errorsTotal)
	counter("meme_events_emitted_total", &m.eventsEmitted)
	counter("meme_bytes_exported_total", &m.bytesExported)

	expvar.Publish("meme_image_loaded", expvar.Func(func() any { return m.imageLoaded.Load() }))

	avgMs := func(name string, l *latency) {
		expvar.Publish(name, expvar.Func(func() any {
			return float64(l.avg()) / 1e6
		}))
	}
	avgMs("meme_render_latency_avg_ms", &m.renderLatency)
	avgMs("meme_load_latency_avg_ms", &m.loadLatency)
	avgMs("meme_export_latency_avg_ms", &m.exportLatency)
}

// MetricsSnapshot is a point-in-time copy of all metrics.
type MetricsSnapshot struct {
	Renders       int64
	Exports       int64
	ImageLoads    int64
	CacheHits     int64
	ConfigReloads int64
	ErrorsTotal   int64
	EventsEmitted int64
	BytesExported int64

	ImageLoaded bool

	RenderLatencyAvg time.Duration
	LoadLatencyAvg   time.Duration
	ExportLatencyAvg time.Duration
}

// Snapshot returns a point-in-time copy of all metrics.
func (m *Metrics) Snapshot() MetricsSnapshot {
	return MetricsSnapshot{
		Renders:       m.renders.Load(),
		Exports:       m.exports.Load(),
		ImageLoads:    m.imageLoads.Load(),
		CacheHits:     m.cacheHits.Load(),
		ConfigReloads: m.configReloads.Load(),
		ErrorsTotal:   m.errorsTotal.Load(),
		EventsEmitted: m.eventsEmitted.Load(),
		BytesExported: m.bytesExported.Load(),

		ImageLoaded: m.imageLoaded.Load() > 0,

		RenderLatencyAvg: m.renderLatency.avg(),
		LoadLatencyAvg:   m.loadLatency.avg(),
		ExportLatencyAvg: m.exportLatency.avg(),
	}
}

// RecordRender records a completed render.
func (m *Metrics) RecordRender(d time.Duration) {
	m.renders.Add(1)
	m.renderLatency.record(d)
}

// RecordExport records a completed export of n bytes.
func (m *Metrics) RecordExport(d time.Duration, n int64) {
	m.exports.Add(1)
	m.bytesExported.Add(n)
	m.exportLatency.record(d)
}

// RecordImageLoad records a completed image load. Cache hits are counted
// separately and do not affect the latency average.
func (m *Metrics) RecordImageLoad(d time.Duration, cacheHit bool) {
	m.imageLoads.Add(1)
	m.imageLoaded.Store(1)
	if cacheHit {
		m.cacheHits.Add(1)
		return
	}
	m.loadLatency.record(d)
}

// IncrementConfigReloads records a configuration reload.
func (m *Metrics) IncrementConfigReloads() { m.configReloads.Add(1) }

// IncrementErrors records an error occurrence.
func (m *Metrics) IncrementErrors() { m.errorsTotal.Add(1) }

// IncrementEventsEmitted records an event emission.
func (m *Metrics) IncrementEventsEmitted() { m.eventsEmitted.Add(1) }

// Reset clears all metrics. Useful for testing.
func (m *Metrics) Reset() {
	for _, c := range []*atomic.Int64{
		&m.renders, &m.exports, &m.imageLoads, &m.cacheHits,
		&m.configReloads, &m.errorsTotal, &m.eventsEmitted, &m.bytesExported,
	} {
		c.Store(0)
	}
	m.renderLatency.reset()
	m.loadLatency.reset()
	m.exportLatency.reset()
	m.imageLoaded.Store(0)
}

func safeDivide(total, count int64) time.Duration {
	if count == 0 {
		return 0
	}
	return time.Duration(total / count)
}

var defaultMetrics = NewMetrics()

// DefaultMetrics returns the global default Metrics instance.
func DefaultMetrics() *Metrics {
	return defaultMetrics
}
