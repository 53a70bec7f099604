package meme

import (
	"expvar"
	"testing"
	"time"
)

func TestMetricsRecord(t *testing.T) {
	m := NewMetrics()

	m.RecordRender(10 * time.Millisecond)
	m.RecordRender(30 * time.Millisecond)
	m.RecordExport(5*time.Millisecond, 1000)
	m.RecordImageLoad(40*time.Millisecond, false)
	m.RecordImageLoad(time.Microsecond, true)
	m.IncrementConfigReloads()
	m.IncrementErrors()
	m.IncrementEventsEmitted()

	snap := m.Snapshot()
	want := MetricsSnapshot{
		Renders:          2,
		Exports:          1,
		ImageLoads:       2,
		CacheHits:        1,
		ConfigReloads:    1,
		ErrorsTotal:      1,
		EventsEmitted:    1,
		BytesExported:    1000,
		ImageLoaded:      true,
		RenderLatencyAvg: 20 * time.Millisecond,
		LoadLatencyAvg:   40 * time.Millisecond,
		ExportLatencyAvg: 5 * time.Millisecond,
	}
	if snap != want {
		t.Errorf("Snapshot() = %+v\nwant %+v", snap, want)
	}

	m.Reset()
	if snap := m.Snapshot(); snap != (MetricsSnapshot{}) {
		t.Errorf("Snapshot() after Reset = %+v, want zero", snap)
	}
}

func TestMetricsRegisterExpvar(t *testing.T) {
	m := DefaultMetrics()
	m.RegisterExpvar()
	m.RegisterExpvar()

	for _, name := range []string{
		"meme_renders_total",
		"meme_image_cache_hits_total",
		"meme_render_latency_avg_ms",
		"meme_image_loaded",
	} {
		if expvar.Get(name) == nil {
			t.Errorf("expvar %q not published", name)
		}
	}
}

func TestSafeDivide(t *testing.T) {
	if got := safeDivide(100, 0); got != 0 {
		t.Errorf("safeDivide(100, 0) = %v", got)
	}
	if got := safeDivide(100, 4); got != 25 {
		t.Errorf("safeDivide(100, 4) = %v", got)
	}
}
