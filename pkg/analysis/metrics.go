package analysis

import (
	"sync/atomic"
	"time"
)

// Metrics counts analyzer activity. All methods are safe for concurrent use.
type Metrics struct {
	samples        atomic.Int64
	faces          atomic.Int64
	noFace         atomic.Int64
	detectorErrors atomic.Int64
	dropped        atomic.Int64
	stale          atomic.Int64
	detections     atomic.Int64
	totalLatency   atomic.Int64
	lastSample     atomic.Int64
}

// MetricsSnapshot is a point-in-time copy of the counters.
type MetricsSnapshot struct {
	Samples        int64   `json:"samples"`
	Faces          int64   `json:"faces"`
	NoFace         int64   `json:"noFace"`
	DetectorErrors int64   `json:"detectorErrors"`
	Dropped        int64   `json:"dropped"`
	Stale          int64   `json:"stale"`
	AvgLatencyMs   float64 `json:"avgLatencyMs"`
	LastSample     int64   `json:"lastSample"` // Unix millis
}

func (m *Metrics) recordSample(at time.Time) {
	m.samples.Add(1)
	m.lastSample.Store(at.UnixMilli())
}

func (m *Metrics) recordLatency(d time.Duration) {
	m.detections.Add(1)
	m.totalLatency.Add(d.Milliseconds())
}

// Snapshot returns the current counters.
func (m *Metrics) Snapshot() MetricsSnapshot {
	s := MetricsSnapshot{
		Samples:        m.samples.Load(),
		Faces:          m.faces.Load(),
		NoFace:         m.noFace.Load(),
		DetectorErrors: m.detectorErrors.Load(),
		Dropped:        m.dropped.Load(),
		Stale:          m.stale.Load(),
		LastSample:     m.lastSample.Load(),
	}
	if n := m.detections.Load(); n > 0 {
		s.AvgLatencyMs = float64(m.totalLatency.Load()) / float64(n)
	}
	return s
}
