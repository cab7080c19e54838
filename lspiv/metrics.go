package lspiv

import (
	"github.com/pkg/errors"
	"github.com/prometheus/client_golang/prometheus"
)

// Metrics is a set of collectors for track and measurement stores.
// All methods are safe to call on nil *Metrics.
type Metrics struct {
	tracksRetired       *prometheus.CounterVec
	tracksPruned        prometheus.Counter
	activeTracks        prometheus.Gauge
	historicalTracks    prometheus.Gauge
	measurementsStored  prometheus.Counter
	measurementsEvicted prometheus.Counter
}

// NewMetrics creates collectors and registers them with reg
func NewMetrics(reg prometheus.Registerer) (*Metrics, error) {
	m := &Metrics{
		tracksRetired: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "lspiv_tracks_retired_total",
			Help: "Retired tracks by outcome: historical or the quality gate that discarded them.",
		}, []string{"outcome"}),
		tracksPruned: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "lspiv_tracks_pruned_total",
			Help: "Historical tracks removed by pruning.",
		}),
		activeTracks: prometheus.NewGauge(prometheus.GaugeOpts{
			Name: "lspiv_active_tracks",
			Help: "Tracks in active or lost state.",
		}),
		historicalTracks: prometheus.NewGauge(prometheus.GaugeOpts{
			Name: "lspiv_historical_tracks",
			Help: "Tracks in the historical store.",
		}),
		measurementsStored: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "lspiv_measurements_added_total",
			Help: "Measurements added to grid cells.",
		}),
		measurementsEvicted: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "lspiv_measurements_evicted_total",
			Help: "Measurements evicted from full grid cells.",
		}),
	}
	collectors := []prometheus.Collector{
		m.tracksRetired,
		m.tracksPruned,
		m.activeTracks,
		m.historicalTracks,
		m.measurementsStored,
		m.measurementsEvicted,
	}
	for _, c := range collectors {
		if err := reg.Register(c); err != nil {
			return nil, errors.Wrap(err, "Can't register lspiv metrics")
		}
	}
	return m, nil
}

func (m *Metrics) trackRetired(outcome string) {
	if m == nil {
		return
	}
	m.tracksRetired.WithLabelValues(outcome).Inc()
}

func (m *Metrics) trackPruned(n int) {
	if m == nil {
		return
	}
	m.tracksPruned.Add(float64(n))
}

func (m *Metrics) setTrackCounts(active, historical int) {
	if m == nil {
		return
	}
	m.activeTracks.Set(float64(active))
	m.historicalTracks.Set(float64(historical))
}

func (m *Metrics) measurementAdded(evicted bool) {
	if m == nil {
		return
	}
	m.measurementsStored.Inc()
	if evicted {
		m.measurementsEvicted.Inc()
	}
}
