package lspiv

import "go.uber.org/zap"

// TrackSink receives tracks pruned from the historical store instead of dropping them
type TrackSink interface {
	SinkTracks(tracks []*Track) error
}

// TrackSinkFunc is an adapter to use ordinary functions as TrackSink
type TrackSinkFunc func(tracks []*Track) error

func (f TrackSinkFunc) SinkTracks(tracks []*Track) error {
	return f(tracks)
}

type options struct {
	logger  *zap.Logger
	metrics *Metrics
	sink    TrackSink
	scoring ScoringMethod
}

// Option configures TrackDB and MeasurementDB
type Option func(*options)

func defaultOptions() options {
	return options{
		logger:  zap.NewNop(),
		scoring: ScoringComposite,
	}
}

// WithLogger sets logger. Default is no-op logger.
func WithLogger(logger *zap.Logger) Option {
	return func(o *options) {
		if logger != nil {
			o.logger = logger
		}
	}
}

// WithMetrics sets collectors to report to
func WithMetrics(metrics *Metrics) Option {
	return func(o *options) {
		o.metrics = metrics
	}
}

// WithTrackSink sets where pruned historical tracks go. TrackDB only.
func WithTrackSink(sink TrackSink) Option {
	return func(o *options) {
		o.sink = sink
	}
}

// WithTrackScoring sets method ordering the historical store. TrackDB only. Default is composite.
func WithTrackScoring(method ScoringMethod) Option {
	return func(o *options) {
		o.scoring = method
	}
}
