package pipeline

import (
	"github.com/LdDl/lspiv-go/lspiv"
	"go.uber.org/zap"
)

type options struct {
	logger       *zap.Logger
	metrics      *lspiv.Metrics
	sink         lspiv.TrackSink
	transforms   []TrackTransform
	approximator Approximator
	workers      int
}

// Option configures pipelines
type Option func(*options)

func defaultOptions() options {
	return options{
		logger:  zap.NewNop(),
		workers: 4,
	}
}

// WithLogger sets logger of pipeline and of the databases it creates
func WithLogger(logger *zap.Logger) Option {
	return func(o *options) {
		if logger != nil {
			o.logger = logger
		}
	}
}

// WithMetrics sets collectors of the databases pipeline creates
func WithMetrics(metrics *lspiv.Metrics) Option {
	return func(o *options) {
		o.metrics = metrics
	}
}

// WithTrackSink sets where pruned historical tracks go. Tracking pipeline only.
func WithTrackSink(sink lspiv.TrackSink) Option {
	return func(o *options) {
		o.sink = sink
	}
}

// WithTransforms appends track transforms applied before measuring. Approximation pipeline only.
func WithTransforms(transforms ...TrackTransform) Option {
	return func(o *options) {
		o.transforms = append(o.transforms, transforms...)
	}
}

// WithApproximator sets approximator fed with sampled measurements. Approximation pipeline only.
func WithApproximator(approximator Approximator) Option {
	return func(o *options) {
		o.approximator = approximator
	}
}

// WithWorkers sets number of goroutines measuring tracks. Approximation pipeline only.
func WithWorkers(n int) Option {
	return func(o *options) {
		if n > 0 {
			o.workers = n
		}
	}
}
