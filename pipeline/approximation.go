package pipeline

import (
	"context"

	"github.com/LdDl/lspiv-go/config"
	"github.com/LdDl/lspiv-go/lspiv"
	"github.com/pkg/errors"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"
)

// ApproximationResult is the output of an approximation pass
type ApproximationResult struct {
	// Sampled measurements, GetMeasurements(measurementsPerCell) of DB
	Measurements []lspiv.Measurement
	DB           *lspiv.MeasurementDB
}

// ApproximationPipeline turns historical tracks into a spatially balanced sample of velocity measurements
type ApproximationPipeline struct {
	params              lspiv.MeasureParams
	grid                lspiv.Grid
	binCapacity         int
	measurementsPerCell int
	transforms          []TrackTransform
	approximator        Approximator
	workers             int
	logger              *zap.Logger
	metrics             *lspiv.Metrics
}

// NewApproximationPipeline creates pipeline from config
func NewApproximationPipeline(cfg *config.ApproximationConfig, opts ...Option) (*ApproximationPipeline, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	o := defaultOptions()
	for _, opt := range opts {
		opt(&o)
	}
	params, err := cfg.MeasureParams()
	if err != nil {
		return nil, err
	}
	grid, err := cfg.Grid()
	if err != nil {
		return nil, err
	}
	return &ApproximationPipeline{
		params:              params,
		grid:                grid,
		binCapacity:         cfg.Sampling.BinCapacity,
		measurementsPerCell: cfg.Sampling.MeasurementsPerCell,
		transforms:          o.transforms,
		approximator:        o.approximator,
		workers:             o.workers,
		logger:              o.logger,
		metrics:             o.metrics,
	}, nil
}

// Run measures every track, bins measurements and samples them. Tracks are measured concurrently,
// measurements are binned in track order so the result does not depend on scheduling.
func (p *ApproximationPipeline) Run(ctx context.Context, tracks []*lspiv.Track) (*ApproximationResult, error) {
	perTrack := make([][]lspiv.Measurement, len(tracks))
	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(p.workers)
	for i := range tracks {
		i := i
		g.Go(func() error {
			if err := gctx.Err(); err != nil {
				return err
			}
			track, err := applyTransforms(tracks[i], p.transforms)
			if err != nil {
				return errors.Wrapf(err, "Can't transform track %s", tracks[i].GetID())
			}
			measurements, err := p.params.Measure(track)
			if err != nil {
				return errors.Wrapf(err, "Can't measure track %s", tracks[i].GetID())
			}
			perTrack[i] = measurements
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}

	db, err := lspiv.NewMeasurementDB(p.grid, p.binCapacity, lspiv.WithLogger(p.logger), lspiv.WithMetrics(p.metrics))
	if err != nil {
		return nil, err
	}
	for _, measurements := range perTrack {
		db.AddMeasurements(measurements)
	}
	sampled := db.GetMeasurements(p.measurementsPerCell)
	p.logger.Info("Measurements sampled",
		zap.Int("tracks", len(tracks)),
		zap.Int("stored", db.Len()),
		zap.Int("cells", len(db.Cells())),
		zap.Int("sampled", len(sampled)))

	if p.approximator != nil {
		if err := p.approximator.Approximate(ctx, sampled); err != nil {
			return nil, errors.Wrap(err, "Can't approximate velocity field")
		}
	}
	return &ApproximationResult{Measurements: sampled, DB: db}, nil
}
