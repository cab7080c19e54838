package pipeline

import (
	"context"

	"github.com/LdDl/lspiv-go/config"
	"github.com/LdDl/lspiv-go/lspiv"
	"github.com/pkg/errors"
	"go.uber.org/zap"
)

// TrackingStats summarizes a tracking run
type TrackingStats struct {
	Frames     int
	Detections int
	// Tracks created from detections
	Tracks     int
	Historical int
	// Timestamp of the last processed frame
	LastTimestamp float64
}

// TrackingPipeline feeds frames through the point tracker into the track database and
// re-detects features when too few tracks are alive or detection interval has passed
type TrackingPipeline struct {
	db                *lspiv.TrackDB
	source            FrameSource
	tracker           PointTracker
	detector          Detector
	numDesiredTracks  int
	detectionInterval float64
	logger            *zap.Logger
}

// NewTrackingPipeline creates pipeline and its track database from config
func NewTrackingPipeline(cfg *config.PipelineConfig, source FrameSource, tracker PointTracker, detector Detector, opts ...Option) (*TrackingPipeline, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	o := defaultOptions()
	for _, opt := range opts {
		opt(&o)
	}
	scoring, err := cfg.TrackScoring()
	if err != nil {
		return nil, err
	}
	dbOpts := []lspiv.Option{
		lspiv.WithLogger(o.logger),
		lspiv.WithMetrics(o.metrics),
		lspiv.WithTrackScoring(scoring),
	}
	if o.sink != nil {
		dbOpts = append(dbOpts, lspiv.WithTrackSink(o.sink))
	}
	db, err := lspiv.NewTrackDB(cfg.TrackFilter(), dbOpts...)
	if err != nil {
		return nil, err
	}
	return &TrackingPipeline{
		db:                db,
		source:            source,
		tracker:           tracker,
		detector:          detector,
		numDesiredTracks:  cfg.Detection.NumDesiredTracks,
		detectionInterval: cfg.Detection.DetectionInterval,
		logger:            o.logger,
	}, nil
}

// DB returns track database of the pipeline
func (p *TrackingPipeline) DB() *lspiv.TrackDB {
	return p.db
}

// Run processes the whole stream. Every track alive at the end of stream is terminated.
// Cancellation is checked between frames; tracks are not terminated on cancellation.
func (p *TrackingPipeline) Run(ctx context.Context) (TrackingStats, error) {
	stats := TrackingStats{}
	frame, ok, err := p.source.Next(ctx)
	if err != nil {
		return stats, errors.Wrap(err, "Can't read first frame")
	}
	if !ok {
		return stats, nil
	}
	if err := p.tracker.Init(ctx, frame); err != nil {
		return stats, errors.Wrap(err, "Can't init point tracker")
	}
	if err := p.detect(ctx, frame, &stats); err != nil {
		return stats, err
	}
	lastDetection := frame.Timestamp
	stats.Frames = 1
	stats.LastTimestamp = frame.Timestamp

	for {
		if err := ctx.Err(); err != nil {
			return stats, err
		}
		frame, ok, err = p.source.Next(ctx)
		if err != nil {
			return stats, errors.Wrapf(err, "Can't read frame %d", stats.Frames)
		}
		if !ok {
			break
		}
		endpoints := p.db.GetActiveEndpoints()
		points, err := p.tracker.Track(ctx, endpoints, frame)
		if err != nil {
			return stats, errors.Wrapf(err, "Can't track points at %v", frame.Timestamp)
		}
		if err := p.db.UpdateActiveTracks(points, frame.Timestamp); err != nil {
			return stats, errors.Wrapf(err, "Can't update tracks at %v", frame.Timestamp)
		}
		if p.db.NumActiveTracks() < p.numDesiredTracks || frame.Timestamp-lastDetection > p.detectionInterval {
			if err := p.detect(ctx, frame, &stats); err != nil {
				return stats, err
			}
			lastDetection = frame.Timestamp
		}
		stats.Frames++
		stats.LastTimestamp = frame.Timestamp
		if stats.Frames%1000 == 0 {
			p.logger.Info("Frames processed",
				zap.Int("frames", stats.Frames),
				zap.Float64("timestamp", frame.Timestamp),
				zap.Int("active", p.db.NumActiveTracks()),
				zap.Int("historical", p.db.NumHistoricalTracks()))
		}
	}

	if err := p.db.TerminateActiveTracks(); err != nil {
		return stats, errors.Wrap(err, "Can't terminate active tracks")
	}
	stats.Historical = p.db.NumHistoricalTracks()
	p.logger.Info("Tracking complete",
		zap.Int("frames", stats.Frames),
		zap.Int("tracks", stats.Tracks),
		zap.Int("historical", stats.Historical))
	return stats, nil
}

func (p *TrackingPipeline) detect(ctx context.Context, frame Frame, stats *TrackingStats) error {
	detections, err := p.detector.Detect(ctx, frame, p.db.GetActiveEndpoints())
	if err != nil {
		return errors.Wrapf(err, "Can't detect features at %v", frame.Timestamp)
	}
	for _, point := range detections {
		p.db.AddNewTrackAt(point, frame.Timestamp)
	}
	stats.Detections++
	stats.Tracks += len(detections)
	return nil
}
