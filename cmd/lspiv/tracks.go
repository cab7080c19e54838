package main

import (
	"context"

	"github.com/LdDl/lspiv-go/config"
	"github.com/LdDl/lspiv-go/lspiv"
	"github.com/LdDl/lspiv-go/pipeline"
	"github.com/LdDl/lspiv-go/storage"
	"github.com/google/uuid"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/spf13/cobra"
	"go.uber.org/zap"
)

// sourceFlags select where tracks are read from and how they are measured
type sourceFlags struct {
	configPath  string
	dbPath      string
	flipY       bool
	workers     int
	metricsFile string
}

func (f *sourceFlags) register(cmd *cobra.Command) {
	cmd.Flags().StringVarP(&f.configPath, "config", "c", "", "Approximation config file")
	cmd.Flags().StringVar(&f.dbPath, "db", "", "SQLite database to read tracks from instead of training set directories")
	cmd.Flags().BoolVar(&f.flipY, "flip-y", false, "Move image coordinates to Cartesian ones before measuring")
	cmd.Flags().IntVar(&f.workers, "workers", 4, "Number of goroutines measuring tracks")
	cmd.Flags().StringVar(&f.metricsFile, "metrics-file", "", "Write Prometheus metrics in text format to this file")
	cmd.MarkFlagRequired("config")
}

// loadedTracks are tracks of every training set. Origin maps a track read from file to its directory.
type loadedTracks struct {
	tracks []*lspiv.Track
	origin map[uuid.UUID]string
}

func (a *app) loadTracks(ctx context.Context, cfg *config.ApproximationConfig, flags *sourceFlags) (*loadedTracks, error) {
	loaded := &loadedTracks{origin: make(map[uuid.UUID]string)}
	if flags.dbPath != "" {
		store, err := storage.Open(ctx, flags.dbPath, a.logger)
		if err != nil {
			return nil, err
		}
		defer store.Close()
		for _, set := range cfg.TrainingSets {
			tracks, err := store.LoadTracks(ctx, set)
			if err != nil {
				return nil, err
			}
			a.logger.Info("Tracks loaded", zap.String("set", set), zap.Int("tracks", len(tracks)))
			loaded.tracks = append(loaded.tracks, tracks...)
		}
		return loaded, nil
	}
	for _, dir := range cfg.TrainingDirs() {
		tracks, err := storage.LoadTrackFiles(dir)
		if err != nil {
			return nil, err
		}
		a.logger.Info("Tracks loaded", zap.String("dir", dir), zap.Int("tracks", len(tracks)))
		for _, track := range tracks {
			loaded.origin[track.GetID()] = dir
		}
		loaded.tracks = append(loaded.tracks, tracks...)
	}
	return loaded, nil
}

// runApproximation loads config and tracks and samples measurements out of them
func (a *app) runApproximation(ctx context.Context, flags *sourceFlags) (*config.ApproximationConfig, *loadedTracks, *pipeline.ApproximationResult, error) {
	cfg, err := config.LoadApproximationConfig(flags.configPath)
	if err != nil {
		return nil, nil, nil, err
	}
	loaded, err := a.loadTracks(ctx, cfg, flags)
	if err != nil {
		return nil, nil, nil, err
	}
	reg := prometheus.NewRegistry()
	metrics, err := lspiv.NewMetrics(reg)
	if err != nil {
		return nil, nil, nil, err
	}
	opts := []pipeline.Option{
		pipeline.WithLogger(a.logger),
		pipeline.WithMetrics(metrics),
		pipeline.WithWorkers(flags.workers),
	}
	if flags.flipY {
		opts = append(opts, pipeline.WithTransforms(pipeline.PixelCoordinateTransform{Height: cfg.ImageHeight}))
	}
	p, err := pipeline.NewApproximationPipeline(cfg, opts...)
	if err != nil {
		return nil, nil, nil, err
	}
	result, err := p.Run(ctx, loaded.tracks)
	if err != nil {
		return nil, nil, nil, err
	}
	if flags.metricsFile != "" {
		if err := prometheus.WriteToTextfile(flags.metricsFile, reg); err != nil {
			return nil, nil, nil, err
		}
	}
	return cfg, loaded, result, nil
}
