package config

import (
	"github.com/LdDl/lspiv-go/lspiv"
	"github.com/pkg/errors"
)

// PipelineConfig configures feature tracking over a video dataset
type PipelineConfig struct {
	DatasetFile string          `yaml:"dataset_file"`
	OutputDir   string          `yaml:"output_dir"`
	Detection   DetectionConfig `yaml:"detection"`
	Filtering   FilteringConfig `yaml:"track_filtering"`
	LKFlow      LKFlowConfig    `yaml:"lk_flow"`
}

// DetectionConfig configures grid feature detection
type DetectionConfig struct {
	GridColumns int `yaml:"grid_columns"`
	GridRows    int `yaml:"grid_rows"`
	// Detection runs when fewer tracks are active
	NumDesiredTracks int `yaml:"num_desired_tracks"`
	// Max seconds between two detections
	DetectionInterval float64 `yaml:"detection_interval"`
	// Features over the whole image, split evenly between grid cells
	MaxFeatures        int     `yaml:"max_features"`
	BorderBuffer       int     `yaml:"border_buffer"`
	QualityLevel       float64 `yaml:"quality_level"`
	MinFeatureDistance float64 `yaml:"min_feature_distance"`
	BlockSize          int     `yaml:"block_size"`
	// Radius around active endpoints excluded from detection
	MaskRadius int `yaml:"mask_radius"`
}

// FilteringConfig mirrors lspiv.TrackFilter
type FilteringConfig struct {
	HistoricalThreshold float64 `yaml:"historical_threshold"`
	MinAge              float64 `yaml:"min_age"`
	MinDisplacement     float64 `yaml:"min_displacement"`
	MinSpeed            float64 `yaml:"min_speed"`
	MeanderingRatio     float64 `yaml:"meandering_ratio"`
	MaxTracks           int     `yaml:"max_tracks"`
	RetainTracks        int     `yaml:"retain_tracks"`
	// Ordering of the historical store
	Scoring string `yaml:"scoring"`
}

// LKFlowConfig configures Lucas-Kanade optical flow tracker
type LKFlowConfig struct {
	WindowWidth  int     `yaml:"window_width"`
	WindowHeight int     `yaml:"window_height"`
	MaxLevel     int     `yaml:"max_level"`
	MaxIter      int     `yaml:"max_iter"`
	Epsilon      float64 `yaml:"epsilon"`
}

// FeatureDetectionParams are per-cell params of a corner detector
type FeatureDetectionParams struct {
	MaxCorners   int
	QualityLevel float64
	MinDistance  float64
	BlockSize    int
}

// LKFlowParams are params of a pyramidal optical flow tracker
type LKFlowParams struct {
	WindowWidth  int
	WindowHeight int
	MaxLevel     int
	MaxIter      int
	Epsilon      float64
}

// DefaultPipelineConfig returns default config for given dataset and output directory
func DefaultPipelineConfig(datasetFile, outputDir string) *PipelineConfig {
	filter := lspiv.DefaultTrackFilter()
	return &PipelineConfig{
		DatasetFile: datasetFile,
		OutputDir:   outputDir,
		Detection: DetectionConfig{
			GridColumns:        400,
			GridRows:           30,
			NumDesiredTracks:   1000,
			DetectionInterval:  1.0,
			MaxFeatures:        60001,
			BorderBuffer:       50,
			QualityLevel:       0.3,
			MinFeatureDistance: 10.0,
			BlockSize:          10,
			MaskRadius:         5,
		},
		Filtering: FilteringConfig{
			HistoricalThreshold: filter.HistoricalThreshold,
			MinAge:              filter.MinAge,
			MinDisplacement:     filter.MinDisplacement,
			MinSpeed:            filter.MinSpeed,
			MeanderingRatio:     filter.MeanderingRatio,
			MaxTracks:           filter.MaxTracks,
			RetainTracks:        filter.RetainTracks,
			Scoring:             lspiv.ScoringComposite.String(),
		},
		LKFlow: LKFlowConfig{
			WindowWidth:  21,
			WindowHeight: 21,
			MaxLevel:     5,
			MaxIter:      30,
			Epsilon:      0.01,
		},
	}
}

// LoadPipelineConfig reads YAML file over defaults. Missing keys keep default values.
func LoadPipelineConfig(path string) (*PipelineConfig, error) {
	cfg := DefaultPipelineConfig("", "")
	if err := load(path, cfg); err != nil {
		return nil, err
	}
	return cfg, nil
}

// Save writes config to YAML file
func (cfg *PipelineConfig) Save(path string) error {
	return save(path, cfg)
}

// Validate checks config for consistency
func (cfg *PipelineConfig) Validate() error {
	d := cfg.Detection
	if d.GridColumns < 1 || d.GridRows < 1 {
		return errors.Wrapf(lspiv.ErrConfiguration, "detection grid dimensions must be positive, got %dx%d", d.GridColumns, d.GridRows)
	}
	if d.NumDesiredTracks < 0 {
		return errors.Wrapf(lspiv.ErrConfiguration, "number of desired tracks must be non-negative, got %d", d.NumDesiredTracks)
	}
	if d.DetectionInterval <= 0 {
		return errors.Wrapf(lspiv.ErrConfiguration, "detection interval must be positive, got %v", d.DetectionInterval)
	}
	if d.MaxFeatures < d.GridColumns*d.GridRows {
		return errors.Wrapf(lspiv.ErrConfiguration, "max features %d is less than number of detection cells %d", d.MaxFeatures, d.GridColumns*d.GridRows)
	}
	if _, err := lspiv.ParseScoringMethod(cfg.Filtering.Scoring); err != nil {
		return err
	}
	if cfg.LKFlow.WindowWidth < 1 || cfg.LKFlow.WindowHeight < 1 {
		return errors.Wrapf(lspiv.ErrConfiguration, "LK window must be positive, got %dx%d", cfg.LKFlow.WindowWidth, cfg.LKFlow.WindowHeight)
	}
	return cfg.TrackFilter().Validate()
}

// TrackFilter returns retirement gates
func (cfg *PipelineConfig) TrackFilter() lspiv.TrackFilter {
	f := cfg.Filtering
	return lspiv.TrackFilter{
		HistoricalThreshold: f.HistoricalThreshold,
		MinAge:              f.MinAge,
		MinDisplacement:     f.MinDisplacement,
		MinSpeed:            f.MinSpeed,
		MeanderingRatio:     f.MeanderingRatio,
		MaxTracks:           f.MaxTracks,
		RetainTracks:        f.RetainTracks,
	}
}

// TrackScoring returns method ordering the historical store
func (cfg *PipelineConfig) TrackScoring() (lspiv.ScoringMethod, error) {
	return lspiv.ParseScoringMethod(cfg.Filtering.Scoring)
}

// FeatureDetectionParams returns detector params for a single grid cell
func (cfg *PipelineConfig) FeatureDetectionParams() FeatureDetectionParams {
	d := cfg.Detection
	return FeatureDetectionParams{
		MaxCorners:   d.MaxFeatures / (d.GridColumns * d.GridRows),
		QualityLevel: d.QualityLevel,
		MinDistance:  d.MinFeatureDistance,
		BlockSize:    d.BlockSize,
	}
}

// LKFlowParams returns optical flow params
func (cfg *PipelineConfig) LKFlowParams() LKFlowParams {
	return LKFlowParams(cfg.LKFlow)
}
