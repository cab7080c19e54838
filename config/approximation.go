package config

import (
	"path/filepath"

	"github.com/LdDl/lspiv-go/lspiv"
	"github.com/pkg/errors"
)

// ApproximationMethod selects how sampled measurements are turned into a velocity field
type ApproximationMethod string

const (
	ApproximationSimple         ApproximationMethod = "simple"
	ApproximationCoregionalized ApproximationMethod = "coregionalized"
	ApproximationSparse         ApproximationMethod = "sparse"
	ApproximationIntegral       ApproximationMethod = "integral"
)

const (
	defaultCameraFile            = "camera.yaml"
	defaultApproximationFileName = "approx_config.yaml"
)

// ParseApproximationMethod checks name of approximation method
func ParseApproximationMethod(name string) (ApproximationMethod, error) {
	switch m := ApproximationMethod(name); m {
	case ApproximationSimple, ApproximationCoregionalized, ApproximationSparse, ApproximationIntegral:
		return m, nil
	default:
		return "", errors.Wrapf(lspiv.ErrConfiguration, "unknown approximation method %q", name)
	}
}

// ApproximationConfig configures sampling of measurements from tracks recorded by the tracking pipeline
type ApproximationConfig struct {
	InputDir string `yaml:"input_dir"`
	// Subdirectories of InputDir with track files
	TrainingSets []string `yaml:"training_sets"`
	// Camera calibration file. Empty means camera.yaml in InputDir
	CameraFile  string            `yaml:"camera_file"`
	ImageWidth  float64           `yaml:"image_width"`
	ImageHeight float64           `yaml:"image_height"`
	Measurement MeasurementConfig `yaml:"measurement"`
	Sampling    SamplingConfig    `yaml:"sampling"`
	Method      string            `yaml:"approximation_method"`
}

// MeasurementConfig configures extraction of measurements from a single track
type MeasurementConfig struct {
	PreFilter          string             `yaml:"pre_filter"`
	Kalman             lspiv.KalmanParams `yaml:"kalman"`
	Scoring            string             `yaml:"scoring"`
	Localization       string             `yaml:"localization"`
	MinSegmentDistance float64            `yaml:"min_segment_distance"`
}

// SamplingConfig configures measurement grid
type SamplingConfig struct {
	GridColumns         int `yaml:"grid_columns"`
	GridRows            int `yaml:"grid_rows"`
	BinCapacity         int `yaml:"bin_capacity"`
	MeasurementsPerCell int `yaml:"measurements_per_cell"`
}

// DefaultApproximationConfig returns default config for given input directory
func DefaultApproximationConfig(inputDir string) *ApproximationConfig {
	params := lspiv.DefaultMeasureParams()
	return &ApproximationConfig{
		InputDir:     inputDir,
		TrainingSets: []string{"raw"},
		ImageWidth:   1920,
		ImageHeight:  1080,
		Measurement: MeasurementConfig{
			PreFilter:          params.PreFilter.String(),
			Kalman:             params.Kalman,
			Scoring:            params.Scoring.String(),
			Localization:       params.Localization.String(),
			MinSegmentDistance: params.MinDist,
		},
		Sampling: SamplingConfig{
			GridColumns:         240,
			GridRows:            108,
			BinCapacity:         100,
			MeasurementsPerCell: 1,
		},
		Method: string(ApproximationSimple),
	}
}

// LoadApproximationConfig reads YAML file over defaults. Missing keys keep default values.
func LoadApproximationConfig(path string) (*ApproximationConfig, error) {
	cfg := DefaultApproximationConfig("")
	if err := load(path, cfg); err != nil {
		return nil, err
	}
	return cfg, nil
}

// Save writes config to YAML file. Empty path means approx_config.yaml in InputDir.
func (cfg *ApproximationConfig) Save(path string) error {
	if path == "" {
		path = filepath.Join(cfg.InputDir, defaultApproximationFileName)
	}
	return save(path, cfg)
}

// Validate checks config for consistency
func (cfg *ApproximationConfig) Validate() error {
	if len(cfg.TrainingSets) == 0 {
		return errors.Wrap(lspiv.ErrConfiguration, "at least one training set is required")
	}
	if _, err := cfg.Grid(); err != nil {
		return err
	}
	if cfg.Sampling.BinCapacity < 1 {
		return errors.Wrapf(lspiv.ErrConfiguration, "bin capacity must be positive, got %d", cfg.Sampling.BinCapacity)
	}
	if cfg.Sampling.MeasurementsPerCell > cfg.Sampling.BinCapacity {
		return errors.Wrapf(lspiv.ErrConfiguration, "measurements per cell %d exceed bin capacity %d", cfg.Sampling.MeasurementsPerCell, cfg.Sampling.BinCapacity)
	}
	if cfg.Measurement.MinSegmentDistance < 0 {
		return errors.Wrapf(lspiv.ErrConfiguration, "min segment distance must be non-negative, got %v", cfg.Measurement.MinSegmentDistance)
	}
	if _, err := cfg.MeasureParams(); err != nil {
		return err
	}
	_, err := ParseApproximationMethod(cfg.Method)
	return err
}

// CameraPath returns camera calibration file
func (cfg *ApproximationConfig) CameraPath() string {
	if cfg.CameraFile != "" {
		return cfg.CameraFile
	}
	return filepath.Join(cfg.InputDir, defaultCameraFile)
}

// TrainingDirs returns directories with track files of every training set
func (cfg *ApproximationConfig) TrainingDirs() []string {
	dirs := make([]string, len(cfg.TrainingSets))
	for i, set := range cfg.TrainingSets {
		dirs[i] = filepath.Join(cfg.InputDir, set)
	}
	return dirs
}

// Grid returns measurement grid over the image
func (cfg *ApproximationConfig) Grid() (lspiv.Grid, error) {
	return lspiv.NewGrid(cfg.ImageWidth, cfg.ImageHeight, cfg.Sampling.GridColumns, cfg.Sampling.GridRows)
}

// MeasureParams returns params of measurement extraction
func (cfg *ApproximationConfig) MeasureParams() (lspiv.MeasureParams, error) {
	m := cfg.Measurement
	preFilter, err := lspiv.ParsePreFilterMethod(m.PreFilter)
	if err != nil {
		return lspiv.MeasureParams{}, err
	}
	scoring, err := lspiv.ParseScoringMethod(m.Scoring)
	if err != nil {
		return lspiv.MeasureParams{}, err
	}
	localization, err := lspiv.ParseLocalizationMethod(m.Localization)
	if err != nil {
		return lspiv.MeasureParams{}, err
	}
	return lspiv.MeasureParams{
		MinDist:      m.MinSegmentDistance,
		Scoring:      scoring,
		Localization: localization,
		PreFilter:    preFilter,
		Kalman:       m.Kalman,
	}, nil
}

// ApproximationMethod returns parsed approximation method
func (cfg *ApproximationConfig) ApproximationMethod() (ApproximationMethod, error) {
	return ParseApproximationMethod(cfg.Method)
}
