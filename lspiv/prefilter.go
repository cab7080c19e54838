package lspiv

import (
	kalman_filter "github.com/LdDl/kalman-filter"
	"github.com/pkg/errors"
)

// PreFilterMethod selects smoothing applied to a track before its velocity is measured
type PreFilterMethod uint16

const (
	// PreFilterNone measures raw observations
	PreFilterNone PreFilterMethod = iota
	// PreFilterKalman smooths positions with a constant acceleration 2D Kalman filter
	PreFilterKalman
)

var preFilterNames = [...]string{
	PreFilterNone:   "none",
	PreFilterKalman: "kalman",
}

func (m PreFilterMethod) String() string {
	if int(m) < len(preFilterNames) {
		return preFilterNames[m]
	}
	return "unknown"
}

// ParsePreFilterMethod maps a name to pre-filter method
func ParsePreFilterMethod(name string) (PreFilterMethod, error) {
	for i, n := range preFilterNames {
		if n == name {
			return PreFilterMethod(i), nil
		}
	}
	return 0, errors.Wrapf(ErrConfiguration, "unknown pre-filter method %q", name)
}

// KalmanParams are Kalman filter props used for smoothing
type KalmanParams struct {
	// Control inputs (acceleration)
	Ux float64 `yaml:"ux"`
	Uy float64 `yaml:"uy"`
	// Process noise standard deviation
	StdDevA float64 `yaml:"std_dev_a"`
	// Measurement noise standard deviations
	StdDevMx float64 `yaml:"std_dev_mx"`
	StdDevMy float64 `yaml:"std_dev_my"`
}

// DefaultKalmanParams returns the same filter props blobs are tracked with
func DefaultKalmanParams() KalmanParams {
	return KalmanParams{
		Ux:       1.0,
		Uy:       1.0,
		StdDevA:  2.0,
		StdDevMx: 0.1,
		StdDevMy: 0.1,
	}
}

// SmoothKalman returns copy of track with positions replaced by Kalman filter state.
// Time step of the filter is the mean interval between observations.
func (track *Track) SmoothKalman(params KalmanParams) (*Track, error) {
	n := len(track.observations)
	if n < 2 {
		return track.Clone(), nil
	}
	dt := track.Age() / float64(n-1)
	first := track.observations[0].Position
	kf := kalman_filter.NewKalman2D(dt, params.Ux, params.Uy, params.StdDevA, params.StdDevMx, params.StdDevMy, kalman_filter.WithState2D(first.X, first.Y))
	positions := make([]Point, n)
	positions[0] = first
	for i := 1; i < n; i++ {
		kf.Predict()
		p := track.observations[i].Position
		err := kf.Update(p.X, p.Y)
		if err != nil {
			return nil, errors.Wrapf(err, "Can't smooth track %s at index %d", track.id, i)
		}
		stateX, stateY := kf.GetState()
		positions[i] = Point{X: stateX, Y: stateY}
	}
	return track.WithPositions(positions)
}

// MeasureParams bundles everything needed to turn a track into measurements
type MeasureParams struct {
	MinDist      float64
	Scoring      ScoringMethod
	Localization LocalizationMethod
	PreFilter    PreFilterMethod
	Kalman       KalmanParams
}

// DefaultMeasureParams returns midpoint localized, time scored, unfiltered measuring
func DefaultMeasureParams() MeasureParams {
	return MeasureParams{
		MinDist:      0.0,
		Scoring:      ScoringTime,
		Localization: LocalizeMidpoint,
		PreFilter:    PreFilterNone,
		Kalman:       DefaultKalmanParams(),
	}
}

// Measure applies pre-filter and extracts velocity measurements from track
func (params MeasureParams) Measure(track *Track) ([]Measurement, error) {
	source := track
	switch params.PreFilter {
	case PreFilterNone:
	case PreFilterKalman:
		smoothed, err := track.SmoothKalman(params.Kalman)
		if err != nil {
			return nil, err
		}
		source = smoothed
	default:
		return nil, errors.Wrapf(ErrConfiguration, "unknown pre-filter method %d", params.PreFilter)
	}
	return source.MeasureVelocity(params.MinDist, params.Scoring, params.Localization)
}
