package lspiv

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParsePreFilterMethod(t *testing.T) {
	m, err := ParsePreFilterMethod("kalman")
	require.NoError(t, err)
	assert.Equal(t, PreFilterKalman, m)
	assert.Equal(t, "none", PreFilterNone.String())

	_, err = ParsePreFilterMethod("savgol")
	assert.ErrorIs(t, err, ErrConfiguration)
}

func TestSmoothKalmanKeepsTiming(t *testing.T) {
	raw := linearTrack(t, Point{X: 10, Y: 20}, Point{X: 90, Y: 30}, 0.5, fps30, 45)
	smoothed, err := raw.SmoothKalman(DefaultKalmanParams())
	require.NoError(t, err)

	assert.Equal(t, raw.GetID(), smoothed.GetID())
	require.Equal(t, raw.Size(), smoothed.Size())
	rawObs, smoothObs := raw.Observations(), smoothed.Observations()
	assert.Equal(t, rawObs[0], smoothObs[0])
	for i := range rawObs {
		assert.Equal(t, rawObs[i].Time, smoothObs[i].Time)
		// Measurement noise is low, so the state sticks to observations
		assert.InDelta(t, rawObs[i].Position.X, smoothObs[i].Position.X, 5.0, "x at index %d", i)
		assert.InDelta(t, rawObs[i].Position.Y, smoothObs[i].Position.Y, 5.0, "y at index %d", i)
	}
	// Source track is untouched
	assert.Equal(t, rawObs, raw.Observations())
}

func TestSmoothKalmanShortTrack(t *testing.T) {
	track := NewTrack(Point{X: 1, Y: 1}, 0)
	smoothed, err := track.SmoothKalman(DefaultKalmanParams())
	require.NoError(t, err)
	assert.Equal(t, track.Observations(), smoothed.Observations())
}

func TestMeasureParams(t *testing.T) {
	track := linearTrack(t, Point{X: 0, Y: 0}, Point{X: 60, Y: 0}, 0, fps30, 31)

	params := DefaultMeasureParams()
	measurements, err := params.Measure(track)
	require.NoError(t, err)
	require.Len(t, measurements, 30)
	for _, m := range measurements {
		assert.InDelta(t, 60.0, m.Velocity.X, 1e-6)
		assert.InDelta(t, track.Age(), m.Score, 1e-9)
		assert.Equal(t, track.GetID(), m.TrackID)
	}

	params.PreFilter = PreFilterKalman
	measurements, err = params.Measure(track)
	require.NoError(t, err)
	assert.Len(t, measurements, 30)

	params.PreFilter = PreFilterMethod(42)
	_, err = params.Measure(track)
	assert.ErrorIs(t, err, ErrConfiguration)
}
