package pipeline

import (
	"context"
	"testing"

	"github.com/LdDl/lspiv-go/config"
	"github.com/LdDl/lspiv-go/lspiv"
	"github.com/google/go-cmp/cmp"
	"github.com/pkg/errors"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type recordingApproximator struct {
	measurements []lspiv.Measurement
	err          error
}

func (a *recordingApproximator) Approximate(ctx context.Context, measurements []lspiv.Measurement) error {
	a.measurements = measurements
	return a.err
}

func testApproximationConfig() *config.ApproximationConfig {
	cfg := config.DefaultApproximationConfig("in")
	cfg.ImageWidth = 400
	cfg.ImageHeight = 300
	cfg.Sampling.GridColumns = 4
	cfg.Sampling.GridRows = 3
	cfg.Sampling.BinCapacity = 5
	return cfg
}

// horizontalTrack moves along y with speed px/s for 2 seconds at 30 fps
func horizontalTrack(t *testing.T, y, speed float64) *lspiv.Track {
	t.Helper()
	track := lspiv.NewTrack(lspiv.Point{X: 0, Y: y}, 0)
	for i := 1; i <= 60; i++ {
		require.NoError(t, track.AddObservation(lspiv.Point{X: speed * float64(i) * fps30, Y: y}, float64(i)*fps30))
	}
	return track
}

func TestApproximationPipelineRun(t *testing.T) {
	tracks := []*lspiv.Track{
		horizontalTrack(t, 50, 150),
		horizontalTrack(t, 60, 180),
		horizontalTrack(t, 250, 150),
	}
	approximator := &recordingApproximator{}
	p, err := NewApproximationPipeline(testApproximationConfig(),
		WithTransforms(PixelCoordinateTransform{Height: 300}),
		WithApproximator(approximator),
		WithWorkers(2),
	)
	require.NoError(t, err)

	result, err := p.Run(context.Background(), tracks)
	require.NoError(t, err)
	// Tracks at y 50 and 60 share cells of the top image row, flipped to grid row 2
	cells := result.DB.Cells()
	require.NotEmpty(t, cells)
	for _, cell := range cells {
		assert.Contains(t, []int{0, 2}, cell.Row)
	}
	require.Len(t, result.Measurements, len(cells))
	assert.Equal(t, result.Measurements, approximator.measurements)
	for _, m := range result.Measurements {
		assert.InDelta(t, 0.0, m.Velocity.Y, 1e-9)
		assert.Greater(t, m.Velocity.X, 0.0)
	}

	// Binning order follows track order, not worker scheduling
	serial, err := NewApproximationPipeline(testApproximationConfig(), WithTransforms(PixelCoordinateTransform{Height: 300}), WithWorkers(1))
	require.NoError(t, err)
	serialResult, err := serial.Run(context.Background(), tracks)
	require.NoError(t, err)
	if diff := cmp.Diff(result.Measurements, serialResult.Measurements); diff != "" {
		t.Errorf("measurements mismatch (-parallel +serial):\n%s", diff)
	}
}

func TestApproximationPipelineErrors(t *testing.T) {
	tracks := []*lspiv.Track{horizontalTrack(t, 50, 150)}

	approximator := &recordingApproximator{err: errors.New("singular kernel")}
	p, err := NewApproximationPipeline(testApproximationConfig(), WithApproximator(approximator))
	require.NoError(t, err)
	_, err = p.Run(context.Background(), tracks)
	assert.ErrorIs(t, err, approximator.err)

	p, err = NewApproximationPipeline(testApproximationConfig(), WithTransforms(PixelCoordinateTransform{}))
	require.NoError(t, err)
	_, err = p.Run(context.Background(), tracks)
	assert.ErrorIs(t, err, lspiv.ErrConfiguration)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	p, err = NewApproximationPipeline(testApproximationConfig())
	require.NoError(t, err)
	_, err = p.Run(ctx, tracks)
	assert.ErrorIs(t, err, context.Canceled)

	cfg := testApproximationConfig()
	cfg.Measurement.Scoring = "speed"
	_, err = NewApproximationPipeline(cfg)
	assert.ErrorIs(t, err, lspiv.ErrConfiguration)
}

func TestPixelCoordinateTransform(t *testing.T) {
	track := horizontalTrack(t, 20, 30)
	flipped, err := PixelCoordinateTransform{Height: 100}.Transform(track)
	require.NoError(t, err)
	assert.Equal(t, track.GetID(), flipped.GetID())
	for _, p := range flipped.Positions() {
		assert.Equal(t, 80.0, p.Y)
	}
	// Source track is untouched
	assert.Equal(t, 20.0, track.Positions()[0].Y)

	twice, err := applyTransforms(track, []TrackTransform{PixelCoordinateTransform{Height: 100}, PixelCoordinateTransform{Height: 100}})
	require.NoError(t, err)
	assert.Equal(t, track.Positions(), twice.Positions())
}
