// Package pipeline drives track and measurement databases with external detectors, trackers and approximators
package pipeline

import (
	"context"
	"image"

	"github.com/LdDl/lspiv-go/lspiv"
)

// Frame is a single image of a video stream
type Frame struct {
	Image image.Image
	// Seconds since start of stream
	Timestamp float64
}

// FrameSource yields frames in timestamp order
type FrameSource interface {
	// Next returns next frame. ok is false at the end of stream
	Next(ctx context.Context) (frame Frame, ok bool, err error)
}

// PointTracker continues points from previous frame onto the next one (e.g. pyramidal Lucas-Kanade)
type PointTracker interface {
	// Init loads the first frame of the stream
	Init(ctx context.Context, frame Frame) error
	// Track returns new positions aligned with points. nil means the point is lost
	Track(ctx context.Context, points []lspiv.Point, frame Frame) ([]*lspiv.Point, error)
}

// Detector finds new features to track
type Detector interface {
	// Detect returns features of frame. Points in exclude are already tracked and must be masked out
	Detect(ctx context.Context, frame Frame, exclude []lspiv.Point) ([]lspiv.Point, error)
}

// TrackTransform maps track into another coordinate system (undistortion, pixel to world, etc.)
type TrackTransform interface {
	Transform(track *lspiv.Track) (*lspiv.Track, error)
}

// TrackTransformFunc is an adapter to use ordinary functions as TrackTransform
type TrackTransformFunc func(track *lspiv.Track) (*lspiv.Track, error)

func (f TrackTransformFunc) Transform(track *lspiv.Track) (*lspiv.Track, error) {
	return f(track)
}

// Approximator reconstructs velocity field from sampled measurements
type Approximator interface {
	Approximate(ctx context.Context, measurements []lspiv.Measurement) error
}
