package pipeline

import (
	"github.com/LdDl/lspiv-go/lspiv"
	"github.com/pkg/errors"
)

// PixelCoordinateTransform moves image coordinates (origin at top-left, Y down) to
// Cartesian ones (origin at bottom-left, Y up) of an image with given height
type PixelCoordinateTransform struct {
	Height float64
}

func (t PixelCoordinateTransform) Transform(track *lspiv.Track) (*lspiv.Track, error) {
	if t.Height <= 0 {
		return nil, errors.Wrapf(lspiv.ErrConfiguration, "image height must be positive, got %v", t.Height)
	}
	positions := track.Positions()
	for i := range positions {
		positions[i].Y = t.Height - positions[i].Y
	}
	return track.WithPositions(positions)
}

// applyTransforms runs transforms in order
func applyTransforms(track *lspiv.Track, transforms []TrackTransform) (*lspiv.Track, error) {
	var err error
	for _, t := range transforms {
		track, err = t.Transform(track)
		if err != nil {
			return nil, err
		}
	}
	return track, nil
}
