package storage

import (
	"context"

	"github.com/LdDl/lspiv-go/lspiv"
)

// Sink returns track sink saving pruned tracks into the pruned set of the store
func (s *Store) Sink(ctx context.Context) lspiv.TrackSink {
	return lspiv.TrackSinkFunc(func(tracks []*lspiv.Track) error {
		return s.SaveTracks(ctx, SetPruned, tracks)
	})
}

// DirSink returns track sink writing pruned tracks as JSON files into dir
func DirSink(dir string) lspiv.TrackSink {
	return lspiv.TrackSinkFunc(func(tracks []*lspiv.Track) error {
		return SaveTrackFiles(dir, tracks)
	})
}
