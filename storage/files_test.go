package storage

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/LdDl/lspiv-go/lspiv"
	"github.com/google/go-cmp/cmp"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestTrackFiles(t *testing.T) {
	dir := filepath.Join(t.TempDir(), "tracks", "raw")
	tracks := []*lspiv.Track{
		testTrack(t, lspiv.TrackStateHistorical, lspiv.Point{X: 1, Y: 2}, 4),
		testTrack(t, lspiv.TrackStateHistorical, lspiv.Point{X: 30, Y: 40}, 2),
	}
	require.NoError(t, SaveTrackFiles(dir, tracks))
	for _, track := range tracks {
		assert.FileExists(t, filepath.Join(dir, TrackFileName(track.GetID())))
	}
	// Unrelated files are ignored
	require.NoError(t, os.WriteFile(filepath.Join(dir, "notes.txt"), []byte("skip"), 0644))

	loaded, err := LoadTrackFiles(dir)
	require.NoError(t, err)
	require.Len(t, loaded, 2)
	byID := make(map[uuid.UUID]*lspiv.Track)
	for _, track := range loaded {
		byID[track.GetID()] = track
	}
	for _, track := range tracks {
		restored, ok := byID[track.GetID()]
		require.True(t, ok, "track %s is missing", track.GetID())
		assertSameTrack(t, track, restored)
	}
}

func TestLoadTrackFileInvalid(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "track_bad.json")
	require.NoError(t, os.WriteFile(path, []byte(`{"id":"`+uuid.NewString()+`","observations":[[0,0,1],[1,1,1]]}`), 0644))
	_, err := LoadTrackFile(path)
	assert.ErrorIs(t, err, lspiv.ErrInvalidObservation)

	_, err = LoadTrackFiles(dir)
	assert.Error(t, err)

	_, err = LoadTrackFile(filepath.Join(dir, "missing.json"))
	assert.Error(t, err)
}

func TestCopyTrackFiles(t *testing.T) {
	src := t.TempDir()
	dst := filepath.Join(t.TempDir(), "coverage")
	tracks := []*lspiv.Track{
		testTrack(t, lspiv.TrackStateHistorical, lspiv.Point{X: 0, Y: 0}, 3),
		testTrack(t, lspiv.TrackStateHistorical, lspiv.Point{X: 5, Y: 5}, 3),
	}
	require.NoError(t, SaveTrackFiles(src, tracks))
	require.NoError(t, CopyTrackFiles(src, dst, []uuid.UUID{tracks[1].GetID()}))

	copied, err := LoadTrackFiles(dst)
	require.NoError(t, err)
	require.Len(t, copied, 1)
	assertSameTrack(t, tracks[1], copied[0])

	assert.Error(t, CopyTrackFiles(src, dst, []uuid.UUID{uuid.New()}))
}

func TestDirSink(t *testing.T) {
	dir := filepath.Join(t.TempDir(), "pruned")
	track := testTrack(t, lspiv.TrackStateHistorical, lspiv.Point{X: 0, Y: 0}, 2)
	require.NoError(t, DirSink(dir).SinkTracks([]*lspiv.Track{track}))
	loaded, err := LoadTrackFile(filepath.Join(dir, TrackFileName(track.GetID())))
	require.NoError(t, err)
	assertSameTrack(t, track, loaded)
}

func TestMeasurementsFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "out", "measurements.json")
	measurements := []lspiv.Measurement{
		{Point: lspiv.Point{X: 3, Y: 4}, Velocity: lspiv.Point{X: -1.5, Y: 2}, Score: 0.75, TrackID: uuid.New()},
	}
	require.NoError(t, SaveMeasurementsFile(path, measurements))
	loaded, err := LoadMeasurementsFile(path)
	require.NoError(t, err)
	if diff := cmp.Diff(measurements, loaded); diff != "" {
		t.Errorf("measurements mismatch (-want +got):\n%s", diff)
	}
}
