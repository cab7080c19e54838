package main

import (
	"context"
	"io"
	"os"
	"path/filepath"
	"testing"

	"github.com/LdDl/lspiv-go/lspiv"
	"github.com/LdDl/lspiv-go/storage"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func execute(t *testing.T, args ...string) error {
	t.Helper()
	cmd := newRootCmd()
	cmd.SetArgs(args)
	cmd.SetOut(io.Discard)
	cmd.SetErr(io.Discard)
	return cmd.ExecuteContext(context.Background())
}

// riverTracks returns tracks flowing to the right, each along its own image row
func riverTracks(t *testing.T) []*lspiv.Track {
	t.Helper()
	tracks := make([]*lspiv.Track, 0, 3)
	for k, y := range []float64{100, 400, 800} {
		track := lspiv.NewTrack(lspiv.Point{X: 10, Y: y}, 0)
		for i := 1; i <= 60; i++ {
			tm := float64(i) / 30.0
			require.NoError(t, track.AddObservation(lspiv.Point{X: 10 + float64(100+50*k)*tm, Y: y}, tm))
		}
		tracks = append(tracks, track)
	}
	return tracks
}

func TestConfigInit(t *testing.T) {
	dir := t.TempDir()
	pipelinePath := filepath.Join(dir, "pipeline.yaml")
	approxPath := filepath.Join(dir, "approx.yaml")
	require.NoError(t, execute(t, "config", "init", "--pipeline", pipelinePath, "--approx", approxPath, "--input-dir", dir))
	assert.FileExists(t, pipelinePath)
	assert.FileExists(t, approxPath)

	assert.Error(t, execute(t, "config", "init"))
}

func TestSampleAndCoverageFromFiles(t *testing.T) {
	dir := t.TempDir()
	tracks := riverTracks(t)
	require.NoError(t, storage.SaveTrackFiles(filepath.Join(dir, "raw"), tracks))
	approxPath := filepath.Join(dir, "approx.yaml")
	require.NoError(t, execute(t, "config", "init", "--approx", approxPath, "--input-dir", dir))

	metricsPath := filepath.Join(dir, "metrics.prom")
	require.NoError(t, execute(t, "sample", "-c", approxPath, "--metrics-file", metricsPath))
	measurements, err := storage.LoadMeasurementsFile(filepath.Join(dir, "measurements.json"))
	require.NoError(t, err)
	assert.NotEmpty(t, measurements)
	metrics, err := os.ReadFile(metricsPath)
	require.NoError(t, err)
	assert.Contains(t, string(metrics), "lspiv_measurements_added_total")

	coverageDir := filepath.Join(dir, "coverage")
	require.NoError(t, execute(t, "coverage", "-c", approxPath, "-o", coverageDir))
	selected, err := storage.LoadTrackFiles(coverageDir)
	require.NoError(t, err)
	assert.Len(t, selected, len(tracks))

	assert.ErrorIs(t, execute(t, "sample", "-c", approxPath, "--run", "r1"), errRunWithoutDB)
	assert.Error(t, execute(t, "coverage", "-c", approxPath))
}

func TestSampleAndCoverageFromDatabase(t *testing.T) {
	ctx := context.Background()
	dir := t.TempDir()
	dbPath := filepath.Join(dir, "lspiv.db")
	store, err := storage.Open(ctx, dbPath, nil)
	require.NoError(t, err)
	tracks := riverTracks(t)
	require.NoError(t, store.SaveTracks(ctx, storage.SetRaw, tracks))
	require.NoError(t, store.Close())

	approxPath := filepath.Join(dir, "approx.yaml")
	require.NoError(t, execute(t, "config", "init", "--approx", approxPath, "--input-dir", dir))
	outPath := filepath.Join(dir, "out", "sample.json")
	require.NoError(t, execute(t, "sample", "-c", approxPath, "--db", dbPath, "--run", "r1", "-o", outPath, "--flip-y"))

	store, err = storage.Open(ctx, dbPath, nil)
	require.NoError(t, err)
	defer store.Close()
	stored, err := store.LoadMeasurements(ctx, "r1")
	require.NoError(t, err)
	fromFile, err := storage.LoadMeasurementsFile(outPath)
	require.NoError(t, err)
	assert.Equal(t, fromFile, stored)

	coverageDir := filepath.Join(dir, "coverage")
	require.NoError(t, execute(t, "coverage", "-c", approxPath, "--db", dbPath, "-o", coverageDir, "--plain"))
	selected, err := storage.LoadTrackFiles(coverageDir)
	require.NoError(t, err)
	assert.Len(t, selected, len(tracks))
}
