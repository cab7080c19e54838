package storage

import (
	"encoding/json"
	"fmt"
	"io"
	"os"
	"path/filepath"

	"github.com/LdDl/lspiv-go/lspiv"
	"github.com/google/uuid"
	"github.com/pkg/errors"
)

const trackFilePattern = "track_*.json"

// TrackFileName returns name of a track file: track_<id>.json
func TrackFileName(id uuid.UUID) string {
	return fmt.Sprintf("track_%s.json", id)
}

// SaveTrackFile writes track as JSON
func SaveTrackFile(path string, track *lspiv.Track) error {
	data, err := json.Marshal(track)
	if err != nil {
		return errors.Wrapf(err, "Can't marshal track %s", track.GetID())
	}
	if err := os.WriteFile(path, data, 0644); err != nil {
		return errors.Wrapf(err, "Can't write track file %s", path)
	}
	return nil
}

// LoadTrackFile reads track from JSON file
func LoadTrackFile(path string) (*lspiv.Track, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, errors.Wrapf(err, "Can't read track file %s", path)
	}
	track := &lspiv.Track{}
	if err := json.Unmarshal(data, track); err != nil {
		return nil, errors.Wrapf(err, "Can't parse track file %s", path)
	}
	return track, nil
}

// SaveTrackFiles writes every track into dir as track_<id>.json
func SaveTrackFiles(dir string, tracks []*lspiv.Track) error {
	if err := os.MkdirAll(dir, 0755); err != nil {
		return errors.Wrapf(err, "Can't create track directory %s", dir)
	}
	for _, track := range tracks {
		if err := SaveTrackFile(filepath.Join(dir, TrackFileName(track.GetID())), track); err != nil {
			return err
		}
	}
	return nil
}

// LoadTrackFiles reads every track_*.json file of dir in lexical order
func LoadTrackFiles(dir string) ([]*lspiv.Track, error) {
	paths, err := filepath.Glob(filepath.Join(dir, trackFilePattern))
	if err != nil {
		return nil, errors.Wrapf(err, "Can't list track files of %s", dir)
	}
	tracks := make([]*lspiv.Track, 0, len(paths))
	for _, path := range paths {
		track, err := LoadTrackFile(path)
		if err != nil {
			return nil, err
		}
		tracks = append(tracks, track)
	}
	return tracks, nil
}

// CopyTrackFiles copies track files of given tracks from srcDir to dstDir
func CopyTrackFiles(srcDir, dstDir string, ids []uuid.UUID) error {
	if err := os.MkdirAll(dstDir, 0755); err != nil {
		return errors.Wrapf(err, "Can't create track directory %s", dstDir)
	}
	for _, id := range ids {
		name := TrackFileName(id)
		if err := copyFile(filepath.Join(srcDir, name), filepath.Join(dstDir, name)); err != nil {
			return err
		}
	}
	return nil
}

func copyFile(src, dst string) error {
	in, err := os.Open(src)
	if err != nil {
		return errors.Wrapf(err, "Can't open %s", src)
	}
	defer in.Close()
	out, err := os.Create(dst)
	if err != nil {
		return errors.Wrapf(err, "Can't create %s", dst)
	}
	if _, err := io.Copy(out, in); err != nil {
		out.Close()
		return errors.Wrapf(err, "Can't copy %s to %s", src, dst)
	}
	return out.Close()
}

// SaveMeasurementsFile writes measurements as JSON array
func SaveMeasurementsFile(path string, measurements []lspiv.Measurement) error {
	if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
		return errors.Wrapf(err, "Can't create directory for %s", path)
	}
	data, err := json.Marshal(measurements)
	if err != nil {
		return errors.Wrap(err, "Can't marshal measurements")
	}
	if err := os.WriteFile(path, data, 0644); err != nil {
		return errors.Wrapf(err, "Can't write measurements file %s", path)
	}
	return nil
}

// LoadMeasurementsFile reads measurements from JSON array file
func LoadMeasurementsFile(path string) ([]lspiv.Measurement, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, errors.Wrapf(err, "Can't read measurements file %s", path)
	}
	measurements := make([]lspiv.Measurement, 0)
	if err := json.Unmarshal(data, &measurements); err != nil {
		return nil, errors.Wrapf(err, "Can't parse measurements file %s", path)
	}
	return measurements, nil
}
