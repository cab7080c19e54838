package storage

import (
	"context"
	"database/sql"

	"github.com/LdDl/lspiv-go/lspiv"
	"github.com/google/uuid"
	"github.com/pkg/errors"
	"go.uber.org/zap"
)

// ErrTrackNotFound is returned when there is no track with requested identifier
var ErrTrackNotFound = errors.New("track not found")

const (
	// SetRaw holds tracks kept by the track database until the end of stream
	SetRaw = "raw"
	// SetPruned holds tracks removed from the historical store by pruning
	SetPruned = "pruned"
)

// SaveTracks stores tracks under given set. Existing tracks with the same identifier are replaced.
func (s *Store) SaveTracks(ctx context.Context, set string, tracks []*lspiv.Track) error {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return errors.Wrap(err, "Can't begin transaction")
	}
	defer tx.Rollback()

	trackStmt, err := tx.PrepareContext(ctx, `
		INSERT INTO tracks (track_id, track_set, state, size, age)
		VALUES (?, ?, ?, ?, ?)
		ON CONFLICT (track_id) DO UPDATE SET
			track_set = excluded.track_set,
			state = excluded.state,
			size = excluded.size,
			age = excluded.age
	`)
	if err != nil {
		return errors.Wrap(err, "Can't prepare track statement")
	}
	defer trackStmt.Close()
	clearStmt, err := tx.PrepareContext(ctx, `DELETE FROM track_observations WHERE track_id = ?`)
	if err != nil {
		return errors.Wrap(err, "Can't prepare cleanup statement")
	}
	defer clearStmt.Close()
	obsStmt, err := tx.PrepareContext(ctx, `INSERT INTO track_observations (track_id, idx, x, y, t) VALUES (?, ?, ?, ?, ?)`)
	if err != nil {
		return errors.Wrap(err, "Can't prepare observation statement")
	}
	defer obsStmt.Close()

	for _, track := range tracks {
		id := track.GetID().String()
		if _, err := trackStmt.ExecContext(ctx, id, set, track.GetState().String(), track.Size(), track.Age()); err != nil {
			return errors.Wrapf(err, "Can't save track %s", id)
		}
		if _, err := clearStmt.ExecContext(ctx, id); err != nil {
			return errors.Wrapf(err, "Can't clear observations of track %s", id)
		}
		for i, o := range track.Observations() {
			if _, err := obsStmt.ExecContext(ctx, id, i, o.Position.X, o.Position.Y, o.Time); err != nil {
				return errors.Wrapf(err, "Can't save observation %d of track %s", i, id)
			}
		}
	}
	if err := tx.Commit(); err != nil {
		return errors.Wrap(err, "Can't commit tracks")
	}
	s.logger.Debug("Tracks saved", zap.String("set", set), zap.Int("tracks", len(tracks)))
	return nil
}

// LoadTracks returns tracks of given set in the order they were first saved
func (s *Store) LoadTracks(ctx context.Context, set string) ([]*lspiv.Track, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT t.track_id, t.state, o.x, o.y, o.t
		FROM tracks t
		JOIN track_observations o ON o.track_id = t.track_id
		WHERE t.track_set = ?
		ORDER BY t.rowid, o.idx
	`, set)
	if err != nil {
		return nil, errors.Wrapf(err, "Can't query tracks of set %s", set)
	}
	defer rows.Close()
	tracks, err := scanTracks(rows)
	if err != nil {
		return nil, errors.Wrapf(err, "Can't load tracks of set %s", set)
	}
	return tracks, nil
}

// LoadTrack returns single track by its identifier
func (s *Store) LoadTrack(ctx context.Context, id uuid.UUID) (*lspiv.Track, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT t.track_id, t.state, o.x, o.y, o.t
		FROM tracks t
		JOIN track_observations o ON o.track_id = t.track_id
		WHERE t.track_id = ?
		ORDER BY o.idx
	`, id.String())
	if err != nil {
		return nil, errors.Wrapf(err, "Can't query track %s", id)
	}
	defer rows.Close()
	tracks, err := scanTracks(rows)
	if err != nil {
		return nil, errors.Wrapf(err, "Can't load track %s", id)
	}
	if len(tracks) == 0 {
		return nil, errors.Wrapf(ErrTrackNotFound, "track %s", id)
	}
	return tracks[0], nil
}

// CountTracks returns number of tracks in every set
func (s *Store) CountTracks(ctx context.Context) (map[string]int, error) {
	rows, err := s.db.QueryContext(ctx, `SELECT track_set, COUNT(*) FROM tracks GROUP BY track_set`)
	if err != nil {
		return nil, errors.Wrap(err, "Can't count tracks")
	}
	defer rows.Close()
	counts := make(map[string]int)
	for rows.Next() {
		var set string
		var n int
		if err := rows.Scan(&set, &n); err != nil {
			return nil, errors.Wrap(err, "Can't scan track count")
		}
		counts[set] = n
	}
	return counts, rows.Err()
}

// DeleteTracks removes tracks with their observations
func (s *Store) DeleteTracks(ctx context.Context, ids []uuid.UUID) error {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return errors.Wrap(err, "Can't begin transaction")
	}
	defer tx.Rollback()
	for _, id := range ids {
		if _, err := tx.ExecContext(ctx, `DELETE FROM tracks WHERE track_id = ?`, id.String()); err != nil {
			return errors.Wrapf(err, "Can't delete track %s", id)
		}
	}
	return tx.Commit()
}

// scanTracks groups consecutive (id, state, x, y, t) rows into tracks
func scanTracks(rows *sql.Rows) ([]*lspiv.Track, error) {
	var (
		tracks       []*lspiv.Track
		currentID    string
		currentState string
		observations []lspiv.Observation
	)
	flush := func() error {
		if currentID == "" {
			return nil
		}
		track, err := restoreTrack(currentID, currentState, observations)
		if err != nil {
			return err
		}
		tracks = append(tracks, track)
		return nil
	}
	for rows.Next() {
		var id, state string
		var o lspiv.Observation
		if err := rows.Scan(&id, &state, &o.Position.X, &o.Position.Y, &o.Time); err != nil {
			return nil, errors.Wrap(err, "Can't scan observation")
		}
		if id != currentID {
			if err := flush(); err != nil {
				return nil, err
			}
			currentID, currentState = id, state
			observations = make([]lspiv.Observation, 0, 32)
		}
		observations = append(observations, o)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	if err := flush(); err != nil {
		return nil, err
	}
	return tracks, nil
}

func restoreTrack(id, state string, observations []lspiv.Observation) (*lspiv.Track, error) {
	trackID, err := uuid.Parse(id)
	if err != nil {
		return nil, errors.Wrapf(err, "Can't parse track id %q", id)
	}
	trackState, err := lspiv.ParseTrackState(state)
	if err != nil {
		return nil, err
	}
	return lspiv.RestoreTrack(trackID, trackState, observations)
}
