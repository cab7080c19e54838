package storage

import (
	"context"

	"github.com/LdDl/lspiv-go/lspiv"
	"github.com/google/uuid"
	"github.com/pkg/errors"
	"go.uber.org/zap"
)

// SaveMeasurements replaces measurements of a sampling run
func (s *Store) SaveMeasurements(ctx context.Context, run string, measurements []lspiv.Measurement) error {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return errors.Wrap(err, "Can't begin transaction")
	}
	defer tx.Rollback()

	if _, err := tx.ExecContext(ctx, `DELETE FROM measurements WHERE run = ?`, run); err != nil {
		return errors.Wrapf(err, "Can't clear measurements of run %s", run)
	}
	stmt, err := tx.PrepareContext(ctx, `INSERT INTO measurements (run, x, y, vx, vy, score, track_id) VALUES (?, ?, ?, ?, ?, ?, ?)`)
	if err != nil {
		return errors.Wrap(err, "Can't prepare measurement statement")
	}
	defer stmt.Close()
	for i, m := range measurements {
		if _, err := stmt.ExecContext(ctx, run, m.Point.X, m.Point.Y, m.Velocity.X, m.Velocity.Y, m.Score, m.TrackID.String()); err != nil {
			return errors.Wrapf(err, "Can't save measurement %d of run %s", i, run)
		}
	}
	if err := tx.Commit(); err != nil {
		return errors.Wrap(err, "Can't commit measurements")
	}
	s.logger.Debug("Measurements saved", zap.String("run", run), zap.Int("measurements", len(measurements)))
	return nil
}

// LoadMeasurements returns measurements of a sampling run in saved order
func (s *Store) LoadMeasurements(ctx context.Context, run string) ([]lspiv.Measurement, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT x, y, vx, vy, score, track_id
		FROM measurements
		WHERE run = ?
		ORDER BY measurement_id
	`, run)
	if err != nil {
		return nil, errors.Wrapf(err, "Can't query measurements of run %s", run)
	}
	defer rows.Close()
	measurements := make([]lspiv.Measurement, 0)
	for rows.Next() {
		var m lspiv.Measurement
		var trackID string
		if err := rows.Scan(&m.Point.X, &m.Point.Y, &m.Velocity.X, &m.Velocity.Y, &m.Score, &trackID); err != nil {
			return nil, errors.Wrap(err, "Can't scan measurement")
		}
		if m.TrackID, err = uuid.Parse(trackID); err != nil {
			return nil, errors.Wrapf(err, "Can't parse track id %q", trackID)
		}
		measurements = append(measurements, m)
	}
	return measurements, rows.Err()
}

// Runs returns names of stored sampling runs
func (s *Store) Runs(ctx context.Context) ([]string, error) {
	rows, err := s.db.QueryContext(ctx, `SELECT DISTINCT run FROM measurements ORDER BY run`)
	if err != nil {
		return nil, errors.Wrap(err, "Can't query runs")
	}
	defer rows.Close()
	runs := make([]string, 0)
	for rows.Next() {
		var run string
		if err := rows.Scan(&run); err != nil {
			return nil, errors.Wrap(err, "Can't scan run")
		}
		runs = append(runs, run)
	}
	return runs, rows.Err()
}
