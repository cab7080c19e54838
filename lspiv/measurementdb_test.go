package lspiv

import (
	"math/rand"
	"sort"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestMeasurementDB(t *testing.T, capacity int) *MeasurementDB {
	t.Helper()
	db, err := NewMeasurementDB(MustNewGrid(400, 300, 4, 3), capacity)
	require.NoError(t, err)
	return db
}

func measurementAt(p Point, score float64, trackID uuid.UUID) Measurement {
	return Measurement{Point: p, Velocity: Point{X: 1, Y: 0}, Score: score, TrackID: trackID}
}

func TestNewMeasurementDBValidation(t *testing.T) {
	_, err := NewMeasurementDB(MustNewGrid(400, 300, 4, 3), 0)
	assert.ErrorIs(t, err, ErrConfiguration)
	_, err = NewMeasurementDB(Grid{}, 5)
	assert.ErrorIs(t, err, ErrConfiguration)
}

func TestAddMeasurementEvictsLowest(t *testing.T) {
	db := newTestMeasurementDB(t, 2)
	p := Point{X: 150, Y: 150}
	for _, score := range []float64{5, 3, 1} {
		db.AddMeasurement(measurementAt(p, score, uuid.New()))
	}
	cell := db.Grid().Bin(p)
	assert.Equal(t, map[Cell][]float64{cell: {5, 3}}, db.BinnedScores())

	best := db.GetMeasurements(1)
	require.Len(t, best, 1)
	assert.Equal(t, 5.0, best[0].Score)

	// Higher score pushes out the worst one
	db.AddMeasurement(measurementAt(p, 4, uuid.New()))
	assert.Equal(t, []float64{5, 4}, db.BinnedScores()[cell])
	assert.Equal(t, 2, db.Len())
}

func TestBinsStaySortedAndBounded(t *testing.T) {
	const capacity = 7
	db := newTestMeasurementDB(t, capacity)
	rnd := rand.New(rand.NewSource(42))
	tracks := []uuid.UUID{uuid.New(), uuid.New(), uuid.New(), uuid.New()}
	for i := 0; i < 2000; i++ {
		m := measurementAt(
			Point{X: rnd.Float64()*440 - 20, Y: rnd.Float64()*330 - 15},
			float64(rnd.Intn(50)),
			tracks[rnd.Intn(len(tracks))],
		)
		db.AddMeasurement(m)
		scores := db.BinnedScores()[db.Grid().Bin(m.Point)]
		require.LessOrEqual(t, len(scores), capacity)
		require.True(t, sort.SliceIsSorted(scores, func(i, j int) bool { return scores[i] > scores[j] }), "cell scores %v", scores)
	}
	assert.Len(t, db.Cells(), 12)
	assert.Equal(t, 12*capacity, db.Len())
}

func TestGetMeasurementsSingleBestPerCell(t *testing.T) {
	db := newTestMeasurementDB(t, 5)
	a, b := uuid.New(), uuid.New()
	db.AddMeasurements([]Measurement{
		measurementAt(Point{X: 10, Y: 10}, 2, a),
		measurementAt(Point{X: 20, Y: 20}, 8, b),
		measurementAt(Point{X: 350, Y: 250}, 1, a),
		measurementAt(Point{X: 360, Y: 260}, 3, a),
	})
	best := db.GetMeasurements(1)
	require.Len(t, best, 2)
	// Row-major cell order: (0,0) goes before (3,2)
	assert.Equal(t, 8.0, best[0].Score)
	assert.Equal(t, b, best[0].TrackID)
	assert.Equal(t, 3.0, best[1].Score)
}

func TestGetMeasurementsPrefersDistinctTracks(t *testing.T) {
	a, b := uuid.New(), uuid.New()
	p := Point{X: 120, Y: 120}

	t.Run("capacity 3", func(t *testing.T) {
		db := newTestMeasurementDB(t, 3)
		db.AddMeasurement(measurementAt(p, 9, a))
		db.AddMeasurement(measurementAt(p, 9, a))
		db.AddMeasurement(measurementAt(p, 7, b))
		selected := db.GetMeasurements(2)
		require.Len(t, selected, 2)
		assert.Equal(t, a, selected[0].TrackID)
		assert.Equal(t, b, selected[1].TrackID)
	})

	t.Run("three from the best track", func(t *testing.T) {
		db := newTestMeasurementDB(t, 4)
		for i := 0; i < 3; i++ {
			db.AddMeasurement(measurementAt(p, 9, a))
		}
		db.AddMeasurement(measurementAt(p, 7, b))
		selected := db.GetMeasurements(2)
		require.Len(t, selected, 2)
		assert.Equal(t, a, selected[0].TrackID)
		assert.Equal(t, b, selected[1].TrackID)

		// Distinct tracks are exhausted, rest is filled by score
		selected = db.GetMeasurements(3)
		require.Len(t, selected, 3)
		assert.Equal(t, []uuid.UUID{a, b, a}, []uuid.UUID{selected[0].TrackID, selected[1].TrackID, selected[2].TrackID})

		// Default quota is the cell capacity
		assert.Len(t, db.GetMeasurements(0), 4)
		assert.Len(t, db.GetMeasurements(10), 4)
	})
}

func TestGetMeasurementsIsPure(t *testing.T) {
	db := newTestMeasurementDB(t, 3)
	a := uuid.New()
	db.AddMeasurements([]Measurement{measurementAt(Point{X: 1, Y: 1}, 1, a), measurementAt(Point{X: 2, Y: 2}, 2, a)})
	first := db.GetMeasurements(2)
	second := db.GetMeasurements(2)
	assert.Equal(t, first, second)
	assert.Equal(t, 2, db.Len())
}

func TestCoverage(t *testing.T) {
	db := newTestMeasurementDB(t, 5)
	a, b, c := uuid.New(), uuid.New(), uuid.New()
	left := Point{X: 50, Y: 50}
	right := Point{X: 150, Y: 50}
	db.AddMeasurements([]Measurement{
		measurementAt(left, 9, a),
		measurementAt(left, 7, b),
		measurementAt(right, 9, a),
		measurementAt(right, 7, b),
		measurementAt(right, 5, c),
	})

	assert.Equal(t, []uuid.UUID{a, b}, db.GetUniqueCoverage(1))
	assert.Equal(t, []uuid.UUID{a}, db.GetCoverage(1))

	assert.Equal(t, []uuid.UUID{a, b, c}, db.GetUniqueCoverage(2))
	assert.Equal(t, []uuid.UUID{a, b}, db.GetCoverage(2))

	unique := db.GetUniqueCoverage(0)
	seen := make(map[uuid.UUID]struct{})
	for _, id := range unique {
		_, dup := seen[id]
		assert.False(t, dup, "duplicate track %s", id)
		seen[id] = struct{}{}
	}
	assert.Len(t, unique, 3)
}

func TestClearMeasurements(t *testing.T) {
	db := newTestMeasurementDB(t, 3)
	db.AddMeasurement(measurementAt(Point{X: 10, Y: 10}, 1, uuid.New()))
	require.Equal(t, 1, db.Len())
	db.ClearMeasurements()
	assert.Equal(t, 0, db.Len())
	assert.Empty(t, db.GetMeasurements(1))
	assert.Empty(t, db.Cells())
	assert.Empty(t, db.CellMeasurements(Cell{Col: 0, Row: 0}))
}

func TestSamplingFromHistoricalTracks(t *testing.T) {
	tdb := NewTrackDBDefault()
	tdb.AddNewTrackAt(Point{X: 0, Y: 50}, 0)
	tdb.AddNewTrackAt(Point{X: 0, Y: 150}, 0)
	for i := 1; i <= 90; i++ {
		require.NoError(t, tdb.UpdateActiveTracks(stepPoints(tdb, Point{X: 120}, fps30), float64(i)*fps30))
	}
	require.NoError(t, tdb.TerminateActiveTracks())
	require.Equal(t, 2, tdb.NumHistoricalTracks())

	mdb := newTestMeasurementDB(t, 10)
	params := DefaultMeasureParams()
	for _, track := range tdb.GetHistoricalTracks() {
		measurements, err := params.Measure(track)
		require.NoError(t, err)
		require.Len(t, measurements, 90)
		mdb.AddMeasurements(measurements)
	}
	// Both tracks cross all 4 columns of rows 0 and 1
	assert.Len(t, mdb.Cells(), 8)
	samples := mdb.GetMeasurements(1)
	require.Len(t, samples, 8)
	for _, m := range samples {
		assert.InDelta(t, 120.0, m.Velocity.X, 1e-6)
		assert.InDelta(t, 0.0, m.Velocity.Y, 1e-6)
	}
	assert.Len(t, mdb.GetUniqueCoverage(1), 2)
}
