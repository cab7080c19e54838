package lspiv

import (
	"sort"

	"github.com/google/uuid"
	"github.com/pkg/errors"
	"go.uber.org/zap"
)

// MeasurementDB bins measurements by grid cell and keeps at most cellCapacity best scored ones per cell.
//
// Cells are visited in row-major order (row, then column) by every getter, so results are reproducible.
// MeasurementDB is not safe for concurrent use.
type MeasurementDB struct {
	grid         Grid
	cellCapacity int
	bins         map[Cell]*rankedList[Measurement]
	// Insertion counter, tie-break for equal scores
	seq     uint64
	logger  *zap.Logger
	metrics *Metrics
}

// NewMeasurementDB creates new instance of MeasurementDB
func NewMeasurementDB(grid Grid, cellCapacity int, opts ...Option) (*MeasurementDB, error) {
	if cellCapacity < 1 {
		return nil, errors.Wrapf(ErrConfiguration, "cell capacity must be positive, got %d", cellCapacity)
	}
	if grid.Columns() < 1 || grid.Rows() < 1 {
		return nil, errors.Wrap(ErrConfiguration, "grid is not initialized, use NewGrid")
	}
	o := defaultOptions()
	for _, opt := range opts {
		opt(&o)
	}
	return &MeasurementDB{
		grid:         grid,
		cellCapacity: cellCapacity,
		bins:         make(map[Cell]*rankedList[Measurement]),
		logger:       o.logger,
		metrics:      o.metrics,
	}, nil
}

// Grid returns grid measurements are binned with
func (db *MeasurementDB) Grid() Grid {
	return db.grid
}

// CellCapacity returns max number of measurements kept per cell
func (db *MeasurementDB) CellCapacity() int {
	return db.cellCapacity
}

// AddMeasurement inserts measurement into its cell. When the cell overflows, the lowest scored
// measurement is evicted (the latest added one among equal scores).
func (db *MeasurementDB) AddMeasurement(m Measurement) {
	cell := db.grid.Bin(m.Point)
	bin, ok := db.bins[cell]
	if !ok {
		bin = &rankedList[Measurement]{}
		db.bins[cell] = bin
	}
	db.seq++
	bin.Insert(m, m.Score, db.seq)
	evicted := false
	if bin.Len() > db.cellCapacity {
		bin.PopWorst()
		evicted = true
	}
	db.metrics.measurementAdded(evicted)
}

// AddMeasurements inserts every measurement
func (db *MeasurementDB) AddMeasurements(measurements []Measurement) {
	for i := range measurements {
		db.AddMeasurement(measurements[i])
	}
	db.logger.Debug("Measurements added", zap.Int("added", len(measurements)), zap.Int("cells", len(db.bins)))
}

// ClearMeasurements drops every cell. The only way to reuse the store for a new sampling pass.
func (db *MeasurementDB) ClearMeasurements() {
	db.bins = make(map[Cell]*rankedList[Measurement])
	db.seq = 0
}

// Len returns total number of stored measurements
func (db *MeasurementDB) Len() int {
	total := 0
	for _, bin := range db.bins {
		total += bin.Len()
	}
	return total
}

// Cells returns non-empty cells in row-major order
func (db *MeasurementDB) Cells() []Cell {
	cells := make([]Cell, 0, len(db.bins))
	for cell, bin := range db.bins {
		if bin.Len() > 0 {
			cells = append(cells, cell)
		}
	}
	sort.Slice(cells, func(i, j int) bool {
		if cells[i].Row != cells[j].Row {
			return cells[i].Row < cells[j].Row
		}
		return cells[i].Col < cells[j].Col
	})
	return cells
}

// CellMeasurements returns stored measurements of a cell, best first
func (db *MeasurementDB) CellMeasurements(cell Cell) []Measurement {
	bin, ok := db.bins[cell]
	if !ok {
		return []Measurement{}
	}
	return bin.Values()
}

// BinnedScores returns scores of every non-empty cell, best first
func (db *MeasurementDB) BinnedScores() map[Cell][]float64 {
	scores := make(map[Cell][]float64, len(db.bins))
	for cell, bin := range db.bins {
		scores[cell] = bin.Scores()
	}
	return scores
}

func (db *MeasurementDB) quota(measurementsPerCell int) int {
	if measurementsPerCell <= 0 {
		return db.cellCapacity
	}
	return measurementsPerCell
}

// GetMeasurements selects up to measurementsPerCell measurements from every cell.
// Non-positive measurementsPerCell means the cell capacity.
//
// For a single measurement per cell the best one is taken. Otherwise selection is diversity-first:
// the best measurement, then next best ones from tracks not selected yet in this cell, and only when
// distinct tracks are exhausted the remaining quota is filled by score regardless of track.
func (db *MeasurementDB) GetMeasurements(measurementsPerCell int) []Measurement {
	quota := db.quota(measurementsPerCell)
	measurements := make([]Measurement, 0)
	for _, cell := range db.Cells() {
		bin := *db.bins[cell]
		if quota == 1 {
			best, _ := bin.Best()
			measurements = append(measurements, best.value)
			continue
		}
		measurements = append(measurements, selectDiverse(bin, quota)...)
	}
	return measurements
}

func selectDiverse(bin rankedList[Measurement], quota int) []Measurement {
	selected := make([]Measurement, 0, min(quota, bin.Len()))
	taken := make([]bool, bin.Len())
	seenTracks := make(map[uuid.UUID]struct{})
	for i := range bin {
		if len(selected) == quota {
			return selected
		}
		trackID := bin[i].value.TrackID
		if _, ok := seenTracks[trackID]; ok {
			continue
		}
		seenTracks[trackID] = struct{}{}
		taken[i] = true
		selected = append(selected, bin[i].value)
	}
	for i := range bin {
		if len(selected) == quota {
			break
		}
		if taken[i] {
			continue
		}
		selected = append(selected, bin[i].value)
	}
	return selected
}

// GetUniqueCoverage returns distinct track identifiers sampled with up to measurementsPerCell tracks
// per cell. A track claimed by an earlier cell can't be claimed again by a later one.
func (db *MeasurementDB) GetUniqueCoverage(measurementsPerCell int) []uuid.UUID {
	quota := db.quota(measurementsPerCell)
	claimed := make(map[uuid.UUID]struct{})
	coverage := make([]uuid.UUID, 0)
	for _, cell := range db.Cells() {
		picked := 0
		for _, item := range *db.bins[cell] {
			if picked == quota {
				break
			}
			trackID := item.value.TrackID
			if _, ok := claimed[trackID]; ok {
				continue
			}
			claimed[trackID] = struct{}{}
			coverage = append(coverage, trackID)
			picked++
		}
	}
	return coverage
}

// GetCoverage returns distinct track identifiers sampled with up to measurementsPerCell distinct
// tracks per cell. Unlike GetUniqueCoverage every cell chooses independently of other cells.
func (db *MeasurementDB) GetCoverage(measurementsPerCell int) []uuid.UUID {
	quota := db.quota(measurementsPerCell)
	seen := make(map[uuid.UUID]struct{})
	coverage := make([]uuid.UUID, 0)
	for _, cell := range db.Cells() {
		cellTracks := make(map[uuid.UUID]struct{}, quota)
		for _, item := range *db.bins[cell] {
			if len(cellTracks) == quota {
				break
			}
			trackID := item.value.TrackID
			if _, ok := cellTracks[trackID]; ok {
				continue
			}
			cellTracks[trackID] = struct{}{}
			if _, ok := seen[trackID]; !ok {
				seen[trackID] = struct{}{}
				coverage = append(coverage, trackID)
			}
		}
	}
	return coverage
}
