package lspiv

import (
	"github.com/pkg/errors"
	"go.uber.org/zap"
)

// Names of retirement gates. Also used as metric outcome labels.
const (
	gateAge          = "age"
	gateDisplacement = "displacement"
	gateSpeed        = "speed"
	gateMeandering   = "meandering"
	outcomeHistoric  = "historical"
)

// TrackFilter holds retirement gates and capacity of the historical store
type TrackFilter struct {
	// Max time (seconds) a track may go unseen before it is retired. Default 0.004 allows 1 frame drop on 30 fps video
	HistoricalThreshold float64
	// Minimum age of historical tracks (seconds)
	MinAge float64
	// Minimum total displacement of historical tracks
	MinDisplacement float64
	// Minimum average speed of historical tracks
	MinSpeed float64
	// Minimum displacement/distance ratio of historical tracks
	MeanderingRatio float64
	// Historical store is pruned once it holds more than MaxTracks
	MaxTracks int
	// Number of best tracks kept by automatic pruning. Zero means MaxTracks/2
	RetainTracks int
}

// DefaultTrackFilter returns default gates
func DefaultTrackFilter() TrackFilter {
	return TrackFilter{
		HistoricalThreshold: 0.004,
		MinAge:              1.55,
		MinDisplacement:     100.0,
		MinSpeed:            1.0,
		MeanderingRatio:     0.9,
		MaxTracks:           20000,
	}
}

// Validate checks filter for consistency
func (f TrackFilter) Validate() error {
	if f.HistoricalThreshold < 0 {
		return errors.Wrapf(ErrConfiguration, "historical threshold must be non-negative, got %v", f.HistoricalThreshold)
	}
	if f.MaxTracks < 1 {
		return errors.Wrapf(ErrConfiguration, "max tracks must be positive, got %d", f.MaxTracks)
	}
	if f.RetainTracks < 0 || f.RetainTracks > f.MaxTracks {
		return errors.Wrapf(ErrConfiguration, "retain tracks must be in [0, %d], got %d", f.MaxTracks, f.RetainTracks)
	}
	return nil
}

func (f TrackFilter) retainTracks() int {
	if f.RetainTracks > 0 {
		return f.RetainTracks
	}
	return f.MaxTracks / 2
}

// TrackDB manages lifecycle of tracks: active and lost ones are updated every frame,
// retired ones are either discarded or moved to the bounded historical store.
//
// TrackDB is not safe for concurrent use. It is meant to be driven by a single frame loop.
type TrackDB struct {
	filter  TrackFilter
	scoring ScoringMethod
	// Active and lost tracks. Order is aligned with GetActiveEndpoints
	active []*Track
	// Historical tracks, best score first
	historical rankedList[*Track]
	lastFrame  float64
	hasFrame   bool
	sink       TrackSink
	logger     *zap.Logger
	metrics    *Metrics
}

// NewTrackDB creates new instance of TrackDB
func NewTrackDB(filter TrackFilter, opts ...Option) (*TrackDB, error) {
	if err := filter.Validate(); err != nil {
		return nil, err
	}
	o := defaultOptions()
	for _, opt := range opts {
		opt(&o)
	}
	if _, err := scoringFunc(o.scoring); err != nil {
		return nil, err
	}
	return &TrackDB{
		filter:     filter,
		scoring:    o.scoring,
		active:     make([]*Track, 0),
		historical: make(rankedList[*Track], 0),
		sink:       o.sink,
		logger:     o.logger,
		metrics:    o.metrics,
	}, nil
}

// NewTrackDBDefault creates TrackDB with default filter
func NewTrackDBDefault() *TrackDB {
	db, err := NewTrackDB(DefaultTrackFilter())
	if err != nil {
		panic("should be impossible")
	}
	return db
}

// Filter returns retirement gates in use
func (db *TrackDB) Filter() TrackFilter {
	return db.filter
}

// AddNewTrack registers a freshly detected track as active
func (db *TrackDB) AddNewTrack(track *Track) {
	track.state = TrackStateActive
	db.active = append(db.active, track)
	db.metrics.setTrackCounts(len(db.active), db.historical.Len())
}

// AddNewTracks registers freshly detected tracks as active
func (db *TrackDB) AddNewTracks(tracks []*Track) {
	for _, track := range tracks {
		track.state = TrackStateActive
	}
	db.active = append(db.active, tracks...)
	db.metrics.setTrackCounts(len(db.active), db.historical.Len())
}

// AddNewTrackAt creates and registers a track from a single detection
func (db *TrackDB) AddNewTrackAt(position Point, time float64) *Track {
	track := NewTrack(position, time)
	db.AddNewTrack(track)
	return track
}

// UpdateActiveTracks applies one frame of tracker output. points must be aligned by index with
// GetActiveEndpoints: nil means the tracker failed to continue that track on this frame.
//
// Continued tracks become active, missing ones stay lost within HistoricalThreshold and are retired
// after it. The active set is replaced by the surviving tracks. Nothing is mutated when the
// input violates the contract.
func (db *TrackDB) UpdateActiveTracks(points []*Point, timestamp float64) error {
	if len(points) != len(db.active) {
		return errors.Wrapf(ErrPrecondition, "points and active tracks arrays must have the same length. Points array size: %d. Active tracks array size: %d", len(points), len(db.active))
	}
	if db.hasFrame && !(timestamp > db.lastFrame) {
		return errors.Wrapf(ErrPrecondition, "frame time %v is not after previous frame %v", timestamp, db.lastFrame)
	}
	for i, track := range db.active {
		if points[i] != nil && !(timestamp > track.LastSeen()) {
			return errors.Wrapf(ErrPrecondition, "frame time %v is not after last seen %v of track %s", timestamp, track.LastSeen(), track.id)
		}
	}

	updatedTracks := make([]*Track, 0, len(db.active))
	for i, track := range db.active {
		if points[i] != nil {
			if err := track.AddObservation(*points[i], timestamp); err != nil {
				return errors.Wrap(ErrPrecondition, err.Error())
			}
			track.state = TrackStateActive
			updatedTracks = append(updatedTracks, track)
			continue
		}
		if timestamp-track.LastSeen() <= db.filter.HistoricalThreshold {
			track.state = TrackStateLost
			updatedTracks = append(updatedTracks, track)
			continue
		}
		db.retire(track)
	}
	db.active = updatedTracks
	db.lastFrame = timestamp
	db.hasFrame = true

	db.logger.Debug("Tracks updated",
		zap.Float64("timestamp", timestamp),
		zap.Int("active", len(db.active)),
		zap.Int("historical", db.historical.Len()))
	return db.pruneIfFull()
}

// TerminateActiveTracks retires every active and lost track without waiting for the grace period.
// Used once at the end of stream.
func (db *TrackDB) TerminateActiveTracks() error {
	for _, track := range db.active {
		db.retire(track)
	}
	db.active = make([]*Track, 0)
	db.logger.Debug("Active tracks terminated", zap.Int("historical", db.historical.Len()))
	return db.pruneIfFull()
}

// PruneTracks keeps numTracks best historical tracks. Removed tracks go to the sink when it is set.
func (db *TrackDB) PruneTracks(numTracks int) error {
	if numTracks < 0 {
		return errors.Wrapf(ErrPrecondition, "number of tracks to keep must be non-negative, got %d", numTracks)
	}
	removedItems := db.historical.Truncate(numTracks)
	db.metrics.setTrackCounts(len(db.active), db.historical.Len())
	if len(removedItems) == 0 {
		return nil
	}
	removed := make([]*Track, len(removedItems))
	for i := range removedItems {
		removed[i] = removedItems[i].value
	}
	db.metrics.trackPruned(len(removed))
	db.logger.Info("Historical tracks pruned", zap.Int("removed", len(removed)), zap.Int("kept", db.historical.Len()))
	if db.sink != nil {
		if err := db.sink.SinkTracks(removed); err != nil {
			return errors.Wrapf(err, "Can't sink %d pruned tracks", len(removed))
		}
	}
	return nil
}

func (db *TrackDB) pruneIfFull() error {
	defer db.metrics.setTrackCounts(len(db.active), db.historical.Len())
	if db.historical.Len() <= db.filter.MaxTracks {
		return nil
	}
	return db.PruneTracks(db.filter.retainTracks())
}

// retire runs quality gates and either stores track as historical or discards it
func (db *TrackDB) retire(track *Track) {
	gate := db.failedGate(track)
	if gate != "" {
		track.state = TrackStateDiscarded
		db.metrics.trackRetired(gate)
		db.logger.Debug("Track discarded", zap.Stringer("id", track.id), zap.String("gate", gate))
		return
	}
	track.state = TrackStateHistorical
	score, _ := track.Score(db.scoring)
	db.historical.Insert(track, score, track.seq)
	db.metrics.trackRetired(outcomeHistoric)
	db.logger.Debug("Track moved to historical store", zap.Stringer("id", track.id), zap.Float64("score", score))
}

// failedGate returns name of the first failed gate or empty string if track passes all of them
func (db *TrackDB) failedGate(track *Track) string {
	if track.Age() < db.filter.MinAge {
		return gateAge
	}
	if track.Displacement() < db.filter.MinDisplacement {
		return gateDisplacement
	}
	if track.AvgSpeed() < db.filter.MinSpeed {
		return gateSpeed
	}
	ratio, err := track.MeanderingRatio()
	if err != nil {
		db.logger.Debug("Degenerate track geometry", zap.Error(err))
		return gateMeandering
	}
	if ratio < db.filter.MeanderingRatio {
		return gateMeandering
	}
	return ""
}

// GetActiveTracks returns active and lost tracks in endpoint order
func (db *TrackDB) GetActiveTracks() []*Track {
	tracks := make([]*Track, len(db.active))
	copy(tracks, db.active)
	return tracks
}

// NumActiveTracks returns number of active and lost tracks
func (db *TrackDB) NumActiveTracks() int {
	return len(db.active)
}

// GetHistoricalTracks returns historical tracks, best score first
func (db *TrackDB) GetHistoricalTracks() []*Track {
	return db.historical.Values()
}

// NumHistoricalTracks returns size of the historical store
func (db *TrackDB) NumHistoricalTracks() int {
	return db.historical.Len()
}

// GetAllTracks returns active tracks followed by historical ones
func (db *TrackDB) GetAllTracks() []*Track {
	tracks := make([]*Track, 0, len(db.active)+db.historical.Len())
	tracks = append(tracks, db.active...)
	tracks = append(tracks, db.historical.Values()...)
	return tracks
}

// GetActiveEndpoints returns last known positions of active tracks.
// UpdateActiveTracks expects tracker output aligned with this order.
func (db *TrackDB) GetActiveEndpoints() []Point {
	endpoints := make([]Point, len(db.active))
	for i, track := range db.active {
		endpoints[i] = track.EndPoint()
	}
	return endpoints
}
