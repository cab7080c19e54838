package lspiv

import (
	"sync/atomic"

	"github.com/google/uuid"
	"github.com/pkg/errors"
	"gonum.org/v1/gonum/stat"
)

// TrackState is lifecycle state of a track
type TrackState uint16

const (
	// TrackStateActive means track received an observation on the last frame
	TrackStateActive TrackState = iota
	// TrackStateLost means track missed updates but it is still within grace period
	TrackStateLost
	// TrackStateHistorical means track is retired, passed quality gates and stored for sampling
	TrackStateHistorical
	// TrackStateDiscarded means track is retired and failed quality gates
	TrackStateDiscarded
)

var trackStateNames = [...]string{
	TrackStateActive:     "active",
	TrackStateLost:       "lost",
	TrackStateHistorical: "historical",
	TrackStateDiscarded:  "discarded",
}

func (s TrackState) String() string {
	if int(s) < len(trackStateNames) {
		return trackStateNames[s]
	}
	return "unknown"
}

// ParseTrackState parses state by its name
func ParseTrackState(name string) (TrackState, error) {
	for i, n := range trackStateNames {
		if n == name {
			return TrackState(i), nil
		}
	}
	return 0, errors.Wrapf(ErrConfiguration, "unknown track state %q", name)
}

// Observation is a single position of tracked point at given time (seconds)
type Observation struct {
	Position Point
	Time     float64
}

// minPathDistance is the path length under which meandering ratio is undefined
const minPathDistance = 1e-9

// Creation order of tracks. Used as tie-break in score ordered containers.
var trackSequence atomic.Uint64

// Track is an append-only time series of positions of a single tracked point.
// Derived metrics are recomputed from observations on every call.
type Track struct {
	id           uuid.UUID
	seq          uint64
	observations []Observation
	state        TrackState
}

// NewTrack creates new active track with its first observation
func NewTrack(position Point, time float64) *Track {
	track := Track{
		id:           uuid.New(),
		seq:          trackSequence.Add(1),
		observations: make([]Observation, 0, 32),
		state:        TrackStateActive,
	}
	track.observations = append(track.observations, Observation{Position: position, Time: time})
	return &track
}

// NewTrackFromObservations restores track with given identifier. Observations are copied.
func NewTrackFromObservations(id uuid.UUID, observations []Observation) (*Track, error) {
	if len(observations) == 0 {
		return nil, errors.Wrapf(ErrInvalidObservation, "track %s has no observations", id)
	}
	for i := 1; i < len(observations); i++ {
		if !(observations[i].Time > observations[i-1].Time) {
			return nil, errors.Wrapf(ErrInvalidObservation, "track %s: time %v at index %d is not after %v", id, observations[i].Time, i, observations[i-1].Time)
		}
	}
	track := Track{
		id:           id,
		seq:          trackSequence.Add(1),
		observations: make([]Observation, len(observations)),
		state:        TrackStateActive,
	}
	copy(track.observations, observations)
	return &track, nil
}

// RestoreTrack rebuilds a persisted track in given state
func RestoreTrack(id uuid.UUID, state TrackState, observations []Observation) (*Track, error) {
	if int(state) >= len(trackStateNames) {
		return nil, errors.Wrapf(ErrConfiguration, "unknown track state %d", state)
	}
	track, err := NewTrackFromObservations(id, observations)
	if err != nil {
		return nil, err
	}
	track.state = state
	return track, nil
}

// GetID returns track's identifier
func (track *Track) GetID() uuid.UUID {
	return track.id
}

// GetState returns track's lifecycle state
func (track *Track) GetState() TrackState {
	return track.state
}

// AddObservation appends position seen at given time.
// Time must be strictly greater than the last recorded one and retired tracks can't be extended.
func (track *Track) AddObservation(position Point, time float64) error {
	if track.state == TrackStateHistorical || track.state == TrackStateDiscarded {
		return errors.Wrapf(ErrInvalidObservation, "track %s is %s", track.id, track.state)
	}
	if n := len(track.observations); n > 0 && !(time > track.observations[n-1].Time) {
		return errors.Wrapf(ErrInvalidObservation, "track %s: time %v is not after last seen %v", track.id, time, track.observations[n-1].Time)
	}
	track.observations = append(track.observations, Observation{Position: position, Time: time})
	return nil
}

// AddObservations appends a batch of positions. Nothing is appended if any of them is invalid.
func (track *Track) AddObservations(positions []Point, times []float64) error {
	if len(positions) != len(times) {
		return errors.Wrapf(ErrPrecondition, "positions and times arrays must have the same length. Positions: %d. Times: %d", len(positions), len(times))
	}
	if track.state == TrackStateHistorical || track.state == TrackStateDiscarded {
		return errors.Wrapf(ErrInvalidObservation, "track %s is %s", track.id, track.state)
	}
	last, hasLast := track.LastObservation()
	for i, tm := range times {
		if hasLast && !(tm > last.Time) {
			return errors.Wrapf(ErrInvalidObservation, "track %s: time %v at index %d is not after %v", track.id, tm, i, last.Time)
		}
		last = Observation{Position: positions[i], Time: tm}
		hasLast = true
	}
	for i := range positions {
		track.observations = append(track.observations, Observation{Position: positions[i], Time: times[i]})
	}
	return nil
}

// Observations returns copy of track's observations
func (track *Track) Observations() []Observation {
	obs := make([]Observation, len(track.observations))
	copy(obs, track.observations)
	return obs
}

// Positions returns copy of track's positions
func (track *Track) Positions() []Point {
	positions := make([]Point, len(track.observations))
	for i, o := range track.observations {
		positions[i] = o.Position
	}
	return positions
}

// Size returns number of observations
func (track *Track) Size() int {
	return len(track.observations)
}

// FirstObservation returns the earliest observation
func (track *Track) FirstObservation() (Observation, bool) {
	if len(track.observations) == 0 {
		return Observation{}, false
	}
	return track.observations[0], true
}

// LastObservation returns the latest observation
func (track *Track) LastObservation() (Observation, bool) {
	n := len(track.observations)
	if n == 0 {
		return Observation{}, false
	}
	return track.observations[n-1], true
}

// EndPoint returns the latest known position
func (track *Track) EndPoint() Point {
	last, _ := track.LastObservation()
	return last.Position
}

// LastSeen returns time of the latest observation
func (track *Track) LastSeen() float64 {
	last, _ := track.LastObservation()
	return last.Time
}

// Age is last_time - first_time. Zero for tracks with less than 2 observations.
func (track *Track) Age() float64 {
	n := len(track.observations)
	if n < 2 {
		return 0
	}
	return track.observations[n-1].Time - track.observations[0].Time
}

// Distance is the sum of consecutive segment lengths
func (track *Track) Distance() float64 {
	dist := 0.0
	for i := 1; i < len(track.observations); i++ {
		dist += euclideanDistance(track.observations[i-1].Position, track.observations[i].Position)
	}
	return dist
}

// Displacement is the distance between the first and the last positions
func (track *Track) Displacement() float64 {
	n := len(track.observations)
	if n < 2 {
		return 0
	}
	return euclideanDistance(track.observations[0].Position, track.observations[n-1].Position)
}

// AvgSpeed is Distance / Age over the whole series. Zero when age is zero.
func (track *Track) AvgSpeed() float64 {
	age := track.Age()
	if age <= 0 {
		return 0
	}
	return track.Distance() / age
}

// MeanSegmentSpeed is the mean of per-segment speeds
func (track *Track) MeanSegmentSpeed() float64 {
	n := len(track.observations)
	if n < 2 {
		return 0
	}
	speeds := make([]float64, 0, n-1)
	for i := 1; i < n; i++ {
		prev, cur := track.observations[i-1], track.observations[i]
		speeds = append(speeds, euclideanDistance(prev.Position, cur.Position)/(cur.Time-prev.Time))
	}
	return stat.Mean(speeds, nil)
}

// MeanderingRatio is Displacement / Distance. Low values mark noisy, non-direct paths.
func (track *Track) MeanderingRatio() (float64, error) {
	dist := track.Distance()
	if dist < minPathDistance {
		return 0, errors.Wrapf(ErrInvalidObservation, "track %s: path distance %v is too small for meandering ratio", track.id, dist)
	}
	return track.Displacement() / dist, nil
}

// Score evaluates scoring method over the whole track
func (track *Track) Score(method ScoringMethod) (float64, error) {
	fn, err := scoringFunc(method)
	if err != nil {
		return 0, err
	}
	return fn(track), nil
}

// MeasureVelocity produces one measurement per consecutive observation pair whose segment length
// is at least minDist. Velocity is delta position over delta time, location is chosen by method
// and the score is evaluated once for the whole track.
func (track *Track) MeasureVelocity(minDist float64, scoring ScoringMethod, method LocalizationMethod) ([]Measurement, error) {
	scoreFn, err := scoringFunc(scoring)
	if err != nil {
		return nil, err
	}
	localize, err := localizationFunc(method)
	if err != nil {
		return nil, err
	}
	n := len(track.observations)
	if n < 2 {
		return []Measurement{}, nil
	}
	score := scoreFn(track)
	measurements := make([]Measurement, 0, n-1)
	for i := 1; i < n; i++ {
		prev, cur := track.observations[i-1], track.observations[i]
		delta := cur.Position.Sub(prev.Position)
		if delta.Norm() < minDist {
			continue
		}
		measurements = append(measurements, Measurement{
			Point:    localize(prev.Position, cur.Position),
			Velocity: delta.Scale(1.0 / (cur.Time - prev.Time)),
			Score:    score,
			TrackID:  track.id,
		})
	}
	return measurements, nil
}

// Sub returns position differences (this - other) at timestamps present in both tracks
func (track *Track) Sub(other *Track) []Point {
	differences := make([]Point, 0)
	i, j := 0, 0
	for i < len(track.observations) && j < len(other.observations) {
		a, b := track.observations[i], other.observations[j]
		switch {
		case a.Time == b.Time:
			differences = append(differences, a.Position.Sub(b.Position))
			i++
			j++
		case a.Time < b.Time:
			i++
		default:
			j++
		}
	}
	return differences
}

// Clone returns deep copy of track with the same identifier and state
func (track *Track) Clone() *Track {
	clone := Track{
		id:           track.id,
		seq:          track.seq,
		observations: track.Observations(),
		state:        track.state,
	}
	return &clone
}

// WithPositions returns copy of track with positions replaced and timestamps kept.
// Used by coordinate transforms and smoothing.
func (track *Track) WithPositions(positions []Point) (*Track, error) {
	if len(positions) != len(track.observations) {
		return nil, errors.Wrapf(ErrPrecondition, "positions array size %d does not match track size %d", len(positions), len(track.observations))
	}
	clone := track.Clone()
	for i := range positions {
		clone.observations[i].Position = positions[i]
	}
	return clone, nil
}
