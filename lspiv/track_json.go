package lspiv

import (
	"encoding/json"

	"github.com/google/uuid"
	"github.com/pkg/errors"
)

// trackRecord is persisted form of a track: id, state and ordered (x, y, t) triples
type trackRecord struct {
	ID           uuid.UUID    `json:"id"`
	State        string       `json:"state"`
	Observations [][3]float64 `json:"observations"`
}

// MarshalJSON encodes track as {"id", "state", "observations": [[x, y, t], ...]}
func (track *Track) MarshalJSON() ([]byte, error) {
	rec := trackRecord{
		ID:           track.id,
		State:        track.state.String(),
		Observations: make([][3]float64, len(track.observations)),
	}
	for i, o := range track.observations {
		rec.Observations[i] = [3]float64{o.Position.X, o.Position.Y, o.Time}
	}
	return json.Marshal(rec)
}

// UnmarshalJSON restores track. Observations are validated the same way NewTrackFromObservations does.
func (track *Track) UnmarshalJSON(data []byte) error {
	var rec trackRecord
	if err := json.Unmarshal(data, &rec); err != nil {
		return err
	}
	observations := make([]Observation, len(rec.Observations))
	for i, triple := range rec.Observations {
		observations[i] = Observation{Position: Point{X: triple[0], Y: triple[1]}, Time: triple[2]}
	}
	state := TrackStateActive
	if rec.State != "" {
		parsed, err := ParseTrackState(rec.State)
		if err != nil {
			return errors.Wrapf(err, "Can't restore track %s", rec.ID)
		}
		state = parsed
	}
	restored, err := RestoreTrack(rec.ID, state, observations)
	if err != nil {
		return err
	}
	*track = *restored
	return nil
}
