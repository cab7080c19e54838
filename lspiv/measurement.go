package lspiv

import (
	"encoding/json"

	"github.com/google/uuid"
)

// Measurement is a localized velocity sample. Immutable once created.
type Measurement struct {
	Point    Point
	Velocity Point
	// Score is inherited from the originating track. Higher is better.
	Score   float64
	TrackID uuid.UUID
}

type measurementRecord struct {
	X       float64   `json:"x"`
	Y       float64   `json:"y"`
	VX      float64   `json:"vx"`
	VY      float64   `json:"vy"`
	Score   float64   `json:"score"`
	TrackID uuid.UUID `json:"track_id"`
}

// MarshalJSON encodes measurement as flat (x, y, vx, vy, score, track_id) record
func (m Measurement) MarshalJSON() ([]byte, error) {
	return json.Marshal(measurementRecord{
		X:       m.Point.X,
		Y:       m.Point.Y,
		VX:      m.Velocity.X,
		VY:      m.Velocity.Y,
		Score:   m.Score,
		TrackID: m.TrackID,
	})
}

func (m *Measurement) UnmarshalJSON(data []byte) error {
	var rec measurementRecord
	if err := json.Unmarshal(data, &rec); err != nil {
		return err
	}
	*m = Measurement{
		Point:    Point{X: rec.X, Y: rec.Y},
		Velocity: Point{X: rec.VX, Y: rec.VY},
		Score:    rec.Score,
		TrackID:  rec.TrackID,
	}
	return nil
}
