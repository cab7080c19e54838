package lspiv

import (
	"github.com/pkg/errors"
)

// ScoringMethod selects how a track is scored. Higher score is better.
type ScoringMethod uint16

const (
	// ScoringTime scores track by its age in seconds
	ScoringTime ScoringMethod = iota
	// ScoringLength scores track by its number of segments
	ScoringLength
	// ScoringDisplacement scores track by its displacement
	ScoringDisplacement
	// ScoringComposite is a weighted sum of age and displacement
	ScoringComposite
	// ScoringConstant gives every track the same score
	ScoringConstant
)

const (
	compositeAgeWeight          = 0.9
	compositeDisplacementWeight = 0.1
	constantScore               = 999999.0
)

var scoringNames = [...]string{
	ScoringTime:         "time",
	ScoringLength:       "length",
	ScoringDisplacement: "displacement",
	ScoringComposite:    "composite",
	ScoringConstant:     "constant",
}

var scoringTable = [...]func(*Track) float64{
	ScoringTime:         (*Track).Age,
	ScoringLength:       scoreLength,
	ScoringDisplacement: (*Track).Displacement,
	ScoringComposite:    scoreComposite,
	ScoringConstant:     scoreConstant,
}

func scoreLength(track *Track) float64 {
	if track.Size() < 2 {
		return 0
	}
	return float64(track.Size() - 1)
}

func scoreComposite(track *Track) float64 {
	return compositeAgeWeight*track.Age() + compositeDisplacementWeight*track.Displacement()
}

func scoreConstant(*Track) float64 {
	return constantScore
}

func (m ScoringMethod) String() string {
	if int(m) < len(scoringNames) {
		return scoringNames[m]
	}
	return "unknown"
}

// ParseScoringMethod maps a name to scoring method
func ParseScoringMethod(name string) (ScoringMethod, error) {
	for i, n := range scoringNames {
		if n == name {
			return ScoringMethod(i), nil
		}
	}
	return 0, errors.Wrapf(ErrConfiguration, "unknown scoring method %q", name)
}

func scoringFunc(m ScoringMethod) (func(*Track) float64, error) {
	if int(m) >= len(scoringTable) {
		return nil, errors.Wrapf(ErrConfiguration, "unknown scoring method %d", m)
	}
	return scoringTable[m], nil
}

// LocalizationMethod selects where a segment's velocity measurement is placed
type LocalizationMethod uint16

const (
	// LocalizeMidpoint places measurement on the middle of the segment
	LocalizeMidpoint LocalizationMethod = iota
	// LocalizeFirst places measurement on the first point of the segment
	LocalizeFirst
	// LocalizeLast places measurement on the second point of the segment
	LocalizeLast
)

var localizationNames = [...]string{
	LocalizeMidpoint: "midpoint",
	LocalizeFirst:    "first",
	LocalizeLast:     "last",
}

var localizationTable = [...]func(p1, p2 Point) Point{
	LocalizeMidpoint: midpoint,
	LocalizeFirst:    func(p1, _ Point) Point { return p1 },
	LocalizeLast:     func(_, p2 Point) Point { return p2 },
}

func (m LocalizationMethod) String() string {
	if int(m) < len(localizationNames) {
		return localizationNames[m]
	}
	return "unknown"
}

// ParseLocalizationMethod maps a name to localization method
func ParseLocalizationMethod(name string) (LocalizationMethod, error) {
	for i, n := range localizationNames {
		if n == name {
			return LocalizationMethod(i), nil
		}
	}
	return 0, errors.Wrapf(ErrConfiguration, "unknown localization method %q", name)
}

func localizationFunc(m LocalizationMethod) (func(p1, p2 Point) Point, error) {
	if int(m) >= len(localizationTable) {
		return nil, errors.Wrapf(ErrConfiguration, "unknown localization method %d", m)
	}
	return localizationTable[m], nil
}
