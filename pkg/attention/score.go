// Package attention scores attentiveness and fatigue from per-frame face
// metrics.
package attention

import (
	"math"

	"github.com/teslashibe/go-focus/pkg/geometry"
)

// Fatigue is a discrete fatigue level.
type Fatigue string

const (
	FatigueLow    Fatigue = "low"
	FatigueMedium Fatigue = "medium"
	FatigueHigh   Fatigue = "high"
)

// Score bounds.
const (
	MaxScore = 100
	MinScore = 0
)

// Input is one frame's worth of scoring signals.
type Input struct {
	EAR       float64
	MAR       float64
	Pose      geometry.Pose
	Gaze      geometry.Direction
	BlinkRate int
}

// tier is one row of a deduction table. Tiers are checked in order and only
// the first match applies.
type tier struct {
	match  func(float64) bool
	deduct int
}

func below(x float64) func(float64) bool { return func(v float64) bool { return v < x } }
func above(x float64) func(float64) bool { return func(v float64) bool { return v > x } }

var (
	earTiers = []tier{
		{below(0.15), 40},
		{below(0.20), 25},
		{below(0.25), 10},
	}
	marTiers = []tier{
		{above(0.7), 30},
		{above(0.5), 15},
	}
	movementTiers = []tier{
		{above(45), 25},
		{above(25), 15},
	}
	blinkTiers = []tier{
		{below(8), 35},
		{below(12), 20},
		{above(35), 25},
		{above(25), 10},
	}
)

// gazeDeduction applies to any gaze bucket other than center.
const gazeDeduction = 20

func deduct(tiers []tier, v float64) int {
	for _, t := range tiers {
		if t.match(v) {
			return t.deduct
		}
	}
	return 0
}

// Score returns the attention score in [0,100]. Each signal contributes at
// most one deduction; deductions across signals add up.
func Score(in Input) int {
	score := MaxScore
	score -= deduct(earTiers, in.EAR)
	score -= deduct(marTiers, in.MAR)
	score -= deduct(movementTiers, in.Pose.Movement())
	if in.Gaze != geometry.GazeCenter {
		score -= gazeDeduction
	}
	score -= deduct(blinkTiers, float64(in.BlinkRate))

	if score < MinScore {
		return MinScore
	}
	if score > MaxScore {
		return MaxScore
	}
	return score
}

// Drowsiness thresholds for the per-frame drowsy condition.
const (
	DrowsyEAR       = 0.20
	DrowsyMAR       = 0.4
	DrowsyPitch     = 25.0
	DrowsyBlinkRate = 12
)

// Drowsy reports whether a single frame shows any drowsiness sign: narrowed
// eyes, an open mouth, a dropped head, or a low blink rate.
func Drowsy(in Input) bool {
	return in.EAR < DrowsyEAR ||
		in.MAR > DrowsyMAR ||
		math.Abs(in.Pose.Pitch) > DrowsyPitch ||
		in.BlinkRate < DrowsyBlinkRate
}

// Level maps a score, EAR and consecutive drowsy frame count to a fatigue level.
func Level(score int, ear float64, drowsyFrames int) Fatigue {
	switch {
	case score < 30 || ear < 0.15 || drowsyFrames > 10:
		return FatigueHigh
	case score < 60 || ear < 0.20 || drowsyFrames > 5:
		return FatigueMedium
	default:
		return FatigueLow
	}
}
