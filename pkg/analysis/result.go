// Package analysis samples camera frames at a fixed cadence and turns each
// detected face into an attention and fatigue assessment.
package analysis

import (
	"time"

	"github.com/teslashibe/go-focus/pkg/attention"
	"github.com/teslashibe/go-focus/pkg/geometry"
)

// Config holds analyzer timing
type Config struct {
	SampleInterval  time.Duration // Time between samples
	FaceLostTimeout time.Duration // Absence before a FaceLost event
	MinConfidence   float64       // Faces below this count as absent
	DetectTimeout   time.Duration // Per-call detector deadline
	MaxInFlight     int           // Outstanding detections before samples drop
}

// DefaultConfig returns the standard sampling config
func DefaultConfig() Config {
	return Config{
		SampleInterval:  150 * time.Millisecond,
		FaceLostTimeout: 5 * time.Second,
		MinConfidence:   0.5,
		DetectTimeout:   time.Second,
		MaxInFlight:     4,
	}
}

// Result is one analyzed frame with a qualifying face.
type Result struct {
	SessionID      string             `json:"sessionId"`
	Timestamp      time.Time          `json:"timestamp"`
	EAR            float64            `json:"ear"`
	MAR            float64            `json:"mar"`
	HeadPose       geometry.Pose      `json:"headPose"`
	GazeDirection  geometry.Direction `json:"gazeDirection"`
	BlinkRate      int                `json:"blinkRate"`
	AttentionScore int                `json:"attentionScore"`
	FatigueLevel   attention.Fatigue  `json:"fatigueLevel"`
	IsDrowsy       bool               `json:"isDrowsy"`
	Confidence     int                `json:"confidence"`
}

// EventKind identifies an analyzer event.
type EventKind string

const (
	EventResult   EventKind = "result"
	EventNoFace   EventKind = "no_face"
	EventFaceLost EventKind = "face_lost"
)

// Event is emitted by the analyzer once per sample, plus once per absence
// episode for EventFaceLost.
type Event struct {
	Kind   EventKind
	At     time.Time
	Result *Result // Set for EventResult
}
