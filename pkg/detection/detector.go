// Package detection adapts external face-landmark detectors to the single-face
// contract used by the analyzer.
package detection

import (
	"context"

	"github.com/teslashibe/go-focus/pkg/geometry"
)

// Face is one detected face with its landmarks.
type Face struct {
	Landmarks  geometry.LandmarkSet
	Confidence float64 // Detection confidence (0-1)
}

// Area returns the area of the landmark bounding box in pixels.
func (f Face) Area() float64 {
	lo, hi := f.Landmarks.Bounds()
	return (hi.X - lo.X) * (hi.Y - lo.Y)
}

// Detector finds at most one face in a JPEG frame.
// A nil face with a nil error means no face was found.
type Detector interface {
	// Detect runs the model on one frame
	Detect(ctx context.Context, jpeg []byte) (*Face, error)

	// Close releases resources
	Close() error
}

// Config holds detector configuration
type Config struct {
	ServiceURL       string  // Landmark service endpoint
	ModelPath        string  // Path to YuNet ONNX model for the local presence check
	ConfidenceThresh float64 // Minimum YuNet confidence (default 0.5)
	InputWidth       int     // YuNet input width
	InputHeight      int     // YuNet input height
}

// DefaultConfig returns production defaults
func DefaultConfig() Config {
	return Config{
		ServiceURL:       "http://127.0.0.1:8765/landmarks",
		ModelPath:        "models/face_detection_yunet.onnx",
		ConfidenceThresh: 0.5,
		InputWidth:       320,
		InputHeight:      320,
	}
}

// SelectBest picks the best face from multiple detections
// Priority: confidence * 0.7 + relative area * 0.3
func SelectBest(faces []Face) *Face {
	if len(faces) == 0 {
		return nil
	}

	if len(faces) == 1 {
		return &faces[0]
	}

	maxArea := 0.0
	for _, f := range faces {
		if a := f.Area(); a > maxArea {
			maxArea = a
		}
	}

	bestScore := -1.0
	var best *Face

	for i := range faces {
		rel := 0.0
		if maxArea > 0 {
			rel = faces[i].Area() / maxArea
		}
		score := faces[i].Confidence*0.7 + rel*0.3
		if score > bestScore {
			bestScore = score
			best = &faces[i]
		}
	}

	return best
}
