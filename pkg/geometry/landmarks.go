// Package geometry computes eye, mouth, head-pose and gaze metrics from
// 2D facial landmarks.
//
// Landmarks follow the 68-point iBUG layout used by dlib and face-api style
// detectors:
//
//	jaw        0-16
//	eyebrows  17-26
//	nose      27-35 (tip at 30)
//	left eye  36-41
//	right eye 42-47
//	mouth     48-67 (outer 48-59, inner 60-67)
package geometry

import (
	"errors"
	"fmt"
	"math"
)

// ErrMalformedLandmarks is returned by Validate when a region is short.
var ErrMalformedLandmarks = errors.New("geometry: malformed landmarks")

// Point is a 2D image coordinate in pixels.
type Point struct {
	X float64 `json:"x"`
	Y float64 `json:"y"`
}

// Dist returns the Euclidean distance between two points.
func Dist(a, b Point) float64 {
	return math.Hypot(a.X-b.X, a.Y-b.Y)
}

// Mean returns the centroid of pts. Returns the zero point for an empty slice.
func Mean(pts []Point) Point {
	if len(pts) == 0 {
		return Point{}
	}
	var sx, sy float64
	for _, p := range pts {
		sx += p.X
		sy += p.Y
	}
	n := float64(len(pts))
	return Point{X: sx / n, Y: sy / n}
}

// Region bounds within the 68-point layout.
const (
	jawStart      = 0
	jawEnd        = 17
	noseStart     = 27
	noseEnd       = 36
	leftEyeStart  = 36
	leftEyeEnd    = 42
	rightEyeStart = 42
	rightEyeEnd   = 48
	mouthStart    = 48
	mouthEnd      = 68

	// FullSize is the number of points in a complete landmark set.
	FullSize = 68
)

// Minimum region sizes required for metrics to be meaningful.
const (
	EyePoints   = 6
	MouthPoints = 20
	NosePoints  = 4
	JawPoints   = 9
)

// LandmarkSet is one face's landmark points for a single frame.
// It is never mutated after construction.
type LandmarkSet struct {
	points []Point
}

// NewLandmarkSet copies pts into a new LandmarkSet.
func NewLandmarkSet(pts []Point) LandmarkSet {
	cp := make([]Point, len(pts))
	copy(cp, pts)
	return LandmarkSet{points: cp}
}

// Len returns the number of points.
func (l LandmarkSet) Len() int { return len(l.points) }

// Points returns a copy of all points.
func (l LandmarkSet) Points() []Point {
	cp := make([]Point, len(l.points))
	copy(cp, l.points)
	return cp
}

// region returns points [start,end) clipped to what is available.
func (l LandmarkSet) region(start, end int) []Point {
	if start >= len(l.points) {
		return nil
	}
	if end > len(l.points) {
		end = len(l.points)
	}
	return l.points[start:end:end]
}

// Jaw returns the jaw outline.
func (l LandmarkSet) Jaw() []Point { return l.region(jawStart, jawEnd) }

// Nose returns the nose bridge and base. Index 3 is the tip.
func (l LandmarkSet) Nose() []Point { return l.region(noseStart, noseEnd) }

// LeftEye returns the image-left eye contour (6 points, outer corner first).
func (l LandmarkSet) LeftEye() []Point { return l.region(leftEyeStart, leftEyeEnd) }

// RightEye returns the image-right eye contour (6 points, inner corner first).
func (l LandmarkSet) RightEye() []Point { return l.region(rightEyeStart, rightEyeEnd) }

// Mouth returns the outer and inner lip contours.
func (l LandmarkSet) Mouth() []Point { return l.region(mouthStart, mouthEnd) }

// Bounds returns the axis-aligned bounding box of all points.
func (l LandmarkSet) Bounds() (min, max Point) {
	if len(l.points) == 0 {
		return Point{}, Point{}
	}
	min, max = l.points[0], l.points[0]
	for _, p := range l.points[1:] {
		min.X = math.Min(min.X, p.X)
		min.Y = math.Min(min.Y, p.Y)
		max.X = math.Max(max.X, p.X)
		max.Y = math.Max(max.Y, p.Y)
	}
	return min, max
}

// Validate reports which regions are too short for their metrics.
// Metric functions never call it; they fall back to safe values instead.
func (l LandmarkSet) Validate() error {
	checks := []struct {
		name string
		got  int
		want int
	}{
		{"left eye", len(l.LeftEye()), EyePoints},
		{"right eye", len(l.RightEye()), EyePoints},
		{"mouth", len(l.Mouth()), MouthPoints},
		{"nose", len(l.Nose()), NosePoints},
		{"jaw", len(l.Jaw()), JawPoints},
	}
	for _, c := range checks {
		if c.got < c.want {
			return fmt.Errorf("%w: %s has %d points, need %d", ErrMalformedLandmarks, c.name, c.got, c.want)
		}
	}
	return nil
}
