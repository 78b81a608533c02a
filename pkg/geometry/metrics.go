package geometry

import "math"

// FallbackEAR is returned when an eye contour is unusable. It sits exactly
// at the blink threshold so it reads as "open", never as a closure.
const FallbackEAR = 0.25

// Gaze bucket thresholds in pixels, relative to the eye-center midpoint.
const (
	GazeThresholdX = 8.0
	GazeThresholdY = 6.0
)

// Direction is a coarse gaze bucket.
type Direction string

const (
	GazeCenter  Direction = "center"
	GazeLeft    Direction = "left"
	GazeRight   Direction = "right"
	GazeUp      Direction = "up"
	GazeDown    Direction = "down"
	GazeUnknown Direction = "unknown"
)

// Pose holds approximate head angles in degrees.
type Pose struct {
	Yaw   float64 `json:"yaw"`
	Pitch float64 `json:"pitch"`
	Roll  float64 `json:"roll"`
}

// Movement is the sum of absolute angles, used as a head-movement magnitude.
func (p Pose) Movement() float64 {
	return math.Abs(p.Yaw) + math.Abs(p.Pitch) + math.Abs(p.Roll)
}

// EAR computes the eye aspect ratio of a 6-point eye contour:
//
//	(|p1-p5| + |p2-p4|) / (2 * |p0-p3|)
func EAR(eye []Point) float64 {
	if len(eye) < EyePoints {
		return FallbackEAR
	}
	horizontal := Dist(eye[0], eye[3])
	if horizontal == 0 {
		return FallbackEAR
	}
	return (Dist(eye[1], eye[5]) + Dist(eye[2], eye[4])) / (2 * horizontal)
}

// MAR computes the mouth aspect ratio from a 20-point mouth contour: the mean
// of three inner-lip vertical gaps over the outer corner-to-corner width.
func MAR(mouth []Point) float64 {
	if len(mouth) < MouthPoints {
		return 0
	}
	width := Dist(mouth[0], mouth[6])
	if width == 0 {
		return 0
	}
	vertical := (Dist(mouth[13], mouth[19]) + Dist(mouth[14], mouth[18]) + Dist(mouth[15], mouth[17])) / 3
	return vertical / width
}

// AverageEAR returns the mean EAR of both eyes.
func AverageEAR(l LandmarkSet) float64 {
	return (EAR(l.LeftEye()) + EAR(l.RightEye())) / 2
}

// eyeMidpoint returns the midpoint between the two eye centers.
func eyeMidpoint(l LandmarkSet) (Point, bool) {
	left, right := l.LeftEye(), l.RightEye()
	if len(left) < EyePoints || len(right) < EyePoints {
		return Point{}, false
	}
	lc, rc := Mean(left), Mean(right)
	return Point{X: (lc.X + rc.X) / 2, Y: (lc.Y + rc.Y) / 2}, true
}

// noseTip returns the tip of the nose.
func noseTip(l LandmarkSet) (Point, bool) {
	nose := l.Nose()
	if len(nose) < NosePoints {
		return Point{}, false
	}
	return nose[3], true
}

func degrees(rad float64) float64 {
	return rad * 180 / math.Pi
}

// HeadPose estimates yaw, pitch and roll from 2D landmarks.
//
// Yaw is the nose tip's horizontal offset from the eye midpoint normalized by
// inter-eye distance. Pitch compares the eye-to-nose vertical distance with the
// nose-to-mouth distance. Roll is the slope of the outer eye corners.
// Any missing region yields a zero pose.
func HeadPose(l LandmarkSet) Pose {
	mid, ok := eyeMidpoint(l)
	if !ok {
		return Pose{}
	}
	tip, ok := noseTip(l)
	if !ok {
		return Pose{}
	}
	mouth := l.Mouth()
	if len(mouth) < MouthPoints {
		return Pose{}
	}

	left, right := l.LeftEye(), l.RightEye()
	interEye := Dist(Mean(left), Mean(right))
	if interEye == 0 {
		return Pose{}
	}

	var pose Pose
	pose.Yaw = degrees(math.Atan((tip.X - mid.X) / interEye))

	eyeToNose := tip.Y - mid.Y
	noseToMouth := Mean(mouth).Y - tip.Y
	if noseToMouth != 0 {
		pose.Pitch = degrees(math.Atan((eyeToNose - noseToMouth) / noseToMouth))
	}

	outerLeft, outerRight := left[0], right[3]
	pose.Roll = degrees(math.Atan2(outerRight.Y-outerLeft.Y, outerRight.X-outerLeft.X))

	return pose
}

// Gaze buckets the nose-tip offset from the eye midpoint. Horizontal
// deviation wins over vertical.
func Gaze(l LandmarkSet) Direction {
	mid, ok := eyeMidpoint(l)
	if !ok {
		return GazeUnknown
	}
	tip, ok := noseTip(l)
	if !ok {
		return GazeUnknown
	}

	dx := tip.X - mid.X
	dy := tip.Y - mid.Y

	switch {
	case math.Abs(dx) > GazeThresholdX:
		if dx < 0 {
			return GazeLeft
		}
		return GazeRight
	case math.Abs(dy) > GazeThresholdY:
		if dy < 0 {
			return GazeUp
		}
		return GazeDown
	default:
		return GazeCenter
	}
}
