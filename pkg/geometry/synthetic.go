package geometry

// FaceParams describes a synthetic frontal face.
type FaceParams struct {
	Center Point   // Midpoint between the eye centers
	EAR    float64 // Eye aspect ratio applied to both eyes
	MAR    float64 // Mouth aspect ratio
	NoseDX float64 // Horizontal nose-tip offset in pixels (turns yaw and gaze)
	NoseDY float64 // Vertical nose-tip offset in pixels (turns pitch and gaze)

	// Scale resizes the whole face about Center after the offsets above are
	// applied. Zero means 1. Ratios and angles do not change with it; gaze
	// buckets do, since their thresholds are in absolute pixels.
	Scale float64
}

// DefaultFaceParams returns a level face with open eyes and a closed mouth.
// At this size the nose tip sits 40px below the eye line, which Gaze reads
// as down.
func DefaultFaceParams() FaceParams {
	return FaceParams{
		Center: Point{X: 200, Y: 200},
		EAR:    0.30,
		MAR:    0.10,
	}
}

// Synthetic face dimensions in pixels.
const (
	synthEyeSpacing = 60.0 // Distance between eye centers
	synthEyeWidth   = 30.0 // Corner to corner
	synthNoseDrop   = 40.0 // Eye line to nose tip, and nose tip to mouth center
	synthMouthWidth = 50.0 // Corner to corner
)

// SyntheticFace builds a complete 68-point landmark set whose EAR, MAR and
// nose offsets (times Scale) are exactly those requested. Used by simulators and tests.
func SyntheticFace(p FaceParams) LandmarkSet {
	pts := make([]Point, FullSize)
	c := p.Center

	// jaw: a shallow U below the mouth
	for i := 0; i < 17; i++ {
		t := float64(i-8) / 8
		pts[jawStart+i] = Point{X: c.X + t*70, Y: c.Y + 60 + (1-t*t)*60}
	}

	// eyebrows
	for i := 0; i < 10; i++ {
		pts[17+i] = Point{X: c.X - 50 + float64(i)*11, Y: c.Y - 20}
	}

	// nose: bridge, tip, nostrils
	tip := Point{X: c.X + p.NoseDX, Y: c.Y + synthNoseDrop + p.NoseDY}
	pts[noseStart+0] = Point{X: c.X, Y: c.Y + 5}
	pts[noseStart+1] = Point{X: c.X, Y: c.Y + 15}
	pts[noseStart+2] = Point{X: c.X, Y: c.Y + 25}
	pts[noseStart+3] = tip
	for i := 0; i < 5; i++ {
		pts[noseStart+4+i] = Point{X: c.X - 10 + float64(i)*5, Y: c.Y + synthNoseDrop - 2}
	}

	copy(pts[leftEyeStart:leftEyeEnd], syntheticEye(Point{X: c.X - synthEyeSpacing/2, Y: c.Y}, p.EAR))
	copy(pts[rightEyeStart:rightEyeEnd], syntheticEye(Point{X: c.X + synthEyeSpacing/2, Y: c.Y}, p.EAR))

	mouthCenter := Point{X: c.X, Y: c.Y + 2*synthNoseDrop}
	copy(pts[mouthStart:mouthEnd], syntheticMouth(mouthCenter, p.MAR))

	if p.Scale != 0 && p.Scale != 1 {
		for i, pt := range pts {
			pts[i] = Point{X: c.X + (pt.X-c.X)*p.Scale, Y: c.Y + (pt.Y-c.Y)*p.Scale}
		}
	}
	return LandmarkSet{points: pts}
}

// syntheticEye returns a symmetric 6-point contour centered on c.
func syntheticEye(c Point, ear float64) []Point {
	half := synthEyeWidth / 2
	h := ear * synthEyeWidth / 2
	return []Point{
		{X: c.X - half, Y: c.Y},
		{X: c.X - 5, Y: c.Y - h},
		{X: c.X + 5, Y: c.Y - h},
		{X: c.X + half, Y: c.Y},
		{X: c.X + 5, Y: c.Y + h},
		{X: c.X - 5, Y: c.Y + h},
	}
}

// syntheticMouth returns a 20-point mouth symmetric about c.
func syntheticMouth(c Point, mar float64) []Point {
	half := synthMouthWidth / 2
	gap := mar * synthMouthWidth / 2
	return []Point{
		// outer lip, corner to corner over the top then back along the bottom
		{X: c.X - half, Y: c.Y},
		{X: c.X - 16, Y: c.Y - 8},
		{X: c.X - 6, Y: c.Y - 10},
		{X: c.X, Y: c.Y - 9},
		{X: c.X + 6, Y: c.Y - 10},
		{X: c.X + 16, Y: c.Y - 8},
		{X: c.X + half, Y: c.Y},
		{X: c.X + 16, Y: c.Y + 8},
		{X: c.X + 6, Y: c.Y + 10},
		{X: c.X, Y: c.Y + 9},
		{X: c.X - 6, Y: c.Y + 10},
		{X: c.X - 16, Y: c.Y + 8},
		// inner lip
		{X: c.X - 15, Y: c.Y},
		{X: c.X - 8, Y: c.Y - gap},
		{X: c.X, Y: c.Y - gap},
		{X: c.X + 8, Y: c.Y - gap},
		{X: c.X + 15, Y: c.Y},
		{X: c.X + 8, Y: c.Y + gap},
		{X: c.X, Y: c.Y + gap},
		{X: c.X - 8, Y: c.Y + gap},
	}
}
