package attention

// Assessment is the scored outcome of one frame.
type Assessment struct {
	Score        int     `json:"score"`
	Fatigue      Fatigue `json:"fatigue"`
	IsDrowsy     bool    `json:"is_drowsy"`
	DrowsyFrames int     `json:"drowsy_frames"`
}

// Assessor tracks the consecutive drowsy frame count across a detection
// session. Not safe for concurrent use.
type Assessor struct {
	drowsyFrames int
}

// NewAssessor returns an assessor with no drowsy history.
func NewAssessor() *Assessor {
	return &Assessor{}
}

// Assess scores one frame and advances the drowsy streak.
func (a *Assessor) Assess(in Input) Assessment {
	drowsy := Drowsy(in)
	if drowsy {
		a.drowsyFrames++
	} else {
		a.drowsyFrames = 0
	}

	score := Score(in)
	return Assessment{
		Score:        score,
		Fatigue:      Level(score, in.EAR, a.drowsyFrames),
		IsDrowsy:     drowsy,
		DrowsyFrames: a.drowsyFrames,
	}
}

// DrowsyFrames returns the current drowsy streak.
func (a *Assessor) DrowsyFrames() int {
	return a.drowsyFrames
}

// Reset clears the drowsy streak.
func (a *Assessor) Reset() {
	a.drowsyFrames = 0
}
