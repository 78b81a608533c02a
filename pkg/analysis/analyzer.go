package analysis

import (
	"context"
	"log/slog"
	"math"
	"sync/atomic"
	"time"

	"github.com/google/uuid"

	"github.com/teslashibe/go-focus/internal/log"
	"github.com/teslashibe/go-focus/pkg/attention"
	"github.com/teslashibe/go-focus/pkg/blink"
	"github.com/teslashibe/go-focus/pkg/camera"
	"github.com/teslashibe/go-focus/pkg/detection"
	"github.com/teslashibe/go-focus/pkg/geometry"
)

// Analyzer samples frames, runs the detector and scores each face.
//
// Blink and drowsy state belong to whichever goroutine drives the analyzer:
// Run's loop, or a caller using Process directly. Never both at once.
type Analyzer struct {
	config   Config
	blinkCfg blink.Config
	source   camera.Source
	detector detection.Detector
	logger   *slog.Logger
	metrics  *Metrics
	now      func() time.Time

	sessionID string
	blinks    *blink.Tracker
	assessor  *attention.Assessor
	started   time.Time
	lastFace  time.Time
	lostFired bool
	latest    time.Time // Capture time of the newest processed sample

	blinkRate atomic.Int32 // Published for concurrent readers
}

// New creates an analyzer reading frames from source.
func New(config Config, source camera.Source, detector detection.Detector) *Analyzer {
	a := &Analyzer{
		config:   config,
		blinkCfg: blink.DefaultConfig(),
		source:   source,
		detector: detector,
		logger:   log.Component("analysis"),
		metrics:  &Metrics{},
		now:      time.Now,
		assessor: attention.NewAssessor(),
	}
	a.blinks = blink.NewTracker(a.blinkCfg)
	a.sessionID = uuid.NewString()
	return a
}

// SetClock replaces the time source used by Run.
func (a *Analyzer) SetClock(now func() time.Time) {
	a.now = now
}

// Metrics returns the analyzer's counters.
func (a *Analyzer) Metrics() *Metrics {
	return a.metrics
}

// SessionID identifies the current detection session.
func (a *Analyzer) SessionID() string {
	return a.sessionID
}

// BlinkRate returns the blink count over the trailing window as of the
// latest sample. Safe for concurrent use.
func (a *Analyzer) BlinkRate() int {
	return int(a.blinkRate.Load())
}

// Reset clears blink and drowsy history and starts a new session. Call it
// only while Run is not executing.
func (a *Analyzer) Reset() {
	a.blinks.Reset()
	a.assessor.Reset()
	a.started = time.Time{}
	a.lastFace = time.Time{}
	a.lostFired = false
	a.latest = time.Time{}
	a.blinkRate.Store(0)
	a.sessionID = uuid.NewString()
}

type completion struct {
	at   time.Time
	face *detection.Face
	err  error
}

// Run samples at SampleInterval until ctx is cancelled, delivering events
// to out. Detection runs off the loop so a slow detector never delays the
// next sample; when MaxInFlight detections are outstanding the sample is
// dropped.
func (a *Analyzer) Run(ctx context.Context, out chan<- Event) {
	ticker := time.NewTicker(a.config.SampleInterval)
	defer ticker.Stop()

	slots := make(chan struct{}, max(a.config.MaxInFlight, 1))
	done := make(chan completion, cap(slots))

	if a.started.IsZero() {
		a.started = a.now()
	}
	a.logger.Info("analyzer started", "session", a.sessionID, "interval", a.config.SampleInterval)

	for {
		select {
		case <-ctx.Done():
			a.logger.Info("analyzer stopped", "session", a.sessionID)
			return

		case <-ticker.C:
			at := a.now()
			select {
			case slots <- struct{}{}:
				go a.detect(ctx, at, slots, done)
			default:
				a.metrics.dropped.Add(1)
			}
			// Absence is judged on the wall clock, not on detector progress.
			if ev, ok := a.checkLost(at); ok {
				a.emit(ctx, out, ev)
			}

		case c := <-done:
			if c.at.Before(a.latest) {
				a.metrics.stale.Add(1)
				continue
			}
			for _, ev := range a.Process(c.face, c.err, c.at) {
				a.emit(ctx, out, ev)
			}
		}
	}
}

func (a *Analyzer) emit(ctx context.Context, out chan<- Event, ev Event) {
	select {
	case out <- ev:
	case <-ctx.Done():
	}
}

// detect captures and runs the detector for one sample.
func (a *Analyzer) detect(ctx context.Context, at time.Time, slots <-chan struct{}, done chan<- completion) {
	defer func() { <-slots }()

	c := completion{at: at}
	frame, err := a.source.CaptureJPEG()
	if err != nil {
		c.err = err
	} else {
		dctx, cancel := context.WithTimeout(ctx, a.config.DetectTimeout)
		start := time.Now()
		c.face, c.err = a.detector.Detect(dctx, frame)
		a.metrics.recordLatency(time.Since(start))
		cancel()
	}

	select {
	case done <- c:
	case <-ctx.Done():
	}
}

// Process handles one sample's detector output captured at at. Detector
// errors and weak detections count as no face.
func (a *Analyzer) Process(face *detection.Face, err error, at time.Time) []Event {
	if a.started.IsZero() {
		a.started = at
	}
	if at.After(a.latest) {
		a.latest = at
	}
	a.metrics.recordSample(at)

	if err != nil {
		// Only the 1st, 2nd, 4th, 8th... failure is a warning.
		if n := a.metrics.detectorErrors.Add(1); n&(n-1) == 0 {
			a.logger.Warn("detector failed", "error", err, "count", n)
		} else {
			a.logger.Debug("detector failed", "error", err)
		}
	}
	if err != nil || face == nil || face.Confidence < a.config.MinConfidence {
		a.metrics.noFace.Add(1)
		events := []Event{{Kind: EventNoFace, At: at}}
		if ev, ok := a.checkLost(at); ok {
			events = append(events, ev)
		}
		return events
	}

	if a.lostFired {
		a.logger.Info("face reacquired", "absent", at.Sub(a.lastFace))
	}
	a.lastFace = at
	a.lostFired = false
	a.metrics.faces.Add(1)

	result := a.analyze(face, at)
	return []Event{{Kind: EventResult, At: at, Result: &result}}
}

// checkLost fires once per absence episode, strictly after FaceLostTimeout
// has passed since the last face, or since session start if none was seen.
func (a *Analyzer) checkLost(at time.Time) (Event, bool) {
	if a.lostFired {
		return Event{}, false
	}
	ref := a.lastFace
	if ref.IsZero() {
		ref = a.started
	}
	if ref.IsZero() || at.Sub(ref) <= a.config.FaceLostTimeout {
		return Event{}, false
	}
	a.lostFired = true
	a.logger.Info("face lost", "absent", at.Sub(ref))
	return Event{Kind: EventFaceLost, At: at}, true
}

func (a *Analyzer) analyze(face *detection.Face, at time.Time) Result {
	lm := face.Landmarks
	ear := clamp(geometry.AverageEAR(lm), 0, 1)
	mar := math.Max(geometry.MAR(lm.Mouth()), 0)
	pose := geometry.HeadPose(lm)
	gaze := geometry.Gaze(lm)

	a.blinks.Update(ear, at)
	rate := a.blinks.Rate(at)
	a.blinkRate.Store(int32(rate))

	as := a.assessor.Assess(attention.Input{
		EAR:       ear,
		MAR:       mar,
		Pose:      pose,
		Gaze:      gaze,
		BlinkRate: rate,
	})

	return Result{
		SessionID:      a.sessionID,
		Timestamp:      at,
		EAR:            ear,
		MAR:            mar,
		HeadPose:       pose,
		GazeDirection:  gaze,
		BlinkRate:      rate,
		AttentionScore: as.Score,
		FatigueLevel:   as.Fatigue,
		IsDrowsy:       as.IsDrowsy,
		Confidence:     int(math.Round(clamp(face.Confidence, 0, 1) * 100)),
	}
}

func clamp(v, lo, hi float64) float64 {
	if math.IsNaN(v) {
		return lo
	}
	return math.Max(lo, math.Min(hi, v))
}
