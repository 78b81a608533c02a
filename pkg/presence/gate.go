// Package presence debounces face presence into discrete gate transitions
// that decide when the timer may start, must pause, or may resume.
package presence

import (
	"log/slog"
	"time"

	"github.com/teslashibe/go-focus/internal/log"
	"github.com/teslashibe/go-focus/pkg/attention"
	"github.com/teslashibe/go-focus/pkg/timer"
)

// State is the gate's state.
type State string

const (
	Idle           State = "idle"
	WaitingForFace State = "waiting_for_face"
	Confirmed      State = "confirmed"
	Lost           State = "lost"
)

// Action is what the gate asks of the timer.
type Action string

const (
	ActionNone    Action = ""
	ActionConfirm Action = "confirm" // Auto-start permitted
	ActionPause   Action = "pause"
	ActionResume  Action = "resume"
)

// Decision is the outcome of feeding one event to the gate.
type Decision struct {
	Action Action
	Cause  timer.PauseCause // Set for ActionPause
}

// Config holds gate thresholds.
type Config struct {
	RequiredPresence time.Duration // Continuous presence needed to confirm
	PauseScore       int           // Running timer pauses below this score
	ResumeScore      int           // Paused timer resumes above this score
}

// DefaultConfig returns the standard gate thresholds.
func DefaultConfig() Config {
	return Config{
		RequiredPresence: 5 * time.Second,
		PauseScore:       30,
		ResumeScore:      40,
	}
}

// Observation is the slice of an analysis result the gate needs.
type Observation struct {
	AttentionScore int
	Fatigue        attention.Fatigue
}

// Snapshot is a read-only view of the gate.
type Snapshot struct {
	State       State      `json:"state"`
	Monitoring  bool       `json:"monitoring"`
	Since       *time.Time `json:"since,omitempty"`
	ConfirmedAt *time.Time `json:"confirmedAt,omitempty"`
}

// Gate is the presence state machine. Not safe for concurrent use.
type Gate struct {
	config Config
	logger *slog.Logger

	state       State
	monitoring  bool
	since       time.Time // Start of the current continuous presence run
	confirmedAt time.Time
	lostFrom    State // State the gate was in when the face was lost
}

// New creates an idle, disarmed gate.
func New(config Config) *Gate {
	return &Gate{
		config: config,
		logger: log.Component("presence"),
		state:  Idle,
	}
}

func (g *Gate) transition(to State) {
	if g.state == to {
		return
	}
	g.logger.Debug("gate transition", "from", g.state, "to", to)
	g.state = to
}

// Arm enters camera-monitoring mode. If the timer is not running the gate
// waits for a face, discarding any earlier confirmation.
func (g *Gate) Arm(phase timer.Phase) {
	g.monitoring = true
	if phase == timer.PhaseRunning {
		return
	}
	g.since = time.Time{}
	g.confirmedAt = time.Time{}
	g.transition(WaitingForFace)
}

// Disarm leaves camera-monitoring mode.
func (g *Gate) Disarm() {
	g.monitoring = false
	g.since = time.Time{}
	g.confirmedAt = time.Time{}
	g.transition(Idle)
}

// ObserveFace feeds one analyzed face.
func (g *Gate) ObserveFace(obs Observation, now time.Time, phase timer.Phase) Decision {
	if !g.monitoring {
		return Decision{}
	}

	if g.state == Lost && g.lostFrom == WaitingForFace {
		g.transition(WaitingForFace)
	}

	// Confirmation only permits an auto-start from Idle. With a task already
	// paused, renewed presence is judged by the resume rule below.
	if phase != timer.PhaseIdle && g.state == WaitingForFace {
		g.since = time.Time{}
		g.transition(Idle)
	}

	switch g.state {
	case WaitingForFace:
		if g.since.IsZero() {
			g.since = now
		}
		if now.Sub(g.since) >= g.config.RequiredPresence {
			g.confirmedAt = now
			g.transition(Confirmed)
			g.logger.Info("presence confirmed", "since", g.since)
			return Decision{Action: ActionConfirm}
		}
		return Decision{}
	case Confirmed:
		// held until consumed
		return Decision{}
	}

	switch phase {
	case timer.PhaseRunning:
		if g.state == Lost {
			g.transition(Idle)
		}
		if obs.AttentionScore < g.config.PauseScore || obs.Fatigue == attention.FatigueHigh {
			return Decision{Action: ActionPause, Cause: timer.CauseFatigue}
		}
	case timer.PhasePaused:
		// Fatigue high is itself a pause trigger, so it also blocks resume.
		if obs.AttentionScore > g.config.ResumeScore && obs.Fatigue != attention.FatigueHigh {
			g.transition(Idle)
			return Decision{Action: ActionResume}
		}
	}
	return Decision{}
}

// ObserveNoFace feeds one sample without a qualifying face. Confirmation
// requires continuous presence, so any gap restarts it.
func (g *Gate) ObserveNoFace(now time.Time) {
	if g.state == WaitingForFace && !g.since.IsZero() {
		g.logger.Debug("presence run broken", "held", now.Sub(g.since))
		g.since = time.Time{}
	}
}

// ObserveFaceLost handles the sustained-absence timeout.
func (g *Gate) ObserveFaceLost(now time.Time, phase timer.Phase) Decision {
	if !g.monitoring {
		return Decision{}
	}

	switch g.state {
	case WaitingForFace, Confirmed:
		g.since = time.Time{}
		g.confirmedAt = time.Time{}
		g.lostFrom = WaitingForFace
		g.transition(Lost)
		return Decision{}
	case Idle:
		if phase == timer.PhaseIdle {
			return Decision{}
		}
		g.lostFrom = Idle
		g.transition(Lost)
		if phase == timer.PhaseRunning {
			g.logger.Info("face lost while running")
			return Decision{Action: ActionPause, Cause: timer.CauseAbsence}
		}
	}
	return Decision{}
}

// Consume takes the one-shot confirmation. Returns false if there was none.
func (g *Gate) Consume() bool {
	if g.state != Confirmed {
		return false
	}
	g.since = time.Time{}
	g.transition(Idle)
	return true
}

// TimerStarted stands the gate down when the timer starts by any route.
func (g *Gate) TimerStarted() {
	switch g.state {
	case WaitingForFace, Confirmed:
		g.since = time.Time{}
		g.transition(Idle)
	case Lost:
		if g.lostFrom == WaitingForFace {
			g.transition(Idle)
		}
	}
}

// State returns the current state.
func (g *Gate) State() State {
	return g.state
}

// Monitoring reports whether camera-monitoring mode is on.
func (g *Gate) Monitoring() bool {
	return g.monitoring
}

// Snapshot returns a read-only view.
func (g *Gate) Snapshot() Snapshot {
	s := Snapshot{State: g.state, Monitoring: g.monitoring}
	if !g.since.IsZero() {
		since := g.since
		s.Since = &since
	}
	if g.state == Confirmed {
		at := g.confirmedAt
		s.ConfirmedAt = &at
	}
	return s
}
