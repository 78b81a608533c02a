// Package timer implements the activity timer: a three-phase state machine
// whose elapsed time per task survives restarts.
package timer

import "time"

// Phase is the timer's state.
type Phase string

const (
	PhaseIdle    Phase = "idle"
	PhaseRunning Phase = "running"
	PhasePaused  Phase = "paused"
)

// PauseCause records why the timer is paused.
type PauseCause string

const (
	CauseNone     PauseCause = ""
	CauseManual   PauseCause = "manual"
	CauseAbsence  PauseCause = "absence"
	CauseFatigue  PauseCause = "fatigue"
	CauseRestored PauseCause = "restored"
)

// Automatic reports whether the pause was triggered by monitoring rather
// than by the user. Only automatic pauses may be lifted automatically.
func (c PauseCause) Automatic() bool {
	return c == CauseAbsence || c == CauseFatigue || c == CauseRestored
}

// State is a snapshot of the timer.
type State struct {
	Phase        Phase      `json:"phase"`
	ActiveTaskID string     `json:"activeTaskId,omitempty"`
	ElapsedMs    int64      `json:"elapsedMs"`
	StartedAt    time.Time  `json:"startedAt,omitempty"`
	PauseCause   PauseCause `json:"pauseCause,omitempty"`
}

// Persisted keys.
const (
	KeyTimerState = "timer_state"
	KeyTaskTimes  = "task_times"
)

// Record is the persisted form of the timer under KeyTimerState.
type Record struct {
	ActiveTaskID string     `json:"activeTaskId"`
	ElapsedMs    int64      `json:"elapsedMs"`
	Phase        Phase      `json:"phase"`
	PauseCause   PauseCause `json:"pauseCause,omitempty"`
}
