package timer

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/teslashibe/go-focus/internal/log"
	"github.com/teslashibe/go-focus/pkg/store"
)

// DefaultWriteTimeout bounds each write-through.
const DefaultWriteTimeout = 2 * time.Second

// Machine is the activity timer. Every mutation is written through to the
// store. Machine is not safe for concurrent use; its owner serializes calls.
type Machine struct {
	kv           store.KV
	logger       *slog.Logger
	writeTimeout time.Duration

	state     State
	taskTimes map[string]int64
	lastErr   error
}

// New creates an idle timer backed by kv. Call Load to restore saved state.
func New(kv store.KV) *Machine {
	return &Machine{
		kv:           kv,
		logger:       log.Component("timer"),
		writeTimeout: DefaultWriteTimeout,
		state:        State{Phase: PhaseIdle},
		taskTimes:    make(map[string]int64),
	}
}

// Load restores the timer and task times. A timer that was running when the
// process died comes back paused with its last persisted elapsed time.
func (m *Machine) Load(ctx context.Context, now time.Time) error {
	var times map[string]int64
	switch err := m.kv.Get(ctx, KeyTaskTimes, &times); {
	case err == nil:
		if times != nil {
			m.taskTimes = times
		}
	case !errors.Is(err, store.ErrNotFound):
		return fmt.Errorf("load %s: %w", KeyTaskTimes, err)
	}

	var rec Record
	switch err := m.kv.Get(ctx, KeyTimerState, &rec); {
	case errors.Is(err, store.ErrNotFound):
		return nil
	case err != nil:
		return fmt.Errorf("load %s: %w", KeyTimerState, err)
	}

	if rec.ActiveTaskID == "" || rec.Phase == PhaseIdle || rec.Phase == "" {
		m.state = State{Phase: PhaseIdle}
		return nil
	}

	m.state = State{
		Phase:        PhasePaused,
		ActiveTaskID: rec.ActiveTaskID,
		ElapsedMs:    max(rec.ElapsedMs, 0),
		PauseCause:   rec.PauseCause,
	}
	if rec.Phase == PhaseRunning {
		m.state.PauseCause = CauseRestored
		m.logger.Info("restored running timer as paused", "task", rec.ActiveTaskID, "elapsed_ms", rec.ElapsedMs)
	}
	return nil
}

// Start begins timing taskID, continuing from its stored elapsed time.
// Starting a different task while one is active stops the active one first;
// starting the task that is already paused resumes it.
func (m *Machine) Start(taskID string, now time.Time) bool {
	if taskID == "" {
		return false
	}

	switch m.state.Phase {
	case PhaseRunning:
		if m.state.ActiveTaskID == taskID {
			return false
		}
		m.Stop(now)
	case PhasePaused:
		if m.state.ActiveTaskID == taskID {
			return m.Resume(now)
		}
		m.Stop(now)
	}

	elapsed := m.taskTimes[taskID]
	m.state = State{
		Phase:        PhaseRunning,
		ActiveTaskID: taskID,
		ElapsedMs:    elapsed,
		StartedAt:    now.Add(-time.Duration(elapsed) * time.Millisecond),
	}
	m.logger.Info("timer started", "task", taskID, "elapsed_ms", elapsed)
	m.persist()
	return true
}

// Pause freezes a running timer.
func (m *Machine) Pause(cause PauseCause, now time.Time) bool {
	if m.state.Phase != PhaseRunning {
		return false
	}
	if cause == CauseNone {
		cause = CauseManual
	}
	m.state.ElapsedMs = m.elapsedAt(now)
	m.state.Phase = PhasePaused
	m.state.StartedAt = time.Time{}
	m.state.PauseCause = cause
	m.logger.Info("timer paused", "task", m.state.ActiveTaskID, "cause", cause, "elapsed_ms", m.state.ElapsedMs)
	m.persist()
	return true
}

// Resume continues a paused timer from its frozen elapsed time.
func (m *Machine) Resume(now time.Time) bool {
	if m.state.Phase != PhasePaused {
		return false
	}
	m.state.Phase = PhaseRunning
	m.state.StartedAt = now.Add(-time.Duration(m.state.ElapsedMs) * time.Millisecond)
	m.state.PauseCause = CauseNone
	m.logger.Info("timer resumed", "task", m.state.ActiveTaskID, "elapsed_ms", m.state.ElapsedMs)
	m.persist()
	return true
}

// AutoResume resumes only pauses that monitoring caused.
func (m *Machine) AutoResume(now time.Time) bool {
	if m.state.Phase != PhasePaused || !m.state.PauseCause.Automatic() {
		return false
	}
	return m.Resume(now)
}

// Stop ends the session and stores the task's elapsed time.
func (m *Machine) Stop(now time.Time) bool {
	if m.state.Phase == PhaseIdle {
		return false
	}
	task := m.state.ActiveTaskID
	elapsed := m.elapsedAt(now)
	m.taskTimes[task] = elapsed
	m.state = State{Phase: PhaseIdle}
	m.logger.Info("timer stopped", "task", task, "elapsed_ms", elapsed)
	m.persist()
	return true
}

// Tick refreshes the elapsed time of a running timer and writes it through,
// bounding what a crash can lose to one tick.
func (m *Machine) Tick(now time.Time) {
	if m.state.Phase != PhaseRunning {
		return
	}
	m.state.ElapsedMs = m.elapsedAt(now)
	m.persist()
}

// State returns a snapshot with elapsed time computed at now.
func (m *Machine) State(now time.Time) State {
	s := m.state
	s.ElapsedMs = m.elapsedAt(now)
	return s
}

// Phase returns the current phase.
func (m *Machine) Phase() Phase {
	return m.state.Phase
}

// TaskTime returns the stored elapsed time for a task, including the live
// value of the active task.
func (m *Machine) TaskTime(taskID string, now time.Time) int64 {
	if m.state.Phase != PhaseIdle && m.state.ActiveTaskID == taskID {
		return m.elapsedAt(now)
	}
	return m.taskTimes[taskID]
}

// TaskTimes returns a copy of all stored task times.
func (m *Machine) TaskTimes() map[string]int64 {
	out := make(map[string]int64, len(m.taskTimes))
	for k, v := range m.taskTimes {
		out[k] = v
	}
	return out
}

// StorageErr returns the most recent write failure, or nil once a write
// succeeds again.
func (m *Machine) StorageErr() error {
	return m.lastErr
}

// elapsedAt never goes backwards, even if the wall clock does.
func (m *Machine) elapsedAt(now time.Time) int64 {
	if m.state.Phase != PhaseRunning {
		return m.state.ElapsedMs
	}
	live := now.Sub(m.state.StartedAt).Milliseconds()
	return max(live, m.state.ElapsedMs)
}

// persist writes timer_state and task_times. Failures are logged and kept
// for StorageErr; the in-memory state stays authoritative.
func (m *Machine) persist() {
	if m.kv == nil {
		return
	}
	if m.state.Phase != PhaseIdle {
		m.taskTimes[m.state.ActiveTaskID] = m.state.ElapsedMs
	}

	ctx, cancel := context.WithTimeout(context.Background(), m.writeTimeout)
	defer cancel()

	rec := Record{
		ActiveTaskID: m.state.ActiveTaskID,
		ElapsedMs:    m.state.ElapsedMs,
		Phase:        m.state.Phase,
		PauseCause:   m.state.PauseCause,
	}

	var errs []error
	if err := m.kv.Put(ctx, KeyTimerState, rec); err != nil {
		errs = append(errs, &StorageWriteFailure{Key: KeyTimerState, Err: err})
	}
	if err := m.kv.Put(ctx, KeyTaskTimes, m.taskTimes); err != nil {
		errs = append(errs, &StorageWriteFailure{Key: KeyTaskTimes, Err: err})
	}

	err := errors.Join(errs...)
	if err != nil && m.lastErr == nil {
		m.logger.Warn("timer state not persisted", "error", err)
	} else if err == nil && m.lastErr != nil {
		m.logger.Info("timer state persisted again")
	}
	m.lastErr = err
}
