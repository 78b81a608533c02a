// Package monitor wires the frame analyzer, the presence gate and the
// activity timer into a single focus-session controller.
package monitor

import (
	"context"
	"errors"
	"log/slog"
	"sync"
	"sync/atomic"
	"time"

	"github.com/teslashibe/go-focus/internal/log"
	"github.com/teslashibe/go-focus/pkg/analysis"
	"github.com/teslashibe/go-focus/pkg/presence"
	"github.com/teslashibe/go-focus/pkg/timer"
)

// ErrNoAnalyzer is returned by StartDetection when no analyzer is configured.
var ErrNoAnalyzer = errors.New("monitor: no analyzer configured")

// Snapshot is the full observable state of a focus session.
type Snapshot struct {
	Timer        timer.State       `json:"timer"`
	Gate         presence.Snapshot `json:"gate"`
	Detecting    bool              `json:"detecting"`
	SelectedTask string            `json:"selectedTask,omitempty"`
	BlinkRate    int               `json:"blinkRate"`
	LastResult   *analysis.Result  `json:"lastResult,omitempty"`
	TaskTimes    map[string]int64  `json:"taskTimes"`
	StorageError string            `json:"storageError,omitempty"`
}

// Monitor owns the gate and the timer; both are only touched under mu.
// Analyzer events arrive on a dedicated goroutine per detection session.
type Monitor struct {
	analyzer *analysis.Analyzer
	gate     *presence.Gate
	timer    *timer.Machine
	logger   *slog.Logger
	now      func() time.Time

	mu       sync.Mutex
	selected string
	last     *analysis.Result

	onAnalysis    func(analysis.Result)
	onNoFace      func()
	onStateChange func(Snapshot)

	// lifecycle serializes StartDetection and StopDetection
	lifecycle sync.Mutex
	cancel    context.CancelFunc
	runDone   chan struct{}
	eventDone chan struct{}
	detecting atomic.Bool
}

// New creates a monitor. The timer should already be loaded.
func New(analyzer *analysis.Analyzer, gate *presence.Gate, machine *timer.Machine) *Monitor {
	return &Monitor{
		analyzer: analyzer,
		gate:     gate,
		timer:    machine,
		logger:   log.Component("monitor"),
		now:      time.Now,
	}
}

// SetClock replaces the time source for manual controls and reads.
func (m *Monitor) SetClock(now func() time.Time) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.now = now
}

// OnAnalysis registers the per-frame result callback.
func (m *Monitor) OnAnalysis(fn func(analysis.Result)) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.onAnalysis = fn
}

// OnNoFace registers the callback fired once per sustained-absence episode.
func (m *Monitor) OnNoFace(fn func()) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.onNoFace = fn
}

// OnStateChange registers a callback fired whenever the gate state, timer
// phase or selected task changes.
func (m *Monitor) OnStateChange(fn func(Snapshot)) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.onStateChange = fn
}

// StartDetection starts sampling. Calling it while detecting is a no-op.
func (m *Monitor) StartDetection() error {
	if m.analyzer == nil {
		return ErrNoAnalyzer
	}

	m.lifecycle.Lock()
	if m.cancel != nil {
		m.lifecycle.Unlock()
		return nil
	}

	ctx, cancel := context.WithCancel(context.Background())
	events := make(chan analysis.Event, 16)
	runDone := make(chan struct{})
	eventDone := make(chan struct{})

	go func() {
		defer close(runDone)
		m.analyzer.Run(ctx, events)
	}()
	go func() {
		defer close(eventDone)
		for {
			select {
			case ev := <-events:
				m.handle(ev)
			case <-ctx.Done():
				return
			}
		}
	}()

	m.cancel, m.runDone, m.eventDone = cancel, runDone, eventDone
	m.detecting.Store(true)
	m.lifecycle.Unlock()

	m.logger.Info("detection started")
	m.notify()
	return nil
}

// StopDetection halts sampling and waits for the loop to exit, then clears
// blink and drowsy history. Gate and timer are left as they are. Idempotent.
func (m *Monitor) StopDetection() {
	m.lifecycle.Lock()
	if m.cancel == nil {
		m.lifecycle.Unlock()
		return
	}

	m.cancel()
	<-m.runDone
	<-m.eventDone
	m.cancel, m.runDone, m.eventDone = nil, nil, nil

	m.analyzer.Reset()
	m.mu.Lock()
	m.last = nil
	m.mu.Unlock()
	m.detecting.Store(false)
	m.lifecycle.Unlock()

	m.logger.Info("detection stopped")
	m.notify()
}

// Close stops detection and writes the final elapsed time of a running
// timer. The timer itself keeps running in the persisted record.
func (m *Monitor) Close() {
	m.StopDetection()
	m.mu.Lock()
	defer m.mu.Unlock()
	m.timer.Tick(m.now())
}

// Detecting reports whether the sampling loop is running.
func (m *Monitor) Detecting() bool {
	return m.detecting.Load()
}

// EnableMonitoring enters camera-monitoring mode: arms the gate and starts
// detection.
func (m *Monitor) EnableMonitoring() error {
	m.mu.Lock()
	m.gate.Arm(m.timer.Phase())
	m.mu.Unlock()
	m.logger.Info("monitoring enabled")
	return m.StartDetection()
}

// DisableMonitoring leaves camera-monitoring mode and stops detection.
func (m *Monitor) DisableMonitoring() {
	m.mu.Lock()
	m.gate.Disarm()
	m.mu.Unlock()
	m.StopDetection()
	m.logger.Info("monitoring disabled")
}

// SelectTask records the task chosen by the user. A held presence
// confirmation starts it immediately.
func (m *Monitor) SelectTask(taskID string) {
	m.mutate(func(now time.Time) {
		m.selected = taskID
		if taskID != "" && m.timer.Phase() == timer.PhaseIdle && m.gate.Consume() {
			m.timer.Start(taskID, now)
		}
	})
}

// StartTimer starts taskID, or the selected task if taskID is empty.
func (m *Monitor) StartTimer(taskID string) bool {
	var ok bool
	m.mutate(func(now time.Time) {
		if taskID == "" {
			taskID = m.selected
		}
		if ok = m.timer.Start(taskID, now); ok {
			m.selected = taskID
			m.gate.TimerStarted()
		}
	})
	return ok
}

// PauseTimer pauses manually. Manual pauses are never lifted automatically.
func (m *Monitor) PauseTimer() bool {
	var ok bool
	m.mutate(func(now time.Time) { ok = m.timer.Pause(timer.CauseManual, now) })
	return ok
}

// ResumeTimer resumes regardless of why the timer was paused.
func (m *Monitor) ResumeTimer() bool {
	var ok bool
	m.mutate(func(now time.Time) { ok = m.timer.Resume(now) })
	return ok
}

// StopTimer stops the timer and stores its elapsed time. The gate is not
// re-armed.
func (m *Monitor) StopTimer() bool {
	var ok bool
	m.mutate(func(now time.Time) { ok = m.timer.Stop(now) })
	return ok
}

// BlinkRate returns the current blink rate.
func (m *Monitor) BlinkRate() int {
	if m.analyzer == nil {
		return 0
	}
	return m.analyzer.BlinkRate()
}

// TimerState returns the timer state as of now.
func (m *Monitor) TimerState() timer.State {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.timer.State(m.now())
}

// GateState returns the presence gate state.
func (m *Monitor) GateState() presence.Snapshot {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.gate.Snapshot()
}

// Metrics returns analyzer counters.
func (m *Monitor) Metrics() analysis.MetricsSnapshot {
	if m.analyzer == nil {
		return analysis.MetricsSnapshot{}
	}
	return m.analyzer.Metrics().Snapshot()
}

// Snapshot returns the full session state.
func (m *Monitor) Snapshot() Snapshot {
	detecting := m.Detecting()
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.snapshotLocked(detecting)
}

func (m *Monitor) snapshotLocked(detecting bool) Snapshot {
	now := m.now()
	s := Snapshot{
		Timer:        m.timer.State(now),
		Gate:         m.gate.Snapshot(),
		Detecting:    detecting,
		SelectedTask: m.selected,
		BlinkRate:    m.BlinkRate(),
		LastResult:   m.last,
		TaskTimes:    m.timer.TaskTimes(),
	}
	if s.Timer.Phase != timer.PhaseIdle {
		s.TaskTimes[s.Timer.ActiveTaskID] = s.Timer.ElapsedMs
	}
	if err := m.timer.StorageErr(); err != nil {
		s.StorageError = err.Error()
	}
	return s
}

type fingerprint struct {
	gate     presence.State
	phase    timer.Phase
	task     string
	selected string
}

func (m *Monitor) fingerprintLocked() fingerprint {
	return fingerprint{
		gate:     m.gate.State(),
		phase:    m.timer.Phase(),
		task:     m.timer.State(m.now()).ActiveTaskID,
		selected: m.selected,
	}
}

// mutate runs fn under the lock and notifies if the observable state moved.
func (m *Monitor) mutate(fn func(now time.Time)) {
	m.mu.Lock()
	before := m.fingerprintLocked()
	fn(m.now())
	changed := m.fingerprintLocked() != before
	m.mu.Unlock()

	if changed {
		m.notify()
	}
}

// notify delivers a fresh snapshot to the state-change callback.
func (m *Monitor) notify() {
	m.mu.Lock()
	fn := m.onStateChange
	m.mu.Unlock()
	if fn == nil {
		return
	}
	fn(m.Snapshot())
}

// handle applies one analyzer event. Callbacks run outside the lock.
func (m *Monitor) handle(ev analysis.Event) {
	m.mu.Lock()
	before := m.fingerprintLocked()
	phase := m.timer.Phase()

	var lost bool
	switch ev.Kind {
	case analysis.EventResult:
		m.last = ev.Result
		d := m.gate.ObserveFace(presence.Observation{
			AttentionScore: ev.Result.AttentionScore,
			Fatigue:        ev.Result.FatigueLevel,
		}, ev.At, phase)
		m.apply(d, ev.At)
	case analysis.EventNoFace:
		m.gate.ObserveNoFace(ev.At)
	case analysis.EventFaceLost:
		lost = true
		m.apply(m.gate.ObserveFaceLost(ev.At, phase), ev.At)
	}
	m.timer.Tick(ev.At)

	changed := m.fingerprintLocked() != before
	onAnalysis, onNoFace := m.onAnalysis, m.onNoFace
	m.mu.Unlock()

	if ev.Kind == analysis.EventResult && onAnalysis != nil {
		onAnalysis(*ev.Result)
	}
	if lost && onNoFace != nil {
		onNoFace()
	}
	if changed {
		m.notify()
	}
}

// apply carries out a gate decision. Caller holds mu.
func (m *Monitor) apply(d presence.Decision, now time.Time) {
	switch d.Action {
	case presence.ActionConfirm:
		if m.timer.Phase() != timer.PhaseIdle {
			return
		}
		if m.selected == "" {
			m.logger.Info("presence confirmed, waiting for a task")
			return
		}
		m.gate.Consume()
		m.timer.Start(m.selected, now)
	case presence.ActionPause:
		m.timer.Pause(d.Cause, now)
	case presence.ActionResume:
		m.timer.AutoResume(now)
	}
}
