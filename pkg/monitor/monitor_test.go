package monitor

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/teslashibe/go-focus/pkg/analysis"
	"github.com/teslashibe/go-focus/pkg/attention"
	"github.com/teslashibe/go-focus/pkg/camera"
	"github.com/teslashibe/go-focus/pkg/detection"
	"github.com/teslashibe/go-focus/pkg/geometry"
	"github.com/teslashibe/go-focus/pkg/presence"
	"github.com/teslashibe/go-focus/pkg/store"
	"github.com/teslashibe/go-focus/pkg/timer"
)

var t0 = time.Date(2026, 3, 2, 9, 0, 0, 0, time.UTC)

func ms(n int) time.Duration { return time.Duration(n) * time.Millisecond }

type fixture struct {
	m     *Monitor
	a     *analysis.Analyzer
	kv    *store.Memory
	clock time.Time
	mu    sync.Mutex
}

func (f *fixture) now() time.Time {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.clock
}

func (f *fixture) set(t time.Time) {
	f.mu.Lock()
	f.clock = t
	f.mu.Unlock()
}

// newFixture builds a monitor whose analyzer never ticks on its own; tests
// drive it with handle.
func newFixture(t *testing.T) *fixture {
	t.Helper()
	cfg := analysis.DefaultConfig()
	cfg.SampleInterval = time.Hour

	f := &fixture{kv: store.NewMemory(), clock: t0}
	f.a = analysis.New(cfg, camera.Still{}, detection.NewMock())
	machine := timer.New(f.kv)
	if err := machine.Load(context.Background(), t0); err != nil {
		t.Fatal(err)
	}
	f.m = New(f.a, presence.New(presence.DefaultConfig()), machine)
	f.m.SetClock(f.now)
	t.Cleanup(f.m.StopDetection)
	return f
}

func result(score int, fatigue attention.Fatigue) *analysis.Result {
	return &analysis.Result{AttentionScore: score, FatigueLevel: fatigue, Confidence: 90}
}

// present feeds attentive results every 150ms over [from, to].
func (f *fixture) present(from, to time.Time) {
	for now := from; !now.After(to); now = now.Add(ms(150)) {
		f.set(now)
		f.m.handle(analysis.Event{Kind: analysis.EventResult, At: now, Result: result(90, attention.FatigueLow)})
	}
}

func TestMonitor_AutoStartAfterPresence(t *testing.T) {
	f := newFixture(t)

	var changes []Snapshot
	f.m.OnStateChange(func(s Snapshot) { changes = append(changes, s) })
	var analyzed int
	f.m.OnAnalysis(func(analysis.Result) { analyzed++ })

	f.m.SelectTask("Study")
	if err := f.m.EnableMonitoring(); err != nil {
		t.Fatal(err)
	}
	if got := f.m.GateState().State; got != presence.WaitingForFace {
		t.Fatalf("gate = %s, want waiting_for_face", got)
	}

	f.present(t0, t0.Add(ms(4950)))
	if f.m.TimerState().Phase != timer.PhaseIdle {
		t.Fatal("timer started before 5s of presence")
	}
	f.present(t0.Add(ms(5100)), t0.Add(ms(5100)))

	st := f.m.TimerState()
	if st.Phase != timer.PhaseRunning || st.ActiveTaskID != "Study" {
		t.Errorf("timer = %+v, want Study running", st)
	}
	if got := f.m.GateState().State; got != presence.Idle {
		t.Errorf("gate = %s, want idle after consume", got)
	}
	if analyzed != 35 {
		t.Errorf("OnAnalysis fired %d times, want 35", analyzed)
	}
	if len(changes) == 0 {
		t.Error("no state change notifications")
	}
}

func TestMonitor_ConfirmationHeldUntilTaskSelected(t *testing.T) {
	f := newFixture(t)
	f.m.EnableMonitoring()

	f.present(t0, t0.Add(ms(5100)))
	if got := f.m.GateState().State; got != presence.Confirmed {
		t.Fatalf("gate = %s, want confirmed", got)
	}
	if f.m.TimerState().Phase != timer.PhaseIdle {
		t.Fatal("timer started without a task")
	}

	f.m.SelectTask("Read")
	st := f.m.TimerState()
	if st.Phase != timer.PhaseRunning || st.ActiveTaskID != "Read" {
		t.Errorf("timer = %+v, want Read running", st)
	}
}

func TestMonitor_AbsencePausesAndFaceResumes(t *testing.T) {
	f := newFixture(t)
	f.m.StartTimer("Write")
	f.m.EnableMonitoring()

	var noFace int
	f.m.OnNoFace(func() { noFace++ })

	at := t0.Add(10 * time.Second)
	f.set(at)
	f.m.handle(analysis.Event{Kind: analysis.EventFaceLost, At: at})

	st := f.m.TimerState()
	if st.Phase != timer.PhasePaused || st.PauseCause != timer.CauseAbsence {
		t.Fatalf("timer = %+v, want paused for absence", st)
	}
	if noFace != 1 {
		t.Errorf("OnNoFace fired %d times, want 1", noFace)
	}
	if st.ElapsedMs != 10000 {
		t.Errorf("ElapsedMs = %d, want 10000", st.ElapsedMs)
	}

	f.present(t0.Add(time.Minute), t0.Add(time.Minute))
	if got := f.m.TimerState().Phase; got != timer.PhaseRunning {
		t.Errorf("phase = %s, want running", got)
	}
}

func TestMonitor_FatiguePauseAndResume(t *testing.T) {
	f := newFixture(t)
	f.m.StartTimer("Write")
	f.m.EnableMonitoring()

	at := t0.Add(time.Second)
	f.set(at)
	f.m.handle(analysis.Event{Kind: analysis.EventResult, At: at, Result: result(20, attention.FatigueHigh)})
	st := f.m.TimerState()
	if st.Phase != timer.PhasePaused || st.PauseCause != timer.CauseFatigue {
		t.Fatalf("timer = %+v, want paused for fatigue", st)
	}

	at = at.Add(ms(150))
	f.set(at)
	f.m.handle(analysis.Event{Kind: analysis.EventResult, At: at, Result: result(40, attention.FatigueMedium)})
	if got := f.m.TimerState().Phase; got != timer.PhasePaused {
		t.Errorf("resumed at score 40")
	}

	at = at.Add(ms(150))
	f.set(at)
	f.m.handle(analysis.Event{Kind: analysis.EventResult, At: at, Result: result(55, attention.FatigueMedium)})
	if got := f.m.TimerState().Phase; got != timer.PhaseRunning {
		t.Errorf("phase = %s, want running", got)
	}
}

func TestMonitor_ManualPauseStaysPaused(t *testing.T) {
	f := newFixture(t)
	f.m.StartTimer("Write")
	f.set(t0.Add(ms(500)))
	f.m.PauseTimer()
	if err := f.m.EnableMonitoring(); err != nil {
		t.Fatal(err)
	}

	f.present(t0.Add(time.Second), t0.Add(7*time.Second))
	st := f.m.TimerState()
	if st.Phase != timer.PhasePaused || st.ActiveTaskID != "Write" || st.PauseCause != timer.CauseManual {
		t.Errorf("timer = %+v, want Write still paused manually", st)
	}
	if st.ElapsedMs != 500 {
		t.Errorf("ElapsedMs = %d, want 500", st.ElapsedMs)
	}

	if !f.m.ResumeTimer() {
		t.Error("manual ResumeTimer failed")
	}
}

func TestMonitor_PresenceWhilePausedDoesNotSwitchTask(t *testing.T) {
	f := newFixture(t)
	f.m.StartTimer("Write")
	f.m.PauseTimer()
	f.m.SelectTask("Read")
	if err := f.m.EnableMonitoring(); err != nil {
		t.Fatal(err)
	}

	f.present(t0.Add(time.Second), t0.Add(7*time.Second))
	st := f.m.TimerState()
	if st.Phase != timer.PhasePaused || st.ActiveTaskID != "Write" {
		t.Errorf("timer = %+v, want Write paused", st)
	}
	if _, ok := f.m.Snapshot().TaskTimes["Read"]; ok {
		t.Error("Read was started")
	}
}

func TestMonitor_PresenceResumesAutomaticPause(t *testing.T) {
	f := newFixture(t)
	f.m.StartTimer("Write")
	f.m.EnableMonitoring()

	at := t0.Add(2 * time.Second)
	f.set(at)
	f.m.handle(analysis.Event{Kind: analysis.EventResult, At: at, Result: result(20, attention.FatigueHigh)})
	if got := f.m.TimerState().PauseCause; got != timer.CauseFatigue {
		t.Fatalf("PauseCause = %q, want fatigue", got)
	}

	// re-arming while paused goes through the resume rule, not a fresh start
	f.m.DisableMonitoring()
	f.m.EnableMonitoring()
	f.present(at.Add(time.Second), at.Add(time.Second))
	st := f.m.TimerState()
	if st.Phase != timer.PhaseRunning || st.ActiveTaskID != "Write" || st.ElapsedMs != 2000 {
		t.Errorf("timer = %+v, want Write running from 2000", st)
	}
}

func TestMonitor_ManualControlsWithoutCamera(t *testing.T) {
	f := newFixture(t)

	if !f.m.StartTimer("A") {
		t.Fatal("StartTimer failed")
	}
	f.set(t0.Add(3 * time.Second))
	if !f.m.StopTimer() {
		t.Fatal("StopTimer failed")
	}
	if f.m.StopTimer() {
		t.Error("second StopTimer should be a no-op")
	}
	if got := f.m.Snapshot().TaskTimes["A"]; got != 3000 {
		t.Errorf("TaskTimes[A] = %d, want 3000", got)
	}

	// empty id falls back to the selected task
	if !f.m.StartTimer("") {
		t.Fatal("StartTimer(\"\") should start the selected task")
	}
	if st := f.m.TimerState(); st.ActiveTaskID != "A" || st.ElapsedMs != 3000 {
		t.Errorf("timer = %+v, want A continuing from 3000", st)
	}

	bare := New(nil, presence.New(presence.DefaultConfig()), timer.New(store.NewMemory()))
	if bare.StartTimer("") {
		t.Error("StartTimer with no task selected should fail")
	}
}

func TestMonitor_SamplesWriteThrough(t *testing.T) {
	f := newFixture(t)
	f.m.StartTimer("Study")

	at := t0.Add(ms(450))
	f.m.handle(analysis.Event{Kind: analysis.EventNoFace, At: at})

	var rec timer.Record
	if err := f.kv.Get(context.Background(), timer.KeyTimerState, &rec); err != nil {
		t.Fatal(err)
	}
	if rec.ElapsedMs != 450 {
		t.Errorf("persisted elapsed = %d, want 450", rec.ElapsedMs)
	}
}

func TestMonitor_StopDetectionResetsBlinksOnly(t *testing.T) {
	f := newFixture(t)

	face := func(ear float64) *detection.Face {
		p := geometry.DefaultFaceParams()
		p.EAR = ear
		d := detection.SyntheticFace(p, 0.9)
		return &d
	}
	f.a.Process(face(0.30), nil, t0)
	f.a.Process(face(0.15), nil, t0.Add(ms(150)))
	f.a.Process(face(0.30), nil, t0.Add(ms(300)))
	if f.m.BlinkRate() != 1 {
		t.Fatalf("BlinkRate = %d, want 1", f.m.BlinkRate())
	}

	f.m.StartTimer("Study")
	if err := f.m.StartDetection(); err != nil {
		t.Fatal(err)
	}
	if err := f.m.StartDetection(); err != nil {
		t.Fatal(err)
	}
	if !f.m.Detecting() {
		t.Fatal("not detecting")
	}

	f.m.StopDetection()
	f.m.StopDetection()

	if f.m.Detecting() {
		t.Error("still detecting after StopDetection")
	}
	if f.m.BlinkRate() != 0 {
		t.Errorf("BlinkRate = %d after stop, want 0", f.m.BlinkRate())
	}
	if got := f.m.TimerState().Phase; got != timer.PhaseRunning {
		t.Errorf("timer = %s, StopDetection must not touch it", got)
	}
}

func TestMonitor_DisableMonitoringDisarms(t *testing.T) {
	f := newFixture(t)
	f.m.EnableMonitoring()
	f.m.DisableMonitoring()

	gs := f.m.GateState()
	if gs.State != presence.Idle || gs.Monitoring {
		t.Errorf("gate = %+v, want idle and disarmed", gs)
	}
	if f.m.Detecting() {
		t.Error("detection still running")
	}
}

func TestMonitor_NoAnalyzer(t *testing.T) {
	m := New(nil, presence.New(presence.DefaultConfig()), timer.New(store.NewMemory()))
	if err := m.StartDetection(); err != ErrNoAnalyzer {
		t.Errorf("StartDetection = %v, want ErrNoAnalyzer", err)
	}
	m.StopDetection()
	if m.BlinkRate() != 0 {
		t.Error("BlinkRate without analyzer")
	}
}
