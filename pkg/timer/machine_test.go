package timer

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/teslashibe/go-focus/pkg/store"
)

var t0 = time.Date(2026, 3, 2, 14, 0, 0, 0, time.UTC)

func ms(n int) time.Duration { return time.Duration(n) * time.Millisecond }

func newMachine(t *testing.T) (*Machine, *store.Memory) {
	t.Helper()
	kv := store.NewMemory()
	m := New(kv)
	if err := m.Load(context.Background(), t0); err != nil {
		t.Fatalf("Load: %v", err)
	}
	return m, kv
}

func TestMachine_StudyScenario(t *testing.T) {
	kv := store.NewMemory()
	kv.Put(context.Background(), KeyTaskTimes, map[string]int64{"Study": 120000})

	m := New(kv)
	if err := m.Load(context.Background(), t0); err != nil {
		t.Fatalf("Load: %v", err)
	}

	if !m.Start("Study", t0) {
		t.Fatal("Start returned false")
	}
	if !m.Pause(CauseManual, t0.Add(3*time.Second)) {
		t.Fatal("Pause returned false")
	}

	st := m.State(t0.Add(10 * time.Second))
	if st.Phase != PhasePaused {
		t.Errorf("Phase = %s, want paused", st.Phase)
	}
	if st.ElapsedMs != 123000 {
		t.Errorf("ElapsedMs = %d, want 123000", st.ElapsedMs)
	}
}

func TestMachine_RoundTripIgnoresPausedTime(t *testing.T) {
	m, _ := newMachine(t)

	now := t0
	m.Start("Write", now)
	now = now.Add(ms(2500))
	m.Pause(CauseManual, now)
	now = now.Add(10 * time.Minute) // paused time must not count
	m.Resume(now)
	now = now.Add(ms(1500))
	m.Pause(CauseFatigue, now)
	now = now.Add(time.Hour)
	m.Resume(now)
	now = now.Add(ms(1000))
	m.Stop(now)

	if got := m.TaskTime("Write", now); got != 5000 {
		t.Errorf("TaskTime = %d, want 5000", got)
	}
	if m.Phase() != PhaseIdle {
		t.Errorf("Phase = %s, want idle", m.Phase())
	}
}

func TestMachine_ElapsedMonotonicWhileRunning(t *testing.T) {
	m, _ := newMachine(t)
	m.Start("Read", t0)

	prev := int64(-1)
	for i := 0; i < 20; i++ {
		now := t0.Add(ms(150 * i))
		m.Tick(now)
		got := m.State(now).ElapsedMs
		if got < prev {
			t.Fatalf("elapsed went backwards: %d < %d", got, prev)
		}
		prev = got
	}

	// wall clock jumps backwards
	m.Tick(t0.Add(-time.Minute))
	if got := m.State(t0.Add(-time.Minute)).ElapsedMs; got < prev {
		t.Errorf("elapsed regressed on clock jump: %d < %d", got, prev)
	}
}

func TestMachine_WrongStateRequestsAreNoOps(t *testing.T) {
	m, kv := newMachine(t)

	if m.Pause(CauseAbsence, t0) || m.Resume(t0) || m.AutoResume(t0) || m.Stop(t0) {
		t.Error("requests from idle should be no-ops")
	}
	if kv.Puts() != 0 {
		t.Errorf("no-ops wrote %d times", kv.Puts())
	}

	m.Start("A", t0)
	if m.Resume(t0) {
		t.Error("Resume while running should be a no-op")
	}
	if m.Start("A", t0) {
		t.Error("Start of the running task should be a no-op")
	}
	if m.Start("", t0) {
		t.Error("Start without a task should be a no-op")
	}

	m.Pause(CauseManual, t0.Add(time.Second))
	if m.Pause(CauseManual, t0.Add(2*time.Second)) {
		t.Error("Pause while paused should be a no-op")
	}
}

func TestMachine_AutoResumeRespectsManualPause(t *testing.T) {
	m, _ := newMachine(t)
	m.Start("A", t0)

	m.Pause(CauseManual, t0.Add(time.Second))
	if m.AutoResume(t0.Add(2 * time.Second)) {
		t.Error("manual pause must not auto-resume")
	}

	m.Resume(t0.Add(3 * time.Second))
	m.Pause(CauseAbsence, t0.Add(4*time.Second))
	if !m.AutoResume(t0.Add(5 * time.Second)) {
		t.Error("absence pause should auto-resume")
	}
	if got := m.State(t0.Add(5 * time.Second)).ElapsedMs; got != 2000 {
		t.Errorf("ElapsedMs = %d, want 2000", got)
	}
}

func TestMachine_StartSwitchesTasks(t *testing.T) {
	m, _ := newMachine(t)
	m.Start("A", t0)
	m.Start("B", t0.Add(ms(4000)))

	st := m.State(t0.Add(ms(5000)))
	if st.ActiveTaskID != "B" || st.ElapsedMs != 1000 {
		t.Errorf("state = %+v, want B at 1000ms", st)
	}
	if got := m.TaskTime("A", t0.Add(ms(5000))); got != 4000 {
		t.Errorf("A = %d, want 4000", got)
	}

	// starting the paused task resumes it
	m.Pause(CauseManual, t0.Add(ms(5000)))
	if !m.Start("B", t0.Add(ms(9000))) {
		t.Fatal("Start of paused task should resume")
	}
	if got := m.State(t0.Add(ms(9500))).ElapsedMs; got != 1500 {
		t.Errorf("B = %d, want 1500", got)
	}
}

func TestMachine_WriteThroughAndReload(t *testing.T) {
	m, kv := newMachine(t)
	m.Start("Study", t0)
	m.Tick(t0.Add(ms(150)))
	m.Tick(t0.Add(ms(300)))

	var rec Record
	if err := kv.Get(context.Background(), KeyTimerState, &rec); err != nil {
		t.Fatalf("Get: %v", err)
	}
	if rec.Phase != PhaseRunning || rec.ActiveTaskID != "Study" || rec.ElapsedMs != 300 {
		t.Errorf("persisted = %+v", rec)
	}

	// simulated crash: a fresh machine on the same store
	restored := New(kv)
	if err := restored.Load(context.Background(), t0.Add(time.Hour)); err != nil {
		t.Fatalf("Load: %v", err)
	}
	st := restored.State(t0.Add(time.Hour))
	if st.Phase != PhasePaused || st.ActiveTaskID != "Study" || st.ElapsedMs != 300 {
		t.Errorf("restored = %+v", st)
	}
	if st.PauseCause != CauseRestored {
		t.Errorf("PauseCause = %q, want restored", st.PauseCause)
	}
	if !restored.AutoResume(t0.Add(time.Hour)) {
		t.Error("restored pause should be auto-resumable")
	}
}

func TestMachine_StorageFailureKeepsRunning(t *testing.T) {
	m, kv := newMachine(t)
	kv.SetPutErr(errors.New("disk full"))

	if !m.Start("A", t0) {
		t.Fatal("Start should succeed despite storage failure")
	}
	var swf *StorageWriteFailure
	if !errors.As(m.StorageErr(), &swf) {
		t.Fatalf("StorageErr = %v, want StorageWriteFailure", m.StorageErr())
	}

	m.Pause(CauseManual, t0.Add(ms(700)))
	if got := m.State(t0.Add(time.Second)).ElapsedMs; got != 700 {
		t.Errorf("in-memory elapsed = %d, want 700", got)
	}

	// storage recovers, next mutation reconciles
	kv.SetPutErr(nil)
	m.Resume(t0.Add(time.Second))
	if m.StorageErr() != nil {
		t.Errorf("StorageErr after recovery = %v", m.StorageErr())
	}
	var rec Record
	kv.Get(context.Background(), KeyTimerState, &rec)
	if rec.Phase != PhaseRunning || rec.ElapsedMs != 700 {
		t.Errorf("reconciled record = %+v", rec)
	}
}

func TestMachine_LoadIdleRecord(t *testing.T) {
	kv := store.NewMemory()
	kv.Put(context.Background(), KeyTimerState, Record{Phase: PhaseIdle})
	m := New(kv)
	if err := m.Load(context.Background(), t0); err != nil {
		t.Fatal(err)
	}
	if m.Phase() != PhaseIdle {
		t.Errorf("Phase = %s", m.Phase())
	}
}

func TestPauseCause_Automatic(t *testing.T) {
	for cause, want := range map[PauseCause]bool{
		CauseNone:     false,
		CauseManual:   false,
		CauseAbsence:  true,
		CauseFatigue:  true,
		CauseRestored: true,
	} {
		if got := cause.Automatic(); got != want {
			t.Errorf("%q.Automatic() = %v, want %v", cause, got, want)
		}
	}
}
