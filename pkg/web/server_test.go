package web

import (
	"encoding/json"
	"errors"
	"io"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/teslashibe/go-focus/pkg/analysis"
	"github.com/teslashibe/go-focus/pkg/monitor"
	"github.com/teslashibe/go-focus/pkg/timer"
)

type fakeController struct {
	state      monitor.Snapshot
	started    string
	selected   string
	paused     bool
	monitoring bool
	detectErr  error
}

func (f *fakeController) Snapshot() monitor.Snapshot        { return f.state }
func (f *fakeController) Metrics() analysis.MetricsSnapshot { return analysis.MetricsSnapshot{Samples: 7} }
func (f *fakeController) SelectTask(id string)              { f.selected = id }
func (f *fakeController) ResumeTimer() bool                 { return false }
func (f *fakeController) StopTimer() bool                   { return true }
func (f *fakeController) StartDetection() error             { return f.detectErr }
func (f *fakeController) StopDetection()                    {}
func (f *fakeController) DisableMonitoring()                { f.monitoring = false }

func (f *fakeController) StartTimer(id string) bool {
	f.started = id
	f.state.Timer = timer.State{Phase: timer.PhaseRunning, ActiveTaskID: id}
	return true
}

func (f *fakeController) PauseTimer() bool {
	f.paused = true
	return true
}

func (f *fakeController) EnableMonitoring() error {
	f.monitoring = true
	return nil
}

func do(t *testing.T, s *Server, method, path, body string) (int, []byte) {
	t.Helper()
	var r io.Reader
	if body != "" {
		r = strings.NewReader(body)
	}
	req := httptest.NewRequest(method, path, r)
	if body != "" {
		req.Header.Set("Content-Type", "application/json")
	}
	resp, err := s.App().Test(req)
	if err != nil {
		t.Fatalf("%s %s: %v", method, path, err)
	}
	defer resp.Body.Close()
	data, _ := io.ReadAll(resp.Body)
	return resp.StatusCode, data
}

func TestTimerStart(t *testing.T) {
	ctrl := &fakeController{}
	s := NewServer(":0", ctrl)

	code, body := do(t, s, "POST", "/api/timer/start", `{"taskId":"Study"}`)
	if code != 200 {
		t.Fatalf("status = %d body=%s", code, body)
	}
	if ctrl.started != "Study" {
		t.Errorf("started = %q", ctrl.started)
	}

	var resp ActionResponse
	if err := json.Unmarshal(body, &resp); err != nil {
		t.Fatal(err)
	}
	if !resp.OK || resp.State.Timer.Phase != timer.PhaseRunning {
		t.Errorf("response = %+v", resp)
	}
}

func TestTimerActions(t *testing.T) {
	tests := []struct {
		path string
		want int
	}{
		{"/api/timer/pause", 200},
		{"/api/timer/resume", 409},
		{"/api/timer/stop", 200},
		{"/api/timer/rewind", 404},
	}

	for _, tt := range tests {
		t.Run(tt.path, func(t *testing.T) {
			s := NewServer(":0", &fakeController{})
			if code, body := do(t, s, "POST", tt.path, ""); code != tt.want {
				t.Errorf("status = %d, want %d (%s)", code, tt.want, body)
			}
		})
	}
}

func TestSelectTask(t *testing.T) {
	ctrl := &fakeController{}
	s := NewServer(":0", ctrl)

	if code, _ := do(t, s, "POST", "/api/task", `{"taskId":"Read"}`); code != 200 {
		t.Fatalf("status = %d", code)
	}
	if ctrl.selected != "Read" {
		t.Errorf("selected = %q", ctrl.selected)
	}
	if code, _ := do(t, s, "POST", "/api/task", `{not json`); code != 400 {
		t.Errorf("bad body status = %d, want 400", code)
	}
}

func TestMonitoringAndDetection(t *testing.T) {
	ctrl := &fakeController{}
	s := NewServer(":0", ctrl)

	do(t, s, "POST", "/api/monitoring/enable", "")
	if !ctrl.monitoring {
		t.Error("monitoring not enabled")
	}
	do(t, s, "POST", "/api/monitoring/disable", "")
	if ctrl.monitoring {
		t.Error("monitoring not disabled")
	}

	ctrl.detectErr = errors.New("no camera")
	if code, _ := do(t, s, "POST", "/api/detection/start", ""); code != 503 {
		t.Errorf("status = %d, want 503", code)
	}
}

func TestStateAndMetrics(t *testing.T) {
	ctrl := &fakeController{state: monitor.Snapshot{SelectedTask: "Study", BlinkRate: 14}}
	s := NewServer(":0", ctrl)

	_, body := do(t, s, "GET", "/api/state", "")
	var snap monitor.Snapshot
	if err := json.Unmarshal(body, &snap); err != nil {
		t.Fatal(err)
	}
	if snap.SelectedTask != "Study" || snap.BlinkRate != 14 {
		t.Errorf("state = %+v", snap)
	}

	_, body = do(t, s, "GET", "/api/metrics", "")
	var m MetricsResponse
	if err := json.Unmarshal(body, &m); err != nil {
		t.Fatal(err)
	}
	if m.Analysis.Samples != 7 {
		t.Errorf("samples = %d", m.Analysis.Samples)
	}
}

func TestEventsRequiresUpgrade(t *testing.T) {
	s := NewServer(":0", &fakeController{})
	if code, _ := do(t, s, "GET", "/ws/events", ""); code != 426 {
		t.Errorf("status = %d, want 426", code)
	}
}
