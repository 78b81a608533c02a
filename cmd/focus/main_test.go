package main

import (
	"context"
	"path/filepath"
	"testing"

	"github.com/teslashibe/go-focus/internal/config"
	"github.com/teslashibe/go-focus/pkg/detection"
	"github.com/teslashibe/go-focus/pkg/store"
)

func TestEventsURL(t *testing.T) {
	tests := map[string]string{
		"http://localhost:8080":   "ws://localhost:8080/ws/events",
		"http://localhost:8080/":  "ws://localhost:8080/ws/events",
		"https://focus.lan":       "wss://focus.lan/ws/events",
	}
	for in, want := range tests {
		serverURL = in
		if got := eventsURL(); got != want {
			t.Errorf("eventsURL(%q) = %q, want %q", in, got, want)
		}
	}
}

func TestFormatElapsed(t *testing.T) {
	tests := map[int64]string{
		0:       "00:00:00",
		123000:  "00:02:03",
		3723000: "01:02:03",
	}
	for ms, want := range tests {
		if got := formatElapsed(ms); got != want {
			t.Errorf("formatElapsed(%d) = %q, want %q", ms, got, want)
		}
	}
}

func TestOpenStore_JSON(t *testing.T) {
	cfg := config.Config{DataFile: filepath.Join(t.TempDir(), "state.json")}
	kv, err := openStore(context.Background(), cfg)
	if err != nil {
		t.Fatal(err)
	}
	defer kv.Close()
	if _, ok := kv.(*store.JSONStore); !ok {
		t.Errorf("store = %T, want *store.JSONStore", kv)
	}
}

func TestOpenDetection_Mock(t *testing.T) {
	source, det, err := openDetection(config.Config{Detector: config.DetectorMock})
	if err != nil {
		t.Fatal(err)
	}
	defer det.Close()

	frame, err := source.CaptureJPEG()
	if err != nil {
		t.Fatal(err)
	}
	face, err := det.Detect(context.Background(), frame)
	if err != nil || face == nil {
		t.Fatalf("mock detect = %v, %v", face, err)
	}
	if _, ok := det.(*detection.Mock); !ok {
		t.Errorf("detector = %T", det)
	}
}
