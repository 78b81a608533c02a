package detection

import (
	"context"
	"sync"

	"github.com/teslashibe/go-focus/pkg/geometry"
)

// Mock implements Detector for testing and offline demos.
type Mock struct {
	// DetectFunc is called when Detect is invoked.
	DetectFunc func(ctx context.Context, jpeg []byte) (*Face, error)

	mu     sync.Mutex
	calls  int
	closed bool
}

// Every MockBlinkEvery-th Detect call on the default mock returns the face
// with its eyes closed. At a 150ms sample interval that is 20 blinks a minute.
const MockBlinkEvery = 20

// NewMock returns a detector that sees an attentive synthetic face looking
// at the camera and blinking on every MockBlinkEvery-th call.
func NewMock() *Mock {
	p := geometry.DefaultFaceParams()
	p.Scale = 0.1
	open := SyntheticFace(p, 0.95)
	p.EAR = 0.15
	closed := SyntheticFace(p, 0.95)

	m := &Mock{}
	m.DetectFunc = func(ctx context.Context, jpeg []byte) (*Face, error) {
		// Detect has already counted this call
		f := open
		if m.Calls()%MockBlinkEvery == 0 {
			f = closed
		}
		return &f, nil
	}
	return m
}

// SyntheticFace wraps geometry.SyntheticFace as a detection.
func SyntheticFace(p geometry.FaceParams, confidence float64) Face {
	return Face{Landmarks: geometry.SyntheticFace(p), Confidence: confidence}
}

// Detect calls DetectFunc and records the call.
func (m *Mock) Detect(ctx context.Context, jpeg []byte) (*Face, error) {
	m.mu.Lock()
	m.calls++
	fn := m.DetectFunc
	m.mu.Unlock()

	if fn == nil {
		return nil, nil
	}
	return fn(ctx, jpeg)
}

// SetFace swaps the scripted result. A nil face simulates absence.
func (m *Mock) SetFace(face *Face, err error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.DetectFunc = func(ctx context.Context, jpeg []byte) (*Face, error) {
		if face == nil {
			return nil, err
		}
		f := *face
		return &f, err
	}
}

// Calls returns how many times Detect was invoked.
func (m *Mock) Calls() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.calls
}

// Close marks the mock closed.
func (m *Mock) Close() error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.closed = true
	return nil
}

// Closed reports whether Close was called.
func (m *Mock) Closed() bool {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.closed
}

// MockPresence implements PresenceChecker for testing.
type MockPresence struct {
	BoxesFunc func(jpeg []byte) ([]Box, error)
}

// Boxes calls BoxesFunc.
func (m *MockPresence) Boxes(jpeg []byte) ([]Box, error) {
	if m.BoxesFunc == nil {
		return nil, nil
	}
	return m.BoxesFunc(jpeg)
}

// Close is a no-op.
func (m *MockPresence) Close() error { return nil }
