package camera

import "errors"

// ErrClosed is returned when capturing from a closed source.
var ErrClosed = errors.New("camera: source closed")

// Source produces JPEG frames on demand.
type Source interface {
	CaptureJPEG() ([]byte, error)
}

// Still serves the same frame forever. Used with detectors that ignore
// pixel data, such as the mock detector.
type Still struct {
	Frame []byte
}

// CaptureJPEG returns the fixed frame.
func (s Still) CaptureJPEG() ([]byte, error) {
	return s.Frame, nil
}
