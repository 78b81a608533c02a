// Package opencv holds the OpenCV-backed camera source and face presence
// checker. It is the only package that needs cgo.
package opencv

import (
	"fmt"
	"sync"

	"gocv.io/x/gocv"

	"github.com/teslashibe/go-focus/pkg/camera"
)

// Webcam captures from a local camera through OpenCV.
type Webcam struct {
	config camera.Config

	mu     sync.Mutex // Serializes reads; samples may overlap
	cap    *gocv.VideoCapture
	frame  gocv.Mat
	closed bool
}

// OpenWebcam opens the configured device.
func OpenWebcam(cfg camera.Config) (*Webcam, error) {
	if problems := cfg.Validate(); len(problems) > 0 {
		return nil, fmt.Errorf("invalid camera config: %v", problems)
	}

	vc, err := gocv.OpenVideoCapture(cfg.Device)
	if err != nil {
		return nil, fmt.Errorf("open camera %d: %w", cfg.Device, err)
	}
	vc.Set(gocv.VideoCaptureFrameWidth, float64(cfg.Width))
	vc.Set(gocv.VideoCaptureFrameHeight, float64(cfg.Height))
	vc.Set(gocv.VideoCaptureFPS, float64(cfg.Framerate))

	return &Webcam{
		config: cfg,
		cap:    vc,
		frame:  gocv.NewMat(),
	}, nil
}

// CaptureJPEG grabs the latest frame and encodes it as JPEG.
func (w *Webcam) CaptureJPEG() ([]byte, error) {
	w.mu.Lock()
	defer w.mu.Unlock()

	if w.closed {
		return nil, camera.ErrClosed
	}
	if ok := w.cap.Read(&w.frame); !ok || w.frame.Empty() {
		return nil, fmt.Errorf("camera %d: no frame", w.config.Device)
	}

	buf, err := gocv.IMEncodeWithParams(gocv.JPEGFileExt, w.frame, []int{int(gocv.IMWriteJpegQuality), w.config.Quality})
	if err != nil {
		return nil, fmt.Errorf("encode frame: %w", err)
	}
	defer buf.Close()

	// buf is backed by C memory
	return append([]byte(nil), buf.GetBytes()...), nil
}

// Close releases the device.
func (w *Webcam) Close() error {
	w.mu.Lock()
	defer w.mu.Unlock()

	if w.closed {
		return nil
	}
	w.closed = true
	w.frame.Close()
	return w.cap.Close()
}
