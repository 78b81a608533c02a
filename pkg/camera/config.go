// Package camera describes where analysis frames come from: the Source
// interface and the capture settings a webcam is opened with.
package camera

import "fmt"

// Config holds webcam capture parameters.
type Config struct {
	Device    int `json:"device"`    // OpenCV device index
	Width     int `json:"width"`     // Requested frame width in pixels
	Height    int `json:"height"`    // Requested frame height in pixels
	Framerate int `json:"framerate"` // Capture FPS; analysis samples far less often
	Quality   int `json:"quality"`   // JPEG quality sent to the detector, 1-100
}

// Capture limits. Below the minimum a face is too small for 68 landmarks.
const (
	MinWidth     = 160
	MinHeight    = 120
	MaxWidth     = 1920
	MaxHeight    = 1080
	MaxFramerate = 60
)

// DefaultConfig is the laptop preset: 640x480 at 30fps.
func DefaultConfig() Config {
	return Config{
		Device:    0,
		Width:     640,
		Height:    480,
		Framerate: 30,
		Quality:   80,
	}
}

// Validate returns every out-of-range field, or nil.
func (c *Config) Validate() []string {
	var problems []string
	if c.Device < 0 {
		problems = append(problems, "device must be >= 0")
	}
	if c.Width < MinWidth || c.Width > MaxWidth {
		problems = append(problems, fmt.Sprintf("width must be between %d and %d", MinWidth, MaxWidth))
	}
	if c.Height < MinHeight || c.Height > MaxHeight {
		problems = append(problems, fmt.Sprintf("height must be between %d and %d", MinHeight, MaxHeight))
	}
	if c.Framerate < 1 || c.Framerate > MaxFramerate {
		problems = append(problems, fmt.Sprintf("framerate must be between 1 and %d", MaxFramerate))
	}
	if c.Quality < 1 || c.Quality > 100 {
		problems = append(problems, "quality must be between 1 and 100")
	}
	return problems
}
