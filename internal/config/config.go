// Package config loads go-focus settings from the environment and an
// optional .env file.
package config

import (
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"

	"github.com/teslashibe/go-focus/pkg/analysis"
	"github.com/teslashibe/go-focus/pkg/camera"
	"github.com/teslashibe/go-focus/pkg/detection"
	"github.com/teslashibe/go-focus/pkg/store"
)

// Detector backends.
const (
	DetectorRemote  = "remote"  // Landmark service only
	DetectorCascade = "cascade" // YuNet presence check, then landmark service
	DetectorMock    = "mock"    // Synthetic attentive face, no camera
)

// Config is the process configuration.
type Config struct {
	Addr        string // HTTP listen address
	LogLevel    string
	DataFile    string // JSON state file
	PostgresDSN string // Selects the Postgres store when set

	Detector     string
	ServiceURL   string
	ModelPath    string
	CameraIndex  int
	CameraPreset string

	SampleInterval time.Duration
	MinConfidence  float64
	DetectTimeout  time.Duration
}

// Load reads .env if present, then the environment.
func Load() Config {
	// a missing .env is normal; real env vars still apply
	_ = godotenv.Load()
	return fromEnv()
}

func fromEnv() Config {
	det := detection.DefaultConfig()
	ana := analysis.DefaultConfig()
	cam := camera.DefaultConfig()

	dataFile, err := store.DefaultPath()
	if err != nil {
		dataFile = "focus-state.json"
	}

	return Config{
		Addr:        getEnv("FOCUS_ADDR", ":8080"),
		LogLevel:    getEnv("FOCUS_LOG_LEVEL", "info"),
		DataFile:    getEnv("FOCUS_DATA_FILE", dataFile),
		PostgresDSN: getEnv("FOCUS_POSTGRES_DSN", ""),

		Detector:     getEnv("FOCUS_DETECTOR", DetectorRemote),
		ServiceURL:   getEnv("FOCUS_LANDMARK_URL", det.ServiceURL),
		ModelPath:    getEnv("FOCUS_YUNET_MODEL", det.ModelPath),
		CameraIndex:  getEnvInt("FOCUS_CAMERA", cam.Device),
		CameraPreset: getEnv("FOCUS_CAMERA_PRESET", camera.PresetLaptop),

		SampleInterval: getEnvDuration("FOCUS_SAMPLE_INTERVAL", ana.SampleInterval),
		MinConfidence:  getEnvFloat("FOCUS_MIN_CONFIDENCE", ana.MinConfidence),
		DetectTimeout:  getEnvDuration("FOCUS_DETECT_TIMEOUT", ana.DetectTimeout),
	}
}

// Analysis returns the analyzer config with overrides applied.
func (c Config) Analysis() analysis.Config {
	a := analysis.DefaultConfig()
	if c.SampleInterval > 0 {
		a.SampleInterval = c.SampleInterval
	}
	if c.MinConfidence > 0 {
		a.MinConfidence = c.MinConfidence
	}
	if c.DetectTimeout > 0 {
		a.DetectTimeout = c.DetectTimeout
	}
	return a
}

// Camera returns the capture settings for the configured preset and device.
func (c Config) Camera() (camera.Config, error) {
	name := c.CameraPreset
	if name == "" {
		name = camera.PresetLaptop
	}
	return camera.Preset(name, c.CameraIndex)
}

// Validate returns a list of configuration problems.
func (c Config) Validate() []string {
	var problems []string
	switch c.Detector {
	case DetectorRemote, DetectorCascade, DetectorMock:
	default:
		problems = append(problems, "FOCUS_DETECTOR must be remote, cascade or mock")
	}
	if c.Detector != DetectorMock && c.ServiceURL == "" {
		problems = append(problems, "FOCUS_LANDMARK_URL is required")
	}
	if c.Detector == DetectorCascade && c.ModelPath == "" {
		problems = append(problems, "FOCUS_YUNET_MODEL is required for the cascade detector")
	}
	if c.Detector != DetectorMock {
		if _, err := c.Camera(); err != nil {
			problems = append(problems, "FOCUS_CAMERA_PRESET must be one of "+strings.Join(camera.PresetNames(), ", "))
		}
	}
	if c.MinConfidence < 0 || c.MinConfidence > 1 {
		problems = append(problems, "FOCUS_MIN_CONFIDENCE must be within [0,1]")
	}
	if c.SampleInterval < 0 {
		problems = append(problems, "FOCUS_SAMPLE_INTERVAL must be positive")
	}
	if c.PostgresDSN == "" && c.DataFile == "" {
		problems = append(problems, "one of FOCUS_DATA_FILE or FOCUS_POSTGRES_DSN is required")
	}
	return problems
}

func getEnv(key, defaultVal string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return defaultVal
}

func getEnvInt(key string, defaultVal int) int {
	if v := os.Getenv(key); v != "" {
		if n, err := strconv.Atoi(v); err == nil {
			return n
		}
	}
	return defaultVal
}

func getEnvFloat(key string, defaultVal float64) float64 {
	if v := os.Getenv(key); v != "" {
		if f, err := strconv.ParseFloat(v, 64); err == nil {
			return f
		}
	}
	return defaultVal
}

func getEnvDuration(key string, defaultVal time.Duration) time.Duration {
	if v := os.Getenv(key); v != "" {
		if d, err := time.ParseDuration(v); err == nil {
			return d
		}
	}
	return defaultVal
}
