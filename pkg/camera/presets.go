package camera

import (
	"errors"
	"fmt"
	"sort"
)

// ErrUnknownPreset is returned by Preset for names not in Presets.
var ErrUnknownPreset = errors.New("camera: unknown preset")

// Preset names. Landmarks only need the face to span ~150px, so none of these
// go above 720p.
const (
	PresetLaptop   = "laptop"   // Built-in webcam at arm's length
	PresetLowPower = "lowpower" // Battery or old hardware
	PresetExternal = "external" // Monitor-mounted camera, face further away
	PresetDim      = "dim"      // Evening light; fewer, brighter frames
)

// Presets returns every named capture configuration.
func Presets() map[string]Config {
	lowPower := DefaultConfig()
	lowPower.Width, lowPower.Height = 320, 240
	lowPower.Framerate = 15
	lowPower.Quality = 70

	external := DefaultConfig()
	external.Width, external.Height = 1280, 720
	external.Quality = 85

	// Fewer frames per second lets the driver lengthen exposure.
	dim := DefaultConfig()
	dim.Framerate = 10

	return map[string]Config{
		PresetLaptop:   DefaultConfig(),
		PresetLowPower: lowPower,
		PresetExternal: external,
		PresetDim:      dim,
	}
}

// PresetNames lists preset names in sorted order.
func PresetNames() []string {
	presets := Presets()
	names := make([]string, 0, len(presets))
	for name := range presets {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// Preset looks up a configuration by name and points it at device.
func Preset(name string, device int) (Config, error) {
	cfg, ok := Presets()[name]
	if !ok {
		return Config{}, fmt.Errorf("%w: %q (have %v)", ErrUnknownPreset, name, PresetNames())
	}
	cfg.Device = device
	return cfg, nil
}
