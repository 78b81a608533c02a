// Package hub fans focus-session events out to websocket subscribers using
// a channel-based broadcast loop.
package hub

import (
	"encoding/json"
	"time"
)

// EventType names a broadcast event.
type EventType string

const (
	EventState    EventType = "state"    // monitor.Snapshot
	EventAnalysis EventType = "analysis" // analysis.Result
	EventNoFace   EventType = "no_face"  // Sustained absence began
)

// Envelope is the wire form of every event.
type Envelope struct {
	Type EventType       `json:"type"`
	At   time.Time       `json:"at"`
	Data json.RawMessage `json:"data,omitempty"`
}

// Encode wraps v in an envelope and marshals it.
func Encode(t EventType, at time.Time, v any) ([]byte, error) {
	env := Envelope{Type: t, At: at}
	if v != nil {
		data, err := json.Marshal(v)
		if err != nil {
			return nil, err
		}
		env.Data = data
	}
	return json.Marshal(env)
}
