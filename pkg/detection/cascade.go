package detection

import (
	"context"
	"errors"
	"fmt"
)

// Cascade runs a cheap presence check before the landmark detector and
// skips the landmark call when no face is in view.
type Cascade struct {
	presence  PresenceChecker
	landmarks Detector
}

// NewCascade chains a presence checker in front of a landmark detector.
func NewCascade(presence PresenceChecker, landmarks Detector) *Cascade {
	return &Cascade{presence: presence, landmarks: landmarks}
}

// Detect returns nil without calling the landmark detector when the
// presence check finds nothing.
func (c *Cascade) Detect(ctx context.Context, jpeg []byte) (*Face, error) {
	boxes, err := c.presence.Boxes(jpeg)
	if err != nil {
		return nil, fmt.Errorf("presence check: %w", err)
	}
	if len(boxes) == 0 {
		return nil, nil
	}
	return c.landmarks.Detect(ctx, jpeg)
}

// Close releases both stages.
func (c *Cascade) Close() error {
	return errors.Join(c.presence.Close(), c.landmarks.Close())
}
