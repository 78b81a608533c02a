package detection

// Box is a face bounding box from the presence check.
type Box struct {
	X, Y       float64 // Top-left corner (0-1 normalized)
	W, H       float64 // Width and height (0-1 normalized)
	Confidence float64 // Detection confidence (0-1)
}

// PresenceChecker answers whether a frame contains a face at all. It is
// cheaper than landmark extraction and runs first.
type PresenceChecker interface {
	Boxes(jpeg []byte) ([]Box, error)
	Close() error
}
