package detection

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net"
	"net/http"
	"time"

	"github.com/teslashibe/go-focus/internal/httpc"
	"github.com/teslashibe/go-focus/pkg/geometry"
)

// maxErrorBody caps how much of an error response is kept.
const maxErrorBody = 512

// Remote calls an HTTP landmark service. The service accepts a JPEG body and
// replies with every face it found:
//
//	{"faces": [{"confidence": 0.97, "landmarks": [[x, y], ...]}]}
type Remote struct {
	url    string
	client *http.Client
}

// landmarkResponse is the service reply.
type landmarkResponse struct {
	Faces []struct {
		Confidence float64      `json:"confidence"`
		Landmarks  [][2]float64 `json:"landmarks"`
	} `json:"faces"`
}

// NewRemote creates a client for the landmark service at url.
func NewRemote(url string, timeout time.Duration) *Remote {
	return &Remote{
		url:    url,
		client: httpc.NewClient(timeout),
	}
}

// Detect posts the frame and returns the best face, if any.
func (r *Remote) Detect(ctx context.Context, jpeg []byte) (*Face, error) {
	resp, err := httpc.Post(ctx, r.client, r.url, "image/jpeg", jpeg)
	if err != nil {
		var opErr *net.OpError
		if errors.As(err, &opErr) {
			return nil, fmt.Errorf("%w: %v", ErrDetectorUnavailable, err)
		}
		return nil, fmt.Errorf("landmark request: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		body, _ := io.ReadAll(io.LimitReader(resp.Body, maxErrorBody))
		return nil, &ServiceError{StatusCode: resp.StatusCode, Message: string(body)}
	}

	var parsed landmarkResponse
	if err := json.NewDecoder(resp.Body).Decode(&parsed); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrMalformedResponse, err)
	}

	faces := make([]Face, 0, len(parsed.Faces))
	for _, f := range parsed.Faces {
		pts := make([]geometry.Point, len(f.Landmarks))
		for i, xy := range f.Landmarks {
			pts[i] = geometry.Point{X: xy[0], Y: xy[1]}
		}
		faces = append(faces, Face{
			Landmarks:  geometry.NewLandmarkSet(pts),
			Confidence: f.Confidence,
		})
	}

	best := SelectBest(faces)
	if best == nil {
		return nil, nil
	}
	face := *best
	return &face, nil
}

// Close releases idle connections.
func (r *Remote) Close() error {
	r.client.CloseIdleConnections()
	return nil
}
