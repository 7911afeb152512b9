package sink

import (
	"context"
	"time"
)

// Segment is a finished scene recording ready for delivery.
type Segment struct {
	// Data is the encoded WAV buffer.
	Data []byte
	// Filename is the canonical scene filename, e.g. scene_20210101_120000_sz001.wav.
	Filename string
	// Sequence is the 1-based scene number within the current run.
	Sequence int
	// Duration is the nominal segment duration.
	Duration time.Duration
	// Timestamp marks when the segment's capture started.
	Timestamp time.Time
}

// Sink receives finished segments. Implementations must be safe for
// sequential reuse across segments; they are not called concurrently.
type Sink interface {
	// Deliver persists or forwards the segment. A non-nil error means
	// the segment was not delivered; the caller decides whether to log
	// or count the failure, the segment itself is not retried.
	Deliver(ctx context.Context, seg Segment) error

	// Name identifies the sink in logs and metrics.
	Name() string
}
