package capture

import (
	"github.com/scenecap/scenecap/internal/errors"
)

// Error sentinel values for session and scheduler usage errors. These are
// programmer/usage errors: surfaced synchronously, never retried internally.
var (
	// ErrAlreadyCapturing is returned when Start is called on a session
	// that is not idle.
	ErrAlreadyCapturing = errors.NewStd("capture session already capturing")

	// ErrNotCapturing is returned when Stop is called on a session that
	// is not capturing.
	ErrNotCapturing = errors.NewStd("capture session not capturing")

	// ErrAlreadyRunning is returned when a continuous recording run is
	// started while one is already active.
	ErrAlreadyRunning = errors.NewStd("continuous recording already running")

	// ErrCaptureStartFailed is returned when hardware stream acquisition
	// fails. Any partially acquired stream is released before this
	// surfaces.
	ErrCaptureStartFailed = errors.NewStd("failed to start capture stream")
)
