package audio

import (
	"context"

	"github.com/scenecap/scenecap/internal/errors"
)

// Error sentinel values for device enumeration faults
var (
	// ErrPermissionDenied is returned when the environment refuses
	// microphone access. Fatal to enumeration and capture, never retried.
	ErrPermissionDenied = errors.NewStd("audio input permission denied")

	// ErrDeviceQueryFailed is returned for any enumeration fault other
	// than a permission refusal.
	ErrDeviceQueryFailed = errors.NewStd("audio device query failed")
)

// StreamConfig describes the constraints applied when opening a capture
// stream. The processing constraints are always enabled by the session;
// backends that cannot honor one simply capture without it.
type StreamConfig struct {
	DeviceID         string // empty selects the system default input
	SampleRate       int
	Channels         int
	EchoCancellation bool
	NoiseSuppression bool
	AutoGainControl  bool
}

// DataFunc receives one raw data chunk from an open capture stream. The
// chunk is only valid for the duration of the call; implementations must
// copy it if they retain it.
type DataFunc func(chunk []byte)

// Stream is one open hardware capture stream, exclusively owned by the
// capture session that opened it.
type Stream interface {
	// Stop halts capture and flushes buffered data. No DataFunc call is
	// made after Stop returns.
	Stop() error

	// Release frees the underlying device handle. Callers guarantee
	// exactly-once invocation; Release itself need not be idempotent.
	Release()

	// Format returns the actual capture format of the stream.
	Format() Format
}

// CaptureEnvironment abstracts the platform capture layer: permission,
// device enumeration, container support, and stream acquisition.
type CaptureEnvironment interface {
	ContainerSupport

	// RequestPermission asks the environment for input access, blocking
	// until granted or denied. Returns ErrPermissionDenied when refused.
	RequestPermission(ctx context.Context) error

	// Devices enumerates the available audio input devices.
	Devices(ctx context.Context) ([]Device, error)

	// OpenStream acquires a capture stream and starts delivering data to
	// onData. On failure any partially acquired resources are released
	// before the error is returned.
	OpenStream(ctx context.Context, cfg StreamConfig, onData DataFunc) (Stream, error)
}

// ListInputDevices requests input permission from the environment and then
// enumerates audio input devices. The returned slice preserves enumeration
// order and is empty when no input devices exist.
func ListInputDevices(ctx context.Context, env CaptureEnvironment) ([]Device, error) {
	if err := env.RequestPermission(ctx); err != nil {
		return nil, err
	}

	devices, err := env.Devices(ctx)
	if err != nil {
		return nil, err
	}

	return devices, nil
}
