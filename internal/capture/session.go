package capture

import (
	"context"
	"log/slog"
	"sync"
	"time"

	"github.com/scenecap/scenecap/internal/audio"
	"github.com/scenecap/scenecap/internal/conf"
	"github.com/scenecap/scenecap/internal/errors"
)

// State is the lifecycle state of a capture session.
type State int32

const (
	StateIdle State = iota
	StateCapturing
	StateStopping
	StateStopped
)

// String returns the state name for logging.
func (s State) String() string {
	switch s {
	case StateIdle:
		return "idle"
	case StateCapturing:
		return "capturing"
	case StateStopping:
		return "stopping"
	case StateStopped:
		return "stopped"
	default:
		return "unknown"
	}
}

// CompletionFunc receives the encoded segment buffer and the elapsed
// capture duration once a session has stopped.
type CompletionFunc func(buf audio.TaggedBuffer, elapsed time.Duration)

// Session manages the lifecycle of one hardware capture stream bounded by a
// maximum duration. A session is single-use: once stopped it cannot be
// restarted.
type Session struct {
	env    audio.CaptureEnvironment
	logger *slog.Logger

	mu         sync.Mutex
	state      State
	starting   bool
	container  audio.Container
	format     audio.Format
	chunks     [][]byte
	stream     audio.Stream
	startedAt  time.Time
	stopTimer  *time.Timer
	onComplete CompletionFunc
	level      audio.LevelData

	releaseOnce sync.Once
}

// NewSession creates an idle capture session bound to the given environment.
func NewSession(env audio.CaptureEnvironment, logger *slog.Logger) *Session {
	if logger == nil {
		logger = slog.Default()
	}
	return &Session{
		env:    env,
		logger: logger,
		state:  StateIdle,
	}
}

// OnComplete registers the completion handler invoked after Stop finishes
// encoding. Must be set before Start.
func (s *Session) OnComplete(fn CompletionFunc) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.onComplete = fn
}

// State returns the current lifecycle state.
func (s *Session) State() State {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.state
}

// Level returns the loudness of the most recent chunk.
func (s *Session) Level() audio.LevelData {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.level
}

// Start acquires a capture stream and begins buffering data chunks. An
// empty deviceID selects the system default input. Capture is bounded by
// min(maxDuration, 600s); an automatic stop fires when the cap elapses.
// Start returns immediately once the stream is running.
func (s *Session) Start(ctx context.Context, deviceID string, maxDuration time.Duration) error {
	s.mu.Lock()
	if s.state != StateIdle || s.starting {
		state := s.state
		s.mu.Unlock()
		return errors.New(ErrAlreadyCapturing).
			Component("capture").
			Category(errors.CategoryState).
			Context("state", state.String()).
			Build()
	}
	// Held across the unlocked stream acquisition so a concurrent Start
	// cannot open a second stream.
	s.starting = true
	s.mu.Unlock()

	// Probe the fixed container preference order; the environment picks
	// the first one it supports, falling back to the default container.
	container := audio.NegotiateContainer(s.env)

	cfg := audio.StreamConfig{
		DeviceID: deviceID,
		// Processing constraints are always enabled.
		EchoCancellation: true,
		NoiseSuppression: true,
		AutoGainControl:  true,
	}

	stream, err := s.env.OpenStream(ctx, cfg, s.appendChunk)
	if err != nil {
		s.mu.Lock()
		s.starting = false
		s.mu.Unlock()
		// The environment releases any partially acquired stream before
		// returning, so nothing is held here.
		return errors.New(errors.Join(ErrCaptureStartFailed, err)).
			Component("capture").
			Category(errors.CategoryAudio).
			Context("device", deviceID).
			Build()
	}

	maxDuration = clampCaptureDuration(maxDuration)

	s.mu.Lock()
	s.starting = false
	s.container = container
	s.stream = stream
	s.format = stream.Format()
	s.startedAt = time.Now()
	s.state = StateCapturing
	// Auto-stop when the duration cap elapses. If an explicit Stop wins
	// the race the timer's Stop call finds the session already stopped
	// and is a no-op.
	s.stopTimer = time.AfterFunc(maxDuration, func() {
		_, _ = s.Stop()
	})
	s.mu.Unlock()

	s.logger.Debug("capture session started",
		"device", deviceID,
		"container", string(container),
		"max_duration", maxDuration)

	return nil
}

// appendChunk buffers one raw data chunk. Chunks are accepted while the
// session is capturing and during the stop transition, because the stream's
// finalize flushes its remaining buffered data through this callback.
// Anything delivered after finalize completes is dropped.
func (s *Session) appendChunk(chunk []byte) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.state != StateCapturing && s.state != StateStopping {
		return
	}

	cp := make([]byte, len(chunk))
	copy(cp, chunk)
	s.chunks = append(s.chunks, cp)
	s.level = audio.CalculateLevel(chunk)
}

// Stop finalizes the capture stream, encodes the buffered chunks to WAV and
// invokes the completion handler. The hardware stream is released
// unconditionally, exactly once, regardless of the encoding outcome.
// Returns the elapsed capture duration.
func (s *Session) Stop() (time.Duration, error) {
	s.mu.Lock()
	if s.state != StateCapturing {
		state := s.state
		s.mu.Unlock()
		return 0, errors.New(ErrNotCapturing).
			Component("capture").
			Category(errors.CategoryState).
			Context("state", state.String()).
			Build()
	}
	s.state = StateStopping
	if s.stopTimer != nil {
		s.stopTimer.Stop()
	}
	stream := s.stream
	s.mu.Unlock()

	// Finalize outside the lock: the data callback takes the lock and the
	// stream's Stop blocks until in-flight callbacks drain.
	stopErr := stream.Stop()

	s.mu.Lock()
	s.state = StateStopped
	elapsed := time.Since(s.startedAt)
	raw := concatChunks(s.chunks)
	s.chunks = nil
	container := s.container
	format := s.format
	onComplete := s.onComplete
	s.mu.Unlock()

	defer s.release()

	if stopErr != nil {
		s.logger.Warn("capture stream finalize reported error", "error", stopErr)
	}

	encoded := audio.ToWAV(audio.TaggedBuffer{
		Container: container,
		Format:    format,
		Data:      raw,
	})

	if onComplete != nil {
		onComplete(encoded, elapsed)
	}

	return elapsed, nil
}

// Abort tears the session down without invoking the completion handler.
// Buffered data is abandoned and every internal error is suppressed; the
// stream is still released exactly once.
func (s *Session) Abort() {
	s.mu.Lock()
	s.onComplete = nil
	s.chunks = nil
	if s.stopTimer != nil {
		s.stopTimer.Stop()
	}
	stream := s.stream
	active := s.state == StateCapturing || s.state == StateStopping
	s.state = StateStopped
	s.mu.Unlock()

	if stream != nil && active {
		_ = stream.Stop()
	}
	if stream != nil {
		s.release()
	}
}

// release frees the hardware stream. Guarded so every exit path (explicit
// stop, auto-stop timer, abort) releases exactly once.
func (s *Session) release() {
	s.releaseOnce.Do(func() {
		if s.stream != nil {
			s.stream.Release()
		}
	})
}

// clampCaptureDuration bounds a requested session duration to the hard
// capture cap. Non-positive requests get the full cap rather than failing.
func clampCaptureDuration(d time.Duration) time.Duration {
	hardCap := time.Duration(conf.MaxCaptureSeconds) * time.Second
	if d <= 0 || d > hardCap {
		return hardCap
	}
	return d
}

// concatChunks joins buffered chunks in delivery order.
func concatChunks(chunks [][]byte) []byte {
	total := 0
	for _, c := range chunks {
		total += len(c)
	}
	out := make([]byte, 0, total)
	for _, c := range chunks {
		out = append(out, c...)
	}
	return out
}
