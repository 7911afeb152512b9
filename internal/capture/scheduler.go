package capture

import (
	"context"
	"log/slog"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/scenecap/scenecap/internal/audio"
	"github.com/scenecap/scenecap/internal/conf"
	"github.com/scenecap/scenecap/internal/errors"
	"github.com/scenecap/scenecap/internal/metrics"
)

// CompletionCallback receives one finished scene segment: the WAV byte
// buffer, the derived filename and the 1-based sequence number. The
// callback must not panic; collaborator failures are the collaborator's
// responsibility.
type CompletionCallback func(wavData []byte, filename string, sequence int)

// Scheduler drives an indefinite sequence of fixed-duration capture
// sessions, each producing one scene segment, until stopped. At most one
// session captures at a time per run.
type Scheduler struct {
	env     audio.CaptureEnvironment
	logger  *slog.Logger
	metrics *metrics.Metrics

	mu           sync.Mutex
	running      bool
	deviceID     string
	segmentDur   time.Duration
	restartDelay time.Duration
	seq          int
	stats        statsTracker
	session      *Session
	nextTimer    *time.Timer
	onSegment    CompletionCallback
}

// NewScheduler creates a scheduler bound to the given capture environment.
func NewScheduler(env audio.CaptureEnvironment, logger *slog.Logger) *Scheduler {
	if logger == nil {
		logger = slog.Default()
	}
	return &Scheduler{
		env:          env,
		logger:       logger,
		restartDelay: conf.SegmentRestartDelayMs * time.Millisecond,
	}
}

// SetMetrics attaches a metrics collector. Optional; nil disables metrics.
func (s *Scheduler) SetMetrics(m *metrics.Metrics) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.metrics = m
}

// Start begins a continuous recording run on the given device, slicing the
// input into segments of segmentMinutes each. onSegment is invoked once per
// finished segment. Fails with ErrAlreadyRunning if a run is active.
func (s *Scheduler) Start(deviceID string, segmentMinutes float64, onSegment CompletionCallback) error {
	s.mu.Lock()
	if s.running {
		s.mu.Unlock()
		return errors.New(ErrAlreadyRunning).
			Component("capture").
			Category(errors.CategoryState).
			Build()
	}

	if segmentMinutes <= 0 {
		s.mu.Unlock()
		return errors.Newf("segment duration must be positive, got %g minutes", segmentMinutes).
			Component("capture").
			Category(errors.CategoryValidation).
			Build()
	}

	s.running = true
	s.seq = 0
	s.deviceID = deviceID
	s.segmentDur = time.Duration(segmentMinutes * 60 * float64(time.Second))
	s.onSegment = onSegment
	s.stats.begin(uuid.NewString())
	runID := s.stats.runID
	segmentDur := s.segmentDur
	m := s.metrics
	s.mu.Unlock()

	if m != nil {
		m.RecordingActive.Set(1)
	}

	s.logger.Info("continuous recording started",
		"run_id", runID,
		"device", deviceID,
		"segment_duration", segmentDur)

	if err := s.startSegment(); err != nil {
		s.mu.Lock()
		s.running = false
		s.mu.Unlock()
		if m != nil {
			m.RecordingActive.Set(0)
		}
		return err
	}

	return nil
}

// startSegment increments the sequence counter and starts a capture session
// for the next segment. A failure here is fatal to the run: sequence
// continuity would break if a segment were silently skipped.
func (s *Scheduler) startSegment() error {
	s.mu.Lock()
	if !s.running {
		s.mu.Unlock()
		return nil
	}

	s.seq++
	seq := s.seq
	filename := SceneFilename(time.Now(), seq)

	sess := NewSession(s.env, s.logger)
	sess.OnComplete(func(buf audio.TaggedBuffer, elapsed time.Duration) {
		level := sess.Level()
		s.logger.Debug("segment level",
			"sequence", seq,
			"level", level.Level,
			"clipping", level.Clipping)
		s.handleSegment(seq, filename, buf, elapsed)
	})
	s.session = sess
	deviceID := s.deviceID
	segmentDur := s.segmentDur
	m := s.metrics
	s.mu.Unlock()

	if err := sess.Start(context.Background(), deviceID, segmentDur); err != nil {
		s.mu.Lock()
		s.running = false
		s.session = nil
		s.mu.Unlock()
		if m != nil {
			m.SegmentErrors.Inc()
			m.RecordingActive.Set(0)
		}
		return errors.New(err).
			Component("capture").
			Category(errors.CategoryAudio).
			Context("sequence", seq).
			Build()
	}

	s.logger.Debug("scene segment started", "sequence", seq, "filename", filename)
	return nil
}

// handleSegment packages one finished session into a scene segment, updates
// run statistics and hands the segment to the completion callback. If the
// run is still flagged running afterwards, the next segment is scheduled
// after a short delay to avoid back-to-back device re-acquisition races.
func (s *Scheduler) handleSegment(seq int, filename string, buf audio.TaggedBuffer, elapsed time.Duration) {
	s.mu.Lock()
	s.stats.addScene(s.segmentDur)
	s.session = nil
	cb := s.onSegment
	m := s.metrics
	s.mu.Unlock()

	if m != nil {
		m.ScenesCaptured.Inc()
		m.SceneDuration.Observe(elapsed.Seconds())
		if buf.Container != audio.ContainerWAV {
			m.EncodeFallbacks.Inc()
		}
	}

	s.logger.Info("scene segment complete",
		"sequence", seq,
		"filename", filename,
		"bytes", len(buf.Data),
		"elapsed", elapsed.Round(time.Millisecond))

	if cb != nil {
		cb(buf.Data, filename, seq)
	}

	// Re-check after the callback: if the run was stopped while the
	// callback was in flight, no further segment may be scheduled.
	s.mu.Lock()
	if s.running {
		s.nextTimer = time.AfterFunc(s.restartDelay, func() {
			if err := s.startSegment(); err != nil {
				s.logger.Error("segment start failed, run halted", "error", err)
			}
		})
	}
	s.mu.Unlock()
}

// Stop ends the run cooperatively: no new segment is scheduled, the active
// session (if any) is stopped so its final segment is emitted, and the
// completion callback is detached. Safe to call with no active run, in
// which case it returns zeroed stats.
func (s *Scheduler) Stop() (Stats, error) {
	s.mu.Lock()
	wasRunning := s.running
	s.running = false
	if s.nextTimer != nil {
		s.nextTimer.Stop()
		s.nextTimer = nil
	}
	sess := s.session
	m := s.metrics
	s.mu.Unlock()

	if sess != nil && sess.State() == StateCapturing {
		// Emits the final segment through the completion pipeline. A
		// NotCapturing error just means the auto-stop timer won the
		// race, the segment was emitted anyway.
		if _, err := sess.Stop(); err != nil && !errors.Is(err, ErrNotCapturing) {
			s.logger.Warn("final session stop failed", "error", err)
		}
	}

	s.mu.Lock()
	s.onSegment = nil
	s.session = nil
	stats := s.stats.snapshot(s.seq, false)
	s.mu.Unlock()

	if wasRunning {
		if m != nil {
			m.RecordingActive.Set(0)
		}
		s.logger.Info("continuous recording stopped",
			"run_id", stats.RunID,
			"total_scenes", stats.TotalScenes,
			"total_duration", stats.TotalDuration)
	}

	return stats, nil
}

// ForceStop unconditionally halts the run for abnormal shutdown. Callbacks
// are cleared before anything is stopped so no in-flight completion can
// fire, the session is aborted best-effort, and all run state is reset.
// Returns the stats as they stood before the reset. Never fails.
func (s *Scheduler) ForceStop() Stats {
	s.mu.Lock()
	snapshot := s.stats.snapshot(s.seq, s.running)
	s.running = false
	s.seq = 0
	s.onSegment = nil
	if s.nextTimer != nil {
		s.nextTimer.Stop()
		s.nextTimer = nil
	}
	sess := s.session
	s.session = nil
	s.stats.reset()
	m := s.metrics
	s.mu.Unlock()

	if sess != nil {
		sess.Abort()
	}

	if m != nil {
		m.RecordingActive.Set(0)
	}

	s.logger.Warn("continuous recording force-stopped",
		"run_id", snapshot.RunID,
		"total_scenes", snapshot.TotalScenes)

	return snapshot
}

// GetStats returns a snapshot of the run without mutating state.
func (s *Scheduler) GetStats() Stats {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.stats.snapshot(s.seq, s.running)
}
