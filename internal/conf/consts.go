package conf

// Fixed parameters of the capture and encode pipeline.
const (
	SampleRate  = 48000 // Default capture sample rate in Hz
	BitDepth    = 16    // Bit depth of encoded scene audio
	NumChannels = 1     // Default number of capture channels

	// MaxCaptureSeconds is the hard cap for a single capture session.
	// Longer sessions are clamped, never rejected.
	MaxCaptureSeconds = 600

	// SegmentRestartDelayMs is the pause between finishing one scene and
	// starting the next, to avoid back-to-back device re-acquisition races.
	SegmentRestartDelayMs = 100
)
