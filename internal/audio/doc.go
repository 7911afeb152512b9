// Package audio provides audio input device enumeration, the capture
// environment abstraction, and the PCM to WAV conversion used for scene
// segments.
//
// The CaptureEnvironment interface isolates the hardware layer (malgo) from
// the session and scheduler logic so both can be exercised without a
// soundcard. The production environment is malgo-backed and selects its
// backend per platform (ALSA, WASAPI, CoreAudio).
package audio
