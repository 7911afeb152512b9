package audio

import (
	"context"
	"log/slog"
	"runtime"
	"sync"

	"github.com/gen2brain/malgo"

	"github.com/scenecap/scenecap/internal/errors"
)

// MalgoEnvironment is the production CaptureEnvironment backed by malgo.
type MalgoEnvironment struct {
	sampleRate int
	channels   int
	logger     *slog.Logger

	mu        sync.Mutex
	permitted bool
}

// NewMalgoEnvironment creates a malgo-backed capture environment with the
// given target capture format.
func NewMalgoEnvironment(sampleRate, channels int, logger *slog.Logger) *MalgoEnvironment {
	if sampleRate <= 0 {
		sampleRate = 48000
	}
	if channels <= 0 {
		channels = 1
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &MalgoEnvironment{
		sampleRate: sampleRate,
		channels:   channels,
		logger:     logger,
	}
}

// getBackendForPlatform returns the appropriate malgo backend for the
// current platform.
func getBackendForPlatform() (malgo.Backend, error) {
	switch runtime.GOOS {
	case "linux":
		return malgo.BackendAlsa, nil
	case "windows":
		return malgo.BackendWasapi, nil
	case "darwin":
		return malgo.BackendCoreaudio, nil
	default:
		return malgo.BackendNull, errors.Newf("unsupported operating system: %s", runtime.GOOS).
			Component("audio").
			Category(errors.CategoryAudio).
			Context("os", runtime.GOOS).
			Build()
	}
}

// SupportsContainer reports the containers malgo can deliver. The capture
// layer produces raw PCM destined for WAV, so only the WAV entry of the
// probe order is supported.
func (e *MalgoEnvironment) SupportsContainer(c Container) bool {
	return c == ContainerWAV
}

// RequestPermission probes the platform capture layer for input access.
// The OS-level grant happens when the audio context is first initialized;
// a refusal surfaces as a context init failure and maps to
// ErrPermissionDenied. The grant is only probed once per environment.
func (e *MalgoEnvironment) RequestPermission(ctx context.Context) error {
	e.mu.Lock()
	defer e.mu.Unlock()

	if e.permitted {
		return nil
	}

	if err := ctx.Err(); err != nil {
		return err
	}

	backend, err := getBackendForPlatform()
	if err != nil {
		return err
	}

	malgoCtx, err := malgo.InitContext([]malgo.Backend{backend}, malgo.ContextConfig{}, nil)
	if err != nil {
		return errors.New(errors.Join(ErrPermissionDenied, err)).
			Component("audio").
			Category(errors.CategoryPermission).
			Context("operation", "init_context").
			Context("backend", runtime.GOOS).
			Build()
	}
	_ = malgoCtx.Uninit()

	e.permitted = true
	return nil
}

// Devices enumerates the available audio capture devices.
func (e *MalgoEnvironment) Devices(ctx context.Context) ([]Device, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	backend, err := getBackendForPlatform()
	if err != nil {
		return nil, err
	}

	malgoCtx, err := malgo.InitContext([]malgo.Backend{backend}, malgo.ContextConfig{}, nil)
	if err != nil {
		return nil, errors.New(errors.Join(ErrDeviceQueryFailed, err)).
			Component("audio").
			Category(errors.CategoryAudio).
			Context("operation", "init_context").
			Context("backend", runtime.GOOS).
			Build()
	}
	defer func() { _ = malgoCtx.Uninit() }()

	infos, err := malgoCtx.Devices(malgo.Capture)
	if err != nil {
		return nil, errors.New(errors.Join(ErrDeviceQueryFailed, err)).
			Component("audio").
			Category(errors.CategoryAudio).
			Context("operation", "enumerate_devices").
			Build()
	}

	devices := make([]Device, 0, len(infos))
	for i := range infos {
		// Skip the discard/null device
		if containsDiscardDevice(infos[i].Name()) {
			continue
		}

		decodedID, err := hexToASCII(infos[i].ID.String())
		if err != nil {
			decodedID = infos[i].ID.String()
		}

		devices = append(devices, Device{
			Index:   i,
			ID:      decodedID,
			Name:    infos[i].Name(),
			Default: infos[i].IsDefault == 1,
		})
	}

	return devices, nil
}

// OpenStream acquires a malgo capture device and starts it. Any partially
// acquired context or device is released before an error is returned.
func (e *MalgoEnvironment) OpenStream(ctx context.Context, cfg StreamConfig, onData DataFunc) (Stream, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	backend, err := getBackendForPlatform()
	if err != nil {
		return nil, err
	}

	malgoCtx, err := malgo.InitContext([]malgo.Backend{backend}, malgo.ContextConfig{}, func(message string) {
		e.logger.Debug("malgo", "message", message)
	})
	if err != nil {
		return nil, errors.New(err).
			Component("audio").
			Category(errors.CategoryAudio).
			Context("operation", "init_context").
			Context("backend", runtime.GOOS).
			Build()
	}

	infos, err := malgoCtx.Devices(malgo.Capture)
	if err != nil {
		_ = malgoCtx.Uninit()
		return nil, errors.New(err).
			Component("audio").
			Category(errors.CategoryAudio).
			Context("operation", "enumerate_devices").
			Build()
	}

	deviceInfo, err := selectDevice(infos, cfg.DeviceID)
	if err != nil {
		_ = malgoCtx.Uninit()
		return nil, err
	}

	sampleRate := cfg.SampleRate
	if sampleRate <= 0 {
		sampleRate = e.sampleRate
	}
	channels := cfg.Channels
	if channels <= 0 {
		channels = e.channels
	}

	deviceConfig := malgo.DefaultDeviceConfig(malgo.Capture)
	deviceConfig.Capture.Format = malgo.FormatS16
	deviceConfig.Capture.Channels = uint32(channels)
	deviceConfig.Capture.DeviceID = deviceInfo.ID.Pointer()
	deviceConfig.SampleRate = uint32(sampleRate)
	deviceConfig.Alsa.NoMMap = 1

	// Echo cancellation, noise suppression and AGC are requested by the
	// session but miniaudio backends capture unprocessed input; the flags
	// are honored where the OS applies them at driver level.
	if !cfg.EchoCancellation || !cfg.NoiseSuppression || !cfg.AutoGainControl {
		e.logger.Debug("capture processing constraints partially disabled",
			"echo_cancellation", cfg.EchoCancellation,
			"noise_suppression", cfg.NoiseSuppression,
			"auto_gain_control", cfg.AutoGainControl)
	}

	deviceCallbacks := malgo.DeviceCallbacks{
		Data: func(pOutputSample, pInputSamples []byte, framecount uint32) {
			onData(pInputSamples)
		},
	}

	device, err := malgo.InitDevice(malgoCtx.Context, deviceConfig, deviceCallbacks)
	if err != nil {
		_ = malgoCtx.Uninit()
		return nil, errors.New(err).
			Component("audio").
			Category(errors.CategoryAudio).
			Context("operation", "init_device").
			Context("device", cfg.DeviceID).
			Build()
	}

	if err := device.Start(); err != nil {
		device.Uninit()
		_ = malgoCtx.Uninit()
		return nil, errors.New(err).
			Component("audio").
			Category(errors.CategoryAudio).
			Context("operation", "start_device").
			Context("device", cfg.DeviceID).
			Build()
	}

	e.logger.Info("capture stream opened",
		"device", deviceInfo.Name(),
		"sample_rate", device.SampleRate(),
		"channels", channels)

	return &malgoStream{
		ctx:    malgoCtx,
		device: device,
		format: Format{
			SampleRate: int(device.SampleRate()),
			Channels:   channels,
			BitDepth:   16,
			Encoding:   EncodingPCMS16LE,
		},
	}, nil
}

// malgoStream wraps an open malgo capture device.
type malgoStream struct {
	ctx    *malgo.AllocatedContext
	device *malgo.Device
	format Format
}

// Stop halts the device. malgo's Stop is synchronous: once it returns no
// further data callbacks are delivered.
func (s *malgoStream) Stop() error {
	return s.device.Stop()
}

// Release frees the device and its context.
func (s *malgoStream) Release() {
	s.device.Uninit()
	_ = s.ctx.Uninit()
}

// Format returns the actual capture format.
func (s *malgoStream) Format() Format {
	return s.format
}
