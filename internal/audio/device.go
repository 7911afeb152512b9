package audio

import (
	"encoding/hex"
	"runtime"
	"strings"

	"github.com/gen2brain/malgo"

	"github.com/scenecap/scenecap/internal/errors"
)

// selectDevice finds a capture device matching the given name or ID. An
// empty name selects the system default device, falling back to the first
// device when no default is reported.
func selectDevice(devices []malgo.DeviceInfo, deviceID string) (*malgo.DeviceInfo, error) {
	if deviceID == "" || deviceID == "default" || deviceID == "sysdefault" {
		for i := range devices {
			if devices[i].IsDefault == 1 {
				return &devices[i], nil
			}
		}
		if len(devices) > 0 {
			return &devices[0], nil
		}
		return nil, errors.Newf("no audio capture devices found").
			Component("audio").
			Category(errors.CategoryAudio).
			Build()
	}

	// Exact name match first
	for i := range devices {
		if devices[i].Name() == deviceID {
			return &devices[i], nil
		}
	}

	// Decoded ID match
	for i := range devices {
		decodedID, err := hexToASCII(devices[i].ID.String())
		if err == nil && decodedID == deviceID {
			return &devices[i], nil
		}
	}

	// Partial name match
	for i := range devices {
		if strings.Contains(devices[i].Name(), deviceID) {
			return &devices[i], nil
		}
	}

	// On Windows there is no "sysdefault" alias; fall back to the
	// reported default device.
	if runtime.GOOS == "windows" {
		for i := range devices {
			if devices[i].IsDefault == 1 {
				return &devices[i], nil
			}
		}
	}

	return nil, errors.Newf("no matching audio device found").
		Component("audio").
		Category(errors.CategoryValidation).
		Context("device", deviceID).
		Context("available_devices", len(devices)).
		Build()
}

// hexToASCII converts a hexadecimal string to an ASCII string.
func hexToASCII(hexStr string) (string, error) {
	bytes, err := hex.DecodeString(hexStr)
	if err != nil {
		return "", err
	}
	return string(bytes), nil
}

// containsDiscardDevice reports whether a device name identifies the
// ALSA null sink that discards all samples.
func containsDiscardDevice(name string) bool {
	return strings.Contains(name, "Discard all samples")
}
