// Package conf handles loading and access of the application configuration.
package conf

import (
	"errors"
	"fmt"
	"log"
	"sync"

	"github.com/spf13/viper"
)

// Settings holds the full application configuration.
type Settings struct {
	Debug bool // true to enable debug output

	Main struct {
		Name string    // name of this node, used in logs and filenames
		Log  LogConfig // main application log configuration
	}

	Audio struct {
		Source     string // capture device name or ID, empty selects system default
		SampleRate int    // capture sample rate in Hz
		Channels   int    // number of capture channels
	}

	Scene struct {
		DurationMinutes   float64 // length of one scene segment in minutes
		MaxCaptureSeconds int     // hard cap for a single capture session
	}

	Export struct {
		Enabled   bool   // true to write finished scenes to disk
		Path      string // directory for exported scene files
		MaxScenes int    // oldest scene files beyond this count are pruned, 0 keeps all
	}

	Upload struct {
		Enabled bool   // true to POST finished scenes to the backend
		URL     string // backend upload endpoint
		Timeout int    // request timeout in seconds
	}

	Telemetry struct {
		Enabled bool   // true to expose Prometheus metrics endpoint
		Listen  string // listen address and port of telemetry endpoint
	}
}

// LogConfig defines the configuration for a log file
type LogConfig struct {
	Enabled     bool         // true to enable this log
	Path        string       // Path to the log file
	Rotation    RotationType // Type of log rotation
	MaxSize     int64        // Max size in bytes for RotationSize
	RotationDay string       // Day of the week for RotationWeekly
}

// RotationType defines different types of log rotations.
type RotationType string

const (
	RotationDaily  RotationType = "daily"
	RotationWeekly RotationType = "weekly"
	RotationSize   RotationType = "size"
)

var (
	settingsInstance *Settings
	once             sync.Once
	settingsMutex    sync.RWMutex
)

// Load reads the configuration file and environment variables into Settings.
func Load() (*Settings, error) {
	settingsMutex.Lock()
	defer settingsMutex.Unlock()

	settings := &Settings{}

	if err := initViper(); err != nil {
		return nil, fmt.Errorf("error initializing viper: %w", err)
	}

	if err := viper.Unmarshal(settings); err != nil {
		return nil, fmt.Errorf("error unmarshaling config into struct: %w", err)
	}

	if err := ValidateSettings(settings); err != nil {
		return nil, fmt.Errorf("error validating settings: %w", err)
	}

	settingsInstance = settings
	return settingsInstance, nil
}

// initViper initializes viper with default values and reads the configuration file.
func initViper() error {
	viper.SetConfigName("config")
	viper.SetConfigType("yaml")

	configPaths, err := GetDefaultConfigPaths()
	if err != nil {
		return fmt.Errorf("error getting default config paths: %w", err)
	}

	for _, path := range configPaths {
		viper.AddConfigPath(path)
	}

	// Set default values for each configuration parameter
	// function defined in defaults.go
	setDefaultConfig()

	err = viper.ReadInConfig()
	if err != nil {
		var configFileNotFoundError viper.ConfigFileNotFoundError
		if errors.As(err, &configFileNotFoundError) {
			// No config file on disk, defaults are enough
			return nil
		}
		return fmt.Errorf("fatal error reading config file: %w", err)
	}

	return nil
}

// ValidateSettings checks the loaded settings for values the capture core
// cannot work with.
func ValidateSettings(settings *Settings) error {
	if settings.Audio.SampleRate <= 0 {
		return fmt.Errorf("audio.samplerate must be positive, got %d", settings.Audio.SampleRate)
	}
	if settings.Audio.Channels <= 0 {
		return fmt.Errorf("audio.channels must be positive, got %d", settings.Audio.Channels)
	}
	if settings.Scene.DurationMinutes <= 0 {
		return fmt.Errorf("scene.durationminutes must be positive, got %g", settings.Scene.DurationMinutes)
	}
	if settings.Scene.MaxCaptureSeconds <= 0 || settings.Scene.MaxCaptureSeconds > MaxCaptureSeconds {
		settings.Scene.MaxCaptureSeconds = MaxCaptureSeconds
	}
	if settings.Upload.Enabled && settings.Upload.URL == "" {
		return fmt.Errorf("upload.url must be set when upload is enabled")
	}
	return nil
}

// Setting returns the current settings instance, initializing it if necessary
func Setting() *Settings {
	once.Do(func() {
		if settingsInstance == nil {
			_, err := Load()
			if err != nil {
				log.Fatalf("Error loading settings: %v", err)
			}
		}
	})
	return GetSettings()
}

// GetSettings returns the current settings instance
func GetSettings() *Settings {
	settingsMutex.RLock()
	defer settingsMutex.RUnlock()
	return settingsInstance
}
