package conf

import (
	"os"
	"path/filepath"
	"runtime"

	"github.com/scenecap/scenecap/internal/errors"
)

const (
	osWindows = "windows"
)

// GetDefaultConfigPaths returns the default configuration paths for the
// current operating system. Config files are searched in order: executable
// directory first, then the user config directory.
func GetDefaultConfigPaths() ([]string, error) {
	var configPaths []string

	// Fetch the directory of the executable.
	exePath, err := os.Executable()
	if err != nil {
		return nil, errors.New(err).
			Category(errors.CategoryConfiguration).
			Context("operation", "get-executable-path").
			Build()
	}
	exeDir := filepath.Dir(exePath)

	// Fetch the user's home directory.
	homeDir, err := os.UserHomeDir()
	if err != nil {
		return nil, errors.New(err).
			Category(errors.CategoryConfiguration).
			Context("operation", "get-home-directory").
			Build()
	}

	switch runtime.GOOS {
	case osWindows:
		appData := os.Getenv("APPDATA")
		if appData == "" {
			appData = filepath.Join(homeDir, "AppData", "Roaming")
		}
		configPaths = []string{
			exeDir,
			filepath.Join(appData, "scenecap"),
		}
	default:
		configPaths = []string{
			exeDir,
			filepath.Join(homeDir, ".config", "scenecap"),
			"/etc/scenecap",
		}
	}

	return configPaths, nil
}
