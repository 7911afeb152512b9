// conf/defaults.go default values for settings
package conf

import (
	"github.com/spf13/viper"
)

// Sets default values for the configuration.
func setDefaultConfig() {
	viper.SetDefault("debug", false)

	viper.SetDefault("main.name", "Scenecap")
	viper.SetDefault("main.log.enabled", true)
	viper.SetDefault("main.log.path", "scenecap.log")
	viper.SetDefault("main.log.rotation", RotationDaily)
	viper.SetDefault("main.log.maxsize", 1048576)
	viper.SetDefault("main.log.rotationday", "Sunday")

	viper.SetDefault("audio.source", "")
	viper.SetDefault("audio.samplerate", SampleRate)
	viper.SetDefault("audio.channels", NumChannels)

	viper.SetDefault("scene.durationminutes", 1.0)
	viper.SetDefault("scene.maxcaptureseconds", MaxCaptureSeconds)

	viper.SetDefault("export.enabled", true)
	viper.SetDefault("export.path", "recordings/")
	viper.SetDefault("export.maxscenes", 0)

	viper.SetDefault("upload.enabled", false)
	viper.SetDefault("upload.url", "http://localhost:8000/api/upload-scene")
	viper.SetDefault("upload.timeout", 30)

	viper.SetDefault("telemetry.enabled", false)
	viper.SetDefault("telemetry.listen", "localhost:8090")
}
