// conf/defaults.go default values for settings
package conf

import "github.com/spf13/viper"

// setDefaultConfig seeds viper with the engine's built-in defaults, applied
// before any config file or environment override is read.
func setDefaultConfig() {
	viper.SetDefault("debug", false)

	viper.SetDefault("main.name", "audiosync")
	viper.SetDefault("main.log.enabled", true)
	viper.SetDefault("main.log.path", "logs/audiosync.log")
	viper.SetDefault("main.log.rotation", RotationDaily)
	viper.SetDefault("main.log.maxsize", int64(10*1024*1024))

	viper.SetDefault("sync.maxoffsets", 0.0)
	viper.SetDefault("sync.driftcorrection", true)
	viper.SetDefault("sync.driftthresholdppm", 5.0)

	viper.SetDefault("export.format", DefaultExportFormat)
	viper.SetDefault("export.bitdepth", DefaultExportBitDepth)
	viper.SetDefault("export.mp3bitrate", DefaultMP3Bitrate)
	viper.SetDefault("export.samplerate", 0)
	viper.SetDefault("export.crossfadems", 0)
	viper.SetDefault("export.ffmpegpath", "ffmpeg")

	viper.SetDefault("cache.enabled", true)
	viper.SetDefault("cache.root", "")
	viper.SetDefault("cache.maxbytes", int64(200*1024*1024))
	viper.SetDefault("cache.evictionstep", int64(50*1024*1024))
	viper.SetDefault("cache.lockstaleage", "24h")
}
