// env.go - Environment variable configuration and validation for audiosync
package conf

import (
	"fmt"
	"log"
	"os"
	"strconv"
	"strings"

	"github.com/spf13/viper"
)

// envBinding holds metadata for environment variable bindings (internal use)
type envBinding struct {
	ConfigKey string             // Viper config key
	EnvVar    string             // Environment variable name
	Validate  func(string) error // Optional validation function
}

// getEnvBindings returns all environment variable bindings with validation
func getEnvBindings() []envBinding {
	return []envBinding{
		{"sync.maxoffsets", "AUDIOSYNC_MAX_OFFSET_S", validateEnvNonNegativeFloat},
		{"sync.driftcorrection", "AUDIOSYNC_DRIFT_CORRECTION", nil},
		{"sync.driftthresholdppm", "AUDIOSYNC_DRIFT_THRESHOLD_PPM", validateEnvNonNegativeFloat},

		{"export.format", "AUDIOSYNC_EXPORT_FORMAT", validateEnvExportFormat},
		{"export.bitdepth", "AUDIOSYNC_EXPORT_BIT_DEPTH", validateEnvBitDepth},
		{"export.mp3bitrate", "AUDIOSYNC_EXPORT_MP3_BITRATE", validateEnvPositiveInt},
		{"export.samplerate", "AUDIOSYNC_EXPORT_SAMPLE_RATE", validateEnvNonNegativeInt},
		{"export.ffmpegpath", "AUDIOSYNC_FFMPEG_PATH", validateEnvPath},

		{"cache.root", "AUDIOSYNC_CACHE_ROOT", validateEnvPath},
		{"cache.maxbytes", "AUDIOSYNC_CACHE_MAX_BYTES", validateEnvPositiveInt},
		{"cache.enabled", "AUDIOSYNC_CACHE_ENABLED", nil},

		{"debug", "AUDIOSYNC_DEBUG", nil},
	}
}

// bindEnvVars sets up environment variable bindings with validation (internal)
func bindEnvVars() error {
	bindings := getEnvBindings()
	var warnings []string

	for _, binding := range bindings {
		if err := viper.BindEnv(binding.ConfigKey, binding.EnvVar); err != nil {
			warnings = append(warnings, fmt.Sprintf("Failed to bind %s: %v", binding.EnvVar, err))
			continue
		}

		if binding.Validate != nil {
			if envValue := os.Getenv(binding.EnvVar); envValue != "" {
				if err := binding.Validate(envValue); err != nil {
					warnings = append(warnings, fmt.Sprintf("Invalid %s value '%s': %v", binding.EnvVar, envValue, err))
				}
			}
		}
	}

	if len(warnings) > 0 {
		return fmt.Errorf("environment variable issues:\n  - %s", strings.Join(warnings, "\n  - "))
	}

	return nil
}

// Environment variable validation functions

func validateEnvNonNegativeFloat(value string) error {
	f, err := strconv.ParseFloat(value, 64)
	if err != nil {
		return fmt.Errorf("invalid float: %w", err)
	}
	if f < 0 {
		return fmt.Errorf("must be non-negative, got %g", f)
	}
	return nil
}

func validateEnvPositiveInt(value string) error {
	n, err := strconv.Atoi(value)
	if err != nil {
		return fmt.Errorf("invalid integer: %w", err)
	}
	if n <= 0 {
		return fmt.Errorf("must be positive, got %d", n)
	}
	return nil
}

func validateEnvNonNegativeInt(value string) error {
	n, err := strconv.Atoi(value)
	if err != nil {
		return fmt.Errorf("invalid integer: %w", err)
	}
	if n < 0 {
		return fmt.Errorf("must be non-negative, got %d", n)
	}
	return nil
}

func validateEnvBitDepth(value string) error {
	switch value {
	case "16", "24", "32":
		return nil
	default:
		return fmt.Errorf("bit depth must be one of 16, 24, 32, got %s", value)
	}
}

func validateEnvExportFormat(value string) error {
	switch strings.ToLower(value) {
	case "wav", "aiff", "mp3", "flac":
		return nil
	default:
		return fmt.Errorf("unsupported export format %q", value)
	}
}

func validateEnvPath(value string) error {
	if strings.Contains(value, "..") {
		return fmt.Errorf("path traversal not allowed")
	}
	return nil
}

// configureEnvironmentVariables sets up environment variable support for Viper
func configureEnvironmentVariables() error {
	viper.AutomaticEnv()
	viper.SetEnvPrefix("AUDIOSYNC")
	viper.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))

	if err := bindEnvVars(); err != nil {
		log.Printf("Environment variable validation warnings: %v", err)
	}

	return nil
}
