// conf/config.go
package conf

import (
	"fmt"
	"log"
	"os"
	"path/filepath"
	"sync"
	"time"

	"github.com/spf13/viper"
)

// Settings is the root configuration tree for the audiosync engine, loaded
// from YAML via viper with environment variable overrides (see env.go).
type Settings struct {
	Debug bool // true to enable debug-level logging

	Main struct {
		Name string // identifies this engine instance in logs
		Log  LogConfig
	}

	Sync SyncConfig

	Export ExportConfig

	Cache CacheConfig
}

// SyncConfig holds the parameters consumed by the correlator, placement
// engine, and stitcher.
type SyncConfig struct {
	MaxOffsetS        float64 // 0 means unbounded search window
	DriftCorrection   bool
	DriftThresholdPPM float64
}

// ExportConfig controls the stitcher's final encode step.
type ExportConfig struct {
	Format         string // "wav", "aiff", "mp3", "flac"
	BitDepth       int    // 16, 24, or 32 (ignored for mp3/flac)
	MP3Bitrate     int    // kbps, only meaningful when Format == "mp3"
	SampleRate     int    // 0 means auto = max of original clip rates
	CrossfadeMs    int    // accepted for project-file round-tripping; stitcher does not currently apply crossfading
	FFmpegPath     string // resolved path to the ffmpeg binary, empty disables lossy formats
}

// CacheConfig controls the on-disk session cache (internal/cache).
type CacheConfig struct {
	Enabled      bool
	Root         string // empty means use the OS-appropriate default
	MaxBytes     int64
	EvictionStep int64
	LockStaleAge time.Duration
}

// LogConfig defines the configuration for a log file
type LogConfig struct {
	Enabled     bool         // true to enable this log
	Path        string       // Path to the log file
	Rotation    RotationType // Type of log rotation
	MaxSize     int64        // Max size in bytes for RotationSize
	RotationDay time.Weekday // Day of the week for RotationWeekly
}

// RotationType defines different types of log rotations.
type RotationType string

const (
	RotationDaily  RotationType = "daily"
	RotationWeekly RotationType = "weekly"
	RotationSize   RotationType = "size"
)

// buildDate is the time when the binary was built.
var buildDate string

var (
	settingsInstance *Settings
	once             sync.Once
	settingsMutex    sync.RWMutex
)

// Load reads the configuration file and environment variables into a fresh Settings.
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

	if err := validateSettings(settings); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}

	settingsInstance = settings
	return settings, nil
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

	setDefaultConfig()

	if err := configureEnvironmentVariables(); err != nil {
		return fmt.Errorf("error configuring environment variables: %w", err)
	}

	err = viper.ReadInConfig()
	if err != nil {
		if _, ok := err.(viper.ConfigFileNotFoundError); ok {
			return createDefaultConfig()
		}
		return fmt.Errorf("fatal error reading config file: %w", err)
	}

	if buildDate != "" {
		fmt.Printf("audiosync build date: %s, using config file: %s\n", buildDate, viper.ConfigFileUsed())
	}

	return nil
}

// createDefaultConfig writes a default config file to the primary config path, then reads it back.
func createDefaultConfig() error {
	configPaths, err := GetDefaultConfigPaths()
	if err != nil {
		return fmt.Errorf("error getting default config paths: %w", err)
	}
	configPath := filepath.Join(configPaths[0], "config.yaml")
	defaultConfig := getDefaultConfigYAML()

	if err := os.MkdirAll(filepath.Dir(configPath), 0o755); err != nil { //nolint:gosec // accept 0o755 for now
		return fmt.Errorf("error creating directories for config file: %w", err)
	}

	if err := os.WriteFile(configPath, []byte(defaultConfig), 0o644); err != nil { //nolint:gosec // accept 0o644 for now
		return fmt.Errorf("error writing default config file: %w", err)
	}

	fmt.Println("Created default config file at:", configPath)
	viper.SetConfigFile(configPath)
	return viper.ReadInConfig()
}

// GetSettings returns the current settings instance
func GetSettings() *Settings {
	settingsMutex.RLock()
	defer settingsMutex.RUnlock()
	return settingsInstance
}

// SaveSettings persists the current settings to the YAML config file
func SaveSettings() error {
	settingsMutex.RLock()
	defer settingsMutex.RUnlock()

	if settingsInstance == nil {
		return fmt.Errorf("no settings loaded")
	}

	settingsMap, err := structToMap(settingsInstance)
	if err != nil {
		return fmt.Errorf("error converting settings to map: %w", err)
	}

	if err := viper.MergeConfigMap(settingsMap); err != nil {
		return fmt.Errorf("error merging settings with viper: %w", err)
	}

	return viper.WriteConfig()
}

// UpdateSettings updates the settings in memory and persists them to the YAML file
func UpdateSettings(newSettings *Settings) error {
	settingsMutex.Lock()
	defer settingsMutex.Unlock()

	if err := validateSettings(newSettings); err != nil {
		return fmt.Errorf("invalid settings: %w", err)
	}

	settingsInstance = newSettings

	settingsMap, err := structToMap(newSettings)
	if err != nil {
		return fmt.Errorf("error converting settings to map: %w", err)
	}

	if err := viper.MergeConfigMap(settingsMap); err != nil {
		return fmt.Errorf("error merging settings with viper: %w", err)
	}

	return viper.WriteConfig()
}

// Setting returns the current settings instance, loading it if necessary
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
