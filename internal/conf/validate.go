// conf/validate.go
package conf

import (
	"fmt"
	"strings"
)

// ValidationError represents a collection of validation errors
type ValidationError struct {
	Errors []string
}

// Error returns a string representation of the validation errors
func (ve ValidationError) Error() string {
	return fmt.Sprintf("validation errors: %v", ve.Errors)
}

// validateSettings validates the entire Settings struct, returning a
// ValidationError aggregating every problem found rather than failing fast
// on the first one.
func validateSettings(settings *Settings) error {
	ve := ValidationError{}

	if err := validateSyncSettings(&settings.Sync); err != nil {
		ve.Errors = append(ve.Errors, err.Error())
	}

	if err := validateExportSettings(&settings.Export); err != nil {
		ve.Errors = append(ve.Errors, err.Error())
	}

	if err := validateCacheSettings(&settings.Cache); err != nil {
		ve.Errors = append(ve.Errors, err.Error())
	}

	if len(ve.Errors) > 0 {
		return ve
	}
	return nil
}

func validateSyncSettings(s *SyncConfig) error {
	var errs []string

	if s.MaxOffsetS < 0 {
		errs = append(errs, fmt.Sprintf("sync.max_offset_s must be non-negative, got %g", s.MaxOffsetS))
	}
	if s.DriftThresholdPPM < 0 {
		errs = append(errs, fmt.Sprintf("sync.drift_threshold_ppm must be non-negative, got %g", s.DriftThresholdPPM))
	}

	if len(errs) > 0 {
		return fmt.Errorf("%s", strings.Join(errs, "; "))
	}
	return nil
}

func validateExportSettings(e *ExportConfig) error {
	var errs []string

	switch strings.ToLower(e.Format) {
	case "wav", "aiff", "mp3", "flac":
	default:
		errs = append(errs, fmt.Sprintf("export.format %q is not one of wav, aiff, mp3, flac", e.Format))
	}

	switch e.BitDepth {
	case 16, 24, 32:
	default:
		errs = append(errs, fmt.Sprintf("export.bit_depth %d is not one of 16, 24, 32", e.BitDepth))
	}

	if e.MP3Bitrate <= 0 {
		errs = append(errs, fmt.Sprintf("export.mp3_bitrate must be positive, got %d", e.MP3Bitrate))
	}

	if e.SampleRate < 0 {
		errs = append(errs, fmt.Sprintf("export.sample_rate must be non-negative, got %d", e.SampleRate))
	}

	if e.CrossfadeMs < 0 {
		errs = append(errs, fmt.Sprintf("export.crossfade_ms must be non-negative, got %d", e.CrossfadeMs))
	}

	if len(errs) > 0 {
		return fmt.Errorf("%s", strings.Join(errs, "; "))
	}
	return nil
}

func validateCacheSettings(c *CacheConfig) error {
	var errs []string

	if c.Enabled {
		if c.MaxBytes <= 0 {
			errs = append(errs, fmt.Sprintf("cache.max_bytes must be positive when cache is enabled, got %d", c.MaxBytes))
		}
		if c.EvictionStep < 0 {
			errs = append(errs, fmt.Sprintf("cache.eviction_step must be non-negative, got %d", c.EvictionStep))
		}
		if c.EvictionStep > c.MaxBytes && c.MaxBytes > 0 {
			errs = append(errs, "cache.eviction_step must not exceed cache.max_bytes")
		}
	}

	if len(errs) > 0 {
		return fmt.Errorf("%s", strings.Join(errs, "; "))
	}
	return nil
}
