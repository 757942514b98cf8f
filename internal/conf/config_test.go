package conf

import "testing"

func TestValidateSettingsDefaults(t *testing.T) {
	t.Parallel()

	s := &Settings{}
	s.Sync.MaxOffsetS = 0
	s.Sync.DriftThresholdPPM = 5.0
	s.Export.Format = "wav"
	s.Export.BitDepth = 16
	s.Export.MP3Bitrate = 192
	s.Cache.Enabled = true
	s.Cache.MaxBytes = 200 * 1024 * 1024
	s.Cache.EvictionStep = 50 * 1024 * 1024

	if err := validateSettings(s); err != nil {
		t.Fatalf("expected valid settings, got %v", err)
	}
}

func TestValidateSettingsRejectsBadExportFormat(t *testing.T) {
	t.Parallel()

	s := &Settings{}
	s.Export.Format = "ogg"
	s.Export.BitDepth = 16
	s.Export.MP3Bitrate = 192

	if err := validateSettings(s); err == nil {
		t.Fatalf("expected validation error for unsupported export format")
	}
}

func TestValidateSettingsRejectsEvictionStepAboveMax(t *testing.T) {
	t.Parallel()

	s := &Settings{}
	s.Export.Format = "wav"
	s.Export.BitDepth = 16
	s.Export.MP3Bitrate = 192
	s.Cache.Enabled = true
	s.Cache.MaxBytes = 100
	s.Cache.EvictionStep = 200

	if err := validateSettings(s); err == nil {
		t.Fatalf("expected validation error when eviction step exceeds max bytes")
	}
}
