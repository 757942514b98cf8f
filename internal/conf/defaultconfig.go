package conf

import "encoding/json"

// getDefaultConfigYAML returns the bootstrap config.yaml content written the
// first time audiosync runs without a discoverable config file.
func getDefaultConfigYAML() string {
	return `# audiosync configuration
debug: false

main:
  name: audiosync
  log:
    enabled: true
    path: logs/audiosync.log
    rotation: daily
    maxsize: 10485760

sync:
  maxoffsets: 0
  driftcorrection: true
  driftthresholdppm: 5.0

export:
  format: wav
  bitdepth: 16
  mp3bitrate: 192
  samplerate: 0
  crossfadems: 0
  ffmpegpath: ffmpeg

cache:
  enabled: true
  root: ""
  maxbytes: 209715200
  evictionstep: 52428800
  lockstaleage: 24h
`
}

// structToMap converts a Settings struct into a viper-mergeable map via a
// JSON round-trip, matching the teacher's approach of re-using the struct's
// own field tags rather than hand-maintaining a parallel map.
func structToMap(settings *Settings) (map[string]any, error) {
	data, err := json.Marshal(settings)
	if err != nil {
		return nil, err
	}
	var result map[string]any
	if err := json.Unmarshal(data, &result); err != nil {
		return nil, err
	}
	return result, nil
}
