package export

import (
	"context"
	"sync"

	"github.com/tphakala/audiosync/internal/errors"
	"github.com/tphakala/audiosync/internal/stitch"
)

// Manager dispatches an export request to the exporter registered for the
// requested format.
type Manager struct {
	exporters map[Format]Exporter
	mu        sync.RWMutex
}

// NewManager creates an empty manager.
func NewManager() *Manager {
	return &Manager{exporters: make(map[Format]Exporter)}
}

// RegisterExporter binds an exporter to the format it produces.
func (m *Manager) RegisterExporter(format Format, exporter Exporter) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.exporters[format] = exporter
}

// Export encodes buf using whichever exporter is registered for
// config.Format.
func (m *Manager) Export(ctx context.Context, buf *stitch.Buffer, sampleRate int, trackName string, config *Config) (string, error) {
	if err := ValidateConfig(config); err != nil {
		return "", err
	}

	m.mu.RLock()
	exporter, ok := m.exporters[config.Format]
	m.mu.RUnlock()
	if !ok {
		return "", errors.Newf("no exporter registered for format: %s", config.Format).
			Component("export").
			Category(errors.CategoryConfiguration).
			Context("format", string(config.Format)).
			Build()
	}

	return exporter.ExportTrack(ctx, buf, sampleRate, trackName, config)
}

// SupportedFormats returns every format with a registered exporter.
func (m *Manager) SupportedFormats() []Format {
	m.mu.RLock()
	defer m.mu.RUnlock()
	out := make([]Format, 0, len(m.exporters))
	for format := range m.exporters {
		out = append(out, format)
	}
	return out
}

// DefaultManager wires up every exporter this engine knows: WAV and AIFF are
// always available, MP3/FLAC additionally require a resolved ffmpeg path.
func DefaultManager(ffmpegPath string) *Manager {
	manager := NewManager()
	manager.RegisterExporter(FormatWAV, NewWAVExporter())
	manager.RegisterExporter(FormatAIFF, NewAIFFExporter())
	if ffmpegPath != "" {
		manager.RegisterExporter(FormatMP3, NewFFmpegExporter(FormatMP3))
		manager.RegisterExporter(FormatFLAC, NewFFmpegExporter(FormatFLAC))
	}
	return manager
}
