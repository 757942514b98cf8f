// Command audiosync synchronizes multi-camera/multi-recorder audio onto a
// shared timeline and stitches each device's full-resolution audio into an
// aligned output track. It is a thin wiring layer; argument parsing is
// intentionally minimal — the engine itself lives in internal/.
package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"os/signal"
	"path/filepath"
	"sort"
	"strings"
	"syscall"

	"github.com/tphakala/audiosync/internal/cache"
	"github.com/tphakala/audiosync/internal/conf"
	"github.com/tphakala/audiosync/internal/errors"
	"github.com/tphakala/audiosync/internal/export"
	"github.com/tphakala/audiosync/internal/logging"
	"github.com/tphakala/audiosync/internal/placement"
	"github.com/tphakala/audiosync/internal/probe"
	"github.com/tphakala/audiosync/internal/project"
	"github.com/tphakala/audiosync/internal/stitch"
	"github.com/tphakala/audiosync/internal/syncmodel"
)

const (
	exitOK          = 0
	exitEngineError = 1
	exitCancelled   = 130
)

// deviceFlag collects repeated -device name=dir flags into an ordered list.
type deviceFlag struct {
	names []string
	dirs  []string
}

func (d *deviceFlag) String() string { return "" }

func (d *deviceFlag) Set(value string) error {
	name, dir, ok := strings.Cut(value, "=")
	if !ok {
		return fmt.Errorf("expected -device name=dir, got %q", value)
	}
	d.names = append(d.names, name)
	d.dirs = append(d.dirs, dir)
	return nil
}

func main() {
	os.Exit(run())
}

func run() int {
	var devices deviceFlag
	outputDir := flag.String("output", "export/", "directory export files are written into")
	projectPath := flag.String("project", "", "path to save the project file after analysis (optional)")
	ffmpegPath := flag.String("ffmpeg", "ffmpeg", "path to the ffmpeg binary, used for video decode and lossy export")
	exportFormat := flag.String("format", conf.DefaultExportFormat, "export format: wav, aiff, mp3, flac")
	exportBitDepth := flag.Int("bit-depth", conf.DefaultExportBitDepth, "export bit depth for wav/aiff: 16, 24, or 32")
	mp3Bitrate := flag.Int("mp3-bitrate", conf.DefaultMP3Bitrate, "mp3 bitrate in kbps")
	driftCorrection := flag.Bool("drift-correction", true, "apply per-clip drift correction during stitching")
	driftThresholdPPM := flag.Float64("drift-threshold-ppm", 5.0, "minimum |ppm| before drift correction is applied")
	maxOffsetS := flag.Float64("max-offset-s", 0, "cap the correlation search window in seconds; 0 means unbounded")
	cacheRoot := flag.String("cache-root", "", "session cache root directory; empty disables the disk cache")
	flag.Var(&devices, "device", "repeatable name=dir pair, one per recording device")
	flag.Parse()

	logging.Init()
	log := logging.ForComponent("cmd")

	if len(devices.names) < 2 {
		fmt.Fprintln(os.Stderr, "at least two -device name=dir pairs are required")
		return exitEngineError
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	cfg := syncmodel.Config{
		MaxOffsetS:        *maxOffsetS,
		ExportFormat:      *exportFormat,
		ExportBitDepth:    *exportBitDepth,
		ExportMP3Bitrate:  *mp3Bitrate,
		DriftCorrection:   *driftCorrection,
		DriftThresholdPPM: *driftThresholdPPM,
	}

	loader := probe.NewLoader(*ffmpegPath)

	var sessionCache *cache.Cache
	if *cacheRoot != "" {
		c, err := cache.Open(cache.Options{Root: *cacheRoot, Logger: log})
		if err != nil {
			log.Error("failed to open session cache", "error", err)
			return exitEngineError
		}
		defer func() { _ = c.Close() }()
		sessionCache = c
	}

	tracks, loadWarnings, err := loadTracks(ctx, loader, devices)
	if err != nil {
		return handleErr(log, err)
	}
	for _, w := range loadWarnings {
		log.Warn(w)
	}

	result, err := placement.Run(ctx, tracks, cfg, func(current, total int, message string) {
		log.Info("placement progress", "current", current, "total", total, "message", message)
	})
	if err != nil {
		return handleErr(log, err)
	}
	log.Info("placement complete",
		"total_timeline_s", result.TotalTimelineS,
		"avg_confidence", result.AvgConfidence,
		"drift_detected", result.DriftDetected,
		"warnings", len(result.Warnings))
	for _, w := range result.Warnings {
		log.Warn(w)
	}

	if *projectPath != "" {
		doc := project.FromSession(tracks, result, cfg)
		if err := project.SaveFile(*projectPath, doc); err != nil {
			log.Error("failed to save project file", "error", err)
		}
	}

	exportRate := cfg.ExportSampleRate
	if exportRate == 0 {
		exportRate = maxOriginalRateAcross(tracks)
	}

	stitcher := stitch.New(loader, sessionCache)
	manager := export.DefaultManager(*ffmpegPath)

	for _, track := range tracks {
		if cancelled(ctx) {
			return exitCancelled
		}

		buf, err := stitcher.StitchTrack(ctx, track, result.TotalTimelineS, exportRate, cfg)
		if err != nil {
			return handleErr(log, err)
		}

		exportCfg := export.DefaultConfig()
		exportCfg.Format = export.Format(cfg.ExportFormat)
		exportCfg.OutputPath = *outputDir
		exportCfg.BitDepth = cfg.ExportBitDepth
		exportCfg.MP3Bitrate = cfg.ExportMP3Bitrate
		exportCfg.FFmpegPath = *ffmpegPath

		path, err := manager.Export(ctx, buf, exportRate, track.Name, exportCfg)
		if err != nil {
			return handleErr(log, err)
		}
		log.Info("exported track", "track", track.Name, "path", path)
	}

	return exitOK
}

// loadTracks loads every file in each device directory into a Track.
// Per-clip UnsupportedFormat and DecodeFailure are accumulated as warnings
// and that clip is dropped, matching the bulk-import propagation policy;
// the run continues over the remaining clips. DecoderUnavailable and any
// other error category (including Cancelled) abort the whole run, since
// there is no decoder to fall back to and no more clips can usefully load.
func loadTracks(ctx context.Context, loader *probe.Loader, devices deviceFlag) ([]*syncmodel.Track, []string, error) {
	tracks := make([]*syncmodel.Track, 0, len(devices.names))
	var warnings []string
	for i, name := range devices.names {
		entries, err := os.ReadDir(devices.dirs[i])
		if err != nil {
			return nil, warnings, errors.New(err).
				Component("cmd").
				Category(errors.CategoryFileIO).
				Context("operation", "read_device_directory").
				Context("path", devices.dirs[i]).
				Build()
		}

		var paths []string
		for _, e := range entries {
			if e.IsDir() {
				continue
			}
			paths = append(paths, filepath.Join(devices.dirs[i], e.Name()))
		}
		sort.Strings(paths)

		track := &syncmodel.Track{Name: name}
		for _, p := range paths {
			clip, err := loader.Load(ctx, p)
			if err != nil {
				if errors.IsCategory(err, errors.CategoryUnsupportedFormat) || errors.IsCategory(err, errors.CategoryDecodeFailure) {
					warnings = append(warnings, fmt.Sprintf("%s: skipped (%v)", p, err))
					continue
				}
				return nil, warnings, err
			}
			track.Clips = append(track.Clips, clip)
		}
		track.SortClipsByTime()
		tracks = append(tracks, track)
	}
	return tracks, warnings, nil
}

func maxOriginalRateAcross(tracks []*syncmodel.Track) int {
	rate := 0
	for _, t := range tracks {
		for _, c := range t.Clips {
			if c.OriginalSampleRate > rate {
				rate = c.OriginalSampleRate
			}
		}
	}
	if rate == 0 {
		rate = 44100
	}
	return rate
}

func cancelled(ctx context.Context) bool {
	select {
	case <-ctx.Done():
		return true
	default:
		return false
	}
}

func handleErr(log interface{ Error(string, ...any) }, err error) int {
	log.Error("engine error", "error", err)
	if errors.IsCategory(err, errors.CategoryCancellation) {
		return exitCancelled
	}
	return exitEngineError
}
