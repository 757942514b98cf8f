// conf/consts.go hard coded constants
package conf

// AnalysisRate is the fixed sample rate, in Hz, of every analysis buffer
// produced by the probe and consumed by the correlator. It never varies
// with the source media's native rate.
const AnalysisRate = 8000

// ConfidenceThreshold is the minimum delay() confidence for a clip to be
// considered placed rather than left in the unplaced set.
const ConfidenceThreshold = 3.0

// DriftWindowSeconds and DriftStrideSeconds define the sliding window used
// for per-clip drift measurement.
const (
	DriftWindowSeconds = 30.0
	DriftStrideSeconds = 15.0
)

// DriftRSquaredThreshold is the minimum fit quality for a drift measurement
// to be recorded on a clip.
const DriftRSquaredThreshold = 0.5

// DriftMinClipDurationSeconds is the minimum clip duration eligible for
// drift measurement.
const DriftMinClipDurationSeconds = 60.0

// DriftMinFitPoints is the minimum number of windowed offset samples
// required before a least-squares drift line is fit.
const DriftMinFitPoints = 3

// SilenceEnergyFloor gates drift windows: below this peak magnitude a
// window is treated as silent and skipped.
const SilenceEnergyFloor = 1e-6

// NormalizationFloor is the amplitude floor applied before normalizing a
// buffer by its absolute peak, preventing division by zero on silence.
const NormalizationFloor = 1e-10

// ParabolicRefinementFloor is the minimum denominator accepted by the
// parabolic sub-sample interpolation fit; below it, no refinement is applied.
const ParabolicRefinementFloor = 1e-30

// PolyphaseFactorCap bounds the up/down ratio used by the polyphase
// resampler: while either factor exceeds this, both are halved.
const PolyphaseFactorCap = 256

// Default export parameters, used when a project omits them.
const (
	DefaultExportFormat   = "wav"
	DefaultExportBitDepth = 16
	DefaultMP3Bitrate     = 192
)
