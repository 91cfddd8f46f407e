package glm

import "math"

// Protocol volume range and safety constants, in dB.
const (
	// MinVolumeDB is the protocol floor; effectively silence.
	MinVolumeDB = -130.0

	// MaxVolumeDB is the protocol ceiling (unity gain).
	MaxVolumeDB = 0.0

	// SafeMaxRestoreDB caps the volume restored on unmute. Captured at mute
	// time, independent of the configured global limit, so an unmute never
	// lands on an unexpectedly loud level.
	SafeMaxRestoreDB = -10.0

	// DefaultVolumeDB is the conservative factory default.
	DefaultVolumeDB = -30.0
)

// DBToPercent converts a dB volume to the normalized 0-100% display scale.
// Anything at or below MinVolumeDB maps to 0; the result saturates at [0,100].
func DBToPercent(db float64) float64 {
	if db <= MinVolumeDB {
		return 0
	}
	percent := 100 * math.Pow(10, db/20)
	return math.Max(0, math.Min(100, percent))
}

// PercentToDB converts a 0-100% display value to dB. Zero, negative and NaN
// inputs all map to MinVolumeDB; the result saturates at
// [MinVolumeDB, MaxVolumeDB]. Never returns NaN or an infinity.
func PercentToDB(percent float64) float64 {
	if math.IsNaN(percent) || percent <= 0 {
		return MinVolumeDB
	}
	db := 20 * math.Log10(percent/100)
	return math.Max(MinVolumeDB, math.Min(MaxVolumeDB, db))
}
