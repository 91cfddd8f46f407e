package glm

import "math"

// Limits holds the operator-configured volume clamps.
//
// Invariant (enforced at every mutation through ClampMax/ClampDefault):
// MinVolumeDB <= DefaultVolumeDB <= MaxVolumeDB <= 0.
type Limits struct {
	MaxVolumeDB     float64
	DefaultVolumeDB float64
}

// ClampMax bounds a requested global maximum to the protocol ceiling.
func ClampMax(requestedMaxDB float64) float64 {
	return math.Max(MinVolumeDB, math.Min(MaxVolumeDB, requestedMaxDB))
}

// ClampDefault bounds a requested default volume to the effective maximum.
func ClampDefault(requestedDefaultDB, effectiveMaxDB float64) float64 {
	return math.Max(MinVolumeDB, math.Min(requestedDefaultDB, effectiveMaxDB))
}

// ClampTarget is the single enforcement point for every volume that is about
// to reach hardware. Every volume-affecting code path must route through it
// immediately before the write; no path may bypass it.
func ClampTarget(targetDB float64, limits Limits) float64 {
	maxAllowed := math.Min(MaxVolumeDB, limits.MaxVolumeDB)
	return math.Max(MinVolumeDB, math.Min(maxAllowed, targetDB))
}
