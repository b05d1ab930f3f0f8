package wizard

import "math"

// Hours bounds for the +/- controls on time cards and extra-work labor
const (
	MinHours     = 0.0
	MaxHours     = 24.0
	HoursStep    = 0.5
	DefaultHours = 8.0
)

// SnapHours rounds h to the nearest half hour and clamps it to
// [MinHours, MaxHours]. NaN snaps to MinHours.
func SnapHours(h float64) float64 {
	if math.IsNaN(h) {
		return MinHours
	}
	h = math.Round(h/HoursStep) * HoursStep
	return math.Max(MinHours, math.Min(MaxHours, h))
}

// AdjustHours applies one press of the +/- control. The delta is snapped to
// a half-hour multiple before it is applied.
func AdjustHours(h, delta float64) float64 {
	return SnapHours(SnapHours(h) + math.Round(delta/HoursStep)*HoursStep)
}

// ValidHours reports whether h is already on the half-hour grid and in range
func ValidHours(h float64) bool {
	return h == SnapHours(h)
}
