package gallery

import "math"

const (
	maxHorizontalOffset = 8
	maxVerticalOffset   = 8

	// Two incommensurate angular steps spread consecutive slots around the
	// axis.
	horizontalStep = 2.618
	verticalStep   = 1.618
)

// Layout returns the fixed off-axis offset of a slot. It depends only on its
// inputs, so it is stable across frames.
func Layout(slot, visible int) (x, y float64) {
	if visible <= 0 {
		return 0, 0
	}
	hAngle := math.Mod(float64(slot)*horizontalStep, 2*math.Pi)
	vAngle := math.Mod(float64(slot)*verticalStep+math.Pi/3, 2*math.Pi)
	hRadius := float64(slot%3) * 1.2
	vRadius := float64((slot+1)%4) * 0.8
	x = math.Sin(hAngle) * hRadius * maxHorizontalOffset / 3
	y = math.Cos(vAngle) * vRadius * maxVerticalOffset / 4
	return x, y
}
