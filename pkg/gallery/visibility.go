package gallery

// Visibility maps normalized depth to opacity and blur. It is independent of
// the direction of travel.
type Visibility struct {
	Fade FadeSettings
	Blur BlurSettings
}

// At evaluates both curves at normalized depth n in [0, 1].
func (v Visibility) At(n float64) (opacity, blur float64) {
	return v.Opacity(n), v.BlurAmount(n)
}

// Opacity: first matching band wins, in this order: before fade-in, fade-in
// ramp, fade-out ramp, after fade-out, fully visible.
func (v Visibility) Opacity(n float64) float64 {
	in, out := v.Fade.FadeIn, v.Fade.FadeOut
	var o float64
	switch {
	case n < in.Start:
		o = 0
	case n >= in.Start && n <= in.End:
		o = ramp(n, in)
	case n >= out.Start && n <= out.End:
		o = 1 - ramp(n, out)
	case n > out.End:
		o = 0
	default:
		o = 1
	}
	return clamp(o, 0, 1)
}

// BlurAmount mirrors Opacity: full blur outside the bands, none in view.
func (v Visibility) BlurAmount(n float64) float64 {
	in, out := v.Blur.BlurIn, v.Blur.BlurOut
	maxBlur := max(v.Blur.MaxBlur, 0)
	var b float64
	switch {
	case n < in.Start:
		b = maxBlur
	case n >= in.Start && n <= in.End:
		b = maxBlur * (1 - ramp(n, in))
	case n >= out.Start && n <= out.End:
		b = maxBlur * ramp(n, out)
	case n > out.End:
		b = maxBlur
	default:
		b = 0
	}
	return clamp(b, 0, maxBlur)
}

// ramp is the 0..1 progress of n through r. A zero-width range is a step
// that has already happened at its own position.
func ramp(n float64, r Range) float64 {
	w := r.End - r.Start
	if w <= 0 {
		if n >= r.End {
			return 1
		}
		return 0
	}
	return (n - r.Start) / w
}

func clamp(x, lo, hi float64) float64 {
	return max(lo, min(hi, x))
}
