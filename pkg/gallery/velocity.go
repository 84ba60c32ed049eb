package gallery

import "math"

// referenceFrame is the frame time the damping factor was tuned at.
const referenceFrame = 1.0 / 60

// Integrator holds the single scroll velocity scalar.
type Integrator struct {
	Velocity float64

	damping     DampingSettings
	autoplay    AutoplaySettings
	maxVelocity float64
}

// NewIntegrator creates an integrator at rest.
func NewIntegrator(cfg Config) Integrator {
	return Integrator{
		damping:     cfg.Damping,
		autoplay:    cfg.Autoplay,
		maxVelocity: cfg.MaxVelocity,
	}
}

// ApplyImpulse adds a signed contribution to the velocity.
func (v *Integrator) ApplyImpulse(delta float64) {
	v.Velocity += delta
}

// Tick advances one frame: autoplay drift (bounded by the cap), damping,
// then clamping to the safe range.
func (v *Integrator) Tick(dt float64, autoplay bool) {
	if autoplay && v.Velocity < v.autoplay.Cap {
		v.Velocity += v.autoplay.Rate * dt
	}

	v.Velocity *= v.decay(dt)

	if v.maxVelocity > 0 {
		v.Velocity = max(-v.maxVelocity, min(v.maxVelocity, v.Velocity))
	}
}

func (v *Integrator) decay(dt float64) float64 {
	f := v.damping.Factor
	if f <= 0 || f >= 1 {
		return 1
	}
	if v.damping.PerFrame {
		return f
	}
	if dt <= 0 {
		return 1
	}
	return math.Pow(f, dt/referenceFrame)
}
