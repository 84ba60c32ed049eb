package gallery

// Gate accumulates forward travel and fires once when the threshold is
// crossed. It stays latched until Reset.
type Gate struct {
	total     float64
	completed bool

	scale     float64
	threshold float64
	onFire    func()
}

// NewGate creates an armed gate for cfg.
func NewGate(cfg Config) *Gate {
	return &Gate{
		scale:     cfg.AccumulationScale,
		threshold: cfg.CompletionDistance(),
		onFire:    cfg.OnComplete,
	}
}

// Observe records a forward impulse. Non-positive magnitudes and anything
// after completion are ignored. It reports whether this call fired the gate.
func (g *Gate) Observe(magnitude float64) bool {
	if g.completed || magnitude <= 0 {
		return false
	}
	g.total += magnitude * g.scale
	if g.total < g.threshold {
		return false
	}
	g.completed = true
	if g.onFire != nil {
		g.onFire()
	}
	return true
}

// Reset clears progress and re-arms the gate.
func (g *Gate) Reset() {
	g.total = 0
	g.completed = false
}

// Total is the accumulated forward distance.
func (g *Gate) Total() float64 { return g.total }

// Completed reports whether the gate has fired since the last Reset.
func (g *Gate) Completed() bool { return g.completed }

// Progress is Total as a fraction of the threshold, capped at 1.
func (g *Gate) Progress() float64 {
	if g.completed || g.threshold <= 0 {
		return 1
	}
	return clamp(g.total/g.threshold, 0, 1)
}
