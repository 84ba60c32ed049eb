package gallery

import (
	"time"

	"github.com/taigrr/infinigallery/pkg/math3d"
)

// State is the session state of a mounted gallery.
type State struct {
	ScrollVelocity       float64
	AutoPlayActive       bool
	LastInteraction      time.Time
	TotalForwardDistance float64
	Completed            bool
}

// PlaneFrame is what the renderer needs for one plane this frame.
type PlaneFrame struct {
	Slot       int
	ImageIndex int
	Position   math3d.Vec3 // world space; the camera sits at the origin looking down -Z
	Depth      float64     // normalized depth in [0, 1)
	Opacity    float64
	Blur       float64
}

// Frame is the derived output of one Tick. It is reused between ticks.
type Frame struct {
	Planes      []PlaneFrame
	ScrollForce float64 // current velocity, drives cloth deformation
	Time        float64 // seconds since the gallery was built
	Completed   bool
}

// Option customizes a Gallery.
type Option func(*Gallery)

// WithClock replaces time.Now, mainly for tests.
func WithClock(now func() time.Time) Option {
	return func(g *Gallery) { g.now = now }
}

// Gallery is the per-instance engine. It owns all of its state; nothing is
// shared between instances.
type Gallery struct {
	cfg        Config
	now        func() time.Time
	velocity   Integrator
	input      *Controller
	autoplay   *Governor
	ring       *Ring
	visibility Visibility
	gate       *Gate

	elapsed float64
	pending []impulse
	frame   Frame
}

// New builds a gallery in its initial deterministic arrangement.
func New(cfg Config, opts ...Option) *Gallery {
	g := &Gallery{cfg: cfg, now: time.Now}
	for _, o := range opts {
		o(g)
	}
	g.velocity = NewIntegrator(cfg)
	g.input = NewController(cfg, g.now)
	g.autoplay = NewGovernor(cfg.Autoplay, g.now())
	g.ring = NewRing(cfg.VisibleCount, len(cfg.Images), cfg.CycleLength)
	g.visibility = Visibility{Fade: cfg.Fade, Blur: cfg.Blur}
	g.gate = NewGate(cfg)
	g.frame.Planes = make([]PlaneFrame, 0, len(g.ring.Planes()))
	return g
}

// Config returns the construction config.
func (g *Gallery) Config() Config { return g.cfg }

// Images returns the caller's image list.
func (g *Gallery) Images() []Image { return g.cfg.Images }

// Attach binds input to the gallery's own surface. Nil is ignored until a
// surface exists.
func (g *Gallery) Attach(s Surface) { g.input.Attach(s) }

// Detach removes the input subscription.
func (g *Gallery) Detach() { g.input.Detach() }

// Handle feeds an event directly, as a surface listener would.
func (g *Gallery) Handle(ev Event) bool { return g.input.Handle(ev) }

// SetLockScroll switches input interception on or off.
func (g *Gallery) SetLockScroll(lock bool) { g.input.SetLockScroll(lock) }

// LockScroll reports whether input is intercepted.
func (g *Gallery) LockScroll() bool { return g.input.LockScroll() }

// ResetProgress re-arms the completion gate.
func (g *Gallery) ResetProgress() { g.gate.Reset() }

// Planes exposes the live ring for inspection.
func (g *Gallery) Planes() []Plane { return g.ring.Planes() }

// State returns a snapshot of the session state.
func (g *Gallery) State() State {
	return State{
		ScrollVelocity:       g.velocity.Velocity,
		AutoPlayActive:       g.autoplay.Active(),
		LastInteraction:      g.autoplay.LastInteraction(),
		TotalForwardDistance: g.gate.Total(),
		Completed:            g.gate.Completed(),
	}
}

// Progress is how far the completion gate is, in [0, 1].
func (g *Gallery) Progress() float64 { return g.gate.Progress() }

// Tick runs one frame of dt seconds and returns the derived frame.
func (g *Gallery) Tick(dt float64) *Frame {
	if dt < 0 {
		dt = 0
	}
	g.elapsed += dt

	g.pending = g.input.drain(g.pending)
	for _, imp := range g.pending {
		g.velocity.ApplyImpulse(imp.delta)
		g.autoplay.Interact(imp.at)
		if imp.delta > 0 {
			g.gate.Observe(imp.delta)
		}
	}

	auto := g.autoplay.Check(g.now())
	g.velocity.Tick(dt, auto)
	g.ring.Advance(g.velocity.Velocity * dt * g.cfg.TimeScale)

	return g.buildFrame()
}

func (g *Gallery) buildFrame() *Frame {
	f := &g.frame
	f.Planes = f.Planes[:0]
	f.ScrollForce = g.velocity.Velocity
	f.Time = g.elapsed
	f.Completed = g.gate.Completed()

	cycle := g.ring.Cycle()
	if cycle <= 0 {
		return f
	}
	for _, p := range g.ring.Planes() {
		n := p.Depth / cycle
		opacity, blur := g.visibility.At(n)
		f.Planes = append(f.Planes, PlaneFrame{
			Slot:       p.Slot,
			ImageIndex: p.ImageIndex,
			Position:   math3d.V3(p.X, p.Y, p.Depth-cycle/2),
			Depth:      n,
			Opacity:    opacity,
			Blur:       blur,
		})
	}
	return f
}

// Close detaches input. The gallery must not be ticked afterwards.
func (g *Gallery) Close() {
	g.input.Detach()
}
