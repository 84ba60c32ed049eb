package gallery

import (
	"errors"
	"math"
	"os"
	"path/filepath"
	"strconv"
	"testing"
	"time"
)

type fakeClock struct{ t time.Time }

func newFakeClock() *fakeClock { return &fakeClock{t: epoch} }

func (c *fakeClock) Now() time.Time          { return c.t }
func (c *fakeClock) Advance(d time.Duration) { c.t = c.t.Add(d) }

func withImages(cfg Config, n int) Config {
	cfg.Images = make([]Image, n)
	for i := range cfg.Images {
		cfg.Images[i] = Image{Source: "img" + strconv.Itoa(i) + ".png", AltText: "image " + strconv.Itoa(i)}
	}
	return cfg
}

const frameDT = 1.0 / 60

// run ticks the gallery for d of wall time at 60 fps.
func run(g *Gallery, clock *fakeClock, d time.Duration) *Frame {
	var f *Frame
	step := time.Second / 60
	for elapsed := time.Duration(0); elapsed < d; elapsed += step {
		clock.Advance(step)
		f = g.Tick(frameDT)
	}
	return f
}

func TestGalleryInitialFrame(t *testing.T) {
	cfg := withImages(DefaultConfig(), 8)
	cfg.VisibleCount = 12
	g := New(cfg, WithClock(newFakeClock().Now))
	f := g.Tick(0)
	if len(f.Planes) != 12 {
		t.Fatalf("len(planes) = %d, want 12", len(f.Planes))
	}
	for i, p := range f.Planes {
		wantZ := 50.0/12*float64(i) - 25
		if math.Abs(p.Position.Z-wantZ) > 1e-9 {
			t.Errorf("plane %d z = %v, want %v", i, p.Position.Z, wantZ)
		}
		if p.Depth < 0 || p.Depth >= 1 {
			t.Errorf("plane %d normalized depth = %v", i, p.Depth)
		}
		if p.Opacity < 0 || p.Opacity > 1 || p.Blur < 0 || p.Blur > cfg.Blur.MaxBlur {
			t.Errorf("plane %d visibility out of range: %v/%v", i, p.Opacity, p.Blur)
		}
	}
	if s := g.State(); !s.AutoPlayActive || s.ScrollVelocity != 0 || s.Completed {
		t.Errorf("initial state = %+v", s)
	}
}

func TestGalleryDegenerateConfigs(t *testing.T) {
	tests := []struct {
		name string
		cfg  Config
		err  error
	}{
		{"no images", DefaultConfig(), ErrNoImages},
		{"no planes", func() Config { c := withImages(DefaultConfig(), 3); c.VisibleCount = 0; return c }(), ErrNoPlanes},
		{"zero cycle", func() Config { c := withImages(DefaultConfig(), 3); c.CycleLength = 0; return c }(), ErrZeroCycle},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if err := tt.cfg.Validate(); !errors.Is(err, tt.err) {
				t.Errorf("Validate() = %v, want %v", err, tt.err)
			}
			clock := newFakeClock()
			g := New(tt.cfg, WithClock(clock.Now))
			g.Handle(WheelEvent{DeltaY: 500})
			f := run(g, clock, time.Second)
			if len(f.Planes) != 0 {
				t.Errorf("rendered %d planes, want none", len(f.Planes))
			}
		})
	}
}

func TestGalleryValidDefaults(t *testing.T) {
	if err := withImages(DefaultConfig(), 1).Validate(); err != nil {
		t.Errorf("Validate() = %v", err)
	}
}

func TestGalleryAutoplayDrifts(t *testing.T) {
	clock := newFakeClock()
	g := New(withImages(DefaultConfig(), 8), WithClock(clock.Now))
	before := g.Planes()[0].Depth
	run(g, clock, 2*time.Second)
	if v := g.State().ScrollVelocity; v <= 0 {
		t.Errorf("velocity under autoplay = %v, want > 0", v)
	}
	if g.Planes()[0].Depth == before {
		t.Error("planes did not move under autoplay")
	}
}

func TestGalleryInputStopsAutoplay(t *testing.T) {
	clock := newFakeClock()
	g := New(withImages(DefaultConfig(), 8), WithClock(clock.Now))
	run(g, clock, time.Second)
	g.Handle(KeyEvent{Key: KeyDown})
	g.Tick(frameDT)
	s := g.State()
	if s.AutoPlayActive {
		t.Error("autoplay still active after key press")
	}
	if !s.LastInteraction.Equal(clock.Now()) {
		t.Errorf("LastInteraction = %v, want %v", s.LastInteraction, clock.Now())
	}

	run(g, clock, 2*time.Second)
	if g.State().AutoPlayActive {
		t.Error("autoplay resumed before idle threshold")
	}
	run(g, clock, 2500*time.Millisecond)
	if !g.State().AutoPlayActive {
		t.Error("autoplay did not resume after idle threshold")
	}
}

func TestGalleryCompletionAndReset(t *testing.T) {
	var fired int
	cfg := withImages(DefaultConfig(), 8)
	cfg.OnComplete = func() { fired++ }
	clock := newFakeClock()
	g := New(cfg, WithClock(clock.Now))

	for i := 0; i < 30; i++ {
		g.Handle(WheelEvent{DeltaY: 100})
		clock.Advance(time.Second / 60)
		f := g.Tick(frameDT)
		if v := g.State().ScrollVelocity; v > 10 || v < -10 {
			t.Fatalf("velocity %v out of range", v)
		}
		if i < 14 && f.Completed {
			t.Fatalf("completed after %d events", i+1)
		}
	}
	if fired != 1 {
		t.Fatalf("fired %d times, want 1", fired)
	}
	if g.Progress() != 1 {
		t.Errorf("progress = %v, want 1", g.Progress())
	}

	g.ResetProgress()
	if s := g.State(); s.Completed || s.TotalForwardDistance != 0 {
		t.Errorf("state after reset = %+v", s)
	}
	for i := 0; i < 15; i++ {
		g.Handle(WheelEvent{DeltaY: 100})
		g.Tick(frameDT)
	}
	if fired != 2 {
		t.Errorf("fired %d times after re-arm, want 2", fired)
	}
}

func TestGalleryAutoplayDoesNotComplete(t *testing.T) {
	var fired int
	cfg := withImages(DefaultConfig(), 8)
	cfg.OnComplete = func() { fired++ }
	clock := newFakeClock()
	g := New(cfg, WithClock(clock.Now))
	run(g, clock, time.Minute)
	if fired != 0 || g.State().TotalForwardDistance != 0 {
		t.Errorf("autoplay counted toward completion: fired=%d total=%v", fired, g.State().TotalForwardDistance)
	}
}

func TestGalleryLockScrollToggle(t *testing.T) {
	g := New(withImages(DefaultConfig(), 4), WithClock(newFakeClock().Now))
	if !g.LockScroll() {
		t.Fatal("lockScroll should default to true")
	}
	g.SetLockScroll(false)
	if g.Handle(WheelEvent{DeltaY: 100}) {
		t.Error("event intercepted while unlocked")
	}
	g.Tick(frameDT)
	if g.State().TotalForwardDistance != 0 {
		t.Error("unlocked wheel reached the gate")
	}
}

func TestGalleryAttachCloseNoLeak(t *testing.T) {
	s := newFakeSurface()
	g := New(withImages(DefaultConfig(), 4), WithClock(newFakeClock().Now))
	g.Attach(s)
	if !s.dispatch(WheelEvent{DeltaY: 50}) {
		t.Error("attached gallery did not consume wheel")
	}
	g.Close()
	if n := s.count(); n != 0 {
		t.Errorf("%d listeners left after Close", n)
	}
}

func TestGalleryInstancesIndependent(t *testing.T) {
	clock := newFakeClock()
	a := New(withImages(DefaultConfig(), 5), WithClock(clock.Now))
	b := New(withImages(DefaultConfig(), 5), WithClock(clock.Now))
	a.Handle(WheelEvent{DeltaY: 300})
	a.Tick(frameDT)
	b.Tick(frameDT)
	if b.State().TotalForwardDistance != 0 {
		t.Error("input to one gallery leaked into another")
	}
	if a.State().ScrollVelocity == b.State().ScrollVelocity {
		t.Error("velocities should differ")
	}
}

func TestLoadConfig(t *testing.T) {
	path := filepath.Join(t.TempDir(), "gallery.yaml")
	data := `
speed: 1.2
visible_count: 12
images:
  - source: a.png
    alt: first
  - source: b.png
fade:
  fade_in: {start: 0, end: 0.1}
  fade_out: {start: 0.9, end: 1}
autoplay:
  idle: 5s
damping:
  per_frame: true
`
	if err := os.WriteFile(path, []byte(data), 0o644); err != nil {
		t.Fatal(err)
	}
	cfg, err := LoadConfig(path)
	if err != nil {
		t.Fatalf("LoadConfig() error = %v", err)
	}
	if cfg.Speed != 1.2 || cfg.VisibleCount != 12 {
		t.Errorf("speed/visible = %v/%v", cfg.Speed, cfg.VisibleCount)
	}
	if len(cfg.Images) != 2 || cfg.Images[0].AltText != "first" {
		t.Errorf("images = %+v", cfg.Images)
	}
	if cfg.Fade.FadeOut != (Range{0.9, 1}) {
		t.Errorf("fade out = %+v", cfg.Fade.FadeOut)
	}
	if cfg.Autoplay.Idle != 5*time.Second || cfg.Autoplay.CheckInterval != time.Second {
		t.Errorf("autoplay = %+v", cfg.Autoplay)
	}
	if !cfg.Damping.PerFrame || cfg.Damping.Factor != 0.95 {
		t.Errorf("damping = %+v", cfg.Damping)
	}
	if cfg.CycleLength != DefaultCycleLength || !cfg.LockScroll {
		t.Error("omitted keys lost their defaults")
	}
}

func TestLoadConfigErrors(t *testing.T) {
	if _, err := LoadConfig(filepath.Join(t.TempDir(), "missing.yaml")); !errors.Is(err, os.ErrNotExist) {
		t.Errorf("missing file error = %v", err)
	}
	path := filepath.Join(t.TempDir(), "bad.yaml")
	if err := os.WriteFile(path, []byte("speed: [nope"), 0o644); err != nil {
		t.Fatal(err)
	}
	if _, err := LoadConfig(path); err == nil {
		t.Error("expected parse error")
	}
}
