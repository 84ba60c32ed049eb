package gallery

import (
	"sync"
	"testing"
)

// fakeSurface records registered listeners like an event target would.
type fakeSurface struct {
	mu        sync.Mutex
	listeners map[int]Listener
	next      int
}

func newFakeSurface() *fakeSurface {
	return &fakeSurface{listeners: map[int]Listener{}}
}

func (s *fakeSurface) Listen(l Listener) func() {
	s.mu.Lock()
	defer s.mu.Unlock()
	id := s.next
	s.next++
	s.listeners[id] = l
	return func() {
		s.mu.Lock()
		delete(s.listeners, id)
		s.mu.Unlock()
	}
}

func (s *fakeSurface) count() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.listeners)
}

// dispatch returns true if any listener consumed the event.
func (s *fakeSurface) dispatch(ev Event) bool {
	s.mu.Lock()
	ls := make([]Listener, 0, len(s.listeners))
	for _, l := range s.listeners {
		ls = append(ls, l)
	}
	s.mu.Unlock()
	consumed := false
	for _, l := range ls {
		if l(ev) {
			consumed = true
		}
	}
	return consumed
}

func deltas(c *Controller) []float64 {
	var out []float64
	for _, imp := range c.drain(nil) {
		out = append(out, imp.delta)
	}
	return out
}

func TestControllerImpulses(t *testing.T) {
	cfg := DefaultConfig()
	cfg.Speed = 1.5
	tests := []struct {
		name string
		ev   Event
		want []float64
	}{
		{"wheel down", WheelEvent{DeltaY: 100}, []float64{1.5}},
		{"wheel up", WheelEvent{DeltaY: -40}, []float64{-0.6}},
		{"arrow up", KeyEvent{Key: KeyUp}, []float64{-3}},
		{"arrow left", KeyEvent{Key: KeyLeft}, []float64{-3}},
		{"arrow down", KeyEvent{Key: KeyDown}, []float64{3}},
		{"arrow right", KeyEvent{Key: KeyRight}, []float64{3}},
		{"touch start", TouchEvent{Phase: TouchStart, Y: 10}, []float64{0}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			c := NewController(cfg, nil)
			if !c.Handle(tt.ev) {
				t.Fatal("event not consumed")
			}
			got := deltas(c)
			if len(got) != len(tt.want) {
				t.Fatalf("impulses = %v, want %v", got, tt.want)
			}
			for i := range got {
				if diff := got[i] - tt.want[i]; diff > 1e-9 || diff < -1e-9 {
					t.Errorf("impulse %d = %v, want %v", i, got[i], tt.want[i])
				}
			}
		})
	}
}

func TestControllerTouchDrag(t *testing.T) {
	c := NewController(DefaultConfig(), nil)
	c.Handle(TouchEvent{Phase: TouchStart, Y: 200})
	c.Handle(TouchEvent{Phase: TouchMove, Y: 180}) // finger up: forward
	c.Handle(TouchEvent{Phase: TouchMove, Y: 190})
	c.Handle(TouchEvent{Phase: TouchEnd})
	got := deltas(c)
	want := []float64{0, 1, -0.5}
	if len(got) != len(want) {
		t.Fatalf("impulses = %v, want %v", got, want)
	}
	for i := range want {
		if diff := got[i] - want[i]; diff > 1e-9 || diff < -1e-9 {
			t.Errorf("impulse %d = %v, want %v", i, got[i], want[i])
		}
	}
}

func TestControllerIgnoresOtherKeys(t *testing.T) {
	c := NewController(DefaultConfig(), nil)
	if c.Handle(KeyEvent{Key: KeyOther}) {
		t.Error("unrelated key consumed")
	}
	if n := len(c.drain(nil)); n != 0 {
		t.Errorf("%d impulses queued", n)
	}
}

func TestControllerUnlockedPassesThrough(t *testing.T) {
	cfg := DefaultConfig()
	cfg.LockScroll = false
	c := NewController(cfg, nil)
	s := newFakeSurface()
	c.Attach(s)
	if s.dispatch(WheelEvent{DeltaY: 100}) {
		t.Error("wheel consumed while unlocked")
	}
	if n := len(c.drain(nil)); n != 0 {
		t.Errorf("%d impulses queued while unlocked", n)
	}
	c.SetLockScroll(true)
	if !s.dispatch(WheelEvent{DeltaY: 100}) {
		t.Error("wheel not consumed after locking")
	}
}

func TestControllerAttachDetach(t *testing.T) {
	c := NewController(DefaultConfig(), nil)
	c.Attach(nil) // surface not ready
	c.Detach()

	s := newFakeSurface()
	c.Attach(s)
	c.Attach(s) // re-attach replaces the old subscription
	if n := s.count(); n != 1 {
		t.Fatalf("%d listeners after double attach, want 1", n)
	}
	c.Detach()
	if n := s.count(); n != 0 {
		t.Errorf("%d listeners leaked after detach", n)
	}
	if s.dispatch(WheelEvent{DeltaY: 100}) {
		t.Error("detached controller consumed event")
	}
}
