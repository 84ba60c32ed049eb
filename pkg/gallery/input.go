package gallery

import (
	"sync"
	"time"
)

// Event is an input event delivered by a Surface.
type Event interface {
	isEvent()
}

// WheelEvent is a wheel scroll; positive DeltaY scrolls down (forward).
type WheelEvent struct {
	DeltaY float64
}

// Key identifies the navigation keys the gallery reacts to.
type Key int

const (
	KeyOther Key = iota
	KeyUp
	KeyDown
	KeyLeft
	KeyRight
)

// KeyEvent is a key press.
type KeyEvent struct {
	Key Key
}

// TouchPhase is the stage of a touch drag.
type TouchPhase int

const (
	TouchStart TouchPhase = iota
	TouchMove
	TouchEnd
)

// TouchEvent is one sample of a touch (or pointer) drag. Y grows downward.
type TouchEvent struct {
	Phase TouchPhase
	Y     float64
}

func (WheelEvent) isEvent() {}
func (KeyEvent) isEvent()   {}
func (TouchEvent) isEvent() {}

// Listener handles an event and reports whether it was consumed. A consumed
// event must not reach the page behind the gallery.
type Listener func(Event) bool

// Surface is the rendering surface the gallery owns. Listen registers a
// listener and returns the function that removes it.
type Surface interface {
	Listen(l Listener) (cancel func())
}

// impulse is a queued velocity contribution.
type impulse struct {
	delta float64
	at    time.Time
}

// Controller turns surface events into queued impulses. Its handler may run
// on any goroutine; the frame drains the queue.
type Controller struct {
	mu       sync.Mutex
	queue    []impulse
	lock     bool
	touching bool
	touchY   float64
	cancel   func()

	speed      float64
	wheelScale float64
	keyImpulse float64
	touchScale float64
	now        func() time.Time
}

// NewController creates a detached controller.
func NewController(cfg Config, now func() time.Time) *Controller {
	if now == nil {
		now = time.Now
	}
	return &Controller{
		lock:       cfg.LockScroll,
		speed:      cfg.Speed,
		wheelScale: cfg.WheelScale,
		keyImpulse: cfg.KeyImpulse,
		touchScale: cfg.TouchScale,
		now:        now,
	}
}

// Attach subscribes to s, replacing any previous subscription. A nil surface
// is not ready yet and is ignored.
func (c *Controller) Attach(s Surface) {
	if s == nil {
		return
	}
	c.Detach()
	cancel := s.Listen(c.Handle)
	c.mu.Lock()
	c.cancel = cancel
	c.mu.Unlock()
}

// Detach removes the surface subscription, if any.
func (c *Controller) Detach() {
	c.mu.Lock()
	cancel := c.cancel
	c.cancel = nil
	c.mu.Unlock()
	if cancel != nil {
		cancel()
	}
}

// SetLockScroll toggles interception. Unlocked, events pass to the page.
func (c *Controller) SetLockScroll(lock bool) {
	c.mu.Lock()
	c.lock = lock
	if !lock {
		c.touching = false
	}
	c.mu.Unlock()
}

// LockScroll reports whether events are being intercepted.
func (c *Controller) LockScroll() bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.lock
}

// Handle is the Listener registered on the surface.
func (c *Controller) Handle(ev Event) bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	if !c.lock {
		return false
	}
	switch e := ev.(type) {
	case WheelEvent:
		c.push(e.DeltaY * c.wheelScale * c.speed)
	case KeyEvent:
		switch e.Key {
		case KeyUp, KeyLeft:
			c.push(-c.keyImpulse * c.speed)
		case KeyDown, KeyRight:
			c.push(c.keyImpulse * c.speed)
		default:
			return false
		}
	case TouchEvent:
		c.touch(e)
	default:
		return false
	}
	return true
}

func (c *Controller) touch(e TouchEvent) {
	switch e.Phase {
	case TouchStart:
		c.touching = true
		c.touchY = e.Y
		c.push(0)
	case TouchMove:
		if !c.touching {
			c.touching = true
			c.touchY = e.Y
		}
		c.push((c.touchY - e.Y) * c.touchScale * c.speed)
		c.touchY = e.Y
	case TouchEnd:
		c.touching = false
	}
}

// push must be called with mu held. A zero delta still counts as interaction.
func (c *Controller) push(delta float64) {
	c.queue = append(c.queue, impulse{delta: delta, at: c.now()})
}

// drain hands the queued impulses to the frame and resets the queue.
func (c *Controller) drain(buf []impulse) []impulse {
	c.mu.Lock()
	buf = append(buf[:0], c.queue...)
	c.queue = c.queue[:0]
	c.mu.Unlock()
	return buf
}
