package gallery

import "time"

// Governor switches autoplay on after an idle period and off on any input.
type Governor struct {
	active    bool
	last      time.Time
	lastCheck time.Time

	idle     time.Duration
	interval time.Duration
}

// NewGovernor starts active, as if the last interaction happened at start.
func NewGovernor(cfg AutoplaySettings, start time.Time) *Governor {
	return &Governor{
		active:    true,
		last:      start,
		lastCheck: start,
		idle:      cfg.Idle,
		interval:  cfg.CheckInterval,
	}
}

// Interact records manual input at t and stops autoplay immediately.
func (g *Governor) Interact(t time.Time) {
	g.active = false
	if t.After(g.last) {
		g.last = t
	}
}

// Check re-evaluates idleness at most once per interval and reports whether
// autoplay is active. It never turns autoplay off.
func (g *Governor) Check(now time.Time) bool {
	if now.Sub(g.lastCheck) < g.interval {
		return g.active
	}
	g.lastCheck = now
	if now.Sub(g.last) > g.idle {
		g.active = true
	}
	return g.active
}

// Active reports the current state without checking.
func (g *Governor) Active() bool { return g.active }

// LastInteraction is the time of the most recent manual input.
func (g *Governor) LastInteraction() time.Time { return g.last }
