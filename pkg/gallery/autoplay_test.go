package gallery

import (
	"testing"
	"time"
)

var epoch = time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)

func TestGovernorIdleCheckNeverTurnsOff(t *testing.T) {
	g := NewGovernor(DefaultConfig().Autoplay, epoch)
	for i := 0; i < 50; i++ {
		if !g.Check(epoch.Add(time.Duration(i) * 100 * time.Millisecond)) {
			t.Fatalf("check %d turned autoplay off", i)
		}
	}
}

func TestGovernorInteractionStopsImmediately(t *testing.T) {
	g := NewGovernor(DefaultConfig().Autoplay, epoch)
	g.Interact(epoch.Add(time.Second))
	if g.Active() {
		t.Fatal("still active after interaction")
	}
	// Repeated checks before the idle threshold keep it off.
	for ms := 1000; ms <= 4000; ms += 250 {
		if g.Check(epoch.Add(time.Duration(ms) * time.Millisecond)) {
			t.Fatalf("active again at %dms, before idle threshold", ms)
		}
	}
}

func TestGovernorResumesWithinCheckInterval(t *testing.T) {
	cfg := DefaultConfig().Autoplay
	g := NewGovernor(cfg, epoch)
	last := epoch.Add(500 * time.Millisecond)
	g.Interact(last)

	var resumed time.Time
	for ms := 500; ms <= 10000; ms += 16 {
		now := epoch.Add(time.Duration(ms) * time.Millisecond)
		if g.Check(now) {
			resumed = now
			break
		}
	}
	if resumed.IsZero() {
		t.Fatal("autoplay never resumed")
	}
	idleAt := last.Add(cfg.Idle)
	if resumed.Before(idleAt) || resumed.Sub(idleAt) > cfg.CheckInterval+20*time.Millisecond {
		t.Errorf("resumed %v after the idle threshold, want within %v", resumed.Sub(idleAt), cfg.CheckInterval)
	}
}

func TestGovernorKeepsLatestInteraction(t *testing.T) {
	g := NewGovernor(DefaultConfig().Autoplay, epoch)
	g.Interact(epoch.Add(2 * time.Second))
	g.Interact(epoch.Add(time.Second))
	if got := g.LastInteraction(); !got.Equal(epoch.Add(2 * time.Second)) {
		t.Errorf("LastInteraction = %v", got)
	}
}
