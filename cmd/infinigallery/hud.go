package main

import (
	"strings"
	"time"

	"github.com/charmbracelet/harmonica"
)

// HUD tracks the overlay state: an FPS counter and the progress meter
// toward unlocking the page.
type HUD struct {
	Shown bool

	fps       float64
	fpsFrames int
	fpsTime   time.Time

	progress    float64
	progressVel float64
	spring      harmonica.Spring
}

// NewHUD creates a HUD for a loop running at fps.
func NewHUD(fps int, now time.Time) *HUD {
	return &HUD{
		fpsTime: now,
		// Critically damped so the meter never overshoots 100%.
		spring: harmonica.NewSpring(harmonica.FPS(max(fps, 1)), 5.0, 1.0),
	}
}

// UpdateFPS counts a frame; the rate is recomputed every second.
func (h *HUD) UpdateFPS(now time.Time) {
	h.fpsFrames++
	elapsed := now.Sub(h.fpsTime)
	if elapsed >= time.Second {
		h.fps = float64(h.fpsFrames) / elapsed.Seconds()
		h.fpsFrames = 0
		h.fpsTime = now
	}
}

// FPS is the last measured frame rate.
func (h *HUD) FPS() float64 { return h.fps }

// UpdateProgress moves the meter one frame toward target.
func (h *HUD) UpdateProgress(target float64) {
	h.progress, h.progressVel = h.spring.Update(h.progress, h.progressVel, target)
	h.progress = min(max(h.progress, 0), 1)
}

// Progress is the smoothed meter value in [0, 1].
func (h *HUD) Progress() float64 { return h.progress }

// ResetProgress snaps the meter back to empty.
func (h *HUD) ResetProgress() {
	h.progress, h.progressVel = 0, 0
}

// bar draws a meter of width cells filled to p.
func bar(width int, p float64) string {
	if width <= 0 {
		return ""
	}
	p = min(max(p, 0), 1)
	filled := int(p*float64(width) + 0.5)
	return strings.Repeat("█", filled) + strings.Repeat("░", width-filled)
}
