package render

import (
	"errors"
	"fmt"
	"sync"

	"github.com/charmbracelet/colorprofile"
)

var (
	// ErrBackendUnavailable means the output cannot show the 3D scene at all.
	ErrBackendUnavailable = errors.New("render: backend unavailable")
	// ErrContextLost is reported by a context after it was lost.
	ErrContextLost = errors.New("render: context lost")
)

// Backend creates rendering contexts.
type Backend interface {
	// Probe reports ErrBackendUnavailable when contexts cannot be used.
	Probe() error
	NewContext(width, height int) (Context, error)
}

// Context is one rendering surface. Lost is closed when the context stops
// being usable; the owner must then build a new one.
type Context interface {
	Framebuffer() *Framebuffer
	Resize(width, height int)
	Lost() <-chan struct{}
	Err() error
	Close() error
}

// SoftwareBackend renders into memory for a terminal with the given color
// profile.
type SoftwareBackend struct {
	Profile colorprofile.Profile
}

// NewSoftwareBackend creates a backend for profile.
func NewSoftwareBackend(profile colorprofile.Profile) *SoftwareBackend {
	return &SoftwareBackend{Profile: profile}
}

// Probe fails for outputs without color: half-block pixels need at least
// the 16 ANSI colors to be legible.
func (b *SoftwareBackend) Probe() error {
	if b.Profile < colorprofile.ANSI {
		return fmt.Errorf("%w: color profile %s", ErrBackendUnavailable, b.Profile)
	}
	return nil
}

// NewContext allocates a context of width x height pixels.
func (b *SoftwareBackend) NewContext(width, height int) (Context, error) {
	if err := b.Probe(); err != nil {
		return nil, err
	}
	return NewSoftwareContext(width, height), nil
}

// SoftwareContext is an in-memory Context.
type SoftwareContext struct {
	fb   *Framebuffer
	lost chan struct{}

	mu     sync.Mutex
	err    error
	closed bool
}

// NewSoftwareContext creates a live context.
func NewSoftwareContext(width, height int) *SoftwareContext {
	return &SoftwareContext{
		fb:   NewFramebuffer(width, height),
		lost: make(chan struct{}),
	}
}

// Framebuffer returns the render target.
func (c *SoftwareContext) Framebuffer() *Framebuffer { return c.fb }

// Resize changes the render target size.
func (c *SoftwareContext) Resize(width, height int) { c.fb.Resize(width, height) }

// Lost is closed once the context is lost.
func (c *SoftwareContext) Lost() <-chan struct{} { return c.lost }

// Err returns ErrContextLost (possibly wrapped) after a loss.
func (c *SoftwareContext) Err() error {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.err
}

// Lose marks the context lost with cause, which may be nil. Only the first
// call has an effect.
func (c *SoftwareContext) Lose(cause error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.err != nil {
		return
	}
	if cause != nil {
		c.err = fmt.Errorf("%w: %w", ErrContextLost, cause)
	} else {
		c.err = ErrContextLost
	}
	close(c.lost)
}

// Close releases the framebuffer.
func (c *SoftwareContext) Close() error {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.closed = true
	c.fb = NewFramebuffer(0, 0)
	return nil
}

// Closed reports whether Close was called.
func (c *SoftwareContext) Closed() bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.closed
}
