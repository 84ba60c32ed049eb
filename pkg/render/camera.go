package render

import (
	"math"

	"github.com/taigrr/infinigallery/pkg/math3d"
)

// Camera is a perspective camera. The gallery keeps it at the origin
// looking down -Z and moves the planes instead.
type Camera struct {
	Position math3d.Vec3
	Target   math3d.Vec3
	Up       math3d.Vec3
	FOV      float64 // vertical, degrees
	Near     float64
	Far      float64
}

// NewCamera returns the gallery camera: origin, -Z, 55 degree field of view.
func NewCamera(near, far float64) *Camera {
	return &Camera{
		Position: math3d.Zero3(),
		Target:   math3d.V3(0, 0, -1),
		Up:       math3d.V3(0, 1, 0),
		FOV:      55,
		Near:     near,
		Far:      far,
	}
}

// View returns the world to view transform.
func (c *Camera) View() math3d.Mat4 {
	return math3d.LookAt(c.Position, c.Target, c.Up)
}

// Projection returns the view to clip transform for the given aspect ratio.
func (c *Camera) Projection(aspect float64) math3d.Mat4 {
	if aspect <= 0 {
		aspect = 1
	}
	return math3d.Perspective(c.FOV*math.Pi/180, aspect, c.Near, c.Far)
}

// Fog darkens fragments linearly with view distance, from nothing at Start
// to Strength at End.
type Fog struct {
	Start, End float64
	Strength   float64
	Color      Color
}

// Factor is the fog amount at distance d, in [0, Strength].
func (f Fog) Factor(d float64) float64 {
	if f.Strength <= 0 || d <= f.Start {
		return 0
	}
	if f.End <= f.Start || d >= f.End {
		return f.Strength
	}
	return f.Strength * (d - f.Start) / (f.End - f.Start)
}

// Apply mixes c toward the fog color for distance d.
func (f Fog) Apply(c Color, d float64) Color {
	k := f.Factor(d)
	if k == 0 {
		return c
	}
	return lerpColor(c, f.Color, k)
}
