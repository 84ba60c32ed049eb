package gallery

import "math"

// Plane is one display slot travelling along the depth axis.
type Plane struct {
	Slot       int // fixed identity: layout offset and material
	Depth      float64
	ImageIndex int
	X, Y       float64
}

// Ring is the cyclic arrangement of planes. Planes are mutated in place
// every frame; only derived values leave the engine.
type Ring struct {
	planes     []Plane
	cycle      float64
	imageCount int
	step       int
}

// NewRing lays out visible planes evenly over the cycle. It holds no planes
// when there are no images or no slots.
func NewRing(visible, imageCount int, cycle float64) *Ring {
	r := &Ring{cycle: cycle, imageCount: imageCount}
	if visible <= 0 || imageCount <= 0 {
		return r
	}
	r.step = ImageStep(visible, imageCount)
	r.planes = make([]Plane, visible)
	for i := range r.planes {
		x, y := Layout(i, visible)
		depth := 0.0
		if cycle > 0 {
			depth = floorMod(cycle/float64(visible)*float64(i), cycle)
		}
		r.planes[i] = Plane{
			Slot:       i,
			Depth:      depth,
			ImageIndex: i % imageCount,
			X:          x,
			Y:          y,
		}
	}
	return r
}

// ImageStep is how many distinct images the ring moves on by per full wrap.
// It is never zero for a non-empty image list.
func ImageStep(visible, imageCount int) int {
	if imageCount <= 0 {
		return 0
	}
	if s := visible % imageCount; s != 0 {
		return s
	}
	return imageCount
}

// Planes returns the live plane slice. Callers must not retain it across
// frames.
func (r *Ring) Planes() []Plane { return r.planes }

// Cycle returns the cycle length.
func (r *Ring) Cycle() float64 { return r.cycle }

// Advance moves every plane by distance along the depth axis, wrapping and
// re-indexing images so the sequence passing the camera stays stable in
// both directions.
func (r *Ring) Advance(distance float64) {
	if r.cycle <= 0 || len(r.planes) == 0 || distance == 0 {
		return
	}
	for i := range r.planes {
		p := &r.planes[i]
		z := p.Depth + distance
		switch {
		case z >= r.cycle:
			wraps := math.Floor(z / r.cycle)
			z -= r.cycle * wraps
			if z < 0 {
				z += r.cycle
				wraps--
			}
			p.ImageIndex = floorModInt(p.ImageIndex+int(wraps)*r.step, r.imageCount)
		case z < 0:
			wraps := math.Ceil(-z / r.cycle)
			z += r.cycle * wraps
			if z >= r.cycle {
				// A step just below zero rounds back up to the cycle.
				z = 0
				wraps--
			}
			p.ImageIndex = floorModInt(p.ImageIndex-int(wraps)*r.step, r.imageCount)
		}
		p.Depth = floorMod(z, r.cycle)
	}
}

func floorMod(x, m float64) float64 {
	return math.Mod(math.Mod(x, m)+m, m)
}

func floorModInt(x, m int) int {
	return ((x % m) + m) % m
}
