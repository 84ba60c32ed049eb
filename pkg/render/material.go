package render

import "math"

// highlightScale turns |scroll force| into an additive brightness, in
// 0-255 channel units.
const highlightScale = 0.05 * 0.1 * 255

// Material is the per-plane shading state, updated every frame.
type Material struct {
	Slot        int
	Texture     *Texture
	Opacity     float64
	Blur        float64 // in texels
	ScrollForce float64
	Time        float64
	Hovered     bool
}

// Shade returns the fragment color at (u, v), before fog.
func (m *Material) Shade(u, v float64) Color {
	if m.Texture == nil {
		return ColorBlack
	}
	c := m.Texture.SampleBlur(u, v, m.Blur)
	if h := math.Abs(m.ScrollForce) * highlightScale; h > 0 {
		c = AddColor(c, h)
	}
	return c
}

// MaterialPool owns one material per plane slot for the lifetime of a
// rendering context.
type MaterialPool struct {
	materials []*Material
	released  bool
}

// NewMaterialPool allocates materials for slots planes.
func NewMaterialPool(slots int) *MaterialPool {
	p := &MaterialPool{materials: make([]*Material, max(slots, 0))}
	for i := range p.materials {
		p.materials[i] = &Material{Slot: i, Opacity: 1}
	}
	return p
}

// Get returns the material for slot, or nil if out of range or released.
func (p *MaterialPool) Get(slot int) *Material {
	if p.released || slot < 0 || slot >= len(p.materials) {
		return nil
	}
	return p.materials[slot]
}

// Len is the number of slots.
func (p *MaterialPool) Len() int { return len(p.materials) }

// Release drops every material and texture reference.
func (p *MaterialPool) Release() {
	for i := range p.materials {
		p.materials[i] = nil
	}
	p.materials = nil
	p.released = true
}

// Released reports whether Release was called.
func (p *MaterialPool) Released() bool { return p.released }
