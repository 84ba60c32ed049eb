package models

import "math"

// Cloth bends a plane like fabric: it curves back under scroll force with a
// small ripple, and waves like a flag while hovered.
type Cloth struct {
	ScrollForce float64
	Time        float64 // seconds
	Hovered     bool
}

// Active reports whether the cloth deforms at all.
func (c Cloth) Active() bool {
	return c.ScrollForce != 0 || c.Hovered
}

// Offset is how far the local point (x, y) of a unit plane is pushed back
// along -Z.
func (c Cloth) Offset(x, y float64) float64 {
	intensity := c.ScrollForce * 0.3
	d2 := x*x + y*y
	curve := d2 * intensity

	ripple := math.Sin(x*2+c.ScrollForce*3)*0.02 + math.Sin(y*2.5+c.ScrollForce*2)*0.015
	cloth := ripple * math.Abs(intensity) * 2

	var flag float64
	if c.Hovered {
		damp := smoothstep(-0.5, 0.5, x)
		flag = math.Sin(x*3+c.Time*8)*0.1*damp + math.Sin(x*5+c.Time*12)*0.03*damp
	}
	return curve + cloth + flag
}

// Apply writes rest deformed by the cloth into dst, which must have the same
// topology (usually a Clone of rest). Normals are recomputed when the cloth
// is active.
func (c Cloth) Apply(dst, rest *Mesh) {
	for i, v := range rest.Vertices {
		p := v.Position
		if c.Active() {
			p.Z -= c.Offset(p.X, p.Y)
		}
		dst.Vertices[i].Position = p
		dst.Vertices[i].UV = v.UV
		dst.Vertices[i].Normal = v.Normal
	}
	if c.Active() {
		dst.CalculateSmoothNormals()
	}
	dst.CalculateBounds()
}

func smoothstep(edge0, edge1, x float64) float64 {
	t := math.Max(0, math.Min(1, (x-edge0)/(edge1-edge0)))
	return t * t * (3 - 2*t)
}
