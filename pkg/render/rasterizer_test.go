package render

import (
	"testing"

	"github.com/taigrr/infinigallery/pkg/math3d"
)

// quad is a unit square in the XY plane, two triangles.
type quad struct{}

var quadVerts = [4]struct {
	p  math3d.Vec3
	uv math3d.Vec2
}{
	{math3d.V3(-0.5, -0.5, 0), math3d.V2(0, 0)},
	{math3d.V3(0.5, -0.5, 0), math3d.V2(1, 0)},
	{math3d.V3(0.5, 0.5, 0), math3d.V2(1, 1)},
	{math3d.V3(-0.5, 0.5, 0), math3d.V2(0, 1)},
}

func (quad) TriangleCount() int { return 2 }

func (quad) GetFace(i int) [3]int {
	if i == 0 {
		return [3]int{0, 1, 2}
	}
	return [3]int{0, 2, 3}
}

func (quad) GetVertex(i int) (math3d.Vec3, math3d.Vec3, math3d.Vec2) {
	return quadVerts[i].p, math3d.V3(0, 0, 1), quadVerts[i].uv
}

func solid(c Color) *Texture {
	tex := NewTexture(4, 4)
	for i := range tex.Pixels {
		tex.Pixels[i] = c
	}
	return tex
}

func at(x, y, z, size float64) math3d.Mat4 {
	return math3d.Translate(math3d.V3(x, y, z)).Mul(math3d.Scale(math3d.V3(size, size, 1)))
}

func TestRasterizerDrawsPlane(t *testing.T) {
	fb := NewFramebuffer(40, 40)
	r := NewRasterizer(NewCamera(0.1, 100))
	r.Begin(fb)
	mat := &Material{Slot: 3, Texture: solid(ColorRed), Opacity: 1}
	n := r.DrawMesh(fb, quad{}, at(0, 0, -5, 2), mat)
	if n == 0 {
		t.Fatal("nothing drawn")
	}
	if c := fb.GetPixel(20, 20); c != ColorRed {
		t.Errorf("center = %v, want red", c)
	}
	if s := fb.SlotAt(20, 20); s != 3 {
		t.Errorf("center slot = %d, want 3", s)
	}
	if s := fb.SlotAt(0, 0); s != NoSlot {
		t.Errorf("corner slot = %d, want NoSlot", s)
	}
}

func TestRasterizerSkipsBehindCamera(t *testing.T) {
	fb := NewFramebuffer(20, 20)
	r := NewRasterizer(NewCamera(0.8, 100))
	r.Begin(fb)
	mat := &Material{Texture: solid(ColorRed), Opacity: 1}
	if n := r.DrawMesh(fb, quad{}, at(0, 0, 5, 2), mat); n != 0 {
		t.Errorf("drew %d pixels behind the camera", n)
	}
	if n := r.DrawMesh(fb, quad{}, at(0, 0, -0.5, 2), mat); n != 0 {
		t.Errorf("drew %d pixels inside the near plane", n)
	}
}

func TestRasterizerSkipsInvisibleMaterials(t *testing.T) {
	fb := NewFramebuffer(20, 20)
	r := NewRasterizer(NewCamera(0.1, 100))
	r.Begin(fb)
	tests := []*Material{
		nil,
		{Opacity: 1},
		{Texture: solid(ColorRed), Opacity: 0},
	}
	for i, mat := range tests {
		if n := r.DrawMesh(fb, quad{}, at(0, 0, -5, 2), mat); n != 0 {
			t.Errorf("case %d drew %d pixels", i, n)
		}
	}
}

func TestRasterizerPaintersOrder(t *testing.T) {
	fb := NewFramebuffer(40, 40)
	r := NewRasterizer(NewCamera(0.1, 100))
	r.Begin(fb)
	r.DrawMesh(fb, quad{}, at(0, 0, -10, 4), &Material{Slot: 1, Texture: solid(ColorGreen), Opacity: 1})
	r.DrawMesh(fb, quad{}, at(0, 0, -5, 1), &Material{Slot: 2, Texture: solid(ColorRed), Opacity: 0.5})
	if s := fb.SlotAt(20, 20); s != 2 {
		t.Errorf("center slot = %d, want the nearer plane", s)
	}
	c := fb.GetPixel(20, 20)
	if c.R != 127 || c.G != 127 || c.B != 0 {
		t.Errorf("half transparent red over green = %v", c)
	}
}

func TestRasterizerFog(t *testing.T) {
	fb := NewFramebuffer(40, 40)
	r := NewRasterizer(NewCamera(0.1, 100))
	r.Fog = Fog{Start: 1, End: 5, Strength: 0.6, Color: ColorBlack}
	r.Begin(fb)
	r.DrawMesh(fb, quad{}, at(0, 0, -5, 2), &Material{Texture: solid(ColorWhite), Opacity: 1})
	c := fb.GetPixel(20, 20)
	if c.R < 100 || c.R > 103 {
		t.Errorf("fogged white = %v, want about 40%% brightness", c)
	}
}

func TestFogFactor(t *testing.T) {
	f := Fog{Start: 2, End: 12, Strength: 0.6}
	tests := []struct{ d, want float64 }{
		{0, 0},
		{2, 0},
		{7, 0.3},
		{12, 0.6},
		{40, 0.6},
	}
	for _, tt := range tests {
		if got := f.Factor(tt.d); got < tt.want-1e-9 || got > tt.want+1e-9 {
			t.Errorf("Factor(%v) = %v, want %v", tt.d, got, tt.want)
		}
	}
}
