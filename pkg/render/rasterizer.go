package render

import (
	"math"

	"github.com/taigrr/infinigallery/pkg/math3d"
)

// Vertex is a triangle corner in world space.
type Vertex struct {
	Position math3d.Vec3
	Normal   math3d.Vec3
	UV       math3d.Vec2
}

// Triangle is three world space vertices.
type Triangle struct {
	V [3]Vertex
}

// MeshRenderer is the read side of a triangle mesh.
type MeshRenderer interface {
	TriangleCount() int
	GetFace(i int) [3]int
	GetVertex(i int) (pos, normal math3d.Vec3, uv math3d.Vec2)
}

// Rasterizer draws textured, alpha blended meshes in painter's order. There
// is no depth buffer: callers submit meshes back to front.
type Rasterizer struct {
	Camera *Camera
	Fog    Fog

	viewProj math3d.Mat4
	view     math3d.Mat4
	width    int
	height   int
}

// NewRasterizer creates a rasterizer for cam.
func NewRasterizer(cam *Camera) *Rasterizer {
	return &Rasterizer{Camera: cam}
}

// Begin caches the camera matrices for a framebuffer size. Call once per
// frame before DrawMesh.
func (r *Rasterizer) Begin(fb *Framebuffer) {
	r.width, r.height = fb.Width, fb.Height
	aspect := 1.0
	if fb.Height > 0 {
		aspect = float64(fb.Width) / float64(fb.Height)
	}
	r.view = r.Camera.View()
	r.viewProj = r.Camera.Projection(aspect).Mul(r.view)
}

// DrawMesh rasterizes mesh with the model transform and material into fb,
// tagging covered pixels with the material slot. It returns the number of
// pixels written.
func (r *Rasterizer) DrawMesh(fb *Framebuffer, mesh MeshRenderer, model math3d.Mat4, mat *Material) int {
	if mat == nil || mat.Texture == nil || mat.Opacity <= 0 {
		return 0
	}
	drawn := 0
	for i := range mesh.TriangleCount() {
		tri := buildTexturedTriangle(mesh, mesh.GetFace(i), model)
		drawn += r.drawTriangle(fb, &tri, mat)
	}
	return drawn
}

func buildTexturedTriangle(mesh MeshRenderer, face [3]int, transform math3d.Mat4) Triangle {
	var tri Triangle
	for k, idx := range face {
		p, n, uv := mesh.GetVertex(idx)
		tri.V[k] = Vertex{
			Position: transform.MulVec3(p),
			Normal:   transform.MulVec3Dir(n).Normalize(),
			UV:       uv,
		}
	}
	return tri
}

type screenVertex struct {
	x, y float64
	invW float64 // 1 / view distance
	u, v float64 // pre-divided by w
}

func (r *Rasterizer) project(v Vertex) (screenVertex, bool) {
	clip := r.viewProj.MulVec4(math3d.V4FromV3(v.Position, 1))
	if clip.W < r.Camera.Near {
		return screenVertex{}, false
	}
	ndc := clip.PerspectiveDivide()
	invW := 1 / clip.W
	return screenVertex{
		x:    (ndc.X + 1) * 0.5 * float64(r.width),
		y:    (1 - ndc.Y) * 0.5 * float64(r.height),
		invW: invW,
		u:    v.UV.X * invW,
		v:    v.UV.Y * invW,
	}, true
}

func edge(a, b screenVertex, px, py float64) float64 {
	return (b.x-a.x)*(py-a.y) - (b.y-a.y)*(px-a.x)
}

func (r *Rasterizer) drawTriangle(fb *Framebuffer, tri *Triangle, mat *Material) int {
	var s [3]screenVertex
	for k := range tri.V {
		sv, ok := r.project(tri.V[k])
		if !ok {
			// Behind the near plane; planes are small, so drop the triangle.
			return 0
		}
		s[k] = sv
	}
	area := edge(s[0], s[1], s[2].x, s[2].y)
	if area == 0 {
		return 0
	}

	minX := max(0, int(math.Floor(min(s[0].x, s[1].x, s[2].x))))
	maxX := min(fb.Width-1, int(math.Ceil(max(s[0].x, s[1].x, s[2].x))))
	minY := max(0, int(math.Floor(min(s[0].y, s[1].y, s[2].y))))
	maxY := min(fb.Height-1, int(math.Ceil(max(s[0].y, s[1].y, s[2].y))))

	drawn := 0
	for y := minY; y <= maxY; y++ {
		py := float64(y) + 0.5
		for x := minX; x <= maxX; x++ {
			px := float64(x) + 0.5
			w0 := edge(s[1], s[2], px, py) / area
			w1 := edge(s[2], s[0], px, py) / area
			w2 := edge(s[0], s[1], px, py) / area
			if w0 < 0 || w1 < 0 || w2 < 0 {
				continue
			}
			invW := w0*s[0].invW + w1*s[1].invW + w2*s[2].invW
			if invW <= 0 {
				continue
			}
			dist := 1 / invW
			u := (w0*s[0].u + w1*s[1].u + w2*s[2].u) * dist
			v := (w0*s[0].v + w1*s[1].v + w2*s[2].v) * dist

			c := r.Fog.Apply(mat.Shade(u, v), dist)
			fb.Blend(x, y, c, mat.Opacity)
			fb.SetSlot(x, y, mat.Slot)
			drawn++
		}
	}
	return drawn
}
