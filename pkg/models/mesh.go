// Package models holds the plane geometry the gallery draws: subdivided
// quads, their cloth deformation, and glTF snapshots of a whole frame.
package models

import (
	"image"

	"github.com/taigrr/infinigallery/pkg/math3d"
)

// Mesh is an indexed triangle mesh in plane-local space.
type Mesh struct {
	Name      string
	Vertices  []MeshVertex
	Faces     []Face
	Materials []Material

	// BoundsMin and BoundsMax are refreshed by CalculateBounds.
	BoundsMin math3d.Vec3
	BoundsMax math3d.Vec3
}

// MeshVertex is one grid point of a plane.
type MeshVertex struct {
	Position math3d.Vec3
	Normal   math3d.Vec3
	UV       math3d.Vec2
}

// Face is a counter-clockwise triangle. Material is -1 when unset.
type Face struct {
	V        [3]int
	Material int
}

// Material is what a snapshot keeps of a plane's shading.
type Material struct {
	Name      string
	BaseColor [4]float64 // alpha carries plane opacity
	BaseMap   image.Image
}

// NewMesh creates an empty mesh.
func NewMesh(name string) *Mesh {
	return &Mesh{Name: name}
}

// CalculateBounds refreshes the axis-aligned bounding box. An empty mesh
// keeps its old bounds.
func (m *Mesh) CalculateBounds() {
	for i, v := range m.Vertices {
		if i == 0 {
			m.BoundsMin, m.BoundsMax = v.Position, v.Position
			continue
		}
		m.BoundsMin = m.BoundsMin.Min(v.Position)
		m.BoundsMax = m.BoundsMax.Max(v.Position)
	}
}

func (m *Mesh) TriangleCount() int { return len(m.Faces) }

// CalculateSmoothNormals recomputes vertex normals from the area weighted
// normals of the faces around each vertex.
func (m *Mesh) CalculateSmoothNormals() {
	acc := make([]math3d.Vec3, len(m.Vertices))
	for _, f := range m.Faces {
		a, b, c := m.Vertices[f.V[0]].Position, m.Vertices[f.V[1]].Position, m.Vertices[f.V[2]].Position
		n := b.Sub(a).Cross(c.Sub(a))
		for _, idx := range f.V {
			acc[idx] = acc[idx].Add(n)
		}
	}
	for i, n := range acc {
		m.Vertices[i].Normal = n.Normalize()
	}
}

// Clone copies the geometry. Material images are shared.
func (m *Mesh) Clone() *Mesh {
	c := *m
	c.Vertices = append([]MeshVertex(nil), m.Vertices...)
	c.Faces = append([]Face(nil), m.Faces...)
	c.Materials = append([]Material(nil), m.Materials...)
	return &c
}

// GetVertex implements render.MeshRenderer.
func (m *Mesh) GetVertex(i int) (pos, normal math3d.Vec3, uv math3d.Vec2) {
	v := &m.Vertices[i]
	return v.Position, v.Normal, v.UV
}

// GetFace implements render.MeshRenderer.
func (m *Mesh) GetFace(i int) [3]int { return m.Faces[i].V }
