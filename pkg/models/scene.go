package models

import (
	"fmt"
	"image"

	"github.com/taigrr/infinigallery/pkg/math3d"
)

// ScenePlane is one gallery plane frozen at a point in time. Mesh is in
// plane-local space with any cloth deformation already applied.
type ScenePlane struct {
	Slot        int
	ImageIndex  int
	Translation math3d.Vec3
	Scale       math3d.Vec3
	Opacity     float64
	Mesh        *Mesh
	Image       image.Image // nil when the texture was not loaded
}

// Transform is the plane's model matrix.
func (p ScenePlane) Transform() math3d.Mat4 {
	return math3d.Translate(p.Translation).Mul(math3d.Scale(p.Scale))
}

// Scene is a snapshot of every drawn plane of one frame.
type Scene struct {
	Name   string
	Planes []ScenePlane
}

// TriangleCount sums the triangles of all planes.
func (s *Scene) TriangleCount() int {
	n := 0
	for _, p := range s.Planes {
		if p.Mesh != nil {
			n += p.Mesh.TriangleCount()
		}
	}
	return n
}

// TextureCount is the number of planes carrying an image.
func (s *Scene) TextureCount() int {
	n := 0
	for _, p := range s.Planes {
		if p.Image != nil {
			n++
		}
	}
	return n
}

func planeNodeName(slot, image int) string {
	return fmt.Sprintf("plane-%02d-image-%02d", slot, image)
}

func parsePlaneNodeName(name string) (slot, image int, ok bool) {
	if _, err := fmt.Sscanf(name, "plane-%d-image-%d", &slot, &image); err != nil {
		return 0, 0, false
	}
	return slot, image, true
}
