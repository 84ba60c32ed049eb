package models

import (
	"math"

	"github.com/taigrr/infinigallery/pkg/math3d"
)

// DefaultSegments is the subdivision used for gallery planes. The terminal
// has few pixels, so this is far coarser than a GPU would use.
const DefaultSegments = 8

// NewPlane builds a unit quad centered on the origin in the XY plane,
// facing +Z, split into segments x segments cells so it can bend.
// UV (0,0) is the bottom-left corner.
func NewPlane(segments int) *Mesh {
	segments = max(segments, 1)
	m := NewMesh("plane")
	row := segments + 1
	m.Vertices = make([]MeshVertex, 0, row*row)
	for j := range row {
		v := float64(j) / float64(segments)
		for i := range row {
			u := float64(i) / float64(segments)
			m.Vertices = append(m.Vertices, MeshVertex{
				Position: math3d.V3(u-0.5, v-0.5, 0),
				Normal:   math3d.V3(0, 0, 1),
				UV:       math3d.V2(u, v),
			})
		}
	}
	m.Faces = make([]Face, 0, segments*segments*2)
	for j := range segments {
		for i := range segments {
			a := j*row + i
			b := a + 1
			c := a + row + 1
			d := a + row
			m.Faces = append(m.Faces,
				Face{V: [3]int{a, b, c}, Material: -1},
				Face{V: [3]int{a, c, d}, Material: -1},
			)
		}
	}
	m.CalculateBounds()
	return m
}

// AspectScale sizes a plane for an image of the given width/height ratio:
// landscape images are 2 units tall, portrait ones 2 units wide.
func AspectScale(aspect float64) math3d.Vec3 {
	if aspect <= 0 || math.IsNaN(aspect) || math.IsInf(aspect, 0) {
		aspect = 1
	}
	if aspect > 1 {
		return math3d.V3(2*aspect, 2, 1)
	}
	return math3d.V3(2, 2/aspect, 1)
}
