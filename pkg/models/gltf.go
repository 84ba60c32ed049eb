package models

import (
	"bytes"
	"errors"
	"fmt"
	"image"
	_ "image/jpeg"
	_ "image/png"
	"math"
	"path/filepath"

	"github.com/qmuntal/gltf"
	"github.com/taigrr/infinigallery/pkg/math3d"
)

// ErrNotSnapshot is returned for glTF files without any gallery plane nodes.
var ErrNotSnapshot = errors.New("models: no gallery planes in file")

// LoadGLB reads a snapshot written by SaveGLB back into a Scene. Nodes that
// are not gallery planes are ignored.
func LoadGLB(path string) (*Scene, error) {
	doc, err := gltf.Open(path)
	if err != nil {
		return nil, fmt.Errorf("open gltf: %w", err)
	}
	s, err := SceneFromDocument(doc)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}
	if s.Name == "" {
		s.Name = filepath.Base(path)
	}
	return s, nil
}

// SceneFromDocument extracts gallery planes from a glTF document.
func SceneFromDocument(doc *gltf.Document) (*Scene, error) {
	s := &Scene{}
	if len(doc.Scenes) == 0 {
		return nil, ErrNotSnapshot
	}
	sceneIdx := 0
	if doc.Scene != nil {
		sceneIdx = *doc.Scene
	}
	if sceneIdx < 0 || sceneIdx >= len(doc.Scenes) {
		return nil, fmt.Errorf("scene index %d out of range", sceneIdx)
	}
	scene := doc.Scenes[sceneIdx]
	s.Name = scene.Name

	for _, nodeIdx := range scene.Nodes {
		node := doc.Nodes[nodeIdx]
		slot, img, ok := parsePlaneNodeName(node.Name)
		if !ok || node.Mesh == nil {
			continue
		}
		p := ScenePlane{
			Slot:        slot,
			ImageIndex:  img,
			Translation: math3d.V3(node.Translation[0], node.Translation[1], node.Translation[2]),
			Scale:       math3d.V3(node.Scale[0], node.Scale[1], node.Scale[2]),
			Opacity:     1,
		}
		mesh, err := readMesh(doc, doc.Meshes[*node.Mesh])
		if err != nil {
			return nil, fmt.Errorf("node %s: %w", node.Name, err)
		}
		p.Mesh = mesh
		if len(mesh.Materials) > 0 {
			p.Opacity = mesh.Materials[0].BaseColor[3]
			p.Image = mesh.Materials[0].BaseMap
		}
		s.Planes = append(s.Planes, p)
	}
	if len(s.Planes) == 0 {
		return nil, ErrNotSnapshot
	}
	return s, nil
}

// readMesh extracts the triangle primitives of m in local space.
func readMesh(doc *gltf.Document, m *gltf.Mesh) (*Mesh, error) {
	mesh := NewMesh(m.Name)
	for _, prim := range m.Primitives {
		if prim.Mode != gltf.PrimitiveTriangles && prim.Mode != 0 {
			continue
		}

		posIdx, ok := prim.Attributes[gltf.POSITION]
		if !ok {
			continue
		}
		positions, err := readVec3Accessor(doc, posIdx)
		if err != nil {
			return nil, fmt.Errorf("read positions: %w", err)
		}

		var normals []math3d.Vec3
		if normIdx, ok := prim.Attributes[gltf.NORMAL]; ok {
			normals, err = readVec3Accessor(doc, normIdx)
			if err != nil {
				return nil, fmt.Errorf("read normals: %w", err)
			}
		}

		var uvs []math3d.Vec2
		if uvIdx, ok := prim.Attributes[gltf.TEXCOORD_0]; ok {
			uvs, err = readVec2Accessor(doc, uvIdx)
			if err != nil {
				return nil, fmt.Errorf("read uvs: %w", err)
			}
		}

		materialIdx := -1
		if prim.Material != nil {
			materialIdx = len(mesh.Materials)
			mesh.Materials = append(mesh.Materials, readMaterial(doc, *prim.Material))
		}

		base := len(mesh.Vertices)
		for i := range positions {
			v := MeshVertex{Position: positions[i]}
			if i < len(normals) {
				v.Normal = normals[i]
			}
			if i < len(uvs) {
				// glTF has V=0 at the top.
				v.UV = math3d.V2(uvs[i].X, 1.0-uvs[i].Y)
			}
			mesh.Vertices = append(mesh.Vertices, v)
		}

		if prim.Indices == nil {
			for i := 0; i+2 < len(positions); i += 3 {
				mesh.Faces = append(mesh.Faces, Face{V: [3]int{base + i, base + i + 1, base + i + 2}, Material: materialIdx})
			}
			continue
		}
		indices, err := readIndices(doc, *prim.Indices)
		if err != nil {
			return nil, fmt.Errorf("read indices: %w", err)
		}
		for i := 0; i+2 < len(indices); i += 3 {
			f := Face{V: [3]int{base + indices[i], base + indices[i+1], base + indices[i+2]}, Material: materialIdx}
			for _, vi := range f.V {
				if vi >= len(mesh.Vertices) {
					return nil, fmt.Errorf("index %d out of range", vi)
				}
			}
			mesh.Faces = append(mesh.Faces, f)
		}
	}
	mesh.CalculateBounds()
	return mesh, nil
}

func readMaterial(doc *gltf.Document, idx int) Material {
	m := Material{BaseColor: [4]float64{1, 1, 1, 1}}
	if idx < 0 || idx >= len(doc.Materials) {
		return m
	}
	mat := doc.Materials[idx]
	m.Name = mat.Name
	pbr := mat.PBRMetallicRoughness
	if pbr == nil {
		return m
	}
	if pbr.BaseColorFactor != nil {
		m.BaseColor = *pbr.BaseColorFactor
	}
	if pbr.BaseColorTexture != nil {
		texIdx := pbr.BaseColorTexture.Index
		if texIdx < len(doc.Textures) {
			tex := doc.Textures[texIdx]
			if tex.Source != nil && *tex.Source < len(doc.Images) {
				m.BaseMap = loadEmbeddedImage(doc, doc.Images[*tex.Source])
			}
		}
	}
	return m
}

// loadEmbeddedImage decodes an image stored in a buffer view. Snapshots
// never reference external files.
func loadEmbeddedImage(doc *gltf.Document, img *gltf.Image) image.Image {
	if img.BufferView == nil {
		return nil
	}
	bv := doc.BufferViews[*img.BufferView]
	buf := doc.Buffers[bv.Buffer]
	end := bv.ByteOffset + bv.ByteLength
	if buf.Data == nil || end > len(buf.Data) {
		return nil
	}
	decoded, _, err := image.Decode(bytes.NewReader(buf.Data[bv.ByteOffset:end]))
	if err != nil {
		return nil
	}
	return decoded
}

func readVec3Accessor(doc *gltf.Document, accessorIdx int) ([]math3d.Vec3, error) {
	accessor := doc.Accessors[accessorIdx]
	if accessor.Type != gltf.AccessorVec3 {
		return nil, fmt.Errorf("expected VEC3, got %v", accessor.Type)
	}
	floats, err := readFloats(doc, accessor, 3)
	if err != nil {
		return nil, err
	}
	result := make([]math3d.Vec3, accessor.Count)
	for i := range result {
		result[i] = math3d.V3(floats[i*3], floats[i*3+1], floats[i*3+2])
	}
	return result, nil
}

func readVec2Accessor(doc *gltf.Document, accessorIdx int) ([]math3d.Vec2, error) {
	accessor := doc.Accessors[accessorIdx]
	if accessor.Type != gltf.AccessorVec2 {
		return nil, fmt.Errorf("expected VEC2, got %v", accessor.Type)
	}
	floats, err := readFloats(doc, accessor, 2)
	if err != nil {
		return nil, err
	}
	result := make([]math3d.Vec2, accessor.Count)
	for i := range result {
		result[i] = math3d.V2(floats[i*2], floats[i*2+1])
	}
	return result, nil
}

// accessorBytes returns the buffer backing accessor and its start offset.
func accessorBytes(doc *gltf.Document, accessor *gltf.Accessor) ([]byte, int, int, error) {
	if accessor.BufferView == nil {
		return nil, 0, 0, errors.New("accessor has no buffer view")
	}
	bufferView := doc.BufferViews[*accessor.BufferView]
	buffer := doc.Buffers[bufferView.Buffer]
	if buffer.URI != "" || buffer.Data == nil {
		return nil, 0, 0, errors.New("buffer is not embedded")
	}
	return buffer.Data, bufferView.ByteOffset + accessor.ByteOffset, bufferView.ByteStride, nil
}

func readFloats(doc *gltf.Document, accessor *gltf.Accessor, components int) ([]float64, error) {
	if accessor.ComponentType != gltf.ComponentFloat {
		return nil, fmt.Errorf("unsupported component type %v", accessor.ComponentType)
	}
	data, start, stride, err := accessorBytes(doc, accessor)
	if err != nil {
		return nil, err
	}
	if stride == 0 {
		stride = components * 4
	}
	if need := start + (accessor.Count-1)*stride + components*4; accessor.Count > 0 && need > len(data) {
		return nil, fmt.Errorf("accessor overruns buffer (%d > %d)", need, len(data))
	}
	out := make([]float64, 0, accessor.Count*components)
	for i := range accessor.Count {
		offset := start + i*stride
		for j := range components {
			out = append(out, float64(readFloat32(data[offset+j*4:])))
		}
	}
	return out, nil
}

func readIndices(doc *gltf.Document, accessorIdx int) ([]int, error) {
	accessor := doc.Accessors[accessorIdx]
	data, start, stride, err := accessorBytes(doc, accessor)
	if err != nil {
		return nil, err
	}
	var size int
	switch accessor.ComponentType {
	case gltf.ComponentUbyte:
		size = 1
	case gltf.ComponentUshort:
		size = 2
	case gltf.ComponentUint:
		size = 4
	default:
		return nil, fmt.Errorf("unexpected index type %v", accessor.ComponentType)
	}
	if stride == 0 {
		stride = size
	}
	if need := start + (accessor.Count-1)*stride + size; accessor.Count > 0 && need > len(data) {
		return nil, fmt.Errorf("indices overrun buffer (%d > %d)", need, len(data))
	}
	result := make([]int, accessor.Count)
	for i := range result {
		offset := start + i*stride
		switch size {
		case 1:
			result[i] = int(data[offset])
		case 2:
			result[i] = int(uint16(data[offset]) | uint16(data[offset+1])<<8)
		case 4:
			result[i] = int(uint32(data[offset]) | uint32(data[offset+1])<<8 |
				uint32(data[offset+2])<<16 | uint32(data[offset+3])<<24)
		}
	}
	return result, nil
}

// readFloat32 reads a little-endian float32.
func readFloat32(b []byte) float32 {
	bits := uint32(b[0]) | uint32(b[1])<<8 | uint32(b[2])<<16 | uint32(b[3])<<24
	return math.Float32frombits(bits)
}
