package models

import (
	"bytes"
	"encoding/binary"
	"fmt"
	"image/png"
	"math"

	"github.com/qmuntal/gltf"
)

// noTarget leaves bufferView.target unset, as required for image data.
var noTarget gltf.Target

var identityMatrix = [16]float64{1, 0, 0, 0, 0, 1, 0, 0, 0, 0, 1, 0, 0, 0, 0, 1}

// SaveGLB writes the scene as a binary glTF file: one node, mesh and
// alpha-blended material per plane, textures embedded as PNG.
func SaveGLB(path string, s *Scene) error {
	doc, err := BuildDocument(s)
	if err != nil {
		return err
	}
	if err := gltf.SaveBinary(doc, path); err != nil {
		return fmt.Errorf("save glb %s: %w", path, err)
	}
	return nil
}

// BuildDocument converts the scene into an in-memory glTF document.
func BuildDocument(s *Scene) (*gltf.Document, error) {
	b := &docBuilder{doc: &gltf.Document{
		Asset:  gltf.Asset{Version: "2.0", Generator: "infinigallery"},
		Scene:  gltf.Index(0),
		Scenes: []*gltf.Scene{{Name: s.Name}},
	}}
	for _, p := range s.Planes {
		if p.Mesh == nil || len(p.Mesh.Faces) == 0 {
			continue
		}
		if err := b.addPlane(p); err != nil {
			return nil, fmt.Errorf("plane %d: %w", p.Slot, err)
		}
	}
	b.doc.Buffers = []*gltf.Buffer{{ByteLength: len(b.bin), Data: b.bin}}
	return b.doc, nil
}

type docBuilder struct {
	doc *gltf.Document
	bin []byte
}

// addView appends data as a 4-byte aligned buffer view.
func (b *docBuilder) addView(data []byte, target gltf.Target) int {
	for len(b.bin)%4 != 0 {
		b.bin = append(b.bin, 0)
	}
	b.doc.BufferViews = append(b.doc.BufferViews, &gltf.BufferView{
		Buffer:     0,
		ByteOffset: len(b.bin),
		ByteLength: len(data),
		Target:     target,
	})
	b.bin = append(b.bin, data...)
	return len(b.doc.BufferViews) - 1
}

func (b *docBuilder) addAccessor(a *gltf.Accessor) int {
	b.doc.Accessors = append(b.doc.Accessors, a)
	return len(b.doc.Accessors) - 1
}

func (b *docBuilder) addPlane(p ScenePlane) error {
	m := p.Mesh
	n := len(m.Vertices)
	pos := make([]float32, 0, n*3)
	nrm := make([]float32, 0, n*3)
	uvs := make([]float32, 0, n*2)
	for _, v := range m.Vertices {
		pos = append(pos, float32(v.Position.X), float32(v.Position.Y), float32(v.Position.Z))
		nrm = append(nrm, float32(v.Normal.X), float32(v.Normal.Y), float32(v.Normal.Z))
		// glTF puts the UV origin at the top-left.
		uvs = append(uvs, float32(v.UV.X), float32(1-v.UV.Y))
	}
	idx := make([]uint32, 0, len(m.Faces)*3)
	for _, f := range m.Faces {
		idx = append(idx, uint32(f.V[0]), uint32(f.V[1]), uint32(f.V[2]))
	}

	m.CalculateBounds()
	posAcc := b.addAccessor(&gltf.Accessor{
		BufferView:    gltf.Index(b.addView(le(pos), gltf.TargetArrayBuffer)),
		ComponentType: gltf.ComponentFloat,
		Count:         n,
		Type:          gltf.AccessorVec3,
		Min:           []float64{m.BoundsMin.X, m.BoundsMin.Y, m.BoundsMin.Z},
		Max:           []float64{m.BoundsMax.X, m.BoundsMax.Y, m.BoundsMax.Z},
	})
	nrmAcc := b.addAccessor(&gltf.Accessor{
		BufferView:    gltf.Index(b.addView(le(nrm), gltf.TargetArrayBuffer)),
		ComponentType: gltf.ComponentFloat,
		Count:         n,
		Type:          gltf.AccessorVec3,
	})
	uvAcc := b.addAccessor(&gltf.Accessor{
		BufferView:    gltf.Index(b.addView(le(uvs), gltf.TargetArrayBuffer)),
		ComponentType: gltf.ComponentFloat,
		Count:         n,
		Type:          gltf.AccessorVec2,
	})
	idxAcc := b.addAccessor(&gltf.Accessor{
		BufferView:    gltf.Index(b.addView(le(idx), gltf.TargetElementArrayBuffer)),
		ComponentType: gltf.ComponentUint,
		Count:         len(idx),
		Type:          gltf.AccessorScalar,
	})

	metallic, roughness := 0.0, 1.0
	opacity := math.Max(0, math.Min(1, p.Opacity))
	mat := &gltf.Material{
		Name:        fmt.Sprintf("slot-%02d", p.Slot),
		AlphaMode:   gltf.AlphaBlend,
		DoubleSided: true,
		PBRMetallicRoughness: &gltf.PBRMetallicRoughness{
			BaseColorFactor: &[4]float64{1, 1, 1, opacity},
			MetallicFactor:  &metallic,
			RoughnessFactor: &roughness,
		},
	}
	if p.Image != nil {
		var buf bytes.Buffer
		if err := png.Encode(&buf, p.Image); err != nil {
			return fmt.Errorf("encode texture: %w", err)
		}
		view := b.addView(buf.Bytes(), noTarget)
		b.doc.Images = append(b.doc.Images, &gltf.Image{
			Name:       fmt.Sprintf("image-%02d", p.ImageIndex),
			MimeType:   "image/png",
			BufferView: gltf.Index(view),
		})
		b.doc.Textures = append(b.doc.Textures, &gltf.Texture{
			Source: gltf.Index(len(b.doc.Images) - 1),
		})
		mat.PBRMetallicRoughness.BaseColorTexture = &gltf.TextureInfo{
			Index: len(b.doc.Textures) - 1,
		}
	}
	b.doc.Materials = append(b.doc.Materials, mat)

	b.doc.Meshes = append(b.doc.Meshes, &gltf.Mesh{
		Name: fmt.Sprintf("plane-%02d", p.Slot),
		Primitives: []*gltf.Primitive{{
			Attributes: map[string]int{
				gltf.POSITION:   posAcc,
				gltf.NORMAL:     nrmAcc,
				gltf.TEXCOORD_0: uvAcc,
			},
			Indices:  gltf.Index(idxAcc),
			Material: gltf.Index(len(b.doc.Materials) - 1),
			Mode:     gltf.PrimitiveTriangles,
		}},
	})

	b.doc.Nodes = append(b.doc.Nodes, &gltf.Node{
		Name:        planeNodeName(p.Slot, p.ImageIndex),
		Mesh:        gltf.Index(len(b.doc.Meshes) - 1),
		Matrix:      identityMatrix,
		Translation: [3]float64{p.Translation.X, p.Translation.Y, p.Translation.Z},
		Rotation:    [4]float64{0, 0, 0, 1},
		Scale:       [3]float64{p.Scale.X, p.Scale.Y, p.Scale.Z},
	})
	scene := b.doc.Scenes[0]
	scene.Nodes = append(scene.Nodes, len(b.doc.Nodes)-1)
	return nil
}

// le encodes a slice of fixed-size values little-endian.
func le(data any) []byte {
	var buf bytes.Buffer
	_ = binary.Write(&buf, binary.LittleEndian, data)
	return buf.Bytes()
}
