package render

import (
	"image"
	"math"
)

// FilterMode selects how a texture is sampled between texels.
type FilterMode int

const (
	FilterBilinear FilterMode = iota
	FilterNearest
)

// WrapMode selects how out-of-range UVs are resolved.
type WrapMode int

const (
	WrapClamp WrapMode = iota
	WrapRepeat
)

// Texture is an RGB image sampled with UVs. V points up: V=1 is the top row.
type Texture struct {
	Width, Height int
	Pixels        []Color

	WrapU, WrapV WrapMode
	FilterMode   FilterMode
}

// NewTexture creates a black texture.
func NewTexture(width, height int) *Texture {
	return &Texture{
		Width:  width,
		Height: height,
		Pixels: make([]Color, width*height),
	}
}

// NewCheckerTexture creates a checkerboard, handy as a placeholder and in
// tests.
func NewCheckerTexture(width, height, cell int, a, b Color) *Texture {
	tex := NewTexture(width, height)
	if cell <= 0 {
		cell = 1
	}
	for y := range height {
		for x := range width {
			if (x/cell+y/cell)%2 == 0 {
				tex.Pixels[y*width+x] = a
			} else {
				tex.Pixels[y*width+x] = b
			}
		}
	}
	return tex
}

// TextureFromImage copies img into a texture. Alpha is dropped; gallery
// images are drawn opaque and faded through the material.
func TextureFromImage(img image.Image) *Texture {
	b := img.Bounds()
	tex := NewTexture(b.Dx(), b.Dy())
	if rgba, ok := img.(*image.RGBA); ok {
		for y := range tex.Height {
			row := rgba.Pix[y*rgba.Stride:]
			for x := range tex.Width {
				tex.Pixels[y*tex.Width+x] = Color{R: row[x*4], G: row[x*4+1], B: row[x*4+2]}
			}
		}
		return tex
	}
	for y := range tex.Height {
		for x := range tex.Width {
			r, g, bb, _ := img.At(b.Min.X+x, b.Min.Y+y).RGBA()
			tex.Pixels[y*tex.Width+x] = Color{R: uint8(r >> 8), G: uint8(g >> 8), B: uint8(bb >> 8)}
		}
	}
	return tex
}

// ToImage copies the texture into an opaque image.
func (t *Texture) ToImage() *image.RGBA {
	img := image.NewRGBA(image.Rect(0, 0, t.Width, t.Height))
	for i, c := range t.Pixels {
		img.Pix[i*4] = c.R
		img.Pix[i*4+1] = c.G
		img.Pix[i*4+2] = c.B
		img.Pix[i*4+3] = 255
	}
	return img
}

// Aspect is width over height, 1 for an empty texture.
func (t *Texture) Aspect() float64 {
	if t.Width <= 0 || t.Height <= 0 {
		return 1
	}
	return float64(t.Width) / float64(t.Height)
}

// GetPixel returns the texel at (x, y); out of range reads are black.
func (t *Texture) GetPixel(x, y int) Color {
	if x < 0 || y < 0 || x >= t.Width || y >= t.Height {
		return Color{}
	}
	return t.Pixels[y*t.Width+x]
}

// SetPixel writes the texel at (x, y); out of range writes are ignored.
func (t *Texture) SetPixel(x, y int, c Color) {
	if x < 0 || y < 0 || x >= t.Width || y >= t.Height {
		return
	}
	t.Pixels[y*t.Width+x] = c
}

// Sample returns the color at (u, v).
func (t *Texture) Sample(u, v float64) Color {
	if t.Width == 0 || t.Height == 0 {
		return Color{}
	}
	fx := u * float64(t.Width)
	fy := (1 - v) * float64(t.Height)
	if t.FilterMode == FilterNearest {
		return t.texel(int(math.Floor(fx)), int(math.Floor(fy)))
	}

	fx -= 0.5
	fy -= 0.5
	x0 := math.Floor(fx)
	y0 := math.Floor(fy)
	tx := fx - x0
	ty := fy - y0
	ix, iy := int(x0), int(y0)
	top := lerpColor(t.texel(ix, iy), t.texel(ix+1, iy), tx)
	bottom := lerpColor(t.texel(ix, iy+1), t.texel(ix+1, iy+1), tx)
	return lerpColor(top, bottom, ty)
}

// blurKernel holds the 5x5 weights 1/(1+|offset|) and their sum.
var blurKernel, blurKernelTotal = func() ([25]float64, float64) {
	var k [25]float64
	var total float64
	for y := -2; y <= 2; y++ {
		for x := -2; x <= 2; x++ {
			w := 1 / (1 + math.Hypot(float64(x), float64(y)))
			k[(y+2)*5+x+2] = w
			total += w
		}
	}
	return k, total
}()

// SampleBlur averages a 5x5 grid of samples spaced amount texels apart,
// weighted toward the center. amount <= 0 is a plain Sample.
func (t *Texture) SampleBlur(u, v, amount float64) Color {
	if amount <= 0 || t.Width == 0 || t.Height == 0 {
		return t.Sample(u, v)
	}
	du := amount / float64(t.Width)
	dv := amount / float64(t.Height)
	var r, g, b float64
	for y := -2; y <= 2; y++ {
		for x := -2; x <= 2; x++ {
			w := blurKernel[(y+2)*5+x+2]
			c := t.Sample(u+float64(x)*du, v+float64(y)*dv)
			r += float64(c.R) * w
			g += float64(c.G) * w
			b += float64(c.B) * w
		}
	}
	return Color{
		R: clampByte(r/blurKernelTotal + 0.5),
		G: clampByte(g/blurKernelTotal + 0.5),
		B: clampByte(b/blurKernelTotal + 0.5),
	}
}

func (t *Texture) texel(x, y int) Color {
	x = wrap(x, t.Width, t.WrapU)
	y = wrap(y, t.Height, t.WrapV)
	return t.Pixels[y*t.Width+x]
}

func wrap(i, n int, mode WrapMode) int {
	if mode == WrapRepeat {
		return ((i % n) + n) % n
	}
	return max(0, min(n-1, i))
}
