package render

import (
	"fmt"
	"image"
	"image/color"
	"image/png"
	"os"
)

// NoSlot marks a pixel not covered by any plane.
const NoSlot = -1

// Framebuffer is the color target plus a slot-ID layer used for hover
// picking: each pixel remembers which plane slot drew it last.
type Framebuffer struct {
	Width, Height int
	Pixels        []Color
	Slots         []int
}

// NewFramebuffer creates a cleared framebuffer.
func NewFramebuffer(width, height int) *Framebuffer {
	fb := &Framebuffer{}
	fb.Resize(width, height)
	return fb
}

// Resize reallocates the buffers if the size changed and clears them.
func (fb *Framebuffer) Resize(width, height int) {
	width, height = max(width, 0), max(height, 0)
	if width != fb.Width || height != fb.Height || fb.Pixels == nil {
		fb.Width, fb.Height = width, height
		fb.Pixels = make([]Color, width*height)
		fb.Slots = make([]int, width*height)
	}
	fb.Clear(ColorBlack)
}

// Clear fills the color layer with c and empties the slot layer.
func (fb *Framebuffer) Clear(c Color) {
	for i := range fb.Pixels {
		fb.Pixels[i] = c
		fb.Slots[i] = NoSlot
	}
}

func (fb *Framebuffer) inside(x, y int) bool {
	return x >= 0 && y >= 0 && x < fb.Width && y < fb.Height
}

// SetPixel writes an opaque pixel.
func (fb *Framebuffer) SetPixel(x, y int, c Color) {
	if fb.inside(x, y) {
		fb.Pixels[y*fb.Width+x] = c
	}
}

// GetPixel reads a pixel; out of range reads are black.
func (fb *Framebuffer) GetPixel(x, y int) Color {
	if !fb.inside(x, y) {
		return ColorBlack
	}
	return fb.Pixels[y*fb.Width+x]
}

// Blend composites c over the existing pixel with the given alpha.
func (fb *Framebuffer) Blend(x, y int, c Color, alpha float64) {
	if !fb.inside(x, y) || alpha <= 0 {
		return
	}
	i := y*fb.Width + x
	if alpha >= 1 {
		fb.Pixels[i] = c
		return
	}
	fb.Pixels[i] = lerpColor(fb.Pixels[i], c, alpha)
}

// SetSlot records which plane slot covers (x, y).
func (fb *Framebuffer) SetSlot(x, y, slot int) {
	if fb.inside(x, y) {
		fb.Slots[y*fb.Width+x] = slot
	}
}

// SlotAt returns the plane slot covering (x, y), or NoSlot.
func (fb *Framebuffer) SlotAt(x, y int) int {
	if !fb.inside(x, y) {
		return NoSlot
	}
	return fb.Slots[y*fb.Width+x]
}

// ToImage converts the color layer to an image.
func (fb *Framebuffer) ToImage() *image.RGBA {
	img := image.NewRGBA(image.Rect(0, 0, fb.Width, fb.Height))
	for y := range fb.Height {
		for x := range fb.Width {
			c := fb.Pixels[y*fb.Width+x]
			img.SetRGBA(x, y, color.RGBA{R: c.R, G: c.G, B: c.B, A: 255})
		}
	}
	return img
}

// SavePNG writes the color layer as a PNG file.
func (fb *Framebuffer) SavePNG(path string) error {
	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("create %s: %w", path, err)
	}
	if err := png.Encode(f, fb.ToImage()); err != nil {
		f.Close()
		return fmt.Errorf("encode png: %w", err)
	}
	return f.Close()
}
