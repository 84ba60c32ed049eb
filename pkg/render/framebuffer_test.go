package render

import (
	"os"
	"path/filepath"
	"testing"
)

func TestFramebufferSavePNG(t *testing.T) {
	fb := NewFramebuffer(100, 100)
	for y := 0; y < fb.Height; y++ {
		for x := 0; x < fb.Width; x++ {
			fb.SetPixel(x, y, RGB(uint8(x*2), uint8(y*2), 128))
		}
	}

	path := filepath.Join(t.TempDir(), "frame.png")
	if err := fb.SavePNG(path); err != nil {
		t.Fatalf("SavePNG failed: %v", err)
	}
	info, err := os.Stat(path)
	if err != nil {
		t.Fatalf("File not created: %v", err)
	}
	if info.Size() == 0 {
		t.Fatal("File is empty")
	}
}

func TestFramebufferToImage(t *testing.T) {
	fb := NewFramebuffer(50, 50)
	fb.SetPixel(10, 20, ColorRed)
	fb.SetPixel(30, 40, ColorGreen)

	img := fb.ToImage()
	if img.Bounds().Dx() != 50 || img.Bounds().Dy() != 50 {
		t.Errorf("Image dimensions wrong: got %dx%d", img.Bounds().Dx(), img.Bounds().Dy())
	}
	r, g, b, a := img.At(10, 20).RGBA()
	if r>>8 != 255 || g>>8 != 0 || b>>8 != 0 {
		t.Errorf("Red pixel wrong: got %d,%d,%d,%d", r>>8, g>>8, b>>8, a>>8)
	}
	r, g, b, a = img.At(30, 40).RGBA()
	if r>>8 != 0 || g>>8 != 255 || b>>8 != 0 {
		t.Errorf("Green pixel wrong: got %d,%d,%d,%d", r>>8, g>>8, b>>8, a>>8)
	}
}

func TestFramebufferBlend(t *testing.T) {
	fb := NewFramebuffer(2, 1)
	fb.Blend(0, 0, ColorWhite, 0.5)
	if c := fb.GetPixel(0, 0); c != RGB(127, 127, 127) {
		t.Errorf("half blend over black = %v", c)
	}
	fb.Blend(1, 0, ColorRed, 0)
	if c := fb.GetPixel(1, 0); c != ColorBlack {
		t.Errorf("zero alpha changed pixel to %v", c)
	}
	fb.Blend(5, 5, ColorRed, 1) // out of range is ignored
}

func TestFramebufferSlots(t *testing.T) {
	fb := NewFramebuffer(4, 4)
	if s := fb.SlotAt(1, 1); s != NoSlot {
		t.Errorf("fresh slot = %d, want NoSlot", s)
	}
	fb.SetSlot(1, 1, 3)
	if s := fb.SlotAt(1, 1); s != 3 {
		t.Errorf("SlotAt = %d, want 3", s)
	}
	if s := fb.SlotAt(-1, 9); s != NoSlot {
		t.Errorf("out of range slot = %d", s)
	}
	fb.Clear(ColorBlue)
	if s := fb.SlotAt(1, 1); s != NoSlot {
		t.Error("Clear kept the slot layer")
	}
	if c := fb.GetPixel(2, 2); c != ColorBlue {
		t.Errorf("Clear color = %v", c)
	}
	fb.Resize(8, 2)
	if fb.Width != 8 || fb.Height != 2 || len(fb.Pixels) != 16 || len(fb.Slots) != 16 {
		t.Errorf("Resize: %dx%d, %d pixels", fb.Width, fb.Height, len(fb.Pixels))
	}
}
