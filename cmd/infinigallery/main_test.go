package main

import (
	"context"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/charmbracelet/colorprofile"
	uv "github.com/charmbracelet/ultraviolet"
	"github.com/taigrr/infinigallery/pkg/gallery"
	"github.com/taigrr/infinigallery/pkg/media"
	"github.com/taigrr/infinigallery/pkg/render"
	"github.com/taigrr/infinigallery/pkg/stage"
)

func TestResolveImages(t *testing.T) {
	ctx := context.Background()
	configured := []gallery.Image{{Source: "cfg.png", AltText: "cfg"}}

	got, err := resolveImages(ctx, "", []string{"shots/Night Drive.jpg"}, configured)
	if err != nil || len(got) != 1 || got[0].AltText != "Night Drive" {
		t.Errorf("args: %+v, %v", got, err)
	}
	got, err = resolveImages(ctx, "", nil, configured)
	if err != nil || len(got) != 1 || got[0].Source != "cfg.png" {
		t.Errorf("config: %+v, %v", got, err)
	}
	got, err = resolveImages(ctx, "", nil, nil)
	if err != nil || len(got) != demoCount || !strings.HasPrefix(got[0].Source, demoPrefix) {
		t.Errorf("demo: %+v, %v", got, err)
	}

	manifest := filepath.Join(t.TempDir(), "media.yaml")
	store, err := media.OpenFileStore(manifest, t.TempDir())
	if err != nil {
		t.Fatal(err)
	}
	if _, err := resolveImages(ctx, manifest, nil, configured); err == nil {
		t.Error("empty manifest accepted")
	}
	r, err := media.NewRecord("Harbor", "", []media.Media{{URL: "https://cdn/harbor.jpg", Kind: media.KindImage}})
	if err != nil {
		t.Fatal(err)
	}
	if _, err := store.Create(ctx, r); err != nil {
		t.Fatal(err)
	}
	got, err = resolveImages(ctx, manifest, nil, configured)
	if err != nil || len(got) != 1 || got[0].Source != "https://cdn/harbor.jpg" || got[0].AltText != "Harbor" {
		t.Errorf("manifest: %+v, %v", got, err)
	}
}

func TestDemoImage(t *testing.T) {
	landscape, err := demoImage("demo:0")
	if err != nil {
		t.Fatal(err)
	}
	portrait, err := demoImage("demo:1")
	if err != nil {
		t.Fatal(err)
	}
	if b := landscape.Bounds(); b.Dx() <= b.Dy() {
		t.Errorf("demo:0 is %v, want landscape", b.Size())
	}
	if b := portrait.Bounds(); b.Dx() >= b.Dy() {
		t.Errorf("demo:1 is %v, want portrait", b.Size())
	}
	for _, bad := range []string{"demo:", "demo:x", "demo:-1"} {
		if _, err := demoImage(bad); err == nil {
			t.Errorf("demoImage(%q) succeeded", bad)
		}
	}
}

func TestParseColor(t *testing.T) {
	tests := []struct {
		in      string
		want    render.Color
		wantErr bool
	}{
		{"", render.ColorBlack, false},
		{"10,20,30", render.RGB(10, 20, 30), false},
		{"red", render.ColorBlack, true},
	}
	for _, tt := range tests {
		got, err := parseColor(tt.in)
		if got != tt.want || (err != nil) != tt.wantErr {
			t.Errorf("parseColor(%q) = %v, %v", tt.in, got, err)
		}
	}
}

func TestBar(t *testing.T) {
	tests := []struct {
		width int
		p     float64
		want  string
	}{
		{4, 0, "░░░░"},
		{4, 0.5, "██░░"},
		{4, 1, "████"},
		{4, 7, "████"},
		{4, -1, "░░░░"},
		{0, 0.5, ""},
	}
	for _, tt := range tests {
		if got := bar(tt.width, tt.p); got != tt.want {
			t.Errorf("bar(%d, %v) = %q, want %q", tt.width, tt.p, got, tt.want)
		}
	}
}

func TestWrap(t *testing.T) {
	got := wrap("one two three four", 9)
	want := []string{"one two", "three", "four"}
	if strings.Join(got, "|") != strings.Join(want, "|") {
		t.Errorf("wrap() = %q, want %q", got, want)
	}
	if wrap("   ", 10) != nil {
		t.Error("blank text produced lines")
	}
}

func TestParseOrder(t *testing.T) {
	tests := []struct {
		in   string
		want media.OrderKey
	}{
		{"", media.ByDisplayOrder},
		{"Title", media.ByTitle},
		{"created", media.ByCreated},
	}
	for _, tt := range tests {
		if got, err := parseOrder(tt.in); err != nil || got != tt.want {
			t.Errorf("parseOrder(%q) = %v, %v", tt.in, got, err)
		}
	}
	if _, err := parseOrder("random"); err == nil {
		t.Error("parseOrder accepted an unknown order")
	}
}

func TestMediaItems(t *testing.T) {
	items := mediaItems([]string{"https://cdn/a.JPG", "clip.mp4", "noext"})
	want := []media.Kind{media.KindImage, media.KindVideo, media.KindImage}
	for i, k := range want {
		if items[i].Kind != k {
			t.Errorf("item %d (%s) kind = %q, want %q", i, items[i].URL, items[i].Kind, k)
		}
	}
}

func TestAdminCommandsRequireAllowlist(t *testing.T) {
	dir := t.TempDir()
	run := func(args ...string) error {
		root := newRootCmd(&options{})
		root.SetArgs(append([]string{"--media", filepath.Join(dir, "media.yaml")}, args...))
		root.SetOut(&strings.Builder{})
		root.SetErr(&strings.Builder{})
		return root.ExecuteContext(context.Background())
	}

	t.Setenv(adminsVar, "Admin@Example.com")
	t.Setenv("INFINIGALLERY_USER", "visitor@example.com")
	if err := run("media", "add", "Harbor", "--url", "https://cdn/h.jpg"); err == nil {
		t.Fatal("non-admin added a project")
	}

	t.Setenv("INFINIGALLERY_USER", "admin@example.com")
	if err := run("media", "add", "Harbor", "--url", "https://cdn/h.jpg"); err != nil {
		t.Fatalf("admin add: %v", err)
	}
	upload := filepath.Join(dir, "still.png")
	if err := os.WriteFile(upload, []byte("png"), 0o644); err != nil {
		t.Fatal(err)
	}
	if err := run("media", "add", "Still", "--file", upload); err != nil {
		t.Fatalf("admin add with upload: %v", err)
	}

	store, err := media.OpenFileStore(filepath.Join(dir, "media.yaml"), filepath.Join(dir, "uploads"))
	if err != nil {
		t.Fatal(err)
	}
	records, err := store.List(context.Background(), media.ByDisplayOrder)
	if err != nil || len(records) != 2 {
		t.Fatalf("List() = %+v, %v", records, err)
	}
	if !strings.Contains(records[1].Media.URL, "/projects/") {
		t.Errorf("uploaded media url = %q", records[1].Media.URL)
	}
	t.Setenv("INFINIGALLERY_USER", "")
	if err := run("media", "rm", records[0].ID); err == nil {
		t.Error("signed out user deleted a project")
	}
	if err := run("media", "list"); err != nil {
		t.Errorf("list: %v", err)
	}
}

// newTestHost mounts a host on a true color stage with n demo images.
func newTestHost(t *testing.T, profile colorprofile.Profile, n int) (*host, *stepClock) {
	t.Helper()
	h := newHost(NewHUD(60, time.Unix(0, 0)), render.ColorBlack, 60)
	cfg := gallery.DefaultConfig()
	cfg.Images = demoImages(n)
	cfg.OnComplete = h.complete
	clock := &stepClock{t: time.Unix(0, 0)}
	h.stage = stage.New(cfg, stage.Options{
		Backend: render.NewSoftwareBackend(profile),
		Loader:  sourceLoader{},
		Clock:   clock.Now,
	})
	h.width, h.height = 40, 12
	if err := h.stage.Mount(context.Background(), h, 40, 24); err != nil {
		t.Fatal(err)
	}
	t.Cleanup(h.stage.Unmount)
	if ts := h.stage.Textures(); ts != nil {
		if err := ts.Wait(); err != nil {
			t.Fatal(err)
		}
	}
	return h, clock
}

func (h *host) frame(clock *stepClock) *render.Framebuffer {
	const dt = 1.0 / 60
	clock.advance(dt)
	fb := h.stage.Render(dt)
	h.update(clock.Now())
	return fb
}

func wheelDown() uv.Event { return uv.MouseWheelEvent{Button: uv.MouseWheelDown} }

func TestHostUnlocksPageOnCompletion(t *testing.T) {
	h, clock := newTestHost(t, colorprofile.TrueColor, 4)

	h.handle(uv.KeyPressEvent{Code: uv.KeyPgDown})
	if h.scrollTarget != 0 {
		t.Fatalf("page scrolled while locked: target %v", h.scrollTarget)
	}

	for i := 1; i <= 15; i++ {
		h.handle(wheelDown())
		h.frame(clock)
		if i == 14 && h.completed {
			t.Fatal("completed after 14 wheel notches")
		}
	}
	if !h.completed {
		t.Fatal("not completed after 15 wheel notches")
	}
	if h.stage.Gallery().LockScroll() || h.locked() {
		t.Error("page still locked after completion")
	}
	if h.scrollTarget != float64(h.height) {
		t.Errorf("scroll target = %v, want the about section at %d", h.scrollTarget, h.height)
	}

	h.handle(uv.MouseWheelEvent{Button: uv.MouseWheelUp})
	if want := float64(h.height - wheelRows); h.scrollTarget != want {
		t.Errorf("after wheel up target = %v, want %v", h.scrollTarget, want)
	}

	h.handle(uv.KeyPressEvent{Code: 'r', Text: "r"})
	if h.completed || h.scrollTarget != 0 || !h.stage.Gallery().LockScroll() {
		t.Errorf("reset left completed=%v target=%v", h.completed, h.scrollTarget)
	}
	if h.stage.Gallery().Progress() != 0 {
		t.Errorf("progress after reset = %v", h.stage.Gallery().Progress())
	}
}

func TestHostTouchDrag(t *testing.T) {
	h, clock := newTestHost(t, colorprofile.TrueColor, 4)
	h.handle(uv.MouseClickEvent{X: 5, Y: 10, Button: uv.MouseLeft})
	if !h.dragging {
		t.Fatal("click in the hero did not start a drag")
	}
	h.handle(uv.MouseMotionEvent{X: 5, Y: 2, Button: uv.MouseLeft})
	h.handle(uv.MouseReleaseEvent{X: 5, Y: 2, Button: uv.MouseLeft})
	if h.dragging {
		t.Error("release did not end the drag")
	}
	h.frame(clock)
	if v := h.stage.Gallery().State().ScrollVelocity; v <= 0 {
		t.Errorf("upward drag gave velocity %v, want forward", v)
	}
}

func rowText(buf *uv.Buffer, y, width int) string {
	var b strings.Builder
	for x := range width {
		if c := buf.CellAt(x, y); c != nil {
			b.WriteString(c.Content)
		}
	}
	return b.String()
}

func TestHostDraw(t *testing.T) {
	h, clock := newTestHost(t, colorprofile.TrueColor, 4)
	fb := h.frame(clock)
	if fb == nil {
		t.Fatal("no frame")
	}
	buf := uv.NewBuffer(h.width, h.height)
	h.draw(buf, fb)

	if c := buf.CellAt(0, 0); c == nil || c.Content != "▀" {
		t.Errorf("corner cell = %+v, want a half block", c)
	}
	if got := rowText(buf, h.height/3, h.width); !strings.Contains(got, defaultCopy.Headline) {
		t.Errorf("headline row = %q", got)
	}
	if got := rowText(buf, h.height-1, h.width); !strings.Contains(got, "0%") {
		t.Errorf("meter row = %q", got)
	}
}

func TestHostFallback(t *testing.T) {
	h, _ := newTestHost(t, colorprofile.ASCII, 3)
	if h.stage.Mode() != stage.ModeFallback {
		t.Fatalf("mode = %s, want fallback", h.stage.Mode())
	}
	if h.locked() {
		t.Error("fallback page is locked")
	}
	buf := uv.NewBuffer(h.width, h.height)
	h.draw(buf, nil)
	found := false
	for y := range h.height {
		if strings.Contains(rowText(buf, y, h.width), "• Demo 1") {
			found = true
		}
	}
	if !found {
		t.Error("fallback did not list the images")
	}
	h.handle(uv.KeyPressEvent{Code: uv.KeyPgDown})
	if h.scrollTarget != float64(h.height) {
		t.Errorf("pgdown target = %v, want %d", h.scrollTarget, h.height)
	}
}
