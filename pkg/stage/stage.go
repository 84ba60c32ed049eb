// Package stage connects a gallery engine to a rendering backend. It owns
// the rendering context, the per-slot materials and the texture set, falls
// back to a static image list when the backend is unavailable, and rebuilds
// everything after a context loss.
package stage

import (
	"context"
	"errors"
	"fmt"
	"slices"
	"time"

	"fortio.org/log"
	"github.com/taigrr/infinigallery/pkg/gallery"
	"github.com/taigrr/infinigallery/pkg/math3d"
	"github.com/taigrr/infinigallery/pkg/models"
	"github.com/taigrr/infinigallery/pkg/render"
)

// Defaults for Options.
const (
	DefaultReinitDelay = time.Second
	DefaultPrefetch    = 4
	// fogStrength is how dark planes get at the far falloff distance.
	fogStrength = 0.6
)

// Mode is the stage lifecycle state.
type Mode int

const (
	ModeUnmounted Mode = iota
	ModeLive
	ModeLost     // context lost, waiting to re-initialize
	ModeFallback // backend unavailable, show the static list
)

func (m Mode) String() string {
	switch m {
	case ModeLive:
		return "live"
	case ModeLost:
		return "lost"
	case ModeFallback:
		return "fallback"
	default:
		return "unmounted"
	}
}

// Options configures a Stage. Zero values select defaults.
type Options struct {
	Backend     render.Backend
	Loader      Loader
	Clock       func() time.Time
	ReinitDelay time.Duration
	Prefetch    int // concurrent texture loads
	Segments    int // plane subdivision
	Background  render.Color
}

// Stage is one mounted gallery.
type Stage struct {
	cfg  gallery.Config
	opts Options

	mode     Mode
	surface  gallery.Surface
	gallery  *gallery.Gallery
	rctx     render.Context
	pool     *render.MaterialPool
	raster   *render.Rasterizer
	textures *TextureSet

	rest   *models.Mesh
	meshes []*models.Mesh // deformed copy of rest, per slot
	order  []gallery.PlaneFrame
	frame  *gallery.Frame

	width, height int
	hover         int
	lostAt        time.Time
	reinits       int
}

// New creates an unmounted stage for cfg.
func New(cfg gallery.Config, opts Options) *Stage {
	if opts.Clock == nil {
		opts.Clock = time.Now
	}
	if opts.ReinitDelay <= 0 {
		opts.ReinitDelay = DefaultReinitDelay
	}
	if opts.Prefetch <= 0 {
		opts.Prefetch = DefaultPrefetch
	}
	if opts.Segments <= 0 {
		opts.Segments = models.DefaultSegments
	}
	return &Stage{cfg: cfg, opts: opts, hover: render.NoSlot}
}

// Mount probes the backend and starts the gallery at width x height
// pixels. A missing or unavailable backend is not an error: the stage
// enters ModeFallback and the host shows Images instead.
func (s *Stage) Mount(ctx context.Context, surface gallery.Surface, width, height int) error {
	if s.mode != ModeUnmounted {
		return errors.New("stage: already mounted")
	}
	if err := s.cfg.Validate(); err != nil {
		log.Warnf("gallery config: %v", err)
	}
	s.surface = surface
	s.width, s.height = width, height

	if err := s.probe(); err != nil {
		if !errors.Is(err, render.ErrBackendUnavailable) {
			return fmt.Errorf("probe backend: %w", err)
		}
		s.mode = ModeFallback
		log.S(log.Warning, "gallery fallback", log.Str("reason", err.Error()), log.Attr("images", len(s.cfg.Images)))
		return nil
	}

	s.textures = NewTextureSet(len(s.cfg.Images))
	s.textures.Prefetch(ctx, s.cfg.Images, s.opts.Loader, s.opts.Prefetch)
	s.rest = models.NewPlane(s.opts.Segments)
	if err := s.build(); err != nil {
		s.stopTextures()
		return err
	}
	log.S(log.Info, "gallery mounted",
		log.Attr("planes", s.cfg.VisibleCount), log.Attr("images", len(s.cfg.Images)),
		log.Attr("width", width), log.Attr("height", height))
	return nil
}

func (s *Stage) probe() error {
	if s.opts.Backend == nil {
		return fmt.Errorf("%w: no backend", render.ErrBackendUnavailable)
	}
	return s.opts.Backend.Probe()
}

// stopTextures cancels the prefetch and waits for in-flight loads to
// return. Loaders must honor context cancellation.
func (s *Stage) stopTextures() {
	if s.textures == nil {
		return
	}
	s.textures.Cancel()
	_ = s.textures.Wait()
}

// build creates the context, materials and engine. Any previous ones must
// have been torn down.
func (s *Stage) build() error {
	rctx, err := s.opts.Backend.NewContext(s.width, s.height)
	if err != nil {
		return fmt.Errorf("create context: %w", err)
	}
	s.rctx = rctx
	s.pool = render.NewMaterialPool(s.cfg.VisibleCount)

	cam := render.NewCamera(s.cfg.Falloff.Near, max(s.cfg.Falloff.Far, s.cfg.CycleLength))
	s.raster = render.NewRasterizer(cam)
	s.raster.Fog = render.Fog{
		Start:    s.cfg.Falloff.Near,
		End:      s.cfg.Falloff.Far,
		Strength: fogStrength,
		Color:    s.opts.Background,
	}

	s.meshes = make([]*models.Mesh, max(s.cfg.VisibleCount, 0))
	for i := range s.meshes {
		s.meshes[i] = s.rest.Clone()
	}

	s.gallery = gallery.New(s.cfg, gallery.WithClock(s.opts.Clock))
	s.gallery.Attach(s.surface)
	s.frame = nil
	s.hover = render.NoSlot
	s.lostAt = time.Time{}
	s.mode = ModeLive
	return nil
}

// teardown releases the context, materials and engine.
func (s *Stage) teardown() {
	if s.gallery != nil {
		s.gallery.Close()
		s.gallery = nil
	}
	if s.pool != nil {
		s.pool.Release()
		s.pool = nil
	}
	if s.rctx != nil {
		if err := s.rctx.Close(); err != nil {
			log.Warnf("close render context: %v", err)
		}
		s.rctx = nil
	}
	s.meshes = nil
	s.frame = nil
}

// Unmount detaches input, releases materials, closes the context and
// cancels outstanding texture loads, returning once no loader is running.
// The stage can be mounted again.
func (s *Stage) Unmount() {
	if s.mode == ModeUnmounted {
		return
	}
	s.stopTextures()
	s.teardown()
	s.mode = ModeUnmounted
	log.S(log.Info, "gallery unmounted")
}

// Mode returns the lifecycle state.
func (s *Stage) Mode() Mode { return s.mode }

// Gallery returns the current engine, nil unless live. It is replaced on
// re-initialization.
func (s *Stage) Gallery() *gallery.Gallery { return s.gallery }

// Textures returns the texture set, nil in fallback mode.
func (s *Stage) Textures() *TextureSet { return s.textures }

// Images is the static list shown in fallback mode.
func (s *Stage) Images() []gallery.Image { return s.cfg.Images }

// Reinits counts re-initializations after context loss.
func (s *Stage) Reinits() int { return s.reinits }

// Resize changes the render target size.
func (s *Stage) Resize(width, height int) {
	s.width, s.height = width, height
	if s.rctx != nil {
		s.rctx.Resize(width, height)
	}
}

// ResetProgress re-arms the completion gate.
func (s *Stage) ResetProgress() {
	if s.gallery != nil {
		s.gallery.ResetProgress()
	}
}

// SetLockScroll switches input interception on or off. It also applies to
// engines built after a context loss.
func (s *Stage) SetLockScroll(lock bool) {
	s.cfg.LockScroll = lock
	if s.gallery != nil {
		s.gallery.SetLockScroll(lock)
	}
}

// LoseContext reports a failure of the rendering surface, as when
// presenting a frame fails. Contexts that cannot be lost by hand ignore it.
func (s *Stage) LoseContext(cause error) {
	if l, ok := s.rctx.(interface{ Lose(error) }); ok {
		l.Lose(cause)
	}
}

// Hover picks the plane under pixel (x, y) of the last frame.
func (s *Stage) Hover(x, y int) {
	if s.rctx == nil {
		s.hover = render.NoSlot
		return
	}
	s.hover = s.rctx.Framebuffer().SlotAt(x, y)
}

// Unhover clears the hovered plane.
func (s *Stage) Unhover() { s.hover = render.NoSlot }

// Hovered returns the hovered slot or render.NoSlot.
func (s *Stage) Hovered() int { return s.hover }

// Render runs one frame of dt seconds and draws it. It returns nil when
// there is nothing to show: in fallback mode, while unmounted, and while
// the context is lost.
func (s *Stage) Render(dt float64) *render.Framebuffer {
	switch s.mode {
	case ModeLive:
		select {
		case <-s.rctx.Lost():
			s.lost()
			return nil
		default:
		}
	case ModeLost:
		if s.opts.Clock().Sub(s.lostAt) < s.opts.ReinitDelay {
			return nil
		}
		if err := s.reinit(); err != nil {
			log.Errf("re-initialize renderer: %v", err)
			s.lostAt = s.opts.Clock()
			return nil
		}
	default:
		return nil
	}

	s.frame = s.gallery.Tick(dt)
	fb := s.rctx.Framebuffer()
	s.draw(fb, s.frame)
	return fb
}

func (s *Stage) lost() {
	s.mode = ModeLost
	s.lostAt = s.opts.Clock()
	log.S(log.Warning, "render context lost", log.Str("err", fmt.Sprint(s.rctx.Err())))
}

// reinit rebuilds the context, materials and engine from scratch. Loaded
// textures are kept.
func (s *Stage) reinit() error {
	s.teardown()
	if err := s.build(); err != nil {
		return err
	}
	s.reinits++
	log.S(log.Info, "render context restored", log.Attr("reinits", s.reinits))
	return nil
}

// draw renders f back to front.
func (s *Stage) draw(fb *render.Framebuffer, f *gallery.Frame) {
	fb.Clear(s.opts.Background)
	s.raster.Begin(fb)

	s.order = append(s.order[:0], f.Planes...)
	slices.SortStableFunc(s.order, func(a, b gallery.PlaneFrame) int {
		switch {
		case a.Position.Z < b.Position.Z:
			return -1
		case a.Position.Z > b.Position.Z:
			return 1
		}
		return 0
	})

	for _, p := range s.order {
		tex := s.textures.Get(p.ImageIndex)
		mat := s.pool.Get(p.Slot)
		if tex == nil || mat == nil || p.Opacity <= 0 {
			continue
		}
		mat.Texture = tex
		mat.Opacity = p.Opacity
		mat.Blur = p.Blur
		mat.ScrollForce = f.ScrollForce
		mat.Time = f.Time
		mat.Hovered = p.Slot == s.hover

		mesh := s.meshes[p.Slot]
		models.Cloth{ScrollForce: f.ScrollForce, Time: f.Time, Hovered: mat.Hovered}.Apply(mesh, s.rest)
		s.raster.DrawMesh(fb, mesh, planeTransform(p, tex), mat)
	}
}

func planeTransform(p gallery.PlaneFrame, tex *render.Texture) math3d.Mat4 {
	return math3d.Translate(p.Position).Mul(math3d.Scale(models.AspectScale(tex.Aspect())))
}

// Snapshot freezes the last rendered frame as a scene: every plane that
// was drawn, with its current cloth shape and texture.
func (s *Stage) Snapshot(name string) (*models.Scene, error) {
	if s.mode != ModeLive || s.frame == nil {
		return nil, fmt.Errorf("stage: no frame to snapshot (mode %s)", s.mode)
	}
	scene := &models.Scene{Name: name}
	for _, p := range s.order {
		tex := s.textures.Get(p.ImageIndex)
		if tex == nil || p.Opacity <= 0 {
			continue
		}
		scene.Planes = append(scene.Planes, models.ScenePlane{
			Slot:        p.Slot,
			ImageIndex:  p.ImageIndex,
			Translation: p.Position,
			Scale:       models.AspectScale(tex.Aspect()),
			Opacity:     p.Opacity,
			Mesh:        s.meshes[p.Slot].Clone(),
			Image:       tex.ToImage(),
		})
	}
	return scene, nil
}
