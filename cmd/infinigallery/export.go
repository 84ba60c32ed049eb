package main

import (
	"context"
	"fmt"
	"path/filepath"
	"strings"
	"time"

	"fortio.org/log"
	"github.com/charmbracelet/colorprofile"
	"github.com/spf13/cobra"
	"github.com/taigrr/infinigallery/pkg/gallery"
	"github.com/taigrr/infinigallery/pkg/models"
	"github.com/taigrr/infinigallery/pkg/render"
	"github.com/taigrr/infinigallery/pkg/stage"
)

// headless holds the settings of an offscreen run.
type headless struct {
	width, height int
	frames        int
	wheel         int
	out           string
}

func (hl *headless) flags(cmd *cobra.Command, out string) {
	f := cmd.Flags()
	f.IntVar(&hl.width, "width", 320, "Frame width in pixels")
	f.IntVar(&hl.height, "height", 180, "Frame height in pixels")
	f.IntVar(&hl.frames, "frames", 120, "Frames to simulate at 60 FPS before capturing")
	f.IntVar(&hl.wheel, "wheel", 0, "Wheel notches to scroll forward, one per frame from the start")
	f.StringVarP(&hl.out, "output", "o", out, "Output file")
}

func newExportCmd(opts *options) *cobra.Command {
	hl := &headless{}
	cmd := &cobra.Command{
		Use:   "export [image...]",
		Short: "Render one gallery frame to a PNG",
		Long:  "Simulate the gallery offscreen for --frames frames and write the last one as a PNG image.",
		RunE: func(cmd *cobra.Command, args []string) error {
			st, fb, err := hl.run(cmd.Context(), opts, args)
			if err != nil {
				return err
			}
			defer st.Unmount()
			if err := fb.SavePNG(hl.out); err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Wrote %s (%dx%d, %d/%d images)\n",
				hl.out, fb.Width, fb.Height, st.Textures().Loaded(), len(st.Images()))
			return nil
		},
	}
	hl.flags(cmd, "gallery.png")
	return cmd
}

func newSnapshotCmd(opts *options) *cobra.Command {
	hl := &headless{}
	cmd := &cobra.Command{
		Use:   "snapshot [image...]",
		Short: "Export one gallery frame as a glTF scene",
		Long: `Simulate the gallery offscreen for --frames frames and write every visible
plane of the last frame, with its cloth shape and texture, to a .glb file.`,
		RunE: func(cmd *cobra.Command, args []string) error {
			st, _, err := hl.run(cmd.Context(), opts, args)
			if err != nil {
				return err
			}
			defer st.Unmount()
			name := strings.TrimSuffix(filepath.Base(hl.out), filepath.Ext(hl.out))
			scene, err := st.Snapshot(name)
			if err != nil {
				return err
			}
			if err := models.SaveGLB(hl.out, scene); err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Wrote %s (%d planes, %d triangles)\n",
				hl.out, len(scene.Planes), scene.TriangleCount())
			return nil
		},
	}
	hl.flags(cmd, "gallery.glb")
	return cmd
}

// stepClock is simulated time for offscreen runs.
type stepClock struct{ t time.Time }

func (c *stepClock) Now() time.Time { return c.t }

func (c *stepClock) advance(dt float64) {
	c.t = c.t.Add(time.Duration(dt * float64(time.Second)))
}

// surface collects listeners so scripted events can be fed to them.
type surface struct {
	listeners []gallery.Listener
}

func (s *surface) Listen(l gallery.Listener) func() {
	s.listeners = append(s.listeners, l)
	i := len(s.listeners) - 1
	return func() { s.listeners[i] = nil }
}

func (s *surface) emit(ev gallery.Event) {
	for _, l := range s.listeners {
		if l != nil {
			l(ev)
		}
	}
}

// run mounts a true color stage offscreen, waits for every image, then
// simulates the frames. The caller unmounts the returned stage.
func (hl *headless) run(ctx context.Context, opts *options, args []string) (*stage.Stage, *render.Framebuffer, error) {
	if hl.width <= 0 || hl.height <= 0 {
		return nil, nil, fmt.Errorf("invalid size %dx%d", hl.width, hl.height)
	}
	cfg, err := loadConfig(ctx, opts, args)
	if err != nil {
		return nil, nil, err
	}
	bg, err := parseColor(opts.bg)
	if err != nil {
		return nil, nil, err
	}
	cfg.OnComplete = func() { log.Infof("gallery complete") }

	clock := &stepClock{t: time.Unix(0, 0)}
	st := stage.New(cfg, stage.Options{
		Backend:    render.NewSoftwareBackend(colorprofile.TrueColor),
		Loader:     newSourceLoader(opts),
		Clock:      clock.Now,
		Prefetch:   opts.prefetch,
		Segments:   opts.segments,
		Background: bg,
	})
	surf := &surface{}
	if err := st.Mount(ctx, surf, hl.width, hl.height); err != nil {
		return nil, nil, err
	}
	if err := st.Textures().Wait(); err != nil {
		st.Unmount()
		return nil, nil, err
	}
	if st.Textures().Loaded() == 0 {
		st.Unmount()
		return nil, nil, fmt.Errorf("none of the %d images could be loaded", len(cfg.Images))
	}

	const dt = 1.0 / 60
	var fb *render.Framebuffer
	for i := range max(hl.frames, 1) {
		if i < hl.wheel {
			surf.emit(gallery.WheelEvent{DeltaY: wheelDelta})
		}
		clock.advance(dt)
		fb = st.Render(dt)
	}
	if fb == nil {
		st.Unmount()
		return nil, nil, fmt.Errorf("no frame rendered (stage %s)", st.Mode())
	}
	log.S(log.Info, "offscreen render",
		log.Attr("frames", hl.frames), log.Attr("progress", st.Gallery().Progress()))
	return st, fb, nil
}
