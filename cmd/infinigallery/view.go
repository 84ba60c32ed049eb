package main

import (
	"context"
	"fmt"
	"time"

	"fortio.org/log"
	uv "github.com/charmbracelet/ultraviolet"
	"github.com/charmbracelet/x/ansi"
	"github.com/spf13/cobra"
	"github.com/taigrr/infinigallery/pkg/render"
	"github.com/taigrr/infinigallery/pkg/stage"
)

const (
	mouseOn  = ansi.SetModeMouseAnyEvent + ansi.SetModeMouseExtSgr
	mouseOff = ansi.ResetModeMouseAnyEvent + ansi.ResetModeMouseExtSgr
)

// runView shows the gallery page in the terminal until the user quits.
func runView(cmd *cobra.Command, opts *options, args []string) (err error) {
	ctx := cmd.Context()
	cfg, err := loadConfig(ctx, opts, args)
	if err != nil {
		return err
	}
	bg, err := parseColor(opts.bg)
	if err != nil {
		return err
	}

	t := uv.DefaultTerminal()
	h := newHost(NewHUD(opts.fps, time.Now()), bg, opts.fps)
	cfg.OnComplete = h.complete
	h.stage = stage.New(cfg, stage.Options{
		Backend:    render.NewSoftwareBackend(t.ColorProfile()),
		Loader:     newSourceLoader(opts),
		Prefetch:   opts.prefetch,
		Segments:   opts.segments,
		Background: bg,
	})

	if err = t.Start(); err != nil {
		return fmt.Errorf("start terminal: %w", err)
	}
	_, _ = t.WriteString(mouseOn)
	defer func() {
		_, _ = t.WriteString(mouseOff)
		_ = t.Flush()
		sctx, cancel := context.WithTimeout(context.Background(), time.Second)
		defer cancel()
		if serr := t.Shutdown(sctx); serr != nil {
			log.Warnf("restore terminal: %v", serr)
		}
	}()

	size := t.Size()
	h.width, h.height = size.Width, size.Height
	if h.width <= 0 || h.height <= 0 {
		return fmt.Errorf("invalid terminal size: %dx%d", h.width, h.height)
	}
	if err = h.stage.Mount(ctx, h, h.width, h.height*2); err != nil {
		return err
	}
	defer h.stage.Unmount()
	log.Debugf("view: %dx%d cells, profile %v, stage %v", h.width, h.height, t.ColorProfile(), h.stage.Mode())

	return h.loop(ctx, t, opts.fps)
}

// loop interleaves terminal events with frames at fps.
func (h *host) loop(ctx context.Context, t *uv.Terminal, fps int) error {
	ticker := time.NewTicker(time.Second / time.Duration(max(fps, 1)))
	defer ticker.Stop()
	events := t.Events()
	last := time.Now()
	var fb *render.Framebuffer

	for {
		select {
		case <-ctx.Done():
			return nil
		case ev, ok := <-events:
			if !ok {
				return nil
			}
			if sz, isSize := ev.(uv.WindowSizeEvent); isSize {
				_ = t.Resize(sz.Width, sz.Height)
				t.Erase()
			}
			h.handle(ev)
			if h.quit {
				return nil
			}
		case now := <-ticker.C:
			dt := min(now.Sub(last).Seconds(), 0.1)
			last = now

			if frame := h.stage.Render(dt); frame != nil || h.stage.Mode() != stage.ModeLost {
				fb = frame
			}
			h.update(now)
			h.draw(t, fb)
			if err := t.Display(); err != nil {
				log.Errf("display frame: %v", err)
				h.stage.LoseContext(err)
			}
		}
	}
}
