// infinigallery - infinite 3D image gallery for the terminal.
// Images fly toward the camera on a looping depth ring; scroll, arrow keys
// or drag move through them and autoplay takes over when idle.
//
// Controls:
//
//	Wheel / Up / Down  - Travel through the gallery
//	Drag               - Travel (touch style)
//	PgUp / PgDn        - Scroll the page once the gallery is complete
//	R                  - Reset progress and lock the page again
//	?                  - Toggle HUD overlay (FPS, planes, progress)
//	Q / Esc            - Quit
package main

import (
	"context"
	"os"

	"fortio.org/log"
	"github.com/charmbracelet/fang"
	"github.com/spf13/cobra"
	"github.com/taigrr/infinigallery/pkg/gallery"
)

var (
	version = "dev"
	commit  = ""
)

// options are the flags shared by every command that builds a gallery.
type options struct {
	configPath string
	verbose    bool
	mediaPath  string
	baseDir    string

	speed        float64
	visibleCount int
	fps          int
	segments     int
	prefetch     int
	maxDimension int
	bg           string
}

func main() {
	opts := &options{}
	root := newRootCmd(opts)
	if err := fang.Execute(context.Background(), root,
		fang.WithVersion(version),
		fang.WithCommit(commit),
		fang.WithNotifySignal(os.Interrupt),
	); err != nil {
		os.Exit(1)
	}
}

func newRootCmd(opts *options) *cobra.Command {
	root := &cobra.Command{
		Use:   "infinigallery [image...]",
		Short: "Infinite 3D image gallery for the terminal",
		Long: `infinigallery - infinite 3D image gallery for the terminal

Images fly toward you on an endless ring of planes. Travel far enough and the
page below the gallery unlocks.

Controls:
  Wheel / Up / Down  - Travel through the gallery
  Drag               - Travel (touch style)
  PgUp / PgDn        - Scroll the page once the gallery is complete
  R                  - Reset progress
  ?                  - Toggle HUD overlay
  Q / Esc            - Quit`,
		Args:         cobra.ArbitraryArgs,
		SilenceUsage: true,
		PersistentPreRun: func(cmd *cobra.Command, args []string) {
			if opts.verbose {
				log.SetLogLevel(log.Debug)
			}
		},
		RunE: func(cmd *cobra.Command, args []string) error {
			return runView(cmd, opts, args)
		},
	}

	pf := root.PersistentFlags()
	pf.StringVar(&opts.configPath, "config", "", "Gallery YAML config (omitted keys keep defaults)")
	pf.BoolVarP(&opts.verbose, "verbose", "v", false, "Debug logging")
	pf.StringVar(&opts.mediaPath, "media", "", "Media manifest to take images from")
	pf.StringVar(&opts.baseDir, "base-dir", "", "Directory relative image paths are resolved against")
	pf.Float64Var(&opts.speed, "speed", 0, "Speed multiplier (default from config)")
	pf.IntVar(&opts.visibleCount, "planes", 0, "Number of planes on the ring (default from config)")
	pf.IntVar(&opts.fps, "fps", 60, "Target FPS")
	pf.IntVar(&opts.segments, "segments", 0, "Plane subdivision per side")
	pf.IntVar(&opts.prefetch, "prefetch", 0, "Concurrent image loads")
	pf.IntVar(&opts.maxDimension, "max-size", 0, "Longest image side after downscaling")
	pf.StringVar(&opts.bg, "bg", "", "Background color (R,G,B)")

	root.AddCommand(
		newExportCmd(opts),
		newSnapshotCmd(opts),
		newInfoCmd(),
		newMediaCmd(opts),
	)
	return root
}

// loadConfig builds the gallery config from --config, the flags and the
// image sources, in that order of precedence (lowest first).
func loadConfig(ctx context.Context, opts *options, args []string) (gallery.Config, error) {
	cfg := gallery.DefaultConfig()
	if opts.configPath != "" {
		var err error
		if cfg, err = gallery.LoadConfig(opts.configPath); err != nil {
			return cfg, err
		}
	}
	if opts.speed > 0 {
		cfg.Speed = opts.speed
	}
	if opts.visibleCount > 0 {
		cfg.VisibleCount = opts.visibleCount
	}
	images, err := resolveImages(ctx, opts.mediaPath, args, cfg.Images)
	if err != nil {
		return cfg, err
	}
	cfg.Images = images
	return cfg, nil
}
