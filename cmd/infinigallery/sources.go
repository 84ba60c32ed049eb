package main

import (
	"context"
	"fmt"
	"image"
	"path/filepath"
	"strconv"
	"strings"

	"fortio.org/log"
	"github.com/taigrr/infinigallery/pkg/gallery"
	"github.com/taigrr/infinigallery/pkg/media"
	"github.com/taigrr/infinigallery/pkg/render"
)

// demoPrefix marks generated images, used when no sources are given.
const demoPrefix = "demo:"

const demoCount = 8

// demoPalette pairs of checker colors, one per demo image.
var demoPalette = [...][2]render.Color{
	{render.RGB(230, 80, 70), render.RGB(250, 200, 120)},
	{render.RGB(40, 110, 200), render.RGB(150, 210, 250)},
	{render.RGB(60, 160, 90), render.RGB(200, 240, 170)},
	{render.RGB(150, 70, 190), render.RGB(240, 180, 230)},
	{render.RGB(220, 160, 30), render.RGB(60, 50, 40)},
	{render.RGB(20, 20, 20), render.RGB(235, 235, 235)},
	{render.RGB(200, 60, 120), render.RGB(70, 200, 200)},
	{render.RGB(90, 90, 160), render.RGB(250, 240, 200)},
}

// resolveImages picks the gallery images: explicit args win, then the media
// manifest, then the config, then generated demo images.
func resolveImages(ctx context.Context, manifest string, args []string, configured []gallery.Image) ([]gallery.Image, error) {
	switch {
	case len(args) > 0:
		images := make([]gallery.Image, len(args))
		for i, a := range args {
			images[i] = gallery.Image{Source: a, AltText: altFromSource(a)}
		}
		return images, nil
	case manifest != "":
		store, err := media.OpenFileStore(manifest, filepath.Join(filepath.Dir(manifest), "uploads"))
		if err != nil {
			return nil, err
		}
		records, err := store.List(ctx, media.ByDisplayOrder)
		if err != nil {
			return nil, err
		}
		images := media.GalleryImages(records)
		if len(images) == 0 {
			return nil, fmt.Errorf("media manifest %s has no images", manifest)
		}
		return images, nil
	case len(configured) > 0:
		return configured, nil
	}
	log.Infof("no images given, using %d demo images", demoCount)
	return demoImages(demoCount), nil
}

func altFromSource(source string) string {
	base := filepath.Base(source)
	return strings.TrimSuffix(base, filepath.Ext(base))
}

func demoImages(n int) []gallery.Image {
	images := make([]gallery.Image, n)
	for i := range images {
		images[i] = gallery.Image{
			Source:  demoPrefix + strconv.Itoa(i),
			AltText: fmt.Sprintf("Demo %d", i+1),
		}
	}
	return images
}

// demoImage generates the checkerboard for "demo:N". Even images are
// landscape, odd ones portrait.
func demoImage(source string) (image.Image, error) {
	n, err := strconv.Atoi(strings.TrimPrefix(source, demoPrefix))
	if err != nil || n < 0 {
		return nil, fmt.Errorf("bad demo image %q", source)
	}
	w, h := 96, 64
	if n%2 == 1 {
		w, h = h, w
	}
	colors := demoPalette[n%len(demoPalette)]
	return render.NewCheckerTexture(w, h, 8+4*(n%3), colors[0], colors[1]).ToImage(), nil
}

// sourceLoader loads demo images itself and everything else through a
// media.Fetcher.
type sourceLoader struct {
	fetch *media.Fetcher
}

func newSourceLoader(opts *options) sourceLoader {
	f := media.NewFetcher(opts.baseDir)
	if opts.maxDimension > 0 {
		f.MaxDimension = opts.maxDimension
	}
	return sourceLoader{fetch: f}
}

func (l sourceLoader) Load(ctx context.Context, source string) (image.Image, error) {
	if strings.HasPrefix(source, demoPrefix) {
		return demoImage(source)
	}
	return l.fetch.Load(ctx, source)
}

// parseColor reads "R,G,B". The empty string is black.
func parseColor(s string) (render.Color, error) {
	if s == "" {
		return render.ColorBlack, nil
	}
	var r, g, b uint8
	if _, err := fmt.Sscanf(s, "%d,%d,%d", &r, &g, &b); err != nil {
		return render.ColorBlack, fmt.Errorf("background color %q: want R,G,B", s)
	}
	return render.RGB(r, g, b), nil
}
