package media

import (
	"context"
	"fmt"
	"image"
	_ "image/gif"
	_ "image/jpeg"
	_ "image/png"
	"io"
	"net/http"
	"net/url"
	"os"
	"path/filepath"
	"time"

	"fortio.org/log"
	xdraw "golang.org/x/image/draw"
	_ "golang.org/x/image/webp"
)

// Defaults for Fetcher.
const (
	DefaultMaxDimension = 512
	DefaultMaxBytes     = 32 << 20
	DefaultTimeout      = 30 * time.Second
)

// Fetcher loads gallery images from http(s) URLs, file:// URLs and local
// paths, and shrinks them to a size a terminal can use.
type Fetcher struct {
	Client       *http.Client
	BaseDir      string // resolves relative paths
	MaxDimension int    // longest side after scaling, 0 keeps the size
	MaxBytes     int64
}

// NewFetcher returns a fetcher with default limits.
func NewFetcher(baseDir string) *Fetcher {
	return &Fetcher{
		Client:       &http.Client{Timeout: DefaultTimeout},
		BaseDir:      baseDir,
		MaxDimension: DefaultMaxDimension,
		MaxBytes:     DefaultMaxBytes,
	}
}

// Load fetches and decodes source.
func (f *Fetcher) Load(ctx context.Context, source string) (image.Image, error) {
	rc, err := f.open(ctx, source)
	if err != nil {
		return nil, err
	}
	defer rc.Close()
	var r io.Reader = rc
	if f.MaxBytes > 0 {
		r = io.LimitReader(rc, f.MaxBytes)
	}
	img, format, err := image.Decode(r)
	if err != nil {
		return nil, fmt.Errorf("decode %s: %w", source, err)
	}
	scaled := Downscale(img, f.MaxDimension)
	log.Debugf("fetched %s (%s %v -> %v)", source, format, img.Bounds().Size(), scaled.Bounds().Size())
	return scaled, nil
}

func (f *Fetcher) open(ctx context.Context, source string) (io.ReadCloser, error) {
	u, err := url.Parse(source)
	if err == nil {
		switch u.Scheme {
		case "http", "https":
			return f.get(ctx, source)
		case "file":
			return os.Open(filepath.FromSlash(u.Path))
		}
	}
	p := source
	if !filepath.IsAbs(p) && f.BaseDir != "" {
		p = filepath.Join(f.BaseDir, p)
	}
	file, err := os.Open(p)
	if err != nil {
		return nil, fmt.Errorf("open image: %w", err)
	}
	return file, nil
}

func (f *Fetcher) get(ctx context.Context, source string) (io.ReadCloser, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, source, nil)
	if err != nil {
		return nil, fmt.Errorf("build request: %w", err)
	}
	client := f.Client
	if client == nil {
		client = http.DefaultClient
	}
	resp, err := client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("fetch %s: %w", source, err)
	}
	if resp.StatusCode != http.StatusOK {
		resp.Body.Close()
		return nil, fmt.Errorf("fetch %s: %s", source, resp.Status)
	}
	return resp.Body, nil
}

// Downscale shrinks img so its longest side is at most maxDim, keeping
// the aspect ratio. Smaller images and maxDim <= 0 return img unchanged.
func Downscale(img image.Image, maxDim int) image.Image {
	b := img.Bounds()
	w, h := b.Dx(), b.Dy()
	if maxDim <= 0 || (w <= maxDim && h <= maxDim) {
		return img
	}
	if w >= h {
		h = max(1, h*maxDim/w)
		w = maxDim
	} else {
		w = max(1, w*maxDim/h)
		h = maxDim
	}
	dst := image.NewRGBA(image.Rect(0, 0, w, h))
	xdraw.CatmullRom.Scale(dst, dst.Bounds(), img, b, xdraw.Src, nil)
	return dst
}
