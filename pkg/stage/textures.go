package stage

import (
	"context"
	"fmt"
	"image"
	"sync"

	"fortio.org/log"
	"github.com/taigrr/infinigallery/pkg/gallery"
	"github.com/taigrr/infinigallery/pkg/render"
	"golang.org/x/sync/errgroup"
)

// Loader fetches and decodes the image behind a gallery source.
type Loader interface {
	Load(ctx context.Context, source string) (image.Image, error)
}

// LoaderFunc adapts a function to Loader.
type LoaderFunc func(ctx context.Context, source string) (image.Image, error)

// Load calls f.
func (f LoaderFunc) Load(ctx context.Context, source string) (image.Image, error) {
	return f(ctx, source)
}

// TextureSet holds one texture per gallery image, filled in the background.
// Textures live on the CPU and survive context loss.
type TextureSet struct {
	mu       sync.RWMutex
	textures []*render.Texture
	errs     []error

	cancel     context.CancelFunc
	group      errgroup.Group
	dispatched chan struct{}
}

// NewTextureSet creates an empty set for n images.
func NewTextureSet(n int) *TextureSet {
	return &TextureSet{
		textures: make([]*render.Texture, n),
		errs:     make([]error, n),
	}
}

// Prefetch starts loading every image with at most limit loads in flight.
// It returns immediately; failed images stay empty and are logged.
func (s *TextureSet) Prefetch(ctx context.Context, images []gallery.Image, loader Loader, limit int) {
	if loader == nil {
		return
	}
	ctx, s.cancel = context.WithCancel(ctx)
	if limit > 0 {
		s.group.SetLimit(limit)
	}
	s.dispatched = make(chan struct{})
	go func() {
		defer close(s.dispatched)
		for i, img := range images {
			if i >= len(s.textures) || ctx.Err() != nil {
				return
			}
			s.group.Go(func() error {
				return s.load(ctx, loader, i, img)
			})
		}
	}()
}

func (s *TextureSet) load(ctx context.Context, loader Loader, i int, img gallery.Image) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	decoded, err := loader.Load(ctx, img.Source)
	if err != nil {
		if ctx.Err() != nil {
			return ctx.Err()
		}
		log.Warnf("texture %d (%s): %v", i, img.Source, err)
		s.fail(i, err)
		return nil
	}
	s.Set(i, render.TextureFromImage(decoded))
	log.Debugf("texture %d loaded: %dx%d", i, decoded.Bounds().Dx(), decoded.Bounds().Dy())
	return nil
}

// Wait blocks until the prefetch finished or was canceled. It returns the
// cancellation error in the latter case.
func (s *TextureSet) Wait() error {
	if s.dispatched != nil {
		<-s.dispatched
	}
	return s.group.Wait()
}

// Cancel stops outstanding loads.
func (s *TextureSet) Cancel() {
	if s.cancel != nil {
		s.cancel()
	}
}

// Set publishes the texture for image i.
func (s *TextureSet) Set(i int, tex *render.Texture) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if i < 0 || i >= len(s.textures) {
		return
	}
	s.textures[i] = tex
	s.errs[i] = nil
}

func (s *TextureSet) fail(i int, err error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.errs[i] = fmt.Errorf("image %d: %w", i, err)
}

// Get returns the texture for image i, or nil while it is not loaded.
func (s *TextureSet) Get(i int) *render.Texture {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if i < 0 || i >= len(s.textures) {
		return nil
	}
	return s.textures[i]
}

// Err returns the load error of image i, if any.
func (s *TextureSet) Err(i int) error {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if i < 0 || i >= len(s.errs) {
		return nil
	}
	return s.errs[i]
}

// Loaded counts the available textures.
func (s *TextureSet) Loaded() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	n := 0
	for _, t := range s.textures {
		if t != nil {
			n++
		}
	}
	return n
}

// Len is the number of images in the set.
func (s *TextureSet) Len() int { return len(s.textures) }
