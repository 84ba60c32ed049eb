// Package media is the portfolio's media repository: project records with
// their images and videos, a YAML file store with local uploads, and the
// image fetcher the gallery uses to turn sources into pixels.
package media

import (
	"context"
	"errors"
	"fmt"
	"io"
	"regexp"
	"strings"
	"time"

	"github.com/taigrr/infinigallery/pkg/gallery"
)

var (
	// ErrNotFound is returned for unknown record IDs.
	ErrNotFound = errors.New("media: record not found")
	// ErrInvalidRecord is returned when a record fails validation.
	ErrInvalidRecord = errors.New("media: invalid record")
)

// Kind is the type of a media item.
type Kind string

const (
	KindImage Kind = "image"
	KindVideo Kind = "video"
)

// KindFromContentType maps a MIME type to a Kind: video/* is a video,
// anything else an image.
func KindFromContentType(contentType string) Kind {
	if strings.HasPrefix(strings.ToLower(strings.TrimSpace(contentType)), "video/") {
		return KindVideo
	}
	return KindImage
}

// Media is one uploaded file.
type Media struct {
	URL  string `yaml:"url"`
	Kind Kind   `yaml:"type"`
}

// Record is one portfolio project. The first media item is the primary
// one and doubles as the thumbnail when it is an image.
type Record struct {
	ID           string    `yaml:"id"`
	Title        string    `yaml:"title"`
	Slug         string    `yaml:"slug"`
	Description  string    `yaml:"description,omitempty"`
	Media        Media     `yaml:"media"`
	Thumbnail    string    `yaml:"thumbnail,omitempty"`
	Additional   []Media   `yaml:"additional,omitempty"`
	DisplayOrder int       `yaml:"display_order"`
	CreatedAt    time.Time `yaml:"created_at"`
}

// NewRecord builds a record from a title and its media items, deriving the
// slug and thumbnail.
func NewRecord(title, description string, items []Media) (Record, error) {
	r := Record{Title: strings.TrimSpace(title), Description: strings.TrimSpace(description)}
	if err := r.SetItems(items); err != nil {
		return Record{}, err
	}
	r.Slug = Slugify(r.Title)
	return r, r.Validate()
}

// SetItems replaces the record's media. items must not be empty.
func (r *Record) SetItems(items []Media) error {
	if len(items) == 0 {
		return fmt.Errorf("%w: at least one image or video is required", ErrInvalidRecord)
	}
	r.Media = items[0]
	if r.Media.Kind == "" {
		r.Media.Kind = KindImage
	}
	r.Thumbnail = ""
	if r.Media.Kind == KindImage {
		r.Thumbnail = r.Media.URL
	}
	r.Additional = nil
	if len(items) > 1 {
		r.Additional = append([]Media(nil), items[1:]...)
	}
	return nil
}

// Items returns the primary media followed by the additional ones.
func (r Record) Items() []Media {
	return append([]Media{r.Media}, r.Additional...)
}

// Validate checks the fields a user must provide.
func (r Record) Validate() error {
	switch {
	case strings.TrimSpace(r.Title) == "":
		return fmt.Errorf("%w: title is required", ErrInvalidRecord)
	case r.Media.URL == "":
		return fmt.Errorf("%w: at least one image or video is required", ErrInvalidRecord)
	case r.Media.Kind != KindImage && r.Media.Kind != KindVideo:
		return fmt.Errorf("%w: unknown media type %q", ErrInvalidRecord, r.Media.Kind)
	}
	return nil
}

var (
	spaces   = regexp.MustCompile(`\s+`)
	nonSlugs = regexp.MustCompile(`[^a-z0-9-]`)
)

// Slugify lowercases title, turns whitespace runs into dashes and drops
// everything else that is not a letter, digit or dash.
func Slugify(title string) string {
	s := spaces.ReplaceAllString(strings.ToLower(title), "-")
	return nonSlugs.ReplaceAllString(s, "")
}

// OrderKey selects the sort order of List.
type OrderKey int

const (
	ByDisplayOrder OrderKey = iota
	ByCreated
	ByTitle
)

// Repository stores records and uploaded files.
type Repository interface {
	List(ctx context.Context, order OrderKey) ([]Record, error)
	Get(ctx context.Context, id string) (Record, error)
	Create(ctx context.Context, r Record) (Record, error)
	Update(ctx context.Context, r Record) (Record, error)
	Delete(ctx context.Context, id string) error
	// Upload stores a file and returns its public URL.
	Upload(ctx context.Context, name, contentType string, r io.Reader) (string, error)
}

// GalleryImages flattens records into gallery images, one per record:
// images use their own URL, videos their thumbnail. Videos without a
// thumbnail are skipped.
func GalleryImages(records []Record) []gallery.Image {
	out := make([]gallery.Image, 0, len(records))
	for _, r := range records {
		src := r.Media.URL
		if r.Media.Kind == KindVideo {
			src = r.Thumbnail
		}
		if src == "" {
			continue
		}
		out = append(out, gallery.Image{Source: src, AltText: r.Title})
	}
	return out
}
