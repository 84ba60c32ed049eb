package media

import (
	"cmp"
	"context"
	"errors"
	"fmt"
	"io"
	"io/fs"
	"net/url"
	"os"
	"path"
	"path/filepath"
	"slices"
	"strconv"
	"strings"
	"sync"
	"time"

	"fortio.org/log"
	"github.com/google/uuid"
	"gopkg.in/yaml.v3"
)

// UploadPrefix is the directory uploads are stored under.
const UploadPrefix = "projects"

// manifest is the on-disk layout of a FileStore.
type manifest struct {
	Projects []Record `yaml:"projects"`
}

// FileStore is a Repository backed by a YAML manifest and a directory of
// uploaded files. It is safe for concurrent use within one process.
type FileStore struct {
	mu        sync.Mutex
	path      string
	uploadDir string
	publicURL string
	now       func() time.Time
}

// StoreOption customizes a FileStore.
type StoreOption func(*FileStore)

// WithPublicURL sets the base URL uploads are served from. The default is
// a file:// URL of the upload directory.
func WithPublicURL(base string) StoreOption {
	return func(s *FileStore) { s.publicURL = strings.TrimRight(base, "/") }
}

// WithStoreClock replaces time.Now.
func WithStoreClock(now func() time.Time) StoreOption {
	return func(s *FileStore) { s.now = now }
}

// OpenFileStore opens the manifest at path, which need not exist yet.
// Uploads go to uploadDir.
func OpenFileStore(path, uploadDir string, opts ...StoreOption) (*FileStore, error) {
	abs, err := filepath.Abs(uploadDir)
	if err != nil {
		return nil, fmt.Errorf("upload dir: %w", err)
	}
	s := &FileStore{
		path:      path,
		uploadDir: abs,
		publicURL: (&url.URL{Scheme: "file", Path: filepath.ToSlash(abs)}).String(),
		now:       time.Now,
	}
	for _, o := range opts {
		o(s)
	}
	if _, err := s.load(); err != nil {
		return nil, err
	}
	return s, nil
}

// Path is the manifest location.
func (s *FileStore) Path() string { return s.path }

func (s *FileStore) load() (*manifest, error) {
	m := &manifest{}
	data, err := os.ReadFile(s.path)
	if errors.Is(err, fs.ErrNotExist) {
		return m, nil
	}
	if err != nil {
		return nil, fmt.Errorf("read manifest: %w", err)
	}
	if err := yaml.Unmarshal(data, m); err != nil {
		return nil, fmt.Errorf("parse manifest %s: %w", s.path, err)
	}
	return m, nil
}

// save writes the manifest through a temporary file so readers never see
// a partial write.
func (s *FileStore) save(m *manifest) error {
	data, err := yaml.Marshal(m)
	if err != nil {
		return fmt.Errorf("encode manifest: %w", err)
	}
	dir := filepath.Dir(s.path)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return fmt.Errorf("create manifest dir: %w", err)
	}
	tmp, err := os.CreateTemp(dir, ".manifest-*.yaml")
	if err != nil {
		return fmt.Errorf("create temp manifest: %w", err)
	}
	defer os.Remove(tmp.Name())
	if _, err := tmp.Write(data); err != nil {
		tmp.Close()
		return fmt.Errorf("write manifest: %w", err)
	}
	if err := tmp.Close(); err != nil {
		return fmt.Errorf("write manifest: %w", err)
	}
	if err := os.Rename(tmp.Name(), s.path); err != nil {
		return fmt.Errorf("replace manifest: %w", err)
	}
	return nil
}

// List returns every record in the given order.
func (s *FileStore) List(ctx context.Context, order OrderKey) ([]Record, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	s.mu.Lock()
	m, err := s.load()
	s.mu.Unlock()
	if err != nil {
		return nil, err
	}
	records := m.Projects
	slices.SortStableFunc(records, func(a, b Record) int {
		switch order {
		case ByCreated:
			return a.CreatedAt.Compare(b.CreatedAt)
		case ByTitle:
			return cmp.Compare(strings.ToLower(a.Title), strings.ToLower(b.Title))
		default:
			return cmp.Compare(a.DisplayOrder, b.DisplayOrder)
		}
	})
	return records, nil
}

// Get returns the record with id.
func (s *FileStore) Get(ctx context.Context, id string) (Record, error) {
	if err := ctx.Err(); err != nil {
		return Record{}, err
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	m, err := s.load()
	if err != nil {
		return Record{}, err
	}
	i := index(m.Projects, id)
	if i < 0 {
		return Record{}, fmt.Errorf("%w: %s", ErrNotFound, id)
	}
	return m.Projects[i], nil
}

func index(records []Record, id string) int {
	return slices.IndexFunc(records, func(r Record) bool { return r.ID == id })
}

// Create validates and stores r with a new ID. It goes to the end of the
// display order.
func (s *FileStore) Create(ctx context.Context, r Record) (Record, error) {
	if err := ctx.Err(); err != nil {
		return Record{}, err
	}
	if err := r.Validate(); err != nil {
		return Record{}, err
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	m, err := s.load()
	if err != nil {
		return Record{}, err
	}
	r.ID = uuid.NewString()
	r.Slug = Slugify(r.Title)
	r.DisplayOrder = len(m.Projects)
	r.CreatedAt = s.now().UTC()
	m.Projects = append(m.Projects, r)
	if err := s.save(m); err != nil {
		return Record{}, err
	}
	log.S(log.Info, "media record created", log.Str("id", r.ID), log.Str("slug", r.Slug))
	return r, nil
}

// Update replaces the record with r.ID. Its display order and creation
// time are kept.
func (s *FileStore) Update(ctx context.Context, r Record) (Record, error) {
	if err := ctx.Err(); err != nil {
		return Record{}, err
	}
	if err := r.Validate(); err != nil {
		return Record{}, err
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	m, err := s.load()
	if err != nil {
		return Record{}, err
	}
	i := index(m.Projects, r.ID)
	if i < 0 {
		return Record{}, fmt.Errorf("%w: %s", ErrNotFound, r.ID)
	}
	old := m.Projects[i]
	r.Slug = Slugify(r.Title)
	r.DisplayOrder = old.DisplayOrder
	r.CreatedAt = old.CreatedAt
	m.Projects[i] = r
	if err := s.save(m); err != nil {
		return Record{}, err
	}
	log.S(log.Info, "media record updated", log.Str("id", r.ID))
	return r, nil
}

// Delete removes the record with id. Uploaded files are left in place.
func (s *FileStore) Delete(ctx context.Context, id string) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	m, err := s.load()
	if err != nil {
		return err
	}
	i := index(m.Projects, id)
	if i < 0 {
		return fmt.Errorf("%w: %s", ErrNotFound, id)
	}
	m.Projects = slices.Delete(m.Projects, i, i+1)
	if err := s.save(m); err != nil {
		return err
	}
	log.S(log.Info, "media record deleted", log.Str("id", id))
	return nil
}

// Upload copies r into the upload directory as
// projects/<unix-ms>-<random>.<ext> and returns its public URL.
func (s *FileStore) Upload(ctx context.Context, name, contentType string, r io.Reader) (string, error) {
	if err := ctx.Err(); err != nil {
		return "", err
	}
	object := objectName(name, s.now())
	dst := filepath.Join(s.uploadDir, filepath.FromSlash(object))
	if err := os.MkdirAll(filepath.Dir(dst), 0o755); err != nil {
		return "", fmt.Errorf("create upload dir: %w", err)
	}
	f, err := os.OpenFile(dst, os.O_WRONLY|os.O_CREATE|os.O_EXCL, 0o644)
	if err != nil {
		return "", fmt.Errorf("create upload: %w", err)
	}
	n, err := io.Copy(f, r)
	if err != nil {
		f.Close()
		os.Remove(dst)
		return "", fmt.Errorf("write upload: %w", err)
	}
	if err := f.Close(); err != nil {
		return "", fmt.Errorf("write upload: %w", err)
	}
	log.S(log.Info, "media uploaded", log.Str("object", object),
		log.Str("kind", string(KindFromContentType(contentType))), log.Attr("bytes", n))
	return s.publicURL + "/" + object, nil
}

// objectName builds the storage key for an uploaded file.
func objectName(name string, now time.Time) string {
	ext := strings.TrimPrefix(path.Ext(name), ".")
	if ext == "" {
		ext = "bin"
	}
	random := strings.ReplaceAll(uuid.NewString(), "-", "")[:6]
	return UploadPrefix + "/" + strconv.FormatInt(now.UnixMilli(), 10) + "-" + random + "." + strings.ToLower(ext)
}
