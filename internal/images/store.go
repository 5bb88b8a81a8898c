package images

import (
	"fmt"
	"io"
	"log"
	"os"
	"path"
	"path/filepath"
	"strings"

	"github.com/google/uuid"
)

// URLPrefix is the first segment of every stored image path; the router
// serves the store root under /uploads.
const URLPrefix = "uploads"

// Category is the subdirectory an image is filed under.
type Category string

const (
	Books     Category = "books"
	Members   Category = "members"
	Employees Category = "employees"
)

// Categories lists every known upload subdirectory.
var Categories = []Category{Books, Members, Employees}

type Options struct {
	MaxBytes     int64
	MaxDimension int
	JPEGQuality  int
}

// Store keeps normalized images on local disk.
type Store struct {
	root string
	opts Options
}

// NewStore creates the store root and its category directories.
func NewStore(root string, opts Options) (*Store, error) {
	for _, c := range Categories {
		if err := os.MkdirAll(filepath.Join(root, string(c)), 0755); err != nil {
			return nil, fmt.Errorf("create upload dir: %w", err)
		}
	}
	if opts.JPEGQuality <= 0 || opts.JPEGQuality > 100 {
		opts.JPEGQuality = 85
	}
	return &Store{root: root, opts: opts}, nil
}

// Root returns the directory served under /uploads.
func (s *Store) Root() string {
	return s.root
}

// MaxBytes returns the upload size limit; zero means unlimited.
func (s *Store) MaxBytes() int64 {
	return s.opts.MaxBytes
}

// Save normalizes the upload and writes it under category. It returns the
// path to store on the entity, e.g. "uploads/members/<uuid>.jpg".
func (s *Store) Save(category Category, filename string, r io.Reader) (string, error) {
	if !AllowedExtension(filename) {
		return "", fmt.Errorf("%q: %w", filepath.Ext(filename), ErrUnsupportedType)
	}

	data, err := readLimited(r, s.opts.MaxBytes)
	if err != nil {
		return "", err
	}

	jpg, err := Normalize(data, filename, s.opts.MaxDimension, s.opts.JPEGQuality)
	if err != nil {
		return "", err
	}

	name := uuid.NewString() + ".jpg"
	dir := filepath.Join(s.root, string(category))
	if err := writeAtomic(dir, name, jpg); err != nil {
		return "", fmt.Errorf("write image: %w", err)
	}

	rel := path.Join(URLPrefix, string(category), name)
	log.Printf("Stored image %s (%d bytes from %s)", rel, len(jpg), filename)
	return rel, nil
}

// Delete removes a stored image. Paths that point nowhere are logged and
// ignored; paths outside the store are rejected.
func (s *Store) Delete(relPath string) error {
	if relPath == "" {
		return nil
	}
	full, err := s.Resolve(relPath)
	if err != nil {
		return err
	}
	if err := os.Remove(full); err != nil {
		if os.IsNotExist(err) {
			log.Printf("Warning: image %s not found on disk, nothing to delete", relPath)
			return nil
		}
		return err
	}
	return nil
}

// Resolve maps a stored relative path to its location on disk.
func (s *Store) Resolve(relPath string) (string, error) {
	clean := path.Clean("/" + filepath.ToSlash(relPath))
	clean = strings.TrimPrefix(clean, "/")
	clean = strings.TrimPrefix(clean, URLPrefix+"/")

	parts := strings.Split(clean, "/")
	if len(parts) != 2 || !knownCategory(parts[0]) || parts[1] == "" {
		return "", fmt.Errorf("image path %q is outside the upload store", relPath)
	}
	return filepath.Join(s.root, parts[0], parts[1]), nil
}

// List returns the stored relative paths of every file in a category.
func (s *Store) List(category Category) ([]string, error) {
	entries, err := os.ReadDir(filepath.Join(s.root, string(category)))
	if err != nil {
		return nil, err
	}
	var paths []string
	for _, e := range entries {
		if e.IsDir() || strings.HasPrefix(e.Name(), ".") {
			continue
		}
		paths = append(paths, path.Join(URLPrefix, string(category), e.Name()))
	}
	return paths, nil
}

func knownCategory(name string) bool {
	for _, c := range Categories {
		if string(c) == name {
			return true
		}
	}
	return false
}

// writeAtomic writes data to a temp file in dir and renames it into place.
func writeAtomic(dir, name string, data []byte) error {
	tmpFile, err := os.CreateTemp(dir, ".upload_tmp_")
	if err != nil {
		return err
	}
	tmpPath := tmpFile.Name()
	defer func() {
		tmpFile.Close()
		os.Remove(tmpPath)
	}()

	if _, err := tmpFile.Write(data); err != nil {
		return err
	}
	if err := tmpFile.Close(); err != nil {
		return err
	}
	return os.Rename(tmpPath, filepath.Join(dir, name))
}
