// Package storage keeps uploaded documents in a directory under generated
// names.
package storage

import (
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/google/uuid"

	"github.com/tsawler/slidetag/format"
)

var (
	// ErrUnsupportedType is returned for uploads whose extension is not
	// accepted.
	ErrUnsupportedType = errors.New("storage: unsupported file type")
	// ErrInvalidName is returned for names that were not generated by Save.
	ErrInvalidName = errors.New("storage: invalid file name")
	// ErrNotFound is returned when no stored file has the given name.
	ErrNotFound = errors.New("storage: file not found")
)

// Store saves uploads as <uuid><ext> in a single directory.
type Store struct {
	dir string
}

// New returns a Store rooted at dir. The directory is created on first Save.
func New(dir string) *Store {
	return &Store{dir: dir}
}

// Dir returns the upload directory.
func (s *Store) Dir() string {
	return s.dir
}

// Save copies r into a new file named after a random UUID and the lower-cased
// extension of originalName, and returns the generated name.
func (s *Store) Save(originalName string, r io.Reader) (string, error) {
	ext := strings.ToLower(filepath.Ext(originalName))
	if !format.Allowed(ext) {
		return "", fmt.Errorf("%w: %q", ErrUnsupportedType, ext)
	}

	if err := os.MkdirAll(s.dir, 0o755); err != nil {
		return "", fmt.Errorf("storage: creating upload directory: %w", err)
	}

	name := uuid.NewString() + ext
	path := filepath.Join(s.dir, name)

	f, err := os.OpenFile(path, os.O_WRONLY|os.O_CREATE|os.O_EXCL, 0o644)
	if err != nil {
		return "", fmt.Errorf("storage: creating %s: %w", name, err)
	}
	if _, err := io.Copy(f, r); err != nil {
		f.Close()
		os.Remove(path)
		return "", fmt.Errorf("storage: writing %s: %w", name, err)
	}
	if err := f.Close(); err != nil {
		os.Remove(path)
		return "", fmt.Errorf("storage: closing %s: %w", name, err)
	}
	return name, nil
}

// Path returns the location of a stored file. It only accepts names of the
// form Save generates, so callers cannot reach outside the directory.
func (s *Store) Path(name string) (string, error) {
	if err := ValidateName(name); err != nil {
		return "", err
	}
	path := filepath.Join(s.dir, name)
	info, err := os.Stat(path)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return "", fmt.Errorf("%w: %s", ErrNotFound, name)
		}
		return "", err
	}
	if !info.Mode().IsRegular() {
		return "", fmt.Errorf("%w: %s", ErrNotFound, name)
	}
	return path, nil
}

// ReadFile returns the contents of a stored file.
func (s *Store) ReadFile(name string) ([]byte, error) {
	path, err := s.Path(name)
	if err != nil {
		return nil, err
	}
	return os.ReadFile(path)
}

// ValidateName checks that name is a UUID followed by an accepted extension.
func ValidateName(name string) error {
	ext := filepath.Ext(name)
	if ext != strings.ToLower(ext) || !format.Allowed(ext) {
		return fmt.Errorf("%w: %q", ErrInvalidName, name)
	}
	id, err := uuid.Parse(strings.TrimSuffix(name, ext))
	if err != nil || id.String()+ext != name {
		return fmt.Errorf("%w: %q", ErrInvalidName, name)
	}
	return nil
}
