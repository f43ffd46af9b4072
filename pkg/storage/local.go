package storage

import (
	"errors"
	"fmt"
	"io"
	"io/fs"
	"os"
	"path"
	"path/filepath"
	"strings"
	"time"
)

// ErrInvalidPath is returned for keys that escape the storage root.
var ErrInvalidPath = errors.New("storage: invalid path")

// ErrNotExist is returned when a stored object cannot be found.
var ErrNotExist = errors.New("storage: object not found")

// LocalStorage keeps objects on disk under a root directory and
// optionally exposes them under a public base URL.
type LocalStorage struct {
	root          string
	publicBaseURL string
}

// NewLocalStorage creates the root directory when needed.
func NewLocalStorage(root, publicBaseURL string) (*LocalStorage, error) {
	if root == "" {
		return nil, fmt.Errorf("storage root required")
	}
	abs, err := filepath.Abs(root)
	if err != nil {
		return nil, fmt.Errorf("resolve storage root: %w", err)
	}
	if err := os.MkdirAll(abs, 0o755); err != nil {
		return nil, fmt.Errorf("create storage root: %w", err)
	}
	return &LocalStorage{root: abs, publicBaseURL: strings.TrimRight(publicBaseURL, "/")}, nil
}

// Save writes data under key and returns the normalised key.
func (s *LocalStorage) Save(key string, data []byte) (string, error) {
	target, clean, err := s.resolve(key)
	if err != nil {
		return "", err
	}
	if err := os.MkdirAll(filepath.Dir(target), 0o755); err != nil {
		return "", fmt.Errorf("prepare directory: %w", err)
	}
	if err := os.WriteFile(target, data, 0o644); err != nil {
		return "", fmt.Errorf("write object: %w", err)
	}
	return clean, nil
}

// SaveStream copies r into key through a temp file so readers never see partial writes.
func (s *LocalStorage) SaveStream(key string, r io.Reader) (string, error) {
	target, clean, err := s.resolve(key)
	if err != nil {
		return "", err
	}
	if err := os.MkdirAll(filepath.Dir(target), 0o755); err != nil {
		return "", fmt.Errorf("prepare directory: %w", err)
	}
	tmp, err := os.CreateTemp(filepath.Dir(target), ".upload-*")
	if err != nil {
		return "", fmt.Errorf("create temp object: %w", err)
	}
	defer os.Remove(tmp.Name()) //nolint:errcheck

	if _, err := io.Copy(tmp, r); err != nil {
		tmp.Close() //nolint:errcheck
		return "", fmt.Errorf("write object stream: %w", err)
	}
	if err := tmp.Close(); err != nil {
		return "", fmt.Errorf("close temp object: %w", err)
	}
	if err := os.Rename(tmp.Name(), target); err != nil {
		return "", fmt.Errorf("commit object: %w", err)
	}
	return clean, nil
}

// Open returns a read handle for key.
func (s *LocalStorage) Open(key string) (*os.File, error) {
	target, _, err := s.resolve(key)
	if err != nil {
		return nil, err
	}
	file, err := os.Open(target)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return nil, ErrNotExist
		}
		return nil, fmt.Errorf("open object: %w", err)
	}
	return file, nil
}

// Delete removes key; missing objects are ignored.
func (s *LocalStorage) Delete(key string) error {
	target, _, err := s.resolve(key)
	if err != nil {
		return err
	}
	if err := os.Remove(target); err != nil && !errors.Is(err, fs.ErrNotExist) {
		return fmt.Errorf("delete object: %w", err)
	}
	return nil
}

// CleanupOlderThan removes objects under prefix last modified before now-ttl.
func (s *LocalStorage) CleanupOlderThan(prefix string, ttl time.Duration) ([]string, error) {
	base, _, err := s.resolve(prefix)
	if err != nil {
		return nil, err
	}
	cutoff := time.Now().Add(-ttl)
	removed := make([]string, 0)
	err = filepath.WalkDir(base, func(p string, d fs.DirEntry, walkErr error) error {
		if walkErr != nil {
			if errors.Is(walkErr, fs.ErrNotExist) {
				return nil
			}
			return walkErr
		}
		if d.IsDir() {
			return nil
		}
		info, err := d.Info()
		if err != nil {
			return err
		}
		if info.ModTime().After(cutoff) {
			return nil
		}
		if err := os.Remove(p); err != nil && !errors.Is(err, fs.ErrNotExist) {
			return err
		}
		if rel, err := filepath.Rel(s.root, p); err == nil {
			removed = append(removed, filepath.ToSlash(rel))
		}
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("cleanup %s: %w", prefix, err)
	}
	return removed, nil
}

// PublicURL maps a stored key onto the configured public base URL.
func (s *LocalStorage) PublicURL(key string) string {
	clean := strings.TrimPrefix(path.Clean("/"+filepath.ToSlash(key)), "/")
	if s.publicBaseURL == "" {
		return "/" + clean
	}
	return s.publicBaseURL + "/" + clean
}

// Path exposes the absolute on-disk location of key.
func (s *LocalStorage) Path(key string) (string, error) {
	target, _, err := s.resolve(key)
	return target, err
}

func (s *LocalStorage) resolve(key string) (string, string, error) {
	if key == "" || strings.ContainsRune(key, 0) {
		return "", "", ErrInvalidPath
	}
	slashed := filepath.ToSlash(key)
	if strings.HasPrefix(slashed, "/") {
		return "", "", ErrInvalidPath
	}
	clean := path.Clean(slashed)
	if clean == ".." || strings.HasPrefix(clean, "../") {
		return "", "", ErrInvalidPath
	}
	return filepath.Join(s.root, filepath.FromSlash(clean)), clean, nil
}
