// Package uploads stores CV files and the profile photo as named objects and
// hands out their public URLs.
package uploads

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"path"
	"path/filepath"
	"strings"
	"time"
)

var (
	// ErrObjectNotFound is returned when a key does not exist.
	ErrObjectNotFound = errors.New("object not found")

	// ErrInvalidKey is returned for keys that are empty or escape the store root.
	ErrInvalidKey = errors.New("invalid object key")
)

// Object describes one stored object.
type Object struct {
	Key     string
	Size    int64
	ModTime time.Time
}

// Store is the blob storage used for uploads.
type Store interface {
	Put(ctx context.Context, key string, r io.Reader, contentType string) (string, error)
	Delete(ctx context.Context, key string) error
	Open(key string) (string, error)
	List(ctx context.Context) ([]Object, error)
	URL(key string) string
}

// DiskStore keeps objects as files in one directory.
type DiskStore struct {
	root      string
	urlPrefix string
}

// NewDiskStore creates the root directory if needed.
func NewDiskStore(root, urlPrefix string) (*DiskStore, error) {
	if err := os.MkdirAll(root, 0o755); err != nil {
		return nil, fmt.Errorf("failed to create uploads directory: %w", err)
	}
	return &DiskStore{
		root:      root,
		urlPrefix: strings.TrimRight(urlPrefix, "/"),
	}, nil
}

func (s *DiskStore) pathFor(key string) (string, error) {
	if key == "" || key != filepath.Base(key) || strings.HasPrefix(key, ".") {
		return "", ErrInvalidKey
	}
	return filepath.Join(s.root, key), nil
}

// Put writes r under key and returns the object's public URL. The write goes
// to a temporary file first so readers never see a partial object.
func (s *DiskStore) Put(ctx context.Context, key string, r io.Reader, contentType string) (string, error) {
	dst, err := s.pathFor(key)
	if err != nil {
		return "", err
	}

	tmp, err := os.CreateTemp(s.root, ".upload-*")
	if err != nil {
		return "", fmt.Errorf("failed to create temp file: %w", err)
	}
	tmpName := tmp.Name()
	defer os.Remove(tmpName)

	if _, err := io.Copy(tmp, &contextReader{ctx: ctx, r: r}); err != nil {
		tmp.Close()
		return "", fmt.Errorf("failed to write object: %w", err)
	}
	if err := tmp.Close(); err != nil {
		return "", fmt.Errorf("failed to close object: %w", err)
	}
	if err := os.Rename(tmpName, dst); err != nil {
		return "", fmt.Errorf("failed to store object: %w", err)
	}

	return s.URL(key), nil
}

// Delete removes key. Missing objects return ErrObjectNotFound.
func (s *DiskStore) Delete(ctx context.Context, key string) error {
	p, err := s.pathFor(key)
	if err != nil {
		return err
	}
	if err := os.Remove(p); err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return ErrObjectNotFound
		}
		return fmt.Errorf("failed to delete object: %w", err)
	}
	return nil
}

// Open returns the filesystem path of an existing object.
func (s *DiskStore) Open(key string) (string, error) {
	p, err := s.pathFor(key)
	if err != nil {
		return "", err
	}
	info, err := os.Stat(p)
	if err != nil || info.IsDir() {
		return "", ErrObjectNotFound
	}
	return p, nil
}

// List returns every stored object, skipping in-flight temp files.
func (s *DiskStore) List(ctx context.Context) ([]Object, error) {
	entries, err := os.ReadDir(s.root)
	if err != nil {
		return nil, fmt.Errorf("failed to list uploads: %w", err)
	}

	objects := make([]Object, 0, len(entries))
	for _, entry := range entries {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		if entry.IsDir() || strings.HasPrefix(entry.Name(), ".") {
			continue
		}
		info, err := entry.Info()
		if err != nil {
			continue
		}
		objects = append(objects, Object{
			Key:     entry.Name(),
			Size:    info.Size(),
			ModTime: info.ModTime(),
		})
	}
	return objects, nil
}

// URL returns the public URL for key.
func (s *DiskStore) URL(key string) string {
	return s.urlPrefix + "/" + path.Base(key)
}

type contextReader struct {
	ctx context.Context
	r   io.Reader
}

func (c *contextReader) Read(p []byte) (int, error) {
	if err := c.ctx.Err(); err != nil {
		return 0, err
	}
	return c.r.Read(p)
}
