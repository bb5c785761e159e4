package blob

import (
	"context"
	"errors"
	"fmt"
	"io"
	"io/fs"
	"mime"
	"os"
	"path/filepath"

	"github.com/duynhne/card-service/internal/core/domain"
)

// LocalStore keeps blobs as files under a root directory.
type LocalStore struct {
	root string
}

// NewLocalStore creates the root directory if needed.
func NewLocalStore(root string) (*LocalStore, error) {
	if err := os.MkdirAll(root, 0o755); err != nil {
		return nil, fmt.Errorf("create blob dir %q: %w", root, err)
	}
	return &LocalStore{root: root}, nil
}

// Put writes the object atomically: readers never observe a partial file.
func (s *LocalStore) Put(ctx context.Context, key string, r io.Reader, contentType string) (int64, error) {
	if !ValidKey(key) {
		return 0, fmt.Errorf("invalid blob key %q", key)
	}

	tmp, err := os.CreateTemp(s.root, ".upload-*")
	if err != nil {
		return 0, fmt.Errorf("create temp file: %w", err)
	}
	defer os.Remove(tmp.Name())

	n, err := io.Copy(tmp, &contextReader{ctx: ctx, r: r})
	if err != nil {
		tmp.Close()
		return 0, fmt.Errorf("write %q: %w", key, err)
	}
	if err := tmp.Close(); err != nil {
		return 0, fmt.Errorf("close %q: %w", key, err)
	}
	if err := os.Chmod(tmp.Name(), 0o644); err != nil {
		return 0, fmt.Errorf("chmod %q: %w", key, err)
	}
	if err := os.Rename(tmp.Name(), filepath.Join(s.root, key)); err != nil {
		return 0, fmt.Errorf("rename %q: %w", key, err)
	}
	return n, nil
}

// Open returns the stored file; content type is derived from the key's extension.
func (s *LocalStore) Open(ctx context.Context, key string) (io.ReadCloser, *domain.StoredObject, error) {
	if !ValidKey(key) {
		return nil, nil, fmt.Errorf("open %q: %w", key, domain.ErrBlobNotFound)
	}
	f, err := os.Open(filepath.Join(s.root, key))
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return nil, nil, fmt.Errorf("open %q: %w", key, domain.ErrBlobNotFound)
		}
		return nil, nil, fmt.Errorf("open %q: %w", key, err)
	}
	info, err := f.Stat()
	if err != nil {
		f.Close()
		return nil, nil, fmt.Errorf("stat %q: %w", key, err)
	}
	return f, &domain.StoredObject{
		Key:         key,
		Size:        info.Size(),
		ContentType: mime.TypeByExtension(filepath.Ext(key)),
	}, nil
}

// contextReader stops a copy once the request context is cancelled.
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
