// Package uploads stores the image files attached to posts, either on local
// disk or in an S3-compatible bucket.
package uploads

import (
	"context"
	"errors"
	"fmt"
	"io"
	"io/fs"
	"os"
	"path/filepath"
	"strconv"
	"time"

	"github.com/google/uuid"

	"Pressroom/internal/core/posts"
)

// DefaultDir is where uploads land when no directory is configured
const DefaultDir = "image/"

// ErrInvalidName is returned for uploads whose name has no usable base name.
// It is a validation error: the name comes from the client.
var ErrInvalidName = posts.NewValidationError("image", "file name has no usable base name")

// StoredName builds the name an upload is stored under:
// <unix millis>_<base name of the original>
func StoredName(now time.Time, originalName string) (string, error) {
	base := filepath.Base(filepath.Clean("/" + filepath.ToSlash(originalName)))
	if base == "/" || base == "." || base == ".." {
		return "", ErrInvalidName
	}
	return strconv.FormatInt(now.UnixMilli(), 10) + "_" + base, nil
}

// LocalStore writes uploads into a directory on local disk
type LocalStore struct {
	now func() time.Time
	dir string
}

// NewLocalStore creates a store rooted at dir, creating it if needed
func NewLocalStore(dir string) (*LocalStore, error) {
	if dir == "" {
		dir = DefaultDir
	}
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, fmt.Errorf("failed to create upload directory: %w", err)
	}
	return &LocalStore{dir: dir, now: time.Now}, nil
}

// Dir returns the directory uploads are written to
func (s *LocalStore) Dir() string {
	return s.dir
}

// Save writes the file under its stored name. The data goes to a unique temp
// file first and is renamed into place, so concurrent uploads that land on the
// same name replace each other whole.
func (s *LocalStore) Save(ctx context.Context, upload posts.Upload, file io.Reader) (*posts.StoredFile, error) {
	name, err := StoredName(s.now(), upload.OriginalName)
	if err != nil {
		return nil, err
	}

	tmp, err := os.CreateTemp(s.dir, "."+uuid.NewString()+"-*.tmp")
	if err != nil {
		return nil, fmt.Errorf("failed to create temp file: %w", err)
	}
	tmpName := tmp.Name()
	cleanup := func() {
		_ = tmp.Close()
		_ = os.Remove(tmpName)
	}

	size, err := io.Copy(tmp, contextReader{ctx: ctx, r: file})
	if err != nil {
		cleanup()
		return nil, fmt.Errorf("failed to write upload: %w", err)
	}
	if err := tmp.Close(); err != nil {
		_ = os.Remove(tmpName)
		return nil, fmt.Errorf("failed to flush upload: %w", err)
	}

	path := filepath.Join(s.dir, name)
	if err := os.Rename(tmpName, path); err != nil {
		_ = os.Remove(tmpName)
		return nil, fmt.Errorf("failed to move upload into place: %w", err)
	}

	return &posts.StoredFile{
		Destination: s.dir,
		Filename:    name,
		Path:        path,
		Size:        size,
	}, nil
}

// Remove deletes a stored file. A file that is already gone is not an error.
func (s *LocalStore) Remove(ctx context.Context, filename string) error {
	err := os.Remove(filepath.Join(s.dir, filepath.Base(filename)))
	if err != nil && !errors.Is(err, fs.ErrNotExist) {
		return fmt.Errorf("failed to remove upload: %w", err)
	}
	return nil
}

// contextReader stops a copy once ctx is cancelled
type contextReader struct {
	ctx context.Context
	r   io.Reader
}

func (c contextReader) Read(p []byte) (int, error) {
	if err := c.ctx.Err(); err != nil {
		return 0, err
	}
	return c.r.Read(p)
}
