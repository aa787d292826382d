// Package filestore keeps uploaded files on the local disk under a root
// directory that is also served statically.
package filestore

import (
	"bytes"
	"errors"
	"fmt"
	"io"
	"net/http"
	"os"
	"path"
	"path/filepath"

	"github.com/google/uuid"
)

// ErrTooLarge is returned when the payload exceeds the store limit.
var ErrTooLarge = errors.New("file exceeds upload limit")

// ErrUnsupportedType is returned when the content is not an accepted image.
var ErrUnsupportedType = errors.New("unsupported image type")

const (
	imagesDir = "images"
	sniffLen  = 512
)

// Sniffed content type to stored extension. Anything else is rejected.
var imageTypes = map[string]string{
	"image/png":  "png",
	"image/jpeg": "jpg",
	"image/gif":  "gif",
	"image/webp": "webp",
}

// Store writes files below Root. Paths returned are slash separated and
// relative to Root, so they double as URL paths under the static prefix.
type Store struct {
	root     string
	maxBytes int64
}

// New creates the images directory below root if needed.
func New(root string, maxBytes int64) (*Store, error) {
	if err := os.MkdirAll(filepath.Join(root, imagesDir), 0o755); err != nil {
		return nil, fmt.Errorf("failed to create upload directory: %w", err)
	}
	return &Store{root: root, maxBytes: maxBytes}, nil
}

func (s *Store) Root() string { return s.root }

// Stored describes a saved file.
type Stored struct {
	ID          uuid.UUID
	Path        string
	ContentType string
	Size        int64
}

// SaveImage sniffs the leading bytes of r and writes it to
// images/<uuid>.<ext>. Both the extension and ContentType come from the
// sniffed type; client supplied names and headers are never consulted.
func (s *Store) SaveImage(r io.Reader) (Stored, error) {
	head := make([]byte, sniffLen)
	n, err := io.ReadFull(r, head)
	if err != nil && !errors.Is(err, io.EOF) && !errors.Is(err, io.ErrUnexpectedEOF) {
		return Stored{}, fmt.Errorf("failed to read file: %w", err)
	}
	head = head[:n]

	contentType := http.DetectContentType(head)
	ext, ok := imageTypes[contentType]
	if !ok {
		return Stored{}, fmt.Errorf("%w: %s", ErrUnsupportedType, contentType)
	}

	id := uuid.New()
	rel := path.Join(imagesDir, id.String()+"."+ext)
	full := filepath.Join(s.root, filepath.FromSlash(rel))

	f, err := os.OpenFile(full, os.O_WRONLY|os.O_CREATE|os.O_EXCL, 0o644)
	if err != nil {
		return Stored{}, fmt.Errorf("failed to create file: %w", err)
	}

	body := io.MultiReader(bytes.NewReader(head), r)
	written, err := io.Copy(f, io.LimitReader(body, s.maxBytes+1))
	if closeErr := f.Close(); err == nil {
		err = closeErr
	}
	if err == nil && written > s.maxBytes {
		err = ErrTooLarge
	}
	if err != nil {
		_ = os.Remove(full)
		if errors.Is(err, ErrTooLarge) {
			return Stored{}, err
		}
		return Stored{}, fmt.Errorf("failed to write file: %w", err)
	}

	return Stored{ID: id, Path: rel, ContentType: contentType, Size: written}, nil
}

// Remove deletes a file previously returned by SaveImage.
func (s *Store) Remove(rel string) error {
	if err := os.Remove(filepath.Join(s.root, filepath.FromSlash(rel))); err != nil && !errors.Is(err, os.ErrNotExist) {
		return fmt.Errorf("failed to remove file: %w", err)
	}
	return nil
}
