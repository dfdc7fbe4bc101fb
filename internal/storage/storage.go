package storage

import (
	"context"
	"fmt"
	"io"
	"path"
	"strings"

	"github.com/google/uuid"
)

const keyPrefix = "uploads/recipe"

// ErrUnsupportedImage is returned when an upload does not carry a usable
// image file extension.
var ErrUnsupportedImage = fmt.Errorf("unsupported image file type")

// Store persists uploaded recipe images under generated object keys.
type Store interface {
	// Save writes the image bytes and returns the object key it was stored
	// under. The key embeds a fresh uuid so concurrent uploads never collide,
	// and keeps the original extension for content-type inference.
	Save(ctx context.Context, originalName string, r io.Reader) (string, error)

	// Open returns the stored image bytes for a previously returned key.
	Open(ctx context.Context, key string) (io.ReadCloser, error)

	// Remove deletes a stored image. Missing keys are not an error.
	Remove(ctx context.Context, key string) error
}

var imageExtensions = map[string]bool{
	".jpg":  true,
	".jpeg": true,
	".png":  true,
	".gif":  true,
	".webp": true,
}

// NewKey builds a collision-free object key preserving the upload's extension.
func NewKey(originalName string) (string, error) {
	ext := strings.ToLower(path.Ext(originalName))
	if !imageExtensions[ext] {
		return "", ErrUnsupportedImage
	}
	return fmt.Sprintf("%s/%s%s", keyPrefix, uuid.NewString(), ext), nil
}
