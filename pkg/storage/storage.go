// Package storage keeps uploaded dish images, on S3 or on local disk.
package storage

import (
	"context"
	"errors"
	"io"
	"path"
	"strings"

	"github.com/google/uuid"
)

// MaxImageSize is the largest accepted image upload (5 MiB).
const MaxImageSize = 5 << 20

// FolderDishes is the key prefix for dish images.
const FolderDishes = "dishes"

var (
	ErrTooLarge        = errors.New("image exceeds 5 MiB")
	ErrUnsupportedType = errors.New("only jpeg, jpg, png, gif and webp images are allowed")
)

// AllowedImageExtensions maps accepted extensions to their MIME type.
var AllowedImageExtensions = map[string]string{
	".jpg":  "image/jpeg",
	".jpeg": "image/jpeg",
	".png":  "image/png",
	".gif":  "image/gif",
	".webp": "image/webp",
}

// ImageStore saves an image under key and returns its public URL.
type ImageStore interface {
	Put(ctx context.Context, key, contentType string, body io.Reader, size int64) (string, error)
}

// ValidateImage checks the upload size and extension and returns the
// extension and content type to store it with. A declared content type is
// ignored; the extension decides.
func ValidateImage(filename string, size int64) (ext, contentType string, err error) {
	if size > MaxImageSize {
		return "", "", ErrTooLarge
	}
	ext = strings.ToLower(path.Ext(filename))
	ct, ok := AllowedImageExtensions[ext]
	if !ok {
		return "", "", ErrUnsupportedType
	}
	return ext, ct, nil
}

// ImageKey returns a fresh object key for an image: dishes/<uuid><ext>.
func ImageKey(ext string) string {
	return path.Join(FolderDishes, uuid.NewString()+ext)
}
