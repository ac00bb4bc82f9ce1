package storage

import (
	"context"
	"fmt"
	"io"
	"os"
	"path"
	"path/filepath"
	"strings"
)

// Local stores images under a directory that the HTTP server exposes at
// publicPath.
type Local struct {
	dir        string
	publicPath string
}

// NewLocal creates the upload directory if needed.
func NewLocal(dir, publicPath string) (*Local, error) {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, fmt.Errorf("create upload dir: %w", err)
	}
	return &Local{dir: dir, publicPath: "/" + strings.Trim(publicPath, "/")}, nil
}

// Dir returns the directory files are written to.
func (l *Local) Dir() string { return l.dir }

// PublicPath returns the URL prefix the files are served under.
func (l *Local) PublicPath() string { return l.publicPath }

// Put writes body to dir/key and returns publicPath/key.
func (l *Local) Put(ctx context.Context, key, _ string, body io.Reader, _ int64) (string, error) {
	if err := ctx.Err(); err != nil {
		return "", err
	}
	clean := path.Clean("/" + key)
	dst := filepath.Join(l.dir, filepath.FromSlash(clean))
	if err := os.MkdirAll(filepath.Dir(dst), 0o755); err != nil {
		return "", fmt.Errorf("create image dir: %w", err)
	}
	f, err := os.Create(dst)
	if err != nil {
		return "", fmt.Errorf("create image: %w", err)
	}
	if _, err := io.Copy(f, body); err != nil {
		f.Close()
		os.Remove(dst)
		return "", fmt.Errorf("write image: %w", err)
	}
	if err := f.Close(); err != nil {
		return "", fmt.Errorf("close image: %w", err)
	}
	return l.publicPath + clean, nil
}
