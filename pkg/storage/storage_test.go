package storage

import (
	"context"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestValidateImage(t *testing.T) {
	cases := []struct {
		name    string
		file    string
		size    int64
		wantExt string
		wantCT  string
		wantErr error
	}{
		{"jpeg", "photo.JPEG", 1024, ".jpeg", "image/jpeg", nil},
		{"png", "a.png", MaxImageSize, ".png", "image/png", nil},
		{"webp", "a.webp", 10, ".webp", "image/webp", nil},
		{"too large", "a.png", MaxImageSize + 1, "", "", ErrTooLarge},
		{"pdf", "menu.pdf", 10, "", "", ErrUnsupportedType},
		{"no extension", "image", 10, "", "", ErrUnsupportedType},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			ext, ct, err := ValidateImage(tc.file, tc.size)
			if tc.wantErr != nil {
				assert.ErrorIs(t, err, tc.wantErr)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tc.wantExt, ext)
			assert.Equal(t, tc.wantCT, ct)
		})
	}
}

func TestImageKeyIsUnique(t *testing.T) {
	a, b := ImageKey(".png"), ImageKey(".png")
	assert.NotEqual(t, a, b)
	assert.True(t, strings.HasPrefix(a, FolderDishes+"/"))
	assert.True(t, strings.HasSuffix(a, ".png"))
}

func TestLocalPut(t *testing.T) {
	dir := t.TempDir()
	store, err := NewLocal(dir, "uploads/")
	require.NoError(t, err)
	assert.Equal(t, "/uploads", store.PublicPath())

	url, err := store.Put(context.Background(), "dishes/a.png", "image/png", strings.NewReader("png-bytes"), 9)
	require.NoError(t, err)
	assert.Equal(t, "/uploads/dishes/a.png", url)

	b, err := os.ReadFile(filepath.Join(dir, "dishes", "a.png"))
	require.NoError(t, err)
	assert.Equal(t, "png-bytes", string(b))
}

func TestLocalPutStaysInsideDir(t *testing.T) {
	dir := t.TempDir()
	store, err := NewLocal(filepath.Join(dir, "up"), "/uploads")
	require.NoError(t, err)

	url, err := store.Put(context.Background(), "../../escape.png", "image/png", strings.NewReader("x"), 1)
	require.NoError(t, err)
	assert.Equal(t, "/uploads/escape.png", url)
	_, err = os.Stat(filepath.Join(dir, "up", "escape.png"))
	assert.NoError(t, err)
}
