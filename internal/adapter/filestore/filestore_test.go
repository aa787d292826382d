package filestore

import (
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const (
	pngHeader  = "\x89PNG\r\n\x1a\n"
	jpegHeader = "\xff\xd8\xff\xe0"
	gifHeader  = "GIF89a"
	webpHeader = "RIFF\x00\x00\x00\x00WEBPVP8 "
)

func imageEntries(t *testing.T, root string) []os.DirEntry {
	t.Helper()
	entries, err := os.ReadDir(filepath.Join(root, "images"))
	require.NoError(t, err)
	return entries
}

func TestSaveImage(t *testing.T) {
	root := t.TempDir()
	store, err := New(root, 1024)
	require.NoError(t, err)

	content := pngHeader + "pixels"
	stored, err := store.SaveImage(strings.NewReader(content))
	require.NoError(t, err)

	assert.Equal(t, "images/"+stored.ID.String()+".png", stored.Path)
	assert.Equal(t, "image/png", stored.ContentType)
	assert.Equal(t, int64(len(content)), stored.Size)

	data, err := os.ReadFile(filepath.Join(root, filepath.FromSlash(stored.Path)))
	require.NoError(t, err)
	assert.Equal(t, content, string(data))
}

func TestSaveImage_ExtensionFromSniffedType(t *testing.T) {
	tests := []struct {
		name        string
		content     string
		contentType string
		ext         string
	}{
		{"png", pngHeader, "image/png", ".png"},
		{"jpeg", jpegHeader, "image/jpeg", ".jpg"},
		{"gif", gifHeader, "image/gif", ".gif"},
		{"webp", webpHeader, "image/webp", ".webp"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			store, err := New(t.TempDir(), 1024)
			require.NoError(t, err)

			stored, err := store.SaveImage(strings.NewReader(tt.content + strings.Repeat("x", 600)))
			require.NoError(t, err)
			assert.Equal(t, tt.contentType, stored.ContentType)
			assert.Equal(t, tt.ext, filepath.Ext(stored.Path))
		})
	}
}

func TestSaveImage_RejectsNonImages(t *testing.T) {
	tests := map[string]string{
		"html":  "<html><script>alert(1)</script></html>",
		"svg":   `<svg xmlns="http://www.w3.org/2000/svg"><script>alert(1)</script></svg>`,
		"js":    "fetch('/api/rpc')",
		"empty": "",
	}

	for name, content := range tests {
		t.Run(name, func(t *testing.T) {
			root := t.TempDir()
			store, err := New(root, 1024)
			require.NoError(t, err)

			_, err = store.SaveImage(strings.NewReader(content))
			assert.ErrorIs(t, err, ErrUnsupportedType)
			assert.Empty(t, imageEntries(t, root))
		})
	}
}

func TestSaveImage_TooLargeLeavesNoFile(t *testing.T) {
	root := t.TempDir()
	store, err := New(root, 10)
	require.NoError(t, err)

	_, err = store.SaveImage(strings.NewReader(jpegHeader + "1234567"))
	assert.ErrorIs(t, err, ErrTooLarge)
	assert.Empty(t, imageEntries(t, root))
}

func TestRemove(t *testing.T) {
	store, err := New(t.TempDir(), 1024)
	require.NoError(t, err)
	stored, err := store.SaveImage(strings.NewReader(gifHeader))
	require.NoError(t, err)

	require.NoError(t, store.Remove(stored.Path))
	require.NoError(t, store.Remove(stored.Path))
}
