package uploads_test

import (
	"context"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"portfolio/internal/uploads"
)

func TestDiskStore(t *testing.T) {
	ctx := context.Background()
	root := filepath.Join(t.TempDir(), "uploads")

	store, err := uploads.NewDiskStore(root, "/uploads/")
	require.NoError(t, err)

	t.Run("put open and list", func(t *testing.T) {
		url, err := store.Put(ctx, "photo-1.png", strings.NewReader("image-bytes"), "image/png")
		require.NoError(t, err)
		assert.Equal(t, "/uploads/photo-1.png", url)

		path, err := store.Open("photo-1.png")
		require.NoError(t, err)
		data, err := os.ReadFile(path)
		require.NoError(t, err)
		assert.Equal(t, "image-bytes", string(data))

		objects, err := store.List(ctx)
		require.NoError(t, err)
		require.Len(t, objects, 1)
		assert.Equal(t, "photo-1.png", objects[0].Key)
		assert.Equal(t, int64(len("image-bytes")), objects[0].Size)
	})

	t.Run("put overwrites", func(t *testing.T) {
		_, err := store.Put(ctx, "photo-1.png", strings.NewReader("v2"), "image/png")
		require.NoError(t, err)

		path, err := store.Open("photo-1.png")
		require.NoError(t, err)
		data, err := os.ReadFile(path)
		require.NoError(t, err)
		assert.Equal(t, "v2", string(data))
	})

	t.Run("list skips hidden files", func(t *testing.T) {
		require.NoError(t, os.WriteFile(filepath.Join(root, ".upload-123"), []byte("partial"), 0o644))

		objects, err := store.List(ctx)
		require.NoError(t, err)
		for _, obj := range objects {
			assert.False(t, strings.HasPrefix(obj.Key, "."))
		}
	})

	t.Run("invalid keys", func(t *testing.T) {
		for _, key := range []string{"", "../escape.pdf", "nested/key.pdf", ".hidden"} {
			_, err := store.Put(ctx, key, strings.NewReader("x"), "application/pdf")
			assert.ErrorIs(t, err, uploads.ErrInvalidKey, key)

			_, err = store.Open(key)
			assert.ErrorIs(t, err, uploads.ErrInvalidKey, key)
		}
	})

	t.Run("delete", func(t *testing.T) {
		require.NoError(t, store.Delete(ctx, "photo-1.png"))

		_, err := store.Open("photo-1.png")
		assert.ErrorIs(t, err, uploads.ErrObjectNotFound)

		assert.ErrorIs(t, store.Delete(ctx, "photo-1.png"), uploads.ErrObjectNotFound)
	})

	t.Run("cancelled context aborts put", func(t *testing.T) {
		cancelled, cancel := context.WithCancel(ctx)
		cancel()

		_, err := store.Put(cancelled, "cv_en-1.pdf", strings.NewReader("%PDF-1.7"), "application/pdf")
		assert.ErrorIs(t, err, context.Canceled)

		_, err = store.Open("cv_en-1.pdf")
		assert.ErrorIs(t, err, uploads.ErrObjectNotFound)
	})
}

func TestDetectType(t *testing.T) {
	pdf := []byte("%PDF-1.7\n%âãÏÓ\n1 0 obj")
	png := []byte("\x89PNG\r\n\x1a\n\x00\x00\x00\rIHDR")
	jpeg := []byte("\xff\xd8\xff\xe0\x00\x10JFIF\x00")

	tests := []struct {
		name     string
		kind     string
		head     []byte
		wantExt  string
		wantErr  error
		wantType string
	}{
		{name: "cv pdf", kind: "cv_fr", head: pdf, wantExt: ".pdf", wantType: "application/pdf"},
		{name: "photo png", kind: "photo", head: png, wantExt: ".png", wantType: "image/png"},
		{name: "photo jpeg", kind: "photo", head: jpeg, wantExt: ".jpg", wantType: "image/jpeg"},
		{name: "image as cv", kind: "cv_en", head: png, wantErr: uploads.ErrUnsupportedType},
		{name: "pdf as photo", kind: "photo", head: pdf, wantErr: uploads.ErrUnsupportedType},
		{name: "text as photo", kind: "photo", head: []byte("hello"), wantErr: uploads.ErrUnsupportedType},
		{name: "unknown kind", kind: "avatar", head: png, wantErr: uploads.ErrInvalidKind},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			contentType, ext, err := uploads.DetectType(tt.kind, tt.head)
			if tt.wantErr != nil {
				assert.ErrorIs(t, err, tt.wantErr)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.wantExt, ext)
			assert.Equal(t, tt.wantType, contentType)
		})
	}
}

func TestNewKey(t *testing.T) {
	first := uploads.NewKey("photo", ".png")
	second := uploads.NewKey("photo", ".png")

	assert.True(t, strings.HasPrefix(first, "photo-"))
	assert.True(t, strings.HasSuffix(first, ".png"))
	assert.NotEqual(t, first, second)
	assert.True(t, uploads.IsValidKind("cv_ar"))
	assert.False(t, uploads.IsValidKind("cv_de"))
}
