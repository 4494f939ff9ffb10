package exif

import (
	"bytes"
	"context"
	"image"
	"image/color"
	"image/jpeg"
	"image/png"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/kozaktomas/seichi-gallery/internal/geotime"
)

func testImage() *image.RGBA {
	img := image.NewRGBA(image.Rect(0, 0, 4, 4))
	for x := 0; x < 4; x++ {
		for y := 0; y < 4; y++ {
			img.Set(x, y, color.RGBA{R: uint8(x * 60), G: uint8(y * 60), B: 128, A: 255})
		}
	}
	return img
}

func jpegBytes(t *testing.T) []byte {
	t.Helper()
	var buf bytes.Buffer
	require.NoError(t, jpeg.Encode(&buf, testImage(), nil))
	return buf.Bytes()
}

func pngBytes(t *testing.T) []byte {
	t.Helper()
	var buf bytes.Buffer
	require.NoError(t, png.Encode(&buf, testImage()))
	return buf.Bytes()
}

func TestReadTags_HTTPImageWithoutExif(t *testing.T) {
	data := jpegBytes(t)
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "image/jpeg")
		_, _ = w.Write(data)
	}))
	defer server.Close()

	tags, err := NewReader(server.Client(), time.Second).ReadTags(context.Background(), server.URL+"/real/1.jpg")

	require.NoError(t, err)
	assert.Equal(t, geotime.RawTags{}, tags)
}

func TestReadTags_HTTPNotFound(t *testing.T) {
	server := httptest.NewServer(http.NotFoundHandler())
	defer server.Close()

	_, err := NewReader(server.Client(), time.Second).ReadTags(context.Background(), server.URL+"/missing.jpg")

	require.Error(t, err)
	assert.Contains(t, err.Error(), "404")
}

func TestReadTags_NotAnImage(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte("<html>not an image</html>"))
	}))
	defer server.Close()

	_, err := NewReader(server.Client(), time.Second).ReadTags(context.Background(), server.URL+"/page.jpg")

	require.ErrorIs(t, err, ErrNotImage)
}

func TestReadTags_File(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "real.png")
	require.NoError(t, os.WriteFile(path, pngBytes(t), 0o600))

	tags, err := NewReader(nil, 0).ReadTags(context.Background(), path)

	require.NoError(t, err)
	assert.Empty(t, tags.DateTimeOriginal)
	assert.Nil(t, tags.GPSLatitude)
}

func TestReadTags_FileURL(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "real.jpg")
	require.NoError(t, os.WriteFile(path, jpegBytes(t), 0o600))

	_, err := NewReader(nil, 0).ReadTags(context.Background(), "file://"+path)

	require.NoError(t, err)
}

func TestReadTags_MissingFile(t *testing.T) {
	_, err := NewReader(nil, 0).ReadTags(context.Background(), filepath.Join(t.TempDir(), "nope.jpg"))

	require.Error(t, err)
}

func TestReadTags_FeedsExtractor(t *testing.T) {
	server := httptest.NewServer(http.NotFoundHandler())
	defer server.Close()

	extractor := geotime.NewExtractor(NewReader(server.Client(), time.Second))
	info := extractor.Extract(context.Background(), server.URL+"/gone.jpg")

	assert.Equal(t, []geotime.Issue{geotime.IssueImageLoadFailed}, info.Issues)
}

func TestDecodeTags_Garbage(t *testing.T) {
	tests := []struct {
		name string
		data []byte
	}{
		{"empty", nil},
		{"random bytes", []byte{0xff, 0xd8, 0xff, 0xe1, 0x00, 0x10, 'E', 'x', 'i', 'f', 0, 0, 'M', 'M', 0, 42}},
		{"text", []byte("hello")},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, geotime.RawTags{}, decodeTags(tt.data))
		})
	}
}

func TestIsRemote(t *testing.T) {
	assert.True(t, isRemote("http://example.com/a.jpg"))
	assert.True(t, isRemote("https://example.com/a.jpg"))
	assert.False(t, isRemote("images/a.jpg"))
	assert.False(t, isRemote("file:///tmp/a.jpg"))
}
