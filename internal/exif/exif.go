// Package exif reads the raw GPS and capture-time tags of an image for the geotime extractor.
// Images are fetched over HTTP(S) or from the local filesystem.
package exif

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"image"
	_ "image/gif"  // register GIF decoder
	_ "image/jpeg" // register JPEG decoder
	_ "image/png"  // register PNG decoder
	"io"
	"math"
	"net/http"
	"os"
	"strings"
	"time"

	goexif "github.com/rwcarlsen/goexif/exif"
	"github.com/rwcarlsen/goexif/tiff"
	_ "golang.org/x/image/bmp"  // register BMP decoder
	_ "golang.org/x/image/tiff" // register TIFF decoder
	_ "golang.org/x/image/webp" // register WebP decoder

	"github.com/kozaktomas/seichi-gallery/internal/constants"
	"github.com/kozaktomas/seichi-gallery/internal/geotime"
)

// ErrNotImage is returned when the fetched bytes are not a decodable image.
var ErrNotImage = errors.New("not a decodable image")

// Reader implements geotime.TagSource.
type Reader struct {
	client  *http.Client
	timeout time.Duration
}

// NewReader creates a reader with the given per-image timeout.
// A zero timeout uses constants.DefaultExifTimeout.
func NewReader(client *http.Client, timeout time.Duration) *Reader {
	if client == nil {
		client = http.DefaultClient
	}
	if timeout <= 0 {
		timeout = constants.DefaultExifTimeout
	}
	return &Reader{client: client, timeout: timeout}
}

// ReadTags fetches the image behind locator and returns its raw tags.
// An image without EXIF yields empty tags and no error.
func (r *Reader) ReadTags(ctx context.Context, locator string) (geotime.RawTags, error) {
	ctx, cancel := context.WithTimeout(ctx, r.timeout)
	defer cancel()

	data, err := r.fetch(ctx, locator)
	if err != nil {
		return geotime.RawTags{}, err
	}

	if _, _, err := image.DecodeConfig(bytes.NewReader(data)); err != nil {
		return geotime.RawTags{}, fmt.Errorf("%s: %w", locator, ErrNotImage)
	}

	return decodeTags(data), nil
}

func (r *Reader) fetch(ctx context.Context, locator string) ([]byte, error) {
	if isRemote(locator) {
		return r.fetchHTTP(ctx, locator)
	}
	return readFile(locator)
}

func (r *Reader) fetchHTTP(ctx context.Context, url string) ([]byte, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return nil, fmt.Errorf("could not create request: %w", err)
	}

	resp, err := r.client.Do(req) //nolint:gosec // locator comes from the manifest
	if err != nil {
		return nil, fmt.Errorf("could not fetch image: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return nil, fmt.Errorf("fetching %s failed with status %d", url, resp.StatusCode)
	}

	data, err := io.ReadAll(io.LimitReader(resp.Body, constants.MaxImageBytes))
	if err != nil {
		return nil, fmt.Errorf("could not read image body: %w", err)
	}
	return data, nil
}

func readFile(path string) ([]byte, error) {
	path = strings.TrimPrefix(path, "file://")
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("could not open image: %w", err)
	}
	defer f.Close()

	data, err := io.ReadAll(io.LimitReader(f, constants.MaxImageBytes))
	if err != nil {
		return nil, fmt.Errorf("could not read image: %w", err)
	}
	return data, nil
}

func isRemote(locator string) bool {
	return strings.HasPrefix(locator, "http://") || strings.HasPrefix(locator, "https://")
}

// decodeTags extracts the GPS and DateTimeOriginal tags. Malformed EXIF segments
// can make the decoder panic, those are treated the same as missing EXIF.
func decodeTags(data []byte) (tags geotime.RawTags) {
	defer func() {
		if rec := recover(); rec != nil {
			tags = geotime.RawTags{}
		}
	}()

	// Non-critical decode errors still return usable tags.
	x, _ := goexif.Decode(bytes.NewReader(data))
	if x == nil {
		return geotime.RawTags{}
	}

	tags.GPSLatitude = rationalTuple(x, goexif.GPSLatitude)
	tags.GPSLongitude = rationalTuple(x, goexif.GPSLongitude)
	tags.GPSLatitudeRef = stringTag(x, goexif.GPSLatitudeRef)
	tags.GPSLongitudeRef = stringTag(x, goexif.GPSLongitudeRef)
	tags.DateTimeOriginal = stringTag(x, goexif.DateTimeOriginal)
	return tags
}

// rationalTuple returns every rational component of the tag, nil when absent.
// The component count is left for geotime to validate.
func rationalTuple(x *goexif.Exif, name goexif.FieldName) []float64 {
	tag, err := x.Get(name)
	if err != nil || tag == nil || tag.Format() != tiff.RatVal {
		return nil
	}

	values := make([]float64, 0, tag.Count)
	for i := 0; i < int(tag.Count); i++ {
		num, den, err := tag.Rat2(i)
		if err != nil {
			return nil
		}
		if den == 0 {
			values = append(values, math.NaN())
			continue
		}
		values = append(values, float64(num)/float64(den))
	}
	return values
}

func stringTag(x *goexif.Exif, name goexif.FieldName) string {
	tag, err := x.Get(name)
	if err != nil || tag == nil {
		return ""
	}
	s, err := tag.StringVal()
	if err != nil {
		return ""
	}
	return strings.TrimRight(s, "\x00")
}
