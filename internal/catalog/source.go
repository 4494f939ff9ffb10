package catalog

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"os"
	"path/filepath"
	"strings"

	"github.com/kozaktomas/seichi-gallery/internal/constants"
)

// Source supplies the manifest bytes and resolves image references relative to it.
type Source interface {
	Fetch(ctx context.Context) ([]byte, error)
	// Resolve turns a manifest image reference into a locator the EXIF service can read.
	Resolve(ref string) string
	String() string
}

// NewSource picks an HTTPSource for http(s) URLs and a FileSource for everything else.
func NewSource(location string, client *http.Client) Source {
	if isURL(location) {
		return NewHTTPSource(location, client)
	}
	return NewFileSource(location)
}

func isURL(s string) bool {
	return strings.HasPrefix(s, "http://") || strings.HasPrefix(s, "https://")
}

// HTTPSource reads the manifest from a URL.
type HTTPSource struct {
	URL    string
	client *http.Client
}

// NewHTTPSource creates a manifest source for the given URL.
func NewHTTPSource(manifestURL string, client *http.Client) *HTTPSource {
	if client == nil {
		client = http.DefaultClient
	}
	return &HTTPSource{URL: manifestURL, client: client}
}

// Fetch downloads the manifest. Any non-2xx status is an error.
func (s *HTTPSource) Fetch(ctx context.Context) ([]byte, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, s.URL, nil)
	if err != nil {
		return nil, fmt.Errorf("could not create request: %w", err)
	}

	resp, err := s.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("could not send request: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return nil, fmt.Errorf("request failed with status %d", resp.StatusCode)
	}

	body, err := io.ReadAll(io.LimitReader(resp.Body, constants.MaxManifestBytes))
	if err != nil {
		return nil, fmt.Errorf("could not read response body: %w", err)
	}
	return body, nil
}

// Resolve resolves ref against the manifest URL.
func (s *HTTPSource) Resolve(ref string) string {
	base, err := url.Parse(s.URL)
	if err != nil {
		return ref
	}
	target, err := url.Parse(ref)
	if err != nil {
		return ref
	}
	return base.ResolveReference(target).String()
}

func (s *HTTPSource) String() string {
	return s.URL
}

// FileSource reads the manifest from the local filesystem.
type FileSource struct {
	Path string
}

// NewFileSource creates a manifest source for a local path.
func NewFileSource(path string) *FileSource {
	return &FileSource{Path: path}
}

// Fetch reads the manifest file.
func (s *FileSource) Fetch(_ context.Context) ([]byte, error) {
	f, err := os.Open(s.Path)
	if err != nil {
		return nil, fmt.Errorf("could not open manifest: %w", err)
	}
	defer f.Close()

	body, err := io.ReadAll(io.LimitReader(f, constants.MaxManifestBytes))
	if err != nil {
		return nil, fmt.Errorf("could not read manifest: %w", err)
	}
	return body, nil
}

// Resolve keeps URLs and absolute paths, relative refs are taken from the manifest's directory.
func (s *FileSource) Resolve(ref string) string {
	if isURL(ref) || filepath.IsAbs(ref) {
		return ref
	}
	return filepath.Join(filepath.Dir(s.Path), filepath.FromSlash(ref))
}

func (s *FileSource) String() string {
	return s.Path
}
