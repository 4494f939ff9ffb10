// Package catalog loads the photo manifest and enriches every entry with EXIF location/time data.
package catalog

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"sync"

	"github.com/kozaktomas/seichi-gallery/internal/constants"
	"github.com/kozaktomas/seichi-gallery/internal/geotime"
)

// Photo is one anime/real photo pair from the manifest.
type Photo struct {
	ID                int           `json:"id"`
	Title             string        `json:"title"`
	Description       string        `json:"description"`
	AnimeFilterTag    string        `json:"animeFilterTag"`
	AnimeTitleDisplay string        `json:"animeTitleDisplay"`
	RealSrc           string        `json:"realSrc"`
	AnimeSrc          string        `json:"animeSrc"`
	GeoTime           *geotime.Info `json:"geoTime,omitempty"`
}

// HasLocation reports whether the photo was enriched with coordinates.
func (p *Photo) HasLocation() bool {
	return p.GeoTime.HasLocation()
}

// Location returns the photo's coordinates.
func (p *Photo) Location() (lat, lng float64, ok bool) {
	return p.GeoTime.Location()
}

// Extractor yields location/time data for an image locator. It must not fail.
type Extractor interface {
	Extract(ctx context.Context, locator string) geotime.Info
}

// Options control catalog loading.
type Options struct {
	// Concurrency bounds parallel extractions, zero means constants.DefaultExtractConcurrency.
	Concurrency int
	// OnProgress is called after each extraction settles. Calls are serialized.
	OnProgress func(done, total int)
}

// Catalog is the immutable, manifest-ordered photo collection.
type Catalog struct {
	photos []Photo
	byID   map[int]int
}

// New builds a catalog from already enriched photos, keeping their order.
// For duplicate ids the first occurrence is the one returned by ByID.
func New(photos []Photo) *Catalog {
	c := &Catalog{
		photos: make([]Photo, len(photos)),
		byID:   make(map[int]int, len(photos)),
	}
	copy(c.photos, photos)
	for i := range c.photos {
		if _, exists := c.byID[c.photos[i].ID]; !exists {
			c.byID[c.photos[i].ID] = i
		}
	}
	return c
}

// Load fetches and parses the manifest, then extracts location/time data for every
// entry's real photo concurrently. It returns once every extraction has settled.
func Load(ctx context.Context, src Source, extractor Extractor, opts Options) (*Catalog, error) {
	body, err := src.Fetch(ctx)
	if err != nil {
		return nil, &ManifestLoadError{Source: src.String(), Err: err}
	}

	photos, err := parseManifest(body)
	if err != nil {
		var parseErr *ManifestParseError
		if errors.As(err, &parseErr) {
			parseErr.Source = src.String()
		}
		return nil, err
	}

	enrich(ctx, src, extractor, photos, opts)
	return New(photos), nil
}

// manifestEntry mirrors a manifest object, id is checked separately so that
// missing and non-integer ids are reported as schema errors.
type manifestEntry struct {
	ID                json.RawMessage `json:"id"`
	Title             string          `json:"title"`
	Description       string          `json:"description"`
	AnimeFilterTag    string          `json:"animeFilterTag"`
	AnimeTitleDisplay string          `json:"animeTitleDisplay"`
	RealSrc           string          `json:"realSrc"`
	AnimeSrc          string          `json:"animeSrc"`
}

func parseManifest(body []byte) ([]Photo, error) {
	var raw []json.RawMessage
	if err := json.Unmarshal(body, &raw); err != nil {
		return nil, &ManifestParseError{Entry: -1, Err: err}
	}

	photos := make([]Photo, 0, len(raw))
	for i, msg := range raw {
		var entry manifestEntry
		if err := json.Unmarshal(msg, &entry); err != nil {
			return nil, &ManifestParseError{Entry: i, Err: err}
		}
		trimmed := bytes.TrimSpace(entry.ID)
		if len(trimmed) == 0 || bytes.Equal(trimmed, []byte("null")) {
			return nil, &ManifestParseError{Entry: i, Err: errors.New("missing id")}
		}
		var id int
		if err := json.Unmarshal(trimmed, &id); err != nil {
			return nil, &ManifestParseError{Entry: i, Err: fmt.Errorf("id is not an integer: %s", trimmed)}
		}
		photos = append(photos, Photo{
			ID:                id,
			Title:             entry.Title,
			Description:       entry.Description,
			AnimeFilterTag:    entry.AnimeFilterTag,
			AnimeTitleDisplay: entry.AnimeTitleDisplay,
			RealSrc:           entry.RealSrc,
			AnimeSrc:          entry.AnimeSrc,
		})
	}
	return photos, nil
}

// enrich runs the extractor for every photo with bounded concurrency and waits for all of them.
func enrich(ctx context.Context, src Source, extractor Extractor, photos []Photo, opts Options) {
	concurrency := opts.Concurrency
	if concurrency <= 0 {
		concurrency = constants.DefaultExtractConcurrency
	}

	var (
		mu   sync.Mutex
		wg   sync.WaitGroup
		done int
	)
	sem := make(chan struct{}, concurrency)
	total := len(photos)

	for i := range photos {
		wg.Add(1)
		go func(idx int) {
			defer wg.Done()
			sem <- struct{}{}
			defer func() { <-sem }()

			info := extractor.Extract(ctx, src.Resolve(photos[idx].RealSrc))
			photos[idx].GeoTime = &info

			mu.Lock()
			done++
			if opts.OnProgress != nil {
				opts.OnProgress(done, total)
			}
			mu.Unlock()
		}(i)
	}
	wg.Wait()
}

// All returns a copy of every photo in manifest order.
func (c *Catalog) All() []Photo {
	out := make([]Photo, len(c.photos))
	copy(out, c.photos)
	return out
}

// ByID returns the first photo with the given id.
func (c *Catalog) ByID(id int) (Photo, bool) {
	idx, ok := c.byID[id]
	if !ok {
		return Photo{}, false
	}
	return c.photos[idx], true
}

// Len returns the number of photos.
func (c *Catalog) Len() int {
	return len(c.photos)
}

// Located returns the photos that have coordinates, in manifest order.
func (c *Catalog) Located() []Photo {
	out := make([]Photo, 0, len(c.photos))
	for i := range c.photos {
		if c.photos[i].HasLocation() {
			out = append(out, c.photos[i])
		}
	}
	return out
}

// Stats summarizes extraction results.
type Stats struct {
	Total         int                   `json:"total"`
	Located       int                   `json:"located"`
	WithTimestamp int                   `json:"with_timestamp"`
	WithIssues    int                   `json:"with_issues"`
	Issues        map[geotime.Issue]int `json:"issues"`
}

// Stats counts located photos, timestamped photos and occurrences of each issue.
func (c *Catalog) Stats() Stats {
	stats := Stats{
		Total:  len(c.photos),
		Issues: make(map[geotime.Issue]int),
	}
	for i := range c.photos {
		info := c.photos[i].GeoTime
		if info == nil {
			continue
		}
		if info.HasLocation() {
			stats.Located++
		}
		if info.CapturedAt != "" {
			stats.WithTimestamp++
		}
		if len(info.Issues) > 0 {
			stats.WithIssues++
		}
		for _, issue := range info.Issues {
			stats.Issues[issue]++
		}
	}
	return stats
}
