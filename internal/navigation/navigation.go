// Package navigation builds the ordered photo sets that back prev/next traversal in the detail view.
package navigation

import "github.com/kozaktomas/seichi-gallery/internal/catalog"

// Source is the view a detail session was opened from.
type Source string

// Source values. The zero value behaves like SourceGallery.
const (
	SourceGallery Source = "gallery"
	SourceMap     Source = "map"
)

// Set is an immutable ordered sequence of photos with the position of the current one.
// Current is -1 when the displayed photo is not part of the set.
type Set struct {
	Source  Source          `json:"source"`
	Photos  []catalog.Photo `json:"photos"`
	Current int             `json:"current"`
}

// BuildSet creates the navigation set for source. A map set holds the plotted photos,
// re-filtered to those with a location; any other source uses the filtered photos as is.
func BuildSet(source Source, filtered, plotted []catalog.Photo) Set {
	if source == SourceMap {
		photos := make([]catalog.Photo, 0, len(plotted))
		for i := range plotted {
			if plotted[i].HasLocation() {
				photos = append(photos, plotted[i])
			}
		}
		return Set{Source: SourceMap, Photos: photos, Current: -1}
	}

	photos := make([]catalog.Photo, len(filtered))
	copy(photos, filtered)
	return Set{Source: SourceGallery, Photos: photos, Current: -1}
}

// WithCurrent returns a copy of the set positioned on id, -1 when id is absent.
func (s Set) WithCurrent(id int) Set {
	s.Current = s.IndexOf(id)
	return s
}

// Len returns the number of photos.
func (s Set) Len() int {
	return len(s.Photos)
}

// IndexOf returns the position of id, or -1.
func (s Set) IndexOf(id int) int {
	for i := range s.Photos {
		if s.Photos[i].ID == id {
			return i
		}
	}
	return -1
}

// At returns the photo at index.
func (s Set) At(index int) (catalog.Photo, bool) {
	if index < 0 || index >= len(s.Photos) {
		return catalog.Photo{}, false
	}
	return s.Photos[index], true
}

// Next returns the following index. ok is false at the end or for an invalid index.
func (s Set) Next(index int) (int, bool) {
	if index < 0 || index+1 >= len(s.Photos) {
		return index, false
	}
	return index + 1, true
}

// Previous returns the preceding index. ok is false at the start or for an invalid index.
func (s Set) Previous(index int) (int, bool) {
	if index <= 0 || index >= len(s.Photos) {
		return index, false
	}
	return index - 1, true
}

// IDs returns the photo ids in order.
func (s Set) IDs() []int {
	out := make([]int, len(s.Photos))
	for i := range s.Photos {
		out[i] = s.Photos[i].ID
	}
	return out
}
