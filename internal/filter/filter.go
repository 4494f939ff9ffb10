// Package filter holds the active anime filter and the list of selectable filters.
package filter

import (
	"sort"
	"strings"

	"golang.org/x/text/collate"
	"golang.org/x/text/language"

	"github.com/kozaktomas/seichi-gallery/internal/catalog"
)

// All is the sentinel tag meaning "no restriction".
const All = "all"

// AllDisplay is the label of the unrestricted filter.
const AllDisplay = "すべて"

// Option is one selectable filter.
type Option struct {
	Tag     string `json:"tag"`
	Display string `json:"display"`
}

// State is the filter selection for one session. It is not safe for concurrent use.
type State struct {
	options []Option
	known   map[string]struct{}
	active  string
}

// New derives the selectable options from photos. The active filter starts at All.
func New(photos []catalog.Photo) *State {
	options := BuildOptions(photos)
	known := make(map[string]struct{}, len(options))
	for _, o := range options {
		known[o.Tag] = struct{}{}
	}
	return &State{options: options, known: known, active: All}
}

// BuildOptions collects one option per non-empty tag, using the first display name seen,
// sorted by display name in Japanese collation order. Ties keep manifest order.
func BuildOptions(photos []catalog.Photo) []Option {
	seen := make(map[string]struct{})
	var options []Option
	for i := range photos {
		tag := photos[i].AnimeFilterTag
		if tag == "" {
			continue
		}
		if _, ok := seen[tag]; ok {
			continue
		}
		seen[tag] = struct{}{}
		options = append(options, Option{Tag: tag, Display: photos[i].AnimeTitleDisplay})
	}

	col := collate.New(language.Japanese)
	sort.SliceStable(options, func(a, b int) bool {
		return col.CompareString(options[a].Display, options[b].Display) < 0
	})
	return options
}

// Options returns the anime filters without the All entry.
func (s *State) Options() []Option {
	out := make([]Option, len(s.options))
	copy(out, s.options)
	return out
}

// Choices returns the All entry followed by every anime filter, as shown in the filter list.
func (s *State) Choices() []Option {
	out := make([]Option, 0, len(s.options)+1)
	out = append(out, Option{Tag: All, Display: AllDisplay})
	return append(out, s.options...)
}

// SetActive selects a filter. Empty and unknown tags select All.
func (s *State) SetActive(tag string) {
	s.active = s.normalize(tag)
}

// Active returns the selected tag, never empty.
func (s *State) Active() string {
	return s.active
}

// IsKnown reports whether tag is All or one of the derived options.
func (s *State) IsKnown(tag string) bool {
	if tag == All {
		return true
	}
	_, ok := s.known[tag]
	return ok
}

func (s *State) normalize(tag string) string {
	tag = strings.TrimSpace(tag)
	if tag == "" || !s.IsKnown(tag) {
		return All
	}
	return tag
}

// Apply returns the photos matching the active filter, in their original order.
// The result is always a new slice.
func (s *State) Apply(photos []catalog.Photo) []catalog.Photo {
	return applyTag(photos, s.active)
}

func applyTag(photos []catalog.Photo, tag string) []catalog.Photo {
	out := make([]catalog.Photo, 0, len(photos))
	for i := range photos {
		if tag == All || tag == "" || photos[i].AnimeFilterTag == tag {
			out = append(out, photos[i])
		}
	}
	return out
}
