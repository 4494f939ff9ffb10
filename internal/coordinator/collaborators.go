package coordinator

import (
	"time"

	"github.com/paulmach/orb"

	"github.com/kozaktomas/seichi-gallery/internal/catalog"
	"github.com/kozaktomas/seichi-gallery/internal/geo"
)

// View is anything the coordinator can make visible or hide.
type View interface {
	Show()
	Hide()
}

// GalleryView renders the filtered photo grid.
type GalleryView interface {
	View
	Render(photos []catalog.Photo)
}

// Marker is one plotted photo with the data its popup shows.
type Marker struct {
	PhotoID       int        `json:"photo_id"`
	Position      geo.LatLng `json:"position"`
	Title         string     `json:"title"`
	AnimeTitle    string     `json:"anime_title"`
	Thumbnail     string     `json:"thumbnail"`
	StreetViewURL string     `json:"street_view_url"`
}

// MarkerPlot is the full marker set of one plot pass. EmptyNotice is set when
// nothing could be plotted.
type MarkerPlot struct {
	Markers     []Marker `json:"markers"`
	EmptyNotice string   `json:"empty_notice,omitempty"`
}

// MapWidget is the main map. Popups are owned by the widget and rebuilt on every plot pass.
type MapWidget interface {
	View
	// EnsureCreated creates the map on first use, later calls do nothing.
	EnsureCreated()
	// Reset forgets the map so the next EnsureCreated creates it again.
	Reset()
	// SetMarkers replaces every marker in one step.
	SetMarkers(plot MarkerPlot)
	SetView(v geo.Viewport)
	FitBounds(b orb.Bound, padding float64)
	// Viewport returns the current center and zoom, ok is false before the map exists.
	Viewport() (geo.Viewport, bool)
	// VisibleBounds returns the area currently on screen.
	VisibleBounds() (orb.Bound, bool)
	InvalidateSize()
	// OpenPopup opens the popup of a plotted marker, false when no such marker exists.
	OpenPopup(photoID int) bool
	ClosePopup()
}

// ViewportSyncer is implemented by map widgets whose viewport can change without a
// coordinator command, for example when the user drags the map.
type ViewportSyncer interface {
	SyncViewport(v geo.Viewport, size geo.Size)
}

// DetailPanel shows a single photo pair.
type DetailPanel interface {
	View
	Render(model DetailModel)
	SetPresentation(p Presentation)
	// Teardown releases the mini-map and clears inputs. It also hides the panel.
	Teardown()
}

// Scheduler runs f once after d. Callbacks may run on another goroutine.
type Scheduler interface {
	AfterFunc(d time.Duration, f func())
}

// WallClock schedules with time.AfterFunc.
type WallClock struct{}

// AfterFunc implements Scheduler.
func (WallClock) AfterFunc(d time.Duration, f func()) {
	time.AfterFunc(d, f)
}
