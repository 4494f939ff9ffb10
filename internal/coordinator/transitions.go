package coordinator

import (
	"errors"
	"fmt"
	"strconv"

	"github.com/paulmach/orb"
	"go.uber.org/zap"

	"github.com/kozaktomas/seichi-gallery/internal/catalog"
	"github.com/kozaktomas/seichi-gallery/internal/geo"
	"github.com/kozaktomas/seichi-gallery/internal/navigation"
)

// ShowGallery switches to the gallery.
func (c *Coordinator) ShowGallery() {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.showGallery()
}

// ShowMap switches to the map. Calling it while the map is shown re-runs the activation.
func (c *Coordinator) ShowMap() {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.showMap()
}

// OpenDetail shows the photo with the given id. Unknown ids leave the state untouched.
func (c *Coordinator) OpenDetail(id int) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.openDetail(id)
}

// SetFilter changes the active filter and refreshes the current view.
// A filter change in Detail returns to the gallery.
func (c *Coordinator) SetFilter(tag string) {
	c.mu.Lock()
	defer c.mu.Unlock()

	c.filter.SetActive(tag)
	c.filtered = c.filter.Apply(c.all)
	c.lastDetailLoc = nil
	c.lastDetailID = nil
	c.log.Debug("filter changed", zap.String("filter", c.filter.Active()), zap.String("view", string(c.current)))

	switch c.current {
	case ViewGallery:
		c.gallery.Render(c.filtered)
	case ViewMap:
		c.pendingFit = true
		c.showMap()
	case ViewDetail:
		c.showGallery()
	}
}

// ToggleMainView flips between gallery and map. It does nothing in Detail.
func (c *Coordinator) ToggleMainView() {
	c.mu.Lock()
	defer c.mu.Unlock()

	switch c.current {
	case ViewGallery:
		c.pendingFit = false
		c.showMap()
	case ViewMap:
		c.showGallery()
	}
}

// MarkerClicked opens the photo behind a map popup and closes the popup.
// Clicks arriving after the map was left are ignored.
func (c *Coordinator) MarkerClicked(id int) error {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.current != ViewMap {
		return nil
	}
	if err := c.openDetail(id); err != nil {
		return err
	}
	c.mapw.ClosePopup()
	return nil
}

// ReportViewport records a viewport reported by the map itself. It is accepted only
// while the map is visible.
func (c *Coordinator) ReportViewport(v geo.Viewport, size geo.Size) bool {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.current != ViewMap {
		return false
	}
	syncer, ok := c.mapw.(ViewportSyncer)
	if !ok {
		return false
	}
	syncer.SyncViewport(v, size)
	return true
}

func (c *Coordinator) showGallery() {
	prev := c.current
	if prev == ViewMap {
		c.captureViewport()
	}

	c.current = ViewGallery
	c.filtered = c.filter.Apply(c.all)
	c.clearDetail()
	c.log.Debug("showing gallery", zap.String("from", string(prev)), zap.Int("photos", len(c.filtered)))

	if prev == ViewDetail {
		c.detail.Teardown()
	} else {
		c.detail.Hide()
	}
	c.mapw.Hide()
	c.gallery.Render(c.filtered)
	c.gallery.Show()
}

// mapPlan is the viewport chosen for one map activation.
type mapPlan struct {
	viewport geo.Viewport
	fit      bool
	bound    orb.Bound
}

func (c *Coordinator) showMap() {
	prev := c.current
	if prev == ViewMap {
		c.captureViewport()
	}

	c.current = ViewMap
	c.filtered = c.filter.Apply(c.all)
	c.plotted = locatedOnly(c.filtered)
	c.clearDetail()
	c.mapGeneration++
	generation := c.mapGeneration

	plan := c.planViewport(prev == ViewDetail)
	c.firstMapLoadDone = true
	c.pendingFit = false
	if !plan.fit {
		c.mapViewport = plan.viewport
	}

	activate := -1
	if prev == ViewDetail && c.lastDetailID != nil {
		activate = *c.lastDetailID
	}
	c.lastDetailLoc = nil
	c.lastDetailID = nil

	c.log.Debug("showing map",
		zap.String("from", string(prev)),
		zap.Int("markers", len(c.plotted)),
		zap.Bool("fit", plan.fit),
		zap.Uint64("generation", generation))

	if prev == ViewDetail {
		c.detail.Teardown()
	} else {
		c.detail.Hide()
	}
	c.gallery.Hide()
	c.mapw.EnsureCreated()
	c.mapw.SetMarkers(c.markerPlot())
	c.mapw.Show()
	c.scheduleInvalidate(generation)

	if plan.fit {
		c.mapw.FitBounds(plan.bound, c.settings.FitPadding)
		if v, ok := c.mapw.Viewport(); ok {
			c.mapViewport = v
		}
	} else {
		c.mapw.SetView(plan.viewport)
	}

	if activate >= 0 {
		c.sched.AfterFunc(c.settings.MarkerActivationDelay, func() {
			c.whileMapActive(generation, func() { c.activateMarker(activate) })
		})
	}
}

func (c *Coordinator) markerPlot() MarkerPlot {
	plot := MarkerPlot{Markers: make([]Marker, 0, len(c.plotted))}
	for i := range c.plotted {
		plot.Markers = append(plot.Markers, markerFor(c.plotted[i]))
	}
	if len(plot.Markers) == 0 {
		plot.EmptyNotice = noMarkersText
	}
	return plot
}

func (c *Coordinator) scheduleInvalidate(generation uint64) {
	c.sched.AfterFunc(c.settings.InvalidateDelay, func() {
		c.whileMapActive(generation, c.mapw.InvalidateSize)
	})
}

// planViewport applies the activation precedence: detail return, first display,
// pending fit, then the remembered viewport.
func (c *Coordinator) planViewport(fromDetail bool) mapPlan {
	switch {
	case fromDetail && c.lastDetailLoc != nil:
		return mapPlan{viewport: geo.Viewport{Center: *c.lastDetailLoc, Zoom: c.settings.DetailReturnZoom}}
	case !c.firstMapLoadDone:
		return mapPlan{viewport: geo.Viewport{Center: c.settings.DefaultCenter, Zoom: c.settings.DefaultZoom}}
	case c.pendingFit:
		if bound, ok := geo.BoundOf(locations(c.plotted)); ok {
			return mapPlan{fit: true, bound: bound}
		}
		return mapPlan{viewport: c.mapViewport}
	default:
		return mapPlan{viewport: c.mapViewport}
	}
}

// whileMapActive runs f only if the map activation that scheduled it is still current.
func (c *Coordinator) whileMapActive(generation uint64, f func()) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.current != ViewMap || c.mapGeneration != generation {
		c.log.Debug("dropping stale map callback", zap.Uint64("generation", generation))
		return
	}
	f()
}

func (c *Coordinator) activateMarker(id int) {
	var target *catalog.Photo
	for i := range c.plotted {
		if c.plotted[i].ID == id {
			target = &c.plotted[i]
			break
		}
	}
	if target == nil {
		c.log.Warn("marker not plotted", zap.Int("photo_id", id))
		return
	}
	lat, lng, _ := target.Location()
	pos := geo.LatLng{Lat: lat, Lng: lng}

	c.mapw.ClosePopup()
	if bound, ok := c.mapw.VisibleBounds(); !ok || !geo.Contains(bound, pos) {
		zoom := c.settings.MarkerFocusZoom
		if v, ok := c.mapw.Viewport(); ok && v.Zoom > zoom {
			zoom = v.Zoom
		}
		c.mapw.SetView(geo.Viewport{Center: pos, Zoom: zoom})
	}
	c.mapw.OpenPopup(id)
}

func (c *Coordinator) captureViewport() {
	if v, ok := c.mapw.Viewport(); ok {
		c.mapViewport = v
	}
}

// Redraw renders the current view again for a renderer that lost its widgets, for
// example a browser that reconnected. The view state does not change, open map
// popups are not restored.
func (c *Coordinator) Redraw() {
	c.mu.Lock()
	defer c.mu.Unlock()

	viewport := c.mapViewport
	if v, ok := c.mapw.Viewport(); ok && c.current == ViewMap {
		viewport = v
	}
	c.mapw.Reset()
	c.log.Debug("redrawing", zap.String("view", string(c.current)))

	switch c.current {
	case ViewGallery:
		c.detail.Hide()
		c.mapw.Hide()
		c.gallery.Render(c.filtered)
		c.gallery.Show()
	case ViewMap:
		c.detail.Hide()
		c.gallery.Hide()
		c.mapw.EnsureCreated()
		c.mapw.SetMarkers(c.markerPlot())
		c.mapw.Show()
		c.mapw.SetView(viewport)
		c.scheduleInvalidate(c.mapGeneration)
	case ViewDetail:
		c.gallery.Hide()
		c.mapw.Hide()
		c.detail.Render(c.detailModel())
		c.detail.SetPresentation(c.presentation())
		c.detail.Show()
	}
}

func (c *Coordinator) openDetail(id int) error {
	photo, ok := c.catalog.ByID(id)
	if !ok {
		err := &PhotoNotFoundError{ID: id}
		c.log.Error("cannot open detail", zap.Int("photo_id", id), zap.Error(err))
		return err
	}

	prev := c.current
	if prev != ViewDetail {
		if prev == ViewMap {
			c.captureViewport()
		}
		c.previousView = prev
	}

	source := navigation.SourceGallery
	if c.previousView == ViewMap {
		source = navigation.SourceMap
	}
	c.filtered = c.filter.Apply(c.all)
	set := navigation.BuildSet(source, c.filtered, c.plotted).WithCurrent(photo.ID)

	if lat, lng, located := photo.Location(); located {
		c.lastDetailLoc = &geo.LatLng{Lat: lat, Lng: lng}
	} else {
		c.lastDetailLoc = nil
	}
	photoID := photo.ID
	c.lastDetailID = &photoID

	c.current = ViewDetail
	c.detailPhoto = &photo
	c.detailSet = set
	c.sideBySide = false
	c.showingReal = true

	c.log.Debug("opening detail",
		zap.Int("photo_id", id),
		zap.String("from", string(prev)),
		zap.String("navigation", string(set.Source)),
		zap.Int("index", set.Current))

	c.gallery.Hide()
	c.mapw.Hide()
	c.detail.Render(c.detailModel())
	c.detail.SetPresentation(c.presentation())
	c.detail.Show()
	return nil
}

func (c *Coordinator) clearDetail() {
	c.detailPhoto = nil
	c.detailSet = navigation.Set{}
	c.sideBySide = false
	c.showingReal = true
}

func locatedOnly(photos []catalog.Photo) []catalog.Photo {
	out := make([]catalog.Photo, 0, len(photos))
	for i := range photos {
		if photos[i].HasLocation() {
			out = append(out, photos[i])
		}
	}
	return out
}

func locations(photos []catalog.Photo) []geo.LatLng {
	out := make([]geo.LatLng, 0, len(photos))
	for i := range photos {
		if lat, lng, ok := photos[i].Location(); ok {
			out = append(out, geo.LatLng{Lat: lat, Lng: lng})
		}
	}
	return out
}

func markerFor(p catalog.Photo) Marker {
	lat, lng, _ := p.Location()
	return Marker{
		PhotoID:       p.ID,
		Position:      geo.LatLng{Lat: lat, Lng: lng},
		Title:         p.Title,
		AnimeTitle:    p.AnimeTitleDisplay,
		Thumbnail:     p.RealSrc,
		StreetViewURL: streetViewURL(lat, lng) + "&cbp=12,0,0,0,0",
	}
}

func streetViewURL(lat, lng float64) string {
	return fmt.Sprintf("https://www.google.com/maps?q&layer=c&cbll=%s,%s",
		strconv.FormatFloat(lat, 'f', -1, 64), strconv.FormatFloat(lng, 'f', -1, 64))
}

// IsPhotoNotFound reports whether err is a PhotoNotFoundError.
func IsPhotoNotFound(err error) bool {
	var notFound *PhotoNotFoundError
	return errors.As(err, &notFound)
}
