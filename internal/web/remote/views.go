package remote

import (
	"github.com/paulmach/orb"
	"go.uber.org/zap"

	"github.com/kozaktomas/seichi-gallery/internal/catalog"
	"github.com/kozaktomas/seichi-gallery/internal/coordinator"
	"github.com/kozaktomas/seichi-gallery/internal/geo"
)

// Command types.
const (
	CmdGalleryShow   = "gallery.show"
	CmdGalleryHide   = "gallery.hide"
	CmdGalleryRender = "gallery.render"

	CmdMapShow       = "map.show"
	CmdMapHide       = "map.hide"
	CmdMapCreate     = "map.create"
	CmdMapMarkersSet = "map.markers.set"
	CmdMapView       = "map.view"
	CmdMapFit        = "map.fit"
	CmdMapInvalidate = "map.invalidate"
	CmdMapPopupOpen  = "map.popup.open"
	CmdMapPopupClose = "map.popup.close"

	CmdDetailShow         = "detail.show"
	CmdDetailHide         = "detail.hide"
	CmdDetailRender       = "detail.render"
	CmdDetailPresentation = "detail.presentation"
	CmdDetailTeardown     = "detail.teardown"
)

// Gallery renders the photo grid in the browser.
type Gallery struct {
	out *Outbox
}

// NewGallery creates a gallery emitting to out.
func NewGallery(out *Outbox) *Gallery {
	return &Gallery{out: out}
}

func (g *Gallery) Show() { g.out.Emit(CmdGalleryShow, nil) }
func (g *Gallery) Hide() { g.out.Emit(CmdGalleryHide, nil) }

// Render sends the photos to show, in order.
func (g *Gallery) Render(photos []catalog.Photo) {
	if photos == nil {
		photos = []catalog.Photo{}
	}
	g.out.Emit(CmdGalleryRender, map[string]any{"photos": photos})
}

// Detail renders the single-photo view in the browser.
type Detail struct {
	out *Outbox
}

// NewDetail creates a detail panel emitting to out.
func NewDetail(out *Outbox) *Detail {
	return &Detail{out: out}
}

func (d *Detail) Show() { d.out.Emit(CmdDetailShow, nil) }
func (d *Detail) Hide() { d.out.Emit(CmdDetailHide, nil) }

func (d *Detail) Render(model coordinator.DetailModel) {
	d.out.Emit(CmdDetailRender, model)
}

func (d *Detail) SetPresentation(p coordinator.Presentation) {
	d.out.Emit(CmdDetailPresentation, p)
}

// Teardown tells the browser to drop the mini-map and hide the panel.
func (d *Detail) Teardown() {
	d.out.Emit(CmdDetailTeardown, nil)
	d.out.Emit(CmdDetailHide, nil)
}

// MapOptions configure the browser map.
type MapOptions struct {
	TileURL     string
	Attribution string
	MaxZoom     float64
	Size        geo.Size
}

// Map mirrors the browser's Leaflet map. The server cannot measure the map, so the
// viewport after a fit is estimated with the last reported container size until the
// browser reports the real view. Calls are serialized by the owning coordinator.
type Map struct {
	out      *Outbox
	opts     MapOptions
	created  bool
	viewport geo.Viewport
	markers  map[int]struct{}
}

// NewMap creates a map emitting to out.
func NewMap(out *Outbox, opts MapOptions) *Map {
	return &Map{out: out, opts: opts, markers: make(map[int]struct{})}
}

func (m *Map) Show() { m.out.Emit(CmdMapShow, nil) }
func (m *Map) Hide() { m.out.Emit(CmdMapHide, nil) }

func (m *Map) EnsureCreated() {
	if m.created {
		return
	}
	m.created = true
	m.out.Emit(CmdMapCreate, map[string]any{
		"tile_url":    m.opts.TileURL,
		"attribution": m.opts.Attribution,
		"max_zoom":    m.opts.MaxZoom,
	})
}

// Reset forgets the browser map, the viewport estimate is kept.
func (m *Map) Reset() {
	m.created = false
	clear(m.markers)
}

// SetMarkers sends the whole marker set as a single command so the browser never
// sees a cleared map without its markers.
func (m *Map) SetMarkers(plot coordinator.MarkerPlot) {
	clear(m.markers)
	for _, mk := range plot.Markers {
		m.markers[mk.PhotoID] = struct{}{}
	}
	if plot.Markers == nil {
		plot.Markers = []coordinator.Marker{}
	}
	m.out.Emit(CmdMapMarkersSet, plot)
}

func (m *Map) SetView(v geo.Viewport) {
	m.viewport = v
	m.out.Emit(CmdMapView, v)
}

// FitBounds asks the browser to fit b and records the estimated result.
func (m *Map) FitBounds(b orb.Bound, padding float64) {
	m.viewport = geo.Fit(geo.Pad(b, padding), m.opts.Size, m.opts.MaxZoom)
	m.out.Emit(CmdMapFit, map[string]any{
		"south_west": geo.FromPoint(b.Min),
		"north_east": geo.FromPoint(b.Max),
		"padding":    padding,
		"max_zoom":   m.opts.MaxZoom,
	})
}

func (m *Map) Viewport() (geo.Viewport, bool) {
	return m.viewport, m.created
}

func (m *Map) VisibleBounds() (orb.Bound, bool) {
	if !m.created {
		return orb.Bound{}, false
	}
	return geo.VisibleBound(m.viewport, m.opts.Size), true
}

func (m *Map) InvalidateSize() { m.out.Emit(CmdMapInvalidate, nil) }

func (m *Map) OpenPopup(photoID int) bool {
	if _, ok := m.markers[photoID]; !ok {
		return false
	}
	m.out.Emit(CmdMapPopupOpen, map[string]int{"photo_id": photoID})
	return true
}

func (m *Map) ClosePopup() { m.out.Emit(CmdMapPopupClose, nil) }

// SyncViewport records the view reported by the browser after the user moved the map.
func (m *Map) SyncViewport(v geo.Viewport, size geo.Size) {
	m.viewport = v
	if size.Valid() {
		m.opts.Size = size
	}
}

// Collaborators wires a gallery, map and detail panel for one session to out.
func Collaborators(out *Outbox, opts MapOptions, logger *zap.Logger) coordinator.Collaborators {
	return coordinator.Collaborators{
		Gallery: NewGallery(out),
		Map:     NewMap(out, opts),
		Detail:  NewDetail(out),
		Logger:  logger,
	}
}
