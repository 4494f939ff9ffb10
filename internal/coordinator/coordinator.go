// Package coordinator owns the gallery/map/detail view state of one browsing session.
//
// Every exported method runs under a single mutex. State is updated before any
// collaborator is called, and deferred callbacks re-check the state they were
// scheduled for before acting.
package coordinator

import (
	"fmt"
	"sync"
	"time"

	"go.uber.org/zap"

	"github.com/kozaktomas/seichi-gallery/internal/catalog"
	"github.com/kozaktomas/seichi-gallery/internal/filter"
	"github.com/kozaktomas/seichi-gallery/internal/geo"
	"github.com/kozaktomas/seichi-gallery/internal/navigation"
)

// ViewName identifies one of the three top-level views.
type ViewName string

// ViewName values.
const (
	ViewGallery ViewName = "gallery"
	ViewMap     ViewName = "map"
	ViewDetail  ViewName = "detail"
)

// Settings are the fixed viewer constants.
type Settings struct {
	DefaultCenter         geo.LatLng
	DefaultZoom           float64
	DetailReturnZoom      float64
	MarkerFocusZoom       float64
	FitPadding            float64
	MiniMapZoom           float64
	MarkerActivationDelay time.Duration
	InvalidateDelay       time.Duration
	WheelCooldown         time.Duration
}

// DefaultSettings returns the viewer defaults used when no configuration is given.
func DefaultSettings() Settings {
	return Settings{
		DefaultCenter:         geo.LatLng{Lat: 36, Lng: 138},
		DefaultZoom:           7,
		DetailReturnZoom:      15,
		MarkerFocusZoom:       15,
		FitPadding:            0.2,
		MiniMapZoom:           12,
		MarkerActivationDelay: 150 * time.Millisecond,
		InvalidateDelay:       100 * time.Millisecond,
		WheelCooldown:         300 * time.Millisecond,
	}
}

// Collaborators are the views the coordinator drives.
type Collaborators struct {
	Gallery   GalleryView
	Map       MapWidget
	Detail    DetailPanel
	Scheduler Scheduler
	Logger    *zap.Logger
}

// PhotoNotFoundError is returned when a transition names an id missing from the catalog.
type PhotoNotFoundError struct {
	ID int
}

func (e *PhotoNotFoundError) Error() string {
	return fmt.Sprintf("photo %d not found", e.ID)
}

// Coordinator is the view state machine for one session.
type Coordinator struct {
	mu sync.Mutex

	settings Settings
	gallery  GalleryView
	mapw     MapWidget
	detail   DetailPanel
	sched    Scheduler
	log      *zap.Logger

	catalog *catalog.Catalog
	all     []catalog.Photo
	filter  *filter.State

	current          ViewName
	previousView     ViewName
	filtered         []catalog.Photo
	plotted          []catalog.Photo
	mapViewport      geo.Viewport
	firstMapLoadDone bool
	pendingFit       bool
	lastDetailLoc    *geo.LatLng
	lastDetailID     *int
	mapGeneration    uint64

	detailPhoto  *catalog.Photo
	detailSet    navigation.Set
	sideBySide   bool
	showingReal  bool
	wheelCooling bool
}

// New creates a coordinator in the Gallery state. Nothing is rendered until Start.
func New(cat *catalog.Catalog, collab Collaborators, settings Settings) *Coordinator {
	sched := collab.Scheduler
	if sched == nil {
		sched = WallClock{}
	}
	logger := collab.Logger
	if logger == nil {
		logger = zap.NewNop()
	}
	all := cat.All()
	state := filter.New(all)
	return &Coordinator{
		settings:     settings,
		gallery:      collab.Gallery,
		mapw:         collab.Map,
		detail:       collab.Detail,
		sched:        sched,
		log:          logger,
		catalog:      cat,
		all:          all,
		filter:       state,
		current:      ViewGallery,
		previousView: ViewGallery,
		filtered:     state.Apply(all),
		mapViewport:  geo.Viewport{Center: settings.DefaultCenter, Zoom: settings.DefaultZoom},
		showingReal:  true,
	}
}

// Start renders the initial gallery.
func (c *Coordinator) Start() {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.showGallery()
}

// CurrentView returns the visible view.
func (c *Coordinator) CurrentView() ViewName {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.current
}

// Filters returns the filter list with the All entry first.
func (c *Coordinator) Filters() []filter.Option {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.filter.Choices()
}

// Controls describe the header and buttons for the current view.
type Controls struct {
	HeaderTitle   string   `json:"header_title"`
	ToggleLabel   string   `json:"toggle_label,omitempty"`
	ToggleVisible bool     `json:"toggle_visible"`
	ReturnVisible bool     `json:"return_visible"`
	PrimaryReturn ViewName `json:"primary_return,omitempty"`
}

// DetailState is the open detail record and its presentation.
type DetailState struct {
	PhotoID     int   `json:"photo_id"`
	Navigation  []int `json:"navigation"`
	Index       int   `json:"index"`
	SideBySide  bool  `json:"side_by_side"`
	ShowingReal bool  `json:"showing_real"`
}

// Snapshot is a copy of the whole session state.
type Snapshot struct {
	View                     ViewName     `json:"view"`
	PreviousViewBeforeDetail ViewName     `json:"previous_view_before_detail"`
	ActiveFilter             string       `json:"active_filter"`
	FilteredIDs              []int        `json:"filtered_ids"`
	PlottedIDs               []int        `json:"plotted_ids"`
	MapViewport              geo.Viewport `json:"map_viewport"`
	FirstMapLoadDone         bool         `json:"first_map_load_done"`
	PendingFitOnFilterChange bool         `json:"pending_fit_on_filter_change"`
	LastDetailLocation       *geo.LatLng  `json:"last_detail_location,omitempty"`
	LastDetailPhotoID        *int         `json:"last_detail_photo_id,omitempty"`
	WheelCooldown            bool         `json:"wheel_cooldown"`
	Detail                   *DetailState `json:"detail,omitempty"`
	Controls                 Controls     `json:"controls"`
}

// Snapshot returns the current state.
func (c *Coordinator) Snapshot() Snapshot {
	c.mu.Lock()
	defer c.mu.Unlock()

	s := Snapshot{
		View:                     c.current,
		PreviousViewBeforeDetail: c.previousView,
		ActiveFilter:             c.filter.Active(),
		FilteredIDs:              photoIDs(c.filtered),
		PlottedIDs:               photoIDs(c.plotted),
		MapViewport:              c.mapViewport,
		FirstMapLoadDone:         c.firstMapLoadDone,
		PendingFitOnFilterChange: c.pendingFit,
		WheelCooldown:            c.wheelCooling,
		Controls:                 c.controls(),
	}
	if c.lastDetailLoc != nil {
		loc := *c.lastDetailLoc
		s.LastDetailLocation = &loc
	}
	if c.lastDetailID != nil {
		id := *c.lastDetailID
		s.LastDetailPhotoID = &id
	}
	if c.current == ViewDetail && c.detailPhoto != nil {
		s.Detail = &DetailState{
			PhotoID:     c.detailPhoto.ID,
			Navigation:  c.detailSet.IDs(),
			Index:       c.detailSet.Current,
			SideBySide:  c.sideBySide,
			ShowingReal: c.showingReal,
		}
	}
	return s
}

const (
	galleryTitle       = "聖地写真ギャラリー"
	mapTitle           = "聖地マップ"
	showMapLabel       = "マップで表示"
	showGalleryLabel   = "ギャラリーで表示"
	compareLabel       = "2枚表示で比較する"
	singleLabel        = "1枚表示に戻す"
	noLocationText     = "位置情報はありません。"
	noTimestampText    = "撮影日時情報はありません。"
	noMarkersText      = "表示できる位置情報付きの写真がありません。"
	defaultPopupTitle  = "撮影場所"
	capturedTimeLayout = "2006年1月2日 15:04:05"
)

func (c *Coordinator) controls() Controls {
	switch c.current {
	case ViewMap:
		return Controls{HeaderTitle: mapTitle, ToggleLabel: showGalleryLabel, ToggleVisible: true}
	case ViewDetail:
		ctl := Controls{ReturnVisible: true, PrimaryReturn: ViewGallery}
		if c.detailPhoto != nil {
			ctl.HeaderTitle = c.detailPhoto.Title
		}
		if c.previousView == ViewMap {
			ctl.PrimaryReturn = ViewMap
		}
		return ctl
	default:
		return Controls{HeaderTitle: galleryTitle, ToggleLabel: showMapLabel, ToggleVisible: true}
	}
}

func photoIDs(photos []catalog.Photo) []int {
	out := make([]int, len(photos))
	for i := range photos {
		out[i] = photos[i].ID
	}
	return out
}
