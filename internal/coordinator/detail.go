package coordinator

import (
	"go.uber.org/zap"

	"github.com/kozaktomas/seichi-gallery/internal/catalog"
	"github.com/kozaktomas/seichi-gallery/internal/geo"
	"github.com/kozaktomas/seichi-gallery/internal/geotime"
)

// Direction is a prev/next step through the navigation set.
type Direction string

// Direction values.
const (
	Previous Direction = "previous"
	Next     Direction = "next"
)

// WheelRegion is the part of the detail view under the pointer.
type WheelRegion string

// WheelRegion values. RegionNone is anywhere without its own scrolling.
const (
	RegionNone        WheelRegion = ""
	RegionMiniMap     WheelRegion = "minimap"
	RegionDescription WheelRegion = "description"
	RegionThumbnails  WheelRegion = "thumbnails"
	RegionInfoPane    WheelRegion = "info"
)

// WheelEvent is a wheel gesture in the detail view. The scroll fields describe the
// region under the pointer and are ignored for RegionNone and RegionMiniMap.
type WheelEvent struct {
	DeltaY       float64     `json:"delta_y"`
	Region       WheelRegion `json:"region"`
	ScrollTop    float64     `json:"scroll_top"`
	ScrollHeight float64     `json:"scroll_height"`
	ClientHeight float64     `json:"client_height"`
}

// canScrollFurther reports whether the region can still scroll in the gesture direction.
func (e WheelEvent) canScrollFurther() bool {
	if e.ScrollHeight <= e.ClientHeight {
		return false
	}
	if e.DeltaY < 0 {
		return e.ScrollTop > 0
	}
	return e.ScrollTop < e.ScrollHeight-e.ClientHeight-1
}

// WheelOutcome tells the client what happened to a wheel gesture.
type WheelOutcome string

// WheelOutcome values. WheelScroll means the nested region keeps its native scrolling.
const (
	WheelNavigated WheelOutcome = "navigated"
	WheelScroll    WheelOutcome = "scroll"
	WheelIgnored   WheelOutcome = "ignored"
)

// Navigate steps through the navigation set. It reports whether another photo was opened.
func (c *Coordinator) Navigate(dir Direction) bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.navigate(dir)
}

// Wheel handles a wheel gesture over the detail view.
func (c *Coordinator) Wheel(ev WheelEvent) WheelOutcome {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.current != ViewDetail {
		return WheelIgnored
	}
	switch ev.Region {
	case RegionMiniMap:
		return WheelScroll
	case RegionDescription, RegionThumbnails, RegionInfoPane:
		if ev.canScrollFurther() {
			return WheelScroll
		}
	}
	if ev.DeltaY == 0 || c.wheelCooling {
		return WheelIgnored
	}

	dir := Next
	if ev.DeltaY < 0 {
		dir = Previous
	}
	if !c.navigate(dir) {
		return WheelIgnored
	}

	c.wheelCooling = true
	c.sched.AfterFunc(c.settings.WheelCooldown, func() {
		c.mu.Lock()
		defer c.mu.Unlock()
		c.wheelCooling = false
	})
	return WheelNavigated
}

func (c *Coordinator) navigate(dir Direction) bool {
	if c.current != ViewDetail {
		return false
	}
	index := c.detailSet.Current
	var ok bool
	switch dir {
	case Next:
		index, ok = c.detailSet.Next(index)
	case Previous:
		index, ok = c.detailSet.Previous(index)
	}
	if !ok {
		return false
	}
	photo, _ := c.detailSet.At(index)
	if err := c.openDetail(photo.ID); err != nil {
		return false
	}
	return true
}

// ImageClicked flips the single image between the real photo and the anime scene.
// It does nothing in side-by-side mode.
func (c *Coordinator) ImageClicked() {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.current != ViewDetail || c.sideBySide {
		return
	}
	c.showingReal = !c.showingReal
	c.detail.SetPresentation(c.presentation())
}

// ToggleComparison switches between single and side-by-side display.
// Returning to single display always shows the real photo.
func (c *Coordinator) ToggleComparison() {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.current != ViewDetail {
		return
	}
	if c.sideBySide {
		c.sideBySide = false
		c.showingReal = true
	} else {
		c.sideBySide = true
	}
	c.detail.SetPresentation(c.presentation())
}

// ThumbnailClicked opens another photo of the navigation set.
func (c *Coordinator) ThumbnailClicked(id int) error {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.current != ViewDetail || (c.detailPhoto != nil && c.detailPhoto.ID == id) {
		return nil
	}
	return c.openDetail(id)
}

// Presentation is how the open detail record's images are shown.
type Presentation struct {
	SideBySide  bool   `json:"side_by_side"`
	ShowingReal bool   `json:"showing_real"`
	ImageSrc    string `json:"image_src"`
	ToggleLabel string `json:"toggle_label"`
}

func (c *Coordinator) presentation() Presentation {
	p := Presentation{SideBySide: c.sideBySide, ShowingReal: c.showingReal, ToggleLabel: compareLabel}
	if c.sideBySide {
		p.ToggleLabel = singleLabel
	}
	if c.detailPhoto != nil {
		p.ImageSrc = c.detailPhoto.RealSrc
		if !c.showingReal {
			p.ImageSrc = c.detailPhoto.AnimeSrc
		}
	}
	return p
}

// Thumbnail is one entry of the detail thumbnail strip.
type Thumbnail struct {
	PhotoID int    `json:"photo_id"`
	Src     string `json:"src"`
	Title   string `json:"title"`
	Active  bool   `json:"active"`
}

// MiniMap positions the detail view's small map.
type MiniMap struct {
	Center geo.LatLng `json:"center"`
	Zoom   float64    `json:"zoom"`
	Title  string     `json:"title"`
}

// DetailModel is everything the detail panel renders for one photo.
type DetailModel struct {
	Photo         catalog.Photo `json:"photo"`
	Index         int           `json:"index"`
	Total         int           `json:"total"`
	HasPrevious   bool          `json:"has_previous"`
	HasNext       bool          `json:"has_next"`
	Thumbnails    []Thumbnail   `json:"thumbnails"`
	TimeText      string        `json:"time_text"`
	LocationText  string        `json:"location_text,omitempty"`
	MiniMap       *MiniMap      `json:"mini_map,omitempty"`
	StreetViewURL string        `json:"street_view_url,omitempty"`
}

func (c *Coordinator) detailModel() DetailModel {
	photo := *c.detailPhoto
	set := c.detailSet
	model := DetailModel{
		Photo: photo,
		Index: set.Current,
		Total: set.Len(),
	}
	_, model.HasPrevious = set.Previous(set.Current)
	_, model.HasNext = set.Next(set.Current)

	model.Thumbnails = make([]Thumbnail, set.Len())
	for i, p := range set.Photos {
		model.Thumbnails[i] = Thumbnail{PhotoID: p.ID, Src: p.RealSrc, Title: p.Title, Active: p.ID == photo.ID}
	}

	model.TimeText = timeText(photo.GeoTime)
	if lat, lng, ok := photo.Location(); ok {
		title := photo.Title
		if title == "" {
			title = defaultPopupTitle
		}
		model.MiniMap = &MiniMap{Center: geo.LatLng{Lat: lat, Lng: lng}, Zoom: c.settings.MiniMapZoom, Title: title}
		model.StreetViewURL = streetViewURL(lat, lng)
	} else {
		model.LocationText = photo.GeoTime.Describe()
		if model.LocationText == "" {
			model.LocationText = noLocationText
		}
	}
	if model.Index < 0 {
		c.log.Warn("detail photo missing from navigation set", zap.Int("photo_id", photo.ID))
	}
	return model
}

func timeText(info *geotime.Info) string {
	if info == nil {
		return noTimestampText
	}
	if info.CapturedAt != "" {
		if t, ok := info.CapturedTime(); ok {
			return "撮影日時: " + t.Format(capturedTimeLayout)
		}
		return "撮影日時: " + info.CapturedAt + " (書式エラーの可能性あり)"
	}
	if info.HasIssue(geotime.IssueNoTimestamp) ||
		info.HasIssue(geotime.IssueMalformedTimestamp) ||
		info.HasIssue(geotime.IssueNoLocationOrTimestamp) ||
		info.HasIssue(geotime.IssueImageLoadFailed) {
		return "日時情報: " + info.Describe()
	}
	return noTimestampText
}
