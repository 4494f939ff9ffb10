// Package geo holds the web-mercator viewport math used to position the gallery map.
package geo

import (
	"math"

	"github.com/paulmach/orb"
)

const (
	tileSize = 256
	// maxLatitude is the web-mercator latitude limit.
	maxLatitude = 85.0511287798
)

// LatLng is a WGS84 coordinate.
type LatLng struct {
	Lat float64 `json:"lat"`
	Lng float64 `json:"lng"`
}

// Point converts to an orb point (x = longitude, y = latitude).
func (l LatLng) Point() orb.Point {
	return orb.Point{l.Lng, l.Lat}
}

// FromPoint converts an orb point back to a coordinate.
func FromPoint(p orb.Point) LatLng {
	return LatLng{Lat: p.Lat(), Lng: p.Lon()}
}

// Viewport is a map center and zoom level.
type Viewport struct {
	Center LatLng  `json:"center"`
	Zoom   float64 `json:"zoom"`
}

// Size is a map container size in CSS pixels.
type Size struct {
	Width  float64 `json:"width"`
	Height float64 `json:"height"`
}

// Valid reports whether both dimensions are positive.
func (s Size) Valid() bool {
	return s.Width > 0 && s.Height > 0
}

// BoundOf returns the bounding box of points. ok is false for an empty slice.
func BoundOf(points []LatLng) (orb.Bound, bool) {
	if len(points) == 0 {
		return orb.Bound{}, false
	}
	mp := make(orb.MultiPoint, len(points))
	for i, p := range points {
		mp[i] = p.Point()
	}
	return mp.Bound(), true
}

// Pad grows the bound by ratio of its height and width on every side.
func Pad(b orb.Bound, ratio float64) orb.Bound {
	dLat := (b.Max.Lat() - b.Min.Lat()) * ratio
	dLng := (b.Max.Lon() - b.Min.Lon()) * ratio
	return orb.Bound{
		Min: orb.Point{b.Min.Lon() - dLng, b.Min.Lat() - dLat},
		Max: orb.Point{b.Max.Lon() + dLng, b.Max.Lat() + dLat},
	}
}

// Contains reports whether p is inside b, edges included.
func Contains(b orb.Bound, p LatLng) bool {
	return b.Contains(p.Point())
}

// Fit returns the viewport that shows the whole bound in a container of the given size,
// using the largest whole zoom level not above maxZoom.
func Fit(b orb.Bound, size Size, maxZoom float64) Viewport {
	minY := mercatorY(b.Min.Lat())
	maxY := mercatorY(b.Max.Lat())
	center := LatLng{
		Lat: inverseMercatorY((minY + maxY) / 2),
		Lng: (b.Min.Lon() + b.Max.Lon()) / 2,
	}

	zoom := maxZoom
	if size.Valid() {
		xFrac := (b.Max.Lon() - b.Min.Lon()) / 360
		yFrac := (maxY - minY) / (2 * math.Pi)
		if xFrac > 0 {
			zoom = math.Min(zoom, math.Log2(size.Width/(tileSize*xFrac)))
		}
		if yFrac > 0 {
			zoom = math.Min(zoom, math.Log2(size.Height/(tileSize*yFrac)))
		}
	}
	zoom = math.Max(0, math.Floor(zoom))
	return Viewport{Center: center, Zoom: zoom}
}

// VisibleBound estimates the area a container of the given size shows at viewport v.
func VisibleBound(v Viewport, size Size) orb.Bound {
	worldPx := tileSize * math.Pow(2, v.Zoom)
	halfLng := size.Width / 2 / worldPx * 360
	halfY := size.Height / 2 / worldPx * 2 * math.Pi

	centerY := mercatorY(v.Center.Lat)
	return orb.Bound{
		Min: orb.Point{v.Center.Lng - halfLng, inverseMercatorY(centerY - halfY)},
		Max: orb.Point{v.Center.Lng + halfLng, inverseMercatorY(centerY + halfY)},
	}
}

func mercatorY(lat float64) float64 {
	lat = math.Max(-maxLatitude, math.Min(maxLatitude, lat))
	rad := lat * math.Pi / 180
	return math.Log(math.Tan(math.Pi/4 + rad/2))
}

func inverseMercatorY(y float64) float64 {
	return (2*math.Atan(math.Exp(y)) - math.Pi/2) * 180 / math.Pi
}
