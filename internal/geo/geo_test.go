package geo

import (
	"testing"

	"github.com/paulmach/orb"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var nominal = Size{Width: 1280, Height: 800}

func TestBoundOf(t *testing.T) {
	_, ok := BoundOf(nil)
	assert.False(t, ok)

	b, ok := BoundOf([]LatLng{{Lat: 35, Lng: 135}, {Lat: 36, Lng: 139}, {Lat: 34.5, Lng: 136}})
	require.True(t, ok)
	assert.Equal(t, orb.Bound{Min: orb.Point{135, 34.5}, Max: orb.Point{139, 36}}, b)
}

func TestPad(t *testing.T) {
	b := orb.Bound{Min: orb.Point{135, 34}, Max: orb.Point{139, 36}}

	padded := Pad(b, 0.2)

	assert.InDelta(t, 134.2, padded.Min.Lon(), 1e-9)
	assert.InDelta(t, 139.8, padded.Max.Lon(), 1e-9)
	assert.InDelta(t, 33.6, padded.Min.Lat(), 1e-9)
	assert.InDelta(t, 36.4, padded.Max.Lat(), 1e-9)
}

func TestFit_ContainsBound(t *testing.T) {
	b := Pad(orb.Bound{Min: orb.Point{135, 34.9}, Max: orb.Point{135.8, 35.1}}, 0.2)

	v := Fit(b, nominal, 18)

	assert.Equal(t, v.Zoom, float64(int(v.Zoom)), "zoom should be a whole level")
	visible := VisibleBound(v, nominal)
	assert.True(t, visible.Contains(b.Min))
	assert.True(t, visible.Contains(b.Max))

	tighter := VisibleBound(Viewport{Center: v.Center, Zoom: v.Zoom + 1}, nominal)
	assert.False(t, tighter.Contains(b.Min) && tighter.Contains(b.Max))
}

func TestFit_SinglePointUsesMaxZoom(t *testing.T) {
	b, _ := BoundOf([]LatLng{{Lat: 35, Lng: 135}})

	v := Fit(b, nominal, 18)

	assert.InDelta(t, 35, v.Center.Lat, 1e-9)
	assert.InDelta(t, 135, v.Center.Lng, 1e-9)
	assert.Equal(t, 18.0, v.Zoom)
}

func TestVisibleBound_CenteredOnViewport(t *testing.T) {
	v := Viewport{Center: LatLng{Lat: 35, Lng: 135}, Zoom: 15}

	b := VisibleBound(v, nominal)

	assert.True(t, Contains(b, LatLng{Lat: 35, Lng: 135}))
	assert.False(t, Contains(b, LatLng{Lat: 36, Lng: 135}))
	assert.InDelta(t, 135, (b.Min.Lon()+b.Max.Lon())/2, 1e-9)
}

func TestMercatorRoundTrip(t *testing.T) {
	for _, lat := range []float64{-60, 0, 35.68, 80} {
		assert.InDelta(t, lat, inverseMercatorY(mercatorY(lat)), 1e-9)
	}
}
