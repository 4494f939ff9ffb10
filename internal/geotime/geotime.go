// Package geotime turns raw EXIF tag values into validated location and capture-time facts.
package geotime

import (
	"context"
	"math"
	"strings"
	"time"
)

// Issue is a qualitative problem found while extracting location/time data.
type Issue string

// Issue values. Location issues are always reported before timestamp issues.
const (
	IssueNoLocation            Issue = "NO_LOCATION"
	IssueNoTimestamp           Issue = "NO_TIMESTAMP"
	IssueMalformedTimestamp    Issue = "MALFORMED_TIMESTAMP"
	IssueImageLoadFailed       Issue = "IMAGE_LOAD_FAILED"
	IssueNoLocationOrTimestamp Issue = "NO_LOCATION_OR_TIMESTAMP"
)

// issueLabels are the inline explanations shown in place of missing data.
var issueLabels = map[Issue]string{
	IssueNoLocation:            "位置情報なし",
	IssueNoTimestamp:           "日時情報なし",
	IssueMalformedTimestamp:    "日時形式不正",
	IssueImageLoadFailed:       "画像読み込み失敗、EXIF取得不可",
	IssueNoLocationOrTimestamp: "位置・日時情報なし",
}

// Label returns the user-facing explanation for the issue.
func (i Issue) Label() string {
	if label, ok := issueLabels[i]; ok {
		return label
	}
	return string(i)
}

// TimestampLayout is the normalized capture timestamp format (YYYY-MM-DDTHH:MM:SS).
const TimestampLayout = "2006-01-02T15:04:05"

// displayZone is the wall-clock zone capture times are interpreted in.
var displayZone = time.FixedZone("JST", 9*60*60)

// RawTags holds the EXIF values the extractor needs, as decoded by the tag source.
// Missing tags are nil slices or empty strings.
type RawTags struct {
	GPSLatitude      []float64
	GPSLongitude     []float64
	GPSLatitudeRef   string
	GPSLongitudeRef  string
	DateTimeOriginal string
}

// Info is the location/time data extracted for one photo. It is never mutated after creation.
// Latitude and Longitude are either both set or both nil.
type Info struct {
	Latitude   *float64 `json:"latitude"`
	Longitude  *float64 `json:"longitude"`
	CapturedAt string   `json:"captured_at,omitempty"`
	Issues     []Issue  `json:"issues,omitempty"`
}

// HasLocation reports whether both coordinates are present.
func (i *Info) HasLocation() bool {
	return i != nil && i.Latitude != nil && i.Longitude != nil
}

// Location returns the coordinates, ok is false when the photo has no location.
func (i *Info) Location() (lat, lng float64, ok bool) {
	if !i.HasLocation() {
		return 0, 0, false
	}
	return *i.Latitude, *i.Longitude, true
}

// HasIssue reports whether the issue was recorded.
func (i *Info) HasIssue(issue Issue) bool {
	if i == nil {
		return false
	}
	for _, got := range i.Issues {
		if got == issue {
			return true
		}
	}
	return false
}

// Describe joins the issue labels into a single inline explanation.
// Returns an empty string when there are no issues.
func (i *Info) Describe() string {
	if i == nil || len(i.Issues) == 0 {
		return ""
	}
	labels := make([]string, len(i.Issues))
	for idx, issue := range i.Issues {
		labels[idx] = issue.Label()
	}
	return strings.Join(labels, "、")
}

// CapturedTime parses the normalized timestamp as Japan wall-clock time.
func (i *Info) CapturedTime() (time.Time, bool) {
	if i == nil || i.CapturedAt == "" {
		return time.Time{}, false
	}
	t, err := time.ParseInLocation(TimestampLayout, i.CapturedAt, displayZone)
	if err != nil {
		return time.Time{}, false
	}
	return t, true
}

// TagSource yields raw EXIF tags for an image locator.
// An error means the image itself could not be retrieved or decoded.
type TagSource interface {
	ReadTags(ctx context.Context, locator string) (RawTags, error)
}

// Extractor runs FromTags over tags obtained from a TagSource.
type Extractor struct {
	source TagSource
}

// NewExtractor creates an extractor reading tags from source.
func NewExtractor(source TagSource) *Extractor {
	return &Extractor{source: source}
}

// Extract never fails: retrieval errors become IssueImageLoadFailed.
func (e *Extractor) Extract(ctx context.Context, locator string) Info {
	tags, err := e.source.ReadTags(ctx, locator)
	if err != nil {
		return Info{Issues: []Issue{IssueImageLoadFailed}}
	}
	return FromTags(tags)
}

// FromTags normalizes raw tags. Issues accumulate: a location problem and a
// timestamp problem are both reported, location first.
func FromTags(tags RawTags) Info {
	var info Info

	lat, lng, ok := convertLocation(tags)
	if ok {
		info.Latitude = &lat
		info.Longitude = &lng
	} else {
		info.Issues = append(info.Issues, IssueNoLocation)
	}

	raw := tags.DateTimeOriginal
	if raw == "" {
		if !info.HasLocation() {
			info.Issues = []Issue{IssueNoLocationOrTimestamp}
		} else {
			info.Issues = append(info.Issues, IssueNoTimestamp)
		}
		return info
	}

	normalized, ok := NormalizeTimestamp(raw)
	if !ok {
		info.Issues = append(info.Issues, IssueMalformedTimestamp)
		return info
	}
	info.CapturedAt = normalized
	return info
}

func convertLocation(tags RawTags) (lat, lng float64, ok bool) {
	if len(tags.GPSLatitude) != 3 || len(tags.GPSLongitude) != 3 {
		return 0, 0, false
	}
	latRef, okLat := normalizeRef(tags.GPSLatitudeRef, "N", "S")
	lngRef, okLng := normalizeRef(tags.GPSLongitudeRef, "E", "W")
	if !okLat || !okLng {
		return 0, 0, false
	}

	lat = ConvertDMSToDD(tags.GPSLatitude[0], tags.GPSLatitude[1], tags.GPSLatitude[2], latRef)
	lng = ConvertDMSToDD(tags.GPSLongitude[0], tags.GPSLongitude[1], tags.GPSLongitude[2], lngRef)
	if !isFinite(lat) || !isFinite(lng) {
		return 0, 0, false
	}
	return lat, lng, true
}

// normalizeRef accepts only the two hemisphere letters valid for the axis.
func normalizeRef(ref, positive, negative string) (string, bool) {
	ref = strings.ToUpper(strings.TrimSpace(ref))
	if ref == positive || ref == negative {
		return ref, true
	}
	return "", false
}

func isFinite(f float64) bool {
	return !math.IsNaN(f) && !math.IsInf(f, 0)
}

// ConvertDMSToDD converts degrees/minutes/seconds to decimal degrees.
// The result is negative for the "S" and "W" hemispheres.
func ConvertDMSToDD(degrees, minutes, seconds float64, ref string) float64 {
	dd := degrees + minutes/60 + seconds/3600
	if ref == "S" || ref == "W" {
		dd = -dd
	}
	return dd
}

// NormalizeTimestamp converts "YYYY:MM:DD HH:MM:SS" into "YYYY-MM-DDTHH:MM:SS".
// Only piece counts are validated; field contents pass through unchanged.
func NormalizeTimestamp(raw string) (string, bool) {
	parts := strings.Split(raw, " ")
	if len(parts) != 2 {
		return "", false
	}
	dateParts := strings.Split(parts[0], ":")
	if len(dateParts) != 3 {
		return "", false
	}
	return dateParts[0] + "-" + dateParts[1] + "-" + dateParts[2] + "T" + parts[1], true
}
