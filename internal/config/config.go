package config

import (
	_ "embed"
	"os"
	"strconv"
	"strings"
	"time"

	"gopkg.in/yaml.v3"

	"github.com/kozaktomas/seichi-gallery/internal/constants"
	"github.com/kozaktomas/seichi-gallery/internal/coordinator"
	"github.com/kozaktomas/seichi-gallery/internal/geo"
)

//go:embed viewer.yaml
var viewerYAML []byte

type Config struct {
	Catalog  CatalogConfig
	Web      WebConfig
	LogLevel string
	Viewer   ViewerConfig
}

type CatalogConfig struct {
	ManifestURL string        // http(s) URL or file path of photos.json
	Concurrency int           // parallel EXIF extractions (default 8)
	ExifTimeout time.Duration // per-image fetch and decode timeout
}

type WebConfig struct {
	Port           int
	Host           string
	SessionSecret  string
	AllowedOrigins []string // extra CORS origins on top of localhost
	MediaDir       string   // served under /media/ when set
}

type ViewerConfig struct {
	Map    MapConfig    `yaml:"map" json:"map"`
	Detail DetailConfig `yaml:"detail" json:"detail"`
	Timing TimingConfig `yaml:"timing" json:"timing"`
}

type MapConfig struct {
	DefaultCenter    [2]float64 `yaml:"default_center" json:"default_center"`
	DefaultZoom      float64    `yaml:"default_zoom" json:"default_zoom"`
	DetailReturnZoom float64    `yaml:"detail_return_zoom" json:"detail_return_zoom"`
	MarkerFocusZoom  float64    `yaml:"marker_focus_zoom" json:"marker_focus_zoom"`
	MaxZoom          float64    `yaml:"max_zoom" json:"max_zoom"`
	FitPadding       float64    `yaml:"fit_padding" json:"fit_padding"`
	NominalWidth     float64    `yaml:"nominal_width" json:"nominal_width"`
	NominalHeight    float64    `yaml:"nominal_height" json:"nominal_height"`
	TileURL          string     `yaml:"tile_url" json:"tile_url"`
	Attribution      string     `yaml:"attribution" json:"attribution"`
}

type DetailConfig struct {
	MiniMapZoom float64 `yaml:"mini_map_zoom" json:"mini_map_zoom"`
}

type TimingConfig struct {
	MarkerActivationDelayMS int `yaml:"marker_activation_delay_ms" json:"marker_activation_delay_ms"`
	InvalidateDelayMS       int `yaml:"invalidate_delay_ms" json:"invalidate_delay_ms"`
	WheelCooldownMS         int `yaml:"wheel_cooldown_ms" json:"wheel_cooldown_ms"`
}

// Settings converts the viewer constants to coordinator settings.
func (v ViewerConfig) Settings() coordinator.Settings {
	return coordinator.Settings{
		DefaultCenter:         geo.LatLng{Lat: v.Map.DefaultCenter[0], Lng: v.Map.DefaultCenter[1]},
		DefaultZoom:           v.Map.DefaultZoom,
		DetailReturnZoom:      v.Map.DetailReturnZoom,
		MarkerFocusZoom:       v.Map.MarkerFocusZoom,
		FitPadding:            v.Map.FitPadding,
		MiniMapZoom:           v.Detail.MiniMapZoom,
		MarkerActivationDelay: time.Duration(v.Timing.MarkerActivationDelayMS) * time.Millisecond,
		InvalidateDelay:       time.Duration(v.Timing.InvalidateDelayMS) * time.Millisecond,
		WheelCooldown:         time.Duration(v.Timing.WheelCooldownMS) * time.Millisecond,
	}
}

// NominalSize is the map size assumed until the browser reports its own.
func (v ViewerConfig) NominalSize() geo.Size {
	return geo.Size{Width: v.Map.NominalWidth, Height: v.Map.NominalHeight}
}

// envInt reads an environment variable and parses it as a positive integer.
// Returns the default value if the env var is unset, empty, or invalid.
func envInt(key string, defaultVal int) int {
	s := os.Getenv(key)
	if s == "" {
		return defaultVal
	}
	if n, err := strconv.Atoi(s); err == nil && n > 0 {
		return n
	}
	return defaultVal
}

func envString(key, defaultVal string) string {
	if s := os.Getenv(key); s != "" {
		return s
	}
	return defaultVal
}

// splitList splits a comma separated env value, dropping empty items.
func splitList(s string) []string {
	var out []string
	for _, item := range strings.Split(s, ",") {
		if item = strings.TrimSpace(item); item != "" {
			out = append(out, item)
		}
	}
	return out
}

func Load() *Config {
	var viewer ViewerConfig
	if err := yaml.Unmarshal(viewerYAML, &viewer); err != nil {
		// This is an embedded file so this error should never happen in practice
		panic("failed to unmarshal embedded viewer.yaml: " + err.Error())
	}

	return &Config{
		Catalog: CatalogConfig{
			ManifestURL: envString("MANIFEST_URL", constants.DefaultManifestLocation),
			Concurrency: envInt("EXIF_CONCURRENCY", constants.DefaultExtractConcurrency),
			ExifTimeout: time.Duration(envInt("EXIF_TIMEOUT_SECONDS", int(constants.DefaultExifTimeout/time.Second))) * time.Second,
		},
		Web: WebConfig{
			Port:           envInt("WEB_PORT", 8080),
			Host:           envString("WEB_HOST", "0.0.0.0"),
			SessionSecret:  os.Getenv("WEB_SESSION_SECRET"),
			AllowedOrigins: splitList(os.Getenv("WEB_ALLOWED_ORIGINS")),
			MediaDir:       os.Getenv("MEDIA_DIR"),
		},
		LogLevel: envString("LOG_LEVEL", "info"),
		Viewer:   viewer,
	}
}
