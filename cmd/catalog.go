package cmd

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"os"

	"github.com/schollz/progressbar/v3"
	"github.com/spf13/cobra"

	"github.com/kozaktomas/seichi-gallery/internal/catalog"
	"github.com/kozaktomas/seichi-gallery/internal/config"
	"github.com/kozaktomas/seichi-gallery/internal/exif"
	"github.com/kozaktomas/seichi-gallery/internal/geotime"
)

var catalogCmd = &cobra.Command{
	Use:   "catalog",
	Short: "Inspect the photo manifest",
	Long: `Load the photo manifest, read every real photo's EXIF location and capture time,
and print the result. Useful for checking a manifest before serving it.`,
}

func init() {
	rootCmd.AddCommand(catalogCmd)
	catalogCmd.PersistentFlags().Int("concurrency", 0, "Number of parallel EXIF reads (overrides EXIF_CONCURRENCY)")
}

// resolveCatalogConfig applies the manifest and concurrency flags over the environment.
func resolveCatalogConfig(cmd *cobra.Command, cfg *config.Config) {
	overrideString(cmd, "manifest", &cfg.Catalog.ManifestURL)
	overrideInt(cmd, "concurrency", &cfg.Catalog.Concurrency)
}

// loadCatalog loads the manifest and extracts location/time data for every photo.
// A non-nil bar is advanced once per settled extraction.
func loadCatalog(ctx context.Context, cfg config.CatalogConfig, bar *progressbar.ProgressBar) (*catalog.Catalog, error) {
	src := catalog.NewSource(cfg.ManifestURL, &http.Client{Timeout: cfg.ExifTimeout})
	extractor := geotime.NewExtractor(exif.NewReader(nil, cfg.ExifTimeout))

	opts := catalog.Options{Concurrency: cfg.Concurrency}
	if bar != nil {
		opts.OnProgress = func(done, total int) {
			bar.ChangeMax(total)
			bar.Set(done)
		}
	}

	cat, err := catalog.Load(ctx, src, extractor, opts)
	if err != nil {
		return nil, fmt.Errorf("loading catalog: %w", err)
	}
	return cat, nil
}

// newExtractProgressBar creates a progress bar for EXIF extraction, or nil if JSON output.
func newExtractProgressBar(concurrency int, jsonOutput bool) *progressbar.ProgressBar {
	if jsonOutput {
		return nil
	}
	return progressbar.NewOptions(-1,
		progressbar.OptionSetDescription(fmt.Sprintf("Reading EXIF (%d workers)", concurrency)),
		progressbar.OptionShowCount(),
		progressbar.OptionShowIts(),
		progressbar.OptionSetItsString("photos"),
		progressbar.OptionShowElapsedTimeOnFinish(),
		progressbar.OptionSetPredictTime(true),
		progressbar.OptionFullWidth(),
	)
}

func outputJSON(data any) error {
	encoder := json.NewEncoder(os.Stdout)
	encoder.SetIndent("", "  ")
	if err := encoder.Encode(data); err != nil {
		return fmt.Errorf("encoding JSON output: %w", err)
	}
	return nil
}
