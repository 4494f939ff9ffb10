package cmd

import (
	"fmt"
	"os"
	"sort"
	"strconv"
	"text/tabwriter"

	"github.com/spf13/cobra"

	"github.com/kozaktomas/seichi-gallery/internal/catalog"
	"github.com/kozaktomas/seichi-gallery/internal/config"
	"github.com/kozaktomas/seichi-gallery/internal/geotime"
)

var catalogListCmd = &cobra.Command{
	Use:   "list",
	Short: "List photos with their EXIF location and capture time",
	Long: `List every photo of the manifest together with the location and capture time
read from its real photo.

Examples:
  # List a local manifest
  seichi-gallery catalog list --manifest ./public/photos.json

  # Only photos whose EXIF data is incomplete
  seichi-gallery catalog list --issues-only

  # Output as JSON
  seichi-gallery catalog list --json`,
	Args: cobra.NoArgs,
	RunE: runCatalogList,
}

func init() {
	catalogCmd.AddCommand(catalogListCmd)

	catalogListCmd.Flags().Bool("json", false, "Output as JSON")
	catalogListCmd.Flags().Bool("issues-only", false, "Only list photos with extraction issues")
}

// CatalogListing is the JSON output of catalog list.
type CatalogListing struct {
	Photos []catalog.Photo `json:"photos"`
	Count  int             `json:"count"`
	Stats  catalog.Stats   `json:"stats"`
}

func runCatalogList(cmd *cobra.Command, args []string) error {
	jsonOutput := mustGetBool(cmd, "json")
	issuesOnly := mustGetBool(cmd, "issues-only")

	cfg := config.Load()
	resolveCatalogConfig(cmd, cfg)

	if !jsonOutput {
		fmt.Printf("Manifest: %s\n", cfg.Catalog.ManifestURL)
	}
	bar := newExtractProgressBar(cfg.Catalog.Concurrency, jsonOutput)
	cat, err := loadCatalog(cmd.Context(), cfg.Catalog, bar)
	if bar != nil {
		fmt.Println()
	}
	if err != nil {
		return err
	}

	photos := cat.All()
	if issuesOnly {
		photos = withIssues(photos)
	}

	if jsonOutput {
		if photos == nil {
			photos = []catalog.Photo{}
		}
		return outputJSON(CatalogListing{Photos: photos, Count: len(photos), Stats: cat.Stats()})
	}

	if len(photos) == 0 {
		fmt.Println("No photos found.")
		return nil
	}
	printPhotoTable(photos)
	printStats(cat.Stats())
	return nil
}

func withIssues(photos []catalog.Photo) []catalog.Photo {
	var out []catalog.Photo
	for i := range photos {
		if photos[i].GeoTime != nil && len(photos[i].GeoTime.Issues) > 0 {
			out = append(out, photos[i])
		}
	}
	return out
}

func printPhotoTable(photos []catalog.Photo) {
	w := tabwriter.NewWriter(os.Stdout, 0, 0, 2, ' ', 0)
	fmt.Fprintln(w, "ID\tTITLE\tANIME\tLOCATION\tCAPTURED\tISSUES")
	fmt.Fprintln(w, "--\t-----\t-----\t--------\t--------\t------")
	for i := range photos {
		p := &photos[i]
		location, captured, issues := "-", "-", "-"
		if lat, lng, ok := p.Location(); ok {
			location = fmt.Sprintf("%.5f, %.5f", lat, lng)
		}
		if p.GeoTime != nil {
			if p.GeoTime.CapturedAt != "" {
				captured = p.GeoTime.CapturedAt
			}
			if desc := p.GeoTime.Describe(); desc != "" {
				issues = desc
			}
		}
		fmt.Fprintf(w, "%d\t%s\t%s\t%s\t%s\t%s\n", p.ID, p.Title, p.AnimeTitleDisplay, location, captured, issues)
	}
	w.Flush()
}

func printStats(stats catalog.Stats) {
	fmt.Printf("\nTotal: %d photos, %d located, %d with capture time, %d with issues\n",
		stats.Total, stats.Located, stats.WithTimestamp, stats.WithIssues)

	issues := make([]geotime.Issue, 0, len(stats.Issues))
	for issue := range stats.Issues {
		issues = append(issues, issue)
	}
	sort.Slice(issues, func(i, j int) bool { return issues[i] < issues[j] })
	for _, issue := range issues {
		fmt.Printf("  %-26s %s (%s)\n", string(issue), strconv.Itoa(stats.Issues[issue]), issue.Label())
	}
}
