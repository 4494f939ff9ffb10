package cmd

import (
	"context"
	"fmt"
	"os"
	"text/tabwriter"

	"github.com/spf13/cobra"

	"github.com/kozaktomas/seichi-gallery/internal/catalog"
	"github.com/kozaktomas/seichi-gallery/internal/config"
	"github.com/kozaktomas/seichi-gallery/internal/filter"
	"github.com/kozaktomas/seichi-gallery/internal/geotime"
)

var catalogFiltersCmd = &cobra.Command{
	Use:   "filters",
	Short: "List the anime filters derived from the manifest",
	Args:  cobra.NoArgs,
	RunE:  runCatalogFilters,
}

func init() {
	catalogCmd.AddCommand(catalogFiltersCmd)
	catalogFiltersCmd.Flags().Bool("json", false, "Output as JSON")
}

func runCatalogFilters(cmd *cobra.Command, args []string) error {
	jsonOutput := mustGetBool(cmd, "json")

	cfg := config.Load()
	resolveCatalogConfig(cmd, cfg)

	src := catalog.NewSource(cfg.Catalog.ManifestURL, nil)
	cat, err := catalog.Load(cmd.Context(), src, noExtraction{}, catalog.Options{})
	if err != nil {
		return fmt.Errorf("loading catalog: %w", err)
	}

	options := filter.New(cat.All()).Choices()
	if jsonOutput {
		return outputJSON(options)
	}

	counts := make(map[string]int)
	for _, p := range cat.All() {
		counts[p.AnimeFilterTag]++
	}

	w := tabwriter.NewWriter(os.Stdout, 0, 0, 2, ' ', 0)
	fmt.Fprintln(w, "TAG\tDISPLAY\tPHOTOS")
	for _, o := range options {
		count := counts[o.Tag]
		if o.Tag == filter.All {
			count = cat.Len()
		}
		fmt.Fprintf(w, "%s\t%s\t%d\n", o.Tag, o.Display, count)
	}
	w.Flush()
	return nil
}

// noExtraction skips EXIF reads, filters only need the manifest.
type noExtraction struct{}

func (noExtraction) Extract(context.Context, string) geotime.Info { return geotime.Info{} }
