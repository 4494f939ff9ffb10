package cmd

import (
	"fmt"
	"runtime"

	"github.com/spf13/cobra"
)

// Build metadata variables, set by -ldflags at compile time.
var (
	Version   = "dev"
	CommitSHA = "unknown"
	BuildDate = "unknown"
)

// BuildInfo is the JSON output of version --json.
type BuildInfo struct {
	Version   string `json:"version"`
	Commit    string `json:"commit"`
	BuildDate string `json:"build_date"`
	GoVersion string `json:"go_version"`
}

var versionCmd = &cobra.Command{
	Use:   "version",
	Short: "Print the version information",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		info := BuildInfo{Version: Version, Commit: CommitSHA, BuildDate: BuildDate, GoVersion: runtime.Version()}
		if mustGetBool(cmd, "json") {
			return outputJSON(info)
		}
		fmt.Printf("seichi-gallery %s\n", info.Version)
		fmt.Printf("  Commit: %s\n", info.Commit)
		fmt.Printf("  Built:  %s (%s)\n", info.BuildDate, info.GoVersion)
		return nil
	},
}

func init() {
	rootCmd.AddCommand(versionCmd)
	versionCmd.Flags().Bool("json", false, "Output as JSON")
}
