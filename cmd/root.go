package cmd

import (
	"fmt"
	"os"

	"github.com/joho/godotenv"
	"github.com/spf13/cobra"
)

var rootCmd = &cobra.Command{
	Use:   "seichi-gallery",
	Short: "A gallery of anime pilgrimage photos",
	Long: `Seichi Gallery serves a browser gallery that pairs real-world photos with the
anime scenes they recreate. Photo locations and capture times are read from the
photos' EXIF data and shown on a map.`,
}

func Execute() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func init() {
	cobra.OnInitialize(initConfig)
	rootCmd.PersistentFlags().String("manifest", "", "Manifest location, URL or file path (overrides MANIFEST_URL)")
}

func initConfig() {
	// .env file is optional, don't fail if not found
	_ = godotenv.Load()
}
