package cmd

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/kozaktomas/seichi-gallery/internal/config"
	"github.com/kozaktomas/seichi-gallery/internal/logging"
	"github.com/kozaktomas/seichi-gallery/internal/web"
	"github.com/kozaktomas/seichi-gallery/internal/web/handlers"
)

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Start the web server",
	Long: `Start the Seichi Gallery web server.
The manifest is loaded and every real photo's EXIF data is read before the server
starts listening. If the manifest cannot be loaded the server still starts and
shows the error instead of the gallery.`,
	RunE: runServe,
}

func init() {
	rootCmd.AddCommand(serveCmd)

	serveCmd.Flags().Int("port", 8080, "Port to listen on (overrides WEB_PORT)")
	serveCmd.Flags().String("host", "0.0.0.0", "Host to bind to (overrides WEB_HOST)")
	serveCmd.Flags().String("session-secret", "", "Secret for signing session cookies (overrides WEB_SESSION_SECRET)")
	serveCmd.Flags().String("media-dir", "", "Directory served at /media/ (overrides MEDIA_DIR)")
}

// resolveServeFlags applies the web flags given on the command line over the environment.
func resolveServeFlags(cmd *cobra.Command, cfg *config.Config) {
	overrideInt(cmd, "port", &cfg.Web.Port)
	overrideString(cmd, "host", &cfg.Web.Host)
	overrideString(cmd, "session-secret", &cfg.Web.SessionSecret)
	overrideString(cmd, "media-dir", &cfg.Web.MediaDir)
}

func runServe(cmd *cobra.Command, args []string) error {
	cfg := config.Load()
	resolveCatalogConfig(cmd, cfg)
	resolveServeFlags(cmd, cfg)

	logger, err := logging.New(cfg.LogLevel)
	if err != nil {
		return fmt.Errorf("creating logger: %w", err)
	}
	defer logger.Sync()

	// Signals are handled from the start so Ctrl+C also stops a slow catalog load.
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	return serve(ctx, cfg, logger)
}

// serve loads the catalog and runs the web server until ctx is done. When ctx ends
// during the catalog load the server is never started.
func serve(ctx context.Context, cfg *config.Config, logger *zap.Logger) error {
	logger.Info("loading catalog",
		zap.String("manifest", cfg.Catalog.ManifestURL),
		zap.Int("concurrency", cfg.Catalog.Concurrency))
	started := time.Now()
	cat, err := loadCatalog(ctx, cfg.Catalog, nil)
	if ctx.Err() != nil {
		logger.Info("interrupted while loading catalog")
		return nil
	}
	if err != nil {
		logger.Error("catalog unavailable, serving error page", zap.Error(err))
	} else {
		stats := cat.Stats()
		logger.Info("catalog loaded",
			zap.Int("photos", stats.Total),
			zap.Int("located", stats.Located),
			zap.Int("with_issues", stats.WithIssues),
			zap.Duration("took", time.Since(started)))
	}

	server := web.NewServer(cfg, handlers.NewLibrary(cat, err), logger)

	shutdownErr := make(chan error, 1)
	go func() {
		<-ctx.Done()
		fmt.Println("\nShutting down...")

		shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 30*time.Second)
		defer shutdownCancel()
		shutdownErr <- server.Shutdown(shutdownCtx)
	}()

	fmt.Printf("Starting Seichi Gallery on http://%s:%d\n", cfg.Web.Host, cfg.Web.Port)
	fmt.Println("Press Ctrl+C to stop")

	if err := server.Start(); err != nil {
		return fmt.Errorf("starting server: %w", err)
	}
	// Start returns once Shutdown began, wait for open requests to drain.
	if err := <-shutdownErr; err != nil {
		return fmt.Errorf("during shutdown: %w", err)
	}
	return nil
}
