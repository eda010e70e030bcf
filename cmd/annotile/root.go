package main

import (
	"fmt"
	"log/slog"
	"os"
	"time"

	"github.com/spf13/cobra"

	"github.com/samirrijal/annotile/internal/adapters/artifacts"
	"github.com/samirrijal/annotile/internal/adapters/registry"
	"github.com/samirrijal/annotile/internal/adapters/tileserver"
	"github.com/samirrijal/annotile/internal/adapters/valkey"
	"github.com/samirrijal/annotile/internal/core/ports"
	"github.com/samirrijal/annotile/internal/core/usecases"
	"github.com/samirrijal/annotile/internal/pkg/config"
	"github.com/samirrijal/annotile/internal/pkg/logging"
)

var (
	cfgFile string
	verbose bool

	// cfg is loaded once in PersistentPreRunE and shared by all commands.
	cfg *config.Config
)

// rootCmd represents the base command when called without any subcommands
var rootCmd = &cobra.Command{
	Use:   "annotile",
	Short: "Capture map polygons as stitched tile rasters with pixel annotations",
	Long: `Annotile turns a polygon drawn on a web map into a stitched raster:
it computes the tile grid covering the polygon, fetches the tiles, composes
them into one PNG and projects the polygon vertices into image pixel space.
Every capture is recorded in a durable JSON registry.`,
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		loaded, err := config.Load("annotile", cfgFile)
		if err != nil {
			return err
		}
		cfg = loaded

		level := cfg.Log.Level
		if verbose {
			level = "debug"
		}
		logging.Setup(level, cfg.Log.Format)
		return nil
	},
	SilenceUsage: true,
}

// Execute adds all child commands to the root command and sets flags appropriately.
// This is called by main.main().
func Execute() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func init() {
	rootCmd.PersistentFlags().StringVar(&cfgFile, "config", "", "Path to config file (default searches . and ./configs)")
	rootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "Enable verbose logging")
}

// buildServices wires the storage, cache and fetch stack from the loaded
// config. The returned cache is nil when caching is disabled or the server
// is unreachable; captures then fetch straight from the tile server.
func buildServices() (*usecases.CaptureService, *usecases.AnnotationService, *valkey.Cache, error) {
	store, err := registry.Open(cfg.Storage.RegistryPath)
	if err != nil {
		return nil, nil, nil, err
	}
	files, err := artifacts.New(cfg.Storage.CapturesDir)
	if err != nil {
		return nil, nil, nil, err
	}

	var cache *valkey.Cache
	var tileCache ports.CacheService
	if cfg.Cache.Enabled {
		c, err := valkey.New(cfg.Cache.Addr)
		if err != nil {
			slog.Warn("valkey unavailable", "error", err)
		} else {
			cache = c
			tileCache = c
		}
	}

	fetcher := tileserver.New(tileserver.Options{
		Workers:         cfg.Capture.Workers,
		Retries:         cfg.Capture.Retries,
		RetryBackoff:    time.Duration(cfg.Capture.RetryBackoffMS) * time.Millisecond,
		TileTimeout:     time.Duration(cfg.Capture.TileTimeout) * time.Second,
		UserAgent:       cfg.Capture.UserAgent,
		Cache:           tileCache,
		CacheTTLSeconds: cfg.Cache.TTLSeconds,
	})

	captures := usecases.NewCaptureService(fetcher, store, files, usecases.CaptureOptions{
		TileSize:     cfg.Capture.TileSize,
		MaxTiles:     cfg.Capture.MaxTiles,
		FetchTimeout: time.Duration(cfg.Capture.FetchTimeout) * time.Second,
		AutoZoomMax:  cfg.Capture.AutoZoomMax,
		AutoZoomMin:  cfg.Capture.AutoZoomMin,
	})
	annotations := usecases.NewAnnotationService(store, files)

	return captures, annotations, cache, nil
}
