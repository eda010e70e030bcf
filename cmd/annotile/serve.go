package main

import (
	"context"
	"fmt"
	"log"
	"log/slog"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/cors"
	"github.com/gofiber/fiber/v2/middleware/recover"
	"github.com/spf13/cobra"

	"github.com/samirrijal/annotile/internal/adapters/http"
	"github.com/samirrijal/annotile/internal/pkg/telemetry"
)

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Run the annotile HTTP API server",
	Args:  cobra.NoArgs,
	Run: func(cmd *cobra.Command, args []string) {
		ctx, cancel := context.WithCancel(context.Background())
		defer cancel()

		// Telemetry
		if cfg.Telemetry.Enabled {
			shutdown, err := telemetry.InitTracer(ctx, cfg.Telemetry.ServiceName, cfg.Telemetry.OTLPAddr)
			if err != nil {
				slog.Warn("telemetry init failed", "error", err)
			} else {
				defer shutdown()
			}
		}

		captures, annotations, cache, err := buildServices()
		if err != nil {
			fatal("wiring services", err)
		}
		if cache != nil {
			defer cache.Close()
		}

		deps := &http.Dependencies{
			Captures:    captures,
			Annotations: annotations,
			Cache:       cache,
			Config:      cfg,
		}

		// Fiber
		app := fiber.New(fiber.Config{
			ReadTimeout:  time.Duration(cfg.Server.ReadTimeout) * time.Second,
			WriteTimeout: time.Duration(cfg.Server.WriteTimeout) * time.Second,
			BodyLimit:    1024 * 1024, // 1 MB max request body
			AppName:      "annotile API",
		})
		app.Use(recover.New())
		app.Use(cors.New(cors.Config{
			AllowOrigins:     "*",
			AllowMethods:     "GET,POST,PATCH,DELETE,OPTIONS",
			AllowHeaders:     "Origin, Content-Type, Accept",
			AllowCredentials: false,
			MaxAge:           3600,
		}))

		http.SetupRoutes(app, deps)

		// Graceful shutdown
		go func() {
			addr := fmt.Sprintf(":%d", cfg.Server.Port)
			slog.Info("API server starting", "addr", addr)
			if err := app.Listen(addr); err != nil {
				log.Fatalf("listen: %v", err)
			}
		}()

		quit := make(chan os.Signal, 1)
		signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
		sig := <-quit

		slog.Info("shutdown signal received, draining connections...", "signal", sig.String())

		// Give in-flight requests up to 10s to complete
		shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer shutdownCancel()

		if err := app.ShutdownWithContext(shutdownCtx); err != nil {
			slog.Error("forced shutdown", "error", err)
		}

		slog.Info("server stopped")
	},
}

func init() {
	rootCmd.AddCommand(serveCmd)
}
