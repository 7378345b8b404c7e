package cmd

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"time"

	"github.com/caption-gallery/caption-gallery/internal/config"
	"github.com/caption-gallery/caption-gallery/internal/handlers"
	"github.com/caption-gallery/caption-gallery/internal/index"
	"github.com/caption-gallery/caption-gallery/internal/pipeline"
	"github.com/caption-gallery/caption-gallery/internal/predict"
	"github.com/caption-gallery/caption-gallery/internal/retention"
	"github.com/spf13/cobra"
)

func newServeCmd() *cobra.Command {
	var (
		port       string
		mlEndpoint string
		imagesDir  string
		configFile string
	)

	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Start the caption gallery web server",
		Long: `Starts the gallery on the specified port.

The captioning model service must be reachable at startup; every image
already present in the images directory is captioned before the server
accepts requests.`,
		Example: `  # Start server against a local model service
  caption-gallery serve

  # Custom port and endpoint
  caption-gallery serve --port 3000 --ml-endpoint http://models.example.com:5000`,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := config.Load(configFile)
			if err != nil {
				return err
			}
			if cmd.Flags().Changed("port") {
				cfg.Port = port
			}
			if cmd.Flags().Changed("ml-endpoint") {
				cfg.MLEndpoint = mlEndpoint
			}
			if cmd.Flags().Changed("images-dir") {
				cfg.ImagesDir = imagesDir
			}

			client := predict.NewClient(cfg.MLEndpoint, time.Duration(cfg.RequestTimeout))
			slog.Info("Connecting to caption service", "endpoint", client.Endpoint())
			if err := client.Health(cmd.Context()); err != nil {
				slog.Error("Cannot connect to the caption service", "endpoint", client.Endpoint(), "err", err)
				return err
			}

			ix := index.New()
			pipe := pipeline.New(client, ix, cfg.ImagesDir)
			sweeper := retention.New(ix, cfg.ImagesDir)

			// Warm the index before binding the listener so a request can
			// never observe an uncaptioned pre-seeded image.
			slog.Info("Captioning pre-seeded images", "dir", cfg.ImagesDir)
			start := time.Now()
			if err := pipe.Warm(cmd.Context()); err != nil {
				slog.Error("Failed to warm caption index", "err", err)
				return err
			}
			slog.Info("Caption index ready", "elapsed", time.Since(start))

			handler, err := handlers.New(ix, pipe, sweeper, "templates")
			if err != nil {
				return err
			}

			mux := http.NewServeMux()
			mux.HandleFunc("/", handler.HandleGallery)
			mux.HandleFunc("/upload", handler.HandleUpload)
			mux.HandleFunc("/detail", handler.HandleDetail)
			mux.HandleFunc("/cleanup", handler.HandleCleanup)
			mux.HandleFunc("/static/", handler.HandleStatic)
			mux.HandleFunc("/healthcheck", func(w http.ResponseWriter, r *http.Request) {
				if _, err := w.Write([]byte("OK")); err != nil {
					slog.Error("Unable to write healthcheck", "err", err)
				}
			})

			addr := ":" + cfg.Port
			server := &http.Server{
				Addr:    addr,
				Handler: mux,
			}

			// Start server in goroutine
			serverErr := make(chan error, 1)
			go func() {
				slog.Info("Caption gallery available", "addr", addr, "url", "http://localhost"+addr)
				if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
					serverErr <- err
				}
			}()

			// Wait for context cancellation (Ctrl+C) or server error
			select {
			case <-cmd.Context().Done():
				slog.Info("Cleaning up uploaded image files")
				sweeper.SweepOwner("")

				slog.Info("Shutting down server...")
				shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
				defer cancel()
				if err := server.Shutdown(shutdownCtx); err != nil {
					slog.Error("Server shutdown failed", "err", err)
					return err
				}
				slog.Info("Server stopped")
				return nil
			case err := <-serverErr:
				return err
			}
		},
	}

	cmd.Flags().StringVarP(&port, "port", "p", "8088", "Port to listen on")
	cmd.Flags().StringVar(&mlEndpoint, "ml-endpoint", "http://localhost:5000", "Base URL of the captioning model service")
	cmd.Flags().StringVar(&imagesDir, "images-dir", "static/img/images", "Directory holding pre-seeded and uploaded images")
	cmd.Flags().StringVar(&configFile, "config", "", "Optional YAML config file")

	return cmd
}
