package cmd

import (
	"encoding/json"
	"fmt"
	"log/slog"
	"os"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/caption-gallery/caption-gallery/internal/models"
	"github.com/caption-gallery/caption-gallery/internal/predict"
	"github.com/spf13/cobra"
	"gopkg.in/yaml.v3"
)

type captionResult struct {
	File        string              `json:"file" yaml:"file"`
	Predictions []models.Prediction `json:"predictions" yaml:"predictions"`
}

func newCaptionCmd() *cobra.Command {
	var (
		mlEndpoint string
		format     string
		timeout    time.Duration
	)

	cmd := &cobra.Command{
		Use:   "caption FILE...",
		Short: "Caption local image files without starting the server",
		Example: `  # Caption two images and print YAML
  caption-gallery caption cat.jpg dog.png

  # JSON output against a remote endpoint
  caption-gallery caption --format json --ml-endpoint http://models.example.com:5000 cat.jpg`,
		Args: cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			if format != "yaml" && format != "json" {
				return fmt.Errorf("unsupported format %q (want yaml or json)", format)
			}

			client := predict.NewClient(mlEndpoint, timeout)
			if err := client.Health(cmd.Context()); err != nil {
				return err
			}

			var (
				mu      sync.Mutex
				wg      sync.WaitGroup
				results []captionResult
			)
			for _, file := range args {
				wg.Add(1)
				go func(file string) {
					defer wg.Done()

					predictions, err := client.Caption(cmd.Context(), file)
					if err != nil {
						slog.Error("Captioning failed", "file", file, "err", err)
						return
					}

					mu.Lock()
					results = append(results, captionResult{
						File:        file,
						Predictions: predictions,
					})
					mu.Unlock()
				}(file)
			}
			wg.Wait()

			if len(results) == 0 {
				return fmt.Errorf("no images could be captioned")
			}

			sort.Slice(results, func(i, j int) bool {
				return strings.ToLower(results[i].File) < strings.ToLower(results[j].File)
			})

			switch format {
			case "json":
				encoder := json.NewEncoder(os.Stdout)
				encoder.SetIndent("", "  ")
				return encoder.Encode(results)
			default:
				return yaml.NewEncoder(os.Stdout).Encode(results)
			}
		},
	}

	cmd.Flags().StringVar(&mlEndpoint, "ml-endpoint", "http://localhost:5000", "Base URL of the captioning model service")
	cmd.Flags().StringVar(&format, "format", "yaml", "Output format: yaml or json")
	cmd.Flags().DurationVar(&timeout, "timeout", 90*time.Second, "Per-image request timeout")

	return cmd
}
