package cmd

import (
	"github.com/joho/godotenv"
	"github.com/spf13/cobra"
)

func NewRootCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "caption-gallery",
		Short: "Web gallery that captions images with an external model service",
		Long: `Caption Gallery is a demo web app for image-captioning model services.

Uploaded and pre-seeded images are sent to a MAX-style REST endpoint
(POST {endpoint}/model/predict) and the returned captions are shown in a
browsable gallery with per-session uploads and 24 hour retention.`,
		PersistentPreRun: func(cmd *cobra.Command, args []string) {
			// Load .env file if present (ignore errors)
			_ = godotenv.Load()
		},
	}

	// Add subcommands
	cmd.AddCommand(newServeCmd())
	cmd.AddCommand(newCaptionCmd())

	return cmd
}
