package main

import (
	"os"

	"github.com/spf13/cobra"

	"github.com/groblegark/mindful/internal/ui"
)

func defaultHTTPURL() string {
	if s := os.Getenv("MINDFUL_HTTP_URL"); s != "" {
		return s
	}
	return "http://localhost:8080"
}

var rootCmd = &cobra.Command{
	Use:   "mindful <command>",
	Short: "Daily affirmation gate for trading channels",
	PersistentPreRun: func(cmd *cobra.Command, args []string) {
		if !ui.ShouldUseColor() {
			ui.ForceNoColor()
		}
	},
}

func main() {
	rootCmd.AddCommand(serveCmd)
	rootCmd.AddCommand(healthCmd)
	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}
