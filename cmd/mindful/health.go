package main

import (
	"encoding/json"
	"fmt"
	"net/http"
	"time"

	"github.com/spf13/cobra"

	"github.com/groblegark/mindful/internal/ui"
)

var (
	healthURL  string
	healthJSON bool
)

var healthCmd = &cobra.Command{
	Use:   "health",
	Short: "Check a running bot's health endpoint",
	RunE: func(cmd *cobra.Command, args []string) error {
		client := &http.Client{Timeout: 5 * time.Second}
		resp, err := client.Get(healthURL + "/v1/health")
		if err != nil {
			return fmt.Errorf("querying %s: %w", healthURL, err)
		}
		defer resp.Body.Close()

		if resp.StatusCode != http.StatusOK {
			return fmt.Errorf("health endpoint returned %s", resp.Status)
		}

		var body struct {
			Status    string `json:"status"`
			BotStatus string `json:"bot_status"`
		}
		if err := json.NewDecoder(resp.Body).Decode(&body); err != nil {
			return fmt.Errorf("decoding health response: %w", err)
		}

		if healthJSON {
			data, err := json.MarshalIndent(body, "", "  ")
			if err != nil {
				return err
			}
			fmt.Println(string(data))
			return nil
		}

		status := ui.RenderGood(body.Status)
		if body.Status != "ok" {
			status = ui.RenderBad(body.Status)
		}
		botStatus := body.BotStatus
		if botStatus == "running" {
			botStatus = ui.RenderGood(botStatus)
		} else {
			botStatus = ui.RenderMuted(botStatus)
		}

		fmt.Println("Mindful Bot Health")
		fmt.Printf("  Service: %s\n", status)
		fmt.Printf("  Bot:     %s\n", botStatus)
		return nil
	},
}

func init() {
	healthCmd.Flags().StringVar(&healthURL, "url", defaultHTTPURL(), "base URL of the bot's HTTP server")
	healthCmd.Flags().BoolVar(&healthJSON, "json", false, "print the raw health response as JSON")
}
