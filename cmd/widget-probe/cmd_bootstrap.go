package main

import (
	"encoding/json"
	"fmt"
	"log/slog"
	"os"

	"support-chat-backend/internal/widget"

	"github.com/spf13/cobra"
)

func init() {
	rootCmd.AddCommand(bootstrapCmd)
}

var bootstrapCmd = &cobra.Command{
	Use:   "bootstrap",
	Short: "Run the widget loading sequence and print the resulting state",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		state := runBootstrap(cmd)

		enc := json.NewEncoder(os.Stdout)
		enc.SetIndent("", "  ")
		if err := enc.Encode(state); err != nil {
			return fmt.Errorf("encode state: %w", err)
		}
		if state.Failed() {
			return fmt.Errorf("widget failed to load: %s", state.ErrorMessage)
		}
		return nil
	},
}

func runBootstrap(cmd *cobra.Command) widget.State {
	lastMessage := ""
	observer := func(s widget.State) {
		if s.LoadingMessage != "" && s.LoadingMessage != lastMessage {
			lastMessage = s.LoadingMessage
			slog.Info("widget loading", "stage", s.Stage, "message", s.LoadingMessage)
		}
	}

	client := widget.NewClient(publicURL)
	return widget.NewBootstrapper(client, sessionStore(), widget.WithObserver(observer)).
		Run(cmd.Context(), organizationID)
}
