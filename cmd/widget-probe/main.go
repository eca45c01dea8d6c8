package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"path/filepath"
	"syscall"

	"support-chat-backend/internal/env"
	"support-chat-backend/internal/logging"
	"support-chat-backend/internal/widget"

	"github.com/spf13/cobra"
)

var (
	publicURL      string
	websocketURL   string
	organizationID string
	storePath      string
	logLevel       string
)

var rootCmd = &cobra.Command{
	Use:          "widget-probe",
	Short:        "Run the support widget flow against a public server",
	SilenceUsage: true,
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		if err := env.Load(); err != nil {
			return err
		}
		logging.SetupWriter(os.Stderr, logLevel)

		if publicURL == "" {
			publicURL = env.GetOrDefault(env.WidgetPublicURL, "http://localhost:82/api/public/v1")
		}
		if websocketURL == "" {
			websocketURL = env.GetOrDefault(env.WidgetWebsocketURL, "ws://localhost:83/api/ws/v1")
		}
		if storePath == "" {
			storePath = defaultStorePath()
		}
		return nil
	},
}

func init() {
	flags := rootCmd.PersistentFlags()
	flags.StringVar(&publicURL, "public-url", "", "public server base URL (default $WIDGET_PUBLIC_URL)")
	flags.StringVar(&websocketURL, "ws-url", "", "websocket server base URL (default $WIDGET_WS_URL)")
	flags.StringVar(&organizationID, "org", "", "organization id the widget is embedded for")
	flags.StringVar(&storePath, "store", "", "file holding contact session ids")
	flags.StringVar(&logLevel, "log-level", "warn", "log level")
}

func defaultStorePath() string {
	dir, err := os.UserConfigDir()
	if err != nil {
		return "widget-sessions.json"
	}
	return filepath.Join(dir, "widget-probe", "sessions.json")
}

func sessionStore() widget.SessionStore {
	return widget.NewFileSessionStore(storePath)
}

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := rootCmd.ExecuteContext(ctx); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}
