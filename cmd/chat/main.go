// charachat is the terminal client for the chat relay.
package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/spf13/cobra"

	"charachat/internal/chatclient"
	"charachat/internal/telemetry"
)

var (
	version = "dev"

	serverURL string
	token     string
	speakCmd  string
	logDir    string
	noAvatar  bool
	plain     bool
)

var rootCmd = &cobra.Command{
	Use:   "charachat",
	Short: "Chat with the character through the relay server",
	Long: `charachat is a terminal chat client for the relay server.

  charachat                                  Open the chat TUI
  charachat --plain < questions.txt          One message per line, replies on stdout
  charachat --speak-cmd "espeak -s 160"      Read replies aloud
  charachat token --secret $JWT_SECRET       Mint a bearer token for a guarded relay`,
	Version:      version,
	SilenceUsage: true,
	RunE:         runChat,
}

func init() {
	rootCmd.PersistentFlags().StringVar(&serverURL, "server", envOr("CHARACHAT_SERVER", "http://localhost:8080"), "relay server URL")
	rootCmd.Flags().StringVar(&token, "token", envOr("CHARACHAT_TOKEN", ""), "bearer token for a relay with JWT_SECRET set")
	rootCmd.Flags().StringVar(&speakCmd, "speak-cmd", envOr("CHARACHAT_SPEAK_CMD", ""), "TTS command; the reply is written to its stdin")
	rootCmd.Flags().StringVar(&logDir, "log-dir", envOr("CHARACHAT_LOG_DIR", "logs"), "directory for the client log file")
	rootCmd.Flags().BoolVar(&noAvatar, "no-avatar", false, "hide the avatar face")
	rootCmd.Flags().BoolVar(&plain, "plain", false, "line mode without the TUI")

	rootCmd.AddCommand(tokenCmd)
}

func main() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func runChat(cmd *cobra.Command, args []string) error {
	// The TUI owns the terminal, so logs only go to the file.
	logger, closeLog, err := telemetry.InitLogger(telemetry.LoggerOptions{
		Dir:   logDir,
		File:  "charachat-client.log",
		Level: telemetry.ParseLevel(envOr("LOG_LEVEL", "info")),
	})
	if err != nil {
		return err
	}
	defer closeLog()

	opts := []chatclient.Option{
		chatclient.WithLogger(logger),
		chatclient.WithSpeaker(chatclient.NewCommandSpeaker(speakCmd)),
	}
	if !noAvatar {
		opts = append(opts, chatclient.WithAvatar(chatclient.NewAvatar(chatclient.DefaultExpressionRules(), 0)))
	}

	session := chatclient.NewSession(chatclient.NewClient(serverURL, token, nil), opts...)
	defer session.Close()

	logger.Info("chat client started", "server", serverURL, "plain", plain, "speech", speakCmd != "")

	if plain {
		ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
		defer stop()
		return chatclient.RunPlain(ctx, session, os.Stdin, os.Stdout)
	}

	p := tea.NewProgram(chatclient.NewModel(session), tea.WithAltScreen())
	if _, err := p.Run(); err != nil {
		return fmt.Errorf("running TUI: %w", err)
	}
	return nil
}

func envOr(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}
