package cli

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"
)

func newEventsCmd() *cobra.Command {
	var (
		secret     string
		jsonOutput bool
		count      int
	)

	cmd := &cobra.Command{
		Use:   "events",
		Short: "Log in and stream realtime events",
		Long: `Log in over the websocket gateway and print every message the server sends.

Events include:
  - playerList: the lobby changed
  - incomingRequest: someone challenged you
  - gameRequestError: a challenge could not be delivered or accepted
  - gameStart: a session started or was reset
  - gameState: a move was applied or the opponent left
  - moveSuggestion: answer to a hint request
  - error: a rejected move or request

Press Ctrl+C to disconnect.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			format := cfg.Output
			if jsonOutput {
				format = "json"
			}
			out := NewOutput(format, cmd.OutOrStdout())
			return streamEvents(cmd.Context(), secret, count, out, format == "json")
		},
	}

	cmd.Flags().StringVar(&secret, "secret", "", "Login secret (required)")
	cmd.Flags().BoolVar(&jsonOutput, "json", false, "Output events as JSON lines")
	cmd.Flags().IntVar(&count, "count", 0, "Exit after this many events (0 streams until interrupted)")
	_ = cmd.MarkFlagRequired("secret")

	return cmd
}

func streamEvents(parent context.Context, secret string, count int, out *Output, quiet bool) error {
	if parent == nil {
		parent = context.Background()
	}
	// Set up cancellation
	ctx, cancel := context.WithCancel(parent)
	defer cancel()

	// Handle interrupt
	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)
	defer signal.Stop(sigCh)

	wsURL, err := cfg.WebsocketURL()
	if err != nil {
		return err
	}
	conn, err := Dial(ctx, wsURL)
	if err != nil {
		return err
	}

	go func() {
		select {
		case <-sigCh:
			cancel()
		case <-ctx.Done():
		}
		_ = conn.Close()
	}()

	if err := conn.Login(secret); err != nil {
		return err
	}
	if !quiet {
		out.PrintMessage(fmt.Sprintf("Logged in as %s (%s)", conn.Name, conn.ID))
	}

	received := 0
	for count <= 0 || received < count {
		env, err := conn.Next()
		if err != nil {
			// Interrupts and server-side closes are expected
			if ctx.Err() != nil || isClosed(err) {
				if !quiet {
					out.PrintMessage("Disconnected")
				}
				return nil
			}
			return fmt.Errorf("stream error: %w", err)
		}
		out.PrintEvent(env, time.Now())
		received++
	}
	return nil
}
