package main

import (
	"context"
	"errors"
	"log/slog"
	"os"
	"time"

	"github.com/spf13/cobra"

	"github.com/sakif/codebin/internal/client"
	"github.com/sakif/codebin/internal/flow"
)

const defaultAPIURL = "http://localhost:8080"

// rootOptions holds the global flags and what every subcommand builds from them.
type rootOptions struct {
	apiURL  string
	origin  string
	timeout time.Duration
	verbose bool

	clip   flow.Clipboard
	logger *slog.Logger
}

func newRootCmd(clip flow.Clipboard) *cobra.Command {
	opts := &rootOptions{clip: clip}

	apiDefault := os.Getenv("CODEBIN_API_URL")
	if apiDefault == "" {
		apiDefault = defaultAPIURL
	}

	cmd := &cobra.Command{
		Use:   "codebin",
		Short: "Share code snippets from the terminal",
		Long: `codebin talks to a CodeBin server.

Available subcommands:
  create - paste code from a file or stdin and print its share link
  view   - print a snippet with syntax highlighting`,
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			level := slog.LevelWarn
			if opts.verbose {
				level = slog.LevelDebug
			}
			opts.logger = slog.New(slog.NewTextHandler(cmd.ErrOrStderr(), &slog.HandlerOptions{Level: level}))
			return nil
		},
	}

	cmd.PersistentFlags().StringVar(&opts.apiURL, "api", apiDefault, "CodeBin API base URL (or set CODEBIN_API_URL)")
	cmd.PersistentFlags().StringVar(&opts.origin, "origin", "", "Origin for share links (default: the API base URL)")
	cmd.PersistentFlags().DurationVar(&opts.timeout, "timeout", 0, "Give up after this long (0 waits for the server)")
	cmd.PersistentFlags().BoolVarP(&opts.verbose, "verbose", "v", false, "Enable debug logging")

	cmd.AddCommand(newCreateCmd(opts))
	cmd.AddCommand(newViewCmd(opts))
	return cmd
}

func (o *rootOptions) client() (*client.Client, error) {
	return client.New(o.apiURL)
}

// shareOrigin is where links point: --origin, or the API host itself.
func (o *rootOptions) shareOrigin(c *client.Client) string {
	if o.origin != "" {
		return o.origin
	}
	return c.BaseURL()
}

// context bounds ctx by --timeout when one is set.
func (o *rootOptions) context(ctx context.Context) (context.Context, context.CancelFunc) {
	if o.timeout > 0 {
		return context.WithTimeout(ctx, o.timeout)
	}
	return context.WithCancel(ctx)
}

// flowError turns a flow failure into what the user reads on stderr: the
// classified message when there is one, the raw error otherwise.
func flowError(msg string, err error) error {
	if errors.Is(err, context.DeadlineExceeded) {
		return errors.New("timed out waiting for the server")
	}
	if msg != "" {
		return errors.New(msg)
	}
	return err
}
