package main

import (
	"fmt"
	"log/slog"
	"strings"

	"github.com/spf13/cobra"

	"github.com/sakif/codebin/internal/flow"
	"github.com/sakif/codebin/internal/highlight"
)

// defaultTerminalStyle reads well on dark terminals.
const defaultTerminalStyle = "monokai"

func newViewCmd(root *rootOptions) *cobra.Command {
	var (
		style    string
		plain    bool
		copyCode bool
	)

	cmd := &cobra.Command{
		Use:   "view ID",
		Short: "Print a snippet with syntax highlighting",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			api, err := root.client()
			if err != nil {
				return err
			}

			ret := flow.NewRetrieval(api, flow.WithClipboard(root.clip))
			defer ret.Close()

			ctx, cancel := root.context(cmd.Context())
			defer cancel()

			err = ret.Navigate(ctx, args[0])
			v := ret.Snapshot()
			if v.State != flow.RetrievalLoaded {
				if err != nil {
					root.logger.Debug("fetch failed", slog.String("id", args[0]), slog.String("error", err.Error()))
				}
				return flowError(v.Error, err)
			}

			out := cmd.OutOrStdout()
			fmt.Fprintf(out, "%s (%s)\n\n", v.Title, v.Language.Label())
			if plain {
				fmt.Fprint(out, v.Code)
			} else if err := highlight.New(style).Terminal(out, v.Code, v.Language); err != nil {
				return err
			}
			if !strings.HasSuffix(v.Code, "\n") {
				fmt.Fprintln(out)
			}

			if copyCode {
				if err := ret.CopyCode(); err != nil {
					return fmt.Errorf("copying code: %w", err)
				}
				fmt.Fprintln(cmd.ErrOrStderr(), ret.Copy.Label("Copy Code"))
			}
			return nil
		},
	}

	cmd.Flags().StringVarP(&style, "style", "s", defaultTerminalStyle, "Chroma style for highlighting")
	cmd.Flags().BoolVar(&plain, "plain", false, "Print the code without colours")
	cmd.Flags().BoolVarP(&copyCode, "copy", "c", false, "Copy the code to the clipboard")
	return cmd
}
