package main

import (
	"fmt"
	"io"
	"log/slog"
	"os"

	"github.com/spf13/cobra"

	"github.com/sakif/codebin/internal/flow"
	"github.com/sakif/codebin/internal/model"
)

func newCreateCmd(root *rootOptions) *cobra.Command {
	var (
		title    string
		language string
		copyLink bool
	)

	cmd := &cobra.Command{
		Use:   "create [FILE|-]",
		Short: "Create a snippet and print its share link",
		Long: `Create a snippet from FILE, or from stdin when FILE is "-" or missing.

The share link is printed on stdout. With --copy it is also put on the
system clipboard.`,
		Args: cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			code, err := readCode(cmd.InOrStdin(), args)
			if err != nil {
				return err
			}

			lang, ok := model.ParseLanguage(language)
			if !ok {
				return fmt.Errorf("unsupported language %q (choose from %v)", language, model.Languages())
			}

			api, err := root.client()
			if err != nil {
				return err
			}

			sub := flow.NewSubmission(api, root.shareOrigin(api), flow.WithClipboard(root.clip))
			defer sub.Close()

			sub.SetTitle(title)
			sub.SetCode(code)
			if err := sub.SetLanguage(lang); err != nil {
				return err
			}

			ctx, cancel := root.context(cmd.Context())
			defer cancel()

			if err := sub.Submit(ctx); err != nil {
				root.logger.Debug("submit failed", slog.String("error", err.Error()))
				return flowError(sub.Snapshot().Error, err)
			}

			out := cmd.OutOrStdout()
			fmt.Fprintln(out, sub.Snapshot().Link)

			if copyLink {
				if err := sub.CopyLink(); err != nil {
					return fmt.Errorf("copying link: %w", err)
				}
				fmt.Fprintln(cmd.ErrOrStderr(), sub.LinkCopy.Label("Copy Link"))
			}
			return nil
		},
	}

	cmd.Flags().StringVarP(&title, "title", "t", "", "Snippet title (required)")
	cmd.Flags().StringVarP(&language, "language", "l", string(model.DefaultLanguage), "Highlighting language")
	cmd.Flags().BoolVarP(&copyLink, "copy", "c", false, "Copy the share link to the clipboard")
	return cmd
}

// readCode reads the named file, or stdin for "-" or no argument.
func readCode(stdin io.Reader, args []string) (string, error) {
	if len(args) == 0 || args[0] == "-" {
		b, err := io.ReadAll(stdin)
		if err != nil {
			return "", fmt.Errorf("reading stdin: %w", err)
		}
		return string(b), nil
	}
	b, err := os.ReadFile(args[0])
	if err != nil {
		return "", fmt.Errorf("reading %s: %w", args[0], err)
	}
	return string(b), nil
}
