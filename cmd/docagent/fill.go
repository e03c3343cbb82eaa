package main

import (
	"bufio"
	"fmt"
	"os"
	"strings"

	"github.com/spf13/cobra"

	"github.com/officemind/docagent/internal/api"
	"github.com/officemind/docagent/internal/fill"
)

var fillCmd = func() *cobra.Command {
	var (
		materials     []string
		styleTemplate string
		out           string
	)
	cmd := &cobra.Command{
		Use:   "fill <document>",
		Short: "Fill a document through a conversational session",
		Long: `Fill uploads a document with blank fields, walks through the server's
question-and-answer stage on the terminal, and downloads the filled result.

The server drives the stage machine; this command just follows it:
  upload -> analyze -> supplementary materials -> style selection ->
  conversational QA -> filling -> completed`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			conv := fill.NewConversation(newClient(), store, logger)

			if err := conv.Start(ctx, args[0]); err != nil {
				return err
			}

			for _, m := range materials {
				if err := conv.AddMaterial(ctx, m); err != nil {
					return err
				}
			}

			if styleTemplate != "" {
				if err := conv.SetStyle(ctx, styleTemplate); err != nil {
					return err
				}
			}

			// Conversational QA: read answers from the terminal until the
			// server reports the questions are done.
			scanner := bufio.NewScanner(os.Stdin)
			for conv.Stage() == fill.StageQA {
				current, total := conv.Progress()
				fmt.Fprintf(os.Stderr, "[%d/%d] > ", current, total)
				if !scanner.Scan() {
					break
				}
				text := strings.TrimSpace(scanner.Text())
				if text == "" {
					continue
				}

				reply, err := conv.Respond(ctx, text)
				if err != nil {
					// The turn stays in the transcript with a fallback
					// reply; surface the failure and let the user retry.
					fmt.Fprintf(os.Stderr, "! %v\n", err)
					continue
				}
				fmt.Fprintln(os.Stderr, reply)
			}

			result, err := conv.Result(ctx)
			if err != nil {
				return err
			}

			if out != "" && conv.Stage() == fill.StageCompleted {
				blob, err := conv.Download(ctx, out)
				if err != nil {
					return err
				}
				if err := os.WriteFile(blob.Filename, blob.Data, 0o644); err != nil {
					return err
				}
				logger.Info("filled document saved", "file", blob.Filename)
			}

			return api.Output(result)
		},
	}
	cmd.Flags().StringSliceVar(&materials, "material", nil, "Supplementary material files")
	cmd.Flags().StringVar(&styleTemplate, "style-template", "", "Writing-style template id")
	cmd.Flags().StringVar(&out, "out", "", "Download the filled document to this file")
	return cmd
}()

func init() {
	rootCmd.AddCommand(fillCmd)
}
