package main

import (
	"os"

	"github.com/spf13/cobra"

	"github.com/officemind/docagent/internal/api"
	"github.com/officemind/docagent/internal/review"
)

var reviewCmd = &cobra.Command{
	Use:   "review",
	Short: "Document review commands",
}

func newReviewReconciler() *review.Reconciler {
	return review.NewReconciler(newClient(), review.DocumentReview, logger)
}

var reviewStartCmd = &cobra.Command{
	Use:   "start <file>",
	Short: "Upload a document for review and wait for suggestions",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx := cmd.Context()
		client := newClient()

		sessionID, err := review.StartReview(ctx, client, store, logger, args[0])
		if err != nil {
			return err
		}

		rec := review.NewReconciler(client, review.DocumentReview, logger)
		suggestions, err := rec.Await(ctx, sessionID, cfgMgr.Get().SuggestionPollInterval)
		if err != nil {
			return err
		}

		return api.Output(map[string]any{
			"session_id":  sessionID,
			"suggestions": suggestions,
		})
	},
}

var reviewSuggestionsCmd = &cobra.Command{
	Use:   "suggestions <session-id>",
	Short: "Fetch the current suggestions once",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		suggestions, err := newReviewReconciler().Fetch(cmd.Context(), args[0])
		if err != nil {
			return err
		}
		return api.Output(suggestions)
	},
}

func reviewActionCmd(use, short string, action review.Action) *cobra.Command {
	return &cobra.Command{
		Use:   use + " <session-id> <suggestion-id>",
		Short: short,
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			resp, err := newReviewReconciler().Apply(cmd.Context(), args[0], args[1], action)
			if err != nil {
				return err
			}
			return api.Output(resp)
		},
	}
}

func reviewBatchCmd(use, short string, action review.Action) *cobra.Command {
	return &cobra.Command{
		Use:   use + " <session-id>",
		Short: short,
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			resp, err := newReviewReconciler().ApplyAll(cmd.Context(), args[0], action)
			if err != nil {
				return err
			}
			return api.Output(resp)
		},
	}
}

var reviewExportCmd = func() *cobra.Command {
	var out string
	cmd := &cobra.Command{
		Use:   "export <session-id>",
		Short: "Download the reviewed document",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			if out == "" {
				out = "reviewed-" + args[0] + ".docx"
			}
			blob, err := newReviewReconciler().Export(cmd.Context(), args[0], out)
			if err != nil {
				return err
			}
			if err := os.WriteFile(blob.Filename, blob.Data, 0o644); err != nil {
				return err
			}
			return api.Output(map[string]string{"file": blob.Filename, "content_type": blob.ContentType})
		},
	}
	cmd.Flags().StringVar(&out, "out", "", "Output filename")
	return cmd
}()

func init() {
	reviewCmd.AddCommand(reviewStartCmd)
	reviewCmd.AddCommand(reviewSuggestionsCmd)
	reviewCmd.AddCommand(reviewActionCmd("accept", "Accept one suggestion", review.ActionAccept))
	reviewCmd.AddCommand(reviewActionCmd("reject", "Reject one suggestion", review.ActionReject))
	reviewCmd.AddCommand(reviewBatchCmd("accept-all", "Accept every pending suggestion", review.ActionAccept))
	reviewCmd.AddCommand(reviewBatchCmd("reject-all", "Reject every pending suggestion", review.ActionReject))
	reviewCmd.AddCommand(reviewExportCmd)
	rootCmd.AddCommand(reviewCmd)
}
