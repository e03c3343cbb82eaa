package main

import (
	"os"

	"github.com/spf13/cobra"

	"github.com/officemind/docagent/internal/api"
	"github.com/officemind/docagent/internal/review"
	"github.com/officemind/docagent/internal/style"
)

var styleCmd = &cobra.Command{
	Use:   "style",
	Short: "Writing-style analysis and alignment commands",
}

var styleAnalyzeCmd = func() *cobra.Command {
	var saveAs string
	cmd := &cobra.Command{
		Use:   "analyze <file>",
		Short: "Extract writing-style features from a sample document",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			svc := style.NewService(newClient(), store, logger)
			features, err := svc.Analyze(cmd.Context(), args[0])
			if err != nil {
				return err
			}
			if saveAs != "" {
				id, err := svc.SaveTemplate(cmd.Context(), saveAs, features)
				if err != nil {
					return err
				}
				return api.Output(map[string]any{"template_id": id, "features": features})
			}
			return api.Output(features)
		},
	}
	cmd.Flags().StringVar(&saveAs, "save", "", "Save the features as a named template")
	return cmd
}()

var styleTemplatesCmd = &cobra.Command{
	Use:   "templates",
	Short: "List saved writing-style templates",
	RunE: func(cmd *cobra.Command, args []string) error {
		svc := style.NewService(newClient(), store, logger)
		return api.Output(svc.RefreshTemplates(cmd.Context()))
	},
}

var stylePreviewCmd = func() *cobra.Command {
	var templateID string
	cmd := &cobra.Command{
		Use:   "preview <file>",
		Short: "Preview style alignment with per-change accept/reject",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			resp, err := review.PreviewStyle(cmd.Context(), newClient(), store, logger, args[0], templateID)
			if err != nil {
				return err
			}
			return api.Output(resp)
		},
	}
	cmd.Flags().StringVar(&templateID, "template", "", "Style template to align against")
	return cmd
}()

func styleChangeCmd(use, short string, action review.Action) *cobra.Command {
	return &cobra.Command{
		Use:   use + " <session-id> <change-id>",
		Short: short,
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			rec := review.NewReconciler(newClient(), review.StyleAlignment, logger)
			resp, err := rec.Apply(cmd.Context(), args[0], args[1], action)
			if err != nil {
				return err
			}
			return api.Output(resp)
		},
	}
}

var styleExportCmd = func() *cobra.Command {
	var out string
	cmd := &cobra.Command{
		Use:   "export <session-id>",
		Short: "Download the style-aligned document",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			if out == "" {
				out = "styled-" + args[0] + ".docx"
			}
			rec := review.NewReconciler(newClient(), review.StyleAlignment, logger)
			blob, err := rec.Export(cmd.Context(), args[0], out)
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
	styleCmd.AddCommand(styleAnalyzeCmd)
	styleCmd.AddCommand(styleTemplatesCmd)
	styleCmd.AddCommand(stylePreviewCmd)
	styleCmd.AddCommand(styleChangeCmd("accept", "Accept one style change", review.ActionAccept))
	styleCmd.AddCommand(styleChangeCmd("reject", "Reject one style change", review.ActionReject))
	styleCmd.AddCommand(styleExportCmd)
	rootCmd.AddCommand(styleCmd)
}
