package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/officemind/docagent/internal/api"
	"github.com/officemind/docagent/internal/format"
)

var formatCmd = &cobra.Command{
	Use:   "format",
	Short: "Format alignment commands",
}

func newFormatService() *format.Service {
	return format.NewService(newClient(), store, logger)
}

var formatAlignCmd = func() *cobra.Command {
	var reference string
	cmd := &cobra.Command{
		Use:   "align <file>",
		Short: "Align a document's format, optionally against a reference document",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			resp, err := newFormatService().Align(cmd.Context(), args[0], reference)
			if err != nil {
				return err
			}
			return api.Output(resp)
		},
	}
	cmd.Flags().StringVar(&reference, "reference", "", "Reference document whose format to match")
	return cmd
}()

var formatTemplatesCmd = &cobra.Command{
	Use:   "templates",
	Short: "List saved format templates",
	RunE: func(cmd *cobra.Command, args []string) error {
		templates, err := newFormatService().Templates(cmd.Context())
		if err != nil {
			return err
		}
		return api.Output(templates)
	},
}

var formatSaveTemplateCmd = func() *cobra.Command {
	var name string
	cmd := &cobra.Command{
		Use:   "save-template <file>",
		Short: "Persist a document's format as a named template",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			if name == "" {
				return fmt.Errorf("--name is required")
			}
			id, err := newFormatService().SaveTemplate(cmd.Context(), name, args[0])
			if err != nil {
				return err
			}
			return api.Output(map[string]string{"template_id": id, "name": name})
		},
	}
	cmd.Flags().StringVar(&name, "name", "", "Template name (required)")
	return cmd
}()

var formatApplyCmd = &cobra.Command{
	Use:   "apply <template-id> <file>",
	Short: "Format a document using a saved template",
	Args:  cobra.ExactArgs(2),
	RunE: func(cmd *cobra.Command, args []string) error {
		resp, err := newFormatService().ApplyTemplate(cmd.Context(), args[0], args[1])
		if err != nil {
			return err
		}
		return api.Output(resp)
	},
}

func init() {
	formatCmd.AddCommand(formatAlignCmd)
	formatCmd.AddCommand(formatTemplatesCmd)
	formatCmd.AddCommand(formatSaveTemplateCmd)
	formatCmd.AddCommand(formatApplyCmd)
	rootCmd.AddCommand(formatCmd)
}
