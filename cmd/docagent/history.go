package main

import (
	"github.com/spf13/cobra"

	"github.com/officemind/docagent/internal/api"
	"github.com/officemind/docagent/internal/history"
)

var historyCmd = &cobra.Command{
	Use:   "history",
	Short: "Document operation history commands",
}

func newHistoryService() *history.Service {
	return history.NewService(newClient(), logger)
}

var historyListCmd = &cobra.Command{
	Use:   "list",
	Short: "List past document operations",
	RunE: func(cmd *cobra.Command, args []string) error {
		entries, err := newHistoryService().List(cmd.Context())
		if err != nil {
			return err
		}
		return api.Output(entries)
	},
}

var historyReapplyCmd = &cobra.Command{
	Use:   "reapply <entry-id>",
	Short: "Re-run a past operation on its original document",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		resp, err := newHistoryService().Reapply(cmd.Context(), args[0])
		if err != nil {
			return err
		}
		return api.Output(resp)
	},
}

var historyUploadCmd = &cobra.Command{
	Use:   "upload <entry-id> <file>",
	Short: "Re-run a past operation on a new document",
	Args:  cobra.ExactArgs(2),
	RunE: func(cmd *cobra.Command, args []string) error {
		resp, err := newHistoryService().Upload(cmd.Context(), args[0], args[1])
		if err != nil {
			return err
		}
		return api.Output(resp)
	},
}

func init() {
	historyCmd.AddCommand(historyListCmd)
	historyCmd.AddCommand(historyReapplyCmd)
	historyCmd.AddCommand(historyUploadCmd)
	rootCmd.AddCommand(historyCmd)
}
