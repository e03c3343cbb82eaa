package main

import (
	"log/slog"
	"os"

	"github.com/spf13/cobra"

	"github.com/officemind/docagent/internal/api"
	"github.com/officemind/docagent/internal/config"
	"github.com/officemind/docagent/internal/session"
	"github.com/officemind/docagent/version"
)

var (
	cfgFile      string
	serverURL    string
	outputFormat string

	cfgMgr *config.Manager
	logger *slog.Logger
	store  *session.Store
)

var rootCmd = &cobra.Command{
	Use:   "docagent",
	Short: "Client for the office document intelligent agent",
	Long: `docagent drives a document agent backend over its REST API.

Operations:
  - Format alignment against reference documents or saved templates
  - Writing-style analysis, transfer, and template management
  - Interactive document fill with conversational question answering
  - Document review with per-suggestion accept/reject
  - Batch processing with live job progress`,
	Version: version.GitRelease,
}

func init() {
	rootCmd.PersistentFlags().StringVar(
		&cfgFile, "config", "", "config file (default: ./config.yaml or ~/.docagent/config.yaml)",
	)
	rootCmd.PersistentFlags().StringVar(
		&serverURL, "server", "", "server URL (default from config, http://localhost:8080)",
	)
	rootCmd.PersistentFlags().StringVarP(
		&outputFormat, "output", "o", "yaml", "output format: yaml or json",
	)

	rootCmd.PersistentPreRunE = func(cmd *cobra.Command, args []string) error {
		api.SetOutputFormat(outputFormat)

		logger = slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{
			Level: slog.LevelInfo,
		}))

		mgr, err := config.NewManager(cfgFile)
		if err != nil {
			return err
		}
		cfgMgr = mgr
		cfgMgr.WatchConfig()

		store = session.NewStoreWithMax(cfgMgr.Get().MaxUploadSize)
		return nil
	}

	rootCmd.AddCommand(versionCmd)
}

// resolvedServerURL prefers the --server flag over the config file.
func resolvedServerURL() string {
	if serverURL != "" {
		return serverURL
	}
	return cfgMgr.Get().ServerURL
}

// newClient builds the API client from flags and config.
func newClient() *api.Client {
	cfg := cfgMgr.Get()
	return api.NewClient(resolvedServerURL(),
		api.WithTimeout(cfg.RequestTimeout),
		api.WithAttempts(cfg.RetryAttempts),
		api.WithRetryDelay(cfg.RetryDelay),
		api.WithLogger(logger),
	)
}
